package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"transit-guard/monitor/internal/config"
	"transit-guard/monitor/internal/domain"
	"transit-guard/monitor/internal/engine"
	"transit-guard/monitor/internal/geofence"
	"transit-guard/monitor/internal/notify"
	"transit-guard/monitor/internal/pipeline"
	"transit-guard/monitor/internal/sim"
	"transit-guard/monitor/internal/store"
	transporthttp "transit-guard/monitor/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file — using system environment variables")
	}
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stores are optional: the demo runs fully in-memory when the
	// archive or Redis are unreachable.
	var ts *store.TimescaleStore
	if s, err := store.NewTimescaleStore(ctx, cfg); err != nil {
		log.Printf("Timescale archive disabled: %v", err)
	} else {
		ts = s
		defer ts.Close()
	}

	var rs *store.RedisStore
	if s, err := store.NewRedisStore(ctx, cfg); err != nil {
		log.Printf("Redis live state disabled: %v", err)
	} else {
		rs = s
		defer rs.Close()
	}

	var notifier engine.Notifier = notify.NewLogNotifier()
	if rs != nil {
		notifier = notify.NewMulti(notify.NewLogNotifier(), notify.NewRedisNotifier(rs))
	}

	geo := geofence.NewService(geofence.DefaultZones())
	stops := engine.NewStopAnalyzer(geo)
	weights := engine.NewWeightAnalyzer(geo)
	escalation := engine.NewEscalationEngine(notifier)
	monitor := engine.NewMonitor(stops, weights, escalation)

	hub := transporthttp.NewHub()
	monitor.AddSink(hub)
	if rs != nil {
		monitor.SetDeduper(rs)
		monitor.AddSink(rs)
	}
	if ts != nil {
		monitor.AddSink(ts)
		monitor.SetStopArchive(ts)
	}

	// Side sinks for the raw reading stream.
	dispatcher := pipeline.NewDispatcher(cfg.ArchiveChannelSize, cfg.StateChannelSize)
	if ts != nil {
		for i := 0; i < cfg.ArchiveWriters; i++ {
			w := pipeline.NewArchiveWriter(dispatcher.ArchiveChan, ts, cfg.ArchiveBatchSize, cfg.ArchiveFlushIntervalMS)
			go w.Run(ctx)
		}
	}
	if rs != nil {
		for i := 0; i < cfg.StateWriters; i++ {
			w := pipeline.NewStateWriter(dispatcher.StateChan, rs)
			go w.Run(ctx)
		}
	}

	srv := transporthttp.NewServer(cfg.HTTPPort, monitor, hub)
	go func() {
		log.Printf("Dashboard API listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil {
			log.Printf("HTTP server stopped: %v", err)
		}
	}()

	go feedScenarios(ctx, cfg, monitor, dispatcher, rs)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown failed: %v", err)
	}
}

type feed struct {
	truckID  string
	readings []domain.Reading
}

func buildFeeds(cfg *config.Config) []feed {
	var feeds []feed

	if cfg.Scenario == "normal" || cfg.Scenario == "both" {
		s := sim.NewTransitSimulator("TS-JH-1001", 25000, time.Now().UnixNano())
		feeds = append(feeds, feed{truckID: "TS-JH-1001", readings: s.NormalJourney(4.0)})
	}
	if cfg.Scenario == "pilferage" || cfg.Scenario == "both" {
		s := sim.NewTransitSimulator("TS-JH-1002", 25000, time.Now().UnixNano()+1)
		feeds = append(feeds, feed{truckID: "TS-JH-1002", readings: s.PilferageScenario(0.4, 800, 25)})
	}

	return feeds
}

// feedScenarios replays simulated journeys through the monitor, one
// reading per truck per tick, in per-truck timestamp order.
func feedScenarios(ctx context.Context, cfg *config.Config, monitor *engine.Monitor, dispatcher *pipeline.Dispatcher, rs *store.RedisStore) {
	feeds := buildFeeds(cfg)

	// Pre-register trips from the Redis registry when seeded; otherwise
	// the weight analyzer auto-registers on first reading.
	if rs != nil {
		for _, f := range feeds {
			if len(f.readings) == 0 {
				continue
			}
			dest, packagingKg, err := rs.GetTruckRegistration(ctx, f.truckID)
			if err != nil || dest == "" {
				continue
			}
			if packagingKg == 0 {
				packagingKg = engine.DefaultPackagingKg
			}
			monitor.Weights().RegisterTrip(f.truckID, f.readings[0].WeightKg, packagingKg, dest)
		}
	}

	ticker := time.NewTicker(time.Duration(cfg.SimTickMS) * time.Millisecond)
	defer ticker.Stop()

	idx := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			advanced := false
			for _, f := range feeds {
				if idx >= len(f.readings) {
					continue
				}
				advanced = true
				r := f.readings[idx]
				dispatcher.Dispatch(r)
				for _, alert := range monitor.ProcessReading(ctx, r) {
					log.Printf("ALERT %s [%s] %s", alert.ID, alert.LevelName, alert.Title)
				}
			}
			if !advanced {
				log.Println("Scenario replay complete")
				return
			}
			idx++
		}
	}
}
