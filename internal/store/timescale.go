package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"transit-guard/monitor/internal/config"
	"transit-guard/monitor/internal/domain"
)

// TimescaleStore is a write-only archive. The engine never reads alert
// state back from it; in-memory state stays authoritative.
type TimescaleStore struct {
	pool *pgxpool.Pool
}

func NewTimescaleStore(ctx context.Context, cfg *config.Config) (*TimescaleStore, error) {
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?pool_max_conns=%d",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBMaxConns,
	)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create db pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return &TimescaleStore{pool: pool}, nil
}

func (s *TimescaleStore) Close() {
	s.pool.Close()
}

func (s *TimescaleStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

var telemetryColumns = []string{
	"timestamp",
	"truck_id",
	"latitude",
	"longitude",
	"speed_kmh",
	"weight_kg",
	"is_moving",
	"in_authorized_zone",
	"zone_name",
	"scenario",
}

// BatchInsert archives a batch of readings with a single CopyFrom.
func (s *TimescaleStore) BatchInsert(ctx context.Context, readings []domain.Reading) error {
	if len(readings) == 0 {
		return nil
	}

	rows := make([][]interface{}, len(readings))
	for i, r := range readings {
		rows[i] = []interface{}{
			r.Timestamp,
			r.TruckID,
			r.Latitude,
			r.Longitude,
			r.SpeedKmh,
			r.WeightKg,
			r.IsMoving,
			r.InAuthorizedZone,
			r.ZoneName,
			r.Scenario,
		}
	}

	_, err := s.pool.CopyFrom(
		ctx,
		pgx.Identifier{"truck_telemetry"},
		telemetryColumns,
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("CopyFrom failed for batch of %d: %w", len(readings), err)
	}

	return nil
}

// InsertStopEvent archives a completed stop.
func (s *TimescaleStore) InsertStopEvent(ctx context.Context, ev domain.StopEvent) error {
	query := `
		INSERT INTO stop_events
			(truck_id, start_time, end_time, latitude, longitude,
			 duration_minutes, is_authorized, zone_name, is_suspicious, reason)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.pool.Exec(
		ctx,
		query,
		ev.TruckID,
		ev.StartTime,
		ev.EndTime,
		ev.Latitude,
		ev.Longitude,
		ev.DurationMin,
		ev.IsAuthorized,
		ev.ZoneName,
		ev.IsSuspicious,
		ev.Reason,
	)
	return err
}

// DeliverAlert archives an escalation alert. Implements engine.AlertSink.
func (s *TimescaleStore) DeliverAlert(ctx context.Context, a domain.Alert) error {
	query := `
		INSERT INTO escalation_alerts
			(alert_id, truck_id, timestamp, level, source, title,
			 description, latitude, longitude, created_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT DO NOTHING
	`
	_, err := s.pool.Exec(
		ctx,
		query,
		a.ID,
		a.TruckID,
		a.Timestamp,
		a.Level.String(),
		string(a.Source),
		a.Title,
		a.Description,
		a.Latitude,
		a.Longitude,
	)
	return err
}
