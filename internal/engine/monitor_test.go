package engine_test

import (
	"context"
	"testing"
	"time"

	"transit-guard/monitor/internal/domain"
	"transit-guard/monitor/internal/engine"
	"transit-guard/monitor/internal/geofence"
)

type recordingSink struct {
	delivered []domain.Alert
}

func (s *recordingSink) DeliverAlert(_ context.Context, a domain.Alert) error {
	s.delivered = append(s.delivered, a)
	return nil
}

func newTestMonitor() *engine.Monitor {
	geo := geofence.NewService(geofence.DefaultZones())
	return engine.NewMonitor(
		engine.NewStopAnalyzer(geo),
		engine.NewWeightAnalyzer(geo),
		engine.NewEscalationEngine(nil),
	)
}

// Theft signature: the truck stops outside every zone and the weight drops
// 500 kg a few minutes into the stop. Must go straight to EMERGENCY with
// the full action ladder.
func TestTheftScenarioEscalatesToEmergency(t *testing.T) {
	ctx := context.Background()
	m := newTestMonitor()
	sink := &recordingSink{}
	m.AddSink(sink)

	// Rolling on the highway, then stopped.
	m.ProcessReading(ctx, reading("T1", t0, highwayLat, highwayLon, true, 25000))
	for min := 1; min <= 4; min++ {
		raised := m.ProcessReading(ctx, reading("T1", t0.Add(time.Duration(min)*time.Minute), highwayLat, highwayLon, false, 25000))
		if len(raised) != 0 {
			t.Fatalf("Expected quiet during early stop, got %d alerts at minute %d", len(raised), min)
		}
	}

	// 500 kg vanishes 5 minutes into the stop.
	raised := m.ProcessReading(ctx, reading("T1", t0.Add(5*time.Minute), highwayLat, highwayLon, false, 24500))

	if len(raised) != 1 {
		t.Fatalf("Expected exactly one alert, got %d", len(raised))
	}
	a := raised[0]
	if a.Level != domain.LevelEmergency {
		t.Errorf("Expected EMERGENCY, got %s", a.LevelName)
	}
	if a.Source != domain.SourceCombined {
		t.Errorf("Expected combined source, got %s", a.Source)
	}
	if len(a.ActionsTaken) != 7 {
		t.Errorf("Expected all four action tiers (7 actions), got %v", a.ActionsTaken)
	}
	if len(sink.delivered) != 1 || sink.delivered[0].ID != a.ID {
		t.Errorf("Expected alert delivered to sink, got %+v", sink.delivered)
	}
}

// The combined signature swallows the individual stop and weight signals
// for that tick; one event, one alert.
func TestCombinedSwallowsIndividualSignals(t *testing.T) {
	ctx := context.Background()
	m := newTestMonitor()

	m.ProcessReading(ctx, reading("T1", t0, highwayLat, highwayLon, true, 25000))
	m.ProcessReading(ctx, reading("T1", t0.Add(time.Minute), highwayLat, highwayLon, false, 25000))
	raised := m.ProcessReading(ctx, reading("T1", t0.Add(12*time.Minute), highwayLat, highwayLon, false, 24500))

	if len(raised) != 1 {
		t.Fatalf("Expected a single combined alert, got %d", len(raised))
	}
	if raised[0].Source != domain.SourceCombined {
		t.Errorf("Expected combined source, got %s", raised[0].Source)
	}
	if got := m.Escalation().Summary().TotalActive; got != 1 {
		t.Errorf("Expected 1 active alert, got %d", got)
	}
}

// A 20 minute break at the Kharagpur rest stop (30 min allowance) with
// stable weight must raise nothing.
func TestBenignRestStopRaisesNothing(t *testing.T) {
	ctx := context.Background()
	m := newTestMonitor()

	m.ProcessReading(ctx, reading("T1", t0, restStopLat, restStopLon, true, 25000))
	for min := 1; min <= 20; min++ {
		raised := m.ProcessReading(ctx, reading("T1", t0.Add(time.Duration(min)*time.Minute), restStopLat, restStopLon, false, 25000))
		if len(raised) != 0 {
			t.Fatalf("Expected no alerts at minute %d, got %d", min, len(raised))
		}
	}

	// Departure completes the stop; still benign.
	raised := m.ProcessReading(ctx, reading("T1", t0.Add(21*time.Minute), restStopLat, restStopLon, true, 25000))
	if len(raised) != 0 {
		t.Errorf("Expected benign completed stop, got %+v", raised[0])
	}
	if got := m.Escalation().Summary().TotalActive; got != 0 {
		t.Errorf("Expected no active alerts, got %d", got)
	}
}

// Unloading at the destination while the trip winds down is expected and
// must not alert, even for a large drop.
func TestDestinationUnloadingRaisesNothing(t *testing.T) {
	ctx := context.Background()
	m := newTestMonitor()

	m.ProcessReading(ctx, reading("T1", t0, destinationLat, destinationLon, true, 25000))
	raised := m.ProcessReading(ctx, reading("T1", t0.Add(time.Minute), destinationLat, destinationLon, true, 24850))

	if len(raised) != 0 {
		t.Errorf("Expected no alert for unloading at destination, got %+v", raised)
	}
}

// The stop analyzer re-emits an ongoing unauthorized stop every tick; the
// monitor's dedup keeps that to a single alert.
func TestOngoingStopDeduplicated(t *testing.T) {
	ctx := context.Background()
	m := newTestMonitor()

	m.ProcessReading(ctx, reading("T1", t0, highwayLat, highwayLon, true, 25000))
	m.ProcessReading(ctx, reading("T1", t0.Add(time.Minute), highwayLat, highwayLon, false, 25000))

	total := 0
	for min := 2; min <= 20; min++ {
		raised := m.ProcessReading(ctx, reading("T1", t0.Add(time.Duration(min)*time.Minute), highwayLat, highwayLon, false, 25000))
		total += len(raised)
	}

	if total != 1 {
		t.Errorf("Expected one deduplicated alert across the ongoing stop, got %d", total)
	}
	if got := m.Escalation().Summary().TotalActive; got != 1 {
		t.Errorf("Expected 1 active alert, got %d", got)
	}
}

// Per-truck isolation: one truck's theft must not suppress or taint another
// truck's processing.
func TestTrucksProcessedIndependently(t *testing.T) {
	ctx := context.Background()
	m := newTestMonitor()

	m.ProcessReading(ctx, reading("T1", t0, highwayLat, highwayLon, true, 25000))
	m.ProcessReading(ctx, reading("T2", t0, restStopLat, restStopLon, true, 18000))

	m.ProcessReading(ctx, reading("T1", t0.Add(time.Minute), highwayLat, highwayLon, false, 25000))
	raised := m.ProcessReading(ctx, reading("T1", t0.Add(6*time.Minute), highwayLat, highwayLon, false, 24400))
	if len(raised) != 1 || raised[0].Level != domain.LevelEmergency {
		t.Fatalf("Expected T1 emergency, got %+v", raised)
	}

	// T2 keeps cruising with stable weight.
	raised = m.ProcessReading(ctx, reading("T2", t0.Add(6*time.Minute), restStopLat, restStopLon, true, 18000))
	if len(raised) != 0 {
		t.Errorf("Expected nothing for T2, got %+v", raised)
	}

	active := m.Escalation().ActiveAlerts()
	if len(active) != 1 || active[0].TruckID != "T1" {
		t.Errorf("Expected exactly one alert, for T1, got %+v", active)
	}
}

// Suspicious drop while still moving outside a zone: weight path alone,
// no combined escalation.
func TestMovingDropStaysOnWeightPath(t *testing.T) {
	ctx := context.Background()
	m := newTestMonitor()

	m.ProcessReading(ctx, reading("T1", t0, highwayLat, highwayLon, true, 25000))
	raised := m.ProcessReading(ctx, reading("T1", t0.Add(time.Minute), highwayLat, highwayLon, true, 24900))

	if len(raised) != 1 {
		t.Fatalf("Expected one alert, got %d", len(raised))
	}
	if raised[0].Source != domain.SourceWeightAnalyzer {
		t.Errorf("Expected weight analyzer source, got %s", raised[0].Source)
	}
	if raised[0].Level != domain.LevelWarning {
		t.Errorf("Expected WARNING for 100 kg moving drop, got %s", raised[0].LevelName)
	}
}
