package engine_test

import (
	"testing"
	"time"

	"transit-guard/monitor/internal/domain"
	"transit-guard/monitor/internal/engine"
	"transit-guard/monitor/internal/geofence"
)

// Corridor points used across the engine tests.
const (
	highwayLat = 22.5000 // outside every zone
	highwayLon = 86.8000

	restStopLat = 22.3460 // Kharagpur Rest Stop (max 30 min)
	restStopLon = 87.3236

	destinationLat = 22.5958 // Howrah Distribution Center
	destinationLon = 88.2636
)

var t0 = time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

func reading(truckID string, ts time.Time, lat, lon float64, moving bool, weightKg float64) domain.Reading {
	return domain.Reading{
		TruckID:   truckID,
		Timestamp: ts,
		Latitude:  lat,
		Longitude: lon,
		SpeedKmh:  45,
		IsMoving:  moving,
		WeightKg:  weightKg,
	}
}

func newStopAnalyzer() *engine.StopAnalyzer {
	return engine.NewStopAnalyzer(geofence.NewService(geofence.DefaultZones()))
}

func TestShortStopDiscarded(t *testing.T) {
	a := newStopAnalyzer()

	if ev := a.ProcessReading(reading("T1", t0, highwayLat, highwayLon, false, 25000)); ev != nil {
		t.Errorf("Expected no event when stop begins, got %+v", ev)
	}

	// Moving again after 2 minutes: traffic, not a stop.
	ev := a.ProcessReading(reading("T1", t0.Add(2*time.Minute), highwayLat, highwayLon, true, 25000))
	if ev != nil {
		t.Errorf("Expected short stop to be discarded, got %+v", ev)
	}
	if got := len(a.CompletedStops()); got != 0 {
		t.Errorf("Expected empty stop history, got %d", got)
	}
}

func TestUnauthorizedLongStopSuspicious(t *testing.T) {
	a := newStopAnalyzer()

	a.ProcessReading(reading("T1", t0, highwayLat, highwayLon, false, 25000))
	ev := a.ProcessReading(reading("T1", t0.Add(12*time.Minute), highwayLat, highwayLon, true, 25000))

	if ev == nil {
		t.Fatal("Expected a completed stop event")
	}
	if !ev.IsSuspicious {
		t.Error("Expected 12 min unauthorized stop to be suspicious")
	}
	if ev.IsAuthorized {
		t.Error("Expected stop to be unauthorized")
	}
	if ev.Ongoing() {
		t.Error("Expected completed stop to have an end time")
	}
	if ev.DurationMin < 11.9 || ev.DurationMin > 12.1 {
		t.Errorf("Expected ~12 min duration, got %.1f", ev.DurationMin)
	}
}

func TestBriefUnauthorizedStopBenign(t *testing.T) {
	a := newStopAnalyzer()

	a.ProcessReading(reading("T1", t0, highwayLat, highwayLon, false, 25000))
	ev := a.ProcessReading(reading("T1", t0.Add(5*time.Minute), highwayLat, highwayLon, true, 25000))

	if ev == nil {
		t.Fatal("Expected a completed stop event for a 5 min stop")
	}
	if ev.IsSuspicious {
		t.Errorf("Expected brief unauthorized stop to be benign, reason: %s", ev.Reason)
	}
}

func TestAuthorizedStopWithinAllowance(t *testing.T) {
	a := newStopAnalyzer()

	a.ProcessReading(reading("T1", t0, restStopLat, restStopLon, false, 25000))
	ev := a.ProcessReading(reading("T1", t0.Add(20*time.Minute), restStopLat, restStopLon, true, 25000))

	if ev == nil {
		t.Fatal("Expected a completed stop event")
	}
	if ev.IsSuspicious {
		t.Errorf("Expected 20 min rest stop (max 30) to be benign, reason: %s", ev.Reason)
	}
	if !ev.IsAuthorized || ev.ZoneName != "Kharagpur Rest Stop" {
		t.Errorf("Expected authorized rest stop, got %+v", ev)
	}
}

func TestAuthorizedStopExceedingMax(t *testing.T) {
	a := newStopAnalyzer()

	a.ProcessReading(reading("T1", t0, restStopLat, restStopLon, false, 25000))
	ev := a.ProcessReading(reading("T1", t0.Add(45*time.Minute), restStopLat, restStopLon, true, 25000))

	if ev == nil {
		t.Fatal("Expected a completed stop event")
	}
	if !ev.IsSuspicious {
		t.Error("Expected 45 min stop at a 30 min zone to be suspicious")
	}
}

func TestOngoingUnauthorizedStopWarning(t *testing.T) {
	a := newStopAnalyzer()

	a.ProcessReading(reading("T1", t0, highwayLat, highwayLon, false, 25000))

	// Below threshold: quiet.
	if ev := a.ProcessReading(reading("T1", t0.Add(5*time.Minute), highwayLat, highwayLon, false, 25000)); ev != nil {
		t.Errorf("Expected no warning at 5 min, got %+v", ev)
	}

	// At threshold: ongoing warning, end time absent.
	ev := a.ProcessReading(reading("T1", t0.Add(10*time.Minute), highwayLat, highwayLon, false, 25000))
	if ev == nil {
		t.Fatal("Expected ongoing warning at 10 min")
	}
	if !ev.IsSuspicious || !ev.Ongoing() {
		t.Errorf("Expected suspicious ongoing event, got %+v", ev)
	}

	// Re-emitted on the next tick; dedup is not this layer's job.
	if ev := a.ProcessReading(reading("T1", t0.Add(11*time.Minute), highwayLat, highwayLon, false, 25000)); ev == nil {
		t.Error("Expected ongoing warning to be re-emitted")
	}
}

func TestMovingWithNoOpenStopIsNoop(t *testing.T) {
	a := newStopAnalyzer()

	if ev := a.ProcessReading(reading("T1", t0, highwayLat, highwayLon, true, 25000)); ev != nil {
		t.Errorf("Expected no-op for moving truck, got %+v", ev)
	}
}

func TestActiveStopSnapshot(t *testing.T) {
	a := newStopAnalyzer()

	a.ProcessReading(reading("T1", t0, highwayLat, highwayLon, false, 25000))

	snap, ok := a.ActiveStop("T1", t0.Add(7*time.Minute))
	if !ok {
		t.Fatal("Expected an active stop for T1")
	}
	if snap.DurationMin < 6.9 || snap.DurationMin > 7.1 {
		t.Errorf("Expected ~7 min snapshot duration, got %.1f", snap.DurationMin)
	}
	if snap.IsSuspicious {
		t.Error("Expected 7 min unauthorized stop to not be suspicious yet")
	}

	if _, ok := a.ActiveStop("T2", t0); ok {
		t.Error("Expected no active stop for unknown truck")
	}
}

func TestIndependentTruckState(t *testing.T) {
	a := newStopAnalyzer()

	a.ProcessReading(reading("T1", t0, highwayLat, highwayLon, false, 25000))
	a.ProcessReading(reading("T2", t0, restStopLat, restStopLon, false, 25000))

	ev := a.ProcessReading(reading("T1", t0.Add(15*time.Minute), highwayLat, highwayLon, true, 25000))
	if ev == nil || !ev.IsSuspicious {
		t.Errorf("Expected T1 suspicious stop, got %+v", ev)
	}

	if _, ok := a.ActiveStop("T2", t0.Add(15*time.Minute)); !ok {
		t.Error("Expected T2 stop to still be open")
	}
}
