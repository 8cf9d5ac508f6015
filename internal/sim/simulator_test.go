package sim_test

import (
	"testing"
	"time"

	"transit-guard/monitor/internal/sim"
)

func TestNormalJourneyShape(t *testing.T) {
	s := sim.NewTransitSimulator("TS-TEST-1", 25000, 42)
	readings := s.NormalJourney(4.0)

	if len(readings) != 240 {
		t.Fatalf("Expected 240 readings for a 4 h journey, got %d", len(readings))
	}

	for i := 1; i < len(readings); i++ {
		if !readings[i].Timestamp.After(readings[i-1].Timestamp) {
			t.Fatalf("Timestamps not strictly increasing at index %d", i)
		}
		if readings[i].TruckID != "TS-TEST-1" {
			t.Fatalf("Wrong truck id at index %d: %s", i, readings[i].TruckID)
		}
	}

	// One reading per simulated minute.
	gap := readings[1].Timestamp.Sub(readings[0].Timestamp)
	if gap != time.Minute {
		t.Errorf("Expected 1 min cadence, got %v", gap)
	}
}

func TestNormalJourneyWeightStable(t *testing.T) {
	s := sim.NewTransitSimulator("TS-TEST-1", 25000, 42)
	readings := s.NormalJourney(4.0)

	for i, r := range readings {
		if r.WeightKg < 24998 || r.WeightKg > 25002 {
			t.Fatalf("Weight drifted beyond sensor noise at index %d: %.2f", i, r.WeightKg)
		}
		if r.Scenario != "normal" {
			t.Fatalf("Expected normal scenario tag, got %q", r.Scenario)
		}
	}
}

func TestNormalJourneyStopsOnlyInZones(t *testing.T) {
	s := sim.NewTransitSimulator("TS-TEST-1", 25000, 42)
	readings := s.NormalJourney(4.0)

	for i, r := range readings {
		if !r.IsMoving && !r.InAuthorizedZone {
			t.Fatalf("Normal journey stopped outside a zone at index %d (%.4f, %.4f)", i, r.Latitude, r.Longitude)
		}
	}
}

func TestPilferageScenarioDropsWeightDuringStop(t *testing.T) {
	s := sim.NewTransitSimulator("TS-TEST-2", 25000, 7)
	readings := s.PilferageScenario(0.4, 800, 25)

	if len(readings) != 240 {
		t.Fatalf("Expected 240 readings, got %d", len(readings))
	}

	stopStart := int(0.4 * 240)
	stopEnd := stopStart + 25

	// Truck is stationary at a frozen position for the whole window.
	for i := stopStart; i < stopEnd; i++ {
		if readings[i].IsMoving {
			t.Fatalf("Expected truck stopped at index %d", i)
		}
		if readings[i].Latitude != readings[stopStart].Latitude ||
			readings[i].Longitude != readings[stopStart].Longitude {
			t.Fatalf("Position moved during stop at index %d", i)
		}
		if readings[i].Scenario != "pilferage" {
			t.Fatalf("Expected pilferage tag during stop, got %q at index %d", readings[i].Scenario, i)
		}
	}

	// Weight before the theft vs after: the stolen mass is gone.
	before := readings[stopStart+4].WeightKg
	after := readings[stopStart+6].WeightKg
	drop := before - after
	if drop < 795 || drop > 805 {
		t.Errorf("Expected ~800 kg drop 5 min into the stop, got %.1f", drop)
	}

	// The loss is permanent for the rest of the journey.
	last := readings[len(readings)-1].WeightKg
	if last > 24250 {
		t.Errorf("Expected weight to stay down after theft, got %.1f", last)
	}
}

func TestPilferageStopHappensOutsideZones(t *testing.T) {
	s := sim.NewTransitSimulator("TS-TEST-2", 25000, 7)
	readings := s.PilferageScenario(0.4, 800, 25)

	stopStart := int(0.4 * 240)
	if readings[stopStart].InAuthorizedZone {
		t.Errorf("Pilferage stop at 40%% progress should fall outside every zone, zone=%q", readings[stopStart].ZoneName)
	}
}

func TestDeterministicWithSameSeed(t *testing.T) {
	a := sim.NewTransitSimulator("TS-TEST-3", 25000, 99).NormalJourney(1.0)
	b := sim.NewTransitSimulator("TS-TEST-3", 25000, 99).NormalJourney(1.0)

	if len(a) != len(b) {
		t.Fatalf("Length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].WeightKg != b[i].WeightKg || a[i].Latitude != b[i].Latitude {
			t.Fatalf("Same seed diverged at index %d", i)
		}
	}
}
