package sim

import (
	"math/rand"
	"time"

	"transit-guard/monitor/internal/domain"
	"transit-guard/monitor/internal/geofence"
)

// Route waypoints, Jamshedpur → Kolkata.
var routeWaypoints = [][2]float64{
	{22.8046, 86.2029}, // Jamshedpur plant (start)
	{22.6500, 86.5000}, // en route
	{22.5000, 86.8000}, // en route
	{22.3460, 87.3236}, // Kharagpur rest stop
	{22.4000, 87.6000}, // en route
	{22.4351, 87.8863}, // Kolaghat checkpoint
	{22.5000, 88.0000}, // en route
	{22.5958, 88.2636}, // Howrah DC (destination)
}

// TransitSimulator generates synthetic GPS/weight telemetry for one truck
// driving the corridor, one reading per simulated minute.
type TransitSimulator struct {
	truckID       string
	initialWeight float64
	currentWeight float64
	geo           *geofence.Service
	rng           *rand.Rand
	clock         time.Time
}

func NewTransitSimulator(truckID string, initialWeightKg float64, seed int64) *TransitSimulator {
	return &TransitSimulator{
		truckID:       truckID,
		initialWeight: initialWeightKg,
		currentWeight: initialWeightKg,
		geo:           geofence.NewService(geofence.DefaultZones()),
		rng:           rand.New(rand.NewSource(seed)),
		clock:         time.Now().Truncate(time.Minute),
	}
}

func interpolate(segment int, progress float64) (float64, float64) {
	if segment >= len(routeWaypoints)-1 {
		last := routeWaypoints[len(routeWaypoints)-1]
		return last[0], last[1]
	}
	start := routeWaypoints[segment]
	end := routeWaypoints[segment+1]
	lat := start[0] + (end[0]-start[0])*progress
	lon := start[1] + (end[1]-start[1])*progress
	return lat, lon
}

func (s *TransitSimulator) position(progress float64) (float64, float64) {
	segments := len(routeWaypoints) - 1
	segment := int(progress * float64(segments))
	if segment > segments-1 {
		segment = segments - 1
	}
	segProgress := progress*float64(segments) - float64(segment)
	return interpolate(segment, segProgress)
}

func (s *TransitSimulator) baseReading(lat, lon float64) domain.Reading {
	inZone, zone := s.geo.Locate(lat, lon)
	r := domain.Reading{
		TruckID:          s.truckID,
		Timestamp:        s.clock,
		Latitude:         lat,
		Longitude:        lon,
		InAuthorizedZone: inZone,
	}
	if zone != nil {
		r.ZoneName = zone.Name
	}
	return r
}

func (s *TransitSimulator) sensorNoise() float64 {
	return s.rng.Float64()*4 - 2 // ±2 kg, below the analyzer noise floor
}

// NormalJourney generates a clean run with stops only at rest stops and
// checkpoints, weight held steady apart from sensor noise.
func (s *TransitSimulator) NormalJourney(durationHours float64) []domain.Reading {
	totalReadings := int(durationHours * 60)
	readings := make([]domain.Reading, 0, totalReadings)

	for i := 0; i < totalReadings; i++ {
		s.clock = s.clock.Add(time.Minute)
		progress := float64(i) / float64(totalReadings)
		lat, lon := s.position(progress)

		r := s.baseReading(lat, lon)
		r.Scenario = "normal"

		inZone, zone := s.geo.Locate(lat, lon)
		if inZone && (zone.Type == geofence.ZoneRestStop || zone.Type == geofence.ZoneCheckpoint) {
			r.SpeedKmh = 0
			r.IsMoving = false
		} else {
			r.SpeedKmh = 40 + s.rng.Float64()*20
			r.IsMoving = true
		}

		r.WeightKg = s.currentWeight + s.sensorNoise()
		readings = append(readings, r)
	}

	return readings
}

// PilferageScenario generates a journey with a theft event: the truck stops
// outside every zone and the configured weight vanishes a few minutes into
// the stop.
func (s *TransitSimulator) PilferageScenario(atProgress float64, stolenKg float64, stopDurationMin int) []domain.Reading {
	const durationHours = 4.0
	totalReadings := int(durationHours * 60)
	pilferageStart := int(atProgress * float64(totalReadings))
	pilferageEnd := pilferageStart + stopDurationMin

	readings := make([]domain.Reading, 0, totalReadings)
	var stopLat, stopLon float64

	for i := 0; i < totalReadings; i++ {
		s.clock = s.clock.Add(time.Minute)
		progress := float64(i) / float64(totalReadings)
		lat, lon := s.position(progress)

		if i >= pilferageStart && i < pilferageEnd {
			// Position freezes where the stop began.
			if i == pilferageStart {
				stopLat, stopLon = lat, lon
			}
			lat, lon = stopLat, stopLon
		}

		r := s.baseReading(lat, lon)

		if i >= pilferageStart && i < pilferageEnd {
			r.SpeedKmh = 0
			r.IsMoving = false
			r.Scenario = "pilferage"

			if i == pilferageStart+5 {
				// Cargo leaves the truck 5 minutes into the stop.
				s.currentWeight -= stolenKg
			}
		} else {
			inZone, zone := s.geo.Locate(lat, lon)
			if inZone && (zone.Type == geofence.ZoneRestStop || zone.Type == geofence.ZoneCheckpoint) {
				r.SpeedKmh = 0
				r.IsMoving = false
			} else {
				r.SpeedKmh = 40 + s.rng.Float64()*20
				r.IsMoving = true
			}
			if i >= pilferageEnd {
				r.Scenario = "pilferage"
			} else {
				r.Scenario = "normal"
			}
		}

		r.WeightKg = s.currentWeight + s.sensorNoise()
		readings = append(readings, r)
	}

	return readings
}
