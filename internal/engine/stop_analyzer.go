package engine

import (
	"fmt"
	"sync"
	"time"

	"transit-guard/monitor/internal/domain"
	"transit-guard/monitor/internal/geofence"
)

const (
	// MinStopDurationMin filters traffic noise: anything shorter is not a stop.
	MinStopDurationMin = 3

	// SuspiciousUnauthorizedStopMin marks an unauthorized stop suspicious.
	SuspiciousUnauthorizedStopMin = 10
)

// openStop tracks one in-progress stop. Keyed by truck id, so only one open
// stop per truck exists at a time.
type openStop struct {
	startTime     time.Time
	latitude      float64
	longitude     float64
	inZone        bool
	zoneName      string
	maxAllowedMin int
}

// StopAnalyzer detects stops from the per-truck reading stream and
// classifies completed stops as suspicious or benign.
type StopAnalyzer struct {
	geo *geofence.Service

	mu        sync.Mutex
	active    map[string]*openStop
	completed []domain.StopEvent
}

func NewStopAnalyzer(geo *geofence.Service) *StopAnalyzer {
	return &StopAnalyzer{
		geo:    geo,
		active: make(map[string]*openStop),
	}
}

// ProcessReading advances the per-truck stop state machine with one reading.
// Returns a StopEvent when a stop completes with duration above the noise
// threshold, or an ongoing suspicious event while an unauthorized stop
// persists past the threshold. Ongoing events are re-emitted every tick;
// deduplication is the caller's concern.
func (a *StopAnalyzer) ProcessReading(r domain.Reading) *domain.StopEvent {
	a.mu.Lock()
	defer a.mu.Unlock()

	stop, tracking := a.active[r.TruckID]

	switch {
	case !r.IsMoving && !tracking:
		// Stop begins: snapshot zone info at the stop location.
		inZone, zone := a.geo.Locate(r.Latitude, r.Longitude)
		s := &openStop{
			startTime: r.Timestamp,
			latitude:  r.Latitude,
			longitude: r.Longitude,
			inZone:    inZone,
		}
		if zone != nil {
			s.zoneName = zone.Name
			s.maxAllowedMin = zone.MaxStopDurationMin
		}
		a.active[r.TruckID] = s
		return nil

	case r.IsMoving && tracking:
		// Stop ends: pop the record and classify.
		delete(a.active, r.TruckID)
		duration := r.Timestamp.Sub(stop.startTime).Minutes()

		if duration < MinStopDurationMin {
			// Traffic, not a stop.
			return nil
		}

		event := a.classify(r.TruckID, stop, r.Timestamp, duration)
		a.completed = append(a.completed, event)
		return &event

	case !r.IsMoving && tracking:
		// Stop continues: warn while an unauthorized stop drags on.
		duration := r.Timestamp.Sub(stop.startTime).Minutes()
		if !stop.inZone && duration >= SuspiciousUnauthorizedStopMin {
			return &domain.StopEvent{
				TruckID:      r.TruckID,
				StartTime:    stop.startTime,
				EndTime:      nil,
				Latitude:     stop.latitude,
				Longitude:    stop.longitude,
				DurationMin:  duration,
				IsAuthorized: false,
				IsSuspicious: true,
				Reason:       fmt.Sprintf("ONGOING: unauthorized stop now at %.1f min", duration),
			}
		}
		return nil
	}

	// Moving with no open stop.
	return nil
}

func (a *StopAnalyzer) classify(truckID string, stop *openStop, end time.Time, duration float64) domain.StopEvent {
	suspicious := false
	reason := ""

	if !stop.inZone {
		if duration >= SuspiciousUnauthorizedStopMin {
			suspicious = true
			reason = fmt.Sprintf("Unauthorized stop of %.1f min (threshold: %d min)",
				duration, SuspiciousUnauthorizedStopMin)
		}
	} else if duration > float64(stop.maxAllowedMin) {
		suspicious = true
		reason = fmt.Sprintf("Stop exceeded allowed duration: %.1f min > %d min",
			duration, stop.maxAllowedMin)
	}

	if !suspicious {
		if stop.inZone {
			reason = fmt.Sprintf("Authorized stop at %s", stop.zoneName)
		} else {
			reason = fmt.Sprintf("Brief unauthorized stop (%.1f min < %d min)",
				duration, SuspiciousUnauthorizedStopMin)
		}
	}

	return domain.StopEvent{
		TruckID:      truckID,
		StartTime:    stop.startTime,
		EndTime:      &end,
		Latitude:     stop.latitude,
		Longitude:    stop.longitude,
		DurationMin:  duration,
		IsAuthorized: stop.inZone,
		ZoneName:     stop.zoneName,
		IsSuspicious: suspicious,
		Reason:       reason,
	}
}

// ActiveStop returns an ongoing-stop snapshot for a truck currently
// stationary, with suspicion evaluated as of now.
func (a *StopAnalyzer) ActiveStop(truckID string, now time.Time) (domain.StopEvent, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	stop, ok := a.active[truckID]
	if !ok {
		return domain.StopEvent{}, false
	}

	duration := now.Sub(stop.startTime).Minutes()
	return domain.StopEvent{
		TruckID:      truckID,
		StartTime:    stop.startTime,
		EndTime:      nil,
		Latitude:     stop.latitude,
		Longitude:    stop.longitude,
		DurationMin:  duration,
		IsAuthorized: stop.inZone,
		ZoneName:     stop.zoneName,
		IsSuspicious: !stop.inZone && duration >= SuspiciousUnauthorizedStopMin,
		Reason:       fmt.Sprintf("Ongoing stop at %.1f min", duration),
	}, true
}

// ActiveStops returns ongoing-stop snapshots for all stationary trucks.
func (a *StopAnalyzer) ActiveStops(now time.Time) []domain.StopEvent {
	a.mu.Lock()
	ids := make([]string, 0, len(a.active))
	for id := range a.active {
		ids = append(ids, id)
	}
	a.mu.Unlock()

	events := make([]domain.StopEvent, 0, len(ids))
	for _, id := range ids {
		if ev, ok := a.ActiveStop(id, now); ok {
			events = append(events, ev)
		}
	}
	return events
}

// SuspiciousStops returns all suspicious completed stops so far.
func (a *StopAnalyzer) SuspiciousStops() []domain.StopEvent {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]domain.StopEvent, 0)
	for _, s := range a.completed {
		if s.IsSuspicious {
			out = append(out, s)
		}
	}
	return out
}

// CompletedStops returns every completed stop, suspicious or not.
func (a *StopAnalyzer) CompletedStops() []domain.StopEvent {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]domain.StopEvent, len(a.completed))
	copy(out, a.completed)
	return out
}
