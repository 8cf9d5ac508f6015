package engine

import (
	"fmt"
	"sync"
	"time"

	"transit-guard/monitor/internal/domain"
	"transit-guard/monitor/internal/geofence"
)

const (
	// SensorNoiseKg is normal load-cell fluctuation; deltas below it are ignored.
	SensorNoiseKg = 10.0

	// AcceptableLossKg covers vibration and settling over a whole trip.
	AcceptableLossKg = 20.0

	// SuspiciousDropKg is the single-reading drop worth flagging.
	SuspiciousDropKg = 50.0

	// CriticalDropKg is the single-reading drop treated as a theft indicator.
	CriticalDropKg = 200.0

	// DefaultPackagingKg is the tare assumed when a trip auto-registers.
	DefaultPackagingKg = 50.0
)

// WeightAnalyzer tracks per-truck weight baselines and classifies drops.
type WeightAnalyzer struct {
	geo *geofence.Service

	mu        sync.Mutex
	profiles  map[string]domain.WeightProfile
	previous  map[string]float64
	alerts    []domain.WeightAlert
	totalLoss map[string]float64
}

func NewWeightAnalyzer(geo *geofence.Service) *WeightAnalyzer {
	return &WeightAnalyzer{
		geo:       geo,
		profiles:  make(map[string]domain.WeightProfile),
		previous:  make(map[string]float64),
		totalLoss: make(map[string]float64),
	}
}

// RegisterTrip records the weight baseline for a truck at trip start.
// Called explicitly at the warehouse, or implicitly on first reading.
func (a *WeightAnalyzer) RegisterTrip(truckID string, totalKg, packagingKg float64, destination string) domain.WeightProfile {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.registerLocked(truckID, totalKg, packagingKg, destination)
}

func (a *WeightAnalyzer) registerLocked(truckID string, totalKg, packagingKg float64, destination string) domain.WeightProfile {
	profile := domain.WeightProfile{
		TruckID:           truckID,
		TotalWeightKg:     totalKg,
		PackagingWeightKg: packagingKg,
		CargoWeightKg:     totalKg - packagingKg,
		RegisteredAt:      time.Now(),
		Destination:       destination,
	}

	a.profiles[truckID] = profile
	a.previous[truckID] = totalKg
	a.totalLoss[truckID] = 0

	return profile
}

// ProcessReading compares one reading against the truck's last known weight
// and returns a WeightAlert when a drop exceeds the noise floor. The first
// reading for an unregistered truck auto-registers the trip and returns nil.
func (a *WeightAnalyzer) ProcessReading(r domain.Reading) *domain.WeightAlert {
	a.mu.Lock()
	defer a.mu.Unlock()

	previous, known := a.previous[r.TruckID]
	if !known {
		a.registerLocked(r.TruckID, r.WeightKg, DefaultPackagingKg, "")
		return nil
	}

	change := r.WeightKg - previous
	a.previous[r.TruckID] = r.WeightKg

	// Sensor noise.
	if change > -SensorNoiseKg && change < SensorNoiseKg {
		return nil
	}

	// Only drops matter; loading more cargo is not theft.
	if change >= 0 {
		return nil
	}

	drop := -change
	a.totalLoss[r.TruckID] += drop

	inZone, zone := a.geo.Locate(r.Latitude, r.Longitude)

	suspicious := false
	severity := domain.SeverityLow
	reason := ""

	if !inZone {
		switch {
		case drop >= CriticalDropKg:
			suspicious = true
			severity = domain.SeverityCritical
			reason = fmt.Sprintf("CRITICAL: %.1fkg drop outside authorized zone", drop)
		case drop >= SuspiciousDropKg:
			suspicious = true
			severity = domain.SeverityHigh
			reason = fmt.Sprintf("Suspicious: %.1fkg drop outside authorized zone", drop)
		default:
			severity = domain.SeverityMedium
			reason = fmt.Sprintf("Minor drop: %.1fkg outside zone (monitoring)", drop)
		}
	} else if zone.Type == geofence.ZoneDestination {
		severity = domain.SeverityLow
		reason = fmt.Sprintf("Expected unloading at destination (%s)", zone.Name)
	} else {
		severity = domain.SeverityMedium
		reason = fmt.Sprintf("Weight drop at %s - verify", zone.Name)
	}

	// The theft signature: stopped, outside every zone, large drop.
	// Overrides whatever the ladder above decided.
	if !r.IsMoving && !inZone && drop >= SuspiciousDropKg {
		suspicious = true
		severity = domain.SeverityCritical
		reason = fmt.Sprintf("THEFT ALERT: %.1fkg drop while stopped outside zone", drop)
	}

	alert := domain.WeightAlert{
		TruckID:          r.TruckID,
		Timestamp:        r.Timestamp,
		Latitude:         r.Latitude,
		Longitude:        r.Longitude,
		PreviousWeightKg: previous,
		CurrentWeightKg:  r.WeightKg,
		WeightDropKg:     drop,
		InAuthorizedZone: inZone,
		IsSuspicious:     suspicious,
		Severity:         severity,
		Reason:           reason,
	}
	if zone != nil {
		alert.ZoneName = zone.Name
	}

	a.alerts = append(a.alerts, alert)
	return &alert
}

// WeightStatus labels overall trip health against the registered profile
// using cumulative-loss thresholds, independent of the per-reading alerts.
func (a *WeightAnalyzer) WeightStatus(truckID string, currentKg float64) domain.WeightStatus {
	a.mu.Lock()
	defer a.mu.Unlock()

	profile, ok := a.profiles[truckID]
	if !ok {
		return domain.WeightStatus{
			Status:  domain.TripStatusUnknown,
			Message: "Trip not registered",
		}
	}

	loss := profile.TotalWeightKg - currentKg
	cargoRemaining := profile.CargoWeightKg - loss
	cargoPct := 100.0
	if profile.CargoWeightKg > 0 {
		cargoPct = cargoRemaining / profile.CargoWeightKg * 100
	}

	var status domain.TripStatus
	var message string
	switch {
	case loss <= AcceptableLossKg:
		status = domain.TripStatusNormal
		message = "Weight within acceptable range"
	case loss <= SuspiciousDropKg:
		status = domain.TripStatusWarning
		message = fmt.Sprintf("Minor weight loss: %.1f kg", loss)
	case loss <= CriticalDropKg:
		status = domain.TripStatusAlert
		message = fmt.Sprintf("Suspicious weight loss: %.1f kg", loss)
	default:
		status = domain.TripStatusCritical
		message = fmt.Sprintf("CRITICAL weight loss: %.1f kg", loss)
	}

	return domain.WeightStatus{
		Status:            status,
		Message:           message,
		InitialWeightKg:   profile.TotalWeightKg,
		CurrentWeightKg:   currentKg,
		WeightLossKg:      loss,
		CargoRemainingKg:  cargoRemaining,
		CargoRemainingPct: cargoPct,
		PackagingWeightKg: profile.PackagingWeightKg,
	}
}

// TripSummary aggregates the weight bookkeeping for one truck.
func (a *WeightAnalyzer) TripSummary(truckID string) (domain.TripSummary, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	profile, ok := a.profiles[truckID]
	if !ok {
		return domain.TripSummary{}, false
	}

	current, ok := a.previous[truckID]
	if !ok {
		current = profile.TotalWeightKg
	}

	alertCount := 0
	suspiciousCount := 0
	for _, wa := range a.alerts {
		if wa.TruckID != truckID {
			continue
		}
		alertCount++
		if wa.IsSuspicious {
			suspiciousCount++
		}
	}

	return domain.TripSummary{
		TruckID:             truckID,
		InitialTotalKg:      profile.TotalWeightKg,
		PackagingKg:         profile.PackagingWeightKg,
		InitialCargoKg:      profile.CargoWeightKg,
		CurrentWeightKg:     current,
		TotalDetectedLossKg: a.totalLoss[truckID],
		AlertCount:          alertCount,
		SuspiciousCount:     suspiciousCount,
	}, true
}

// Profile returns the registered profile for a truck, if any.
func (a *WeightAnalyzer) Profile(truckID string) (domain.WeightProfile, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.profiles[truckID]
	return p, ok
}
