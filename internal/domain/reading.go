package domain

import "time"

// Reading is one GPS/weight sample for one truck at one tick.
// Readings must arrive in timestamp order per truck; duration math
// downstream assumes monotonic per-truck clocks.
type Reading struct {
	TruckID   string    `json:"truck_id"`
	Timestamp time.Time `json:"timestamp"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	SpeedKmh float64 `json:"speed_kmh"`
	IsMoving bool    `json:"is_moving"`
	WeightKg float64 `json:"weight_kg"`

	InAuthorizedZone bool   `json:"in_authorized_zone"`
	ZoneName         string `json:"zone_name,omitempty"`

	// Scenario tags simulator output (test data only).
	Scenario string `json:"scenario,omitempty"`
}

// StopEvent is a detected stop, completed or still ongoing.
// EndTime is nil while the stop is ongoing.
type StopEvent struct {
	TruckID     string     `json:"truck_id"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	DurationMin float64    `json:"duration_minutes"`

	IsAuthorized bool   `json:"is_authorized"`
	ZoneName     string `json:"zone_name,omitempty"`
	IsSuspicious bool   `json:"is_suspicious"`
	Reason       string `json:"reason"`
}

// Ongoing reports whether the stop is still in progress.
func (e StopEvent) Ongoing() bool {
	return e.EndTime == nil
}

// WeightProfile is the registered baseline for a truck's trip.
type WeightProfile struct {
	TruckID           string    `json:"truck_id"`
	TotalWeightKg     float64   `json:"total_weight_kg"`
	PackagingWeightKg float64   `json:"packaging_weight_kg"`
	CargoWeightKg     float64   `json:"cargo_weight_kg"`
	RegisteredAt      time.Time `json:"registered_at"`
	Destination       string    `json:"destination,omitempty"`
}

// WeightSeverity grades a single weight drop. Distinct from AlertLevel:
// severity feeds into the escalation engine's level mapping.
type WeightSeverity string

const (
	SeverityLow      WeightSeverity = "low"
	SeverityMedium   WeightSeverity = "medium"
	SeverityHigh     WeightSeverity = "high"
	SeverityCritical WeightSeverity = "critical"
)

// WeightAlert is emitted when a weight decrease exceeds the noise floor.
type WeightAlert struct {
	TruckID   string    `json:"truck_id"`
	Timestamp time.Time `json:"timestamp"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`

	PreviousWeightKg float64 `json:"previous_weight_kg"`
	CurrentWeightKg  float64 `json:"current_weight_kg"`
	WeightDropKg     float64 `json:"weight_drop_kg"`

	InAuthorizedZone bool           `json:"in_authorized_zone"`
	ZoneName         string         `json:"zone_name,omitempty"`
	IsSuspicious     bool           `json:"is_suspicious"`
	Severity         WeightSeverity `json:"severity"`
	Reason           string         `json:"reason"`
}

// TripStatus labels overall trip health from cumulative weight loss.
type TripStatus string

const (
	TripStatusUnknown  TripStatus = "unknown"
	TripStatusNormal   TripStatus = "normal"
	TripStatusWarning  TripStatus = "warning"
	TripStatusAlert    TripStatus = "alert"
	TripStatusCritical TripStatus = "critical"
)

// WeightStatus is the point-in-time answer to "how is this trip doing",
// computed against the registered profile.
type WeightStatus struct {
	Status            TripStatus `json:"status"`
	Message           string     `json:"message"`
	InitialWeightKg   float64    `json:"initial_weight_kg"`
	CurrentWeightKg   float64    `json:"current_weight_kg"`
	WeightLossKg      float64    `json:"weight_loss_kg"`
	CargoRemainingKg  float64    `json:"cargo_remaining_kg"`
	CargoRemainingPct float64    `json:"cargo_remaining_percent"`
	PackagingWeightKg float64    `json:"packaging_weight_kg"`
}

// TripSummary aggregates per-truck weight bookkeeping for the dashboard.
type TripSummary struct {
	TruckID             string  `json:"truck_id"`
	InitialTotalKg      float64 `json:"initial_total_kg"`
	PackagingKg         float64 `json:"packaging_kg"`
	InitialCargoKg      float64 `json:"initial_cargo_kg"`
	CurrentWeightKg     float64 `json:"current_weight_kg"`
	TotalDetectedLossKg float64 `json:"total_detected_loss_kg"`
	AlertCount          int     `json:"alert_count"`
	SuspiciousCount     int     `json:"suspicious_count"`
}
