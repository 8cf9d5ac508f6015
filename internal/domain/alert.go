package domain

import "time"

// AlertLevel is the ordered response-intensity scale. Comparisons between
// levels drive the cumulative action tiers, so the numeric order matters.
type AlertLevel int

const (
	LevelNormal    AlertLevel = iota // 0: nothing wrong
	LevelWatchlist                   // 1: log only
	LevelWarning                     // 2: SMS driver, await confirmation
	LevelCritical                    // 3: auto-call, alert control center
	LevelEmergency                   // 4: dispatch security, police, cargo lock
)

func (l AlertLevel) String() string {
	if l < LevelNormal || l > LevelEmergency {
		return "UNKNOWN"
	}
	return [...]string{"NORMAL", "WATCHLIST", "WARNING", "CRITICAL", "EMERGENCY"}[l]
}

// AlertSource identifies which analyzer produced an alert.
type AlertSource string

const (
	SourceStopAnalyzer   AlertSource = "stop_analyzer"
	SourceWeightAnalyzer AlertSource = "weight_analyzer"
	SourceCombined       AlertSource = "combined"
)

// EscalationRecord is one entry in an alert's append-only escalation log.
type EscalationRecord struct {
	Timestamp time.Time  `json:"timestamp"`
	Level     AlertLevel `json:"level"`
	LevelName string     `json:"level_name"`
	Actions   []string   `json:"actions"`
}

// Alert is the escalation engine's unit of work. Level is monotonically
// non-decreasing over the alert's lifetime; once resolved the alert is
// immutable and cannot be reopened.
type Alert struct {
	ID        string      `json:"alert_id"`
	TruckID   string      `json:"truck_id"`
	Timestamp time.Time   `json:"timestamp"`
	Level     AlertLevel  `json:"level"`
	LevelName string      `json:"level_name"`
	Source    AlertSource `json:"source"`

	Title       string  `json:"title"`
	Description string  `json:"description"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`

	ActionsTaken      []string           `json:"actions_taken"`
	EscalationHistory []EscalationRecord `json:"escalation_history"`

	IsResolved      bool       `json:"is_resolved"`
	ResolutionTime  *time.Time `json:"resolution_time,omitempty"`
	ResolutionNotes string     `json:"resolution_notes,omitempty"`
}

// AlertSummary counts active alerts per level plus the resolved total.
type AlertSummary struct {
	TotalActive   int `json:"total_active"`
	Normal        int `json:"normal"`
	Watchlist     int `json:"watchlist"`
	Warning       int `json:"warning"`
	Critical      int `json:"critical"`
	Emergency     int `json:"emergency"`
	TotalResolved int `json:"total_resolved"`
}
