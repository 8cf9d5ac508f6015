package engine

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"transit-guard/monitor/internal/domain"
)

// Notifier is the side-effect capability invoked as alerts cross level
// thresholds. A nil handler never blocks escalation: the textual action
// record is appended whether or not anything is registered.
type Notifier interface {
	NotifyDriver(a *domain.Alert)
	CallDriver(a *domain.Alert)
	AlertControlCenter(a *domain.Alert)
	DispatchSecurity(a *domain.Alert)
}

const (
	// WarningIntakeDurationMin maps an unauthorized stop straight to
	// WARNING at intake; below it the stop lands on the watchlist first.
	WarningIntakeDurationMin = 15

	// Declared SOP wait windows. No timer fires escalation automatically;
	// an operator (or the dashboard) drives Escalate.
	L2TimeoutMin = 5
	L3TimeoutMin = 3
)

// EscalationEngine owns the active-alert set and the 4-level SOP state
// machine. An alert's level only ever rises until the alert is resolved.
type EscalationEngine struct {
	notifier Notifier
	now      func() time.Time

	mu      sync.Mutex
	active  map[string]*domain.Alert
	history []*domain.Alert
	counter int
}

func NewEscalationEngine(n Notifier) *EscalationEngine {
	return &EscalationEngine{
		notifier: n,
		now:      time.Now,
		active:   make(map[string]*domain.Alert),
	}
}

// SetClock overrides the engine clock. Test hook.
func (e *EscalationEngine) SetClock(now func() time.Time) {
	e.now = now
}

func (e *EscalationEngine) nextAlertID() string {
	e.counter++
	return fmt.Sprintf("ALT-%s-%04d", e.now().Format("20060102"), e.counter)
}

// ProcessStopEvent turns a suspicious StopEvent into an alert. Benign
// events return nil.
func (e *EscalationEngine) ProcessStopEvent(ev domain.StopEvent) *domain.Alert {
	if !ev.IsSuspicious {
		return nil
	}

	var level domain.AlertLevel
	var title string
	if ev.IsAuthorized {
		level = domain.LevelWatchlist
		title = "Extended Stop at Authorized Location"
	} else if ev.DurationMin >= WarningIntakeDurationMin {
		level = domain.LevelWarning
		title = "Suspicious Unauthorized Stop"
	} else {
		level = domain.LevelWatchlist
		title = "Unauthorized Stop Detected"
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	alert := &domain.Alert{
		ID:          e.nextAlertID(),
		TruckID:     ev.TruckID,
		Timestamp:   ev.StartTime,
		Level:       level,
		LevelName:   level.String(),
		Source:      domain.SourceStopAnalyzer,
		Title:       title,
		Description: ev.Reason,
		Latitude:    ev.Latitude,
		Longitude:   ev.Longitude,
	}

	e.executeLevelActions(alert)
	e.active[alert.ID] = alert
	return alert
}

// ProcessWeightAlert turns a suspicious WeightAlert into an alert. Alerts
// not flagged suspicious return nil.
func (e *EscalationEngine) ProcessWeightAlert(wa domain.WeightAlert) *domain.Alert {
	if !wa.IsSuspicious {
		return nil
	}

	var level domain.AlertLevel
	var title string
	switch wa.Severity {
	case domain.SeverityCritical:
		level = domain.LevelCritical
		title = "CRITICAL: Potential Pilferage Detected"
	case domain.SeverityHigh:
		level = domain.LevelWarning
		title = "Suspicious Weight Drop"
	default:
		level = domain.LevelWatchlist
		title = "Weight Anomaly Detected"
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	alert := &domain.Alert{
		ID:          e.nextAlertID(),
		TruckID:     wa.TruckID,
		Timestamp:   wa.Timestamp,
		Level:       level,
		LevelName:   level.String(),
		Source:      domain.SourceWeightAnalyzer,
		Title:       title,
		Description: wa.Reason,
		Latitude:    wa.Latitude,
		Longitude:   wa.Longitude,
	}

	e.executeLevelActions(alert)
	e.active[alert.ID] = alert
	return alert
}

// ProcessCombined handles the defining SOP condition: a weight drop during
// an unauthorized stop for the same truck. It escalates straight to
// EMERGENCY, bypassing the intermediate levels.
func (e *EscalationEngine) ProcessCombined(ev domain.StopEvent, wa domain.WeightAlert) *domain.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	alert := &domain.Alert{
		ID:        e.nextAlertID(),
		TruckID:   ev.TruckID,
		Timestamp: wa.Timestamp,
		Level:     domain.LevelEmergency,
		LevelName: domain.LevelEmergency.String(),
		Source:    domain.SourceCombined,
		Title:     "EMERGENCY: Weight Drop During Unauthorized Stop",
		Description: fmt.Sprintf(
			"SOP TRIGGERED: Weight drop of %.1fkg detected while truck stopped at "+
				"unauthorized location for %.1f minutes. Immediate security protocol initiated.",
			wa.WeightDropKg, ev.DurationMin),
		Latitude:  ev.Latitude,
		Longitude: ev.Longitude,
	}

	e.executeLevelActions(alert)
	e.active[alert.ID] = alert
	return alert
}

// executeLevelActions attaches the cumulative action list for the alert's
// current level and appends a record to the escalation history. Actions are
// strictly additive: every tier at or below the level applies.
// Caller holds e.mu.
func (e *EscalationEngine) executeLevelActions(alert *domain.Alert) {
	var actions []string

	if alert.Level >= domain.LevelWatchlist {
		actions = append(actions, "Logged to system audit trail")
	}

	if alert.Level >= domain.LevelWarning {
		actions = append(actions, "SMS sent to driver requesting confirmation")
		if e.notifier != nil {
			e.notifier.NotifyDriver(alert)
		}
	}

	if alert.Level >= domain.LevelCritical {
		actions = append(actions, "Auto-call initiated to driver")
		actions = append(actions, "Control center notified")
		if e.notifier != nil {
			e.notifier.CallDriver(alert)
			e.notifier.AlertControlCenter(alert)
		}
	}

	if alert.Level >= domain.LevelEmergency {
		actions = append(actions, "Security team dispatched")
		actions = append(actions, "Nearest police station notified")
		actions = append(actions, "Cargo lock signal sent")
		if e.notifier != nil {
			e.notifier.DispatchSecurity(alert)
		}
	}

	alert.ActionsTaken = actions
	alert.EscalationHistory = append(alert.EscalationHistory, domain.EscalationRecord{
		Timestamp: e.now(),
		Level:     alert.Level,
		LevelName: alert.Level.String(),
		Actions:   actions,
	})
}

// Escalate raises an active alert by exactly one level and re-runs the
// cumulative actions. Returns false when the id is not in the active set.
// Already at EMERGENCY it is a no-op that still returns the alert.
func (e *EscalationEngine) Escalate(alertID, reason string) (*domain.Alert, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	alert, ok := e.active[alertID]
	if !ok {
		return nil, false
	}

	if alert.Level < domain.LevelEmergency {
		alert.Level++
		alert.LevelName = alert.Level.String()
		alert.Description += fmt.Sprintf(" [ESCALATED: %s]", reason)
		e.executeLevelActions(alert)
	}

	return alert, true
}

// Resolve removes an alert from the active set and moves it to history.
// Resolved alerts are immutable and cannot be reopened. Returns false when
// the id is not in the active set.
func (e *EscalationEngine) Resolve(alertID, notes string) (*domain.Alert, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	alert, ok := e.active[alertID]
	if !ok {
		return nil, false
	}

	delete(e.active, alertID)
	now := e.now()
	alert.IsResolved = true
	alert.ResolutionTime = &now
	alert.ResolutionNotes = notes
	e.history = append(e.history, alert)
	return alert, true
}

// ActiveAlerts returns all unresolved alerts, newest first.
func (e *EscalationEngine) ActiveAlerts() []domain.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]domain.Alert, 0, len(e.active))
	for _, a := range e.active {
		out = append(out, *a)
	}
	sortAlertsByTimeDesc(out)
	return out
}

// AlertsByLevel returns active alerts at exactly the given level.
func (e *EscalationEngine) AlertsByLevel(level domain.AlertLevel) []domain.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]domain.Alert, 0)
	for _, a := range e.active {
		if a.Level == level {
			out = append(out, *a)
		}
	}
	sortAlertsByTimeDesc(out)
	return out
}

// ResolvedAlerts returns the resolution history, oldest first.
func (e *EscalationEngine) ResolvedAlerts() []domain.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]domain.Alert, 0, len(e.history))
	for _, a := range e.history {
		out = append(out, *a)
	}
	return out
}

// Summary counts active alerts per level plus the resolved total.
func (e *EscalationEngine) Summary() domain.AlertSummary {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := domain.AlertSummary{
		TotalActive:   len(e.active),
		TotalResolved: len(e.history),
	}
	for _, a := range e.active {
		switch a.Level {
		case domain.LevelNormal:
			s.Normal++
		case domain.LevelWatchlist:
			s.Watchlist++
		case domain.LevelWarning:
			s.Warning++
		case domain.LevelCritical:
			s.Critical++
		case domain.LevelEmergency:
			s.Emergency++
		}
	}
	return s
}

func sortAlertsByTimeDesc(alerts []domain.Alert) {
	sort.Slice(alerts, func(i, j int) bool {
		if !alerts[i].Timestamp.Equal(alerts[j].Timestamp) {
			return alerts[i].Timestamp.After(alerts[j].Timestamp)
		}
		return alerts[i].ID > alerts[j].ID
	})
}
