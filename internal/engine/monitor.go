package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"transit-guard/monitor/internal/domain"
	"transit-guard/monitor/internal/metrics"
)

// Deduper suppresses repeat alerts for the same truck/kind within a window.
// The stop analyzer re-emits ongoing events every tick; without this, every
// tick of a long unauthorized stop would raise a fresh alert.
type Deduper interface {
	CheckAlertDedup(ctx context.Context, truckID, kind string) (bool, error)
	SetAlertDedup(ctx context.Context, truckID, kind string) error
}

// AlertSink receives every alert the monitor raises. Sink failures are
// logged and never block processing.
type AlertSink interface {
	DeliverAlert(ctx context.Context, a domain.Alert) error
}

// StopArchiver persists completed stop events. Optional; failures are
// logged and never block processing.
type StopArchiver interface {
	InsertStopEvent(ctx context.Context, ev domain.StopEvent) error
}

const (
	dedupKindStop     = "stop"
	dedupKindWeight   = "weight"
	dedupKindCombined = "combined"

	memDedupTTL = 5 * time.Minute
)

// memDeduper is the in-process fallback used when no Redis is attached.
type memDeduper struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

func newMemDeduper() *memDeduper {
	return &memDeduper{seen: make(map[string]time.Time)}
}

func (d *memDeduper) CheckAlertDedup(_ context.Context, truckID, kind string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := truckID + ":" + kind
	if until, ok := d.seen[key]; ok && time.Now().Before(until) {
		return true, nil
	}
	delete(d.seen, key)
	return false, nil
}

func (d *memDeduper) SetAlertDedup(_ context.Context, truckID, kind string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[truckID+":"+kind] = time.Now().Add(memDedupTTL)
	return nil
}

// Monitor drives the analyzers and the escalation engine, one reading at a
// time. State per truck is independent: a fault on one truck's reading
// never corrupts another's.
type Monitor struct {
	stops       *StopAnalyzer
	weights     *WeightAnalyzer
	escalation  *EscalationEngine
	dedup       Deduper
	sinks       []AlertSink
	stopArchive StopArchiver
}

func NewMonitor(stops *StopAnalyzer, weights *WeightAnalyzer, escalation *EscalationEngine) *Monitor {
	return &Monitor{
		stops:      stops,
		weights:    weights,
		escalation: escalation,
		dedup:      newMemDeduper(),
	}
}

// SetDeduper swaps in an external dedup backend (Redis in production).
func (m *Monitor) SetDeduper(d Deduper) {
	if d != nil {
		m.dedup = d
	}
}

// AddSink attaches a delivery target for raised alerts.
func (m *Monitor) AddSink(s AlertSink) {
	m.sinks = append(m.sinks, s)
}

// SetStopArchive attaches a store for completed stop events.
func (m *Monitor) SetStopArchive(a StopArchiver) {
	m.stopArchive = a
}

// Stops exposes the stop analyzer for read-only dashboard queries.
func (m *Monitor) Stops() *StopAnalyzer { return m.stops }

// Weights exposes the weight analyzer for read-only dashboard queries.
func (m *Monitor) Weights() *WeightAnalyzer { return m.weights }

// Escalation exposes the escalation engine.
func (m *Monitor) Escalation() *EscalationEngine { return m.escalation }

// ProcessReading feeds one reading to both analyzers, correlates their
// outputs, and escalates. Returns the alerts raised for this tick.
func (m *Monitor) ProcessReading(ctx context.Context, r domain.Reading) []*domain.Alert {
	metrics.ReadingsProcessed.Add(1)

	stopEvent := m.stops.ProcessReading(r)
	if stopEvent != nil {
		metrics.StopEventsDetected.Add(1)
		if !stopEvent.Ongoing() && m.stopArchive != nil {
			if err := m.stopArchive.InsertStopEvent(ctx, *stopEvent); err != nil {
				fmt.Printf("Stop event archive failed for %s: %v\n", r.TruckID, err)
			}
		}
	}

	weightAlert := m.weights.ProcessReading(r)
	if weightAlert != nil {
		metrics.WeightAlertsDetected.Add(1)
	}

	var raised []*domain.Alert

	// Combined signature first: a suspicious drop while the truck sits at
	// an unauthorized location goes straight to EMERGENCY, swallowing the
	// individual signals for this tick.
	if weightAlert != nil && weightAlert.IsSuspicious && !weightAlert.InAuthorizedZone &&
		weightAlert.WeightDropKg >= SuspiciousDropKg {

		stopSnapshot := stopEvent
		if stopSnapshot == nil {
			if snap, ok := m.stops.ActiveStop(r.TruckID, r.Timestamp); ok && !snap.IsAuthorized {
				stopSnapshot = &snap
			}
		}

		if stopSnapshot != nil && !stopSnapshot.IsAuthorized {
			if !m.seen(ctx, r.TruckID, dedupKindCombined) {
				alert := m.escalation.ProcessCombined(*stopSnapshot, *weightAlert)
				m.mark(ctx, r.TruckID, dedupKindCombined)
				raised = append(raised, alert)
			}
			m.deliver(ctx, raised)
			return raised
		}
	}

	if stopEvent != nil && stopEvent.IsSuspicious && !m.seen(ctx, r.TruckID, dedupKindStop) {
		if alert := m.escalation.ProcessStopEvent(*stopEvent); alert != nil {
			m.mark(ctx, r.TruckID, dedupKindStop)
			raised = append(raised, alert)
		}
	}

	if weightAlert != nil && weightAlert.IsSuspicious && !m.seen(ctx, r.TruckID, dedupKindWeight) {
		if alert := m.escalation.ProcessWeightAlert(*weightAlert); alert != nil {
			m.mark(ctx, r.TruckID, dedupKindWeight)
			raised = append(raised, alert)
		}
	}

	m.deliver(ctx, raised)
	return raised
}

func (m *Monitor) seen(ctx context.Context, truckID, kind string) bool {
	dup, err := m.dedup.CheckAlertDedup(ctx, truckID, kind)
	if err != nil {
		fmt.Printf("Alert dedup check failed for %s/%s: %v\n", truckID, kind, err)
		return false
	}
	return dup
}

func (m *Monitor) mark(ctx context.Context, truckID, kind string) {
	if err := m.dedup.SetAlertDedup(ctx, truckID, kind); err != nil {
		fmt.Printf("Alert dedup set failed for %s/%s: %v\n", truckID, kind, err)
	}
}

func (m *Monitor) deliver(ctx context.Context, alerts []*domain.Alert) {
	for _, alert := range alerts {
		metrics.AlertsRaised.Add(1)
		for _, sink := range m.sinks {
			if err := sink.DeliverAlert(ctx, *alert); err != nil {
				fmt.Printf("Alert delivery failed for %s: %v\n", alert.ID, err)
			}
		}
	}
}
