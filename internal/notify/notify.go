package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"transit-guard/monitor/internal/domain"
	"transit-guard/monitor/internal/store"
)

// LogNotifier writes every escalation action to the process log. Always
// safe to use; the demo runs with it even when no Redis is attached.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) NotifyDriver(a *domain.Alert) {
	log.Printf("[%s] SMS driver of %s: %s", a.ID, a.TruckID, a.Title)
}

func (n *LogNotifier) CallDriver(a *domain.Alert) {
	log.Printf("[%s] auto-call driver of %s", a.ID, a.TruckID)
}

func (n *LogNotifier) AlertControlCenter(a *domain.Alert) {
	log.Printf("[%s] control center notified: %s (%s)", a.ID, a.Title, a.LevelName)
}

func (n *LogNotifier) DispatchSecurity(a *domain.Alert) {
	log.Printf("[%s] SECURITY DISPATCH for %s at (%.4f, %.4f)", a.ID, a.TruckID, a.Latitude, a.Longitude)
}

// RedisNotifier publishes each escalation action to the alert channel so
// downstream responders (SMS gateway, control-center console) can react.
type RedisNotifier struct {
	redis *store.RedisStore
}

func NewRedisNotifier(redis *store.RedisStore) *RedisNotifier {
	return &RedisNotifier{redis: redis}
}

func (n *RedisNotifier) publish(action string, a *domain.Alert) {
	payload, err := json.Marshal(map[string]interface{}{
		"action":   action,
		"alert_id": a.ID,
		"truck_id": a.TruckID,
		"level":    a.LevelName,
		"title":    a.Title,
		"lat":      a.Latitude,
		"lng":      a.Longitude,
	})
	if err != nil {
		fmt.Printf("Notifier marshal failed for %s: %v\n", a.ID, err)
		return
	}
	if err := n.redis.PublishAlert(context.Background(), payload); err != nil {
		fmt.Printf("Notifier publish failed for %s: %v\n", a.ID, err)
	}
}

func (n *RedisNotifier) NotifyDriver(a *domain.Alert)       { n.publish("sms_driver", a) }
func (n *RedisNotifier) CallDriver(a *domain.Alert)         { n.publish("call_driver", a) }
func (n *RedisNotifier) AlertControlCenter(a *domain.Alert) { n.publish("alert_control_center", a) }
func (n *RedisNotifier) DispatchSecurity(a *domain.Alert)   { n.publish("dispatch_security", a) }

// Multi fans each action out to several notifiers in order.
type Multi struct {
	notifiers []Notifier
}

// Notifier mirrors engine.Notifier; redeclared here to keep the package
// free of an engine import cycle.
type Notifier interface {
	NotifyDriver(a *domain.Alert)
	CallDriver(a *domain.Alert)
	AlertControlCenter(a *domain.Alert)
	DispatchSecurity(a *domain.Alert)
}

func NewMulti(notifiers ...Notifier) *Multi {
	return &Multi{notifiers: notifiers}
}

func (m *Multi) NotifyDriver(a *domain.Alert) {
	for _, n := range m.notifiers {
		n.NotifyDriver(a)
	}
}

func (m *Multi) CallDriver(a *domain.Alert) {
	for _, n := range m.notifiers {
		n.CallDriver(a)
	}
}

func (m *Multi) AlertControlCenter(a *domain.Alert) {
	for _, n := range m.notifiers {
		n.AlertControlCenter(a)
	}
}

func (m *Multi) DispatchSecurity(a *domain.Alert) {
	for _, n := range m.notifiers {
		n.DispatchSecurity(a)
	}
}
