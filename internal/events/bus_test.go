package events

import (
	"sync/atomic"
	"testing"
	"time"

	"casalink/internal/model"
)

func TestPublishCallsMatchingSubscriber(t *testing.T) {
	bus := NewBus()
	var called atomic.Bool

	bus.Subscribe(func(e Event) {
		if e.Type != MovementDetected {
			t.Errorf("expected MovementDetected, got %s", e.Type)
		}
		called.Store(true)
	}, MovementDetected)

	bus.Publish(Event{Type: MovementDetected, Message: "movement in Salon"})

	if !called.Load() {
		t.Error("subscriber was not called")
	}
}

func TestSubscriberIgnoresUnmatchedTypes(t *testing.T) {
	bus := NewBus()
	var called atomic.Bool

	bus.Subscribe(func(e Event) {
		called.Store(true)
	}, MovementDetected)

	bus.Publish(Event{Type: UserAction, Message: "light on"})

	if called.Load() {
		t.Error("subscriber should not have been called for UserAction")
	}
}

func TestWildcardSubscriberReceivesAll(t *testing.T) {
	bus := NewBus()
	var count atomic.Int32

	bus.Subscribe(func(e Event) {
		count.Add(1)
	})

	bus.Publish(Event{Type: MovementDetected, Message: "a"})
	bus.Publish(Event{Type: ScheduleExecuted, Message: "b"})
	bus.Publish(Event{Type: LoginAttempt, Message: "c"})

	if count.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", count.Load())
	}
}

func TestPublishSetsTimestamp(t *testing.T) {
	bus := NewBus()
	var got Event

	bus.Subscribe(func(e Event) { got = e })
	bus.Publish(Event{Type: SystemAction, Message: "vacation mode on"})

	if got.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestSubscriberPanicDoesNotStopDelivery(t *testing.T) {
	bus := NewBus()
	var delivered atomic.Bool

	bus.Subscribe(func(e Event) { panic("boom") })
	bus.Subscribe(func(e Event) { delivered.Store(true) })

	bus.Publish(Event{Type: MovementDetected, Message: "movement"})

	if !delivered.Load() {
		t.Error("second subscriber did not run after the first panicked")
	}
}

func TestFromAudit(t *testing.T) {
	audit := model.Event{
		ID:        9,
		EventType: model.EventMovementDetected,
		Action:    "movement detected",
		RoomName:  "Salon",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Source:    "sensor",
	}

	e := FromAudit(audit, false)
	if e.Type != MovementDetected || e.Severity != SeverityWarning {
		t.Errorf("FromAudit = %+v", e)
	}
	if e.Room != "Salon" {
		t.Errorf("Room = %q", e.Room)
	}
	if e.Timestamp.IsZero() {
		t.Error("timestamp was not parsed")
	}

	// movement while vacation mode is active escalates
	if e := FromAudit(audit, true); e.Severity != SeverityCritical {
		t.Errorf("vacation severity = %v, want critical", e.Severity)
	}

	login := model.Event{EventType: model.EventLoginAttempt, Action: "failed login", Details: "bad password"}
	if e := FromAudit(login, false); e.Type != LoginAttempt || e.Message != "failed login: bad password" {
		t.Errorf("login FromAudit = %+v", e)
	}
}
