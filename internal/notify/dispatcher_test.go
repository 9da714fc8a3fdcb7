package notify

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"casalink/internal/events"
)

// mockSender records calls for assertion.
type mockSender struct {
	mu       sync.Mutex
	calls    []string
	failNext bool
}

func (m *mockSender) Send(url, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, message)
	if m.failNext {
		m.failNext = false
		return fmt.Errorf("mock send error")
	}
	return nil
}

func (m *mockSender) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockSender) lastCall() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return ""
	}
	return m.calls[len(m.calls)-1]
}

func TestDispatcherSendsMatchingSeverity(t *testing.T) {
	bus := events.NewBus()
	sender := &mockSender{}
	d := NewDispatcher(bus, sender, []string{"generic://example.com"}, events.SeverityWarning)

	d.Start()
	defer d.Stop()

	bus.Publish(events.Event{
		Type:     events.MovementDetected,
		Severity: events.SeverityWarning,
		Room:     "Salon",
		Message:  "movement detected",
	})

	// Give the async goroutine time to process
	time.Sleep(100 * time.Millisecond)

	if sender.callCount() != 1 {
		t.Errorf("expected 1 send, got %d", sender.callCount())
	}
	if msg := sender.lastCall(); !strings.Contains(msg, "Salon") {
		t.Errorf("message %q does not name the room", msg)
	}
}

func TestDispatcherFiltersBelowMinSeverity(t *testing.T) {
	bus := events.NewBus()
	sender := &mockSender{}
	d := NewDispatcher(bus, sender, []string{"generic://example.com"}, events.SeverityWarning)

	d.Start()
	defer d.Stop()

	bus.Publish(events.Event{
		Type:     events.ScheduleExecuted,
		Severity: events.SeverityInfo,
		Message:  "light on",
	})

	time.Sleep(100 * time.Millisecond)

	if sender.callCount() != 0 {
		t.Errorf("expected 0 sends for info event, got %d", sender.callCount())
	}
}

func TestDispatcherFansOutToAllURLs(t *testing.T) {
	bus := events.NewBus()
	sender := &mockSender{}
	urls := []string{"telegram://token@telegram?chats=1", "discord://token@id"}
	d := NewDispatcher(bus, sender, urls, events.SeverityInfo)

	d.Start()
	defer d.Stop()

	bus.Publish(events.Event{
		Type:     events.SystemAction,
		Severity: events.SeverityWarning,
		Message:  "vacation mode activated",
	})

	time.Sleep(100 * time.Millisecond)

	if sender.callCount() != len(urls) {
		t.Errorf("expected %d sends, got %d", len(urls), sender.callCount())
	}
}

func TestDispatcherSurvivesSendFailure(t *testing.T) {
	bus := events.NewBus()
	sender := &mockSender{failNext: true}
	d := NewDispatcher(bus, sender, []string{"generic://example.com"}, events.SeverityInfo)

	d.Start()
	defer d.Stop()

	bus.Publish(events.Event{Type: events.MovementDetected, Severity: events.SeverityWarning, Message: "a"})
	bus.Publish(events.Event{Type: events.MovementDetected, Severity: events.SeverityWarning, Message: "b"})

	time.Sleep(100 * time.Millisecond)

	if sender.callCount() != 2 {
		t.Errorf("expected 2 sends despite first failing, got %d", sender.callCount())
	}
}
