package notify

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"casalink/internal/events"
	"casalink/internal/model"
)

// fakeSource serves canned event pages, most recent first.
type fakeSource struct {
	mu       sync.Mutex
	pages    [][]model.Event
	idx      int
	vacation bool
	failNext bool
}

func (f *fakeSource) ListRecentEvents(ctx context.Context, hours int) ([]model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return nil, fmt.Errorf("fake outage")
	}
	if f.idx >= len(f.pages) {
		return nil, nil
	}
	page := f.pages[f.idx]
	f.idx++
	return page, nil
}

func (f *fakeSource) GetVacationMode(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.vacation, nil
}

func audit(id int64, eventType model.EventType, action string) model.Event {
	return model.Event{ID: id, EventType: eventType, Action: action, Source: "test"}
}

func collect(bus *events.Bus) *[]events.Event {
	var got []events.Event
	var mu sync.Mutex
	bus.Subscribe(func(e events.Event) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	})
	return &got
}

func TestWatcherFirstPollOnlyPrimes(t *testing.T) {
	bus := events.NewBus()
	got := collect(bus)
	source := &fakeSource{pages: [][]model.Event{
		{audit(5, model.EventUserAction, "old news")},
	}}

	w := NewWatcher(source, bus, 0)
	w.Poll(context.Background())

	if len(*got) != 0 {
		t.Errorf("baseline poll published %d events, want 0", len(*got))
	}
}

func TestWatcherPublishesOnlyUnseen(t *testing.T) {
	bus := events.NewBus()
	got := collect(bus)
	source := &fakeSource{pages: [][]model.Event{
		{audit(5, model.EventUserAction, "baseline")},
		{
			audit(7, model.EventMovementDetected, "movement"),
			audit(6, model.EventUserAction, "light on"),
			audit(5, model.EventUserAction, "baseline"),
		},
		{
			audit(7, model.EventMovementDetected, "movement"),
			audit(6, model.EventUserAction, "light on"),
		},
	}}

	w := NewWatcher(source, bus, 0)
	ctx := context.Background()
	w.Poll(ctx) // prime
	w.Poll(ctx) // two new entries
	w.Poll(ctx) // nothing new

	if len(*got) != 2 {
		t.Fatalf("published %d events, want 2", len(*got))
	}
	// chronological order: id 6 before id 7
	if (*got)[0].Message != "light on" || (*got)[1].Message != "movement" {
		t.Errorf("wrong publish order: %+v", *got)
	}
}

func TestWatcherKeepsBaselineAcrossFailures(t *testing.T) {
	bus := events.NewBus()
	got := collect(bus)
	source := &fakeSource{pages: [][]model.Event{
		{audit(5, model.EventUserAction, "baseline")},
		{
			audit(6, model.EventMovementDetected, "movement"),
			audit(5, model.EventUserAction, "baseline"),
		},
	}}

	w := NewWatcher(source, bus, 0)
	ctx := context.Background()
	w.Poll(ctx) // prime

	source.mu.Lock()
	source.failNext = true
	source.mu.Unlock()
	w.Poll(ctx) // outage, no baseline reset

	w.Poll(ctx) // recovers, publishes only id 6

	if len(*got) != 1 {
		t.Fatalf("published %d events, want 1", len(*got))
	}
	if (*got)[0].Type != events.MovementDetected {
		t.Errorf("event = %+v", (*got)[0])
	}
}

func TestWatcherEscalatesDuringVacation(t *testing.T) {
	bus := events.NewBus()
	got := collect(bus)
	source := &fakeSource{
		vacation: true,
		pages: [][]model.Event{
			{},
			{audit(1, model.EventMovementDetected, "movement")},
		},
	}

	w := NewWatcher(source, bus, 0)
	ctx := context.Background()
	w.Poll(ctx)
	w.Poll(ctx)

	if len(*got) != 1 {
		t.Fatalf("published %d events, want 1", len(*got))
	}
	if (*got)[0].Severity != events.SeverityCritical {
		t.Errorf("severity = %v, want critical while on vacation", (*got)[0].Severity)
	}
}
