package notify

import (
	"context"
	"log"
	"sync"
	"time"

	"casalink/internal/events"
	"casalink/internal/model"
)

const pollWindowHours = 1

// EventSource is the slice of the API client the watcher needs.
type EventSource interface {
	ListRecentEvents(ctx context.Context, hoursWindow int) ([]model.Event, error)
	GetVacationMode(ctx context.Context) (bool, error)
}

// Watcher polls the backend audit log and publishes entries it has not
// seen before. The first successful poll only establishes a baseline,
// so starting the watcher never replays history as notifications.
type Watcher struct {
	source   EventSource
	bus      *events.Bus
	interval time.Duration

	mu     sync.Mutex
	lastID int64
	primed bool

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewWatcher(source EventSource, bus *events.Bus, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Watcher{
		source:   source,
		bus:      bus,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins polling until Stop is called or ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		w.Poll(ctx)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stopCh:
				return
			case <-ticker.C:
				w.Poll(ctx)
			}
		}
	}()
}

// Stop halts polling and waits for the worker to exit.
func (w *Watcher) Stop() {
	close(w.stopCh)
	w.wg.Wait()
}

// Poll fetches the recent window once and publishes unseen entries,
// oldest first. Transient failures are logged and retried on the next
// tick; they never reset the baseline.
func (w *Watcher) Poll(ctx context.Context) {
	recent, err := w.source.ListRecentEvents(ctx, pollWindowHours)
	if err != nil {
		log.Printf("notify: event poll failed: %v", err)
		return
	}

	vacation, err := w.source.GetVacationMode(ctx)
	if err != nil {
		vacation = false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	maxID := w.lastID
	var fresh []model.Event
	for _, e := range recent {
		if e.ID > maxID {
			maxID = e.ID
		}
		if w.primed && e.ID > w.lastID {
			fresh = append(fresh, e)
		}
	}
	w.lastID = maxID
	w.primed = true

	// recent is most-recent-first; publish in chronological order
	for i := len(fresh) - 1; i >= 0; i-- {
		w.bus.Publish(events.FromAudit(fresh[i], vacation))
	}
}
