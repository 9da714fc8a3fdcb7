// Package notify turns backend audit events into push notifications.
// A Watcher polls the event log and publishes new entries on the local
// bus; the Dispatcher subscribes and fans them out through Shoutrrr.
package notify

import (
	"fmt"
	"log"
	"sync"

	"github.com/nicholas-fedor/shoutrrr"

	"casalink/internal/events"
)

// Sender abstracts message dispatch so the dispatcher can be tested
// without hitting real services.
type Sender interface {
	Send(shoutrrrURL, message string) error
}

// ShoutrrrSender dispatches via the Shoutrrr library.
type ShoutrrrSender struct{}

func (ShoutrrrSender) Send(url, message string) error {
	return shoutrrr.Send(url, message)
}

// Dispatcher subscribes to the event bus, filters by severity, and
// dispatches to every configured Shoutrrr URL.
type Dispatcher struct {
	bus         *events.Bus
	sender      Sender
	urls        []string
	minSeverity events.Severity

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher wired to the given bus. A nil
// sender falls back to Shoutrrr.
func NewDispatcher(bus *events.Bus, sender Sender, urls []string, minSeverity events.Severity) *Dispatcher {
	if sender == nil {
		sender = ShoutrrrSender{}
	}
	return &Dispatcher{
		bus:         bus,
		sender:      sender,
		urls:        urls,
		minSeverity: minSeverity,
		stopCh:      make(chan struct{}),
	}
}

// Start subscribes to all events and begins dispatching.
func (d *Dispatcher) Start() {
	ch := make(chan events.Event, 256)

	d.bus.Subscribe(func(e events.Event) {
		select {
		case ch <- e:
		default:
			log.Printf("notify: event queue full, dropping %s event", e.Type)
		}
	})

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case e := <-ch:
				d.handle(e)
			case <-d.stopCh:
				// Drain remaining events
				for {
					select {
					case e := <-ch:
						d.handle(e)
					default:
						return
					}
				}
			}
		}
	}()
}

// Stop signals the dispatcher goroutine to finish and waits for it.
func (d *Dispatcher) Stop() {
	close(d.stopCh)
	d.wg.Wait()
}

func (d *Dispatcher) handle(e events.Event) {
	if e.Severity < d.minSeverity {
		return
	}

	message := formatMessage(e)
	for _, url := range d.urls {
		if err := d.sender.Send(url, message); err != nil {
			log.Printf("notify: send failed: %v", err)
		}
	}
}

func formatMessage(e events.Event) string {
	where := "home"
	if e.Room != "" {
		where = e.Room
	}
	return fmt.Sprintf("[%s] %s: %s (%s)",
		e.Severity, where, e.Message, e.Timestamp.Format("15:04:05"))
}
