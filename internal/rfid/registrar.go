// Package rfid drives the card-registration flow as an explicit state
// machine: Idle -> Registering -> {Completed, Cancelled, TimedOut}.
// The server holds a 30-second window after initiation during which a
// scanned card is bound to the user; the client detects the bind by
// polling the registered UID.
package rfid

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is the registrar's position in the registration lifecycle.
type State int

const (
	StateIdle State = iota
	StateRegistering
	StateCompleted
	StateCancelled
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRegistering:
		return "registering"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateTimedOut:
		return "timed out"
	}
	return "unknown"
}

// ErrInProgress is returned by Start while a registration is running.
// The guard is keyed on state, not username: one window at a time,
// whoever it belongs to.
var ErrInProgress = errors.New("rfid registration already in progress")

// API is the slice of the backend client the registrar needs.
type API interface {
	InitiateRfidRegistration(ctx context.Context, username string) error
	CancelRfidRegistration(ctx context.Context, username string) error
	GetRfidUID(ctx context.Context, username string) (string, bool, error)
}

// Registrar runs at most one registration attempt at a time.
type Registrar struct {
	api API

	// Window mirrors the server-side registration window. PollInterval
	// controls how often the bound UID is checked. Both must be set
	// before Start.
	Window       time.Duration
	PollInterval time.Duration

	mu       sync.Mutex
	state    State
	username string
	uid      string
	cancelFn context.CancelFunc

	wg sync.WaitGroup
}

func NewRegistrar(api API) *Registrar {
	return &Registrar{
		api:          api,
		Window:       30 * time.Second,
		PollInterval: 2 * time.Second,
	}
}

// State returns the current lifecycle state.
func (r *Registrar) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// UID returns the card UID bound by the last completed registration.
func (r *Registrar) UID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.uid
}

// Start opens the server window and begins watching for the bind.
// It returns ErrInProgress if a registration is already running.
func (r *Registrar) Start(ctx context.Context, username string) error {
	r.mu.Lock()
	if r.state == StateRegistering {
		r.mu.Unlock()
		return ErrInProgress
	}
	r.state = StateRegistering
	r.username = username
	r.uid = ""
	r.mu.Unlock()

	// Baseline UID so a pre-existing card is not mistaken for the bind.
	prior, _, _ := r.api.GetRfidUID(ctx, username)

	if err := r.api.InitiateRfidRegistration(ctx, username); err != nil {
		r.mu.Lock()
		r.state = StateIdle
		r.mu.Unlock()
		return err
	}

	runCtx, cancel := context.WithTimeout(ctx, r.Window)
	r.mu.Lock()
	r.cancelFn = cancel
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run(runCtx, cancel, username, prior)
	return nil
}

func (r *Registrar) run(ctx context.Context, cancel context.CancelFunc, username, prior string) {
	defer r.wg.Done()
	defer cancel()

	ticker := time.NewTicker(r.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			if r.state == StateRegistering {
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					r.state = StateTimedOut
				} else {
					r.state = StateCancelled
				}
			}
			r.mu.Unlock()
			return
		case <-ticker.C:
			uid, ok, err := r.api.GetRfidUID(ctx, username)
			if err != nil || !ok || uid == prior {
				continue
			}
			r.mu.Lock()
			r.state = StateCompleted
			r.uid = uid
			r.mu.Unlock()
			return
		}
	}
}

// Cancel aborts an in-progress registration and tells the server to
// close its window. The server cancel is best effort: if a card was
// scanned before the cancel arrives, the bind may still take effect.
func (r *Registrar) Cancel(ctx context.Context) error {
	r.mu.Lock()
	if r.state != StateRegistering {
		r.mu.Unlock()
		return nil
	}
	r.state = StateCancelled
	username := r.username
	cancel := r.cancelFn
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
	return r.api.CancelRfidRegistration(ctx, username)
}

// Wait blocks until the current attempt finishes, then returns the
// final state.
func (r *Registrar) Wait() State {
	r.wg.Wait()
	return r.State()
}
