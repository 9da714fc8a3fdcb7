package events

import (
	"time"

	"casalink/internal/model"
)

// Type identifies the kind of event being published on the local bus.
// These mirror the backend's audit event types.
type Type string

const (
	UserAction       Type = "user_action"
	SystemAction     Type = "system_action"
	MovementDetected Type = "movement_detected"
	ScheduleExecuted Type = "schedule_executed"
	LoginAttempt     Type = "login_attempt"
)

// Severity indicates the urgency of an event.
type Severity int

const (
	SeverityInfo     Severity = 0
	SeverityWarning  Severity = 1
	SeverityCritical Severity = 2
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Event is the payload published through the bus.
type Event struct {
	Type      Type      `json:"type"`
	Severity  Severity  `json:"severity"`
	Room      string    `json:"room,omitempty"`
	Message   string    `json:"message"`
	Source    string    `json:"source,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// FromAudit converts a backend audit record into a bus event.
// Movement while nobody should be home is the only critical case the
// client distinguishes; everything else maps by type.
func FromAudit(e model.Event, vacationActive bool) Event {
	out := Event{
		Room:    e.RoomName,
		Message: e.Action,
		Source:  e.Source,
	}
	if e.Details != "" {
		out.Message = e.Action + ": " + e.Details
	}
	if ts, err := time.Parse(time.RFC3339, e.Timestamp); err == nil {
		out.Timestamp = ts
	}

	switch e.EventType {
	case model.EventMovementDetected:
		out.Type = MovementDetected
		out.Severity = SeverityWarning
		if vacationActive {
			out.Severity = SeverityCritical
		}
	case model.EventSystemAction:
		out.Type = SystemAction
		out.Severity = SeverityWarning
	case model.EventScheduleExecuted:
		out.Type = ScheduleExecuted
	case model.EventLoginAttempt:
		out.Type = LoginAttempt
	default:
		out.Type = UserAction
	}
	return out
}
