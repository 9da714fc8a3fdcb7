package model

import (
	"errors"
	"fmt"
)

// DeviceType enumerates the schedulable device kinds a room exposes.
const (
	DeviceLight = "light"
	DeviceAlarm = "alarm"
)

// RoleAdmin is the role string the backend assigns to administrators.
const RoleAdmin = "ADMIN"

// User is the authenticated identity returned by /auth/login.
// RfidUID is empty until a card has been registered.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	RfidUID  string `json:"rfidUid,omitempty"`
}

// IsAdmin reports whether the user holds the administrator role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// LoginResult mirrors the backend's login envelope. On transport failures
// the client synthesizes one with Success=false and a message code.
type LoginResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	User    *User  `json:"user"`
}

// Room is server-owned state. The client never mutates these fields
// directly; it issues commands and re-fetches.
type Room struct {
	Name     string `json:"name"`
	LightOn  bool   `json:"lightOn"`
	DetectOn bool   `json:"detectOn"`
}

// ScheduleKind distinguishes one-shot schedules from time ranges.
type ScheduleKind string

const (
	SchedulePunctual ScheduleKind = "puntual"
	ScheduleInterval ScheduleKind = "interval"
)

// Schedule is a server-assigned device schedule. Exactly one of Time or
// the (StartTime, EndTime) pair must be present.
type Schedule struct {
	ID        int64  `json:"id"`
	Name      string `json:"name,omitempty"`
	Type      string `json:"type"`
	State     bool   `json:"state"`
	Time      string `json:"time,omitempty"`
	StartTime string `json:"startTime,omitempty"`
	EndTime   string `json:"endTime,omitempty"`
}

var (
	ErrScheduleNoTime   = errors.New("schedule has neither a time nor a start/end pair")
	ErrScheduleBothTime = errors.New("schedule has both a time and a start/end pair")
)

// Kind reports whether the schedule is punctual or an interval.
// Only meaningful for a schedule that passes Validate.
func (s Schedule) Kind() ScheduleKind {
	if s.Time != "" {
		return SchedulePunctual
	}
	return ScheduleInterval
}

// Validate enforces the mutual exclusion between the two time
// representations. A half-filled interval counts as "neither".
func (s Schedule) Validate() error {
	punctual := s.Time != ""
	interval := s.StartTime != "" && s.EndTime != ""
	switch {
	case punctual && interval:
		return ErrScheduleBothTime
	case !punctual && !interval:
		return ErrScheduleNoTime
	}
	return nil
}

// EventType classifies audit log entries.
type EventType string

const (
	EventUserAction       EventType = "USER_ACTION"
	EventSystemAction     EventType = "SYSTEM_ACTION"
	EventMovementDetected EventType = "MOVEMENT_DETECTED"
	EventScheduleExecuted EventType = "SCHEDULE_EXECUTED"
	EventLoginAttempt     EventType = "LOGIN_ATTEMPT"
)

// Event is an immutable audit record; read-only from the client side.
type Event struct {
	ID        int64     `json:"id"`
	EventType EventType `json:"eventType"`
	Action    string    `json:"action"`
	RoomName  string    `json:"roomName,omitempty"`
	UserID    string    `json:"userId,omitempty"`
	Timestamp string    `json:"timestamp"`
	Details   string    `json:"details,omitempty"`
	Source    string    `json:"source"`
	IPAddress string    `json:"ipAddress,omitempty"`
}

// CommandResult is the tri-state outcome of a device-control request.
// A 2xx response whose body could not be parsed is treated optimistically
// as accepted; only Rejected should make the UI roll back.
type CommandResult int

const (
	CommandRejected CommandResult = iota
	CommandAcceptedPending
	CommandAcceptedUnconfirmed
)

// Accepted reports whether the command was taken by the server,
// confirmed or not.
func (r CommandResult) Accepted() bool { return r != CommandRejected }

func (r CommandResult) String() string {
	switch r {
	case CommandAcceptedPending:
		return "accepted (pending)"
	case CommandAcceptedUnconfirmed:
		return "accepted (unconfirmed)"
	case CommandRejected:
		return "rejected"
	}
	return fmt.Sprintf("CommandResult(%d)", int(r))
}
