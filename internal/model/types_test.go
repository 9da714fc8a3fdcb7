package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestScheduleValidate(t *testing.T) {
	cases := []struct {
		name     string
		schedule Schedule
		wantErr  error
	}{
		{"punctual", Schedule{Type: DeviceLight, Time: "08:30"}, nil},
		{"interval", Schedule{Type: DeviceAlarm, StartTime: "22:00", EndTime: "07:00"}, nil},
		{"neither", Schedule{Type: DeviceLight}, ErrScheduleNoTime},
		{"both", Schedule{Type: DeviceLight, Time: "08:30", StartTime: "22:00", EndTime: "07:00"}, ErrScheduleBothTime},
		{"half interval", Schedule{Type: DeviceAlarm, StartTime: "22:00"}, ErrScheduleNoTime},
	}
	for _, tc := range cases {
		if err := tc.schedule.Validate(); !errors.Is(err, tc.wantErr) {
			t.Errorf("%s: Validate() = %v, want %v", tc.name, err, tc.wantErr)
		}
	}
}

func TestScheduleKind(t *testing.T) {
	if kind := (Schedule{Time: "08:30"}).Kind(); kind != SchedulePunctual {
		t.Errorf("Kind() = %v, want puntual", kind)
	}
	if kind := (Schedule{StartTime: "22:00", EndTime: "07:00"}).Kind(); kind != ScheduleInterval {
		t.Errorf("Kind() = %v, want interval", kind)
	}
}

func TestCommandResultAccepted(t *testing.T) {
	if CommandRejected.Accepted() {
		t.Error("rejected command reports accepted")
	}
	if !CommandAcceptedPending.Accepted() || !CommandAcceptedUnconfirmed.Accepted() {
		t.Error("accepted variants report not accepted")
	}
}

func TestUserIsAdmin(t *testing.T) {
	if !(User{Role: "ADMIN"}).IsAdmin() {
		t.Error("ADMIN role not recognized")
	}
	if (User{Role: "USER"}).IsAdmin() {
		t.Error("USER role treated as admin")
	}
}

func TestEventDecodesBackendPayload(t *testing.T) {
	payload := `{"id":42,"eventType":"SCHEDULE_EXECUTED","action":"light on","roomName":"Salon",
		"userId":"7","timestamp":"2025-06-01T08:30:00Z","details":"scheduled","source":"scheduler"}`

	var e Event
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.EventType != EventScheduleExecuted || e.RoomName != "Salon" || e.IPAddress != "" {
		t.Errorf("decoded event = %+v", e)
	}
}
