package main

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"casalink/internal/api"
	"casalink/internal/model"
)

// newSim boots a seeded simulator and a real API client pointed at it,
// so these tests exercise the full client-server contract.
func newSim(t *testing.T) (*simState, *api.Client) {
	t.Helper()
	state := newSimState()
	state.seed()
	srv := httptest.NewServer(state.router())
	t.Cleanup(srv.Close)
	return state, api.New(srv.URL, 5*time.Second)
}

func TestSimProbe(t *testing.T) {
	_, client := newSim(t)
	if !client.Probe(context.Background()) {
		t.Fatal("expected seeded sim to answer /hello")
	}
}

func TestSimLoginRoundTrip(t *testing.T) {
	_, client := newSim(t)
	ctx := context.Background()

	result, err := client.Login(ctx, "admin", "admin123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got message %q", result.Message)
	}
	if result.User == nil || !result.User.IsAdmin() {
		t.Fatalf("expected admin user, got %+v", result.User)
	}

	result, err = client.Login(ctx, "admin", "wrong")
	if err != nil {
		t.Fatalf("login with bad password: %v", err)
	}
	if result.Success {
		t.Fatal("expected failure for bad password")
	}
}

func TestSimRegisterValidateDelete(t *testing.T) {
	_, client := newSim(t)
	ctx := context.Background()

	result, err := client.RegisterUser(ctx, "nuevo", "secret12", "")
	if err != nil || !result.Success {
		t.Fatalf("register: err=%v result=%+v", err, result)
	}

	isAdmin, err := client.ValidateUser(ctx, "nuevo")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if isAdmin {
		t.Fatal("fresh user should not be admin")
	}

	ok, err := client.DeleteUser(ctx, "nuevo", "admin")
	if err != nil || !ok {
		t.Fatalf("delete: err=%v ok=%v", err, ok)
	}
	if _, err := client.Login(ctx, "nuevo", "secret12"); err != nil {
		t.Fatalf("login after delete: %v", err)
	}
}

func TestSimDeleteUserRequiresAdmin(t *testing.T) {
	_, client := newSim(t)

	ok, err := client.DeleteUser(context.Background(), "admin", "usuario")
	if ok {
		t.Fatal("non-admin must not be able to delete users")
	}
	if api.ErrKind(err) != api.KindHTTP {
		t.Fatalf("expected an HTTP error, got %v", err)
	}
}

func TestSimRoomLifecycle(t *testing.T) {
	_, client := newSim(t)
	ctx := context.Background()

	rooms, err := client.ListRooms(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rooms) != 3 || rooms[0].Name != "Salon" {
		t.Fatalf("unexpected seeded rooms: %+v", rooms)
	}

	created, err := client.CreateRoom(ctx, "Garaje", "admin")
	if err != nil || !created {
		t.Fatalf("create: err=%v created=%v", err, created)
	}
	// duplicate names are refused without an HTTP error
	created, err = client.CreateRoom(ctx, "Garaje", "admin")
	if err != nil {
		t.Fatalf("duplicate create: %v", err)
	}
	if created {
		t.Fatal("duplicate room must not be created")
	}

	room, found, err := client.GetRoom(ctx, "Garaje")
	if err != nil || !found {
		t.Fatalf("get: err=%v found=%v", err, found)
	}
	if room.LightOn || room.DetectOn {
		t.Fatalf("new room should start dark and unarmed: %+v", room)
	}

	deleted, err := client.DeleteRoom(ctx, "Garaje", "admin")
	if err != nil || !deleted {
		t.Fatalf("delete: err=%v deleted=%v", err, deleted)
	}
	if _, found, err := client.GetRoom(ctx, "Garaje"); err != nil || found {
		t.Fatalf("room should be gone: err=%v found=%v", err, found)
	}
}

func TestSimDeviceCommands(t *testing.T) {
	_, client := newSim(t)
	ctx := context.Background()

	result, err := client.SetLight(ctx, "Salon", true)
	if err != nil {
		t.Fatalf("set light: %v", err)
	}
	if result != model.CommandAcceptedPending {
		t.Fatalf("expected pending, got %v", result)
	}

	room, _, err := client.GetRoom(ctx, "Salon")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !room.LightOn {
		t.Fatal("sim applies commands immediately; light should be on")
	}

	result, err = client.SetAlarm(ctx, "No Existe", true)
	if result != model.CommandRejected {
		t.Fatalf("unknown room must reject, got %v", result)
	}
	if api.ErrKind(err) != api.KindHTTP {
		t.Fatalf("expected an HTTP error, got %v", err)
	}
}

func TestSimScheduleLifecycle(t *testing.T) {
	_, client := newSim(t)
	ctx := context.Background()

	ok, err := client.CreatePunctualSchedule(ctx, "Cocina", "luces noche", model.DeviceLight, true, "21:30")
	if err != nil || !ok {
		t.Fatalf("create punctual: err=%v ok=%v", err, ok)
	}
	ok, err = client.CreateIntervalSchedule(ctx, "Cocina", "alarma nocturna", model.DeviceAlarm, "23:00", "07:00")
	if err != nil || !ok {
		t.Fatalf("create interval: err=%v ok=%v", err, ok)
	}

	schedules, err := client.ListSchedules(ctx, "Cocina")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(schedules) != 2 {
		t.Fatalf("expected 2 schedules, got %d", len(schedules))
	}
	if schedules[0].Kind() != model.SchedulePunctual || schedules[1].Kind() != model.ScheduleInterval {
		t.Fatalf("unexpected kinds: %+v", schedules)
	}

	ok, err = client.DeleteSchedule(ctx, "Cocina", schedules[0].ID)
	if err != nil || !ok {
		t.Fatalf("delete: err=%v ok=%v", err, ok)
	}
	schedules, err = client.ListSchedules(ctx, "Cocina")
	if err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	if len(schedules) != 1 {
		t.Fatalf("expected 1 schedule left, got %d", len(schedules))
	}
}

func TestSimEventsMostRecentFirst(t *testing.T) {
	_, client := newSim(t)
	ctx := context.Background()

	if _, err := client.SetLight(ctx, "Salon", true); err != nil {
		t.Fatalf("set light: %v", err)
	}
	if _, err := client.SetLight(ctx, "Cocina", true); err != nil {
		t.Fatalf("set light: %v", err)
	}

	events, err := client.ListRecentEvents(ctx, 1)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) < 2 {
		t.Fatalf("expected at least 2 events, got %d", len(events))
	}
	if events[0].ID < events[1].ID {
		t.Fatal("events must come back most recent first")
	}
	if events[0].RoomName != "Cocina" {
		t.Fatalf("latest event should be the Cocina command, got %+v", events[0])
	}
}

func TestSimVacationMode(t *testing.T) {
	_, client := newSim(t)
	ctx := context.Background()

	active, err := client.GetVacationMode(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if active {
		t.Fatal("vacation mode must start off")
	}

	if ok, err := client.SetVacationMode(ctx, true); err != nil || !ok {
		t.Fatalf("activate: err=%v ok=%v", err, ok)
	}
	if active, err = client.GetVacationMode(ctx); err != nil || !active {
		t.Fatalf("expected active, err=%v active=%v", err, active)
	}
}

func TestSimRfidRegistrationFlow(t *testing.T) {
	state, client := newSim(t)
	ctx := context.Background()

	uid, has, err := client.GetRfidUID(ctx, "usuario")
	if err != nil {
		t.Fatalf("get uid: %v", err)
	}
	if has || uid != "" {
		t.Fatalf("seeded user has no card yet: uid=%q has=%v", uid, has)
	}

	if err := client.InitiateRfidRegistration(ctx, "usuario"); err != nil {
		t.Fatalf("initiate: %v", err)
	}

	// fake the physical card tap through the simulation hook
	state.mu.Lock()
	state.users["usuario"].user.RfidUID = "CARD-42"
	state.rfidUser = ""
	state.mu.Unlock()

	uid, has, err = client.GetRfidUID(ctx, "usuario")
	if err != nil || !has {
		t.Fatalf("get uid after scan: err=%v has=%v", err, has)
	}
	if uid != "CARD-42" {
		t.Fatalf("expected CARD-42, got %q", uid)
	}
}

func TestSimRfidCancelClosesWindow(t *testing.T) {
	state, client := newSim(t)
	ctx := context.Background()

	if err := client.InitiateRfidRegistration(ctx, "usuario"); err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if err := client.CancelRfidRegistration(ctx, "usuario"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	state.mu.Lock()
	open := state.rfidUser != ""
	state.mu.Unlock()
	if open {
		t.Fatal("cancel must close the registration window")
	}
}

func TestSimUnknownUserRfid404(t *testing.T) {
	_, client := newSim(t)

	_, has, err := client.GetRfidUID(context.Background(), "nadie")
	if err != nil {
		t.Fatalf("get uid: %v", err)
	}
	if has {
		t.Fatal("unknown user must report no card")
	}
}
