package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"

	"casalink/internal/api"
	"casalink/internal/model"
	"casalink/internal/rfid"
	"casalink/internal/store"
)

func (a *app) cmdServer(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "show" {
		origin := "default"
		if a.cfg.Server != "" {
			origin = "config override"
		} else if a.server.HasCustom() {
			origin = "saved"
		}
		fmt.Printf("Backend: %s (%s)\n", a.client.Address(), origin)
		if a.client.Probe(ctx) {
			fmt.Println("✓ reachable")
		} else {
			fmt.Println("❌ not reachable")
		}
		return nil
	}

	if args[0] != "set" || len(args) < 2 {
		return fmt.Errorf("usage: casalink server [set <address>]")
	}

	// The address is tested and saved only after a successful probe.
	candidate := store.Normalize(args[1])
	probe := api.New(candidate, a.cfg.Timeout.Std())
	if !probe.Probe(ctx) {
		return fmt.Errorf("no backend answering at %s - address not saved", candidate)
	}
	if err := a.server.Set(args[1]); err != nil {
		return err
	}
	a.client.SetAddress(candidate)
	fmt.Printf("✓ backend set to %s\n", candidate)
	return nil
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: casalink login <username>")
	}
	username := args[0]

	fmt.Fprintf(os.Stderr, "Password for %s: ", username)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	result, err := a.client.Login(ctx, username, string(password))
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("login failed: %s", loginMessage(result.Message))
	}
	if result.User == nil {
		return fmt.Errorf("login succeeded but the backend sent no user")
	}
	if err := a.session.Save(*result.User); err != nil {
		return err
	}
	fmt.Printf("✓ signed in as %s (%s)\n", result.User.Username, result.User.Role)
	return nil
}

func loginMessage(code string) string {
	switch code {
	case api.MsgServerUnreachable:
		return "server unreachable"
	case api.MsgConnectionTimeout:
		return "connection timed out"
	case api.MsgHostNotFound:
		return "host not found"
	case api.MsgNetworkError:
		return "network error"
	}
	return code
}

func (a *app) cmdLogout() error {
	if err := a.session.Clear(); err != nil {
		return err
	}
	if err := a.vacation.Clear(); err != nil {
		return err
	}
	fmt.Println("✓ signed out")
	return nil
}

func (a *app) cmdWhoami() error {
	user, ok := a.session.Get()
	if !ok {
		fmt.Println("not signed in")
		return nil
	}
	fmt.Printf("%s (%s)", user.Username, user.Role)
	if user.RfidUID != "" {
		fmt.Printf(", card %s", user.RfidUID)
	}
	fmt.Println()
	return nil
}

// requireUser is the client-side gate for operations the backend
// attributes to an account.
func (a *app) requireUser() (model.User, error) {
	user, ok := a.session.Get()
	if !ok {
		return model.User{}, fmt.Errorf("not signed in - run: casalink login <username>")
	}
	return user, nil
}

func (a *app) requireAdmin() (model.User, error) {
	user, err := a.requireUser()
	if err != nil {
		return model.User{}, err
	}
	if !user.IsAdmin() {
		return model.User{}, fmt.Errorf("%s is not an administrator", user.Username)
	}
	return user, nil
}

func (a *app) cmdRooms(ctx context.Context) error {
	rooms, err := a.client.ListRooms(ctx)
	if err != nil {
		return reportListError(err)
	}
	if len(rooms) == 0 {
		fmt.Println("no rooms")
		return nil
	}
	for _, room := range rooms {
		fmt.Printf("%-20s light %-3s  alarm %s\n", room.Name, onOff(room.LightOn), onOff(room.DetectOn))
	}
	return nil
}

func (a *app) cmdRoom(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: casalink room <name>")
	}
	room, ok, err := a.client.GetRoom(ctx, args[0])
	if err != nil {
		return reportListError(err)
	}
	if !ok {
		return fmt.Errorf("room %q not found", args[0])
	}
	fmt.Printf("%s\n  light: %s\n  alarm: %s\n", room.Name, onOff(room.LightOn), onOff(room.DetectOn))
	return nil
}

func onOff(state bool) string {
	if state {
		return "on"
	}
	return "off"
}

func parseState(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("state must be on or off, got %q", raw)
}

func (a *app) cmdDevice(ctx context.Context, device string, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: casalink %s <room> on|off", device)
	}
	room := args[0]
	state, err := parseState(args[1])
	if err != nil {
		return err
	}

	var result model.CommandResult
	if device == "light" {
		result, err = a.client.SetLight(ctx, room, state)
	} else {
		result, err = a.client.SetAlarm(ctx, room, state)
	}

	// The tri-state matters here: only a rejection means the switch
	// must be considered reverted. Pending/unconfirmed is "command
	// sent", not "device changed".
	switch result {
	case model.CommandAcceptedPending:
		fmt.Printf("✓ %s %s queued for %s (awaiting device confirmation)\n", device, onOff(state), room)
	case model.CommandAcceptedUnconfirmed:
		fmt.Printf("✓ %s %s sent to %s (no confirmation from server)\n", device, onOff(state), room)
	case model.CommandRejected:
		if err != nil {
			return fmt.Errorf("%s command rejected, %s stays %s: %w", device, room, onOff(!state), err)
		}
		return fmt.Errorf("%s command rejected, %s stays %s", device, room, onOff(!state))
	}
	return nil
}

func (a *app) cmdRoomAdd(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: casalink room-add <name>")
	}
	user, err := a.requireUser()
	if err != nil {
		return err
	}
	ok, err := a.client.CreateRoom(ctx, args[0], user.Username)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("backend refused to create room %q", args[0])
	}
	fmt.Printf("✓ room %s created\n", args[0])
	return nil
}

func (a *app) cmdRoomRm(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: casalink room-rm <name>")
	}
	user, err := a.requireUser()
	if err != nil {
		return err
	}
	ok, err := a.client.DeleteRoom(ctx, args[0], user.Username)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("backend refused to delete room %q", args[0])
	}
	fmt.Printf("✓ room %s deleted\n", args[0])
	return nil
}

func (a *app) cmdSchedules(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: casalink schedules <room>")
	}
	schedules, err := a.client.ListSchedules(ctx, args[0])
	if err != nil {
		return reportListError(err)
	}
	if len(schedules) == 0 {
		fmt.Println("no schedules")
		return nil
	}
	for _, s := range schedules {
		name := s.Name
		if name == "" {
			name = "-"
		}
		if s.Kind() == model.SchedulePunctual {
			fmt.Printf("#%-4d %-15s %-5s -> %-3s at %s\n", s.ID, name, s.Type, onOff(s.State), s.Time)
		} else {
			fmt.Printf("#%-4d %-15s %-5s on between %s and %s\n", s.ID, name, s.Type, s.StartTime, s.EndTime)
		}
	}
	return nil
}

func (a *app) cmdScheduleAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("schedule-add", flag.ContinueOnError)
	room := fs.String("room", "", "room name")
	name := fs.String("name", "", "display name")
	devType := fs.String("type", "light", "device type: light or alarm")
	state := fs.Bool("state", true, "target state (punctual only)")
	at := fs.String("time", "", "HH:MM for a one-shot schedule")
	start := fs.String("start", "", "HH:MM interval start")
	end := fs.String("end", "", "HH:MM interval end")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// Exactly one time representation, same rule the model enforces.
	draft := model.Schedule{Type: *devType, Time: *at, StartTime: *start, EndTime: *end}
	if err := draft.Validate(); err != nil {
		return fmt.Errorf("%w (use -time, or -start with -end)", err)
	}

	var ok bool
	var err error
	if draft.Kind() == model.SchedulePunctual {
		ok, err = a.client.CreatePunctualSchedule(ctx, *room, *name, *devType, *state, *at)
	} else {
		ok, err = a.client.CreateIntervalSchedule(ctx, *room, *name, *devType, *start, *end)
	}
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("backend refused the schedule")
	}
	fmt.Println("✓ schedule created")
	return nil
}

func (a *app) cmdScheduleRm(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: casalink schedule-rm <room> <id>")
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("schedule id must be numeric: %q", args[1])
	}
	ok, err := a.client.DeleteSchedule(ctx, args[0], id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("backend refused to delete schedule %d", id)
	}
	fmt.Printf("✓ schedule %d deleted\n", id)
	return nil
}

func (a *app) cmdEvents(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	hours := fs.Int("hours", 168, "window in hours")
	if err := fs.Parse(args); err != nil {
		return err
	}

	list, err := a.client.ListRecentEvents(ctx, *hours)
	if err != nil {
		return reportListError(err)
	}
	if len(list) == 0 {
		fmt.Printf("no events in the last %d hours\n", *hours)
		return nil
	}
	for _, e := range list {
		room := e.RoomName
		if room == "" {
			room = "-"
		}
		fmt.Printf("%s  %-18s %-12s %s\n", e.Timestamp, e.EventType, room, e.Action)
	}
	return nil
}

func (a *app) cmdVacation(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "status" {
		active, err := a.client.GetVacationMode(ctx)
		if err != nil {
			// stale-read is tolerated between refreshes
			fmt.Printf("vacation mode: %s (cached - backend unavailable)\n", onOff(a.vacation.Get()))
			return nil
		}
		if err := a.vacation.Set(active); err != nil {
			log.Printf("warning: could not cache vacation flag: %v", err)
		}
		fmt.Printf("vacation mode: %s\n", onOff(active))
		return nil
	}

	active, err := parseState(args[0])
	if err != nil {
		return err
	}
	ok, err := a.client.SetVacationMode(ctx, active)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("backend refused the vacation-mode change")
	}
	if err := a.vacation.Set(active); err != nil {
		return err
	}
	fmt.Printf("✓ vacation mode %s\n", onOff(active))
	return nil
}

func (a *app) cmdRfid(ctx context.Context, args []string) error {
	user, err := a.requireUser()
	if err != nil {
		return err
	}

	if len(args) == 0 || args[0] == "show" {
		uid, ok, err := a.client.GetRfidUID(ctx, user.Username)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("no RFID card registered")
			return nil
		}
		fmt.Printf("registered card: %s\n", uid)
		return nil
	}

	switch args[0] {
	case "register":
		return a.registerRfid(ctx, user)
	case "cancel":
		return a.client.CancelRfidRegistration(ctx, user.Username)
	}
	return fmt.Errorf("usage: casalink rfid [show|register|cancel]")
}

func (a *app) registerRfid(ctx context.Context, user model.User) error {
	registrar := rfid.NewRegistrar(a.client)

	if err := registrar.Start(ctx, user.Username); err != nil {
		return err
	}
	fmt.Printf("Pass a card over the reader to bind it to %s. You have %s (Ctrl-C cancels).\n",
		user.Username, registrar.Window)

	done := make(chan rfid.State, 1)
	go func() { done <- registrar.Wait() }()

	var final rfid.State
	select {
	case <-ctx.Done():
		// best-effort server cancel; a scan racing the cancel may
		// still bind on the server
		cancelCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := registrar.Cancel(cancelCtx); err != nil {
			log.Printf("warning: cancel request failed: %v", err)
		}
		final = registrar.State()
	case final = <-done:
	}

	switch final {
	case rfid.StateCompleted:
		user.RfidUID = registrar.UID()
		if err := a.session.Save(user); err != nil {
			return err
		}
		fmt.Printf("✓ card %s registered\n", registrar.UID())
	case rfid.StateTimedOut:
		return fmt.Errorf("no card scanned within %s", registrar.Window)
	case rfid.StateCancelled:
		fmt.Println("registration cancelled")
	}
	return nil
}

func (a *app) cmdUsers(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: casalink users add|rm|check <username>")
	}
	action, username := args[0], args[1]

	switch action {
	case "add":
		if _, err := a.requireAdmin(); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Password for new user %s: ", username)
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		result, err := a.client.RegisterUser(ctx, username, string(password), "")
		if err != nil {
			return err
		}
		if !result.Success {
			return fmt.Errorf("backend refused: %s", result.Message)
		}
		fmt.Printf("✓ user %s created\n", username)
	case "rm":
		admin, err := a.requireAdmin()
		if err != nil {
			return err
		}
		ok, err := a.client.DeleteUser(ctx, username, admin.Username)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("backend refused to delete %s", username)
		}
		fmt.Printf("✓ user %s deleted\n", username)
	case "check":
		isAdmin, err := a.client.ValidateUser(ctx, username)
		if err != nil {
			return err
		}
		role := "regular user"
		if isAdmin {
			role = "administrator"
		}
		fmt.Printf("%s is a %s\n", username, role)
	default:
		return fmt.Errorf("usage: casalink users add|rm|check <username>")
	}
	return nil
}
