package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"casalink/internal/api"
	"casalink/internal/config"
	"casalink/internal/store"
	versionpkg "casalink/internal/version"
)

const version = "1.0.0"

type app struct {
	cfg      config.Config
	server   *store.ServerStore
	session  *store.SessionStore
	vacation *store.VacationStore
	client   *api.Client
}

func usage() {
	fmt.Fprintf(os.Stderr, `casalink v%s - home automation client

Usage: casalink <command> [arguments]

Commands:
  server [set <addr>]         show or configure the backend address
  login <username>            sign in (password is prompted)
  logout                      sign out and clear the local session
  whoami                      show the signed-in user
  rooms                       list rooms
  room <name>                 show one room
  light <room> on|off         toggle a room light
  alarm <room> on|off         toggle a room alarm sensor
  room-add <name>             create a room
  room-rm <name>              delete a room
  schedules <room>            list schedules for a room
  schedule-add [flags]        create a schedule (see -help)
  schedule-rm <room> <id>     delete a schedule
  events [-hours n]           show the recent event log
  vacation [on|off]           show or toggle vacation mode
  rfid [register|cancel]      show or register an RFID card
  users add|rm|check <name>   manage accounts (admin only)
  watch                       follow events and push notifications
  version [-check]            print the version, optionally check for updates
`, version)
}

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	command, args := os.Args[1], os.Args[2:]

	if command == "version" {
		cmdVersion(args)
		return
	}
	if command == "help" || command == "-h" || command == "--help" {
		usage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		log.Fatalf("❌ create data dir: %v", err)
	}

	db, err := store.Open(cfg.DBPath())
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer db.Close()

	a := &app{
		cfg:      cfg,
		server:   store.NewServerStore(db),
		session:  store.NewSessionStore(db),
		vacation: store.NewVacationStore(db),
	}

	address := a.server.Get()
	if cfg.Server != "" {
		address = store.Normalize(cfg.Server)
	}
	a.client = api.New(address, cfg.Timeout.Std())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.run(ctx, command, args); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "server":
		return a.cmdServer(ctx, args)
	case "login":
		return a.cmdLogin(ctx, args)
	case "logout":
		return a.cmdLogout()
	case "whoami":
		return a.cmdWhoami()
	case "rooms":
		return a.cmdRooms(ctx)
	case "room":
		return a.cmdRoom(ctx, args)
	case "light":
		return a.cmdDevice(ctx, "light", args)
	case "alarm":
		return a.cmdDevice(ctx, "alarm", args)
	case "room-add":
		return a.cmdRoomAdd(ctx, args)
	case "room-rm":
		return a.cmdRoomRm(ctx, args)
	case "schedules":
		return a.cmdSchedules(ctx, args)
	case "schedule-add":
		return a.cmdScheduleAdd(ctx, args)
	case "schedule-rm":
		return a.cmdScheduleRm(ctx, args)
	case "events":
		return a.cmdEvents(ctx, args)
	case "vacation":
		return a.cmdVacation(ctx, args)
	case "rfid":
		return a.cmdRfid(ctx, args)
	case "users":
		return a.cmdUsers(ctx, args)
	case "watch":
		return a.cmdWatch(ctx)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func cmdVersion(args []string) {
	fmt.Printf("casalink v%s\n", version)
	if len(args) == 0 || args[0] != "-check" {
		return
	}

	checker := versionpkg.NewChecker(version, "casalink", "casalink")
	info, err := checker.Check(context.Background())
	if err != nil {
		log.Fatalf("❌ update check: %v", err)
	}
	if info.UpdateAvailable {
		fmt.Printf("⬆️  update available: v%s (%s)\n", info.Latest, info.ReleaseURL)
	} else {
		fmt.Println("✓ up to date")
	}
}

// connectivityHint turns a classified failure into actionable advice.
// List reads no longer swallow errors, so this is where the CLI
// decides how to degrade.
func connectivityHint(err error) string {
	switch api.ErrKind(err) {
	case api.KindUnreachable:
		return "backend refused the connection - is the server running? (casalink server)"
	case api.KindTimeout:
		return "backend timed out - check the network or raise the timeout"
	case api.KindHostNotFound:
		return "backend host not found - check the configured address (casalink server)"
	}
	return ""
}

func reportListError(err error) error {
	if hint := connectivityHint(err); hint != "" {
		return fmt.Errorf("%v\n   %s", err, hint)
	}
	return err
}
