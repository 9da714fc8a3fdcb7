package main

import (
	"context"
	"fmt"
	"log"

	"casalink/internal/events"
	"casalink/internal/notify"
)

func severityFromName(name string) events.Severity {
	switch name {
	case "info":
		return events.SeverityInfo
	case "critical":
		return events.SeverityCritical
	}
	return events.SeverityWarning
}

// cmdWatch follows the backend event log until interrupted, printing
// every new entry and pushing alert-worthy ones through the configured
// notification URLs.
func (a *app) cmdWatch(ctx context.Context) error {
	if !a.client.Probe(ctx) {
		return fmt.Errorf("backend %s is not reachable", a.client.Address())
	}

	bus := events.NewBus()
	bus.Subscribe(func(e events.Event) {
		room := e.Room
		if room == "" {
			room = "-"
		}
		fmt.Printf("%s  [%s] %-12s %s\n",
			e.Timestamp.Format("15:04:05"), e.Severity, room, e.Message)
	})

	if len(a.cfg.Notify.URLs) > 0 {
		dispatcher := notify.NewDispatcher(bus, nil, a.cfg.Notify.URLs,
			severityFromName(a.cfg.Notify.MinSeverity))
		dispatcher.Start()
		defer dispatcher.Stop()
		log.Printf("✓ pushing %s+ events to %d notification target(s)",
			severityFromName(a.cfg.Notify.MinSeverity), len(a.cfg.Notify.URLs))
	}

	watcher := notify.NewWatcher(a.client, bus, a.cfg.Notify.PollInterval.Std())
	watcher.Start(ctx)
	log.Printf("👀 watching %s (every %s, Ctrl-C stops)", a.client.Address(), a.cfg.Notify.PollInterval.Std())

	<-ctx.Done()
	watcher.Stop()
	log.Println("👋 stopped")
	return nil
}
