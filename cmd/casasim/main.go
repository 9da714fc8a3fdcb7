// casasim is an in-memory stand-in for the home-automation backend.
// It speaks the same HTTP surface the real server does, so the CLI and
// the API client can be developed and tested against it.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
)

const version = "1.0.0"

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	showVersion := flag.Bool("version", false, "Show version")
	flag.Parse()

	if *showVersion {
		fmt.Printf("casasim v%s\n", version)
		os.Exit(0)
	}

	log.SetFlags(log.Ltime | log.Ldate)

	state := newSimState()
	state.seed()

	log.Printf("🏠 casasim v%s listening on %s", version, *addr)
	log.Printf("✓ seeded users: admin/admin123 (ADMIN), usuario/user123 (USER)")
	log.Printf("✓ metrics on /metrics")

	if err := http.ListenAndServe(*addr, state.router()); err != nil {
		log.Fatalf("❌ server: %v", err)
	}
}
