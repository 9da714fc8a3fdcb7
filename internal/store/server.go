package store

import (
	"net"
	"strings"
)

// DefaultAddress is used until the user configures a backend.
const DefaultAddress = "http://192.168.1.1:8080"

const (
	serverCategory = "server"
	serverKey      = "address"
)

// ServerStore persists the backend base address chosen by the user.
// It never validates reachability; the caller probes before saving.
type ServerStore struct {
	db *DB
}

func NewServerStore(db *DB) *ServerStore {
	return &ServerStore{db: db}
}

// Get returns the persisted address, or DefaultAddress if none was
// ever saved.
func (s *ServerStore) Get() string {
	if addr, ok := s.db.get(serverCategory, serverKey); ok {
		return addr
	}
	return DefaultAddress
}

// Set normalizes raw and persists it immediately.
func (s *ServerStore) Set(raw string) error {
	return s.db.set(serverCategory, serverKey, Normalize(raw))
}

// HasCustom reports whether the user ever configured an address,
// as opposed to running on the default.
func (s *ServerStore) HasCustom() bool {
	return s.db.has(serverCategory)
}

// Clear drops the configured address, falling back to the default.
func (s *ServerStore) Clear() error {
	return s.db.clear(serverCategory)
}

// Normalize turns user input into a scheme://host:port base address.
// A bare host gets http:// prefixed and, if it carries no port, :8080
// appended. Input that already names a scheme is kept as typed.
func Normalize(raw string) string {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	if _, _, err := net.SplitHostPort(raw); err == nil {
		return "http://" + raw
	}
	return "http://" + raw + ":8080"
}
