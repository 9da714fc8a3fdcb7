package store

import (
	"strconv"

	"casalink/internal/model"
)

const sessionCategory = "session"

const (
	keyUserID     = "user_id"
	keyUsername   = "username"
	keyRole       = "role"
	keyRfidUID    = "rfid_uid"
	keyIsLoggedIn = "is_logged_in"
)

// SessionStore persists the signed-in identity. Get returns a fully
// populated user only while IsLoggedIn is true; logout clears the
// whole category, never leaving a partial record behind.
type SessionStore struct {
	db *DB
}

func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

// Save records the user and flips the logged-in flag on.
func (s *SessionStore) Save(user model.User) error {
	fields := map[string]string{
		keyUserID:     strconv.FormatInt(user.ID, 10),
		keyUsername:   user.Username,
		keyRole:       user.Role,
		keyRfidUID:    user.RfidUID,
		keyIsLoggedIn: "true",
	}
	for key, value := range fields {
		if err := s.db.set(sessionCategory, key, value); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the current session, or ok=false when logged out.
func (s *SessionStore) Get() (model.User, bool) {
	if !s.IsLoggedIn() {
		return model.User{}, false
	}
	idRaw, _ := s.db.get(sessionCategory, keyUserID)
	id, err := strconv.ParseInt(idRaw, 10, 64)
	if err != nil {
		id = -1
	}
	username, _ := s.db.get(sessionCategory, keyUsername)
	role, _ := s.db.get(sessionCategory, keyRole)
	rfidUID, _ := s.db.get(sessionCategory, keyRfidUID)
	return model.User{
		ID:       id,
		Username: username,
		Role:     role,
		RfidUID:  rfidUID,
	}, true
}

func (s *SessionStore) IsLoggedIn() bool {
	flag, ok := s.db.get(sessionCategory, keyIsLoggedIn)
	return ok && flag == "true"
}

// IsAdmin is false whenever the store is logged out.
func (s *SessionStore) IsAdmin() bool {
	user, ok := s.Get()
	return ok && user.IsAdmin()
}

// Clear destroys the session entirely.
func (s *SessionStore) Clear() error {
	return s.db.clear(sessionCategory)
}
