package store

const (
	vacationCategory = "vacation"
	vacationKey      = "active"
)

// VacationStore caches the server-side vacation-mode flag locally.
// The API client is the source of truth; callers refresh this cache
// after every successful poll or toggle, always overwriting.
type VacationStore struct {
	db *DB
}

func NewVacationStore(db *DB) *VacationStore {
	return &VacationStore{db: db}
}

func (s *VacationStore) Set(active bool) error {
	value := "false"
	if active {
		value = "true"
	}
	return s.db.set(vacationCategory, vacationKey, value)
}

// Get returns the cached flag, false by default.
func (s *VacationStore) Get() bool {
	value, ok := s.db.get(vacationCategory, vacationKey)
	return ok && value == "true"
}

func (s *VacationStore) Clear() error {
	return s.db.clear(vacationCategory)
}
