package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/bcrypt"

	"casalink/internal/model"
)

// rfidWindow mirrors the real backend's 30-second registration window.
const rfidWindow = 30 * time.Second

type simUser struct {
	user model.User
	hash []byte
}

type simState struct {
	mu sync.Mutex

	users      map[string]*simUser
	nextUserID int64

	roomOrder []string
	rooms     map[string]*model.Room

	schedules      map[string][]model.Schedule
	nextScheduleID int64

	events      []model.Event
	nextEventID int64

	vacation bool

	rfidUser    string
	rfidExpires time.Time
}

func newSimState() *simState {
	return &simState{
		users:          make(map[string]*simUser),
		rooms:          make(map[string]*model.Room),
		schedules:      make(map[string][]model.Schedule),
		nextUserID:     1,
		nextScheduleID: 1,
		nextEventID:    1,
	}
}

func (s *simState) seed() {
	s.addUser("admin", "admin123", model.RoleAdmin)
	s.addUser("usuario", "user123", "USER")
	for _, name := range []string{"Salon", "Cocina", "Dormitorio"} {
		s.addRoom(name)
	}
}

func (s *simState) addUser(username, password, role string) *simUser {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("❌ hash password: %v", err)
	}
	u := &simUser{
		user: model.User{ID: s.nextUserID, Username: username, Role: role},
		hash: hash,
	}
	s.nextUserID++
	s.users[username] = u
	return u
}

func (s *simState) addRoom(name string) {
	s.rooms[name] = &model.Room{Name: name}
	s.roomOrder = append(s.roomOrder, name)
}

func (s *simState) appendEvent(eventType model.EventType, action, room, source string) {
	s.events = append(s.events, model.Event{
		ID:        s.nextEventID,
		EventType: eventType,
		Action:    action,
		RoomName:  room,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Source:    source,
	})
	s.nextEventID++
}

func (s *simState) router() *mux.Router {
	r := mux.NewRouter()
	r.Use(requestIDMiddleware, metricsMiddleware)

	r.HandleFunc("/hello", s.handleHello).Methods(http.MethodGet)

	r.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/auth/validate/{username}", s.handleValidate).Methods(http.MethodGet)
	r.HandleFunc("/auth/delete-user", s.handleDeleteUser).Methods(http.MethodPost)
	r.HandleFunc("/auth/rfid/register", s.handleRfidRegister).Methods(http.MethodPost)
	r.HandleFunc("/auth/rfid/cancel", s.handleRfidCancel).Methods(http.MethodPost)
	r.HandleFunc("/auth/rfid/{username}", s.handleRfidUID).Methods(http.MethodGet)

	r.HandleFunc("/rooms", s.handleListRooms).Methods(http.MethodGet)
	r.HandleFunc("/rooms", s.handleCreateRoom).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{name}", s.handleGetRoom).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{name}", s.handleDeleteRoom).Methods(http.MethodDelete)
	r.HandleFunc("/rooms/{name}/light", s.deviceHandler(model.DeviceLight)).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{name}/alarm", s.deviceHandler(model.DeviceAlarm)).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{name}/schedules", s.handleListSchedules).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{name}/schedules", s.handleCreateSchedule).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{name}/schedules/{id}", s.handleDeleteSchedule).Methods(http.MethodDelete)

	r.HandleFunc("/events/recent", s.handleRecentEvents).Methods(http.MethodGet)

	r.HandleFunc("/vacation-mode/activate", s.vacationHandler(true)).Methods(http.MethodPost)
	r.HandleFunc("/vacation-mode/deactivate", s.vacationHandler(false)).Methods(http.MethodPost)
	r.HandleFunc("/vacation-mode/status", s.handleVacationStatus).Methods(http.MethodGet)

	// simulation hooks: not part of the client contract, used to fake
	// the physical world during development
	r.HandleFunc("/simulate/rfid-scan", s.handleSimRfidScan).Methods(http.MethodPost)
	r.HandleFunc("/simulate/movement", s.handleSimMovement).Methods(http.MethodPost)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *simState) handleHello(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("casasim is online"))
}

func (s *simState) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, model.LoginResult{Success: false, Message: "Malformed request"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[creds.Username]
	s.appendEvent(model.EventLoginAttempt, "login attempt by "+creds.Username, "", "api")
	if !ok || bcrypt.CompareHashAndPassword(u.hash, []byte(creds.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, model.LoginResult{Success: false, Message: "Invalid credentials"})
		return
	}
	user := u.user
	writeJSON(w, http.StatusOK, model.LoginResult{Success: true, Message: "ok", User: &user})
}

func (s *simState) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, model.LoginResult{Success: false, Message: "username and password required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[req.Username]; exists {
		writeJSON(w, http.StatusBadRequest, model.LoginResult{Success: false, Message: "user already exists"})
		return
	}
	role := req.Role
	if role == "" {
		role = "USER"
	}
	u := s.addUser(req.Username, req.Password, role)
	user := u.user
	writeJSON(w, http.StatusOK, model.LoginResult{Success: true, Message: "ok", User: &user})
}

func (s *simState) handleValidate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[mux.Vars(r)["username"]]
	writeJSON(w, http.StatusOK, map[string]bool{"isAdmin": ok && u.user.IsAdmin()})
}

func (s *simState) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UsernameToDelete string `json:"usernameToDelete"`
		AdminUsername    string `json:"adminUsername"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	admin, ok := s.users[req.AdminUsername]
	if !ok || !admin.user.IsAdmin() {
		writeJSON(w, http.StatusForbidden, map[string]any{"success": false, "message": "admin required"})
		return
	}
	if _, ok := s.users[req.UsernameToDelete]; !ok {
		// the real backend answers 500 for an unknown user
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": "user not found"})
		return
	}
	delete(s.users, req.UsernameToDelete)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *simState) handleRfidUID(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[mux.Vars(r)["username"]]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "rfidUid": u.user.RfidUID})
}

func (s *simState) handleRfidRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "username required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[req.Username]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false})
		return
	}
	s.rfidUser = req.Username
	s.rfidExpires = time.Now().Add(rfidWindow)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *simState) handleRfidCancel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "username required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.rfidUser = ""
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *simState) handleSimRfidScan(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("uid")
	if uid == "" {
		http.Error(w, "uid required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rfidUser == "" || time.Now().After(s.rfidExpires) {
		http.Error(w, "no registration window open", http.StatusConflict)
		return
	}
	u := s.users[s.rfidUser]
	u.user.RfidUID = uid
	s.appendEvent(model.EventSystemAction, "rfid card bound to "+s.rfidUser, "", "rfid-reader")
	s.rfidUser = ""
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *simState) handleSimMovement(w http.ResponseWriter, r *http.Request) {
	roomName := r.URL.Query().Get("room")

	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomName]
	if !ok {
		http.Error(w, "unknown room", http.StatusNotFound)
		return
	}
	room.DetectOn = true
	s.appendEvent(model.EventMovementDetected, "movement detected", roomName, "sensor")
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *simState) handleListRooms(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]model.Room, 0, len(s.roomOrder))
	for _, name := range s.roomOrder {
		list = append(list, *s.rooms[name])
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *simState) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[mux.Vars(r)["name"]]
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, *room)
}

func (s *simState) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("roomName")
	username := r.URL.Query().Get("username")
	if name == "" || username == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rooms[name]; exists {
		writeJSON(w, http.StatusOK, map[string]any{"success": false})
		return
	}
	s.addRoom(name)
	s.appendEvent(model.EventUserAction, "room created by "+username, name, "api")
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *simState) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[name]; !ok {
		http.NotFound(w, r)
		return
	}
	delete(s.rooms, name)
	delete(s.schedules, name)
	for i, n := range s.roomOrder {
		if n == name {
			s.roomOrder = append(s.roomOrder[:i], s.roomOrder[i+1:]...)
			break
		}
	}
	s.appendEvent(model.EventUserAction, "room deleted by "+r.URL.Query().Get("username"), name, "api")
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *simState) deviceHandler(device string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		state, err := strconv.ParseBool(r.URL.Query().Get("state"))
		if err != nil {
			http.Error(w, "state must be true or false", http.StatusBadRequest)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		room, ok := s.rooms[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		// the real backend queues the command for IoT delivery and
		// answers PENDING before actuation; the sim applies it at once
		if device == model.DeviceLight {
			room.LightOn = state
		} else {
			room.DetectOn = state
		}
		s.appendEvent(model.EventUserAction,
			fmt.Sprintf("%s set to %t", device, state), name, "api")
		commandsTotal.WithLabelValues(device).Inc()
		writeJSON(w, http.StatusOK, map[string]string{"status": "PENDING"})
	}
}

func (s *simState) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[name]; !ok {
		http.NotFound(w, r)
		return
	}
	list := s.schedules[name]
	if list == nil {
		list = []model.Schedule{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *simState) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	q := r.URL.Query()
	state, _ := strconv.ParseBool(q.Get("state"))

	schedule := model.Schedule{
		Name:      q.Get("name"),
		Type:      q.Get("type"),
		State:     state,
		Time:      q.Get("time"),
		StartTime: q.Get("startTime"),
		EndTime:   q.Get("endTime"),
	}
	if err := schedule.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[name]; !ok {
		http.NotFound(w, r)
		return
	}
	schedule.ID = s.nextScheduleID
	s.nextScheduleID++
	s.schedules[name] = append(s.schedules[name], schedule)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": schedule.ID})
}

func (s *simState) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "bad schedule id", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.schedules[vars["name"]]
	for i, schedule := range list {
		if schedule.ID == id {
			s.schedules[vars["name"]] = append(list[:i], list[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
			return
		}
	}
	http.NotFound(w, r)
}

func (s *simState) handleRecentEvents(w http.ResponseWriter, r *http.Request) {
	hours, err := strconv.Atoi(r.URL.Query().Get("hours"))
	if err != nil || hours <= 0 {
		http.Error(w, "hours must be a positive integer", http.StatusBadRequest)
		return
	}
	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)

	s.mu.Lock()
	defer s.mu.Unlock()

	// most recent first
	list := []model.Event{}
	for i := len(s.events) - 1; i >= 0; i-- {
		e := s.events[i]
		if ts, err := time.Parse(time.RFC3339, e.Timestamp); err == nil && ts.Before(cutoff) {
			continue
		}
		list = append(list, e)
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *simState) vacationHandler(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.vacation = active
		s.appendEvent(model.EventSystemAction,
			fmt.Sprintf("vacation mode set to %t", active), "", "api")
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func (s *simState) handleVacationStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]bool{"active": s.vacation})
}
