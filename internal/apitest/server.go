// Package apitest provides an in-memory implementation of the remote leads
// API for tests. It mirrors the REST contract the console consumes and lets
// tests inject failures and count requests.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gorilla/mux"

	"github.com/alfredjeanlab/leadconsole/internal/idgen"
	"github.com/alfredjeanlab/leadconsole/internal/model"
)

// Server is a fake leads API backed by in-memory state.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	leads    []model.Lead
	users    map[string]account // by email
	tokens   map[string]string  // token -> email
	failures map[string]failure // route name -> injected failure
	calls    map[string]int     // route name -> request count

	normalize func(model.Lead) model.Lead
	onRequest func(route string)
}

type account struct {
	user     model.User
	password string
}

type failure struct {
	status  int
	message string
}

// Route names accepted by Fail and Calls.
const (
	RouteList   = "list"
	RouteCreate = "create"
	RouteUpdate = "update"
	RouteDelete = "delete"
	RouteStats  = "stats"
	RouteLogin  = "login"
	RouteSignup = "signup"
)

// NewServer starts a fake API seeded with leads.
func NewServer(seed ...model.Lead) *Server {
	s := &Server{
		leads:    append([]model.Lead(nil), seed...),
		users:    map[string]account{},
		tokens:   map[string]string{},
		failures: map[string]failure{},
		calls:    map[string]int{},
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/leads/stats", s.wrap(RouteStats, s.handleStats)).Methods(http.MethodGet)
	api.HandleFunc("/leads", s.wrap(RouteList, s.handleList)).Methods(http.MethodGet)
	api.HandleFunc("/leads", s.wrap(RouteCreate, s.handleCreate)).Methods(http.MethodPost)
	api.HandleFunc("/leads/{id}", s.wrap(RouteUpdate, s.handleUpdate)).Methods(http.MethodPut)
	api.HandleFunc("/leads/{id}", s.wrap(RouteDelete, s.handleDelete)).Methods(http.MethodDelete)
	api.HandleFunc("/auth/login", s.wrap(RouteLogin, s.handleLogin)).Methods(http.MethodPost)
	api.HandleFunc("/auth/signup", s.wrap(RouteSignup, s.handleSignup)).Methods(http.MethodPost)

	s.Server = httptest.NewServer(r)
	return s
}

// Fail makes every subsequent request to route answer with status and an
// {"error": message} body until Recover is called.
func (s *Server) Fail(route string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, message: message}
}

// Recover clears an injected failure.
func (s *Server) Recover(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, route)
}

// SetNormalize installs a rewrite applied to leads before create or update
// stores them, standing in for server-side normalization.
func (s *Server) SetNormalize(fn func(model.Lead) model.Lead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.normalize = fn
}

// OnRequest installs a hook called at the start of every request, before the
// request is counted. Tests use it to park handlers and observe interleavings.
func (s *Server) OnRequest(fn func(route string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRequest = fn
}

// Calls returns how many requests reached route.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// TotalCalls returns the number of requests across all routes.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// Leads returns a copy of the server-side collection.
func (s *Server) Leads() []model.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Lead(nil), s.leads...)
}

// AddUser registers an account that can log in.
func (s *Server) AddUser(name, email, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, _ := idgen.RecordID()
	s.users[email] = account{user: model.User{ID: id, Name: name, Email: email}, password: password}
}

func (s *Server) wrap(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		hook := s.onRequest
		s.mu.Unlock()
		if hook != nil {
			hook(route)
		}
		s.mu.Lock()
		s.calls[route]++
		f, failing := s.failures[route]
		s.mu.Unlock()
		if failing {
			writeError(w, f.status, f.message)
			return
		}
		h(w, r)
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Leads())
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var lead model.Lead
	if err := json.NewDecoder(r.Body).Decode(&lead); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	id, err := idgen.RecordID()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	lead.ID = id

	s.mu.Lock()
	if s.normalize != nil {
		lead = s.normalize(lead)
	}
	s.leads = append(s.leads, lead)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, lead)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var lead model.Lead
	if err := json.NewDecoder(r.Body).Decode(&lead); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	lead.ID = id

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.normalize != nil {
		lead = s.normalize(lead)
	}
	for i := range s.leads {
		if s.leads[i].ID == id {
			s.leads[i] = lead
			writeJSON(w, http.StatusOK, lead)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Lead not found")
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.leads {
		if s.leads[i].ID == id {
			s.leads = append(s.leads[:i], s.leads[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Lead deleted"})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Lead not found")
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.Tally(s.Leads()))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.users[creds.Email]
	if !ok || acct.password != creds.Password {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	token, err := idgen.RecordID()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.tokens[token] = creds.Email
	user := acct.user
	writeJSON(w, http.StatusOK, model.LoginResponse{Token: token, User: &user})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[req.Email]; exists {
		writeError(w, http.StatusConflict, "User already exists")
		return
	}
	id, err := idgen.RecordID()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.users[req.Email] = account{user: model.User{ID: id, Name: req.Name, Email: req.Email}, password: req.Password}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "User created"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
