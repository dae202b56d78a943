// Package fakeapi is an in-memory stand-in for the news backend. It is meant
// for tests only and speaks the same REST dialect as the real one: DRF-style
// errors, trailing slashes and bearer tokens.
package fakeapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/and161185/newsboard/internal/model"
)

// Call is one recorded request.
type Call struct {
	Method string
	Path   string
	Auth   string
	Body   string
}

// Server is a fake backend. Seed the exported fields before issuing requests.
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	users         map[int64]*model.User
	passwords     map[string]string
	access        map[string]int64
	refresh       map[string]int64
	News          []model.News
	Programmes    []model.Programme
	Notifications []model.Notification
	calls         []Call
	nextID        int64
	seq           int

	// Paginate wraps collections in {"results": [...]}.
	Paginate bool
	// FailMe makes users/me/ answer 500.
	FailMe bool
}

// Cleaner registers teardown; *testing.T satisfies it.
type Cleaner interface {
	Cleanup(func())
}

// New starts a fake backend that is shut down with t.
func New(t Cleaner) *Server {
	s := &Server{
		users:     map[int64]*model.User{},
		passwords: map[string]string{},
		access:    map[string]int64{},
		refresh:   map[string]int64{},
		nextID:    100,
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the API root to hand to apiclient.New.
func (s *Server) BaseURL() string { return s.URL + "/api/" }

// AddUser registers a user with a password and returns it with its id set.
func (s *Server) AddUser(u model.User, password string) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.id()
	}
	cp := u
	s.users[u.ID] = &cp
	s.passwords[u.Username] = password
	return u
}

// User returns the backend copy of a user.
func (s *Server) User(id int64) (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, false
	}
	return *u, true
}

// SetRole changes a user's role directly on the backend.
func (s *Server) SetRole(id int64, r model.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id].Role = r
}

// IssueTokens mints a token pair for a user.
func (s *Server) IssueTokens(id int64) model.TokenPair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issue(id)
}

// ExpireAccess makes an access token invalid, as if it had expired.
func (s *Server) ExpireAccess(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.access, token)
}

// RevokeRefresh makes a refresh token invalid.
func (s *Server) RevokeRefresh(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.refresh, token)
}

// Calls returns the recorded requests.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

// Count returns how many requests matched method and path.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

// Reset forgets recorded calls.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// NewsByID returns the backend copy of a news item.
func (s *Server) NewsByID(id int64) (model.News, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.News {
		if n.ID == id {
			return n, true
		}
	}
	return model.News{}, false
}

func (s *Server) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Server) issue(id int64) model.TokenPair {
	s.seq++
	tp := model.TokenPair{
		Access:  fmt.Sprintf("access-%d-%d", id, s.seq),
		Refresh: fmt.Sprintf("refresh-%d-%d", id, s.seq),
	}
	s.access[tp.Access] = id
	s.refresh[tp.Refresh] = id
	return tp
}

// --- http ---

type handler func(w http.ResponseWriter, r *http.Request, me *model.User)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	pub := func(pattern string, h handler) { mux.HandleFunc(pattern, s.wrap(h, false)) }
	auth := func(pattern string, h handler) { mux.HandleFunc(pattern, s.wrap(h, true)) }

	pub("POST /api/token/{$}", s.token)
	pub("POST /api/token/refresh/{$}", s.tokenRefresh)
	pub("POST /api/users/{$}", s.createUser)
	pub("GET /api/programmes/{$}", s.listProgrammes)

	auth("GET /api/users/me/{$}", s.me)
	auth("PATCH /api/users/me/{$}", s.patchMe)
	auth("GET /api/check-role/{$}", s.checkRole)
	auth("GET /api/users/{$}", s.listUsers)
	auth("PATCH /api/users/{id}/{$}", s.patchUser)
	auth("DELETE /api/users/{id}/{$}", s.deleteUser)
	auth("POST /api/users/{id}/assign-role/{$}", s.assignRole)
	auth("GET /api/news/{$}", s.listNews)
	auth("POST /api/news/{$}", s.createNews)
	auth("PATCH /api/news/{id}/{$}", s.patchNews)
	auth("DELETE /api/news/{id}/{$}", s.deleteNews)
	auth("POST /api/news/{id}/{action}/{$}", s.moderate)
	auth("POST /api/programmes/{$}", s.createProgramme)
	auth("PATCH /api/programmes/{id}/{$}", s.patchProgramme)
	auth("DELETE /api/programmes/{id}/{$}", s.deleteProgramme)
	auth("GET /api/notifications/{$}", s.listNotifications)
	auth("PATCH /api/notifications/{id}/{$}", s.patchNotification)
	return mux
}

func (s *Server) wrap(h handler, needAuth bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		defer s.mu.Unlock()
		s.calls = append(s.calls, Call{Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get("Authorization"), Body: string(body)})
		r.Body = io.NopCloser(bytes.NewReader(body))

		var me *model.User
		if tok, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
			if id, ok := s.access[tok]; ok {
				me = s.users[id]
			}
		}
		if needAuth && me == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Given token not valid for any token type"})
			return
		}
		h(w, r, me)
	}
}

func (s *Server) token(w http.ResponseWriter, r *http.Request, _ *model.User) {
	var in struct{ Username, Password string }
	_ = json.NewDecoder(r.Body).Decode(&in)
	pw, ok := s.passwords[in.Username]
	if !ok || pw != in.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "No active account found with the given credentials"})
		return
	}
	for id, u := range s.users {
		if u.Username == in.Username {
			writeJSON(w, http.StatusOK, s.issue(id))
			return
		}
	}
	writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "No active account found with the given credentials"})
}

func (s *Server) tokenRefresh(w http.ResponseWriter, r *http.Request, _ *model.User) {
	var in struct{ Refresh string }
	_ = json.NewDecoder(r.Body).Decode(&in)
	id, ok := s.refresh[in.Refresh]
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired"})
		return
	}
	s.seq++
	access := fmt.Sprintf("access-%d-%d", id, s.seq)
	s.access[access] = id
	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}

func (s *Server) me(w http.ResponseWriter, _ *http.Request, me *model.User) {
	if s.FailMe {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "boom"})
		return
	}
	writeJSON(w, http.StatusOK, me)
}

func (s *Server) patchMe(w http.ResponseWriter, r *http.Request, me *model.User) {
	var upd model.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	if upd.NotificationFrequency != nil {
		if !upd.NotificationFrequency.Valid() {
			writeJSON(w, http.StatusBadRequest, map[string][]string{"notification_frequency": {"Not a valid choice."}})
			return
		}
		me.NotificationFrequency = *upd.NotificationFrequency
	}
	applyUpdate(me, upd)
	writeJSON(w, http.StatusOK, me)
}

func (s *Server) checkRole(w http.ResponseWriter, _ *http.Request, me *model.User) {
	target := map[model.Role]string{
		model.RoleAdmin:     "/admin",
		model.RoleModerator: "/moderation",
		model.RolePublisher: "/myposts",
		model.RoleStudent:   "/",
	}[me.Role]
	if target == "" {
		target = "/inviter"
	}
	writeJSON(w, http.StatusOK, model.CheckRole{Redirect: target})
}

func (s *Server) listUsers(w http.ResponseWriter, _ *http.Request, me *model.User) {
	if me.Role != model.RoleAdmin {
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "You do not have permission to perform this action."})
		return
	}
	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	slices.SortFunc(out, func(a, b model.User) int { return int(a.ID - b.ID) })
	s.writeList(w, out)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request, _ *model.User) {
	var in model.RegisterInput
	_ = json.NewDecoder(r.Body).Decode(&in)
	if _, taken := s.passwords[in.Username]; taken {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"username": {"A user with that username already exists."}})
		return
	}
	u := &model.User{
		ID: s.id(), Username: in.Username, Email: in.Email,
		FirstName: in.FirstName, LastName: in.LastName,
		NotificationFrequency: in.NotificationFrequency,
	}
	if in.Programme != nil {
		u.Programme = model.ProgrammeRef{ID: *in.Programme}
	}
	s.users[u.ID] = u
	s.passwords[u.Username] = in.Password
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) patchUser(w http.ResponseWriter, r *http.Request, _ *model.User) {
	u, ok := s.users[pathID(r)]
	if !ok {
		notFound(w)
		return
	}
	var upd model.UserUpdate
	_ = json.NewDecoder(r.Body).Decode(&upd)
	applyUpdate(u, upd)
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request, _ *model.User) {
	id := pathID(r)
	u, ok := s.users[id]
	if !ok {
		notFound(w)
		return
	}
	delete(s.passwords, u.Username)
	delete(s.users, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) assignRole(w http.ResponseWriter, r *http.Request, me *model.User) {
	if me.Role != model.RoleAdmin {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "Only admins can assign roles"})
		return
	}
	u, ok := s.users[pathID(r)]
	if !ok {
		notFound(w)
		return
	}
	var in struct{ Role model.Role }
	_ = json.NewDecoder(r.Body).Decode(&in)
	if !in.Role.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid role"})
		return
	}
	u.Role = in.Role
	writeJSON(w, http.StatusOK, map[string]string{"success": fmt.Sprintf("Role %s assigned to %s", in.Role, u.Username)})
}

func (s *Server) listNews(w http.ResponseWriter, _ *http.Request, _ *model.User) {
	s.writeList(w, s.News)
}

func (s *Server) createNews(w http.ResponseWriter, r *http.Request, me *model.User) {
	var in model.NewsInput
	_ = json.NewDecoder(r.Body).Decode(&in)
	if in.Titre == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"titre": {"This field is required."}})
		return
	}
	n := model.News{
		ID: s.id(), Titre: in.Titre, Contenu: in.Contenu, Importance: in.Importance,
		Statut: model.StatutPending, Programme: model.ProgrammeRef{ID: in.Programme},
		Auteur: &model.Author{ID: me.ID, Username: me.Username},
	}
	if in.DateSouhaiteePublication != nil {
		n.DateSouhaiteePublication = *in.DateSouhaiteePublication
	}
	s.News = append(s.News, n)
	writeJSON(w, http.StatusCreated, n)
}

func (s *Server) patchNews(w http.ResponseWriter, r *http.Request, _ *model.User) {
	i := s.newsIndex(pathID(r))
	if i < 0 {
		notFound(w)
		return
	}
	var in model.NewsInput
	_ = json.NewDecoder(r.Body).Decode(&in)
	n := &s.News[i]
	n.Titre, n.Contenu, n.Importance = in.Titre, in.Contenu, in.Importance
	n.Programme = model.ProgrammeRef{ID: in.Programme}
	if in.Statut != "" {
		n.Statut = in.Statut
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) deleteNews(w http.ResponseWriter, r *http.Request, _ *model.User) {
	i := s.newsIndex(pathID(r))
	if i < 0 {
		notFound(w)
		return
	}
	s.News = slices.Delete(s.News, i, i+1)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) moderate(w http.ResponseWriter, r *http.Request, me *model.User) {
	if me.Role != model.RoleModerator && me.Role != model.RoleAdmin {
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "You do not have permission to perform this action."})
		return
	}
	i := s.newsIndex(pathID(r))
	if i < 0 {
		notFound(w)
		return
	}
	switch r.PathValue("action") {
	case "approve":
		s.News[i].Statut = model.StatutApproved
		s.News[i].ModereParNom = me.Username
	case "reject":
		s.News[i].Statut = model.StatutRejected
		s.News[i].ModereParNom = me.Username
	default:
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(s.News[i].Statut)})
}

func (s *Server) listProgrammes(w http.ResponseWriter, _ *http.Request, _ *model.User) {
	s.writeList(w, s.Programmes)
}

func (s *Server) createProgramme(w http.ResponseWriter, r *http.Request, _ *model.User) {
	var p model.Programme
	_ = json.NewDecoder(r.Body).Decode(&p)
	p.ID = s.id()
	s.Programmes = append(s.Programmes, p)
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) patchProgramme(w http.ResponseWriter, r *http.Request, _ *model.User) {
	id := pathID(r)
	for i := range s.Programmes {
		if s.Programmes[i].ID == id {
			var p model.Programme
			_ = json.NewDecoder(r.Body).Decode(&p)
			p.ID = id
			s.Programmes[i] = p
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	notFound(w)
}

func (s *Server) deleteProgramme(w http.ResponseWriter, r *http.Request, _ *model.User) {
	id := pathID(r)
	i := slices.IndexFunc(s.Programmes, func(p model.Programme) bool { return p.ID == id })
	if i < 0 {
		notFound(w)
		return
	}
	s.Programmes = slices.Delete(s.Programmes, i, i+1)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listNotifications(w http.ResponseWriter, _ *http.Request, _ *model.User) {
	s.writeList(w, s.Notifications)
}

func (s *Server) patchNotification(w http.ResponseWriter, r *http.Request, _ *model.User) {
	id := pathID(r)
	for i := range s.Notifications {
		if s.Notifications[i].ID == id {
			var in struct{ Lue bool }
			_ = json.NewDecoder(r.Body).Decode(&in)
			s.Notifications[i].Lue = in.Lue
			writeJSON(w, http.StatusOK, s.Notifications[i])
			return
		}
	}
	notFound(w)
}

func (s *Server) newsIndex(id int64) int {
	return slices.IndexFunc(s.News, func(n model.News) bool { return n.ID == id })
}

func (s *Server) writeList(w http.ResponseWriter, v any) {
	if s.Paginate {
		writeJSON(w, http.StatusOK, map[string]any{"count": -1, "results": v})
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func applyUpdate(u *model.User, upd model.UserUpdate) {
	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.Programme != nil {
		u.Programme = model.ProgrammeRef{ID: *upd.Programme}
	}
	if upd.NotificationFrequency != nil {
		u.NotificationFrequency = *upd.NotificationFrequency
	}
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
