// Package session tracks which user each browser session is logged in as
// and which live connections belong to each session.
//
// A session is bound to at most one user; a user may have many sessions.
// Each session may hold several connections (one per tab). The forward
// (session -> user) and reverse (user -> sessions) maps live in one Registry
// so they cannot drift apart.
//
// Registry is not safe for concurrent use. It is owned by the backend loop.
package session

import (
	"encoding/json"
	"sort"

	"github.com/forgo/gather/internal/model"
)

type entry struct {
	user        model.UserID
	bound       bool
	connections map[model.ConnectionID]struct{}
}

// Registry maps sessions to users and sessions to connections
type Registry struct {
	sessions map[model.SessionID]*entry
	byUser   map[model.UserID]map[model.SessionID]struct{}
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[model.SessionID]*entry),
		byUser:   make(map[model.UserID]map[model.SessionID]struct{}),
	}
}

func (r *Registry) session(id model.SessionID) *entry {
	e, ok := r.sessions[id]
	if !ok {
		e = &entry{connections: make(map[model.ConnectionID]struct{})}
		r.sessions[id] = e
	}
	return e
}

// prune forgets a session with neither a binding nor a connection
func (r *Registry) prune(id model.SessionID) {
	if e, ok := r.sessions[id]; ok && !e.bound && len(e.connections) == 0 {
		delete(r.sessions, id)
	}
}

// Bind logs the session in as userID, replacing any previous binding
func (r *Registry) Bind(sessionID model.SessionID, userID model.UserID) {
	r.Unbind(sessionID)

	e := r.session(sessionID)
	e.user = userID
	e.bound = true

	sessions, ok := r.byUser[userID]
	if !ok {
		sessions = make(map[model.SessionID]struct{})
		r.byUser[userID] = sessions
	}
	sessions[sessionID] = struct{}{}
}

// Unbind logs the session out. It returns the user that was bound, if any.
// The session's connections are kept.
func (r *Registry) Unbind(sessionID model.SessionID) (model.UserID, bool) {
	e, ok := r.sessions[sessionID]
	if !ok || !e.bound {
		return "", false
	}
	userID := e.user
	e.user = ""
	e.bound = false

	if sessions, ok := r.byUser[userID]; ok {
		delete(sessions, sessionID)
		if len(sessions) == 0 {
			delete(r.byUser, userID)
		}
	}
	r.prune(sessionID)
	return userID, true
}

// UnbindUser logs out every session of userID and returns them
func (r *Registry) UnbindUser(userID model.UserID) []model.SessionID {
	sessions := r.SessionsForUser(userID)
	for _, id := range sessions {
		r.Unbind(id)
	}
	return sessions
}

// AddConnection attaches a live connection to the session
func (r *Registry) AddConnection(sessionID model.SessionID, connectionID model.ConnectionID) {
	r.session(sessionID).connections[connectionID] = struct{}{}
}

// RemoveConnection detaches a connection. The session binding survives so
// the user stays logged in across reconnects.
func (r *Registry) RemoveConnection(sessionID model.SessionID, connectionID model.ConnectionID) {
	e, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	delete(e.connections, connectionID)
	r.prune(sessionID)
}

// LookupUser returns the user the session is logged in as
func (r *Registry) LookupUser(sessionID model.SessionID) (model.UserID, bool) {
	e, ok := r.sessions[sessionID]
	if !ok || !e.bound {
		return "", false
	}
	return e.user, true
}

// SessionsForUser returns every session bound to userID, sorted
func (r *Registry) SessionsForUser(userID model.UserID) []model.SessionID {
	sessions := r.byUser[userID]
	out := make([]model.SessionID, 0, len(sessions))
	for id := range sessions {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ConnectionsForSession returns the live connections of a session, sorted
func (r *Registry) ConnectionsForSession(sessionID model.SessionID) []model.ConnectionID {
	e, ok := r.sessions[sessionID]
	if !ok {
		return nil
	}
	return sortedConnections(e.connections)
}

// ConnectionsForUser returns every live connection across every session
// bound to userID, sorted
func (r *Registry) ConnectionsForUser(userID model.UserID) []model.ConnectionID {
	all := make(map[model.ConnectionID]struct{})
	for sessionID := range r.byUser[userID] {
		for c := range r.sessions[sessionID].connections {
			all[c] = struct{}{}
		}
	}
	return sortedConnections(all)
}

func sortedConnections(set map[model.ConnectionID]struct{}) []model.ConnectionID {
	out := make([]model.ConnectionID, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Bindings returns a copy of the session -> user map
func (r *Registry) Bindings() map[model.SessionID]model.UserID {
	out := make(map[model.SessionID]model.UserID, len(r.sessions))
	for id, e := range r.sessions {
		if e.bound {
			out[id] = e.user
		}
	}
	return out
}

// MarshalJSON persists the bindings only; connections never outlive the
// process that accepted them.
func (r *Registry) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Bindings())
}

// UnmarshalJSON restores bindings written by MarshalJSON
func (r *Registry) UnmarshalJSON(data []byte) error {
	var bindings map[model.SessionID]model.UserID
	if err := json.Unmarshal(data, &bindings); err != nil {
		return err
	}
	*r = *NewRegistry()
	for s, u := range bindings {
		r.Bind(s, u)
	}
	return nil
}
