package session

import (
	"errors"
	"sync"
	"time"
)

// MinUserIDLength is the minimum accepted length for a client-chosen user id.
const MinUserIDLength = 5

// ErrInvalidIdentity is returned when an identify request is missing
// required fields.
var ErrInvalidIdentity = errors.New("invalid identity")

// Session is a live logical user bound to exactly one transport connection.
type Session struct {
	UserID       string
	Name         string
	Color        string
	ConnectionID string
	LastSeen     time.Time
}

// Peer is the identity subset shared with other clients.
type Peer struct {
	Name  string
	Color string
}

// IdentifyResult reports the side effects of a successful identify.
type IdentifyResult struct {
	// EvictedConnectionID is the connection a reconnecting user previously
	// held; the transport must force-close it. Empty when no takeover
	// happened.
	EvictedConnectionID string
}

// Registry maps logical user ids to live transport connections.
//
// Invariant: connectionID <-> userID is bijective over live sessions, and at
// most one session exists per user id.
type Registry struct {
	mu    sync.Mutex
	users map[string]*Session
	conns map[string]string
	now   func() time.Time
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{
		users: make(map[string]*Session),
		conns: make(map[string]string),
		now:   time.Now,
	}
}

// Identify binds connID to the given user, replacing any previous binding.
//
// If the user is already live on another connection, that connection's
// mapping is removed and its id returned for forced disconnect. If connID
// was previously bound to a different user, the stale session is removed.
func (r *Registry) Identify(connID, userID, name, color string) (IdentifyResult, error) {
	if connID == "" || len(userID) < MinUserIDLength || name == "" || color == "" {
		return IdentifyResult{}, ErrInvalidIdentity
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var res IdentifyResult
	if old, ok := r.users[userID]; ok && old.ConnectionID != connID {
		// Takeover: unbind the old connection first so its eventual
		// disconnect finds nothing to remove.
		delete(r.conns, old.ConnectionID)
		res.EvictedConnectionID = old.ConnectionID
	}
	if prevUID, ok := r.conns[connID]; ok && prevUID != userID {
		if stale, ok := r.users[prevUID]; ok && stale.ConnectionID == connID {
			delete(r.users, prevUID)
		}
	}

	r.users[userID] = &Session{
		UserID:       userID,
		Name:         name,
		Color:        color,
		ConnectionID: connID,
		LastSeen:     r.now(),
	}
	r.conns[connID] = userID
	return res, nil
}

// Disconnect removes the session owned by connID.
//
// The session is deleted only when it still belongs to the departing
// connection; after a takeover the newer binding is left untouched. The
// returned flag reports whether a userLeft should be broadcast.
func (r *Registry) Disconnect(connID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.conns[connID]
	if !ok {
		return "", false
	}
	delete(r.conns, connID)

	if s, ok := r.users[userID]; ok && s.ConnectionID == connID {
		delete(r.users, userID)
		return userID, true
	}
	return userID, false
}

// Resolve returns the user id bound to connID, if any.
func (r *Registry) Resolve(connID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	userID, ok := r.conns[connID]
	return userID, ok
}

// Get returns a copy of the live session for userID.
func (r *Registry) Get(userID string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.users[userID]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// ListOthers returns identity info for every live user except excludeUserID.
func (r *Registry) ListOthers(excludeUserID string) map[string]Peer {
	r.mu.Lock()
	defer r.mu.Unlock()

	others := make(map[string]Peer, len(r.users))
	for id, s := range r.users {
		if id == excludeUserID {
			continue
		}
		others[id] = Peer{Name: s.Name, Color: s.Color}
	}
	return others
}

// Touch refreshes the lastSeen timestamp for the session bound to connID.
func (r *Registry) Touch(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if userID, ok := r.conns[connID]; ok {
		if s, ok := r.users[userID]; ok {
			s.LastSeen = r.now()
		}
	}
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}
