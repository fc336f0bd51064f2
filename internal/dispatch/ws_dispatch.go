package dispatch

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
)

// WSSession is one connected operator console.
type WSSession struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *WSSession) Send(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

// WSRegistry holds operator console sessions.
type WSRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*WSSession
}

func NewWSRegistry() *WSRegistry { return &WSRegistry{sessions: make(map[string]*WSSession)} }

// Add registers conn under id, closing any console it replaces. The
// returned session is what the caller later hands to Drop.
func (r *WSRegistry) Add(id string, conn *websocket.Conn) *WSSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.sessions[id]; ok {
		_ = old.conn.Close()
	}
	s := &WSSession{conn: conn}
	r.sessions[id] = s
	return s
}

// Drop closes s and unregisters it only if it is still the session for id,
// so a stale connection never evicts the console that replaced it.
func (r *WSRegistry) Drop(id string, s *WSSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = s.conn.Close()
	if cur, ok := r.sessions[id]; ok && cur == s {
		delete(r.sessions, id)
	}
}

func (r *WSRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Send writes to a single console.
func (r *WSRegistry) Send(id string, v any) error {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return ErrNoSession
	}
	return s.Send(v)
}

// Broadcast writes v to every console; sessions that fail are dropped.
func (r *WSRegistry) Broadcast(v any) error {
	r.mu.RLock()
	targets := make(map[string]*WSSession, len(r.sessions))
	for id, s := range r.sessions {
		targets[id] = s
	}
	r.mu.RUnlock()

	var errs []error
	for id, s := range targets {
		if err := s.Send(v); err != nil {
			errs = append(errs, err)
			r.Drop(id, s)
		}
	}
	return errors.Join(errs...)
}

var ErrNoSession = &NoSessionError{}

type NoSessionError struct{}

func (n *NoSessionError) Error() string { return "no ws session" }
