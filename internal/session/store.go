package session

import (
	"sync"
	"time"

	"github.com/example/ride-booking-bot/internal/models"
)

// Data is the booking form accumulated across turns. Fields are only ever
// set or overwritten; the whole value is dropped on Clear.
type Data struct {
	Origin      *models.Place
	Destination *models.Place
	VehicleType models.VehicleType
	Route       *models.Route
	Price       *models.Price

	// set only while a CONFIRMING_* state is waiting for a selection
	LocationOptions []models.Candidate
	SearchQuery     string
}

type Session struct {
	State     State
	Data      Data
	UpdatedAt time.Time
}

// Store keeps one Session per requester identity in memory.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]Session
	idleTTL  time.Duration
	now      func() time.Time
}

// NewStore creates a store. idleTTL <= 0 disables idle expiry.
func NewStore(idleTTL time.Duration, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{sessions: make(map[string]Session), idleTTL: idleTTL, now: now}
}

// Get returns the identity's session, or a fresh IDLE one. Nothing is
// written for identities that were never Set.
func (s *Store) Get(id string) Session {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok || s.expired(sess) {
		return Session{State: Idle}
	}
	return sess
}

// Set stores the state and data for an identity.
func (s *Store) Set(id string, state State, data Data) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = Session{State: state, Data: data, UpdatedAt: s.now()}
}

func (s *Store) Clear(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Active counts sessions that are not expired.
func (s *Store) Active() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, sess := range s.sessions {
		if !s.expired(sess) {
			n++
		}
	}
	return n
}

// Sweep drops idle-expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	if s.idleTTL <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *Store) expired(sess Session) bool {
	return s.idleTTL > 0 && s.now().Sub(sess.UpdatedAt) > s.idleTTL
}
