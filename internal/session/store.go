// Package session holds the in-memory session store.
//
// Sessions are deliberately ephemeral: a process restart drops every join
// flag, so clients must rejoin event chats after a redeploy.
package session

import (
	"sync"
	"time"

	"knowhere/internal/models"

	"github.com/google/uuid"
)

// Store keeps sessions in memory with TTL-based eviction.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	ttl      time.Duration
	now      func() time.Time
}

type entry struct {
	session  *models.Session
	lastSeen time.Time
}

// NewStore returns a store whose sessions expire after ttl of inactivity.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Store{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create registers a new session with the given role and username.
func (s *Store) Create(role models.Role, username string) *models.Session {
	session := &models.Session{
		ID:        uuid.New().String(),
		Role:      role,
		Username:  username,
		Joined:    make(map[int64]bool),
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = &entry{session: session, lastSeen: s.now()}
	return session
}

// Get returns the session by ID, refreshing its TTL. Expired sessions are
// evicted and reported as missing.
func (s *Store) Get(id string) (*models.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if s.now().Sub(e.lastSeen) > s.ttl {
		delete(s.sessions, id)
		return nil, false
	}
	e.lastSeen = s.now()
	return e.session, true
}

// GetOrRestore returns the session by ID, recreating it from token claims
// when the store has no record, which happens after a restart. Restored
// sessions start with no joined chats.
func (s *Store) GetOrRestore(id string, role models.Role, username string) *models.Session {
	if session, ok := s.Get(id); ok {
		return session
	}

	session := &models.Session{
		ID:        id,
		Role:      role,
		Username:  username,
		Joined:    make(map[int64]bool),
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &entry{session: session, lastSeen: s.now()}
	return session
}

// Delete removes the session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Sweep evicts all expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	cutoff := s.now().Add(-s.ttl)
	for id, e := range s.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// StartSweeper runs Sweep on the given interval until stop is closed.
func (s *Store) StartSweeper(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-stop:
				return
			}
		}
	}()
}
