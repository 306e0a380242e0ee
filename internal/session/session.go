package session

import (
	"sync"
	"time"

	"pdfsummarizer/internal/domain"

	"github.com/google/uuid"
)

// State is everything one browser session owns. Document and Result are
// replaced as a whole and never mutated in place.
type State struct {
	Credential string
	Document   *domain.Document
	ParseErr   *domain.Error
	Result     *domain.SummaryResult
	Notice     string
}

func (s State) HasCredential() bool {
	return s.Credential != ""
}

type entry struct {
	state    State
	lastSeen time.Time
}

// Store keeps sessions in memory only; nothing here survives a restart.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	ttl      time.Duration
	now      func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *Store) Create() string {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[id] = &entry{lastSeen: s.now()}

	return id
}

// Get returns a copy of the session state and refreshes its idle timer.
func (s *Store) Get(id string) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookupLocked(id)
	if !ok {
		return State{}, false
	}

	return e.state, true
}

// Update applies fn to the session state under the store lock. fn must not
// block.
func (s *Store) Update(id string, fn func(*State)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookupLocked(id)
	if !ok {
		return false
	}

	fn(&e.state)

	return true
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// were removed.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.sessions {
		if s.expired(e, now) {
			delete(s.sessions, id)
			removed++
		}
	}

	return removed
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}

func (s *Store) lookupLocked(id string) (*entry, bool) {
	if id == "" {
		return nil, false
	}

	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}

	now := s.now()
	if s.expired(e, now) {
		delete(s.sessions, id)

		return nil, false
	}

	e.lastSeen = now

	return e, true
}

func (s *Store) expired(e *entry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.lastSeen) > s.ttl
}
