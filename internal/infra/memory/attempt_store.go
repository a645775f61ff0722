package memory

import (
	"context"
	"sync"
	"time"

	"quizhub/internal/domain"
)

// AttemptStore is an in-memory implementation of app.AttemptStore. Entries
// expire ttl after their last save, like the Redis store.
type AttemptStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu        sync.RWMutex
	states    map[domain.AttemptKey]storedAttempt
	lastSweep time.Time
}

const sweepInterval = time.Minute

type storedAttempt struct {
	state     domain.AttemptState
	expiresAt time.Time
}

// NewAttemptStore builds a store whose entries live for ttl. A ttl <= 0 keeps
// them until deleted.
func NewAttemptStore(ttl time.Duration) *AttemptStore {
	return &AttemptStore{
		ttl:    ttl,
		clock:  time.Now,
		states: make(map[domain.AttemptKey]storedAttempt),
	}
}

// WithClock is test-only for deterministic expiry.
func (s *AttemptStore) WithClock(now func() time.Time) *AttemptStore {
	s.clock = now
	return s
}

func (s *AttemptStore) Get(_ context.Context, key domain.AttemptKey) (domain.AttemptState, error) {
	s.mu.RLock()
	entry, ok := s.states[key]
	s.mu.RUnlock()
	if !ok {
		return domain.AttemptState{}, domain.ErrAttemptNotFound
	}
	if s.expired(entry) {
		s.mu.Lock()
		if current, ok := s.states[key]; ok && s.expired(current) {
			delete(s.states, key)
		}
		s.mu.Unlock()
		return domain.AttemptState{}, domain.ErrAttemptNotFound
	}
	return cloneState(entry.state), nil
}

func (s *AttemptStore) Save(_ context.Context, state domain.AttemptState) error {
	entry := storedAttempt{state: cloneState(state)}
	if s.ttl > 0 {
		entry.expiresAt = s.clock().Add(s.ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.Key()] = entry
	s.sweepLocked()
	return nil
}

func (s *AttemptStore) Delete(_ context.Context, key domain.AttemptKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.states[key]
	if !ok || s.expired(entry) {
		delete(s.states, key)
		return domain.ErrAttemptNotFound
	}
	delete(s.states, key)
	return nil
}

func (s *AttemptStore) expired(entry storedAttempt) bool {
	return !entry.expiresAt.IsZero() && !entry.expiresAt.After(s.clock())
}

// sweepLocked drops abandoned attempts so the map does not grow without bound.
func (s *AttemptStore) sweepLocked() {
	now := s.clock()
	if s.ttl <= 0 || now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	s.lastSweep = now
	for key, entry := range s.states {
		if s.expired(entry) {
			delete(s.states, key)
		}
	}
}

// cloneState copies the slices and maps so callers never share them with the store.
func cloneState(st domain.AttemptState) domain.AttemptState {
	out := st
	out.Questions = append([]int64(nil), st.Questions...)
	out.Selections = make(map[int][]int64, len(st.Selections))
	for k, v := range st.Selections {
		out.Selections[k] = append([]int64(nil), v...)
	}
	out.Awarded = make(map[int]int, len(st.Awarded))
	for k, v := range st.Awarded {
		out.Awarded[k] = v
	}
	return out
}
