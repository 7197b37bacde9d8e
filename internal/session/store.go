package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrNotFound is returned when no session exists for a phone number.
var ErrNotFound = errors.New("session not found")

// Store persists sessions keyed by phone number. Update runs its mutation
// under a per-phone exclusive lock so turns for the same patient are
// serialized; turns for different patients proceed concurrently.
type Store interface {
	// Update loads (or creates) the session for phone and applies fn to it
	// while holding the phone's lock. The mutated session is persisted when
	// fn returns nil.
	Update(ctx context.Context, phone string, fn func(*Session) error) (*Session, error)
	// Get returns a snapshot of the session for phone.
	Get(ctx context.Context, phone string) (*Session, error)
	// List returns snapshots of every session ordered by last update,
	// newest first.
	List(ctx context.Context) ([]*Session, error)
}

// MemoryStore is the default single-process store: a map guarded by a
// read-write mutex plus one mutex per phone for the single-writer turn
// discipline.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	locks    map[string]*sync.Mutex
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		locks:    make(map[string]*sync.Mutex),
		now:      time.Now,
	}
}

// WithClock overrides the store clock, for tests.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) phoneLock(phone string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[phone]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[phone] = lock
	}
	return lock
}

// Update implements Store.
func (s *MemoryStore) Update(ctx context.Context, phone string, fn func(*Session) error) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lock := s.phoneLock(phone)
	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	sess, ok := s.sessions[phone]
	s.mu.RUnlock()

	var working Session
	if ok {
		working = clone(sess)
	} else {
		working = *New(phone, s.now().UTC())
	}

	if err := fn(&working); err != nil {
		return nil, err
	}
	working.UpdatedAt = s.now().UTC()

	s.mu.Lock()
	s.sessions[phone] = &working
	s.mu.Unlock()

	snapshot := clone(&working)
	return &snapshot, nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, phone string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[phone]
	if !ok {
		return nil, ErrNotFound
	}
	snapshot := clone(sess)
	return &snapshot, nil
}

// List implements Store.
func (s *MemoryStore) List(ctx context.Context) ([]*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		snapshot := clone(sess)
		out = append(out, &snapshot)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// clone copies a session deeply enough that callers cannot mutate stored
// history through the snapshot.
func clone(s *Session) Session {
	copied := *s
	copied.Messages = make([]Message, len(s.Messages))
	copy(copied.Messages, s.Messages)
	return copied
}
