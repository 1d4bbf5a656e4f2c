package session

import (
	"sync"
	"time"
)

// Session is the per-chat rate-limit state.
type Session struct {
	// Busy is true while a voice generation for this chat is in flight.
	Busy bool
	// CooldownUntil is the instant before which new requests are rejected.
	// The zero time means no cooldown is armed.
	CooldownUntil time.Time
}

// Patch is a partial update to a Session. Nil fields are left unchanged.
type Patch struct {
	Busy          *bool
	CooldownUntil *time.Time
}

// Store maps chat ids to their sessions. A session is created lazily with
// zero values on first access and lives for the process lifetime; there is
// no eviction.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[int64]Session),
	}
}

// Get returns a copy of the session for the given chat, inserting a default
// entry if the chat has never been seen.
func (s *Store) Get(chatID int64) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[chatID]
	if !ok {
		s.sessions[chatID] = Session{}
	}
	return sess
}

// Merge applies a partial update over the existing (or default) session and
// writes the result back. Callers that need a read-modify-write transition
// must serialize their Get+Merge pair themselves; the gate does this.
func (s *Store) Merge(chatID int64, patch Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessions[chatID]
	if patch.Busy != nil {
		sess.Busy = *patch.Busy
	}
	if patch.CooldownUntil != nil {
		sess.CooldownUntil = *patch.CooldownUntil
	}
	s.sessions[chatID] = sess
}

// Len returns the number of tracked sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
