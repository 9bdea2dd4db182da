package store

import (
	"sync"

	"github.com/google/uuid"
)

// --- Contact-form phase ---

// Phase tracks which contact-form prompt an in-flight session is waiting
// on. It only matters between the last question and finalization.
type Phase string

const (
	PhaseNone            Phase = ""
	PhaseAwaitingName    Phase = "awaiting_name"
	PhaseAwaitingRevenue Phase = "awaiting_revenue"
)

// --- Session ---

// Session is the volatile fast-path state for one user's in-progress run.
// It is a cache over the durable store: answers here are always a subset
// or exact copy of the durable answers, never ahead of them. Lost on
// restart; anything that must survive lives in Durable.
type Session struct {
	AttemptID      string
	Cursor         int
	Answers        map[string]string
	Phase          Phase
	PendingName    string
	PendingRevenue string
}

func newSession() *Session {
	return &Session{
		AttemptID: uuid.NewString(),
		Answers:   make(map[string]string),
	}
}

// --- Session store ---

// SessionStore holds in-flight sessions keyed by user id. The surrounding
// transport serializes events per user, so the lock only guards the map
// itself, not individual sessions.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewSessionStore creates an empty session cache.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[int64]*Session)}
}

// Get returns the user's session, creating an empty one if absent.
func (s *SessionStore) Get(userID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		sess = newSession()
		s.sessions[userID] = sess
	}
	return sess
}

// Reset discards any prior session and starts a fresh one with a new
// attempt id and cursor 0.
func (s *SessionStore) Reset(userID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := newSession()
	s.sessions[userID] = sess
	return sess
}
