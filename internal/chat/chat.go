// Package chat keeps a bounded conversation history per session.
package chat

import (
	"sort"
	"sync"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	DefaultLimit = 10
)

type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type session struct {
	mu       sync.Mutex
	messages []Message
	lastSeen time.Time
}

// Store holds the last limit messages of each session. Sessions idle for
// longer than idleTTL are dropped by CleanExpired; zero keeps them forever.
type Store struct {
	mu       sync.RWMutex // guards sessions only
	sessions map[string]*session
	limit    int
	idleTTL  time.Duration
	now      func() time.Time
}

func NewStore(limit int, idleTTL time.Duration) *Store {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Store{
		sessions: make(map[string]*session),
		limit:    limit,
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

func (s *Store) get(id string) *session {
	s.mu.RLock()
	sess := s.sessions[id]
	s.mu.RUnlock()
	return sess
}

func (s *Store) getOrCreate(id string) *session {
	if sess := s.get(id); sess != nil {
		return sess
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		sess = &session{lastSeen: s.now()}
		s.sessions[id] = sess
	}
	return sess
}

// Append adds msgs in order and drops the oldest entries beyond the limit.
// Zero timestamps are set to the current time.
func (s *Store) Append(id string, msgs ...Message) {
	sess := s.getOrCreate(id)
	now := s.now()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	for _, m := range msgs {
		if m.Timestamp.IsZero() {
			m.Timestamp = now
		}
		sess.messages = append(sess.messages, m)
	}
	if over := len(sess.messages) - s.limit; over > 0 {
		sess.messages = append([]Message(nil), sess.messages[over:]...)
	}
	sess.lastSeen = now
}

// History returns a copy of the session's messages, oldest first. Unknown
// sessions yield an empty, non-nil slice.
func (s *Store) History(id string) []Message {
	return s.Recent(id, 0)
}

// Recent returns the last n messages; n <= 0 means all of them.
func (s *Store) Recent(id string, n int) []Message {
	sess := s.get(id)
	if sess == nil {
		return []Message{}
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	msgs := sess.messages
	if n > 0 && len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	return append([]Message{}, msgs...)
}

func (s *Store) Clear(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Sessions lists known session ids in sorted order.
func (s *Store) Sessions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CleanExpired drops idle sessions and returns how many were removed.
func (s *Store) CleanExpired() int {
	if s.idleTTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := sess.lastSeen.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
