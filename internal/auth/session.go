package auth

import (
	"errors"
	"sync"
	"time"
)

var ErrNoSession = errors.New("no active session")

type sessionEntry struct {
	token   string
	expires time.Time
}

// SessionStore keeps active sessions in process memory. One session per
// user: a new login replaces the previous token.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[uint]sessionEntry
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[uint]sessionEntry)}
}

func (s *SessionStore) Set(userId uint, token string, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userId] = sessionEntry{token: token, expires: time.Now().Add(duration)}
}

func (s *SessionStore) Get(userId uint) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[userId]
	if !ok || time.Now().After(e.expires) {
		delete(s.sessions, userId)
		return "", ErrNoSession
	}
	return e.token, nil
}

func (s *SessionStore) Delete(userId uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userId)
}

// Refresh pushes the inactivity deadline forward without changing the token.
func (s *SessionStore) Refresh(userId uint, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.sessions[userId]; ok {
		e.expires = time.Now().Add(duration)
		s.sessions[userId] = e
	}
}

// OnlineUserCount returns the number of users with unexpired sessions.
func (s *SessionStore) OnlineUserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	now := time.Now()
	for _, e := range s.sessions {
		if now.Before(e.expires) {
			n++
		}
	}
	return n
}
