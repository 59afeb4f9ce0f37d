package auth

import (
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
	ErrBadPassword  = errors.New("invalid username or password")
)

type User struct {
	ID           uint      `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserStore keeps accounts in process memory. The first registered account
// is created through the setup endpoint; nothing persists across restarts.
type UserStore struct {
	mu     sync.Mutex
	users  map[string]*User
	nextID uint
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]*User), nextID: 1}
}

func (s *UserStore) Create(username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, errors.New("username and password required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(username)
	if _, ok := s.users[key]; ok {
		return nil, ErrUserExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &User{
		ID:           s.nextID,
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	s.nextID++
	s.users[key] = u
	return u, nil
}

func (s *UserStore) Authenticate(username, password string) (*User, error) {
	s.mu.Lock()
	u, ok := s.users[strings.ToLower(strings.TrimSpace(username))]
	s.mu.Unlock()
	if !ok {
		return nil, ErrBadPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrBadPassword
	}
	return u, nil
}

func (s *UserStore) Get(username string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// Empty reports whether setup has run yet.
func (s *UserStore) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users) == 0
}
