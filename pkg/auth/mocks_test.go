package auth_test

import (
	"context"
	"sync"
	"time"

	"github.com/chatkitlabs/chatd/pkg/auth"
)

// memoryStore is an in-memory UserStore for tests.
type memoryStore struct {
	mu       sync.Mutex
	accounts map[string]*auth.Account
	failWith error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{accounts: make(map[string]*auth.Account)}
}

func (s *memoryStore) FindByEmail(_ context.Context, email string) (*auth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	account, ok := s.accounts[email]
	if !ok {
		return nil, auth.ErrAccountNotFound
	}
	clone := *account
	return &clone, nil
}

func (s *memoryStore) Create(_ context.Context, account *auth.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.Email]; ok {
		return auth.ErrEmailAlreadyExists
	}
	clone := *account
	s.accounts[account.Email] = &clone
	return nil
}

func (s *memoryStore) UpdatePasswordHash(_ context.Context, email, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[email]
	if !ok {
		return auth.ErrAccountNotFound
	}
	account.PasswordHash = hash
	return nil
}

// memoryStateStore is an in-memory StateStore for oauth tests.
type memoryStateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
}

func newMemoryStateStore() *memoryStateStore {
	return &memoryStateStore{states: make(map[string]time.Time)}
}

func (s *memoryStateStore) Store(_ context.Context, state string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state] = time.Now().Add(ttl)
	return nil
}

func (s *memoryStateStore) Consume(_ context.Context, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.states[state]
	delete(s.states, state)
	if !ok || time.Now().After(expiry) {
		return auth.ErrInvalidState
	}
	return nil
}
