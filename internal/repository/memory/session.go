package memory

import (
	"context"
	"sync"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
)

// SessionStore keeps the session in process memory. It backs the ephemeral
// session mode and tests.
type SessionStore struct {
	mu   sync.RWMutex
	view domain.SessionView
}

// NewSessionStore returns an empty in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

func (s *SessionStore) Load(_ context.Context) (domain.SessionView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view, nil
}

func (s *SessionStore) SaveIdentity(_ context.Context, customerID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.CustomerID = customerID
	s.view.Token = token
	return nil
}

func (s *SessionStore) SaveOrderID(_ context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.OrderID = orderID
	return nil
}

func (s *SessionStore) ClearOrderID(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.OrderID = ""
	return nil
}

func (s *SessionStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = domain.SessionView{}
	return nil
}
