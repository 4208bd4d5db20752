package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	"github.com/utafrali/EcommerceGo/storefront/internal/repository"
)

const keyPrefix = "storefront:session:"

// SessionStore implements repository.SessionStore as one Redis hash per
// namespace.
type SessionStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewSessionStore creates a Redis-backed session store. A zero ttl keeps the
// session until logout.
func NewSessionStore(client *redis.Client, namespace string, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client: client,
		key:    keyPrefix + namespace,
		ttl:    ttl,
	}
}

// Load reads the session hash.
func (s *SessionStore) Load(ctx context.Context) (domain.SessionView, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return domain.SessionView{}, fmt.Errorf("redis hgetall session: %w", err)
	}
	return domain.SessionView{
		CustomerID: fields[repository.FieldCustomerID],
		Token:      fields[repository.FieldAuthToken],
		OrderID:    fields[repository.FieldOrderID],
	}, nil
}

// SaveIdentity writes the token and customer id in one transaction.
func (s *SessionStore) SaveIdentity(ctx context.Context, customerID, token string) error {
	return s.write(ctx, "identity", func(pipe redis.Pipeliner) {
		pipe.HSet(ctx, s.key,
			repository.FieldCustomerID, customerID,
			repository.FieldAuthToken, token,
		)
	})
}

// SaveOrderID writes the current order id.
func (s *SessionStore) SaveOrderID(ctx context.Context, orderID string) error {
	return s.write(ctx, "order id", func(pipe redis.Pipeliner) {
		pipe.HSet(ctx, s.key, repository.FieldOrderID, orderID)
	})
}

// ClearOrderID deletes only the order id field.
func (s *SessionStore) ClearOrderID(ctx context.Context) error {
	if err := s.client.HDel(ctx, s.key, repository.FieldOrderID).Err(); err != nil {
		return fmt.Errorf("redis hdel order id: %w", err)
	}
	return nil
}

// Clear deletes the whole session hash.
func (s *SessionStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}
	return nil
}

// Ping checks Redis connectivity.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *SessionStore) write(ctx context.Context, what string, fn func(redis.Pipeliner)) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		fn(pipe)
		if s.ttl > 0 {
			pipe.Expire(ctx, s.key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save session %s: %w", what, err)
	}
	return nil
}
