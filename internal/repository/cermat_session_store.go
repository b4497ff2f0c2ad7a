package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/latihanku/latihanku-backend/internal/config"
	"github.com/latihanku/latihanku-backend/internal/model"
	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned when a cermat session id is unknown or its
// TTL has evicted it.
var ErrSessionNotFound = errors.New("cermat session not found")

// CermatSessionStore keeps transient drill rounds in Redis so the arena
// survives horizontal scaling and evicts idle sessions via TTL instead of
// growing unbounded in process memory.
type CermatSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCermatSessionStore creates a new CermatSessionStore.
func NewCermatSessionStore(rdb *redis.Client, ttl time.Duration) *CermatSessionStore {
	return &CermatSessionStore{rdb: rdb, ttl: ttl}
}

// Save stores a session under its id, resetting the idle TTL.
func (s *CermatSessionStore) Save(ctx context.Context, sess *model.CermatSession) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.rdb.Set(ctx, config.CacheKey.CermatSessionKey(sess.ID), raw, s.ttl).Err()
}

// Get retrieves a session by id.
func (s *CermatSessionStore) Get(ctx context.Context, id string) (*model.CermatSession, error) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.CermatSessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	sess := &model.CermatSession{}
	if err := json.Unmarshal(raw, sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return sess, nil
}

// Delete discards a session once its round has been graded.
func (s *CermatSessionStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, config.CacheKey.CermatSessionKey(id)).Err()
}
