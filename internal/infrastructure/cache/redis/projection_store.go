package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/barkshad/fuliza/internal/domain/model"
)

func projectionKey(sessionID string) string { return keyPrefix + "projection:" + sessionID }

// ProjectionStore holds limit projections per session until ttl elapses.
type ProjectionStore struct {
	rdb goredis.UniversalClient
	ttl time.Duration
}

// NewProjectionStore creates a ProjectionStore.
func NewProjectionStore(rdb goredis.UniversalClient, ttl time.Duration) *ProjectionStore {
	return &ProjectionStore{rdb: rdb, ttl: ttl}
}

func (s *ProjectionStore) Put(ctx context.Context, sessionID string, p model.LimitProjection) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal projection: %w", err)
	}
	if err := s.rdb.Set(ctx, projectionKey(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store projection: %w", err)
	}
	return nil
}

// Get returns (nil, nil) when the session holds nothing.
func (s *ProjectionStore) Get(ctx context.Context, sessionID string) (*model.LimitProjection, error) {
	data, err := s.rdb.Get(ctx, projectionKey(sessionID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load projection: %w", err)
	}
	var p model.LimitProjection
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode projection: %w", err)
	}
	return &p, nil
}

func (s *ProjectionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, projectionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete projection: %w", err)
	}
	return nil
}
