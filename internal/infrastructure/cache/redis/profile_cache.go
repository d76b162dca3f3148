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

const profileIndexKey = keyPrefix + "profiles"

func profileKey(uid string) string { return keyPrefix + "profile:" + uid }

// ProfileCache keeps profile snapshots as JSON. Entries expire after ttl;
// a zero ttl keeps them forever.
type ProfileCache struct {
	rdb goredis.UniversalClient
	ttl time.Duration
}

// NewProfileCache creates a ProfileCache.
func NewProfileCache(rdb goredis.UniversalClient, ttl time.Duration) *ProfileCache {
	return &ProfileCache{rdb: rdb, ttl: ttl}
}

// Save writes p and records its uid in the index.
func (c *ProfileCache) Save(ctx context.Context, p model.Profile) error {
	data, err := json.Marshal(p.Snapshot())
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, profileKey(p.UID()), data, c.ttl)
	pipe.SAdd(ctx, profileIndexKey, p.UID())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache profile %s: %w", p.UID(), err)
	}
	return nil
}

// Get returns model.ErrProfileNotFound on a miss.
func (c *ProfileCache) Get(ctx context.Context, uid string) (model.Profile, error) {
	data, err := c.rdb.Get(ctx, profileKey(uid)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return model.Profile{}, model.ErrProfileNotFound
	}
	if err != nil {
		return model.Profile{}, fmt.Errorf("get cached profile %s: %w", uid, err)
	}
	return decodeProfile(data)
}

// List returns every indexed profile that has not expired. Expired uids
// are pruned from the index.
func (c *ProfileCache) List(ctx context.Context) ([]model.Profile, error) {
	uids, err := c.rdb.SMembers(ctx, profileIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list cached profiles: %w", err)
	}
	if len(uids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(uids))
	for i, uid := range uids {
		keys[i] = profileKey(uid)
	}
	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load cached profiles: %w", err)
	}

	var (
		out   []model.Profile
		stale []any
	)
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			stale = append(stale, uids[i])
			continue
		}
		p, err := decodeProfile([]byte(s))
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if len(stale) > 0 {
		_ = c.rdb.SRem(ctx, profileIndexKey, stale...).Err()
	}
	return out, nil
}

func decodeProfile(data []byte) (model.Profile, error) {
	var snap model.ProfileSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return model.Profile{}, fmt.Errorf("decode cached profile: %w", err)
	}
	return model.ReconstructProfile(snap)
}
