package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/admitflow/crm-backend/internal/core/domain"
	"github.com/admitflow/crm-backend/internal/core/ports"
)

const userCacheTTL = 5 * time.Minute

// CachedUserDirectory wraps a UserDirectory with a Redis TTL cache of user
// snapshots. Audit trails reference the same handful of users over and over,
// so history reads mostly skip the users collection entirely.
// Key format: user:<id>
type CachedUserDirectory struct {
	inner  ports.UserDirectory
	client *redis.Client
	log    zerolog.Logger
}

func NewCachedUserDirectory(inner ports.UserDirectory, client *redis.Client, log zerolog.Logger) *CachedUserDirectory {
	return &CachedUserDirectory{inner: inner, client: client, log: log}
}

// FindByIDs resolves users through the cache, falling back to the inner
// directory for misses. Cache failures degrade to a plain directory read.
func (d *CachedUserDirectory) FindByIDs(ctx context.Context, ids []string) (map[string]domain.User, error) {
	users := make(map[string]domain.User, len(ids))
	var misses []string

	for _, id := range ids {
		raw, err := d.client.Get(ctx, d.key(id)).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				d.log.Warn().Err(err).Str("user_id", id).Msg("user cache read failed, falling back to directory")
			}
			misses = append(misses, id)
			continue
		}
		var u domain.User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			misses = append(misses, id)
			continue
		}
		users[u.ID] = u
	}

	if len(misses) == 0 {
		return users, nil
	}

	resolved, err := d.inner.FindByIDs(ctx, misses)
	if err != nil {
		return nil, err
	}
	for id, u := range resolved {
		users[id] = u
		d.store(ctx, u)
	}
	return users, nil
}

func (d *CachedUserDirectory) store(ctx context.Context, u domain.User) {
	raw, err := json.Marshal(u)
	if err != nil {
		return
	}
	if err := d.client.Set(ctx, d.key(u.ID), raw, userCacheTTL).Err(); err != nil {
		d.log.Warn().Err(err).Str("user_id", u.ID).Msg("user cache write failed")
	}
}

func (d *CachedUserDirectory) key(id string) string {
	return fmt.Sprintf("user:%s", id)
}
