package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/allegro/bigcache/v3"
	"uk.co.dudmesh.contacts/internal/model"
)

const userCacheKeyPrefix = "user:"

// UserCache is a look-aside cache of user snapshots keyed by email. It is
// advisory only: every failure mode (missing key, stale entry, corrupt
// payload) reads as a miss and sends the caller back to the store. Entries
// are not invalidated on user mutation, so a snapshot may lag the store by
// up to the life window.
type UserCache struct {
	cache *bigcache.BigCache
}

func NewUserCache(lifeWindow time.Duration) (*UserCache, error) {
	cache, err := bigcache.New(context.Background(), bigcache.DefaultConfig(lifeWindow))
	if err != nil {
		return nil, err
	}
	return &UserCache{cache: cache}, nil
}

func (c *UserCache) Get(email string) (*model.User, bool) {
	buf, err := c.cache.Get(userCacheKeyPrefix + email)
	if err != nil {
		return nil, false
	}
	user := &model.User{}
	if err := json.Unmarshal(buf, user); err != nil {
		return nil, false
	}
	return user, true
}

func (c *UserCache) Put(email string, user *model.User) {
	buf, err := json.Marshal(user)
	if err != nil {
		return
	}
	c.cache.Set(userCacheKeyPrefix+email, buf)
}

func (c *UserCache) Close() error {
	return c.cache.Close()
}
