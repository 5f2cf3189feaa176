package iam

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/terraconstructs/rmcs/internal/db/models"
	"github.com/terraconstructs/rmcs/internal/repository"
)

const defaultApiCacheSize = 256

// ApiCache is a short-lived read-through cache of Api records used on the
// refresh path. Entries are dropped when the Api's access key rotates.
type ApiCache struct {
	apis  repository.ApiRepository
	cache *expirable.LRU[string, models.Api]
}

// NewApiCache creates a cache with the given entry TTL. A non-positive TTL
// disables caching.
func NewApiCache(apis repository.ApiRepository, ttl time.Duration) *ApiCache {
	c := &ApiCache{apis: apis}
	if ttl > 0 {
		c.cache = expirable.NewLRU[string, models.Api](defaultApiCacheSize, nil, ttl)
	}
	return c
}

// Get returns the Api with the given id.
func (c *ApiCache) Get(ctx context.Context, id string) (*models.Api, error) {
	if c.cache != nil {
		if api, ok := c.cache.Get(id); ok {
			return &api, nil
		}
	}
	api, err := c.apis.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.Add(id, *api)
	}
	return api, nil
}

// Invalidate drops the cached entry for id.
func (c *ApiCache) Invalidate(id string) {
	if c.cache != nil {
		c.cache.Remove(id)
	}
}
