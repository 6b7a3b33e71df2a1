package postgres

import (
	"context"
	"encoding/json"
	"time"

	"pathtech-academy/internal/domain/model"
	"pathtech-academy/internal/domain/ports/repository"
	"pathtech-academy/internal/infra/metrics"
	red "pathtech-academy/internal/infra/redis"
)

var _ repository.ItemRepository = (*itemRepoCacheDecorator)(nil)

type itemRepoCacheDecorator struct {
	inner repository.ItemRepository
	cache red.RedisClient
	ttl   time.Duration
}

// NewItemRepoCacheDecorator caches catalog lookups; a redis failure falls back to inner.
func NewItemRepoCacheDecorator(inner repository.ItemRepository, cache red.RedisClient, ttl time.Duration) repository.ItemRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &itemRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   ttl,
	}
}

func itemCacheKey(ref model.ItemRef) string { return "item:" + ref.Key() }

func (d *itemRepoCacheDecorator) FindByRef(ctx context.Context, tx repository.Tx, ref model.ItemRef) (*model.PurchasableItem, error) {
	key := itemCacheKey(ref)
	result := "miss"
	val, err := d.cache.Get(ctx, key)
	switch {
	case err == nil:
		var it model.PurchasableItem
		if json.Unmarshal([]byte(val), &it) == nil {
			metrics.IncCacheRequest("item", "hit")
			return &it, nil
		}
		result = "error" // undecodable entry
	case !red.IsMiss(err):
		result = "error"
	}

	// One result per lookup.
	metrics.IncCacheRequest("item", result)
	it, err := d.inner.FindByRef(ctx, tx, ref)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(it); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return it, nil
}
