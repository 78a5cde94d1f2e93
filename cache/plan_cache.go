// File: cache/plan_cache.go
package cache

import (
	"context"
	"encoding/json"
	"time"

	"carelink/models"

	"github.com/go-redis/redis/v8"
)

// PlanCache is the best-effort local snapshot store. It hydrates the engine
// before the first network round trip completes; it is an optimization, not
// a dependency, so callers swallow its failures.
type PlanCache interface {
	Load(ctx context.Context) (*models.Plan, error)
	Store(ctx context.Context, plan *models.Plan) error
	Clear(ctx context.Context) error
}

type RedisPlanCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPlanCache(client *redis.Client, ttl time.Duration) PlanCache {
	return &RedisPlanCache{client: client, ttl: ttl}
}

const planSnapshotKey = "carelink:plan:snapshot"

func (c *RedisPlanCache) Load(ctx context.Context) (*models.Plan, error) {
	val, err := c.client.Get(ctx, planSnapshotKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var plan models.Plan
	if err := json.Unmarshal([]byte(val), &plan); err != nil {
		return nil, err
	}
	plan.Normalize()
	return &plan, nil
}

func (c *RedisPlanCache) Store(ctx context.Context, plan *models.Plan) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, planSnapshotKey, data, c.ttl).Err()
}

func (c *RedisPlanCache) Clear(ctx context.Context) error {
	return c.client.Del(ctx, planSnapshotKey).Err()
}
