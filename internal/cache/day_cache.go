package cache

import (
	"context"
	"encoding/json"
	"errors"
	"intervue/internal/model"
	"time"

	"github.com/redis/go-redis/v9"
)

const activeDaysKey = "days:active"

// DayCache holds the list of active days
type DayCache interface {
	SetActive(ctx context.Context, days []*model.Day) error
	GetActive(ctx context.Context) ([]*model.Day, error)
	Invalidate(ctx context.Context) error
}

type dayCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDayCache(client *redis.Client, ttl time.Duration) DayCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &dayCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *dayCache) SetActive(ctx context.Context, days []*model.Day) error {
	data, err := json.Marshal(days)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, activeDaysKey, data, c.ttl).Err()
}

// GetActive returns nil on a miss
func (c *dayCache) GetActive(ctx context.Context) ([]*model.Day, error) {
	data, err := c.client.Get(ctx, activeDaysKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var days []*model.Day
	if err := json.Unmarshal(data, &days); err != nil {
		return nil, err
	}
	return days, nil
}

func (c *dayCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, activeDaysKey).Err()
}
