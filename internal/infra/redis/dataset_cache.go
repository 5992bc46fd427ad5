package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"persona-survey-bot/internal/bank"
	"persona-survey-bot/internal/domain"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// DatasetCache caches instrument datasets in Redis (one JSON blob per
// instrument) and falls back to a loader on cache miss, so several bot
// instances share one content fetch.
type DatasetCache struct {
	client *redis.Client
	loader bank.Loader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewDatasetCache(client *redis.Client, loader bank.Loader, ttl time.Duration) *DatasetCache {
	return &DatasetCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *DatasetCache) LoadDataset(ctx context.Context, inst domain.Instrument) ([]domain.Question, error) {
	key := c.key(inst)

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil && len(raw) > 0 {
		if questions, err := decodeDataset(raw); err == nil {
			return questions, nil
		}
		// Corrupt cache entry: fall through and rebuild it from the loader.
	}

	result, err, _ := c.sf.Do(inst.String(), func() (interface{}, error) {
		// Re-check in case another goroutine filled the key.
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil && len(raw) > 0 {
			if questions, err := decodeDataset(raw); err == nil {
				return questions, nil
			}
		}

		questions, err := c.loader.LoadDataset(ctx, inst)
		if err != nil {
			return nil, err
		}

		if raw, err := json.Marshal(questions); err == nil {
			_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *DatasetCache) key(inst domain.Instrument) string {
	return "survey:dataset:" + inst.String()
}

func decodeDataset(raw []byte) ([]domain.Question, error) {
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (c *DatasetCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
