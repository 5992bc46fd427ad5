package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"persona-survey-bot/internal/bank"
	"persona-survey-bot/internal/domain"

	"golang.org/x/sync/singleflight"
)

// DatasetCache caches instrument datasets with TTL in front of a slower
// loader, so the bank can re-Load cheaply on content refresh.
type DatasetCache struct {
	loader bank.Loader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[domain.Instrument]cachedDataset
}

type cachedDataset struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewDatasetCache(loader bank.Loader, ttl time.Duration) *DatasetCache {
	return &DatasetCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[domain.Instrument]cachedDataset),
	}
}

func (c *DatasetCache) LoadDataset(ctx context.Context, inst domain.Instrument) ([]domain.Question, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[inst]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.questions, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(inst.String(), func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[inst]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.questions, nil
		}
		c.mu.RUnlock()

		questions, err := c.loader.LoadDataset(ctx, inst)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cache[inst] = cachedDataset{
			questions: questions,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *DatasetCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// StaticLoader serves datasets from an in-memory map (useful for tests/demos).
type StaticLoader struct {
	datasets map[domain.Instrument][]domain.Question
}

func NewStaticLoader(datasets map[domain.Instrument][]domain.Question) *StaticLoader {
	return &StaticLoader{datasets: datasets}
}

func (l *StaticLoader) LoadDataset(_ context.Context, inst domain.Instrument) ([]domain.Question, error) {
	if questions, ok := l.datasets[inst]; ok {
		return questions, nil
	}
	return nil, domain.ErrDatasetNotFound
}
