package storage

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"taskboard/domain"
)

const tasksCacheKey = "tasks:all"

type backend interface {
	Insert(ctx context.Context, nt domain.NewTask) (domain.Task, error)
	SelectAll(ctx context.Context) ([]domain.Task, error)
	UpdatePartial(ctx context.Context, id string, p domain.TaskPatch) (domain.Task, error)
	DeleteByID(ctx context.Context, id string) (domain.Task, error)
	Ping(ctx context.Context) error
}

// Cache wraps a task store with a Redis copy of the full task list. Every
// successful write evicts the cached list. Concurrent misses share one backend
// read, and a read that overlaps a write is returned but not cached.
type Cache struct {
	base  backend
	redis *redis.Client
	ttl   time.Duration

	loads singleflight.Group
	gen   atomic.Uint64
}

// NewCache creates a caching wrapper using the provided Redis client and TTL.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) SelectAll(ctx context.Context) ([]domain.Task, error) {
	if tasks, ok := c.load(ctx); ok {
		return tasks, nil
	}

	val, err, _ := c.loads.Do(tasksCacheKey, func() (any, error) {
		gen := c.gen.Load()
		tasks, err := c.base.SelectAll(ctx)
		if err != nil {
			return nil, err
		}
		if c.gen.Load() == gen {
			c.store(ctx, tasks)
		}
		return tasks, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(val.([]domain.Task)), nil
}

func (c *Cache) Insert(ctx context.Context, nt domain.NewTask) (domain.Task, error) {
	t, err := c.base.Insert(ctx, nt)
	if err != nil {
		return domain.Task{}, err
	}
	c.evict(ctx)
	return t, nil
}

func (c *Cache) UpdatePartial(ctx context.Context, id string, p domain.TaskPatch) (domain.Task, error) {
	t, err := c.base.UpdatePartial(ctx, id, p)
	if err != nil {
		return domain.Task{}, err
	}
	c.evict(ctx)
	return t, nil
}

func (c *Cache) DeleteByID(ctx context.Context, id string) (domain.Task, error) {
	t, err := c.base.DeleteByID(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	c.evict(ctx)
	return t, nil
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.base.Ping(ctx)
}

func (c *Cache) load(ctx context.Context) ([]domain.Task, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, tasksCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, tasksCacheKey).Err()
		}
		return nil, false
	}
	var tasks []domain.Task
	if err := sonic.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, tasksCacheKey).Err()
		return nil, false
	}
	return tasks, true
}

func (c *Cache) store(ctx context.Context, tasks []domain.Task) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := sonic.Marshal(tasks)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, tasksCacheKey, data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context) {
	c.gen.Add(1)
	if c.redis == nil {
		return
	}
	_ = c.redis.Del(ctx, tasksCacheKey).Err()
}
