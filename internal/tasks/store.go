package tasks

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ascendtravel/concierge/internal/infrastructure/redis"
)

const taskLifetime = 1 * time.Hour

// Store persists task state between submit and poll.
type Store interface {
	Put(ctx context.Context, task *Task) error
	Get(ctx context.Context, id string) (*Task, error)
	Delete(ctx context.Context, id string) error
}

// NewStore returns a Redis-backed store when Redis is reachable and an
// in-memory store otherwise.
func NewStore(redisService *redis.Service) Store {
	if redisService != nil {
		if err := redisService.Ping(context.Background()); err == nil {
			log.Info().Msg("Using Redis task store")
			return &RedisStore{redisService: redisService}
		}
		log.Warn().Msg("Redis unreachable, falling back to in-memory task store")
	}
	return NewMemoryStore()
}

// RedisStore keeps tasks in Redis with a TTL so abandoned tickets expire.
type RedisStore struct {
	redisService *redis.Service
}

func (rs *RedisStore) Put(ctx context.Context, task *Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return rs.redisService.Set(ctx, taskKey(task.ID), string(data), taskLifetime)
}

func (rs *RedisStore) Get(ctx context.Context, id string) (*Task, error) {
	data, err := rs.redisService.Get(ctx, taskKey(id))
	if err != nil {
		return nil, err
	}
	if data == "" {
		return nil, ErrNotFound
	}

	var task Task
	if err := json.Unmarshal([]byte(data), &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (rs *RedisStore) Delete(ctx context.Context, id string) error {
	return rs.redisService.Delete(ctx, taskKey(id))
}

func taskKey(id string) string {
	return "task:" + id
}

// MemoryStore keeps tasks in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]*Task
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: make(map[string]*Task)}
}

func (ms *MemoryStore) Put(ctx context.Context, task *Task) error {
	copied := *task
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.tasks[task.ID] = &copied
	return nil
}

func (ms *MemoryStore) Get(ctx context.Context, id string) (*Task, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	task, exists := ms.tasks[id]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *task
	return &copied, nil
}

func (ms *MemoryStore) Delete(ctx context.Context, id string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.tasks, id)
	return nil
}
