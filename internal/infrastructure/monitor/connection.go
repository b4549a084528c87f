package monitor

import (
	"context"
	"sync"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cheliu754/CS409-MP3/internal/store"
)

// Monitor periodically probes the document store (and redis, when
// configured) and keeps collection counts for the health endpoint.
type Monitor struct {
	docs  store.Store
	redis *redislib.Client

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	logger   *zap.Logger
}

func New(docs store.Store, redis *redislib.Client, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		docs:     docs,
		redis:    redis,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

// Start primes the status synchronously, then probes on the interval.
func (m *Monitor) Start() {
	m.refresh()
	go m.loop()
}

func (m *Monitor) Stop() {
	close(m.stopCh)
}

// IsOnline reports whether the primary store is reachable. Redis is an
// auxiliary dependency; losing it degrades nothing the API contract needs.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Store
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.refresh()
		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) refresh() {
	users, tasks, storeOK := m.checkStore()
	status := Status{
		Store:        storeOK,
		Redis:        m.checkRedis(),
		RedisEnabled: m.redis != nil,
		Users:        users,
		Tasks:        tasks,
		LastCheck:    time.Now(),
	}

	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
}

func (m *Monitor) checkStore() (users, tasks int, ok bool) {
	if m.docs == nil {
		return 0, 0, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := m.docs.View(ctx, func(tx store.Tx) error {
		if err := tx.Scan(store.CollectionUsers, func(string, []byte) error {
			users++
			return nil
		}); err != nil {
			return err
		}
		return tx.Scan(store.CollectionTasks, func(string, []byte) error {
			tasks++
			return nil
		})
	})
	if err != nil {
		m.logger.Warn("store health check failed", zap.Error(err))
		return 0, 0, false
	}
	return users, tasks, true
}

func (m *Monitor) checkRedis() bool {
	if m.redis == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return m.redis.Ping(ctx).Err() == nil
}
