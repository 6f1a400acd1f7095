package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Pinger is a dependency that can be probed for reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BufferSizer reports the number of writes waiting for replay.
type BufferSizer interface {
	Size() (int, error)
}

type redisPinger struct {
	client *redislib.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// PostgresPinger adapts a pgx pool; a nil pool yields a nil Pinger.
func PostgresPinger(pool *pgxpool.Pool) Pinger {
	if pool == nil {
		return nil
	}
	return pool
}

// RedisPinger adapts a go-redis client; a nil client yields a nil Pinger.
func RedisPinger(client *redislib.Client) Pinger {
	if client == nil {
		return nil
	}
	return redisPinger{client: client}
}

// Monitor polls PostgreSQL, Redis and the write buffer. Buffered writes are
// replayed only while PostgreSQL is reachable.
type Monitor struct {
	pg     Pinger
	redis  Pinger
	buffer BufferSizer

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(pg, redis Pinger, buf BufferSizer, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		pg:       pg,
		redis:    redis,
		buffer:   buf,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// IsOnline reports whether PostgreSQL answered the last check.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.PostgreSQL
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Refresh probes every dependency now and returns the new snapshot.
func (m *Monitor) Refresh(ctx context.Context) Status {
	bufferOK, bufferSize := m.checkBuffer()
	status := Status{
		PostgreSQL: m.ping(ctx, m.pg, 3*time.Second),
		Redis:      m.ping(ctx, m.redis, 2*time.Second),
		Buffer:     bufferOK,
		BufferSize: bufferSize,
		LastCheck:  time.Now(),
	}

	m.mu.Lock()
	previous := m.status
	m.status = status
	m.mu.Unlock()

	if !previous.LastCheck.IsZero() {
		m.logTransition("postgresql", previous.PostgreSQL, status.PostgreSQL)
		m.logTransition("redis", previous.Redis, status.Redis)
	}
	return status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Refresh(context.Background())
	for {
		select {
		case <-ticker.C:
			m.Refresh(context.Background())
		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) ping(ctx context.Context, p Pinger, timeout time.Duration) bool {
	if p == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.Ping(ctx) == nil
}

func (m *Monitor) checkBuffer() (bool, int) {
	if m.buffer == nil {
		return false, 0
	}
	size, err := m.buffer.Size()
	if err != nil {
		m.logger.Warn("buffer size check failed", zap.Error(err))
		return false, size
	}
	return true, size
}

func (m *Monitor) logTransition(name string, was, is bool) {
	switch {
	case was && !is:
		m.logger.Warn("dependency went offline", zap.String("dependency", name))
	case !was && is:
		m.logger.Info("dependency back online", zap.String("dependency", name))
	}
}
