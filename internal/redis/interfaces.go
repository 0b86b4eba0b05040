package redis

import (
	"context"
	"time"

	"buscontrol/internal/domain"
)

// StatisticsCacheInterface defines the interface for the statistics cache.
type StatisticsCacheInterface interface {
	GetSummary(ctx context.Context) (*domain.StatisticsSummary, error)
	Generation(ctx context.Context) (int64, error)
	SetSummary(ctx context.Context, summary *domain.StatisticsSummary, generation int64) (bool, error)
	InvalidateSummary(ctx context.Context) error
}

// LockStoreInterface defines the interface for named locks.
type LockStoreInterface interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, name, token string) error
}

// Ensure concrete types implement interfaces.
var (
	_ StatisticsCacheInterface = (*StatisticsCache)(nil)
	_ LockStoreInterface       = (*LockStore)(nil)
)
