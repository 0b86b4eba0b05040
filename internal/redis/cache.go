package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"buscontrol/internal/domain"
)

// DefaultStatisticsTTL applies when no TTL is configured.
const DefaultStatisticsTTL = 30 * time.Second

// Key names
const (
	statisticsCacheKey      = "cache:estadisticas:rutas"
	statisticsGenerationKey = "cache:estadisticas:generacion"
)

// storeIfGeneration writes KEYS[2] only while KEYS[1] still holds ARGV[1].
// A missing generation counts as 0.
var storeIfGeneration = redis.NewScript(`
local current = redis.call("GET", KEYS[1]) or "0"
if current ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
return 1
`)

// StatisticsCache holds the last computed statistics summary in Redis.
//
// Every invalidation bumps a generation counter. A summary is stored only if
// the generation read before its records were loaded is still current, so a
// summary computed from a snapshot older than the last write is discarded.
type StatisticsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatisticsCache creates a new StatisticsCache. A non-positive ttl uses
// DefaultStatisticsTTL.
func NewStatisticsCache(client *redis.Client, ttl time.Duration) *StatisticsCache {
	if ttl <= 0 {
		ttl = DefaultStatisticsTTL
	}
	return &StatisticsCache{client: client, ttl: ttl}
}

// TTL returns how long a stored summary stays valid.
func (s *StatisticsCache) TTL() time.Duration {
	return s.ttl
}

// GetSummary retrieves the cached summary. It returns nil, nil on a cache miss.
func (s *StatisticsCache) GetSummary(ctx context.Context) (*domain.StatisticsSummary, error) {
	data, err := s.client.Get(ctx, statisticsCacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var summary domain.StatisticsSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, err
	}
	if summary.Routes == nil {
		summary.Routes = []domain.RouteStatistic{}
	}
	return &summary, nil
}

// Generation returns the current invalidation generation, 0 before the first
// invalidation.
func (s *StatisticsCache) Generation(ctx context.Context) (int64, error) {
	gen, err := s.client.Get(ctx, statisticsGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// SetSummary stores a summary for the configured TTL if generation is still
// current. It reports whether the summary was stored.
func (s *StatisticsCache) SetSummary(ctx context.Context, summary *domain.StatisticsSummary, generation int64) (bool, error) {
	data, err := json.Marshal(summary)
	if err != nil {
		return false, err
	}

	stored, err := storeIfGeneration.Run(ctx, s.client,
		[]string{statisticsGenerationKey, statisticsCacheKey},
		generation, data, s.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}
	return stored == 1, nil
}

// InvalidateSummary bumps the generation and removes the cached summary.
func (s *StatisticsCache) InvalidateSummary(ctx context.Context) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, statisticsGenerationKey)
		pipe.Del(ctx, statisticsCacheKey)
		return nil
	})
	return err
}
