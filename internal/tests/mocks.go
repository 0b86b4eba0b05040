package tests

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"buscontrol/internal/domain"
	"buscontrol/internal/redis"
	"buscontrol/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK TRIP RECORD REPOSITORY
// ──────────────────────────────────────────────

// MockTripRecordRepository is an in-memory TripRecordRepository.
type MockTripRecordRepository struct {
	mu      sync.RWMutex
	records map[string]*domain.TripRecord
	order   []string

	// Counters for verification
	CreateCallCount     int32
	UpdateCallCount     int32
	SoftDeleteCallCount int32
	ListActiveCallCount int32

	// Error injection
	CreateError     error
	UpdateError     error
	ListActiveError error
	PingError       error
}

// NewMockTripRecordRepository creates a new mock trip record repository.
func NewMockTripRecordRepository() *MockTripRecordRepository {
	return &MockTripRecordRepository{
		records: make(map[string]*domain.TripRecord),
	}
}

// AddRecord adds a record to the mock repository.
func (m *MockTripRecordRepository) AddRecord(record domain.TripRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[record.ID]; !ok {
		m.order = append(m.order, record.ID)
	}
	m.records[record.ID] = &record
}

func (m *MockTripRecordRepository) List(ctx context.Context, filter repository.TripFilter) (repository.TripPage, error) {
	if err := filter.Normalize(); err != nil {
		return repository.TripPage{}, err
	}
	key, desc, _ := repository.ParseSort(filter.Sort)

	m.mu.RLock()
	matched := make([]domain.TripRecord, 0)
	for _, id := range m.order {
		r := m.records[id]
		if !r.IsActive() {
			continue
		}
		if filter.RouteName != "" && !containsFold(r.RouteName, filter.RouteName) {
			continue
		}
		if filter.DriverName != "" && !containsFold(r.DriverName, filter.DriverName) {
			continue
		}
		if !filter.From.IsZero() && r.DepartureTime.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && r.DepartureTime.After(filter.To) {
			continue
		}
		matched = append(matched, *r)
	}
	m.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		less := lessBy(key, matched[i], matched[j])
		if desc {
			return lessBy(key, matched[j], matched[i])
		}
		return less
	})

	total := len(matched)
	start := filter.Offset()
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}

	return repository.NewTripPage(matched[start:end], total, filter), nil
}

func (m *MockTripRecordRepository) ListActive(ctx context.Context) ([]domain.TripRecord, error) {
	atomic.AddInt32(&m.ListActiveCallCount, 1)
	if m.ListActiveError != nil {
		return nil, m.ListActiveError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]domain.TripRecord, 0, len(m.records))
	for _, id := range m.order {
		if r := m.records[id]; r.IsActive() {
			result = append(result, *r)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].DepartureTime.After(result[j].DepartureTime)
	})
	return result, nil
}

func (m *MockTripRecordRepository) GetByID(ctx context.Context, id string) (*domain.TripRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *record
	return &copy, nil
}

func (m *MockTripRecordRepository) Create(ctx context.Context, record *domain.TripRecord) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.AddRecord(*record)
	return nil
}

func (m *MockTripRecordRepository) Update(ctx context.Context, record *domain.TripRecord) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[record.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *record
	m.records[record.ID] = &copy
	return nil
}

func (m *MockTripRecordRepository) SoftDelete(ctx context.Context, id string) error {
	atomic.AddInt32(&m.SoftDeleteCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[id]
	if !ok {
		return repository.ErrNotFound
	}
	record.Status = domain.RecordStatusInactive
	record.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MockTripRecordRepository) Ping(ctx context.Context) error {
	return m.PingError
}

// GetRecord returns a record for test assertions.
func (m *MockTripRecordRepository) GetRecord(id string) *domain.TripRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.records[id]
}

// CountRecords returns the number of stored records, any status.
func (m *MockTripRecordRepository) CountRecords() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func lessBy(key string, a, b domain.TripRecord) bool {
	switch key {
	case "routeName":
		return a.RouteName < b.RouteName
	case "driverName":
		return a.DriverName < b.DriverName
	case "amountCollected":
		return a.AmountCollected.LessThan(b.AmountCollected)
	case "createdAt":
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.DepartureTime.Before(b.DepartureTime)
}

// ──────────────────────────────────────────────
// MOCK STATISTICS CACHE
// ──────────────────────────────────────────────

// MockStatisticsCache is an in-memory StatisticsCacheInterface.
type MockStatisticsCache struct {
	mu         sync.Mutex
	summary    *domain.StatisticsSummary
	generation int64

	// Counters for verification
	GetCallCount        int32
	SetCallCount        int32
	InvalidateCallCount int32

	// Error injection
	GetError        error
	GenerationError error
	SetError        error
	InvalidateError error
}

// NewMockStatisticsCache creates a new mock statistics cache.
func NewMockStatisticsCache() *MockStatisticsCache {
	return &MockStatisticsCache{}
}

func (m *MockStatisticsCache) GetSummary(ctx context.Context) (*domain.StatisticsSummary, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.summary == nil {
		return nil, nil
	}
	copy := *m.summary
	return &copy, nil
}

func (m *MockStatisticsCache) Generation(ctx context.Context) (int64, error) {
	if m.GenerationError != nil {
		return 0, m.GenerationError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation, nil
}

func (m *MockStatisticsCache) SetSummary(ctx context.Context, summary *domain.StatisticsSummary, generation int64) (bool, error) {
	atomic.AddInt32(&m.SetCallCount, 1)
	if m.SetError != nil {
		return false, m.SetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if generation != m.generation {
		return false, nil
	}
	copy := *summary
	m.summary = &copy
	return true, nil
}

func (m *MockStatisticsCache) InvalidateSummary(ctx context.Context) error {
	atomic.AddInt32(&m.InvalidateCallCount, 1)
	if m.InvalidateError != nil {
		return m.InvalidateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	m.summary = nil
	return nil
}

// Cached reports whether a summary is stored.
func (m *MockStatisticsCache) Cached() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.summary != nil
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is an in-memory LockStoreInterface.
type MockLockStore struct {
	mu     sync.Mutex
	locks  map[string]string
	tokens int

	AcquireError error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{locks: make(map[string]string)}
}

func (m *MockLockStore) Acquire(ctx context.Context, name string, ttl time.Duration) (string, bool, error) {
	if m.AcquireError != nil {
		return "", false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.locks[name]; held {
		return "", false, nil
	}
	m.tokens++
	token := fmt.Sprintf("token-%d", m.tokens)
	m.locks[name] = token
	return token, true, nil
}

func (m *MockLockStore) Release(ctx context.Context, name, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[name] == token {
		delete(m.locks, name)
	}
	return nil
}

// Hold marks name as held by someone else.
func (m *MockLockStore) Hold(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks[name] = "other-holder"
}

// Held reports whether name is currently locked.
func (m *MockLockStore) Held(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, held := m.locks[name]
	return held
}

// Ensure mocks implement interfaces.
var (
	_ repository.TripRecordRepository = (*MockTripRecordRepository)(nil)
	_ redis.StatisticsCacheInterface  = (*MockStatisticsCache)(nil)
	_ redis.LockStoreInterface        = (*MockLockStore)(nil)
)
