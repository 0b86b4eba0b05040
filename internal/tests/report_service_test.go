package tests

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"buscontrol/internal/domain"
	"buscontrol/internal/report"
	"buscontrol/internal/service"
)

// ──────────────────────────────────────────────
// 2. STATISTICS AND EXPORTS
// ──────────────────────────────────────────────

var reportClock = func() time.Time { return time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC) }

func seedRecords(repo *MockTripRecordRepository) {
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	rows := []struct {
		id, route, amount string
	}{
		{"r-1", "R1", "100"},
		{"r-2", "R2", "50"},
		{"r-3", "R1", "50"},
	}
	for i, r := range rows {
		repo.AddRecord(domain.TripRecord{
			ID:              r.id,
			DepartureTime:   base.Add(time.Duration(i) * time.Hour),
			RouteName:       r.route,
			DriverName:      "Ana Gomez",
			AmountCollected: decimal.RequireFromString(r.amount),
			Status:          domain.RecordStatusActive,
			CreatedAt:       base,
			UpdatedAt:       base,
		})
	}
	repo.AddRecord(domain.TripRecord{
		ID:              "r-deleted",
		DepartureTime:   base,
		RouteName:       "R9",
		DriverName:      "Ana Gomez",
		AmountCollected: decimal.NewFromInt(1000),
		Status:          domain.RecordStatusInactive,
	})
}

func TestReportService_StatisticsIgnoresInactive(t *testing.T) {
	t.Parallel()

	repo := NewMockTripRecordRepository()
	seedRecords(repo)
	svc := service.NewReportService(repo, nil, nil).WithClock(reportClock)

	summary, err := svc.Statistics(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.RouteCount != 2 || !summary.GrandTotal.Equal(decimal.NewFromInt(200)) {
		t.Errorf("unexpected summary %+v", summary)
	}
	if summary.Routes[0].RouteName != "R1" || summary.Routes[0].AverageAmount.StringFixed(2) != "75.00" {
		t.Errorf("unexpected first route %+v", summary.Routes[0])
	}
	if !summary.GeneratedAt.Equal(reportClock()) {
		t.Errorf("unexpected generation time %s", summary.GeneratedAt)
	}
}

func TestReportService_StatisticsServedFromCache(t *testing.T) {
	t.Parallel()

	repo := NewMockTripRecordRepository()
	seedRecords(repo)
	cache := NewMockStatisticsCache()
	svc := service.NewReportService(repo, cache, NewMockLockStore())

	if _, err := svc.Statistics(context.Background()); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := svc.Statistics(context.Background()); err != nil {
		t.Fatalf("second call: %v", err)
	}

	if repo.ListActiveCallCount != 1 {
		t.Errorf("expected one store read, got %d", repo.ListActiveCallCount)
	}
	if cache.SetCallCount != 1 {
		t.Errorf("expected one cache write, got %d", cache.SetCallCount)
	}
}

func TestReportService_StatisticsSkipsCacheWriteWhenLockHeld(t *testing.T) {
	t.Parallel()

	repo := NewMockTripRecordRepository()
	seedRecords(repo)
	cache := NewMockStatisticsCache()
	locks := NewMockLockStore()
	locks.Hold("estadisticas:refresh")
	svc := service.NewReportService(repo, cache, locks)

	summary, err := svc.Statistics(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.RouteCount != 2 {
		t.Errorf("expected computed summary, got %+v", summary)
	}
	if cache.Cached() {
		t.Error("cache must not be written without the refresh lock")
	}
}

// writeDuringSnapshot runs a record write the first time the active records
// are loaded, after the snapshot has been taken.
type writeDuringSnapshot struct {
	*MockTripRecordRepository
	once  sync.Once
	write func()
}

func (s *writeDuringSnapshot) ListActive(ctx context.Context) ([]domain.TripRecord, error) {
	records, err := s.MockTripRecordRepository.ListActive(ctx)
	s.once.Do(s.write)
	return records, err
}

func TestReportService_WriteDuringRefreshIsNotMasked(t *testing.T) {
	t.Parallel()

	repo := NewMockTripRecordRepository()
	seedRecords(repo)
	cache := NewMockStatisticsCache()
	locks := NewMockLockStore()
	trips := service.NewTripService(repo, cache)

	source := &writeDuringSnapshot{MockTripRecordRepository: repo}
	source.write = func() {
		if _, err := trips.Create(context.Background(), service.RecordInput{
			RouteName:       "R3",
			DriverName:      "Eva Diaz",
			AmountCollected: amount("10"),
		}); err != nil {
			t.Errorf("concurrent write: %v", err)
		}
	}
	svc := service.NewReportService(source, cache, locks)

	first, err := svc.Statistics(context.Background())
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if first.RouteCount != 2 {
		t.Fatalf("expected the pre-write snapshot, got %+v", first)
	}
	if cache.Cached() {
		t.Error("summary from a superseded snapshot must not be cached")
	}
	if locks.Held("estadisticas:refresh") {
		t.Error("refresh lock must be released")
	}

	second, err := svc.Statistics(context.Background())
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if second.RouteCount != 3 || !second.GrandTotal.Equal(decimal.NewFromInt(210)) {
		t.Errorf("expected statistics including the write, got routes=%d total=%s", second.RouteCount, second.GrandTotal)
	}
	if !cache.Cached() {
		t.Error("expected the fresh summary to be cached")
	}
}

func TestReportService_StatisticsSkipsCacheWhenGenerationUnknown(t *testing.T) {
	t.Parallel()

	repo := NewMockTripRecordRepository()
	seedRecords(repo)
	cache := NewMockStatisticsCache()
	cache.GenerationError = errors.New("redis down")
	svc := service.NewReportService(repo, cache, NewMockLockStore())

	if _, err := svc.Statistics(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.SetCallCount != 0 || cache.Cached() {
		t.Error("summary must not be cached without a known generation")
	}
}

func TestReportService_StatisticsToleratesCacheErrors(t *testing.T) {
	t.Parallel()

	repo := NewMockTripRecordRepository()
	seedRecords(repo)
	cache := NewMockStatisticsCache()
	cache.GetError = errors.New("redis down")
	cache.SetError = errors.New("redis down")
	svc := service.NewReportService(repo, cache, nil)

	summary, err := svc.Statistics(context.Background())
	if err != nil {
		t.Fatalf("cache errors must not fail statistics: %v", err)
	}
	if summary.RouteCount != 2 {
		t.Errorf("unexpected summary %+v", summary)
	}
}

func TestReportService_StatisticsEmptyStore(t *testing.T) {
	t.Parallel()

	svc := service.NewReportService(NewMockTripRecordRepository(), nil, nil)

	summary, err := svc.Statistics(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.RouteCount != 0 || !summary.GrandTotal.IsZero() || len(summary.Routes) != 0 {
		t.Errorf("expected empty summary, got %+v", summary)
	}
}

func TestReportService_StoreErrorPropagates(t *testing.T) {
	t.Parallel()

	repo := NewMockTripRecordRepository()
	repo.ListActiveError = errors.New("connection refused")
	svc := service.NewReportService(repo, nil, nil)

	if _, err := svc.Statistics(context.Background()); !errors.Is(err, repo.ListActiveError) {
		t.Errorf("expected wrapped store error, got %v", err)
	}
	if _, err := svc.ExportXML(context.Background(), "structural"); !errors.Is(err, repo.ListActiveError) {
		t.Errorf("expected wrapped store error, got %v", err)
	}
}

func TestReportService_ExportXML(t *testing.T) {
	t.Parallel()

	repo := NewMockTripRecordRepository()
	seedRecords(repo)
	svc := service.NewReportService(repo, nil, nil).WithClock(reportClock)

	tests := []struct {
		method   string
		filename string
		marker   string
	}{
		{"declarative", "rutas_buses_metodo1.xml", "<generadoPor>Sistema de Control de Buses v1.0</generadoPor>"},
		{"structural", "rutas_buses_metodo2.xml", `<ruta id="r-3" numero="1">`},
	}

	for _, tt := range tests {
		doc, err := svc.ExportXML(context.Background(), tt.method)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.method, err)
		}
		if doc.Filename != tt.filename || doc.ContentType != report.ContentTypeXML {
			t.Errorf("%s: unexpected document metadata %s %s", tt.method, doc.Filename, doc.ContentType)
		}
		if doc.Records != 3 {
			t.Errorf("%s: expected 3 records, got %d", tt.method, doc.Records)
		}
		if !bytes.Contains(doc.Body, []byte(tt.marker)) {
			t.Errorf("%s: expected %s in\n%s", tt.method, tt.marker, doc.Body)
		}
		if bytes.Contains(doc.Body, []byte("r-deleted")) {
			t.Errorf("%s: inactive record exported", tt.method)
		}
	}
}

func TestReportService_ExportXMLUnknownMethod(t *testing.T) {
	t.Parallel()

	repo := NewMockTripRecordRepository()
	svc := service.NewReportService(repo, nil, nil)

	_, err := svc.ExportXML(context.Background(), "yaml")
	if !errors.Is(err, service.ErrInvalidExportMethod) {
		t.Errorf("expected ErrInvalidExportMethod, got %v", err)
	}
	if repo.ListActiveCallCount != 0 {
		t.Error("store must not be read for an unknown method")
	}
}

func TestReportService_ExportXMLSerializationFailure(t *testing.T) {
	t.Parallel()

	repo := NewMockTripRecordRepository()
	seedRecords(repo)
	repo.AddRecord(domain.TripRecord{
		ID:              "r-bad",
		RouteName:       "R1",
		DriverName:      "Ana Gomez",
		AmountCollected: decimal.NewFromInt(1),
		Status:          domain.RecordStatusActive,
	})
	svc := service.NewReportService(repo, nil, nil)

	doc, err := svc.ExportXML(context.Background(), "declarative")
	if !report.IsSerialization(err) {
		t.Fatalf("expected serialization error, got %v", err)
	}
	if doc != nil {
		t.Error("expected no document on failure")
	}
}

func TestReportService_SpreadsheetAndPDF(t *testing.T) {
	t.Parallel()

	repo := NewMockTripRecordRepository()
	seedRecords(repo)
	svc := service.NewReportService(repo, nil, nil)

	xlsx, err := svc.ExportSpreadsheet(context.Background())
	if err != nil {
		t.Fatalf("spreadsheet: %v", err)
	}
	if xlsx.Filename != report.SpreadsheetFilename || !bytes.HasPrefix(xlsx.Body, []byte("PK")) {
		t.Errorf("unexpected spreadsheet document %s (%d bytes)", xlsx.Filename, len(xlsx.Body))
	}

	pdf, err := svc.StatisticsReport(context.Background())
	if err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if pdf.ContentType != report.ContentTypePDF || !bytes.HasPrefix(pdf.Body, []byte("%PDF")) {
		t.Errorf("unexpected pdf document %s", pdf.ContentType)
	}
}
