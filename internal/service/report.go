package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"

	"buscontrol/internal/domain"
	"buscontrol/internal/redis"
	"buscontrol/internal/report"
)

const (
	statisticsLock    = "estadisticas:refresh"
	statisticsLockTTL = 5 * time.Second
)

// RecordSource supplies the active record snapshot for reports.
type RecordSource interface {
	ListActive(ctx context.Context) ([]domain.TripRecord, error)
}

// Document is a rendered export ready to be served or written.
type Document struct {
	Body        []byte
	Filename    string
	ContentType string
	Records     int
}

// ReportService computes statistics and renders exports from the active records.
type ReportService struct {
	records  RecordSource
	cache    redis.StatisticsCacheInterface
	locks    redis.LockStoreInterface
	exporter *report.Exporter
	now      func() time.Time
}

// NewReportService creates a new ReportService. cache and locks may be nil,
// in which case statistics are computed on every call.
func NewReportService(records RecordSource, cache redis.StatisticsCacheInterface, locks redis.LockStoreInterface) *ReportService {
	return &ReportService{
		records:  records,
		cache:    cache,
		locks:    locks,
		exporter: report.NewExporter(),
		now:      time.Now,
	}
}

// WithClock replaces the time source of generation timestamps.
func (s *ReportService) WithClock(now func() time.Time) *ReportService {
	s.now = now
	s.exporter = report.NewExporterWithClock(now)
	return s
}

// Statistics returns the per-route summary, from cache when fresh.
func (s *ReportService) Statistics(ctx context.Context) (*domain.StatisticsSummary, error) {
	var (
		generation int64
		cacheable  bool
	)
	if s.cache != nil {
		cached, err := s.cache.GetSummary(ctx)
		if err != nil {
			log.Printf("[REPORT] action=statistics msg=cache read failed: %v", err)
		} else if cached != nil {
			return cached, nil
		}

		// Taken before the snapshot so a write landing in between is detected.
		generation, err = s.cache.Generation(ctx)
		if err != nil {
			log.Printf("[REPORT] action=statistics msg=generation read failed: %v", err)
		} else {
			cacheable = true
		}
	}

	records, err := s.records.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active records: %w", err)
	}

	seg := newrelic.FromContext(ctx).StartSegment("report/aggregate")
	summary := report.AggregateAt(records, s.now().UTC())
	seg.End()

	if cacheable {
		s.storeStatistics(ctx, &summary, generation)
	}

	log.Printf("[REPORT] action=statistics records=%d routes=%d", len(records), summary.RouteCount)
	return &summary, nil
}

// storeStatistics caches summary when this caller holds the refresh lock and
// no write has invalidated generation since.
func (s *ReportService) storeStatistics(ctx context.Context, summary *domain.StatisticsSummary, generation int64) {
	if s.locks != nil {
		token, ok, err := s.locks.Acquire(ctx, statisticsLock, statisticsLockTTL)
		if err != nil {
			log.Printf("[REPORT] action=statistics msg=lock failed: %v", err)
			return
		}
		if !ok {
			return
		}
		defer func() {
			if err := s.locks.Release(ctx, statisticsLock, token); err != nil {
				log.Printf("[REPORT] action=statistics msg=lock release failed: %v", err)
			}
		}()
	}

	stored, err := s.cache.SetSummary(ctx, summary, generation)
	if err != nil {
		log.Printf("[REPORT] action=statistics msg=cache write failed: %v", err)
		return
	}
	if !stored {
		log.Printf("[REPORT] action=statistics generation=%d msg=snapshot superseded by a write, not cached", generation)
	}
}

// ExportXML renders the active records with the named XML method.
func (s *ReportService) ExportXML(ctx context.Context, method string) (*Document, error) {
	m, err := report.ParseMethod(method)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidExportMethod, method)
	}

	records, err := s.records.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active records: %w", err)
	}

	seg := newrelic.FromContext(ctx).StartSegment("report/xml/" + string(m))
	body, err := s.exporter.Encode(m, records)
	seg.End()
	if err != nil {
		logExportFailure(m, err)
		return nil, err
	}

	log.Printf("[REPORT] action=export method=%s records=%d bytes=%d", m, len(records), len(body))
	return &Document{
		Body:        body,
		Filename:    m.Filename(),
		ContentType: report.ContentTypeXML,
		Records:     len(records),
	}, nil
}

// ExportSpreadsheet renders the active records as an XLSX workbook.
func (s *ReportService) ExportSpreadsheet(ctx context.Context) (*Document, error) {
	records, err := s.records.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active records: %w", err)
	}

	seg := newrelic.FromContext(ctx).StartSegment("report/xlsx")
	body, err := report.EncodeSpreadsheet(records)
	seg.End()
	if err != nil {
		logExportFailure(report.MethodSpreadsheet, err)
		return nil, err
	}

	log.Printf("[REPORT] action=export method=%s records=%d bytes=%d", report.MethodSpreadsheet, len(records), len(body))
	return &Document{
		Body:        body,
		Filename:    report.SpreadsheetFilename,
		ContentType: report.ContentTypeXLSX,
		Records:     len(records),
	}, nil
}

// StatisticsReport renders the statistics summary as a PDF document.
func (s *ReportService) StatisticsReport(ctx context.Context) (*Document, error) {
	summary, err := s.Statistics(ctx)
	if err != nil {
		return nil, err
	}

	seg := newrelic.FromContext(ctx).StartSegment("report/pdf")
	body, err := report.EncodeStatisticsPDF(*summary)
	seg.End()
	if err != nil {
		return nil, err
	}

	return &Document{
		Body:        body,
		Filename:    report.StatisticsReportFilename,
		ContentType: report.ContentTypePDF,
		Records:     summary.RouteCount,
	}, nil
}

func logExportFailure(m report.Method, err error) {
	var serr *report.SerializationError
	if errors.As(err, &serr) {
		log.Printf("[REPORT] action=export method=%s record_id=%s index=%d field=%s msg=%v",
			m, serr.RecordID, serr.Index, serr.Field, serr.Err)
		return
	}
	log.Printf("[REPORT] action=export method=%s msg=%v", m, err)
}
