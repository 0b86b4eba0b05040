package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"buscontrol/internal/domain"
	"buscontrol/internal/redis"
	"buscontrol/internal/report"
	"buscontrol/internal/repository"
)

// TripService handles trip record operations.
type TripService struct {
	repo     repository.TripRecordRepository
	cache    redis.StatisticsCacheInterface
	validate *validator.Validate
	now      func() time.Time
}

// NewTripService creates a new TripService. cache may be nil.
func NewTripService(repo repository.TripRecordRepository, cache redis.StatisticsCacheInterface) *TripService {
	validate := validator.New()
	// Text that an export could not carry verbatim is rejected on write.
	_ = validate.RegisterValidation("exportable", func(fl validator.FieldLevel) bool {
		return report.CheckText(fl.Field().String()) == nil
	})

	return &TripService{
		repo:     repo,
		cache:    cache,
		validate: validate,
		now:      time.Now,
	}
}

// RecordInput contains the writable fields of a trip record.
type RecordInput struct {
	DepartureTime   *time.Time
	RouteName       string              `validate:"required,max=100,exportable"`
	DriverName      string              `validate:"required,max=100,exportable"`
	AmountCollected *decimal.Decimal    `validate:"required"`
	Notes           string              `validate:"max=500,exportable"`
	Status          domain.RecordStatus `validate:"omitempty,oneof=activo inactivo"`
}

// List returns one page of active records.
func (s *TripService) List(ctx context.Context, filter repository.TripFilter) (repository.TripPage, error) {
	if err := filter.Normalize(); err != nil {
		return repository.TripPage{}, &ValidationError{Fields: []string{err.Error()}}
	}
	return s.repo.List(ctx, filter)
}

// ListActive returns the active record snapshot used by reports.
func (s *TripService) ListActive(ctx context.Context) ([]domain.TripRecord, error) {
	return s.repo.ListActive(ctx)
}

// Get returns an active record by ID.
func (s *TripService) Get(ctx context.Context, id string) (*domain.TripRecord, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidRecordID
	}

	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	if !record.IsActive() {
		return nil, ErrRecordNotFound
	}

	return record, nil
}

// Create validates input and persists a new active record.
func (s *TripService) Create(ctx context.Context, input RecordInput) (*domain.TripRecord, error) {
	input = normalizeInput(input)
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	departure := now
	if input.DepartureTime != nil {
		departure = input.DepartureTime.UTC()
	}
	status := input.Status
	if status == "" {
		status = domain.RecordStatusActive
	}

	record := &domain.TripRecord{
		ID:              uuid.New().String(),
		DepartureTime:   departure,
		RouteName:       input.RouteName,
		DriverName:      input.DriverName,
		AmountCollected: *input.AmountCollected,
		Notes:           input.Notes,
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("create trip record: %w", err)
	}

	s.invalidateStatistics(ctx, "create", record.ID)
	return record, nil
}

// Update replaces the mutable fields of an active record. A nil departure
// time keeps the stored one.
func (s *TripService) Update(ctx context.Context, id string, input RecordInput) (*domain.TripRecord, error) {
	record, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	input = normalizeInput(input)
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	if input.DepartureTime != nil {
		record.DepartureTime = input.DepartureTime.UTC()
	}
	record.RouteName = input.RouteName
	record.DriverName = input.DriverName
	record.AmountCollected = *input.AmountCollected
	record.Notes = input.Notes
	if input.Status != "" {
		record.Status = input.Status
	}
	record.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, record); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("update trip record: %w", err)
	}

	s.invalidateStatistics(ctx, "update", record.ID)
	return record, nil
}

// Delete soft-deletes an active record.
func (s *TripService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRecordNotFound
		}
		return fmt.Errorf("delete trip record: %w", err)
	}

	s.invalidateStatistics(ctx, "delete", id)
	return nil
}

// Ping reports whether the record store is reachable.
func (s *TripService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *TripService) validateInput(input RecordInput) error {
	var fields []string

	if err := s.validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			fields = append(fields, fieldMessage(fe))
		}
	}

	if input.AmountCollected != nil && input.AmountCollected.IsNegative() {
		fields = append(fields, "cantidadDinero: must not be negative")
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// jsonNames maps input fields to their wire names for error messages.
var jsonNames = map[string]string{
	"DepartureTime":   "fechaSalida",
	"RouteName":       "ruta",
	"DriverName":      "conductor",
	"AmountCollected": "cantidadDinero",
	"Notes":           "observaciones",
	"Status":          "estado",
}

func fieldMessage(fe validator.FieldError) string {
	name := jsonNames[fe.Field()]
	if name == "" {
		name = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return name + ": is required"
	case "max":
		return fmt.Sprintf("%s: must be at most %s characters", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s: must be one of %s", name, fe.Param())
	case "exportable":
		return name + ": contains characters that cannot be exported"
	}
	return fmt.Sprintf("%s: failed %s", name, fe.Tag())
}

// normalizeInput trims text fields and title-cases the driver name.
func normalizeInput(input RecordInput) RecordInput {
	input.RouteName = strings.TrimSpace(input.RouteName)
	input.DriverName = strings.TrimSpace(input.DriverName)
	if utf8.ValidString(input.DriverName) {
		input.DriverName = TitleCase(input.DriverName)
	}
	input.Notes = strings.TrimSpace(input.Notes)
	return input
}

// TitleCase upper-cases the first letter of every word and lower-cases the rest.
func TitleCase(s string) string {
	return cases.Title(language.Und).String(s)
}

func (s *TripService) invalidateStatistics(ctx context.Context, action, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateSummary(ctx); err != nil {
		log.Printf("[TRIP] action=%s record_id=%s msg=statistics cache invalidation failed: %v", action, id, err)
	}
}
