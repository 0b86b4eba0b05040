package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"buscontrol/internal/domain"
	"buscontrol/internal/repository"
)

const tripColumns = `id, departure_time, route_name, driver_name, amount_collected, notes, status, created_at, updated_at`

// sortColumns maps listing sort keys to columns.
var sortColumns = map[string]string{
	"departureTime":   "departure_time",
	"routeName":       "route_name",
	"driverName":      "driver_name",
	"amountCollected": "amount_collected",
	"createdAt":       "created_at",
}

// TripRecordRepository is a PostgreSQL implementation of repository.TripRecordRepository.
type TripRecordRepository struct {
	db *sql.DB
	q  Querier
}

// NewTripRecordRepository creates a new PostgreSQL trip record repository.
func NewTripRecordRepository(db *sql.DB) *TripRecordRepository {
	return &TripRecordRepository{db: db, q: db}
}

// NewTripRecordRepositoryWithTx creates a trip record repository using a transaction.
func NewTripRecordRepositoryWithTx(tx *sql.Tx) *TripRecordRepository {
	return &TripRecordRepository{q: tx}
}

// List returns one page of active records matching the filter.
func (r *TripRecordRepository) List(ctx context.Context, filter repository.TripFilter) (repository.TripPage, error) {
	if err := filter.Normalize(); err != nil {
		return repository.TripPage{}, err
	}

	where, args := filterClause(filter)
	order, err := orderClause(filter.Sort)
	if err != nil {
		return repository.TripPage{}, err
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM trip_records ` + where
	if err := r.q.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return repository.TripPage{}, fmt.Errorf("count trip records: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM trip_records %s %s LIMIT $%d OFFSET $%d`,
		tripColumns, where, order, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset())

	records, err := r.query(ctx, query, args...)
	if err != nil {
		return repository.TripPage{}, err
	}

	return repository.NewTripPage(records, total, filter), nil
}

// ListActive returns every active record ordered by departure time descending.
func (r *TripRecordRepository) ListActive(ctx context.Context) ([]domain.TripRecord, error) {
	query := `SELECT ` + tripColumns + `
		FROM trip_records
		WHERE status = $1
		ORDER BY departure_time DESC, id ASC`

	return r.query(ctx, query, domain.RecordStatusActive)
}

// GetByID retrieves a record regardless of status.
func (r *TripRecordRepository) GetByID(ctx context.Context, id string) (*domain.TripRecord, error) {
	query := `SELECT ` + tripColumns + ` FROM trip_records WHERE id = $1`

	record, err := scanRecord(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return record, nil
}

// Create persists a new record.
func (r *TripRecordRepository) Create(ctx context.Context, record *domain.TripRecord) error {
	query := `
		INSERT INTO trip_records (` + tripColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.q.ExecContext(ctx, query,
		record.ID,
		record.DepartureTime,
		record.RouteName,
		record.DriverName,
		record.AmountCollected,
		nullString(record.Notes),
		record.Status,
		record.CreatedAt,
		record.UpdatedAt,
	)

	return err
}

// Update replaces the mutable fields of an existing record.
func (r *TripRecordRepository) Update(ctx context.Context, record *domain.TripRecord) error {
	query := `
		UPDATE trip_records
		SET departure_time = $1, route_name = $2, driver_name = $3, amount_collected = $4,
			notes = $5, status = $6, updated_at = $7
		WHERE id = $8
	`

	result, err := r.q.ExecContext(ctx, query,
		record.DepartureTime,
		record.RouteName,
		record.DriverName,
		record.AmountCollected,
		nullString(record.Notes),
		record.Status,
		record.UpdatedAt,
		record.ID,
	)
	if err != nil {
		return err
	}

	return expectAffected(result)
}

// SoftDelete marks a record inactive.
func (r *TripRecordRepository) SoftDelete(ctx context.Context, id string) error {
	query := `UPDATE trip_records SET status = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, domain.RecordStatusInactive, id)
	if err != nil {
		return err
	}

	return expectAffected(result)
}

// Ping checks the database is reachable.
func (r *TripRecordRepository) Ping(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	return r.db.PingContext(ctx)
}

func (r *TripRecordRepository) query(ctx context.Context, query string, args ...any) ([]domain.TripRecord, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.TripRecord, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}

	return records, rows.Err()
}

func scanRecord(row rowScanner) (*domain.TripRecord, error) {
	var record domain.TripRecord
	var notes sql.NullString

	if err := row.Scan(
		&record.ID,
		&record.DepartureTime,
		&record.RouteName,
		&record.DriverName,
		&record.AmountCollected,
		&notes,
		&record.Status,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if notes.Valid {
		record.Notes = notes.String
	}

	return &record, nil
}

// filterClause builds the WHERE clause for a listing. Only active records are listed.
func filterClause(f repository.TripFilter) (string, []any) {
	conds := []string{"status = $1"}
	args := []any{domain.RecordStatusActive}

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.RouteName != "" {
		add("route_name ILIKE $%d", "%"+escapeLike(f.RouteName)+"%")
	}
	if f.DriverName != "" {
		add("driver_name ILIKE $%d", "%"+escapeLike(f.DriverName)+"%")
	}
	if !f.From.IsZero() {
		add("departure_time >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("departure_time <= $%d", f.To)
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}

func orderClause(sort string) (string, error) {
	key, desc, err := repository.ParseSort(sort)
	if err != nil {
		return "", err
	}
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	return fmt.Sprintf("ORDER BY %s %s, id ASC", sortColumns[key], dir), nil
}

// Ensure TripRecordRepository implements repository.TripRecordRepository.
var _ repository.TripRecordRepository = (*TripRecordRepository)(nil)
