// Package postgres implements the Ledger interface using PostgreSQL, for
// deployments that want job records to survive a restart. The record shape
// matches the in-memory ledger: one row per job id.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"statplane/internal/ledger"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var terminalStatuses = []string{
	string(ledger.StatusSucceeded),
	string(ledger.StatusFailed),
	string(ledger.StatusCancelled),
}

// Store is the PostgreSQL-backed ledger.
type Store struct {
	db       *sql.DB
	capacity int
}

// New connects to PostgreSQL. capacity <= 0 means unbounded.
func New(ctx context.Context, databaseURL string, capacity int) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{db: db, capacity: capacity}, nil
}

// DB exposes the underlying connection, for migrations.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the record for the id, or ledger.ErrNotFound.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*ledger.JobRecord, error) {
	query := `SELECT id, tool, params, status, progress, message, submitted_at, created_at,
		started_at, finished_at, full_result, summary, error_code, error_message
		FROM jobs WHERE id = $1`

	record, err := scanRecord(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Upsert inserts or replaces the record. The WHERE clause on the conflict
// update is the terminal guard: a row already in a different terminal
// status is left untouched and the write fails with ledger.ErrTerminal.
func (s *Store) Upsert(ctx context.Context, record *ledger.JobRecord) error {
	params, err := json.Marshal(record.Spec.Params)
	if err != nil {
		return fmt.Errorf("failed to marshal params: %w", err)
	}
	fullResult, err := marshalNullable(record.FullResult)
	if err != nil {
		return fmt.Errorf("failed to marshal full result: %w", err)
	}
	summary, err := marshalNullable(record.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	var errCode, errMessage *string
	if record.Error != nil {
		code := string(record.Error.Code)
		errCode = &code
		errMessage = &record.Error.Message
	}

	query := `INSERT INTO jobs
		(id, tool, params, status, progress, message, submitted_at, created_at,
		 started_at, finished_at, full_result, summary, error_code, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			progress = EXCLUDED.progress,
			message = EXCLUDED.message,
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at,
			full_result = EXCLUDED.full_result,
			summary = EXCLUDED.summary,
			error_code = EXCLUDED.error_code,
			error_message = EXCLUDED.error_message
		WHERE jobs.status NOT IN ('succeeded', 'failed', 'cancelled')
			OR jobs.status = EXCLUDED.status`

	result, err := s.db.ExecContext(ctx, query,
		record.ID, record.Spec.Tool, params, string(record.Status),
		record.Progress, record.Message, record.Spec.SubmittedAt, record.CreatedAt,
		record.StartedAt, record.FinishedAt, fullResult, summary, errCode, errMessage,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ledger.ErrTerminal
	}

	if record.Status.Terminal() {
		return s.evict(ctx)
	}
	return nil
}

// List returns records matching the filter, newest submissions first.
func (s *Store) List(ctx context.Context, filter ledger.Filter) ([]*ledger.JobRecord, error) {
	statuses := make([]string, 0, len(filter.Statuses))
	for _, status := range filter.Statuses {
		statuses = append(statuses, string(status))
	}

	query := `SELECT id, tool, params, status, progress, message, submitted_at, created_at,
		started_at, finished_at, full_result, summary, error_code, error_message
		FROM jobs
		WHERE cardinality($1::text[]) = 0 OR status = ANY($1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	limit := filter.Limit
	if limit <= 0 {
		limit = -1 // Postgres: LIMIT ALL
	}

	rows, err := s.db.QueryContext(ctx, query, pq.Array(statuses), limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*ledger.JobRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// evict deletes the oldest terminal rows until the table is back under
// capacity. Pending and running rows are never deleted.
func (s *Store) evict(ctx context.Context) error {
	if s.capacity <= 0 {
		return nil
	}
	query := `DELETE FROM jobs WHERE id IN (
		SELECT id FROM jobs
		WHERE status = ANY($1)
		ORDER BY created_at ASC
		LIMIT GREATEST(0, (SELECT COUNT(*) FROM jobs) - $2)
	)`
	_, err := s.db.ExecContext(ctx, query, pq.Array(terminalStatuses), s.capacity)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*ledger.JobRecord, error) {
	var (
		record     ledger.JobRecord
		status     string
		params     []byte
		fullResult []byte
		summary    []byte
		errCode    sql.NullString
		errMessage sql.NullString
		startedAt  sql.NullTime
		finishedAt sql.NullTime
	)

	err := row.Scan(
		&record.ID, &record.Spec.Tool, &params, &status,
		&record.Progress, &record.Message, &record.Spec.SubmittedAt, &record.CreatedAt,
		&startedAt, &finishedAt, &fullResult, &summary, &errCode, &errMessage,
	)
	if err != nil {
		return nil, err
	}

	record.Status = ledger.Status(status)
	if len(params) > 0 {
		if err := json.Unmarshal(params, &record.Spec.Params); err != nil {
			return nil, fmt.Errorf("failed to unmarshal params: %w", err)
		}
	}
	if len(fullResult) > 0 {
		record.FullResult = &ledger.FullResult{}
		if err := json.Unmarshal(fullResult, record.FullResult); err != nil {
			return nil, fmt.Errorf("failed to unmarshal full result: %w", err)
		}
	}
	if len(summary) > 0 {
		record.Summary = &ledger.Summary{}
		if err := json.Unmarshal(summary, record.Summary); err != nil {
			return nil, fmt.Errorf("failed to unmarshal summary: %w", err)
		}
	}
	if errCode.Valid {
		record.Error = &ledger.JobError{
			Code:    ledger.ErrorCode(errCode.String),
			Message: errMessage.String,
		}
	}
	if startedAt.Valid {
		t := startedAt.Time
		record.StartedAt = &t
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		record.FinishedAt = &t
	}
	return &record, nil
}

func marshalNullable(v any) ([]byte, error) {
	switch val := v.(type) {
	case *ledger.FullResult:
		if val == nil {
			return nil, nil
		}
	case *ledger.Summary:
		if val == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}
