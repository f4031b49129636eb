package podcast

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store is the durable record of every generation job. Implementations must
// tolerate concurrent access from independent job ids; a single job's record
// only ever has one writer (its own pipeline task).
type Store interface {
	Put(ctx context.Context, job *Job) error
	Get(ctx context.Context, jobID string) (*Job, error)
	Update(ctx context.Context, jobID string, update Update) error
	Delete(ctx context.Context, jobID string) error
	List(ctx context.Context, filter Filter) ([]Job, error)
}

// Filter narrows a List call. Cursor-based pagination orders by
// (created_at, job_id) descending.
type Filter struct {
	Status   string
	PageSize int
	Cursor   *Cursor
}

// Cursor marks the position of the last job returned by a previous page.
type Cursor struct {
	CreatedAt time.Time
	JobID     string
}

// SQLStore persists jobs through sqlx. Timestamps are stored as RFC 3339
// text and document ids as a JSON array so the schema behaves identically on
// PostgreSQL and SQLite.
type SQLStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewSQLStore creates a store on an open database handle.
func NewSQLStore(db *sqlx.DB, logger *slog.Logger) *SQLStore {
	return &SQLStore{db: db, logger: logger}
}

const schema = `
CREATE TABLE IF NOT EXISTS podcasts (
	job_id           TEXT PRIMARY KEY,
	document_ids     TEXT NOT NULL,
	target_length    TEXT NOT NULL,
	status           TEXT NOT NULL,
	stage            TEXT NOT NULL,
	progress         INTEGER NOT NULL DEFAULT 0,
	script_path      TEXT,
	audio_path       TEXT,
	duration_seconds REAL,
	created_at       TEXT NOT NULL,
	completed_at     TEXT,
	failed_at        TEXT,
	error_message    TEXT
)`

// EnsureSchema creates the podcasts table if it does not exist.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create podcasts table: %w", err)
	}
	return nil
}

type jobRow struct {
	JobID           string          `db:"job_id"`
	DocumentIDs     string          `db:"document_ids"`
	TargetLength    string          `db:"target_length"`
	Status          string          `db:"status"`
	Stage           string          `db:"stage"`
	Progress        int             `db:"progress"`
	ScriptPath      sql.NullString  `db:"script_path"`
	AudioPath       sql.NullString  `db:"audio_path"`
	DurationSeconds sql.NullFloat64 `db:"duration_seconds"`
	CreatedAt       string          `db:"created_at"`
	CompletedAt     sql.NullString  `db:"completed_at"`
	FailedAt        sql.NullString  `db:"failed_at"`
	ErrorMessage    sql.NullString  `db:"error_message"`
}

const jobColumns = `job_id, document_ids, target_length, status, stage, progress,
	script_path, audio_path, duration_seconds,
	created_at, completed_at, failed_at, error_message`

// Put inserts a new job record.
func (s *SQLStore) Put(ctx context.Context, job *Job) error {
	docIDs, err := json.Marshal(job.DocumentIDs)
	if err != nil {
		return fmt.Errorf("failed to encode document ids: %w", err)
	}

	query := s.db.Rebind(`
		INSERT INTO podcasts (` + jobColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err = s.db.ExecContext(ctx, query,
		job.ID,
		string(docIDs),
		job.TargetLength,
		job.Status,
		job.Stage,
		job.Progress,
		job.ScriptPath,
		job.AudioPath,
		job.DurationSeconds,
		formatTime(job.CreatedAt),
		formatTimePtr(job.CompletedAt),
		formatTimePtr(job.FailedAt),
		job.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}

	s.logger.Info("Job record created",
		slog.String("job_id", job.ID),
		slog.String("status", job.Status),
	)

	return nil
}

// Get retrieves one job, returning ErrJobNotFound when it does not exist.
func (s *SQLStore) Get(ctx context.Context, jobID string) (*Job, error) {
	query := s.db.Rebind(`SELECT ` + jobColumns + ` FROM podcasts WHERE job_id = ?`)

	var row jobRow
	if err := s.db.GetContext(ctx, &row, query, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return rowToJob(&row)
}

// Update applies a partial mutation to a job record.
func (s *SQLStore) Update(ctx context.Context, jobID string, update Update) error {
	sets := make([]string, 0, 8)
	args := make([]interface{}, 0, 8)

	appendSet := func(column string, value interface{}) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if update.Status != nil {
		appendSet("status", *update.Status)
	}
	if update.Stage != nil {
		appendSet("stage", *update.Stage)
	}
	if update.Progress != nil {
		appendSet("progress", *update.Progress)
	}
	if update.ScriptPath != nil {
		appendSet("script_path", *update.ScriptPath)
	}
	if update.AudioPath != nil {
		appendSet("audio_path", *update.AudioPath)
	}
	if update.DurationSeconds != nil {
		appendSet("duration_seconds", *update.DurationSeconds)
	}
	if update.CompletedAt != nil {
		appendSet("completed_at", formatTime(*update.CompletedAt))
	}
	if update.FailedAt != nil {
		appendSet("failed_at", formatTime(*update.FailedAt))
	}
	if update.ErrorMessage != nil {
		appendSet("error_message", *update.ErrorMessage)
	}

	if len(sets) == 0 {
		return nil
	}

	args = append(args, jobID)
	query := s.db.Rebind("UPDATE podcasts SET " + strings.Join(sets, ", ") + " WHERE job_id = ?")

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrJobNotFound
	}

	return nil
}

// Delete removes a job record. Deleting an unknown id is not an error.
func (s *SQLStore) Delete(ctx context.Context, jobID string) error {
	query := s.db.Rebind(`DELETE FROM podcasts WHERE job_id = ?`)
	if _, err := s.db.ExecContext(ctx, query, jobID); err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}

	s.logger.Info("Job record deleted", slog.String("job_id", jobID))
	return nil
}

// List returns jobs newest first. It fetches one row beyond PageSize so the
// caller can detect whether another page exists.
func (s *SQLStore) List(ctx context.Context, filter Filter) ([]Job, error) {
	query := `SELECT ` + jobColumns + ` FROM podcasts WHERE 1=1`
	args := []interface{}{}

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}

	if filter.Cursor != nil {
		query += " AND (created_at, job_id) < (?, ?)"
		args = append(args, formatTime(filter.Cursor.CreatedAt), filter.Cursor.JobID)
	}

	query += " ORDER BY created_at DESC, job_id DESC LIMIT ?"
	args = append(args, filter.PageSize+1)

	var rows []jobRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	jobs := make([]Job, 0, len(rows))
	for i := range rows {
		job, err := rowToJob(&rows[i])
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}

	return jobs, nil
}

func rowToJob(row *jobRow) (*Job, error) {
	var docIDs []string
	if err := json.Unmarshal([]byte(row.DocumentIDs), &docIDs); err != nil {
		return nil, fmt.Errorf("failed to decode document ids for job %s: %w", row.JobID, err)
	}

	createdAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at for job %s: %w", row.JobID, err)
	}

	job := &Job{
		ID:           row.JobID,
		DocumentIDs:  docIDs,
		TargetLength: row.TargetLength,
		Status:       row.Status,
		Stage:        row.Stage,
		Progress:     row.Progress,
		CreatedAt:    createdAt,
	}

	if row.ScriptPath.Valid {
		job.ScriptPath = String(row.ScriptPath.String)
	}
	if row.AudioPath.Valid {
		job.AudioPath = String(row.AudioPath.String)
	}
	if row.DurationSeconds.Valid {
		job.DurationSeconds = Float(row.DurationSeconds.Float64)
	}
	if row.ErrorMessage.Valid {
		job.ErrorMessage = String(row.ErrorMessage.String)
	}

	if row.CompletedAt.Valid {
		t, err := parseTime(row.CompletedAt.String)
		if err != nil {
			return nil, fmt.Errorf("invalid completed_at for job %s: %w", row.JobID, err)
		}
		job.CompletedAt = Time(t)
	}
	if row.FailedAt.Valid {
		t, err := parseTime(row.FailedAt.String)
		if err != nil {
			return nil, fmt.Errorf("invalid failed_at for job %s: %w", row.JobID, err)
		}
		job.FailedAt = Time(t)
	}

	return job, nil
}

// timeLayout keeps a fixed number of fractional digits so the stored text
// sorts lexicographically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
