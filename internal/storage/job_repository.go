package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"scriba/internal/models"
)

// maxErrorLen bounds the stored error message so repeated failures
// cannot grow the database without limit.
const maxErrorLen = 1000

const jobColumns = `id, job_type, source_url, original_filename, stored_filename,
       status, model, language, error_message, created_at, updated_at`

// JobRepository is the data access layer for jobs
type JobRepository struct {
	db *DB
}

// NewJobRepository creates a new JobRepository
func NewJobRepository(db *DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new job in the queued state and assigns its id.
func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	if !models.ValidJobType(job.Type) {
		return fmt.Errorf("unknown job type %q", job.Type)
	}
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = models.JobStatusQueued
	}
	if job.Model == "" {
		job.Model = "small"
	}
	if job.Language == "" {
		job.Language = "auto"
	}
	now := time.Now()
	job.CreatedAt = now
	job.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO jobs (id, job_type, source_url, original_filename, stored_filename,
		                  status, model, language, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Type, nullable(job.SourceURL), nullable(job.OriginalFilename),
		nullable(job.StoredFilename), job.Status, job.Model, job.Language,
		formatTime(job.CreatedAt), formatTime(job.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// GetByID returns a job by id, or nil when it does not exist.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*models.Job, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	return scanJob(row)
}

// List returns jobs newest first, optionally filtered by status.
func (r *JobRepository) List(ctx context.Context, status string, limit, offset int) ([]models.Job, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT ` + jobColumns + ` FROM jobs`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// ClaimNextQueued atomically transitions the oldest queued job to
// running and returns it. The claim is a single test-and-set statement,
// so two dispatchers polling the same store can never both claim one
// job. Returns nil when the queue is empty.
func (r *JobRepository) ClaimNextQueued(ctx context.Context) (*models.Job, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE jobs
		SET status = ?, updated_at = ?
		WHERE id = (
			SELECT id FROM jobs
			WHERE status = ?
			ORDER BY created_at ASC, id ASC
			LIMIT 1
		) AND status = ?
		RETURNING `+jobColumns,
		models.JobStatusRunning, formatTime(time.Now()),
		models.JobStatusQueued, models.JobStatusQueued,
	)
	return scanJob(row)
}

// MarkDone transitions a running job to done.
func (r *JobRepository) MarkDone(ctx context.Context, id string) error {
	return r.finish(ctx, id, models.JobStatusDone, "")
}

// MarkFailed transitions a running job to failed and records the
// truncated error message.
func (r *JobRepository) MarkFailed(ctx context.Context, id string, errorMsg string) error {
	return r.finish(ctx, id, models.JobStatusFailed, truncate(errorMsg, maxErrorLen))
}

// finish writes a terminal status. The running-state guard makes done
// and failed unreachable from anything but running, so a terminal job
// can never transition again.
func (r *JobRepository) finish(ctx context.Context, id, status, errorMsg string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error_message = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		status, nullable(errorMsg), formatTime(time.Now()),
		id, models.JobStatusRunning,
	)
	if err != nil {
		return fmt.Errorf("failed to update job %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("job %s is not running", id)
	}
	return nil
}

// CountByStatus returns the number of jobs per status.
func (r *JobRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*models.Job, error) {
	var job models.Job
	var sourceURL, originalName, storedName, errorMsg sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&job.ID, &job.Type, &sourceURL, &originalName, &storedName,
		&job.Status, &job.Model, &job.Language, &errorMsg,
		&createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}

	job.SourceURL = sourceURL.String
	job.OriginalFilename = originalName.String
	job.StoredFilename = storedName.String
	job.ErrorMessage = errorMsg.String

	if job.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if job.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &job, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
