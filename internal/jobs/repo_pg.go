package jobs

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const jobColumns = `
id, user_id, job_type, status, original_file_name, original_file_url, original_file_key,
mime_type, file_size, jsonl_url, jsonl_file_key, error_message, user_query,
custom_instructions, created_at, updated_at, completed_at`

// Create inserts a new pending job and returns its generated id.
func (r *PGRepo) Create(ctx context.Context, job Job) (int64, error) {
	const query = `
INSERT INTO jobs (
	user_id, job_type, status, original_file_name, original_file_url, original_file_key,
	mime_type, file_size, user_query, custom_instructions, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id`
	var id int64
	err := r.DB.QueryRowContext(ctx, query,
		job.UserID,
		job.JobType,
		job.Status,
		job.OriginalFileName,
		nullString(job.OriginalFileURL),
		nullString(job.OriginalFileKey),
		nullString(job.MimeType),
		job.FileSize,
		nullString(job.UserQuery),
		nullString(job.CustomInstructions),
		job.CreatedAt,
		job.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetByID returns a job by id.
func (r *PGRepo) GetByID(ctx context.Context, id int64) (Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1 LIMIT 1`
	job, err := scanJob(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	return job, err
}

// ListByUser returns a user's jobs, newest first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectJobs(rows)
}

// ListAll returns jobs across all users, newest first.
func (r *PGRepo) ListAll(ctx context.Context, limit, offset int) ([]Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectJobs(rows)
}

// MarkProcessing moves a pending job to processing.
func (r *PGRepo) MarkProcessing(ctx context.Context, id int64) error {
	const query = `
UPDATE jobs SET status = $2, updated_at = $3
WHERE id = $1 AND status = $4`
	res, err := r.DB.ExecContext(ctx, query, id, StatusProcessing, time.Now().UTC(), StatusPending)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// MarkCompleted finishes a job with its output artifact. Terminal rows are
// never touched.
func (r *PGRepo) MarkCompleted(ctx context.Context, id int64, jsonlURL, jsonlKey string, completedAt time.Time) error {
	const query = `
UPDATE jobs SET status = $2, jsonl_url = $3, jsonl_file_key = $4, completed_at = $5, updated_at = $5
WHERE id = $1 AND status IN ($6, $7)`
	res, err := r.DB.ExecContext(ctx, query, id, StatusCompleted, jsonlURL, jsonlKey, completedAt, StatusPending, StatusProcessing)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// MarkFailed finishes a job with an error message. Terminal rows are never
// touched, and completed_at stays NULL: it records success time only.
func (r *PGRepo) MarkFailed(ctx context.Context, id int64, errorMessage string, failedAt time.Time) error {
	const query = `
UPDATE jobs SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1 AND status IN ($5, $6)`
	res, err := r.DB.ExecContext(ctx, query, id, StatusFailed, errorMessage, failedAt, StatusPending, StatusProcessing)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateQuery stores a user's query and generated instructions. The update is
// owner scoped.
func (r *PGRepo) UpdateQuery(ctx context.Context, id int64, userID, userQuery, customInstructions string) error {
	const query = `
UPDATE jobs SET user_query = $3, custom_instructions = $4, updated_at = $5
WHERE id = $1 AND user_id = $2`
	res, err := r.DB.ExecContext(ctx, query, id, userID, userQuery, customInstructions, time.Now().UTC())
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (Job, error) {
	var j Job
	var fileURL, fileKey, mimeType, jsonlURL, jsonlKey, errMsg, userQuery, custom sql.NullString
	var fileSize sql.NullInt64
	var completedAt sql.NullTime
	err := row.Scan(
		&j.ID,
		&j.UserID,
		&j.JobType,
		&j.Status,
		&j.OriginalFileName,
		&fileURL,
		&fileKey,
		&mimeType,
		&fileSize,
		&jsonlURL,
		&jsonlKey,
		&errMsg,
		&userQuery,
		&custom,
		&j.CreatedAt,
		&j.UpdatedAt,
		&completedAt,
	)
	if err != nil {
		return Job{}, err
	}
	j.OriginalFileURL = fileURL.String
	j.OriginalFileKey = fileKey.String
	j.MimeType = mimeType.String
	j.FileSize = fileSize.Int64
	j.JSONLURL = jsonlURL.String
	j.JSONLFileKey = jsonlKey.String
	j.ErrorMessage = errMsg.String
	j.UserQuery = userQuery.String
	j.CustomInstructions = custom.String
	if completedAt.Valid {
		t := completedAt.Time
		j.CompletedAt = &t
	}
	return j, nil
}

func collectJobs(rows *sql.Rows) ([]Job, error) {
	var out []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}
