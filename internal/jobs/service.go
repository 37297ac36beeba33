package jobs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"jsonlify-backend/internal/convert"
	"jsonlify-backend/internal/instructions"
	"jsonlify-backend/internal/shared/auth"
	"jsonlify-backend/internal/shared/metrics"
	"jsonlify-backend/internal/shared/storage/artifact"
	"jsonlify-backend/internal/shared/telemetry"
)

const jsonlContentType = "application/x-ndjson"

// Dispatcher hands a job id to a background worker. When nil, the service
// processes jobs in-process on a goroutine.
type Dispatcher interface {
	Dispatch(ctx context.Context, jobID int64) error
}

// Identity is the caller on whose behalf an operation runs.
type Identity struct {
	UserID string
	Role   string
}

func (i Identity) isAdmin() bool {
	return i.Role == auth.RoleAdmin
}

// Service owns the job lifecycle.
type Service struct {
	Repo         Repo
	Store        artifact.Store
	Transcriber  convert.Transcriber
	Instructions *instructions.Generator
	Dispatcher   Dispatcher
}

// CreateInput is everything needed to register a conversion job.
type CreateInput struct {
	UserID    string
	JobType   string
	FileName  string
	FileKey   string
	FileURL   string
	MimeType  string
	FileSize  int64
	UserQuery string
}

// Create persists a pending job, kicks off processing, and returns
// immediately. Callers poll job status to observe the outcome.
func (s *Service) Create(ctx context.Context, input CreateInput) (Job, error) {
	jobType, ok := ParseType(input.JobType)
	if !ok {
		return Job{}, fmt.Errorf("%w: unknown job type %q", ErrInvalidInput, input.JobType)
	}
	if strings.TrimSpace(input.UserID) == "" {
		return Job{}, fmt.Errorf("%w: missing user", ErrInvalidInput)
	}
	if strings.TrimSpace(input.FileKey) == "" {
		return Job{}, fmt.Errorf("%w: missing file key", ErrInvalidInput)
	}
	if strings.TrimSpace(input.FileName) == "" {
		return Job{}, fmt.Errorf("%w: missing file name", ErrInvalidInput)
	}

	now := time.Now().UTC()
	job := Job{
		UserID:           input.UserID,
		JobType:          jobType,
		Status:           StatusPending,
		OriginalFileName: input.FileName,
		OriginalFileURL:  input.FileURL,
		OriginalFileKey:  input.FileKey,
		MimeType:         input.MimeType,
		FileSize:         input.FileSize,
		UserQuery:        strings.TrimSpace(input.UserQuery),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if job.UserQuery != "" && s.Instructions != nil {
		job.CustomInstructions = s.Instructions.Generate(ctx, job.UserQuery, string(job.JobType), job.OriginalFileName)
	}

	id, err := s.Repo.Create(ctx, job)
	if err != nil {
		return Job{}, fmt.Errorf("create job: %w", err)
	}
	job.ID = id

	s.dispatch(ctx, id)
	return job, nil
}

// dispatch hands the job to the queue when one is configured, otherwise runs
// it on a goroutine. Dispatch failures fall back to in-process work so a
// pending job is never stranded at creation time.
func (s *Service) dispatch(ctx context.Context, id int64) {
	if s.Dispatcher != nil {
		err := s.Dispatcher.Dispatch(ctx, id)
		if err == nil {
			return
		}
		telemetry.Error("job.dispatch_failed", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"job_id":     id,
			"error":      err.Error(),
		})
	}
	go s.processAsync(backgroundWithRequestID(ctx), id)
}

func (s *Service) processAsync(ctx context.Context, id int64) {
	defer func() {
		if r := recover(); r != nil {
			s.markFailed(ctx, id, fmt.Errorf("panic: %v", r))
		}
	}()
	_ = s.Process(ctx, id)
}

// Process runs one job to a terminal state. Safe to call more than once for
// the same id: the pending guard makes redeliveries no-ops.
func (s *Service) Process(ctx context.Context, id int64) error {
	startedAt := time.Now().UTC()

	if err := s.Repo.MarkProcessing(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			telemetry.Warn("job.not_pending", map[string]any{
				"request_id": requestIDFromContext(ctx),
				"job_id":     id,
			})
			return nil
		}
		s.markFailed(ctx, id, fmt.Errorf("set processing: %w", err))
		return err
	}
	metrics.IncJobStarted()

	job, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		s.markFailed(ctx, id, fmt.Errorf("job lookup: %w", err))
		return err
	}
	telemetry.Info("job.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"user_id":           job.UserID,
		"job_id":            job.ID,
		"job_type":          job.JobType,
		"status":            StatusProcessing,
		"status_transition": "pending->processing",
	})

	jsonl, err := s.convert(ctx, job)
	if err != nil {
		s.markFailed(ctx, id, err)
		return err
	}

	key := fmt.Sprintf("jobs/%d/%s.jsonl", id, uuid.NewString())
	ref, err := s.Store.Put(ctx, key, jsonlContentType, strings.NewReader(jsonl))
	if err != nil {
		s.markFailed(ctx, id, fmt.Errorf("store jsonl: %w", err))
		return err
	}

	completedAt := time.Now().UTC()
	if err := s.Repo.MarkCompleted(ctx, id, ref.URL, ref.Key, completedAt); err != nil {
		// The row went terminal underneath us; drop the orphan artifact.
		_ = s.Store.Delete(ctx, ref.Key)
		if !errors.Is(err, ErrNotFound) {
			s.markFailed(ctx, id, fmt.Errorf("set completed: %w", err))
		}
		return err
	}

	metrics.IncJobCompleted()
	metrics.ObserveJobDurationMs(float64(completedAt.Sub(startedAt).Milliseconds()))
	telemetry.Info("job.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"user_id":           job.UserID,
		"job_id":            job.ID,
		"job_type":          job.JobType,
		"status":            StatusCompleted,
		"status_transition": "processing->completed",
		"jsonl_key":         ref.Key,
	})
	return nil
}

func (s *Service) convert(ctx context.Context, job Job) (string, error) {
	reader, err := s.Store.Open(ctx, job.OriginalFileKey)
	if err != nil {
		return "", fmt.Errorf("open original file: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read original file: %w", err)
	}

	switch job.JobType {
	case TypeAudio:
		if s.Transcriber == nil {
			return "", errors.New("missing transcription client")
		}
		return convert.ConvertAudio(ctx, s.Transcriber, bytes.NewReader(data), job.OriginalFileName)
	case TypeDocument:
		mime := convert.NormalizeMimeType(job.MimeType, job.OriginalFileName, data)
		return convert.ConvertDocument(ctx, data, mime)
	case TypeSlide:
		mime := convert.NormalizeMimeType(job.MimeType, job.OriginalFileName, data)
		return convert.ConvertSlides(ctx, data, mime)
	default:
		return "", fmt.Errorf("unknown job type %q", job.JobType)
	}
}

func (s *Service) markFailed(ctx context.Context, id int64, cause error) {
	msg := sanitizeError(cause)
	if msg == "" {
		msg = "Unknown error"
	}
	if err := s.Repo.MarkFailed(context.Background(), id, msg, time.Now().UTC()); err != nil {
		telemetry.Error("job.mark_failed_error", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"job_id":     id,
			"error":      err.Error(),
		})
		return
	}
	metrics.IncJobFailed()
	telemetry.Error("job.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"job_id":            id,
		"status":            StatusFailed,
		"status_transition": "processing->failed",
		"error":             msg,
	})
}

// Get returns one job. Owners always see their jobs; admins may read any.
func (s *Service) Get(ctx context.Context, ident Identity, id int64) (Job, error) {
	job, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Job{}, err
	}
	if job.UserID != ident.UserID && !ident.isAdmin() {
		return Job{}, ErrUnauthorized
	}
	return job, nil
}

// List returns the caller's jobs, or every user's jobs for admins.
func (s *Service) List(ctx context.Context, ident Identity, limit, offset int) ([]Job, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	if ident.isAdmin() {
		return s.Repo.ListAll(ctx, limit, offset)
	}
	return s.Repo.ListByUser(ctx, ident.UserID, limit, offset)
}

// UpdateQuery stores a new user query on the job and regenerates the custom
// instructions. Only the owner may do this, admins included.
func (s *Service) UpdateQuery(ctx context.Context, ident Identity, id int64, userQuery string) (Job, error) {
	query := strings.TrimSpace(userQuery)
	if query == "" {
		return Job{}, fmt.Errorf("%w: empty query", ErrInvalidInput)
	}

	job, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Job{}, err
	}
	if job.UserID != ident.UserID {
		return Job{}, ErrUnauthorized
	}

	generated := instructions.Default()
	if s.Instructions != nil {
		generated = s.Instructions.Generate(ctx, query, string(job.JobType), job.OriginalFileName)
	}
	if err := s.Repo.UpdateQuery(ctx, id, ident.UserID, query, generated); err != nil {
		return Job{}, err
	}
	job.UserQuery = query
	job.CustomInstructions = generated
	return job, nil
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
