package jobs

import (
	"context"
	"time"
)

// Repo defines persistence operations for jobs.
//
// The Mark methods are guarded: they only touch rows still in a state the
// transition is legal from, and return ErrNotFound when nothing matched.
// A completed or failed job can never change status again.
type Repo interface {
	Create(ctx context.Context, job Job) (int64, error)
	GetByID(ctx context.Context, id int64) (Job, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Job, error)
	ListAll(ctx context.Context, limit, offset int) ([]Job, error)
	MarkProcessing(ctx context.Context, id int64) error
	MarkCompleted(ctx context.Context, id int64, jsonlURL, jsonlKey string, completedAt time.Time) error
	MarkFailed(ctx context.Context, id int64, errorMessage string, failedAt time.Time) error
	UpdateQuery(ctx context.Context, id int64, userID, userQuery, customInstructions string) error
}
