package jobs

import (
	"context"
	"time"

	"jsonlify-backend/internal/queue"
)

// QueueDispatcher hands jobs to a queue for a separate worker process.
type QueueDispatcher struct {
	Client queue.Client
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, jobID int64) error {
	return d.Client.Send(ctx, queue.Message{
		JobID:      jobID,
		RequestID:  requestIDFromContext(ctx),
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
		Version:    1,
	})
}

var _ Dispatcher = (*QueueDispatcher)(nil)
