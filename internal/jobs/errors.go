package jobs

import "errors"

var (
	// ErrNotFound means no job exists with the given id, or a guarded
	// update matched no row.
	ErrNotFound = errors.New("job not found")
	// ErrUnauthorized means the caller may not see or touch the job.
	ErrUnauthorized = errors.New("not authorized for job")
	// ErrInvalidInput covers malformed create or query requests.
	ErrInvalidInput = errors.New("invalid input")
)
