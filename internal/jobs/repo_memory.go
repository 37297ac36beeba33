package jobs

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repo for local development and tests.
type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]Job
}

// NewMemoryRepo constructs an empty in-memory repo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{items: make(map[int64]Job)}
}

func (r *MemoryRepo) Create(_ context.Context, job Job) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	job.ID = r.nextID
	r.items[job.ID] = job
	return job.ID, nil
}

func (r *MemoryRepo) GetByID(_ context.Context, id int64) (Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.items[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return job, nil
}

func (r *MemoryRepo) ListByUser(_ context.Context, userID string, limit, offset int) ([]Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Job
	for _, job := range r.items {
		if job.UserID == userID {
			out = append(out, job)
		}
	}
	return paginate(out, limit, offset), nil
}

func (r *MemoryRepo) ListAll(_ context.Context, limit, offset int) ([]Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Job, 0, len(r.items))
	for _, job := range r.items {
		out = append(out, job)
	}
	return paginate(out, limit, offset), nil
}

func (r *MemoryRepo) MarkProcessing(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.items[id]
	if !ok || job.Status != StatusPending {
		return ErrNotFound
	}
	job.Status = StatusProcessing
	job.UpdatedAt = time.Now().UTC()
	r.items[id] = job
	return nil
}

func (r *MemoryRepo) MarkCompleted(_ context.Context, id int64, jsonlURL, jsonlKey string, completedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.items[id]
	if !ok || job.Status.IsTerminal() {
		return ErrNotFound
	}
	job.Status = StatusCompleted
	job.JSONLURL = jsonlURL
	job.JSONLFileKey = jsonlKey
	job.CompletedAt = &completedAt
	job.UpdatedAt = completedAt
	r.items[id] = job
	return nil
}

func (r *MemoryRepo) MarkFailed(_ context.Context, id int64, errorMessage string, failedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.items[id]
	if !ok || job.Status.IsTerminal() {
		return ErrNotFound
	}
	job.Status = StatusFailed
	job.ErrorMessage = errorMessage
	job.UpdatedAt = failedAt
	r.items[id] = job
	return nil
}

func (r *MemoryRepo) UpdateQuery(_ context.Context, id int64, userID, userQuery, customInstructions string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.items[id]
	if !ok || job.UserID != userID {
		return ErrNotFound
	}
	job.UserQuery = userQuery
	job.CustomInstructions = customInstructions
	job.UpdatedAt = time.Now().UTC()
	r.items[id] = job
	return nil
}

func paginate(jobs []Job, limit, offset int) []Job {
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].ID > jobs[j].ID
		}
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	if offset >= len(jobs) {
		return nil
	}
	jobs = jobs[offset:]
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs
}
