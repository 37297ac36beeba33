package jobs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"jsonlify-backend/internal/convert"
	"jsonlify-backend/internal/instructions"
	"jsonlify-backend/internal/shared/auth"
	"jsonlify-backend/internal/shared/storage/artifact"
)

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (s *fakeStore) Put(_ context.Context, key, _ string, r io.Reader) (artifact.Ref, error) {
	if s.putErr != nil {
		return artifact.Ref{}, s.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return artifact.Ref{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return artifact.Ref{Key: key, URL: "http://store.test/" + key}, nil
}

func (s *fakeStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("object not found: " + key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

type fakeTranscriber struct {
	result convert.Transcription
	err    error
}

func (f fakeTranscriber) Transcribe(_ context.Context, _ io.Reader, _ string) (convert.Transcription, error) {
	return f.result, f.err
}

type recordingDispatcher struct {
	ids []int64
	err error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, jobID int64) error {
	if d.err != nil {
		return d.err
	}
	d.ids = append(d.ids, jobID)
	return nil
}

func newTestService(store *fakeStore) (*Service, *recordingDispatcher) {
	dispatcher := &recordingDispatcher{}
	svc := &Service{
		Repo:         NewMemoryRepo(),
		Store:        store,
		Transcriber:  fakeTranscriber{},
		Instructions: instructions.NewGenerator(),
		Dispatcher:   dispatcher,
	}
	return svc, dispatcher
}

func TestCreateRejectsUnknownType(t *testing.T) {
	svc, _ := newTestService(newFakeStore())
	_, err := svc.Create(context.Background(), CreateInput{
		UserID:   "user-1",
		JobType:  "video",
		FileName: "a.mp4",
		FileKey:  "uploads/a.mp4",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreatePersistsPendingAndDispatches(t *testing.T) {
	svc, dispatcher := newTestService(newFakeStore())
	job, err := svc.Create(context.Background(), CreateInput{
		UserID:   "user-1",
		JobType:  "document",
		FileName: "notes.txt",
		FileKey:  "uploads/notes.txt",
		MimeType: "text/plain",
		FileSize: 11,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if job.ID == 0 {
		t.Fatalf("expected generated id")
	}
	if job.Status != StatusPending {
		t.Fatalf("expected pending, got %s", job.Status)
	}
	if len(dispatcher.ids) != 1 || dispatcher.ids[0] != job.ID {
		t.Fatalf("expected dispatch of job %d, got %v", job.ID, dispatcher.ids)
	}

	stored, err := svc.Repo.GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != StatusPending {
		t.Fatalf("stored job not pending: %s", stored.Status)
	}
}

func TestProcessDocumentJob(t *testing.T) {
	store := newFakeStore()
	store.objects["uploads/notes.txt"] = []byte("Hello\nWorld")
	svc, _ := newTestService(store)

	job, err := svc.Create(context.Background(), CreateInput{
		UserID:   "user-1",
		JobType:  "document",
		FileName: "notes.txt",
		FileKey:  "uploads/notes.txt",
		MimeType: "text/plain",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Process(context.Background(), job.ID); err != nil {
		t.Fatalf("Process: %v", err)
	}

	done, err := svc.Repo.GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if done.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s (%s)", done.Status, done.ErrorMessage)
	}
	if !strings.HasPrefix(done.JSONLFileKey, "jobs/") || !strings.HasSuffix(done.JSONLFileKey, ".jsonl") {
		t.Fatalf("unexpected jsonl key %q", done.JSONLFileKey)
	}
	if done.CompletedAt == nil {
		t.Fatalf("expected completedAt to be set")
	}
	if got := string(store.objects[done.JSONLFileKey]); got != `{"page":1,"content":"Hello\nWorld"}` {
		t.Fatalf("unexpected jsonl content %q", got)
	}
}

func TestProcessAudioJob(t *testing.T) {
	store := newFakeStore()
	store.objects["uploads/talk.mp3"] = []byte("fake-audio")
	svc, _ := newTestService(store)
	svc.Transcriber = fakeTranscriber{result: convert.Transcription{
		Segments: []convert.TranscriptSegment{
			{Start: 0, End: 2, Text: "Hi"},
			{Start: 65, End: 70, Text: "there"},
		},
	}}

	job, err := svc.Create(context.Background(), CreateInput{
		UserID:   "user-1",
		JobType:  "audio",
		FileName: "talk.mp3",
		FileKey:  "uploads/talk.mp3",
		MimeType: "audio/mpeg",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Process(context.Background(), job.ID); err != nil {
		t.Fatalf("Process: %v", err)
	}

	done, _ := svc.Repo.GetByID(context.Background(), job.ID)
	want := `{"timestamp":"00:00:00","text":"Hi","start":0,"end":2}` + "\n" +
		`{"timestamp":"00:01:05","text":"there","start":65,"end":70}`
	if got := string(store.objects[done.JSONLFileKey]); got != want {
		t.Fatalf("unexpected jsonl content %q", got)
	}
}

func TestProcessFailureRecordsSanitizedMessage(t *testing.T) {
	store := newFakeStore()
	store.objects["uploads/img.png"] = []byte("not a document")
	svc, _ := newTestService(store)

	job, err := svc.Create(context.Background(), CreateInput{
		UserID:   "user-1",
		JobType:  "document",
		FileName: "img.png",
		FileKey:  "uploads/img.png",
		MimeType: "image/png",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Process(context.Background(), job.ID); err == nil {
		t.Fatalf("expected process error")
	}

	failed, _ := svc.Repo.GetByID(context.Background(), job.ID)
	if failed.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", failed.Status)
	}
	if !strings.Contains(failed.ErrorMessage, "unsupported document type") {
		t.Fatalf("unexpected error message %q", failed.ErrorMessage)
	}
	if strings.ContainsAny(failed.ErrorMessage, "\n\r") {
		t.Fatalf("error message not sanitized: %q", failed.ErrorMessage)
	}
	// completedAt records success time only.
	if failed.CompletedAt != nil {
		t.Fatalf("completedAt must stay unset on failure, got %v", failed.CompletedAt)
	}
}

func TestProcessIsIdempotentOnTerminalJobs(t *testing.T) {
	store := newFakeStore()
	store.objects["uploads/notes.txt"] = []byte("content")
	svc, _ := newTestService(store)

	job, _ := svc.Create(context.Background(), CreateInput{
		UserID:   "user-1",
		JobType:  "document",
		FileName: "notes.txt",
		FileKey:  "uploads/notes.txt",
		MimeType: "text/plain",
	})
	if err := svc.Process(context.Background(), job.ID); err != nil {
		t.Fatalf("first Process: %v", err)
	}
	first, _ := svc.Repo.GetByID(context.Background(), job.ID)

	// Redelivery of a finished job must be a no-op.
	if err := svc.Process(context.Background(), job.ID); err != nil {
		t.Fatalf("second Process: %v", err)
	}
	second, _ := svc.Repo.GetByID(context.Background(), job.ID)
	if second.Status != StatusCompleted || second.JSONLFileKey != first.JSONLFileKey {
		t.Fatalf("terminal job mutated: %+v", second)
	}
}

func TestMarkFailedFallsBackToUnknownError(t *testing.T) {
	svc, _ := newTestService(newFakeStore())
	job, _ := svc.Create(context.Background(), CreateInput{
		UserID:   "user-1",
		JobType:  "document",
		FileName: "a.txt",
		FileKey:  "uploads/a.txt",
	})

	svc.markFailed(context.Background(), job.ID, errors.New(""))

	failed, _ := svc.Repo.GetByID(context.Background(), job.ID)
	if failed.ErrorMessage != "Unknown error" {
		t.Fatalf("expected fallback message, got %q", failed.ErrorMessage)
	}
}

func TestGetAuthorization(t *testing.T) {
	svc, _ := newTestService(newFakeStore())
	job, _ := svc.Create(context.Background(), CreateInput{
		UserID:   "user-1",
		JobType:  "document",
		FileName: "a.txt",
		FileKey:  "uploads/a.txt",
	})

	if _, err := svc.Get(context.Background(), Identity{UserID: "user-1", Role: auth.RoleUser}, job.ID); err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if _, err := svc.Get(context.Background(), Identity{UserID: "user-2", Role: auth.RoleUser}, job.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := svc.Get(context.Background(), Identity{UserID: "admin-1", Role: auth.RoleAdmin}, job.ID); err != nil {
		t.Fatalf("admin get: %v", err)
	}
	if _, err := svc.Get(context.Background(), Identity{UserID: "user-1"}, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListScopesToOwnerUnlessAdmin(t *testing.T) {
	svc, _ := newTestService(newFakeStore())
	for _, user := range []string{"user-1", "user-1", "user-2"} {
		if _, err := svc.Create(context.Background(), CreateInput{
			UserID:   user,
			JobType:  "document",
			FileName: "a.txt",
			FileKey:  "uploads/a.txt",
		}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	mine, err := svc.List(context.Background(), Identity{UserID: "user-1", Role: auth.RoleUser}, 0, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected 2 jobs for user-1, got %d", len(mine))
	}

	all, err := svc.List(context.Background(), Identity{UserID: "admin-1", Role: auth.RoleAdmin}, 0, 0)
	if err != nil {
		t.Fatalf("List admin: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 jobs for admin, got %d", len(all))
	}
}

func TestUpdateQueryIsOwnerOnly(t *testing.T) {
	svc, _ := newTestService(newFakeStore())
	job, _ := svc.Create(context.Background(), CreateInput{
		UserID:   "user-1",
		JobType:  "document",
		FileName: "a.txt",
		FileKey:  "uploads/a.txt",
	})

	updated, err := svc.UpdateQuery(context.Background(), Identity{UserID: "user-1", Role: auth.RoleUser}, job.ID, " split by chapter ")
	if err != nil {
		t.Fatalf("UpdateQuery: %v", err)
	}
	if updated.UserQuery != "split by chapter" {
		t.Fatalf("query not trimmed: %q", updated.UserQuery)
	}
	if updated.CustomInstructions == "" {
		t.Fatalf("expected generated instructions")
	}

	// Admins can read other users' jobs but not rewrite their queries.
	if _, err := svc.UpdateQuery(context.Background(), Identity{UserID: "admin-1", Role: auth.RoleAdmin}, job.ID, "x"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for admin write, got %v", err)
	}
	if _, err := svc.UpdateQuery(context.Background(), Identity{UserID: "user-1"}, job.ID, "   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty query, got %v", err)
	}
	if _, err := svc.UpdateQuery(context.Background(), Identity{UserID: "user-1"}, 999, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
