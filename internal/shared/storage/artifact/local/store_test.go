package local

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestPutOpenDeleteRoundTrip(t *testing.T) {
	store := New(t.TempDir(), "http://localhost:8080")
	ctx := context.Background()

	ref, err := store.Put(ctx, "jobs/1/abc.jsonl", "application/jsonl", strings.NewReader(`{"page":1}`))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if ref.Key != "jobs/1/abc.jsonl" {
		t.Fatalf("unexpected key: %s", ref.Key)
	}
	if ref.URL != "http://localhost:8080/api/v1/files/jobs/1/abc.jsonl" {
		t.Fatalf("unexpected url: %s", ref.URL)
	}

	body, err := store.Open(ctx, ref.Key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, err := io.ReadAll(body)
	body.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != `{"page":1}` {
		t.Fatalf("unexpected content: %s", data)
	}

	if err := store.Delete(ctx, ref.Key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Open(ctx, ref.Key); err == nil {
		t.Fatal("expected open after delete to fail")
	}
}

func TestRejectsTraversalKeys(t *testing.T) {
	store := New(t.TempDir(), "http://localhost:8080")
	ctx := context.Background()

	if _, err := store.Put(ctx, "../escape.txt", "text/plain", strings.NewReader("x")); err == nil {
		t.Fatal("expected traversal key to be rejected")
	}
	if _, err := store.Open(ctx, "/etc/passwd"); err == nil {
		t.Fatal("expected absolute key to be rejected")
	}
}
