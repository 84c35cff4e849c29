package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/agentjobs/agentjobs/internal/apperr"
)

func newTestWebhookStore(t *testing.T) *WebhookStore {
	t.Helper()
	s, err := NewWebhookStore(filepath.Join(t.TempDir(), "webhooks.yaml"), nil)
	if err != nil {
		t.Fatalf("NewWebhookStore failed: %v", err)
	}
	return s
}

func TestWebhookStore_CreateAndGet(t *testing.T) {
	s := newTestWebhookStore(t)

	hook, err := s.Create("https://example.com/hook", []string{"task.completed"}, "s3cret", true)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if hook.ID == "" {
		t.Fatal("Create returned empty id")
	}
	if !hook.Active {
		t.Error("hook not active")
	}

	got, err := s.Get(hook.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.URL != "https://example.com/hook" {
		t.Errorf("URL: got %q", got.URL)
	}
	if got.Secret != "s3cret" {
		t.Errorf("Secret not persisted: got %q", got.Secret)
	}
}

func TestWebhookStore_GetMissing(t *testing.T) {
	s := newTestWebhookStore(t)

	_, err := s.Get("wh-nope")
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestWebhookStore_Delete(t *testing.T) {
	s := newTestWebhookStore(t)

	hook, err := s.Create("https://example.com/hook", []string{"task.completed"}, "", true)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	deleted, err := s.Delete(hook.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !deleted {
		t.Fatal("Delete reported nothing removed")
	}

	deleted, err = s.Delete(hook.ID)
	if err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}
	if deleted {
		t.Error("second Delete reported a removal")
	}
}

func TestWebhookStore_CorruptFileTreatedAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "webhooks.yaml")
	if err := os.WriteFile(path, []byte("webhooks: [unclosed"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	s, err := NewWebhookStore(path, nil)
	if err != nil {
		t.Fatalf("NewWebhookStore failed: %v", err)
	}
	hooks, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(hooks) != 0 {
		t.Errorf("expected empty list, got %d", len(hooks))
	}
}
