package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/agentjobs/agentjobs/internal/apperr"
	"github.com/agentjobs/agentjobs/pkg/model"
)

func newTestStore(t *testing.T) *TaskStore {
	t.Helper()
	s, err := NewTaskStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewTaskStore failed: %v", err)
	}
	return s
}

func sampleTask(id string) *model.Task {
	now := time.Now().UTC()
	return &model.Task{
		ID:       id,
		Title:    "Sample task " + id,
		Created:  now,
		Updated:  now,
		Status:   model.StatusPlanned,
		Priority: model.PriorityMedium,
		Category: "general",
		Prompts:  model.Prompts{Starter: "Do the thing."},
	}
}

func TestTaskStore_SaveLoadRoundtrip(t *testing.T) {
	s := newTestStore(t)

	saved, err := s.Save(sampleTask("task-001"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := s.Load("task-001")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.ID != saved.ID || loaded.Title != saved.Title {
		t.Errorf("roundtrip mismatch: got %q %q", loaded.ID, loaded.Title)
	}
	if loaded.Status != model.StatusPlanned {
		t.Errorf("status: got %s", loaded.Status)
	}
}

func TestTaskStore_SaveStampsUpdated(t *testing.T) {
	s := newTestStore(t)

	task := sampleTask("task-001")
	stale := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	task.Updated = stale

	saved, err := s.Save(task)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !saved.Updated.After(stale) {
		t.Errorf("Updated not refreshed: %v", saved.Updated)
	}
}

func TestTaskStore_LoadMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Load("task-999")
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestTaskStore_LoadCorruptRecord(t *testing.T) {
	s := newTestStore(t)

	path := filepath.Join(s.Dir(), "task-001.yaml")
	if err := os.WriteFile(path, []byte("id: [unclosed"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	_, err := s.Load("task-001")
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected not-found for corrupt record, got %v", err)
	}
}

func TestTaskStore_ListSkipsCorruptAndTempFiles(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Save(sampleTask("task-001")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := s.Save(sampleTask("task-002")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// One corrupt record, one in-flight temp file, one stray non-YAML.
	if err := os.WriteFile(filepath.Join(s.Dir(), "task-003.yaml"), []byte("id: [broken"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(s.Dir(), ".agentjobs-tmp-123.yaml"), []byte("id: task-004"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(s.Dir(), "notes.txt"), []byte("hello"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	tasks, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("List: got %d tasks, want 2", len(tasks))
	}
	if tasks[0].ID != "task-001" || tasks[1].ID != "task-002" {
		t.Errorf("List order: got %s, %s", tasks[0].ID, tasks[1].ID)
	}
}

func TestTaskStore_Delete(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Save(sampleTask("task-001")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	// Second save creates the .bak sibling.
	if _, err := s.Save(sampleTask("task-001")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	deleted, err := s.Delete("task-001")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !deleted {
		t.Fatal("Delete reported nothing removed")
	}
	if _, err := os.Stat(filepath.Join(s.Dir(), "task-001.yaml.bak")); !os.IsNotExist(err) {
		t.Errorf("backup not removed, stat err = %v", err)
	}

	deleted, err = s.Delete("task-001")
	if err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}
	if deleted {
		t.Error("second Delete reported a removal")
	}
}

func TestTaskStore_Exists(t *testing.T) {
	s := newTestStore(t)

	exists, err := s.Exists("task-001")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("missing record reported as existing")
	}

	if _, err := s.Save(sampleTask("task-001")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	exists, err = s.Exists("task-001")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("saved record reported as missing")
	}

	// A corrupt file still occupies its id even though Load rejects it.
	if err := os.WriteFile(filepath.Join(s.Dir(), "task-002.yaml"), []byte("id: [broken"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	exists, err = s.Exists("task-002")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("corrupt record reported as missing")
	}
}

func TestTaskStore_ListSeesPrecedingSave(t *testing.T) {
	s := newTestStore(t)

	// Background listers keep scans in flight so a List entered after a
	// Save could otherwise be handed a result computed before the write.
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					_, _ = s.List()
				}
			}
		}()
	}
	defer func() {
		close(stop)
		wg.Wait()
	}()

	for i := 1; i <= 20; i++ {
		id := fmt.Sprintf("task-%03d", i)
		if _, err := s.Save(sampleTask(id)); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		tasks, err := s.List()
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		found := false
		for _, task := range tasks {
			if task.ID == id {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("List after Save missing %s (got %d tasks)", id, len(tasks))
		}
	}
}

func TestTaskStore_GenerateID(t *testing.T) {
	s := newTestStore(t)

	id, err := s.GenerateID()
	if err != nil {
		t.Fatalf("GenerateID failed: %v", err)
	}
	if id != "task-001" {
		t.Errorf("empty dir: got %s, want task-001", id)
	}

	for _, existing := range []string{"task-001", "task-002", "task-007"} {
		if _, err := s.Save(sampleTask(existing)); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}
	// Files outside the naming scheme are ignored.
	if err := os.WriteFile(filepath.Join(s.Dir(), "notes.yaml"), []byte("x: 1"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	id, err = s.GenerateID()
	if err != nil {
		t.Fatalf("GenerateID failed: %v", err)
	}
	if id != "task-008" {
		t.Errorf("got %s, want task-008 (gaps not reused)", id)
	}
}

func TestTaskStore_Search(t *testing.T) {
	s := newTestStore(t)

	alpha := sampleTask("task-001")
	alpha.Title = "Refactor ingestion pipeline"
	alpha.Tags = []string{"pipeline", "infra"}
	beta := sampleTask("task-002")
	beta.Title = "Write docs"
	beta.Description = "Document the INGESTION flow end to end."
	gamma := sampleTask("task-003")
	gamma.Title = "Unrelated chore"

	for _, task := range []*model.Task{alpha, beta, gamma} {
		if _, err := s.Save(task); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	results, err := s.Search("ingestion")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Search: got %d results, want 2", len(results))
	}

	results, err = s.Search("INFRA")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].ID != "task-001" {
		t.Errorf("tag search: got %v", results)
	}

	results, err = s.Search("nomatch")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}
