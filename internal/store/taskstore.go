// Package store implements durable persistence for task and webhook
// records: one YAML file per task under a configured directory, one
// YAML file holding the webhook subscription list.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/agentjobs/agentjobs/internal/apperr"
	"github.com/agentjobs/agentjobs/internal/yamlfile"
	"github.com/agentjobs/agentjobs/pkg/model"
)

// TaskStore persists tasks as YAML files named <id>.yaml. There is no
// file locking: concurrent writers to the same id race and the last
// Save wins. That is the documented contract for this single-process
// store, not an oversight.
type TaskStore struct {
	dir string
	log *zap.Logger
	sf  singleflight.Group
}

func NewTaskStore(dir string, log *zap.Logger) (*TaskStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create tasks directory: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &TaskStore{dir: dir, log: log}, nil
}

func (s *TaskStore) Dir() string { return s.dir }

func (s *TaskStore) path(id string) string {
	name := id
	if !strings.HasSuffix(name, ".yaml") {
		name += ".yaml"
	}
	return filepath.Join(s.dir, name)
}

// Load reads one record. A missing file and a corrupt file both surface
// as not-found; corruption is logged so a single bad record never takes
// down listing.
func (s *TaskStore) Load(id string) (*model.Task, error) {
	path := s.path(id)
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.NotFound("task", id)
		}
		return nil, fmt.Errorf("read task %s: %w", id, err)
	}

	var task model.Task
	if err := yamlv3.Unmarshal(content, &task); err != nil {
		s.log.Error("failed to parse task record", zap.String("path", path), zap.Error(err))
		return nil, apperr.NotFound("task", id)
	}
	if task.ID == "" {
		s.log.Warn("empty task record", zap.String("path", path))
		return nil, apperr.NotFound("task", id)
	}
	if err := task.Validate(); err != nil {
		s.log.Error("invalid task record", zap.String("path", path), zap.Error(err))
		return nil, apperr.NotFound("task", id)
	}
	return &task, nil
}

// Save stamps Updated with the current time and replaces the record's
// file atomically. The persisted task is returned.
func (s *TaskStore) Save(task *model.Task) (*model.Task, error) {
	if err := task.Validate(); err != nil {
		return nil, err
	}
	task.Updated = time.Now().UTC()
	if err := yamlfile.AtomicWrite(s.path(task.ID), task); err != nil {
		return nil, fmt.Errorf("save task %s: %w", task.ID, err)
	}
	// A scan that started before this write must not be handed to later
	// List callers, they would miss the record just saved.
	s.sf.Forget(listKey)
	return task, nil
}

// Exists reports whether a record file is present for the id, without
// parsing it. A corrupt file still counts as existing, so id collision
// checks cannot clobber it.
func (s *TaskStore) Exists(id string) (bool, error) {
	_, err := os.Stat(s.path(id))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat task %s: %w", id, err)
}

const listKey = "list"

// List returns all valid records in filename-sorted order, skipping any
// that fail to load. Concurrent calls share a single directory scan;
// Save and Delete forget the shared key so a call entered after a write
// always observes it.
func (s *TaskStore) List() ([]model.Task, error) {
	v, err, _ := s.sf.Do(listKey, func() (any, error) {
		return s.scan()
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.Task), nil
}

func (s *TaskStore) scan() ([]model.Task, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read tasks directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".yaml" {
			continue
		}
		if strings.HasPrefix(name, yamlfile.TempPrefix) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	tasks := make([]model.Task, 0, len(names))
	for _, name := range names {
		id := strings.TrimSuffix(name, ".yaml")
		task, err := s.Load(id)
		if err != nil {
			// Already logged by Load; keep listing.
			continue
		}
		tasks = append(tasks, *task)
	}
	return tasks, nil
}

// Delete removes the record, reporting whether one existed.
func (s *TaskStore) Delete(id string) (bool, error) {
	path := s.path(id)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("delete task %s: %w", id, err)
	}
	_ = os.Remove(path + ".bak")
	s.sf.Forget(listKey)
	return true, nil
}

// GenerateID scans ids matching task-NNN and returns the next unused
// sequential id, zero-padded to three digits. Gaps are not reused;
// files outside the naming scheme are ignored.
func (s *TaskStore) GenerateID() (string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", fmt.Errorf("read tasks directory: %w", err)
	}

	highest := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "task-") || !strings.HasSuffix(name, ".yaml") {
			continue
		}
		stem := strings.TrimSuffix(strings.TrimPrefix(name, "task-"), ".yaml")
		n, err := strconv.Atoi(stem)
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("task-%03d", highest+1), nil
}

// Search matches query case-insensitively against title, human summary,
// description, and joined tags, preserving store order.
func (s *TaskStore) Search(query string) ([]model.Task, error) {
	tasks, err := s.List()
	if err != nil {
		return nil, err
	}

	normalized := strings.ToLower(query)
	results := make([]model.Task, 0)
	for _, task := range tasks {
		haystacks := []string{
			task.Title,
			task.HumanSummary,
			task.Description,
			strings.Join(task.Tags, " "),
		}
		for _, haystack := range haystacks {
			if strings.Contains(strings.ToLower(haystack), normalized) {
				results = append(results, task)
				break
			}
		}
	}
	return results, nil
}
