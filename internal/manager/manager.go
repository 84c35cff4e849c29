// Package manager is the sole mutation and query surface for tasks. It
// orchestrates the record store, appends audit history, and signals the
// webhook notifier on lifecycle events.
package manager

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agentjobs/agentjobs/internal/apperr"
	"github.com/agentjobs/agentjobs/internal/store"
	"github.com/agentjobs/agentjobs/internal/webhook"
	"github.com/agentjobs/agentjobs/pkg/model"
)

// Notifier decouples the manager from webhook delivery. Dispatch is
// fire-and-forget: implementations must not block the caller.
type Notifier interface {
	FireEvent(event string, task *model.Task, metadata map[string]any)
}

type Manager struct {
	store    *store.TaskStore
	notifier Notifier
	log      *zap.Logger
}

// New creates a Manager. notifier may be nil, in which case lifecycle
// events are not dispatched anywhere.
func New(s *store.TaskStore, notifier Notifier, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{store: s, notifier: notifier, log: log}
}

func (m *Manager) Store() *store.TaskStore { return m.store }

// CreateRequest carries the fields accepted at task creation. Zero
// values fall back to defaults: priority medium, category general,
// status draft, starter prompt = description.
type CreateRequest struct {
	ID              string                   `json:"id,omitempty"`
	Title           string                   `json:"title"`
	Description     string                   `json:"description"`
	Priority        model.Priority           `json:"priority,omitempty"`
	Category        string                   `json:"category,omitempty"`
	Status          model.Status             `json:"status,omitempty"`
	AssignedTo      string                   `json:"assigned_to,omitempty"`
	EstimatedEffort string                   `json:"estimated_effort,omitempty"`
	HumanSummary    string                   `json:"human_summary,omitempty"`
	Tags            []string                 `json:"tags,omitempty"`
	Phases          []model.Phase            `json:"phases,omitempty"`
	SuccessCriteria []model.SuccessCriterion `json:"success_criteria,omitempty"`
	Deliverables    []model.Deliverable      `json:"deliverables,omitempty"`
	Dependencies    []model.Dependency       `json:"dependencies,omitempty"`
	ExternalLinks   []model.ExternalLink     `json:"external_links,omitempty"`
	Issues          []model.Issue            `json:"issues,omitempty"`
	Branches        []model.Branch           `json:"branches,omitempty"`
	Prompts         *model.Prompts           `json:"prompts,omitempty"`
}

// Create stores a new task, generating a sequential id when none is
// supplied. An id collision with an existing record is a conflict.
func (m *Manager) Create(req CreateRequest) (*model.Task, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, apperr.Invalid("title must not be empty")
	}

	id := req.ID
	if id == "" {
		generated, err := m.store.GenerateID()
		if err != nil {
			return nil, err
		}
		id = generated
	}
	// Existence, not loadability: a corrupt record still occupies its id
	// and must not be overwritten by a create.
	exists, err := m.store.Exists(id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict("task", id)
	}

	prompts := model.Prompts{Starter: req.Description}
	if req.Prompts != nil {
		prompts = *req.Prompts
	}

	now := time.Now().UTC()
	task := &model.Task{
		ID:              id,
		Title:           req.Title,
		Description:     req.Description,
		Created:         now,
		Updated:         now,
		Status:          req.Status,
		Priority:        req.Priority,
		Category:        req.Category,
		AssignedTo:      req.AssignedTo,
		EstimatedEffort: req.EstimatedEffort,
		HumanSummary:    req.HumanSummary,
		Tags:            req.Tags,
		Phases:          req.Phases,
		SuccessCriteria: req.SuccessCriteria,
		Deliverables:    req.Deliverables,
		Dependencies:    req.Dependencies,
		ExternalLinks:   req.ExternalLinks,
		Issues:          req.Issues,
		Branches:        req.Branches,
		Prompts:         prompts,
	}
	if task.Category == "" {
		task.Category = "general"
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}
	return m.store.Save(task)
}

func (m *Manager) Get(id string) (*model.Task, error) {
	return m.store.Load(id)
}

// List returns all tasks, optionally filtered by status and priority
// equality. Nil filters pass everything through.
func (m *Manager) List(status *model.Status, priority *model.Priority) ([]model.Task, error) {
	tasks, err := m.store.List()
	if err != nil {
		return nil, err
	}
	if status == nil && priority == nil {
		return tasks, nil
	}
	filtered := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		if status != nil && task.Status != *status {
			continue
		}
		if priority != nil && task.Priority != *priority {
			continue
		}
		filtered = append(filtered, task)
	}
	return filtered, nil
}

// Replace overwrites a task's fields from the payload while preserving
// id and created. Fields absent from the payload keep the existing
// record's values, independently per nested collection.
func (m *Manager) Replace(id string, patch model.TaskPatch) (*model.Task, error) {
	return m.applyPatch(id, patch)
}

// Update shallow-merges only the supplied fields onto the existing
// record. An empty patch is rejected upstream by the route layer.
func (m *Manager) Update(id string, patch model.TaskPatch) (*model.Task, error) {
	return m.applyPatch(id, patch)
}

func (m *Manager) applyPatch(id string, patch model.TaskPatch) (*model.Task, error) {
	task, err := m.store.Load(id)
	if err != nil {
		return nil, err
	}
	patch.Apply(task)
	task.ID = id // identity and creation time survive any payload
	if err := task.Validate(); err != nil {
		return nil, err
	}
	return m.store.Save(task)
}

// Delete hard-removes the record. Archiving is the soft alternative.
func (m *Manager) Delete(id string) (bool, error) {
	return m.store.Delete(id)
}

// Archive transitions the task to archived with a standard audit entry.
func (m *Manager) Archive(id, author string) (*model.Task, error) {
	if author == "" {
		author = "system"
	}
	return m.UpdateStatus(id, model.StatusArchived, author, "Task archived.", "", nil)
}

// UpdateStatus is the core transition operation: set the new status,
// append an audit entry, persist, then signal subscribers. Any status
// may follow any other; transition policy belongs to the callers.
func (m *Manager) UpdateStatus(id string, status model.Status, author, summary, details string, metadata map[string]any) (*model.Task, error) {
	if !status.Valid() {
		_, err := model.ParseStatus(string(status))
		return nil, err
	}
	task, err := m.store.Load(id)
	if err != nil {
		return nil, err
	}

	previous := task.Status
	task.Status = status
	task.StatusUpdates = append(task.StatusUpdates, model.StatusUpdate{
		Timestamp: time.Now().UTC(),
		Author:    author,
		Status:    status,
		Summary:   summary,
		Details:   details,
	})

	saved, err := m.store.Save(task)
	if err != nil {
		return nil, err
	}

	if m.notifier != nil {
		md := map[string]any{
			"triggered_by":    author,
			"previous_status": string(previous),
		}
		for k, v := range metadata {
			md[k] = v
		}
		m.notifier.FireEvent(webhook.EventStatusChanged, saved, md)
		if status == model.StatusCompleted {
			m.notifier.FireEvent(webhook.EventTaskCompleted, saved, map[string]any{
				"triggered_by": author,
			})
		}
	}
	return saved, nil
}

// GetNextTask selects the most urgent ready task: candidates are tasks
// with status ready (optionally narrowed by priority), ordered by
// priority rank ascending then most recently updated first. Returns nil
// when nothing is ready.
func (m *Manager) GetNextTask(priority *model.Priority) (*model.Task, error) {
	tasks, err := m.store.List()
	if err != nil {
		return nil, err
	}

	candidates := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.Status != model.StatusReady {
			continue
		}
		if priority != nil && task.Priority != *priority {
			continue
		}
		candidates = append(candidates, task)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ri, rj := candidates[i].Priority.Rank(), candidates[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		return candidates[i].Updated.After(candidates[j].Updated)
	})
	return &candidates[0], nil
}

// AddProgressUpdate appends an audit entry carrying the task's current
// status unchanged: a note, not a transition.
func (m *Manager) AddProgressUpdate(id, author, summary, details string) (*model.Task, error) {
	task, err := m.store.Load(id)
	if err != nil {
		return nil, err
	}
	task.StatusUpdates = append(task.StatusUpdates, model.StatusUpdate{
		Timestamp: time.Now().UTC(),
		Author:    author,
		Status:    task.Status,
		Summary:   summary,
		Details:   details,
	})
	return m.store.Save(task)
}

// MarkDeliverableComplete sets the first deliverable matching the exact
// path to completed. No write happens when the path is unknown.
func (m *Manager) MarkDeliverableComplete(id, path string) (*model.Task, error) {
	task, err := m.store.Load(id)
	if err != nil {
		return nil, err
	}
	for i := range task.Deliverables {
		if task.Deliverables[i].Path == path {
			task.Deliverables[i].Status = model.DeliverableCompleted
			return m.store.Save(task)
		}
	}
	return nil, apperr.NotFound("deliverable", path)
}

func (m *Manager) GetStarterPrompt(id string) (string, error) {
	task, err := m.store.Load(id)
	if err != nil {
		return "", err
	}
	return task.Prompts.Starter, nil
}

// AddFollowupPrompt appends to the task's follow-up prompt list.
func (m *Manager) AddFollowupPrompt(id, author, content, context string) (*model.Task, error) {
	task, err := m.store.Load(id)
	if err != nil {
		return nil, err
	}
	task.Prompts.Followups = append(task.Prompts.Followups, model.Prompt{
		Timestamp: time.Now().UTC(),
		Author:    author,
		Content:   content,
		Context:   context,
	})
	return m.store.Save(task)
}

// Search delegates to the store. Blank queries are rejected at the
// transport edge.
func (m *Manager) Search(query string) ([]model.Task, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperr.Invalid("search query must not be blank")
	}
	return m.store.Search(query)
}

// AddComment appends a comment with a generated id, persists, and fires
// task.comment_created. The created comment is returned, not the task.
func (m *Manager) AddComment(id, author, content string, kind model.CommentKind, replyTo string) (*model.Comment, error) {
	if kind == "" {
		kind = model.CommentKindComment
	}
	if !kind.Valid() {
		_, err := model.ParseCommentKind(string(kind))
		return nil, err
	}
	task, err := m.store.Load(id)
	if err != nil {
		return nil, err
	}

	comment := model.Comment{
		ID:        "c-" + uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Author:    author,
		Content:   content,
		Kind:      kind,
		ReplyTo:   replyTo,
	}
	task.Comments = append(task.Comments, comment)

	saved, err := m.store.Save(task)
	if err != nil {
		return nil, err
	}

	if m.notifier != nil {
		m.notifier.FireEvent(webhook.EventCommentCreated, saved, map[string]any{
			"triggered_by": author,
			"comment_id":   comment.ID,
		})
	}
	return &comment, nil
}
