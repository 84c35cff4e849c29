// Package model defines the task record, its nested collections, and the
// closed enumerations governing their workflow fields.
package model

import (
	"fmt"
	"time"

	"github.com/agentjobs/agentjobs/internal/apperr"
)

// Task is the unit of trackable work. One YAML file per task; the store
// owns the on-disk representation and every mutation round-trips through it.
type Task struct {
	ID      string    `yaml:"id" json:"id"`
	Title   string    `yaml:"title" json:"title"`
	Created time.Time `yaml:"created" json:"created"`
	Updated time.Time `yaml:"updated" json:"updated"`

	Status          Status   `yaml:"status" json:"status"`
	Priority        Priority `yaml:"priority" json:"priority"`
	Category        string   `yaml:"category" json:"category"`
	AssignedTo      string   `yaml:"assigned_to,omitempty" json:"assigned_to,omitempty"`
	EstimatedEffort string   `yaml:"estimated_effort,omitempty" json:"estimated_effort,omitempty"`

	HumanSummary    string             `yaml:"human_summary,omitempty" json:"human_summary,omitempty"`
	Description     string             `yaml:"description" json:"description"`
	Phases          []Phase            `yaml:"phases,omitempty" json:"phases"`
	SuccessCriteria []SuccessCriterion `yaml:"success_criteria,omitempty" json:"success_criteria"`

	Prompts       Prompts        `yaml:"prompts" json:"prompts"`
	StatusUpdates []StatusUpdate `yaml:"status_updates,omitempty" json:"status_updates"`
	Deliverables  []Deliverable  `yaml:"deliverables,omitempty" json:"deliverables"`

	Dependencies  []Dependency   `yaml:"dependencies,omitempty" json:"dependencies"`
	ExternalLinks []ExternalLink `yaml:"external_links,omitempty" json:"external_links"`

	Issues   []Issue   `yaml:"issues,omitempty" json:"issues"`
	Tags     []string  `yaml:"tags,omitempty" json:"tags"`
	Branches []Branch  `yaml:"branches,omitempty" json:"branches"`
	Comments []Comment `yaml:"comments,omitempty" json:"comments"`
}

// Phase is a sub-milestone sharing the task status vocabulary.
type Phase struct {
	ID          string     `yaml:"id" json:"id"`
	Title       string     `yaml:"title" json:"title"`
	Status      Status     `yaml:"status" json:"status"`
	Notes       string     `yaml:"notes,omitempty" json:"notes,omitempty"`
	CompletedAt *time.Time `yaml:"completed_at,omitempty" json:"completed_at,omitempty"`
}

type SuccessCriterion struct {
	ID          string          `yaml:"id" json:"id"`
	Description string          `yaml:"description" json:"description"`
	Status      CriterionStatus `yaml:"status" json:"status"`
}

type Deliverable struct {
	Path        string            `yaml:"path" json:"path"`
	Status      DeliverableStatus `yaml:"status" json:"status"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
}

type Dependency struct {
	TaskID string         `yaml:"task_id" json:"task_id"`
	Type   DependencyType `yaml:"type" json:"type"`
	Status string         `yaml:"status,omitempty" json:"status,omitempty"`
	Note   string         `yaml:"note,omitempty" json:"note,omitempty"`
}

type ExternalLink struct {
	URL   string `yaml:"url" json:"url"`
	Title string `yaml:"title" json:"title"`
}

type Issue struct {
	ID         string      `yaml:"id" json:"id"`
	Title      string      `yaml:"title" json:"title"`
	Status     IssueStatus `yaml:"status" json:"status"`
	Resolution string      `yaml:"resolution,omitempty" json:"resolution,omitempty"`
}

type Branch struct {
	Name     string       `yaml:"name" json:"name"`
	Status   BranchStatus `yaml:"status" json:"status"`
	MergedAt *time.Time   `yaml:"merged_at,omitempty" json:"merged_at,omitempty"`
}

// StatusUpdate is one entry of the append-only audit trail. Entries are
// never mutated or removed.
type StatusUpdate struct {
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	Author    string    `yaml:"author" json:"author"`
	Status    Status    `yaml:"status" json:"status"`
	Summary   string    `yaml:"summary" json:"summary"`
	Details   string    `yaml:"details,omitempty" json:"details,omitempty"`
}

type Comment struct {
	ID        string      `yaml:"id" json:"id"`
	Timestamp time.Time   `yaml:"timestamp" json:"timestamp"`
	Author    string      `yaml:"author" json:"author"`
	Content   string      `yaml:"content" json:"content"`
	Kind      CommentKind `yaml:"kind" json:"kind"`
	ReplyTo   string      `yaml:"reply_to,omitempty" json:"reply_to,omitempty"`
}

// Prompt is a follow-up entry appended during task progression.
type Prompt struct {
	Timestamp  time.Time `yaml:"timestamp" json:"timestamp"`
	Author     string    `yaml:"author" json:"author"`
	PromptFile string    `yaml:"prompt_file,omitempty" json:"prompt_file,omitempty"`
	Content    string    `yaml:"content,omitempty" json:"content,omitempty"`
	Context    string    `yaml:"context,omitempty" json:"context,omitempty"`
}

type Prompts struct {
	Starter   string   `yaml:"starter" json:"starter"`
	Followups []Prompt `yaml:"followups,omitempty" json:"followups"`
}

func (t *Task) IsCompleted() bool { return t.Status == StatusCompleted }

func (t *Task) IsBlocked() bool { return t.Status == StatusBlocked }

// IsActive reports whether the task represents in-flight work.
func (t *Task) IsActive() bool {
	switch t.Status {
	case StatusInProgress, StatusBlocked, StatusWaitingForHuman, StatusUnderReview:
		return true
	}
	return false
}

// Validate fills enum defaults on empty fields and rejects any value
// outside its closed set. It runs before every persistence so invalid
// data is never written to the store.
func (t *Task) Validate() error {
	if t.ID == "" {
		return apperr.Invalid("task id must not be empty")
	}
	if t.Status == "" {
		t.Status = StatusDraft
	}
	if !t.Status.Valid() {
		return fmt.Errorf("task %s: %w", t.ID, invalidEnum("status", string(t.Status)))
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("task %s: %w", t.ID, invalidEnum("priority", string(t.Priority)))
	}
	for i := range t.Phases {
		p := &t.Phases[i]
		if p.Status == "" {
			p.Status = StatusPlanned
		}
		if !p.Status.Valid() {
			return fmt.Errorf("task %s phase %s: %w", t.ID, p.ID, invalidEnum("status", string(p.Status)))
		}
	}
	for i := range t.SuccessCriteria {
		c := &t.SuccessCriteria[i]
		if c.Status == "" {
			c.Status = CriterionPending
		}
		if !c.Status.Valid() {
			return fmt.Errorf("task %s success criterion %s: %w", t.ID, c.ID, invalidEnum("status", string(c.Status)))
		}
	}
	for i := range t.Deliverables {
		d := &t.Deliverables[i]
		if d.Status == "" {
			d.Status = DeliverablePending
		}
		if !d.Status.Valid() {
			return fmt.Errorf("task %s deliverable %s: %w", t.ID, d.Path, invalidEnum("status", string(d.Status)))
		}
	}
	for i := range t.Dependencies {
		d := &t.Dependencies[i]
		if d.Type == "" {
			d.Type = DependencyDependsOn
		}
		if !d.Type.Valid() {
			return fmt.Errorf("task %s dependency %s: %w", t.ID, d.TaskID, invalidEnum("type", string(d.Type)))
		}
	}
	for i := range t.Issues {
		is := &t.Issues[i]
		if is.Status == "" {
			is.Status = IssueOpen
		}
		if !is.Status.Valid() {
			return fmt.Errorf("task %s issue %s: %w", t.ID, is.ID, invalidEnum("status", string(is.Status)))
		}
	}
	for i := range t.Branches {
		b := &t.Branches[i]
		if b.Status == "" {
			b.Status = BranchActive
		}
		if !b.Status.Valid() {
			return fmt.Errorf("task %s branch %s: %w", t.ID, b.Name, invalidEnum("status", string(b.Status)))
		}
	}
	for i := range t.StatusUpdates {
		u := &t.StatusUpdates[i]
		if !u.Status.Valid() {
			return fmt.Errorf("task %s status update %d: %w", t.ID, i, invalidEnum("status", string(u.Status)))
		}
	}
	for i := range t.Comments {
		c := &t.Comments[i]
		if c.Kind == "" {
			c.Kind = CommentKindComment
		}
		if !c.Kind.Valid() {
			return fmt.Errorf("task %s comment %s: %w", t.ID, c.ID, invalidEnum("kind", string(c.Kind)))
		}
	}
	return nil
}

func invalidEnum(field, value string) error {
	return apperr.Invalid(fmt.Sprintf("field %s has value %q outside its allowed set", field, value))
}
