package model

// TaskPatch carries a partial task mutation. A nil field means "leave
// unchanged"; a present pointer to a zero value means "set to empty".
// The distinction survives JSON binding because absent keys leave the
// pointer nil. ID, Created, StatusUpdates, and Comments are not
// patchable: identity is immutable and the audit trail is append-only.
type TaskPatch struct {
	Title           *string             `json:"title,omitempty"`
	Description     *string             `json:"description,omitempty"`
	Status          *Status             `json:"status,omitempty"`
	Priority        *Priority           `json:"priority,omitempty"`
	Category        *string             `json:"category,omitempty"`
	AssignedTo      *string             `json:"assigned_to,omitempty"`
	EstimatedEffort *string             `json:"estimated_effort,omitempty"`
	HumanSummary    *string             `json:"human_summary,omitempty"`
	Tags            *[]string           `json:"tags,omitempty"`
	Phases          *[]Phase            `json:"phases,omitempty"`
	SuccessCriteria *[]SuccessCriterion `json:"success_criteria,omitempty"`
	Deliverables    *[]Deliverable      `json:"deliverables,omitempty"`
	Dependencies    *[]Dependency       `json:"dependencies,omitempty"`
	ExternalLinks   *[]ExternalLink     `json:"external_links,omitempty"`
	Issues          *[]Issue            `json:"issues,omitempty"`
	Branches        *[]Branch           `json:"branches,omitempty"`
	Prompts         *Prompts            `json:"prompts,omitempty"`
}

// IsEmpty reports whether the patch supplies no fields at all.
func (p *TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil &&
		p.Priority == nil && p.Category == nil && p.AssignedTo == nil &&
		p.EstimatedEffort == nil && p.HumanSummary == nil && p.Tags == nil &&
		p.Phases == nil && p.SuccessCriteria == nil && p.Deliverables == nil &&
		p.Dependencies == nil && p.ExternalLinks == nil && p.Issues == nil &&
		p.Branches == nil && p.Prompts == nil
}

// Apply overlays the supplied fields onto t, leaving nil fields untouched.
func (p *TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.AssignedTo != nil {
		t.AssignedTo = *p.AssignedTo
	}
	if p.EstimatedEffort != nil {
		t.EstimatedEffort = *p.EstimatedEffort
	}
	if p.HumanSummary != nil {
		t.HumanSummary = *p.HumanSummary
	}
	if p.Tags != nil {
		t.Tags = *p.Tags
	}
	if p.Phases != nil {
		t.Phases = *p.Phases
	}
	if p.SuccessCriteria != nil {
		t.SuccessCriteria = *p.SuccessCriteria
	}
	if p.Deliverables != nil {
		t.Deliverables = *p.Deliverables
	}
	if p.Dependencies != nil {
		t.Dependencies = *p.Dependencies
	}
	if p.ExternalLinks != nil {
		t.ExternalLinks = *p.ExternalLinks
	}
	if p.Issues != nil {
		t.Issues = *p.Issues
	}
	if p.Branches != nil {
		t.Branches = *p.Branches
	}
	if p.Prompts != nil {
		t.Prompts = *p.Prompts
	}
}
