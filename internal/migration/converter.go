package migration

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/agentjobs/agentjobs/pkg/model"
)

// Free-text workflow labels seen in legacy Markdown, mapped onto the
// closed status vocabulary. Unknown labels fall back to planned.
var statusMap = map[string]model.Status{
	"complete":          model.StatusCompleted,
	"completed":         model.StatusCompleted,
	"done":              model.StatusCompleted,
	"in progress":       model.StatusInProgress,
	"in-progress":       model.StatusInProgress,
	"in_progress":       model.StatusInProgress,
	"active":            model.StatusInProgress,
	"blocked":           model.StatusBlocked,
	"on hold":           model.StatusBlocked,
	"paused":            model.StatusBlocked,
	"planned":           model.StatusPlanned,
	"pending":           model.StatusPlanned,
	"not started":       model.StatusPlanned,
	"waiting":           model.StatusWaitingForHuman,
	"waiting for human": model.StatusWaitingForHuman,
	"waiting_for_human": model.StatusWaitingForHuman,
	"needs human":       model.StatusWaitingForHuman,
	"under review":      model.StatusUnderReview,
	"review":            model.StatusUnderReview,
}

var priorityMap = map[string]model.Priority{
	"critical": model.PriorityCritical,
	"high":     model.PriorityHigh,
	"medium":   model.PriorityMedium,
	"normal":   model.PriorityMedium,
	"low":      model.PriorityLow,
}

var (
	taskPrefixRe = regexp.MustCompile(`(?i)^task[-\s]*`)
	slugRe       = regexp.MustCompile(`[^a-z0-9\-]+`)
	dashRunRe    = regexp.MustCompile(`-+`)
	numberRe     = regexp.MustCompile(`\d+`)
	pathSlugRe   = regexp.MustCompile(`[^a-zA-Z0-9/_\-.]+`)
)

// Convert maps a ParsedTask onto a task record. promptsDir, when
// non-empty, is searched for a task-NNN-*.md starter prompt file.
func Convert(parsed *ParsedTask, promptsDir string) *model.Task {
	now := time.Now().UTC()
	description := buildDescription(parsed)

	var phases []model.Phase
	for _, phase := range parsed.Phases {
		phases = append(phases, model.Phase{
			ID:     phase.ID,
			Title:  phase.Title,
			Status: mapStatus(phase.Status),
			Notes:  phase.Notes,
		})
	}

	var deliverables []model.Deliverable
	for _, deliverable := range parsed.Deliverables {
		if deliverable.Description == "" {
			continue
		}
		status := model.DeliverablePending
		if deliverable.Status == "completed" {
			status = model.DeliverableCompleted
		}
		deliverables = append(deliverables, model.Deliverable{
			Path:        deriveDeliverablePath(deliverable.Description),
			Description: deliverable.Description,
			Status:      status,
		})
	}

	var branches []model.Branch
	if branch := strings.TrimSpace(parsed.Branch); branch != "" {
		branches = append(branches, model.Branch{Name: branch, Status: model.BranchActive})
	}

	summary := parsed.HumanSummary
	if summary == "" {
		summary = description
		if len(summary) > 200 {
			summary = summary[:200]
		}
	}

	category := parsed.Category
	if category == "" {
		category = "general"
	}

	return &model.Task{
		ID:              generateTaskID(parsed),
		Title:           parsed.Title,
		Created:         now,
		Updated:         now,
		Status:          mapStatus(parsed.Status),
		Priority:        mapPriority(parsed.Priority),
		Category:        category,
		AssignedTo:      parsed.AssignedTo,
		EstimatedEffort: parsed.EstimatedEffort,
		HumanSummary:    summary,
		Description:     description,
		Phases:          phases,
		Deliverables:    deliverables,
		Branches:        branches,
		Prompts:         findPrompts(parsed, promptsDir, description),
	}
}

// buildDescription recomposes the record description from the parsed
// sections: body first, then objectives and issues as bullet lists,
// then free-form notes.
func buildDescription(parsed *ParsedTask) string {
	var segments []string
	if desc := strings.TrimSpace(parsed.Description); desc != "" {
		segments = append(segments, desc)
	}
	if len(parsed.Objectives) > 0 {
		segments = append(segments, "## Objectives\n"+bulletList(parsed.Objectives))
	}
	if len(parsed.Issues) > 0 {
		segments = append(segments, "## Issues\n"+bulletList(parsed.Issues))
	}
	if notes := strings.TrimSpace(parsed.Notes); notes != "" {
		segments = append(segments, notes)
	}

	description := strings.TrimSpace(strings.Join(segments, "\n\n"))
	if description == "" {
		description = strings.TrimSpace(parsed.RawContent)
	}
	if description == "" {
		description = "Imported task description unavailable."
	}
	return description
}

func bulletList(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}

// generateTaskID prefers the declared id, then a task-* filename, then
// a slug of the title.
func generateTaskID(parsed *ParsedTask) string {
	if parsed.TaskID != "" {
		id := strings.ToLower(strings.TrimSpace(parsed.TaskID))
		id = taskPrefixRe.ReplaceAllString(id, "")
		id = strings.TrimLeft(id, "#")
		id = strings.ReplaceAll(id, " ", "-")
		if id != "" {
			return "task-" + id
		}
	}

	if parsed.SourceFile != "" {
		if name := stem(parsed.SourceFile); strings.HasPrefix(name, "task-") {
			return strings.ToLower(name)
		}
	}

	slug := slugRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(parsed.Title)), "-")
	slug = strings.Trim(dashRunRe.ReplaceAllString(slug, "-"), "-")
	if slug == "" {
		slug = "imported-task"
	}
	if len(slug) > 50 {
		slug = slug[:50]
	}
	return "task-" + slug
}

func mapStatus(raw string) model.Status {
	if status, ok := statusMap[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return status
	}
	return model.StatusPlanned
}

func mapPriority(raw string) model.Priority {
	if priority, ok := priorityMap[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return priority
	}
	return model.PriorityMedium
}

// findPrompts links the first task-NNN-*.md file in promptsDir as the
// starter prompt; otherwise the description serves as the starter.
func findPrompts(parsed *ParsedTask, promptsDir, fallback string) model.Prompts {
	starter := fallback
	if starter == "" && len(parsed.RawContent) > 0 {
		starter = parsed.RawContent
		if len(starter) > 500 {
			starter = starter[:500]
		}
	}

	if promptsDir == "" {
		return model.Prompts{Starter: starter}
	}
	number := extractTaskNumber(parsed)
	if number == "" {
		return model.Prompts{Starter: starter}
	}

	matches, err := filepath.Glob(filepath.Join(promptsDir, "task-"+number+"-*.md"))
	if err != nil || len(matches) == 0 {
		return model.Prompts{Starter: starter}
	}
	sort.Strings(matches)

	content, err := os.ReadFile(matches[0])
	if err != nil {
		return model.Prompts{Starter: starter}
	}
	return model.Prompts{Starter: string(content)}
}

// extractTaskNumber pulls the numeric part of the id or filename,
// zero-padded to three digits to match prompt file naming.
func extractTaskNumber(parsed *ParsedTask) string {
	for _, candidate := range []string{parsed.TaskID, stem(parsed.SourceFile)} {
		if candidate == "" {
			continue
		}
		if m := numberRe.FindString(candidate); m != "" {
			for len(m) < 3 {
				m = "0" + m
			}
			return m
		}
	}
	return ""
}

func deriveDeliverablePath(description string) string {
	slug := strings.Trim(pathSlugRe.ReplaceAllString(strings.ToLower(description), "-"), "-")
	if slug == "" {
		slug = "deliverable"
	}
	return slug
}
