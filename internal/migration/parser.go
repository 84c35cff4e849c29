// Package migration converts legacy Markdown task files into YAML task
// records. It is a one-shot import tool layered on the store; nothing in
// the daemon depends on it.
package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ParsedTask is the intermediate representation between a Markdown file
// and a task record. Fields are raw strings; mapping onto the closed
// enums happens in the converter.
type ParsedTask struct {
	Title           string
	TaskID          string
	Status          string
	Priority        string
	Category        string
	EstimatedEffort string
	AssignedTo      string
	Branch          string
	CompletionDate  string

	Description  string
	Objectives   []string
	Deliverables []ParsedDeliverable
	Phases       []ParsedPhase
	Issues       []string
	Notes        string
	HumanSummary string

	RawContent string
	SourceFile string
}

type ParsedDeliverable struct {
	Description string
	Status      string
}

type ParsedPhase struct {
	ID     string
	Title  string
	Status string
	Notes  string
}

var (
	titleRe = regexp.MustCompile(`(?m)^#\s+(.+)$`)

	metadataPatterns = map[string]*regexp.Regexp{
		"task_id":          regexp.MustCompile(`(?i)(?:ID|Task ID):\s*([^\n]+)`),
		"status":           regexp.MustCompile(`(?i)Status:\s*([^\n]+)`),
		"priority":         regexp.MustCompile(`(?i)Priority:\s*([^\n]+)`),
		"category":         regexp.MustCompile(`(?i)Category:\s*([^\n]+)`),
		"estimated_effort": regexp.MustCompile(`(?i)Estimated (?:Duration|Effort):\s*([^\n]+)`),
		"assigned_to":      regexp.MustCompile(`(?i)(?:Assigned(?:\s+To)?|Owner):\s*([^\n]+)`),
		"branch":           regexp.MustCompile(`(?i)Branch:\s*([^\n]+)`),
		"completion_date":  regexp.MustCompile(`(?i)(?:Completion Date|Date Completed):\s*([^\n]+)`),
	}

	boldRe       = regexp.MustCompile(`\*\*(.*?)\*\*`)
	codeRe       = regexp.MustCompile("`([^`]+)`")
	underscoreRe = regexp.MustCompile(`__([^_]+)__`)
	decorRe      = regexp.MustCompile("[`*#_]")
	italicRe     = regexp.MustCompile(`\*(.+?)\*`)
	linkRe       = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)

	listItemRe    = regexp.MustCompile(`(?m)^[-*]\s+(?:\[[ xX]\]\s+)?(.+)$`)
	deliverableRe = regexp.MustCompile(`(?m)^[-*]\s+(?:\[([ xX✓])\]\s+)?(.+)$`)
	phaseRe       = regexp.MustCompile(`(?mi)^###\s+([✅🔄⏸️❌✔️\-\s]*)?Phase\s+([^\s:]+)[:\s]+(.+)$`)
	phaseTagRe    = regexp.MustCompile(`(?i)\((COMPLETE|IN PROGRESS|BLOCKED|NOT STARTED)\)`)
	sentenceRe    = regexp.MustCompile(`([.!?])\s+`)
	phaseHeadRe   = regexp.MustCompile(`(?i)^#+\s+Phase`)
)

// ParseFile reads one Markdown task file into a ParsedTask. Missing
// sections come back empty rather than failing; only unreadable files
// are errors.
func ParseFile(path string) (*ParsedTask, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read task file: %w", err)
	}
	content := string(raw)

	title := stem(path)
	if m := titleRe.FindStringSubmatch(content); m != nil {
		title = strings.TrimSpace(m[1])
	}

	parsed := &ParsedTask{
		Title:      title,
		RawContent: content,
		SourceFile: path,
	}
	extractMetadata(content, parsed)

	parsed.Description = extractSection(content, "Objective", "Description", "Goals", "Context")
	parsed.Objectives = extractListItems(content, "Objectives", "Goals")
	parsed.Deliverables = extractDeliverables(content)
	parsed.Phases = extractPhases(content)
	parsed.Issues = extractListItems(content, "Issues", "Known Issues", "Blockers")
	parsed.Notes = extractSection(content, "Notes", "Additional Notes", "Comments", "Summary")
	parsed.HumanSummary = extractHumanSummary(content)
	parsed.Description = buildCleanDescription(parsed)

	return parsed, nil
}

func extractMetadata(content string, parsed *ParsedTask) {
	// Strip inline formatting first so "**Status**: done" still matches.
	block := boldRe.ReplaceAllString(content, "$1")
	block = codeRe.ReplaceAllString(block, "$1")
	block = underscoreRe.ReplaceAllString(block, "$1")

	get := func(key string) string {
		m := metadataPatterns[key].FindStringSubmatch(block)
		if m == nil {
			return ""
		}
		return strings.TrimSpace(decorRe.ReplaceAllString(strings.TrimSpace(m[1]), ""))
	}

	parsed.TaskID = get("task_id")
	parsed.Status = get("status")
	parsed.Priority = get("priority")
	parsed.Category = get("category")
	parsed.EstimatedEffort = get("estimated_effort")
	parsed.AssignedTo = get("assigned_to")
	parsed.Branch = get("branch")
	parsed.CompletionDate = get("completion_date")
}

// extractSection returns the body of the first matching "## Heading"
// section, up to the next level-two heading.
func extractSection(content string, headings ...string) string {
	for _, heading := range headings {
		re := regexp.MustCompile(`(?ims)^##\s+` + regexp.QuoteMeta(heading) + `[^\n]*\n(.*?)(?:^##|\z)`)
		if m := re.FindStringSubmatch(content); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func extractHumanSummary(content string) string {
	for _, heading := range []string{"Summary", "Overview", "Problem"} {
		re := regexp.MustCompile(`(?im)^##\s+` + heading + `\s*\n([^\n#]+)`)
		if m := re.FindStringSubmatch(content); m != nil {
			if text := trimToSentences(strings.TrimSpace(m[1]), 2, 0); text != "" {
				return text
			}
		}
	}

	if desc := extractSection(content, "Objective", "Description"); desc != "" {
		clean := boldRe.ReplaceAllString(desc, "$1")
		clean = linkRe.ReplaceAllString(clean, "$1")
		clean = codeRe.ReplaceAllString(clean, "$1")
		if text := trimToSentences(clean, 1, 200); text != "" {
			return text
		}
	}
	return "No summary available"
}

// trimToSentences keeps at most maxSentences sentences, then caps at
// maxChars (0 means unlimited) with an ellipsis.
func trimToSentences(text string, maxSentences, maxChars int) string {
	normalized := strings.Join(strings.Fields(text), " ")
	sentences := sentenceRe.Split(normalized, -1)
	ends := sentenceRe.FindAllStringSubmatch(normalized, -1)

	var parts []string
	for i, sentence := range sentences {
		if i >= maxSentences {
			break
		}
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if i < len(ends) {
			sentence += ends[i][1]
		}
		parts = append(parts, sentence)
	}
	selected := strings.Join(parts, " ")
	if selected == "" {
		selected = normalized
	}
	if maxChars > 0 && len(selected) > maxChars {
		selected = strings.TrimRight(selected[:maxChars-3], " ") + "..."
	}
	if selected != "" && !strings.ContainsAny(selected[len(selected)-1:], ".!?") {
		selected += "."
	}
	return selected
}

// buildCleanDescription shortens sprawling descriptions: stop at the
// first phase heading, skip overlong bold preamble lines, cap around
// 300 characters, and fall back to raw content when too little is left.
func buildCleanDescription(parsed *ParsedTask) string {
	desc := parsed.Description

	if desc != "" && (len(desc) > 500 || strings.Contains(desc, "##") || strings.Contains(desc, "Phase")) {
		var kept []string
		for _, line := range strings.Split(desc, "\n") {
			if phaseHeadRe.MatchString(line) {
				break
			}
			if strings.HasPrefix(strings.TrimSpace(line), "**") && len(line) > 100 {
				continue
			}
			kept = append(kept, line)
			if len(strings.Join(kept, "\n")) > 300 {
				break
			}
		}
		desc = strings.TrimSpace(strings.Join(kept, "\n"))
	}

	if len(desc) < 20 {
		if len(parsed.RawContent) > 300 {
			desc = parsed.RawContent[:300] + "..."
		} else {
			desc = parsed.RawContent
		}
	}
	return desc
}

func extractListItems(content string, headings ...string) []string {
	section := extractSection(content, headings...)
	if section == "" {
		return nil
	}
	var items []string
	for _, m := range listItemRe.FindAllStringSubmatch(section, -1) {
		items = append(items, cleanMarkdown(m[1]))
	}
	return items
}

// extractDeliverables reads checkbox lists: a checked box means the
// deliverable is already completed.
func extractDeliverables(content string) []ParsedDeliverable {
	section := extractSection(content, "Deliverables", "Deliverables Completed", "Checklist")
	if section == "" {
		return nil
	}
	var deliverables []ParsedDeliverable
	for _, m := range deliverableRe.FindAllStringSubmatch(section, -1) {
		status := "pending"
		switch strings.ToLower(strings.TrimSpace(m[1])) {
		case "x", "✓":
			status = "completed"
		}
		deliverables = append(deliverables, ParsedDeliverable{
			Description: cleanMarkdown(m[2]),
			Status:      status,
		})
	}
	return deliverables
}

// extractPhases reads "### Phase N: Title" headings; status is inferred
// from emoji or keywords in the heading, notes are the block that
// follows up to the next phase heading.
func extractPhases(content string) []ParsedPhase {
	locs := phaseRe.FindAllStringSubmatchIndex(content, -1)
	var phases []ParsedPhase
	for i, loc := range locs {
		heading := content[loc[0]:loc[1]]
		identifier := content[loc[4]:loc[5]]
		title := strings.TrimSpace(content[loc[6]:loc[7]])
		title = strings.TrimSpace(phaseTagRe.ReplaceAllString(title, ""))

		end := len(content)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		notes := strings.TrimSpace(content[loc[1]:end])

		phases = append(phases, ParsedPhase{
			ID:     "phase-" + strings.ToLower(strings.TrimSpace(identifier)),
			Title:  title,
			Status: detectPhaseStatus(heading),
			Notes:  notes,
		})
	}
	return phases
}

func cleanMarkdown(value string) string {
	value = strings.TrimSpace(value)
	value = codeRe.ReplaceAllString(value, "$1")
	value = boldRe.ReplaceAllString(value, "$1")
	value = italicRe.ReplaceAllString(value, "$1")
	return strings.TrimSpace(value)
}

func detectPhaseStatus(heading string) string {
	lower := strings.ToLower(heading)
	switch {
	case strings.Contains(heading, "✅"), strings.Contains(lower, "complete"), strings.Contains(lower, "done"):
		return "completed"
	case strings.Contains(heading, "🔄"), strings.Contains(lower, "in progress"):
		return "in_progress"
	case strings.Contains(heading, "⏸"), strings.Contains(lower, "blocked"), strings.Contains(lower, "paused"):
		return "blocked"
	default:
		return "planned"
	}
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
