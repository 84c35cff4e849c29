package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/agentjobs/agentjobs/internal/store"
)

// Options configures one migration run.
type Options struct {
	// SourcePatterns are glob patterns selecting Markdown files.
	SourcePatterns []string
	// TargetDir receives the YAML records.
	TargetDir string
	// PromptsDir, when set, is searched for starter prompt files.
	PromptsDir string
	// DryRun previews the conversion without writing records.
	DryRun bool
}

// Migrate converts every matched Markdown file and, unless dry-running,
// persists the result through the task store. Per-file failures are
// reported in the results, not returned as an error.
func Migrate(opts Options, log *zap.Logger) ([]Result, error) {
	if log == nil {
		log = zap.NewNop()
	}

	sources, err := collectSources(opts.SourcePatterns)
	if err != nil {
		return nil, err
	}

	var taskStore *store.TaskStore
	if !opts.DryRun {
		taskStore, err = store.NewTaskStore(opts.TargetDir, log)
		if err != nil {
			return nil, err
		}
	}

	var results []Result
	for _, source := range sources {
		result := migrateOne(source, opts, taskStore, log)
		results = append(results, result)
	}
	return results, nil
}

func migrateOne(source string, opts Options, taskStore *store.TaskStore, log *zap.Logger) Result {
	parsed, err := ParseFile(source)
	if err != nil {
		return Result{SourceFile: source, TaskID: stem(source), Errors: []string{err.Error()}}
	}

	task := Convert(parsed, opts.PromptsDir)

	var warnings []string
	trimmed := strings.TrimSpace(task.Description)
	if trimmed == "" {
		warnings = append(warnings, "Description is empty after migration")
	} else if len(trimmed) < 10 {
		warnings = append(warnings, "Description is very short")
	}
	if len(task.Phases) == 0 && len(task.Deliverables) == 0 {
		warnings = append(warnings, "No phases or deliverables extracted")
	}

	if taskStore != nil {
		if _, err := taskStore.Save(task); err != nil {
			return Result{SourceFile: source, TaskID: task.ID, Errors: []string{err.Error()}}
		}
	}

	log.Info("migrated task",
		zap.String("source", source),
		zap.String("task_id", task.ID),
		zap.Bool("dry_run", opts.DryRun))

	return Result{
		SourceFile: source,
		TaskID:     task.ID,
		Success:    true,
		TargetFile: filepath.Join(opts.TargetDir, task.ID+".yaml"),
		Warnings:   warnings,
	}
}

// collectSources expands glob patterns into a sorted, de-duplicated
// list of regular files.
func collectSources(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad source pattern %q: %w", pattern, err)
		}
		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil || info.IsDir() {
				continue
			}
			abs, err := filepath.Abs(match)
			if err != nil {
				abs = match
			}
			if seen[abs] {
				continue
			}
			seen[abs] = true
			files = append(files, match)
		}
	}
	sort.Strings(files)
	return files, nil
}
