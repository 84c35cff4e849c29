package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Result records the outcome of migrating one source file.
type Result struct {
	SourceFile string
	TaskID     string
	Success    bool
	TargetFile string
	Errors     []string
	Warnings   []string
}

// WriteReport renders a Markdown summary of the run to reportPath,
// creating parent directories as needed.
func WriteReport(results []Result, reportPath string, dryRun bool) error {
	var successful, failed, withWarnings []Result
	for _, result := range results {
		if result.Success {
			successful = append(successful, result)
		} else {
			failed = append(failed, result)
		}
		if len(result.Warnings) > 0 {
			withWarnings = append(withWarnings, result)
		}
	}

	mode := "Live Migration"
	if dryRun {
		mode = "Dry Run (Preview)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Migration Report\n\n")
	fmt.Fprintf(&b, "**Generated**: %s UTC\n", time.Now().UTC().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**Mode**: %s\n\n---\n\n", mode)

	fmt.Fprintf(&b, "## Summary\n\n")
	fmt.Fprintf(&b, "- **Total Tasks**: %d\n", len(results))
	fmt.Fprintf(&b, "- **Successful**: %d\n", len(successful))
	fmt.Fprintf(&b, "- **Failed**: %d\n", len(failed))
	fmt.Fprintf(&b, "- **With Warnings**: %d\n\n---\n\n", len(withWarnings))

	if len(successful) > 0 {
		fmt.Fprintf(&b, "## Successful Migrations\n\n")
		for _, result := range successful {
			fmt.Fprintf(&b, "### %s\n\n", result.TaskID)
			fmt.Fprintf(&b, "- **Source**: `%s`\n", result.SourceFile)
			if result.TargetFile != "" {
				fmt.Fprintf(&b, "- **Target**: `%s`\n", result.TargetFile)
			}
			for _, warning := range result.Warnings {
				fmt.Fprintf(&b, "- **Warning**: %s\n", warning)
			}
			fmt.Fprintf(&b, "\n")
		}
	}

	if len(failed) > 0 {
		fmt.Fprintf(&b, "## Failed Migrations\n\n")
		for _, result := range failed {
			fmt.Fprintf(&b, "### %s\n\n", result.TaskID)
			fmt.Fprintf(&b, "- **Source**: `%s`\n", result.SourceFile)
			for _, errText := range result.Errors {
				fmt.Fprintf(&b, "- **Error**: %s\n", errText)
			}
			fmt.Fprintf(&b, "\n")
		}
	}

	fmt.Fprintf(&b, "## Recommendations\n\n")
	if dryRun {
		fmt.Fprintf(&b, "- Review warnings and errors above.\n")
		fmt.Fprintf(&b, "- Fix any critical issues in source files.\n")
		fmt.Fprintf(&b, "- Run migration without --dry-run to write YAML files.\n")
	} else {
		fmt.Fprintf(&b, "- Review generated YAML files in the target directory.\n")
		fmt.Fprintf(&b, "- Verify task data integrity.\n")
		fmt.Fprintf(&b, "- Start the server to view imported tasks in the dashboard.\n")
	}

	if err := os.MkdirAll(filepath.Dir(reportPath), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	if err := os.WriteFile(reportPath, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
