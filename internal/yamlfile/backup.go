package yamlfile

import (
	"fmt"
	"os"
)

// RestoreFromBackup replaces path with its .bak sibling, refusing to
// restore a backup that does not parse. Used by operators to recover a
// hand-edited record that went bad; normal reads simply skip corrupt
// records.
func RestoreFromBackup(path string) error {
	bakPath := path + ".bak"
	if _, err := os.Stat(bakPath); os.IsNotExist(err) {
		return fmt.Errorf("no backup file: %s", bakPath)
	}

	content, err := os.ReadFile(bakPath)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}

	if err := validateYAML(content); err != nil {
		return fmt.Errorf("backup YAML is also corrupted: %w", err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("restore from backup: %w", err)
	}

	return nil
}
