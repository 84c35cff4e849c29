package store

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/agentjobs/agentjobs/internal/yamlfile"
)

// Watcher reports external edits to task records. Records are
// human-editable YAML, so operators change them with a text editor while
// the service runs; the watcher makes those edits visible in the logs.
type Watcher struct {
	fsw *fsnotify.Watcher
	dir string
	log *zap.Logger
}

func NewWatcher(dir string, log *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return &Watcher{fsw: fsw, dir: dir, log: log}, nil
}

// Run consumes filesystem events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fsw.Close() }()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("task directory watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if filepath.Ext(name) != ".yaml" || strings.HasPrefix(name, yamlfile.TempPrefix) {
		return
	}
	id := strings.TrimSuffix(name, ".yaml")
	switch {
	case event.Op.Has(fsnotify.Create), event.Op.Has(fsnotify.Write), event.Op.Has(fsnotify.Rename):
		w.log.Info("task record changed on disk", zap.String("task_id", id), zap.String("op", event.Op.String()))
	case event.Op.Has(fsnotify.Remove):
		w.log.Info("task record removed from disk", zap.String("task_id", id))
	}
}
