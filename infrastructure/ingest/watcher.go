package ingest

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// debounceWindow absorbs editor write bursts into a single reload
const debounceWindow = 500 * time.Millisecond

// Watcher reloads the graph whenever a YAML file in the data directory
// changes. Reload failures keep the previous graph; the next change gets
// another chance.
type Watcher struct {
	loader  *Loader
	dataDir string
	logger  *zap.Logger
	fsw     *fsnotify.Watcher
}

// NewWatcher creates a watcher over the loader's data directory
func NewWatcher(loader *Loader, dataDir string, logger *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dataDir); err != nil {
		fsw.Close()
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		loader:  loader,
		dataDir: dataDir,
		logger:  logger,
		fsw:     fsw,
	}, nil
}

// Run blocks processing filesystem events until the context is cancelled
func (w *Watcher) Run(ctx context.Context) {
	defer w.fsw.Close()

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !relevant(event) {
				continue
			}
			w.logger.Debug("Config file changed",
				zap.String("file", event.Name),
				zap.String("op", event.Op.String()),
			)
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounceWindow)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			if err := w.loader.Load(ctx); err != nil {
				w.logger.Error("Config reload failed, keeping previous graph", zap.Error(err))
				continue
			}
			w.logger.Info("Graph reloaded after config change")

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("Filesystem watcher error", zap.Error(err))
		}
	}
}

// relevant filters events down to YAML writes, creates and removes
func relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	ext := strings.ToLower(filepath.Ext(event.Name))
	return ext == ".yml" || ext == ".yaml"
}
