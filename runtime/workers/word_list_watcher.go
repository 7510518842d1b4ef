package workers

import (
	"context"
	"crm-realtime/moderation"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDelay = 200 * time.Millisecond

// WordListWatcher rebuilds the moderator when a dictionary of the watched directory changes.
// Editors emit several events per save, they are coalesced before rebuilding.
type WordListWatcher struct {
	dir    string
	char   rune
	holder *moderation.Holder
	log    *slog.Logger
}

func NewWordListWatcher(dir string, char rune, holder *moderation.Holder, log *slog.Logger) *WordListWatcher {
	return &WordListWatcher{dir: dir, char: char, holder: holder, log: log}
}

func (w *WordListWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.log.Info("Watching censored words", "dir", w.dir)

	var reload <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			if filepath.Ext(evt.Name) != ".txt" || evt.Op == fsnotify.Chmod {
				continue
			}
			w.log.Debug("Dictionary changed", "file", evt.Name, "op", evt.Op.String())
			reload = time.After(reloadDelay)
		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			w.log.Warn("Watcher error", "error", err)
		case <-reload:
			reload = nil
			w.rebuild()
		}
	}
}

// rebuild keeps the current moderator when the new list cannot be used.
func (w *WordListWatcher) rebuild() {
	mod, err := moderation.Build(moderation.NewCensoredLoader(os.DirFS(w.dir)), ".", w.char, w.log)
	if err != nil {
		w.log.Error("Dictionary reload failed, keeping current words", "error", err)
		return
	}
	w.holder.Swap(mod)
}
