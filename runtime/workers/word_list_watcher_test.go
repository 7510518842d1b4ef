package workers

import (
	"context"
	"crm-realtime/moderation"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestWordListWatcher_Reloads_On_Change(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	dir := t.TempDir()
	req.NoError(os.WriteFile(filepath.Join(dir, "en.txt"), []byte("badger\n"), 0o644))

	mod, err := moderation.Build(moderation.NewCensoredLoader(os.DirFS(dir)), ".", '*', log)
	req.NoError(err)
	holder := moderation.NewHolder(log, mod)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watcher := NewWordListWatcher(dir, '*', holder, log)
	go func() { _ = watcher.Run(ctx) }()

	content, _ := holder.Censor("badger and snake")
	req.Equal("****** and snake", content)

	// When a word is added to the dictionary
	time.Sleep(50 * time.Millisecond)
	req.NoError(os.WriteFile(filepath.Join(dir, "en.txt"), []byte("badger\nsnake\n"), 0o644))

	// Then the new moderator is used
	req.Eventually(func() bool {
		content, _ := holder.Censor("badger and snake")
		return content == "****** and *****"
	}, 2*time.Second, 20*time.Millisecond)
}

func TestWordListWatcher_Keeps_Words_On_Empty_List(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	dir := t.TempDir()
	req.NoError(os.WriteFile(filepath.Join(dir, "en.txt"), []byte("badger\n"), 0o644))

	mod, err := moderation.Build(moderation.NewCensoredLoader(os.DirFS(dir)), ".", '*', log)
	req.NoError(err)
	holder := moderation.NewHolder(log, mod)
	watcher := NewWordListWatcher(dir, '*', holder, log)

	// When the dictionary is emptied
	req.NoError(os.WriteFile(filepath.Join(dir, "en.txt"), []byte("\n"), 0o644))
	watcher.rebuild()

	// Then the previous words still apply
	content, _ := holder.Censor("a badger")
	req.Equal("a ******", content)
}

func TestWordListWatcher_Missing_Dir(t *testing.T) {
	req := require.New(t)
	watcher := NewWordListWatcher(filepath.Join(t.TempDir(), "missing"), '*', moderation.NewHolder(slog.Default(), nil), slog.Default())

	req.Error(watcher.Run(context.Background()))
}
