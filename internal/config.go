package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
)

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"MODERATION_CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}

// LoadEnvFiles loads .env style files into the environment without overriding
// variables already set. Missing files are skipped.
func LoadEnvFiles(log *slog.Logger, files ...string) error {
	for _, file := range files {
		err := godotenv.Load(file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("load %s: %w", file, err)
		}
		if log != nil {
			log.Debug("Environment file loaded", "file", file)
		}
	}
	return nil
}

// OpenStore opens the Badger directory shared by the server and the tools.
func OpenStore(path string, readOnly bool) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithLoggingLevel(badger.WARNING).
		WithReadOnly(readOnly)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("database opening failed: %w", err)
	}
	return db, nil
}
