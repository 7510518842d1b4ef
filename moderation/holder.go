package moderation

import (
	"log/slog"
	"sync/atomic"

	"github.com/abadojack/whatlanggo"
)

// Holder serves the current Moderator and lets a watcher swap it without locking readers.
// A Holder without moderator passes text through untouched.
type Holder struct {
	current atomic.Pointer[Moderator]
	log     *slog.Logger
}

func NewHolder(log *slog.Logger, moderator *Moderator) *Holder {
	h := &Holder{log: log}
	if moderator != nil {
		h.current.Store(moderator)
	}
	return h
}

func (h *Holder) Swap(moderator *Moderator) {
	h.current.Store(moderator)
	h.log.Info("Moderator swapped")
}

func (h *Holder) Censor(text string) (string, []string) {
	m := h.current.Load()
	if m == nil {
		return text, nil
	}
	return m.Censor(text)
}

// DetectLang returns the ISO 639-1 code of the text.
func (h *Holder) DetectLang(text string) string {
	return whatlanggo.Detect(text).Lang.Iso6391()
}

// Build loads dir from the loader and builds a moderator out of it.
func Build(loader *CensoredLoader, dir string, char rune, log *slog.Logger) (*Moderator, error) {
	data, err := loader.LoadAll(dir)
	if err != nil {
		return nil, err
	}
	log.Info("Censored words loaded", "words", len(data.Words), "languages", data.Languages)
	return NewModerator(data.Words, char, log)
}
