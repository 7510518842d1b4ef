package domain

import (
	"encoding/json"
	"time"
)

// Message is a chat message. Content is a free-form JSON document, Lang is the
// ISO 639-1 code detected from textual content, empty when unknown.
type Message struct {
	ID        int64           `json:"id"`
	ChatID    int64           `json:"chat_id"`
	SenderID  int64           `json:"sender_id"`
	Content   json.RawMessage `json:"content"`
	Lang      string          `json:"lang,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
