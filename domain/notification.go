package domain

import (
	"encoding/json"
	"time"
)

// Notification is addressed to a single user. Content is a free-form JSON document.
type Notification struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Content   json.RawMessage `json:"content"`
	CreatedAt time.Time       `json:"created_at"`
}
