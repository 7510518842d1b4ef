package domain

// User is owned by the accounts service; only what the realtime layer reads is kept.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Chat groups participants exchanging messages.
type Chat struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	IsGroup bool   `json:"is_group"`
}

// Participant links a user to a chat.
type Participant struct {
	ChatID int64 `json:"chat_id"`
	UserID int64 `json:"user_id"`
}
