package repositories

import (
	"crm-realtime/domain"
	"encoding/json"
	"log/slog"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
	ids *sequence
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) *MessageRepository {
	return &MessageRepository{db: db, log: log, ids: newSequence(db, messageKind)}
}

// Close returns the unused ids of the current lease. Call it before closing the store.
func (m MessageRepository) Close() error {
	return m.ids.release()
}

// CreateMessage persists a message under "message:{chat}:{sender}:{id}" so that
// the messages of one sender in one chat share a prefix and can be counted by a key scan.
func (m MessageRepository) CreateMessage(message domain.Message) (domain.Message, error) {
	now := time.Now().UTC()
	message.CreatedAt, message.UpdatedAt = now, now
	id, err := m.ids.next()
	if err != nil {
		return domain.Message{}, err
	}
	message.ID = id
	bytes, err := marshalRecord(fromMessage(message))
	if err != nil {
		return domain.Message{}, err
	}
	err = update(m.db, func(txn *badger.Txn) error {
		return txn.Set(key(messageKind, message.ChatID, message.SenderID, id), bytes)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

// CountMessages counts the persisted messages of a sender in a chat at call time.
func (m MessageRepository) CountMessages(chatID, senderID int64) (int, error) {
	keys, err := scanKeys(m.db, prefix(messageKind, chatID, senderID))
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// GetMessages returns every message of a chat ordered by id.
func (m MessageRepository) GetMessages(chatID int64) ([]domain.Message, error) {
	records, err := scanRecords(m.db, prefix(messageKind, chatID))
	if err != nil {
		return nil, err
	}
	messages := lo.Map(records, func(r record, _ int) domain.Message {
		return toMessage(r)
	})
	sort.Slice(messages, func(i, j int) bool { return messages[i].ID < messages[j].ID })
	return messages, nil
}

func fromMessage(m domain.Message) map[string]any {
	return map[string]any{
		"id":         formatID(m.ID),
		"chat_id":    formatID(m.ChatID),
		"sender_id":  formatID(m.SenderID),
		"content":    string(m.Content),
		"lang":       m.Lang,
		"created_at": formatTime(m.CreatedAt),
		"updated_at": formatTime(m.UpdatedAt),
	}
}

func toMessage(r record) domain.Message {
	return domain.Message{
		ID:        r.Int("id"),
		ChatID:    r.Int("chat_id"),
		SenderID:  r.Int("sender_id"),
		Content:   json.RawMessage(r.Str("content")),
		Lang:      r.Str("lang"),
		CreatedAt: r.Time("created_at"),
		UpdatedAt: r.Time("updated_at"),
	}
}
