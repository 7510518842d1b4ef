package repositories

import (
	"crm-realtime/domain"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

type NotificationRepository struct {
	db  *badger.DB
	log *slog.Logger
	ids *sequence
}

func NewNotificationRepository(db *badger.DB, log *slog.Logger) *NotificationRepository {
	return &NotificationRepository{db: db, log: log, ids: newSequence(db, notificationKind)}
}

// Close returns the unused ids of the current lease. Call it before closing the store.
func (n NotificationRepository) Close() error {
	return n.ids.release()
}

func (n NotificationRepository) CreateNotification(notification domain.Notification) (domain.Notification, error) {
	notification.CreatedAt = time.Now().UTC()
	id, err := n.ids.next()
	if err != nil {
		return domain.Notification{}, err
	}
	notification.ID = id
	bytes, err := marshalRecord(fromNotification(notification))
	if err != nil {
		return domain.Notification{}, err
	}
	err = update(n.db, func(txn *badger.Txn) error {
		return txn.Set(key(notificationKind, notification.UserID, id), bytes)
	})
	if err != nil {
		return domain.Notification{}, err
	}
	return notification, nil
}

// GetNotifications returns the notifications of a user, oldest first.
func (n NotificationRepository) GetNotifications(userID int64) ([]domain.Notification, error) {
	records, err := scanRecords(n.db, prefix(notificationKind, userID))
	if err != nil {
		return nil, err
	}
	return lo.Map(records, func(r record, _ int) domain.Notification {
		return toNotification(r)
	}), nil
}

func fromNotification(n domain.Notification) map[string]any {
	return map[string]any{
		"id":         formatID(n.ID),
		"user_id":    formatID(n.UserID),
		"content":    string(n.Content),
		"created_at": formatTime(n.CreatedAt),
	}
}

func toNotification(r record) domain.Notification {
	return domain.Notification{
		ID:        r.Int("id"),
		UserID:    r.Int("user_id"),
		Content:   json.RawMessage(r.Str("content")),
		CreatedAt: r.Time("created_at"),
	}
}
