package services

import (
	"context"
	"crm-realtime/contract"
	"crm-realtime/domain"
	"crm-realtime/domain/event"
	crmerrors "crm-realtime/errors"
	"crm-realtime/repositories"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Fanout is the input of one derived-effect run.
type Fanout struct {
	Username   string
	Message    domain.Message
	Recipients []int64
	MsgCounter int
}

// MessageFanout turns a persisted chat message into its derived effects:
// one stored and published notification per recipient, then the message itself.
// Notifications always reach the notifications group before the message reaches the messages group.
type MessageFanout struct {
	log           *slog.Logger
	notifications repositories.INotificationRepository
	publisher     contract.Publisher
}

func NewMessageFanout(log *slog.Logger,
	notifications repositories.INotificationRepository,
	publisher contract.Publisher) *MessageFanout {
	return &MessageFanout{log: log, notifications: notifications, publisher: publisher}
}

// Run stops at the first failure. Notifications created before it are kept.
func (f *MessageFanout) Run(ctx context.Context, in Fanout) error {
	content, err := counterContent(in.MsgCounter)
	if err != nil {
		return err
	}

	for _, recipient := range in.Recipients {
		if err := ctx.Err(); err != nil {
			f.log.Debug("Fanout interrupted", "chat_id", in.Message.ChatID, "error", err)
			return err
		}
		notification, err := f.notifications.CreateNotification(domain.Notification{
			UserID:  recipient,
			Content: content,
		})
		if err != nil {
			return crmerrors.BackingStore("create notification", err)
		}
		f.log.Debug("Derived notification created", "notification_id", notification.ID, "user_id", recipient)

		if err := broadcast(ctx, f.publisher, domain.NotificationsGroup, event.NewNotificationDerived(recipient, content)); err != nil {
			return err
		}
	}

	return broadcast(ctx, f.publisher, domain.MessagesGroup, event.NewMessageSent(in.Username, in.Message, in.MsgCounter))
}

func counterContent(counter int) (json.RawMessage, error) {
	return json.Marshal(map[string]string{
		"content": fmt.Sprintf("You've received %d messages!", counter),
	})
}
