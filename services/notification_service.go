package services

import (
	"context"
	"crm-realtime/contract"
	"crm-realtime/domain"
	"crm-realtime/domain/event"
	crmerrors "crm-realtime/errors"
	"crm-realtime/repositories"
	"encoding/json"
	"log/slog"
)

type notificationRequest struct {
	UserID  *int64          `json:"user_id" validate:"required"`
	Content json.RawMessage `json:"content" validate:"required,notnull"`
}

type NotificationFields struct {
	UserID  int64
	Content json.RawMessage
}

type NotificationService struct {
	log           *slog.Logger
	notifications repositories.INotificationRepository
	users         repositories.IUserRepository
	publisher     contract.Publisher
}

func NewNotificationService(log *slog.Logger,
	notifications repositories.INotificationRepository,
	users repositories.IUserRepository,
	publisher contract.Publisher) *NotificationService {
	return &NotificationService{log: log, notifications: notifications, users: users, publisher: publisher}
}

func (s *NotificationService) Handler() contract.Handler {
	return Action[NotificationFields]{Validate: s.validate, Execute: s.create}
}

func (s *NotificationService) validate(_ context.Context, payload []byte) (NotificationFields, error) {
	req, err := bind[notificationRequest](payload)
	if err != nil {
		return NotificationFields{}, err
	}
	if err := requireUser(s.users, "user_id", *req.UserID); err != nil {
		return NotificationFields{}, err
	}
	return NotificationFields{UserID: *req.UserID, Content: req.Content}, nil
}

func (s *NotificationService) create(ctx context.Context, fields NotificationFields) error {
	notification, err := s.notifications.CreateNotification(domain.Notification{
		UserID:  fields.UserID,
		Content: fields.Content,
	})
	if err != nil {
		return crmerrors.BackingStore("create notification", err)
	}
	s.log.Info("Notification created", "notification_id", notification.ID, "user_id", notification.UserID)

	username, err := s.users.GetUsername(fields.UserID)
	if err != nil {
		return crmerrors.BackingStore("get username", err)
	}
	return broadcast(ctx, s.publisher, domain.NotificationsGroup, event.NewNotificationCreated(username, notification))
}
