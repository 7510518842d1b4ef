package services

import (
	"context"
	"crm-realtime/contract"
	"crm-realtime/domain"
	crmerrors "crm-realtime/errors"
	"crm-realtime/repositories"
	"encoding/json"
	"log/slog"
)

type messageRequest struct {
	ChatID   *int64          `json:"chat_id" validate:"required"`
	SenderID *int64          `json:"sender_id" validate:"required"`
	Content  json.RawMessage `json:"content" validate:"required,notnull"`
}

type MessageFields struct {
	ChatID   int64
	SenderID int64
	Content  json.RawMessage
}

type MessageService struct {
	log       *slog.Logger
	messages  repositories.IMessageRepository
	users     repositories.IUserRepository
	chats     repositories.IChatRepository
	fanout    *MessageFanout
	moderator contract.IModerator
}

func NewMessageService(log *slog.Logger,
	messages repositories.IMessageRepository,
	users repositories.IUserRepository,
	chats repositories.IChatRepository,
	fanout *MessageFanout,
	moderator contract.IModerator) *MessageService {
	return &MessageService{
		log:       log,
		messages:  messages,
		users:     users,
		chats:     chats,
		fanout:    fanout,
		moderator: moderator,
	}
}

func (s *MessageService) Handler() contract.Handler {
	return Action[MessageFields]{Validate: s.validate, Execute: s.send}
}

func (s *MessageService) validate(_ context.Context, payload []byte) (MessageFields, error) {
	req, err := bind[messageRequest](payload)
	if err != nil {
		return MessageFields{}, err
	}

	chatFound, err := s.chats.ChatExists(*req.ChatID)
	if err != nil {
		return MessageFields{}, crmerrors.BackingStore("chat exists", err)
	}
	senderFound, err := s.users.UserExists(*req.SenderID)
	if err != nil {
		return MessageFields{}, crmerrors.BackingStore("user exists", err)
	}

	verr := &crmerrors.ValidationError{}
	if !chatFound {
		verr.Add("chat_id", invalidPK(*req.ChatID))
	}
	if !senderFound {
		verr.Add("sender_id", invalidPK(*req.SenderID))
	}
	if len(verr.Fields) > 0 {
		return MessageFields{}, verr
	}
	return MessageFields{ChatID: *req.ChatID, SenderID: *req.SenderID, Content: req.Content}, nil
}

// send persists the message then hands every derived effect to the fanout.
func (s *MessageService) send(ctx context.Context, fields MessageFields) error {
	content, lang := s.moderate(fields.Content)
	message, err := s.messages.CreateMessage(domain.Message{
		ChatID:   fields.ChatID,
		SenderID: fields.SenderID,
		Content:  content,
		Lang:     lang,
	})
	if err != nil {
		return crmerrors.BackingStore("create message", err)
	}
	s.log.Info("Message created", "message_id", message.ID, "chat_id", message.ChatID)

	username, err := s.users.GetUsername(fields.SenderID)
	if err != nil {
		return crmerrors.BackingStore("get username", err)
	}
	recipients, err := s.chats.GetRecipients(fields.ChatID, fields.SenderID)
	if err != nil {
		return crmerrors.BackingStore("get recipients", err)
	}
	counter, err := s.messages.CountMessages(fields.ChatID, fields.SenderID)
	if err != nil {
		return crmerrors.BackingStore("count messages", err)
	}

	return s.fanout.Run(ctx, Fanout{
		Username:   username,
		Message:    message,
		Recipients: recipients,
		MsgCounter: counter,
	})
}

// moderate censors and tags textual content. Structured content is stored as sent.
func (s *MessageService) moderate(content json.RawMessage) (json.RawMessage, string) {
	if s.moderator == nil {
		return content, ""
	}
	var text string
	if err := json.Unmarshal(content, &text); err != nil {
		return content, ""
	}
	lang := s.moderator.DetectLang(text)
	sanitized, words := s.moderator.Censor(text)
	if len(words) == 0 {
		return content, lang
	}
	encoded, err := json.Marshal(sanitized)
	if err != nil {
		return content, lang
	}
	s.log.Debug("Message censored", "words", len(words), "lang", lang)
	return encoded, lang
}
