package repositories

import (
	"crm-realtime/domain"
	crmerrors "crm-realtime/errors"
	"errors"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

type ChatRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewChatRepository(db *badger.DB, log *slog.Logger) *ChatRepository {
	return &ChatRepository{db: db, log: log}
}

// CreateChat stores the chat and one participant entry per distinct user.
func (c ChatRepository) CreateChat(chat domain.Chat, participants []int64) error {
	bytes, err := marshalRecord(map[string]any{
		"id":       formatID(chat.ID),
		"name":     chat.Name,
		"is_group": chat.IsGroup,
	})
	if err != nil {
		return err
	}
	return update(c.db, func(txn *badger.Txn) error {
		if err := txn.Set(key(chatKind, chat.ID), bytes); err != nil {
			return err
		}
		for _, userID := range lo.Uniq(participants) {
			if err := txn.Set(key(participantKind, chat.ID, userID), []byte{}); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c ChatRepository) ChatExists(id int64) (bool, error) {
	return exists(c.db, key(chatKind, id))
}

// GetRecipients lists the participants of a chat, ascending, without excludeUserID.
func (c ChatRepository) GetRecipients(chatID, excludeUserID int64) ([]int64, error) {
	keys, err := scanKeys(c.db, prefix(participantKind, chatID))
	if err != nil {
		return nil, err
	}
	recipients := make([]int64, 0, len(keys))
	for _, k := range keys {
		userID, err := lastID(k)
		if err != nil {
			return nil, err
		}
		if userID != excludeUserID {
			recipients = append(recipients, userID)
		}
	}
	return recipients, nil
}

// DeleteChat removes the chat with its participants and messages. Owned keys are
// listed and deleted within one transaction, so the cascade matches a single snapshot.
func (c ChatRepository) DeleteChat(id int64) error {
	cascaded := 0
	err := update(c.db, func(txn *badger.Txn) error {
		if _, err := txn.Get(key(chatKind, id)); err != nil {
			return err
		}
		owned := append(keysIn(txn, prefix(participantKind, id)), keysIn(txn, prefix(messageKind, id))...)
		for _, k := range owned {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		cascaded = len(owned)
		return txn.Delete(key(chatKind, id))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return &crmerrors.NotExistsError{Kind: "Chat", ID: id}
	}
	if err != nil {
		return err
	}
	c.log.Debug("Chat deleted", "chat_id", id, "cascaded", cascaded)
	return nil
}
