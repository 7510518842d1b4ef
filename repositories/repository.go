//go:generate go run go.uber.org/mock/mockgen -source=repository.go -destination=../mocks/mock_repository.go -package=mocks
package repositories

import "crm-realtime/domain"

type ICommentRepository interface {
	CreateComment(comment domain.Comment) (domain.Comment, error)
	UpdateCommentContent(id, memberID int64, content string) (int, error)
	GetComment(id int64) (domain.Comment, error)
	DeleteComment(id int64) error
}

type INotificationRepository interface {
	CreateNotification(notification domain.Notification) (domain.Notification, error)
	GetNotifications(userID int64) ([]domain.Notification, error)
}

type IMessageRepository interface {
	CreateMessage(message domain.Message) (domain.Message, error)
	CountMessages(chatID, senderID int64) (int, error)
	GetMessages(chatID int64) ([]domain.Message, error)
}

type IUserRepository interface {
	CreateUser(user domain.User) error
	GetUsername(id int64) (string, error)
	UserExists(id int64) (bool, error)
}

type IChatRepository interface {
	CreateChat(chat domain.Chat, participants []int64) error
	ChatExists(id int64) (bool, error)
	GetRecipients(chatID, excludeUserID int64) ([]int64, error)
	DeleteChat(id int64) error
}
