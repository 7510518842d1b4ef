package services

import (
	"context"
	"crm-realtime/domain"
	"crm-realtime/repositories"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type published struct {
	Group   domain.GroupName
	Payload map[string]any
}

// recorder keeps every publish in order, across groups.
type recorder struct {
	mu     sync.Mutex
	events []published
}

func (r *recorder) Publish(_ context.Context, group domain.GroupName, payload []byte) error {
	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{Group: group, Payload: decoded})
	return nil
}

func (r *recorder) Events() []published {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]published(nil), r.events...)
}

type fixture struct {
	db            *badger.DB
	log           *slog.Logger
	comments      *repositories.CommentRepository
	notifications *repositories.NotificationRepository
	messages      *repositories.MessageRepository
	users         *repositories.UserRepository
	chats         *repositories.ChatRepository
	publisher     *recorder
}

func newFixture(t *testing.T) fixture {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	f := fixture{
		db:            db,
		log:           log,
		comments:      repositories.NewCommentRepository(db, log),
		notifications: repositories.NewNotificationRepository(db, log),
		messages:      repositories.NewMessageRepository(db, log),
		users:         repositories.NewUserRepository(db),
		chats:         repositories.NewChatRepository(db, log),
		publisher:     &recorder{},
	}
	for _, u := range []domain.User{{ID: 1, Username: "alice"}, {ID: 2, Username: "bob"}, {ID: 3, Username: "carol"}} {
		req.NoError(f.users.CreateUser(u))
	}
	return f
}

func (f fixture) commentService() *CommentService {
	return NewCommentService(f.log, f.comments, f.users, f.publisher, nil)
}

func (f fixture) messageService() *MessageService {
	fanout := NewMessageFanout(f.log, f.notifications, f.publisher)
	return NewMessageService(f.log, f.messages, f.users, f.chats, fanout, nil)
}
