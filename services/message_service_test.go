package services

import (
	"context"
	"crm-realtime/domain"
	crmerrors "crm-realtime/errors"
	"crm-realtime/mocks"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestMessageService_Send_Orders_Notifications_Before_Message(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	handler := f.messageService().Handler()

	// Given a chat between alice, bob and carol
	req.NoError(f.chats.CreateChat(domain.Chat{ID: 5, Name: "deal", IsGroup: true}, []int64{1, 2, 3}))

	// When alice sends a message
	err := handler.Handle(context.Background(), []byte(`{"chat_id":5,"sender_id":1,"content":"hello"}`))
	req.NoError(err)

	// Then bob and carol are notified first
	events := f.publisher.Events()
	req.Len(events, 3)
	for i, recipient := range []float64{2, 3} {
		req.Equal(domain.NotificationsGroup, events[i].Group)
		req.Equal("send_notification", events[i].Payload["type"])
		req.Equal(recipient, events[i].Payload["user_id"])
		req.Equal(map[string]any{"content": "You've received 1 messages!"}, events[i].Payload["content"])
	}

	// And the message comes last
	req.Equal(domain.MessagesGroup, events[2].Group)
	req.Equal("send_message", events[2].Payload["type"])
	req.Equal("alice", events[2].Payload["username"])
	req.EqualValues(5, events[2].Payload["chat_id"])
	req.EqualValues(1, events[2].Payload["msg_counter"])
	message := events[2].Payload["message"].(map[string]any)
	req.Equal("hello", message["content"])

	// And the notifications are persisted
	for _, recipient := range []int64{2, 3} {
		notifications, err := f.notifications.GetNotifications(recipient)
		req.NoError(err)
		req.Len(notifications, 1)
		req.JSONEq(`{"content":"You've received 1 messages!"}`, string(notifications[0].Content))
	}
	notifications, err := f.notifications.GetNotifications(1)
	req.NoError(err)
	req.Empty(notifications)
}

func TestMessageService_Counter_Increases(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	handler := f.messageService().Handler()
	req.NoError(f.chats.CreateChat(domain.Chat{ID: 5, Name: "deal"}, []int64{1, 2}))

	// When bob sends a message and alice sends three
	req.NoError(handler.Handle(context.Background(), []byte(`{"chat_id":5,"sender_id":2,"content":{"text":"hey"}}`)))
	for i := 0; i < 3; i++ {
		req.NoError(handler.Handle(context.Background(), []byte(`{"chat_id":5,"sender_id":1,"content":"ping"}`)))
	}

	// Then the counters are per sender
	var counters []float64
	for _, e := range f.publisher.Events() {
		if e.Group == domain.MessagesGroup && e.Payload["username"] == "alice" {
			counters = append(counters, e.Payload["msg_counter"].(float64))
		}
	}
	req.Equal([]float64{1, 2, 3}, counters)
}

func TestMessageService_Send_Without_Recipients(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	req.NoError(f.chats.CreateChat(domain.Chat{ID: 5, Name: "notes"}, []int64{1}))

	req.NoError(f.messageService().Handler().Handle(context.Background(), []byte(`{"chat_id":5,"sender_id":1,"content":"memo"}`)))

	events := f.publisher.Events()
	req.Len(events, 1)
	req.Equal(domain.MessagesGroup, events[0].Group)
}

func TestMessageService_Validation(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.chats.CreateChat(domain.Chat{ID: 5, Name: "deal"}, []int64{1, 2}))
	handler := f.messageService().Handler()

	tests := []struct {
		name     string
		payload  string
		expected map[string][]string
	}{
		{
			name:     "Null content",
			payload:  `{"chat_id":5,"sender_id":1,"content":null}`,
			expected: map[string][]string{"content": {"This field may not be null."}},
		},
		{
			name:     "Missing content",
			payload:  `{"chat_id":5,"sender_id":1}`,
			expected: map[string][]string{"content": {"This field is required."}},
		},
		{
			name:    "Unknown chat and sender",
			payload: `{"chat_id":6,"sender_id":9,"content":"x"}`,
			expected: map[string][]string{
				"chat_id":   {`Invalid pk "6" - object does not exist.`},
				"sender_id": {`Invalid pk "9" - object does not exist.`},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			var verr *crmerrors.ValidationError
			req.ErrorAs(handler.Handle(context.Background(), []byte(tt.payload)), &verr)
			req.Equal(tt.expected, verr.Fields)
		})
	}

	// Then nothing was persisted nor broadcast
	require.Empty(t, f.publisher.Events())
	count, err := f.messages.CountMessages(5, 1)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestMessageService_Moderates_Text_Content(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newFixture(t)
	req.NoError(f.chats.CreateChat(domain.Chat{ID: 5, Name: "deal"}, []int64{1, 2}))

	moderator := mocks.NewMockIModerator(ctrl)
	moderator.EXPECT().DetectLang("quel badger").Return("fr")
	moderator.EXPECT().Censor("quel badger").Return("quel ******", []string{"badger"})

	fanout := NewMessageFanout(f.log, f.notifications, f.publisher)
	service := NewMessageService(f.log, f.messages, f.users, f.chats, fanout, moderator)

	// When a textual and a structured message are sent
	req.NoError(service.Handler().Handle(context.Background(), []byte(`{"chat_id":5,"sender_id":1,"content":"quel badger"}`)))
	req.NoError(service.Handler().Handle(context.Background(), []byte(`{"chat_id":5,"sender_id":1,"content":{"file":"badger.pdf"}}`)))

	// Then only the text is censored and tagged
	messages, err := f.messages.GetMessages(5)
	req.NoError(err)
	req.Len(messages, 2)
	req.JSONEq(`"quel ******"`, string(messages[0].Content))
	req.Equal("fr", messages[0].Lang)
	req.JSONEq(`{"file":"badger.pdf"}`, string(messages[1].Content))
	req.Empty(messages[1].Lang)
}

func TestMessageFanout_Stops_On_Notification_Failure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	notifications := mocks.NewMockINotificationRepository(ctrl)
	publisher := mocks.NewMockPublisher(ctrl)
	storeErr := errors.New("store unavailable")

	// Given the second notification fails
	gomock.InOrder(
		notifications.EXPECT().CreateNotification(gomock.Any()).Return(domain.Notification{ID: 1, UserID: 2}, nil),
		publisher.EXPECT().Publish(gomock.Any(), domain.NotificationsGroup, gomock.Any()).Return(nil),
		notifications.EXPECT().CreateNotification(gomock.Any()).Return(domain.Notification{}, storeErr),
	)
	publisher.EXPECT().Publish(gomock.Any(), domain.MessagesGroup, gomock.Any()).Times(0)

	fanout := NewMessageFanout(slog.Default(), notifications, publisher)

	// When the fanout runs
	err := fanout.Run(context.Background(), Fanout{
		Username:   "alice",
		Message:    domain.Message{ID: 1, ChatID: 5, SenderID: 1, Content: json.RawMessage(`"x"`)},
		Recipients: []int64{2, 3, 4},
		MsgCounter: 4,
	})

	// Then it stops without publishing the message
	req.ErrorIs(err, crmerrors.ErrBackingStore)
	req.ErrorIs(err, storeErr)
}

func TestMessageFanout_Stops_When_Context_Cancelled(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	notifications := mocks.NewMockINotificationRepository(ctrl)
	publisher := mocks.NewMockPublisher(ctrl)
	notifications.EXPECT().CreateNotification(gomock.Any()).Times(0)
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewMessageFanout(slog.Default(), notifications, publisher).Run(ctx, Fanout{
		Message:    domain.Message{ChatID: 5},
		Recipients: []int64{2},
		MsgCounter: 1,
	})
	req.ErrorIs(err, context.Canceled)
}

func TestMessageFanout_Publish_Failure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	notifications := mocks.NewMockINotificationRepository(ctrl)
	publisher := mocks.NewMockPublisher(ctrl)
	publisher.EXPECT().Publish(gomock.Any(), domain.MessagesGroup, gomock.Any()).Return(errors.New("redis down"))

	err := NewMessageFanout(slog.Default(), notifications, publisher).Run(context.Background(), Fanout{
		Message:    domain.Message{ChatID: 5},
		MsgCounter: 1,
	})
	req.ErrorIs(err, crmerrors.ErrBackingStore)
	req.Equal("publish messages_room", crmerrors.Op(err))
}

func TestMessageService_Concurrent_Sends_All_Succeed(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	handler := f.messageService().Handler()
	req.NoError(f.chats.CreateChat(domain.Chat{ID: 5, Name: "deal", IsGroup: true}, []int64{1, 2, 3}))
	const senders = 16

	// When alice sends many messages at once
	var wg sync.WaitGroup
	errs := make(chan error, senders)
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- handler.Handle(context.Background(), []byte(`{"chat_id":5,"sender_id":1,"content":"hi"}`))
		}()
	}
	wg.Wait()
	close(errs)

	// Then no send fails on the store
	for err := range errs {
		req.NoError(err)
	}
	count, err := f.messages.CountMessages(5, 1)
	req.NoError(err)
	req.Equal(senders, count)

	// And every recipient got one notification per message
	for _, recipient := range []int64{2, 3} {
		notifications, err := f.notifications.GetNotifications(recipient)
		req.NoError(err)
		req.Len(notifications, senders)
	}
	req.Len(f.publisher.Events(), senders*3)
}
