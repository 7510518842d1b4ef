package services

import (
	"context"
	"crm-realtime/domain"
	crmerrors "crm-realtime/errors"
	"crm-realtime/mocks"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestCommentService_Create_Broadcasts_With_Username(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	handler := f.commentService().Handlers()[ActionCreate]

	// When a member creates a comment
	err := handler.Handle(context.Background(), []byte(`{"action":"create","member_id":1,"content":"hi","task_id":7}`))

	// Then the comment is broadcast with the member username
	req.NoError(err)
	events := f.publisher.Events()
	req.Len(events, 1)
	req.Equal(domain.CommentsGroup, events[0].Group)
	req.Equal("send_comment", events[0].Payload["type"])
	req.Equal("alice", events[0].Payload["username"])
	req.EqualValues(7, events[0].Payload["task_id"])

	comment := events[0].Payload["comment"].(map[string]any)
	req.Equal("hi", comment["content"])
	req.EqualValues(1, comment["member_id"])

	// And it is persisted
	stored, err := f.comments.GetComment(int64(comment["id"].(float64)))
	req.NoError(err)
	req.Equal("hi", stored.Content)
}

func TestCommentService_Create_Validation(t *testing.T) {
	f := newFixture(t)
	handler := f.commentService().Handlers()[ActionCreate]

	tests := []struct {
		name     string
		payload  string
		expected map[string][]string
	}{
		{
			name:     "Missing content",
			payload:  `{"member_id":1,"task_id":7}`,
			expected: map[string][]string{"content": {"This field is required."}},
		},
		{
			name:     "Blank content",
			payload:  `{"member_id":1,"task_id":7,"content":"   "}`,
			expected: map[string][]string{"content": {"This field may not be blank."}},
		},
		{
			name:     "Null member",
			payload:  `{"member_id":null,"task_id":7,"content":"hi"}`,
			expected: map[string][]string{"member_id": {"This field may not be null."}},
		},
		{
			name:     "Not an integer",
			payload:  `{"member_id":"abc","task_id":7,"content":"hi"}`,
			expected: map[string][]string{"member_id": {"A valid integer is required."}},
		},
		{
			name:    "Everything missing",
			payload: `{}`,
			expected: map[string][]string{
				"member_id": {"This field is required."},
				"task_id":   {"This field is required."},
				"content":   {"This field is required."},
			},
		},
		{
			name:     "Unknown member",
			payload:  `{"member_id":99,"task_id":7,"content":"hi"}`,
			expected: map[string][]string{"member_id": {`Invalid pk "99" - object does not exist.`}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			err := handler.Handle(context.Background(), []byte(tt.payload))

			var verr *crmerrors.ValidationError
			req.ErrorAs(err, &verr)
			req.ErrorIs(err, crmerrors.ErrValidation)
			req.Equal(tt.expected, verr.Fields)
		})
	}

	// Then nothing was broadcast
	require.Empty(t, f.publisher.Events())
}

func TestCommentService_Update(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	handlers := f.commentService().Handlers()
	comment, err := f.comments.CreateComment(domain.Comment{MemberID: 1, TaskID: 7, Content: "draft"})
	req.NoError(err)

	// When another member tries to update it
	err = handlers[ActionUpdate].Handle(context.Background(), []byte(`{"action":"update","pk":1,"member_id":2,"content":"hijack"}`))

	// Then it is refused and nothing is broadcast
	req.ErrorIs(err, crmerrors.ErrNotFoundOrForbidden)
	req.Empty(f.publisher.Events())

	// When the owner updates it
	err = handlers[ActionUpdate].Handle(context.Background(), []byte(`{"action":"update","pk":1,"member_id":1,"content":"final"}`))

	// Then the re-read comment is broadcast
	req.NoError(err)
	events := f.publisher.Events()
	req.Len(events, 1)
	req.Equal("send_comment", events[0].Payload["type"])
	req.NotContains(events[0].Payload, "username")
	updated := events[0].Payload["comment"].(map[string]any)
	req.Equal("final", updated["content"])
	req.EqualValues(comment.ID, updated["id"])
}

func TestCommentService_Update_Unknown_Comment(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	err := f.commentService().Handlers()[ActionUpdate].Handle(context.Background(),
		[]byte(`{"pk":404,"member_id":1,"content":"final"}`))

	req.ErrorIs(err, crmerrors.ErrNotFoundOrForbidden)
	req.Empty(f.publisher.Events())
}

func TestCommentService_Delete(t *testing.T) {
	f := newFixture(t)
	handler := f.commentService().Handlers()[ActionDelete]
	_, err := f.comments.CreateComment(domain.Comment{MemberID: 1, TaskID: 7, Content: "bye"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		payload string
		err     error
		message string
	}{
		{name: "Missing pk", payload: `{"action":"delete"}`, err: crmerrors.ErrIDRequired},
		{name: "Zero pk", payload: `{"action":"delete","pk":0}`, err: crmerrors.ErrIDRequired},
		{name: "Empty pk", payload: `{"action":"delete","pk":""}`, err: crmerrors.ErrIDRequired},
		{name: "Null pk", payload: `{"action":"delete","pk":null}`, err: crmerrors.ErrIDRequired},
		{name: "Unknown pk", payload: `{"action":"delete","pk":999}`, err: crmerrors.ErrNotExists, message: "Comment with ID 999 does not exist"},
		{name: "Deletes", payload: `{"action":"delete","pk":"1"}`},
		{name: "Already deleted", payload: `{"action":"delete","pk":1}`, err: crmerrors.ErrNotExists, message: "Comment with ID 1 does not exist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			err := handler.Handle(context.Background(), []byte(tt.payload))
			if tt.err == nil {
				req.NoError(err)
				return
			}
			req.ErrorIs(err, tt.err)
			if tt.message != "" {
				req.EqualError(err, tt.message)
			}
		})
	}

	// Then only the successful delete was broadcast
	events := f.publisher.Events()
	require.Len(t, events, 1)
	require.Equal(t, "Comment 1 deleted successfully.", events[0].Payload["message"])
}

func TestCommentService_Create_Store_Failure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	comments := mocks.NewMockICommentRepository(ctrl)
	users := mocks.NewMockIUserRepository(ctrl)
	publisher := mocks.NewMockPublisher(ctrl)
	storeErr := errors.New("disk full")

	// Given a store that fails on insert
	users.EXPECT().UserExists(int64(1)).Return(true, nil)
	comments.EXPECT().CreateComment(gomock.Any()).Return(domain.Comment{}, storeErr)
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	service := NewCommentService(slog.Default(), comments, users, publisher, nil)

	// When a comment is created
	err := service.Handlers()[ActionCreate].Handle(context.Background(), []byte(`{"member_id":1,"content":"hi","task_id":7}`))

	// Then the failure is reported as a backing store error, without broadcast
	req.ErrorIs(err, crmerrors.ErrBackingStore)
	req.ErrorIs(err, storeErr)
	req.Equal("create comment", crmerrors.Op(err))
}

func TestCommentService_Create_Censors_Content(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newFixture(t)

	moderator := mocks.NewMockIModerator(ctrl)
	moderator.EXPECT().Censor("you badger").Return("you ******", []string{"badger"})

	service := NewCommentService(f.log, f.comments, f.users, f.publisher, moderator)
	err := service.Handlers()[ActionCreate].Handle(context.Background(), []byte(`{"member_id":2,"content":"you badger","task_id":1}`))
	req.NoError(err)

	comment := f.publisher.Events()[0].Payload["comment"].(map[string]any)
	req.Equal("you ******", comment["content"])
	req.Equal("bob", f.publisher.Events()[0].Payload["username"])
}
