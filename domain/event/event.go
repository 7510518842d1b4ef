// Package event defines the outbound envelopes pushed to connections.
// Every envelope carries a "type" tag naming the event.
package event

import (
	"crm-realtime/domain"
	"encoding/json"
	"fmt"
)

const (
	SendCommentType      = "send_comment"
	SendNotificationType = "send_notification"
	SendMessageType      = "send_message"
	ErrorType            = "error"
)

type CommentCreated struct {
	Type     string         `json:"type"`
	Username string         `json:"username"`
	Comment  domain.Comment `json:"comment"`
	TaskID   int64          `json:"task_id"`
}

func NewCommentCreated(username string, comment domain.Comment) CommentCreated {
	return CommentCreated{Type: SendCommentType, Username: username, Comment: comment, TaskID: comment.TaskID}
}

type CommentUpdated struct {
	Type    string         `json:"type"`
	Comment domain.Comment `json:"comment"`
}

func NewCommentUpdated(comment domain.Comment) CommentUpdated {
	return CommentUpdated{Type: SendCommentType, Comment: comment}
}

type CommentDeleted struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewCommentDeleted(id int64) CommentDeleted {
	return CommentDeleted{Type: SendCommentType, Message: fmt.Sprintf("Comment %d deleted successfully.", id)}
}

type NotificationCreated struct {
	Type         string              `json:"type"`
	Username     string              `json:"username"`
	Notification domain.Notification `json:"notification"`
}

func NewNotificationCreated(username string, n domain.Notification) NotificationCreated {
	return NotificationCreated{Type: SendNotificationType, Username: username, Notification: n}
}

// NotificationDerived is emitted for each recipient of a chat message.
type NotificationDerived struct {
	Type    string          `json:"type"`
	UserID  int64           `json:"user_id"`
	Content json.RawMessage `json:"content"`
}

func NewNotificationDerived(userID int64, content json.RawMessage) NotificationDerived {
	return NotificationDerived{Type: SendNotificationType, UserID: userID, Content: content}
}

type MessageSent struct {
	Type       string         `json:"type"`
	Username   string         `json:"username"`
	ChatID     int64          `json:"chat_id"`
	Message    domain.Message `json:"message"`
	MsgCounter int            `json:"msg_counter"`
}

func NewMessageSent(username string, msg domain.Message, counter int) MessageSent {
	return MessageSent{Type: SendMessageType, Username: username, ChatID: msg.ChatID, Message: msg, MsgCounter: counter}
}

// Error is sent to the calling connection only. Exactly one of Errors or Message is set.
type Error struct {
	Type    string              `json:"type"`
	Errors  map[string][]string `json:"errors,omitempty"`
	Message string              `json:"message,omitempty"`
}

func NewFieldErrors(fields map[string][]string) Error {
	return Error{Type: ErrorType, Errors: fields}
}

func NewErrorMessage(message string) Error {
	return Error{Type: ErrorType, Message: message}
}

// Encode serializes an envelope to the text frame sent on the wire.
func Encode(e any) ([]byte, error) {
	return json.Marshal(e)
}
