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
	"strconv"
)

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

type createCommentRequest struct {
	MemberID *int64  `json:"member_id" validate:"required"`
	TaskID   *int64  `json:"task_id" validate:"required"`
	Content  *string `json:"content" validate:"required,notblank"`
}

type updateCommentRequest struct {
	PK       *int64  `json:"pk" validate:"required"`
	MemberID *int64  `json:"member_id" validate:"required"`
	Content  *string `json:"content" validate:"required,notblank"`
}

type CommentFields struct {
	ID       int64
	MemberID int64
	TaskID   int64
	Content  string
}

type CommentService struct {
	log       *slog.Logger
	comments  repositories.ICommentRepository
	users     repositories.IUserRepository
	publisher contract.Publisher
	moderator contract.IModerator
}

func NewCommentService(log *slog.Logger,
	comments repositories.ICommentRepository,
	users repositories.IUserRepository,
	publisher contract.Publisher,
	moderator contract.IModerator) *CommentService {
	return &CommentService{
		log:       log,
		comments:  comments,
		users:     users,
		publisher: publisher,
		moderator: moderator,
	}
}

// Handlers maps the comments "action" discriminator to its handler.
func (s *CommentService) Handlers() map[string]contract.Handler {
	return map[string]contract.Handler{
		ActionCreate: Action[CommentFields]{Validate: s.validateCreate, Execute: s.create},
		ActionUpdate: Action[CommentFields]{Validate: s.validateUpdate, Execute: s.update},
		ActionDelete: Action[CommentFields]{Validate: s.validateDelete, Execute: s.remove},
	}
}

func (s *CommentService) validateCreate(_ context.Context, payload []byte) (CommentFields, error) {
	req, err := bind[createCommentRequest](payload)
	if err != nil {
		return CommentFields{}, err
	}
	if err := requireUser(s.users, "member_id", *req.MemberID); err != nil {
		return CommentFields{}, err
	}
	return CommentFields{MemberID: *req.MemberID, TaskID: *req.TaskID, Content: *req.Content}, nil
}

func (s *CommentService) create(ctx context.Context, fields CommentFields) error {
	comment, err := s.comments.CreateComment(domain.Comment{
		MemberID: fields.MemberID,
		TaskID:   fields.TaskID,
		Content:  s.censor(fields.Content),
	})
	if err != nil {
		return crmerrors.BackingStore("create comment", err)
	}
	s.log.Info("Comment created", "comment_id", comment.ID, "task_id", comment.TaskID)

	username, err := s.users.GetUsername(fields.MemberID)
	if err != nil {
		return crmerrors.BackingStore("get username", err)
	}
	return broadcast(ctx, s.publisher, domain.CommentsGroup, event.NewCommentCreated(username, comment))
}

func (s *CommentService) validateUpdate(_ context.Context, payload []byte) (CommentFields, error) {
	req, err := bind[updateCommentRequest](payload)
	if err != nil {
		return CommentFields{}, err
	}
	if err := requireUser(s.users, "member_id", *req.MemberID); err != nil {
		return CommentFields{}, err
	}
	return CommentFields{ID: *req.PK, MemberID: *req.MemberID, Content: *req.Content}, nil
}

func (s *CommentService) update(ctx context.Context, fields CommentFields) error {
	affected, err := s.comments.UpdateCommentContent(fields.ID, fields.MemberID, s.censor(fields.Content))
	if err != nil {
		return crmerrors.BackingStore("update comment", err)
	}
	if affected == 0 {
		return crmerrors.ErrNotFoundOrForbidden
	}

	comment, err := s.comments.GetComment(fields.ID)
	if err != nil {
		return crmerrors.BackingStore("get comment", err)
	}
	s.log.Info("Comment updated", "comment_id", comment.ID)
	return broadcast(ctx, s.publisher, domain.CommentsGroup, event.NewCommentUpdated(comment))
}

// validateDelete accepts any falsy pk as missing and numeric strings as ids.
func (s *CommentService) validateDelete(_ context.Context, payload []byte) (CommentFields, error) {
	var req struct {
		PK json.RawMessage `json:"pk"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		return CommentFields{}, fmt.Errorf("%w: %v", crmerrors.ErrDecode, err)
	}
	id, err := parseID(req.PK)
	if err != nil {
		return CommentFields{}, err
	}
	return CommentFields{ID: id}, nil
}

func (s *CommentService) remove(ctx context.Context, fields CommentFields) error {
	if err := s.comments.DeleteComment(fields.ID); err != nil {
		if crmerrors.IsNotExists(err) {
			s.log.Warn("Comment does not exist", "comment_id", fields.ID)
			return err
		}
		return crmerrors.BackingStore("delete comment", err)
	}
	s.log.Info("Comment deleted", "comment_id", fields.ID)
	return broadcast(ctx, s.publisher, domain.CommentsGroup, event.NewCommentDeleted(fields.ID))
}

func (s *CommentService) censor(text string) string {
	if s.moderator == nil {
		return text
	}
	sanitized, words := s.moderator.Censor(text)
	if len(words) > 0 {
		s.log.Debug("Comment censored", "words", len(words))
	}
	return sanitized
}

func parseID(raw json.RawMessage) (int64, error) {
	var value any
	if !isNull(raw) {
		if err := json.Unmarshal(raw, &value); err != nil {
			return 0, fmt.Errorf("%w: %v", crmerrors.ErrDecode, err)
		}
	}
	switch v := value.(type) {
	case nil:
		return 0, crmerrors.ErrIDRequired
	case bool:
		if !v {
			return 0, crmerrors.ErrIDRequired
		}
	case float64:
		if v == 0 {
			return 0, crmerrors.ErrIDRequired
		}
		if v == float64(int64(v)) {
			return int64(v), nil
		}
	case string:
		if v == "" {
			return 0, crmerrors.ErrIDRequired
		}
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			return id, nil
		}
	case []any:
		if len(v) == 0 {
			return 0, crmerrors.ErrIDRequired
		}
	case map[string]any:
		if len(v) == 0 {
			return 0, crmerrors.ErrIDRequired
		}
	}
	return 0, crmerrors.NewValidationError("pk", msgInteger)
}

func requireUser(users repositories.IUserRepository, field string, id int64) error {
	found, err := users.UserExists(id)
	if err != nil {
		return crmerrors.BackingStore("user exists", err)
	}
	if !found {
		return crmerrors.NewValidationError(field, invalidPK(id))
	}
	return nil
}
