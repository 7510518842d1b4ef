package repositories

import (
	"crm-realtime/domain"
	crmerrors "crm-realtime/errors"
	"errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

type CommentRepository struct {
	db  *badger.DB
	log *slog.Logger
	ids *sequence
}

func NewCommentRepository(db *badger.DB, log *slog.Logger) *CommentRepository {
	return &CommentRepository{db: db, log: log, ids: newSequence(db, commentKind)}
}

// Close returns the unused ids of the current lease. Call it before closing the store.
func (c CommentRepository) Close() error {
	return c.ids.release()
}

// CreateComment takes the next comment id and persists the comment.
func (c CommentRepository) CreateComment(comment domain.Comment) (domain.Comment, error) {
	now := time.Now().UTC()
	comment.CreatedAt, comment.UpdatedAt = now, now
	id, err := c.ids.next()
	if err != nil {
		return domain.Comment{}, err
	}
	comment.ID = id
	bytes, err := marshalRecord(fromComment(comment))
	if err != nil {
		return domain.Comment{}, err
	}
	err = update(c.db, func(txn *badger.Txn) error {
		return txn.Set(key(commentKind, id), bytes)
	})
	if err != nil {
		return domain.Comment{}, err
	}
	return comment, nil
}

// UpdateCommentContent rewrites the content only when the comment exists and belongs to memberID.
// It returns the number of affected comments, 0 or 1.
func (c CommentRepository) UpdateCommentContent(id, memberID int64, content string) (int, error) {
	affected := 0
	err := update(c.db, func(txn *badger.Txn) error {
		affected = 0
		r, err := readRecord(txn, key(commentKind, id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		comment := toComment(r)
		if comment.MemberID != memberID {
			return nil
		}
		comment.Content = content
		comment.UpdatedAt = time.Now().UTC()
		bytes, err := marshalRecord(fromComment(comment))
		if err != nil {
			return err
		}
		if err = txn.Set(key(commentKind, id), bytes); err != nil {
			return err
		}
		affected = 1
		return nil
	})
	return affected, err
}

func (c CommentRepository) GetComment(id int64) (domain.Comment, error) {
	var comment domain.Comment
	err := c.db.View(func(txn *badger.Txn) error {
		r, err := readRecord(txn, key(commentKind, id))
		if err != nil {
			return err
		}
		comment = toComment(r)
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Comment{}, &crmerrors.NotExistsError{Kind: "Comment", ID: id}
	}
	return comment, err
}

func (c CommentRepository) DeleteComment(id int64) error {
	err := update(c.db, func(txn *badger.Txn) error {
		k := key(commentKind, id)
		if _, err := txn.Get(k); err != nil {
			return err
		}
		return txn.Delete(k)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return &crmerrors.NotExistsError{Kind: "Comment", ID: id}
	}
	return err
}

func fromComment(c domain.Comment) map[string]any {
	return map[string]any{
		"id":         formatID(c.ID),
		"member_id":  formatID(c.MemberID),
		"task_id":    formatID(c.TaskID),
		"content":    c.Content,
		"created_at": formatTime(c.CreatedAt),
		"updated_at": formatTime(c.UpdatedAt),
	}
}

func toComment(r record) domain.Comment {
	return domain.Comment{
		ID:        r.Int("id"),
		MemberID:  r.Int("member_id"),
		TaskID:    r.Int("task_id"),
		Content:   r.Str("content"),
		CreatedAt: r.Time("created_at"),
		UpdatedAt: r.Time("updated_at"),
	}
}
