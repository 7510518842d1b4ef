package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrWorkerPanic         = fmt.Errorf("worker panic")
	ErrEmptyWords          = fmt.Errorf("no words have been found")
	ErrDecode              = fmt.Errorf("malformed payload")
	ErrValidation          = fmt.Errorf("validation failed")
	ErrNotFoundOrForbidden = fmt.Errorf("not found or not permitted")
	ErrNotExists           = fmt.Errorf("does not exist")
	ErrIDRequired          = fmt.Errorf("id is required")
	ErrBackingStore        = fmt.Errorf("backing store failure")
	ErrConnectionClosed    = fmt.Errorf("connection closed")
	ErrSlowConsumer        = fmt.Errorf("send buffer full")
	ErrUnauthenticated     = fmt.Errorf("invalid or missing token")
)

// ValidationError carries field level messages, keyed by the json name of the field.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {message}}}
}

func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], " ")))
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NotExistsError reports a record targeted by id that is absent from the store.
type NotExistsError struct {
	Kind string
	ID   int64
}

func (e *NotExistsError) Error() string {
	return fmt.Sprintf("%s with ID %d %s", e.Kind, e.ID, ErrNotExists)
}

func (e *NotExistsError) Is(target error) bool {
	return target == ErrNotExists
}

// BackingStore wraps a persistence or lookup failure so callers can match ErrBackingStore
// while the cause stays reachable through errors.Unwrap.
func BackingStore(op string, err error) error {
	if err == nil {
		return nil
	}
	return &backingStoreError{op: op, err: err}
}

type backingStoreError struct {
	op  string
	err error
}

func (e *backingStoreError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrBackingStore, e.op, e.err)
}

func (e *backingStoreError) Unwrap() []error {
	return []error{ErrBackingStore, e.err}
}

// Op returns the failing operation name of a backing store error, or "" for other errors.
func Op(err error) string {
	var bs *backingStoreError
	if errors.As(err, &bs) {
		return bs.op
	}
	return ""
}

func IsNotExists(err error) bool {
	return errors.Is(err, ErrNotExists)
}
