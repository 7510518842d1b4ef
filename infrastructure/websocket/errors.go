package websocket

import (
	"context"
	"crm-realtime/domain/event"
	crmerrors "crm-realtime/errors"
	"errors"
	"log/slog"
)

const (
	NotFoundOrForbidden = "Comment not found or you don't have permission to update it."
	IDRequired          = "Comment ID is required for deletion."
	InternalError       = "Internal error, please retry later."
)

// toEnvelope maps a handler failure to the error sent back to the caller.
// Backing store causes are logged here and never disclosed. It returns false when
// nobody is left to answer: the handler was cancelled because the peer went away.
func toEnvelope(err error, log *slog.Logger) (event.Error, bool) {
	var verr *crmerrors.ValidationError
	var notExists *crmerrors.NotExistsError

	switch {
	case errors.Is(err, context.Canceled):
		log.Debug("Handler cancelled, no reply", "error", err)
		return event.Error{}, false
	case errors.As(err, &verr):
		log.Debug("Validation errors", "errors", verr.Fields)
		return event.NewFieldErrors(verr.Fields), true
	case errors.Is(err, crmerrors.ErrDecode):
		return event.NewErrorMessage(MalformedPayload), true
	case errors.Is(err, crmerrors.ErrNotFoundOrForbidden):
		return event.NewErrorMessage(NotFoundOrForbidden), true
	case errors.Is(err, crmerrors.ErrIDRequired):
		return event.NewErrorMessage(IDRequired), true
	case errors.As(err, &notExists):
		log.Debug(notExists.Error())
		return event.NewErrorMessage(notExists.Error() + "."), true
	default:
		log.Error("Handler failed", "op", crmerrors.Op(err), "error", err)
		return event.NewErrorMessage(InternalError), true
	}
}
