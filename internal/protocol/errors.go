package protocol

import (
	"errors"
	"net/http"

	"othello-live/internal/shared"
)

type Kind uint8

const (
	KindProtocol Kind = iota + 1
	KindAuth
	KindNotFound
	KindValidation
	KindConflict
	KindTimeout
	KindRateLimited
	KindInternal
)

// Error is what every handler returns to the dispatcher. Message is shown to
// the client; Cause is only logged.
type Error struct {
	Kind    Kind
	Code    int
	Message string
	Cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Cause }

// Is matches by kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// With returns a copy of e carrying cause.
func (e *Error) With(cause error) *Error {
	c := *e
	c.Cause = cause
	return &c
}

// Event renders the error for the wire.
func (e *Error) Event() shared.Event { return shared.Error(e.Message, e.Code) }

func NewError(kind Kind, code int, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrTimedOut      = NewError(KindTimeout, http.StatusRequestTimeout, "connection timed out")
	ErrUnauthorized  = NewError(KindAuth, http.StatusUnauthorized, "unauthorized connection")
	ErrMissingToken  = NewError(KindAuth, http.StatusUnauthorized, "missing session token")
	ErrInvalidToken  = NewError(KindAuth, http.StatusForbidden, "invalid user token")
	ErrGameNotFound  = NewError(KindNotFound, http.StatusNotFound, "no game exists with specified id")
	ErrInvalidGameID = NewError(KindProtocol, http.StatusBadRequest, "invalid game id format (expected uuid)")
	ErrRoomExists    = NewError(KindConflict, http.StatusConflict, "game is already live")
	ErrRateLimited   = NewError(KindRateLimited, http.StatusTooManyRequests, "too many requests")
	ErrFrameTooLarge = NewError(KindProtocol, http.StatusRequestEntityTooLarge, "frame too large")
)

// Malformed reports a frame that could not be decoded.
func Malformed(message string, cause error) *Error {
	return &Error{Kind: KindProtocol, Code: http.StatusBadRequest, Message: message, Cause: cause}
}

// Invalid reports a move the rules reject; the rule error is shown as is.
func Invalid(err error) *Error {
	return &Error{Kind: KindValidation, Code: http.StatusUnprocessableEntity, Message: err.Error(), Cause: err}
}

// WrapInternal hides cause behind a generic message.
func WrapInternal(cause error) *Error {
	return &Error{Kind: KindInternal, Code: http.StatusInternalServerError, Message: "internal server error", Cause: cause}
}

// AsError returns err as an *Error, treating anything unknown as internal.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return WrapInternal(err)
}
