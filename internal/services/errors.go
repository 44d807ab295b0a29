package services

import "errors"

type Kind int

const (
	KindInvalid Kind = iota + 1
	KindForbidden
	KindNotFound
)

// Error is a user-facing failure. Msg is safe to return to clients.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// Is matches the kind sentinels below regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Msg == "" && t.Kind == e.Kind
}

var (
	ErrInvalid   = &Error{Kind: KindInvalid}
	ErrForbidden = &Error{Kind: KindForbidden}
	ErrNotFound  = &Error{Kind: KindNotFound}
)

func invalid(msg string) error   { return &Error{Kind: KindInvalid, Msg: msg} }
func forbidden(msg string) error { return &Error{Kind: KindForbidden, Msg: msg} }
func notFound(msg string) error  { return &Error{Kind: KindNotFound, Msg: msg} }

// AsError extracts the user-facing error from err, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
