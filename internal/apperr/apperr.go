package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindBadCredentials
	KindTokenInvalid
	KindTokenExpired
	KindTokenWrongType
	KindTokenRevoked
	KindForbidden
	KindNotFound
	KindConflict
	KindValidation
	KindBadRequest
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindBadCredentials:
		return "bad_credentials"
	case KindTokenInvalid:
		return "token_invalid"
	case KindTokenExpired:
		return "token_expired"
	case KindTokenWrongType:
		return "token_wrong_type"
	case KindTokenRevoked:
		return "token_revoked"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	case KindBadRequest:
		return "bad_request"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error is the tagged error returned by the auth core and the services.
// Detail is safe to show to clients; Err is the internal cause and is only logged.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is
// regardless of the detail carried by the concrete error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrBadCredentials = &Error{Kind: KindBadCredentials, Detail: "Bad username or password"}
	ErrTokenInvalid   = &Error{Kind: KindTokenInvalid, Detail: "Invalid token"}
	ErrTokenExpired   = &Error{Kind: KindTokenExpired, Detail: "Token has expired"}
	ErrTokenWrongType = &Error{Kind: KindTokenWrongType, Detail: "Wrong token type"}
	ErrTokenRevoked   = &Error{Kind: KindTokenRevoked, Detail: "Token has been revoked"}
	ErrForbidden      = &Error{Kind: KindForbidden, Detail: "Not enough permissions"}
	ErrNotFound       = &Error{Kind: KindNotFound, Detail: "Not found"}
	ErrConflict       = &Error{Kind: KindConflict, Detail: "Already exists"}
	ErrValidation     = &Error{Kind: KindValidation, Detail: "Validation error"}
	ErrBadRequest     = &Error{Kind: KindBadRequest, Detail: "Bad request"}
	ErrUnavailable    = &Error{Kind: KindUnavailable, Detail: "Service temporarily unavailable"}
)

func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

func Wrap(kind Kind, detail string, err error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

func NotFound(detail string) *Error { return New(KindNotFound, detail) }

func Conflict(detail string) *Error { return New(KindConflict, detail) }

func Validation(detail string) *Error { return New(KindValidation, detail) }

func BadRequest(detail string) *Error { return New(KindBadRequest, detail) }

func Forbidden(detail string) *Error { return New(KindForbidden, detail) }

func Unavailable(detail string, err error) *Error { return Wrap(KindUnavailable, detail, err) }

func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// DetailOf returns the client-facing message for err. Untagged errors never leak their text.
func DetailOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Detail
	}
	return "Internal server error"
}
