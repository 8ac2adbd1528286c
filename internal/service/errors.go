package service

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Kind classifies service errors for the request layer.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindLimit
	KindCredential
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindLimit:
		return "limit_exceeded"
	case KindCredential:
		return "credential"
	case KindInvalid:
		return "invalid"
	default:
		return "internal"
	}
}

// Error is a classified domain error. The sentinels below are compared
// with errors.Is.
type Error struct {
	Kind Kind
	msg  string
}

func (e *Error) Error() string { return e.msg }

func newError(kind Kind, msg string) *Error { return &Error{Kind: kind, msg: msg} }

var (
	ErrDateNotFound        = newError(KindNotFound, "date not found")
	ErrRecordNotFound      = newError(KindNotFound, "record not found")
	ErrAttendeeNotFound    = newError(KindNotFound, "attendee not found")
	ErrAttendeeNotAttended = newError(KindNotFound, "attendee not present on this date")
	ErrUserNotFound        = newError(KindNotFound, "user not found")

	ErrRecordAlreadyExists   = newError(KindConflict, "record already exists")
	ErrAttendeeAlreadyExists = newError(KindConflict, "attendee already exists")
	ErrUserAlreadyExists     = newError(KindConflict, "user already exists")

	ErrAttendeeExceedsMax = newError(KindLimit, "attendee exceeds max")

	ErrInvalidToken         = newError(KindCredential, "invalid token")
	ErrTokenBlacklisted     = newError(KindCredential, "token is blacklisted")
	ErrAuthenticationFailed = newError(KindCredential, "authentication failed")

	ErrInvalidAmount     = newError(KindInvalid, "invalid amount")
	ErrInvalidRecordType = newError(KindInvalid, "invalid record type")
	ErrInvalidDate       = newError(KindInvalid, "invalid date")
	ErrInvalidName       = newError(KindInvalid, "invalid attendee name")
	ErrInvalidUsername   = newError(KindInvalid, "invalid username")
)

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// isDuplicateKey reports whether err is a unique constraint violation on
// either supported database.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
