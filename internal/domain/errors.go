package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	ErrRateLimited  = errors.New("rate limited")
)

// Machine-readable codes attached to errors whose kind alone is ambiguous.
const (
	CodeDuplicateID       = "DUPLICATE_ID"
	CodeStaleVersion      = "STALE_VERSION"
	CodeNotOwner          = "NOT_OWNER"
	CodeCodeUsed          = "VERIFICATION_CODE_USED"
	CodeTooManyAttempts   = "VERIFICATION_CODE_TOO_MANY_ATTEMPTS"
	CodeCodeExpired       = "VERIFICATION_CODE_EXPIRED"
	CodeInvalidCode       = "VERIFICATION_CODE_INVALID"
	CodeInvalidAPIKey     = "INVALID_API_KEY"
	CodeRevokedAPIKey     = "REVOKED_API_KEY"
	CodeRateLimited       = "RATE_LIMITED"
	CodeShortnameTaken    = "SHORTNAME_TAKEN"
	CodeEmailAlreadyInUse = "EMAIL_ALREADY_IN_USE"
)

// Error is a user-facing domain error. Kind is one of the sentinels above and
// decides the HTTP status; Msg is shown to the caller verbatim.
type Error struct {
	Kind  error
	Msg   string
	Param string
	Code  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

// NewError builds an Error of the given kind.
func NewError(kind error, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Msg: msg}
}

// NewParamError builds an Error tied to a request field.
func NewParamError(kind error, param, msg string) *Error {
	return &Error{Kind: kind, Param: param, Msg: msg}
}
