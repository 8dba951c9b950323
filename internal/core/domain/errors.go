package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrValidation      = errors.New("validation failed")
	ErrInvalidPrice    = errors.New("invalid price")
	ErrInvalidQuantity = errors.New("invalid quantity")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already in use")
)

const (
	MsgRequired          = "This field is required"
	MsgFillAllFields     = "Please fill in all fields"
	MsgEmailInvalid      = "Please enter a valid email address"
	MsgPasswordMinLength = "Password must be at least 6 characters"
	MsgPasswordMismatch  = "Passwords do not match"
	MsgInvalidPrice      = "Please enter a valid price"
	MsgInvalidURL        = "Please enter a valid URL"
	MsgInvalidQuantity   = "Please enter a valid quantity"
)

// A ValidationError reports user input rejected before any state change.
//
// Msg is safe to show to the user. errors.Is matches [ErrValidation] and
// the wrapped Err, if any.
type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func NewValidationError(field, msg string, err error) *ValidationError {
	return &ValidationError{Field: field, Msg: msg, Err: err}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// UserMessage returns the message to show to the user for err, or
// fallback when err carries none.
func UserMessage(err error, fallback string) string {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Msg
	}
	return fallback
}
