package domain

import (
	"regexp"
	"strings"
)

const minPasswordLen = 6

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type User struct {
	UID         string
	Email       string
	DisplayName string
}

type Session struct {
	User    User
	Token   string
	IsAdmin bool
}

// IsAdminEmail reports whether email belongs to the configured admin.
func IsAdminEmail(adminEmail, email string) bool {
	adminEmail = strings.TrimSpace(adminEmail)
	if adminEmail == "" {
		return false
	}
	return strings.EqualFold(adminEmail, strings.TrimSpace(email))
}

type SignInInput struct {
	Email    string
	Password string
}

func (in SignInInput) Validate() error {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return NewValidationError("", MsgFillAllFields, nil)
	}
	return ValidateEmail(in.Email)
}

type SignUpInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

func (in SignUpInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" ||
		in.Password == "" || in.ConfirmPassword == "" {
		return NewValidationError("", MsgFillAllFields, nil)
	}
	if err := ValidateEmail(in.Email); err != nil {
		return err
	}
	if in.Password != in.ConfirmPassword {
		return NewValidationError("confirmPassword", MsgPasswordMismatch, nil)
	}
	return ValidatePassword(in.Password)
}

func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return NewValidationError("email", MsgRequired, nil)
	}
	if !emailRe.MatchString(email) {
		return NewValidationError("email", MsgEmailInvalid, nil)
	}
	return nil
}

func ValidatePassword(password string) error {
	if password == "" {
		return NewValidationError("password", MsgRequired, nil)
	}
	if len(password) < minPasswordLen {
		return NewValidationError("password", MsgPasswordMinLength, nil)
	}
	return nil
}
