package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Veraticus/tally/internal/common"
)

// Field limits for user accounts.
const (
	MaxUsernameLength = 30
	MaxFullNameLength = 50
	MinPasswordLength = 8
	MaxPasswordLength = 30
)

// User is a ledger account holder. BalanceCents is derived from the user's
// transactions and is only ever changed by a committed posting.
type User struct {
	CreatedAt    time.Time
	Username     string
	FullName     string
	PasswordHash string
	BalanceCents int64
}

// UserDraft carries sign-up input before the password has been hashed.
type UserDraft struct {
	Username string
	FullName string
	Password string
}

// Validate checks every field of the draft and reports all problems at once.
func (d UserDraft) Validate() error {
	verr := &common.ValidationError{}
	if err := ValidateUsername(d.Username); err != nil {
		verr.Problems = append(verr.Problems, problemsOf(err)...)
	}
	if err := ValidateFullName(d.FullName); err != nil {
		verr.Problems = append(verr.Problems, problemsOf(err)...)
	}
	if err := ValidatePassword(d.Password); err != nil {
		verr.Problems = append(verr.Problems, problemsOf(err)...)
	}
	return verr.OrNil()
}

// ValidateUsername checks the username bounds.
func ValidateUsername(username string) error {
	switch n := utf8.RuneCountInString(username); {
	case strings.TrimSpace(username) == "":
		return common.NewValidationError("username", "must not be empty")
	case n > MaxUsernameLength:
		return common.NewValidationError("username", "must be at most %d characters", MaxUsernameLength)
	case strings.ContainsAny(username, " \t\r\n"):
		return common.NewValidationError("username", "must not contain whitespace")
	}
	return nil
}

// ValidateFullName checks the display name bounds.
func ValidateFullName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return common.NewValidationError("full name", "must not be empty")
	case utf8.RuneCountInString(name) > MaxFullNameLength:
		return common.NewValidationError("full name", "must be at most %d characters", MaxFullNameLength)
	}
	return nil
}

// ValidatePassword checks the plaintext password policy before hashing.
func ValidatePassword(password string) error {
	switch n := utf8.RuneCountInString(password); {
	case n < MinPasswordLength:
		return common.NewValidationError("password", "must be at least %d characters", MinPasswordLength)
	case n > MaxPasswordLength:
		return common.NewValidationError("password", "must be at most %d characters", MaxPasswordLength)
	}
	return nil
}

func problemsOf(err error) []common.FieldProblem {
	var verr *common.ValidationError
	if errors.As(err, &verr) {
		return verr.Problems
	}
	return []common.FieldProblem{{Field: "input", Message: err.Error()}}
}
