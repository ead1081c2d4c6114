package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Validation errors
var (
	ErrInvalidAccountName   = errors.New("invalid account name")
	ErrInvalidAccountNumber = errors.New("invalid account number")
	ErrInvalidDescription   = errors.New("invalid description")
)

// Validation constants
const (
	MaxAccountNameLength   = 255
	MinAccountNameLength   = 1
	MaxAccountNumberLength = 20
	MaxDescriptionLength   = 1000
	MaxReferenceLength     = 100
	MaxEntryPrefixLength   = 10
	DefaultEntryPrefix     = "JE"
	DefaultSearchLimit     = 20
)

var (
	accountNumberRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9.\-]*$`)
	entryPrefixRegex   = regexp.MustCompile(`^[A-Z0-9]+$`)
)

// ValidateAccountName validates account name
func ValidateAccountName(name string) error {
	name = strings.TrimSpace(name)

	if len(name) < MinAccountNameLength {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidAccountName)
	}

	if len(name) > MaxAccountNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidAccountName, MaxAccountNameLength)
	}

	return nil
}

// ValidateAccountNumber validates the human-readable account number.
func ValidateAccountNumber(number string) error {
	if number == "" {
		return fmt.Errorf("%w: number cannot be empty", ErrInvalidAccountNumber)
	}

	if len(number) > MaxAccountNumberLength {
		return fmt.Errorf("%w: number exceeds %d characters", ErrInvalidAccountNumber, MaxAccountNumberLength)
	}

	if !accountNumberRegex.MatchString(number) {
		return fmt.Errorf("%w: %q contains invalid characters", ErrInvalidAccountNumber, number)
	}

	return nil
}

// ValidateDescription bounds free-text fields.
func ValidateDescription(desc string) error {
	if len(desc) > MaxDescriptionLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidDescription, MaxDescriptionLength)
	}
	return nil
}

// ValidateReference bounds the optional business reference of an entry.
func ValidateReference(ref *string) error {
	if ref != nil && len(*ref) > MaxReferenceLength {
		return fmt.Errorf("%w: reference exceeds %d characters", ErrInvalidDescription, MaxReferenceLength)
	}
	return nil
}

// ValidateEntryPrefix validates an entry number prefix such as "INV".
func ValidateEntryPrefix(prefix string) error {
	if prefix == "" || len(prefix) > MaxEntryPrefixLength || !entryPrefixRegex.MatchString(prefix) {
		return fmt.Errorf("%w: %q", ErrInvalidEntryPrefix, prefix)
	}
	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}
