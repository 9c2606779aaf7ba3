// Package validation normalizes and validates the free-text fields collected
// by the entry wizard.
package validation

import (
	"errors"
	"strings"
	"unicode"
)

// Validation errors, checked in this order. The texts are shown to users as-is.
//
//nolint:staticcheck // user-facing sentences
var (
	ErrRequired   = errors.New("This field is required")
	ErrNumbers    = errors.New("Numbers are not allowed")
	ErrCharacters = errors.New("Only letters, spaces, apostrophes, and hyphens are allowed")
)

// FormData holds the phase one fields.
type FormData struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

// Normalized returns a copy with both fields passed through NormalizeText.
func (f FormData) Normalized() FormData {
	return FormData{
		Name:     NormalizeText(f.Name),
		Location: NormalizeText(f.Location),
	}
}

// FormErrors holds one message per field. An empty string means the field is valid.
type FormErrors struct {
	Name     string `json:"name,omitempty"`
	Location string `json:"location,omitempty"`
}

// Empty reports whether no field has an error.
func (e FormErrors) Empty() bool {
	return e.Name == "" && e.Location == ""
}

// NormalizeText trims s and collapses every internal whitespace run to a single space.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ValidateNameOrLocation validates a name or location value.
// The required check runs before the character-class checks.
func ValidateNameOrLocation(value string) error {
	normalized := NormalizeText(value)
	if normalized == "" {
		return ErrRequired
	}

	if strings.IndexFunc(normalized, unicode.IsDigit) >= 0 {
		return ErrNumbers
	}

	if strings.IndexFunc(normalized, disallowed) >= 0 {
		return ErrCharacters
	}

	return nil
}

// disallowed reports runes outside ASCII letters, space, apostrophes and hyphen.
func disallowed(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		return false
	case r == ' ', r == '\'', r == '’', r == '-':
		return false
	}
	return true
}

// Message returns the user-visible text for err, or "" when err is nil.
func Message(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// Validate checks both fields of f.
func Validate(f FormData) FormErrors {
	return FormErrors{
		Name:     Message(ValidateNameOrLocation(f.Name)),
		Location: Message(ValidateNameOrLocation(f.Location)),
	}
}
