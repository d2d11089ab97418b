package validation

import (
	"net/mail"
	"strings"
)

// Violations maps a field name to a message code (translated at render time).
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

// MaxLen counts runes, not bytes, so multibyte input is not over-rejected.
func MaxLen(field, value string, maxLen int, v Violations) {
	if len([]rune(value)) > maxLen {
		v[field] = "too_long"
	}
}

// Email checks address shape only when a value is present; Required owns
// the empty case.
func Email(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		return
	}
	if _, err := mail.ParseAddress(value); err != nil {
		v[field] = "invalid_email"
	}
}
