// Package validation contains input validation rules shared by handlers.
package validation

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxUsernameRunes = 64

// reservedUsernames can never be claimed by a regular login; they collide
// with role names, system senders, or route segments.
var reservedUsernames = map[string]struct{}{
	"admin":     {},
	"guest":     {},
	"user":      {},
	"system":    {},
	"moderator": {},
	"knowhere":  {},
	"api":       {},
	"events":    {},
	"chat":      {},
	"ws":        {},
}

// ValidateUsername checks a display name chosen at login. Any non-empty
// name is accepted up to a length bound, minus reserved names and control
// characters that would garble chat rendering.
func ValidateUsername(username string) error {
	trimmed := strings.TrimSpace(username)
	if trimmed == "" {
		return fmt.Errorf("username is required")
	}
	if utf8.RuneCountInString(trimmed) > maxUsernameRunes {
		return fmt.Errorf("username must be at most %d characters", maxUsernameRunes)
	}
	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return fmt.Errorf("username contains control characters")
		}
	}
	if _, reserved := reservedUsernames[strings.ToLower(trimmed)]; reserved {
		return fmt.Errorf("username %q is reserved", trimmed)
	}
	return nil
}
