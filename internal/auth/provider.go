// Package auth provides credential verification for admin logins.
package auth

import (
	"crypto/subtle"
	"strings"

	"knowhere/internal/models"

	"golang.org/x/crypto/bcrypt"
)

// Provider verifies admin credentials.
type Provider interface {
	Authenticate(username, secret string) error
}

// StaticProvider verifies credentials against a fixed username -> credential
// map loaded from configuration. Credentials starting with a bcrypt prefix
// are compared as hashes; anything else is compared in constant time, which
// keeps local development setups working with plain secrets.
type StaticProvider struct {
	credentials map[string]string
}

// NewStaticProvider returns a provider over the given credential map.
func NewStaticProvider(credentials map[string]string) *StaticProvider {
	if credentials == nil {
		credentials = map[string]string{}
	}
	return &StaticProvider{credentials: credentials}
}

// Authenticate checks the username and secret against the configured set.
func (p *StaticProvider) Authenticate(username, secret string) error {
	stored, ok := p.credentials[username]
	if !ok {
		// Burn a comparison anyway so missing users cost the same as bad
		// passwords.
		_ = bcrypt.CompareHashAndPassword(
			[]byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOHi5oQpFr/zv9iDEBkfxYbIKTIdcq8J6"),
			[]byte(secret),
		)
		return models.NewAuthenticationError("Invalid credentials")
	}

	if strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$") {
		if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(secret)); err != nil {
			return models.NewAuthenticationError("Invalid credentials")
		}
		return nil
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(secret)) != 1 {
		return models.NewAuthenticationError("Invalid credentials")
	}
	return nil
}
