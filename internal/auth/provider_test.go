package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestStaticProviderPlainSecret(t *testing.T) {
	p := NewStaticProvider(map[string]string{"admin": "adminpass"})

	assert.NoError(t, p.Authenticate("admin", "adminpass"))
	assert.Error(t, p.Authenticate("admin", "wrong"))
	assert.Error(t, p.Authenticate("admin", ""))
	assert.Error(t, p.Authenticate("nobody", "adminpass"))
}

func TestStaticProviderBcryptHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	p := NewStaticProvider(map[string]string{"admin": string(hash)})

	assert.NoError(t, p.Authenticate("admin", "s3cret"))
	assert.Error(t, p.Authenticate("admin", "guess"))
}

func TestStaticProviderNilMap(t *testing.T) {
	p := NewStaticProvider(nil)
	assert.Error(t, p.Authenticate("anyone", "anything"))
}
