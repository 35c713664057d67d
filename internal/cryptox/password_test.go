package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPolicies_Contract(t *testing.T) {
	policies := map[string]PasswordPolicy{
		PolicyPlain:  PlainPolicy{},
		PolicyBcrypt: BcryptPolicy{Cost: bcrypt.MinCost},
	}

	for name, p := range policies {
		t.Run(name, func(t *testing.T) {
			stored, err := p.Hash([]byte("s3cret"))
			require.NoError(t, err)

			assert.True(t, p.Compare(stored, []byte("s3cret")))
			assert.False(t, p.Compare(stored, []byte("S3cret")))
			assert.False(t, p.Compare(stored, []byte("")))
		})
	}
}

func TestBcryptPolicy_DoesNotStorePlaintext(t *testing.T) {
	stored, err := BcryptPolicy{Cost: bcrypt.MinCost}.Hash([]byte("pw"))
	require.NoError(t, err)
	assert.NotEqual(t, "pw", stored)
}

func TestBcryptPolicy_LongPassword(t *testing.T) {
	p := BcryptPolicy{Cost: bcrypt.MinCost}
	long := []byte(strings.Repeat("p", 80))

	stored, err := p.Hash(long)
	require.NoError(t, err)
	assert.True(t, p.Compare(stored, long))
	assert.False(t, p.Compare(stored, long[:71]))
}

func TestNewPasswordPolicy(t *testing.T) {
	p, err := NewPasswordPolicy("bcrypt")
	require.NoError(t, err)
	assert.IsType(t, BcryptPolicy{}, p)

	p, err = NewPasswordPolicy("plain")
	require.NoError(t, err)
	assert.IsType(t, PlainPolicy{}, p)

	_, err = NewPasswordPolicy("md5")
	require.Error(t, err)
}
