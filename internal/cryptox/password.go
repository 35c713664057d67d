// Package cryptox holds the password policies used by both the server
// credential store and the local client variant.
package cryptox

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Policy names accepted by NewPasswordPolicy.
const (
	PolicyBcrypt = "bcrypt"
	PolicyPlain  = "plain"
)

// PasswordPolicy turns a password into stored material and checks a candidate
// against it. Compare must not reveal why a comparison failed.
type PasswordPolicy interface {
	Hash(password []byte) (string, error)
	Compare(stored string, candidate []byte) bool
}

// NewPasswordPolicy returns the policy registered under name.
func NewPasswordPolicy(name string) (PasswordPolicy, error) {
	switch name {
	case PolicyBcrypt:
		return BcryptPolicy{Cost: bcrypt.DefaultCost}, nil
	case PolicyPlain:
		return PlainPolicy{}, nil
	}
	return nil, fmt.Errorf("unknown password policy %q", name)
}

// bcryptMaxInput is the number of password bytes bcrypt looks at.
const bcryptMaxInput = 72

// BcryptPolicy stores bcrypt hashes. Passwords longer than 72 bytes are
// clipped to 72 on both hashing and comparison.
type BcryptPolicy struct {
	Cost int
}

func (p BcryptPolicy) Hash(password []byte) (string, error) {
	cost := p.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword(clip(password), cost)
	if err != nil {
		return "", fmt.Errorf("could not hash password: %w", err)
	}
	return string(h), nil
}

func (p BcryptPolicy) Compare(stored string, candidate []byte) bool {
	err := bcrypt.CompareHashAndPassword([]byte(stored), clip(candidate))
	return err == nil
}

func clip(password []byte) []byte {
	if len(password) > bcryptMaxInput {
		return password[:bcryptMaxInput]
	}
	return password
}

// PlainPolicy stores the password as given and compares in constant time.
type PlainPolicy struct{}

func (PlainPolicy) Hash(password []byte) (string, error) {
	if password == nil {
		return "", errors.New("nil password")
	}
	return string(password), nil
}

func (PlainPolicy) Compare(stored string, candidate []byte) bool {
	return subtle.ConstantTimeCompare([]byte(stored), candidate) == 1
}
