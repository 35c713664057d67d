// Package models defines the domain types shared by the server and the
// client: users, tasks, patches, filters and sessions.
package models

import (
	"strings"
	"time"
)

// User is a registered account. Password holds whatever the configured
// password policy stores (a bcrypt hash or the plain comparand) and is never
// serialised.
type User struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Email     string    `json:"email" bson:"email"`
	Password  string    `json:"-" bson:"password"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

// UserSummary is the public view of a user returned by the API.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Summary strips credential material.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

// DefaultName returns name unless it is blank, in which case the local part
// of email is used.
func DefaultName(name, email string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}

// RefreshToken is a server-stored, opaque token used to mint new access tokens.
type RefreshToken struct {
	UserID    string    `bson:"user_id"`
	Token     string    `bson:"_id"`
	Expires   time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

// Session is the runtime proof that a client context acts for a user.
// Tokens are empty in the local variant and in basic mode.
type Session struct {
	UserID       string
	Name         string
	Email        string
	AccessToken  string
	RefreshToken string
}
