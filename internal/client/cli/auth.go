package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/todokeeper/internal/client/client"
	"github.com/dmitrijs2005/todokeeper/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errAlreadyLoggedIn = errors.New("already logged in, logout first")

// Register prompts for a display name, an email and a password, creates the
// account and signs in. An empty name defaults to the email's local part.
func (a *App) Register(ctx context.Context) error {
	if a.isLoggedIn() {
		return errAlreadyLoggedIn
	}

	name, err := getSimpleText(a.reader, "Enter name (optional)", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.gate.Register(ctx, name, email, string(password))
	if err != nil {
		a.noteUnavailable(err)
		return err
	}

	fmt.Fprintln(a.out, "User registered successfully")
	a.signIn(ctx, s)
	return nil
}

// Login prompts for credentials and signs in.
func (a *App) Login(ctx context.Context) error {
	if a.isLoggedIn() {
		return errAlreadyLoggedIn
	}

	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.gate.Login(ctx, email, string(password))
	if err != nil {
		a.noteUnavailable(err)
		return err
	}

	a.signIn(ctx, s)
	return nil
}

// Logout ends the session. It is a no-op when nobody is signed in.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		return nil
	}
	if err := a.gate.Logout(ctx, a.session); err != nil {
		return err
	}
	a.signOut()
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) noteUnavailable(err error) {
	if a.ping != nil && errors.Is(err, client.ErrUnavailable) {
		a.setMode(ModeOffline)
	}
}
