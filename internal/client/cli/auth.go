package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/gophchat/internal/client/nav"
	"github.com/dmitrijs2005/gophchat/internal/client/services"
	"github.com/dmitrijs2005/gophchat/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login authenticates with the username from args (or a prompt) and a masked
// password. Failures are shown inline on the login form.
func (a *App) Login(ctx context.Context, args []string) error {
	if cur := a.session.Current(); cur.Authenticated() {
		a.navigate(nav.RouteLogin)
		a.println("Already logged in as " + cur.User.Username + ".")
		return nil
	}
	a.navigate(nav.RouteLogin)

	username, password, err := a.credentials(args)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.session.Login(ctx, username, password); err != nil {
		a.authErr = formMessage(err, services.LoginFailedMessage)
		a.println(a.render.AuthForm(a.route, a.authErr))
		return err
	}

	a.syncState(ctx)
	a.println(a.render.Notice("Welcome, " + a.session.Current().User.Username + "!"))
	a.Show()
	return nil
}

// Signup registers a new account and moves on to the login view.
func (a *App) Signup(ctx context.Context, args []string) error {
	a.navigate(nav.RouteSignup)
	if a.route != nav.RouteSignup {
		a.println("Log out before creating another account.")
		return nil
	}

	username, password, err := a.credentials(args)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	msg, err := a.session.Signup(ctx, username, password)
	if err != nil {
		a.authErr = formMessage(err, services.SignupFailedMessage)
		a.println(a.render.AuthForm(a.route, a.authErr))
		return err
	}

	a.authErr = ""
	a.println(a.render.Notice(msg))
	a.navigate(nav.RouteLogin)
	a.println("Now log in with: login " + username)
	return nil
}

// Logout ends the session; local state is cleared even if the request fails.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		a.fail(ctx, "logout", err)
		return err
	}
	a.println(a.render.Notice("Logged out."))
	return nil
}

// Goto changes the current view through the navigation guard.
func (a *App) Goto(args []string) error {
	if len(args) != 1 {
		a.println("Usage: goto <login|signup|chat>")
		return errUsage
	}
	target, err := nav.Parse(args[0])
	if err != nil {
		a.println(a.render.Alert(err.Error()))
		return err
	}
	a.navigate(target)
	if a.route != target {
		a.println("Redirected to " + string(a.route) + ".")
	}
	a.Show()
	return nil
}

func (a *App) Ping(ctx context.Context) error {
	if err := a.client.Ping(ctx); err != nil {
		a.fail(ctx, "ping", err)
		return err
	}
	a.println(a.render.Notice("Backend is reachable."))
	return nil
}

func (a *App) credentials(args []string) (string, []byte, error) {
	var username string
	if len(args) > 0 {
		username = strings.Join(args, " ")
	} else {
		u, err := getSimpleText(a.reader, "Username", a.out)
		if err != nil {
			return "", nil, err
		}
		username = u
	}

	password, err := getPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return username, password, nil
}

// formMessage picks the inline text for an auth form failure.
func formMessage(err error, fallback string) string {
	if errors.Is(err, services.ErrEmptyCredentials) {
		return "Please enter both username and password."
	}
	var authErr *services.AuthError
	if errors.As(err, &authErr) {
		return authErr.Message
	}
	return fallback
}
