// Package nav is the navigation guard of the CLI: it decides which view a
// route change actually lands on, given whether a session exists.
package nav

import (
	"fmt"
	"strings"
)

type Route string

const (
	RouteLogin  Route = "login"
	RouteSignup Route = "signup"
	RouteChat   Route = "chat"
)

// IsAuth reports whether r is one of the unauthenticated views.
func (r Route) IsAuth() bool {
	return r == RouteLogin || r == RouteSignup
}

// Resolve returns where a navigation to target ends up. Without a session
// only login and signup are reachable; with one, auth views bounce to chat.
func Resolve(authenticated bool, target Route) Route {
	switch {
	case !authenticated && !target.IsAuth():
		return RouteLogin
	case authenticated && target.IsAuth():
		return RouteChat
	default:
		return target
	}
}

// Parse maps user input ("login", "/chat", ...) to a Route.
func Parse(s string) (Route, error) {
	r := Route(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "/")))
	switch r {
	case RouteLogin, RouteSignup, RouteChat:
		return r, nil
	case "":
		return RouteChat, nil
	}
	return "", fmt.Errorf("unknown route %q", s)
}
