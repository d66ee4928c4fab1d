// Package models defines the client-side data model of gophchat: users,
// conversations and messages as exchanged with the backend.
package models

// User is the authenticated identity as reported by the backend. The
// credential proof never leaves the backend (or the local store).
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}
