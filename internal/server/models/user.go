// Package models defines the backend's persisted records.
package models

import "time"

type User struct {
	ID           int64
	Username     string
	PasswordHash []byte
	IsLoggedIn   bool
	LastLogin    *time.Time
	LastLogout   *time.Time
	CreatedAt    time.Time
}

// Status reports "Online" for users with a live session.
func (u *User) Status() string {
	if u.IsLoggedIn {
		return "Online"
	}
	return "Offline"
}
