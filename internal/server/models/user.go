// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a stored account. PasswordHash never leaves the server; use
// Public to build client-facing payloads.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	RoleID       int64
	CreatedAt    time.Time
}

// PublicUser is the client-visible projection of a User.
type PublicUser struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	RoleID int64  `json:"role_id"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email, RoleID: u.RoleID}
}
