// Package model defines the data structures used throughout the application.
// Structs here carry no behaviour beyond small helpers and are shared by every layer;
// JSON tags use snake_case to match the API.
package model

import "time"

// User represents a registered account.
//
// PasswordHash carries the bcrypt hash and is tagged `json:"-"` so it can never
// leak through an API response, even by accident.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserPatch lists the user fields an update may touch. Nil means "leave unchanged".
//
// Password is plaintext at the service boundary; the service re-hashes it and hands
// the store a patch with PasswordHash set instead.
type UserPatch struct {
	Email        *string `json:"email,omitempty"`
	Name         *string `json:"name,omitempty"`
	Password     *string `json:"password,omitempty"`
	PasswordHash *string `json:"-"`
}
