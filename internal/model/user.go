package model

import "time"

// User represents an application account as stored in the `users` table.
// Accounts are unified by email across local signup and every OAuth
// provider: a user created through Google and later logging in with the
// same GitHub email maps to the same row.  PasswordHash is empty for
// accounts created through an OAuth provider; such accounts cannot use
// local password login.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Name         – display name shown in the client.
//	Email        – unique email address, stored lower-cased and trimmed.
//	PasswordHash – bcrypt hash of the local password, or "" for OAuth-only accounts.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Name         string    // users.name
	Email        string    // users.email
	PasswordHash string    // users.password_hash ("" when OAuth-only)
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
