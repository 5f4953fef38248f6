package types

import "time"

// Admin represents a back-office operator account.
// Accounts are provisioned out-of-band via the admin CLI and are only
// read by the API during authentication.
type Admin struct {
	// ID is the unique identifier of the account.
	ID int `json:"id" db:"id"`

	// Email is the unique login email address.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt hash of the account password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// Active indicates whether the account may authenticate.
	// Inactive accounts are rejected at login with the same error
	// as a wrong password.
	Active bool `json:"active" db:"active"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the account.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
