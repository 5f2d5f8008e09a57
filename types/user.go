package types

import "time"

// User represents an account in the system.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Email is the user's email address. It is unique across accounts.
	Email string `json:"email" db:"email"`

	// Name is the user's display name.
	Name string `json:"name" db:"name"`

	// Description is an optional free-form profile text.
	Description *string `json:"description" db:"description"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// It is empty for accounts created without credentials and
	// is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Profile returns the public part of the user that is embedded in access tokens.
func (u User) Profile() UserProfile {
	return UserProfile{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Description: u.Description,
	}
}

// UserProfile is a denormalized snapshot of a user as of token issuance.
type UserProfile struct {
	ID          int     `json:"id"`
	Email       string  `json:"email"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}
