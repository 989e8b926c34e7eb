package models

import "time"

// User represents a registered account. IsPaid is the entitlement flag that
// gates premium endpoints.
type User struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	IsPaid       bool      `json:"isPaid" db:"is_paid"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// Profile is the public view of a user returned by auth and billing endpoints
type Profile struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	IsPaid bool   `json:"isPaid"`
}

// Profile returns the public view of the user
func (u *User) Profile() Profile {
	return Profile{ID: u.ID, Name: u.Name, Email: u.Email, IsPaid: u.IsPaid}
}
