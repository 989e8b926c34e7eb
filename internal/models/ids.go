package models

import "github.com/google/uuid"

// NewID returns a random identifier for users, members, photos and payments.
func NewID() string {
	return uuid.NewString()
}
