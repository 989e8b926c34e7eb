package models

import "time"

// PaymentStatus is the ledger state of a payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// PaymentMethod is how the user pays
type PaymentMethod string

const (
	PaymentMethodCard       PaymentMethod = "card"
	PaymentMethodNetbanking PaymentMethod = "netbanking"
)

// Valid reports whether m is supported
func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCard || m == PaymentMethodNetbanking
}

// Payment is a ledger entry for a one-time charge. Amount is in the smallest
// currency unit.
type Payment struct {
	ID               string        `json:"id" db:"id"`
	UserID           string        `json:"userId" db:"user_id"`
	Amount           int64         `json:"amount" db:"amount"`
	Currency         string        `json:"currency" db:"currency"`
	Method           PaymentMethod `json:"method" db:"method"`
	Status           PaymentStatus `json:"status" db:"status"`
	ProviderIntentID string        `json:"stripePaymentIntentId,omitempty" db:"provider_intent_id"`
	CreatedAt        time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time     `json:"updatedAt" db:"updated_at"`
}

// IsPending returns true while the charge has not settled
func (p *Payment) IsPending() bool {
	return p.Status == PaymentStatusPending
}
