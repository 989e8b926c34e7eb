// Package payment talks to the card payment provider.
package payment

import (
	"context"
	"errors"

	"github.com/Kerhoff/familyalbum/internal/models"
)

// ErrNotFound is returned when the provider has no intent or session with
// the requested id.
var ErrNotFound = errors.New("payment object not found")

// MetadataUserID is the metadata key carrying the owning user id.
const MetadataUserID = "userId"

// Intent is a provider-side payment intent.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	Currency     string
	Metadata     map[string]string
}

// Succeeded returns true once the charge has settled
func (i *Intent) Succeeded() bool {
	return i.Status == "succeeded"
}

// OwnerID returns the user id the intent was created for
func (i *Intent) OwnerID() string {
	return i.Metadata[MetadataUserID]
}

// LedgerStatus maps the provider status onto the payment ledger. Intents
// that need a new payment method or were canceled are failed; every other
// non-settled state stays pending.
func (i *Intent) LedgerStatus() models.PaymentStatus {
	switch i.Status {
	case "succeeded":
		return models.PaymentStatusSucceeded
	case "requires_payment_method", "canceled":
		return models.PaymentStatusFailed
	default:
		return models.PaymentStatusPending
	}
}

// Session is a hosted checkout session.
type Session struct {
	ID       string
	URL      string
	Paid     bool
	Metadata map[string]string
}

// OwnerID returns the user id the session was created for
func (s *Session) OwnerID() string {
	return s.Metadata[MetadataUserID]
}

// IntentParams describes a new payment intent. An empty Method lets the
// provider pick the payment methods automatically.
type IntentParams struct {
	UserID   string
	Amount   int64
	Currency string
	Method   models.PaymentMethod
}

// SessionParams describes a new hosted checkout session.
type SessionParams struct {
	UserID      string
	Amount      int64
	Currency    string
	ProductName string
	Description string
	SuccessURL  string
	CancelURL   string
}

// Gateway is the payment provider.
type Gateway interface {
	CreateIntent(ctx context.Context, params IntentParams) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
	CreateCheckoutSession(ctx context.Context, params SessionParams) (*Session, error)
	GetCheckoutSession(ctx context.Context, id string) (*Session, error)
}
