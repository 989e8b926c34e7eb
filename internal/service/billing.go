package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/familyalbum/internal/models"
	"github.com/Kerhoff/familyalbum/internal/payment"
)

// Default price of the paid plan in the smallest currency unit.
const (
	DefaultPriceAmount   int64 = 19900
	DefaultPriceCurrency       = "inr"
)

// minimumCharge is the floor a coupon can bring a charge down to.
const minimumCharge int64 = 50

// Entitlement sources recorded in logs and notifications.
const (
	viaIntent   = "payment intent"
	viaCheckout = "checkout"
	viaLedger   = "payment ledger"
	viaSweeper  = "payment sweeper"
	viaFree     = "free upgrade"
)

// ApplyCoupon returns amount after the coupon discount. Unknown or empty
// codes leave the amount unchanged.
func ApplyCoupon(amount int64, coupon string) int64 {
	var discounted int64
	switch strings.ToUpper(strings.TrimSpace(coupon)) {
	case "COUPON10":
		discounted = amount * 9 / 10
	case "COUPON50":
		discounted = amount / 2
	default:
		return amount
	}
	if discounted < minimumCharge {
		return minimumCharge
	}
	return discounted
}

// IntentResult is what the client needs to confirm a payment intent.
type IntentResult struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

// PublishableKey returns the client-side key of the payment provider, or
// an empty string when none is configured.
func (s *Service) PublishableKey() string {
	return s.billing.PublishableKey
}

func (s *Service) requireGateway() error {
	if s.gateway == nil {
		return unavailableError("payment service not configured", nil)
	}
	return nil
}

func (s *Service) price(amount int64, currency string) (int64, string) {
	if amount <= 0 {
		amount = s.billing.Amount
	}
	if currency == "" {
		currency = s.billing.Currency
	}
	return amount, strings.ToLower(currency)
}

// CreatePaymentIntent starts a charge for the paid plan. Zero values take
// the configured price.
func (s *Service) CreatePaymentIntent(ctx context.Context, userID string, amount int64, currency string) (*IntentResult, error) {
	if err := s.requireGateway(); err != nil {
		return nil, err
	}
	amount, currency = s.price(amount, currency)

	intent, err := s.gateway.CreateIntent(ctx, payment.IntentParams{
		UserID:   userID,
		Amount:   amount,
		Currency: currency,
	})
	if err != nil {
		return nil, unavailableError("failed to create payment intent", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":   userID,
		"intent_id": intent.ID,
		"amount":    amount,
	}).Info("created payment intent")
	return &IntentResult{ClientSecret: intent.ClientSecret, PaymentIntentID: intent.ID}, nil
}

// VerifyPaymentIntent flips the caller to paid once the intent has
// succeeded and was created for the caller.
func (s *Service) VerifyPaymentIntent(ctx context.Context, userID, intentID string) (*models.Profile, error) {
	if err := s.requireGateway(); err != nil {
		return nil, err
	}
	if intentID == "" {
		return nil, validationError("paymentIntentId required")
	}

	intent, err := s.fetchIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if !intent.Succeeded() {
		return nil, validationError("payment not completed")
	}
	if !ownedBy(intent.OwnerID(), userID) {
		return nil, forbiddenError()
	}

	return s.grantEntitlement(ctx, userID, viaIntent)
}

// CreateCheckoutSession starts a hosted checkout and returns its URL.
func (s *Service) CreateCheckoutSession(ctx context.Context, userID string, amount int64, currency string) (string, error) {
	if err := s.requireGateway(); err != nil {
		return "", err
	}
	amount, currency = s.price(amount, currency)
	base := strings.TrimSuffix(s.billing.FrontendURL, "/")

	session, err := s.gateway.CreateCheckoutSession(ctx, payment.SessionParams{
		UserID:      userID,
		Amount:      amount,
		Currency:    currency,
		ProductName: s.billing.ProductName,
		Description: s.billing.Description,
		SuccessURL:  base + "/dashboard?payment=success&session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   base + "/upgrade?canceled=1",
	})
	if err != nil {
		return "", unavailableError("failed to create checkout session", err)
	}
	return session.URL, nil
}

// ConfirmCheckout flips the caller to paid once the session is paid and
// was created for the caller.
func (s *Service) ConfirmCheckout(ctx context.Context, userID, sessionID string) (*models.Profile, error) {
	if err := s.requireGateway(); err != nil {
		return nil, err
	}
	if sessionID == "" {
		return nil, validationError("session id required")
	}

	session, err := s.gateway.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, payment.ErrNotFound) {
			return nil, notFoundError("session not found")
		}
		return nil, unavailableError("failed to confirm payment", err)
	}
	if !session.Paid {
		return nil, validationError("payment not completed")
	}
	if !ownedBy(session.OwnerID(), userID) {
		return nil, forbiddenError()
	}

	return s.grantEntitlement(ctx, userID, viaCheckout)
}

// FreeUpgrade flips the caller to paid without a charge.
func (s *Service) FreeUpgrade(ctx context.Context, userID string) (*models.Profile, error) {
	return s.grantEntitlement(ctx, userID, viaFree)
}

func (s *Service) fetchIntent(ctx context.Context, intentID string) (*payment.Intent, error) {
	intent, err := s.gateway.GetIntent(ctx, intentID)
	if err != nil {
		if errors.Is(err, payment.ErrNotFound) {
			return nil, notFoundError("payment intent not found")
		}
		return nil, unavailableError("failed to verify payment", err)
	}
	return intent, nil
}

func ownedBy(ownerID, userID string) bool {
	return ownerID != "" && ownerID == userID
}

// grantEntitlement marks the user paid and notifies operators when the flag
// actually changed.
func (s *Service) grantEntitlement(ctx context.Context, userID, via string) (*models.Profile, error) {
	before, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, internalError("failed to upgrade user", err)
	}
	if before == nil {
		return nil, notFoundError("user not found")
	}

	user := before
	if !before.IsPaid {
		user, err = s.Users.SetPaid(ctx, userID, true)
		if err != nil {
			return nil, internalError("failed to upgrade user", err)
		}
		if user == nil {
			return nil, notFoundError("user not found")
		}

		s.logger.WithFields(logrus.Fields{"user_id": userID, "via": via}).Info("user upgraded to paid")
		if s.notifier != nil {
			if err := s.notifier.NotifyUpgrade(ctx, user, via); err != nil {
				s.logger.WithError(err).Warn("failed to send upgrade notification")
			}
		}
	}

	p := user.Profile()
	return &p, nil
}

// LedgerIntentInput is a charge recorded in the payment ledger.
type LedgerIntentInput struct {
	Amount   int64
	Currency string
	Method   models.PaymentMethod
	Coupon   string
}

// CreateLedgerIntent starts a charge with an explicit payment method and
// records it as a pending ledger entry.
func (s *Service) CreateLedgerIntent(ctx context.Context, userID string, in LedgerIntentInput) (*IntentResult, error) {
	if err := s.requireGateway(); err != nil {
		return nil, err
	}
	if in.Amount <= 0 || in.Method == "" {
		return nil, validationError("amount and method are required")
	}
	if !in.Method.Valid() {
		return nil, validationError("unsupported payment method")
	}

	amount := ApplyCoupon(in.Amount, in.Coupon)
	currency := strings.ToLower(in.Currency)
	if currency == "" {
		currency = s.billing.Currency
	}

	intent, err := s.gateway.CreateIntent(ctx, payment.IntentParams{
		UserID:   userID,
		Amount:   amount,
		Currency: currency,
		Method:   in.Method,
	})
	if err != nil {
		return nil, unavailableError("failed to create payment intent", err)
	}

	if _, err := s.Payments.Create(ctx, &models.Payment{
		UserID:           userID,
		Amount:           amount,
		Currency:         currency,
		Method:           in.Method,
		Status:           models.PaymentStatusPending,
		ProviderIntentID: intent.ID,
	}); err != nil {
		return nil, internalError("failed to record payment", err)
	}

	return &IntentResult{ClientSecret: intent.ClientSecret, PaymentIntentID: intent.ID}, nil
}

// LedgerVerification is the outcome of re-checking a ledger entry.
type LedgerVerification struct {
	Payment *models.Payment `json:"payment"`
	User    *models.Profile `json:"user"`
}

// VerifyLedgerIntent refreshes the ledger entry of an intent from the
// provider. The intent must have been created for the caller. On success
// the caller is flipped to paid.
func (s *Service) VerifyLedgerIntent(ctx context.Context, userID, intentID string) (*LedgerVerification, error) {
	if err := s.requireGateway(); err != nil {
		return nil, err
	}
	if intentID == "" {
		return nil, validationError("paymentIntentId is required")
	}

	intent, err := s.fetchIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if !ownedBy(intent.OwnerID(), userID) {
		return nil, forbiddenError()
	}

	status := intent.LedgerStatus()
	updated, err := s.Payments.UpdateStatus(ctx, intentID, status)
	if err != nil {
		return nil, internalError("verification failed", err)
	}

	result := &LedgerVerification{Payment: updated}
	if status == models.PaymentStatusSucceeded {
		profile, err := s.grantEntitlement(ctx, userID, viaLedger)
		if err != nil {
			return nil, err
		}
		result.User = profile
	}
	return result, nil
}

// MyPayments lists the caller's ledger, newest first.
func (s *Service) MyPayments(ctx context.Context, userID string) ([]models.Payment, error) {
	payments, err := s.Payments.ListByUser(ctx, userID)
	if err != nil {
		return nil, internalError("failed to fetch payments", err)
	}
	return payments, nil
}
