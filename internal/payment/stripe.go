package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeGateway implements Gateway on top of the Stripe API.
type StripeGateway struct {
	api *client.API
}

// NewStripeGateway creates a gateway for the given secret key. Passing nil
// backends uses the live Stripe endpoints.
func NewStripeGateway(secretKey string, backends *stripe.Backends) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, backends)
	return &StripeGateway{api: api}
}

// CreateIntent creates a payment intent tagged with the user id.
func (g *StripeGateway) CreateIntent(ctx context.Context, p IntentParams) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(p.Amount),
		Currency: stripe.String(p.Currency),
	}
	params.Context = ctx
	params.AddMetadata(MetadataUserID, p.UserID)
	if p.Method != "" {
		params.PaymentMethodTypes = []*string{stripe.String(string(p.Method))}
		params.AddMetadata("method", string(p.Method))
	} else {
		params.AutomaticPaymentMethods = &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		}
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}
	return intentFromStripe(pi), nil
}

// GetIntent retrieves a payment intent by id.
func (g *StripeGateway) GetIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve payment intent %s: %w", id, notFound(err))
	}
	return intentFromStripe(pi), nil
}

// CreateCheckoutSession creates a one-time hosted checkout for one unit of
// the product.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, p SessionParams) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: []*string{stripe.String("card")},
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(p.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(p.ProductName),
						Description: stripe.String(p.Description),
					},
					UnitAmount: stripe.Int64(p.Amount),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
	}
	params.Context = ctx
	params.AddMetadata(MetadataUserID, p.UserID)

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	return sessionFromStripe(s), nil
}

// GetCheckoutSession retrieves a checkout session by id.
func (g *StripeGateway) GetCheckoutSession(ctx context.Context, id string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := g.api.CheckoutSessions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve checkout session %s: %w", id, notFound(err))
	}
	return sessionFromStripe(s), nil
}

func intentFromStripe(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}
}

func sessionFromStripe(s *stripe.CheckoutSession) *Session {
	return &Session{
		ID:       s.ID,
		URL:      s.URL,
		Paid:     s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Metadata: s.Metadata,
	}
}

// notFound tags Stripe 404 responses with ErrNotFound.
func notFound(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, stripeErr.Msg)
	}
	return err
}
