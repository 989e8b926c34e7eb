package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/familyalbum/internal/models"
	"github.com/Kerhoff/familyalbum/internal/payment"
	"github.com/Kerhoff/familyalbum/internal/repository/memory"
)

func TestApplyCoupon(t *testing.T) {
	assert.Equal(t, int64(17910), ApplyCoupon(19900, "COUPON10"))
	assert.Equal(t, int64(9950), ApplyCoupon(19900, " coupon50 "))
	assert.Equal(t, int64(50), ApplyCoupon(60, "COUPON50"))
	assert.Equal(t, int64(19900), ApplyCoupon(19900, "BOGUS"))
	assert.Equal(t, int64(19900), ApplyCoupon(19900, ""))
}

func TestVerifyPaymentIntentDoubleCheck(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice@example.com")
	bob := f.register(t, "bob@example.com")

	res, err := f.svc.CreatePaymentIntent(ctx, alice, 0, "")
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultPriceAmount), f.gateway.created[0].Amount)
	assert.Equal(t, "inr", f.gateway.created[0].Currency)

	_, err = f.svc.VerifyPaymentIntent(ctx, alice, res.PaymentIntentID)
	assert.Equal(t, KindValidation, KindOf(err))

	f.gateway.intents[res.PaymentIntentID].Status = "succeeded"

	_, err = f.svc.VerifyPaymentIntent(ctx, bob, res.PaymentIntentID)
	assert.Equal(t, KindForbidden, KindOf(err))
	assert.Equal(t, KindPaymentRequired, KindOf(f.svc.CheckEntitlement(ctx, bob)))

	profile, err := f.svc.VerifyPaymentIntent(ctx, alice, res.PaymentIntentID)
	require.NoError(t, err)
	assert.True(t, profile.IsPaid)
	assert.Equal(t, []string{alice + ":" + viaIntent}, f.notifier.upgrades)

	// verifying again does not notify twice
	_, err = f.svc.VerifyPaymentIntent(ctx, alice, res.PaymentIntentID)
	require.NoError(t, err)
	assert.Len(t, f.notifier.upgrades, 1)

	_, err = f.svc.VerifyPaymentIntent(ctx, alice, "pi_missing")
	assert.Equal(t, KindNotFound, KindOf(err))

	f.gateway.getErr = errors.New("provider down")
	_, err = f.svc.VerifyPaymentIntent(ctx, alice, res.PaymentIntentID)
	assert.Equal(t, KindUnavailable, KindOf(err))
}

func TestCheckoutFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice@example.com")

	url, err := f.svc.CreateCheckoutSession(ctx, alice, 0, "")
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example/cs_1", url)
	require.Len(t, f.gateway.checkout, 1)
	assert.Equal(t, "https://app.example/dashboard?payment=success&session_id={CHECKOUT_SESSION_ID}", f.gateway.checkout[0].SuccessURL)
	assert.Equal(t, "https://app.example/upgrade?canceled=1", f.gateway.checkout[0].CancelURL)

	f.gateway.sessions["cs_1"] = &payment.Session{ID: "cs_1", Paid: false, Metadata: map[string]string{payment.MetadataUserID: alice}}
	_, err = f.svc.ConfirmCheckout(ctx, alice, "cs_1")
	assert.Equal(t, KindValidation, KindOf(err))

	f.gateway.sessions["cs_1"].Paid = true
	f.gateway.sessions["cs_1"].Metadata[payment.MetadataUserID] = "someone-else"
	_, err = f.svc.ConfirmCheckout(ctx, alice, "cs_1")
	assert.Equal(t, KindForbidden, KindOf(err))

	f.gateway.sessions["cs_1"].Metadata[payment.MetadataUserID] = alice
	profile, err := f.svc.ConfirmCheckout(ctx, alice, "cs_1")
	require.NoError(t, err)
	assert.True(t, profile.IsPaid)

	_, err = f.svc.ConfirmCheckout(ctx, alice, "")
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestBillingWithoutGatewayIsUnavailable(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	store := memory.New()
	svc := New(logger, Repositories{Users: store.Users(), Payments: store.Payments()}, Dependencies{Tokens: fakeTokens{}})

	_, err := svc.CreatePaymentIntent(context.Background(), "u1", 0, "")
	assert.Equal(t, KindUnavailable, KindOf(err))
	_, err = svc.CreateCheckoutSession(context.Background(), "u1", 0, "")
	assert.Equal(t, KindUnavailable, KindOf(err))
	_, err = svc.CreateLedgerIntent(context.Background(), "u1", LedgerIntentInput{Amount: 100, Method: models.PaymentMethodCard})
	assert.Equal(t, KindUnavailable, KindOf(err))
	assert.Empty(t, svc.PublishableKey())
}

func TestLedgerIntentLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice@example.com")
	bob := f.register(t, "bob@example.com")

	_, err := f.svc.CreateLedgerIntent(ctx, alice, LedgerIntentInput{Amount: 1000})
	assert.Equal(t, KindValidation, KindOf(err))
	_, err = f.svc.CreateLedgerIntent(ctx, alice, LedgerIntentInput{Amount: 1000, Method: "upi"})
	assert.Equal(t, KindValidation, KindOf(err))

	res, err := f.svc.CreateLedgerIntent(ctx, alice, LedgerIntentInput{Amount: 1000, Method: models.PaymentMethodNetbanking, Coupon: "COUPON50"})
	require.NoError(t, err)
	assert.Equal(t, int64(500), f.gateway.created[0].Amount)
	assert.Equal(t, models.PaymentMethodNetbanking, f.gateway.created[0].Method)

	history, err := f.svc.MyPayments(ctx, alice)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.PaymentStatusPending, history[0].Status)

	_, err = f.svc.VerifyLedgerIntent(ctx, bob, res.PaymentIntentID)
	assert.Equal(t, KindForbidden, KindOf(err))

	out, err := f.svc.VerifyLedgerIntent(ctx, alice, res.PaymentIntentID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, out.Payment.Status)
	assert.Nil(t, out.User)

	f.gateway.intents[res.PaymentIntentID].Status = "succeeded"
	out, err = f.svc.VerifyLedgerIntent(ctx, alice, res.PaymentIntentID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSucceeded, out.Payment.Status)
	require.NotNil(t, out.User)
	assert.True(t, out.User.IsPaid)
}

func TestSweepSettlesPendingPayments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice@example.com")

	paid, err := f.svc.CreateLedgerIntent(ctx, alice, LedgerIntentInput{Amount: 1000, Method: models.PaymentMethodCard})
	require.NoError(t, err)
	waiting, err := f.svc.CreateLedgerIntent(ctx, alice, LedgerIntentInput{Amount: 1000, Method: models.PaymentMethodCard})
	require.NoError(t, err)

	f.gateway.intents[paid.PaymentIntentID].Status = "succeeded"
	f.gateway.intents[waiting.PaymentIntentID].Status = "processing"

	settled := f.svc.sweepPayments(ctx, time.Now().Add(time.Minute))
	assert.Equal(t, 1, settled)
	assert.NoError(t, f.svc.CheckEntitlement(ctx, alice))
	assert.Equal(t, []string{alice + ":" + viaSweeper}, f.notifier.upgrades)

	history, err := f.svc.MyPayments(ctx, alice)
	require.NoError(t, err)
	statuses := map[string]models.PaymentStatus{}
	for _, p := range history {
		statuses[p.ProviderIntentID] = p.Status
	}
	assert.Equal(t, models.PaymentStatusSucceeded, statuses[paid.PaymentIntentID])
	assert.Equal(t, models.PaymentStatusPending, statuses[waiting.PaymentIntentID])
}

func TestStartPaymentSweeperStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		f.svc.StartPaymentSweeper(ctx, 10*time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
