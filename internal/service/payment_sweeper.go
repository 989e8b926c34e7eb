package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/familyalbum/internal/models"
)

// sweepBatch caps how many pending payments one sweep re-checks.
const sweepBatch = 100

// StartPaymentSweeper runs a background loop that re-verifies pending
// ledger entries older than interval with the payment provider. It blocks
// until the context is cancelled, so it should be launched in a separate
// goroutine.
func (s *Service) StartPaymentSweeper(ctx context.Context, interval time.Duration) {
	if s.gateway == nil {
		s.logger.Info("Payment sweeper disabled: no payment gateway configured")
		return
	}
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Payment sweeper started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Payment sweeper stopped")
			return
		case <-ticker.C:
			s.sweepPayments(ctx, time.Now().Add(-interval))
		}
	}
}

// sweepPayments settles pending payments created before cutoff whose intent
// has succeeded or failed. A settled intent whose owner metadata does not
// match the ledger entry is left pending and logged.
func (s *Service) sweepPayments(ctx context.Context, cutoff time.Time) int {
	pending, err := s.Payments.ListPending(ctx, cutoff, sweepBatch)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list pending payments")
		return 0
	}

	settled := 0
	for _, p := range pending {
		log := s.logger.WithFields(logrus.Fields{"payment_id": p.ID, "intent_id": p.ProviderIntentID})

		intent, err := s.gateway.GetIntent(ctx, p.ProviderIntentID)
		if err != nil {
			log.WithError(err).Warn("Failed to re-check payment intent")
			continue
		}

		status := intent.LedgerStatus()
		if status == models.PaymentStatusPending {
			continue
		}
		if !ownedBy(intent.OwnerID(), p.UserID) {
			log.Warn("Payment intent owner does not match ledger entry")
			continue
		}

		if _, err := s.Payments.UpdateStatus(ctx, p.ProviderIntentID, status); err != nil {
			log.WithError(err).Error("Failed to update payment status")
			continue
		}
		settled++

		if status == models.PaymentStatusSucceeded {
			if _, err := s.grantEntitlement(ctx, p.UserID, viaSweeper); err != nil {
				log.WithError(err).Error("Failed to upgrade user after payment")
			}
		}
	}
	return settled
}
