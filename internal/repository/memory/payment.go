package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Kerhoff/familyalbum/internal/models"
)

type paymentRepository struct {
	s *Store
}

func (r *paymentRepository) Create(_ context.Context, payment *models.Payment) (*models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if payment.ID == "" {
		payment.ID = models.NewID()
	}
	if _, ok := r.s.payments[payment.ID]; ok {
		return nil, fmt.Errorf("failed to create payment: %w", duplicate("payments_pkey"))
	}
	if payment.ProviderIntentID != "" {
		if _, ok := r.s.intents[payment.ProviderIntentID]; ok {
			return nil, fmt.Errorf("failed to create payment: %w", duplicate("payments_provider_intent_id_key"))
		}
	}
	if payment.Status == "" {
		payment.Status = models.PaymentStatusPending
	}

	now := time.Now()
	payment.CreatedAt = now
	payment.UpdatedAt = now
	r.s.payments[payment.ID] = *payment
	r.s.payAt[payment.ID] = r.s.next()
	if payment.ProviderIntentID != "" {
		r.s.intents[payment.ProviderIntentID] = payment.ID
	}

	out := *payment
	return &out, nil
}

func (r *paymentRepository) GetByIntentID(_ context.Context, intentID string) (*models.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.intents[intentID]
	if !ok {
		return nil, nil
	}
	p := r.s.payments[id]
	return &p, nil
}

func (r *paymentRepository) UpdateStatus(_ context.Context, intentID string, status models.PaymentStatus) (*models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.intents[intentID]
	if !ok {
		return nil, nil
	}
	p := r.s.payments[id]
	p.Status = status
	p.UpdatedAt = time.Now()
	r.s.payments[id] = p
	return &p, nil
}

func (r *paymentRepository) ListByUser(_ context.Context, userID string) ([]models.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	payments := []models.Payment{}
	for _, p := range r.s.payments {
		if p.UserID == userID {
			payments = append(payments, p)
		}
	}
	sort.Slice(payments, func(i, j int) bool {
		return r.s.payAt[payments[i].ID] > r.s.payAt[payments[j].ID]
	})
	return payments, nil
}

func (r *paymentRepository) ListPending(_ context.Context, createdBefore time.Time, limit int) ([]models.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	payments := []models.Payment{}
	for _, p := range r.s.payments {
		if p.IsPending() && p.ProviderIntentID != "" && p.CreatedAt.Before(createdBefore) {
			payments = append(payments, p)
		}
	}
	sort.Slice(payments, func(i, j int) bool {
		return r.s.payAt[payments[i].ID] < r.s.payAt[payments[j].ID]
	})
	if limit > 0 && len(payments) > limit {
		payments = payments[:limit]
	}
	return payments, nil
}
