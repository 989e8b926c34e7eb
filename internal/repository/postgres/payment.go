package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Kerhoff/familyalbum/internal/models"
	"github.com/Kerhoff/familyalbum/internal/repository"
)

type paymentRepository struct {
	db *sql.DB
}

// NewPaymentRepository creates a new payment ledger repository
func NewPaymentRepository(db *sql.DB) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

const paymentColumns = `id, user_id, amount, currency, method, status, provider_intent_id, created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (*models.Payment, error) {
	var (
		p        models.Payment
		intentID sql.NullString
	)
	if err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Amount,
		&p.Currency,
		&p.Method,
		&p.Status,
		&intentID,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.ProviderIntentID = intentID.String
	return &p, nil
}

func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	query := `
		INSERT INTO payments (id, user_id, amount, currency, method, status, provider_intent_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	now := time.Now()
	if payment.ID == "" {
		payment.ID = models.NewID()
	}
	if payment.Status == "" {
		payment.Status = models.PaymentStatusPending
	}
	payment.CreatedAt = now
	payment.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, query,
		payment.ID,
		payment.UserID,
		payment.Amount,
		payment.Currency,
		string(payment.Method),
		string(payment.Status),
		nullableString(&payment.ProviderIntentID),
		payment.CreatedAt,
		payment.UpdatedAt,
	).Scan(&payment.CreatedAt, &payment.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", translate(err))
	}

	return payment, nil
}

func (r *paymentRepository) GetByIntentID(ctx context.Context, intentID string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE provider_intent_id = $1`

	payment, err := scanPayment(r.db.QueryRowContext(ctx, query, intentID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get payment by intent: %w", err)
	}

	return payment, nil
}

func (r *paymentRepository) UpdateStatus(ctx context.Context, intentID string, status models.PaymentStatus) (*models.Payment, error) {
	query := `
		UPDATE payments
		SET status = $2, updated_at = $3
		WHERE provider_intent_id = $1
		RETURNING ` + paymentColumns

	payment, err := scanPayment(r.db.QueryRowContext(ctx, query, intentID, string(status), time.Now()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}

	return payment, nil
}

func (r *paymentRepository) ListByUser(ctx context.Context, userID string) ([]models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE user_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

func (r *paymentRepository) ListPending(ctx context.Context, createdBefore time.Time, limit int) ([]models.Payment, error) {
	query := `SELECT ` + paymentColumns + `
		FROM payments
		WHERE status = 'pending' AND provider_intent_id IS NOT NULL AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2`
	return r.list(ctx, query, createdBefore, limit)
}

func (r *paymentRepository) list(ctx context.Context, query string, args ...any) ([]models.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}
