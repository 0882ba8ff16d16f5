package store

import (
	"context"
	"fmt"

	"github.com/devrev/bizdir/internal/model"
	"github.com/jackc/pgx/v5"
)

const promotionColumns = `
	id, business_id, checkout_session_id, payment_intent_id, status, amount_total, currency,
	starts_at, ends_at, created_at, updated_at`

func scanPromotion(row pgx.Row) (*model.Promotion, error) {
	var p model.Promotion
	var status string
	err := row.Scan(
		&p.ID, &p.BusinessID, &p.CheckoutSessionID, &p.PaymentIntentID, &status, &p.AmountTotal,
		&p.Currency, &p.StartsAt, &p.EndsAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Status = model.PromotionStatus(status)
	return &p, nil
}

// CreatePromotion inserts a promotion
func (s *PostgresStore) CreatePromotion(ctx context.Context, p *model.Promotion) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO promotions (
			id, business_id, checkout_session_id, payment_intent_id, status, amount_total, currency,
			starts_at, ends_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, p.ID, p.BusinessID, p.CheckoutSessionID, p.PaymentIntentID, string(p.Status), p.AmountTotal,
		p.Currency, p.StartsAt, p.EndsAt, p.CreatedAt, p.UpdatedAt)
	return mapError(err)
}

// GetPromotionBySession retrieves the promotion bought in a checkout session
func (s *PostgresStore) GetPromotionBySession(ctx context.Context, sessionID string) (*model.Promotion, error) {
	query := fmt.Sprintf(`SELECT %s FROM promotions WHERE checkout_session_id = $1`, promotionColumns)
	p, err := scanPromotion(s.pool.QueryRow(ctx, query, sessionID))
	if err != nil {
		return nil, mapError(err)
	}
	return p, nil
}

// UpdatePromotion writes the mutable fields of a promotion
func (s *PostgresStore) UpdatePromotion(ctx context.Context, p *model.Promotion) error {
	return expectRow(s.pool.Exec(ctx, `
		UPDATE promotions
		SET payment_intent_id = $2, status = $3, amount_total = $4, currency = $5,
		    starts_at = $6, ends_at = $7, updated_at = $8
		WHERE id = $1
	`, p.ID, p.PaymentIntentID, string(p.Status), p.AmountTotal, p.Currency, p.StartsAt, p.EndsAt, p.UpdatedAt))
}

// FailPendingPromotions marks pending promotions of a business failed.
// When paymentIntentID is set only promotions tied to it, or not yet tied to any intent, are touched.
func (s *PostgresStore) FailPendingPromotions(ctx context.Context, businessID, paymentIntentID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE promotions
		SET status = 'failed', payment_intent_id = COALESCE(NULLIF($2, ''), payment_intent_id), updated_at = NOW()
		WHERE business_id = $1 AND status = 'pending'
		  AND ($2 = '' OR payment_intent_id = '' OR payment_intent_id = $2)
	`, businessID, paymentIntentID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark promotions failed: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListPromotions returns promotions of a business newest first
func (s *PostgresStore) ListPromotions(ctx context.Context, businessID string) ([]*model.Promotion, error) {
	query := fmt.Sprintf(`SELECT %s FROM promotions WHERE business_id = $1 ORDER BY created_at DESC`, promotionColumns)
	rows, err := s.pool.Query(ctx, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to list promotions: %w", err)
	}
	defer rows.Close()

	promotions := make([]*model.Promotion, 0)
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, err
		}
		promotions = append(promotions, p)
	}
	return promotions, rows.Err()
}
