package model

import "time"

// PromotionStatus tracks a paid promotion through checkout
type PromotionStatus string

const (
	PromotionPending PromotionStatus = "pending"
	PromotionActive  PromotionStatus = "active"
	PromotionExpired PromotionStatus = "expired"
	PromotionFailed  PromotionStatus = "failed"
)

// Promotion is a paid, time-boxed boost of a listing
type Promotion struct {
	ID                string          `json:"id"`
	BusinessID        string          `json:"business_id"`
	CheckoutSessionID string          `json:"checkout_session_id"`
	PaymentIntentID   string          `json:"payment_intent_id,omitempty"`
	Status            PromotionStatus `json:"status"`
	AmountTotal       int64           `json:"amount_total"`
	Currency          string          `json:"currency"`
	StartsAt          *time.Time      `json:"starts_at,omitempty"`
	EndsAt            *time.Time      `json:"ends_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// RefreshResult reports how many listings changed promoted state
type RefreshResult struct {
	Promoted int64     `json:"promoted"`
	Demoted  int64     `json:"demoted"`
	Expired  int64     `json:"expired"`
	RanAt    time.Time `json:"ran_at"`
}
