package model

import "time"

// ReviewStatus represents the moderation state of a review
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// Valid reports whether the status is a known value
func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewPending, ReviewApproved, ReviewRejected:
		return true
	default:
		return false
	}
}

// Review is a user rating of a business
type Review struct {
	ID         string       `json:"id"`
	BusinessID string       `json:"business_id"`
	UserID     string       `json:"user_id"`
	Rating     int          `json:"rating"`
	Comment    string       `json:"comment"`
	Status     ReviewStatus `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// ReviewFilter narrows review queries
type ReviewFilter struct {
	BusinessID string
	Status     ReviewStatus
	Limit      int
	Offset     int
}

// RatingSummary aggregates approved reviews of a business
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}
