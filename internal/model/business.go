package model

import (
	"encoding/json"
	"time"
)

// BusinessStatus represents the moderation state of a listing
type BusinessStatus string

const (
	BusinessPending  BusinessStatus = "pending"
	BusinessApproved BusinessStatus = "approved"
	BusinessRejected BusinessStatus = "rejected"
)

// Valid reports whether the status is a known value
func (s BusinessStatus) Valid() bool {
	switch s {
	case BusinessPending, BusinessApproved, BusinessRejected:
		return true
	default:
		return false
	}
}

// Business represents a directory listing
type Business struct {
	ID             string          `json:"id"`
	OwnerID        string          `json:"owner_id"`
	CategoryID     string          `json:"category_id"`
	SubcategoryID  *string         `json:"subcategory_id,omitempty"`
	Name           string          `json:"name"`
	Slug           string          `json:"slug"`
	Description    string          `json:"description"`
	Address        string          `json:"address"`
	City           string          `json:"city"`
	Phone          string          `json:"phone"`
	Email          string          `json:"email"`
	Website        string          `json:"website"`
	WorkingHours   json.RawMessage `json:"working_hours,omitempty"`
	Status         BusinessStatus  `json:"status"`
	IsVerified     bool            `json:"is_verified"`
	IsPromoted     bool            `json:"is_promoted"`
	PromotionStart *time.Time      `json:"promotion_start,omitempty"`
	PromotionEnd   *time.Time      `json:"promotion_end,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Hours returns the normalized working hours of the business
func (b *Business) Hours() ([]DayHours, error) {
	return NormalizeWorkingHours(b.WorkingHours)
}

// PromotionActiveAt reports whether the promotion range covers t
func (b *Business) PromotionActiveAt(t time.Time) bool {
	if b.PromotionStart == nil || b.PromotionEnd == nil {
		return false
	}
	return !t.Before(*b.PromotionStart) && t.Before(*b.PromotionEnd)
}

// BusinessFilter narrows listing queries
type BusinessFilter struct {
	Status        BusinessStatus
	OwnerID       string
	CategoryID    string
	SubcategoryID string
	City          string
	Search        string
	PromotedOnly  bool
	Limit         int
	Offset        int
}

// BusinessDetail is a listing with its derived fields
type BusinessDetail struct {
	*Business
	Hours  []DayHours    `json:"hours,omitempty"`
	Rating RatingSummary `json:"rating"`
}
