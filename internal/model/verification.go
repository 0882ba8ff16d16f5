package model

import "time"

// VerificationRequest tracks admin review of a business's authenticity claim
type VerificationRequest struct {
	ID          string        `json:"id"`
	BusinessID  string        `json:"business_id"`
	RequesterID string        `json:"requester_id"`
	Status      RequestStatus `json:"status"`
	Notes       string        `json:"notes"`
	AdminNotes  string        `json:"admin_notes,omitempty"`
	ReviewedBy  *string       `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time    `json:"reviewed_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
