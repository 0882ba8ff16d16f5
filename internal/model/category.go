package model

import "time"

// Category groups listings at the top level
type Category struct {
	ID            string         `json:"id" yaml:"-"`
	Name          string         `json:"name" yaml:"name"`
	Slug          string         `json:"slug" yaml:"slug"`
	Description   string         `json:"description" yaml:"description"`
	Subcategories []*Subcategory `json:"subcategories,omitempty" yaml:"subcategories"`
	CreatedAt     time.Time      `json:"created_at" yaml:"-"`
}

// Subcategory refines a category
type Subcategory struct {
	ID         string    `json:"id" yaml:"-"`
	CategoryID string    `json:"category_id" yaml:"-"`
	Name       string    `json:"name" yaml:"name"`
	Slug       string    `json:"slug" yaml:"slug"`
	CreatedAt  time.Time `json:"created_at" yaml:"-"`
}

// RequestStatus is shared by user-submitted requests awaiting an admin decision
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// Valid reports whether the status is a known value
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestApproved, RequestRejected:
		return true
	default:
		return false
	}
}

// CategoryRequest asks admins to add a category
type CategoryRequest struct {
	ID          string        `json:"id"`
	RequesterID string        `json:"requester_id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
