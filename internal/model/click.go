package model

import "time"

// ClickType identifies what a visitor interacted with on a listing
type ClickType string

const (
	ClickView       ClickType = "view"
	ClickWebsite    ClickType = "website"
	ClickPhone      ClickType = "phone"
	ClickEmail      ClickType = "email"
	ClickDirections ClickType = "directions"
)

// Valid reports whether the click type is a known value
func (c ClickType) Valid() bool {
	switch c {
	case ClickView, ClickWebsite, ClickPhone, ClickEmail, ClickDirections:
		return true
	default:
		return false
	}
}

// BusinessClick is one recorded analytics event
type BusinessClick struct {
	ID          string    `json:"id"`
	BusinessID  string    `json:"business_id"`
	ClickType   ClickType `json:"click_type"`
	VisitorHash string    `json:"-"`
	Referrer    string    `json:"referrer,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ClickCount is a daily aggregate for one click type
type ClickCount struct {
	Day       time.Time `json:"day"`
	ClickType ClickType `json:"click_type"`
	Count     int64     `json:"count"`
}

// DashboardCounts is the admin overview
type DashboardCounts struct {
	PendingBusinesses       int64 `json:"pending_businesses"`
	ApprovedBusinesses      int64 `json:"approved_businesses"`
	PromotedBusinesses      int64 `json:"promoted_businesses"`
	PendingReviews          int64 `json:"pending_reviews"`
	PendingVerifications    int64 `json:"pending_verifications"`
	PendingCategoryRequests int64 `json:"pending_category_requests"`
	Profiles                int64 `json:"profiles"`
	RecentClicks            int64 `json:"recent_clicks"`
}
