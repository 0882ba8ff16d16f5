package store

import (
	"context"
	"errors"
	"time"

	"github.com/devrev/bizdir/internal/model"
)

// ErrNotFound is returned when a row does not exist
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write violates a uniqueness constraint
var ErrConflict = errors.New("conflict")

// ErrReferenceMissing is returned when a write names a row that does not exist
var ErrReferenceMissing = errors.New("referenced row does not exist")

// BusinessStore persists listings
type BusinessStore interface {
	ListBusinesses(ctx context.Context, filter model.BusinessFilter) ([]*model.Business, error)
	CountBusinesses(ctx context.Context, filter model.BusinessFilter) (int64, error)
	GetBusiness(ctx context.Context, id string) (*model.Business, error)
	GetBusinessBySlug(ctx context.Context, slug string) (*model.Business, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	CreateBusiness(ctx context.Context, business *model.Business) error
	UpdateBusiness(ctx context.Context, business *model.Business) error
	UpdateBusinessStatus(ctx context.Context, id string, from, to model.BusinessStatus) error
	DeleteBusiness(ctx context.Context, id string) error

	// Promotion flag
	SetPromotion(ctx context.Context, id string, start, end time.Time) error
	RefreshPromotions(ctx context.Context, now time.Time) (*model.RefreshResult, error)
}

// ProfileStore creates, reads and updates user profiles
type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (*model.Profile, error)
	EnsureProfile(ctx context.Context, id, email string) (*model.Profile, error)
	CreateProfile(ctx context.Context, profile *model.Profile) error
	ListProfiles(ctx context.Context, limit, offset int) ([]*model.Profile, error)
	UpdateProfileRole(ctx context.Context, id string, role model.Role) error
	CountProfiles(ctx context.Context) (int64, error)
}

// ReviewStore persists reviews
type ReviewStore interface {
	CreateReview(ctx context.Context, review *model.Review) error
	GetReview(ctx context.Context, id string) (*model.Review, error)
	ListReviews(ctx context.Context, filter model.ReviewFilter) ([]*model.Review, error)
	UpdateReviewStatus(ctx context.Context, id string, from, to model.ReviewStatus) error
	DeleteReview(ctx context.Context, id string) error
	CountReviews(ctx context.Context, status model.ReviewStatus) (int64, error)
	RatingSummary(ctx context.Context, businessID string) (model.RatingSummary, error)
}

// CategoryStore persists categories and subcategories
type CategoryStore interface {
	ListCategories(ctx context.Context) ([]*model.Category, error)
	GetCategory(ctx context.Context, id string) (*model.Category, error)
	CreateCategory(ctx context.Context, category *model.Category) error
	UpdateCategory(ctx context.Context, category *model.Category) error
	DeleteCategory(ctx context.Context, id string) error
	ListSubcategories(ctx context.Context, categoryID string) ([]*model.Subcategory, error)
	CreateSubcategory(ctx context.Context, sub *model.Subcategory) error
	DeleteSubcategory(ctx context.Context, id string) error
}

// CategoryRequestStore persists user requests for new categories
type CategoryRequestStore interface {
	CreateCategoryRequest(ctx context.Context, req *model.CategoryRequest) error
	GetCategoryRequest(ctx context.Context, id string) (*model.CategoryRequest, error)
	ListCategoryRequests(ctx context.Context, status model.RequestStatus) ([]*model.CategoryRequest, error)
	UpdateCategoryRequestStatus(ctx context.Context, id string, from, to model.RequestStatus) error
	CountCategoryRequests(ctx context.Context, status model.RequestStatus) (int64, error)
}

// ClickStore persists analytics clicks
type ClickStore interface {
	InsertClick(ctx context.Context, click *model.BusinessClick) error
	LatestClick(ctx context.Context, businessID string, clickType model.ClickType, visitorHash string) (*model.BusinessClick, error)
	CountClicksSince(ctx context.Context, since time.Time) (int64, error)
	ClickSummary(ctx context.Context, businessID string, from, to time.Time) ([]model.ClickCount, error)
}

// VerificationStore persists business verification requests
type VerificationStore interface {
	CreateVerificationRequest(ctx context.Context, req *model.VerificationRequest) error
	GetVerificationRequest(ctx context.Context, id string) (*model.VerificationRequest, error)
	GetPendingVerification(ctx context.Context, businessID string) (*model.VerificationRequest, error)
	ListVerificationRequests(ctx context.Context, status model.RequestStatus) ([]*model.VerificationRequest, error)
	// ApproveVerification marks the request approved and the business verified atomically.
	ApproveVerification(ctx context.Context, id, reviewerID, adminNotes string) error
	RejectVerification(ctx context.Context, id, reviewerID, adminNotes string) error
	CountVerificationRequests(ctx context.Context, status model.RequestStatus) (int64, error)
}

// PromotionStore persists paid promotions
type PromotionStore interface {
	CreatePromotion(ctx context.Context, promotion *model.Promotion) error
	GetPromotionBySession(ctx context.Context, sessionID string) (*model.Promotion, error)
	UpdatePromotion(ctx context.Context, promotion *model.Promotion) error
	FailPendingPromotions(ctx context.Context, businessID, paymentIntentID string) (int64, error)
	ListPromotions(ctx context.Context, businessID string) ([]*model.Promotion, error)
}

// Store aggregates every relational store
type Store interface {
	BusinessStore
	ProfileStore
	ReviewStore
	CategoryStore
	CategoryRequestStore
	ClickStore
	VerificationStore
	PromotionStore

	Ping(ctx context.Context) error
	Close()
}

// EventStore remembers processed webhook events
type EventStore interface {
	// MarkProcessed records the event id and reports whether it was new.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	Forget(ctx context.Context, eventID string) error
	Ping(ctx context.Context) error
	Close() error
}

// Cache interface for in-memory caching
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
