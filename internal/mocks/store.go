// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"
	"time"

	"github.com/devrev/bizdir/internal/model"
	"github.com/devrev/bizdir/internal/store"
	"github.com/stretchr/testify/mock"
)

var (
	_ store.Store      = (*MockStore)(nil)
	_ store.EventStore = (*MockEventStore)(nil)
)

// MockStore is a mock implementation of store.Store.
type MockStore struct {
	mock.Mock
}

// Businesses

func (m *MockStore) ListBusinesses(ctx context.Context, filter model.BusinessFilter) ([]*model.Business, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Business), args.Error(1)
}

func (m *MockStore) CountBusinesses(ctx context.Context, filter model.BusinessFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) GetBusiness(ctx context.Context, id string) (*model.Business, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Business), args.Error(1)
}

func (m *MockStore) GetBusinessBySlug(ctx context.Context, slug string) (*model.Business, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Business), args.Error(1)
}

func (m *MockStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) CreateBusiness(ctx context.Context, business *model.Business) error {
	args := m.Called(ctx, business)
	return args.Error(0)
}

func (m *MockStore) UpdateBusiness(ctx context.Context, business *model.Business) error {
	args := m.Called(ctx, business)
	return args.Error(0)
}

func (m *MockStore) UpdateBusinessStatus(ctx context.Context, id string, from, to model.BusinessStatus) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

func (m *MockStore) DeleteBusiness(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStore) SetPromotion(ctx context.Context, id string, start, end time.Time) error {
	args := m.Called(ctx, id, start, end)
	return args.Error(0)
}

func (m *MockStore) RefreshPromotions(ctx context.Context, now time.Time) (*model.RefreshResult, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RefreshResult), args.Error(1)
}

// Profiles

func (m *MockStore) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockStore) EnsureProfile(ctx context.Context, id, email string) (*model.Profile, error) {
	args := m.Called(ctx, id, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockStore) CreateProfile(ctx context.Context, profile *model.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockStore) ListProfiles(ctx context.Context, limit, offset int) ([]*model.Profile, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Profile), args.Error(1)
}

func (m *MockStore) UpdateProfileRole(ctx context.Context, id string, role model.Role) error {
	args := m.Called(ctx, id, role)
	return args.Error(0)
}

func (m *MockStore) CountProfiles(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// Reviews

func (m *MockStore) CreateReview(ctx context.Context, review *model.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockStore) GetReview(ctx context.Context, id string) (*model.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Review), args.Error(1)
}

func (m *MockStore) ListReviews(ctx context.Context, filter model.ReviewFilter) ([]*model.Review, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Review), args.Error(1)
}

func (m *MockStore) UpdateReviewStatus(ctx context.Context, id string, from, to model.ReviewStatus) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

func (m *MockStore) DeleteReview(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStore) CountReviews(ctx context.Context, status model.ReviewStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) RatingSummary(ctx context.Context, businessID string) (model.RatingSummary, error) {
	args := m.Called(ctx, businessID)
	return args.Get(0).(model.RatingSummary), args.Error(1)
}

// Categories

func (m *MockStore) ListCategories(ctx context.Context) ([]*model.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Category), args.Error(1)
}

func (m *MockStore) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Category), args.Error(1)
}

func (m *MockStore) CreateCategory(ctx context.Context, category *model.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockStore) UpdateCategory(ctx context.Context, category *model.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockStore) DeleteCategory(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStore) ListSubcategories(ctx context.Context, categoryID string) ([]*model.Subcategory, error) {
	args := m.Called(ctx, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Subcategory), args.Error(1)
}

func (m *MockStore) CreateSubcategory(ctx context.Context, sub *model.Subcategory) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *MockStore) DeleteSubcategory(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Category requests

func (m *MockStore) CreateCategoryRequest(ctx context.Context, req *model.CategoryRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockStore) GetCategoryRequest(ctx context.Context, id string) (*model.CategoryRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CategoryRequest), args.Error(1)
}

func (m *MockStore) ListCategoryRequests(ctx context.Context, status model.RequestStatus) ([]*model.CategoryRequest, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.CategoryRequest), args.Error(1)
}

func (m *MockStore) UpdateCategoryRequestStatus(ctx context.Context, id string, from, to model.RequestStatus) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

func (m *MockStore) CountCategoryRequests(ctx context.Context, status model.RequestStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

// Clicks

func (m *MockStore) InsertClick(ctx context.Context, click *model.BusinessClick) error {
	args := m.Called(ctx, click)
	return args.Error(0)
}

func (m *MockStore) LatestClick(ctx context.Context, businessID string, clickType model.ClickType, visitorHash string) (*model.BusinessClick, error) {
	args := m.Called(ctx, businessID, clickType, visitorHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BusinessClick), args.Error(1)
}

func (m *MockStore) CountClicksSince(ctx context.Context, since time.Time) (int64, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) ClickSummary(ctx context.Context, businessID string, from, to time.Time) ([]model.ClickCount, error) {
	args := m.Called(ctx, businessID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ClickCount), args.Error(1)
}

// Verification requests

func (m *MockStore) CreateVerificationRequest(ctx context.Context, req *model.VerificationRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockStore) GetVerificationRequest(ctx context.Context, id string) (*model.VerificationRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VerificationRequest), args.Error(1)
}

func (m *MockStore) GetPendingVerification(ctx context.Context, businessID string) (*model.VerificationRequest, error) {
	args := m.Called(ctx, businessID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VerificationRequest), args.Error(1)
}

func (m *MockStore) ListVerificationRequests(ctx context.Context, status model.RequestStatus) ([]*model.VerificationRequest, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.VerificationRequest), args.Error(1)
}

func (m *MockStore) ApproveVerification(ctx context.Context, id, reviewerID, adminNotes string) error {
	args := m.Called(ctx, id, reviewerID, adminNotes)
	return args.Error(0)
}

func (m *MockStore) RejectVerification(ctx context.Context, id, reviewerID, adminNotes string) error {
	args := m.Called(ctx, id, reviewerID, adminNotes)
	return args.Error(0)
}

func (m *MockStore) CountVerificationRequests(ctx context.Context, status model.RequestStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

// Promotions

func (m *MockStore) CreatePromotion(ctx context.Context, promotion *model.Promotion) error {
	args := m.Called(ctx, promotion)
	return args.Error(0)
}

func (m *MockStore) GetPromotionBySession(ctx context.Context, sessionID string) (*model.Promotion, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Promotion), args.Error(1)
}

func (m *MockStore) UpdatePromotion(ctx context.Context, promotion *model.Promotion) error {
	args := m.Called(ctx, promotion)
	return args.Error(0)
}

func (m *MockStore) FailPendingPromotions(ctx context.Context, businessID, paymentIntentID string) (int64, error) {
	args := m.Called(ctx, businessID, paymentIntentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) ListPromotions(ctx context.Context, businessID string) ([]*model.Promotion, error) {
	args := m.Called(ctx, businessID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Promotion), args.Error(1)
}

// Lifecycle

func (m *MockStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStore) Close() {
	m.Called()
}

// MockEventStore is a mock implementation of store.EventStore.
type MockEventStore struct {
	mock.Mock
}

func (m *MockEventStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, eventID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockEventStore) Forget(ctx context.Context, eventID string) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

func (m *MockEventStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockEventStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
