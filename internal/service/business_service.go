package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apierrors "github.com/devrev/bizdir/internal/errors"
	"github.com/devrev/bizdir/internal/model"
	"github.com/devrev/bizdir/internal/notify"
	"github.com/devrev/bizdir/internal/store"
	"github.com/devrev/bizdir/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxSlugAttempts = 50

// BusinessInput is the owner-editable part of a listing
type BusinessInput struct {
	CategoryID    string
	SubcategoryID *string
	Name          string
	Description   string
	Address       string
	City          string
	Phone         string
	Email         string
	Website       string
	WorkingHours  []byte
}

// ListingQuery filters the public directory
type ListingQuery struct {
	CategoryID    string
	SubcategoryID string
	City          string
	Search        string
	Page          Page
}

// BusinessService manages listings
type BusinessService struct {
	store     store.Store
	validator *validation.Validator
	owners    ownerNotifier
	logger    *zap.Logger
}

// NewBusinessService creates a new business service
func NewBusinessService(st store.Store, validator *validation.Validator, notifier notify.Notifier, logger *zap.Logger) *BusinessService {
	return &BusinessService{
		store:     st,
		validator: validator,
		owners:    ownerNotifier{profiles: st, notifier: notifier, logger: logger},
		logger:    logger,
	}
}

// ListPublic returns approved listings, promoted first then newest
func (s *BusinessService) ListPublic(ctx context.Context, q ListingQuery) ([]*model.Business, int64, error) {
	page := q.Page.Normalize()
	filter := model.BusinessFilter{
		Status:        model.BusinessApproved,
		CategoryID:    q.CategoryID,
		SubcategoryID: q.SubcategoryID,
		City:          strings.TrimSpace(q.City),
		Search:        strings.TrimSpace(q.Search),
		Limit:         page.Limit,
		Offset:        page.Offset,
	}

	businesses, err := s.store.ListBusinesses(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list businesses: %w", err)
	}
	total, err := s.store.CountBusinesses(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count businesses: %w", err)
	}
	return businesses, total, nil
}

// GetPublic returns one approved listing with its rating and normalized hours.
// Pending and rejected listings are reported as not found.
func (s *BusinessService) GetPublic(ctx context.Context, slug string) (*model.BusinessDetail, error) {
	business, err := s.store.GetBusinessBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierrors.NotFound("business")
		}
		return nil, fmt.Errorf("failed to get business: %w", err)
	}
	if business.Status != model.BusinessApproved {
		return nil, apierrors.NotFound("business")
	}

	rating, err := s.store.RatingSummary(ctx, business.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rating: %w", err)
	}

	detail := &model.BusinessDetail{Business: business, Rating: rating}
	hours, err := business.Hours()
	if err != nil {
		// stored hours predate validation; show the listing without them
		s.logger.Warn("Stored working hours are invalid",
			zap.String("business_id", business.ID),
			zap.Error(err))
	} else {
		detail.Hours = hours
	}
	return detail, nil
}

// Create registers a pending listing owned by ownerID
func (s *BusinessService) Create(ctx context.Context, ownerID string, in BusinessInput) (*model.Business, error) {
	ts := now()
	business := &model.Business{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Status:    model.BusinessPending,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	applyInput(business, in)

	if err := s.validator.ValidateBusiness(business); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, business); err != nil {
		return nil, err
	}

	slug, err := s.uniqueSlug(ctx, business.Name)
	if err != nil {
		return nil, err
	}
	business.Slug = slug

	if err := s.store.CreateBusiness(ctx, business); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, apierrors.Conflict("a business with this slug already exists")
		}
		if errors.Is(err, store.ErrReferenceMissing) {
			return nil, apierrors.InvalidArgument("unknown owner, category or subcategory")
		}
		return nil, fmt.Errorf("failed to create business: %w", err)
	}

	s.logger.Info("Created business",
		zap.String("business_id", business.ID),
		zap.String("owner_id", ownerID),
		zap.String("slug", slug))
	return business, nil
}

// Update edits a listing owned by ownerID. The slug and moderation state are unchanged.
func (s *BusinessService) Update(ctx context.Context, ownerID, businessID string, in BusinessInput) (*model.Business, error) {
	business, err := s.ownedBusiness(ctx, ownerID, businessID)
	if err != nil {
		return nil, err
	}

	applyInput(business, in)
	business.UpdatedAt = now()

	if err := s.validator.ValidateBusiness(business); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, business); err != nil {
		return nil, err
	}

	if err := s.store.UpdateBusiness(ctx, business); err != nil {
		return nil, fmt.Errorf("failed to update business: %w", err)
	}
	return business, nil
}

// ListOwned returns every listing of ownerID regardless of status
func (s *BusinessService) ListOwned(ctx context.Context, ownerID string) ([]*model.Business, error) {
	businesses, err := s.store.ListBusinesses(ctx, model.BusinessFilter{OwnerID: ownerID, Limit: MaxPageSize})
	if err != nil {
		return nil, fmt.Errorf("failed to list owned businesses: %w", err)
	}
	return businesses, nil
}

// ListByStatus returns listings in a moderation state for admins
func (s *BusinessService) ListByStatus(ctx context.Context, status model.BusinessStatus, page Page) ([]*model.Business, error) {
	if status != "" && !status.Valid() {
		return nil, apierrors.InvalidArgument("unknown business status %q", status)
	}
	page = page.Normalize()
	businesses, err := s.store.ListBusinesses(ctx, model.BusinessFilter{Status: status, Limit: page.Limit, Offset: page.Offset})
	if err != nil {
		return nil, fmt.Errorf("failed to list businesses: %w", err)
	}
	return businesses, nil
}

// Approve publishes a pending listing and notifies its owner
func (s *BusinessService) Approve(ctx context.Context, businessID string) (*model.Business, error) {
	return s.moderate(ctx, businessID, model.BusinessApproved)
}

// Reject declines a pending listing and notifies its owner
func (s *BusinessService) Reject(ctx context.Context, businessID string) (*model.Business, error) {
	return s.moderate(ctx, businessID, model.BusinessRejected)
}

func (s *BusinessService) moderate(ctx context.Context, businessID string, to model.BusinessStatus) (*model.Business, error) {
	business, err := s.get(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if business.Status != model.BusinessPending {
		return nil, apierrors.Conflict("business is %s, not pending", business.Status)
	}

	err = s.store.UpdateBusinessStatus(ctx, businessID, model.BusinessPending, to)
	if err != nil {
		return nil, transitionErr(err, apierrors.Conflict("business is no longer pending"))
	}
	business.Status = to

	s.logger.Info("Moderated business",
		zap.String("business_id", businessID),
		zap.String("status", string(to)))

	s.owners.notify(ctx, business.OwnerID, func(to string) notify.Email {
		return notify.BusinessReviewed(to, business)
	})
	return business, nil
}

// Delete removes a listing
func (s *BusinessService) Delete(ctx context.Context, businessID string) error {
	if err := s.store.DeleteBusiness(ctx, businessID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apierrors.NotFound("business")
		}
		return fmt.Errorf("failed to delete business: %w", err)
	}
	s.logger.Info("Deleted business", zap.String("business_id", businessID))
	return nil
}

// Get returns any listing by id
func (s *BusinessService) Get(ctx context.Context, businessID string) (*model.Business, error) {
	return s.get(ctx, businessID)
}

// Owned returns a listing only if ownerID owns it
func (s *BusinessService) Owned(ctx context.Context, ownerID, businessID string) (*model.Business, error) {
	return s.ownedBusiness(ctx, ownerID, businessID)
}

func (s *BusinessService) get(ctx context.Context, businessID string) (*model.Business, error) {
	business, err := s.store.GetBusiness(ctx, businessID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierrors.NotFound("business")
		}
		return nil, fmt.Errorf("failed to get business: %w", err)
	}
	return business, nil
}

func (s *BusinessService) ownedBusiness(ctx context.Context, ownerID, businessID string) (*model.Business, error) {
	business, err := s.get(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if business.OwnerID != ownerID {
		return nil, apierrors.Forbidden("you do not own this business")
	}
	return business, nil
}

func (s *BusinessService) checkCategory(ctx context.Context, business *model.Business) error {
	if _, err := s.store.GetCategory(ctx, business.CategoryID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apierrors.InvalidArgument("unknown category %q", business.CategoryID)
		}
		return fmt.Errorf("failed to get category: %w", err)
	}
	if business.SubcategoryID == nil {
		return nil
	}
	subs, err := s.store.ListSubcategories(ctx, business.CategoryID)
	if err != nil {
		return fmt.Errorf("failed to list subcategories: %w", err)
	}
	for _, sub := range subs {
		if sub.ID == *business.SubcategoryID {
			return nil
		}
	}
	return apierrors.InvalidArgument("subcategory does not belong to category %q", business.CategoryID)
}

// uniqueSlug derives a slug from name, suffixing -2, -3 and so on until unused
func (s *BusinessService) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := validation.Slugify(name)
	if base == "" {
		base = "business"
	}

	candidate := base
	for i := 2; i < maxSlugAttempts+2; i++ {
		exists, err := s.store.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", apierrors.Conflict("could not find a free slug for %q", name)
}

func applyInput(b *model.Business, in BusinessInput) {
	b.CategoryID = in.CategoryID
	b.SubcategoryID = in.SubcategoryID
	if b.SubcategoryID != nil && *b.SubcategoryID == "" {
		b.SubcategoryID = nil
	}
	b.Name = strings.TrimSpace(in.Name)
	b.Description = strings.TrimSpace(in.Description)
	b.Address = strings.TrimSpace(in.Address)
	b.City = strings.TrimSpace(in.City)
	b.Phone = strings.TrimSpace(in.Phone)
	b.Email = strings.TrimSpace(in.Email)
	b.Website = strings.TrimSpace(in.Website)
	b.WorkingHours = in.WorkingHours
}
