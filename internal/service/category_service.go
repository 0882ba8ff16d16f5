package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	apierrors "github.com/devrev/bizdir/internal/errors"
	"github.com/devrev/bizdir/internal/model"
	"github.com/devrev/bizdir/internal/notify"
	"github.com/devrev/bizdir/internal/store"
	"github.com/devrev/bizdir/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const categoriesCacheKey = "categories:all"

// CategoryInput is the editable part of a category or subcategory
type CategoryInput struct {
	Name        string
	Slug        string
	Description string
}

// CategoryService manages the category tree and user category requests
type CategoryService struct {
	store     store.Store
	cache     store.Cache
	cacheTTL  time.Duration
	validator *validation.Validator
	owners    ownerNotifier
	logger    *zap.Logger

	// generation counts invalidations; a List that raced one must not
	// cache what it read.
	cacheMu    sync.Mutex
	generation uint64
}

// NewCategoryService creates a new category service
func NewCategoryService(
	st store.Store,
	cache store.Cache,
	cacheTTL time.Duration,
	validator *validation.Validator,
	notifier notify.Notifier,
	logger *zap.Logger,
) *CategoryService {
	return &CategoryService{
		store:     st,
		cache:     cache,
		cacheTTL:  cacheTTL,
		validator: validator,
		owners:    ownerNotifier{profiles: st, notifier: notifier, logger: logger},
		logger:    logger,
	}
}

// List returns every category with its subcategories (with caching)
func (s *CategoryService) List(ctx context.Context) ([]*model.Category, error) {
	if cached, err := s.cache.Get(ctx, categoriesCacheKey); err == nil {
		if categories, ok := cached.([]*model.Category); ok {
			return categories, nil
		}
	}

	s.cacheMu.Lock()
	gen := s.generation
	s.cacheMu.Unlock()

	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if gen != s.generation {
		return categories, nil
	}
	if err := s.cache.Set(ctx, categoriesCacheKey, categories, s.cacheTTL); err != nil {
		s.logger.Warn("Failed to cache categories", zap.Error(err))
	}
	return categories, nil
}

// ListSubcategories returns the subcategories of one category
func (s *CategoryService) ListSubcategories(ctx context.Context, categoryID string) ([]*model.Subcategory, error) {
	if _, err := s.get(ctx, categoryID); err != nil {
		return nil, err
	}
	subs, err := s.store.ListSubcategories(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subcategories: %w", err)
	}
	return subs, nil
}

// Create adds a category. An empty slug is derived from the name.
func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*model.Category, error) {
	in = normalizeCategoryInput(in)
	if err := s.validator.ValidateCategory(in.Name, in.Slug); err != nil {
		return nil, err
	}

	category := &model.Category{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Slug:        in.Slug,
		Description: in.Description,
		CreatedAt:   now(),
	}
	if err := s.store.CreateCategory(ctx, category); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, apierrors.Conflict("category %q already exists", category.Slug)
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.invalidate(ctx)
	s.logger.Info("Created category",
		zap.String("category_id", category.ID),
		zap.String("slug", category.Slug))
	return category, nil
}

// Update renames a category
func (s *CategoryService) Update(ctx context.Context, categoryID string, in CategoryInput) (*model.Category, error) {
	category, err := s.get(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	in = normalizeCategoryInput(in)
	if err := s.validator.ValidateCategory(in.Name, in.Slug); err != nil {
		return nil, err
	}
	category.Name = in.Name
	category.Slug = in.Slug
	category.Description = in.Description

	if err := s.store.UpdateCategory(ctx, category); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, apierrors.Conflict("category %q already exists", category.Slug)
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	s.invalidate(ctx)
	return category, nil
}

// Delete removes a category
func (s *CategoryService) Delete(ctx context.Context, categoryID string) error {
	if err := s.store.DeleteCategory(ctx, categoryID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apierrors.NotFound("category")
		}
		if errors.Is(err, store.ErrConflict) {
			return apierrors.Conflict("category is still referenced by businesses")
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}
	s.invalidate(ctx)
	s.logger.Info("Deleted category", zap.String("category_id", categoryID))
	return nil
}

// CreateSubcategory adds a subcategory under categoryID
func (s *CategoryService) CreateSubcategory(ctx context.Context, categoryID string, in CategoryInput) (*model.Subcategory, error) {
	if _, err := s.get(ctx, categoryID); err != nil {
		return nil, err
	}

	in = normalizeCategoryInput(in)
	if err := s.validator.ValidateCategory(in.Name, in.Slug); err != nil {
		return nil, err
	}

	sub := &model.Subcategory{
		ID:         uuid.NewString(),
		CategoryID: categoryID,
		Name:       in.Name,
		Slug:       in.Slug,
		CreatedAt:  now(),
	}
	if err := s.store.CreateSubcategory(ctx, sub); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, apierrors.Conflict("subcategory %q already exists", sub.Slug)
		}
		return nil, fmt.Errorf("failed to create subcategory: %w", err)
	}

	s.invalidate(ctx)
	return sub, nil
}

// DeleteSubcategory removes a subcategory
func (s *CategoryService) DeleteSubcategory(ctx context.Context, subcategoryID string) error {
	if err := s.store.DeleteSubcategory(ctx, subcategoryID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apierrors.NotFound("subcategory")
		}
		return fmt.Errorf("failed to delete subcategory: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

// SubmitRequest records a user's request for a new category
func (s *CategoryService) SubmitRequest(ctx context.Context, requesterID, name, description string) (*model.CategoryRequest, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if err := s.validator.ValidateCategoryRequest(name, description); err != nil {
		return nil, err
	}

	ts := now()
	req := &model.CategoryRequest{
		ID:          uuid.NewString(),
		RequesterID: requesterID,
		Name:        name,
		Description: description,
		Status:      model.RequestPending,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if err := s.store.CreateCategoryRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create category request: %w", err)
	}

	s.logger.Info("Category requested",
		zap.String("request_id", req.ID),
		zap.String("requester_id", requesterID))
	return req, nil
}

// ListRequests returns category requests in a status. An empty status lists pending requests.
func (s *CategoryService) ListRequests(ctx context.Context, status model.RequestStatus) ([]*model.CategoryRequest, error) {
	if status == "" {
		status = model.RequestPending
	}
	if !status.Valid() {
		return nil, apierrors.InvalidArgument("unknown request status %q", status)
	}
	reqs, err := s.store.ListCategoryRequests(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list category requests: %w", err)
	}
	return reqs, nil
}

// ApproveRequest creates the requested category and closes the request.
// The category is created first so a second approval fails on the slug.
func (s *CategoryService) ApproveRequest(ctx context.Context, requestID string) (*model.Category, error) {
	req, err := s.pendingRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	category, err := s.Create(ctx, CategoryInput{Name: req.Name, Description: req.Description})
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateCategoryRequestStatus(ctx, requestID, model.RequestPending, model.RequestApproved); err != nil {
		return nil, transitionErr(err, apierrors.Conflict("category request is no longer pending"))
	}
	req.Status = model.RequestApproved

	s.owners.notify(ctx, req.RequesterID, func(to string) notify.Email {
		return notify.CategoryRequestClosed(to, req)
	})
	return category, nil
}

// RejectRequest closes the request without creating a category
func (s *CategoryService) RejectRequest(ctx context.Context, requestID string) (*model.CategoryRequest, error) {
	req, err := s.pendingRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateCategoryRequestStatus(ctx, requestID, model.RequestPending, model.RequestRejected); err != nil {
		return nil, transitionErr(err, apierrors.Conflict("category request is no longer pending"))
	}
	req.Status = model.RequestRejected

	s.owners.notify(ctx, req.RequesterID, func(to string) notify.Email {
		return notify.CategoryRequestClosed(to, req)
	})
	return req, nil
}

func (s *CategoryService) pendingRequest(ctx context.Context, requestID string) (*model.CategoryRequest, error) {
	req, err := s.store.GetCategoryRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierrors.NotFound("category request")
		}
		return nil, fmt.Errorf("failed to get category request: %w", err)
	}
	if req.Status != model.RequestPending {
		return nil, apierrors.Conflict("category request is %s, not pending", req.Status)
	}
	return req, nil
}

func (s *CategoryService) get(ctx context.Context, categoryID string) (*model.Category, error) {
	category, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierrors.NotFound("category")
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return category, nil
}

func (s *CategoryService) invalidate(ctx context.Context) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.generation++
	if err := s.cache.Delete(ctx, categoriesCacheKey); err != nil {
		s.logger.Warn("Failed to invalidate category cache", zap.Error(err))
	}
}

func normalizeCategoryInput(in CategoryInput) CategoryInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Slug = strings.TrimSpace(in.Slug)
	if in.Slug == "" {
		in.Slug = validation.Slugify(in.Name)
	}
	return in
}
