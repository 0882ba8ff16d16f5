package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apierrors "github.com/devrev/bizdir/internal/errors"
	"github.com/devrev/bizdir/internal/model"
	"github.com/devrev/bizdir/internal/store"
	"github.com/devrev/bizdir/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReviewService handles review submission and moderation
type ReviewService struct {
	store     store.Store
	validator *validation.Validator
	logger    *zap.Logger
}

// NewReviewService creates a new review service
func NewReviewService(st store.Store, validator *validation.Validator, logger *zap.Logger) *ReviewService {
	return &ReviewService{
		store:     st,
		validator: validator,
		logger:    logger,
	}
}

// Submit stores a pending review. Listings that are not approved are reported as not found.
func (s *ReviewService) Submit(ctx context.Context, userID, businessID string, rating int, comment string) (*model.Review, error) {
	comment = strings.TrimSpace(comment)
	if err := s.validator.ValidateReview(rating, comment); err != nil {
		return nil, err
	}

	business, err := s.store.GetBusiness(ctx, businessID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierrors.NotFound("business")
		}
		return nil, fmt.Errorf("failed to get business: %w", err)
	}
	if business.Status != model.BusinessApproved {
		return nil, apierrors.NotFound("business")
	}

	ts := now()
	review := &model.Review{
		ID:         uuid.NewString(),
		BusinessID: businessID,
		UserID:     userID,
		Rating:     rating,
		Comment:    comment,
		Status:     model.ReviewPending,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
	if err := s.store.CreateReview(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	s.logger.Info("Review submitted",
		zap.String("review_id", review.ID),
		zap.String("business_id", businessID),
		zap.String("user_id", userID))
	return review, nil
}

// ListApproved returns the visible reviews of a listing
func (s *ReviewService) ListApproved(ctx context.Context, businessID string, page Page) ([]*model.Review, error) {
	page = page.Normalize()
	reviews, err := s.store.ListReviews(ctx, model.ReviewFilter{
		BusinessID: businessID,
		Status:     model.ReviewApproved,
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

// ListByStatus returns reviews for moderation. An empty status lists pending reviews.
func (s *ReviewService) ListByStatus(ctx context.Context, status model.ReviewStatus, page Page) ([]*model.Review, error) {
	if status == "" {
		status = model.ReviewPending
	}
	if !status.Valid() {
		return nil, apierrors.InvalidArgument("unknown review status %q", status)
	}
	page = page.Normalize()
	reviews, err := s.store.ListReviews(ctx, model.ReviewFilter{Status: status, Limit: page.Limit, Offset: page.Offset})
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

// Approve publishes a pending review
func (s *ReviewService) Approve(ctx context.Context, reviewID string) (*model.Review, error) {
	return s.moderate(ctx, reviewID, model.ReviewApproved)
}

// Reject hides a pending review
func (s *ReviewService) Reject(ctx context.Context, reviewID string) (*model.Review, error) {
	return s.moderate(ctx, reviewID, model.ReviewRejected)
}

func (s *ReviewService) moderate(ctx context.Context, reviewID string, to model.ReviewStatus) (*model.Review, error) {
	review, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierrors.NotFound("review")
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	if review.Status != model.ReviewPending {
		return nil, apierrors.Conflict("review is %s, not pending", review.Status)
	}

	if err := s.store.UpdateReviewStatus(ctx, reviewID, model.ReviewPending, to); err != nil {
		return nil, transitionErr(err, apierrors.Conflict("review is no longer pending"))
	}
	review.Status = to

	s.logger.Info("Moderated review",
		zap.String("review_id", reviewID),
		zap.String("status", string(to)))
	return review, nil
}

// Delete removes a review
func (s *ReviewService) Delete(ctx context.Context, reviewID string) error {
	if err := s.store.DeleteReview(ctx, reviewID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apierrors.NotFound("review")
		}
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return nil
}
