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
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxVerificationNotes = 2000

// VerificationService handles owner verification requests and their review
type VerificationService struct {
	store  store.Store
	owners ownerNotifier
	logger *zap.Logger
}

// NewVerificationService creates a new verification service
func NewVerificationService(st store.Store, notifier notify.Notifier, logger *zap.Logger) *VerificationService {
	return &VerificationService{
		store:  st,
		owners: ownerNotifier{profiles: st, notifier: notifier, logger: logger},
		logger: logger,
	}
}

// Request files a verification request for a listing owned by ownerID.
// A business has at most one pending request.
func (s *VerificationService) Request(ctx context.Context, ownerID, businessID, notes string) (*model.VerificationRequest, error) {
	notes = strings.TrimSpace(notes)
	if len(notes) > maxVerificationNotes {
		return nil, apierrors.InvalidArgument("notes exceed %d characters", maxVerificationNotes)
	}

	business, err := s.getBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if business.OwnerID != ownerID {
		return nil, apierrors.Forbidden("you do not own this business")
	}
	if business.IsVerified {
		return nil, apierrors.Conflict("business is already verified")
	}

	if _, err := s.store.GetPendingVerification(ctx, businessID); err == nil {
		return nil, apierrors.Conflict("a verification request is already pending")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to check pending verification: %w", err)
	}

	ts := now()
	req := &model.VerificationRequest{
		ID:          uuid.NewString(),
		BusinessID:  businessID,
		RequesterID: ownerID,
		Status:      model.RequestPending,
		Notes:       notes,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if err := s.store.CreateVerificationRequest(ctx, req); err != nil {
		// the partial unique index catches a concurrent request
		if errors.Is(err, store.ErrConflict) {
			return nil, apierrors.Conflict("a verification request is already pending")
		}
		return nil, fmt.Errorf("failed to create verification request: %w", err)
	}

	s.logger.Info("Verification requested",
		zap.String("request_id", req.ID),
		zap.String("business_id", businessID))
	return req, nil
}

// ListByStatus returns requests for admins. An empty status lists pending requests.
func (s *VerificationService) ListByStatus(ctx context.Context, status model.RequestStatus) ([]*model.VerificationRequest, error) {
	if status == "" {
		status = model.RequestPending
	}
	if !status.Valid() {
		return nil, apierrors.InvalidArgument("unknown request status %q", status)
	}
	reqs, err := s.store.ListVerificationRequests(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list verification requests: %w", err)
	}
	return reqs, nil
}

// Approve marks the request approved and the business verified, then notifies the owner once
func (s *VerificationService) Approve(ctx context.Context, requestID, reviewerID, adminNotes string) (*model.VerificationRequest, error) {
	return s.decide(ctx, requestID, reviewerID, adminNotes, true)
}

// Reject declines the request and notifies the owner once
func (s *VerificationService) Reject(ctx context.Context, requestID, reviewerID, adminNotes string) (*model.VerificationRequest, error) {
	return s.decide(ctx, requestID, reviewerID, adminNotes, false)
}

func (s *VerificationService) decide(ctx context.Context, requestID, reviewerID, adminNotes string, approve bool) (*model.VerificationRequest, error) {
	req, err := s.store.GetVerificationRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierrors.NotFound("verification request")
		}
		return nil, fmt.Errorf("failed to get verification request: %w", err)
	}
	if req.Status != model.RequestPending {
		return nil, apierrors.Conflict("verification request is %s, not pending", req.Status)
	}

	adminNotes = strings.TrimSpace(adminNotes)
	if approve {
		err = s.store.ApproveVerification(ctx, requestID, reviewerID, adminNotes)
	} else {
		err = s.store.RejectVerification(ctx, requestID, reviewerID, adminNotes)
	}
	if err != nil {
		return nil, transitionErr(err, apierrors.Conflict("verification request is no longer pending"))
	}

	ts := now()
	req.Status = model.RequestRejected
	if approve {
		req.Status = model.RequestApproved
	}
	req.AdminNotes = adminNotes
	req.ReviewedBy = &reviewerID
	req.ReviewedAt = &ts
	req.UpdatedAt = ts

	s.logger.Info("Verification decided",
		zap.String("request_id", requestID),
		zap.String("business_id", req.BusinessID),
		zap.String("status", string(req.Status)))

	business, err := s.getBusiness(ctx, req.BusinessID)
	if err != nil {
		s.logger.Warn("Failed to load business for notification",
			zap.String("business_id", req.BusinessID),
			zap.Error(err))
		return req, nil
	}
	s.owners.notify(ctx, business.OwnerID, func(to string) notify.Email {
		return notify.VerificationReviewed(to, business, approve, adminNotes)
	})
	return req, nil
}

func (s *VerificationService) getBusiness(ctx context.Context, businessID string) (*model.Business, error) {
	business, err := s.store.GetBusiness(ctx, businessID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierrors.NotFound("business")
		}
		return nil, fmt.Errorf("failed to get business: %w", err)
	}
	return business, nil
}
