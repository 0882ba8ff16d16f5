package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	apierrors "github.com/devrev/bizdir/internal/errors"
	"github.com/devrev/bizdir/internal/model"
	"github.com/devrev/bizdir/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const recentClicksWindow = 30 * 24 * time.Hour

// DashboardService gathers the admin overview
type DashboardService struct {
	store  store.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(st store.Store, logger *zap.Logger) *DashboardService {
	return &DashboardService{store: st, logger: logger, now: now}
}

// Counts runs the independent count queries in parallel; the first error cancels the rest
func (s *DashboardService) Counts(ctx context.Context) (*model.DashboardCounts, error) {
	var counts model.DashboardCounts
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		counts.PendingBusinesses, err = s.store.CountBusinesses(gctx, model.BusinessFilter{Status: model.BusinessPending})
		return wrapCount("pending businesses", err)
	})
	g.Go(func() (err error) {
		counts.ApprovedBusinesses, err = s.store.CountBusinesses(gctx, model.BusinessFilter{Status: model.BusinessApproved})
		return wrapCount("approved businesses", err)
	})
	g.Go(func() (err error) {
		counts.PromotedBusinesses, err = s.store.CountBusinesses(gctx, model.BusinessFilter{Status: model.BusinessApproved, PromotedOnly: true})
		return wrapCount("promoted businesses", err)
	})
	g.Go(func() (err error) {
		counts.PendingReviews, err = s.store.CountReviews(gctx, model.ReviewPending)
		return wrapCount("pending reviews", err)
	})
	g.Go(func() (err error) {
		counts.PendingVerifications, err = s.store.CountVerificationRequests(gctx, model.RequestPending)
		return wrapCount("pending verifications", err)
	})
	g.Go(func() (err error) {
		counts.PendingCategoryRequests, err = s.store.CountCategoryRequests(gctx, model.RequestPending)
		return wrapCount("pending category requests", err)
	})
	g.Go(func() (err error) {
		counts.Profiles, err = s.store.CountProfiles(gctx)
		return wrapCount("profiles", err)
	})
	g.Go(func() (err error) {
		counts.RecentClicks, err = s.store.CountClicksSince(gctx, s.now().Add(-recentClicksWindow))
		return wrapCount("recent clicks", err)
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to load dashboard counts", zap.Error(err))
		return nil, err
	}
	return &counts, nil
}

// ListUsers pages through profiles
func (s *DashboardService) ListUsers(ctx context.Context, page Page) ([]*model.Profile, error) {
	page = page.Normalize()
	profiles, err := s.store.ListProfiles(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, nil
}

// SetUserRole changes a profile's role. Admins cannot demote themselves.
func (s *DashboardService) SetUserRole(ctx context.Context, actorID, userID string, role model.Role) error {
	if !role.Valid() {
		return apierrors.InvalidArgument("unknown role %q", role)
	}
	if actorID == userID && role != model.RoleAdmin {
		return apierrors.Conflict("admins cannot remove their own admin role")
	}
	if err := s.store.UpdateProfileRole(ctx, userID, role); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apierrors.NotFound("user")
		}
		return fmt.Errorf("failed to update role: %w", err)
	}
	s.logger.Info("Changed user role",
		zap.String("actor_id", actorID),
		zap.String("user_id", userID),
		zap.String("role", string(role)))
	return nil
}

func wrapCount(what string, err error) error {
	if err != nil {
		return fmt.Errorf("failed to count %s: %w", what, err)
	}
	return nil
}
