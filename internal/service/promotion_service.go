package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apierrors "github.com/devrev/bizdir/internal/errors"
	"github.com/devrev/bizdir/internal/metrics"
	"github.com/devrev/bizdir/internal/model"
	"github.com/devrev/bizdir/internal/notify"
	"github.com/devrev/bizdir/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxPromotionDays = 365

// Activation describes a paid checkout that should promote a listing
type Activation struct {
	BusinessID      string
	SessionID       string
	PaymentIntentID string
	AmountTotal     int64
	Currency        string
	Days            int
}

// PromotionService owns the promoted flag of listings
type PromotionService struct {
	store       store.Store
	defaultDays int
	owners      ownerNotifier
	metrics     *metrics.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// NewPromotionService creates a new promotion service
func NewPromotionService(st store.Store, defaultDays int, notifier notify.Notifier, m *metrics.Metrics, logger *zap.Logger) *PromotionService {
	return &PromotionService{
		store:       st,
		defaultDays: defaultDays,
		owners:      ownerNotifier{profiles: st, notifier: notifier, logger: logger},
		metrics:     m,
		logger:      logger,
		now:         now,
	}
}

// Refresh recomputes the promoted flag of every listing from its promotion range
func (s *PromotionService) Refresh(ctx context.Context) (*model.RefreshResult, error) {
	start := time.Now()
	result, err := s.store.RefreshPromotions(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to refresh promotions: %w", err)
	}
	s.metrics.RecordPromotionRefresh(result.Promoted, result.Demoted, result.Expired, time.Since(start))

	s.logger.Info("Refreshed promotions",
		zap.Int64("promoted", result.Promoted),
		zap.Int64("demoted", result.Demoted),
		zap.Int64("expired", result.Expired),
		zap.Duration("duration", time.Since(start)))
	return result, nil
}

// Activate records a paid checkout and promotes the listing.
// A session that was already activated is returned unchanged with activated=false.
func (s *PromotionService) Activate(ctx context.Context, a Activation) (promotion *model.Promotion, activated bool, err error) {
	if a.BusinessID == "" || a.SessionID == "" {
		return nil, false, apierrors.InvalidArgument("business id and checkout session id are required")
	}
	days := a.Days
	if days <= 0 {
		days = s.defaultDays
	}
	if days > maxPromotionDays {
		return nil, false, apierrors.InvalidArgument("promotion cannot exceed %d days", maxPromotionDays)
	}

	business, err := s.store.GetBusiness(ctx, a.BusinessID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, false, apierrors.NotFound("business")
		}
		return nil, false, fmt.Errorf("failed to get business: %w", err)
	}

	ts := s.now()
	isNew := false
	existing, err := s.store.GetPromotionBySession(ctx, a.SessionID)
	switch {
	case err == nil:
		if existing.Status == model.PromotionActive {
			return existing, false, nil
		}
		promotion = existing
	case errors.Is(err, store.ErrNotFound):
		isNew = true
		promotion = &model.Promotion{
			ID:                uuid.NewString(),
			BusinessID:        a.BusinessID,
			CheckoutSessionID: a.SessionID,
			CreatedAt:         ts,
		}
	default:
		return nil, false, fmt.Errorf("failed to get promotion: %w", err)
	}
	if promotion.BusinessID != a.BusinessID {
		return nil, false, apierrors.Conflict("checkout session belongs to another business")
	}

	// a running promotion is extended rather than restarted
	start, end := ts, ts.AddDate(0, 0, days)
	if business.PromotionActiveAt(ts) {
		start = *business.PromotionStart
		end = business.PromotionEnd.AddDate(0, 0, days)
	}

	promotion.Status = model.PromotionActive
	promotion.PaymentIntentID = a.PaymentIntentID
	promotion.AmountTotal = a.AmountTotal
	promotion.Currency = strings.ToLower(a.Currency)
	promotion.StartsAt = &start
	promotion.EndsAt = &end
	promotion.UpdatedAt = ts

	if isNew {
		err = s.store.CreatePromotion(ctx, promotion)
	} else {
		err = s.store.UpdatePromotion(ctx, promotion)
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to save promotion: %w", err)
	}

	if err := s.store.SetPromotion(ctx, a.BusinessID, start, end); err != nil {
		return nil, false, fmt.Errorf("failed to promote business: %w", err)
	}
	business.IsPromoted = true
	business.PromotionStart = &start
	business.PromotionEnd = &end

	s.logger.Info("Promotion activated",
		zap.String("business_id", a.BusinessID),
		zap.String("session_id", a.SessionID),
		zap.Time("ends_at", end))

	s.owners.notify(ctx, business.OwnerID, func(to string) notify.Email {
		return notify.PromotionActivated(to, business, promotion)
	})
	return promotion, true, nil
}

// Expire marks the pending promotion of an abandoned checkout expired
func (s *PromotionService) Expire(ctx context.Context, sessionID string) error {
	promotion, err := s.store.GetPromotionBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// checkout never reached us as pending; nothing to expire
			return nil
		}
		return fmt.Errorf("failed to get promotion: %w", err)
	}
	if promotion.Status != model.PromotionPending {
		return nil
	}

	promotion.Status = model.PromotionExpired
	promotion.UpdatedAt = s.now()
	if err := s.store.UpdatePromotion(ctx, promotion); err != nil {
		return fmt.Errorf("failed to expire promotion: %w", err)
	}
	s.logger.Info("Promotion checkout expired",
		zap.String("business_id", promotion.BusinessID),
		zap.String("session_id", sessionID))
	return nil
}

// Fail marks pending promotions of a business failed and notifies the owner once
func (s *PromotionService) Fail(ctx context.Context, businessID, paymentIntentID string) (int64, error) {
	business, err := s.store.GetBusiness(ctx, businessID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, apierrors.NotFound("business")
		}
		return 0, fmt.Errorf("failed to get business: %w", err)
	}

	failed, err := s.store.FailPendingPromotions(ctx, businessID, paymentIntentID)
	if err != nil {
		return 0, fmt.Errorf("failed to fail promotions: %w", err)
	}

	s.logger.Info("Promotion payment failed",
		zap.String("business_id", businessID),
		zap.String("payment_intent_id", paymentIntentID),
		zap.Int64("failed", failed))

	s.owners.notify(ctx, business.OwnerID, func(to string) notify.Email {
		return notify.PaymentFailed(to, business)
	})
	return failed, nil
}

// List returns the promotions of a listing newest first
func (s *PromotionService) List(ctx context.Context, businessID string) ([]*model.Promotion, error) {
	promotions, err := s.store.ListPromotions(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to list promotions: %w", err)
	}
	return promotions, nil
}
