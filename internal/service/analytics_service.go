package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	apierrors "github.com/devrev/bizdir/internal/errors"
	"github.com/devrev/bizdir/internal/metrics"
	"github.com/devrev/bizdir/internal/model"
	"github.com/devrev/bizdir/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxReferrerLength = 500
	maxSummaryRange   = 366 * 24 * time.Hour
	defaultSummary    = 30 * 24 * time.Hour
)

// Click outcomes reported to metrics
const (
	ClickRecorded  = "recorded"
	ClickDuplicate = "duplicate"
	ClickFailed    = "failed"
)

// ClickInput describes one tracked interaction
type ClickInput struct {
	BusinessID string
	ClickType  model.ClickType
	Referrer   string
	IP         string
	UserAgent  string
}

// ClickResult reports what happened to a tracked click
type ClickResult struct {
	Recorded  bool `json:"recorded"`
	Duplicate bool `json:"duplicate"`
}

// AnalyticsService records listing clicks and summarizes them
type AnalyticsService struct {
	store   store.ClickStore
	window  time.Duration
	salt    string
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewAnalyticsService creates a new analytics service.
// A zero window disables deduplication.
func NewAnalyticsService(st store.ClickStore, window time.Duration, salt string, m *metrics.Metrics, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{
		store:   st,
		window:  window,
		salt:    salt,
		metrics: m,
		logger:  logger,
		now:     now,
	}
}

// TrackClick records a click unless the same visitor made the same click on the
// listing within the dedup window. Store failures are swallowed: the result is
// simply not recorded. Only invalid input returns an error.
func (s *AnalyticsService) TrackClick(ctx context.Context, in ClickInput) (ClickResult, error) {
	if strings.TrimSpace(in.BusinessID) == "" {
		return ClickResult{}, apierrors.InvalidArgument("business_id is required")
	}
	if !in.ClickType.Valid() {
		return ClickResult{}, apierrors.InvalidArgument("unknown click type %q", in.ClickType)
	}

	hash := s.VisitorHash(in.IP, in.UserAgent)
	ts := s.now()

	if s.window > 0 {
		latest, err := s.store.LatestClick(ctx, in.BusinessID, in.ClickType, hash)
		switch {
		case err == nil:
			if ts.Sub(latest.CreatedAt) < s.window {
				s.metrics.RecordClick(string(in.ClickType), ClickDuplicate)
				return ClickResult{Duplicate: true}, nil
			}
		case errors.Is(err, store.ErrNotFound):
		default:
			s.fail(in, "Failed to look up latest click", err)
			return ClickResult{}, nil
		}
	}

	referrer := in.Referrer
	if len(referrer) > maxReferrerLength {
		referrer = referrer[:maxReferrerLength]
	}
	click := &model.BusinessClick{
		ID:          uuid.NewString(),
		BusinessID:  in.BusinessID,
		ClickType:   in.ClickType,
		VisitorHash: hash,
		Referrer:    referrer,
		CreatedAt:   ts,
	}
	if err := s.store.InsertClick(ctx, click); err != nil {
		s.fail(in, "Failed to record click", err)
		return ClickResult{}, nil
	}

	s.metrics.RecordClick(string(in.ClickType), ClickRecorded)
	return ClickResult{Recorded: true}, nil
}

// VisitorHash identifies a visitor without storing the address or agent
func (s *AnalyticsService) VisitorHash(ip, userAgent string) string {
	sum := sha256.Sum256([]byte(s.salt + "|" + ip + "|" + userAgent))
	return hex.EncodeToString(sum[:])
}

// Summary returns click counts per day and type. Zero bounds default to the last 30 days.
func (s *AnalyticsService) Summary(ctx context.Context, businessID string, from, to time.Time) ([]model.ClickCount, error) {
	from, to, err := s.summaryRange(from, to)
	if err != nil {
		return nil, err
	}
	counts, err := s.store.ClickSummary(ctx, businessID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize clicks: %w", err)
	}
	return counts, nil
}

func (s *AnalyticsService) summaryRange(from, to time.Time) (time.Time, time.Time, error) {
	if to.IsZero() {
		to = s.now()
	}
	if from.IsZero() {
		from = to.Add(-defaultSummary)
	}
	if !from.Before(to) {
		return from, to, apierrors.InvalidArgument("from must be before to")
	}
	if to.Sub(from) > maxSummaryRange {
		return from, to, apierrors.InvalidArgument("range cannot exceed 366 days")
	}
	return from, to, nil
}

func (s *AnalyticsService) fail(in ClickInput, msg string, err error) {
	s.metrics.RecordClick(string(in.ClickType), ClickFailed)
	s.logger.Warn(msg,
		zap.String("business_id", in.BusinessID),
		zap.String("click_type", string(in.ClickType)),
		zap.Error(err))
}
