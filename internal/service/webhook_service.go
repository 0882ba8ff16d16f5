package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	apierrors "github.com/devrev/bizdir/internal/errors"
	"github.com/devrev/bizdir/internal/metrics"
	"github.com/devrev/bizdir/internal/store"
	"go.uber.org/zap"
)

// Payment provider event types
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
	EventPaymentFailed     = "payment_intent.payment_failed"
)

// Webhook outcomes reported to metrics
const (
	WebhookProcessed = "processed"
	WebhookDuplicate = "duplicate"
	WebhookIgnored   = "ignored"
	WebhookFailed    = "failed"
	WebhookRejected  = "rejected"
)

// SignatureHeader carries the payload signature
const SignatureHeader = "Stripe-Signature"

// ErrInvalidSignature is returned when a payload is unsigned, stale or forged
var ErrInvalidSignature = apierrors.New(apierrors.ErrorCodeInvalidSignature, "invalid webhook signature")

// Event is the envelope of a payment provider webhook
type Event struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type checkoutSession struct {
	ID                string            `json:"id"`
	ClientReferenceID string            `json:"client_reference_id"`
	PaymentIntent     string            `json:"payment_intent"`
	AmountTotal       int64             `json:"amount_total"`
	Currency          string            `json:"currency"`
	Metadata          map[string]string `json:"metadata"`
}

func (c checkoutSession) businessID() string {
	if id := c.Metadata["business_id"]; id != "" {
		return id
	}
	return c.ClientReferenceID
}

type paymentIntent struct {
	ID       string            `json:"id"`
	Metadata map[string]string `json:"metadata"`
}

// WebhookConfig holds webhook verification settings
type WebhookConfig struct {
	Secret    string
	Tolerance time.Duration
	EventTTL  time.Duration
}

// WebhookService verifies and applies payment provider events
type WebhookService struct {
	cfg        WebhookConfig
	events     store.EventStore
	promotions *PromotionService
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewWebhookService creates a new webhook service
func NewWebhookService(cfg WebhookConfig, events store.EventStore, promotions *PromotionService, m *metrics.Metrics, logger *zap.Logger) *WebhookService {
	return &WebhookService{
		cfg:        cfg,
		events:     events,
		promotions: promotions,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

// Handle verifies the payload signature and applies the event once.
// Unknown event types are acknowledged and ignored.
func (s *WebhookService) Handle(ctx context.Context, payload []byte, signature string) error {
	if err := s.Verify(payload, signature); err != nil {
		s.metrics.RecordWebhookEvent("unknown", WebhookRejected)
		s.logger.Warn("Rejected webhook", zap.Error(err))
		return err
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		s.metrics.RecordWebhookEvent("unknown", WebhookRejected)
		return apierrors.InvalidArgument("malformed event payload")
	}
	if event.ID == "" || event.Type == "" {
		s.metrics.RecordWebhookEvent("unknown", WebhookRejected)
		return apierrors.InvalidArgument("event id and type are required")
	}

	logger := s.logger.With(zap.String("event_id", event.ID), zap.String("event_type", event.Type))

	fresh, err := s.events.MarkProcessed(ctx, event.ID, s.cfg.EventTTL)
	if err != nil {
		s.metrics.RecordWebhookEvent(event.Type, WebhookFailed)
		return fmt.Errorf("failed to record event: %w", err)
	}
	if !fresh {
		s.metrics.RecordWebhookEvent(event.Type, WebhookDuplicate)
		logger.Info("Duplicate webhook event ignored")
		return nil
	}

	outcome, err := s.apply(ctx, event)
	if err != nil {
		// let the provider retry deliver it again
		if ferr := s.events.Forget(ctx, event.ID); ferr != nil {
			logger.Error("Failed to forget event", zap.Error(ferr))
		}
		s.metrics.RecordWebhookEvent(event.Type, WebhookFailed)
		logger.Error("Failed to process webhook event", zap.Error(err))
		return err
	}

	s.metrics.RecordWebhookEvent(event.Type, outcome)
	logger.Info("Webhook event handled", zap.String("outcome", outcome))
	return nil
}

func (s *WebhookService) apply(ctx context.Context, event Event) (string, error) {
	switch event.Type {
	case EventCheckoutCompleted:
		var session checkoutSession
		if err := json.Unmarshal(event.Data.Object, &session); err != nil {
			return "", apierrors.InvalidArgument("malformed checkout session")
		}
		businessID := session.businessID()
		if businessID == "" {
			s.logger.Warn("Checkout session has no business reference", zap.String("session_id", session.ID))
			return WebhookIgnored, nil
		}
		days, _ := strconv.Atoi(session.Metadata["days"])
		_, _, err := s.promotions.Activate(ctx, Activation{
			BusinessID:      businessID,
			SessionID:       session.ID,
			PaymentIntentID: session.PaymentIntent,
			AmountTotal:     session.AmountTotal,
			Currency:        session.Currency,
			Days:            days,
		})
		if err != nil {
			return s.unprocessable(err, zap.String("session_id", session.ID))
		}
		return WebhookProcessed, nil

	case EventCheckoutExpired:
		var session checkoutSession
		if err := json.Unmarshal(event.Data.Object, &session); err != nil {
			return "", apierrors.InvalidArgument("malformed checkout session")
		}
		if err := s.promotions.Expire(ctx, session.ID); err != nil {
			return "", err
		}
		return WebhookProcessed, nil

	case EventPaymentFailed:
		var intent paymentIntent
		if err := json.Unmarshal(event.Data.Object, &intent); err != nil {
			return "", apierrors.InvalidArgument("malformed payment intent")
		}
		businessID := intent.Metadata["business_id"]
		if businessID == "" {
			s.logger.Warn("Payment intent has no business reference", zap.String("payment_intent_id", intent.ID))
			return WebhookIgnored, nil
		}
		if _, err := s.promotions.Fail(ctx, businessID, intent.ID); err != nil {
			return s.unprocessable(err, zap.String("payment_intent_id", intent.ID))
		}
		return WebhookProcessed, nil

	default:
		return WebhookIgnored, nil
	}
}

// unprocessable acknowledges events that can never apply, such as one for a
// deleted business, so the provider stops retrying. Other errors are returned.
func (s *WebhookService) unprocessable(err error, field zap.Field) (string, error) {
	switch apierrors.CodeOf(err) {
	case apierrors.ErrorCodeNotFound, apierrors.ErrorCodeInvalidRequest, apierrors.ErrorCodeConflict:
		s.logger.Warn("Ignoring unprocessable webhook event", field, zap.Error(err))
		return WebhookIgnored, nil
	default:
		return "", err
	}
}

// Verify checks a "t=<unix>,v1=<hex>" signature header against the payload.
// The signed message is "<t>.<payload>" and t must be within the tolerance.
func (s *WebhookService) Verify(payload []byte, header string) error {
	if s.cfg.Secret == "" || header == "" {
		return ErrInvalidSignature
	}

	var timestamp string
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			signatures = append(signatures, value)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return ErrInvalidSignature
	}

	unix, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}
	if s.cfg.Tolerance > 0 {
		age := s.now().Sub(time.Unix(unix, 0))
		if age > s.cfg.Tolerance || age < -s.cfg.Tolerance {
			return ErrInvalidSignature
		}
	}

	expected := Sign(s.cfg.Secret, timestamp, payload)
	for _, sig := range signatures {
		decoded, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// Sign computes the raw HMAC-SHA256 of "<timestamp>.<payload>"
func Sign(secret, timestamp string, payload []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	return mac.Sum(nil)
}

// SignatureFor builds a signature header for payload at t
func SignatureFor(secret string, t time.Time, payload []byte) string {
	ts := strconv.FormatInt(t.Unix(), 10)
	return "t=" + ts + ",v1=" + hex.EncodeToString(Sign(secret, ts, payload))
}
