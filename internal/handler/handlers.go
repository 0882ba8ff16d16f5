// Package handler provides HTTP request handlers for the directory API.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	apierrors "github.com/devrev/bizdir/internal/errors"
	"github.com/devrev/bizdir/internal/middleware"
	"github.com/devrev/bizdir/internal/service"
	"go.uber.org/zap"
)

// Services groups the domain services the handlers call.
type Services struct {
	Businesses    *service.BusinessService
	Reviews       *service.ReviewService
	Verifications *service.VerificationService
	Categories    *service.CategoryService
	Analytics     *service.AnalyticsService
	Promotions    *service.PromotionService
	Webhooks      *service.WebhookService
	Dashboard     *service.DashboardService
	Reports       *service.ReportService
}

// Config holds per-request limits.
type Config struct {
	Timeout             time.Duration
	WebhookMaxBodyBytes int64
}

// Handlers contains all HTTP handlers and their dependencies.
type Handlers struct {
	services     Services
	errorHandler *apierrors.Handler
	logger       *zap.Logger
	timeout      time.Duration
	maxWebhook   int64
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(services Services, errorHandler *apierrors.Handler, logger *zap.Logger, cfg Config) *Handlers {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.WebhookMaxBodyBytes <= 0 {
		cfg.WebhookMaxBodyBytes = 64 << 10
	}
	return &Handlers{
		services:     services,
		errorHandler: errorHandler,
		logger:       logger,
		timeout:      cfg.Timeout,
		maxWebhook:   cfg.WebhookMaxBodyBytes,
	}
}

func (h *Handlers) context(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.timeout)
}

// userID returns the authenticated caller. Routes using it sit behind RequireAuth.
func (h *Handlers) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	p := middleware.PrincipalFrom(r.Context())
	if p == nil {
		h.errorHandler.WriteUnauthorized(w, "authentication required", r.Header.Get("X-Request-ID"))
		return "", false
	}
	return p.UserID, true
}

func principalID(r *http.Request) string {
	if p := middleware.PrincipalFrom(r.Context()); p != nil {
		return p.UserID
	}
	return ""
}

// action runs a guarded mutation and writes its ActionResult.
func (h *Handlers) action(w http.ResponseWriter, r *http.Request, message string, fn func(ctx context.Context) (interface{}, error)) {
	ctx, cancel := h.context(r)
	defer cancel()

	data, err := fn(ctx)
	if err != nil {
		h.errorHandler.HandleActionError(w, r, err)
		return
	}
	h.errorHandler.WriteActionResult(w, message, data)
}

// writeJSONResponse writes a JSON response with the given status code.
func (h *Handlers) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}
