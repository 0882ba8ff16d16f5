// Package server provides the HTTP server implementation for the directory API.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/devrev/bizdir/internal/auth"
	"github.com/devrev/bizdir/internal/config"
	apierrors "github.com/devrev/bizdir/internal/errors"
	"github.com/devrev/bizdir/internal/handler"
	"github.com/devrev/bizdir/internal/health"
	"github.com/devrev/bizdir/internal/metrics"
	"github.com/devrev/bizdir/internal/middleware"
	"github.com/devrev/bizdir/internal/model"
	"github.com/devrev/bizdir/internal/store"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Dependencies are the collaborators the server routes to.
type Dependencies struct {
	Services handler.Services
	Parser   *auth.Parser
	Profiles store.ProfileStore
	Checks   map[string]health.Pinger
	Metrics  *metrics.Metrics
}

// Server represents the HTTP server.
type Server struct {
	router        *mux.Router
	httpServer    *http.Server
	handlers      *handler.Handlers
	authenticator *middleware.Authenticator
	healthCheck   *health.HealthCheck
	metrics       *metrics.Metrics
	errorHandler  *apierrors.Handler
	logger        *zap.Logger
	cfg           *config.Config
}

// NewServer creates a new HTTP server.
func NewServer(cfg *config.Config, deps Dependencies, logger *zap.Logger) *Server {
	router := mux.NewRouter()
	errorHandler := apierrors.NewHandler(logger)
	handlers := handler.NewHandlers(deps.Services, errorHandler, logger, handler.Config{
		Timeout:             cfg.Server.RequestTimeout,
		WebhookMaxBodyBytes: cfg.Payments.MaxBodyBytes,
	})
	authenticator := middleware.NewAuthenticator(deps.Parser, deps.Profiles, errorHandler, cfg.Auth.LoginRedirectURL, logger)
	healthCheck := health.NewHealthCheck(deps.Checks, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		router:        router,
		httpServer:    httpServer,
		handlers:      handlers,
		authenticator: authenticator,
		healthCheck:   healthCheck,
		metrics:       deps.Metrics,
		errorHandler:  errorHandler,
		logger:        logger,
		cfg:           cfg,
	}
}

// SetupRoutes configures all HTTP routes.
func (s *Server) SetupRoutes() {
	// Authenticate runs before Logging so the log line carries the user id
	middlewareChain := []func(http.Handler) http.Handler{
		middleware.Recovery(s.logger, s.errorHandler),
		middleware.RequestID,
		s.authenticator.Authenticate,
		middleware.Logging(s.logger),
		metrics.MetricsMiddleware(s.metrics),
		middleware.CORS(s.cfg.CORS.AllowedOrigins),
	}

	if s.cfg.RateLimiter.Enabled {
		rateLimiter := middleware.NewRateLimiter(
			s.cfg.RateLimiter.RequestsPerSecond,
			s.cfg.RateLimiter.BurstSize,
			s.errorHandler,
			s.logger,
		)
		middlewareChain = append(middlewareChain, rateLimiter.Limit)
	}
	middlewareChain = append(middlewareChain, middleware.Timeout(s.cfg.Server.RequestTimeout))

	chain := middleware.Chain(middlewareChain...)
	s.router.Use(func(next http.Handler) http.Handler {
		return chain(next)
	})

	s.router.HandleFunc("/health", s.healthCheck.LivenessHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/ready", s.healthCheck.ReadinessHandler).Methods(http.MethodGet)

	h := s.handlers
	v1 := s.router.PathPrefix("/v1").Subrouter()

	// Admin routes are registered first so /admin/... never falls through to a public template
	admin := v1.PathPrefix("/admin").Subrouter()
	admin.Use(s.authenticator.RequireRole(model.RoleAdmin))
	admin.HandleFunc("/dashboard", h.Dashboard).Methods(http.MethodGet)

	admin.HandleFunc("/businesses", h.AdminListBusinesses).Methods(http.MethodGet)
	admin.HandleFunc("/businesses/{id}/approve", h.ApproveBusiness).Methods(http.MethodPost)
	admin.HandleFunc("/businesses/{id}/reject", h.RejectBusiness).Methods(http.MethodPost)
	admin.HandleFunc("/businesses/{id}", h.DeleteBusiness).Methods(http.MethodDelete)
	admin.HandleFunc("/businesses/{id}/analytics", h.AdminBusinessAnalytics).Methods(http.MethodGet)
	admin.HandleFunc("/businesses/{id}/analytics/report.pdf", h.AdminBusinessReport).Methods(http.MethodGet)

	admin.HandleFunc("/reviews", h.AdminListReviews).Methods(http.MethodGet)
	admin.HandleFunc("/reviews/{id}/approve", h.ApproveReview).Methods(http.MethodPost)
	admin.HandleFunc("/reviews/{id}/reject", h.RejectReview).Methods(http.MethodPost)
	admin.HandleFunc("/reviews/{id}", h.DeleteReview).Methods(http.MethodDelete)

	admin.HandleFunc("/verifications", h.AdminListVerifications).Methods(http.MethodGet)
	admin.HandleFunc("/verifications/{id}/approve", h.ApproveVerification).Methods(http.MethodPost)
	admin.HandleFunc("/verifications/{id}/reject", h.RejectVerification).Methods(http.MethodPost)

	admin.HandleFunc("/categories", h.CreateCategory).Methods(http.MethodPost)
	admin.HandleFunc("/categories/{id}", h.UpdateCategory).Methods(http.MethodPut)
	admin.HandleFunc("/categories/{id}", h.DeleteCategory).Methods(http.MethodDelete)
	admin.HandleFunc("/categories/{id}/subcategories", h.CreateSubcategory).Methods(http.MethodPost)
	admin.HandleFunc("/subcategories/{id}", h.DeleteSubcategory).Methods(http.MethodDelete)

	admin.HandleFunc("/category-requests", h.AdminListCategoryRequests).Methods(http.MethodGet)
	admin.HandleFunc("/category-requests/{id}/approve", h.ApproveCategoryRequest).Methods(http.MethodPost)
	admin.HandleFunc("/category-requests/{id}/reject", h.RejectCategoryRequest).Methods(http.MethodPost)

	admin.HandleFunc("/promotions/refresh", h.RefreshPromotions).Methods(http.MethodPost)

	admin.HandleFunc("/users", h.AdminListUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id}/role", h.SetUserRole).Methods(http.MethodPut)

	// Owner routes
	me := v1.PathPrefix("/me").Subrouter()
	me.Use(s.authenticator.RequireAuth)
	me.HandleFunc("/businesses", h.CreateBusiness).Methods(http.MethodPost)
	me.HandleFunc("/businesses", h.ListMyBusinesses).Methods(http.MethodGet)
	me.HandleFunc("/businesses/{id}", h.UpdateBusiness).Methods(http.MethodPut)
	me.HandleFunc("/businesses/{id}/verification", h.RequestVerification).Methods(http.MethodPost)
	me.HandleFunc("/businesses/{id}/analytics", h.MyBusinessAnalytics).Methods(http.MethodGet)
	me.HandleFunc("/businesses/{id}/analytics/report.pdf", h.MyBusinessReport).Methods(http.MethodGet)
	me.HandleFunc("/businesses/{id}/promotions", h.ListMyPromotions).Methods(http.MethodGet)

	requireAuth := func(fn http.HandlerFunc) http.Handler {
		return s.authenticator.RequireAuth(fn)
	}
	v1.Handle("/businesses/{id}/reviews", requireAuth(h.SubmitReview)).Methods(http.MethodPost)
	v1.Handle("/category-requests", requireAuth(h.SubmitCategoryRequest)).Methods(http.MethodPost)

	// Public routes
	v1.HandleFunc("/businesses", h.ListBusinesses).Methods(http.MethodGet)
	v1.HandleFunc("/businesses/{slug}", h.GetBusiness).Methods(http.MethodGet)
	v1.HandleFunc("/businesses/{id}/reviews", h.ListReviews).Methods(http.MethodGet)
	v1.HandleFunc("/categories", h.ListCategories).Methods(http.MethodGet)
	v1.HandleFunc("/categories/{id}/subcategories", h.ListSubcategories).Methods(http.MethodGet)
	v1.HandleFunc("/analytics/clicks", h.TrackClick).Methods(http.MethodPost)
	v1.HandleFunc("/webhooks/payments", h.PaymentWebhook).Methods(http.MethodPost)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		s.errorHandler.WriteErrorResponse(w, http.StatusNotFound, apierrors.ErrorCodeNotFound, "endpoint not found", requestID)
	})

	// Routes never register OPTIONS, so preflight requests land here
	preflight := middleware.CORS(s.cfg.CORS.AllowedOrigins)(http.NotFoundHandler())
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			preflight.ServeHTTP(w, r)
			return
		}
		requestID := r.Header.Get("X-Request-ID")
		s.errorHandler.WriteErrorResponse(w, http.StatusMethodNotAllowed, apierrors.ErrorCodeInvalidRequest, "method not allowed", requestID)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server",
		zap.Int("port", s.cfg.Server.Port),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// GetRouter returns the router for testing purposes.
func (s *Server) GetRouter() *mux.Router {
	return s.router
}

// GetHandler returns the http.Handler for the server.
func (s *Server) GetHandler() http.Handler {
	return s.router
}
