// Package metrics provides Prometheus metrics for the directory service.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds all Prometheus metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge

	clicksTotal         *prometheus.CounterVec
	webhookEventsTotal  *prometheus.CounterVec
	notificationsTotal  *prometheus.CounterVec
	promotionChanges    *prometheus.CounterVec
	promotionRefreshDur prometheus.Histogram
}

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// NewMetrics creates and registers Prometheus metrics once per process.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			requestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "bizdir_http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "route", "status"},
			),
			requestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "bizdir_http_request_duration_seconds",
					Help:    "HTTP request duration in seconds",
					Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
				},
				[]string{"method", "route"},
			),
			requestsInFlight: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "bizdir_http_requests_in_flight",
					Help: "Number of HTTP requests currently being processed",
				},
			),
			clicksTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "bizdir_clicks_total",
					Help: "Analytics clicks by outcome (recorded, duplicate, failed)",
				},
				[]string{"type", "outcome"},
			),
			webhookEventsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "bizdir_webhook_events_total",
					Help: "Payment webhook events by type and outcome",
				},
				[]string{"type", "outcome"},
			),
			notificationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "bizdir_notifications_total",
					Help: "Email notifications by kind and outcome",
				},
				[]string{"kind", "outcome"},
			),
			promotionChanges: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "bizdir_promotion_changes_total",
					Help: "Businesses promoted, demoted or expired by refresh",
				},
				[]string{"change"},
			),
			promotionRefreshDur: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "bizdir_promotion_refresh_duration_seconds",
					Help:    "Duration of promotion refresh runs",
					Buckets: prometheus.DefBuckets,
				},
			),
		}
	})
	return globalMetrics
}

// RecordHTTPRequest records metrics for an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordClick records the outcome of a tracked click.
func (m *Metrics) RecordClick(clickType, outcome string) {
	if m == nil {
		return
	}
	m.clicksTotal.WithLabelValues(clickType, outcome).Inc()
}

// RecordWebhookEvent records a processed payment webhook event.
func (m *Metrics) RecordWebhookEvent(eventType, outcome string) {
	if m == nil {
		return
	}
	m.webhookEventsTotal.WithLabelValues(eventType, outcome).Inc()
}

// RecordNotification records an email send attempt.
func (m *Metrics) RecordNotification(kind string, err error) {
	if m == nil {
		return
	}
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	m.notificationsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordPromotionRefresh records one refresh run.
func (m *Metrics) RecordPromotionRefresh(promoted, demoted, expired int64, duration time.Duration) {
	if m == nil {
		return
	}
	m.promotionChanges.WithLabelValues("promoted").Add(float64(promoted))
	m.promotionChanges.WithLabelValues("demoted").Add(float64(demoted))
	m.promotionChanges.WithLabelValues("expired").Add(float64(expired))
	m.promotionRefreshDur.Observe(duration.Seconds())
}

// MetricsServer provides a separate HTTP server for Prometheus metrics.
type MetricsServer struct {
	server *http.Server
	logger *zap.Logger
}

// NewMetricsServer creates a new metrics server.
func NewMetricsServer(port int, path string, logger *zap.Logger) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())

	return &MetricsServer{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Start starts the metrics server.
func (ms *MetricsServer) Start() error {
	ms.logger.Info("starting metrics server", zap.String("addr", ms.server.Addr))
	if err := ms.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the metrics server.
func (ms *MetricsServer) Shutdown(ctx context.Context) error {
	return ms.server.Shutdown(ctx)
}

// MetricsMiddleware records HTTP metrics labelled by the matched route template.
func MetricsMiddleware(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				next.ServeHTTP(w, r)
				return
			}
			m.requestsInFlight.Inc()
			defer m.requestsInFlight.Dec()

			start := time.Now()
			rw := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			m.RecordHTTPRequest(r.Method, routeLabel(r), rw.statusCode, time.Since(start))
		})
	}
}

func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}

// metricsResponseWriter wraps http.ResponseWriter to capture the status.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code.
func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
