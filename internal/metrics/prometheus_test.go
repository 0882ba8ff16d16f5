package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetrics_Singleton(t *testing.T) {
	assert.Same(t, NewMetrics(), NewMetrics())
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordClick("view", "recorded")
		m.RecordWebhookEvent("checkout.session.completed", "processed")
		m.RecordNotification("business_approved", nil)
		m.RecordPromotionRefresh(1, 2, 3, time.Second)
		m.RecordHTTPRequest("GET", "/", 200, time.Millisecond)
	})

	w := httptest.NewRecorder()
	MetricsMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestRecordCounters(t *testing.T) {
	m := NewMetrics()

	before := testutil.ToFloat64(m.clicksTotal.WithLabelValues("phone", "duplicate"))
	m.RecordClick("phone", "duplicate")
	assert.Equal(t, before+1, testutil.ToFloat64(m.clicksTotal.WithLabelValues("phone", "duplicate")))

	failedBefore := testutil.ToFloat64(m.notificationsTotal.WithLabelValues("verification_approved", "failed"))
	m.RecordNotification("verification_approved", errors.New("broker down"))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(m.notificationsTotal.WithLabelValues("verification_approved", "failed")))

	promotedBefore := testutil.ToFloat64(m.promotionChanges.WithLabelValues("promoted"))
	m.RecordPromotionRefresh(3, 0, 0, time.Millisecond)
	assert.Equal(t, promotedBefore+3, testutil.ToFloat64(m.promotionChanges.WithLabelValues("promoted")))
}

func TestMetricsMiddleware_UsesRouteTemplate(t *testing.T) {
	m := NewMetrics()
	router := mux.NewRouter()
	router.Use(MetricsMiddleware(m))
	router.HandleFunc("/v1/businesses/{slug}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/v1/businesses/{slug}", "404"))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/businesses/acme", nil))
	assert.Equal(t, before+1, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/v1/businesses/{slug}", "404")))
}
