package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"telegram_booking_bot/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusMiddleware_EndpointLabels(t *testing.T) {
	handler := PrometheusMiddleware("/health")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	health := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/health", "200")
	other := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, OtherEndpoint, "404")
	healthBefore := testutil.ToFloat64(health)
	otherBefore := testutil.ToFloat64(other)

	for _, path := range []string{"/health", "/wp-login.php", "/.env"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, healthBefore+1, testutil.ToFloat64(health))
	assert.Equal(t, otherBefore+2, testutil.ToFloat64(other))
	assert.Zero(t, testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/.env", "404")))
}
