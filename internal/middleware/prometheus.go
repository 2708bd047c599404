package middleware

import (
	"net/http"
	"strconv"
	"time"

	"telegram_booking_bot/pkg/metrics"
)

// OtherEndpoint метка для путей, которых нет среди известных маршрутов
const OtherEndpoint = "other"

// PrometheusMiddleware считает HTTP запросы и их длительность.
// Метка endpoint берется только из routes, остальные пути сводятся к OtherEndpoint.
func PrometheusMiddleware(routes ...string) func(http.Handler) http.Handler {
	known := make(map[string]struct{}, len(routes))
	for _, r := range routes {
		known[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rec, r)

			endpoint := OtherEndpoint
			if _, ok := known[r.URL.Path]; ok {
				endpoint = r.URL.Path
			}

			metrics.RecordHTTPRequest(r.Method, endpoint, strconv.Itoa(rec.statusCode))
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
		})
	}
}

// statusRecorder запоминает код ответа
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
