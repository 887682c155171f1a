package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler serves DefaultRegistry in text and OpenMetrics formats.
func Handler() http.HandlerFunc {
	return promhttp.HandlerFor(DefaultRegistry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}).ServeHTTP
}

// Middleware observes every request. It reads the route pattern after the
// handler returns, so it must be installed on the chi mux itself.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			RequestInFlight.Inc()
			defer RequestInFlight.Dec()

			start := time.Now()
			cw := &countingWriter{ResponseWriter: w}
			next.ServeHTTP(cw, r)

			route := routeLabel(r)
			code := strconv.Itoa(cw.code())
			RequestDuration.WithLabelValues(r.Method, route, code).Observe(time.Since(start).Seconds())
			RequestTotal.WithLabelValues(r.Method, route, code).Inc()
			ResponseSize.WithLabelValues(r.Method, route).Observe(float64(cw.n))
		})
	}
}

type countingWriter struct {
	http.ResponseWriter
	status int
	n      int
}

func (c *countingWriter) WriteHeader(status int) {
	if c.status == 0 {
		c.status = status
	}
	c.ResponseWriter.WriteHeader(status)
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.ResponseWriter.Write(p)
	c.n += n
	return n, err
}

func (c *countingWriter) Unwrap() http.ResponseWriter { return c.ResponseWriter }

func (c *countingWriter) code() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}

// routeLabel is the matched pattern, e.g. /api/orders/{id}. Unmatched
// requests share one label.
func routeLabel(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
