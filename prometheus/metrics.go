package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rakeshmondal461/marketplace-proto/pkg/config"
)

// Counter metrics
var (
	SignupCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "marketplace_signup_total",
			Help: "Total number of signup attempts",
		},
	)

	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "marketplace_login_total",
			Help: "Total number of login attempts",
		},
	)

	OrderCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_orders_total",
			Help: "Total number of orders created by direction",
		},
		[]string{"type"}, // "buy" or "sell"
	)

	OAuthCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_oauth_logins_total",
			Help: "Total number of OAuth login attempts by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_auth_errors_total",
			Help: "Total number of authentication and authorization errors",
		},
		[]string{"type"}, // "missing_token", "invalid_token", "forbidden_role" etc.
	)
)

// Histogram metrics
var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketplace_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketplace_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "query", "insert", "delete"
	)

	OrderValue = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "marketplace_order_value",
			Help:    "Total price distribution of created orders",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
	)
)

// Gauge metrics
var (
	ActiveTokensGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "marketplace_active_tokens",
			Help: "Number of bearer tokens issued and not yet expired",
		},
	)

	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "marketplace_info",
			Help: "Information about the marketplace service",
		},
		[]string{"version", "environment"},
	)
)

func init() {
	prometheus.MustRegister(SignupCounter)
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(OrderCounter)
	prometheus.MustRegister(OAuthCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(AuthErrorCounter)

	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)
	prometheus.MustRegister(OrderValue)

	prometheus.MustRegister(ActiveTokensGauge)
	prometheus.MustRegister(InfoGauge)
}

// InitMetrics sets the static service info labels
func InitMetrics(cfg *config.Config) {
	InfoGauge.With(prometheus.Labels{
		"version":     "1.0.0",
		"environment": cfg.Server.Env,
	}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			return err
		}
	}
}

// RecordAuthError records an authentication or authorization error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordOrder records a created order by direction and observes its value
func RecordOrder(orderType string, totalPrice float64) {
	OrderCounter.With(prometheus.Labels{"type": orderType}).Inc()
	OrderValue.Observe(totalPrice)
}

// RecordOAuthLogin records an OAuth login attempt outcome
func RecordOAuthLogin(provider, outcome string) {
	OAuthCounter.With(prometheus.Labels{"provider": provider, "outcome": outcome}).Inc()
}

// IncreaseActiveTokens increments the active tokens gauge
func IncreaseActiveTokens() {
	ActiveTokensGauge.Inc()
}
