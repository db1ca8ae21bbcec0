package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status_code"},
	)

	// Business metrics
	authAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"status"}, // success, failure
	)

	leadsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_leads_created_total",
			Help: "Total number of leads created",
		},
		[]string{"source"},
	)

	leadsAssignedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_leads_assigned_total",
			Help: "Total number of lead assignments",
		},
		[]string{"override"},
	)

	attemptsLoggedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_contact_attempts_logged_total",
			Help: "Total number of contact attempts that consumed a lead attempt",
		},
		[]string{"type"},
	)

	attemptLimitRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crm_attempt_limit_rejections_total",
			Help: "Total number of attempts rejected at the per-lead ceiling",
		},
	)

	quotaRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crm_quota_rejections_total",
			Help: "Total number of assignments rejected by an agent quota",
		},
	)

	leadsArchivedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crm_leads_auto_archived_total",
			Help: "Total number of leads archived after exhausting their attempts",
		},
	)

	quoteTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_quote_transitions_total",
			Help: "Total number of quote status changes",
		},
		[]string{"status"},
	)

	invoiceTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_invoice_transitions_total",
			Help: "Total number of invoice status changes",
		},
		[]string{"status"},
	)

	realtimeClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crm_realtime_clients",
			Help: "Number of connected websocket clients",
		},
	)
)

// Middleware records request count and latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(c.Request.Method, endpoint, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, endpoint, status).Observe(time.Since(start).Seconds())
	}
}

func RecordAuthAttempt(success bool) {
	status := "failure"
	if success {
		status = "success"
	}
	authAttemptsTotal.WithLabelValues(status).Inc()
}

func RecordLeadCreated(source string) {
	leadsCreatedTotal.WithLabelValues(source).Inc()
}

func RecordAssignment(override bool) {
	leadsAssignedTotal.WithLabelValues(strconv.FormatBool(override)).Inc()
}

func RecordAttemptLogged(attemptType string) {
	attemptsLoggedTotal.WithLabelValues(attemptType).Inc()
}

func RecordAttemptLimitRejection() {
	attemptLimitRejections.Inc()
}

func RecordQuotaRejection() {
	quotaRejections.Inc()
}

func RecordAutoArchive() {
	leadsArchivedTotal.Inc()
}

func RecordQuoteTransition(status string) {
	quoteTransitionsTotal.WithLabelValues(status).Inc()
}

func RecordInvoiceTransition(status string) {
	invoiceTransitionsTotal.WithLabelValues(status).Inc()
}

func SetRealtimeClients(n int) {
	realtimeClients.Set(float64(n))
}
