package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	UsersCreated        prometheus.Counter
	LoginsFailed        prometheus.Counter
	AuthDenials         *prometheus.CounterVec
	AuditEntriesWritten prometheus.Counter
	AuditEntriesFailed  prometheus.Counter
	AuditQueueDepth     prometheus.Gauge
	RateLimited         *prometheus.CounterVec
	RequestDuration     *prometheus.HistogramVec
	DatabaseUp          prometheus.Gauge
	ChatMessages        *prometheus.CounterVec
	BreakerState        *prometheus.GaugeVec
}

// New creates and registers all Prometheus metrics on the given registerer.
// A nil registerer uses the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		UsersCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "medbee_users_created_total",
			Help: "Total number of users registered",
		}),
		LoginsFailed: f.NewCounter(prometheus.CounterOpts{
			Name: "medbee_logins_failed_total",
			Help: "Total number of rejected login attempts",
		}),
		AuthDenials: f.NewCounterVec(prometheus.CounterOpts{
			Name: "medbee_auth_denials_total",
			Help: "Requests denied by the access guard or role gate",
		}, []string{"reason"}),
		AuditEntriesWritten: f.NewCounter(prometheus.CounterOpts{
			Name: "medbee_audit_entries_written_total",
			Help: "Audit entries persisted",
		}),
		AuditEntriesFailed: f.NewCounter(prometheus.CounterOpts{
			Name: "medbee_audit_entries_failed_total",
			Help: "Audit entries that failed to persist",
		}),
		AuditQueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "medbee_audit_queue_depth",
			Help: "Audit entries waiting for persistence",
		}),
		RateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Name: "medbee_rate_limited_total",
			Help: "Requests rejected by a rate limiter",
		}, []string{"class"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "medbee_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		DatabaseUp: f.NewGauge(prometheus.GaugeOpts{
			Name: "medbee_database_up",
			Help: "1 when the database connection is healthy",
		}),
		ChatMessages: f.NewCounterVec(prometheus.CounterOpts{
			Name: "medbee_chat_messages_total",
			Help: "Chat exchanges stored, by classified message type",
		}, []string{"type"}),
		BreakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "medbee_circuit_breaker_state",
			Help: "Circuit breaker state: 0 closed, 1 half-open, 2 open",
		}, []string{"name"}),
	}
}

// IncrementUsersCreated increments the users created counter by 1
func (m *Metrics) IncrementUsersCreated() {
	if m == nil {
		return
	}
	m.UsersCreated.Inc()
}

func (m *Metrics) IncrementLoginsFailed() {
	if m == nil {
		return
	}
	m.LoginsFailed.Inc()
}

func (m *Metrics) IncrementAuthDenied(reason string) {
	if m == nil {
		return
	}
	m.AuthDenials.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementAuditWritten() {
	if m == nil {
		return
	}
	m.AuditEntriesWritten.Inc()
}

func (m *Metrics) IncrementAuditFailed() {
	if m == nil {
		return
	}
	m.AuditEntriesFailed.Inc()
}

func (m *Metrics) SetAuditQueueDepth(n int) {
	if m == nil {
		return
	}
	m.AuditQueueDepth.Set(float64(n))
}

func (m *Metrics) IncrementRateLimited(class string) {
	if m == nil {
		return
	}
	m.RateLimited.WithLabelValues(class).Inc()
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

func (m *Metrics) SetDatabaseUp(up bool) {
	if m == nil {
		return
	}
	if up {
		m.DatabaseUp.Set(1)
		return
	}
	m.DatabaseUp.Set(0)
}

func (m *Metrics) IncrementChatMessages(messageType string) {
	if m == nil {
		return
	}
	m.ChatMessages.WithLabelValues(messageType).Inc()
}

func (m *Metrics) SetBreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(name).Set(float64(state))
}
