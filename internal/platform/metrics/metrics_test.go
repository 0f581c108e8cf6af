package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementUsersCreated()
	m.IncrementAuthDenied("missing_token")
	m.IncrementAuthDenied("missing_token")
	m.IncrementAuditFailed()
	m.SetDatabaseUp(true)
	m.ObserveRequest("GET", "/api/v1/auth/me", 200, 5*time.Millisecond)
	m.IncrementChatMessages("SYMPTOM_QUERY")
	m.SetBreakerState("ai-upstream", 2)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.UsersCreated))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.AuthDenials.WithLabelValues("missing_token")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.AuditEntriesFailed))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DatabaseUp))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ChatMessages.WithLabelValues("SYMPTOM_QUERY")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.BreakerState.WithLabelValues("ai-upstream")))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementUsersCreated()
		m.IncrementAuditWritten()
		m.SetDatabaseUp(false)
	})
}
