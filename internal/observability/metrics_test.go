package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/x", "GET", 200, time.Millisecond)
		m.RecordError("/x", "GET", "NOT_FOUND")
		m.RecordEscalationPass("completed", 1, 0, time.Second)
		m.RecordNotification("enqueue", nil)
	})
	assert.Nil(t, m.Registry())
}

func TestEscalationPassCounters(t *testing.T) {
	m := NewMetrics("test")

	m.RecordEscalationPass("completed", 3, 1, 250*time.Millisecond)
	m.RecordEscalationPass("skipped", 0, 0, 0)

	assert.Equal(t, float64(3), testutil.ToFloat64(m.escalations))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.escalationFailures))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.escalationPasses.WithLabelValues("completed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.escalationPasses.WithLabelValues("skipped")))
}

func TestNotificationCounters(t *testing.T) {
	m := NewMetrics("test")

	m.RecordNotification("enqueue", nil)
	m.RecordNotification("enqueue", errors.New("redis down"))
	m.RecordNotification("enqueue", errors.New("redis down"))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.notifications.WithLabelValues("enqueue", "ok")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.notifications.WithLabelValues("enqueue", "error")))
}
