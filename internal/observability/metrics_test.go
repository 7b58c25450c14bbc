package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/tradein-service/internal/domain"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest("/trade-in/:id", "GET", 200, 15*time.Millisecond)
	m.RecordRequest("/trade-in/:id", "GET", 200, 5*time.Millisecond)
	m.RecordError("/trade-in/:id", "GET", "NOT_FOUND")
	m.RecordCreated(domain.DeviceSmartphone, 352)
	m.RecordTransition(domain.StatusPending, domain.StatusReviewing)
	m.RecordRejectedTransition("INVALID_TRANSITION")
	m.RecordNotificationFailure(domain.StatusCompleted, "NOTIFICATION_FAILED")

	require.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/trade-in/:id", "200")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.httpErrors.WithLabelValues("GET", "/trade-in/:id", "NOT_FOUND")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.requestsCreated.WithLabelValues("smartphone")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.statusTransitions.WithLabelValues("pending", "reviewing")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.transitionRejected.WithLabelValues("INVALID_TRANSITION")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.notificationsFailed.WithLabelValues("completed", "NOTIFICATION_FAILED")))

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordError("/", "GET", "X")
		m.RecordCreated(domain.DeviceLaptop, 1)
		m.RecordTransition(domain.StatusPending, domain.StatusCancelled)
		m.RecordRejectedTransition("X")
		m.RecordNotificationFailure(domain.StatusPending, "X")
	})
	require.Nil(t, m.Registry())
}
