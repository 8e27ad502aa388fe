package eventadmin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheckHealthyOnFreshBus(t *testing.T) {
	bus := New()
	defer bus.Stop()

	report := bus.HealthCheck(context.Background())

	require.Equal(t, HealthStatusHealthy, report.Status)
	assert.Equal(t, "eventadmin", report.Component)
	assert.NotEmpty(t, report.Message)
	assert.WithinDuration(t, time.Now(), report.CheckedAt, 5*time.Second)
	assert.Equal(t, true, report.Details["running"])
	assert.Contains(t, report.Details, "probe_duration_ms")
}

func TestHealthCheckUnhealthyAfterStop(t *testing.T) {
	bus := New()
	bus.Stop()

	report := bus.HealthCheck(context.Background())

	require.Equal(t, HealthStatusUnhealthy, report.Status)
	assert.Equal(t, false, report.Details["running"])
}

func TestHealthCheckDegradedWhenHandlerBlacklisted(t *testing.T) {
	bus := New(WithBlockPolicy(BlockAbort))
	defer bus.Stop()

	cfg := DefaultConfigSnapshot()
	cfg.TimeoutMS = 200
	bus.Update(cfg)

	_, err := bus.Register([]string{"slow/topic"}, "", "", func(context.Context, Event) error {
		time.Sleep(time.Second)
		return nil
	})
	require.NoError(t, err)

	_ = bus.SendEvent(context.Background(), NewEvent("slow/topic", nil))

	report := bus.HealthCheck(context.Background())
	assert.Equal(t, HealthStatusDegraded, report.Status)
	assert.Equal(t, 1, report.Details["blacklisted_handlers"])
}

func TestHealthTimeoutIsFiveSeconds(t *testing.T) {
	bus := New()
	defer bus.Stop()

	assert.Equal(t, 5*time.Second, bus.HealthTimeout())
}
