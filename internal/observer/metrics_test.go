package observer

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/timkado/api/wa-automations/internal/apperrors"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	m := &dto.Metric{}
	require.NoError(t, c.Write(m))
	return m.GetCounter().GetValue()
}

func histogramCount(t *testing.T, o prometheus.Observer) uint64 {
	m := &dto.Metric{}
	require.NoError(t, o.(prometheus.Metric).Write(m))
	return m.GetHistogram().GetSampleCount()
}

func TestSanitizeErrorType(t *testing.T) {
	tests := map[string]string{
		"":                                       "none",
		"context deadline exceeded":              "timeout",
		"channel send failed: HTTP 401":          "http_4xx",
		"channel send failed: HTTP 502":          "http_5xx",
		"dial tcp: connection refused":           "connection",
		"duplicate entry: constraint idx":        "database",
		"configuration error: evolution api url": "configuration",
		"something else entirely":                "unknown",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeErrorType(in), in)
	}
}

func TestChannelErrorType(t *testing.T) {
	assert.Equal(t, "none", channelErrorType(nil))
	assert.Equal(t, "timeout", channelErrorType(fmt.Errorf("%w: %w", apperrors.ErrChannel, apperrors.ErrTimeout)))
	assert.Equal(t, "rate_limited", channelErrorType(fmt.Errorf("%w: http 429: %w", apperrors.ErrChannel, apperrors.ErrRateLimited)))
	assert.Equal(t, "http_5xx", channelErrorType(fmt.Errorf("%w: http 503", apperrors.ErrChannel)))
}

func TestIncDispatchOutcome(t *testing.T) {
	InitMetrics(true)
	defer InitMetrics(true)
	counter := DispatchOutcomesTotal.WithLabelValues("birthday", "metrics-co", "sent")
	before := counterValue(t, counter)

	IncDispatchOutcome("birthday", "metrics-co", "sent")
	assert.Equal(t, before+1, counterValue(t, counter))

	InitMetrics(false)
	IncDispatchOutcome("birthday", "metrics-co", "sent")
	assert.Equal(t, before+1, counterValue(t, counter))
}

func TestObserveDbOperationDuration_UnknownTenant(t *testing.T) {
	InitMetrics(true)
	hist := DatabaseOperationDurationSeconds.WithLabelValues("save", "automation_logs", "unknown", "error")
	before := histogramCount(t, hist)

	ObserveDbOperationDuration("save", "automation_logs", "", time.Millisecond, errors.New("boom"))
	assert.Equal(t, before+1, histogramCount(t, hist))
}
