package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLifecycleCounters(t *testing.T) {
	pm, err := NewPrometheusMetrics(nil, nil)
	require.NoError(t, err)

	pm.RunStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.runsActive))

	pm.RunCompleted("classification", 6, 2, 10*time.Millisecond)
	assert.Equal(t, 0.0, testutil.ToFloat64(pm.runsActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.runsTotal.WithLabelValues("classification", "success")))
	assert.Equal(t, 6.0, testutil.ToFloat64(pm.rowsAnonymized))
}

func TestRunFailedRecordsErrorType(t *testing.T) {
	pm, err := NewPrometheusMetrics(nil, nil)
	require.NoError(t, err)

	pm.RunStarted()
	pm.RunFailed("regression", "configuration", time.Millisecond)

	assert.Equal(t, 0.0, testutil.ToFloat64(pm.runsActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.runsTotal.WithLabelValues("regression", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.errorsTotal.WithLabelValues("configuration")))
}

func TestRegistryExposesRunMetrics(t *testing.T) {
	pm, err := NewPrometheusMetrics(nil, nil)
	require.NoError(t, err)

	pm.RunCompleted("classification", 3, 1, time.Millisecond)

	n, err := testutil.GatherAndCount(pm.Registry(),
		"fairml_anonymization_runs_total",
		"fairml_anonymization_rows_total",
		"fairml_anonymization_cells_per_run")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestNilReceiverIsSafe(t *testing.T) {
	var pm *PrometheusMetrics
	assert.NotPanics(t, func() {
		pm.RunStarted()
		pm.RunCompleted("classification", 1, 1, time.Millisecond)
		pm.RunFailed("classification", "internal", time.Millisecond)
	})
}
