package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// PrometheusMetrics provides Prometheus-based metrics collection for
// anonymization runs.
type PrometheusMetrics struct {
	logger   *logrus.Logger
	registry *prometheus.Registry
	server   *http.Server
	config   *PrometheusConfig

	runsTotal      *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	runsActive     prometheus.Gauge
	rowsAnonymized prometheus.Counter
	cellsPerRun    prometheus.Histogram
	errorsTotal    *prometheus.CounterVec
}

// PrometheusConfig configures Prometheus metrics
type PrometheusConfig struct {
	Enabled   bool   `json:"enabled"`
	Port      int    `json:"port"`
	Path      string `json:"path"`
	Namespace string `json:"namespace"`
}

// NewPrometheusMetrics creates a new Prometheus metrics instance
func NewPrometheusMetrics(config *PrometheusConfig, logger *logrus.Logger) (*PrometheusMetrics, error) {
	if config == nil {
		config = getDefaultPrometheusConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}

	pm := &PrometheusMetrics{
		logger:   logger,
		registry: prometheus.NewRegistry(),
		config:   config,
	}

	ns := config.Namespace

	pm.runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "anonymization_runs_total",
		Help:      "Total number of anonymization runs by mode and status",
	}, []string{"mode", "status"})

	pm.runDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns,
		Name:      "anonymization_run_duration_seconds",
		Help:      "Duration of anonymization runs",
		Buckets:   prometheus.DefBuckets,
	}, []string{"mode"})

	pm.runsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: ns,
		Name:      "anonymization_runs_active",
		Help:      "Number of anonymization runs currently in progress",
	})

	pm.rowsAnonymized = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "anonymization_rows_total",
		Help:      "Total number of rows rewritten by anonymization runs",
	})

	pm.cellsPerRun = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: ns,
		Name:      "anonymization_cells_per_run",
		Help:      "Number of equivalence classes built per run",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})

	pm.errorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "anonymization_errors_total",
		Help:      "Total number of anonymization failures by error type",
	}, []string{"error_type"})

	collectors := []prometheus.Collector{
		pm.runsTotal, pm.runDuration, pm.runsActive,
		pm.rowsAnonymized, pm.cellsPerRun, pm.errorsTotal,
	}
	for _, c := range collectors {
		if err := pm.registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	return pm, nil
}

// Start starts the Prometheus metrics server
func (pm *PrometheusMetrics) Start(ctx context.Context) error {
	if !pm.config.Enabled {
		pm.logger.Info("Prometheus metrics disabled")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(pm.config.Path, promhttp.HandlerFor(pm.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))

	pm.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", pm.config.Port),
		Handler: mux,
	}

	pm.logger.WithFields(logrus.Fields{
		"port": pm.config.Port,
		"path": pm.config.Path,
	}).Info("Starting Prometheus metrics server")

	go func() {
		if err := pm.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			pm.logger.WithError(err).Error("Prometheus metrics server error")
		}
	}()

	return nil
}

// Stop stops the Prometheus metrics server
func (pm *PrometheusMetrics) Stop(ctx context.Context) error {
	if pm.server == nil {
		return nil
	}

	pm.logger.Info("Stopping Prometheus metrics server")
	return pm.server.Shutdown(ctx)
}

// Registry exposes the underlying registry for custom collectors.
func (pm *PrometheusMetrics) Registry() *prometheus.Registry {
	return pm.registry
}

// RunStarted marks an anonymization run as in progress.
func (pm *PrometheusMetrics) RunStarted() {
	if pm == nil {
		return
	}
	pm.runsActive.Inc()
}

// RunCompleted records a finished anonymization run.
func (pm *PrometheusMetrics) RunCompleted(mode string, rows, cells int, duration time.Duration) {
	if pm == nil {
		return
	}
	pm.runsActive.Dec()
	pm.runsTotal.WithLabelValues(mode, "success").Inc()
	pm.runDuration.WithLabelValues(mode).Observe(duration.Seconds())
	pm.rowsAnonymized.Add(float64(rows))
	pm.cellsPerRun.Observe(float64(cells))
}

// RunFailed records a failed anonymization run.
func (pm *PrometheusMetrics) RunFailed(mode, errorType string, duration time.Duration) {
	if pm == nil {
		return
	}
	pm.runsActive.Dec()
	pm.runsTotal.WithLabelValues(mode, "failure").Inc()
	pm.runDuration.WithLabelValues(mode).Observe(duration.Seconds())
	pm.errorsTotal.WithLabelValues(errorType).Inc()
}

func getDefaultPrometheusConfig() *PrometheusConfig {
	return &PrometheusConfig{
		Enabled:   false,
		Port:      9090,
		Path:      "/metrics",
		Namespace: "fairml",
	}
}
