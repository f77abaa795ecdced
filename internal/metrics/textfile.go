package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/eugenenazirov/voicectl/internal/diagnostics"
)

const namespace = "voicectl"

// Exporter holds the diagnostics gauges in a private registry.
type Exporter struct {
	registry *prometheus.Registry
	passed   *prometheus.GaugeVec
	failed   prometheus.Gauge
	lastRun  prometheus.Gauge
}

// NewExporter creates an Exporter with its own registry.
func NewExporter() *Exporter {
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		passed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "check_passed",
			Help:      "Whether a diagnostic check passed (1) or failed (0).",
		}, []string{"section", "check"}),
		failed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "checks_failed",
			Help:      "Number of failing checks in the last diagnostics run.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "diagnostics_last_run_timestamp_seconds",
			Help:      "Unix time of the last diagnostics run.",
		}),
	}
	e.registry.MustRegister(e.passed, e.failed, e.lastRun)
	return e
}

// Registry returns the underlying Prometheus registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Record replaces the gauges with the outcome of report.
func (e *Exporter) Record(report diagnostics.Report, at time.Time) {
	e.passed.Reset()
	for _, s := range report.Sections {
		for _, res := range s.Results {
			v := 0.0
			if res.Passed {
				v = 1
			}
			e.passed.WithLabelValues(s.Title, res.Name).Set(v)
		}
	}
	e.failed.Set(float64(report.Failed()))
	e.lastRun.Set(float64(at.Unix()))
}

// WriteTextfile atomically writes the registry to path.
func (e *Exporter) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, e.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
