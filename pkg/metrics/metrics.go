// Package metrics collects copy run statistics. A CLI run is short lived, so
// the registry is written out in the node_exporter textfile format instead of
// being served.
package metrics

import (
	"log/slog"

	"github.com/eoscam/eoscam/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "eoscam"

// Collector holds the copy metrics. A nil *Collector records nothing.
type Collector struct {
	registry *prometheus.Registry

	files    *prometheus.CounterVec
	bytes    prometheus.Counter
	duration prometheus.Histogram
	lastRun  prometheus.Gauge
}

// Result labels for the files counter
const (
	ResultCopied  = "copied"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"
)

// New creates a collector with its own registry
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Camera files processed, by result.",
		}, []string{"result"}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "copied_bytes_total",
			Help:      "Bytes copied off cameras.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "download_duration_seconds",
			Help:      "Time spent downloading one file.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last copy run finished.",
		}),
	}
	c.registry.MustRegister(c.files, c.bytes, c.duration, c.lastRun)
	return c
}

// Copied records a downloaded file
func (c *Collector) Copied(size int64, seconds float64) {
	if c == nil {
		return
	}
	c.files.WithLabelValues(ResultCopied).Inc()
	c.bytes.Add(float64(size))
	c.duration.Observe(seconds)
}

// Skipped records a file already in the ledger
func (c *Collector) Skipped() {
	if c == nil {
		return
	}
	c.files.WithLabelValues(ResultSkipped).Inc()
}

// Failed records a file that could not be copied
func (c *Collector) Failed() {
	if c == nil {
		return
	}
	c.files.WithLabelValues(ResultFailed).Inc()
}

// WriteTextfile stamps the run end time and writes the registry to path.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil || path == "" {
		return nil
	}
	c.lastRun.SetToCurrentTime()
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		slog.Error("metrics_write_failed", "path", path, "error", err)
		return errors.Wrap(err, "failed to write metrics")
	}
	slog.Info("metrics_written", "path", path)
	return nil
}
