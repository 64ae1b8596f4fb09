// Package metrics instruments the protocol driver with Prometheus
// counters and histograms: bytes transferred, retries per stage, stage
// duration, and CRC reconciliation outcomes. filewire is a one-shot CLI,
// not a long-running service, so there is no HTTP endpoint; Dump writes
// the accumulated registry in Prometheus text exposition format at
// process exit.
package metrics

import (
	"fmt"
	"io"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Recorder wraps the metric instances for one client run. Every method
// tolerates a nil receiver so callers can pass a nil *Recorder when
// metrics are disabled, at zero overhead.
type Recorder struct {
	registry        *prometheus.Registry
	bytesSent       prometheus.Counter
	retries         *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	crcMismatches   prometheus.Counter
}

// New creates a Recorder backed by its own registry (this is a one-shot
// CLI process, so there is no shared application-wide registry to join).
func New() *Recorder {
	reg := prometheus.NewRegistry()

	r := &Recorder{
		registry: reg,
		bytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "filewire_bytes_sent_total",
			Help: "Total ciphertext bytes written to the wire during upload.",
		}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "filewire_stage_retries_total",
			Help: "Retry attempts issued per protocol stage.",
		}, []string{"stage"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "filewire_stage_duration_seconds",
			Help:    "Wall-clock duration of each protocol stage.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		crcMismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "filewire_crc_mismatches_total",
			Help: "Number of FILE_OK responses whose CRC did not match the local computation.",
		}),
	}

	reg.MustRegister(r.bytesSent, r.retries, r.stageDuration, r.crcMismatches)
	return r
}

// AddBytesSent records n additional ciphertext bytes written.
func (r *Recorder) AddBytesSent(n int) {
	if r == nil {
		return
	}
	r.bytesSent.Add(float64(n))
}

// ObserveRetry records one retry attempt for the named stage.
func (r *Recorder) ObserveRetry(stage string) {
	if r == nil {
		return
	}
	r.retries.WithLabelValues(stage).Inc()
}

// ObserveStageDuration records how long the named stage took, in
// seconds.
func (r *Recorder) ObserveStageDuration(stage string, seconds float64) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Observe(seconds)
}

// ObserveCRCMismatch records a FILE_OK whose CRC did not match.
func (r *Recorder) ObserveCRCMismatch() {
	if r == nil {
		return
	}
	r.crcMismatches.Inc()
}

// Dump writes every registered metric family to w in Prometheus text
// exposition format. No corpus dependency exposes a text encoder
// independent of net/http's promhttp.Handler, so this walks
// Gatherer.Gather() and formats each family directly (see DESIGN.md).
func (r *Recorder) Dump(w io.Writer) error {
	if r == nil {
		return nil
	}
	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("metrics: gather: %w", err)
	}
	sort.Slice(families, func(i, j int) bool {
		return families[i].GetName() < families[j].GetName()
	})
	for _, mf := range families {
		if mf.Help != nil {
			fmt.Fprintf(w, "# HELP %s %s\n", mf.GetName(), mf.GetHelp())
		}
		fmt.Fprintf(w, "# TYPE %s %s\n", mf.GetName(), typeString(mf.GetType()))
		for _, m := range mf.GetMetric() {
			writeMetric(w, mf.GetName(), m)
		}
	}
	return nil
}

func typeString(t dto.MetricType) string {
	switch t {
	case dto.MetricType_COUNTER:
		return "counter"
	case dto.MetricType_GAUGE:
		return "gauge"
	case dto.MetricType_HISTOGRAM:
		return "histogram"
	default:
		return "untyped"
	}
}

func writeMetric(w io.Writer, name string, m *dto.Metric) {
	labels := labelString(m.GetLabel())
	switch {
	case m.Counter != nil:
		fmt.Fprintf(w, "%s%s %g\n", name, labels, m.GetCounter().GetValue())
	case m.Gauge != nil:
		fmt.Fprintf(w, "%s%s %g\n", name, labels, m.GetGauge().GetValue())
	case m.Histogram != nil:
		h := m.GetHistogram()
		for _, b := range h.GetBucket() {
			fmt.Fprintf(w, "%s_bucket%s %g\n", name, labelStringWithLE(m.GetLabel(), b.GetUpperBound()), float64(b.GetCumulativeCount()))
		}
		fmt.Fprintf(w, "%s_sum%s %g\n", name, labels, h.GetSampleSum())
		fmt.Fprintf(w, "%s_count%s %d\n", name, labels, h.GetSampleCount())
	}
}

func labelString(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	out := "{"
	for i, l := range labels {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf("%s=%q", l.GetName(), l.GetValue())
	}
	return out + "}"
}

func labelStringWithLE(labels []*dto.LabelPair, le float64) string {
	out := "{"
	for _, l := range labels {
		out += fmt.Sprintf("%s=%q,", l.GetName(), l.GetValue())
	}
	return out + fmt.Sprintf("le=%q}", fmt.Sprintf("%g", le))
}
