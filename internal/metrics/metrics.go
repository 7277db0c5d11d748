// Package metrics exposes Prometheus metrics for build runs. The preview
// server serves them on /metrics; one-shot builds record them too, which
// keeps instrumentation identical across modes.
package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the docforge metric instruments, registered on a caller-
// supplied registry so tests stay isolated from the default registry.
type Recorder struct {
	registry *prom.Registry

	buildDuration prom.Histogram
	stageDuration *prom.HistogramVec
	buildOutcome  *prom.CounterVec
	findings      *prom.CounterVec
}

// NewRecorder constructs and registers the instruments. A nil registry gets
// a private one.
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	r := &Recorder{
		registry: reg,
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "docforge",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "docforge",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docforge",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		findings: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docforge",
			Name:      "build_findings_total",
			Help:      "Recoverable findings collected per build, by kind",
		}, []string{"kind"}),
	}
	reg.MustRegister(r.buildDuration, r.stageDuration, r.buildOutcome, r.findings)
	return r
}

// Registry returns the backing registry, for the /metrics handler.
func (r *Recorder) Registry() *prom.Registry { return r.registry }

// ObserveBuild records the overall duration and outcome of a build.
func (r *Recorder) ObserveBuild(d time.Duration, succeeded bool) {
	r.buildDuration.Observe(d.Seconds())
	outcome := "success"
	if !succeeded {
		outcome = "failure"
	}
	r.buildOutcome.WithLabelValues(outcome).Inc()
}

// ObserveStage records one stage's duration.
func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// CountFinding increments the finding counter for an error kind.
func (r *Recorder) CountFinding(kind string) {
	r.findings.WithLabelValues(kind).Inc()
}
