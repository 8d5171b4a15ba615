// Package metrics records verification outcomes as Prometheus metrics and
// writes them to a node_exporter textfile after each run.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rewired-gh/fixtureverify/internal/models"
)

const namespace = "fixtureverify"

// Outcome labels for verifier results.
const (
	OutcomeVerified   = "verified"
	OutcomeUnverified = "unverified"
	OutcomeNoEvidence = "no_evidence"
)

// Recorder collects run metrics in its own registry.
type Recorder struct {
	registry *prometheus.Registry

	verifierResults *prometheus.CounterVec
	events          *prometheus.CounterVec
	corrections     *prometheus.CounterVec
	webSearches     prometheus.Counter
	groupConfidence *prometheus.GaugeVec
	runConfidence   prometheus.Gauge
	runTimestamp    prometheus.Gauge
	runDuration     prometheus.Gauge
	runPartial      prometheus.Gauge
	runs            prometheus.Counter
}

// NewRecorder creates a Recorder with all metrics registered.
func NewRecorder() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.verifierResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verifier_results_total",
		Help:      "Verifier results by source and outcome",
	}, []string{"source", "outcome"})
	r.events = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_total",
		Help:      "Verified events by aggregate status",
	}, []string{"status"})
	r.corrections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "corrections_total",
		Help:      "Time corrections by state (proposed, applied)",
	}, []string{"state"})
	r.webSearches = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "web_searches_total",
		Help:      "Web searches issued against the per-run budget",
	})
	r.groupConfidence = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "group_confidence",
		Help:      "Overall confidence of each event group in the last run",
	}, []string{"file_id"})
	r.runConfidence = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_confidence",
		Help:      "Event-weighted mean confidence of the last run",
	})
	r.runTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix timestamp of the last completed run",
	})
	r.runDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_duration_seconds",
		Help:      "Wall-clock duration of the last run",
	})
	r.runPartial = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_partial",
		Help:      "1 if the last run stopped at its deadline before checking every group",
	})
	r.runs = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Completed verification runs",
	})

	r.registry.MustRegister(
		r.verifierResults, r.events, r.corrections, r.webSearches,
		r.groupConfidence, r.runConfidence, r.runTimestamp, r.runDuration,
		r.runPartial, r.runs,
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveResult counts one verifier result.
func (r *Recorder) ObserveResult(res models.VerifierResult) {
	outcome := OutcomeUnverified
	switch {
	case res.Verified:
		outcome = OutcomeVerified
	case res.Confidence == 0:
		outcome = OutcomeNoEvidence
	}
	r.verifierResults.WithLabelValues(string(res.Source), outcome).Inc()
}

// ObserveVerdict counts one event verdict.
func (r *Recorder) ObserveVerdict(v models.Verdict) {
	r.events.WithLabelValues(string(v.Status)).Inc()
}

// ObserveGroup records the outcome of one group.
func (r *Recorder) ObserveGroup(s models.GroupSummary) {
	r.groupConfidence.WithLabelValues(s.FileID).Set(s.OverallConfidence)
	r.corrections.WithLabelValues("proposed").Add(float64(s.CorrectionsProposed))
	r.corrections.WithLabelValues("applied").Add(float64(s.CorrectionsApplied))
}

// ObserveRun records the run-level gauges.
func (r *Recorder) ObserveRun(run models.VerificationRun, searches int, duration time.Duration) {
	var weighted float64
	for _, s := range run.Results {
		weighted += s.OverallConfidence * float64(s.EventsChecked)
	}
	if run.EventsChecked > 0 {
		r.runConfidence.Set(weighted / float64(run.EventsChecked))
	} else {
		r.runConfidence.Set(0)
	}
	r.runTimestamp.Set(float64(run.Timestamp.Unix()))
	r.runDuration.Set(duration.Seconds())
	if run.Partial {
		r.runPartial.Set(1)
	} else {
		r.runPartial.Set(0)
	}
	r.webSearches.Add(float64(searches))
	r.runs.Inc()
}

// WriteTextfile writes every metric to path in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
