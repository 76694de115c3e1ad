// Package metrics is an optional observability surface: counters and a
// histogram for deployment duration, pull failures, and
// concurrency-conflict retries, collected in a dedicated
// prometheus.Registry rather than the package-level default.
//
// No HTTP exposition is wired in here. rsgoctl exposes the same data as
// a one-shot text dump (WriteText) instead of standing up a server.
package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Registry bundles the metrics the orchestrator and engine update during
// deploy/upgrade/remove, in its own prometheus.Registry rather than the
// package-level default so that multiple Registry instances (e.g. in
// tests) never collide.
type Registry struct {
	reg *prometheus.Registry

	DeploymentDuration   *prometheus.HistogramVec
	PullFailures         *prometheus.CounterVec
	ConcurrencyConflicts *prometheus.CounterVec
}

// New constructs a Registry with every metric registered and ready to
// observe.
func New() *Registry {
	reg := prometheus.NewRegistry()

	deploymentDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rsgo_deployment_duration_seconds",
		Help:    "Wall-clock duration of deploy/upgrade/remove operations.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "status"})

	pullFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rsgo_image_pull_failures_total",
		Help: "Total image pull failures, labeled by whether registry credentials were attempted.",
	}, []string{"auth_attempted"})

	concurrencyConflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rsgo_concurrency_conflicts_total",
		Help: "Total optimistic-concurrency conflicts hit while updating deployment or product state.",
	}, []string{"entity"})

	reg.MustRegister(deploymentDuration, pullFailures, concurrencyConflicts)

	return &Registry{
		reg:                  reg,
		DeploymentDuration:   deploymentDuration,
		PullFailures:         pullFailures,
		ConcurrencyConflicts: concurrencyConflicts,
	}
}

// ObserveDeployment records one operation's duration in seconds, labeled
// by operation ("deploy", "upgrade", "remove") and outcome ("success",
// "failure").
func (r *Registry) ObserveDeployment(operation string, success bool, seconds float64) {
	status := "success"
	if !success {
		status = "failure"
	}
	r.DeploymentDuration.WithLabelValues(operation, status).Observe(seconds)
}

// ObservePullFailure increments the pull-failure counter, labeled by
// whether credentials were attempted for the failed pull.
func (r *Registry) ObservePullFailure(authAttempted bool) {
	r.PullFailures.WithLabelValues(boolLabel(authAttempted)).Inc()
}

// ObserveConcurrencyConflict increments the concurrency-conflict counter
// for the named entity kind (e.g. "deployment", "product").
func (r *Registry) ObserveConcurrencyConflict(entity string) {
	r.ConcurrencyConflicts.WithLabelValues(entity).Inc()
}

// WriteText renders every registered metric family in the Prometheus
// text exposition format.
func (r *Registry) WriteText(w io.Writer) error {
	families, err := r.reg.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, f := range families {
		if err := enc.Encode(f); err != nil {
			return err
		}
	}
	return nil
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
