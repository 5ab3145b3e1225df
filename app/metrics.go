package app

import (
	"github.com/prometheus/client_golang/prometheus"

	domainOSC "gosc/domain/osc"
	"gosc/internal/errors"
)

// Outcome labels for the corrections counter
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder holds the Prometheus metrics of the correction service. Each
// recorder owns a private registry so several services can coexist in
// one process.
type Recorder struct {
	registry *prometheus.Registry

	Corrections *prometheus.CounterVec
	Failures    *prometheus.CounterVec
	Iterations  *prometheus.HistogramVec
	Retained    *prometheus.GaugeVec
	Angle       *prometheus.GaugeVec
}

// NewRecorder creates a recorder with all metrics registered
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),

		Corrections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "osc_corrections_total",
				Help: "Total number of corrections by variant and outcome",
			},
			[]string{"variant", "outcome"},
		),

		Failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "osc_correction_errors_total",
				Help: "Total number of failed corrections by error code",
			},
			[]string{"variant", "code"},
		),

		Iterations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "osc_component_iterations",
				Help:    "Inner-loop iterations spent per extracted component",
				Buckets: []float64{1, 2, 3, 5, 10, 20, 50, 100, 250, 500},
			},
			[]string{"variant", "status"},
		),

		Retained: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "osc_retained_variance_percent",
				Help: "Percentage of the sum of squares of X kept by the last correction",
			},
			[]string{"variant"},
		),

		Angle: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "osc_mean_angle_degrees",
				Help: "Mean angle between removed scores and the response in the last correction",
			},
			[]string{"variant"},
		),
	}

	r.registry.MustRegister(r.Corrections, r.Failures, r.Iterations, r.Retained, r.Angle)
	return r
}

// Registry exposes the private registry for scraping or tests
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveResult records a successful correction
func (r *Recorder) ObserveResult(result *domainOSC.Result) {
	if r == nil || result == nil {
		return
	}
	v := result.Variant.String()
	r.Corrections.WithLabelValues(v, OutcomeSuccess).Inc()
	for _, c := range result.Components {
		r.Iterations.WithLabelValues(v, string(c.Status)).Observe(float64(c.Iterations))
	}
	r.Retained.WithLabelValues(v).Set(result.R2)
	r.Angle.WithLabelValues(v).Set(result.Angle)
}

// ObserveFailure records a failed correction
func (r *Recorder) ObserveFailure(v domainOSC.Variant, err error) {
	if r == nil {
		return
	}
	r.Corrections.WithLabelValues(v.String(), OutcomeFailure).Inc()
	r.Failures.WithLabelValues(v.String(), errors.GetCode(err)).Inc()
}
