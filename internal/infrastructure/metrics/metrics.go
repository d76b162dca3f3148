package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/barkshad/fuliza/internal/domain/model"
)

const namespace = "boost"

// Prometheus implements usecase.Metrics and records external call health.
type Prometheus struct {
	limitProjected      *prometheus.CounterVec
	projectedIncrease   prometheus.Histogram
	assessmentTotal     *prometheus.CounterVec
	assessmentDuration  prometheus.Histogram
	checkoutResolved    *prometheus.CounterVec
	externalCallTotal   *prometheus.CounterVec
	externalCallLatency *prometheus.HistogramVec
	breakerState        *prometheus.GaugeVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Prometheus {
	f := promauto.With(reg)
	return &Prometheus{
		limitProjected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "projection",
			Name:      "total",
			Help:      "Limit projections by whether the ceiling applied",
		}, []string{"capped"}),
		projectedIncrease: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "projection",
			Name:      "increase_percent",
			Help:      "Projected limit increase in percent",
			Buckets:   []float64{0, 10, 20, 25, 30, 35, 45, 55},
		}),
		assessmentTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assessment",
			Name:      "total",
			Help:      "Assessments by result source",
		}, []string{"source"}),
		assessmentDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "assessment",
			Name:      "duration_seconds",
			Help:      "Assessment latency including fallbacks",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 12, 15},
		}),
		checkoutResolved: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "resolved_total",
			Help:      "Checkouts by terminal state",
		}, []string{"state"}),
		externalCallTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "external",
			Name:      "call_total",
			Help:      "Calls to external services",
		}, []string{"service", "method", "status"}),
		externalCallLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "external",
			Name:      "call_duration_seconds",
			Help:      "Latency of calls to external services",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
		}, []string{"service", "method"}),
		breakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "circuit_breaker",
			Name:      "state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		}, []string{"service"}),
	}
}

func (p *Prometheus) LimitProjected(increasePercent int, capped bool) {
	p.limitProjected.WithLabelValues(strconv.FormatBool(capped)).Inc()
	p.projectedIncrease.Observe(float64(increasePercent))
}

func (p *Prometheus) AssessmentScored(source model.ScoreSource, took time.Duration) {
	p.assessmentTotal.WithLabelValues(string(source)).Inc()
	p.assessmentDuration.Observe(took.Seconds())
}

func (p *Prometheus) CheckoutResolved(state string) {
	p.checkoutResolved.WithLabelValues(state).Inc()
}

// ExternalCall records one call to service.
func (p *Prometheus) ExternalCall(service, method string, took time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	p.externalCallTotal.WithLabelValues(service, method, status).Inc()
	p.externalCallLatency.WithLabelValues(service, method).Observe(took.Seconds())
}

// BreakerState records a circuit breaker transition; state follows the
// gobreaker numbering.
func (p *Prometheus) BreakerState(service string, state int) {
	p.breakerState.WithLabelValues(service).Set(float64(state))
}
