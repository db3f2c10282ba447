// Package metrics exports match activity to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arcieron/clubstakes-social-swing-sub000/internal/matches"
	"github.com/arcieron/clubstakes-social-swing-sub000/internal/scoring"
)

const namespace = "clubstakes"

// Prometheus implements matches.Metrics.
type Prometheus struct {
	scores          prometheus.Counter
	confirmations   prometheus.Counter
	settlements     *prometheus.CounterVec
	settleDuration  *prometheus.HistogramVec
	settleConflicts prometheus.Counter
	creditsPaid     prometheus.Counter
}

var _ matches.Metrics = (*Prometheus)(nil)

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		scores: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hole_scores_recorded_total",
			Help:      "Hole scores written to the score ledger.",
		}),
		confirmations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "confirmations_total",
			Help:      "Scorecard confirmations received.",
		}),
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlements_total",
			Help:      "Settlement attempts by format and outcome.",
		}, []string{"format", "outcome"}),
		settleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "settlement_duration_seconds",
			Help:      "Time spent scoring and settling a match.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"format"}),
		settleConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlement_conflicts_total",
			Help:      "Settlement attempts that found the match already settled.",
		}),
		creditsPaid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credits_paid_out_total",
			Help:      "Credits paid to winners.",
		}),
	}
	reg.MustRegister(
		p.scores,
		p.confirmations,
		p.settlements,
		p.settleDuration,
		p.settleConflicts,
		p.creditsPaid,
	)
	return p
}

func (p *Prometheus) RecordScore()        { p.scores.Inc() }
func (p *Prometheus) RecordConfirmation() { p.confirmations.Inc() }

func (p *Prometheus) RecordSettlement(format scoring.Format, outcome string, elapsed time.Duration) {
	p.settlements.WithLabelValues(string(format), outcome).Inc()
	p.settleDuration.WithLabelValues(string(format)).Observe(elapsed.Seconds())
}

func (p *Prometheus) RecordSettlementConflict() { p.settleConflicts.Inc() }

func (p *Prometheus) RecordCreditsMoved(amount int) {
	if amount > 0 {
		p.creditsPaid.Add(float64(amount))
	}
}
