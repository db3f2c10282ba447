package matches

import (
	"time"

	"github.com/arcieron/clubstakes-social-swing-sub000/internal/scoring"
)

// Metrics records what the match service does. internal/metrics provides the
// Prometheus implementation.
type Metrics interface {
	RecordScore()
	RecordConfirmation()
	RecordSettlement(format scoring.Format, outcome string, elapsed time.Duration)
	RecordSettlementConflict()
	RecordCreditsMoved(amount int)
}

// Settlement outcomes reported to Metrics.
const (
	OutcomeSettled = "settled"
	OutcomeFailed  = "failed"
)

// NoOpMetrics discards everything.
type NoOpMetrics struct{}

func (NoOpMetrics) RecordScore()                                           {}
func (NoOpMetrics) RecordConfirmation()                                    {}
func (NoOpMetrics) RecordSettlement(scoring.Format, string, time.Duration) {}
func (NoOpMetrics) RecordSettlementConflict()                              {}
func (NoOpMetrics) RecordCreditsMoved(int)                                 {}
