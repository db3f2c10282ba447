package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcieron/clubstakes-social-swing-sub000/internal/matches"
	"github.com/arcieron/clubstakes-social-swing-sub000/internal/scoring"
)

func TestPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordScore()
	m.RecordScore()
	m.RecordConfirmation()
	m.RecordSettlement(scoring.FormatNassau, matches.OutcomeSettled, 20*time.Millisecond)
	m.RecordSettlement(scoring.FormatNassau, matches.OutcomeFailed, time.Millisecond)
	m.RecordSettlementConflict()
	m.RecordCreditsMoved(400)
	m.RecordCreditsMoved(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.scores))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.confirmations))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.settlements.WithLabelValues("nassau", "settled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.settlements.WithLabelValues("nassau", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.settleConflicts))
	assert.Equal(t, 400.0, testutil.ToFloat64(m.creditsPaid))

	err := testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP clubstakes_settlement_conflicts_total Settlement attempts that found the match already settled.
# TYPE clubstakes_settlement_conflicts_total counter
clubstakes_settlement_conflicts_total 1
`), "clubstakes_settlement_conflicts_total")
	require.NoError(t, err)
}

func TestNewPanicsOnDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
