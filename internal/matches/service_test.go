package matches

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/arcieron/clubstakes-social-swing-sub000/internal/models"
	"github.com/arcieron/clubstakes-social-swing-sub000/internal/scoring"
)

const startingCredits = 1000

type harness struct {
	svc     *Service
	repo    *memRepo
	events  *recordingNotifier
	metrics *countingMetrics
	club    uuid.UUID
	players []uuid.UUID
}

func newHarness(t *testing.T, players int) *harness {
	t.Helper()
	h := &harness{
		repo:    newMemRepo(),
		events:  &recordingNotifier{},
		metrics: newCountingMetrics(),
		club:    uuid.New(),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h.svc = NewService(h.repo, h.events, h.metrics, logger, noop.NewTracerProvider().Tracer("test"))
	for i := 0; i < players; i++ {
		h.players = append(h.players, h.repo.addMember(h.club, "Player", 0, startingCredits))
	}
	return h
}

// startMatch creates a match for every harness player and has the invitees
// accept, leaving it in progress.
func (h *harness) startMatch(t *testing.T, in CreateMatchInput) *models.Match {
	t.Helper()
	ctx := context.Background()
	in.ClubID = h.club
	in.CreatorID = h.players[0]
	in.Invitees = h.players[1:]
	if in.MaxPlayers == 0 {
		in.MaxPlayers = len(h.players)
	}
	m, err := h.svc.CreateMatch(ctx, in)
	require.NoError(t, err)
	require.Equal(t, models.MatchStatusPending, m.Status)
	for _, id := range h.players[1:] {
		_, err := h.svc.JoinMatch(ctx, m.ID, id, nil)
		require.NoError(t, err)
	}
	started, err := h.svc.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, models.MatchStatusInProgress, started.Status)
	return started
}

// card records the same gross on every hole for each player.
func (h *harness) card(t *testing.T, matchID uuid.UUID, gross ...int) {
	t.Helper()
	for i, g := range gross {
		for hole := 1; hole <= scoring.Holes; hole++ {
			require.NoError(t, h.svc.RecordScore(context.Background(), matchID, h.players[i], h.players[i].String(), hole, g))
		}
	}
}

func (h *harness) totalCredits() int {
	sum := 0
	for _, id := range h.players {
		sum += h.repo.credits(id)
	}
	return sum
}

func TestCreateMatch(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 2)
	stranger := h.repo.addMember(uuid.New(), "Elsewhere", 0, 0)

	tests := []struct {
		name    string
		in      CreateMatchInput
		wantErr error
		status  models.MatchStatus
	}{
		{
			name:   "open match without invitees",
			in:     CreateMatchInput{Format: "stroke_play", WagerAmount: 50, MaxPlayers: 4},
			status: models.MatchStatusOpen,
		},
		{
			name:   "pending match with invitees",
			in:     CreateMatchInput{Format: "nassau", WagerAmount: 100, MaxPlayers: 2, Invitees: []uuid.UUID{h.players[1]}},
			status: models.MatchStatusPending,
		},
		{
			name:    "zero wager",
			in:      CreateMatchInput{Format: "skins", WagerAmount: 0, MaxPlayers: 2},
			wantErr: ErrValidation,
		},
		{
			name:    "unknown format",
			in:      CreateMatchInput{Format: "wolf", WagerAmount: 10, MaxPlayers: 2},
			wantErr: ErrValidation,
		},
		{
			name:    "scramble needs teams",
			in:      CreateMatchInput{Format: "scramble", WagerAmount: 10, MaxPlayers: 4},
			wantErr: ErrValidation,
		},
		{
			name:    "single player",
			in:      CreateMatchInput{Format: "stroke_play", WagerAmount: 10, MaxPlayers: 1},
			wantErr: ErrValidation,
		},
		{
			name:    "invitee from another club",
			in:      CreateMatchInput{Format: "stroke_play", WagerAmount: 10, MaxPlayers: 2, Invitees: []uuid.UUID{stranger}},
			wantErr: ErrValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.ClubID = h.club
			tt.in.CreatorID = h.players[0]
			m, err := h.svc.CreateMatch(ctx, tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.status, m.Status)
			assert.Equal(t, scoring.ModeGross, m.ScoringMode)
			assert.Equal(t, scoring.TeamFormatIndividual, m.TeamFormat)
		})
	}
}

func TestJoinMatch(t *testing.T) {
	ctx := context.Background()

	t.Run("filling an open match starts it", func(t *testing.T) {
		h := newHarness(t, 2)
		m, err := h.svc.CreateMatch(ctx, CreateMatchInput{
			ClubID: h.club, CreatorID: h.players[0], Format: "stroke_play", WagerAmount: 10, MaxPlayers: 2,
		})
		require.NoError(t, err)

		joined, err := h.svc.JoinMatch(ctx, m.ID, h.players[1], nil)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusInProgress, joined.Status)
		assert.Equal(t, 1, h.events.count(EventMatchStarted))

		_, err = h.svc.JoinMatch(ctx, m.ID, h.players[1], nil)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("club members fill the seats not held for invitees", func(t *testing.T) {
		h := newHarness(t, 5)
		m, err := h.svc.CreateMatch(ctx, CreateMatchInput{
			ClubID: h.club, CreatorID: h.players[0], Format: "skins", WagerAmount: 18, MaxPlayers: 4,
			Invitees: []uuid.UUID{h.players[1]},
		})
		require.NoError(t, err)
		require.Equal(t, models.MatchStatusPending, m.Status)

		for _, id := range h.players[2:4] {
			joined, err := h.svc.JoinMatch(ctx, m.ID, id, nil)
			require.NoError(t, err)
			assert.Equal(t, models.MatchStatusPending, joined.Status)
		}
		_, err = h.svc.JoinMatch(ctx, m.ID, h.players[2], nil)
		assert.ErrorIs(t, err, ErrConflict)

		// The last seat belongs to the invitee.
		_, err = h.svc.JoinMatch(ctx, m.ID, h.players[4], nil)
		assert.ErrorIs(t, err, ErrInvalidState)

		joined, err := h.svc.JoinMatch(ctx, m.ID, h.players[1], nil)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusInProgress, joined.Status)
		assert.Equal(t, 1, h.events.count(EventMatchStarted))
	})

	t.Run("a pending match with spare seats can still fill", func(t *testing.T) {
		h := newHarness(t, 3)
		m, err := h.svc.CreateMatch(ctx, CreateMatchInput{
			ClubID: h.club, CreatorID: h.players[0], Format: "stroke_play", WagerAmount: 10, MaxPlayers: 3,
			Invitees: []uuid.UUID{h.players[1]},
		})
		require.NoError(t, err)

		joined, err := h.svc.JoinMatch(ctx, m.ID, h.players[1], nil)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusPending, joined.Status)

		joined, err = h.svc.JoinMatch(ctx, m.ID, h.players[2], nil)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusInProgress, joined.Status)
	})

	t.Run("members of other clubs cannot join", func(t *testing.T) {
		h := newHarness(t, 1)
		outsider := h.repo.addMember(uuid.New(), "Outsider", 0, 0)
		m, err := h.svc.CreateMatch(ctx, CreateMatchInput{
			ClubID: h.club, CreatorID: h.players[0], Format: "stroke_play", WagerAmount: 10, MaxPlayers: 2,
		})
		require.NoError(t, err)
		_, err = h.svc.JoinMatch(ctx, m.ID, outsider, nil)
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestRecordScore(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 2)
	m := h.startMatch(t, CreateMatchInput{Format: "stroke_play", WagerAmount: 100})
	p1 := h.players[0].String()

	require.NoError(t, h.svc.RecordScore(ctx, m.ID, h.players[0], p1, 1, 5))
	require.NoError(t, h.svc.RecordScore(ctx, m.ID, h.players[0], p1, 1, 4))
	require.NoError(t, h.svc.RecordScore(ctx, m.ID, h.players[1], p1, 2, 3))

	scores, err := h.svc.GetScores(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, 4, scores[p1][0])
	assert.Equal(t, 3, scores[p1][1])
	assert.Equal(t, 0, scores[p1][2])

	total, err := h.svc.TotalGross(ctx, m.ID, p1)
	require.NoError(t, err)
	assert.Equal(t, 7, total)

	outsider := h.repo.addMember(h.club, "Gallery", 0, 0)
	assert.ErrorIs(t, h.svc.RecordScore(ctx, m.ID, outsider, p1, 3, 4), ErrForbidden)
	assert.ErrorIs(t, h.svc.RecordScore(ctx, m.ID, h.players[0], p1, 19, 4), ErrValidation)
	assert.ErrorIs(t, h.svc.RecordScore(ctx, m.ID, h.players[0], p1, 0, 4), ErrValidation)
	assert.ErrorIs(t, h.svc.RecordScore(ctx, m.ID, h.players[0], p1, 3, -1), ErrValidation)
	assert.ErrorIs(t, h.svc.RecordScore(ctx, m.ID, h.players[0], "team_1", 3, 4), ErrValidation)
	assert.ErrorIs(t, h.svc.RecordScore(ctx, m.ID, h.players[0], outsider.String(), 3, 4), ErrValidation)
	assert.Equal(t, 3, h.events.count(EventScoreUpdated))
}

func TestRecordScore_TeamTokens(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 4)
	m := h.startMatch(t, CreateMatchInput{Format: "scramble", TeamFormat: "teams", WagerAmount: 100})
	for i, id := range h.players {
		require.NoError(t, h.svc.AssignTeam(ctx, m.ID, h.players[0], id, i/2+1))
	}

	require.NoError(t, h.svc.RecordScore(ctx, m.ID, h.players[0], "team_1", 1, 3))
	assert.ErrorIs(t, h.svc.RecordScore(ctx, m.ID, h.players[0], "team_3", 1, 3), ErrValidation)
}

func TestAssignTeam(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 2)
	m := h.startMatch(t, CreateMatchInput{Format: "better_ball", TeamFormat: "teams", WagerAmount: 10})

	assert.NoError(t, h.svc.AssignTeam(ctx, m.ID, h.players[1], h.players[1], 2))
	assert.ErrorIs(t, h.svc.AssignTeam(ctx, m.ID, h.players[1], h.players[0], 2), ErrForbidden)
	assert.ErrorIs(t, h.svc.AssignTeam(ctx, m.ID, h.players[0], h.players[0], 0), ErrValidation)

	solo := h.startMatch(t, CreateMatchInput{Format: "stroke_play", WagerAmount: 10})
	assert.ErrorIs(t, h.svc.AssignTeam(ctx, solo.ID, h.players[0], h.players[0], 1), ErrValidation)
}

func TestConfirm_LastConfirmationSettles(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 4)
	m := h.startMatch(t, CreateMatchInput{Format: "stroke_play", WagerAmount: 100})
	h.card(t, m.ID, 4, 5, 5, 5)

	for _, id := range h.players[:3] {
		status, err := h.svc.Confirm(ctx, m.ID, id)
		require.NoError(t, err)
		assert.False(t, status.Settled)
	}
	// A repeated confirmation does not count twice.
	status, err := h.svc.Confirm(ctx, m.ID, h.players[0])
	require.NoError(t, err)
	assert.Equal(t, 3, status.Confirmed)
	assert.Equal(t, 4, status.Required)

	status, err = h.svc.Confirm(ctx, m.ID, h.players[3])
	require.NoError(t, err)
	require.True(t, status.Settled)
	require.NotNil(t, status.Result)
	require.NotNil(t, status.Result.PrimaryWinner)
	assert.Equal(t, h.players[0], *status.Result.PrimaryWinner)

	assert.Equal(t, startingCredits+300, h.repo.credits(h.players[0]))
	for _, id := range h.players[1:] {
		assert.Equal(t, startingCredits-100, h.repo.credits(id))
	}
	assert.Equal(t, 4*startingCredits, h.totalCredits())

	settled, err := h.svc.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusCompleted, settled.Status)
	require.NotNil(t, settled.WinnerID)
	assert.Equal(t, h.players[0], *settled.WinnerID)
	assert.NotNil(t, settled.CompletedAt)

	assert.Equal(t, 1, h.events.count(EventMatchSettled))
	assert.Equal(t, 1, h.metrics.outcomes[OutcomeSettled])
	assert.Equal(t, 400, h.metrics.moved)

	// Confirming again after settlement reports the settled state.
	again, err := h.svc.Confirm(ctx, m.ID, h.players[1])
	require.NoError(t, err)
	assert.True(t, again.Settled)
	assert.Equal(t, 4, again.Confirmed)
	assert.Equal(t, status.Result, again.Result)

	late := h.repo.addMember(h.club, "Late", 0, startingCredits)
	_, err = h.svc.Confirm(ctx, m.ID, late)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, 1, h.repo.settles)
	assert.ErrorIs(t, h.svc.RecordScore(ctx, m.ID, h.players[0], h.players[0].String(), 1, 3), ErrInvalidState)

	txs, err := h.svc.CreditHistory(ctx, m.ID)
	require.NoError(t, err)
	assert.Len(t, txs, 5)
}

func TestConfirm_TiedResultLeavesNoWinner(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 2)
	m := h.startMatch(t, CreateMatchInput{Format: "stroke_play", WagerAmount: 100})
	h.card(t, m.ID, 4, 4)

	for _, id := range h.players {
		_, err := h.svc.Confirm(ctx, m.ID, id)
		require.NoError(t, err)
	}
	settled, err := h.svc.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusCompleted, settled.Status)
	assert.Nil(t, settled.WinnerID)
	assert.Equal(t, startingCredits, h.repo.credits(h.players[0]))
	assert.Equal(t, startingCredits, h.repo.credits(h.players[1]))
}

func TestSettle_ConcurrentCallsSettleOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 3)
	m := h.startMatch(t, CreateMatchInput{Format: "skins", WagerAmount: 180})
	h.card(t, m.ID, 3, 4, 4)
	for _, id := range h.players {
		require.NoError(t, h.repo.AddConfirmation(ctx, m.ID, id))
	}

	const callers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
		start     = make(chan struct{})
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := h.svc.Settle(ctx, m.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, callers-1, conflicts)
	assert.Equal(t, 1, h.repo.settles)
	// p1 takes all 18 skins at 10 credits, which repays exactly its 180 stake.
	assert.Equal(t, startingCredits, h.repo.credits(h.players[0]))
	assert.Equal(t, startingCredits-180, h.repo.credits(h.players[1]))
	assert.Equal(t, 3*startingCredits-360, h.totalCredits())
}

func TestConfirm_SimultaneousFinalConfirmations(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 2)
	m := h.startMatch(t, CreateMatchInput{Format: "match_play", WagerAmount: 50})
	h.card(t, m.ID, 4, 5)

	// Both confirmations land before either settles.
	for _, id := range h.players {
		require.NoError(t, h.repo.AddConfirmation(ctx, m.ID, id))
	}
	var wg sync.WaitGroup
	errs := make([]error, len(h.players))
	for i, id := range h.players {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			_, errs[i] = h.svc.Confirm(ctx, m.ID, id)
		}(i, id)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, h.repo.settles)
	assert.Equal(t, 1, h.events.count(EventMatchSettled))
	assert.Equal(t, startingCredits+50, h.repo.credits(h.players[0]))
	assert.Equal(t, startingCredits-50, h.repo.credits(h.players[1]))
}

func TestSettle_FailureLeavesMatchInProgress(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 2)
	m := h.startMatch(t, CreateMatchInput{Format: "stroke_play", WagerAmount: 100})
	h.card(t, m.ID, 4, 5)

	h.repo.settleErr = errors.New("connection reset")
	_, err := h.svc.Confirm(ctx, m.ID, h.players[0])
	require.NoError(t, err)
	_, err = h.svc.Confirm(ctx, m.ID, h.players[1])
	require.ErrorIs(t, err, ErrDependency)

	stuck, err := h.svc.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusInProgress, stuck.Status)
	assert.Equal(t, 2*startingCredits, h.totalCredits())
	assert.Equal(t, startingCredits, h.repo.credits(h.players[0]))
	assert.Equal(t, 1, h.metrics.outcomes[OutcomeFailed])

	h.repo.settleErr = nil
	n, err := h.svc.SettlePending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, startingCredits+100, h.repo.credits(h.players[0]))

	n, err = h.svc.SettlePending(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSettle_RequiresFullConfirmation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 2)
	m := h.startMatch(t, CreateMatchInput{Format: "stroke_play", WagerAmount: 100})
	h.card(t, m.ID, 4, 5)
	_, err := h.svc.Confirm(ctx, m.ID, h.players[0])
	require.NoError(t, err)

	_, err = h.svc.Settle(ctx, m.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	full, err := h.svc.IsFullyConfirmed(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, full)
}

func TestSettle_InvalidTeamsDoNotComplete(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 2)
	m := h.startMatch(t, CreateMatchInput{Format: "better_ball", TeamFormat: "teams", WagerAmount: 100})
	h.card(t, m.ID, 4, 5)

	// Nobody was placed on a team, so the card cannot be signed or settled.
	_, err := h.svc.Confirm(ctx, m.ID, h.players[0])
	require.ErrorIs(t, err, ErrValidation)
	for _, id := range h.players {
		require.NoError(t, h.repo.AddConfirmation(ctx, m.ID, id))
	}
	_, err = h.svc.Settle(ctx, m.ID)
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 1, h.metrics.outcomes[OutcomeFailed])

	stuck, err := h.svc.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusInProgress, stuck.Status)
	assert.Equal(t, 2*startingCredits, h.totalCredits())
}

func TestConfirm_IncompleteCard(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 2)
	m := h.startMatch(t, CreateMatchInput{Format: "stroke_play", WagerAmount: 100})
	h.card(t, m.ID, 4)
	for hole := 1; hole < scoring.Holes; hole++ {
		require.NoError(t, h.svc.RecordScore(ctx, m.ID, h.players[1], h.players[1].String(), hole, 5))
	}

	// p2 has no 18th hole, which would otherwise count as 0 and win.
	_, err := h.svc.Confirm(ctx, m.ID, h.players[0])
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "hole 18")

	for _, id := range h.players {
		require.NoError(t, h.repo.AddConfirmation(ctx, m.ID, id))
	}
	_, err = h.svc.Settle(ctx, m.ID)
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 2*startingCredits, h.totalCredits())

	require.NoError(t, h.svc.RecordScore(ctx, m.ID, h.players[1], h.players[1].String(), scoring.Holes, 5))
	res, err := h.svc.Settle(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, res.PrimaryWinner)
	assert.Equal(t, h.players[0], *res.PrimaryWinner)
}

func TestConfirm_SkinsNeedsNoFullCard(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 2)
	m := h.startMatch(t, CreateMatchInput{Format: "skins", WagerAmount: 180})
	require.NoError(t, h.svc.RecordScore(ctx, m.ID, h.players[0], h.players[0].String(), 1, 3))
	require.NoError(t, h.svc.RecordScore(ctx, m.ID, h.players[0], h.players[1].String(), 1, 4))

	_, err := h.svc.Confirm(ctx, m.ID, h.players[0])
	require.NoError(t, err)
	status, err := h.svc.Confirm(ctx, m.ID, h.players[1])
	require.NoError(t, err)
	assert.True(t, status.Settled)
}

func TestSettle_UsesHandicapsFromMatchStart(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 2)
	h.repo.setHandicap(h.players[1], 18)
	m := h.startMatch(t, CreateMatchInput{Format: "stroke_play", ScoringMode: "net", WagerAmount: 100})
	// Both shoot 90; p2's 18 strokes make it 72 net.
	h.card(t, m.ID, 5, 5)
	for _, p := range m.Participants {
		require.NotNil(t, p.PlayingHandicap)
	}

	// A handicap revision mid-round does not reach this match.
	h.repo.setHandicap(h.players[1], 0)
	for _, id := range h.players {
		_, err := h.svc.Confirm(ctx, m.ID, id)
		require.NoError(t, err)
	}
	settled, err := h.svc.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, models.MatchStatusCompleted, settled.Status)
	require.NotNil(t, settled.WinnerID)
	assert.Equal(t, h.players[1], *settled.WinnerID)
	assert.Equal(t, startingCredits+100, h.repo.credits(h.players[1]))
}

func TestPreviewResult_CompletedMatchReturnsSettledResult(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 2)
	h.repo.setHandicap(h.players[1], 18)
	m := h.startMatch(t, CreateMatchInput{Format: "stroke_play", ScoringMode: "net", WagerAmount: 100})
	h.card(t, m.ID, 5, 5)

	var settled ConfirmationStatus
	for _, id := range h.players {
		var err error
		settled, err = h.svc.Confirm(ctx, m.ID, id)
		require.NoError(t, err)
	}
	require.True(t, settled.Settled)
	require.NotNil(t, settled.Result)

	stored, err := h.svc.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.Result)

	// Rescoring now would use live handicaps and call it a tie.
	h.repo.setHandicap(h.players[1], 0)
	h.repo.mu.Lock()
	for i := range h.repo.participants[m.ID] {
		h.repo.participants[m.ID][i].PlayingHandicap = nil
	}
	h.repo.mu.Unlock()

	res, err := h.svc.PreviewResult(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, settled.Result, res)
	require.NotNil(t, res.PrimaryWinner)
	assert.Equal(t, h.players[1], *res.PrimaryWinner)
}

func TestCancelMatch(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 2)
	m := h.startMatch(t, CreateMatchInput{Format: "stroke_play", WagerAmount: 100})

	err := h.svc.CancelMatch(ctx, m.ID, h.players[1], models.MemberRoleMember)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, h.svc.CancelMatch(ctx, m.ID, h.players[1], models.MemberRoleAdmin))
	assert.Equal(t, 1, h.events.count(EventMatchCancelled))

	err = h.svc.CancelMatch(ctx, m.ID, h.players[0], models.MemberRoleMember)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = h.svc.Confirm(ctx, m.ID, h.players[0])
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestScorecard_MatchPlayHoleResults(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 2)
	m := h.startMatch(t, CreateMatchInput{Format: "match_play", WagerAmount: 20})
	p1, p2 := h.players[0].String(), h.players[1].String()
	require.NoError(t, h.svc.RecordScore(ctx, m.ID, h.players[0], p1, 1, 4))
	require.NoError(t, h.svc.RecordScore(ctx, m.ID, h.players[0], p2, 1, 5))
	require.NoError(t, h.svc.RecordScore(ctx, m.ID, h.players[0], p1, 2, 4))
	require.NoError(t, h.svc.RecordScore(ctx, m.ID, h.players[0], p2, 2, 4))

	view, err := h.svc.Scorecard(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, view.Pars[0])
	assert.Equal(t, 3, view.Pars[2])
	require.Len(t, view.Rows, 2)
	for _, row := range view.Rows {
		assert.Equal(t, row.Out, row.Total)
	}
	require.NotNil(t, view.HoleResults)

	side := 1
	if h.players[1].String() < h.players[0].String() {
		side = 2
	}
	assert.Equal(t, side, view.HoleResults[0])
	assert.Equal(t, 0, view.HoleResults[1])
	assert.Equal(t, -1, view.HoleResults[2])
}

func TestScorecard_NetTotalsAndProgress(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 2)
	h.repo.members[h.players[1]].Handicap = 18
	m := h.startMatch(t, CreateMatchInput{Format: "stroke_play", ScoringMode: "net", WagerAmount: 50})
	h.card(t, m.ID, 4, 4)
	_, err := h.svc.Confirm(ctx, m.ID, h.players[0])
	require.NoError(t, err)

	view, err := h.svc.Scorecard(ctx, m.ID)
	require.NoError(t, err)

	net := make(map[string]int)
	for _, row := range view.Rows {
		assert.Equal(t, 72, row.Total)
		require.NotNil(t, row.NetTotal)
		net[row.Token] = *row.NetTotal
	}
	assert.Equal(t, 72, net[h.players[0].String()])
	assert.Equal(t, 54, net[h.players[1].String()], "one stroke a hole off 18")
	assert.Equal(t, 1, view.Confirmations.Confirmed)
	assert.Equal(t, 2, view.Confirmations.Required)
	assert.False(t, view.Confirmations.Settled)
}

func TestPreviewResult_DoesNotSettle(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 2)
	m := h.startMatch(t, CreateMatchInput{Format: "nassau", WagerAmount: 100})
	h.card(t, m.ID, 4, 5)

	res, err := h.svc.PreviewResult(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, res.PrimaryWinner)
	assert.Equal(t, h.players[0], *res.PrimaryWinner)

	still, err := h.svc.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusInProgress, still.Status)
	assert.Equal(t, 2*startingCredits, h.totalCredits())
}

func TestCreateMatch_ValidatesCourse(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 2)
	course := uuid.New()
	holes := make([]models.Hole, 0, scoring.Holes)
	for i := 1; i <= scoring.Holes; i++ {
		holes = append(holes, models.Hole{CourseID: course, HoleNumber: i, Par: 4, HandicapRating: 1})
	}
	h.repo.holes[course] = holes

	_, err := h.svc.CreateMatch(ctx, CreateMatchInput{
		ClubID: h.club, CreatorID: h.players[0], CourseID: &course,
		Format: "stroke_play", WagerAmount: 10, MaxPlayers: 2,
	})
	assert.ErrorIs(t, err, ErrValidation)
}
