package scoring

import (
	"fmt"

	"github.com/google/uuid"
)

// DeltaKind tells a stake collection apart from a winner's payout.
type DeltaKind string

const (
	DeltaStake  DeltaKind = "stake"
	DeltaPayout DeltaKind = "payout"
)

// CreditDelta is one additive change to a player's credit balance. Key is
// unique per match, player and kind, so applying the same delta twice can be
// detected and skipped.
type CreditDelta struct {
	PlayerID uuid.UUID
	Amount   int
	Kind     DeltaKind
	Key      string
}

// Deltas turns a result into ledger mutations: every participant stakes the
// wager, and every winner is paid their payout.
func Deltas(matchID uuid.UUID, roster []Participant, wager int, res Result) []CreditDelta {
	out := make([]CreditDelta, 0, len(roster)+len(res.Winners))
	for _, p := range sortedRoster(roster) {
		out = append(out, CreditDelta{
			PlayerID: p.PlayerID,
			Amount:   -wager,
			Kind:     DeltaStake,
			Key:      deltaKey(matchID, DeltaStake, p.PlayerID),
		})
	}
	for _, w := range res.Winners {
		if w.Payout == 0 {
			continue
		}
		out = append(out, CreditDelta{
			PlayerID: w.PlayerID,
			Amount:   w.Payout,
			Kind:     DeltaPayout,
			Key:      deltaKey(matchID, DeltaPayout, w.PlayerID),
		})
	}
	return out
}

// NetChanges folds deltas into one net change per player.
func NetChanges(deltas []CreditDelta) map[uuid.UUID]int {
	out := make(map[uuid.UUID]int)
	for _, d := range deltas {
		out[d.PlayerID] += d.Amount
	}
	return out
}

func deltaKey(matchID uuid.UUID, kind DeltaKind, player uuid.UUID) string {
	return fmt.Sprintf("match:%s:%s:%s", matchID, kind, player)
}
