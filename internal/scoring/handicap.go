package scoring

import "github.com/google/uuid"

const (
	// Holes is the number of holes in every scored round.
	Holes = 18

	// MaxHandicap is the highest handicap the allocator accepts.
	MaxHandicap = 54
)

// StrokesReceived returns how many strokes a player with the given handicap
// gets on a hole with the given difficulty rating (1 = hardest, 18 = easiest).
//
// Every hole gets handicap/18 strokes, and the (handicap mod 18) hardest holes
// get one more. A 22 handicap therefore receives 2 strokes on holes rated 1–4
// and 1 stroke everywhere else.
func StrokesReceived(handicap, rating int) (int, error) {
	if handicap < 0 || handicap > MaxHandicap {
		return 0, validationErrorf("handicap %d outside 0-%d", handicap, MaxHandicap)
	}
	if rating < 1 || rating > Holes {
		return 0, validationErrorf("hole rating %d outside 1-%d", rating, Holes)
	}
	return strokesFor(handicap, rating), nil
}

func strokesFor(handicap, rating int) int {
	strokes := handicap / Holes
	if handicap%Holes >= rating {
		strokes++
	}
	return strokes
}

// NetScore subtracts received strokes from a gross score, never going below 1.
// A gross of 0 means the hole has not been entered and stays 0.
func NetScore(gross, strokes int) int {
	if gross <= 0 {
		return 0
	}
	net := gross - strokes
	if net < 1 {
		return 1
	}
	return net
}

// RelativeHandicaps maps each participant to their handicap minus the lowest
// handicap in the roster, so the best player always plays off scratch.
func RelativeHandicaps(roster []Participant) map[uuid.UUID]int {
	out := make(map[uuid.UUID]int, len(roster))
	if len(roster) == 0 {
		return out
	}
	low := roster[0].Handicap
	for _, p := range roster[1:] {
		low = min(low, p.Handicap)
	}
	for _, p := range roster {
		out[p.PlayerID] = max(0, p.Handicap-low)
	}
	return out
}

// NetCard applies a handicap to a whole gross card using the holes' ratings.
// Unentered holes stay 0.
func NetCard(gross [Holes]int, handicap int, holes []Hole) [Holes]int {
	var out [Holes]int
	for _, h := range holes {
		if h.Number < 1 || h.Number > Holes {
			continue
		}
		i := h.Number - 1
		out[i] = NetScore(gross[i], strokesFor(handicap, h.Rating))
	}
	return out
}
