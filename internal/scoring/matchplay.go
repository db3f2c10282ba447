package scoring

import "fmt"

type matchPlay struct{}

func (matchPlay) Format() Format { return FormatMatchPlay }

// Compute plays two sides hole by hole; the side with more holes won takes the
// pot and a level match is halved. Teams use their best member score per hole.
// Anything other than two sides is settled as stroke play.
func (m matchPlay) Compute(in Input) (Result, error) {
	f, err := newField(in)
	if err != nil {
		return Result{}, err
	}
	if len(f.units) != 2 {
		return f.lowestTotalResult(m.Format(), f.cards(f.memberSum), "match play (stroke play)"), nil
	}

	score := f.memberSum
	if in.TeamFormat == TeamFormatTeams {
		score = f.bestBall
	}
	a, b := score(f.units[0]), score(f.units[1])

	var wonA, wonB, halved int
	for i := range a {
		if a[i] == 0 || b[i] == 0 {
			continue
		}
		switch {
		case a[i] < b[i]:
			wonA++
		case b[i] < a[i]:
			wonB++
		default:
			halved++
		}
	}

	res := Result{Format: m.Format()}
	switch {
	case wonA > wonB:
		res.Winners = f.potWinners([]int{0}, fmt.Sprintf("won %d holes to %d", wonA, wonB))
		res.PrimaryWinner = f.primaryOf([]int{0})
		res.Summary = fmt.Sprintf("%s wins %d up (%d halved)", f.units[0].label, wonA-wonB, halved)
	case wonB > wonA:
		res.Winners = f.potWinners([]int{1}, fmt.Sprintf("won %d holes to %d", wonB, wonA))
		res.PrimaryWinner = f.primaryOf([]int{1})
		res.Summary = fmt.Sprintf("%s wins %d up (%d halved)", f.units[1].label, wonB-wonA, halved)
	default:
		res.Winners = f.potWinners([]int{0, 1}, fmt.Sprintf("all square at %d holes each", wonA))
		res.Summary = fmt.Sprintf("%s and %s all square (%d halved)", f.units[0].label, f.units[1].label, halved)
	}
	return res, nil
}

// HoleResults returns, for a two-sided match, which side won each hole:
// 1 or 2 for the winner, 0 for halved, -1 where either side has no score.
func HoleResults(in Input) ([Holes]int, error) {
	var out [Holes]int
	f, err := newField(in)
	if err != nil {
		return out, err
	}
	if len(f.units) != 2 {
		return out, validationErrorf("hole results need exactly 2 sides, got %d", len(f.units))
	}
	score := f.memberSum
	if in.TeamFormat == TeamFormatTeams {
		score = f.bestBall
	}
	a, b := score(f.units[0]), score(f.units[1])
	for i := range out {
		switch {
		case a[i] == 0 || b[i] == 0:
			out[i] = -1
		case a[i] < b[i]:
			out[i] = 1
		case b[i] < a[i]:
			out[i] = 2
		}
	}
	return out, nil
}
