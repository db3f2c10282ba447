package scoring

import (
	"fmt"
	"strings"
)

type skins struct{}

func (skins) Format() Format { return FormatSkins }

// CreditsPerSkin is the value of one hole: the wager spread over 18 holes.
func CreditsPerSkin(wager int) int {
	return wager / Holes
}

// Compute awards a skin on every hole where one side alone has the lowest
// score. A hole is only contested once every side has a score on it. Tied
// holes are not carried over. Teams play their best member score per hole.
func (s skins) Compute(in Input) (Result, error) {
	f, err := newField(in)
	if err != nil {
		return Result{}, err
	}
	score := f.memberSum
	if in.TeamFormat == TeamFormatTeams {
		score = f.bestBall
	}
	cards := f.cards(score)

	won := make([]int, len(f.units))
	unawarded := 0
	for hole := 0; hole < Holes; hole++ {
		holeScores := make([]int, len(cards))
		complete := true
		for i, c := range cards {
			if c[hole] == 0 {
				complete = false
				break
			}
			holeScores[i] = c[hole]
		}
		if !complete {
			unawarded++
			continue
		}
		idx := lowest(holeScores)
		if len(idx) != 1 {
			unawarded++
			continue
		}
		won[idx[0]]++
	}

	perSkin := CreditsPerSkin(in.Wager)
	book := newPayoutBook(f)
	var parts []string
	most, leaders := 0, []int(nil)
	for i, n := range won {
		if n == 0 {
			continue
		}
		members := f.units[i].members
		shares := splitEven(n*perSkin, len(members))
		for j, p := range members {
			book.add(p, shares[j], pluralSkins(n))
		}
		parts = append(parts, fmt.Sprintf("%s %s", f.units[i].label, pluralSkins(n)))
		switch {
		case n > most:
			most, leaders = n, []int{i}
		case n == most:
			leaders = append(leaders, i)
		}
	}

	res := Result{Format: s.Format(), Winners: book.winners()}
	if len(leaders) > 0 {
		res.PrimaryWinner = f.primaryOf(leaders)
	}
	if len(parts) == 0 {
		res.Summary = "no skins won"
	} else {
		res.Summary = strings.Join(parts, ", ")
	}
	if unawarded > 0 {
		res.Summary += fmt.Sprintf("; %d holes unawarded", unawarded)
	}
	return res, nil
}

func pluralSkins(n int) string {
	if n == 1 {
		return "1 skin"
	}
	return fmt.Sprintf("%d skins", n)
}
