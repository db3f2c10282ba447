package scoring

import (
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Participant is one player on a match roster.
type Participant struct {
	PlayerID uuid.UUID
	Name     string
	Handicap int
	Team     *int // nil in individual matches
}

// TeamNumber returns the assigned team, or 0 when there is none.
func (p Participant) TeamNumber() int {
	if p.Team == nil {
		return 0
	}
	return *p.Team
}

func (p Participant) label() string {
	if p.Name != "" {
		return p.Name
	}
	return p.PlayerID.String()
}

func sortedRoster(roster []Participant) []Participant {
	out := slices.Clone(roster)
	slices.SortFunc(out, func(a, b Participant) int {
		return strings.Compare(a.PlayerID.String(), b.PlayerID.String())
	})
	return out
}

// ValidateHoleNumber rejects hole numbers outside 1–18.
func ValidateHoleNumber(hole int) error {
	if hole < 1 || hole > Holes {
		return validationErrorf("hole number %d outside 1-%d", hole, Holes)
	}
	return nil
}

// ValidateGross rejects negative stroke counts. Zero clears a hole.
func ValidateGross(gross int) error {
	if gross < 0 {
		return validationErrorf("score %d must not be negative", gross)
	}
	return nil
}

// Scorecard is an immutable-by-convention snapshot of every gross score entered
// for a match, keyed by token and hole. Unentered holes read as 0.
type Scorecard struct {
	cards map[Token]*[Holes]int
}

// NewScorecard returns an empty scorecard.
func NewScorecard() *Scorecard {
	return &Scorecard{cards: make(map[Token]*[Holes]int)}
}

// Set records a gross score, replacing any previous value for the same key.
func (c *Scorecard) Set(t Token, hole, gross int) error {
	if t.IsZero() {
		return validationErrorf("missing participant token")
	}
	if err := ValidateHoleNumber(hole); err != nil {
		return err
	}
	if err := ValidateGross(gross); err != nil {
		return err
	}
	card, ok := c.cards[t]
	if !ok {
		card = new([Holes]int)
		c.cards[t] = card
	}
	card[hole-1] = gross
	return nil
}

// Gross returns the score for one hole, 0 when not entered.
func (c *Scorecard) Gross(t Token, hole int) int {
	if c == nil || hole < 1 || hole > Holes {
		return 0
	}
	if card, ok := c.cards[t]; ok {
		return card[hole-1]
	}
	return 0
}

// Card returns a copy of the 18 gross scores for t.
func (c *Scorecard) Card(t Token) [Holes]int {
	if c == nil {
		return [Holes]int{}
	}
	if card, ok := c.cards[t]; ok {
		return *card
	}
	return [Holes]int{}
}

// TotalGross sums all 18 holes for t; unentered holes count 0.
func (c *Scorecard) TotalGross(t Token) int {
	return sumHoles(c.Card(t), 1, Holes)
}

// Tokens lists every token with at least one stored hole, in string order.
func (c *Scorecard) Tokens() []Token {
	if c == nil {
		return nil
	}
	out := make([]Token, 0, len(c.cards))
	for t := range c.cards {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b Token) int {
		return strings.Compare(a.String(), b.String())
	})
	return out
}

func sumHoles(card [Holes]int, from, to int) int {
	total := 0
	for hole := from; hole <= to; hole++ {
		total += card[hole-1]
	}
	return total
}
