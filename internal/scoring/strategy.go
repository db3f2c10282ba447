package scoring

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Input is everything a format strategy needs to decide a match.
type Input struct {
	Roster     []Participant
	Card       *Scorecard
	Holes      []Hole
	Mode       Mode
	TeamFormat TeamFormat
	Wager      int // credits staked by each participant
}

// Winner is one participant's share of a settled match.
type Winner struct {
	PlayerID uuid.UUID
	Team     *int

	// CreditsWon is what the participant won on top of their stake.
	CreditsWon int

	// Payout is what gets credited back to the participant. Pot formats return
	// the stake as well (Payout = CreditsWon + wager); Nassau and skins pay
	// CreditsWon alone while every stake is still collected.
	Payout int

	Detail string
}

// Result is the outcome of running a format strategy over a scorecard.
type Result struct {
	Format  Format
	Winners []Winner

	// PrimaryWinner is the single player recorded on the match for display.
	// It is nil when the top result is shared between separate players or teams.
	PrimaryWinner *uuid.UUID

	Summary string
}

// Strategy decides winners for one format.
type Strategy interface {
	Format() Format
	Compute(in Input) (Result, error)
}

var strategies = map[Format]Strategy{
	FormatStrokePlay: strokePlay{},
	FormatMatchPlay:  matchPlay{},
	FormatNassau:     nassau{},
	FormatSkins:      skins{},
	FormatScramble:   scramble{},
	FormatBetterBall: betterBall{},
}

// StrategyFor returns the strategy registered for f.
func StrategyFor(f Format) (Strategy, error) {
	s, ok := strategies[f]
	if !ok {
		return nil, fmt.Errorf("%w: no scoring strategy for format %q", ErrConfiguration, f)
	}
	return s, nil
}

// Compute dispatches to the strategy for f.
func Compute(f Format, in Input) (Result, error) {
	s, err := StrategyFor(f)
	if err != nil {
		return Result{}, err
	}
	return s.Compute(in)
}

func (in Input) validate() error {
	if len(in.Roster) < 2 {
		return validationErrorf("a match needs at least 2 participants, got %d", len(in.Roster))
	}
	if in.Wager <= 0 {
		return validationErrorf("wager must be positive, got %d", in.Wager)
	}
	if in.Mode != ModeGross && in.Mode != ModeNet {
		return validationErrorf("unknown scoring mode %q", in.Mode)
	}
	if in.TeamFormat != TeamFormatIndividual && in.TeamFormat != TeamFormatTeams {
		return validationErrorf("unknown team format %q", in.TeamFormat)
	}
	if err := ValidateHoles(in.Holes); err != nil {
		return err
	}

	seen := make(map[uuid.UUID]bool, len(in.Roster))
	teams := make(map[int]bool)
	for _, p := range in.Roster {
		if seen[p.PlayerID] {
			return validationErrorf("player %s appears twice", p.PlayerID)
		}
		seen[p.PlayerID] = true
		if p.Handicap < 0 || p.Handicap > MaxHandicap {
			return validationErrorf("player %s handicap %d outside 0-%d", p.PlayerID, p.Handicap, MaxHandicap)
		}
		if in.TeamFormat == TeamFormatTeams {
			if p.TeamNumber() < 1 {
				return validationErrorf("player %s has no team", p.PlayerID)
			}
			teams[p.TeamNumber()] = true
		}
	}
	if in.TeamFormat == TeamFormatTeams && len(teams) < 2 {
		return validationErrorf("a team match needs at least 2 teams, got %d", len(teams))
	}
	return nil
}

// unit is one competing side: a single player, or a team.
type unit struct {
	token   Token
	label   string
	members []Participant // ordered by player id
}

// field holds a validated input with per-player hole scores already adjusted
// for the scoring mode. Strategies read from it and never from Input directly.
type field struct {
	in      Input
	units   []unit
	ratings [Holes]int
	scores  map[uuid.UUID][Holes]int
}

func newField(in Input) (*field, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	f := &field{
		in:     in,
		units:  buildUnits(in),
		scores: make(map[uuid.UUID][Holes]int, len(in.Roster)),
	}
	for _, h := range in.Holes {
		f.ratings[h.Number-1] = h.Rating
	}
	relative := RelativeHandicaps(in.Roster)
	for _, p := range in.Roster {
		f.scores[p.PlayerID] = f.adjust(in.Card.Card(PlayerToken(p.PlayerID)), relative[p.PlayerID])
	}
	return f, nil
}

func buildUnits(in Input) []unit {
	roster := sortedRoster(in.Roster)
	if in.TeamFormat != TeamFormatTeams {
		units := make([]unit, 0, len(roster))
		for _, p := range roster {
			units = append(units, unit{token: PlayerToken(p.PlayerID), label: p.label(), members: []Participant{p}})
		}
		return units
	}

	byTeam := make(map[int][]Participant)
	var numbers []int
	for _, p := range roster {
		n := p.TeamNumber()
		if _, ok := byTeam[n]; !ok {
			numbers = append(numbers, n)
		}
		byTeam[n] = append(byTeam[n], p)
	}
	slices.Sort(numbers)
	units := make([]unit, 0, len(numbers))
	for _, n := range numbers {
		units = append(units, unit{token: TeamToken(n), label: fmt.Sprintf("Team %d", n), members: byTeam[n]})
	}
	return units
}

// adjust converts a gross card to the comparison card for the match's mode.
func (f *field) adjust(gross [Holes]int, handicap int) [Holes]int {
	if f.in.Mode != ModeNet {
		return gross
	}
	var out [Holes]int
	for i, g := range gross {
		out[i] = NetScore(g, strokesFor(handicap, f.ratings[i]))
	}
	return out
}

// memberSum adds every member's score on each hole.
func (f *field) memberSum(u unit) [Holes]int {
	var out [Holes]int
	for _, p := range u.members {
		card := f.scores[p.PlayerID]
		for i := range out {
			out[i] += card[i]
		}
	}
	return out
}

// bestBall takes the lowest entered member score on each hole.
func (f *field) bestBall(u unit) [Holes]int {
	var out [Holes]int
	for _, p := range u.members {
		card := f.scores[p.PlayerID]
		for i, s := range card {
			if s > 0 && (out[i] == 0 || s < out[i]) {
				out[i] = s
			}
		}
	}
	return out
}

// teamHandicap is the rounded-down mean of the members' handicaps.
func teamHandicap(u unit) int {
	total := 0
	for _, p := range u.members {
		total += p.Handicap
	}
	return total / len(u.members)
}

// teamCards reads the team-level cards used by scramble, applying team
// handicaps relative to the best team in net mode.
func (f *field) teamCards() [][Holes]int {
	low := -1
	for _, u := range f.units {
		if h := teamHandicap(u); low < 0 || h < low {
			low = h
		}
	}
	out := make([][Holes]int, len(f.units))
	for i, u := range f.units {
		out[i] = f.adjust(f.in.Card.Card(u.token), teamHandicap(u)-low)
	}
	return out
}

func (f *field) cards(score func(unit) [Holes]int) [][Holes]int {
	out := make([][Holes]int, len(f.units))
	for i, u := range f.units {
		out[i] = score(u)
	}
	return out
}

// lowest returns the indexes of every total equal to the minimum.
func lowest(totals []int) []int {
	var idx []int
	for i, t := range totals {
		switch {
		case len(idx) == 0 || t < totals[idx[0]]:
			idx = []int{i}
		case t == totals[idx[0]]:
			idx = append(idx, i)
		}
	}
	return idx
}

func totals(cards [][Holes]int, from, to int) []int {
	out := make([]int, len(cards))
	for i, c := range cards {
		out[i] = sumHoles(c, from, to)
	}
	return out
}

// membersOf flattens the members of the given units, ordered by player id.
func (f *field) membersOf(idx []int) []Participant {
	var members []Participant
	for _, i := range idx {
		members = append(members, f.units[i].members...)
	}
	return sortedRoster(members)
}

// splitEven divides amount between n people. The remainder goes to the first.
func splitEven(amount, n int) []int {
	shares := make([]int, n)
	if n == 0 {
		return shares
	}
	for i := range shares {
		shares[i] = amount / n
	}
	shares[0] += amount % n
	return shares
}

func teamPtr(f *field, p Participant) *int {
	if f.in.TeamFormat != TeamFormatTeams {
		return nil
	}
	n := p.TeamNumber()
	return &n
}

// potWinners pays the stakes of every non-winning participant to the members
// of the winning units, split evenly, and returns each winner's own stake.
func (f *field) potWinners(idx []int, detail string) []Winner {
	members := f.membersOf(idx)
	losers := len(f.in.Roster) - len(members)
	shares := splitEven(f.in.Wager*losers, len(members))
	winners := make([]Winner, 0, len(members))
	for i, p := range members {
		winners = append(winners, Winner{
			PlayerID:   p.PlayerID,
			Team:       teamPtr(f, p),
			CreditsWon: shares[i],
			Payout:     shares[i] + f.in.Wager,
			Detail:     detail,
		})
	}
	return winners
}

// primaryOf returns the first member of the single winning unit, or nil when
// more than one unit shares the result.
func (f *field) primaryOf(idx []int) *uuid.UUID {
	if len(idx) != 1 {
		return nil
	}
	id := f.units[idx[0]].members[0].PlayerID
	return &id
}

func (f *field) labels(idx []int) string {
	names := make([]string, 0, len(idx))
	for _, i := range idx {
		names = append(names, f.units[i].label)
	}
	return strings.Join(names, ", ")
}

// lowestTotalResult is the shared core of stroke play, scramble and
// better-ball: the lowest 18-hole total takes the pot.
func (f *field) lowestTotalResult(format Format, cards [][Holes]int, name string) Result {
	scores := totals(cards, 1, Holes)
	idx := lowest(scores)
	best := scores[idx[0]]

	res := Result{
		Format:        format,
		Winners:       f.potWinners(idx, fmt.Sprintf("total %d", best)),
		PrimaryWinner: f.primaryOf(idx),
	}
	if len(idx) == 1 {
		res.Summary = fmt.Sprintf("%s wins %s with %d", f.labels(idx), name, best)
	} else {
		res.Summary = fmt.Sprintf("%s tied at %d in %s", f.labels(idx), best, name)
	}
	return res
}
