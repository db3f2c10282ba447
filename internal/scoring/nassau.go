package scoring

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type nassau struct{}

func (nassau) Format() Format { return FormatNassau }

type leg struct {
	name     string
	from, to int
	share    int
}

// nassauLegs splits the wager 25/25/50. The overall leg takes whatever the
// two quarter shares leave, so the full wager is always on offer.
func nassauLegs(wager int) []leg {
	quarter := wager / 4
	return []leg{
		{name: "front 9", from: 1, to: 9, share: quarter},
		{name: "back 9", from: 10, to: Holes, share: quarter},
		{name: "overall", from: 1, to: Holes, share: wager - 2*quarter},
	}
}

// Compute settles front nine, back nine and the full round as independent
// bets. Each leg's lowest total wins that leg's share; tied sides split it.
func (n nassau) Compute(in Input) (Result, error) {
	f, err := newField(in)
	if err != nil {
		return Result{}, err
	}
	cards := f.cards(f.memberSum)
	book := newPayoutBook(f)

	res := Result{Format: n.Format()}
	var parts []string
	for _, l := range nassauLegs(in.Wager) {
		scores := totals(cards, l.from, l.to)
		idx := lowest(scores)
		best := scores[idx[0]]
		members := f.membersOf(idx)
		shares := splitEven(l.share, len(members))
		for i, p := range members {
			book.add(p, shares[i], fmt.Sprintf("%s (%d)", l.name, best))
		}
		parts = append(parts, fmt.Sprintf("%s: %s (%d)", l.name, f.labels(idx), best))
		if l.name == "overall" {
			res.PrimaryWinner = f.primaryOf(idx)
		}
	}
	res.Winners = book.winners()
	res.Summary = strings.Join(parts, "; ")
	return res, nil
}

// payoutBook accumulates per-player winnings across several sub-contests,
// keeping first-seen order.
type payoutBook struct {
	f       *field
	order   []uuid.UUID
	entries map[uuid.UUID]*Winner
}

func newPayoutBook(f *field) *payoutBook {
	return &payoutBook{f: f, entries: make(map[uuid.UUID]*Winner)}
}

func (b *payoutBook) add(p Participant, credits int, detail string) {
	w, ok := b.entries[p.PlayerID]
	if !ok {
		w = &Winner{PlayerID: p.PlayerID, Team: teamPtr(b.f, p)}
		b.entries[p.PlayerID] = w
		b.order = append(b.order, p.PlayerID)
	}
	w.CreditsWon += credits
	w.Payout += credits
	if w.Detail == "" {
		w.Detail = detail
	} else {
		w.Detail += ", " + detail
	}
}

func (b *payoutBook) winners() []Winner {
	out := make([]Winner, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, *b.entries[id])
	}
	return out
}
