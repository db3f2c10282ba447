package scoring

// CheckComplete returns a validation error naming the first missing score that
// would change a result decided on totals. Stroke play, Nassau and better-ball
// sum every hole, so an unentered hole would count as 0. Skins and two-sided
// match play only compare holes both sides played and never need a full card.
func CheckComplete(format Format, in Input) error {
	f, err := newField(in)
	if err != nil {
		return err
	}
	switch format {
	case FormatSkins:
		return nil
	case FormatMatchPlay:
		if len(f.units) == 2 {
			return nil
		}
	case FormatScramble:
		for _, u := range f.units {
			if hole := firstGap(in.Card.Card(u.token)); hole > 0 {
				return validationErrorf("%s has no score on hole %d", u.label, hole)
			}
		}
		return nil
	case FormatBetterBall:
		if in.TeamFormat == TeamFormatTeams {
			for _, u := range f.units {
				if hole := firstGap(f.bestBall(u)); hole > 0 {
					return validationErrorf("%s has no score on hole %d", u.label, hole)
				}
			}
			return nil
		}
	}
	for _, u := range f.units {
		for _, p := range u.members {
			if hole := firstGap(in.Card.Card(PlayerToken(p.PlayerID))); hole > 0 {
				return validationErrorf("%s has no score on hole %d", p.label(), hole)
			}
		}
	}
	return nil
}

// firstGap returns the first hole number without a score, or 0.
func firstGap(card [Holes]int) int {
	for i, s := range card {
		if s <= 0 {
			return i + 1
		}
	}
	return 0
}
