package scoring

type strokePlay struct{}

func (strokePlay) Format() Format { return FormatStrokePlay }

// Compute awards the pot to the lowest 18-hole total. Team totals add up every
// member's score.
func (s strokePlay) Compute(in Input) (Result, error) {
	f, err := newField(in)
	if err != nil {
		return Result{}, err
	}
	return f.lowestTotalResult(s.Format(), f.cards(f.memberSum), "stroke play"), nil
}

type betterBall struct{}

func (betterBall) Format() Format { return FormatBetterBall }

// Compute scores each team by its best member score per hole. With no teams
// every player is their own side and this is stroke play.
func (b betterBall) Compute(in Input) (Result, error) {
	f, err := newField(in)
	if err != nil {
		return Result{}, err
	}
	if in.TeamFormat != TeamFormatTeams {
		return f.lowestTotalResult(b.Format(), f.cards(f.memberSum), "better-ball"), nil
	}
	return f.lowestTotalResult(b.Format(), f.cards(f.bestBall), "better-ball"), nil
}

type scramble struct{}

func (scramble) Format() Format { return FormatScramble }

// Compute reads one team card per team. Individual scores are ignored.
func (s scramble) Compute(in Input) (Result, error) {
	if in.TeamFormat != TeamFormatTeams {
		return Result{}, validationErrorf("scramble is a team-only format")
	}
	f, err := newField(in)
	if err != nil {
		return Result{}, err
	}
	return f.lowestTotalResult(s.Format(), f.teamCards(), "scramble"), nil
}
