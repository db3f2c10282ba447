package scoring

// Format is the closed set of game formats a match can be played under.
// Go has no enum keyword, so a named string type plus constants keeps the values
// readable in the database and type-safe in code.
type Format string

const (
	FormatStrokePlay Format = "stroke_play" // Lowest total over 18 holes
	FormatMatchPlay  Format = "match_play"  // Most holes won head to head
	FormatNassau     Format = "nassau"      // Front 9, back 9 and overall as three bets
	FormatSkins      Format = "skins"       // Each hole is a prize for the sole lowest score
	FormatScramble   Format = "scramble"    // One team score per hole
	FormatBetterBall Format = "better_ball" // Team hole score is the best teammate's score
)

// Formats lists every supported format in display order.
var Formats = []Format{
	FormatStrokePlay,
	FormatMatchPlay,
	FormatNassau,
	FormatSkins,
	FormatScramble,
	FormatBetterBall,
}

// Valid reports whether f is one of the supported formats.
func (f Format) Valid() bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

// ParseFormat converts user input into a Format.
func ParseFormat(s string) (Format, error) {
	f := Format(s)
	if !f.Valid() {
		return "", validationErrorf("unknown format %q", s)
	}
	return f, nil
}

// TeamFormat says whether players compete on their own or grouped into teams.
type TeamFormat string

const (
	TeamFormatIndividual TeamFormat = "individual"
	TeamFormatTeams      TeamFormat = "teams"
)

// ParseTeamFormat converts user input into a TeamFormat. Empty input means individual.
func ParseTeamFormat(s string) (TeamFormat, error) {
	switch TeamFormat(s) {
	case "", TeamFormatIndividual:
		return TeamFormatIndividual, nil
	case TeamFormatTeams:
		return TeamFormatTeams, nil
	}
	return "", validationErrorf("unknown team format %q", s)
}

// Mode selects whether handicap strokes are applied before comparing scores.
type Mode string

const (
	ModeGross Mode = "gross" // Raw strokes
	ModeNet   Mode = "net"   // Strokes minus relative handicap allocation
)

// ParseMode converts user input into a Mode. Empty input means gross.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeGross:
		return ModeGross, nil
	case ModeNet:
		return ModeNet, nil
	}
	return "", validationErrorf("unknown scoring mode %q", s)
}
