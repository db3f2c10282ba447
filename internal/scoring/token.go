package scoring

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const teamTokenPrefix = "team_"

type tokenKind uint8

const (
	playerToken tokenKind = iota + 1
	teamToken
)

// Token identifies whose card a hole score belongs to: a single player, or a
// whole team in formats that record one score per team (scramble).
// The zero Token is invalid. Tokens are comparable and can key maps.
type Token struct {
	kind   tokenKind
	player uuid.UUID
	team   int
}

// PlayerToken returns the token for an individual player's card.
func PlayerToken(id uuid.UUID) Token {
	return Token{kind: playerToken, player: id}
}

// TeamToken returns the token for a team-level card.
func TeamToken(team int) Token {
	return Token{kind: teamToken, team: team}
}

// ParseToken reverses Token.String: "team_<n>" or a player UUID.
func ParseToken(s string) (Token, error) {
	if rest, ok := strings.CutPrefix(s, teamTokenPrefix); ok {
		n, err := strconv.Atoi(rest)
		if err != nil || n < 1 {
			return Token{}, validationErrorf("invalid team token %q", s)
		}
		return TeamToken(n), nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return Token{}, validationErrorf("invalid participant token %q", s)
	}
	return PlayerToken(id), nil
}

// Player returns the player id and true for a player token.
func (t Token) Player() (uuid.UUID, bool) {
	return t.player, t.kind == playerToken
}

// Team returns the team number and true for a team token.
func (t Token) Team() (int, bool) {
	return t.team, t.kind == teamToken
}

// IsZero reports whether t was never set.
func (t Token) IsZero() bool {
	return t.kind == 0
}

// String is the persisted form of the token.
func (t Token) String() string {
	switch t.kind {
	case playerToken:
		return t.player.String()
	case teamToken:
		return fmt.Sprintf("%s%d", teamTokenPrefix, t.team)
	}
	return ""
}
