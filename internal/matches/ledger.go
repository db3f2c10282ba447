package matches

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/arcieron/clubstakes-social-swing-sub000/internal/models"
	"github.com/arcieron/clubstakes-social-swing-sub000/internal/scoring"
)

// RecordScore upserts one gross score. Only participants of an in-progress
// match may enter scores; a gross of 0 clears the hole.
func (s *Service) RecordScore(ctx context.Context, matchID, actorID uuid.UUID, token string, hole, gross int) error {
	ctx, span := s.startSpan(ctx, "matches.RecordScore", matchID)
	defer span.End()

	if err := scoring.ValidateHoleNumber(hole); err != nil {
		return err
	}
	if err := scoring.ValidateGross(gross); err != nil {
		return err
	}
	tok, err := scoring.ParseToken(token)
	if err != nil {
		return err
	}

	m, err := s.repo.GetMatch(ctx, matchID)
	if err != nil {
		return dependency("load match", err)
	}
	if m.Status != models.MatchStatusInProgress {
		return fmt.Errorf("%w: scores can only be entered while the match is in progress", ErrInvalidState)
	}
	participants, err := s.repo.ListParticipants(ctx, matchID)
	if err != nil {
		return dependency("load roster", err)
	}
	if p := findParticipant(participants, actorID); p == nil || !p.Accepted {
		return fmt.Errorf("%w: only participants can enter scores", ErrForbidden)
	}
	if err := checkToken(m, participants, tok); err != nil {
		return err
	}

	err = s.repo.UpsertHoleScore(ctx, &models.HoleScore{
		MatchID:          matchID,
		ParticipantToken: tok.String(),
		HoleNumber:       hole,
		GrossScore:       gross,
		EnteredBy:        actorID,
	})
	if err != nil {
		return dependency("save score", err)
	}

	s.metrics.RecordScore()
	s.logger.DebugContext(ctx, "score recorded",
		slog.String("match_id", matchID.String()),
		slog.String("token", tok.String()),
		slog.Int("hole", hole),
		slog.Int("gross", gross),
	)
	s.notifier.Publish(Event{
		Type:    EventScoreUpdated,
		MatchID: matchID,
		Payload: ScorePayload{Token: tok.String(), Hole: hole, Gross: gross},
	})
	return nil
}

// checkToken rejects tokens that cannot appear on this match's card.
func checkToken(m *models.Match, participants []models.MatchParticipant, tok scoring.Token) error {
	if tok.IsZero() {
		return fmt.Errorf("%w: empty participant token", ErrValidation)
	}
	if team, ok := tok.Team(); ok {
		if m.TeamFormat != scoring.TeamFormatTeams {
			return fmt.Errorf("%w: team scores need a team match", ErrValidation)
		}
		for _, p := range accepted(participants) {
			if p.TeamNumber != nil && *p.TeamNumber == team {
				return nil
			}
		}
		return fmt.Errorf("%w: no one plays on team %d", ErrValidation, team)
	}
	player, _ := tok.Player()
	if p := findParticipant(participants, player); p == nil || !p.Accepted {
		return fmt.Errorf("%w: %s is not playing in this match", ErrValidation, tok)
	}
	return nil
}

// GetScores returns every entered score keyed by participant token. Holes
// without an entry read as 0.
func (s *Service) GetScores(ctx context.Context, matchID uuid.UUID) (map[string][scoring.Holes]int, error) {
	card, err := s.snapshot(ctx, matchID)
	if err != nil {
		return nil, err
	}
	out := make(map[string][scoring.Holes]int)
	for _, tok := range card.Tokens() {
		out[tok.String()] = card.Card(tok)
	}
	return out, nil
}

// TotalGross sums a participant token's 18 holes, counting unentered holes as 0.
func (s *Service) TotalGross(ctx context.Context, matchID uuid.UUID, token string) (int, error) {
	tok, err := scoring.ParseToken(token)
	if err != nil {
		return 0, err
	}
	card, err := s.snapshot(ctx, matchID)
	if err != nil {
		return 0, err
	}
	return card.TotalGross(tok), nil
}

// ScorecardRow is one token's line on the scorecard view.
type ScorecardRow struct {
	Token string             `json:"token"`
	Label string             `json:"label"`
	Holes [scoring.Holes]int `json:"holes"`
	Out   int                `json:"out"`
	In    int                `json:"in"`
	Total int                `json:"total"`

	// NetTotal is set for players in net matches, using relative handicaps.
	NetTotal *int `json:"net_total,omitempty"`
}

// ScorecardView is the full card with per-hole par, confirmation progress and,
// for two-sided match play, the result of each hole (1 or 2 = side that won,
// 0 = halved, -1 = open).
type ScorecardView struct {
	MatchID       uuid.UUID           `json:"match_id"`
	Format        scoring.Format      `json:"format"`
	Pars          [scoring.Holes]int  `json:"pars"`
	Rows          []ScorecardRow      `json:"rows"`
	HoleResults   *[scoring.Holes]int `json:"hole_results,omitempty"`
	Confirmations ConfirmationStatus  `json:"confirmations"`
}

// Scorecard assembles the card for display.
func (s *Service) Scorecard(ctx context.Context, matchID uuid.UUID) (*ScorecardView, error) {
	m, err := s.repo.GetMatch(ctx, matchID)
	if err != nil {
		return nil, dependency("load match", err)
	}
	participants, err := s.repo.ListParticipants(ctx, matchID)
	if err != nil {
		return nil, dependency("load roster", err)
	}
	holes, err := s.holesFor(ctx, m)
	if err != nil {
		return nil, err
	}
	card, err := s.snapshot(ctx, matchID)
	if err != nil {
		return nil, err
	}

	view := &ScorecardView{MatchID: matchID, Format: m.Format}
	for _, h := range holes {
		if h.Number >= 1 && h.Number <= scoring.Holes {
			view.Pars[h.Number-1] = h.Par
		}
	}

	names := make(map[uuid.UUID]string, len(participants))
	for _, p := range participants {
		names[p.MemberID] = p.Member.DisplayName
	}
	relative := scoring.RelativeHandicaps(toRoster(participants))
	for _, tok := range card.Tokens() {
		label := tok.String()
		if team, ok := tok.Team(); ok {
			label = fmt.Sprintf("Team %d", team)
		} else if player, _ := tok.Player(); names[player] != "" {
			label = names[player]
		}
		row := ScorecardRow{Token: tok.String(), Label: label, Holes: card.Card(tok)}
		for i, g := range row.Holes {
			if i < scoring.Holes/2 {
				row.Out += g
			} else {
				row.In += g
			}
		}
		row.Total = row.Out + row.In
		if player, ok := tok.Player(); ok && m.ScoringMode == scoring.ModeNet {
			if hc, ok := relative[player]; ok {
				net := 0
				for _, n := range scoring.NetCard(row.Holes, hc, holes) {
					net += n
				}
				row.NetTotal = &net
			}
		}
		view.Rows = append(view.Rows, row)
	}

	view.Confirmations, err = s.ConfirmationStatus(ctx, matchID)
	if err != nil {
		return nil, err
	}
	view.Confirmations.Settled = m.Status == models.MatchStatusCompleted

	if m.Format == scoring.FormatMatchPlay {
		in := scoring.Input{
			Roster:     toRoster(participants),
			Card:       card,
			Holes:      holes,
			Mode:       m.ScoringMode,
			TeamFormat: m.TeamFormat,
			Wager:      m.WagerAmount,
		}
		// Not every roster is two-sided or complete; the view simply omits results then.
		if results, err := scoring.HoleResults(in); err == nil {
			view.HoleResults = &results
		}
	}
	return view, nil
}
