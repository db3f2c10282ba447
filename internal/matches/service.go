// Package matches runs wagered matches end to end: creating and filling the
// roster, recording hole scores, collecting confirmations, and settling credits
// exactly once when every participant has signed the card.
package matches

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/arcieron/clubstakes-social-swing-sub000/internal/models"
	"github.com/arcieron/clubstakes-social-swing-sub000/internal/scoring"
)

// Service is the match orchestrator.
type Service struct {
	repo     Repository
	notifier Notifier
	metrics  Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// NewService creates a Service. A nil notifier or metrics falls back to the no-op version.
func NewService(repo Repository, notifier Notifier, metrics Metrics, logger *slog.Logger, tracer trace.Tracer) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if metrics == nil {
		metrics = NoOpMetrics{}
	}
	return &Service{
		repo:     repo,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
		tracer:   tracer,
		now:      time.Now,
	}
}

func (s *Service) startSpan(ctx context.Context, op string, matchID uuid.UUID) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("operation", op),
		attribute.String("match_id", matchID.String()),
	))
}

// CreateMatchInput describes a new match.
type CreateMatchInput struct {
	ClubID        uuid.UUID
	CreatorID     uuid.UUID
	CourseID      *uuid.UUID
	Format        string
	TeamFormat    string
	ScoringMode   string
	WagerAmount   int
	MaxPlayers    int
	ScheduledDate *time.Time
	CreatorTeam   *int
	Invitees      []uuid.UUID
}

// CreateMatch validates and stores a new match. A match with named invitees
// starts pending until they accept; one without is open. Either way, seats not
// held for an invitee go to whichever club members join first.
func (s *Service) CreateMatch(ctx context.Context, in CreateMatchInput) (*models.Match, error) {
	format, err := scoring.ParseFormat(in.Format)
	if err != nil {
		return nil, err
	}
	teamFormat, err := scoring.ParseTeamFormat(in.TeamFormat)
	if err != nil {
		return nil, err
	}
	mode, err := scoring.ParseMode(in.ScoringMode)
	if err != nil {
		return nil, err
	}
	if format == scoring.FormatScramble && teamFormat != scoring.TeamFormatTeams {
		return nil, fmt.Errorf("%w: scramble must be played in teams", ErrValidation)
	}
	if in.WagerAmount <= 0 {
		return nil, fmt.Errorf("%w: wager must be positive", ErrValidation)
	}
	if in.MaxPlayers < 2 {
		return nil, fmt.Errorf("%w: a match needs at least 2 players", ErrValidation)
	}
	if len(in.Invitees)+1 > in.MaxPlayers {
		return nil, fmt.Errorf("%w: %d invitees exceed %d players", ErrValidation, len(in.Invitees), in.MaxPlayers)
	}
	if err := validateTeam(in.CreatorTeam); err != nil {
		return nil, err
	}

	if in.CourseID != nil {
		holes, err := s.repo.ListHoles(ctx, *in.CourseID)
		if err != nil {
			return nil, dependency("load course", err)
		}
		if len(holes) > 0 {
			if err := scoring.ValidateHoles(toScoringHoles(holes)); err != nil {
				return nil, err
			}
		}
	}

	creator := models.MatchParticipant{MemberID: in.CreatorID, TeamNumber: in.CreatorTeam, Accepted: true}
	participants := []models.MatchParticipant{creator}
	seen := map[uuid.UUID]bool{in.CreatorID: true}
	for _, id := range in.Invitees {
		if seen[id] {
			return nil, fmt.Errorf("%w: member %s invited twice", ErrValidation, id)
		}
		seen[id] = true
		member, err := s.repo.GetMember(ctx, id)
		if err != nil {
			return nil, dependency("load invitee", err)
		}
		if member.ClubID != in.ClubID {
			return nil, fmt.Errorf("%w: member %s is not in this club", ErrValidation, id)
		}
		participants = append(participants, models.MatchParticipant{MemberID: id, Accepted: false})
	}

	status := models.MatchStatusOpen
	if len(in.Invitees) > 0 {
		status = models.MatchStatusPending
	}
	m := &models.Match{
		ClubID:        in.ClubID,
		CreatedBy:     in.CreatorID,
		CourseID:      in.CourseID,
		Format:        format,
		TeamFormat:    teamFormat,
		ScoringMode:   mode,
		WagerAmount:   in.WagerAmount,
		MaxPlayers:    in.MaxPlayers,
		ScheduledDate: in.ScheduledDate,
		Status:        status,
	}
	if err := s.repo.CreateMatch(ctx, m, participants); err != nil {
		return nil, dependency("create match", err)
	}

	s.logger.InfoContext(ctx, "match created",
		slog.String("match_id", m.ID.String()),
		slog.String("format", string(format)),
		slog.Int("wager", in.WagerAmount),
		slog.String("status", string(status)),
	)
	return m, nil
}

// JoinMatch accepts a member's invitation, or seats them in a free place of an
// open or pending match. Seats held for invitees who have not accepted yet are
// never free. Filling the last seat starts the match.
func (s *Service) JoinMatch(ctx context.Context, matchID, memberID uuid.UUID, team *int) (*models.Match, error) {
	if err := validateTeam(team); err != nil {
		return nil, err
	}
	m, err := s.repo.GetMatch(ctx, matchID)
	if err != nil {
		return nil, dependency("load match", err)
	}
	if m.Status != models.MatchStatusOpen && m.Status != models.MatchStatusPending {
		return nil, fmt.Errorf("%w: match is %s", ErrInvalidState, m.Status)
	}
	member, err := s.repo.GetMember(ctx, memberID)
	if err != nil {
		return nil, dependency("load member", err)
	}
	if member.ClubID != m.ClubID {
		return nil, fmt.Errorf("%w: member is not in this club", ErrForbidden)
	}

	participants, err := s.repo.ListParticipants(ctx, matchID)
	if err != nil {
		return nil, dependency("load roster", err)
	}
	existing := findParticipant(participants, memberID)
	switch {
	case existing != nil && existing.Accepted:
		return nil, fmt.Errorf("%w: already joined", ErrConflict)
	case existing != nil:
		if err := s.repo.AcceptInvite(ctx, matchID, memberID); err != nil {
			return nil, dependency("accept invite", err)
		}
		if team != nil {
			if err := s.repo.SetTeam(ctx, matchID, memberID, *team); err != nil {
				return nil, dependency("set team", err)
			}
		}
	default:
		p := &models.MatchParticipant{MatchID: matchID, MemberID: memberID, TeamNumber: team, Accepted: true}
		if err := s.repo.AddParticipant(ctx, p, m.MaxPlayers); err != nil {
			return nil, dependency("add participant", err)
		}
	}

	if err := s.startIfFull(ctx, m); err != nil {
		return nil, err
	}
	return s.repo.GetMatch(ctx, matchID)
}

func (s *Service) startIfFull(ctx context.Context, m *models.Match) error {
	participants, err := s.repo.ListParticipants(ctx, m.ID)
	if err != nil {
		return dependency("load roster", err)
	}
	roster := accepted(participants)
	if len(roster) < m.MaxPlayers {
		return nil
	}
	handicaps := make(map[uuid.UUID]int, len(roster))
	for _, p := range roster {
		handicaps[p.MemberID] = p.Member.Handicap
	}
	started, err := s.repo.StartMatch(ctx, m.ID, handicaps)
	if err != nil {
		return dependency("start match", err)
	}
	if started {
		s.logger.InfoContext(ctx, "match started", slog.String("match_id", m.ID.String()))
		s.notifier.Publish(Event{Type: EventMatchStarted, MatchID: m.ID})
	}
	return nil
}

// AssignTeam puts a participant on a team. The creator may place anyone;
// other members may only place themselves.
func (s *Service) AssignTeam(ctx context.Context, matchID, actorID, memberID uuid.UUID, team int) error {
	if err := validateTeam(&team); err != nil {
		return err
	}
	m, err := s.repo.GetMatch(ctx, matchID)
	if err != nil {
		return dependency("load match", err)
	}
	if m.Status.Terminal() {
		return fmt.Errorf("%w: match is %s", ErrInvalidState, m.Status)
	}
	if m.TeamFormat != scoring.TeamFormatTeams {
		return fmt.Errorf("%w: match is not a team match", ErrValidation)
	}
	if actorID != memberID && actorID != m.CreatedBy {
		return fmt.Errorf("%w: only the creator can assign other players", ErrForbidden)
	}
	if err := s.repo.SetTeam(ctx, matchID, memberID, team); err != nil {
		return dependency("set team", err)
	}
	return nil
}

// CancelMatch abandons a match that has not been settled. Only the creator
// or a club admin may cancel.
func (s *Service) CancelMatch(ctx context.Context, matchID, actorID uuid.UUID, actorRole models.MemberRole) error {
	m, err := s.repo.GetMatch(ctx, matchID)
	if err != nil {
		return dependency("load match", err)
	}
	if actorID != m.CreatedBy && actorRole != models.MemberRoleAdmin {
		return fmt.Errorf("%w: only the creator or a club admin can cancel", ErrForbidden)
	}
	cancelled, err := s.repo.TransitionStatus(ctx, matchID,
		[]models.MatchStatus{models.MatchStatusPending, models.MatchStatusOpen, models.MatchStatusInProgress},
		models.MatchStatusCancelled)
	if err != nil {
		return dependency("cancel match", err)
	}
	if !cancelled {
		return fmt.Errorf("%w: match can no longer be cancelled", ErrInvalidState)
	}
	s.logger.InfoContext(ctx, "match cancelled", slog.String("match_id", matchID.String()))
	s.notifier.Publish(Event{Type: EventMatchCancelled, MatchID: matchID})
	return nil
}

// GetMatch returns the match with its participants.
func (s *Service) GetMatch(ctx context.Context, matchID uuid.UUID) (*models.Match, error) {
	m, err := s.repo.GetMatch(ctx, matchID)
	if err != nil {
		return nil, dependency("load match", err)
	}
	participants, err := s.repo.ListParticipants(ctx, matchID)
	if err != nil {
		return nil, dependency("load roster", err)
	}
	m.Participants = participants
	return m, nil
}

func validateTeam(team *int) error {
	if team != nil && *team < 1 {
		return fmt.Errorf("%w: team number must be 1 or more", ErrValidation)
	}
	return nil
}

func findParticipant(participants []models.MatchParticipant, memberID uuid.UUID) *models.MatchParticipant {
	for i := range participants {
		if participants[i].MemberID == memberID {
			return &participants[i]
		}
	}
	return nil
}

func accepted(participants []models.MatchParticipant) []models.MatchParticipant {
	out := make([]models.MatchParticipant, 0, len(participants))
	for _, p := range participants {
		if p.Accepted {
			out = append(out, p)
		}
	}
	return out
}

func toRoster(participants []models.MatchParticipant) []scoring.Participant {
	roster := make([]scoring.Participant, 0, len(participants))
	for _, p := range accepted(participants) {
		handicap := p.Member.Handicap
		if p.PlayingHandicap != nil {
			handicap = *p.PlayingHandicap
		}
		roster = append(roster, scoring.Participant{
			PlayerID: p.MemberID,
			Name:     p.Member.DisplayName,
			Handicap: handicap,
			Team:     p.TeamNumber,
		})
	}
	return roster
}

func toScoringHoles(holes []models.Hole) []scoring.Hole {
	out := make([]scoring.Hole, 0, len(holes))
	for _, h := range holes {
		out = append(out, scoring.Hole{Number: h.HoleNumber, Par: h.Par, Rating: h.HandicapRating})
	}
	return out
}

// holesFor loads the match course, falling back to the standard card when the
// match has no course or the course has no holes.
func (s *Service) holesFor(ctx context.Context, m *models.Match) ([]scoring.Hole, error) {
	if m.CourseID == nil {
		return scoring.StandardHoles(), nil
	}
	holes, err := s.repo.ListHoles(ctx, *m.CourseID)
	if err != nil {
		return nil, dependency("load course", err)
	}
	if len(holes) == 0 {
		return scoring.StandardHoles(), nil
	}
	return toScoringHoles(holes), nil
}

// snapshot reads the match's scores into a Scorecard.
func (s *Service) snapshot(ctx context.Context, matchID uuid.UUID) (*scoring.Scorecard, error) {
	rows, err := s.repo.ListHoleScores(ctx, matchID)
	if err != nil {
		return nil, dependency("load scores", err)
	}
	card := scoring.NewScorecard()
	for _, r := range rows {
		tok, err := scoring.ParseToken(r.ParticipantToken)
		if err != nil {
			return nil, err
		}
		if err := card.Set(tok, r.HoleNumber, r.GrossScore); err != nil {
			return nil, err
		}
	}
	return card, nil
}
