package matches

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/arcieron/clubstakes-social-swing-sub000/internal/models"
	"github.com/arcieron/clubstakes-social-swing-sub000/internal/scoring"
)

// RosterSource supplies the members playing a match, with their handicap and team.
type RosterSource interface {
	ListParticipants(ctx context.Context, matchID uuid.UUID) ([]models.MatchParticipant, error)
}

// CourseSource supplies per-hole par and rating. An empty slice means the
// course has no hole data.
type CourseSource interface {
	ListHoles(ctx context.Context, courseID uuid.UUID) ([]models.Hole, error)
}

// Settlement is everything written when a match completes. The repository
// must apply it atomically: the in_progress -> completed transition and every
// credit delta commit together or not at all, and a match that is no longer
// in_progress yields ErrConflict without touching any balance.
type Settlement struct {
	MatchID     uuid.UUID
	WinnerID    *uuid.UUID
	Summary     string
	Result      []byte // JSON of the scoring.Result being settled
	CompletedAt time.Time
	Deltas      []scoring.CreditDelta
}

// Repository is the persistence the match service runs on.
type Repository interface {
	RosterSource
	CourseSource

	CreateMatch(ctx context.Context, m *models.Match, participants []models.MatchParticipant) error
	GetMatch(ctx context.Context, id uuid.UUID) (*models.Match, error)
	GetMember(ctx context.Context, id uuid.UUID) (*models.Member, error)

	// AddParticipant inserts p unless the match already holds maxPlayers
	// participants (ErrInvalidState) or p's member is already in it (ErrConflict).
	AddParticipant(ctx context.Context, p *models.MatchParticipant, maxPlayers int) error
	AcceptInvite(ctx context.Context, matchID, memberID uuid.UUID) error
	SetTeam(ctx context.Context, matchID, memberID uuid.UUID, team int) error

	// TransitionStatus moves the match to `to` only if its current status is one
	// of `from`. It reports whether this call made the change.
	TransitionStatus(ctx context.Context, matchID uuid.UUID, from []models.MatchStatus, to models.MatchStatus) (bool, error)
	// StartMatch moves a pending or open match to in_progress and, in the same
	// transaction, fixes each participant's playing handicap from handicaps.
	// It reports whether this call started the match.
	StartMatch(ctx context.Context, matchID uuid.UUID, handicaps map[uuid.UUID]int) (bool, error)

	UpsertHoleScore(ctx context.Context, s *models.HoleScore) error
	ListHoleScores(ctx context.Context, matchID uuid.UUID) ([]models.HoleScore, error)

	// AddConfirmation is idempotent per (match, member).
	AddConfirmation(ctx context.Context, matchID, memberID uuid.UUID) error
	ListConfirmations(ctx context.Context, matchID uuid.UUID) ([]models.MatchConfirmation, error)

	Settle(ctx context.Context, s Settlement) error
	// ListSettleable returns in_progress matches whose every participant has confirmed.
	ListSettleable(ctx context.Context, limit int) ([]uuid.UUID, error)
	ListCreditTransactions(ctx context.Context, matchID uuid.UUID) ([]models.CreditTransaction, error)
}
