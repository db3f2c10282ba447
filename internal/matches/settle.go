package matches

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/arcieron/clubstakes-social-swing-sub000/internal/models"
	"github.com/arcieron/clubstakes-social-swing-sub000/internal/scoring"
)

// ConfirmationStatus reports how far a match is from settling.
type ConfirmationStatus struct {
	Confirmed int             `json:"confirmed"`
	Required  int             `json:"required"`
	Settled   bool            `json:"settled"`
	Result    *scoring.Result `json:"result,omitempty"`
}

// Full reports whether every participant has confirmed.
func (c ConfirmationStatus) Full() bool {
	return c.Required > 0 && c.Confirmed == c.Required
}

// Confirm records that memberID accepts the current card. The card must be
// complete enough for the format to be scored. The confirmation that completes
// the set settles the match; if another confirmation settled it first this call
// still succeeds, and so does a repeat from a member who confirmed before
// settlement. A settlement failure is returned after the confirmation is
// stored, and the sweeper retries it.
func (s *Service) Confirm(ctx context.Context, matchID, memberID uuid.UUID) (ConfirmationStatus, error) {
	ctx, span := s.startSpan(ctx, "matches.Confirm", matchID)
	defer span.End()

	m, err := s.repo.GetMatch(ctx, matchID)
	if err != nil {
		return ConfirmationStatus{}, dependency("load match", err)
	}
	if m.Status == models.MatchStatusCompleted {
		return s.settledStatus(ctx, m, memberID)
	}
	if m.Status != models.MatchStatusInProgress {
		return ConfirmationStatus{}, fmt.Errorf("%w: only an in-progress match can be confirmed", ErrInvalidState)
	}
	participants, err := s.repo.ListParticipants(ctx, matchID)
	if err != nil {
		return ConfirmationStatus{}, dependency("load roster", err)
	}
	if p := findParticipant(participants, memberID); p == nil || !p.Accepted {
		return ConfirmationStatus{}, fmt.Errorf("%w: only participants can confirm", ErrForbidden)
	}
	in, err := s.input(ctx, m)
	if err != nil {
		return ConfirmationStatus{}, err
	}
	if err := scoring.CheckComplete(m.Format, in); err != nil {
		return ConfirmationStatus{}, err
	}
	if err := s.repo.AddConfirmation(ctx, matchID, memberID); err != nil {
		return ConfirmationStatus{}, dependency("save confirmation", err)
	}
	s.metrics.RecordConfirmation()

	status, err := s.ConfirmationStatus(ctx, matchID)
	if err != nil {
		return ConfirmationStatus{}, err
	}
	s.notifier.Publish(Event{
		Type:    EventConfirmationAdded,
		MatchID: matchID,
		Payload: ConfirmationPayload{MemberID: memberID, Confirmed: status.Confirmed, Required: status.Required},
	})
	if !status.Full() {
		return status, nil
	}

	res, err := s.Settle(ctx, matchID)
	switch {
	case errors.Is(err, ErrConflict):
		s.logger.DebugContext(ctx, "settlement already done by another confirmation",
			slog.String("match_id", matchID.String()))
		status.Settled = true
		return status, nil
	case err != nil:
		return status, err
	}
	status.Settled = true
	status.Result = res
	return status, nil
}

// settledStatus answers a confirmation for a completed match. A member whose
// confirmation is on record gets the settled status back; anyone else is late.
func (s *Service) settledStatus(ctx context.Context, m *models.Match, memberID uuid.UUID) (ConfirmationStatus, error) {
	confirmations, err := s.repo.ListConfirmations(ctx, m.ID)
	if err != nil {
		return ConfirmationStatus{}, dependency("load confirmations", err)
	}
	for _, c := range confirmations {
		if c.MemberID != memberID {
			continue
		}
		status, err := s.ConfirmationStatus(ctx, m.ID)
		if err != nil {
			return ConfirmationStatus{}, err
		}
		status.Settled = true
		if status.Result, err = storedResult(m); err != nil {
			return ConfirmationStatus{}, err
		}
		return status, nil
	}
	return ConfirmationStatus{}, fmt.Errorf("%w: match is already settled", ErrInvalidState)
}

// ConfirmationStatus counts confirmations against the accepted roster.
func (s *Service) ConfirmationStatus(ctx context.Context, matchID uuid.UUID) (ConfirmationStatus, error) {
	participants, err := s.repo.ListParticipants(ctx, matchID)
	if err != nil {
		return ConfirmationStatus{}, dependency("load roster", err)
	}
	confirmations, err := s.repo.ListConfirmations(ctx, matchID)
	if err != nil {
		return ConfirmationStatus{}, dependency("load confirmations", err)
	}
	roster := accepted(participants)
	playing := make(map[uuid.UUID]bool, len(roster))
	for _, p := range roster {
		playing[p.MemberID] = true
	}
	status := ConfirmationStatus{Required: len(roster)}
	for _, c := range confirmations {
		if playing[c.MemberID] {
			status.Confirmed++
		}
	}
	return status, nil
}

// IsFullyConfirmed reports whether every participant has confirmed.
func (s *Service) IsFullyConfirmed(ctx context.Context, matchID uuid.UUID) (bool, error) {
	status, err := s.ConfirmationStatus(ctx, matchID)
	if err != nil {
		return false, err
	}
	return status.Full(), nil
}

// Settle scores a fully confirmed match and moves credits. The status flip to
// completed and every credit delta commit in one repository call, so a match
// settles at most once; losers of the race get ErrConflict.
func (s *Service) Settle(ctx context.Context, matchID uuid.UUID) (*scoring.Result, error) {
	ctx, span := s.startSpan(ctx, "matches.Settle", matchID)
	defer span.End()
	start := s.now()

	m, err := s.repo.GetMatch(ctx, matchID)
	if err != nil {
		return nil, dependency("load match", err)
	}
	switch m.Status {
	case models.MatchStatusInProgress:
	case models.MatchStatusCompleted:
		s.metrics.RecordSettlementConflict()
		return nil, fmt.Errorf("%w: match already settled", ErrConflict)
	default:
		return nil, fmt.Errorf("%w: match is %s", ErrInvalidState, m.Status)
	}

	status, err := s.ConfirmationStatus(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !status.Full() {
		return nil, fmt.Errorf("%w: %d of %d confirmations", ErrInvalidState, status.Confirmed, status.Required)
	}

	in, err := s.input(ctx, m)
	if err != nil {
		s.fail(ctx, span, m, start, err)
		return nil, err
	}
	if err := scoring.CheckComplete(m.Format, in); err != nil {
		s.fail(ctx, span, m, start, err)
		return nil, err
	}
	res, err := scoring.Compute(m.Format, in)
	if err != nil {
		s.fail(ctx, span, m, start, err)
		return nil, err
	}
	deltas := scoring.Deltas(matchID, in.Roster, m.WagerAmount, res)
	stored, err := json.Marshal(res)
	if err != nil {
		err = fmt.Errorf("encode result: %w", err)
		s.fail(ctx, span, m, start, err)
		return nil, err
	}

	err = s.repo.Settle(ctx, Settlement{
		MatchID:     matchID,
		WinnerID:    res.PrimaryWinner,
		Summary:     res.Summary,
		Result:      stored,
		CompletedAt: s.now().UTC(),
		Deltas:      deltas,
	})
	if errors.Is(err, ErrConflict) {
		s.metrics.RecordSettlementConflict()
		return nil, err
	}
	if err != nil {
		err = dependency("settle match", err)
		s.fail(ctx, span, m, start, err)
		return nil, err
	}

	moved := 0
	for _, d := range deltas {
		if d.Amount > 0 {
			moved += d.Amount
		}
	}
	s.metrics.RecordSettlement(m.Format, OutcomeSettled, s.now().Sub(start))
	s.metrics.RecordCreditsMoved(moved)
	span.SetAttributes(
		attribute.String("format", string(m.Format)),
		attribute.Int("winners", len(res.Winners)),
	)
	s.logger.InfoContext(ctx, "match settled",
		slog.String("match_id", matchID.String()),
		slog.String("format", string(m.Format)),
		slog.String("summary", res.Summary),
		slog.Int("winners", len(res.Winners)),
		slog.Int("credits_moved", moved),
	)
	s.notifier.Publish(Event{Type: EventMatchSettled, MatchID: matchID, Payload: res})
	return &res, nil
}

func (s *Service) fail(ctx context.Context, span trace.Span, m *models.Match, start time.Time, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.metrics.RecordSettlement(m.Format, OutcomeFailed, s.now().Sub(start))
	s.logger.ErrorContext(ctx, "settlement failed",
		slog.String("match_id", m.ID.String()),
		slog.String("format", string(m.Format)),
		slog.Any("error", err),
	)
}

// input gathers the roster, course and card that a scoring strategy reads.
func (s *Service) input(ctx context.Context, m *models.Match) (scoring.Input, error) {
	participants, err := s.repo.ListParticipants(ctx, m.ID)
	if err != nil {
		return scoring.Input{}, dependency("load roster", err)
	}
	holes, err := s.holesFor(ctx, m)
	if err != nil {
		return scoring.Input{}, err
	}
	card, err := s.snapshot(ctx, m.ID)
	if err != nil {
		return scoring.Input{}, err
	}
	return scoring.Input{
		Roster:     toRoster(participants),
		Card:       card,
		Holes:      holes,
		Mode:       m.ScoringMode,
		TeamFormat: m.TeamFormat,
		Wager:      m.WagerAmount,
	}, nil
}

// PreviewResult scores the card as it stands without settling anything. A
// completed match returns the result it was settled with.
func (s *Service) PreviewResult(ctx context.Context, matchID uuid.UUID) (*scoring.Result, error) {
	m, err := s.repo.GetMatch(ctx, matchID)
	if err != nil {
		return nil, dependency("load match", err)
	}
	if m.Status == models.MatchStatusCompleted {
		if res, err := storedResult(m); err != nil || res != nil {
			return res, err
		}
	}
	in, err := s.input(ctx, m)
	if err != nil {
		return nil, err
	}
	res, err := scoring.Compute(m.Format, in)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// storedResult decodes the result saved at settlement, or nil if there is none.
func storedResult(m *models.Match) (*scoring.Result, error) {
	if len(m.Result) == 0 {
		return nil, nil
	}
	var res scoring.Result
	if err := json.Unmarshal(m.Result, &res); err != nil {
		return nil, fmt.Errorf("decode settled result for match %s: %w", m.ID, err)
	}
	return &res, nil
}

// SettlePending settles fully confirmed matches that are still in progress,
// typically because the settlement attempted by the last confirmation failed.
// It returns how many this call settled.
func (s *Service) SettlePending(ctx context.Context, limit int) (int, error) {
	ids, err := s.repo.ListSettleable(ctx, limit)
	if err != nil {
		return 0, dependency("list settleable matches", err)
	}
	settled := 0
	var errs []error
	for _, id := range ids {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		_, err := s.Settle(ctx, id)
		switch {
		case err == nil:
			settled++
		case errors.Is(err, ErrConflict):
		default:
			errs = append(errs, fmt.Errorf("match %s: %w", id, err))
		}
	}
	return settled, errors.Join(errs...)
}

// CreditHistory lists the ledger entries a match produced.
func (s *Service) CreditHistory(ctx context.Context, matchID uuid.UUID) ([]models.CreditTransaction, error) {
	txs, err := s.repo.ListCreditTransactions(ctx, matchID)
	if err != nil {
		return nil, dependency("load credit history", err)
	}
	return txs, nil
}
