package matches

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arcieron/clubstakes-social-swing-sub000/internal/models"
	"github.com/arcieron/clubstakes-social-swing-sub000/internal/scoring"
)

// memRepo is an in-memory Repository. Settle applies the same conditional
// status flip as the database implementation.
type memRepo struct {
	mu            sync.Mutex
	members       map[uuid.UUID]*models.Member
	matches       map[uuid.UUID]*models.Match
	participants  map[uuid.UUID][]models.MatchParticipant
	holes         map[uuid.UUID][]models.Hole
	scores        map[string]models.HoleScore
	confirmations map[uuid.UUID]map[uuid.UUID]bool
	txs           []models.CreditTransaction
	keys          map[string]bool

	settleErr  error
	settleHook func()
	settles    int
}

func newMemRepo() *memRepo {
	return &memRepo{
		members:       map[uuid.UUID]*models.Member{},
		matches:       map[uuid.UUID]*models.Match{},
		participants:  map[uuid.UUID][]models.MatchParticipant{},
		holes:         map[uuid.UUID][]models.Hole{},
		scores:        map[string]models.HoleScore{},
		confirmations: map[uuid.UUID]map[uuid.UUID]bool{},
		keys:          map[string]bool{},
	}
}

func (r *memRepo) addMember(club uuid.UUID, name string, handicap, credits int) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := uuid.New()
	r.members[id] = &models.Member{ID: id, ClubID: club, DisplayName: name, Handicap: handicap, Credits: credits, Role: models.MemberRoleMember}
	return id
}

func (r *memRepo) setHandicap(id uuid.UUID, handicap int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[id].Handicap = handicap
}

func (r *memRepo) credits(id uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.members[id].Credits
}

func (r *memRepo) ListParticipants(_ context.Context, matchID uuid.UUID) ([]models.MatchParticipant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.MatchParticipant, 0, len(r.participants[matchID]))
	for _, p := range r.participants[matchID] {
		p.Member = *r.members[p.MemberID]
		out = append(out, p)
	}
	return out, nil
}

func (r *memRepo) ListHoles(_ context.Context, courseID uuid.UUID) ([]models.Hole, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Hole(nil), r.holes[courseID]...), nil
}

func (r *memRepo) CreateMatch(_ context.Context, m *models.Match, participants []models.MatchParticipant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = uuid.New()
	m.CreatedAt = time.Now()
	stored := *m
	r.matches[m.ID] = &stored
	for _, p := range participants {
		p.ID = uuid.New()
		p.MatchID = m.ID
		r.participants[m.ID] = append(r.participants[m.ID], p)
	}
	return nil
}

func (r *memRepo) GetMatch(_ context.Context, id uuid.UUID) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *memRepo) GetMember(_ context.Context, id uuid.UUID) (*models.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *memRepo) AddParticipant(_ context.Context, p *models.MatchParticipant, maxPlayers int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.participants[p.MatchID]
	if len(list) >= maxPlayers {
		return ErrInvalidState
	}
	for _, existing := range list {
		if existing.MemberID == p.MemberID {
			return ErrConflict
		}
	}
	p.ID = uuid.New()
	r.participants[p.MatchID] = append(list, *p)
	return nil
}

func (r *memRepo) AcceptInvite(_ context.Context, matchID, memberID uuid.UUID) error {
	return r.updateParticipant(matchID, memberID, func(p *models.MatchParticipant) { p.Accepted = true })
}

func (r *memRepo) SetTeam(_ context.Context, matchID, memberID uuid.UUID, team int) error {
	return r.updateParticipant(matchID, memberID, func(p *models.MatchParticipant) { p.TeamNumber = &team })
}

func (r *memRepo) updateParticipant(matchID, memberID uuid.UUID, fn func(*models.MatchParticipant)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.participants[matchID] {
		if r.participants[matchID][i].MemberID == memberID {
			fn(&r.participants[matchID][i])
			return nil
		}
	}
	return ErrNotFound
}

func (r *memRepo) TransitionStatus(_ context.Context, matchID uuid.UUID, from []models.MatchStatus, to models.MatchStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[matchID]
	if !ok {
		return false, ErrNotFound
	}
	for _, f := range from {
		if m.Status == f {
			m.Status = to
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) StartMatch(_ context.Context, matchID uuid.UUID, handicaps map[uuid.UUID]int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[matchID]
	if !ok {
		return false, ErrNotFound
	}
	if m.Status != models.MatchStatusPending && m.Status != models.MatchStatusOpen {
		return false, nil
	}
	m.Status = models.MatchStatusInProgress
	for i := range r.participants[matchID] {
		p := &r.participants[matchID][i]
		if h, ok := handicaps[p.MemberID]; ok {
			p.PlayingHandicap = &h
		}
	}
	return true, nil
}

func scoreKey(matchID uuid.UUID, token string, hole int) string {
	return fmt.Sprintf("%s/%s/%d", matchID, token, hole)
}

func (r *memRepo) UpsertHoleScore(_ context.Context, s *models.HoleScore) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scores[scoreKey(s.MatchID, s.ParticipantToken, s.HoleNumber)] = *s
	return nil
}

func (r *memRepo) ListHoleScores(_ context.Context, matchID uuid.UUID) ([]models.HoleScore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.HoleScore
	for _, s := range r.scores {
		if s.MatchID == matchID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memRepo) AddConfirmation(_ context.Context, matchID, memberID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.confirmations[matchID] == nil {
		r.confirmations[matchID] = map[uuid.UUID]bool{}
	}
	r.confirmations[matchID][memberID] = true
	return nil
}

func (r *memRepo) ListConfirmations(_ context.Context, matchID uuid.UUID) ([]models.MatchConfirmation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.MatchConfirmation
	for id := range r.confirmations[matchID] {
		out = append(out, models.MatchConfirmation{MatchID: matchID, MemberID: id})
	}
	return out, nil
}

func (r *memRepo) Settle(_ context.Context, s Settlement) error {
	if r.settleHook != nil {
		r.settleHook()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.settleErr != nil {
		return r.settleErr
	}
	m, ok := r.matches[s.MatchID]
	if !ok {
		return ErrNotFound
	}
	if m.Status != models.MatchStatusInProgress {
		return ErrConflict
	}
	m.Status = models.MatchStatusCompleted
	m.WinnerID = s.WinnerID
	m.ResultSummary = &s.Summary
	m.Result = s.Result
	completed := s.CompletedAt
	m.CompletedAt = &completed
	matchID := s.MatchID
	for _, d := range s.Deltas {
		if r.keys[d.Key] {
			continue
		}
		r.keys[d.Key] = true
		r.members[d.PlayerID].Credits += d.Amount
		r.txs = append(r.txs, models.CreditTransaction{
			ID: uuid.New(), MemberID: d.PlayerID, MatchID: &matchID,
			Delta: d.Amount, Reason: string(d.Kind), IdempotencyKey: d.Key,
		})
	}
	r.settles++
	return nil
}

func (r *memRepo) ListSettleable(_ context.Context, limit int) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []uuid.UUID
	for id, m := range r.matches {
		if m.Status != models.MatchStatusInProgress {
			continue
		}
		n := 0
		for _, p := range r.participants[id] {
			if p.Accepted {
				n++
			}
		}
		if n > 0 && len(r.confirmations[id]) == n {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRepo) ListCreditTransactions(_ context.Context, matchID uuid.UUID) ([]models.CreditTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.CreditTransaction
	for _, tx := range r.txs {
		if tx.MatchID != nil && *tx.MatchID == matchID {
			out = append(out, tx)
		}
	}
	return out, nil
}

// recordingNotifier keeps every published event.
type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (n *recordingNotifier) Publish(e Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) count(t EventType) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if e.Type == t {
			c++
		}
	}
	return c
}

// countingMetrics counts settlements by outcome.
type countingMetrics struct {
	NoOpMetrics
	mu        sync.Mutex
	outcomes  map[string]int
	conflicts int
	moved     int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{outcomes: map[string]int{}}
}

func (m *countingMetrics) RecordSettlement(_ scoring.Format, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[outcome]++
}

func (m *countingMetrics) RecordSettlementConflict() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflicts++
}

func (m *countingMetrics) RecordCreditsMoved(amount int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.moved += amount
}
