// Package repository is the PostgreSQL persistence for matches, built on GORM.
// Every method takes a context so request cancellation reaches the database.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arcieron/clubstakes-social-swing-sub000/internal/matches"
	"github.com/arcieron/clubstakes-social-swing-sub000/internal/models"
)

// MatchStore implements matches.Repository.
type MatchStore struct {
	db *gorm.DB
}

var _ matches.Repository = (*MatchStore)(nil)

// NewMatchStore wraps an open GORM handle.
func NewMatchStore(db *gorm.DB) *MatchStore {
	return &MatchStore{db: db}
}

// notFound turns GORM's missing-row error into the domain one.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, matches.ErrNotFound)
	}
	return err
}

func (s *MatchStore) ListParticipants(ctx context.Context, matchID uuid.UUID) ([]models.MatchParticipant, error) {
	var participants []models.MatchParticipant
	err := s.db.WithContext(ctx).
		Preload("Member").
		Where("match_id = ?", matchID).
		Order("created_at, member_id").
		Find(&participants).Error
	return participants, err
}

func (s *MatchStore) ListHoles(ctx context.Context, courseID uuid.UUID) ([]models.Hole, error) {
	var holes []models.Hole
	err := s.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("hole_number").
		Find(&holes).Error
	return holes, err
}

// CreateMatch inserts the match and its initial roster in one transaction.
func (s *MatchStore) CreateMatch(ctx context.Context, m *models.Match, participants []models.MatchParticipant) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(m).Error; err != nil {
			return err
		}
		if len(participants) == 0 {
			return nil
		}
		for i := range participants {
			participants[i].MatchID = m.ID
		}
		return tx.Omit(clause.Associations).Create(&participants).Error
	})
}

func (s *MatchStore) GetMatch(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	var m models.Match
	if err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "match")
	}
	return &m, nil
}

func (s *MatchStore) GetMember(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	var m models.Member
	if err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "member")
	}
	return &m, nil
}

// AddParticipant locks the match row so two members racing for the last seat
// cannot both get it.
func (s *MatchStore) AddParticipant(ctx context.Context, p *models.MatchParticipant, maxPlayers int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.Match
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&m, "id = ?", p.MatchID).Error; err != nil {
			return notFound(err, "match")
		}

		var count int64
		if err := tx.Model(&models.MatchParticipant{}).Where("match_id = ?", p.MatchID).Count(&count).Error; err != nil {
			return err
		}
		if int(count) >= maxPlayers {
			return fmt.Errorf("match is full: %w", matches.ErrInvalidState)
		}

		err := tx.Omit(clause.Associations).Create(p).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("already in match: %w", matches.ErrConflict)
		}
		return err
	})
}

func (s *MatchStore) AcceptInvite(ctx context.Context, matchID, memberID uuid.UUID) error {
	return s.updateParticipant(ctx, matchID, memberID, "accepted", true)
}

func (s *MatchStore) SetTeam(ctx context.Context, matchID, memberID uuid.UUID, team int) error {
	return s.updateParticipant(ctx, matchID, memberID, "team_number", team)
}

func (s *MatchStore) updateParticipant(ctx context.Context, matchID, memberID uuid.UUID, column string, value any) error {
	res := s.db.WithContext(ctx).
		Model(&models.MatchParticipant{}).
		Where("match_id = ? AND member_id = ?", matchID, memberID).
		Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("participant: %w", matches.ErrNotFound)
	}
	return nil
}

// TransitionStatus is a compare-and-set on the status column.
func (s *MatchStore) TransitionStatus(ctx context.Context, matchID uuid.UUID, from []models.MatchStatus, to models.MatchStatus) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Match{}).
		Where("id = ? AND status IN ?", matchID, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// StartMatch flips the match to in_progress and fixes every playing handicap
// in one transaction. Nothing is written when the status compare-and-set misses.
func (s *MatchStore) StartMatch(ctx context.Context, matchID uuid.UUID, handicaps map[uuid.UUID]int) (bool, error) {
	started := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Match{}).
			Where("id = ? AND status IN ?", matchID, []models.MatchStatus{models.MatchStatusPending, models.MatchStatusOpen}).
			Updates(map[string]any{"status": models.MatchStatusInProgress, "updated_at": time.Now().UTC()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		for memberID, handicap := range handicaps {
			err := tx.Model(&models.MatchParticipant{}).
				Where("match_id = ? AND member_id = ?", matchID, memberID).
				Update("playing_handicap", handicap).Error
			if err != nil {
				return err
			}
		}
		started = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return started, nil
}

// UpsertHoleScore writes one score, overwriting any earlier entry for the
// same (match, token, hole).
func (s *MatchStore) UpsertHoleScore(ctx context.Context, score *models.HoleScore) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "match_id"}, {Name: "participant_token"}, {Name: "hole_number"}},
		DoUpdates: clause.AssignmentColumns([]string{"gross_score", "entered_by", "updated_at"}),
	}).Create(score).Error
}

func (s *MatchStore) ListHoleScores(ctx context.Context, matchID uuid.UUID) ([]models.HoleScore, error) {
	var scores []models.HoleScore
	err := s.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("participant_token, hole_number").
		Find(&scores).Error
	return scores, err
}

func (s *MatchStore) AddConfirmation(ctx context.Context, matchID, memberID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.MatchConfirmation{MatchID: matchID, MemberID: memberID}).Error
}

func (s *MatchStore) ListConfirmations(ctx context.Context, matchID uuid.UUID) ([]models.MatchConfirmation, error) {
	var confirmations []models.MatchConfirmation
	err := s.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("confirmed_at").
		Find(&confirmations).Error
	return confirmations, err
}

// Settle completes the match and applies every credit delta in a single
// transaction. The status update only matches a row that is still in_progress,
// so of two concurrent settlements exactly one sees a row affected; the other
// rolls back with ErrConflict. Each delta is recorded under its idempotency
// key before the balance moves, and a key that already exists is skipped.
func (s *MatchStore) Settle(ctx context.Context, st matches.Settlement) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Match{}).
			Where("id = ? AND status = ?", st.MatchID, models.MatchStatusInProgress).
			Updates(map[string]any{
				"status":         models.MatchStatusCompleted,
				"winner_id":      st.WinnerID,
				"completed_at":   st.CompletedAt,
				"result_summary": st.Summary,
				"result":         st.Result,
				"updated_at":     st.CompletedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("match %s is not in progress: %w", st.MatchID, matches.ErrConflict)
		}

		matchID := st.MatchID
		for _, d := range st.Deltas {
			entry := models.CreditTransaction{
				ID:             uuid.New(),
				MemberID:       d.PlayerID,
				MatchID:        &matchID,
				Delta:          d.Amount,
				Reason:         string(d.Kind),
				IdempotencyKey: d.Key,
			}
			ins := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "idempotency_key"}},
				DoNothing: true,
			}).Create(&entry)
			if ins.Error != nil {
				return ins.Error
			}
			if ins.RowsAffected == 0 {
				continue
			}

			upd := tx.Model(&models.Member{}).
				Where("id = ?", d.PlayerID).
				Update("credits", gorm.Expr("credits + ?", d.Amount))
			if upd.Error != nil {
				return upd.Error
			}
			if upd.RowsAffected == 0 {
				return fmt.Errorf("member %s: %w", d.PlayerID, matches.ErrNotFound)
			}
		}
		return nil
	})
}

const settleableQuery = `
SELECT m.id
FROM matches m
WHERE m.status = 'in_progress'
  AND EXISTS (
    SELECT 1 FROM match_participants p
    WHERE p.match_id = m.id AND p.accepted
  )
  AND NOT EXISTS (
    SELECT 1 FROM match_participants p
    WHERE p.match_id = m.id AND p.accepted
      AND NOT EXISTS (
        SELECT 1 FROM match_confirmations c
        WHERE c.match_id = p.match_id AND c.member_id = p.member_id
      )
  )
ORDER BY m.updated_at
LIMIT ?`

func (s *MatchStore) ListSettleable(ctx context.Context, limit int) ([]uuid.UUID, error) {
	var rows []struct{ ID uuid.UUID }
	if err := s.db.WithContext(ctx).Raw(settleableQuery, limit).Scan(&rows).Error; err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

func (s *MatchStore) ListCreditTransactions(ctx context.Context, matchID uuid.UUID) ([]models.CreditTransaction, error) {
	var txs []models.CreditTransaction
	err := s.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("created_at, id").
		Find(&txs).Error
	return txs, err
}
