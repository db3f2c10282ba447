// Package handlers contains HTTP route handler functions for the ClubStakes API.
// This file handles the /api/v1/matches routes: creating and joining matches,
// entering scores, confirming the card and reading the result.
//
// Each exported function follows the "handler factory" pattern: it takes the
// match service and returns a fiber.Handler, so dependencies are injected
// instead of living in globals.
//
// --- Permission model ---
//  1. Club scope (MatchInClub): every /matches/:id route first checks that the
//     match belongs to the caller's club and answers 404 otherwise, so clubs
//     never see each other's matches.
//  2. Participation: scoring and confirming are limited to players in the match,
//     enforced by the service.
//  3. Role: club admins may cancel any match in their club and force a settlement
//     retry (RequireRole on the route).
package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/arcieron/clubstakes-social-swing-sub000/internal/matches"
	"github.com/arcieron/clubstakes-social-swing-sub000/internal/middleware"
	"github.com/arcieron/clubstakes-social-swing-sub000/internal/models"
	"github.com/arcieron/clubstakes-social-swing-sub000/internal/scoring"
)

// MatchService is the part of matches.Service the HTTP layer calls.
type MatchService interface {
	CreateMatch(ctx context.Context, in matches.CreateMatchInput) (*models.Match, error)
	GetMatch(ctx context.Context, matchID uuid.UUID) (*models.Match, error)
	JoinMatch(ctx context.Context, matchID, memberID uuid.UUID, team *int) (*models.Match, error)
	AssignTeam(ctx context.Context, matchID, actorID, memberID uuid.UUID, team int) error
	CancelMatch(ctx context.Context, matchID, actorID uuid.UUID, actorRole models.MemberRole) error
	RecordScore(ctx context.Context, matchID, actorID uuid.UUID, token string, hole, gross int) error
	GetScores(ctx context.Context, matchID uuid.UUID) (map[string][scoring.Holes]int, error)
	Scorecard(ctx context.Context, matchID uuid.UUID) (*matches.ScorecardView, error)
	Confirm(ctx context.Context, matchID, memberID uuid.UUID) (matches.ConfirmationStatus, error)
	ConfirmationStatus(ctx context.Context, matchID uuid.UUID) (matches.ConfirmationStatus, error)
	Settle(ctx context.Context, matchID uuid.UUID) (*scoring.Result, error)
	PreviewResult(ctx context.Context, matchID uuid.UUID) (*scoring.Result, error)
	CreditHistory(ctx context.Context, matchID uuid.UUID) ([]models.CreditTransaction, error)
}

const localMatch = "match"

// MatchResponse is what we send back to the app for a match.
type MatchResponse struct {
	ID            string                `json:"id"`
	ClubID        string                `json:"club_id"`
	CreatedBy     string                `json:"created_by"`
	CourseID      *string               `json:"course_id"`
	Format        string                `json:"format"`
	TeamFormat    string                `json:"team_format"`
	ScoringMode   string                `json:"scoring_mode"`
	WagerAmount   int                   `json:"wager_amount"`
	MaxPlayers    int                   `json:"max_players"`
	ScheduledDate *string               `json:"scheduled_date"`
	Status        string                `json:"status"`
	WinnerID      *string               `json:"winner_id"`
	ResultSummary *string               `json:"result_summary"`
	CompletedAt   *string               `json:"completed_at"`
	Participants  []ParticipantResponse `json:"participants"`
	CreatedAt     string                `json:"created_at"`
}

// ParticipantResponse is one player in a MatchResponse.
type ParticipantResponse struct {
	MemberID        string `json:"member_id"`
	DisplayName     string `json:"display_name"`
	Handicap        int    `json:"handicap"`
	PlayingHandicap *int   `json:"playing_handicap"` // fixed when the match started
	TeamNumber      *int   `json:"team_number"`
	Accepted        bool   `json:"accepted"`
}

// CreateMatchRequest is the JSON body we expect on POST /api/v1/matches.
type CreateMatchRequest struct {
	CourseID      *string  `json:"course_id"`
	Format        string   `json:"format"`       // one of the six formats, e.g. "nassau"
	TeamFormat    string   `json:"team_format"`  // "individual" (default) or "teams"
	ScoringMode   string   `json:"scoring_mode"` // "gross" (default) or "net"
	WagerAmount   int      `json:"wager_amount"`
	MaxPlayers    int      `json:"max_players"`
	ScheduledDate *string  `json:"scheduled_date"` // "YYYY-MM-DD"
	TeamNumber    *int     `json:"team_number"`    // creator's team in team matches
	Invitees      []string `json:"invitees"`       // member IDs; holds a seat for each until they accept
}

type joinRequest struct {
	TeamNumber *int `json:"team_number"`
}

type teamRequest struct {
	MemberID   string `json:"member_id"`
	TeamNumber int    `json:"team_number"`
}

type scoreRequest struct {
	Token string `json:"participant_token"` // member ID, or "team_<n>" for team cards
	Hole  int    `json:"hole_number"`
	Gross int    `json:"gross_score"` // 0 clears the hole
}

func toMatchResponse(m *models.Match) MatchResponse {
	resp := MatchResponse{
		ID:            m.ID.String(),
		ClubID:        m.ClubID.String(),
		CreatedBy:     m.CreatedBy.String(),
		CourseID:      optionalID(m.CourseID),
		Format:        string(m.Format),
		TeamFormat:    string(m.TeamFormat),
		ScoringMode:   string(m.ScoringMode),
		WagerAmount:   m.WagerAmount,
		MaxPlayers:    m.MaxPlayers,
		ScheduledDate: formatOptionalDate(m.ScheduledDate),
		Status:        string(m.Status),
		WinnerID:      optionalID(m.WinnerID),
		ResultSummary: m.ResultSummary,
		Participants:  make([]ParticipantResponse, 0, len(m.Participants)),
		CreatedAt:     m.CreatedAt.UTC().Format(time.RFC3339),
	}
	if m.CompletedAt != nil {
		s := m.CompletedAt.UTC().Format(time.RFC3339)
		resp.CompletedAt = &s
	}
	for _, p := range m.Participants {
		resp.Participants = append(resp.Participants, ParticipantResponse{
			MemberID:        p.MemberID.String(),
			DisplayName:     p.Member.DisplayName,
			Handicap:        p.Member.Handicap,
			PlayingHandicap: p.PlayingHandicap,
			TeamNumber:      p.TeamNumber,
			Accepted:        p.Accepted,
		})
	}
	return resp
}

func optionalID(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

// formatOptionalDate converts a *time.Time to a *string in "2006-01-02" format.
func formatOptionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format("2006-01-02")
	return &s
}

// parseOptionalDate parses an optional "YYYY-MM-DD" string. nil or empty gives nil.
func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// respondError maps service errors to HTTP status codes. Server-side failures
// get a generic message; client errors carry the reason.
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, matches.ErrValidation):
		status = fiber.StatusBadRequest
	case errors.Is(err, matches.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, matches.ErrForbidden):
		status = fiber.StatusForbidden
	case errors.Is(err, matches.ErrConflict), errors.Is(err, matches.ErrInvalidState):
		status = fiber.StatusConflict
	case errors.Is(err, matches.ErrDependency):
		status = fiber.StatusBadGateway
	}
	if status >= fiber.StatusInternalServerError {
		msg := "internal error"
		if status == fiber.StatusBadGateway {
			msg = "a backing service failed, try again"
		}
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// MatchInClub loads the :id match and rejects it unless it belongs to the
// caller's club. The loaded match is available to later handlers.
func MatchInClub(svc MatchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return badRequest(c, "invalid match ID")
		}
		m, err := svc.GetMatch(c.UserContext(), id)
		if err != nil {
			return respondError(c, err)
		}
		if m.ClubID != middleware.ClubID(c) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "match not found"})
		}
		c.Locals(localMatch, m)
		return c.Next()
	}
}

func currentMatch(c *fiber.Ctx) *models.Match {
	m, _ := c.Locals(localMatch).(*models.Match)
	return m
}

// CreateMatch returns a handler for POST /api/v1/matches.
func CreateMatch(svc MatchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CreateMatchRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		scheduled, err := parseOptionalDate(req.ScheduledDate)
		if err != nil {
			return badRequest(c, "scheduled_date must be in YYYY-MM-DD format")
		}
		var courseID *uuid.UUID
		if req.CourseID != nil && *req.CourseID != "" {
			id, err := uuid.Parse(*req.CourseID)
			if err != nil {
				return badRequest(c, "invalid course_id")
			}
			courseID = &id
		}
		invitees := make([]uuid.UUID, 0, len(req.Invitees))
		for _, s := range req.Invitees {
			id, err := uuid.Parse(s)
			if err != nil {
				return badRequest(c, "invalid invitee ID")
			}
			invitees = append(invitees, id)
		}

		m, err := svc.CreateMatch(c.UserContext(), matches.CreateMatchInput{
			ClubID:        middleware.ClubID(c),
			CreatorID:     middleware.MemberID(c),
			CourseID:      courseID,
			Format:        req.Format,
			TeamFormat:    req.TeamFormat,
			ScoringMode:   req.ScoringMode,
			WagerAmount:   req.WagerAmount,
			MaxPlayers:    req.MaxPlayers,
			ScheduledDate: scheduled,
			CreatorTeam:   req.TeamNumber,
			Invitees:      invitees,
		})
		if err != nil {
			return respondError(c, err)
		}
		full, err := svc.GetMatch(c.UserContext(), m.ID)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(toMatchResponse(full))
	}
}

// GetMatch returns a handler for GET /api/v1/matches/:id.
func GetMatch() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(toMatchResponse(currentMatch(c)))
	}
}

// JoinMatch returns a handler for POST /api/v1/matches/:id/join.
func JoinMatch(svc MatchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req joinRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return badRequest(c, "invalid request body")
			}
		}
		if _, err := svc.JoinMatch(c.UserContext(), currentMatch(c).ID, middleware.MemberID(c), req.TeamNumber); err != nil {
			return respondError(c, err)
		}
		m, err := svc.GetMatch(c.UserContext(), currentMatch(c).ID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(toMatchResponse(m))
	}
}

// AssignTeam returns a handler for PUT /api/v1/matches/:id/teams.
func AssignTeam(svc MatchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req teamRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		memberID, err := uuid.Parse(req.MemberID)
		if err != nil {
			return badRequest(c, "invalid member_id")
		}
		if err := svc.AssignTeam(c.UserContext(), currentMatch(c).ID, middleware.MemberID(c), memberID, req.TeamNumber); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// CancelMatch returns a handler for POST /api/v1/matches/:id/cancel.
func CancelMatch(svc MatchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.CancelMatch(c.UserContext(), currentMatch(c).ID, middleware.MemberID(c), middleware.Role(c)); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// RecordScore returns a handler for PUT /api/v1/matches/:id/scores.
func RecordScore(svc MatchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req scoreRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		err := svc.RecordScore(c.UserContext(), currentMatch(c).ID, middleware.MemberID(c), req.Token, req.Hole, req.Gross)
		if err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GetScores returns a handler for GET /api/v1/matches/:id/scores.
func GetScores(svc MatchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		scores, err := svc.GetScores(c.UserContext(), currentMatch(c).ID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(scores)
	}
}

// GetScorecard returns a handler for GET /api/v1/matches/:id/scorecard.
func GetScorecard(svc MatchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		view, err := svc.Scorecard(c.UserContext(), currentMatch(c).ID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(view)
	}
}

// Confirm returns a handler for POST /api/v1/matches/:id/confirm.
func Confirm(svc MatchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status, err := svc.Confirm(c.UserContext(), currentMatch(c).ID, middleware.MemberID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(status)
	}
}

// GetConfirmations returns a handler for GET /api/v1/matches/:id/confirmations.
func GetConfirmations(svc MatchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status, err := svc.ConfirmationStatus(c.UserContext(), currentMatch(c).ID)
		if err != nil {
			return respondError(c, err)
		}
		status.Settled = currentMatch(c).Status == models.MatchStatusCompleted
		return c.JSON(status)
	}
}

// GetResult returns a handler for GET /api/v1/matches/:id/result: the standing
// result of the card as it is now. For a completed match this is the settled result.
func GetResult(svc MatchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.PreviewResult(c.UserContext(), currentMatch(c).ID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	}
}

// SettleMatch returns a handler for POST /api/v1/matches/:id/settle, the admin
// retry for a fully confirmed match whose settlement failed.
func SettleMatch(svc MatchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.Settle(c.UserContext(), currentMatch(c).ID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	}
}

// GetCredits returns a handler for GET /api/v1/matches/:id/credits.
func GetCredits(svc MatchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		txs, err := svc.CreditHistory(c.UserContext(), currentMatch(c).ID)
		if err != nil {
			return respondError(c, err)
		}
		type entry struct {
			MemberID  string `json:"member_id"`
			Delta     int    `json:"delta"`
			Reason    string `json:"reason"`
			CreatedAt string `json:"created_at"`
		}
		out := make([]entry, 0, len(txs))
		for _, tx := range txs {
			out = append(out, entry{
				MemberID:  tx.MemberID.String(),
				Delta:     tx.Delta,
				Reason:    tx.Reason,
				CreatedAt: tx.CreatedAt.UTC().Format(time.RFC3339),
			})
		}
		return c.JSON(out)
	}
}
