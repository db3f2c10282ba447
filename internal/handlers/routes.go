package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/arcieron/clubstakes-social-swing-sub000/internal/middleware"
	"github.com/arcieron/clubstakes-social-swing-sub000/internal/models"
)

// RegisterMatchRoutes mounts the match API on an authenticated router.
//
//	POST /matches                    create a match
//	GET  /matches/:id                match with roster
//	POST /matches/:id/join           join, or accept an invitation
//	PUT  /matches/:id/teams          put a player on a team
//	POST /matches/:id/cancel         creator or club admin
//	PUT  /matches/:id/scores         upsert one hole score
//	GET  /matches/:id/scores         every entered score
//	GET  /matches/:id/scorecard      card with pars and match-play hole results
//	POST /matches/:id/confirm        sign the card; the last signature settles
//	GET  /matches/:id/confirmations  confirmation progress
//	GET  /matches/:id/result         result of the card as it stands
//	GET  /matches/:id/credits        credit ledger entries from settlement
//	POST /matches/:id/settle         admin retry of a stuck settlement
//	GET  /matches/:id/events         live event stream
func RegisterMatchRoutes(router fiber.Router, svc MatchService, hub Subscriber) {
	router.Post("/matches", CreateMatch(svc))

	match := router.Group("/matches/:id", MatchInClub(svc))
	match.Get("/", GetMatch())
	match.Post("/join", JoinMatch(svc))
	match.Put("/teams", AssignTeam(svc))
	match.Post("/cancel", CancelMatch(svc))
	match.Put("/scores", RecordScore(svc))
	match.Get("/scores", GetScores(svc))
	match.Get("/scorecard", GetScorecard(svc))
	match.Post("/confirm", Confirm(svc))
	match.Get("/confirmations", GetConfirmations(svc))
	match.Get("/result", GetResult(svc))
	match.Get("/credits", GetCredits(svc))
	match.Post("/settle", middleware.RequireRole(models.MemberRoleAdmin), SettleMatch(svc))
	match.Get("/events", StreamMatch(hub))
}
