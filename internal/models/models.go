// Package models defines the data structures (models) that map to database tables.
// GORM uses these structs to generate SQL queries and map database rows back to Go values.
// The struct field tags (the backtick strings like `gorm:"..."`) tell GORM how to handle
// each field: its column type, constraints, default values, and relationships.
//
// The data model represents a private golf club where members wager credits on matches:
//   - Members belong to a Club and hold a credit balance and a handicap
//   - Matches are played at Courses (optional) under one of six game formats
//   - MatchParticipants join Members to a Match, optionally on a team
//   - HoleScores record gross strokes per participant token per hole
//   - MatchConfirmations record who has signed off on the final card
//   - CreditTransactions record every change to a member's credit balance
package models

import (
	"time"

	// uuid provides universally unique identifiers for primary keys.
	"github.com/google/uuid"

	"github.com/arcieron/clubstakes-social-swing-sub000/internal/scoring"
)

// --- Enums ---
// Go doesn't have a built-in enum keyword, so we simulate them using a named string type
// plus constants. Game format, team format and scoring mode live in the scoring package
// because the scoring algorithms dispatch on them.

// MemberRole is a member's permission level within their club.
type MemberRole string

const (
	MemberRoleAdmin  MemberRole = "admin"  // Club staff: manage members, courses, cancel matches
	MemberRoleMember MemberRole = "member" // Regular member: create, join and score matches
)

// MatchStatus tracks the lifecycle of a match.
// pending|open -> in_progress -> completed, or -> cancelled. Both end states are terminal.
type MatchStatus string

const (
	MatchStatusPending    MatchStatus = "pending"     // Created with named invitees who haven't all joined
	MatchStatusOpen       MatchStatus = "open"        // Posted for any club member to join
	MatchStatusInProgress MatchStatus = "in_progress" // Full roster; scores and confirmations accumulate
	MatchStatusCompleted  MatchStatus = "completed"   // Settled; credits transferred exactly once
	MatchStatusCancelled  MatchStatus = "cancelled"   // Abandoned before settlement
)

// Terminal reports whether no further transition is possible.
func (s MatchStatus) Terminal() bool {
	return s == MatchStatusCompleted || s == MatchStatusCancelled
}

// --- Models ---

// Club is the tenant boundary: members, courses and matches all belong to one club.
type Club struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name            string    `gorm:"not null"`
	StartingCredits int       `gorm:"not null;default:10000"` // Allotment granted to each new member
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Member is a person in a club. Members are linked to Clerk identities by ClerkID;
// registration through invite codes happens outside this service.
type Member struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClubID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	Club        Club       `gorm:"foreignKey:ClubID"`
	ClerkID     *string    `gorm:"uniqueIndex:idx_members_clerk_id"` // Clerk's user ID; pointer = nullable for seeded rows
	DisplayName string     `gorm:"not null"`
	Email       string     `gorm:"not null;default:''"`
	Role        MemberRole `gorm:"type:member_role;not null;default:'member'"`
	Handicap    int        `gorm:"not null;default:0"` // 0–54
	Credits     int        `gorm:"not null;default:0"` // Only ever changed by credits = credits + delta
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Course is a golf course configured by club staff.
type Course struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClubID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Holes     []Hole `gorm:"foreignKey:CourseID"`
}

// Hole stores par and difficulty rating for one hole of a course.
// HandicapRating 1 is the hardest hole and receives the first handicap stroke.
type Hole struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CourseID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_course_hole"`
	HoleNumber     int       `gorm:"not null;uniqueIndex:idx_course_hole"` // 1–18
	Par            int       `gorm:"not null"`                             // 3–6
	HandicapRating int       `gorm:"not null"`                             // 1–18, a permutation per course
}

// Match is one wagered round between club members.
type Match struct {
	ID            uuid.UUID          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClubID        uuid.UUID          `gorm:"type:uuid;not null;index"`
	CreatedBy     uuid.UUID          `gorm:"type:uuid;not null"`
	CourseID      *uuid.UUID         `gorm:"type:uuid"` // nil = standard par table
	Format        scoring.Format     `gorm:"type:match_format;not null"`
	TeamFormat    scoring.TeamFormat `gorm:"type:team_format;not null;default:'individual'"`
	ScoringMode   scoring.Mode       `gorm:"type:scoring_mode;not null;default:'gross'"`
	WagerAmount   int                `gorm:"not null"` // Credits staked per participant; always > 0
	MaxPlayers    int                `gorm:"not null"`
	ScheduledDate *time.Time
	Status        MatchStatus `gorm:"type:match_status;not null;default:'pending'"`
	WinnerID      *uuid.UUID  `gorm:"type:uuid"` // Set only on completion; nil for shared results
	CompletedAt   *time.Time
	ResultSummary *string
	Result        []byte `gorm:"type:jsonb"` // Full settled result; nil until completed
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Participants  []MatchParticipant `gorm:"foreignKey:MatchID"`
}

// MatchParticipant places a member in a match. A member appears at most once per match.
type MatchParticipant struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MatchID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_match_member"`
	MemberID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_match_member"`
	Member     Member    `gorm:"foreignKey:MemberID"`
	TeamNumber *int      // nil for individual matches
	Accepted   bool      `gorm:"not null;default:true"` // false for invitees who haven't joined yet
	CreatedAt  time.Time

	// PlayingHandicap is the member's handicap copied when the match starts.
	// Scoring uses it in place of the live handicap once set.
	PlayingHandicap *int
}

// HoleScore is one gross score keyed by (match, participant token, hole).
// ParticipantToken is a member UUID, or "team_<n>" for a team-level card.
type HoleScore struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MatchID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_match_token_hole"`
	ParticipantToken string    `gorm:"not null;uniqueIndex:idx_match_token_hole"`
	HoleNumber       int       `gorm:"not null;uniqueIndex:idx_match_token_hole"` // 1–18
	GrossScore       int       `gorm:"not null"`                                  // 0 = cleared / not entered
	EnteredBy        uuid.UUID `gorm:"type:uuid;not null"`
	EnteredAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

// MatchConfirmation records that a participant accepts the current card as final.
// The composite primary key allows one confirmation per member per match.
type MatchConfirmation struct {
	MatchID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	MemberID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	ConfirmedAt time.Time `gorm:"autoCreateTime"`
}

// CreditTransaction is one entry in the credit ledger. IdempotencyKey is unique so a
// settlement that is replayed cannot move credits twice.
type CreditTransaction struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MemberID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	MatchID        *uuid.UUID `gorm:"type:uuid;index"`
	Delta          int        `gorm:"not null"`
	Reason         string     `gorm:"not null"` // "stake" or "payout"
	IdempotencyKey string     `gorm:"not null;uniqueIndex"`
	CreatedAt      time.Time
}
