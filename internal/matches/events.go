package matches

import "github.com/google/uuid"

// EventType names a change that viewers of a match may want to hear about.
type EventType string

const (
	EventMatchStarted      EventType = "match_started"
	EventScoreUpdated      EventType = "score_updated"
	EventConfirmationAdded EventType = "confirmation_added"
	EventMatchSettled      EventType = "match_settled"
	EventMatchCancelled    EventType = "match_cancelled"
)

// Event is published after the change it describes has been committed.
type Event struct {
	Type    EventType `json:"type"`
	MatchID uuid.UUID `json:"match_id"`
	Payload any       `json:"payload,omitempty"`
}

// Notifier delivers match events to whoever subscribed to the match.
// Publish must not block on slow subscribers.
type Notifier interface {
	Publish(e Event)
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) Publish(Event) {}

// ScorePayload accompanies EventScoreUpdated.
type ScorePayload struct {
	Token string `json:"token"`
	Hole  int    `json:"hole"`
	Gross int    `json:"gross"`
}

// ConfirmationPayload accompanies EventConfirmationAdded.
type ConfirmationPayload struct {
	MemberID  uuid.UUID `json:"member_id"`
	Confirmed int       `json:"confirmed"`
	Required  int       `json:"required"`
}
