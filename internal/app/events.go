package app

import "thirteen/internal/domain"

// EventKind identifies emitted engine events for transport dispatch.
type EventKind string

const (
	EventRoundStarted    EventKind = "round_started"
	EventHandDealt       EventKind = "hand_dealt"
	EventCardsPlayed     EventKind = "cards_played"
	EventTurnPassed      EventKind = "turn_passed"
	EventOpeningClaimed  EventKind = "opening_claimed"
	EventOpeningDeclined EventKind = "opening_declined"
	EventMoneyMoved      EventKind = "money_moved"
	EventRoundEnded      EventKind = "round_ended"
	EventPlayerLeft      EventKind = "player_left"
)

// Event is an engine event with optional targeted recipients; an empty
// recipient list means broadcast.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string
}

// TurnChanging reports whether the event moved the turn pointer, which
// is what decides whether the per-turn timer must be re-armed.
func (e Event) TurnChanging() bool {
	switch e.Kind {
	case EventRoundStarted, EventCardsPlayed, EventTurnPassed, EventOpeningClaimed, EventPlayerLeft:
		return true
	default:
		return false
	}
}

type RoundStartedPayload struct {
	StarterID      string
	StarterIndex   int
	DemotedNames   []string
	OpeningWindow  bool
	DesignatedLead bool
}

type HandDealtPayload struct {
	UserID string
	Hand   []domain.Card
}

type CardsPlayedPayload struct {
	UserID string
	Cards  []domain.Card
	Combo  domain.Combo
}

type TurnPassedPayload struct {
	UserID      string
	Forced      bool
	TrickClosed bool
}

type OpeningClaimedPayload struct {
	UserID string
	Cards  []domain.Card
}

type OpeningDeclinedPayload struct {
	UserID string
}

type MoneyMovedPayload struct {
	Transfer domain.Transfer
}

type RoundEndedPayload struct {
	Result *domain.RoundResult
	Forced bool
}

type PlayerLeftPayload struct {
	UserID      string
	WasSeated   bool
	RoundActive bool
}
