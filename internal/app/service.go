package app

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"thirteen/internal/domain"
)

// MinPlayersToStart is the minimum number of balance-eligible seated
// players a round needs. Centralized so tests and local runs can adjust
// the rule in one place.
const MinPlayersToStart = 2

// Client-fault errors. Their text is sent back to the offending
// participant verbatim; room state is never partially applied.
var (
	ErrRoundInProgress    = errors.New("a round is already in progress")
	ErrNoActiveRound      = errors.New("no round is active")
	ErrTooFewPlayers      = errors.New("need at least 2 eligible players")
	ErrNotSeated          = errors.New("you are not seated at this table")
	ErrNotYourTurn        = errors.New("it is not your turn")
	ErrNoCardsSelected    = errors.New("no cards selected")
	ErrCardsNotHeld       = errors.New("you do not hold all of those cards")
	ErrInvalidCombo       = errors.New("those cards do not form a playable combination")
	ErrComboTooWeak       = errors.New("that combination does not beat the table")
	ErrMustLeadDesignated = errors.New("the first play must include the 3 of spades")
	ErrPassedThisTrick    = errors.New("you already passed this trick")
	ErrMustOpenTrick      = errors.New("you must open the trick, passing is not allowed")
	ErrOwnTrickPass       = errors.New("you hold the current trick and cannot pass on it")
	ErrNoOpeningWindow    = errors.New("the opening seizure window is closed")
	ErrNotEligibleToRob   = errors.New("you are not eligible to seize the opening move")
	ErrRobComboGone       = errors.New("you no longer hold three linked pairs")
)

// Service contains the turn-engine use-cases operating on a table. All
// methods must be called from the table's single serialized worker; the
// service itself holds no table state.
type Service struct {
	rng *rand.Rand
}

// NewService constructs a Service with the provided rng or a
// time-seeded default.
func NewService(rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{rng: rng}
}

// StartRound deals a new round. Players whose cached balance is below
// minBalance are demoted to spectators first; at least two eligible
// seats must remain. The starter is the previous round's winner if
// still seated, else the holder of the 3 of spades, else whoever holds
// the lowest dealt card.
func (s *Service) StartRound(t *domain.Table, minBalance int64) ([]Event, error) {
	if t.Round.Active() {
		return nil, ErrRoundInProgress
	}

	demoted := t.DemoteBelow(minBalance)
	var demotedNames []string
	for _, p := range demoted {
		demotedNames = append(demotedNames, p.DisplayName)
	}
	if len(demotedNames) > 0 {
		t.Info = fmt.Sprintf("%v moved to spectators: balance under %d.", demotedNames, minBalance)
	}

	if len(t.Seated) < MinPlayersToStart {
		return nil, ErrTooFewPlayers
	}

	deck := domain.ShuffleDeck(s.rng, domain.NewDeck())
	hands := make(map[string][]domain.Card, len(t.Seated))
	for i, p := range t.Seated {
		hand := append([]domain.Card{}, deck[i*13:(i+1)*13]...)
		domain.SortCards(hand)
		hands[p.UserID] = hand
	}

	threeSpadesHolder := ""
	for id, hand := range hands {
		if domain.HandContains(hand, []domain.Card{domain.ThreeOfSpades}) {
			threeSpadesHolder = id
			break
		}
	}

	starterID := ""
	if t.PrevWinnerID != "" && t.SeatedIndex(t.PrevWinnerID) >= 0 {
		starterID = t.PrevWinnerID
	} else if threeSpadesHolder != "" {
		starterID = threeSpadesHolder
	} else {
		starterID = lowestCardHolder(t, hands)
	}

	opening := &domain.OpeningClaim{
		Eligible: make(map[string]bool),
		Declined: make(map[string]bool),
	}
	for _, p := range t.Seated {
		if p.UserID == starterID {
			continue
		}
		if domain.FindThreeConsecutivePairs(hands[p.UserID]) != nil {
			opening.Eligible[p.UserID] = true
		}
	}
	if len(opening.Eligible) == 0 {
		opening.Resolved = true
	}

	t.Round = &domain.Round{
		Hands:              hands,
		TurnIndex:          t.SeatedIndex(starterID),
		Passed:             make(map[string]bool),
		Opening:            opening,
		MustLeadDesignated: t.PrevWinnerID == "" && threeSpadesHolder != "",
	}
	t.LastResult = nil

	if t.PrevWinnerID != "" && starterID == t.PrevWinnerID {
		t.Info = fmt.Sprintf("%s won the last round and opens.", t.DisplayName(starterID))
	} else if t.Round.MustLeadDesignated {
		t.Info = "First round: the 3 of spades opens."
	} else {
		t.Info = fmt.Sprintf("%s holds the lowest card and opens.", t.DisplayName(starterID))
	}

	events := make([]Event, 0, len(t.Seated)+1)
	for _, p := range t.Seated {
		events = append(events, Event{
			Kind:       EventHandDealt,
			Payload:    HandDealtPayload{UserID: p.UserID, Hand: hands[p.UserID]},
			Recipients: []string{p.UserID},
		})
	}
	events = append(events, Event{
		Kind: EventRoundStarted,
		Payload: RoundStartedPayload{
			StarterID:      starterID,
			StarterIndex:   t.Round.TurnIndex,
			DemotedNames:   demotedNames,
			OpeningWindow:  !opening.Resolved,
			DesignatedLead: t.Round.MustLeadDesignated,
		},
	})
	return events, nil
}

func lowestCardHolder(t *domain.Table, hands map[string][]domain.Card) string {
	holder := ""
	best := int32(1 << 30)
	for _, p := range t.Seated {
		hand := hands[p.UserID]
		if len(hand) == 0 {
			continue
		}
		if pw := hand[0].Power(); pw < best {
			best = pw
			holder = p.UserID
		}
	}
	if holder == "" && len(t.Seated) > 0 {
		holder = t.Seated[0].UserID
	}
	return holder
}

// finishRound settles a finished round: every remaining loser pays the
// winner their hand units, deferred leave penalties are cashed in, and
// waiting spectators take the freed seats.
func (s *Service) finishRound(t *domain.Table, winnerID string, forced bool) []Event {
	r := t.Round
	r.Over = true
	r.WinnerID = winnerID
	t.PrevWinnerID = winnerID

	result := &domain.RoundResult{
		WinnerID:   winnerID,
		WinnerName: t.DisplayName(winnerID),
	}

	for _, p := range t.Seated {
		if p.UserID == winnerID {
			continue
		}
		hand := r.Hands[p.UserID]
		units := domain.RoundLossUnits(hand)
		note := fmt.Sprintf("%d cards left", len(hand))
		if len(hand) == 13 {
			note = "held full hand"
		}
		if extra := domain.PenaltyExtraUnits(hand); extra > 0 {
			note = fmt.Sprintf("%s + %d penalty units", note, extra)
		}
		if tr, ok := t.ApplyTransfer(p.UserID, winnerID, units, note); ok {
			result.Transfers = append(result.Transfers, tr)
			result.TotalUnits += tr.Units
			result.TotalAmount += tr.Amount
		}
	}

	for _, pen := range r.Penalties {
		note := fmt.Sprintf("leave penalty (%d cards left)", pen.CardCount)
		if tr, ok := t.ApplyTransfer(pen.UserID, winnerID, pen.Units, note); ok {
			result.Transfers = append(result.Transfers, tr)
			result.TotalUnits += tr.Units
			result.TotalAmount += tr.Amount
		}
	}
	r.Penalties = nil

	t.LastResult = result

	if forced {
		t.Info = fmt.Sprintf("%s wins the round: everyone else left the table.", result.WinnerName)
	} else {
		t.Info = fmt.Sprintf("%s wins the round!", result.WinnerName)
	}
	if promoted := t.PromoteSpectators(); len(promoted) > 0 {
		t.Info += fmt.Sprintf(" %v will play next round.", promoted)
	}

	return []Event{{
		Kind:    EventRoundEnded,
		Payload: RoundEndedPayload{Result: result, Forced: forced},
	}}
}
