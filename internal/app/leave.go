package app

import (
	"fmt"

	"thirteen/internal/domain"
)

// Leave removes a user from the table. A seated player leaving an
// active round forfeits their hand: the eventual winner collects a
// penalty sized by the cards they abandoned. When only one seated
// player remains the round ends immediately in their favor.
func (s *Service) Leave(t *domain.Table, userID string) []Event {
	r := t.Round
	wasSeated := t.SeatedIndex(userID) >= 0
	roundActive := r.Active()

	if !wasSeated {
		if _, _, ok := t.Remove(userID); !ok {
			return nil
		}
		t.Info = fmt.Sprintf("%s left the table.", t.DisplayName(userID))
		return []Event{{
			Kind:    EventPlayerLeft,
			Payload: PlayerLeftPayload{UserID: userID},
		}}
	}

	name := t.DisplayName(userID)

	if roundActive {
		if hand := r.Hands[userID]; len(hand) > 0 {
			r.RecordPenalty(userID, name, hand)
			t.PushMoneyEvent(fmt.Sprintf("Leave penalty pending: %s owes %d unit(s)",
				name, domain.LeavePenaltyUnits(hand)))
		}
		delete(r.Hands, userID)
		delete(r.Passed, userID)
		if r.Trick != nil && r.Trick.OwnerID == userID {
			r.ClearTrick()
		}
		if r.Opening != nil {
			r.Opening.Decline(userID)
		}
	}

	_, seatIdx, ok := t.Remove(userID)
	if !ok {
		return nil
	}

	if t.OwnerID == userID {
		switch {
		case len(t.Seated) > 0:
			t.OwnerID = t.Seated[0].UserID
		case len(t.Spectators) > 0:
			t.OwnerID = t.Spectators[0].UserID
		default:
			t.OwnerID = ""
		}
	}

	events := []Event{{
		Kind:    EventPlayerLeft,
		Payload: PlayerLeftPayload{UserID: userID, WasSeated: true, RoundActive: roundActive},
	}}

	if roundActive {
		r.NormalizeTurnAfterRemoval(t.SeatOrder(), seatIdx)
		if len(t.Seated) == 0 {
			r.Over = true
			t.Round = nil
			t.PromoteSpectators()
			t.Info = "The round was abandoned."
			return events
		}
		if len(t.Seated) == 1 {
			t.Info = fmt.Sprintf("%s left. The round ends.", name)
			events = append(events, s.finishRound(t, t.Seated[0].UserID, true)...)
			return events
		}
		t.Info = fmt.Sprintf("%s abandoned the round.", name)
		return events
	}

	promoted := t.PromoteSpectators()
	if len(promoted) > 0 {
		t.Info = fmt.Sprintf("%s left. %d spectator(s) took a seat.", name, len(promoted))
	} else {
		t.Info = fmt.Sprintf("%s left the table.", name)
	}
	return events
}
