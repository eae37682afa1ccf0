package app

import (
	"fmt"

	"thirteen/internal/domain"
)

// PlayCards validates and applies a play for the given user. On success
// the trick is replaced, any chop settlement against the previous trick
// is applied, and either the turn advances or the round ends with this
// player as winner.
func (s *Service) PlayCards(t *domain.Table, userID string, cards []domain.Card) ([]Event, error) {
	r := t.Round
	if !r.Active() {
		return nil, ErrNoActiveRound
	}
	idx := t.SeatedIndex(userID)
	if idx < 0 {
		return nil, ErrNotSeated
	}
	if r.TurnIndex != idx {
		return nil, ErrNotYourTurn
	}
	if len(cards) == 0 {
		return nil, ErrNoCardsSelected
	}

	hand := r.Hands[userID]
	if !domain.HandContains(hand, cards) {
		return nil, ErrCardsNotHeld
	}
	if r.Trick != nil && r.Passed[userID] {
		return nil, ErrPassedThisTrick
	}

	// The designated-lead rule dissolves the moment the opener no
	// longer holds the exact card, so it can never deadlock the round.
	if r.MustLeadDesignated && !domain.HandContains(hand, []domain.Card{domain.ThreeOfSpades}) {
		r.MustLeadDesignated = false
		t.Info = "Designated-lead rule lifted: the 3 of spades is gone."
	}

	combo, ok := domain.DetectCombo(cards)
	if !ok {
		return nil, ErrInvalidCombo
	}

	if r.MustLeadDesignated && !domain.HandContains(cards, []domain.Card{domain.ThreeOfSpades}) {
		return nil, ErrMustLeadDesignated
	}

	var tableCombo *domain.Combo
	if r.Trick != nil {
		tableCombo = &r.Trick.Combo
	}
	if !domain.CanBeat(tableCombo, combo) {
		return nil, ErrComboTooWeak
	}

	events := s.settleChop(t, userID, combo, r.Trick)

	r.Hands[userID] = domain.RemoveCards(hand, cards)
	r.Trick = &domain.Trick{OwnerID: userID, Cards: combo.Cards, Combo: combo}
	delete(r.Passed, userID)
	r.MustLeadDesignated = false
	if r.Opening != nil {
		r.Opening.Resolved = true
	}

	if len(r.Hands[userID]) == 0 {
		events = append(events, Event{
			Kind:    EventCardsPlayed,
			Payload: CardsPlayedPayload{UserID: userID, Cards: combo.Cards, Combo: combo},
		})
		events = append(events, s.finishRound(t, userID, false)...)
		return events, nil
	}

	t.Info = fmt.Sprintf("%s played %d card(s).", t.DisplayName(userID), len(cards))
	r.AdvanceAfterPlay(t.SeatOrder())

	events = append(events, Event{
		Kind:    EventCardsPlayed,
		Payload: CardsPlayedPayload{UserID: userID, Cards: combo.Cards, Combo: combo},
	})
	return events, nil
}

// settleChop applies the immediate money movement when the new combo
// chops the previous trick, or extends an already-running chop lineage.
// Each successive re-chop in the same shape doubles the previous units.
func (s *Service) settleChop(t *domain.Table, userID string, combo domain.Combo, prev *domain.Trick) []Event {
	if prev == nil {
		return nil
	}
	r := t.Round
	prevCombo := prev.Combo

	if r.Chop != nil && prev.OwnerID == r.Chop.HolderID && combo.Type == prevCombo.Type {
		units := r.Chop.Units * 2
		tr, ok := t.ApplyTransfer(r.Chop.HolderID, userID, units, "re-chop")
		if !ok {
			return nil
		}
		r.Chop = &domain.ChopState{Units: units, HolderID: userID, Type: combo.Type}
		return []Event{{Kind: EventMoneyMoved, Payload: MoneyMovedPayload{Transfer: tr}}}
	}

	if units := domain.SingleTwoChopUnits(prevCombo); units > 0 && combo.Type == domain.ComboFourOfKind {
		tr, ok := t.ApplyTransfer(prev.OwnerID, userID, units, "chopped a lone 2")
		if !ok {
			return nil
		}
		r.Chop = &domain.ChopState{Units: units, HolderID: userID, Type: combo.Type}
		return []Event{{Kind: EventMoneyMoved, Payload: MoneyMovedPayload{Transfer: tr}}}
	}

	pairOfTwos := prevCombo.Type == domain.ComboPair && prevCombo.RankPower == domain.RankTwo
	if pairOfTwos && combo.Type == domain.ComboConsecutivePairs && combo.Length >= 8 {
		tr, ok := t.ApplyTransfer(prev.OwnerID, userID, domain.PairTwoChopUnits, "chopped a pair of 2s")
		if !ok {
			return nil
		}
		r.Chop = &domain.ChopState{Units: domain.PairTwoChopUnits, HolderID: userID, Type: combo.Type}
		return []Event{{Kind: EventMoneyMoved, Payload: MoneyMovedPayload{Transfer: tr}}}
	}

	return nil
}

// PassTurn marks the current player as passed for this trick. When all
// other seats have passed the trick closes: the table clears, the chop
// lineage resets, and the trick's owner opens.
func (s *Service) PassTurn(t *domain.Table, userID string) ([]Event, error) {
	r := t.Round
	if !r.Active() {
		return nil, ErrNoActiveRound
	}
	idx := t.SeatedIndex(userID)
	if idx < 0 {
		return nil, ErrNotSeated
	}
	if r.TurnIndex != idx {
		return nil, ErrNotYourTurn
	}
	if r.Trick == nil {
		return nil, ErrMustOpenTrick
	}
	if r.Trick.OwnerID == userID {
		return nil, ErrOwnTrickPass
	}

	r.Passed[userID] = true
	closed := r.AdvanceAfterPass(t.SeatOrder())
	if closed {
		t.Info = "Everyone passed. The trick owner opens a new trick."
	} else {
		t.Info = fmt.Sprintf("%s passed.", t.DisplayName(userID))
	}

	return []Event{{
		Kind:    EventTurnPassed,
		Payload: TurnPassedPayload{UserID: userID, TrickClosed: closed},
	}}, nil
}

// OpeningDecision resolves the one-time opening-seizure window for the
// given user: claim plays their three linked pairs as the opening
// trick, decline records the refusal.
func (s *Service) OpeningDecision(t *domain.Table, userID string, claim bool) ([]Event, error) {
	r := t.Round
	if !r.Active() {
		return nil, ErrNoActiveRound
	}
	if r.Opening == nil || r.Opening.Resolved {
		return nil, ErrNoOpeningWindow
	}
	if r.Trick != nil {
		// A trick started while the decision was in flight.
		r.Opening.Resolved = true
		return nil, ErrNoOpeningWindow
	}
	idx := t.SeatedIndex(userID)
	if idx < 0 {
		return nil, ErrNotSeated
	}
	if !r.Opening.CanClaim(userID) {
		return nil, ErrNotEligibleToRob
	}

	if !claim {
		r.Opening.Decline(userID)
		t.Info = fmt.Sprintf("%s declined to seize the opening move.", t.DisplayName(userID))
		return []Event{{
			Kind:    EventOpeningDeclined,
			Payload: OpeningDeclinedPayload{UserID: userID},
		}}, nil
	}

	hand := r.Hands[userID]
	robCards := domain.FindThreeConsecutivePairs(hand)
	if robCards == nil {
		r.Opening.Decline(userID)
		return nil, ErrRobComboGone
	}
	combo, ok := domain.DetectCombo(robCards)
	if !ok || combo.Type != domain.ComboConsecutivePairs || combo.Length != 6 {
		r.Opening.Decline(userID)
		return nil, ErrRobComboGone
	}

	r.TurnIndex = idx
	r.Hands[userID] = domain.RemoveCards(hand, robCards)
	r.Trick = &domain.Trick{OwnerID: userID, Cards: combo.Cards, Combo: combo}
	r.Passed = make(map[string]bool)
	r.MustLeadDesignated = false
	r.Opening.Resolved = true
	t.Info = fmt.Sprintf("%s seized the opening move with three linked pairs.", t.DisplayName(userID))

	r.AdvanceAfterPlay(t.SeatOrder())

	return []Event{{
		Kind:    EventOpeningClaimed,
		Payload: OpeningClaimedPayload{UserID: userID, Cards: combo.Cards},
	}}, nil
}

// TurnTimeout injects the engine's reaction to an expired turn timer:
// a forced pass when a trick is open, or an auto-play of the holder's
// lowest card as a single when they must open. Returns no events when
// no round is active.
func (s *Service) TurnTimeout(t *domain.Table) ([]Event, error) {
	r := t.Round
	if !r.Active() {
		return nil, nil
	}
	if r.TurnIndex < 0 || r.TurnIndex >= len(t.Seated) {
		return nil, nil
	}
	current := t.Seated[r.TurnIndex]

	if r.Trick == nil || r.Trick.OwnerID == current.UserID {
		hand := r.Hands[current.UserID]
		if len(hand) == 0 {
			return nil, nil
		}
		events, err := s.PlayCards(t, current.UserID, []domain.Card{hand[0]})
		if err != nil {
			return nil, err
		}
		t.Info = fmt.Sprintf("%s took too long and auto-played %s.", current.DisplayName, hand[0])
		return events, nil
	}

	events, err := s.PassTurn(t, current.UserID)
	if err != nil {
		return nil, err
	}
	t.Info = fmt.Sprintf("%s ran out of time and passed.", current.DisplayName)
	if len(events) == 1 {
		if p, ok := events[0].Payload.(TurnPassedPayload); ok {
			p.Forced = true
			events[0].Payload = p
		}
	}
	return events, nil
}
