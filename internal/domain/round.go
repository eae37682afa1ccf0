package domain

// Trick is the combo currently holding the table.
type Trick struct {
	OwnerID string `json:"ownerId"`
	Cards   []Card `json:"cards"`
	Combo   Combo  `json:"combo"`
}

// ChopState tracks an active chop escalation lineage: who chopped last,
// with what shape, and at what unit value. It is reset whenever the
// trick closes or its holder leaves; every re-chop in the same lineage
// doubles Units.
type ChopState struct {
	Units    int64
	HolderID string
	Type     ComboType
}

// LeavePenalty is a deferred charge recorded when a seated player exits
// mid-round, priced against the hand they held at that moment and paid
// to whoever eventually wins the round.
type LeavePenalty struct {
	UserID    string
	Name      string
	Units     int64
	CardCount int
}

// OpeningClaim is the one-shot window in which a non-opener holding
// three linked pairs may seize the opening move. The window closes the
// instant a trick starts or once every eligible player has declined.
type OpeningClaim struct {
	Eligible map[string]bool
	Declined map[string]bool
	Resolved bool
}

// CanClaim reports whether the user may still act on the window.
func (o *OpeningClaim) CanClaim(userID string) bool {
	return o != nil && !o.Resolved && o.Eligible[userID] && !o.Declined[userID]
}

// Decline records a refusal and resolves the window once nobody
// eligible remains.
func (o *OpeningClaim) Decline(userID string) {
	o.Declined[userID] = true
	for id := range o.Eligible {
		if !o.Declined[id] {
			return
		}
	}
	o.Resolved = true
}

// Round is one deal-to-empty-hand playthrough for a table.
type Round struct {
	Hands     map[string][]Card
	TurnIndex int
	Trick     *Trick
	Passed    map[string]bool
	Chop      *ChopState
	Penalties []LeavePenalty
	Opening   *OpeningClaim

	// MustLeadDesignated forces the very first play of a fresh table to
	// include the 3 of spades. Dropped permanently as soon as the
	// opener's hand no longer holds that exact card, so the rule can
	// never deadlock the opening move.
	MustLeadDesignated bool

	WinnerID string
	Over     bool
}

// Active reports whether the round is still being played.
func (r *Round) Active() bool {
	return r != nil && !r.Over
}

// RecordPenalty prices the given hand and defers the charge until the
// round's winner is known.
func (r *Round) RecordPenalty(userID, name string, hand []Card) {
	units := LeavePenaltyUnits(hand)
	if units <= 0 {
		return
	}
	r.Penalties = append(r.Penalties, LeavePenalty{
		UserID:    userID,
		Name:      name,
		Units:     units,
		CardCount: len(hand),
	})
}

// ClearTrick wipes the table: trick gone, passes forgotten, chop
// lineage broken.
func (r *Round) ClearTrick() {
	r.Trick = nil
	r.Passed = make(map[string]bool)
	r.Chop = nil
}

// AdvanceAfterPlay moves the turn to the next seat that has neither
// passed nor owns the trick, walking the given seat order. If no such
// seat exists the trick closes and the owner opens again.
func (r *Round) AdvanceAfterPlay(order []string) {
	idx := r.TurnIndex
	for i := 0; i < len(order); i++ {
		idx = (idx + 1) % len(order)
		candidate := order[idx]
		if r.Trick != nil && candidate == r.Trick.OwnerID && len(order) > 1 {
			continue
		}
		if r.Passed[candidate] {
			continue
		}
		r.TurnIndex = idx
		return
	}

	// Everyone else already passed; the table falls back to its owner.
	r.closeTrickToOwner(order)
}

// AdvanceAfterPass moves the turn after a pass. Returns true when the
// pass closed the trick, handing the table back to its owner.
func (r *Round) AdvanceAfterPass(order []string) bool {
	if len(r.Passed) >= len(order)-1 {
		r.closeTrickToOwner(order)
		return true
	}

	idx := r.TurnIndex
	for i := 0; i < len(order); i++ {
		idx = (idx + 1) % len(order)
		candidate := order[idx]
		if candidate == r.Trick.OwnerID {
			continue
		}
		if r.Passed[candidate] {
			continue
		}
		r.TurnIndex = idx
		return false
	}

	r.closeTrickToOwner(order)
	return true
}

func (r *Round) closeTrickToOwner(order []string) {
	if r.Trick != nil {
		for i, id := range order {
			if id == r.Trick.OwnerID {
				r.TurnIndex = i
				break
			}
		}
	}
	r.ClearTrick()
}

// NormalizeTurnAfterRemoval fixes the turn after the seat at
// removedIndex disappeared from the order: the index is re-based, a
// standing trick left without live challengers closes to its owner,
// and a turn inherited from the leaver skips seats that already passed
// or own the trick.
func (r *Round) NormalizeTurnAfterRemoval(order []string, removedIndex int) {
	if len(order) == 0 {
		return
	}
	wasTurnHolder := removedIndex == r.TurnIndex
	if removedIndex < r.TurnIndex {
		r.TurnIndex--
	}
	if r.TurnIndex >= len(order) {
		r.TurnIndex = 0
	}

	if r.Trick != nil {
		live := 0
		for _, id := range order {
			if id != r.Trick.OwnerID && !r.Passed[id] {
				live++
			}
		}
		if live == 0 {
			r.closeTrickToOwner(order)
			return
		}
	}

	if wasTurnHolder {
		holder := order[r.TurnIndex]
		if r.Passed[holder] || (r.Trick != nil && holder == r.Trick.OwnerID) {
			r.TurnIndex = (r.TurnIndex - 1 + len(order)) % len(order)
			r.AdvanceAfterPlay(order)
		}
	}
}
