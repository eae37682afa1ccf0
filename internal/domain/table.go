package domain

import "fmt"

// MaxSeats is the number of playing seats at a table.
const MaxSeats = 4

// moneyEventHistory bounds the money-event feed kept on a table.
const moneyEventHistory = 10

// Participant is a person at the table, seated or spectating.
type Participant struct {
	UserID      string
	DisplayName string
}

// Transfer is one paired debit/credit between two participants,
// expressed in stake units and in absolute amount, with a
// human-readable note for the ledger.
type Transfer struct {
	FromID string
	ToID   string
	Units  int64
	Amount int64
	Note   string
}

// RoundResult summarizes the payouts of a finished round.
type RoundResult struct {
	WinnerID    string     `json:"winnerId"`
	WinnerName  string     `json:"winnerName"`
	Transfers   []Transfer `json:"-"`
	TotalUnits  int64      `json:"totalUnits"`
	TotalAmount int64      `json:"totalAmount"`
}

// Table is one room: an owner, up to four ordered seats, a spectator
// queue, a per-card stake, a cached balance per participant, and at
// most one active round.
type Table struct {
	Code         string
	OwnerID      string
	BetUnit      int64
	Seated       []*Participant
	Spectators   []*Participant
	Balances     map[string]int64
	MoneyEvents  []string
	PrevWinnerID string
	Round        *Round
	LastResult   *RoundResult
	Info         string
}

// NewTable creates a table with the creator seated as owner.
func NewTable(code string, betUnit int64, owner Participant, ownerBalance int64) *Table {
	t := &Table{
		Code:     code,
		OwnerID:  owner.UserID,
		BetUnit:  betUnit,
		Seated:   []*Participant{&owner},
		Balances: map[string]int64{owner.UserID: ownerBalance},
	}
	t.PushMoneyEvent(fmt.Sprintf("Table stake: %d per card", betUnit))
	return t
}

// SeatOrder returns the seated user IDs in turn order.
func (t *Table) SeatOrder() []string {
	order := make([]string, len(t.Seated))
	for i, p := range t.Seated {
		order[i] = p.UserID
	}
	return order
}

// SeatedIndex returns the seat position of the user, or -1.
func (t *Table) SeatedIndex(userID string) int {
	for i, p := range t.Seated {
		if p.UserID == userID {
			return i
		}
	}
	return -1
}

// SeatedParticipant returns the seated participant, or nil.
func (t *Table) SeatedParticipant(userID string) *Participant {
	if i := t.SeatedIndex(userID); i >= 0 {
		return t.Seated[i]
	}
	return nil
}

// IsParticipant reports whether the user is seated or spectating.
func (t *Table) IsParticipant(userID string) bool {
	if t.SeatedIndex(userID) >= 0 {
		return true
	}
	for _, s := range t.Spectators {
		if s.UserID == userID {
			return true
		}
	}
	return false
}

// ParticipantCount counts everyone at the table.
func (t *Table) ParticipantCount() int {
	return len(t.Seated) + len(t.Spectators)
}

// DisplayName resolves a participant's name, falling back to the ID.
func (t *Table) DisplayName(userID string) string {
	for _, p := range t.Seated {
		if p.UserID == userID {
			return p.DisplayName
		}
	}
	for _, p := range t.Spectators {
		if p.UserID == userID {
			return p.DisplayName
		}
	}
	return userID
}

// Seat adds a participant to the first free seat. Returns false when
// the table is full.
func (t *Table) Seat(p Participant, balance int64) bool {
	if len(t.Seated) >= MaxSeats {
		return false
	}
	t.Seated = append(t.Seated, &p)
	if _, ok := t.Balances[p.UserID]; !ok {
		t.Balances[p.UserID] = balance
	}
	return true
}

// AddSpectator appends a participant to the spectator queue.
func (t *Table) AddSpectator(p Participant, balance int64) {
	t.Spectators = append(t.Spectators, &p)
	if _, ok := t.Balances[p.UserID]; !ok {
		t.Balances[p.UserID] = balance
	}
}

// Remove drops the user from seat or spectator queue. Returns the
// removed participant, their former seat index (-1 for spectators),
// and whether anyone was removed. Removing an absent user is a no-op.
func (t *Table) Remove(userID string) (*Participant, int, bool) {
	for i, p := range t.Seated {
		if p.UserID == userID {
			t.Seated = append(t.Seated[:i], t.Seated[i+1:]...)
			return p, i, true
		}
	}
	for i, p := range t.Spectators {
		if p.UserID == userID {
			t.Spectators = append(t.Spectators[:i], t.Spectators[i+1:]...)
			return p, -1, true
		}
	}
	return nil, -1, false
}

// PromoteSpectators fills free seats from the spectator queue in order
// and returns the promoted names. Callers only invoke this between
// rounds.
func (t *Table) PromoteSpectators() []string {
	var promoted []string
	for len(t.Seated) < MaxSeats && len(t.Spectators) > 0 {
		next := t.Spectators[0]
		t.Spectators = t.Spectators[1:]
		t.Seated = append(t.Seated, next)
		promoted = append(promoted, next.DisplayName)
	}
	return promoted
}

// DemoteBelow moves every seated player whose cached balance is under
// minBalance to the back of the spectator queue and returns them. The
// owner role moves to the first remaining seat if the owner was
// demoted.
func (t *Table) DemoteBelow(minBalance int64) []*Participant {
	var kept []*Participant
	var moved []*Participant
	for _, p := range t.Seated {
		if t.Balances[p.UserID] < minBalance {
			t.Spectators = append(t.Spectators, p)
			moved = append(moved, p)
			continue
		}
		kept = append(kept, p)
	}
	t.Seated = kept

	if t.SeatedIndex(t.OwnerID) < 0 {
		if len(t.Seated) > 0 {
			t.OwnerID = t.Seated[0].UserID
		} else {
			t.OwnerID = ""
		}
	}
	return moved
}

// PushMoneyEvent appends a ledger note to the bounded event feed.
func (t *Table) PushMoneyEvent(msg string) {
	t.MoneyEvents = append(t.MoneyEvents, msg)
	if len(t.MoneyEvents) > moneyEventHistory {
		t.MoneyEvents = t.MoneyEvents[len(t.MoneyEvents)-moneyEventHistory:]
	}
}

// ApplyTransfer moves units×betUnit between two participants' cached
// balances, records a money event, and returns the transfer for the
// external balance store. A zero-unit or self transfer is dropped.
func (t *Table) ApplyTransfer(fromID, toID string, units int64, note string) (Transfer, bool) {
	if units <= 0 || fromID == "" || toID == "" || fromID == toID {
		return Transfer{}, false
	}

	amount := units * t.BetUnit
	t.Balances[fromID] -= amount
	t.Balances[toID] += amount

	t.PushMoneyEvent(fmt.Sprintf("%s: %s -> %s: %d", note, t.DisplayName(fromID), t.DisplayName(toID), amount))
	return Transfer{FromID: fromID, ToID: toID, Units: units, Amount: amount, Note: note}, true
}
