package nakama

import (
	"thirteen/internal/app"
	"thirteen/internal/domain"
)

// PlayerView is the public view of one seated player.
type PlayerView struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	CardCount   int    `json:"card_count"`
	IsTurn      bool   `json:"is_turn"`
	IsOwner     bool   `json:"is_owner"`
	Passed      bool   `json:"passed"`
	Balance     int64  `json:"balance"`
}

// RoomSnapshot is the per-recipient view of the table sent on every change.
// Hand is populated only with the recipient's own cards.
type RoomSnapshot struct {
	Code        string              `json:"code"`
	OwnerID     string              `json:"owner_id"`
	BetUnit     int64               `json:"bet_unit"`
	Players     []PlayerView        `json:"players"`
	Spectators  []string            `json:"spectators"`
	Hand        []domain.Card       `json:"hand,omitempty"`
	Trick       *domain.Trick       `json:"trick,omitempty"`
	RoundActive bool                `json:"round_active"`
	CanRob      bool                `json:"can_rob"`
	CanStart    bool                `json:"can_start"`
	LastResult  *domain.RoundResult `json:"last_result,omitempty"`
	MoneyEvents []string            `json:"money_events"`
	Info        string              `json:"info"`
}

// BuildSnapshot renders the table as seen by one recipient. Other
// players' hands are reduced to card counts.
func BuildSnapshot(t *domain.Table, recipientID string) RoomSnapshot {
	r := t.Round
	active := r.Active()

	players := make([]PlayerView, 0, len(t.Seated))
	for i, p := range t.Seated {
		pv := PlayerView{
			UserID:      p.UserID,
			DisplayName: p.DisplayName,
			IsOwner:     p.UserID == t.OwnerID,
			Balance:     t.Balances[p.UserID],
		}
		if active {
			pv.CardCount = len(r.Hands[p.UserID])
			pv.IsTurn = r.TurnIndex == i
			pv.Passed = r.Passed[p.UserID]
		}
		players = append(players, pv)
	}

	spectators := make([]string, 0, len(t.Spectators))
	for _, sp := range t.Spectators {
		spectators = append(spectators, sp.DisplayName)
	}

	snap := RoomSnapshot{
		Code:        t.Code,
		OwnerID:     t.OwnerID,
		BetUnit:     t.BetUnit,
		Players:     players,
		Spectators:  spectators,
		RoundActive: active,
		CanStart:    !active && recipientID == t.OwnerID && len(t.Seated) >= app.MinPlayersToStart,
		LastResult:  t.LastResult,
		MoneyEvents: t.MoneyEvents,
		Info:        t.Info,
	}

	if active {
		snap.Hand = r.Hands[recipientID]
		snap.Trick = r.Trick
		if r.Opening != nil && !r.Opening.Resolved && r.Trick == nil {
			snap.CanRob = r.Opening.CanClaim(recipientID)
		}
	}

	return snap
}
