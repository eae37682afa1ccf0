package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"thirteen/internal/app"
	"thirteen/internal/config"
	"thirteen/internal/domain"
	"thirteen/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// MatchLabel is stored on the match so room codes can be resolved
// through the match listing API.
type MatchLabel struct {
	Code  string `json:"code"`
	Open  int    `json:"open"`
	Stake int64  `json:"stake"`
}

// MatchState holds the authoritative runtime state for one table.
type MatchState struct {
	Table           *domain.Table               `json:"table"`
	Tick            int64                       `json:"tick"`
	TurnDeadline    int64                       `json:"turn_deadline"`     // tick when the current turn expires, 0 when disarmed
	AutoStartAt     int64                       `json:"auto_start_at"`     // tick when the next round auto-starts, 0 when disarmed
	LastBalanceSync int64                       `json:"last_balance_sync"` // tick of the last wallet refresh
	Presences       map[string]runtime.Presence `json:"-"`
	App             *app.Service                `json:"-"`
	Economy         ports.EconomyPort           `json:"-"`
}

type playCardsRequest struct {
	Cards []domain.Card `json:"cards"`
}

type openingDecisionRequest struct {
	Claim bool `json:"claim"`
}

type errorEvent struct {
	Message string `json:"message"`
}

// newMatchHandler is the factory registered with Nakama.
func newMatchHandler() runtime.Match {
	return &matchHandler{}
}

type matchHandler struct{}

// MatchInit is called when the match is created. Params carry the room
// code, stake and creator chosen by the create_room RPC.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	if err := config.LoadGameConfig("data/game_config.json"); err != nil {
		logger.Warn("MatchInit: Could not load game config: %v", err)
	}

	code, _ := params["code"].(string)
	creatorID, _ := params["creator_id"].(string)
	creatorName, _ := params["creator_name"].(string)
	betUnit := paramInt64(params["bet_unit"])
	if code == "" || creatorID == "" || !config.IsAllowedBetUnit(betUnit) {
		logger.Error("MatchInit: Invalid room params: code=%q creator=%q bet_unit=%d", code, creatorID, betUnit)
		return nil, 0, ""
	}

	owner := domain.Participant{UserID: creatorID, DisplayName: creatorName}
	creatorBalance := paramInt64(params["creator_balance"])

	state := &MatchState{
		Table:     domain.NewTable(code, betUnit, owner, creatorBalance),
		Presences: make(map[string]runtime.Presence),
		App:       app.NewService(nil),
		Economy:   NewNakamaEconomyAdapter(nk),
	}

	labelBytes, err := json.Marshal(&MatchLabel{Code: code, Open: domain.MaxSeats - 1, Stake: betUnit})
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	tickRate := 1
	return state, tickRate, string(labelBytes)
}

func paramInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case string:
		var parsed int64
		fmt.Sscanf(n, "%d", &parsed)
		return parsed
	default:
		return 0
	}
}

// MatchJoinAttempt gates entrants on their wallet: every participant,
// seated or spectating, must hold the table's minimum entry.
func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	userID := presence.GetUserId()
	if matchState.Table.IsParticipant(userID) {
		return matchState, false, "already at this table"
	}

	balance, err := matchState.Economy.GetBalance(ctx, userID)
	if err != nil {
		logger.Error("MatchJoinAttempt: Failed to read balance for %s: %v", userID, err)
		return matchState, false, "balance unavailable"
	}
	if balance < config.MinimumEntry(matchState.Table.BetUnit) {
		return matchState, false, "insufficient balance for this table"
	}

	return matchState, true, ""
}

// MatchJoin seats the entrant when a seat is free and no round is
// running; otherwise they watch from the spectator queue.
func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}
	t := matchState.Table

	for _, p := range presences {
		userID := p.GetUserId()
		matchState.Presences[userID] = p

		balance, err := matchState.Economy.GetBalance(ctx, userID)
		if err != nil {
			logger.Error("MatchJoin: Failed to read balance for %s: %v", userID, err)
		}

		entrant := domain.Participant{UserID: userID, DisplayName: p.GetUsername()}
		if t.Round.Active() || !t.Seat(entrant, balance) {
			t.AddSpectator(entrant, balance)
			t.Info = fmt.Sprintf("%s is watching.", entrant.DisplayName)
			logger.Debug("MatchJoin: %s joined as spectator.", userID)
		} else {
			t.Info = fmt.Sprintf("%s took a seat.", entrant.DisplayName)
			logger.Debug("MatchJoin: %s seated.", userID)
		}
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastSnapshots(matchState, dispatcher, logger)

	return matchState
}

// MatchLeave is called when one or more players disconnect or are
// kicked. The room dies with its last participant.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		delete(matchState.Presences, userID)

		events := matchState.App.Leave(matchState.Table, userID)
		mh.applyEvents(ctx, matchState, dispatcher, logger, events)
	}

	if matchState.Table.ParticipantCount() == 0 {
		logger.Info("MatchLeave: Room %s is empty, terminating.", matchState.Table.Code)
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastSnapshots(matchState, dispatcher, logger)

	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick
	changed := len(messages) > 0

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpStartRound:
			mh.handleStartRound(ctx, matchState, dispatcher, logger, msg.GetUserId())
		case OpPlayCards:
			mh.handlePlayCards(ctx, matchState, dispatcher, logger, msg)
		case OpPassTurn:
			mh.handlePassTurn(ctx, matchState, dispatcher, logger, msg.GetUserId())
		case OpOpeningDecision:
			mh.handleOpeningDecision(ctx, matchState, dispatcher, logger, msg)
		case OpLeaveRoom:
			mh.handleLeaveRoom(ctx, matchState, dispatcher, logger, nk, msg.GetUserId())
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	if matchState.Table.ParticipantCount() == 0 {
		logger.Info("MatchLoop: Room %s is empty, terminating.", matchState.Table.Code)
		return nil
	}

	if mh.processTimers(ctx, matchState, dispatcher, logger) {
		changed = true
	}
	if mh.syncBalances(ctx, matchState, logger) {
		changed = true
	}

	if changed {
		mh.updateLabel(matchState, dispatcher, logger)
		mh.broadcastSnapshots(matchState, dispatcher, logger)
	}

	return matchState
}

// processTimers drives the auto-start countdown and the per-turn clock.
// Returns true when table state changed.
func (mh *matchHandler) processTimers(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) bool {
	t := state.Table
	cfg := config.GetGameConfig()
	changed := false

	if t.Round.Active() {
		state.AutoStartAt = 0
		if state.TurnDeadline == 0 {
			state.TurnDeadline = state.Tick + int64(cfg.TurnTimeoutSeconds)
		}
		if state.Tick >= state.TurnDeadline {
			events, err := state.App.TurnTimeout(t)
			if err != nil {
				logger.Error("processTimers: Turn timeout failed: %v", err)
				state.TurnDeadline = state.Tick + int64(cfg.TurnTimeoutSeconds)
				return true
			}
			mh.applyEvents(ctx, state, dispatcher, logger, events)
			changed = true
		}
		return changed
	}

	state.TurnDeadline = 0

	// The first round is the owner's call; the countdown only bridges
	// between rounds.
	if t.PrevWinnerID == "" {
		state.AutoStartAt = 0
		return changed
	}

	if len(t.Seated) < app.MinPlayersToStart {
		if state.AutoStartAt != 0 {
			state.AutoStartAt = 0
			t.Info = "Waiting for more players."
			changed = true
		}
		return changed
	}

	if state.AutoStartAt == 0 {
		state.AutoStartAt = state.Tick + int64(cfg.AutoStartDelaySeconds)
	}
	remaining := state.AutoStartAt - state.Tick
	if remaining > 0 {
		t.Info = fmt.Sprintf("Next round starts in %d second(s).", remaining)
		return true
	}

	state.AutoStartAt = 0
	mh.refreshBalances(ctx, state, logger)
	events, err := state.App.StartRound(t, config.MinimumEntry(t.BetUnit))
	if err != nil {
		logger.Warn("processTimers: Auto-start failed: %v", err)
		return true
	}
	mh.applyEvents(ctx, state, dispatcher, logger, events)
	return true
}

// syncBalances periodically refreshes the cached wallet balances so
// clients see external top-ups without rejoining.
func (mh *matchHandler) syncBalances(ctx context.Context, state *MatchState, logger runtime.Logger) bool {
	interval := int64(config.GetGameConfig().BalanceSyncSeconds)
	if interval <= 0 || state.Tick-state.LastBalanceSync < interval {
		return false
	}
	state.LastBalanceSync = state.Tick
	return mh.refreshBalances(ctx, state, logger)
}

func (mh *matchHandler) refreshBalances(ctx context.Context, state *MatchState, logger runtime.Logger) bool {
	t := state.Table
	changed := false
	for userID := range t.Balances {
		balance, err := state.Economy.GetBalance(ctx, userID)
		if err != nil {
			logger.Error("refreshBalances: Failed for %s: %v", userID, err)
			continue
		}
		if t.Balances[userID] != balance {
			t.Balances[userID] = balance
			changed = true
		}
	}
	return changed
}

func (mh *matchHandler) handleStartRound(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, senderID string) {
	t := state.Table
	if senderID != t.OwnerID {
		mh.sendError(state, dispatcher, logger, senderID, "only the room owner can start the round")
		return
	}

	mh.refreshBalances(ctx, state, logger)
	events, err := state.App.StartRound(t, config.MinimumEntry(t.BetUnit))
	if err != nil {
		logger.Warn("handleStartRound: %s failed to start: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, err.Error())
		return
	}

	state.AutoStartAt = 0
	mh.applyEvents(ctx, state, dispatcher, logger, events)
}

func (mh *matchHandler) handlePlayCards(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()

	var request playCardsRequest
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		logger.Warn("handlePlayCards: Invalid payload from %s: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, "invalid play payload")
		return
	}

	events, err := state.App.PlayCards(state.Table, senderID, request.Cards)
	if err != nil {
		logger.Warn("handlePlayCards: User %s failed to play: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, err.Error())
		return
	}

	mh.applyEvents(ctx, state, dispatcher, logger, events)
}

func (mh *matchHandler) handlePassTurn(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, senderID string) {
	events, err := state.App.PassTurn(state.Table, senderID)
	if err != nil {
		logger.Warn("handlePassTurn: User %s failed to pass: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, err.Error())
		return
	}

	mh.applyEvents(ctx, state, dispatcher, logger, events)
}

func (mh *matchHandler) handleOpeningDecision(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()

	var request openingDecisionRequest
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		logger.Warn("handleOpeningDecision: Invalid payload from %s: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, "invalid opening decision payload")
		return
	}

	events, err := state.App.OpeningDecision(state.Table, senderID, request.Claim)
	if err != nil {
		logger.Warn("handleOpeningDecision: User %s failed: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, err.Error())
		return
	}

	mh.applyEvents(ctx, state, dispatcher, logger, events)
}

func (mh *matchHandler) handleLeaveRoom(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, nk runtime.NakamaModule, senderID string) {
	events := state.App.Leave(state.Table, senderID)
	mh.applyEvents(ctx, state, dispatcher, logger, events)

	if p, ok := state.Presences[senderID]; ok {
		if err := dispatcher.MatchKick([]runtime.Presence{p}); err != nil {
			logger.Error("handleLeaveRoom: Failed to kick %s: %v", senderID, err)
		}
		delete(state.Presences, senderID)
	}
}

// applyEvents dispatches app events to clients and mirrors money
// movement into Nakama wallets. Wallet writes happen before the
// broadcast so clients never see unsettled balances.
func (mh *matchHandler) applyEvents(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	t := state.Table
	cfg := config.GetGameConfig()

	for _, ev := range events {
		switch p := ev.Payload.(type) {
		case app.MoneyMovedPayload:
			mh.settleWallets(ctx, state, logger, []domain.Transfer{p.Transfer})
		case app.RoundEndedPayload:
			if p.Result != nil {
				mh.settleWallets(ctx, state, logger, p.Result.Transfers)
			}
			state.TurnDeadline = 0
		}

		if ev.TurnChanging() && t.Round.Active() {
			state.TurnDeadline = state.Tick + int64(cfg.TurnTimeoutSeconds)
		}

		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
}

func (mh *matchHandler) settleWallets(ctx context.Context, state *MatchState, logger runtime.Logger, transfers []domain.Transfer) {
	if state.Economy == nil || len(transfers) == 0 {
		return
	}

	updates := make([]ports.WalletUpdate, 0, len(transfers)*2)
	for _, tr := range transfers {
		metadata := map[string]interface{}{
			"room_code": state.Table.Code,
			"note":      tr.Note,
			"units":     tr.Units,
		}
		updates = append(updates,
			ports.WalletUpdate{UserID: tr.FromID, Amount: -tr.Amount, Metadata: metadata},
			ports.WalletUpdate{UserID: tr.ToID, Amount: tr.Amount, Metadata: metadata},
		)
	}

	if err := state.Economy.UpdateBalances(ctx, updates); err != nil {
		logger.Error("settleWallets: Failed to update wallets: %v", err)
	}
}

func eventOpCode(kind app.EventKind) (int64, bool) {
	switch kind {
	case app.EventRoundStarted:
		return OpRoundStarted, true
	case app.EventHandDealt:
		return OpHandDealt, true
	case app.EventCardsPlayed:
		return OpCardsPlayed, true
	case app.EventTurnPassed:
		return OpTurnPassed, true
	case app.EventOpeningClaimed:
		return OpOpeningClaimed, true
	case app.EventOpeningDeclined:
		return OpOpeningDeclined, true
	case app.EventMoneyMoved:
		return OpMoneyMoved, true
	case app.EventRoundEnded:
		return OpRoundEnded, true
	case app.EventPlayerLeft:
		return OpPlayerLeft, true
	default:
		return 0, false
	}
}

// broadcastEvent sends one app event to its recipients, defaulting to
// everyone. Targeted events with no connected recipient are dropped
// rather than leaked to the room.
func (mh *matchHandler) broadcastEvent(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	opCode, ok := eventOpCode(ev.Kind)
	if !ok {
		logger.Warn("broadcastEvent: Unknown event kind: %v", ev.Kind)
		return
	}

	bytes, err := json.Marshal(ev.Payload)
	if err != nil {
		logger.Error("broadcastEvent: Failed to marshal %s: %v", ev.Kind, err)
		return
	}

	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}
		if len(recipients) == 0 {
			return
		}
	}

	dispatcher.BroadcastMessage(opCode, bytes, recipients, nil, true)
}

// broadcastSnapshots sends each connected participant their own view of
// the table. Snapshots are per-recipient because hands are private.
func (mh *matchHandler) broadcastSnapshots(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	for userID, presence := range state.Presences {
		snap := BuildSnapshot(state.Table, userID)
		bytes, err := json.Marshal(snap)
		if err != nil {
			logger.Error("broadcastSnapshots: Failed to marshal snapshot: %v", err)
			return
		}
		dispatcher.BroadcastMessage(OpRoomState, bytes, []runtime.Presence{presence}, nil, true)
	}
}

// sendError sends an error message to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, message string) {
	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("sendError: Presence not found for %s", userID)
		return
	}

	bytes, err := json.Marshal(errorEvent{Message: message})
	if err != nil {
		logger.Error("sendError: Failed to marshal: %v", err)
		return
	}

	dispatcher.BroadcastMessage(OpError, bytes, []runtime.Presence{presence}, nil, true)
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	t := state.Table
	open := domain.MaxSeats - len(t.Seated)
	if t.Round.Active() {
		open = 0
	}

	labelBytes, err := json.Marshal(&MatchLabel{Code: t.Code, Open: open, Stake: t.BetUnit})
	if err != nil {
		logger.Error("updateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(string(labelBytes)); err != nil {
		logger.Error("updateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, reason int) interface{} {
	logger.Debug("MatchTerminate: Match terminated for reason %d", reason)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
