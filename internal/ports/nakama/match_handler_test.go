package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"thirteen/internal/app"
	"thirteen/internal/config"
	"thirteen/internal/domain"
	"thirteen/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	broadcastCount int
	labelUpdates   int
	kicked         int
	lastOpCode     int64
	lastData       []byte
	lastLabel      string
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	md.broadcastCount++
	md.lastOpCode = opCode
	md.lastData = append([]byte(nil), data...)
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return nil
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	md.kicked += len(presences)
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.labelUpdates++
	md.lastLabel = label
	return nil
}

type mockEconomy struct {
	balances map[string]int64
	updates  []ports.WalletUpdate
}

func (me *mockEconomy) GetBalance(ctx context.Context, userID string) (int64, error) {
	if balance, ok := me.balances[userID]; ok {
		return balance, nil
	}
	return 0, errors.New("balance not found")
}

func (me *mockEconomy) UpdateBalances(ctx context.Context, updates []ports.WalletUpdate) error {
	me.updates = append(me.updates, updates...)
	return nil
}

// fakePresence satisfies runtime.Presence for targeted messaging tests.
type fakePresence struct {
	userID string
}

func (p fakePresence) GetUserId() string                 { return p.userID }
func (p fakePresence) GetSessionId() string              { return "session-" + p.userID }
func (p fakePresence) GetNodeId() string                 { return "node" }
func (p fakePresence) GetHidden() bool                   { return false }
func (p fakePresence) GetPersistence() bool              { return true }
func (p fakePresence) GetUsername() string               { return p.userID }
func (p fakePresence) GetStatus() string                 { return "" }
func (p fakePresence) GetReason() runtime.PresenceReason { return runtime.PresenceReasonUnknown }

func newTestState(players ...string) *MatchState {
	table := domain.NewTable("ROOM01", 10, domain.Participant{UserID: players[0], DisplayName: players[0]}, 10000)
	economy := &mockEconomy{balances: map[string]int64{players[0]: 10000}}
	state := &MatchState{
		Table:     table,
		Presences: map[string]runtime.Presence{players[0]: fakePresence{userID: players[0]}},
		App:       app.NewService(nil),
		Economy:   economy,
	}
	for _, p := range players[1:] {
		table.Seat(domain.Participant{UserID: p, DisplayName: p}, 10000)
		economy.balances[p] = 10000
		state.Presences[p] = fakePresence{userID: p}
	}
	return state
}

func TestMatchLabel_Marshal(t *testing.T) {
	label := &MatchLabel{Code: "ROOM01", Open: 3, Stake: 10}
	payload, err := json.Marshal(label)
	if err != nil {
		t.Fatalf("Failed to marshal label: %v", err)
	}

	expected := `{"code":"ROOM01","open":3,"stake":10}`
	if string(payload) != expected {
		t.Fatalf("Got %s, want %s", payload, expected)
	}
}

func TestParamInt64(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected int64
	}{
		{"Int64", int64(10), 10},
		{"Int", 5, 5},
		{"Float64", float64(100), 100},
		{"String", "50", 50},
		{"Nil", nil, 0},
		{"Garbage", "abc", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := paramInt64(tt.value); got != tt.expected {
				t.Errorf("paramInt64(%v) = %d, want %d", tt.value, got, tt.expected)
			}
		})
	}
}

func TestBuildSnapshot_HidesOtherHands(t *testing.T) {
	state := newTestState("a", "b")
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	handler.handleStartRound(context.Background(), state, dispatcher, noopLogger{}, "a")

	snap := BuildSnapshot(state.Table, "a")
	if len(snap.Hand) != 13 {
		t.Fatalf("Expected recipient's own 13 cards, got %d", len(snap.Hand))
	}
	if len(snap.Players) != 2 {
		t.Fatalf("Expected 2 players, got %d", len(snap.Players))
	}
	for _, p := range snap.Players {
		if p.CardCount != 13 {
			t.Fatalf("Expected card counts of 13, got %d for %s", p.CardCount, p.UserID)
		}
	}
	if !snap.RoundActive {
		t.Fatal("Expected an active round in the snapshot")
	}
	if snap.CanStart {
		t.Fatal("CanStart must be false while a round runs")
	}
}

func TestBuildSnapshot_OwnerCanStart(t *testing.T) {
	state := newTestState("a", "b")

	if snap := BuildSnapshot(state.Table, "a"); !snap.CanStart {
		t.Fatal("Expected owner to be able to start with 2 seated")
	}
	if snap := BuildSnapshot(state.Table, "b"); snap.CanStart {
		t.Fatal("Expected non-owner unable to start")
	}
}

func TestHandleStartRound_NonOwnerRejected(t *testing.T) {
	state := newTestState("a", "b")
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}

	handler.handleStartRound(context.Background(), state, dispatcher, noopLogger{}, "b")

	if state.Table.Round.Active() {
		t.Fatal("Round must not start for a non-owner")
	}
	if dispatcher.lastOpCode != OpError {
		t.Fatalf("Expected an error sent to the caller, got opcode %d", dispatcher.lastOpCode)
	}
}

func TestHandleStartRound_OwnerStarts(t *testing.T) {
	state := newTestState("a", "b")
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}

	handler.handleStartRound(context.Background(), state, dispatcher, noopLogger{}, "a")

	if !state.Table.Round.Active() {
		t.Fatal("Expected the round to start")
	}
	if state.TurnDeadline == 0 {
		t.Fatal("Expected the turn clock armed")
	}
	if dispatcher.broadcastCount == 0 {
		t.Fatal("Expected deal events broadcast")
	}
}

func TestProcessTimers_AutoStartCountdown(t *testing.T) {
	state := newTestState("a", "b")
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}

	state.Table.PrevWinnerID = "a"
	state.Tick = 100
	if changed := handler.processTimers(context.Background(), state, dispatcher, noopLogger{}); !changed {
		t.Fatal("Expected the countdown to arm and report a change")
	}
	expected := int64(100 + config.GetGameConfig().AutoStartDelaySeconds)
	if state.AutoStartAt != expected {
		t.Fatalf("AutoStartAt = %d, want %d", state.AutoStartAt, expected)
	}

	state.Tick = expected
	handler.processTimers(context.Background(), state, dispatcher, noopLogger{})
	if !state.Table.Round.Active() {
		t.Fatal("Expected the round to auto-start at the deadline")
	}
	if state.AutoStartAt != 0 {
		t.Fatal("Expected the countdown disarmed after firing")
	}
}

func TestProcessTimers_AutoStartDisarmsBelowMinimum(t *testing.T) {
	state := newTestState("a")
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}

	state.Table.PrevWinnerID = "a"
	state.Tick = 100
	state.AutoStartAt = 105
	handler.processTimers(context.Background(), state, dispatcher, noopLogger{})
	if state.AutoStartAt != 0 {
		t.Fatal("Expected the countdown disarmed with one player")
	}
}

func TestProcessTimers_NeverStartedRoomIdles(t *testing.T) {
	state := newTestState("a", "b")
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}

	delay := int64(config.GetGameConfig().AutoStartDelaySeconds)
	for tick := int64(1); tick <= delay*3; tick++ {
		state.Tick = tick
		handler.processTimers(context.Background(), state, dispatcher, noopLogger{})
	}

	if state.AutoStartAt != 0 {
		t.Fatal("Countdown must not arm before the owner starts the first round")
	}
	if state.Table.Round.Active() {
		t.Fatal("A room that never played must not auto-start its first round")
	}
}

func TestProcessTimers_TurnTimeoutForcesAction(t *testing.T) {
	state := newTestState("a", "b")
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}

	handler.handleStartRound(context.Background(), state, dispatcher, noopLogger{}, "a")
	starter := state.Table.Seated[state.Table.Round.TurnIndex].UserID
	before := len(state.Table.Round.Hands[starter])

	state.Tick = state.TurnDeadline
	handler.processTimers(context.Background(), state, dispatcher, noopLogger{})

	if got := len(state.Table.Round.Hands[starter]); got != before-1 {
		t.Fatalf("Expected the opener to auto-play one card, hand went %d -> %d", before, got)
	}
}

func TestSyncBalances_RefreshesCache(t *testing.T) {
	state := newTestState("a", "b")
	handler := &matchHandler{}
	economy := state.Economy.(*mockEconomy)

	economy.balances["b"] = 7777
	state.Tick = int64(config.GetGameConfig().BalanceSyncSeconds)

	if changed := handler.syncBalances(context.Background(), state, noopLogger{}); !changed {
		t.Fatal("Expected the cache refresh to report a change")
	}
	if state.Table.Balances["b"] != 7777 {
		t.Fatalf("Expected cached balance 7777, got %d", state.Table.Balances["b"])
	}

	// A second call within the same window is a no-op.
	if changed := handler.syncBalances(context.Background(), state, noopLogger{}); changed {
		t.Fatal("Expected no second refresh inside the sync window")
	}
}

func TestSettleWallets_PairedUpdates(t *testing.T) {
	state := newTestState("a", "b")
	handler := &matchHandler{}
	economy := state.Economy.(*mockEconomy)

	handler.settleWallets(context.Background(), state, noopLogger{}, []domain.Transfer{
		{FromID: "b", ToID: "a", Units: 3, Amount: 30, Note: "test"},
	})

	if len(economy.updates) != 2 {
		t.Fatalf("Expected a paired debit and credit, got %d updates", len(economy.updates))
	}
	var sum int64
	for _, u := range economy.updates {
		sum += u.Amount
	}
	if sum != 0 {
		t.Fatalf("Expected zero-sum wallet updates, net %d", sum)
	}
}

func TestMatchLeave_LastParticipantKillsRoom(t *testing.T) {
	state := newTestState("a")
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}

	next := handler.MatchLeave(context.Background(), noopLogger{}, nil, nil, dispatcher, 1, state, []runtime.Presence{fakePresence{userID: "a"}})
	if next != nil {
		t.Fatal("Expected the match to terminate with its last participant gone")
	}
}

func TestBroadcastEvent_DropsUndeliverableTargetedEvents(t *testing.T) {
	state := newTestState("a")
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}

	handler.broadcastEvent(state, dispatcher, noopLogger{}, app.Event{
		Kind:       app.EventHandDealt,
		Payload:    app.HandDealtPayload{UserID: "offline"},
		Recipients: []string{"offline"},
	})

	if dispatcher.broadcastCount != 0 {
		t.Fatal("Targeted event without a connected recipient must not be broadcast")
	}
}
