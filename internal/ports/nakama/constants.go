package nakama

const (
	// RpcCreateRoom creates a private table and returns its match id.
	RpcCreateRoom = "create_room"

	// RpcJoinRoom resolves a room code to a match id.
	RpcJoinRoom = "join_room"

	// RpcTableSession exchanges a portal launch token for the caller's identity and balance.
	RpcTableSession = "table_session"

	// MatchNameThirteen is the authoritative match handler name registered with Nakama.
	MatchNameThirteen = "thirteen_match"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartRound      int64 = 1
	OpPlayCards       int64 = 2
	OpPassTurn        int64 = 3
	OpOpeningDecision int64 = 4
	OpLeaveRoom       int64 = 5

	// Server -> Client events
	OpRoomState       int64 = 101
	OpRoundStarted    int64 = 102
	OpHandDealt       int64 = 103 // send privately
	OpCardsPlayed     int64 = 104
	OpTurnPassed      int64 = 105
	OpOpeningClaimed  int64 = 106
	OpOpeningDeclined int64 = 107
	OpMoneyMoved      int64 = 108
	OpRoundEnded      int64 = 109
	OpPlayerLeft      int64 = 110
	OpError           int64 = 111
)
