package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"time"

	"thirteen/internal/app/launch"
	"thirteen/internal/config"

	"github.com/heroiclabs/nakama-common/runtime"
)

// roomCodeAlphabet omits easily confused characters.
const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const roomCodeLength = 6

var codeRng = rand.New(rand.NewSource(time.Now().UnixNano()))

func generateRoomCode() string {
	code := make([]byte, roomCodeLength)
	for i := range code {
		code[i] = roomCodeAlphabet[codeRng.Intn(len(roomCodeAlphabet))]
	}
	return string(code)
}

type createRoomRequest struct {
	BetUnit int64 `json:"bet_unit"`
}

type createRoomResponse struct {
	MatchID string `json:"match_id"`
	Code    string `json:"code"`
}

// RpcCreateRoomFn creates an authoritative match for a new table. The
// caller becomes the owner and must afford the table's minimum entry.
func RpcCreateRoomFn(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	username, _ := ctx.Value(runtime.RUNTIME_CTX_USERNAME).(string)
	if userID == "" {
		return "", runtime.NewError("unauthenticated", 16)
	}

	var request createRoomRequest
	if err := json.Unmarshal([]byte(payload), &request); err != nil {
		return "", runtime.NewError("invalid payload", 3)
	}
	if !config.IsAllowedBetUnit(request.BetUnit) {
		return "", runtime.NewError("stake not allowed", 3)
	}

	economy := NewNakamaEconomyAdapter(nk)
	balance, err := economy.GetBalance(ctx, userID)
	if err != nil {
		logger.Error("RpcCreateRoom [User:%s]: Failed to read balance: %v", userID, err)
		return "", runtime.NewError("balance unavailable", 13)
	}
	if balance < config.MinimumEntry(request.BetUnit) {
		return "", runtime.NewError("insufficient balance for this stake", 9)
	}

	code := generateRoomCode()
	params := map[string]interface{}{
		"code":            code,
		"bet_unit":        request.BetUnit,
		"creator_id":      userID,
		"creator_name":    username,
		"creator_balance": balance,
	}
	matchID, err := nk.MatchCreate(ctx, MatchNameThirteen, params)
	if err != nil {
		logger.Error("RpcCreateRoom [User:%s]: Failed to create match: %v", userID, err)
		return "", runtime.NewError("failed to create room", 13)
	}

	logger.Info("RpcCreateRoom [User:%s]: Created room %s (match %s)", userID, code, matchID)

	response, err := json.Marshal(createRoomResponse{MatchID: matchID, Code: code})
	if err != nil {
		return "", runtime.NewError("failed to encode response", 13)
	}
	return string(response), nil
}

type joinRoomRequest struct {
	Code string `json:"code"`
}

type joinRoomResponse struct {
	MatchID string `json:"match_id"`
}

// RpcJoinRoomFn resolves a room code to its match id via the label index.
func RpcJoinRoomFn(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", runtime.NewError("unauthenticated", 16)
	}

	var request joinRoomRequest
	if err := json.Unmarshal([]byte(payload), &request); err != nil || request.Code == "" {
		return "", runtime.NewError("invalid payload", 3)
	}

	limit := 1
	authoritative := true
	labelQuery := fmt.Sprintf("+label.code:%s", request.Code)
	minSize := 0
	maxSize := 100

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, labelQuery)
	if err != nil {
		logger.Error("RpcJoinRoom [User:%s]: Failed to list matches: %v", userID, err)
		return "", runtime.NewError("failed to look up room", 13)
	}
	if len(matches) == 0 {
		return "", runtime.NewError("room not found", 5)
	}

	response, err := json.Marshal(joinRoomResponse{MatchID: matches[0].MatchId})
	if err != nil {
		return "", runtime.NewError("failed to encode response", 13)
	}
	return string(response), nil
}

type tableSessionRequest struct {
	Token string `json:"token"`
}

type tableSessionResponse struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Balance     int64  `json:"balance"`
}

// RpcTableSessionFn verifies a portal launch token and returns the
// identity and balance it resolves to.
func RpcTableSessionFn(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var request tableSessionRequest
	if err := json.Unmarshal([]byte(payload), &request); err != nil || request.Token == "" {
		return "", runtime.NewError("invalid payload", 3)
	}

	claims, err := launchService().Verify(request.Token)
	if err != nil {
		logger.Warn("RpcTableSession: Rejected launch token: %v", err)
		return "", runtime.NewError("invalid launch token", 16)
	}

	economy := NewNakamaEconomyAdapter(nk)
	balance, err := economy.GetBalance(ctx, claims.UserID)
	if err != nil {
		logger.Error("RpcTableSession [User:%s]: Failed to read balance: %v", claims.UserID, err)
		return "", runtime.NewError("balance unavailable", 13)
	}

	response, err := json.Marshal(tableSessionResponse{
		UserID:      claims.UserID,
		DisplayName: claims.DisplayName,
		Balance:     balance,
	})
	if err != nil {
		return "", runtime.NewError("failed to encode response", 13)
	}
	return string(response), nil
}

func launchService() *launch.Service {
	secret := os.Getenv("LAUNCH_TOKEN_SECRET")
	issuer := os.Getenv("LAUNCH_TOKEN_ISSUER")
	if issuer == "" {
		issuer = "thirteen"
	}
	ttl := time.Duration(config.GetGameConfig().LaunchTokenTTLSeconds) * time.Second
	return launch.NewService(secret, issuer, ttl)
}

// RegisterRPCs registers all RPC handlers with the Nakama initializer.
func RegisterRPCs(initializer runtime.Initializer) error {
	if err := initializer.RegisterRpc(RpcCreateRoom, RpcCreateRoomFn); err != nil {
		return err
	}
	if err := initializer.RegisterRpc(RpcJoinRoom, RpcJoinRoomFn); err != nil {
		return err
	}
	return initializer.RegisterRpc(RpcTableSession, RpcTableSessionFn)
}
