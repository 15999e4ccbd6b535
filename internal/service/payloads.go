package service

import (
	"time"

	"github.com/willemhelmet/prompt-pugalists/internal/game"
)

// Client -> server request payloads, decoded from realtime envelopes.

type CreateRoomRequest struct {
	Environment         string `json:"environment"`
	EnvironmentImageURL string `json:"environment_image_url"`
}

type JoinRequest struct {
	RoomID   string `json:"room_id"`
	Username string `json:"username"`
}

type RejoinRequest struct {
	RoomID   string `json:"room_id"`
	PlayerID string `json:"player_id"`
}

type SelectCharacterRequest struct {
	CharacterID string `json:"character_id"`
}

type ActionRequest struct {
	ActionText string `json:"action_text"`
}

// Server -> client payloads. Each is a fully-copied value so broadcasts
// never alias room state after its mutex is released.

type errorPayload struct {
	Message string `json:"message"`
}

type roomCreatedPayload struct {
	RoomID      string         `json:"room_id"`
	State       game.RoomState `json:"state"`
	Environment string         `json:"environment"`
	ExpiresAt   time.Time      `json:"expires_at"`
}

type playerJoinedPayload struct {
	RoomID   string    `json:"room_id"`
	Slot     game.Slot `json:"slot"`
	PlayerID string    `json:"player_id"`
	Username string    `json:"username"`
}

type roomFullPayload struct {
	RoomID string         `json:"room_id"`
	State  game.RoomState `json:"state"`
}

type playerDroppedPayload struct {
	PlayerID     string    `json:"player_id"`
	Slot         game.Slot `json:"slot"`
	Username     string    `json:"username"`
	GraceExpired bool      `json:"grace_expired"`
}

type playerRejoinedPayload struct {
	PlayerID string    `json:"player_id"`
	Slot     game.Slot `json:"slot"`
	Username string    `json:"username"`
}

type charSelectedPayload struct {
	Slot      game.Slot      `json:"slot"`
	Character game.Character `json:"character"`
}

type battleStartPayload struct {
	BattleID               string         `json:"battle_id"`
	RoomID                 string         `json:"room_id"`
	Environment            string         `json:"environment"`
	EnvironmentImageURL    string         `json:"environment_image_url"`
	Player1                game.Combatant `json:"player1"`
	Player2                game.Combatant `json:"player2"`
	ActionTimeLimitSeconds int            `json:"action_time_limit_seconds"`
}

type actionChoicesPayload struct {
	Choices                []game.ActionChoice `json:"choices"`
	ActionTimeLimitSeconds int                 `json:"action_time_limit_seconds"`
}

type actionReceivedPayload struct {
	Slot game.Slot `json:"slot"`
}

type resolvingPayload struct {
	BattleID string `json:"battle_id"`
	Round    int    `json:"round"`
}

type roundCompletePayload struct {
	Round      int             `json:"round"`
	Resolution game.Resolution `json:"resolution"`
	Player1HP  int             `json:"player1_hp"`
	Player2HP  int             `json:"player2_hp"`
}

type battleEndPayload struct {
	BattleID         string            `json:"battle_id"`
	WinnerID         string            `json:"winner_id"`
	WinCondition     game.WinCondition `json:"win_condition"`
	VictoryNarration string            `json:"victory_narration"`
	Resolution       game.Resolution   `json:"resolution"`
	Player1HP        int               `json:"player1_hp"`
	Player2HP        int               `json:"player2_hp"`
	Rounds           int               `json:"rounds"`
}

type actionGeneratedPayload struct {
	ActionText string `json:"action_text"`
}

type narratorPayload struct {
	Script string `json:"script"`
	Round  int    `json:"round"`
}
