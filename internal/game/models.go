package game

import (
	"sync"
	"time"
)

// MaxHP is the default hit point total for both combatants. It can be
// overridden via the server configuration file.
const MaxHP = 40

// RoomCodeLength is the length of the human-shareable room code.
const RoomCodeLength = 6

// Character is a persisted fighter definition. The battle core only ever
// reads characters; all mutation happens through the REST CRUD surface.
type Character struct {
	ID         string `json:"id" gorm:"primaryKey"`
	UserID     string `json:"user_id" gorm:"index"`
	Name       string `json:"name"`
	ImageURL   string `json:"image_url"`
	TextPrompt string `json:"text_prompt"`
	// ReferenceImageURL is the optional source photo the character image was
	// derived from.
	ReferenceImageURL string `json:"reference_image_url"`
	// VisualFingerprint is a dense appearance description used to keep the
	// fighter visually consistent across rounds. Empty until computed.
	VisualFingerprint string    `json:"visual_fingerprint"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Appearance returns the best available visual description for prompts.
func (c *Character) Appearance() string {
	if c.VisualFingerprint != "" {
		return c.VisualFingerprint
	}
	return c.TextPrompt
}

type RoomState string

const (
	RoomStateWaiting         RoomState = "waiting"
	RoomStateCharacterSelect RoomState = "character_select"
	RoomStateBattle          RoomState = "battle"
	RoomStateCompleted       RoomState = "completed"
)

// Slot identifies one of the two player positions in a room.
type Slot string

const (
	SlotPlayer1 Slot = "player1"
	SlotPlayer2 Slot = "player2"
)

// Opponent returns the other slot.
func (s Slot) Opponent() Slot {
	if s == SlotPlayer1 {
		return SlotPlayer2
	}
	return SlotPlayer1
}

// PlayerSlot binds a stable player identity to its (mutable) network
// connection. PlayerID outlives reconnects within the room's lifetime;
// ConnectionID is rebound on rejoin.
type PlayerSlot struct {
	ConnectionID string `json:"connection_id"`
	PlayerID     string `json:"player_id"`
	Username     string `json:"username"`
	CharacterID  string `json:"character_id"`
	Ready        bool   `json:"ready"`
	Connected    bool   `json:"connected"`
}

// Room is a joinable two-player session identified by a short code.
type Room struct {
	ID                  string      `json:"id"`
	HostConnectionID    string      `json:"-"`
	Player1             *PlayerSlot `json:"player1"`
	Player2             *PlayerSlot `json:"player2"`
	State               RoomState   `json:"state"`
	Environment         string      `json:"environment"`
	EnvironmentImageURL string      `json:"environment_image_url"`
	Battle              *Battle     `json:"battle"`
	CreatedAt           time.Time   `json:"created_at"`
	ExpiresAt           time.Time   `json:"expires_at"`

	// Mu serializes all mutation of this room and its battle. Every
	// orchestrator entry point for the room must hold it.
	Mu sync.Mutex `json:"-"`
}

// SlotFor returns the slot struct for the given position.
func (r *Room) SlotFor(s Slot) *PlayerSlot {
	if s == SlotPlayer1 {
		return r.Player1
	}
	return r.Player2
}

// Combatant is a player's in-battle fighter state.
type Combatant struct {
	PlayerID  string    `json:"player_id"`
	Character Character `json:"character"`
	CurrentHP int       `json:"current_hp"`
	MaxHP     int       `json:"max_hp"`
}

// BattleState is the narrative world state threaded through rounds. It is
// opaque to the control flow: the oracle replaces it wholesale each round.
type BattleState struct {
	EnvironmentDescription string   `json:"environment_description"`
	Player1Condition       string   `json:"player1_condition"`
	Player2Condition       string   `json:"player2_condition"`
	PreviousEvents         []string `json:"previous_events"`
	BattleSummary          string   `json:"battle_summary"`
}

// PendingAction is a submitted, not yet resolved action for one slot.
type PendingAction struct {
	ActionText  string    `json:"action_text"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// PendingActionSet holds at most one action per player at a time. Both are
// cleared together when a round resolves.
type PendingActionSet struct {
	Player1 *PendingAction `json:"player1"`
	Player2 *PendingAction `json:"player2"`
}

// BattlePhase is the implicit sub-state while a room is in battle.
type BattlePhase string

const (
	PhaseAwaitingActions BattlePhase = "awaiting_actions"
	PhaseResolving       BattlePhase = "resolving"
)

type WinCondition string

const (
	WinConditionHPDepleted WinCondition = "hp_depleted"
	WinConditionForfeit    WinCondition = "forfeit"
	// WinConditionDoubleKO marks a simultaneous knockout with no oracle
	// declared winner; WinnerID is empty in that case.
	WinConditionDoubleKO WinCondition = "double_ko"
)

// Battle is the active combat instance bound to a room.
type Battle struct {
	ID             string           `json:"id"`
	RoomID         string           `json:"room_id"`
	Player1        Combatant        `json:"player1"`
	Player2        Combatant        `json:"player2"`
	CurrentState   BattleState      `json:"current_state"`
	PendingActions PendingActionSet `json:"pending_actions"`
	Phase          BattlePhase      `json:"phase"`
	// ResolutionHistory is append-only; entries are immutable once applied.
	ResolutionHistory []Resolution `json:"resolution_history"`
	WinnerID          string       `json:"winner_id"`
	WinCondition      WinCondition `json:"win_condition"`
	CreatedAt         time.Time    `json:"created_at"`
	CompletedAt       *time.Time   `json:"completed_at"`

	// Current per-player choice sets. Delivered privately over the realtime
	// channel, never part of room-wide battle snapshots.
	Player1Choices []ActionChoice `json:"-"`
	Player2Choices []ActionChoice `json:"-"`
}

// Combatant returns the combatant for the given slot.
func (b *Battle) Combatant(s Slot) *Combatant {
	if s == SlotPlayer1 {
		return &b.Player1
	}
	return &b.Player2
}

// Decided reports whether the battle reached a terminal state.
func (b *Battle) Decided() bool {
	return b.CompletedAt != nil
}

// ChoiceCategory is one of the four pre-authored action categories.
type ChoiceCategory string

const (
	CategoryAttack ChoiceCategory = "attack"
	CategoryMagic  ChoiceCategory = "magic"
	CategoryDefend ChoiceCategory = "defend"
	CategoryHeal   ChoiceCategory = "heal"
)

// ValidCategory reports whether s names a known choice category.
func ValidCategory(s string) bool {
	switch ChoiceCategory(s) {
	case CategoryAttack, CategoryMagic, CategoryDefend, CategoryHeal:
		return true
	}
	return false
}

// ActionChoice is one pre-authored option offered to a player for a round.
type ActionChoice struct {
	Label       string         `json:"label"`
	Description string         `json:"description"`
	Category    ChoiceCategory `json:"category"`
}

// DiceRoll is an optional transparency trace attached to a resolution.
type DiceRoll struct {
	Player   string `json:"player"`
	Purpose  string `json:"purpose"`
	Formula  string `json:"formula"`
	Result   int    `json:"result"`
	Modifier int    `json:"modifier"`
}

// Resolution is the structured outcome of one resolved round. Produced once
// by the oracle client, applied exactly once, then retained immutably.
type Resolution struct {
	ID                   string         `json:"id"`
	Player1Action        string         `json:"player1_action"`
	Player2Action        string         `json:"player2_action"`
	Interpretation       string         `json:"interpretation"`
	Player1HPChange      int            `json:"player1_hp_change"`
	Player2HPChange      int            `json:"player2_hp_change"`
	NewBattleState       BattleState    `json:"new_battle_state"`
	VideoPrompt          string         `json:"video_prompt"`
	NarratorScript       string         `json:"narrator_script"`
	BattleSummaryUpdate  string         `json:"battle_summary_update"`
	Player1ActionChoices []ActionChoice `json:"player1_action_choices"`
	Player2ActionChoices []ActionChoice `json:"player2_action_choices"`
	IsVictory            bool           `json:"is_victory"`
	WinnerID             string         `json:"winner_id"`
	VictoryNarration     string         `json:"victory_narration"`
	DiceRolls            []DiceRoll     `json:"dice_rolls"`
	Timestamp            time.Time      `json:"timestamp"`
}

// ChoicesFor returns the next-round choice set for the given slot.
func (r *Resolution) ChoicesFor(s Slot) []ActionChoice {
	if s == SlotPlayer1 {
		return r.Player1ActionChoices
	}
	return r.Player2ActionChoices
}

// SanitizedForRoom returns a copy safe for room-wide broadcast: the per-player
// choice sets are stripped so each player only ever sees their own choices,
// delivered privately.
func (r *Resolution) SanitizedForRoom() Resolution {
	out := *r
	out.Player1ActionChoices = nil
	out.Player2ActionChoices = nil
	return out
}
