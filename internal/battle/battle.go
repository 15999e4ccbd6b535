package battle

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/willemhelmet/prompt-pugalists/internal/game"
)

// New constructs a battle from two ready slots. Both combatants start at
// maxHP and the narrative state opens with neutral conditions.
func New(roomID string, char1, char2 game.Character, player1ID, player2ID, environment string, maxHP int) *game.Battle {
	if maxHP <= 0 {
		maxHP = game.MaxHP
	}
	return &game.Battle{
		ID:     uuid.NewString(),
		RoomID: roomID,
		Player1: game.Combatant{
			PlayerID:  player1ID,
			Character: char1,
			CurrentHP: maxHP,
			MaxHP:     maxHP,
		},
		Player2: game.Combatant{
			PlayerID:  player2ID,
			Character: char2,
			CurrentHP: maxHP,
			MaxHP:     maxHP,
		},
		CurrentState: game.BattleState{
			EnvironmentDescription: environment,
			Player1Condition:       fmt.Sprintf("%s stands ready for battle", char1.Name),
			Player2Condition:       fmt.Sprintf("%s stands ready for battle", char2.Name),
			PreviousEvents:         []string{},
		},
		Phase:     game.PhaseAwaitingActions,
		CreatedAt: time.Now(),
	}
}

// Snapshot returns a detached copy of the battle safe to read without the
// room mutex. Slices are copied and private choice sets dropped; the copy is
// what slow oracle calls receive while the live battle stays mutable under
// the lock.
func Snapshot(b *game.Battle) *game.Battle {
	cp := *b
	cp.CurrentState.PreviousEvents = append([]string(nil), b.CurrentState.PreviousEvents...)
	cp.ResolutionHistory = append([]game.Resolution(nil), b.ResolutionHistory...)
	cp.PendingActions = game.PendingActionSet{}
	cp.Player1Choices = nil
	cp.Player2Choices = nil
	return &cp
}

// clampHP bounds hp into [0, maxHP].
func clampHP(hp, maxHP int) int {
	if hp < 0 {
		return 0
	}
	if hp > maxHP {
		return maxHP
	}
	return hp
}

// ApplyResolution applies one round's outcome: HP deltas are clamped into
// [0, maxHP] for both combatants independently, the narrative state is
// replaced wholesale and the resolution is appended to history. This is the
// only code path that mutates HP or narrative state.
func ApplyResolution(b *game.Battle, res game.Resolution) {
	b.Player1.CurrentHP = clampHP(b.Player1.CurrentHP+res.Player1HPChange, b.Player1.MaxHP)
	b.Player2.CurrentHP = clampHP(b.Player2.CurrentHP+res.Player2HPChange, b.Player2.MaxHP)

	prevSummary := b.CurrentState.BattleSummary
	b.CurrentState = res.NewBattleState
	// The running battle summary accumulates server-side: the oracle emits a
	// per-round update, not the full text.
	if update := strings.TrimSpace(res.BattleSummaryUpdate); update != "" {
		if prevSummary == "" {
			b.CurrentState.BattleSummary = update
		} else {
			b.CurrentState.BattleSummary = prevSummary + "\n" + update
		}
	} else if b.CurrentState.BattleSummary == "" {
		b.CurrentState.BattleSummary = prevSummary
	}

	b.ResolutionHistory = append(b.ResolutionHistory, res)
}

// CheckVictory returns the winner's player id when exactly one combatant is
// at 0 HP. A simultaneous double knockout reports no winner here; the
// tie-break (oracle-declared winner, else a draw) belongs to the
// orchestrator.
func CheckVictory(b *game.Battle) (string, bool) {
	p1Down := b.Player1.CurrentHP <= 0
	p2Down := b.Player2.CurrentHP <= 0
	switch {
	case p1Down && p2Down:
		return "", false
	case p1Down:
		return b.Player2.PlayerID, true
	case p2Down:
		return b.Player1.PlayerID, true
	}
	return "", false
}

// DoubleKO reports whether both combatants are down.
func DoubleKO(b *game.Battle) bool {
	return b.Player1.CurrentHP <= 0 && b.Player2.CurrentHP <= 0
}
