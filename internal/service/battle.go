package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/willemhelmet/prompt-pugalists/internal/battle"
	"github.com/willemhelmet/prompt-pugalists/internal/constants"
	"github.com/willemhelmet/prompt-pugalists/internal/game"
	"github.com/willemhelmet/prompt-pugalists/internal/logging"
	"github.com/willemhelmet/prompt-pugalists/internal/room"
)

// HandleSubmitAction records one player's action for the current round. The
// latest submission before resolution wins. When both actions are present the
// round locks (further submissions are rejected until it completes) and
// resolution runs once, outside the room mutex.
func (o *Orchestrator) HandleSubmitAction(connectionID string, req ActionRequest) {
	actionText := strings.TrimSpace(req.ActionText)
	if actionText == "" {
		o.sendError(connectionID, constants.ErrInvalidRequest)
		return
	}

	rm, ok := o.registry.RoomByConnection(connectionID)
	if !ok {
		o.sendError(connectionID, constants.ErrNotInRoom)
		return
	}

	rm.Mu.Lock()
	b := rm.Battle
	if b == nil {
		rm.Mu.Unlock()
		o.sendError(connectionID, constants.ErrNoActiveBattle)
		return
	}
	if b.Decided() {
		rm.Mu.Unlock()
		o.sendError(connectionID, constants.ErrBattleAlreadyOver)
		return
	}
	if b.Phase == game.PhaseResolving {
		rm.Mu.Unlock()
		o.sendError(connectionID, constants.ErrActionsLocked)
		return
	}
	pos, posOK := room.SlotByConnection(rm, connectionID)
	if !posOK {
		rm.Mu.Unlock()
		o.sendError(connectionID, constants.ErrNotInRoom)
		return
	}

	pending := &game.PendingAction{ActionText: actionText, SubmittedAt: time.Now()}
	if pos == game.SlotPlayer1 {
		b.PendingActions.Player1 = pending
	} else {
		b.PendingActions.Player2 = pending
	}

	// Liveness only. The action text stays private until the round resolves.
	o.broadcast(rm, constants.EventActionReceived, actionReceivedPayload{Slot: pos})

	if b.PendingActions.Player1 == nil || b.PendingActions.Player2 == nil {
		rm.Mu.Unlock()
		return
	}

	// Both actions in. Lock the round and capture the inputs under the
	// mutex; the oracle call happens outside it and must never touch the
	// live battle, so it gets a detached snapshot.
	b.Phase = game.PhaseResolving
	action1 := b.PendingActions.Player1.ActionText
	action2 := b.PendingActions.Player2.ActionText
	round := len(b.ResolutionHistory) + 1
	snap := battle.Snapshot(b)
	o.broadcast(rm, constants.EventBattleResolving, resolvingPayload{BattleID: b.ID, Round: round})
	rm.Mu.Unlock()

	logging.Info("resolving round", logging.Fields{
		constants.LogFieldRoomID:   rm.ID,
		constants.LogFieldBattleID: b.ID,
		constants.LogFieldRound:    round,
	})
	go o.resolveRound(rm, b, snap, action1, action2)
}

// resolveRound runs one oracle resolution and applies it. Exactly one
// invocation is in flight per room at a time: the resolving phase set by the
// submit path gates re-entry, and a battle decided while the oracle call was
// in flight (forfeit) discards the result. The oracle reads only the
// snapshot; b is touched exclusively under the room mutex.
func (o *Orchestrator) resolveRound(rm *game.Room, b, snap *game.Battle, action1, action2 string) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	res := o.oracle.ResolveRound(ctx, snap, action1, action2)

	rm.Mu.Lock()
	defer rm.Mu.Unlock()

	if b.Decided() {
		logging.Info("discarding resolution for decided battle", logging.Fields{constants.LogFieldBattleID: b.ID})
		return
	}

	battle.ApplyResolution(b, res)
	b.PendingActions = game.PendingActionSet{}
	b.Player1Choices = res.Player1ActionChoices
	b.Player2Choices = res.Player2ActionChoices
	round := len(b.ResolutionHistory)

	winnerID, decided := battle.CheckVictory(b)
	winCondition := game.WinConditionHPDepleted
	switch {
	case !decided && battle.DoubleKO(b):
		decided = true
		// Simultaneous knockout: honor an oracle-declared winner when it
		// names one of the combatants, otherwise record a draw.
		if res.WinnerID == b.Player1.PlayerID || res.WinnerID == b.Player2.PlayerID {
			winnerID = res.WinnerID
		} else {
			winnerID = ""
			winCondition = game.WinConditionDoubleKO
		}
	case !decided && res.IsVictory:
		// Narrative victory with nobody at 0 HP: take the oracle's winner
		// when it names a combatant, else player1.
		decided = true
		if res.WinnerID == b.Player2.PlayerID {
			winnerID = b.Player2.PlayerID
		} else {
			winnerID = b.Player1.PlayerID
		}
	}

	// Round outcome goes room-wide with the private choice sets stripped;
	// the narration script goes to the host screen only.
	o.broadcast(rm, constants.EventRoundComplete, roundCompletePayload{
		Round:      round,
		Resolution: res.SanitizedForRoom(),
		Player1HP:  b.Player1.CurrentHP,
		Player2HP:  b.Player2.CurrentHP,
	})
	if rm.HostConnectionID != "" && res.NarratorScript != "" {
		o.send(rm.HostConnectionID, constants.EventNarratorAudio, narratorPayload{Script: res.NarratorScript, Round: round})
	}

	if decided {
		o.completeBattle(rm, b, winnerID, winCondition, res)
		return
	}

	b.Phase = game.PhaseAwaitingActions
	o.sendPrivateChoices(rm, b)
}

// completeBattle marks the battle terminal and announces it. Caller must hold
// the room mutex. Terminal state is set once; later resolutions and forfeits
// against a decided battle are no-ops. finalRes is the resolution that ended
// the battle and rides on the announcement, sanitized like any broadcast.
func (o *Orchestrator) completeBattle(rm *game.Room, b *game.Battle, winnerID string, winCondition game.WinCondition, finalRes game.Resolution) {
	now := time.Now()
	b.WinnerID = winnerID
	b.WinCondition = winCondition
	b.CompletedAt = &now
	b.Phase = game.PhaseAwaitingActions
	b.Player1Choices = nil
	b.Player2Choices = nil
	rm.State = game.RoomStateCompleted

	logging.Info("battle ended", logging.Fields{
		constants.LogFieldRoomID:   rm.ID,
		constants.LogFieldBattleID: b.ID,
		"winner_id":                winnerID,
		"win_condition":            string(winCondition),
	})
	o.broadcast(rm, constants.EventBattleEnd, battleEndPayload{
		BattleID:         b.ID,
		WinnerID:         winnerID,
		WinCondition:     winCondition,
		VictoryNarration: finalRes.VictoryNarration,
		Resolution:       finalRes.SanitizedForRoom(),
		Player1HP:        b.Player1.CurrentHP,
		Player2HP:        b.Player2.CurrentHP,
		Rounds:           len(b.ResolutionHistory),
	})
}

// HandleGenerateAction writes an action suggestion for the caller and
// delivers it privately. The suggestion is not a submission; the player still
// sends battle:action with whatever text they settle on.
func (o *Orchestrator) HandleGenerateAction(connectionID string) {
	rm, ok := o.registry.RoomByConnection(connectionID)
	if !ok {
		o.sendError(connectionID, constants.ErrNotInRoom)
		return
	}

	rm.Mu.Lock()
	b := rm.Battle
	if b == nil {
		rm.Mu.Unlock()
		o.sendError(connectionID, constants.ErrNoActiveBattle)
		return
	}
	if b.Decided() {
		rm.Mu.Unlock()
		o.sendError(connectionID, constants.ErrBattleAlreadyOver)
		return
	}
	slot := room.PlayerByConnection(rm, connectionID)
	if slot == nil {
		rm.Mu.Unlock()
		o.sendError(connectionID, constants.ErrNotInRoom)
		return
	}
	playerID := slot.PlayerID
	snap := battle.Snapshot(b)
	rm.Mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	text := o.oracle.SuggestAction(ctx, snap, playerID)
	o.send(connectionID, constants.EventActionGenerated, actionGeneratedPayload{ActionText: text})
}

// HandleForfeit concedes the battle for the caller. Forfeiting is idempotent
// and loses to any terminal state already reached; a decided battle is never
// reopened or re-decided.
func (o *Orchestrator) HandleForfeit(connectionID string) {
	rm, ok := o.registry.RoomByConnection(connectionID)
	if !ok {
		o.sendError(connectionID, constants.ErrNotInRoom)
		return
	}

	rm.Mu.Lock()
	defer rm.Mu.Unlock()

	b := rm.Battle
	if b == nil {
		o.sendError(connectionID, constants.ErrNoActiveBattle)
		return
	}
	if b.Decided() {
		return
	}
	pos, posOK := room.SlotByConnection(rm, connectionID)
	if !posOK {
		o.sendError(connectionID, constants.ErrNotInRoom)
		return
	}

	loser := b.Combatant(pos)
	winner := b.Combatant(pos.Opponent())

	// The concession is recorded as a synthesized resolution so HP still
	// only ever changes through ApplyResolution and the history stays
	// complete.
	res := forfeitResolution(b, pos)
	battle.ApplyResolution(b, res)
	b.PendingActions = game.PendingActionSet{}

	o.broadcast(rm, constants.EventRoundComplete, roundCompletePayload{
		Round:      len(b.ResolutionHistory),
		Resolution: res.SanitizedForRoom(),
		Player1HP:  b.Player1.CurrentHP,
		Player2HP:  b.Player2.CurrentHP,
	})
	if rm.HostConnectionID != "" {
		o.send(rm.HostConnectionID, constants.EventNarratorAudio, narratorPayload{Script: res.NarratorScript, Round: len(b.ResolutionHistory)})
	}

	logging.Info("player forfeited", logging.Fields{
		constants.LogFieldRoomID:   rm.ID,
		constants.LogFieldBattleID: b.ID,
		constants.LogFieldPlayerID: loser.PlayerID,
	})
	o.completeBattle(rm, b, winner.PlayerID, game.WinConditionForfeit, res)
}

// forfeitResolution synthesizes the terminal round for a concession: the
// forfeiting combatant drops to 0 HP, the opponent is untouched.
func forfeitResolution(b *game.Battle, forfeiting game.Slot) game.Resolution {
	loser := b.Combatant(forfeiting)
	winner := b.Combatant(forfeiting.Opponent())

	hp1, hp2 := 0, 0
	if forfeiting == game.SlotPlayer1 {
		hp1 = -loser.CurrentHP
	} else {
		hp2 = -loser.CurrentHP
	}

	state := b.CurrentState
	interpretation := fmt.Sprintf("%s yields the battle to %s.", loser.Character.Name, winner.Character.Name)
	newState := game.BattleState{
		EnvironmentDescription: state.EnvironmentDescription,
		Player1Condition:       state.Player1Condition,
		Player2Condition:       state.Player2Condition,
		PreviousEvents:         append(append([]string{}, state.PreviousEvents...), interpretation),
		BattleSummary:          state.BattleSummary,
	}
	if forfeiting == game.SlotPlayer1 {
		newState.Player1Condition = fmt.Sprintf("%s has conceded the fight", loser.Character.Name)
	} else {
		newState.Player2Condition = fmt.Sprintf("%s has conceded the fight", loser.Character.Name)
	}

	return game.Resolution{
		ID:                  uuid.NewString(),
		Interpretation:      interpretation,
		Player1HPChange:     hp1,
		Player2HPChange:     hp2,
		NewBattleState:      newState,
		NarratorScript:      fmt.Sprintf("And that's it! %s throws in the towel! %s takes the victory by concession, and the crowd roars its approval!", loser.Character.Name, winner.Character.Name),
		BattleSummaryUpdate: interpretation,
		IsVictory:           true,
		WinnerID:            winner.PlayerID,
		VictoryNarration:    fmt.Sprintf("%s stands victorious as %s bows out of the fight.", winner.Character.Name, loser.Character.Name),
		Timestamp:           time.Now(),
	}
}
