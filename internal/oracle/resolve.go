package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/willemhelmet/prompt-pugalists/internal/constants"
	"github.com/willemhelmet/prompt-pugalists/internal/game"
	"github.com/willemhelmet/prompt-pugalists/internal/logging"
)

// resolutionPayload mirrors the engine's JSON contract with pointer fields so
// missing values can be told apart from zero values and defaulted
// individually.
type resolutionPayload struct {
	Interpretation  *string `json:"interpretation"`
	Player1HPChange *int    `json:"player1HpChange"`
	Player2HPChange *int    `json:"player2HpChange"`
	NewBattleState  *struct {
		EnvironmentDescription *string  `json:"environmentDescription"`
		Player1Condition       *string  `json:"player1Condition"`
		Player2Condition       *string  `json:"player2Condition"`
		PreviousEvents         []string `json:"previousEvents"`
	} `json:"newBattleState"`
	VideoPrompt          *string           `json:"videoPrompt"`
	NarratorScript       *string           `json:"narratorScript"`
	BattleSummaryUpdate  *string           `json:"battleSummaryUpdate"`
	Player1ActionChoices []json.RawMessage `json:"player1ActionChoices"`
	Player2ActionChoices []json.RawMessage `json:"player2ActionChoices"`
	IsVictory            *bool             `json:"isVictory"`
	WinnerID             *string           `json:"winnerId"`
	VictoryNarration     *string           `json:"victoryNarration"`
	DiceRolls            []game.DiceRoll   `json:"diceRolls"`
}

func strOr(p *string, def string) string {
	if p != nil && *p != "" {
		return *p
	}
	return def
}

func intOr(p *int, def int) int {
	if p != nil {
		return *p
	}
	return def
}

// parseActionChoices validates up to four raw choice objects, coercing
// unknown categories to attack so downstream code never sees an invalid one.
func parseActionChoices(raw []json.RawMessage) []game.ActionChoice {
	out := make([]game.ActionChoice, 0, 4)
	for _, r := range raw {
		if len(out) == 4 {
			break
		}
		var c struct {
			Label       string `json:"label"`
			Description string `json:"description"`
			Category    string `json:"category"`
		}
		if err := json.Unmarshal(r, &c); err != nil {
			continue
		}
		if c.Label == "" {
			c.Label = "Unknown Action"
		}
		if c.Description == "" {
			c.Description = c.Label
		}
		if !game.ValidCategory(c.Category) {
			c.Category = string(game.CategoryAttack)
		}
		out = append(out, game.ActionChoice{
			Label:       c.Label,
			Description: c.Description,
			Category:    game.ChoiceCategory(c.Category),
		})
	}
	return out
}

// ResolveRound asks the engine model to resolve one round. The returned
// resolution is always structurally complete: malformed upstream output is
// defaulted field by field, and any hard failure yields the deterministic
// placeholder so the round can complete regardless of upstream health.
func (c *Client) ResolveRound(ctx context.Context, b *game.Battle, action1, action2 string) game.Resolution {
	prompt := buildEnginePrompt(b, action1, action2)

	content, err := c.chat(ctx, constants.MistralEngineModel, []chatMessage{
		{Role: "system", Content: c.engineSystemPrompt},
		{Role: "user", Content: prompt},
	}, true, 0.8, 0)
	if err != nil {
		logging.Error("oracle resolve call failed; using placeholder", err, logging.Fields{constants.LogFieldBattleID: b.ID})
		return PlaceholderResolution(b, action1, action2)
	}

	var p resolutionPayload
	if err := json.Unmarshal([]byte(content), &p); err != nil {
		logging.Error("oracle returned non-JSON resolution; using placeholder", err, logging.Fields{constants.LogFieldBattleID: b.ID})
		return PlaceholderResolution(b, action1, action2)
	}

	state := b.CurrentState
	newState := game.BattleState{
		EnvironmentDescription: state.EnvironmentDescription,
		Player1Condition:       state.Player1Condition,
		Player2Condition:       state.Player2Condition,
		PreviousEvents:         state.PreviousEvents,
		BattleSummary:          state.BattleSummary,
	}
	if p.NewBattleState != nil {
		newState.EnvironmentDescription = strOr(p.NewBattleState.EnvironmentDescription, state.EnvironmentDescription)
		newState.Player1Condition = strOr(p.NewBattleState.Player1Condition, state.Player1Condition)
		newState.Player2Condition = strOr(p.NewBattleState.Player2Condition, state.Player2Condition)
		if p.NewBattleState.PreviousEvents != nil {
			newState.PreviousEvents = p.NewBattleState.PreviousEvents
		}
	}

	interpretation := strOr(p.Interpretation, "The fighters clash!")
	res := game.Resolution{
		ID:                   uuid.NewString(),
		Player1Action:        action1,
		Player2Action:        action2,
		Interpretation:       interpretation,
		Player1HPChange:      intOr(p.Player1HPChange, 0),
		Player2HPChange:      intOr(p.Player2HPChange, 0),
		NewBattleState:       newState,
		VideoPrompt:          strOr(p.VideoPrompt, fmt.Sprintf("%s and %s clash in the arena. %s", b.Player1.Character.Name, b.Player2.Character.Name, styleSuffix)),
		NarratorScript:       strOr(p.NarratorScript, interpretation),
		BattleSummaryUpdate:  strOr(p.BattleSummaryUpdate, ""),
		Player1ActionChoices: parseActionChoices(p.Player1ActionChoices),
		Player2ActionChoices: parseActionChoices(p.Player2ActionChoices),
		IsVictory:            p.IsVictory != nil && *p.IsVictory,
		WinnerID:             strOr(p.WinnerID, ""),
		VictoryNarration:     strOr(p.VictoryNarration, ""),
		DiceRolls:            p.DiceRolls,
		Timestamp:            time.Now(),
	}
	if len(res.Player1ActionChoices) == 0 {
		res.Player1ActionChoices = fallbackChoices(b.Player2.Character.Name)
	}
	if len(res.Player2ActionChoices) == 0 {
		res.Player2ActionChoices = fallbackChoices(b.Player1.Character.Name)
	}

	logging.Info("round resolved by oracle", logging.Fields{
		constants.LogFieldBattleID: b.ID,
		"player1_hp_change":        res.Player1HPChange,
		"player2_hp_change":        res.Player2HPChange,
		"is_victory":               res.IsVictory,
	})
	return res
}

// PlaceholderResolution is the deterministic zero-effect round used when the
// upstream oracle is unavailable: no HP changes, generic narration, fallback
// choices and no victory, so battle progress never stalls on an outage.
func PlaceholderResolution(b *game.Battle, action1, action2 string) game.Resolution {
	p1 := b.Player1.Character.Name
	p2 := b.Player2.Character.Name
	state := b.CurrentState

	return game.Resolution{
		ID:              uuid.NewString(),
		Player1Action:   action1,
		Player2Action:   action2,
		Interpretation:  fmt.Sprintf("%s and %s trade blows, but neither lands anything decisive.", p1, p2),
		Player1HPChange: 0,
		Player2HPChange: 0,
		NewBattleState: game.BattleState{
			EnvironmentDescription: state.EnvironmentDescription,
			Player1Condition:       state.Player1Condition,
			Player2Condition:       state.Player2Condition,
			PreviousEvents:         append(append([]string{}, state.PreviousEvents...), "The fighters circled each other warily."),
			BattleSummary:          state.BattleSummary,
		},
		VideoPrompt:          fmt.Sprintf("%s and %s circle each other in the arena, feinting and probing for an opening. %s", p1, p2, styleSuffix),
		NarratorScript:       fmt.Sprintf("A cagey round, this one! %s and %s size each other up, neither willing to commit. The crowd senses the storm that's coming.", p1, p2),
		BattleSummaryUpdate:  "The fighters probed each other's defenses without landing a decisive blow.",
		Player1ActionChoices: fallbackChoices(p2),
		Player2ActionChoices: fallbackChoices(p1),
		IsVictory:            false,
		Timestamp:            time.Now(),
	}
}
