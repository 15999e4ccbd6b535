package oracle

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/willemhelmet/prompt-pugalists/internal/constants"
	"github.com/willemhelmet/prompt-pugalists/internal/game"
	"github.com/willemhelmet/prompt-pugalists/internal/logging"
)

// fallbackChoices is the deterministic choice set used when the oracle cannot
// produce one: one option per category, phrased against the named opponent.
func fallbackChoices(opponentName string) []game.ActionChoice {
	return []game.ActionChoice{
		{
			Label:       "Strike",
			Description: fmt.Sprintf("Launch a direct attack at %s.", opponentName),
			Category:    game.CategoryAttack,
		},
		{
			Label:       "Channel Power",
			Description: "Gather mystical energy and unleash it in a burst.",
			Category:    game.CategoryMagic,
		},
		{
			Label:       "Brace",
			Description: "Take a defensive stance and prepare to counter.",
			Category:    game.CategoryDefend,
		},
		{
			Label:       "Recover",
			Description: "Steady your breathing and recover some strength.",
			Category:    game.CategoryHeal,
		},
	}
}

// InitialActionChoices produces the opening choice set for one player before
// any round has resolved. Falls back to the deterministic set on any failure
// so battle start never blocks on the upstream model.
func (c *Client) InitialActionChoices(ctx context.Context, character, opponent game.Character, environment string) []game.ActionChoice {
	prompt := fmt.Sprintf(`You are generating opening-round action choices for a fighting game.

The player's fighter: %s. Appearance: %s
The opponent: %s. Appearance: %s
Battle environment: %s

Generate 4 distinct tactical options for the opening round, exactly one per category ("attack", "magic", "defend", "heal"), each fitting the fighter's theme. Return ONLY JSON: {"choices": [{"label": "...", "description": "...", "category": "..."}]}. Labels short and punchy, descriptions 1-2 sentences.`,
		character.Name, character.Appearance(),
		opponent.Name, opponent.Appearance(),
		environment,
	)

	content, err := c.chat(ctx, constants.MistralSuggestModel, []chatMessage{
		{Role: "user", Content: prompt},
	}, true, 0.9, 0)
	if err != nil {
		logging.Warn("oracle initial choices failed; using fallback", logging.Fields{constants.LogFieldName: character.Name})
		return fallbackChoices(opponent.Name)
	}

	var payload struct {
		Choices []json.RawMessage `json:"choices"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return fallbackChoices(opponent.Name)
	}
	choices := parseActionChoices(payload.Choices)
	if len(choices) == 0 {
		return fallbackChoices(opponent.Name)
	}
	return choices
}

// SuggestAction writes one free-text action on the player's behalf, in
// character and aware of the current battle state. On failure it returns a
// generic but usable attack line rather than an error.
func (c *Client) SuggestAction(ctx context.Context, b *game.Battle, playerID string) string {
	me := &b.Player1
	them := &b.Player2
	if b.Player2.PlayerID == playerID {
		me, them = &b.Player2, &b.Player1
	}

	fallback := fmt.Sprintf("%s lunges forward with a fierce attack aimed at %s!", me.Character.Name, them.Character.Name)

	prompt := fmt.Sprintf(`You write battle actions for a fighting game player. Write ONE action declaration (1-2 sentences, first person or character-name voice) for this fighter's next move.

Fighter: %s (%d/%d HP). Appearance: %s
Opponent: %s (%d/%d HP).
Environment: %s
Fighter's current condition: %s

Make it creative, specific to the fighter's theme and the current situation. If HP is low, consider defensive or desperate moves. Output ONLY the action text, no quotes, no preamble.`,
		me.Character.Name, me.CurrentHP, me.MaxHP, me.Character.Appearance(),
		them.Character.Name, them.CurrentHP, them.MaxHP,
		b.CurrentState.EnvironmentDescription,
		conditionFor(b, playerID),
	)

	content, err := c.chat(ctx, constants.MistralSuggestModel, []chatMessage{
		{Role: "user", Content: prompt},
	}, false, 1.0, 200)
	if err != nil {
		logging.Warn("oracle action suggestion failed; using fallback", logging.Fields{constants.LogFieldPlayerID: playerID})
		return fallback
	}
	return content
}

func conditionFor(b *game.Battle, playerID string) string {
	if b.Player1.PlayerID == playerID {
		return b.CurrentState.Player1Condition
	}
	return b.CurrentState.Player2Condition
}
