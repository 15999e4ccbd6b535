package oracle

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/willemhelmet/prompt-pugalists/internal/game"
)

// styleSuffix anchors every video prompt to one rendering style. The video
// model has no memory between rounds; changing style descriptors mid-battle
// shifts the whole look.
const styleSuffix = "AAA video game, Unreal Engine 5, global illumination, volumetric lighting, stylized 3D characters, vibrant saturated colors, dramatic rim lighting, shallow depth of field, cinematic camera."

const defaultEngineSystemPrompt = `You are the AI Engine for a real-time AI battle game. You are the sole authority on what happens in this battle. Your output drives the video generation, voice narration, game state, and player choices simultaneously.

Responsibilities:
1. Interpret both players' chosen actions.
2. Resolve the clash using dice mechanics and creative narrative.
3. Produce coordinated output for all downstream systems in one pass: every field must tell the same story (narration, video prompt, HP changes, conditions and next-round choices must all describe the same event).
4. Maintain battle memory by summarizing this round's events.

Character visual fingerprints: each character has a dense visual description. Use specific details from these fingerprints in the videoPrompt so the video renders the characters consistently. As fighters lose HP, layer visible damage on top of the fingerprint (torn clothing, exhaustion, injuries) while keeping the character recognizable.

Video prompt rules: 2-3 sentences describing the key dramatic moment of the clash as a camera sees it, incorporating the battle environment and the characters' fingerprints, then end with this exact style suffix: "` + styleSuffix + `" Never include competing style words (watercolor, anime, pixel art, photorealistic, cartoon). Always describe the same camera perspective: medium-wide shot, slightly low angle, both fighters visible.

Narrator script rules: 3-5 sentences of excited British sports commentary, written to be spoken aloud. Reference characters by name, describe what happened and what's at stake, and end with tension. No gaming tropes, no anime announcer energy. Do not duplicate the video prompt.

Action choices: generate 4 distinct tactical options for each player's next round, exactly one per category ("attack", "magic", "defend", "heal"), each with a short "label" and a 1-2 sentence "description", specific to the current battle state and HP levels.

Battle memory: you are given a cumulative battle summary. Use it for continuity, and produce a "battleSummaryUpdate" of 2-3 sentences recapping this round. The server appends it to the running summary.

Dice mechanics: roll 1d20 for attack/defense (10+ success, creativity modifiers allowed). Typical damage 8-15 HP; healing 5-10 HP and rare. Both actions resolve simultaneously. Show your rolls.

HP: both players start at full HP. If a fighter reaches 0 HP, set isVictory=true and provide victoryNarration.

Return ONLY valid JSON with exactly these fields: interpretation, player1HpChange, player2HpChange, newBattleState {environmentDescription, player1Condition, player2Condition, previousEvents, battleSummary}, videoPrompt, narratorScript, battleSummaryUpdate, player1ActionChoices, player2ActionChoices, isVictory, winnerId, victoryNarration, diceRolls.`

const defaultCharacterEnhancePrompt = `You are a prompt enhancement specialist for a fighting game character creator. The user will give you a rough character description. Rewrite it with vivid, specific visual details optimized for AI image generation: clothing materials and colors, weapons with distinctive features, magical effects, stance and expression, distinctive accessories. Keep the core concept the user intended. Output ONLY the enhanced description, no preamble, no quotes. Stay under 500 characters.`

const defaultEnvironmentEnhancePrompt = `You are a prompt enhancement specialist for a fighting game battle arena. The user will give you a rough arena description. Rewrite it with vivid, cinematic detail optimized for AI image and video generation: atmosphere and lighting, dramatic environmental features, color palette and mood, terrain textures. Keep the core concept the user intended. Output ONLY the enhanced description, no preamble, no quotes. Stay under 300 characters.`

// buildEnginePrompt renders the per-round context given to the engine model.
func buildEnginePrompt(b *game.Battle, action1, action2 string) string {
	state := b.CurrentState
	roundNumber := len(b.ResolutionHistory) + 1

	summary := state.BattleSummary
	if summary == "" {
		summary = "This is the opening round. No previous events."
	}

	var events strings.Builder
	if len(state.PreviousEvents) == 0 {
		events.WriteString("None yet.")
	} else {
		for i, e := range state.PreviousEvents {
			fmt.Fprintf(&events, "%d. %s\n", i+1, e)
		}
	}

	return fmt.Sprintf(`## Current Battle State - Round %d

**Environment:** %s

### Battle Summary So Far
%s

### Player 1: %s
- HP: %d/%d
- Visual Fingerprint: %s
- Condition: %s

### Player 2: %s
- HP: %d/%d
- Visual Fingerprint: %s
- Condition: %s

### Previous Events
%s

## This Round's Actions

**%s declares:** "%s"

**%s declares:** "%s"

---

Resolve these actions simultaneously. Use the visual fingerprints to write a visually specific videoPrompt, layering damage as fighters lose HP. Write the narratorScript as an excited British commentator. Generate 4 action choices per player for the next round. Include a battleSummaryUpdate of 2-3 sentences.

Return your response as JSON matching the expected format.`,
		roundNumber,
		state.EnvironmentDescription,
		summary,
		b.Player1.Character.Name, b.Player1.CurrentHP, b.Player1.MaxHP, b.Player1.Character.Appearance(), state.Player1Condition,
		b.Player2.Character.Name, b.Player2.CurrentHP, b.Player2.MaxHP, b.Player2.Character.Appearance(), state.Player2Condition,
		events.String(),
		b.Player1.Character.Name, action1,
		b.Player2.Character.Name, action2,
	)
}

// inspirationThemes seed the "surprise me" suggestion calls with variety.
var inspirationThemes = []string{
	"cosmic horror", "steampunk", "deep sea", "volcanic", "cyberpunk",
	"underwater", "celestial", "fungal", "crystalline", "desert",
	"arctic", "bioluminescent", "clockwork", "tribal", "noir",
	"solarpunk", "eldritch", "insectoid", "samurai", "aztec",
	"baroque", "post-apocalyptic", "ethereal", "biomechanical", "voodoo",
	"quantum", "mythological", "carnival", "radioactive", "origami",
	"gothic", "prehistoric", "alchemical", "astral", "swamp",
}

func pickRandomThemes(count int) []string {
	idx := rand.Perm(len(inspirationThemes))
	if count > len(idx) {
		count = len(idx)
	}
	out := make([]string, 0, count)
	for _, i := range idx[:count] {
		out = append(out, inspirationThemes[i])
	}
	return out
}
