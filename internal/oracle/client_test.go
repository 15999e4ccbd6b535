package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/willemhelmet/prompt-pugalists/internal/game"
)

func testBattle() *game.Battle {
	return &game.Battle{
		ID:      "b1",
		RoomID:  "ROOM01",
		Player1: game.Combatant{PlayerID: "p1", Character: game.Character{Name: "Ember Knight"}, CurrentHP: 40, MaxHP: 40},
		Player2: game.Combatant{PlayerID: "p2", Character: game.Character{Name: "Frost Witch"}, CurrentHP: 40, MaxHP: 40},
		CurrentState: game.BattleState{
			EnvironmentDescription: "a frozen lake",
			Player1Condition:       "ready",
			Player2Condition:       "ready",
		},
	}
}

// chatServer wraps a canned model reply in the chat-completions envelope.
func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestResolveRound_ParsesEngineOutput(t *testing.T) {
	engineJSON := `{
		"interpretation": "Ember Knight's blade cuts through the blizzard.",
		"player1HpChange": -3,
		"player2HpChange": -11,
		"newBattleState": {
			"environmentDescription": "the lake ice is cracking",
			"player1Condition": "bleeding but fierce",
			"player2Condition": "staggered",
			"previousEvents": ["The first clash shattered the silence."]
		},
		"videoPrompt": "Two fighters clash on cracking ice.",
		"narratorScript": "What a strike!",
		"battleSummaryUpdate": "Ember Knight drew first blood.",
		"player1ActionChoices": [
			{"label": "Flame Arc", "description": "A sweeping fire slash.", "category": "attack"},
			{"label": "Cauterize", "description": "Burn the wound closed.", "category": "heal"}
		],
		"player2ActionChoices": [
			{"label": "Ice Wall", "description": "Raise a frozen barrier.", "category": "defend"},
			{"label": "Hex", "description": "A strange curse.", "category": "curse"}
		],
		"isVictory": false,
		"winnerId": "",
		"diceRolls": [{"player": "player1", "purpose": "attack", "formula": "1d20", "result": 17}]
	}`
	srv := chatServer(t, engineJSON)
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	res := c.ResolveRound(context.Background(), testBattle(), "slash", "freeze")

	if res.Player1HPChange != -3 || res.Player2HPChange != -11 {
		t.Fatalf("hp changes not parsed: %d %d", res.Player1HPChange, res.Player2HPChange)
	}
	if res.NewBattleState.EnvironmentDescription != "the lake ice is cracking" {
		t.Fatalf("battle state not parsed: %+v", res.NewBattleState)
	}
	if res.Player1Action != "slash" || res.Player2Action != "freeze" {
		t.Fatalf("submitted actions must be echoed into the resolution")
	}
	if len(res.Player1ActionChoices) != 2 {
		t.Fatalf("expected 2 player1 choices, got %d", len(res.Player1ActionChoices))
	}
	// Unknown categories coerce to attack.
	if res.Player2ActionChoices[1].Category != game.CategoryAttack {
		t.Fatalf("unknown category must coerce to attack, got %s", res.Player2ActionChoices[1].Category)
	}
	if len(res.DiceRolls) != 1 || res.DiceRolls[0].Result != 17 {
		t.Fatalf("dice rolls not parsed: %+v", res.DiceRolls)
	}
	if res.ID == "" {
		t.Fatalf("resolution must get an id")
	}
}

func TestResolveRound_UpstreamFailureYieldsPlaceholder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	b := testBattle()
	res := c.ResolveRound(context.Background(), b, "slash", "freeze")

	assertStructurallyComplete(t, res)
	if res.Player1HPChange != 0 || res.Player2HPChange != 0 {
		t.Fatalf("placeholder must not change HP: %d %d", res.Player1HPChange, res.Player2HPChange)
	}
	if res.IsVictory {
		t.Fatalf("placeholder must never declare victory")
	}
	if res.NewBattleState.EnvironmentDescription != b.CurrentState.EnvironmentDescription {
		t.Fatalf("placeholder must carry the current environment forward")
	}
}

func TestResolveRound_MalformedJSONYieldsPlaceholder(t *testing.T) {
	srv := chatServer(t, "the fighters clash dramatically (not json)")
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	res := c.ResolveRound(context.Background(), testBattle(), "slash", "freeze")
	assertStructurallyComplete(t, res)
}

func TestResolveRound_MissingFieldsDefaulted(t *testing.T) {
	// Only a couple of fields present; everything else must be filled in.
	srv := chatServer(t, `{"player2HpChange": -9, "interpretation": "A glancing blow."}`)
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	b := testBattle()
	res := c.ResolveRound(context.Background(), b, "slash", "freeze")

	if res.Player2HPChange != -9 {
		t.Fatalf("provided field must be honored, got %d", res.Player2HPChange)
	}
	if res.NewBattleState.Player1Condition != b.CurrentState.Player1Condition {
		t.Fatalf("missing state fields must default to the current state")
	}
	if res.NarratorScript == "" || res.VideoPrompt == "" {
		t.Fatalf("missing narration fields must be defaulted")
	}
	assertStructurallyComplete(t, res)
}

func assertStructurallyComplete(t *testing.T, res game.Resolution) {
	t.Helper()
	if res.Interpretation == "" || res.NarratorScript == "" || res.VideoPrompt == "" {
		t.Fatalf("resolution narration must never be empty: %+v", res)
	}
	if len(res.Player1ActionChoices) == 0 || len(res.Player2ActionChoices) == 0 {
		t.Fatalf("both choice sets must be populated")
	}
	if res.ID == "" {
		t.Fatalf("resolution must get an id")
	}
}

func TestInitialActionChoices_FallbackCoversAllCategories(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	choices := c.InitialActionChoices(context.Background(), game.Character{Name: "A"}, game.Character{Name: "B"}, "arena")

	if len(choices) != 4 {
		t.Fatalf("expected 4 fallback choices, got %d", len(choices))
	}
	seen := map[game.ChoiceCategory]bool{}
	for _, ch := range choices {
		if ch.Label == "" || ch.Description == "" {
			t.Fatalf("fallback choice missing text: %+v", ch)
		}
		seen[ch.Category] = true
	}
	for _, cat := range []game.ChoiceCategory{game.CategoryAttack, game.CategoryMagic, game.CategoryDefend, game.CategoryHeal} {
		if !seen[cat] {
			t.Fatalf("fallback set missing category %s", cat)
		}
	}
}

func TestSuggestAction_FallbackOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	text := c.SuggestAction(context.Background(), testBattle(), "p2")
	if text == "" {
		t.Fatalf("suggestion must degrade to a usable action")
	}
}

func TestChat_NoAPIKey(t *testing.T) {
	c := NewClient("")
	if _, err := c.chat(context.Background(), "m", nil, false, 0, 0); err == nil {
		t.Fatalf("expected error when api key is missing")
	}
}
