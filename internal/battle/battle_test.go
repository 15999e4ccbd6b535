package battle

import (
	"testing"

	"github.com/willemhelmet/prompt-pugalists/internal/game"
)

func newTestBattle() *game.Battle {
	c1 := game.Character{ID: "c1", Name: "Ember Knight"}
	c2 := game.Character{ID: "c2", Name: "Frost Witch"}
	return New("ROOM01", c1, c2, "p1", "p2", "a crumbling colosseum", 40)
}

func TestNew_Defaults(t *testing.T) {
	b := newTestBattle()
	if b.Player1.CurrentHP != 40 || b.Player2.CurrentHP != 40 {
		t.Fatalf("both combatants must start at max HP, got %d/%d", b.Player1.CurrentHP, b.Player2.CurrentHP)
	}
	if b.Phase != game.PhaseAwaitingActions {
		t.Fatalf("new battle must await actions, got %s", b.Phase)
	}
	if b.CurrentState.EnvironmentDescription != "a crumbling colosseum" {
		t.Fatalf("environment not threaded into state")
	}
}

func TestApplyResolution_ClampsBothSides(t *testing.T) {
	b := newTestBattle()
	b.Player1.CurrentHP = 5

	ApplyResolution(b, game.Resolution{Player1HPChange: -12, Player2HPChange: 100})

	if b.Player1.CurrentHP != 0 {
		t.Fatalf("HP must clamp at 0, got %d", b.Player1.CurrentHP)
	}
	if b.Player2.CurrentHP != 40 {
		t.Fatalf("HP must clamp at max, got %d", b.Player2.CurrentHP)
	}
	if len(b.ResolutionHistory) != 1 {
		t.Fatalf("resolution must be appended to history")
	}
}

func TestApplyResolution_KnockoutExactly(t *testing.T) {
	b := newTestBattle()
	b.Player2.CurrentHP = 8

	ApplyResolution(b, game.Resolution{Player2HPChange: -10})

	if b.Player2.CurrentHP != 0 {
		t.Fatalf("8 HP minus 10 damage must land at 0, got %d", b.Player2.CurrentHP)
	}
	winner, decided := CheckVictory(b)
	if !decided || winner != "p1" {
		t.Fatalf("expected p1 victory, got %q decided=%v", winner, decided)
	}
}

func TestApplyResolution_ReplacesStateAndAccumulatesSummary(t *testing.T) {
	b := newTestBattle()

	ApplyResolution(b, game.Resolution{
		NewBattleState: game.BattleState{
			EnvironmentDescription: "the colosseum is on fire",
			Player1Condition:       "singed",
			Player2Condition:       "smug",
			PreviousEvents:         []string{"Frost Witch ignited the stands."},
		},
		BattleSummaryUpdate: "Round one: fire everywhere.",
	})
	ApplyResolution(b, game.Resolution{
		NewBattleState:      game.BattleState{EnvironmentDescription: "ashes"},
		BattleSummaryUpdate: "Round two: the ash settles.",
	})

	if b.CurrentState.EnvironmentDescription != "ashes" {
		t.Fatalf("narrative state must be replaced wholesale")
	}
	want := "Round one: fire everywhere.\nRound two: the ash settles."
	if b.CurrentState.BattleSummary != want {
		t.Fatalf("summary must accumulate server-side, got %q", b.CurrentState.BattleSummary)
	}
}

func TestSnapshot_DetachedFromLiveBattle(t *testing.T) {
	b := newTestBattle()
	b.Player1Choices = []game.ActionChoice{{Label: "secret", Description: "x", Category: game.CategoryAttack}}
	ApplyResolution(b, game.Resolution{
		Player1HPChange: -5,
		NewBattleState:  game.BattleState{PreviousEvents: []string{"The gong sounds."}},
	})

	snap := Snapshot(b)
	if snap == b {
		t.Fatalf("snapshot must be a copy")
	}
	if snap.Player1Choices != nil || snap.Player2Choices != nil {
		t.Fatalf("snapshot must drop private choice sets")
	}

	// Mutating the live battle must not show through the snapshot.
	ApplyResolution(b, game.Resolution{
		Player1HPChange: -30,
		NewBattleState:  game.BattleState{EnvironmentDescription: "rubble"},
	})
	b.CurrentState.PreviousEvents = append(b.CurrentState.PreviousEvents, "The roof caves in.")
	b.ResolutionHistory[0].Interpretation = "rewritten"

	if snap.Player1.CurrentHP != 35 {
		t.Fatalf("snapshot HP must stay at capture time, got %d", snap.Player1.CurrentHP)
	}
	if len(snap.ResolutionHistory) != 1 || snap.ResolutionHistory[0].Interpretation == "rewritten" {
		t.Fatalf("snapshot history must not alias the live battle")
	}
	if len(snap.CurrentState.PreviousEvents) != 1 || snap.CurrentState.PreviousEvents[0] != "The gong sounds." {
		t.Fatalf("snapshot events must stay at capture time, got %v", snap.CurrentState.PreviousEvents)
	}
}

func TestCheckVictory_DoubleKO(t *testing.T) {
	b := newTestBattle()
	b.Player1.CurrentHP = 3
	b.Player2.CurrentHP = 4

	ApplyResolution(b, game.Resolution{Player1HPChange: -10, Player2HPChange: -10})

	if winner, decided := CheckVictory(b); decided || winner != "" {
		t.Fatalf("double knockout must report no winner here, got %q decided=%v", winner, decided)
	}
	if !DoubleKO(b) {
		t.Fatalf("expected DoubleKO to report true")
	}
}
