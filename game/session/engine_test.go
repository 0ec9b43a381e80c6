package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuganosora/scriptrpg/config"
	"github.com/kasuganosora/scriptrpg/game/combat"
	"github.com/kasuganosora/scriptrpg/game/gamelog"
	"github.com/kasuganosora/scriptrpg/script"
	"github.com/kasuganosora/scriptrpg/store"
	"github.com/kasuganosora/scriptrpg/testutil"
)

func newTestEngine(t *testing.T) (*Engine, *testutil.ManualPacer, *store.Memory) {
	t.Helper()
	pacer := testutil.NewManualPacer()
	mem := store.NewMemory()
	e := New(config.DefaultGame(), mem, pacer, nil)
	v := e.LoadScript([]byte(testutil.FixtureScript))
	require.Empty(t, v.Error)
	require.True(t, v.ScriptLoaded)
	return e, pacer, mem
}

func advanceTo(t *testing.T, e *Engine, ids ...string) View {
	t.Helper()
	var v View
	for _, id := range ids {
		id := id
		v = e.Advance(&id)
		require.Empty(t, v.Error, "advance to %s", id)
	}
	return v
}

// enterFight walks to the normal combat scene via the fork choice.
func enterFight(t *testing.T, e *Engine) View {
	t.Helper()
	advanceTo(t, e, "scene_town", "scene_talk", "scene_pickup", "scene_fork")
	v := e.Choose("choice_forest")
	require.Empty(t, v.Error)
	require.True(t, v.Combat.Active)
	require.Equal(t, combat.TurnPlayer, v.Combat.Turn)
	return v
}

func TestLoadScriptStartsSession(t *testing.T) {
	e, _, _ := newTestEngine(t)
	v := e.View()
	require.NotNil(t, v.Player)
	require.NotNil(t, v.Scene)
	assert.Equal(t, "scene_intro", v.Scene.ID)
	assert.Equal(t, "The Ashen Road", v.WorldTitle)
	assert.Equal(t, "Milltown", v.Player.CurrentLocation)
	assert.NotEmpty(t, v.Log)
}

func TestLoadScriptRejectsInvalidAndKeepsSession(t *testing.T) {
	e, _, _ := newTestEngine(t)
	before := e.View()

	v := e.LoadScript([]byte(`{"worldSettings":{"title":"x"},"stages":[{"id":"s1","characters":[],"scenes":[]}]}`))
	assert.NotEmpty(t, v.Error)
	assert.Contains(t, v.Error, "script rejected")

	after := e.View()
	assert.Equal(t, before.WorldTitle, after.WorldTitle)
	assert.Equal(t, before.Scene.ID, after.Scene.ID)
	assert.Equal(t, before.Player.Gold, after.Player.Gold)
}

func TestAdvanceSceneNotFound(t *testing.T) {
	e, _, _ := newTestEngine(t)
	id := "scene_nowhere"
	v := e.Advance(&id)
	assert.Contains(t, v.Error, "scene not found")
	assert.Equal(t, "scene_intro", v.Scene.ID)
}

func TestDialogueEmission(t *testing.T) {
	e, _, _ := newTestEngine(t)
	v := advanceTo(t, e, "scene_town", "scene_talk")
	last := v.Log[len(v.Log)-1]
	assert.Equal(t, gamelog.KindDialogue, last.Kind)
	assert.Equal(t, "Elder Maren", last.Speaker)
	assert.Contains(t, last.Message, "forest road")

	// Re-entering the same dialogue does not repeat the line.
	n := len(v.Log)
	v = advanceTo(t, e, "scene_talk")
	assert.Len(t, v.Log, n)
}

func TestItemPickupKnownAndUnknown(t *testing.T) {
	e, _, _ := newTestEngine(t)
	v := advanceTo(t, e, "scene_town", "scene_talk", "scene_pickup")
	assert.Empty(t, v.UnknownItemID)
	for _, it := range v.Player.Inventory {
		if it.ID == script.ItemIDSmallPotion {
			assert.Equal(t, 4, it.Quantity) // starter 3 + pickup 1
		}
	}

	// Pick up an id outside the catalog: placeholder key item, flagged.
	e.mu.Lock()
	e.pickUpItemLocked("item_strange_idol")
	e.mu.Unlock()
	v = e.View()
	assert.Equal(t, "item_strange_idol", v.UnknownItemID)
	found := false
	for _, it := range v.Player.Inventory {
		if it.ID == "item_strange_idol" {
			found = true
			assert.Equal(t, script.ItemKey, it.Type)
		}
	}
	assert.True(t, found)
}

func TestChooseResolvesBranch(t *testing.T) {
	e, _, _ := newTestEngine(t)
	advanceTo(t, e, "scene_town", "scene_talk", "scene_pickup", "scene_fork")

	v := e.Choose("choice_missing")
	assert.Contains(t, v.Error, "choice not found")

	v = e.Choose("choice_back")
	require.Empty(t, v.Error)
	assert.Equal(t, "scene_town", v.Scene.ID)
}

func TestCombatVictoryNormalOffersChoice(t *testing.T) {
	e, pacer, _ := newTestEngine(t)
	enterFight(t, e)

	v := e.Attack()
	require.Empty(t, v.Error)
	assert.False(t, v.Combat.Active)
	assert.True(t, v.AwaitingPostCombatChoice)
	assert.False(t, pacer.Pending("combat.victory_advance"))

	cfg := config.DefaultGame()
	assert.Equal(t, cfg.StartGold+cfg.NormalRewardGold, v.Player.Gold)
	assert.Equal(t, cfg.NormalRewardExp, v.Player.Exp)

	// Advancing resolves the choice.
	v = advanceTo(t, e, "scene_boss")
	assert.False(t, v.AwaitingPostCombatChoice)
	assert.True(t, v.Combat.Active)
}

func TestBossVictoryAutoAdvances(t *testing.T) {
	e, pacer, _ := newTestEngine(t)
	advanceTo(t, e, "scene_town")
	advanceTo(t, e, "scene_boss")
	v := e.View()
	require.True(t, v.Combat.Active)
	require.True(t, v.Combat.Boss)

	// Flatten the boss and finish the fight.
	e.mu.Lock()
	e.combat.Enemies[0].CurrentHP = 1
	e.mu.Unlock()
	v = e.Attack()
	require.Empty(t, v.Error)
	assert.True(t, pacer.Pending("combat.victory_advance"))

	require.True(t, pacer.Fire("combat.victory_advance"))
	v = e.View()
	assert.False(t, v.Combat.Active)
	// scene_boss has no next id and stage_1 is not last: chapter break.
	assert.Nil(t, v.Scene)
	assert.False(t, v.Completed)
}

func TestDefeatRoutesToLastTownWithPenalty(t *testing.T) {
	e, pacer, _ := newTestEngine(t)
	enterFight(t, e) // visited scene_town along the way

	e.mu.Lock()
	e.player.HP = 1
	e.player.Gold = 100
	e.combat.Enemies[0].CurrentHP = 1000
	e.mu.Unlock()

	v := e.Attack()
	require.Empty(t, v.Error)
	require.True(t, pacer.Fire("combat.enemy_phase"))
	require.True(t, pacer.Fire("combat.enemy_strike"))

	v = e.View()
	assert.True(t, v.PendingSafeTransition)
	assert.True(t, v.Combat.Active)

	// Player actions are blocked while the retreat is queued.
	v = e.Attack()
	assert.NotEmpty(t, v.Error)

	require.True(t, pacer.Fire("combat.safe_transition"))
	v = e.View()
	assert.False(t, v.Combat.Active)
	assert.False(t, v.PendingSafeTransition)
	assert.Equal(t, "scene_town", v.Scene.ID)
	maxHP := v.Player.MaxHP
	want := maxHP / 10
	if want < 1 {
		want = 1
	}
	assert.Equal(t, want, v.Player.HP)
	assert.Equal(t, 80, v.Player.Gold)
}

func TestDefeatWithoutSafeSceneIsGameOver(t *testing.T) {
	pacer := testutil.NewManualPacer()
	e := New(config.DefaultGame(), store.NewMemory(), pacer, nil)
	noRefuge := `{
	  "worldSettings": {"title": "Pit"},
	  "stages": [{
	    "id": "s1",
	    "characters": [
	      {"id": "c_p", "name": "Rin", "type": "PLAYER"},
	      {"id": "c_m", "name": "Maw", "type": "MONSTER_NORMAL", "hp": 9999, "attack": 9999}
	    ],
	    "scenes": [
	      {"id": "sc_fight", "type": "COMBAT_NORMAL", "content": "It wakes.",
	       "combatDetails": {"enemyCharacterIds": ["c_m"]}, "nextSceneId": null}
	    ]
	  }]
	}`
	v := e.LoadScript([]byte(noRefuge))
	require.Empty(t, v.Error)
	require.True(t, v.Combat.Active)

	e.Attack()
	require.True(t, pacer.Fire("combat.enemy_phase"))
	require.True(t, pacer.Fire("combat.enemy_strike"))
	v = e.View()
	assert.True(t, v.GameOver)
	assert.False(t, v.Combat.Active)
	assert.False(t, pacer.Pending("combat.safe_transition"))
}

func TestFleeDeniedForBoss(t *testing.T) {
	e, _, _ := newTestEngine(t)
	advanceTo(t, e, "scene_boss")
	e.roll = func() float64 { return 0.0 }

	v := e.Flee()
	require.Empty(t, v.Error)
	assert.True(t, v.Combat.Active)
	assert.Equal(t, combat.TurnPlayer, v.Combat.Turn)
	assert.Contains(t, v.Combat.Message, "no escape")
}

func TestFleeSuccessAdvancesAfterDelay(t *testing.T) {
	e, pacer, _ := newTestEngine(t)
	enterFight(t, e)
	e.roll = func() float64 { return 0.0 } // always under the flee chance

	v := e.Flee()
	require.Empty(t, v.Error)
	assert.False(t, v.Combat.Active)
	require.True(t, pacer.Fire("combat.flee_advance"))

	v = e.View()
	assert.Equal(t, "scene_boss", v.Scene.ID)
}

func TestFleeFailurePassesTurn(t *testing.T) {
	e, pacer, _ := newTestEngine(t)
	enterFight(t, e)
	e.roll = func() float64 { return 0.99 }

	v := e.Flee()
	require.Empty(t, v.Error)
	assert.True(t, v.Combat.Active)
	assert.Equal(t, combat.TurnEnemy, v.Combat.Turn)
	assert.True(t, pacer.Pending("combat.enemy_phase"))
}

func TestEnemyPhaseReturnsTurnToPlayer(t *testing.T) {
	e, pacer, _ := newTestEngine(t)
	enterFight(t, e)

	e.mu.Lock()
	e.combat.Enemies[0].CurrentHP = 1000
	e.mu.Unlock()
	v := e.Attack()
	require.Empty(t, v.Error)
	require.Equal(t, combat.TurnEnemy, v.Combat.Turn)

	// The first step holds the acting sub-state for the pacing delay;
	// nothing hits the player until the strike fires.
	hpBefore := v.Player.HP
	require.True(t, pacer.Fire("combat.enemy_phase"))
	v = e.View()
	assert.Equal(t, combat.TurnEnemyActing, v.Combat.Turn)
	assert.Equal(t, hpBefore, v.Player.HP)
	require.True(t, pacer.Pending("combat.enemy_strike"))

	require.True(t, pacer.Fire("combat.enemy_strike"))
	v = e.View()
	assert.Equal(t, combat.TurnPlayer, v.Combat.Turn)
	assert.Less(t, v.Player.HP, hpBefore)
}

func TestRestartCombatRespawnsFreshInstances(t *testing.T) {
	e, _, _ := newTestEngine(t)
	v := enterFight(t, e)
	oldID := v.Combat.Enemies[0].CombatID

	e.mu.Lock()
	e.combat.Enemies[0].CurrentHP = 1
	e.mu.Unlock()

	v = e.RestartCombat()
	require.Empty(t, v.Error)
	require.True(t, v.Combat.Active)
	assert.NotEqual(t, oldID, v.Combat.Enemies[0].CombatID)
	assert.Equal(t, v.Combat.Enemies[0].MaxHP, v.Combat.Enemies[0].CurrentHP)
}

func TestDelegationAutoAttacksAndBypassesChoice(t *testing.T) {
	e, pacer, _ := newTestEngine(t)
	enterFight(t, e)

	v := e.ToggleDelegation()
	require.True(t, v.Delegating)
	require.True(t, pacer.HasTicker("delegation"))

	// The cadence tick lands the killing blow on the 5 HP slime.
	require.True(t, pacer.Tick("delegation"))
	v = e.View()
	assert.False(t, v.AwaitingPostCombatChoice)
	assert.True(t, pacer.Pending("combat.victory_advance"))

	require.True(t, pacer.Fire("combat.victory_advance"))
	v = e.View()
	assert.Equal(t, "scene_boss", v.Scene.ID)

	v = e.ToggleDelegation()
	assert.False(t, v.Delegating)
	assert.False(t, pacer.HasTicker("delegation"))
}

func TestDelegationTickIsSuspendedOutOfTurn(t *testing.T) {
	e, pacer, _ := newTestEngine(t)
	enterFight(t, e)
	e.ToggleDelegation()

	e.mu.Lock()
	e.combat.Turn = combat.TurnEnemy
	e.mu.Unlock()
	hp := e.View().Combat.Enemies[0].CurrentHP

	require.True(t, pacer.Tick("delegation"))
	assert.Equal(t, hp, e.View().Combat.Enemies[0].CurrentHP)
}

func TestRestAndEquipBlockedInCombat(t *testing.T) {
	e, _, _ := newTestEngine(t)
	enterFight(t, e)

	v := e.Rest()
	assert.Contains(t, v.Error, "rest")

	v = e.ToggleEquipment(script.ItemIDBasicSword)
	assert.Contains(t, v.Error, "equipment")

	id := "scene_town"
	v = e.Advance(&id)
	assert.Contains(t, v.Error, "during combat")
}

func TestRestRestoresOutOfCombat(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.mu.Lock()
	e.player.HP = 3
	e.player.MP = 1
	e.mu.Unlock()

	v := e.Rest()
	require.Empty(t, v.Error)
	assert.Equal(t, v.Player.MaxHP, v.Player.HP)
	assert.Equal(t, v.Player.MaxMP, v.Player.MP)
}

func TestShopOpenBuySell(t *testing.T) {
	e, _, _ := newTestEngine(t)
	advanceTo(t, e, "scene_town")

	v := e.OpenShop()
	require.True(t, v.ShopOpen)
	require.NotEmpty(t, v.ShopItems)
	for _, it := range v.ShopItems {
		if it.SellPrice > 0 {
			assert.Greater(t, it.BuyPrice, it.SellPrice)
		}
	}

	goldBefore := v.Player.Gold
	v = e.Buy(script.ItemIDManaPotion, 1)
	require.Empty(t, v.ShopError)
	assert.Less(t, v.Player.Gold, goldBefore)

	v = e.Sell(script.ItemIDManaPotion, 1)
	require.Empty(t, v.ShopError)
	assert.Less(t, v.Player.Gold, goldBefore, "round trip must cost gold")

	v = e.Buy("item_iron_sword", 100)
	assert.NotEmpty(t, v.ShopError)

	v = e.CloseShop()
	assert.False(t, v.ShopOpen)
	v = e.Buy(script.ItemIDManaPotion, 1)
	assert.Contains(t, v.Error, "not open")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	e, pacer, mem := newTestEngine(t)
	advanceTo(t, e, "scene_town", "scene_talk", "scene_pickup")
	e.mu.Lock()
	e.player.Gold = 42
	e.mu.Unlock()

	v := e.Save()
	require.Empty(t, v.Error)
	_, ok, err := mem.Get(t.Context(), store.KeySession)
	require.NoError(t, err)
	require.True(t, ok)

	// Wreck the in-memory session, then restore.
	e2 := New(config.DefaultGame(), mem, pacer, nil)
	v = e2.Load()
	require.Empty(t, v.Error)
	assert.Equal(t, "scene_pickup", v.Scene.ID)
	assert.Equal(t, 42, v.Player.Gold)
	assert.Equal(t, "Milltown", v.Player.CurrentLocation)
	assert.False(t, v.Delegating)
	// Derived stats recomputed: the pre-equipped sword still counts.
	cfg := config.DefaultGame()
	assert.Equal(t, cfg.StartAttack+5, v.Player.Attack)
	// Log history restored.
	joined := ""
	for _, en := range v.Log {
		joined += en.Message + "\n"
	}
	assert.True(t, strings.Contains(joined, "Obtained"))
}

func TestLoadWithoutSave(t *testing.T) {
	e := New(config.DefaultGame(), store.NewMemory(), testutil.NewManualPacer(), nil)
	v := e.Load()
	assert.Contains(t, v.Error, "no saved session")
	assert.False(t, v.ScriptLoaded)
}

func TestResetClearsStoreAndRestarts(t *testing.T) {
	e, _, mem := newTestEngine(t)
	advanceTo(t, e, "scene_town")
	require.Empty(t, e.Save().Error)

	v := e.Reset()
	require.Empty(t, v.Error)
	assert.Equal(t, "scene_intro", v.Scene.ID)
	assert.Equal(t, config.DefaultGame().StartGold, v.Player.Gold)

	_, ok, err := mem.Get(t.Context(), store.KeySession)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = mem.Get(t.Context(), store.KeyScript)
	require.NoError(t, err)
	assert.False(t, ok)

	// Reset keeps history and appends a marker.
	joined := ""
	for _, en := range v.Log {
		joined += en.Message + "\n"
	}
	assert.Contains(t, joined, "starts over")
}

func TestClearSessionKeepsStore(t *testing.T) {
	e, _, mem := newTestEngine(t)
	advanceTo(t, e, "scene_town")
	require.Empty(t, e.Save().Error)

	v := e.ClearSession()
	require.Empty(t, v.Error)
	assert.Equal(t, "scene_intro", v.Scene.ID)

	_, ok, err := mem.Get(t.Context(), store.KeySession)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAdvanceNilOnFinalStageCompletes(t *testing.T) {
	pacer := testutil.NewManualPacer()
	e := New(config.DefaultGame(), store.NewMemory(), pacer, nil)
	oneStage := `{
	  "worldSettings": {"title": "Short"},
	  "stages": [{
	    "id": "s1",
	    "characters": [{"id": "c_p", "name": "Rin", "type": "PLAYER"}],
	    "scenes": [{"id": "sc_end", "type": "NARRATION", "content": "Done.", "nextSceneId": null}]
	  }]
	}`
	require.Empty(t, e.LoadScript([]byte(oneStage)).Error)

	v := e.Advance(nil)
	assert.True(t, v.Completed)
	assert.Nil(t, v.Scene)
}

func TestSetTargetCompletesArmedSkill(t *testing.T) {
	e, _, _ := newTestEngine(t)
	v := enterFight(t, e)
	targetID := v.Combat.Enemies[0].CombatID

	v = e.SetActiveSkill(script.SkillIDPowerStrike)
	require.Empty(t, v.Error)
	assert.Equal(t, script.SkillIDPowerStrike, v.Combat.ActiveSkillID)

	v = e.SetTarget(targetID)
	require.Empty(t, v.Error)
	// Power strike one-shots the 5 HP slime and pays out.
	assert.True(t, v.AwaitingPostCombatChoice)
	assert.Empty(t, v.Combat.ActiveSkillID)
}

func TestCombatEndpointsWithoutSession(t *testing.T) {
	e := New(config.DefaultGame(), store.NewMemory(), testutil.NewManualPacer(), nil)

	// A valid catalog skill id must not reach the player state.
	v := e.SetActiveSkill(script.SkillIDPowerStrike)
	assert.Equal(t, "no session", v.Error)

	assert.NotEmpty(t, e.Attack().Error)
	assert.NotEmpty(t, e.CastSkill(script.SkillIDPowerStrike).Error)
	assert.NotEmpty(t, e.UseCombatItem(script.ItemIDSmallPotion).Error)
	assert.NotEmpty(t, e.Flee().Error)
	assert.NotEmpty(t, e.SetTarget("nobody").Error)
	assert.NotEmpty(t, e.RestartCombat().Error)
}

func TestViewIsDetached(t *testing.T) {
	e, _, _ := newTestEngine(t)
	v := e.View()
	v.Player.Gold = 999999
	v.Player.Inventory[0].Quantity = 77

	fresh := e.View()
	assert.Equal(t, config.DefaultGame().StartGold, fresh.Player.Gold)
	assert.NotEqual(t, 77, fresh.Player.Inventory[0].Quantity)
}
