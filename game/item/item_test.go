package item

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuganosora/scriptrpg/config"
	"github.com/kasuganosora/scriptrpg/game/gamelog"
	"github.com/kasuganosora/scriptrpg/game/player"
	"github.com/kasuganosora/scriptrpg/script"
)

func newTestPlayer(t *testing.T) *player.State {
	t.Helper()
	sc := &script.Script{
		Stages: []script.Stage{{
			ID:         "stage1",
			Characters: []script.Character{{ID: "hero", Name: "Hero", Type: script.CharPlayer}},
			Scenes:     []script.Scene{{ID: "s1", Type: script.SceneNarration}},
		}},
	}
	return player.New(sc, &sc.Stages[0], config.DefaultGame())
}

func mustItem(t *testing.T, id string) script.GameItem {
	t.Helper()
	it, ok := script.ItemDef(id)
	require.True(t, ok)
	return it
}

func TestAdd_MergesIntoOneStackPerID(t *testing.T) {
	p := newTestPlayer(t)
	potion := mustItem(t, script.ItemIDSmallPotion) // 3 already in the starter kit

	Add(p, potion, 2)
	require.Len(t, p.Inventory, 1)
	assert.Equal(t, 5, p.Inventory[0].Quantity)

	Add(p, mustItem(t, script.ItemIDManaPotion), 1)
	require.Len(t, p.Inventory, 2)
}

func TestUseConsumable_RestoresAndConsumes(t *testing.T) {
	p := newTestPlayer(t)
	p.HP = p.MaxHP - 10
	log := gamelog.New()

	require.NoError(t, UseConsumable(p, script.ItemIDSmallPotion, log))

	assert.Equal(t, p.MaxHP, p.HP, "30 HP potion clamps to max")
	assert.Equal(t, 2, p.Inventory[0].Quantity)
	require.NotNil(t, log.Last())
	assert.Equal(t, gamelog.KindEvent, log.Last().Kind)
}

func TestUseConsumable_StackRemovedAtZero(t *testing.T) {
	p := newTestPlayer(t)
	p.Inventory[0].Quantity = 1
	p.HP = 1

	require.NoError(t, UseConsumable(p, script.ItemIDSmallPotion, nil))
	assert.Nil(t, Find(p, script.ItemIDSmallPotion))
}

func TestUseConsumable_Failures(t *testing.T) {
	p := newTestPlayer(t)

	err := UseConsumable(p, "item_iron_sword", nil)
	assert.ErrorIs(t, err, ErrItemNotFound)

	Add(p, mustItem(t, "item_iron_sword"), 1)
	err = UseConsumable(p, "item_iron_sword", nil)
	assert.ErrorIs(t, err, ErrItemNotUsable)

	Add(p, script.GameItem{ID: "dud", Name: "Dud", Type: script.ItemConsumable,
		Effects: &script.ItemEffect{Luck: 1}}, 1)
	err = UseConsumable(p, "dud", nil)
	assert.ErrorIs(t, err, ErrNoEffect)
	assert.NotNil(t, Find(p, "dud"), "failed use must not consume")
}

func TestToggleEquip_RoundTrip(t *testing.T) {
	p := newTestPlayer(t)
	armor := mustItem(t, "item_leather_armor")
	Add(p, armor, 1)
	baseDefense := p.Defense

	ToggleEquip(p, armor, nil)
	require.NotNil(t, p.Equipment.Armor)
	assert.Nil(t, Find(p, armor.ID), "stack of one removed when equipped")
	assert.Equal(t, baseDefense+4, p.Defense)

	ToggleEquip(p, armor, nil)
	assert.Nil(t, p.Equipment.Armor)
	st := Find(p, armor.ID)
	require.NotNil(t, st)
	assert.Equal(t, 1, st.Quantity, "quantity back to its pre-equip value")
	assert.Equal(t, baseDefense, p.Defense)
}

func TestToggleEquip_ReplacesSlotOccupant(t *testing.T) {
	p := newTestPlayer(t) // basic sword pre-equipped
	iron := mustItem(t, "item_iron_sword")
	Add(p, iron, 1)

	ToggleEquip(p, iron, nil)

	require.NotNil(t, p.Equipment.Weapon)
	assert.Equal(t, "item_iron_sword", p.Equipment.Weapon.ID)
	old := Find(p, script.ItemIDBasicSword)
	require.NotNil(t, old, "previous occupant returned to inventory")
	assert.Equal(t, 1, old.Quantity)
	assert.Nil(t, Find(p, "item_iron_sword"))
}

func TestToggleEquip_NoSlotIsLoggedNoOp(t *testing.T) {
	p := newTestPlayer(t)
	log := gamelog.New()
	potion := mustItem(t, script.ItemIDSmallPotion)

	before := len(p.Inventory)
	ToggleEquip(p, potion, log)

	assert.Len(t, p.Inventory, before)
	require.NotNil(t, log.Last())
	assert.Equal(t, gamelog.KindSystem, log.Last().Kind)
}
