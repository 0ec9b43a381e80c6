package session

import (
	"github.com/kasuganosora/scriptrpg/game/combat"
	"github.com/kasuganosora/scriptrpg/game/gamelog"
	"github.com/kasuganosora/scriptrpg/game/player"
	"github.com/kasuganosora/scriptrpg/game/shop"
	"github.com/kasuganosora/scriptrpg/script"
)

// ShopItem is a catalog entry with its resolved purchase price.
type ShopItem struct {
	script.GameItem
	BuyPrice int `json:"buyPrice"`
}

// View is the observable session snapshot returned by every operation.
// It is a detached copy; mutating it never touches engine state.
type View struct {
	ScriptLoaded bool   `json:"scriptLoaded"`
	WorldTitle   string `json:"worldTitle,omitempty"`
	StageID      string `json:"stageId,omitempty"`

	Player *player.State `json:"player,omitempty"`
	Scene  *script.Scene `json:"scene,omitempty"`
	Combat combat.State  `json:"combat"`

	AwaitingPostCombatChoice bool `json:"awaitingPostCombatChoice"`
	PendingSafeTransition    bool `json:"pendingSafeTransition"`
	Delegating               bool `json:"delegationActive"`
	GameOver                 bool `json:"gameOver"`
	Completed                bool `json:"completed"`

	ShopOpen    bool       `json:"isShopOpen"`
	ShopSceneID string     `json:"currentShopId,omitempty"`
	ShopItems   []ShopItem `json:"shopItems,omitempty"`
	ShopError   string     `json:"shopError,omitempty"`

	UnknownItemID string          `json:"unknownItemId,omitempty"`
	Log           []gamelog.Entry `json:"log"`
	Error         string          `json:"error,omitempty"`
}

// View returns the current snapshot.
func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewLocked()
}

// viewLocked clones the mutable aggregates so the snapshot stays valid
// after the lock is released, even while scheduled tasks keep mutating.
func (e *Engine) viewLocked() View {
	v := View{
		ScriptLoaded:             e.script != nil,
		StageID:                  e.stageID,
		Combat:                   e.combat,
		AwaitingPostCombatChoice: e.awaitingChoice,
		PendingSafeTransition:    e.pendingSafeSceneID != "",
		Delegating:               e.delegating,
		GameOver:                 e.gameOver,
		Completed:                e.completed,
		ShopOpen:                 e.shopOpen,
		ShopSceneID:              e.shopSceneID,
		ShopError:                e.shopErr,
		UnknownItemID:            e.unknownItemID,
		Error:                    e.errMsg,
	}
	if e.script != nil {
		v.WorldTitle = e.script.WorldSettings.Title
	}
	if sc := e.scene(); sc != nil {
		cp := *sc
		v.Scene = &cp
	}
	if e.player != nil {
		v.Player = clonePlayer(e.player)
	}
	v.Combat.Enemies = append([]combat.EnemyInstance(nil), e.combat.Enemies...)
	v.Log = append([]gamelog.Entry(nil), e.log.Entries...)
	if e.shopOpen {
		for _, def := range shop.Catalog(e.shopSceneID) {
			v.ShopItems = append(v.ShopItems, ShopItem{
				GameItem: def,
				BuyPrice: shop.BuyPrice(def, e.cfg),
			})
		}
	}
	return v
}

func clonePlayer(p *player.State) *player.State {
	cp := *p
	cp.Inventory = append([]script.GameItem(nil), p.Inventory...)
	cp.LearnedSkillIDs = append([]string(nil), p.LearnedSkillIDs...)
	cp.Equipment = player.Equipment{}
	for _, slot := range []script.EquipmentSlot{script.SlotWeapon, script.SlotArmor, script.SlotAccessory} {
		if worn := *p.Equipment.Slot(slot); worn != nil {
			w := *worn
			*cp.Equipment.Slot(slot) = &w
		}
	}
	return &cp
}
