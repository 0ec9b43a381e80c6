// Package session owns the live game session: one aggregate of script,
// player, log, combat, and shop state, mutated only through Engine
// methods. Every method takes the engine lock, so each operation is a
// single read-modify-write against one consistent snapshot. Deferred
// continuations (enemy turns, retreat transitions, auto-play) go
// through the Pacer and re-check their guards at fire time.
package session

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kasuganosora/scriptrpg/config"
	"github.com/kasuganosora/scriptrpg/game/combat"
	"github.com/kasuganosora/scriptrpg/game/gamelog"
	"github.com/kasuganosora/scriptrpg/game/item"
	"github.com/kasuganosora/scriptrpg/game/player"
	"github.com/kasuganosora/scriptrpg/game/shop"
	"github.com/kasuganosora/scriptrpg/scheduler"
	"github.com/kasuganosora/scriptrpg/script"
	"github.com/kasuganosora/scriptrpg/store"
)

// Pacer schedules the engine's deferred continuations. Satisfied by
// *scheduler.Scheduler; tests substitute a manual pacer.
type Pacer interface {
	AddDelay(name string, delay time.Duration, fn scheduler.TaskFn)
	AddTicker(name string, interval time.Duration, fn scheduler.TaskFn)
	Remove(name string)
}

// Scheduled task names.
const (
	taskEnemyPhase     = "combat.enemy_phase"
	taskEnemyStrike    = "combat.enemy_strike"
	taskSafeTransition = "combat.safe_transition"
	taskVictoryAdvance = "combat.victory_advance"
	taskFleeAdvance    = "combat.flee_advance"
	taskDelegation     = "delegation"
)

// Engine drives one game session.
type Engine struct {
	mu     sync.Mutex
	cfg    config.GameConfig
	store  store.Store
	pacer  Pacer
	logger *zap.Logger

	// Flee roll, swappable in tests.
	roll func() float64

	script    *script.Script
	rawScript []byte
	stageID   string
	sceneID   string

	player *player.State
	log    *gamelog.Log
	combat combat.State

	pendingSafeSceneID string
	awaitingChoice     bool
	lastTownSceneID    string
	delegating         bool
	gameOver           bool
	completed          bool

	shopOpen    bool
	shopSceneID string
	shopErr     string

	unknownItemID string
	errMsg        string
}

// New creates an empty engine; LoadScript or Load starts a session.
func New(cfg config.GameConfig, st store.Store, pacer Pacer, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:    cfg,
		store:  st,
		pacer:  pacer,
		logger: logger,
		roll:   rand.Float64,
		log:    gamelog.New(),
	}
}

// LoadScript parses raw script JSON and starts a fresh session on it.
// A parse failure leaves the running session untouched except for the
// error field.
func (e *Engine) LoadScript(raw []byte) View {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errMsg = ""

	sc, err := script.Parse(raw)
	if err != nil {
		e.errMsg = fmt.Sprintf("script rejected: %v", err)
		e.logger.Warn("script rejected", zap.Error(err))
		return e.viewLocked()
	}

	e.cancelPacing()
	e.script = sc
	e.rawScript = append([]byte(nil), raw...)
	e.log = gamelog.New()
	e.initSessionLocked()
	e.log.Addf(gamelog.KindSystem, "Adventure begins: %s", sc.WorldSettings.Title)
	e.persistScriptLocked()

	first := e.stage().Scenes[0].ID
	e.advanceLocked(&first, true)
	return e.viewLocked()
}

// initSessionLocked resets everything derived from the loaded script.
// The log is left alone so callers decide whether history survives.
func (e *Engine) initSessionLocked() {
	e.stageID = e.script.Stages[0].ID
	e.sceneID = ""
	e.player = player.New(e.script, e.stage(), e.cfg)
	e.combat.Clear()
	e.pendingSafeSceneID = ""
	e.awaitingChoice = false
	e.lastTownSceneID = ""
	e.delegating = false
	e.gameOver = false
	e.completed = false
	e.shopOpen = false
	e.shopSceneID = ""
	e.shopErr = ""
	e.unknownItemID = ""
}

func (e *Engine) stage() *script.Stage {
	if e.script == nil {
		return nil
	}
	return e.script.Stage(e.stageID)
}

func (e *Engine) scene() *script.Scene {
	if st := e.stage(); st != nil && e.sceneID != "" {
		return st.Scene(e.sceneID)
	}
	return nil
}

// cancelPacing suppresses every scheduled continuation.
func (e *Engine) cancelPacing() {
	e.pacer.Remove(taskEnemyPhase)
	e.pacer.Remove(taskEnemyStrike)
	e.pacer.Remove(taskSafeTransition)
	e.pacer.Remove(taskVictoryAdvance)
	e.pacer.Remove(taskFleeAdvance)
	e.pacer.Remove(taskDelegation)
}

// Advance moves to the given scene, or along the current scene's next
// pointer when id is nil.
func (e *Engine) Advance(id *string) View {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errMsg = ""

	if e.script == nil {
		e.errMsg = "no script loaded"
		return e.viewLocked()
	}
	if e.combat.Active && e.pendingSafeSceneID == "" {
		e.errMsg = "cannot change scenes during combat"
		return e.viewLocked()
	}
	wasAwaiting := e.awaitingChoice
	e.advanceLocked(id, false)
	if wasAwaiting && e.errMsg == "" {
		e.awaitingChoice = false
		if !e.combat.Active {
			e.combat.Clear()
		}
	}
	return e.viewLocked()
}

// advanceLocked is the navigator. force bypasses the combat guard for
// queued safe transitions and engine-internal advancement.
func (e *Engine) advanceLocked(id *string, force bool) {
	if e.combat.Active && !force {
		return
	}
	e.unknownItemID = ""
	e.shopOpen = false
	e.shopErr = ""

	if id == nil || *id == "" {
		if e.script.IsLastStage(e.stageID) {
			e.completed = true
			e.sceneID = ""
			e.log.Add(gamelog.KindSystem, "The adventure is complete. Thanks for playing!")
			return
		}
		e.sceneID = ""
		e.log.Add(gamelog.KindSystem, "This chapter ends here. The next stage is not yet written.")
		return
	}

	st := e.stage()
	scene := st.Scene(*id)
	if scene == nil {
		e.errMsg = fmt.Sprintf("scene not found: %s", *id)
		e.log.Addf(gamelog.KindError, "The path to %q does not exist.", *id)
		return
	}

	e.sceneID = scene.ID
	e.applySceneEffectsLocked(st, scene)
	e.player.CalcDerivedStats()

	if scene.IsCombat() && !e.combat.Active {
		e.startCombatLocked(st, scene)
	}
}

func (e *Engine) applySceneEffectsLocked(st *script.Stage, scene *script.Scene) {
	if scene.NewLocationName != "" {
		e.player.CurrentLocation = scene.NewLocationName
		e.log.Addf(gamelog.KindLocation, "Arrived at %s.", scene.NewLocationName)
	}
	if scene.Type == script.SceneTown {
		e.lastTownSceneID = scene.ID
	}

	switch scene.Type {
	case script.SceneDialogue:
		e.emitDialogueLocked(st, scene)
	case script.SceneItemGet:
		if scene.Item != "" {
			e.pickUpItemLocked(scene.Item)
		}
		e.narrateLocked(scene.Content)
	case script.SceneCombatNormal, script.SceneCombatBoss:
		e.narrateLocked(scene.Content)
	default:
		e.narrateLocked(scene.Content)
	}
}

// narrateLocked appends scene prose, skipping an exact repeat of the
// latest entry so re-renders of the same beat stay quiet.
func (e *Engine) narrateLocked(content string) {
	if content == "" {
		return
	}
	if last := e.log.Last(); last != nil && last.Message == content {
		return
	}
	e.log.Add(gamelog.KindNarration, content)
}

func (e *Engine) emitDialogueLocked(st *script.Stage, scene *script.Scene) {
	if len(scene.CharacterIDs) == 0 {
		e.narrateLocked(scene.Content)
		return
	}
	ch := st.Character(scene.CharacterIDs[0])
	if ch == nil {
		e.log.Addf(gamelog.KindError, "Script error: character %q not found.", scene.CharacterIDs[0])
		e.narrateLocked(scene.Content)
		return
	}
	line := ch.DialogueSeed
	if line == "" {
		line = scene.Content
	}
	if last := e.log.Last(); last != nil && last.Speaker == ch.Name && last.Message == line {
		return
	}
	e.log.AddSpoken(gamelog.KindDialogue, ch.Name, line)
}

// pickUpItemLocked grants the scene's item. An id outside the catalog
// becomes a placeholder key item and is flagged as an unknown reference
// so callers can tell substitution from a real pickup.
func (e *Engine) pickUpItemLocked(itemID string) {
	def, ok := script.ItemDef(itemID)
	if !ok {
		def = script.GameItem{
			ID:       itemID,
			Name:     itemID,
			Type:     script.ItemKey,
			Quantity: 1,
		}
		e.unknownItemID = itemID
		e.logger.Warn("unknown item id in script, substituting key item", zap.String("item", itemID))
	}
	item.Add(e.player, def, 1)
	e.log.Addf(gamelog.KindReward, "Obtained %s.", def.Name)
}

// Choose resolves a CHOICE scene option and advances along it.
func (e *Engine) Choose(choiceID string) View {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errMsg = ""

	scene := e.scene()
	if scene == nil || scene.Type != script.SceneChoice {
		e.errMsg = "no choice to make here"
		return e.viewLocked()
	}
	c := scene.Choice(choiceID)
	if c == nil {
		e.errMsg = fmt.Sprintf("choice not found: %s", choiceID)
		return e.viewLocked()
	}
	e.log.Addf(gamelog.KindEvent, "You chose: %s", c.Text)
	next := c.NextSceneID
	if next == "" {
		e.advanceLocked(nil, false)
	} else {
		e.advanceLocked(&next, false)
	}
	return e.viewLocked()
}

// Rest fully restores HP and MP. Not available mid-fight.
func (e *Engine) Rest() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errMsg = ""

	if e.player == nil {
		e.errMsg = "no session"
		return e.viewLocked()
	}
	if e.combat.Active {
		e.errMsg = "cannot rest during combat"
		return e.viewLocked()
	}
	e.player.Rest()
	e.log.Add(gamelog.KindEvent, "You take a rest. HP and MP fully restored.")
	return e.viewLocked()
}

// UseItem consumes an item outside combat.
func (e *Engine) UseItem(itemID string) View {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errMsg = ""

	if e.player == nil {
		e.errMsg = "no session"
		return e.viewLocked()
	}
	if e.combat.Active {
		e.errMsg = "use the combat item action during a fight"
		return e.viewLocked()
	}
	if err := item.UseConsumable(e.player, itemID, e.log); err != nil {
		e.errMsg = err.Error()
	}
	return e.viewLocked()
}

// ToggleEquipment equips or unequips an inventory item. Swapping gear
// mid-fight is rejected without touching state.
func (e *Engine) ToggleEquipment(itemID string) View {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errMsg = ""

	if e.player == nil {
		e.errMsg = "no session"
		return e.viewLocked()
	}
	if e.combat.Active {
		e.errMsg = "cannot change equipment during combat"
		e.log.Add(gamelog.KindError, "No time to change equipment mid-battle!")
		return e.viewLocked()
	}

	var target *script.GameItem
	if it := item.Find(e.player, itemID); it != nil {
		target = it
	} else {
		for _, worn := range e.player.Equipment.All() {
			if worn != nil && worn.ID == itemID {
				target = worn
				break
			}
		}
	}
	if target == nil {
		e.errMsg = item.ErrItemNotFound.Error()
		return e.viewLocked()
	}
	item.ToggleEquip(e.player, *target, e.log)
	return e.viewLocked()
}

// OpenShop opens the shop for the current scene. An empty catalog is a
// valid shop with a user-visible notice, not a failure.
func (e *Engine) OpenShop() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errMsg = ""

	if e.player == nil {
		e.errMsg = "no session"
		return e.viewLocked()
	}
	if e.combat.Active {
		e.errMsg = "cannot shop during combat"
		return e.viewLocked()
	}
	e.shopOpen = true
	e.shopSceneID = e.sceneID
	e.shopErr = ""
	if len(shop.Catalog(e.sceneID)) == 0 {
		e.shopErr = "no items"
	}
	return e.viewLocked()
}

// CloseShop closes the shop panel.
func (e *Engine) CloseShop() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errMsg = ""
	e.shopOpen = false
	e.shopSceneID = ""
	e.shopErr = ""
	return e.viewLocked()
}

// Buy purchases qty of an item from the open shop.
func (e *Engine) Buy(itemID string, qty int) View {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errMsg = ""
	e.shopErr = ""

	if e.player == nil || !e.shopOpen {
		e.errMsg = "shop is not open"
		return e.viewLocked()
	}
	if qty <= 0 {
		e.shopErr = "invalid quantity"
		return e.viewLocked()
	}
	if err := shop.Buy(e.player, itemID, qty, e.cfg, e.log); err != nil {
		e.shopErr = err.Error()
	}
	return e.viewLocked()
}

// Sell sells qty of a held item back to the open shop.
func (e *Engine) Sell(itemID string, qty int) View {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errMsg = ""
	e.shopErr = ""

	if e.player == nil || !e.shopOpen {
		e.errMsg = "shop is not open"
		return e.viewLocked()
	}
	if qty <= 0 {
		e.shopErr = "invalid quantity"
		return e.viewLocked()
	}
	if err := shop.Sell(e.player, itemID, qty, e.log); err != nil {
		e.shopErr = err.Error()
	}
	return e.viewLocked()
}
