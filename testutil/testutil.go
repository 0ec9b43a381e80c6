// Package testutil carries shared test fixtures: a deterministic pacer
// that fires scheduled tasks on demand, and a small adventure script
// covering every scene type.
package testutil

import (
	"sync"
	"time"

	"github.com/kasuganosora/scriptrpg/scheduler"
)

// ManualPacer records scheduled tasks instead of running them on real
// timers. Tests drive time by firing tasks by name.
type ManualPacer struct {
	mu      sync.Mutex
	delays  map[string]scheduler.TaskFn
	tickers map[string]scheduler.TaskFn
}

func NewManualPacer() *ManualPacer {
	return &ManualPacer{
		delays:  make(map[string]scheduler.TaskFn),
		tickers: make(map[string]scheduler.TaskFn),
	}
}

func (p *ManualPacer) AddDelay(name string, _ time.Duration, fn scheduler.TaskFn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delays[name] = fn
}

func (p *ManualPacer) AddTicker(name string, _ time.Duration, fn scheduler.TaskFn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tickers[name] = fn
}

func (p *ManualPacer) Remove(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.delays, name)
	delete(p.tickers, name)
}

// Fire runs and clears the pending delay with the given name. Returns
// false when nothing was scheduled under it.
func (p *ManualPacer) Fire(name string) bool {
	p.mu.Lock()
	fn, ok := p.delays[name]
	delete(p.delays, name)
	p.mu.Unlock()
	if !ok {
		return false
	}
	fn()
	return true
}

// Tick runs the ticker with the given name once.
func (p *ManualPacer) Tick(name string) bool {
	p.mu.Lock()
	fn, ok := p.tickers[name]
	p.mu.Unlock()
	if !ok {
		return false
	}
	fn()
	return true
}

// Pending reports whether a delay is queued under the name.
func (p *ManualPacer) Pending(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.delays[name]
	return ok
}

// HasTicker reports whether a ticker is registered under the name.
func (p *ManualPacer) HasTicker(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.tickers[name]
	return ok
}

// FixtureScript is a two-stage adventure exercising every scene type.
// Stage one: intro narration, a town with a shop, a dialogue, an item
// pickup, a choice, a normal fight, and a boss. Stage two exists so the
// first stage is not the last.
const FixtureScript = `{
  "worldSettings": {
    "title": "The Ashen Road",
    "description": "A road, some trouble, and one stubborn traveler.",
    "keyLocations": "Milltown, Old Forest, Ash Keep"
  },
  "stages": [
    {
      "id": "stage_1",
      "title": "The Road Out",
      "characters": [
        {"id": "char_hero", "name": "Rin", "type": "PLAYER"},
        {"id": "char_elder", "name": "Elder Maren", "type": "NPC",
         "dialogueSeed": "The forest road is not what it was. Take this advice: do not travel at night."},
        {"id": "char_slime", "name": "Road Slime", "type": "MONSTER_NORMAL",
         "hp": 5, "attack": 4, "defense": 3},
        {"id": "char_wolf", "name": "Gray Wolf", "type": "MONSTER_NORMAL"},
        {"id": "char_warden", "name": "Ash Warden", "type": "MONSTER_BOSS"}
      ],
      "scenes": [
        {"id": "scene_intro", "type": "NARRATION",
         "content": "Dust hangs over the road out of Milltown.",
         "nextSceneId": "scene_town", "newLocationName": "Milltown"},
        {"id": "scene_town", "type": "TOWN",
         "content": "Milltown's square is busy despite the rumors.",
         "nextSceneId": "scene_talk"},
        {"id": "scene_talk", "type": "DIALOGUE",
         "content": "The elder waves you over.",
         "characterIds": ["char_elder"],
         "nextSceneId": "scene_pickup"},
        {"id": "scene_pickup", "type": "ITEM_GET",
         "content": "Something glints in the grass.",
         "item": "item_small_potion",
         "nextSceneId": "scene_fork"},
        {"id": "scene_fork", "type": "CHOICE",
         "content": "The road forks at the forest edge.",
         "nextSceneId": null,
         "choices": [
           {"id": "choice_forest", "text": "Cut through the forest",
            "nextSceneId": "scene_fight"},
           {"id": "choice_back", "text": "Turn back to town",
            "nextSceneId": "scene_town"}
         ]},
        {"id": "scene_fight", "type": "COMBAT_NORMAL",
         "content": "Something wet slides across the path.",
         "combatDetails": {"enemyCharacterIds": ["char_slime"]},
         "nextSceneId": "scene_boss"},
        {"id": "scene_boss", "type": "COMBAT_BOSS",
         "content": "The Ash Warden bars the gate.",
         "combatDetails": {"enemyCharacterIds": ["char_warden"]},
         "nextSceneId": null}
      ]
    },
    {
      "id": "stage_2",
      "title": "Ash Keep",
      "characters": [
        {"id": "char_hero2", "name": "Rin", "type": "PLAYER"}
      ],
      "scenes": [
        {"id": "scene_keep", "type": "NARRATION",
         "content": "The keep gates stand open.",
         "nextSceneId": null}
      ]
    }
  ]
}`
