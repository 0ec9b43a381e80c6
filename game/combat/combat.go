// Package combat holds the turn-based battle state: enemy instances
// spawned from character templates, the turn marker, and the action
// resolution rules. The session engine owns pacing and end-of-combat
// consequences; this package owns the state transitions themselves.
package combat

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kasuganosora/scriptrpg/config"
	"github.com/kasuganosora/scriptrpg/script"
)

// Turn is the combat state machine marker. Empty means inactive.
type Turn string

const (
	TurnPlayer      Turn = "player"
	TurnEnemy       Turn = "enemy"
	TurnEnemyActing Turn = "enemy_acting"
)

var (
	ErrNoEnemies      = errors.New("combat: scene has no resolvable enemies")
	ErrInvalidTarget  = errors.New("combat: invalid target")
	ErrTargetDown     = errors.New("combat: target already defeated")
	ErrTargetRequired = errors.New("combat: target required")
	ErrUnknownSkill   = errors.New("combat: unknown skill")
	ErrInsufficientMP = errors.New("combat: insufficient MP")
)

// EnemyInstance is a character template projected into a live fight.
// CombatID is unique per spawn, including respawns of the same scene.
type EnemyInstance struct {
	CombatID    string `json:"combatId"`
	CharacterID string `json:"characterId"`
	Name        string `json:"name"`
	MaxHP       int    `json:"maxHp"`
	CurrentHP   int    `json:"currentHp"`
	Attack      int    `json:"attack"`
	Defense     int    `json:"defense"`
}

// Alive reports whether the instance still stands.
func (e *EnemyInstance) Alive() bool { return e.CurrentHP > 0 }

// State is the combat-transient slice of the session.
type State struct {
	Active        bool            `json:"isCombatActive"`
	Boss          bool            `json:"isBossFight"`
	Enemies       []EnemyInstance `json:"currentEnemies"`
	Turn          Turn            `json:"combatTurn,omitempty"`
	TargetID      string          `json:"playerTargetId,omitempty"`
	ActiveSkillID string          `json:"activeSkillId,omitempty"`
	Message       string          `json:"combatMessage,omitempty"`
}

// Clear resets to the inactive state.
func (s *State) Clear() {
	*s = State{}
}

// Enemy returns the instance with the given combat id, or nil.
func (s *State) Enemy(combatID string) *EnemyInstance {
	for i := range s.Enemies {
		if s.Enemies[i].CombatID == combatID {
			return &s.Enemies[i]
		}
	}
	return nil
}

// FirstLiving returns the first living enemy in spawn order, or nil.
func (s *State) FirstLiving() *EnemyInstance {
	for i := range s.Enemies {
		if s.Enemies[i].Alive() {
			return &s.Enemies[i]
		}
	}
	return nil
}

// AllDefeated reports whether every enemy is down.
func (s *State) AllDefeated() bool {
	return s.FirstLiving() == nil
}

// Spawn builds one fresh instance per declared enemy id. Templates
// missing combat stats get the configured defaults, scaled up for boss
// scenes. Unresolvable ids are skipped; a scene resolving to zero
// enemies is a content error.
func Spawn(stage *script.Stage, scene *script.Scene, cfg config.GameConfig) ([]EnemyInstance, error) {
	if scene.CombatDetails == nil {
		return nil, ErrNoEnemies
	}
	boss := scene.Type == script.SceneCombatBoss

	hp, atk, def := cfg.EnemyHP, cfg.EnemyAttack, cfg.EnemyDefense
	if boss {
		hp = int(float64(hp) * cfg.BossHPMult)
		atk = int(float64(atk) * cfg.BossAttackMult)
		def = int(float64(def) * cfg.BossDefenseMult)
	}

	var enemies []EnemyInstance
	for i, id := range scene.CombatDetails.EnemyCharacterIDs {
		tmpl := stage.Character(id)
		if tmpl == nil {
			continue
		}
		inst := EnemyInstance{
			CombatID:    fmt.Sprintf("%s_%d_%s", tmpl.ID, i, uuid.NewString()),
			CharacterID: tmpl.ID,
			Name:        tmpl.Name,
			MaxHP:       hp,
			CurrentHP:   hp,
			Attack:      atk,
			Defense:     def,
		}
		if tmpl.HP > 0 {
			inst.MaxHP = tmpl.HP
			inst.CurrentHP = tmpl.HP
		}
		if tmpl.Attack > 0 {
			inst.Attack = tmpl.Attack
		}
		if tmpl.Defense > 0 {
			inst.Defense = tmpl.Defense
		}
		enemies = append(enemies, inst)
	}
	if len(enemies) == 0 {
		return nil, ErrNoEnemies
	}
	return enemies, nil
}

// Damage is the engine-wide damage formula: attacker power minus
// target defense, floored at 1. Never zero, never negative.
func Damage(power, defense int) int {
	if d := power - defense; d > 1 {
		return d
	}
	return 1
}
