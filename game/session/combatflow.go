package session

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kasuganosora/scriptrpg/game/combat"
	"github.com/kasuganosora/scriptrpg/game/gamelog"
	"github.com/kasuganosora/scriptrpg/script"
)

// startCombatLocked spawns the scene's enemies and opens the fight on
// the player turn.
func (e *Engine) startCombatLocked(st *script.Stage, scene *script.Scene) {
	enemies, err := combat.Spawn(st, scene, e.cfg)
	if err != nil {
		e.errMsg = fmt.Sprintf("combat could not start: %v", err)
		e.log.Add(gamelog.KindError, "The enemies never showed up. Moving on.")
		e.logger.Warn("combat spawn failed", zap.String("scene", scene.ID), zap.Error(err))
		return
	}
	e.combat = combat.State{
		Active:  true,
		Boss:    scene.Type == script.SceneCombatBoss,
		Enemies: enemies,
		Turn:    combat.TurnPlayer,
		Message: "Battle start!",
	}
	e.combat.TargetID = enemies[0].CombatID
	names := enemies[0].Name
	for _, en := range enemies[1:] {
		names += ", " + en.Name
	}
	e.log.Addf(gamelog.KindCombat, "Enemies appear: %s!", names)
}

// playerCanAct reports whether a combat action is legal right now.
func (e *Engine) playerCanAct() bool {
	return e.combat.Active &&
		e.combat.Turn == combat.TurnPlayer &&
		e.pendingSafeSceneID == "" &&
		!e.awaitingChoice
}

// Attack performs a basic attack on the selected target.
func (e *Engine) Attack() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errMsg = ""
	e.attackLocked()
	return e.viewLocked()
}

func (e *Engine) attackLocked() {
	if !e.playerCanAct() {
		e.errMsg = "not your turn"
		return
	}
	if err := e.combat.PlayerAttack(e.player, e.log); err != nil {
		e.errMsg = err.Error()
		return
	}
	e.afterPlayerActionLocked()
}

// CastSkill casts the given skill, or the armed one when id is empty.
func (e *Engine) CastSkill(skillID string) View {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errMsg = ""

	if skillID == "" {
		skillID = e.combat.ActiveSkillID
	}
	if skillID == "" {
		e.errMsg = "no skill selected"
		return e.viewLocked()
	}
	if !e.playerCanAct() {
		e.errMsg = "not your turn"
		return e.viewLocked()
	}
	if err := e.combat.CastSkill(e.player, skillID, e.log); err != nil {
		if errors.Is(err, combat.ErrTargetRequired) {
			// Armed; the next target selection completes the cast.
			e.combat.Message = "Select a target."
			return e.viewLocked()
		}
		e.errMsg = err.Error()
		return e.viewLocked()
	}
	e.afterPlayerActionLocked()
	return e.viewLocked()
}

// UseCombatItem consumes an item as a combat action.
func (e *Engine) UseCombatItem(itemID string) View {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errMsg = ""

	if !e.playerCanAct() {
		e.errMsg = "not your turn"
		return e.viewLocked()
	}
	if err := e.combat.UseItem(e.player, itemID, e.log); err != nil {
		e.errMsg = err.Error()
		return e.viewLocked()
	}
	e.afterPlayerActionLocked()
	return e.viewLocked()
}

// Flee attempts to escape. Bosses refuse outright; otherwise a fixed
// coin flip decides, and failure hands the turn to the enemy.
func (e *Engine) Flee() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errMsg = ""

	if !e.playerCanAct() {
		e.errMsg = "not your turn"
		return e.viewLocked()
	}
	if e.combat.Boss {
		e.combat.Message = "There is no escape from this foe!"
		e.log.Add(gamelog.KindCombat, "You cannot flee from a boss!")
		return e.viewLocked()
	}

	if e.roll() < e.cfg.FleeChance {
		e.log.Add(gamelog.KindCombat, "You fled the battle!")
		scene := e.scene()
		e.combat.Clear()
		if scene != nil && scene.Next() != "" {
			next := scene.Next()
			if e.delegating {
				e.log.Add(gamelog.KindSystem, "Delegation continues onward.")
			}
			e.pacer.AddDelay(taskFleeAdvance, e.cfg.FleeAdvanceDelay, func() {
				e.mu.Lock()
				defer e.mu.Unlock()
				if e.combat.Active || e.sceneID != scene.ID {
					return
				}
				e.advanceLocked(&next, true)
			})
		}
		return e.viewLocked()
	}

	e.log.Add(gamelog.KindCombat, "Could not escape!")
	e.combat.Turn = combat.TurnEnemy
	e.scheduleEnemyPhaseLocked()
	return e.viewLocked()
}

// SetTarget selects a living enemy. If a single-target skill is armed,
// the selection completes the cast.
func (e *Engine) SetTarget(combatID string) View {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errMsg = ""

	if !e.combat.Active {
		e.errMsg = "no combat in progress"
		return e.viewLocked()
	}
	en := e.combat.Enemy(combatID)
	if en == nil {
		e.errMsg = combat.ErrInvalidTarget.Error()
		return e.viewLocked()
	}
	if !en.Alive() {
		e.errMsg = combat.ErrTargetDown.Error()
		return e.viewLocked()
	}
	e.combat.TargetID = combatID

	if armed := e.combat.ActiveSkillID; armed != "" && e.playerCanAct() {
		if err := e.combat.CastSkill(e.player, armed, e.log); err != nil {
			e.errMsg = err.Error()
			return e.viewLocked()
		}
		e.afterPlayerActionLocked()
	}
	return e.viewLocked()
}

// SetActiveSkill arms or disarms a known skill for targeting.
func (e *Engine) SetActiveSkill(skillID string) View {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errMsg = ""

	if e.player == nil {
		e.errMsg = "no session"
		return e.viewLocked()
	}
	if skillID == "" || e.combat.ActiveSkillID == skillID {
		e.combat.ActiveSkillID = ""
		return e.viewLocked()
	}
	if _, ok := script.SkillDef(skillID); !ok || !e.player.KnowsSkill(skillID) {
		e.errMsg = combat.ErrUnknownSkill.Error()
		return e.viewLocked()
	}
	e.combat.ActiveSkillID = skillID
	return e.viewLocked()
}

// RestartCombat respawns the current combat scene's enemies from their
// templates with fresh combat ids.
func (e *Engine) RestartCombat() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errMsg = ""

	scene := e.scene()
	if scene == nil || !scene.IsCombat() {
		e.errMsg = "no combat scene to restart"
		return e.viewLocked()
	}
	e.pacer.Remove(taskEnemyPhase)
	e.pacer.Remove(taskEnemyStrike)
	e.pacer.Remove(taskVictoryAdvance)
	e.awaitingChoice = false
	e.combat.Clear()
	e.log.Add(gamelog.KindCombat, "The battle begins anew!")
	e.startCombatLocked(e.stage(), scene)
	return e.viewLocked()
}

// ToggleDelegation flips auto-play. While enabled, a ticker issues a
// basic attack whenever the player turn is open.
func (e *Engine) ToggleDelegation() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errMsg = ""

	e.delegating = !e.delegating
	if !e.delegating {
		e.pacer.Remove(taskDelegation)
		e.log.Add(gamelog.KindSystem, "Delegation disabled.")
		return e.viewLocked()
	}

	e.log.Add(gamelog.KindSystem, "Delegation enabled. The party fights on its own.")
	e.pacer.AddTicker(taskDelegation, e.cfg.DelegationCadence, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.delegating || !e.playerCanAct() {
			return
		}
		if first := e.combat.FirstLiving(); first != nil {
			e.combat.TargetID = first.CombatID
		}
		e.attackLocked()
	})
	return e.viewLocked()
}

// afterPlayerActionLocked runs the end check for a spent player turn
// and, when the fight goes on, paces the enemy response.
func (e *Engine) afterPlayerActionLocked() {
	if e.checkCombatEndLocked() {
		return
	}
	if e.combat.Turn == combat.TurnEnemy {
		e.scheduleEnemyPhaseLocked()
	}
}

// scheduleEnemyPhaseLocked paces the enemy response in two steps: the
// first flips the fight into the acting sub-state so views show the
// enemy moving, the second resolves the strikes and returns the turn.
func (e *Engine) scheduleEnemyPhaseLocked() {
	delay := e.cfg.EnemyTurnDelay
	if e.delegating {
		delay = e.cfg.EnemyTurnDelegatedDelay
	}
	e.pacer.AddDelay(taskEnemyPhase, delay, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.combat.Active || e.combat.Turn != combat.TurnEnemy || e.pendingSafeSceneID != "" {
			return
		}
		e.combat.Turn = combat.TurnEnemyActing
		e.combat.Message = "The enemy moves..."
		e.scheduleEnemyStrikeLocked()
	})
}

func (e *Engine) scheduleEnemyStrikeLocked() {
	e.pacer.AddDelay(taskEnemyStrike, e.cfg.EnemyActDelay, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.combat.Active || e.combat.Turn != combat.TurnEnemyActing || e.pendingSafeSceneID != "" {
			return
		}
		down := e.combat.EnemyPhase(e.player, e.log)
		if down {
			e.defeatLocked()
			return
		}
		e.combat.Turn = combat.TurnPlayer
		e.combat.Message = "Your turn."
	})
}

// checkCombatEndLocked resolves victory or defeat. Returns true when
// the fight is over or a transition is queued.
func (e *Engine) checkCombatEndLocked() bool {
	if !e.combat.Active {
		return true
	}
	if e.player.HP <= 0 {
		e.defeatLocked()
		return true
	}
	if e.combat.AllDefeated() {
		e.victoryLocked()
		return true
	}
	return false
}

// defeatLocked routes a downed player to a safe scene with the defeat
// penalty, or ends the session when the script offers no refuge.
func (e *Engine) defeatLocked() {
	safe := e.lastTownSceneID
	if safe == "" {
		safe = e.script.FindSafeScene()
	}
	if safe == "" {
		e.combat.Clear()
		e.gameOver = true
		e.log.Add(gamelog.KindSystem, "You have fallen, and there is nowhere left to wake. Game over.")
		return
	}

	e.pendingSafeSceneID = safe
	e.combat.Message = "Defeated..."
	e.log.Add(gamelog.KindCombat, "You were defeated! Someone drags you to safety...")
	e.queueSafeTransitionLocked()
}

// queueSafeTransitionLocked arms the retreat timer for the pending safe
// scene. The penalty lands when the timer fires, not before.
func (e *Engine) queueSafeTransitionLocked() {
	dest := e.pendingSafeSceneID
	e.pacer.AddDelay(taskSafeTransition, e.cfg.SafeTransitionDelay, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if dest == "" || e.pendingSafeSceneID != dest {
			return
		}
		hp := int(float64(e.player.MaxHP) * e.cfg.DefeatHPRatio)
		if hp < 1 {
			hp = 1
		}
		e.player.HP = hp
		lost := int(float64(e.player.Gold) * e.cfg.DefeatGoldRatio)
		e.player.Gold -= lost
		e.log.Addf(gamelog.KindSystem, "You wake up patched together. %d gold went to your rescuers.", lost)

		e.combat.Clear()
		e.pendingSafeSceneID = ""
		e.advanceLocked(&dest, true)
	})
}

// victoryLocked pays out, levels up, and decides how the story resumes:
// boss fights auto-advance, normal fights offer a choice unless
// delegation is carrying the player forward.
func (e *Engine) victoryLocked() {
	reward := combat.VictoryReward(e.combat.Boss, e.cfg)
	e.combat.Turn = ""
	e.combat.Message = "Victory!"
	e.log.Addf(gamelog.KindReward, "Victory! Gained %d gold and %d EXP.", reward.Gold, reward.Exp)
	e.player.Gold += reward.Gold
	e.player.GainExp(reward.Exp, e.cfg, e.log)

	scene := e.scene()
	autoAdvance := e.combat.Boss || e.delegating
	if !autoAdvance {
		e.combat.Active = false
		e.awaitingChoice = true
		return
	}

	var next *string
	if scene != nil && scene.Next() != "" {
		n := scene.Next()
		next = &n
	}
	sceneID := e.sceneID
	e.pacer.AddDelay(taskVictoryAdvance, e.cfg.VictoryAdvanceDelay, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.sceneID != sceneID || !e.combat.Active || !e.combat.AllDefeated() {
			return
		}
		e.combat.Clear()
		e.advanceLocked(next, true)
	})
}
