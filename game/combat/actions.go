package combat

import (
	"fmt"

	"github.com/kasuganosora/scriptrpg/config"
	"github.com/kasuganosora/scriptrpg/game/gamelog"
	"github.com/kasuganosora/scriptrpg/game/item"
	"github.com/kasuganosora/scriptrpg/game/player"
	"github.com/kasuganosora/scriptrpg/script"
)

// PlayerAttack resolves a basic attack against the selected target, or
// the first living enemy when no target is set. On success the turn
// passes to the enemy side.
func (s *State) PlayerAttack(p *player.State, log *gamelog.Log) error {
	if !s.Active || s.Turn != TurnPlayer {
		return ErrInvalidTarget
	}
	target, err := s.resolveTarget(s.TargetID)
	if err != nil {
		return err
	}

	dmg := Damage(p.Attack, target.Defense)
	target.CurrentHP -= dmg
	if target.CurrentHP < 0 {
		target.CurrentHP = 0
	}
	log.Addf(gamelog.KindCombatAction, "%s strikes %s for %d damage.", p.Name, target.Name, dmg)
	if !target.Alive() {
		log.Addf(gamelog.KindCombatResult, "%s is defeated!", target.Name)
	}
	s.endTurn()
	return nil
}

// endTurn closes out a spent player action. Target and armed skill
// selections do not carry across actions.
func (s *State) endTurn() {
	s.TargetID = ""
	s.ActiveSkillID = ""
	s.Turn = TurnEnemy
}

// CastSkill resolves the armed skill. Single-target damage skills need
// a living target; a missing target re-arms the skill so the next
// target tap completes the cast.
func (s *State) CastSkill(p *player.State, skillID string, log *gamelog.Log) error {
	if !s.Active || s.Turn != TurnPlayer {
		return ErrInvalidTarget
	}
	sk, ok := script.SkillDef(skillID)
	if !ok || !p.KnowsSkill(skillID) {
		return ErrUnknownSkill
	}
	if p.MP < sk.MPCost {
		log.Addf(gamelog.KindError, "Not enough MP for %s.", sk.Name)
		return ErrInsufficientMP
	}

	switch sk.TargetType {
	case script.TargetEnemySingle:
		target, err := s.resolveTarget(s.TargetID)
		if err != nil {
			s.ActiveSkillID = skillID
			return ErrTargetRequired
		}
		p.MP -= sk.MPCost
		dmg := Damage(p.Attack+sk.EffectValue, target.Defense)
		target.CurrentHP -= dmg
		if target.CurrentHP < 0 {
			target.CurrentHP = 0
		}
		log.Addf(gamelog.KindCombatAction, "%s uses %s on %s for %d damage!", p.Name, sk.Name, target.Name, dmg)
		if !target.Alive() {
			log.Addf(gamelog.KindCombatResult, "%s is defeated!", target.Name)
		}

	case script.TargetEnemyAll:
		if s.AllDefeated() {
			return ErrTargetDown
		}
		p.MP -= sk.MPCost
		log.Addf(gamelog.KindCombatAction, "%s unleashes %s!", p.Name, sk.Name)
		for i := range s.Enemies {
			e := &s.Enemies[i]
			if !e.Alive() {
				continue
			}
			dmg := Damage(p.Attack+sk.EffectValue, e.Defense)
			e.CurrentHP -= dmg
			if e.CurrentHP < 0 {
				e.CurrentHP = 0
			}
			log.Addf(gamelog.KindCombatAction, "%s takes %d damage.", e.Name, dmg)
			if !e.Alive() {
				log.Addf(gamelog.KindCombatResult, "%s is defeated!", e.Name)
			}
		}

	case script.TargetSelf:
		p.MP -= sk.MPCost
		switch sk.EffectType {
		case script.EffectHealHP:
			healed := sk.EffectValue
			if p.HP+healed > p.MaxHP {
				healed = p.MaxHP - p.HP
			}
			p.HP += healed
			log.Addf(gamelog.KindCombatAction, "%s uses %s and recovers %d HP.", p.Name, sk.Name, healed)
		case script.EffectHealMP:
			restored := sk.EffectValue
			if p.MP+restored > p.MaxMP {
				restored = p.MaxMP - p.MP
			}
			p.MP += restored
			log.Addf(gamelog.KindCombatAction, "%s uses %s and recovers %d MP.", p.Name, sk.Name, restored)
		default:
			// Timed buffs have no duration tracking yet; the cast is
			// narrated and the turn is spent.
			log.Addf(gamelog.KindCombatAction, "%s uses %s.", p.Name, sk.Name)
		}

	default:
		p.MP -= sk.MPCost
		log.Addf(gamelog.KindCombatAction, "%s uses %s.", p.Name, sk.Name)
	}

	s.endTurn()
	return nil
}

// UseItem resolves a consumable mid-combat. Restoratives apply to the
// player; attack items (a one-shot Attack effect) need a living target.
// The item is consumed only when it did something, and a successful use
// spends the turn.
func (s *State) UseItem(p *player.State, itemID string, log *gamelog.Log) error {
	if !s.Active || s.Turn != TurnPlayer {
		return ErrInvalidTarget
	}
	it := item.Find(p, itemID)
	if it == nil {
		return item.ErrItemNotFound
	}
	if it.Type != script.ItemConsumable || it.Effects == nil {
		return item.ErrItemNotUsable
	}

	if it.Effects.Attack > 0 && it.Effects.HP == 0 && it.Effects.MP == 0 {
		target, err := s.resolveTarget(s.TargetID)
		if err != nil {
			return err
		}
		dmg := Damage(it.Effects.Attack, target.Defense)
		target.CurrentHP -= dmg
		if target.CurrentHP < 0 {
			target.CurrentHP = 0
		}
		log.Addf(gamelog.KindCombatAction, "%s throws %s at %s for %d damage!", p.Name, it.Name, target.Name, dmg)
		if !target.Alive() {
			log.Addf(gamelog.KindCombatResult, "%s is defeated!", target.Name)
		}
		item.Consume(p, itemID)
		s.endTurn()
		return nil
	}

	if err := item.UseConsumable(p, itemID, log); err != nil {
		return err
	}
	s.endTurn()
	return nil
}

// EnemyPhase resolves one strike from every living enemy in spawn
// order. It returns whether the player was brought down. The caller
// flips the turn back to the player when the fight continues.
func (s *State) EnemyPhase(p *player.State, log *gamelog.Log) (playerDown bool) {
	for i := range s.Enemies {
		e := &s.Enemies[i]
		if !e.Alive() {
			continue
		}
		dmg := Damage(e.Attack, p.Defense)
		p.HP -= dmg
		if p.HP < 0 {
			p.HP = 0
		}
		log.Addf(gamelog.KindCombatAction, "%s attacks %s for %d damage.", e.Name, p.Name, dmg)
		if p.HP <= 0 {
			return true
		}
	}
	return false
}

// Reward is the payout of a won fight.
type Reward struct {
	Gold int
	Exp  int
}

// VictoryReward returns the configured payout for the fight class.
func VictoryReward(boss bool, cfg config.GameConfig) Reward {
	if boss {
		return Reward{Gold: cfg.BossRewardGold, Exp: cfg.BossRewardExp}
	}
	return Reward{Gold: cfg.NormalRewardGold, Exp: cfg.NormalRewardExp}
}

// resolveTarget maps a combat id to a living enemy, falling back to
// the first living enemy when the id is empty.
func (s *State) resolveTarget(combatID string) (*EnemyInstance, error) {
	if combatID == "" {
		if e := s.FirstLiving(); e != nil {
			return e, nil
		}
		return nil, ErrTargetRequired
	}
	e := s.Enemy(combatID)
	if e == nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTarget, combatID)
	}
	if !e.Alive() {
		return nil, ErrTargetDown
	}
	return e, nil
}
