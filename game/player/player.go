// Package player models the player aggregate: base stats, derived stats
// from equipment, experience/leveling, and HP/MP bookkeeping.
package player

import (
	"strings"

	"github.com/kasuganosora/scriptrpg/config"
	"github.com/kasuganosora/scriptrpg/game/gamelog"
	"github.com/kasuganosora/scriptrpg/script"
)

// Equipment holds at most one item per slot. An equipped item lives
// here, not in the inventory stacks.
type Equipment struct {
	Weapon    *script.GameItem `json:"weapon"`
	Armor     *script.GameItem `json:"armor"`
	Accessory *script.GameItem `json:"accessory"`
}

// Slot returns a pointer to the slot's item reference, or nil for an
// unknown slot name.
func (e *Equipment) Slot(slot script.EquipmentSlot) **script.GameItem {
	switch slot {
	case script.SlotWeapon:
		return &e.Weapon
	case script.SlotArmor:
		return &e.Armor
	case script.SlotAccessory:
		return &e.Accessory
	}
	return nil
}

// All returns the equipped items (nil slots skipped).
func (e *Equipment) All() []*script.GameItem {
	var items []*script.GameItem
	for _, it := range []*script.GameItem{e.Weapon, e.Armor, e.Accessory} {
		if it != nil {
			items = append(items, it)
		}
	}
	return items
}

// State is the full player aggregate. Attack/Defense/Speed/Luck and the
// maxima are derived: CalcDerivedStats must run after every mutation of
// base stats or equipment, and nothing else may write them.
type State struct {
	Name string `json:"name"`

	Level          int `json:"level"`
	Exp            int `json:"exp"`
	ExpToNextLevel int `json:"expToNextLevel"`

	HP    int `json:"hp"`
	MaxHP int `json:"maxHp"`
	MP    int `json:"mp"`
	MaxMP int `json:"maxMp"`

	Gold int `json:"gold"`

	BaseAttack  int `json:"baseAttack"`
	BaseDefense int `json:"baseDefense"`
	BaseSpeed   int `json:"baseSpeed"`
	BaseLuck    int `json:"baseLuck"`

	Attack     int `json:"attack"`
	Defense    int `json:"defense"`
	Speed      int `json:"speed"`
	Luck       int `json:"luck"`
	CritChance int `json:"critChance"`

	Inventory       []script.GameItem `json:"inventory"`
	Equipment       Equipment         `json:"equipment"`
	CurrentLocation string            `json:"currentLocation"`
	LearnedSkillIDs []string          `json:"learnedSkillIds"`

	// Growth maxima before equipment bonuses. CalcDerivedStats adds
	// equipment HP/MP on top of these.
	baseMaxHP int
	baseMaxMP int
}

// New builds a fresh player from the stage's player template and the
// configured baseline, with the starter kit (potions in the bag, basic
// sword pre-equipped).
func New(sc *script.Script, stage *script.Stage, cfg config.GameConfig) *State {
	tmpl := stage.PlayerCharacter()

	p := &State{
		Name:            tmpl.Name,
		Level:           cfg.StartLevel,
		Exp:             0,
		ExpToNextLevel:  cfg.StartExpToNext,
		HP:              cfg.StartHP,
		MaxHP:           cfg.StartHP,
		MP:              cfg.StartMP,
		MaxMP:           cfg.StartMP,
		Gold:            cfg.StartGold,
		BaseAttack:      cfg.StartAttack,
		BaseDefense:     cfg.StartDefense,
		BaseSpeed:       cfg.StartSpeed,
		BaseLuck:        cfg.StartLuck,
		CritChance:      cfg.StartCrit,
		CurrentLocation: startLocation(sc, stage),
		LearnedSkillIDs: append([]string(nil), script.DefaultPlayerSkills...),
		baseMaxHP:       cfg.StartHP,
		baseMaxMP:       cfg.StartMP,
	}

	if potion, ok := script.ItemDef(script.ItemIDSmallPotion); ok {
		potion.Quantity = 3
		p.Inventory = append(p.Inventory, potion)
	}
	if sword, ok := script.ItemDef(script.ItemIDBasicSword); ok {
		sword.Quantity = 1
		p.Equipment.Weapon = &sword
	}

	p.CalcDerivedStats()
	return p
}

func startLocation(sc *script.Script, stage *script.Stage) string {
	if len(stage.Scenes) > 0 && stage.Scenes[0].NewLocationName != "" {
		return stage.Scenes[0].NewLocationName
	}
	if locs := sc.WorldSettings.KeyLocations; locs != "" {
		if first := strings.TrimSpace(strings.SplitN(locs, ",", 2)[0]); first != "" {
			return first
		}
	}
	return "Unknown"
}

// CalcDerivedStats recomputes every derived stat from the base stats
// plus equipped-item bonuses, then clamps HP/MP to the new maxima.
// Idempotent; safe to call any number of times.
func (p *State) CalcDerivedStats() {
	attack := p.BaseAttack
	defense := p.BaseDefense
	speed := p.BaseSpeed
	luck := p.BaseLuck
	maxHP := p.baseMaxHP
	maxMP := p.baseMaxMP

	for _, it := range p.Equipment.All() {
		if it.Effects == nil {
			continue
		}
		attack += it.Effects.Attack
		defense += it.Effects.Defense
		speed += it.Effects.Speed
		luck += it.Effects.Luck
		maxHP += it.Effects.HP
		maxMP += it.Effects.MP
	}

	p.Attack = attack
	p.Defense = defense
	p.Speed = speed
	p.Luck = luck
	p.MaxHP = maxHP
	p.MaxMP = maxMP
	if p.HP > p.MaxHP {
		p.HP = p.MaxHP
	}
	if p.MP > p.MaxMP {
		p.MP = p.MaxMP
	}
}

// GainExp credits experience and resolves every level threshold it
// crosses: per level, the threshold is consumed and grown, max HP/MP
// and base stats gain their fixed increments, and skills scheduled for
// the reached level are learned (already-known ids are skipped without
// a duplicate entry or log line). After the loop the player is fully
// healed at the recomputed maxima.
func (p *State) GainExp(exp int, cfg config.GameConfig, log *gamelog.Log) {
	p.Exp += exp

	leveled := false
	for p.Exp >= p.ExpToNextLevel {
		p.Exp -= p.ExpToNextLevel
		p.ExpToNextLevel = int(float64(p.ExpToNextLevel) * cfg.ExpGrowth)
		p.Level++
		leveled = true

		p.baseMaxHP += cfg.LevelHPGain
		p.baseMaxMP += cfg.LevelMPGain
		p.BaseAttack += cfg.LevelAttackGain
		p.BaseDefense += cfg.LevelDefenseGain
		p.BaseSpeed += cfg.LevelSpeedGain
		p.BaseLuck += cfg.LevelLuckGain

		if log != nil {
			log.Addf(gamelog.KindReward, "%s reached level %d!", p.Name, p.Level)
			log.Addf(gamelog.KindEvent,
				"Max HP +%d, Max MP +%d, Attack +%d, Defense +%d, Speed +%d, Luck +%d. HP and MP fully restored.",
				cfg.LevelHPGain, cfg.LevelMPGain, cfg.LevelAttackGain,
				cfg.LevelDefenseGain, cfg.LevelSpeedGain, cfg.LevelLuckGain)
		}

		for _, skillID := range script.SkillsByLevel[p.Level] {
			if p.KnowsSkill(skillID) {
				continue
			}
			p.LearnedSkillIDs = append(p.LearnedSkillIDs, skillID)
			if log != nil {
				if sk, ok := script.SkillDef(skillID); ok {
					log.Addf(gamelog.KindReward, "%s learned a new skill: %q!", p.Name, sk.Name)
				}
			}
		}
	}

	p.CalcDerivedStats()
	if leveled {
		p.HP = p.MaxHP
		p.MP = p.MaxMP
	}
}

// KnowsSkill reports whether the skill id is already learned.
func (p *State) KnowsSkill(id string) bool {
	for _, s := range p.LearnedSkillIDs {
		if s == id {
			return true
		}
	}
	return false
}

// Rest fully restores HP and MP.
func (p *State) Rest() {
	p.HP = p.MaxHP
	p.MP = p.MaxMP
}

// Growth captures the pre-equipment maxima for persistence.
type Growth struct {
	MaxHP int `json:"maxHp"`
	MaxMP int `json:"maxMp"`
}

// SnapshotGrowth returns the growth maxima for saving.
func (p *State) SnapshotGrowth() Growth {
	return Growth{MaxHP: p.baseMaxHP, MaxMP: p.baseMaxMP}
}

// RestoreGrowth reinstates growth maxima from a save. Zero values (a
// hand-edited save) fall back to the serialized maxima with the
// equipment bonuses backed out, so the mandatory CalcDerivedStats call
// afterwards does not double-count gear.
func (p *State) RestoreGrowth(g Growth) {
	equipHP, equipMP := 0, 0
	for _, it := range p.Equipment.All() {
		if it.Effects != nil {
			equipHP += it.Effects.HP
			equipMP += it.Effects.MP
		}
	}
	if g.MaxHP > 0 {
		p.baseMaxHP = g.MaxHP
	} else {
		p.baseMaxHP = p.MaxHP - equipHP
	}
	if g.MaxMP > 0 {
		p.baseMaxMP = g.MaxMP
	} else {
		p.baseMaxMP = p.MaxMP - equipMP
	}
}
