package script

// EquipmentSlot identifies where a piece of gear is worn.
type EquipmentSlot string

const (
	SlotWeapon    EquipmentSlot = "weapon"
	SlotArmor     EquipmentSlot = "armor"
	SlotAccessory EquipmentSlot = "accessory"
)

// ItemType classifies a GameItem.
type ItemType string

const (
	ItemConsumable ItemType = "consumable"
	ItemWeapon     ItemType = "weapon"
	ItemArmor      ItemType = "armor"
	ItemAccessory  ItemType = "accessory"
	ItemKey        ItemType = "keyItem"
)

// ItemEffect holds the stat deltas an item applies: restoration for
// consumables, permanent bonuses for equipment.
type ItemEffect struct {
	HP         int `json:"hp,omitempty"`
	MP         int `json:"mp,omitempty"`
	Attack     int `json:"attack,omitempty"`
	Defense    int `json:"defense,omitempty"`
	Speed      int `json:"speed,omitempty"`
	Luck       int `json:"luck,omitempty"`
	CritChance int `json:"critChance,omitempty"`
}

// GameItem is a catalog entry or an inventory stack of one.
type GameItem struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Type        ItemType      `json:"type"`
	Quantity    int           `json:"quantity"`
	Effects     *ItemEffect   `json:"effects,omitempty"`
	EquipSlot   EquipmentSlot `json:"equipSlot,omitempty"`
	SellPrice   int           `json:"sellPrice,omitempty"`
	Icon        string        `json:"icon,omitempty"`
}

// SkillTarget describes who a skill can be aimed at.
type SkillTarget string

const (
	TargetEnemySingle SkillTarget = "enemy_single"
	TargetEnemyAll    SkillTarget = "enemy_all"
	TargetSelf        SkillTarget = "self"
	TargetNone        SkillTarget = "none"
)

// SkillEffect describes what a skill does.
type SkillEffect string

const (
	EffectDamageHP    SkillEffect = "damage_hp"
	EffectHealHP      SkillEffect = "heal_hp"
	EffectHealMP      SkillEffect = "heal_mp"
	EffectBuffAttack  SkillEffect = "buff_attack"
	EffectBuffDefense SkillEffect = "buff_defense"
	EffectEtc         SkillEffect = "etc"
)

// Skill is a static catalog entry. Players own skill ids, never Skill
// values.
type Skill struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	MPCost      int         `json:"mpCost"`
	EffectValue int         `json:"effectValue,omitempty"`
	EffectTurns int         `json:"effectTurns,omitempty"`
	EffectType  SkillEffect `json:"effectType"`
	TargetType  SkillTarget `json:"targetType"`
	Icon        string      `json:"icon,omitempty"`
}

// Well-known catalog ids referenced by the engine.
const (
	ItemIDSmallPotion = "item_small_potion"
	ItemIDManaPotion  = "item_mana_potion"
	ItemIDBasicSword  = "item_basic_sword"

	SkillIDPowerStrike = "skill_power_strike"
)

var itemCatalog = map[string]GameItem{
	ItemIDSmallPotion: {
		ID: ItemIDSmallPotion, Name: "Small Potion", Type: ItemConsumable,
		Description: "Restores a little HP.", Quantity: 1,
		Effects: &ItemEffect{HP: 30}, SellPrice: 10, Icon: "🧪",
	},
	ItemIDManaPotion: {
		ID: ItemIDManaPotion, Name: "Mana Potion", Type: ItemConsumable,
		Description: "Restores a little MP.", Quantity: 1,
		Effects: &ItemEffect{MP: 20}, SellPrice: 15, Icon: "🔮",
	},
	"item_throwing_knife": {
		ID: "item_throwing_knife", Name: "Throwing Knife", Type: ItemConsumable,
		Description: "A one-shot blade hurled at an enemy.", Quantity: 1,
		Effects: &ItemEffect{Attack: 18}, SellPrice: 12, Icon: "🔪",
	},
	ItemIDBasicSword: {
		ID: ItemIDBasicSword, Name: "Basic Sword", Type: ItemWeapon,
		Description: "A plain but reliable blade.", Quantity: 1,
		Effects: &ItemEffect{Attack: 5}, EquipSlot: SlotWeapon, SellPrice: 50, Icon: "🗡️",
	},
	"item_iron_sword": {
		ID: "item_iron_sword", Name: "Iron Sword", Type: ItemWeapon,
		Description: "Heavier and sharper than the basic sword.", Quantity: 1,
		Effects: &ItemEffect{Attack: 9}, EquipSlot: SlotWeapon, SellPrice: 120, Icon: "⚔️",
	},
	"item_leather_armor": {
		ID: "item_leather_armor", Name: "Leather Armor", Type: ItemArmor,
		Description: "Hardened leather plates.", Quantity: 1,
		Effects: &ItemEffect{Defense: 4}, EquipSlot: SlotArmor, SellPrice: 80, Icon: "🥋",
	},
	"item_lucky_charm": {
		ID: "item_lucky_charm", Name: "Lucky Charm", Type: ItemAccessory,
		Description: "A trinket said to bend fortune.", Quantity: 1,
		Effects: &ItemEffect{Luck: 3, Speed: 1}, EquipSlot: SlotAccessory, SellPrice: 60, Icon: "🍀",
	},
}

var skillCatalog = map[string]Skill{
	SkillIDPowerStrike: {
		ID: SkillIDPowerStrike, Name: "Power Strike",
		Description: "A focused blow against one enemy.",
		MPCost:      5, EffectValue: 10,
		EffectType: EffectDamageHP, TargetType: TargetEnemySingle, Icon: "💥",
	},
	"skill_whirlwind": {
		ID: "skill_whirlwind", Name: "Whirlwind",
		Description: "A spinning slash that hits every enemy.",
		MPCost:      12, EffectValue: 6,
		EffectType: EffectDamageHP, TargetType: TargetEnemyAll, Icon: "🌀",
	},
	"skill_first_aid": {
		ID: "skill_first_aid", Name: "First Aid",
		Description: "Patch yourself up mid-fight.",
		MPCost:      8, EffectValue: 25,
		EffectType: EffectHealHP, TargetType: TargetSelf, Icon: "❤️",
	},
	"skill_iron_stance": {
		ID: "skill_iron_stance", Name: "Iron Stance",
		Description: "Brace for incoming blows.",
		MPCost:      6, EffectValue: 4, EffectTurns: 3,
		EffectType: EffectBuffDefense, TargetType: TargetSelf, Icon: "🛡️",
	},
}

// DefaultPlayerSkills are known from the start.
var DefaultPlayerSkills = []string{SkillIDPowerStrike}

// SkillsByLevel schedules skill unlocks per reached level.
var SkillsByLevel = map[int][]string{
	2: {"skill_first_aid"},
	3: {"skill_whirlwind"},
	5: {"skill_iron_stance"},
}

// ShopInventories maps a scene id to an explicit shop catalog. Scenes
// not listed here fall back to DefaultShopItemIDs.
var ShopInventories = map[string][]string{}

// DefaultShopItemIDs is the fallback shop catalog.
var DefaultShopItemIDs = []string{
	ItemIDSmallPotion,
	ItemIDManaPotion,
	"item_throwing_knife",
	ItemIDBasicSword,
	"item_iron_sword",
	"item_leather_armor",
	"item_lucky_charm",
}

// ItemDef returns a copy of the catalog item with the given id.
func ItemDef(id string) (GameItem, bool) {
	it, ok := itemCatalog[id]
	return it, ok
}

// SkillDef returns the catalog skill with the given id.
func SkillDef(id string) (Skill, bool) {
	sk, ok := skillCatalog[id]
	return sk, ok
}
