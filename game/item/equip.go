package item

import (
	"github.com/kasuganosora/scriptrpg/game/gamelog"
	"github.com/kasuganosora/scriptrpg/game/player"
	"github.com/kasuganosora/scriptrpg/script"
)

// ToggleEquip equips or unequips the item. Equipping moves one unit out
// of its inventory stack into the slot, returning any previous occupant
// to the inventory first; unequipping moves the slot's item back into a
// stack. An item without an equip slot is a logged no-op. Exactly one
// item occupies a slot at any time.
func ToggleEquip(p *player.State, it script.GameItem, log *gamelog.Log) {
	if it.EquipSlot == "" {
		if log != nil {
			log.Addf(gamelog.KindSystem, "%s cannot be equipped.", it.Name)
		}
		return
	}
	slot := p.Equipment.Slot(it.EquipSlot)
	if slot == nil {
		if log != nil {
			log.Addf(gamelog.KindSystem, "%s cannot be equipped.", it.Name)
		}
		return
	}

	if worn := *slot; worn != nil && worn.ID == it.ID {
		// Unequip: slot empties, item returns to its stack.
		returned := *worn
		returned.Quantity = 1
		Add(p, returned, 1)
		*slot = nil
		if log != nil {
			log.Addf(gamelog.KindSystem, "%s unequipped.", it.Name)
		}
	} else {
		if worn != nil {
			returned := *worn
			returned.Quantity = 1
			Add(p, returned, 1)
			if log != nil {
				log.Addf(gamelog.KindSystem, "%s unequipped; equipping %s.", worn.Name, it.Name)
			}
		} else if log != nil {
			log.Addf(gamelog.KindSystem, "%s equipped.", it.Name)
		}
		equipped := it
		equipped.Quantity = 1
		*slot = &equipped
		Consume(p, it.ID)
	}

	p.CalcDerivedStats()
}
