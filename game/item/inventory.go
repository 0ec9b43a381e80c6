// Package item mutates the player's inventory stacks and equipment
// slots under the item-effect rules.
package item

import (
	"errors"
	"fmt"

	"github.com/kasuganosora/scriptrpg/game/gamelog"
	"github.com/kasuganosora/scriptrpg/game/player"
	"github.com/kasuganosora/scriptrpg/script"
)

var (
	ErrItemNotFound  = errors.New("item: not in inventory")
	ErrItemNotUsable = errors.New("item: not usable")
	ErrNoEffect      = errors.New("item: no applicable effect")
)

// Add merges qty of the item definition into the inventory: one stack
// per item id, quantity accumulates.
func Add(p *player.State, def script.GameItem, qty int) {
	if qty <= 0 {
		return
	}
	for i := range p.Inventory {
		if p.Inventory[i].ID == def.ID {
			p.Inventory[i].Quantity += qty
			return
		}
	}
	def.Quantity = qty
	p.Inventory = append(p.Inventory, def)
}

// Find returns the inventory stack with the given id, or nil.
func Find(p *player.State, itemID string) *script.GameItem {
	for i := range p.Inventory {
		if p.Inventory[i].ID == itemID {
			return &p.Inventory[i]
		}
	}
	return nil
}

// Consume decrements the stack by one, removing it at zero.
func Consume(p *player.State, itemID string) {
	for i := range p.Inventory {
		if p.Inventory[i].ID != itemID {
			continue
		}
		if p.Inventory[i].Quantity > 1 {
			p.Inventory[i].Quantity--
		} else {
			p.Inventory = append(p.Inventory[:i], p.Inventory[i+1:]...)
		}
		return
	}
}

// UseConsumable applies a consumable's HP/MP restore effects outside of
// combat. The stack is only consumed when an effect applied.
func UseConsumable(p *player.State, itemID string, log *gamelog.Log) error {
	it := Find(p, itemID)
	if it == nil {
		return ErrItemNotFound
	}
	if it.Type != script.ItemConsumable || it.Effects == nil {
		return ErrItemNotUsable
	}

	name := it.Name
	applied := false
	msg := name + " used."
	if it.Effects.HP != 0 {
		before := p.HP
		p.HP = min(p.MaxHP, p.HP+it.Effects.HP)
		msg += fmt.Sprintf(" Recovered %d HP.", p.HP-before)
		applied = true
	}
	if it.Effects.MP != 0 {
		before := p.MP
		p.MP = min(p.MaxMP, p.MP+it.Effects.MP)
		msg += fmt.Sprintf(" Recovered %d MP.", p.MP-before)
		applied = true
	}
	if !applied {
		return ErrNoEffect
	}

	Consume(p, itemID)
	if log != nil {
		log.Add(gamelog.KindEvent, msg)
	}
	p.CalcDerivedStats()
	return nil
}
