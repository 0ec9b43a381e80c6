// Package shop resolves per-location catalogs and settles buy/sell
// transactions against the player's gold.
package shop

import (
	"errors"
	"math"

	"github.com/kasuganosora/scriptrpg/config"
	"github.com/kasuganosora/scriptrpg/game/gamelog"
	"github.com/kasuganosora/scriptrpg/game/item"
	"github.com/kasuganosora/scriptrpg/game/player"
	"github.com/kasuganosora/scriptrpg/script"
)

var (
	ErrItemNotSellable      = errors.New("shop: item has no sell price")
	ErrItemNotFound         = errors.New("shop: item not found")
	ErrInsufficientGold     = errors.New("shop: insufficient gold")
	ErrInsufficientQuantity = errors.New("shop: insufficient quantity")
	ErrUnknownItem          = errors.New("shop: unknown item")
)

// Catalog resolves the items a scene's shop sells: the explicit
// per-scene list when configured, else the default list. An empty
// result is a valid shop with nothing on the shelves.
func Catalog(sceneID string) []script.GameItem {
	ids, ok := script.ShopInventories[sceneID]
	if !ok || len(ids) == 0 {
		ids = script.DefaultShopItemIDs
	}
	items := make([]script.GameItem, 0, len(ids))
	for _, id := range ids {
		if def, ok := script.ItemDef(id); ok {
			items = append(items, def)
		}
	}
	return items
}

// BuyPrice is the asymmetric purchase price: sell price scaled by the
// configured multiplier. There is no separate buy-price field.
func BuyPrice(def script.GameItem, cfg config.GameConfig) int {
	return int(math.Round(float64(def.SellPrice) * cfg.BuyMultiplier))
}

// Buy purchases qty of the catalog item, deducting gold and stacking
// the items. Derived stats are recomputed (gear may have been bought).
func Buy(p *player.State, itemID string, qty int, cfg config.GameConfig, log *gamelog.Log) error {
	if qty <= 0 {
		return ErrUnknownItem
	}
	def, ok := script.ItemDef(itemID)
	if !ok {
		return ErrUnknownItem
	}
	if def.SellPrice <= 0 {
		return ErrItemNotSellable
	}

	cost := BuyPrice(def, cfg) * qty
	if p.Gold < cost {
		return ErrInsufficientGold
	}

	p.Gold -= cost
	item.Add(p, def, qty)
	p.CalcDerivedStats()
	if log != nil {
		log.Addf(gamelog.KindReward, "Bought %dx %s for %dG.", qty, def.Name, cost)
	}
	return nil
}

// Sell credits sellPrice times qty and shrinks or removes the stack.
func Sell(p *player.State, itemID string, qty int, log *gamelog.Log) error {
	if qty <= 0 {
		return ErrItemNotFound
	}
	st := item.Find(p, itemID)
	if st == nil {
		return ErrItemNotFound
	}
	if st.Quantity < qty {
		return ErrInsufficientQuantity
	}
	if st.SellPrice <= 0 {
		return ErrItemNotSellable
	}

	earned := st.SellPrice * qty
	name := st.Name
	if st.Quantity > qty {
		st.Quantity -= qty
	} else {
		for i := 0; i < qty; i++ {
			item.Consume(p, itemID)
		}
	}
	p.Gold += earned
	p.CalcDerivedStats()
	if log != nil {
		log.Addf(gamelog.KindReward, "Sold %dx %s for %dG.", qty, name, earned)
	}
	return nil
}
