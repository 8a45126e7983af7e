package economy

import (
	"errors"

	"recitation-service/internal/models"
)

var (
	ErrAlreadyOwned      = errors.New("item already owned")
	ErrInsufficientFunds = errors.New("not enough diamonds")
)

// Purchase applies one store transaction to a copy of the player and
// returns it. The input player is never mutated, so a rejected purchase
// leaves no observable change: the debit and the inventory append land
// together or not at all.
func Purchase(p models.Player, item models.StoreItem) (models.Player, error) {
	if p.Owns(item.ID) {
		return p, ErrAlreadyOwned
	}
	if p.Diamonds < item.Price {
		return p, ErrInsufficientFunds
	}

	p.Diamonds -= item.Price
	inventory := make([]string, len(p.Inventory), len(p.Inventory)+1)
	copy(inventory, p.Inventory)
	p.Inventory = append(inventory, item.ID)
	return p, nil
}

// Credit adds diamonds to the player, for level-up rewards. Negative
// amounts are ignored so the balance can never go below zero here.
func Credit(p models.Player, amount int) models.Player {
	if amount > 0 {
		p.Diamonds += amount
	}
	return p
}
