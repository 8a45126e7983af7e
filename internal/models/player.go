package models

import "time"

type Player struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Name      string    `bson:"name" json:"name"`
	XP        int       `bson:"xp" json:"xp"`
	Diamonds  int       `bson:"diamonds" json:"diamonds"`
	Inventory []string  `bson:"inventory" json:"inventory"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// NewPlayer returns a fresh profile for a first-time name.
func NewPlayer(name string) *Player {
	now := time.Now()
	return &Player{
		Name:      name,
		XP:        0,
		Diamonds:  0,
		Inventory: []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Owns reports whether the player's inventory contains the item id.
func (p *Player) Owns(itemID string) bool {
	for _, id := range p.Inventory {
		if id == itemID {
			return true
		}
	}
	return false
}
