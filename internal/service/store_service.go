package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"recitation-service/internal/economy"
	"recitation-service/internal/event"
	"recitation-service/internal/models"
)

// StoreItemView decorates a catalog entry with the flags the store
// screen renders per item.
type StoreItemView struct {
	models.StoreItem
	Owned      bool `json:"owned"`
	Affordable bool `json:"affordable"`
}

type StoreView struct {
	Diamonds int             `json:"diamonds"`
	Items    []StoreItemView `json:"items"`
}

// PurchaseResult returns the updated profile. SaveError reports a
// failed persistence write; the purchase itself already happened and
// is retried implicitly on the next save.
type PurchaseResult struct {
	Name         string   `json:"name"`
	Diamonds     int      `json:"diamonds"`
	Inventory    []string `json:"inventory"`
	Capabilities []string `json:"capabilities"`
	SaveError    string   `json:"save_error,omitempty"`
}

type StoreService struct {
	catalog   []models.StoreItem
	players   PlayerStore
	publisher EventPublisher
}

func NewStoreService(catalog []models.StoreItem, players PlayerStore, publisher EventPublisher) *StoreService {
	return &StoreService{catalog: catalog, players: players, publisher: publisher}
}

// Catalog projects the store for one player: every item with its
// owned/affordable flags, in catalog order.
func (s *StoreService) Catalog(ctx context.Context, playerName string) (*StoreView, error) {
	player, err := s.loadPlayer(ctx, playerName)
	if err != nil {
		return nil, err
	}

	view := &StoreView{Diamonds: player.Diamonds, Items: make([]StoreItemView, 0, len(s.catalog))}
	for _, item := range s.catalog {
		view.Items = append(view.Items, StoreItemView{
			StoreItem:  item,
			Owned:      player.Owns(item.ID),
			Affordable: player.Diamonds >= item.Price,
		})
	}
	return view, nil
}

// Purchase runs one store transaction. Economy rejections leave the
// profile untouched and bubble up unchanged.
func (s *StoreService) Purchase(ctx context.Context, playerName, itemID string) (*PurchaseResult, error) {
	item, ok := s.findItem(itemID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrItemNotFound, itemID)
	}

	player, err := s.loadPlayer(ctx, playerName)
	if err != nil {
		return nil, err
	}

	updated, err := economy.Purchase(*player, item)
	if err != nil {
		return nil, err
	}

	saveError := ""
	if err := s.players.Save(ctx, &updated); err != nil {
		saveError = err.Error()
		log.Printf("failed to save purchase for %q: %v", updated.Name, err)
	}

	if err := s.publisher.Publish(event.StorePurchase, map[string]interface{}{
		"user_name": updated.Name,
		"item_id":   item.ID,
		"price":     item.Price,
	}); err != nil {
		log.Printf("failed to publish purchase: %v", err)
	}

	return &PurchaseResult{
		Name:         updated.Name,
		Diamonds:     updated.Diamonds,
		Inventory:    updated.Inventory,
		Capabilities: economy.UnlockedCapabilities(updated.Inventory),
		SaveError:    saveError,
	}, nil
}

func (s *StoreService) loadPlayer(ctx context.Context, name string) (*models.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	return s.players.FindByName(ctx, name)
}

func (s *StoreService) findItem(itemID string) (models.StoreItem, bool) {
	for _, item := range s.catalog {
		if item.ID == itemID {
			return item, true
		}
	}
	return models.StoreItem{}, false
}
