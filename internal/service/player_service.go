package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"recitation-service/internal/economy"
	"recitation-service/internal/event"
	"recitation-service/internal/models"
	"recitation-service/internal/progression"
	"recitation-service/internal/repository"
)

// ProfileView is the projection handed to the presentation layer; it
// never exposes internal state objects.
type ProfileView struct {
	Name         string           `json:"name"`
	XP           int              `json:"xp"`
	Diamonds     int              `json:"diamonds"`
	Inventory    []string         `json:"inventory"`
	Level        models.LevelInfo `json:"level"`
	Capabilities []string         `json:"capabilities"`
	NewPlayer    bool             `json:"new_player,omitempty"`
	LoadError    string           `json:"load_error,omitempty"`
}

type PlayerService struct {
	players   PlayerStore
	engine    *progression.Engine
	publisher EventPublisher
}

func NewPlayerService(players PlayerStore, engine *progression.Engine, publisher EventPublisher) *PlayerService {
	return &PlayerService{players: players, engine: engine, publisher: publisher}
}

// Login identifies a learner by display name. A first-time name gets a
// fresh profile; a persistence failure degrades to a fresh in-memory
// profile with the failure reported, so the learner can still play.
func (s *PlayerService) Login(ctx context.Context, name string) (*ProfileView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	player, isNew, loadErr := s.loadOrCreate(ctx, name)

	view := s.project(player)
	view.NewPlayer = isNew
	view.LoadError = loadErr

	if err := s.publisher.Publish(event.PlayerLogin, map[string]interface{}{"name": player.Name}); err != nil {
		log.Printf("failed to publish login event: %v", err)
	}
	return view, nil
}

// Profile returns the stored profile projection for a known name.
func (s *PlayerService) Profile(ctx context.Context, name string) (*ProfileView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	player, err := s.players.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.project(player), nil
}

func (s *PlayerService) loadOrCreate(ctx context.Context, name string) (*models.Player, bool, string) {
	player, err := s.players.FindByName(ctx, name)
	if err == nil {
		return player, false, ""
	}

	fresh := models.NewPlayer(name)
	if errors.Is(err, repository.ErrPlayerNotFound) {
		if saveErr := s.players.Save(ctx, fresh); saveErr != nil {
			log.Printf("failed to save new profile %q: %v", name, saveErr)
			return fresh, true, saveErr.Error()
		}
		return fresh, true, ""
	}

	// Storage is down. The learner plays on defaults and is told why.
	log.Printf("failed to load profile %q: %v", name, err)
	return fresh, false, err.Error()
}

func (s *PlayerService) project(player *models.Player) *ProfileView {
	return &ProfileView{
		Name:         player.Name,
		XP:           player.XP,
		Diamonds:     player.Diamonds,
		Inventory:    player.Inventory,
		Level:        s.engine.ComputeLevel(player.XP),
		Capabilities: economy.UnlockedCapabilities(player.Inventory),
	}
}
