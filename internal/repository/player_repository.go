package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"recitation-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrPlayerNotFound is returned for a name that has never played.
var ErrPlayerNotFound = errors.New("player not found")

type PlayerRepository struct {
	Col *mongo.Collection
}

func NewPlayerRepository(db *mongo.Database) *PlayerRepository {
	return &PlayerRepository{Col: db.Collection("players")}
}

// FindByName loads a profile. Names are the unique key and matched
// case-insensitively on their trimmed form.
func (r *PlayerRepository) FindByName(ctx context.Context, name string) (*models.Player, error) {
	var player models.Player
	err := r.Col.FindOne(ctx, bson.M{"name": normalizeName(name)}).Decode(&player)
	if err == mongo.ErrNoDocuments {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &player, nil
}

// Save upserts the profile keyed by name.
func (r *PlayerRepository) Save(ctx context.Context, player *models.Player) error {
	player.Name = normalizeName(player.Name)
	player.UpdatedAt = time.Now()

	update := bson.M{"$set": bson.M{
		"name":       player.Name,
		"xp":         player.XP,
		"diamonds":   player.Diamonds,
		"inventory":  player.Inventory,
		"updated_at": player.UpdatedAt,
	}, "$setOnInsert": bson.M{
		"created_at": player.CreatedAt,
	}}

	opts := options.Update().SetUpsert(true)
	_, err := r.Col.UpdateOne(ctx, bson.M{"name": player.Name}, update, opts)
	return err
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
