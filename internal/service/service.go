package service

import (
	"context"
	"errors"

	"recitation-service/internal/models"
)

var (
	ErrEmptyName       = errors.New("player name is required")
	ErrPageNotAllowed  = errors.New("page not allowed by game rules")
	ErrItemNotFound    = errors.New("store item not found")
	ErrSessionNotFound = errors.New("session not found")
)

// PlayerStore is the persistence layer for profiles. Load failures are
// surfaced to the learner but never block gameplay.
type PlayerStore interface {
	FindByName(ctx context.Context, name string) (*models.Player, error)
	Save(ctx context.Context, player *models.Player) error
}

// RecordStore keeps the completed-session audit trail.
type RecordStore interface {
	Create(ctx context.Context, record *models.SessionRecord) error
}

// ContentProvider returns the ordered verses of a page.
type ContentProvider interface {
	PageVerses(ctx context.Context, pageID string) ([]models.Verse, error)
}

// EventPublisher emits gameplay events. Implementations must tolerate
// being handed a nil concrete publisher.
type EventPublisher interface {
	Publish(eventType string, payload interface{}) error
}
