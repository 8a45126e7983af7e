package repository

import (
	"context"

	"recitation-service/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// RecordRepository stores completed play-throughs. Write-only audit
// trail; gameplay never reads it back.
type RecordRepository struct {
	Col *mongo.Collection
}

func NewRecordRepository(db *mongo.Database) *RecordRepository {
	return &RecordRepository{Col: db.Collection("session_records")}
}

func (r *RecordRepository) Create(ctx context.Context, record *models.SessionRecord) error {
	res, err := r.Col.InsertOne(ctx, record)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		record.ID = oid.Hex()
	}
	return nil
}
