package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dias221467/yumix/internal/models"
	"github.com/Dias221467/yumix/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RecipientRepository reads admin or user accounts for notification gating.
type RecipientRepository struct {
	collection *mongo.Collection
}

func NewRecipientRepository(db *mongo.Database, audience models.Audience) *RecipientRepository {
	return &RecipientRepository{
		collection: db.Collection(audience.RecipientCollection()),
	}
}

// GetByID returns the recipient with its notification preferences.
func (r *RecipientRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Recipient, error) {
	opts := options.FindOne().SetProjection(bson.M{
		"name":                     1,
		"email":                    1,
		"role":                     1,
		"notification_preferences": 1,
	})

	var recipient models.Recipient
	err := r.collection.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&recipient)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		logger.Log.WithError(err).WithField("recipientID", id.Hex()).Warn("Failed to find recipient by ID")
		return nil, fmt.Errorf("failed to find recipient: %w", err)
	}
	return &recipient, nil
}
