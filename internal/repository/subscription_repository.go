package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Dias221467/yumix/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SubscriptionRepository struct {
	collection *mongo.Collection
}

func NewSubscriptionRepository(db *mongo.Database) *SubscriptionRepository {
	return &SubscriptionRepository{
		collection: db.Collection("subscriptions"),
	}
}

func (r *SubscriptionRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "expiry_date", Value: 1}, {Key: "notification_sent", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create subscription indexes: %w", err)
	}
	return nil
}

// FindExpiringUnnotified returns subscriptions expiring in [from, to] whose
// warning has not been sent yet.
func (r *SubscriptionRepository) FindExpiringUnnotified(ctx context.Context, from, to time.Time) ([]models.Subscription, error) {
	filter := bson.M{
		"expiry_date":       bson.M{"$gte": from, "$lte": to},
		"notification_sent": bson.M{"$ne": true},
	}
	opts := options.Find().SetSort(bson.D{{Key: "expiry_date", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch expiring subscriptions: %w", err)
	}
	defer cursor.Close(ctx)

	var subs []models.Subscription
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, fmt.Errorf("failed to decode subscriptions: %w", err)
	}
	return subs, nil
}

// MarkNotificationSent sets the warning flag. The flag is only ever written
// from false to true.
func (r *SubscriptionRepository) MarkNotificationSent(ctx context.Context, id primitive.ObjectID, now time.Time) error {
	filter := bson.M{"_id": id, "notification_sent": bson.M{"$ne": true}}
	update := bson.M{"$set": bson.M{"notification_sent": true, "updated_at": now}}

	if _, err := r.collection.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to flag subscription %s: %w", id.Hex(), err)
	}
	return nil
}
