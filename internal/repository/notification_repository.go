package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Dias221467/yumix/internal/models"
	"github.com/Dias221467/yumix/pkg/logger"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationRepository persists one audience's notifications. Every query
// that touches a single recipient filters on recipient_id.
type NotificationRepository struct {
	collection *mongo.Collection
	audience   models.Audience
}

func NewNotificationRepository(db *mongo.Database, audience models.Audience) *NotificationRepository {
	return &NotificationRepository{
		collection: db.Collection(audience.NotificationCollection()),
		audience:   audience,
	}
}

// EnsureIndexes creates the recent-list, unread-count and sweep indexes.
func (r *NotificationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "read", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create %s indexes: %w", r.audience.NotificationCollection(), err)
	}
	return nil
}

// Insert stores notif and assigns its generated ID.
func (r *NotificationRepository) Insert(ctx context.Context, notif *models.Notification) error {
	if notif.Data == nil {
		notif.Data = map[string]interface{}{}
	}

	result, err := r.collection.InsertOne(ctx, notif)
	if err != nil {
		logger.Log.WithError(err).WithField("audience", r.audience).Error("Failed to insert notification")
		return fmt.Errorf("failed to create notification: %w", err)
	}
	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		notif.ID = id
	}
	return nil
}

// FindRecent returns up to limit notifications for the recipient, newest first.
func (r *NotificationRepository) FindRecent(ctx context.Context, recipientID primitive.ObjectID, limit int64) ([]models.Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{"recipient_id": recipientID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	defer cursor.Close(ctx)

	notifications := []models.Notification{}
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return notifications, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID primitive.ObjectID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"recipient_id": recipientID, "read": false})
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead sets read on the recipient's notification and returns the updated
// document. ErrNotFound covers both a missing id and a foreign owner.
func (r *NotificationRepository) MarkRead(ctx context.Context, recipientID, id primitive.ObjectID, now time.Time) (*models.Notification, error) {
	filter := bson.M{"_id": id, "recipient_id": recipientID}
	update := bson.M{"$set": bson.M{"read": true, "updated_at": now}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var notif models.Notification
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&notif); err != nil {
		return nil, notFoundOr(err)
	}
	return &notif, nil
}

// MarkAllRead flips every unread notification of the recipient and returns how
// many changed.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID primitive.ObjectID, now time.Time) (int64, error) {
	filter := bson.M{"recipient_id": recipientID, "read": false}
	update := bson.M{"$set": bson.M{"read": true, "updated_at": now}}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	return result.ModifiedCount, nil
}

func (r *NotificationRepository) Delete(ctx context.Context, recipientID, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "recipient_id": recipientID})
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteForRecipient removes the recipient's notifications. A nil cutoff
// removes all of them, otherwise only those created before it.
func (r *NotificationRepository) DeleteForRecipient(ctx context.Context, recipientID primitive.ObjectID, cutoff *time.Time) (int64, error) {
	filter := bson.M{"recipient_id": recipientID}
	if cutoff != nil {
		filter["created_at"] = bson.M{"$lt": *cutoff}
	}

	result, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to clear notifications: %w", err)
	}
	return result.DeletedCount, nil
}

// DeleteOlderThan removes notifications of every recipient created before cutoff.
func (r *NotificationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired notifications: %w", err)
	}
	logger.Log.WithFields(logrus.Fields{
		"audience": r.audience,
		"deleted":  result.DeletedCount,
	}).Info("Deleted expired notifications")
	return result.DeletedCount, nil
}
