package repository

import (
	"context"
	"testing"
	"time"

	"github.com/Dias221467/yumix/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestSubscriptionRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

	mt.Run("find expiring", func(mt *mtest.T) {
		repo := NewSubscriptionRepository(mt.DB)
		id, user := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.subscriptions", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "user_id", Value: user},
			{Key: "plan_type", Value: "yearly"},
			{Key: "status", Value: "active"},
			{Key: "expiry_date", Value: now.Add(48 * time.Hour)},
			{Key: "notification_sent", Value: false},
		}))

		subs, err := repo.FindExpiringUnnotified(ctx, now, now.Add(72*time.Hour))
		require.NoError(mt, err)
		require.Len(mt, subs, 1)
		assert.Equal(mt, user, subs[0].UserID)
		assert.Equal(mt, "yearly", subs[0].PlanType)
		assert.False(mt, subs[0].NotificationSent)
	})

	mt.Run("mark notification sent", func(mt *mtest.T) {
		repo := NewSubscriptionRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateCommandErrorResponse(serverError),
		)

		require.NoError(mt, repo.MarkNotificationSent(ctx, primitive.NewObjectID(), now))
		assert.Error(mt, repo.MarkNotificationSent(ctx, primitive.NewObjectID(), now))
	})
}

func TestRecipeRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("top viewed ids", func(mt *mtest.T) {
		repo := NewRecipeRepository(mt.DB)
		a, b := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.recipes", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: a}},
			bson.D{{Key: "_id", Value: b}},
		))

		ids, err := repo.TopViewedExternalIDs(ctx, 5)
		require.NoError(mt, err)
		assert.Equal(mt, []primitive.ObjectID{a, b}, ids)
	})

	mt.Run("delete by ids", func(mt *mtest.T) {
		repo := NewRecipeRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 4}))

		deleted, err := repo.DeleteByIDs(ctx, []primitive.ObjectID{primitive.NewObjectID()})
		require.NoError(mt, err)
		assert.Equal(mt, int64(4), deleted)
	})

	mt.Run("delete nothing skips the server", func(mt *mtest.T) {
		repo := NewRecipeRepository(mt.DB)

		deleted, err := repo.DeleteByIDs(ctx, nil)
		require.NoError(mt, err)
		assert.Zero(mt, deleted)
	})
}

func TestHistoryRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("unlink recipes", func(mt *mtest.T) {
		repo := NewHistoryRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 3}, bson.E{Key: "nModified", Value: 3}))

		unlinked, err := repo.UnlinkRecipes(ctx, []primitive.ObjectID{primitive.NewObjectID()})
		require.NoError(mt, err)
		assert.Equal(mt, int64(3), unlinked)
	})

	mt.Run("unlink dangling nulls references to deleted recipes", func(mt *mtest.T) {
		repo := NewHistoryRepository(mt.DB)
		live, gone := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "values", Value: bson.A{live, gone}}),
			mtest.CreateCursorResponse(0, "test.recipes", mtest.FirstBatch, bson.D{{Key: "_id", Value: live}}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}, bson.E{Key: "nModified", Value: 2}),
		)

		repaired, err := repo.UnlinkDangling(ctx)
		require.NoError(mt, err)
		assert.Equal(mt, int64(2), repaired)
	})

	mt.Run("unlink dangling with no references", func(mt *mtest.T) {
		repo := NewHistoryRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "values", Value: bson.A{}}))

		repaired, err := repo.UnlinkDangling(ctx)
		require.NoError(mt, err)
		assert.Zero(mt, repaired)
	})

	mt.Run("unlink dangling when every reference resolves", func(mt *mtest.T) {
		repo := NewHistoryRepository(mt.DB)
		live := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "values", Value: bson.A{live}}),
			mtest.CreateCursorResponse(0, "test.recipes", mtest.FirstBatch, bson.D{{Key: "_id", Value: live}}),
		)

		repaired, err := repo.UnlinkDangling(ctx)
		require.NoError(mt, err)
		assert.Zero(mt, repaired)
	})
}

func TestRecipientRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("get by id decodes preferences", func(mt *mtest.T) {
		repo := NewRecipientRepository(mt.DB, models.AudienceAdmin)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.admins", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "name", Value: "Aigerim"},
			{Key: "role", Value: "admin"},
			{Key: "notification_preferences", Value: bson.D{{Key: "paymentAlerts", Value: false}}},
		}))

		recipient, err := repo.GetByID(ctx, id)
		require.NoError(mt, err)
		assert.Equal(mt, id, recipient.ID)
		assert.False(mt, recipient.Preferences.Allows(models.PrefPaymentAlerts))
		assert.True(mt, recipient.Preferences.Allows(models.PrefUserSignups))
	})

	mt.Run("null and non-boolean preferences count as enabled", func(mt *mtest.T) {
		repo := NewRecipientRepository(mt.DB, models.AudienceAdmin)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.admins", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "notification_preferences", Value: bson.D{
				{Key: "paymentAlerts", Value: nil},
				{Key: "userSignups", Value: "yes"},
				{Key: "reportGeneration", Value: false},
			}},
		}))

		recipient, err := repo.GetByID(ctx, id)
		require.NoError(mt, err)
		assert.True(mt, recipient.Preferences.Allows(models.PrefPaymentAlerts))
		assert.True(mt, recipient.Preferences.Allows(models.PrefUserSignups))
		assert.True(mt, recipient.Preferences.Malformed(models.PrefUserSignups))
		assert.False(mt, recipient.Preferences.Allows(models.PrefReportGeneration))
	})

	mt.Run("missing recipient", func(mt *mtest.T) {
		repo := NewRecipientRepository(mt.DB, models.AudienceUser)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch))

		_, err := repo.GetByID(ctx, primitive.NewObjectID())
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}
