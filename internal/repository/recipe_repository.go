package repository

import (
	"context"
	"fmt"

	"github.com/Dias221467/yumix/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RecipeRepository covers the retention queries over cached recipes.
type RecipeRepository struct {
	collection *mongo.Collection
}

func NewRecipeRepository(db *mongo.Database) *RecipeRepository {
	return &RecipeRepository{
		collection: db.Collection("recipes"),
	}
}

func nonLocal() bson.M {
	return bson.M{"source_type": bson.M{"$ne": models.SourceLocal}}
}

func (r *RecipeRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "source_type", Value: 1}, {Key: "view_count", Value: -1}}},
		{Keys: bson.D{{Key: "source_type", Value: 1}, {Key: "favorite_count", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create recipe indexes: %w", err)
	}
	return nil
}

// TopViewedExternalIDs returns the n most viewed non-local recipes.
func (r *RecipeRepository) TopViewedExternalIDs(ctx context.Context, n int64) ([]primitive.ObjectID, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "view_count", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(n).
		SetProjection(bson.M{"_id": 1})
	return r.findIDs(ctx, nonLocal(), opts)
}

// FavoritedExternalIDs returns every non-local recipe somebody favorited.
func (r *RecipeRepository) FavoritedExternalIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	filter := nonLocal()
	filter["favorite_count"] = bson.M{"$gt": 0}
	return r.findIDs(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
}

// ExternalIDsExcept returns non-local recipes outside keep.
func (r *RecipeRepository) ExternalIDsExcept(ctx context.Context, keep []primitive.ObjectID) ([]primitive.ObjectID, error) {
	filter := nonLocal()
	if len(keep) > 0 {
		filter["_id"] = bson.M{"$nin": keep}
	}
	return r.findIDs(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
}

func (r *RecipeRepository) DeleteByIDs(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete recipes: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *RecipeRepository) findIDs(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]primitive.ObjectID, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recipes: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode recipes: %w", err)
	}

	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}
