package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type HistoryRepository struct {
	collection *mongo.Collection
	recipes    *mongo.Collection
}

func NewHistoryRepository(db *mongo.Database) *HistoryRepository {
	return &HistoryRepository{
		collection: db.Collection("histories"),
		recipes:    db.Collection("recipes"),
	}
}

func (r *HistoryRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "recipe", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create history indexes: %w", err)
	}
	return nil
}

// UnlinkRecipes nulls the recipe reference of history entries pointing at any
// of ids. source_id and source_type are left untouched. Re-running is a no-op.
func (r *HistoryRepository) UnlinkRecipes(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := r.collection.UpdateMany(ctx,
		bson.M{"recipe": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"recipe": nil}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to unlink history entries: %w", err)
	}
	return result.ModifiedCount, nil
}

// UnlinkDangling nulls every history reference whose recipe no longer exists,
// whichever run deleted it.
func (r *HistoryRepository) UnlinkDangling(ctx context.Context) (int64, error) {
	values, err := r.collection.Distinct(ctx, "recipe", bson.M{"recipe": bson.M{"$ne": nil}})
	if err != nil {
		return 0, fmt.Errorf("failed to list referenced recipes: %w", err)
	}
	referenced := make([]primitive.ObjectID, 0, len(values))
	for _, v := range values {
		if id, ok := v.(primitive.ObjectID); ok {
			referenced = append(referenced, id)
		}
	}
	if len(referenced) == 0 {
		return 0, nil
	}

	cursor, err := r.recipes.Find(ctx, bson.M{"_id": bson.M{"$in": referenced}},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return 0, fmt.Errorf("failed to check referenced recipes: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, fmt.Errorf("failed to decode referenced recipes: %w", err)
	}
	existing := make(map[primitive.ObjectID]struct{}, len(rows))
	for _, row := range rows {
		existing[row.ID] = struct{}{}
	}

	var missing []primitive.ObjectID
	for _, id := range referenced {
		if _, ok := existing[id]; !ok {
			missing = append(missing, id)
		}
	}
	return r.UnlinkRecipes(ctx, missing)
}
