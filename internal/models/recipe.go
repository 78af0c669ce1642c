package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SourceType string

const (
	SourceLocal       SourceType = "local"
	SourceSpoonacular SourceType = "spoonacular"
	SourceAI          SourceType = "ai"
	SourceExternal    SourceType = "external"
	SourceUnknown     SourceType = "unknown"
)

// Recipe carries only the fields retention decisions need.
type Recipe struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title         string             `bson:"title" json:"title"`
	SourceType    SourceType         `bson:"source_type" json:"sourceType"`
	SourceID      string             `bson:"source_id,omitempty" json:"sourceId,omitempty"`
	ViewCount     int64              `bson:"view_count" json:"viewCount"`
	FavoriteCount int64              `bson:"favorite_count" json:"favoriteCount"`
	CreatedAt     time.Time          `bson:"created_at" json:"createdAt"`
}

// History is a user's view of a recipe. Recipe is nil once the recipe has been
// evicted; SourceID and SourceType keep the entry displayable.
type History struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID  `bson:"user_id" json:"userId"`
	Recipe     *primitive.ObjectID `bson:"recipe" json:"recipe"`
	SourceID   string              `bson:"source_id" json:"sourceId"`
	SourceType SourceType          `bson:"source_type" json:"sourceType"`
	ViewedAt   time.Time           `bson:"viewed_at" json:"viewedAt"`
}
