package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification is an in-app message for a single admin or user. Both audiences
// share this shape and live in separate collections.
type Notification struct {
	ID          primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	RecipientID primitive.ObjectID     `bson:"recipient_id" json:"recipientId"`
	Title       string                 `bson:"title,omitempty" json:"title,omitempty"`
	Message     string                 `bson:"message" json:"message"`
	Type        NotificationType       `bson:"type" json:"type"`
	Read        bool                   `bson:"read" json:"read"`
	Data        map[string]interface{} `bson:"data" json:"data"`
	CreatedAt   time.Time              `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time              `bson:"updated_at" json:"updatedAt"`
}

// NotificationType tags a notification. The valid set depends on the audience.
type NotificationType string

// Admin audience types.
const (
	AdminTypeUser         NotificationType = "user"
	AdminTypePayment      NotificationType = "payment"
	AdminTypeAlert        NotificationType = "alert"
	AdminTypeSubscription NotificationType = "subscription"
	AdminTypeReport       NotificationType = "report"
	AdminTypeReferral     NotificationType = "referral"
	AdminTypeInfo         NotificationType = "info"
	AdminTypeTest         NotificationType = "test"
)

// User audience types.
const (
	UserTypeRecipe       NotificationType = "recipe"
	UserTypePayment      NotificationType = "payment"
	UserTypeSubscription NotificationType = "subscription"
	UserTypeAccount      NotificationType = "account"
	UserTypeFeature      NotificationType = "feature"
	UserTypeInfo         NotificationType = "info"
	UserTypeTest         NotificationType = "test"
)

// Audience selects which notification collection and recipient directory an
// operation works against.
type Audience string

const (
	AudienceAdmin Audience = "admin"
	AudienceUser  Audience = "user"
)

// ParseAudience maps a route segment to an Audience.
func ParseAudience(s string) (Audience, bool) {
	switch Audience(s) {
	case AudienceAdmin:
		return AudienceAdmin, true
	case AudienceUser:
		return AudienceUser, true
	}
	return "", false
}

// NotificationCollection is the collection holding this audience's notifications.
func (a Audience) NotificationCollection() string {
	return string(a) + "_notifications"
}

// RecipientCollection is the collection holding this audience's recipients.
func (a Audience) RecipientCollection() string {
	return string(a) + "s"
}

// Types lists every notification type accepted for the audience.
func (a Audience) Types() []NotificationType {
	table := preferenceTable(a)
	types := make([]NotificationType, 0, len(table))
	for _, entry := range table {
		types = append(types, entry.Type)
	}
	return types
}
