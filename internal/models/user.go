package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Recipient is the part of an admin or user account the notification core
// reads. Accounts themselves are managed elsewhere.
type Recipient struct {
	ID          primitive.ObjectID      `bson:"_id,omitempty" json:"id"`
	Name        string                  `bson:"name" json:"name"`
	Email       string                  `bson:"email" json:"email"`
	Role        string                  `bson:"role" json:"role"`
	Preferences NotificationPreferences `bson:"notification_preferences,omitempty" json:"notificationPreferences,omitempty"`
}
