package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Subscription struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID           primitive.ObjectID `bson:"user_id" json:"userId"`
	PlanType         string             `bson:"plan_type" json:"planType"`
	Status           string             `bson:"status" json:"status"`
	ExpiryDate       time.Time          `bson:"expiry_date" json:"expiryDate"`
	NotificationSent bool               `bson:"notification_sent" json:"notificationSent"` // set once the expiry warning exists
	CreatedAt        time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updatedAt"`
}
