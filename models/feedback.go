package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Feedback is a free-form message left in the authorities' mailbox.
type Feedback struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	Role      Role               `bson:"role" json:"role"`
	Subject   string             `bson:"subject" json:"subject"`
	Message   string             `bson:"message" json:"message"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Receipt acknowledges a stored feedback message.
type Receipt struct {
	ID         primitive.ObjectID `json:"id"`
	ReceivedAt time.Time          `json:"receivedAt"`
}
