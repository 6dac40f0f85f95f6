package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DetailedRatings are optional per-aspect scores, 1-5 each when present.
type DetailedRatings struct {
	Quality       int `bson:"quality,omitempty" json:"quality,omitempty"`
	Punctuality   int `bson:"punctuality,omitempty" json:"punctuality,omitempty"`
	Communication int `bson:"communication,omitempty" json:"communication,omitempty"`
	Value         int `bson:"value,omitempty" json:"value,omitempty"`
}

type Review struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Booking         primitive.ObjectID `bson:"booking" json:"booking"`
	Customer        primitive.ObjectID `bson:"customer" json:"customer"`
	Provider        primitive.ObjectID `bson:"provider" json:"provider"`
	Service         primitive.ObjectID `bson:"service" json:"service"`
	Rating          int                `bson:"rating" json:"rating"`
	Comment         string             `bson:"comment,omitempty" json:"comment,omitempty"`
	DetailedRatings *DetailedRatings   `bson:"detailedRatings,omitempty" json:"detailedRatings,omitempty"`
	IsVerified      bool               `bson:"isVerified" json:"isVerified"`
	Helpful         int64              `bson:"helpful" json:"helpful"`
	NotHelpful      int64              `bson:"notHelpful" json:"notHelpful"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}
