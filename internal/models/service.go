package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PredefinedServices is the fixed set of bookable service titles. Both the
// create/update validation and the frontend forms consume this list.
var PredefinedServices = []string{
	"cleaning",
	"plumbing",
	"Electrician",
	"gardening",
	"Painting",
	"Carpentry",
	"Pest Control",
	"Appliance Repair",
}

func IsPredefinedService(title string) bool {
	for _, t := range PredefinedServices {
		if t == title {
			return true
		}
	}
	return false
}

type Service struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Provider      primitive.ObjectID `bson:"provider" json:"provider"`
	Title         string             `bson:"title" json:"title"`
	Description   string             `bson:"description" json:"description"`
	Price         float64            `bson:"price" json:"price"`
	Category      string             `bson:"category" json:"category"`
	Images        []string           `bson:"images,omitempty" json:"images,omitempty"`
	Duration      int                `bson:"duration" json:"duration"`
	Availability  string             `bson:"availability" json:"availability"`
	Address       Address            `bson:"address,omitempty" json:"address"`
	Location      *GeoPoint          `bson:"location,omitempty" json:"location,omitempty"`
	AverageRating float64            `bson:"averageRating" json:"averageRating"`
	TotalReviews  int64              `bson:"totalReviews" json:"totalReviews"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}
