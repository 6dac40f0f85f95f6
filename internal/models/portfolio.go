package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Certification struct {
	Name                string     `bson:"name" json:"name"`
	IssuingOrganization string     `bson:"issuingOrganization,omitempty" json:"issuingOrganization,omitempty"`
	DateObtained        *time.Time `bson:"dateObtained,omitempty" json:"dateObtained,omitempty"`
}

// PortfolioItem is a provider work sample. Items are soft-deleted: isActive
// flips to false and every read path filters on it.
type PortfolioItem struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Provider       primitive.ObjectID `bson:"provider" json:"provider"`
	Title          string             `bson:"title" json:"title"`
	Description    string             `bson:"description" json:"description"`
	Images         []MediaRef         `bson:"images" json:"images"`
	Category       string             `bson:"category" json:"category"`
	Skills         []string           `bson:"skills" json:"skills"`
	Experience     int                `bson:"experience" json:"experience"`
	Certifications []Certification    `bson:"certifications" json:"certifications"`
	Resume         *MediaRef          `bson:"resume,omitempty" json:"resume,omitempty"`
	Featured       bool               `bson:"featured" json:"featured"`
	IsActive       bool               `bson:"isActive" json:"isActive"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}
