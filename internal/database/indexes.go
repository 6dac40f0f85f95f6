package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureUserIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("users").Indexes()

	models := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetName("email_unique").
				SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "address.city", Value: "text"}, {Key: "address.zipCode", Value: "text"}},
			Options: options.Index().SetName("address_text"),
		},
	}

	log.Println("EnsureUserIndexes: creating user indexes")
	_, err := indexes.CreateMany(ctx, models)
	if err != nil {
		log.Println("EnsureUserIndexes: index error:", err)
		return err
	}
	return nil
}

func EnsureServiceIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("services").Indexes()

	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "provider", Value: 1}},
			Options: options.Index().SetName("provider_index"),
		},
		{
			Keys:    bson.D{{Key: "location", Value: "2dsphere"}},
			Options: options.Index().SetName("location_2dsphere"),
		},
	}

	log.Println("EnsureServiceIndexes: creating service indexes")
	_, err := indexes.CreateMany(ctx, models)
	if err != nil {
		log.Println("EnsureServiceIndexes: index error:", err)
		return err
	}
	return nil
}

func EnsureBookingIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("bookings").Indexes()

	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "customer", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("customer_status_index"),
		},
		{
			Keys:    bson.D{{Key: "provider", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("provider_status_index"),
		},
		{
			Keys:    bson.D{{Key: "scheduledDate", Value: 1}},
			Options: options.Index().SetName("scheduledDate_index"),
		},
	}

	log.Println("EnsureBookingIndexes: creating booking indexes")
	_, err := indexes.CreateMany(ctx, models)
	if err != nil {
		log.Println("EnsureBookingIndexes: index error:", err)
		return err
	}
	return nil
}

func EnsureReviewIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("reviews").Indexes()

	models := []mongo.IndexModel{
		{
			// One review per booking.
			Keys: bson.D{{Key: "booking", Value: 1}},
			Options: options.Index().
				SetName("booking_unique").
				SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "provider", Value: 1}, {Key: "rating", Value: -1}},
			Options: options.Index().SetName("provider_rating_index"),
		},
		{
			Keys:    bson.D{{Key: "service", Value: 1}},
			Options: options.Index().SetName("service_index"),
		},
	}

	log.Println("EnsureReviewIndexes: creating review indexes")
	_, err := indexes.CreateMany(ctx, models)
	if err != nil {
		log.Println("EnsureReviewIndexes: index error:", err)
		return err
	}
	return nil
}

func EnsurePortfolioIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("portfolio").Indexes()

	providerIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "provider", Value: 1}, {Key: "isActive", Value: 1}},
		Options: options.Index().SetName("provider_active_index"),
	}

	log.Println("EnsurePortfolioIndexes: creating portfolio indexes")
	_, err := indexes.CreateOne(ctx, providerIndex)
	if err != nil {
		log.Println("EnsurePortfolioIndexes: index error:", err)
		return err
	}
	return nil
}
