package handlers

import (
	"context"
	"log"
	"math"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ratingAggregate is the denormalized pair stored on services and providers.
type ratingAggregate struct {
	AverageRating float64
	TotalReviews  int64
}

// recomputeAggregate reduces a rating list to its stored summary: mean
// rounded to one decimal, plus count. An empty list yields the zero pair.
func recomputeAggregate(ratings []float64) ratingAggregate {
	if len(ratings) == 0 {
		return ratingAggregate{}
	}

	sum := 0.0
	for _, r := range ratings {
		sum += r
	}
	mean := sum / float64(len(ratings))

	return ratingAggregate{
		AverageRating: math.Round(mean*10) / 10,
		TotalReviews:  int64(len(ratings)),
	}
}

// collectRatings pulls the live rating set for one aggregation target
// (field is "service" or "provider").
func collectRatings(ctx context.Context, db *mongo.Database, field string, id primitive.ObjectID) ([]float64, error) {
	cursor, err := db.Collection("reviews").Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{field: id}}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"ratings": bson.M{"$push": "$rating"},
		}}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []struct {
		Ratings []float64 `bson:"ratings"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0].Ratings, nil
}

// refreshRatingTarget recomputes one target's denormalized pair from the
// live review set and persists it. The triggering review write and this
// update are two separate operations; a crash in between leaves a stale
// aggregate that self-heals on the next review write.
func refreshRatingTarget(ctx context.Context, db *mongo.Database, collection, field string, id primitive.ObjectID) error {
	ratings, err := collectRatings(ctx, db, field, id)
	if err != nil {
		return err
	}

	aggregate := recomputeAggregate(ratings)

	_, err = db.Collection(collection).UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"averageRating": aggregate.AverageRating,
		"totalReviews":  aggregate.TotalReviews,
	}})
	return err
}

// refreshRatings updates both directions touched by a review write: the
// service and the provider it names.
func refreshRatings(ctx context.Context, db *mongo.Database, serviceID, providerID primitive.ObjectID) {
	if err := refreshRatingTarget(ctx, db, "services", "service", serviceID); err != nil {
		log.Println("[REVIEW] [ERROR] service rating refresh failed:", err)
	}
	if err := refreshRatingTarget(ctx, db, "users", "provider", providerID); err != nil {
		log.Println("[REVIEW] [ERROR] provider rating refresh failed:", err)
	}
}
