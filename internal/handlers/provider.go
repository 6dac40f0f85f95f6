package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"github.com/Hemant-G/ServiceSphere/internal/models"
)

// GetProviderStats aggregates a provider's dashboard numbers. The four
// reads touch different collections and run concurrently.
func GetProviderStats(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /providers/stats"
		defer handlePanic(c, route)

		providerID, ok := actorID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		var (
			totalServices int64
			averagePrice  float64
			bookingCounts []bson.M
			totalRevenue  float64
			rating        ratingAggregate
		)

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			cursor, err := db.Collection("services").Aggregate(gctx, mongo.Pipeline{
				{{Key: "$match", Value: bson.M{"provider": providerID}}},
				{{Key: "$group", Value: bson.M{
					"_id":          nil,
					"count":        bson.M{"$sum": 1},
					"averagePrice": bson.M{"$avg": "$price"},
				}}},
			})
			if err != nil {
				return err
			}
			defer cursor.Close(gctx)

			var results []struct {
				Count        int64   `bson:"count"`
				AveragePrice float64 `bson:"averagePrice"`
			}
			if err := cursor.All(gctx, &results); err != nil {
				return err
			}
			if len(results) > 0 {
				totalServices = results[0].Count
				averagePrice = results[0].AveragePrice
			}
			return nil
		})

		g.Go(func() error {
			cursor, err := db.Collection("bookings").Aggregate(gctx, mongo.Pipeline{
				{{Key: "$match", Value: bson.M{"provider": providerID}}},
				{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
			})
			if err != nil {
				return err
			}
			defer cursor.Close(gctx)
			return cursor.All(gctx, &bookingCounts)
		})

		g.Go(func() error {
			cursor, err := db.Collection("bookings").Aggregate(gctx, mongo.Pipeline{
				{{Key: "$match", Value: bson.M{"provider": providerID, "status": models.BookingCompleted}}},
				{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$totalPrice"}}}},
			})
			if err != nil {
				return err
			}
			defer cursor.Close(gctx)

			var results []struct {
				Total float64 `bson:"total"`
			}
			if err := cursor.All(gctx, &results); err != nil {
				return err
			}
			if len(results) > 0 {
				totalRevenue = results[0].Total
			}
			return nil
		})

		g.Go(func() error {
			ratings, err := collectRatings(gctx, db, "provider", providerID)
			if err != nil {
				return err
			}
			rating = recomputeAggregate(ratings)
			return nil
		})

		if err := g.Wait(); err != nil {
			log.Println("[PROVIDER] [ERROR] stats aggregation failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		byStatus := gin.H{}
		var totalBookings int64
		for _, entry := range bookingCounts {
			status, _ := entry["_id"].(string)
			count := toInt64(entry["count"])
			byStatus[status] = count
			totalBookings += count
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"totalServices":    totalServices,
				"averagePrice":     averagePrice,
				"totalBookings":    totalBookings,
				"bookingsByStatus": byStatus,
				"totalRevenue":     totalRevenue,
				"averageRating":    rating.AverageRating,
				"totalReviews":     rating.TotalReviews,
			},
		})
	}
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int32:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	default:
		return 0
	}
}

// GetProviderBookings lists the provider's incoming bookings, optionally
// filtered by status.
func GetProviderBookings(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /providers/bookings"
		defer handlePanic(c, route)

		providerID, ok := actorID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		filter := bson.M{"provider": providerID}
		if status := strings.TrimSpace(c.Query("status")); status != "" {
			filter["status"] = status
		}

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"), 10)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid pagination params")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		total, err := db.Collection("bookings").CountDocuments(ctx, filter)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		cursor, err := db.Collection("bookings").Find(ctx, filter, options.Find().
			SetSort(bson.D{{Key: "scheduledDate", Value: 1}}).
			SetSkip((page-1)*limit).
			SetLimit(limit))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		bookings := make([]models.Booking, 0)
		if err := cursor.All(ctx, &bookings); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"count":      len(bookings),
			"total":      total,
			"pagination": buildPagination(page, limit, total),
			"data":       bookings,
		})
	}
}
