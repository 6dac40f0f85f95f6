package handlers

import (
	"context"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Hemant-G/ServiceSphere/internal/models"
)

type reviewRequest struct {
	BookingID       string                  `json:"bookingId" binding:"required"`
	Rating          *int                    `json:"rating" binding:"required,gte=1,lte=5"`
	Comment         string                  `json:"comment" binding:"max=500"`
	DetailedRatings *models.DetailedRatings `json:"detailedRatings"`
}

type reviewUpdateRequest struct {
	Rating          *int                    `json:"rating"`
	Comment         *string                 `json:"comment"`
	DetailedRatings *models.DetailedRatings `json:"detailedRatings"`
}

func validDetailedRatings(dr *models.DetailedRatings) bool {
	if dr == nil {
		return true
	}
	for _, v := range []int{dr.Quality, dr.Punctuality, dr.Communication, dr.Value} {
		if v < 0 || v > 5 {
			return false
		}
	}
	return true
}

// CreateReview allows the booking's customer to review a completed booking
// exactly once, then refreshes the denormalized rating pair on both the
// service and the provider.
func CreateReview(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /reviews"
		defer handlePanic(c, route)

		customerID, ok := actorID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req reviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		if !validDetailedRatings(req.DetailedRatings) {
			respondWithError(c, http.StatusBadRequest, route, "detailed ratings must be between 1 and 5")
			return
		}

		bookingID, err := primitive.ObjectIDFromHex(req.BookingID)
		if err != nil {
			respondWithError(c, http.StatusNotFound, route, "booking not found")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		var booking models.Booking
		if err := db.Collection("bookings").FindOne(ctx, bson.M{"_id": bookingID}).Decode(&booking); err != nil {
			respondWithError(c, http.StatusNotFound, route, "booking not found")
			return
		}
		if booking.Customer != customerID {
			respondWithError(c, http.StatusForbidden, route, "only the booking customer can leave a review")
			return
		}
		if booking.Status != models.BookingCompleted {
			respondWithError(c, http.StatusBadRequest, route, "can only review completed bookings")
			return
		}

		count, err := db.Collection("reviews").CountDocuments(ctx, bson.M{"booking": bookingID})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if count > 0 {
			respondWithError(c, http.StatusBadRequest, route, "review already exists for this booking")
			return
		}

		now := time.Now()
		review := models.Review{
			Booking:         bookingID,
			Customer:        customerID,
			Provider:        booking.Provider,
			Service:         booking.Service,
			Rating:          *req.Rating,
			Comment:         strings.TrimSpace(req.Comment),
			DetailedRatings: req.DetailedRatings,
			IsVerified:      true,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		res, err := db.Collection("reviews").InsertOne(ctx, review)
		if err != nil {
			// Unique index on booking closes the check-then-insert race.
			if mongo.IsDuplicateKeyError(err) {
				respondWithError(c, http.StatusBadRequest, route, "review already exists for this booking")
				return
			}
			log.Println("[REVIEW] [ERROR] create failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		review.ID = res.InsertedID.(primitive.ObjectID)

		refreshRatings(ctx, db, booking.Service, booking.Provider)

		c.JSON(http.StatusCreated, gin.H{"success": true, "data": review})
	}
}

// listReviews is the shared paginated read behind the provider, service and
// my-reviews endpoints.
func listReviews(c *gin.Context, db *mongo.Database, route string, filter bson.M) {
	if ratingStr := strings.TrimSpace(c.Query("rating")); ratingStr != "" {
		if rating, err := strconv.Atoi(ratingStr); err == nil {
			filter["rating"] = rating
		}
	}

	page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"), 10)
	if err != nil {
		respondWithError(c, http.StatusBadRequest, route, "invalid pagination params")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
	defer cancel()

	total, err := db.Collection("reviews").CountDocuments(ctx, filter)
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, route, "db error")
		return
	}

	cursor, err := db.Collection("reviews").Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((page-1)*limit).
		SetLimit(limit))
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, route, "db error")
		return
	}
	defer cursor.Close(ctx)

	reviews := make([]models.Review, 0)
	if err := cursor.All(ctx, &reviews); err != nil {
		respondWithError(c, http.StatusInternalServerError, route, "decode error")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"count":      len(reviews),
		"total":      total,
		"pagination": buildPagination(page, limit, total),
		"data":       reviews,
	})
}

// GetProviderReviews pages through a provider's reviews and attaches the
// summary block (average, total, star distribution) alongside the page.
func GetProviderReviews(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /reviews/provider/:providerId"
		defer handlePanic(c, route)

		providerID, err := objectIDParam(c, "providerId")
		if err != nil {
			respondWithError(c, http.StatusNotFound, route, "provider not found")
			return
		}

		filter := bson.M{"provider": providerID}
		if ratingStr := strings.TrimSpace(c.Query("rating")); ratingStr != "" {
			if rating, err := strconv.Atoi(ratingStr); err == nil {
				filter["rating"] = rating
			}
		}

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"), 10)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid pagination params")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		total, err := db.Collection("reviews").CountDocuments(ctx, filter)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		cursor, err := db.Collection("reviews").Find(ctx, filter, options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip((page-1)*limit).
			SetLimit(limit))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		reviews := make([]models.Review, 0)
		if err := cursor.All(ctx, &reviews); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"count":      len(reviews),
			"total":      total,
			"pagination": buildPagination(page, limit, total),
			"stats":      providerReviewSummary(ctx, db, providerID),
			"data":       reviews,
		})
	}
}

// providerReviewSummary is computed over the full review set, not just the
// requested page. Aggregation failures degrade to the zero summary.
func providerReviewSummary(ctx context.Context, db *mongo.Database, providerID primitive.ObjectID) gin.H {
	distribution := map[string]int{"1": 0, "2": 0, "3": 0, "4": 0, "5": 0}

	ratings, err := collectRatings(ctx, db, "provider", providerID)
	if err != nil {
		log.Println("[REVIEW] [ERROR] provider summary failed:", err)
		return gin.H{"averageRating": 0.0, "totalReviews": int64(0), "ratingDistribution": distribution}
	}

	for _, r := range ratings {
		star := int(r)
		if star >= 1 && star <= 5 {
			distribution[strconv.Itoa(star)]++
		}
	}

	aggregate := recomputeAggregate(ratings)
	return gin.H{
		"averageRating":      aggregate.AverageRating,
		"totalReviews":       aggregate.TotalReviews,
		"ratingDistribution": distribution,
	}
}

func GetServiceReviews(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /reviews/service/:serviceId"
		defer handlePanic(c, route)

		serviceID, err := objectIDParam(c, "serviceId")
		if err != nil {
			respondWithError(c, http.StatusNotFound, route, "service not found")
			return
		}

		listReviews(c, db, route, bson.M{"service": serviceID})
	}
}

func GetMyReviews(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /reviews/my-reviews"
		defer handlePanic(c, route)

		customerID, ok := actorID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		listReviews(c, db, route, bson.M{"customer": customerID})
	}
}

func UpdateReview(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /reviews/:id"
		defer handlePanic(c, route)

		customerID, ok := actorID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		reviewID, err := objectIDParam(c, "id")
		if err != nil {
			respondWithError(c, http.StatusNotFound, route, "review not found")
			return
		}

		var req reviewUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		var existing models.Review
		if err := db.Collection("reviews").FindOne(ctx, bson.M{"_id": reviewID}).Decode(&existing); err != nil {
			respondWithError(c, http.StatusNotFound, route, "review not found")
			return
		}
		if existing.Customer != customerID {
			respondWithError(c, http.StatusForbidden, route, "not authorized to update this review")
			return
		}

		update := bson.M{}
		if req.Rating != nil {
			if *req.Rating < 1 || *req.Rating > 5 {
				respondWithError(c, http.StatusBadRequest, route, "rating must be between 1 and 5")
				return
			}
			update["rating"] = *req.Rating
		}
		if req.Comment != nil {
			if len(*req.Comment) > 500 {
				respondWithError(c, http.StatusBadRequest, route, "comment cannot be more than 500 characters")
				return
			}
			update["comment"] = strings.TrimSpace(*req.Comment)
		}
		if req.DetailedRatings != nil {
			if !validDetailedRatings(req.DetailedRatings) {
				respondWithError(c, http.StatusBadRequest, route, "detailed ratings must be between 1 and 5")
				return
			}
			update["detailedRatings"] = req.DetailedRatings
		}

		if len(update) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}
		update["updatedAt"] = time.Now()

		var review models.Review
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		if err := db.Collection("reviews").FindOneAndUpdate(ctx, bson.M{"_id": reviewID}, bson.M{"$set": update}, opts).Decode(&review); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		refreshRatings(ctx, db, review.Service, review.Provider)

		c.JSON(http.StatusOK, gin.H{"success": true, "data": review})
	}
}

func DeleteReview(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /reviews/:id"
		defer handlePanic(c, route)

		customerID, ok := actorID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		reviewID, err := objectIDParam(c, "id")
		if err != nil {
			respondWithError(c, http.StatusNotFound, route, "review not found")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		var existing models.Review
		if err := db.Collection("reviews").FindOne(ctx, bson.M{"_id": reviewID}).Decode(&existing); err != nil {
			respondWithError(c, http.StatusNotFound, route, "review not found")
			return
		}
		if existing.Customer != customerID {
			respondWithError(c, http.StatusForbidden, route, "not authorized to delete this review")
			return
		}

		if _, err := db.Collection("reviews").DeleteOne(ctx, bson.M{"_id": reviewID}); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		refreshRatings(ctx, db, existing.Service, existing.Provider)

		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{}})
	}
}

// GetReviewStats summarizes a provider's reviews: overall mean, per-aspect
// means and the 1-5 star distribution, computed in one aggregation.
func GetReviewStats(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /reviews/stats/:providerId"
		defer handlePanic(c, route)

		providerID, err := objectIDParam(c, "providerId")
		if err != nil {
			respondWithError(c, http.StatusNotFound, route, "provider not found")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		cursor, err := db.Collection("reviews").Aggregate(ctx, mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"provider": providerID}}},
			{{Key: "$group", Value: bson.M{
				"_id":              nil,
				"averageRating":    bson.M{"$avg": "$rating"},
				"totalReviews":     bson.M{"$sum": 1},
				"avgQuality":       bson.M{"$avg": "$detailedRatings.quality"},
				"avgPunctuality":   bson.M{"$avg": "$detailedRatings.punctuality"},
				"avgCommunication": bson.M{"$avg": "$detailedRatings.communication"},
				"avgValue":         bson.M{"$avg": "$detailedRatings.value"},
				"ratings":          bson.M{"$push": "$rating"},
			}}},
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		var results []struct {
			AverageRating    float64 `bson:"averageRating"`
			TotalReviews     int64   `bson:"totalReviews"`
			AvgQuality       float64 `bson:"avgQuality"`
			AvgPunctuality   float64 `bson:"avgPunctuality"`
			AvgCommunication float64 `bson:"avgCommunication"`
			AvgValue         float64 `bson:"avgValue"`
			Ratings          []int   `bson:"ratings"`
		}
		if err := cursor.All(ctx, &results); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		distribution := map[string]int{"1": 0, "2": 0, "3": 0, "4": 0, "5": 0}
		stats := gin.H{
			"averageRating":      0.0,
			"totalReviews":       int64(0),
			"detailedAverages":   gin.H{"quality": 0.0, "punctuality": 0.0, "communication": 0.0, "value": 0.0},
			"ratingDistribution": distribution,
		}

		if len(results) > 0 {
			r := results[0]
			for _, rating := range r.Ratings {
				if rating >= 1 && rating <= 5 {
					distribution[strconv.Itoa(rating)]++
				}
			}
			stats["averageRating"] = math.Round(r.AverageRating*10) / 10
			stats["totalReviews"] = r.TotalReviews
			stats["detailedAverages"] = gin.H{
				"quality":       math.Round(r.AvgQuality*10) / 10,
				"punctuality":   math.Round(r.AvgPunctuality*10) / 10,
				"communication": math.Round(r.AvgCommunication*10) / 10,
				"value":         math.Round(r.AvgValue*10) / 10,
			}
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
	}
}
