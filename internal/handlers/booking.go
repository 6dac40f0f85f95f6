package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"github.com/Hemant-G/ServiceSphere/internal/models"
	"github.com/Hemant-G/ServiceSphere/internal/storage"
)

const maxBookingImages = 5

type bookingRequest struct {
	ServiceID       string          `json:"serviceId" binding:"required"`
	ProviderID      string          `json:"providerId" binding:"required"`
	ScheduledDate   string          `json:"scheduledDate" binding:"required"`
	Notes           string          `json:"notes"`
	CustomerAddress *addressRequest `json:"customerAddress"`
	ContactPhone    string          `json:"contactPhone" binding:"required"`
	PaymentMethod   string          `json:"paymentMethod"`
}

type bookingStatusRequest struct {
	Status             string `json:"status" binding:"required"`
	Notes              string `json:"notes"`
	CancellationReason string `json:"cancellationReason"`
}

// parseBookingRequest reads the booking payload from either a JSON body or
// a multipart form (the multipart form may carry up to 5 images).
func parseBookingRequest(c *gin.Context) (bookingRequest, error) {
	var req bookingRequest

	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		err := c.ShouldBindJSON(&req)
		return req, err
	}

	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		return req, err
	}

	req.ServiceID = strings.TrimSpace(c.PostForm("serviceId"))
	req.ProviderID = strings.TrimSpace(c.PostForm("providerId"))
	req.ScheduledDate = strings.TrimSpace(c.PostForm("scheduledDate"))
	req.Notes = strings.TrimSpace(c.PostForm("notes"))
	req.ContactPhone = strings.TrimSpace(c.PostForm("contactPhone"))
	req.PaymentMethod = strings.TrimSpace(c.PostForm("paymentMethod"))

	if raw, ok := c.GetPostForm("customerAddress"); ok && strings.TrimSpace(raw) != "" {
		var addr addressRequest
		if err := json.Unmarshal([]byte(raw), &addr); err != nil {
			return req, err
		}
		req.CustomerAddress = &addr
	}

	return req, nil
}

func CreateBooking(db *mongo.Database, st storage.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /bookings"
		defer handlePanic(c, route)

		customerID, ok := actorID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		req, err := parseBookingRequest(c)
		if err != nil {
			respondValidationError(c, err)
			return
		}
		if req.ServiceID == "" || req.ProviderID == "" || req.ScheduledDate == "" || req.ContactPhone == "" {
			respondWithError(c, http.StatusBadRequest, route, "serviceId, providerId, scheduledDate and contactPhone are required")
			return
		}

		serviceID, err := primitive.ObjectIDFromHex(req.ServiceID)
		if err != nil {
			respondWithError(c, http.StatusNotFound, route, "service not found")
			return
		}
		providerID, err := primitive.ObjectIDFromHex(req.ProviderID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid providerId")
			return
		}

		scheduledDate, err := time.Parse(time.RFC3339, req.ScheduledDate)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid scheduledDate")
			return
		}
		if !scheduledDate.After(time.Now()) {
			respondWithError(c, http.StatusBadRequest, route, "scheduled date must be in the future")
			return
		}

		paymentMethod := models.PaymentCash
		if req.PaymentMethod != "" {
			paymentMethod = models.PaymentMethod(req.PaymentMethod)
			if !paymentMethod.Valid() {
				respondWithError(c, http.StatusBadRequest, route, "invalid payment method")
				return
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		var service models.Service
		if err := db.Collection("services").FindOne(ctx, bson.M{"_id": serviceID}).Decode(&service); err != nil {
			respondWithError(c, http.StatusNotFound, route, "service not found")
			return
		}

		if service.Provider != providerID {
			respondWithError(c, http.StatusBadRequest, route, "provider does not match service")
			return
		}
		if service.Provider == customerID {
			respondWithError(c, http.StatusBadRequest, route, "cannot book your own service")
			return
		}

		customerImages := make([]models.MediaRef, 0)
		if form := c.Request.MultipartForm; form != nil {
			files := form.File["images"]
			if len(files) > maxBookingImages {
				respondWithError(c, http.StatusBadRequest, route, "at most 5 images are allowed")
				return
			}
			for _, file := range files {
				object, err := storage.SaveImage(ctx, st, "bookings/"+customerID.Hex(), file)
				if err != nil {
					respondWithError(c, http.StatusBadRequest, route, err.Error())
					return
				}
				customerImages = append(customerImages, models.MediaRef{URL: object.URL, StorageID: object.StorageID})
			}
		}

		now := time.Now()
		booking := models.Booking{
			Customer:       customerID,
			Provider:       providerID,
			Service:        serviceID,
			ScheduledDate:  scheduledDate,
			Status:         models.BookingPending,
			TotalPrice:     service.Price,
			Notes:          req.Notes,
			ContactPhone:   req.ContactPhone,
			CustomerImages: customerImages,
			PaymentStatus:  models.PaymentPending,
			PaymentMethod:  paymentMethod,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if req.CustomerAddress != nil {
			booking.CustomerAddress = req.CustomerAddress.toModel()
		}

		res, err := db.Collection("bookings").InsertOne(ctx, booking)
		if err != nil {
			log.Println("[BOOKING] [ERROR] create failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		booking.ID = res.InsertedID.(primitive.ObjectID)

		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"message": "Booking created successfully",
			"data":    booking,
		})
	}
}

func GetMyBookings(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /bookings/my-bookings"
		defer handlePanic(c, route)

		userID, ok := actorID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		filter := bookingOwnerFilter(userID, actorRole(c))
		if status := strings.TrimSpace(c.Query("status")); status != "" {
			filter["status"] = status
		}

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"), 10)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid pagination params")
			return
		}

		findOptions := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip((page - 1) * limit).
			SetLimit(limit)

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		total, err := db.Collection("bookings").CountDocuments(ctx, filter)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		cursor, err := db.Collection("bookings").Find(ctx, filter, findOptions)
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

// bookingOwnerFilter scopes a booking query to the actor's side of the
// relation. Admins see everything.
func bookingOwnerFilter(userID primitive.ObjectID, role models.Role) bson.M {
	switch role {
	case models.RoleProvider:
		return bson.M{"provider": userID}
	case models.RoleAdmin:
		return bson.M{}
	default:
		return bson.M{"customer": userID}
	}
}

func GetBookingByID(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /bookings/:id"
		defer handlePanic(c, route)

		userID, ok := actorID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		bookingID, err := objectIDParam(c, "id")
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

		if booking.Customer != userID && booking.Provider != userID {
			respondWithError(c, http.StatusForbidden, route, "not authorized to view this booking")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": booking})
	}
}

// UpdateBookingStatus applies the role-aware transition table. The actor's
// side is derived from the booking itself, not the token role, so a
// provider acting as a customer on someone else's service is treated as the
// customer of that booking.
func UpdateBookingStatus(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /bookings/:id/status"
		defer handlePanic(c, route)

		userID, ok := actorID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		bookingID, err := objectIDParam(c, "id")
		if err != nil {
			respondWithError(c, http.StatusNotFound, route, "booking not found")
			return
		}

		var req bookingStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		target := models.BookingStatus(strings.TrimSpace(req.Status))
		if !target.Valid() {
			respondWithError(c, http.StatusBadRequest, route, "invalid status")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		var booking models.Booking
		if err := db.Collection("bookings").FindOne(ctx, bson.M{"_id": bookingID}).Decode(&booking); err != nil {
			respondWithError(c, http.StatusNotFound, route, "booking not found")
			return
		}

		var role models.Role
		switch userID {
		case booking.Customer:
			role = models.RoleCustomer
		case booking.Provider:
			role = models.RoleProvider
		default:
			respondWithError(c, http.StatusForbidden, route, "not authorized to update this booking")
			return
		}

		update, err := applyTransition(&booking, role, target, strings.TrimSpace(req.CancellationReason), time.Now())
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		if notes := strings.TrimSpace(req.Notes); notes != "" {
			update["notes"] = notes
		}

		var updated models.Booking
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		if err := db.Collection("bookings").FindOneAndUpdate(ctx, bson.M{"_id": bookingID}, bson.M{"$set": update}, opts).Decode(&updated); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Printf("[%s] booking %s moved %s -> %s by %s", route, bookingID.Hex(), booking.Status, target, role)
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Booking " + string(target) + " successfully",
			"data":    updated,
		})
	}
}

// GetBookingStats groups the actor's bookings by status and sums completed
// revenue. The three reads are independent and run concurrently; nothing is
// stored.
func GetBookingStats(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /bookings/stats"
		defer handlePanic(c, route)

		userID, ok := actorID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		filter := bookingOwnerFilter(userID, actorRole(c))

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		var (
			statusCounts  []bson.M
			totalBookings int64
			totalRevenue  float64
		)

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			cursor, err := db.Collection("bookings").Aggregate(gctx, mongo.Pipeline{
				{{Key: "$match", Value: filter}},
				{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
			})
			if err != nil {
				return err
			}
			defer cursor.Close(gctx)
			return cursor.All(gctx, &statusCounts)
		})

		g.Go(func() error {
			var err error
			totalBookings, err = db.Collection("bookings").CountDocuments(gctx, filter)
			return err
		})

		g.Go(func() error {
			revenueFilter := bson.M{"status": models.BookingCompleted}
			for key, value := range filter {
				revenueFilter[key] = value
			}
			cursor, err := db.Collection("bookings").Aggregate(gctx, mongo.Pipeline{
				{{Key: "$match", Value: revenueFilter}},
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

		if err := g.Wait(); err != nil {
			log.Println("[BOOKING] [ERROR] stats aggregation failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"stats":         statusCounts,
				"totalBookings": totalBookings,
				"totalRevenue":  totalRevenue,
			},
		})
	}
}
