package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Hemant-G/ServiceSphere/internal/models"
)

type serviceRequest struct {
	Title        string          `json:"title" binding:"required"`
	Description  string          `json:"description" binding:"required,max=1000"`
	Price        *float64        `json:"price" binding:"required,gte=0"`
	Category     string          `json:"category" binding:"required"`
	Images       []string        `json:"images"`
	Duration     *int            `json:"duration" binding:"required,gt=0"`
	Availability string          `json:"availability"`
	Address      *addressRequest `json:"address"`
	Latitude     *float64        `json:"latitude"`
	Longitude    *float64        `json:"longitude"`
}

type serviceUpdateRequest struct {
	Title        *string         `json:"title"`
	Description  *string         `json:"description"`
	Price        *float64        `json:"price"`
	Category     *string         `json:"category"`
	Images       []string        `json:"images"`
	Duration     *int            `json:"duration"`
	Availability *string         `json:"availability"`
	Address      *addressRequest `json:"address"`
}

func ListServices(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /services"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"), 12)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid pagination params")
			return
		}

		filter := buildServiceFilter(c.Request.URL.Query())
		applyLocationFilter(filter, c.Query("lat"), c.Query("lon"), c.Query("distance"), c.Query("location"))

		findOptions := options.Find().
			SetSort(parseSortParam(c.Query("sort"))).
			SetSkip((page - 1) * limit).
			SetLimit(limit)
		if projection := parseSelectParam(c.Query("select")); projection != nil {
			findOptions.SetProjection(projection)
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		total, err := db.Collection("services").CountDocuments(ctx, filter)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		cursor, err := db.Collection("services").Find(ctx, filter, findOptions)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		services := make([]models.Service, 0)
		if err := cursor.All(ctx, &services); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		log.Printf("[%s] returning %d services", route, len(services))
		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"count":      len(services),
			"pagination": buildPagination(page, limit, total),
			"data":       services,
		})
	}
}

func GetMyServices(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /services/my-services"
		defer handlePanic(c, route)

		providerID, ok := actorID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		cursor, err := db.Collection("services").Find(ctx, bson.M{"provider": providerID},
			options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		services := make([]models.Service, 0)
		if err := cursor.All(ctx, &services); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "count": len(services), "data": services})
	}
}

func GetServiceByID(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /services/:id"
		defer handlePanic(c, route)

		serviceID, err := objectIDParam(c, "id")
		if err != nil {
			respondWithError(c, http.StatusNotFound, route, "service not found")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		var service models.Service
		if err := db.Collection("services").FindOne(ctx, bson.M{"_id": serviceID}).Decode(&service); err != nil {
			respondWithError(c, http.StatusNotFound, route, "service not found")
			return
		}

		response := gin.H{"success": true, "data": gin.H{"service": service}}

		var provider models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": service.Provider}).Decode(&provider); err == nil {
			response["data"].(gin.H)["provider"] = gin.H{
				"id":            provider.ID.Hex(),
				"name":          provider.Name,
				"email":         provider.Email,
				"phone":         provider.Phone,
				"avatar":        provider.Avatar,
				"averageRating": provider.AverageRating,
				"totalReviews":  provider.TotalReviews,
			}
		}

		c.JSON(http.StatusOK, response)
	}
}

// CreateService defaults the listing's address and location to the
// provider's own profile when the request omits them.
func CreateService(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /services"
		defer handlePanic(c, route)

		providerID, ok := actorID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req serviceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		title := strings.TrimSpace(req.Title)
		if !models.IsPredefinedService(title) {
			respondWithError(c, http.StatusBadRequest, route, "service title is not supported")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		now := time.Now()
		service := models.Service{
			Provider:     providerID,
			Title:        title,
			Description:  strings.TrimSpace(req.Description),
			Price:        *req.Price,
			Category:     strings.TrimSpace(req.Category),
			Images:       req.Images,
			Duration:     *req.Duration,
			Availability: strings.TrimSpace(req.Availability),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if service.Availability == "" {
			service.Availability = "Mon-Fri, 9am-5pm"
		}
		if req.Address != nil {
			service.Address = req.Address.toModel()
		}
		if req.Latitude != nil && req.Longitude != nil {
			point := models.NewGeoPoint(*req.Longitude, *req.Latitude)
			service.Location = &point
		}

		// Fall back to the provider's own address and coordinates.
		if service.Address == (models.Address{}) || service.Location == nil {
			var provider models.User
			if err := db.Collection("users").FindOne(ctx, bson.M{"_id": providerID}).Decode(&provider); err == nil {
				if service.Address == (models.Address{}) {
					service.Address = provider.Address
				}
				if service.Location == nil && provider.Location != nil {
					service.Location = provider.Location
				}
			}
		}

		res, err := db.Collection("services").InsertOne(ctx, service)
		if err != nil {
			log.Println("[SERVICE] [ERROR] create failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		service.ID = res.InsertedID.(primitive.ObjectID)

		c.JSON(http.StatusCreated, gin.H{"success": true, "data": service})
	}
}

func UpdateService(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /services/:id"
		defer handlePanic(c, route)

		providerID, ok := actorID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		serviceID, err := objectIDParam(c, "id")
		if err != nil {
			respondWithError(c, http.StatusNotFound, route, "service not found")
			return
		}

		var req serviceUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		var existing models.Service
		if err := db.Collection("services").FindOne(ctx, bson.M{"_id": serviceID}).Decode(&existing); err != nil {
			respondWithError(c, http.StatusNotFound, route, "service not found")
			return
		}
		if existing.Provider != providerID {
			respondWithError(c, http.StatusForbidden, route, "not authorized to update this service")
			return
		}

		update := bson.M{}
		if req.Title != nil {
			title := strings.TrimSpace(*req.Title)
			if !models.IsPredefinedService(title) {
				respondWithError(c, http.StatusBadRequest, route, "service title is not supported")
				return
			}
			update["title"] = title
		}
		if req.Description != nil {
			if len(*req.Description) > 1000 {
				respondWithError(c, http.StatusBadRequest, route, "description cannot be more than 1000 characters")
				return
			}
			update["description"] = strings.TrimSpace(*req.Description)
		}
		if req.Price != nil {
			if *req.Price < 0 {
				respondWithError(c, http.StatusBadRequest, route, "price cannot be negative")
				return
			}
			update["price"] = *req.Price
		}
		if req.Category != nil {
			update["category"] = strings.TrimSpace(*req.Category)
		}
		if req.Images != nil {
			update["images"] = req.Images
		}
		if req.Duration != nil {
			update["duration"] = *req.Duration
		}
		if req.Availability != nil {
			update["availability"] = strings.TrimSpace(*req.Availability)
		}
		applyAddressFields(update, req.Address)

		if len(update) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}
		update["updatedAt"] = time.Now()

		var service models.Service
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		if err := db.Collection("services").FindOneAndUpdate(ctx, bson.M{"_id": serviceID}, bson.M{"$set": update}, opts).Decode(&service); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": service})
	}
}

func DeleteService(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /services/:id"
		defer handlePanic(c, route)

		providerID, ok := actorID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		serviceID, err := objectIDParam(c, "id")
		if err != nil {
			respondWithError(c, http.StatusNotFound, route, "service not found")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		var existing models.Service
		if err := db.Collection("services").FindOne(ctx, bson.M{"_id": serviceID}).Decode(&existing); err != nil {
			respondWithError(c, http.StatusNotFound, route, "service not found")
			return
		}
		if existing.Provider != providerID {
			respondWithError(c, http.StatusForbidden, route, "not authorized to delete this service")
			return
		}

		if _, err := db.Collection("services").DeleteOne(ctx, bson.M{"_id": serviceID}); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{}})
	}
}

func GetPredefinedServices() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "data": models.PredefinedServices})
	}
}
