package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Hemant-G/ServiceSphere/internal/cache"
	"github.com/Hemant-G/ServiceSphere/internal/models"
	"github.com/Hemant-G/ServiceSphere/internal/storage"
)

const portfolioCategoriesKey = "portfolio:categories"

type portfolioRequest struct {
	Title          string                 `json:"title"`
	Description    string                 `json:"description"`
	Category       string                 `json:"category"`
	Skills         []string               `json:"skills"`
	Experience     int                    `json:"experience"`
	Certifications []models.Certification `json:"certifications"`
	Featured       bool                   `json:"featured"`
	Images         []models.MediaRef      `json:"images"`
	Resume         *models.MediaRef       `json:"resume"`
}

// parsePortfolioRequest reads the portfolio payload from either a JSON body
// (with pre-uploaded media refs) or a multipart form carrying the files
// themselves. Multipart files are stored immediately under the provider's
// folder.
func parsePortfolioRequest(c *gin.Context, st storage.Storage, providerID primitive.ObjectID) (portfolioRequest, error) {
	var req portfolioRequest

	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		err := c.ShouldBindJSON(&req)
		return req, err
	}

	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		return req, err
	}

	req.Title = strings.TrimSpace(c.PostForm("title"))
	req.Description = strings.TrimSpace(c.PostForm("description"))
	req.Category = strings.TrimSpace(c.PostForm("category"))
	req.Featured = c.PostForm("featured") == "true"

	if raw := strings.TrimSpace(c.PostForm("skills")); raw != "" {
		for _, skill := range strings.Split(raw, ",") {
			if skill = strings.TrimSpace(skill); skill != "" {
				req.Skills = append(req.Skills, skill)
			}
		}
	}
	if raw := strings.TrimSpace(c.PostForm("experience")); raw != "" {
		experience, err := strconv.Atoi(raw)
		if err != nil {
			return req, errors.New("experience must be a number")
		}
		req.Experience = experience
	}
	if raw := strings.TrimSpace(c.PostForm("certifications")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Certifications); err != nil {
			return req, errors.New("certifications must be a JSON array")
		}
	}

	ctx := c.Request.Context()
	folder := "portfolio/" + providerID.Hex()

	form := c.Request.MultipartForm
	for _, file := range form.File["images"] {
		object, err := storage.SaveImage(ctx, st, folder, file)
		if err != nil {
			return req, err
		}
		req.Images = append(req.Images, models.MediaRef{URL: object.URL, StorageID: object.StorageID})
	}
	if resumes := form.File["resume"]; len(resumes) > 0 {
		object, err := storage.SaveResume(ctx, st, folder, resumes[0])
		if err != nil {
			return req, err
		}
		req.Resume = &models.MediaRef{URL: object.URL, StorageID: object.StorageID}
	}

	return req, nil
}

func CreatePortfolioItem(db *mongo.Database, st storage.Storage, categories *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /portfolio"
		defer handlePanic(c, route)

		providerID, ok := actorID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		req, err := parsePortfolioRequest(c, st, providerID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		if req.Title == "" || req.Description == "" || req.Category == "" {
			respondWithError(c, http.StatusBadRequest, route, "title, description and category are required")
			return
		}
		if len(req.Images) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "at least one image is required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		now := time.Now()
		item := models.PortfolioItem{
			Provider:       providerID,
			Title:          req.Title,
			Description:    req.Description,
			Images:         req.Images,
			Category:       req.Category,
			Skills:         req.Skills,
			Experience:     req.Experience,
			Certifications: req.Certifications,
			Resume:         req.Resume,
			Featured:       req.Featured,
			IsActive:       true,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if item.Skills == nil {
			item.Skills = []string{}
		}
		if item.Certifications == nil {
			item.Certifications = []models.Certification{}
		}

		res, err := db.Collection("portfolio").InsertOne(ctx, item)
		if err != nil {
			log.Println("[PORTFOLIO] [ERROR] create failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		item.ID = res.InsertedID.(primitive.ObjectID)

		if err := categories.Delete(ctx, portfolioCategoriesKey); err != nil {
			log.Println("[PORTFOLIO] [WARN] category cache invalidation failed:", err)
		}

		c.JSON(http.StatusCreated, gin.H{"success": true, "data": item})
	}
}

func GetProviderPortfolio(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /portfolio/provider/:providerId"
		defer handlePanic(c, route)

		providerID, err := objectIDParam(c, "providerId")
		if err != nil {
			respondWithError(c, http.StatusNotFound, route, "provider not found")
			return
		}

		filter := bson.M{"provider": providerID, "isActive": true}
		if category := strings.TrimSpace(c.Query("category")); category != "" {
			filter["category"] = category
		}
		if featured := strings.TrimSpace(c.Query("featured")); featured != "" {
			filter["featured"] = featured == "true"
		}

		listPortfolio(c, db, route, filter)
	}
}

func GetMyPortfolio(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /portfolio/my-portfolio"
		defer handlePanic(c, route)

		providerID, ok := actorID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		listPortfolio(c, db, route, bson.M{"provider": providerID, "isActive": true})
	}
}

// listPortfolio runs the shared paginated read. Featured items sort first,
// then newest.
func listPortfolio(c *gin.Context, db *mongo.Database, route string, filter bson.M) {
	page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"), 10)
	if err != nil {
		respondWithError(c, http.StatusBadRequest, route, "invalid pagination params")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
	defer cancel()

	total, err := db.Collection("portfolio").CountDocuments(ctx, filter)
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, route, "db error")
		return
	}

	cursor, err := db.Collection("portfolio").Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "featured", Value: -1}, {Key: "createdAt", Value: -1}}).
		SetSkip((page-1)*limit).
		SetLimit(limit))
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, route, "db error")
		return
	}
	defer cursor.Close(ctx)

	items := make([]models.PortfolioItem, 0)
	if err := cursor.All(ctx, &items); err != nil {
		respondWithError(c, http.StatusInternalServerError, route, "decode error")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"count":      len(items),
		"total":      total,
		"pagination": buildPagination(page, limit, total),
		"data":       items,
	})
}

func GetPortfolioItemByID(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /portfolio/:id"
		defer handlePanic(c, route)

		itemID, err := objectIDParam(c, "id")
		if err != nil {
			respondWithError(c, http.StatusNotFound, route, "portfolio item not found")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		var item models.PortfolioItem
		if err := db.Collection("portfolio").FindOne(ctx, bson.M{"_id": itemID, "isActive": true}).Decode(&item); err != nil {
			respondWithError(c, http.StatusNotFound, route, "portfolio item not found")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": item})
	}
}

func UpdatePortfolioItem(db *mongo.Database, st storage.Storage, categories *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /portfolio/:id"
		defer handlePanic(c, route)

		providerID, ok := actorID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		itemID, err := objectIDParam(c, "id")
		if err != nil {
			respondWithError(c, http.StatusNotFound, route, "portfolio item not found")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		var existing models.PortfolioItem
		if err := db.Collection("portfolio").FindOne(ctx, bson.M{"_id": itemID, "isActive": true}).Decode(&existing); err != nil {
			respondWithError(c, http.StatusNotFound, route, "portfolio item not found")
			return
		}
		if existing.Provider != providerID {
			respondWithError(c, http.StatusForbidden, route, "not authorized to update this portfolio item")
			return
		}

		req, err := parsePortfolioRequest(c, st, providerID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		update := bson.M{}
		if req.Title != "" {
			update["title"] = req.Title
		}
		if req.Description != "" {
			update["description"] = req.Description
		}
		if req.Category != "" {
			update["category"] = req.Category
		}
		if req.Skills != nil {
			update["skills"] = req.Skills
		}
		if req.Experience > 0 {
			update["experience"] = req.Experience
		}
		if req.Certifications != nil {
			update["certifications"] = req.Certifications
		}
		if _, set := c.GetPostForm("featured"); set || c.ContentType() == "application/json" {
			update["featured"] = req.Featured
		}

		// New media replaces the old set; stale files are removed best effort.
		if len(req.Images) > 0 {
			for _, old := range existing.Images {
				deleteMedia(ctx, st, old)
			}
			update["images"] = req.Images
		}
		if req.Resume != nil {
			if existing.Resume != nil {
				deleteMedia(ctx, st, *existing.Resume)
			}
			update["resume"] = req.Resume
		}

		if len(update) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}
		update["updatedAt"] = time.Now()

		var item models.PortfolioItem
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		if err := db.Collection("portfolio").FindOneAndUpdate(ctx, bson.M{"_id": itemID}, bson.M{"$set": update}, opts).Decode(&item); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if err := categories.Delete(ctx, portfolioCategoriesKey); err != nil {
			log.Println("[PORTFOLIO] [WARN] category cache invalidation failed:", err)
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": item})
	}
}

// DeletePortfolioItem soft-deletes: media files are removed best effort, the
// document stays with isActive false.
func DeletePortfolioItem(db *mongo.Database, st storage.Storage, categories *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /portfolio/:id"
		defer handlePanic(c, route)

		providerID, ok := actorID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		itemID, err := objectIDParam(c, "id")
		if err != nil {
			respondWithError(c, http.StatusNotFound, route, "portfolio item not found")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		var existing models.PortfolioItem
		if err := db.Collection("portfolio").FindOne(ctx, bson.M{"_id": itemID, "isActive": true}).Decode(&existing); err != nil {
			respondWithError(c, http.StatusNotFound, route, "portfolio item not found")
			return
		}
		if existing.Provider != providerID {
			respondWithError(c, http.StatusForbidden, route, "not authorized to delete this portfolio item")
			return
		}

		for _, image := range existing.Images {
			deleteMedia(ctx, st, image)
		}
		if existing.Resume != nil {
			deleteMedia(ctx, st, *existing.Resume)
		}

		update := bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now()}}
		if _, err := db.Collection("portfolio").UpdateByID(ctx, itemID, update); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if err := categories.Delete(ctx, portfolioCategoriesKey); err != nil {
			log.Println("[PORTFOLIO] [WARN] category cache invalidation failed:", err)
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{}})
	}
}

func deleteMedia(ctx context.Context, st storage.Storage, ref models.MediaRef) {
	if ref.StorageID == "" {
		return
	}
	if err := st.Delete(ctx, ref.StorageID); err != nil {
		log.Println("[PORTFOLIO] [WARN] media delete failed:", err)
	}
}

// GetPortfolioCategories lists the distinct categories across active items
// with their counts. The result is cached for five minutes.
func GetPortfolioCategories(db *mongo.Database, categories *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /portfolio/categories"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		if cached, err := categories.Get(ctx, portfolioCategoriesKey); err == nil {
			var data []gin.H
			if err := json.Unmarshal(cached, &data); err == nil {
				c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
				return
			}
		}

		cursor, err := db.Collection("portfolio").Aggregate(ctx, mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"isActive": true}}},
			{{Key: "$group", Value: bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}}},
			{{Key: "$sort", Value: bson.M{"count": -1}}},
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		var results []struct {
			Category string `bson:"_id"`
			Count    int64  `bson:"count"`
		}
		if err := cursor.All(ctx, &results); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		data := make([]gin.H, 0, len(results))
		for _, r := range results {
			data = append(data, gin.H{"category": r.Category, "count": r.Count})
		}

		if encoded, err := json.Marshal(data); err == nil {
			if err := categories.Set(ctx, portfolioCategoriesKey, encoded, 5*time.Minute); err != nil {
				log.Println("[PORTFOLIO] [WARN] category cache set failed:", err)
			}
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
	}
}

type signUploadRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
}

// SignUpload hands out a time-limited direct upload permission. Only remote
// storage drivers support it; the local driver answers 503.
func SignUpload(st storage.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /portfolio/sign-upload"
		defer handlePanic(c, route)

		providerID, ok := actorID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req signUploadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		signed, err := st.SignUpload(ctx, "portfolio/"+providerID.Hex(), req.Filename, req.ContentType)
		if errors.Is(err, storage.ErrSignedUploadsUnsupported) {
			respondWithError(c, http.StatusServiceUnavailable, route, "direct uploads are not available")
			return
		}
		if err != nil {
			log.Println("[PORTFOLIO] [ERROR] sign upload failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "could not sign upload")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": signed})
	}
}
