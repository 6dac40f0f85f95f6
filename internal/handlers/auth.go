package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"github.com/Hemant-G/ServiceSphere/internal/cache"
	"github.com/Hemant-G/ServiceSphere/internal/media"
	"github.com/Hemant-G/ServiceSphere/internal/models"
	"github.com/Hemant-G/ServiceSphere/internal/storage"
)

const publicProfileCacheTTL = 60 * time.Second

type addressRequest struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

type signupRequest struct {
	Name     string          `json:"name" binding:"required"`
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required,min=6"`
	Role     string          `json:"role"`
	Phone    string          `json:"phone"`
	Address  *addressRequest `json:"address"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

func issueToken(userID primitive.ObjectID, role models.Role, email, secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"userId": userID.Hex(),
		"role":   string(role),
		"email":  email,
		"exp":    time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func publicUser(user models.User) gin.H {
	return gin.H{
		"id":            user.ID.Hex(),
		"name":          user.Name,
		"email":         user.Email,
		"role":          user.Role,
		"phone":         user.Phone,
		"address":       user.Address,
		"avatar":        user.Avatar,
		"isActive":      user.IsActive,
		"averageRating": user.AverageRating,
		"totalReviews":  user.TotalReviews,
		"lastLogin":     user.LastLogin,
		"createdAt":     user.CreatedAt,
	}
}

func (r *addressRequest) toModel() models.Address {
	return models.Address{
		Street:  strings.TrimSpace(r.Street),
		City:    strings.TrimSpace(r.City),
		State:   strings.TrimSpace(r.State),
		ZipCode: strings.TrimSpace(r.ZipCode),
		Country: strings.TrimSpace(r.Country),
	}
}

func Signup(db *mongo.Database, jwtSecret string, tokenTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/signup"
		defer handlePanic(c, route)

		var req signupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))
		role := models.RoleCustomer
		if req.Role != "" {
			role = models.Role(req.Role)
			if !role.Valid() {
				respondWithError(c, http.StatusBadRequest, route, "invalid role")
				return
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		count, err := db.Collection("users").CountDocuments(ctx, bson.M{"email": email})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if count > 0 {
			respondWithError(c, http.StatusConflict, route, "user already exists with this email")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "password hash failed")
			return
		}

		now := time.Now()
		user := models.User{
			Name:         strings.TrimSpace(req.Name),
			Email:        email,
			PasswordHash: string(hash),
			Role:         role,
			Phone:        strings.TrimSpace(req.Phone),
			Avatar:       models.MediaRef{URL: "/uploads/default-avatar.png"},
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if req.Address != nil {
			user.Address = req.Address.toModel()
		}

		res, err := db.Collection("users").InsertOne(ctx, user)
		if err != nil {
			log.Println("[AUTH] [ERROR] signup insert failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		user.ID, _ = res.InsertedID.(primitive.ObjectID)

		token, err := issueToken(user.ID, user.Role, user.Email, jwtSecret, tokenTTL)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "token generation failed")
			return
		}

		log.Println("[AUTH] [INFO] user registered:", email)
		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"message": "User registered successfully",
			"data":    gin.H{"user": publicUser(user), "token": token},
		})
	}
}

func Login(db *mongo.Database, jwtSecret string, tokenTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/login"
		defer handlePanic(c, route)

		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
			if err == mongo.ErrNoDocuments {
				respondWithError(c, http.StatusUnauthorized, route, "invalid email or password")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			respondWithError(c, http.StatusUnauthorized, route, "invalid email or password")
			return
		}

		if !user.IsActive {
			respondWithError(c, http.StatusUnauthorized, route, "account has been deactivated")
			return
		}

		now := time.Now()
		user.LastLogin = &now
		if _, err := db.Collection("users").UpdateByID(ctx, user.ID, bson.M{"$set": bson.M{"lastLogin": now}}); err != nil {
			log.Println("[AUTH] [ERROR] lastLogin update failed:", err)
		}

		token, err := issueToken(user.ID, user.Role, user.Email, jwtSecret, tokenTTL)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "token generation failed")
			return
		}

		log.Println("[AUTH] [INFO] login succeeded:", email)
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Login successful",
			"data":    gin.H{"user": publicUser(user), "token": token},
		})
	}
}

func GetMe(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /auth/me"
		defer handlePanic(c, route)

		userID, ok := actorID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			respondWithError(c, http.StatusNotFound, route, "user not found")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"user": publicUser(user)}})
	}
}

// UpdateProfile merges only the supplied fields; address sub-fields use
// dot-notation $set so a partial address never clobbers the rest. Avatar
// files are normalized to webp and pushed to media storage.
func UpdateProfile(db *mongo.Database, st storage.Storage, profiles *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /auth/profile"
		defer handlePanic(c, route)

		userID, ok := actorID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		var current models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&current); err != nil {
			respondWithError(c, http.StatusNotFound, route, "user not found")
			return
		}

		update := bson.M{}
		var oldAvatarID string

		if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
			if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid multipart body")
				return
			}

			applyProfileFields(update,
				c.PostForm("name"), c.PostForm("email"), c.PostForm("phone"),
				c.PostForm("latitude"), c.PostForm("longitude"))

			if raw, ok := c.GetPostForm("address"); ok && strings.TrimSpace(raw) != "" {
				var addr addressRequest
				if err := json.Unmarshal([]byte(raw), &addr); err != nil {
					respondWithError(c, http.StatusBadRequest, route, "invalid address payload")
					return
				}
				applyAddressFields(update, &addr)
			}

			if file, err := c.FormFile("avatar"); err == nil {
				in, err := file.Open()
				if err != nil {
					respondWithError(c, http.StatusBadRequest, route, "could not read avatar file")
					return
				}
				normalized, err := media.NormalizeAvatar(in)
				in.Close()
				if err != nil {
					respondWithError(c, http.StatusBadRequest, route, "unsupported avatar image")
					return
				}

				object, err := st.Upload(ctx, "avatars/"+userID.Hex(), "avatar.webp", "image/webp", bytes.NewReader(normalized))
				if err != nil {
					log.Println("[AUTH] [ERROR] avatar upload failed:", err)
					respondWithError(c, http.StatusInternalServerError, route, "avatar upload failed")
					return
				}
				update["avatar"] = models.MediaRef{URL: object.URL, StorageID: object.StorageID}
				oldAvatarID = current.Avatar.StorageID
			}
		} else {
			var req struct {
				Name      string          `json:"name"`
				Email     string          `json:"email"`
				Phone     string          `json:"phone"`
				Address   *addressRequest `json:"address"`
				Latitude  *float64        `json:"latitude"`
				Longitude *float64        `json:"longitude"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				respondValidationError(c, err)
				return
			}

			if req.Name != "" {
				update["name"] = strings.TrimSpace(req.Name)
			}
			if req.Email != "" {
				update["email"] = strings.ToLower(strings.TrimSpace(req.Email))
			}
			if req.Phone != "" {
				update["phone"] = strings.TrimSpace(req.Phone)
			}
			applyAddressFields(update, req.Address)
			if req.Latitude != nil && req.Longitude != nil {
				update["location"] = models.NewGeoPoint(*req.Longitude, *req.Latitude)
			}
		}

		if len(update) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}
		update["updatedAt"] = time.Now()

		var user models.User
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		if err := db.Collection("users").FindOneAndUpdate(ctx, bson.M{"_id": userID}, bson.M{"$set": update}, opts).Decode(&user); err != nil {
			log.Println("[AUTH] [ERROR] profile update failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		// Old avatar cleanup is best-effort; the profile update already stuck.
		if oldAvatarID != "" {
			if err := st.Delete(ctx, oldAvatarID); err != nil {
				log.Println("[AUTH] [WARN] old avatar delete failed:", err)
			}
		}
		if err := profiles.Delete(ctx, "profile:"+userID.Hex()); err != nil {
			log.Println("[AUTH] [WARN] profile cache invalidation failed:", err)
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Profile updated successfully",
			"data":    gin.H{"user": publicUser(user)},
		})
	}
}

// applyProfileFields adds the simple multipart profile fields to update,
// skipping blanks.
func applyProfileFields(update bson.M, name, email, phone, latitude, longitude string) {
	if v := strings.TrimSpace(name); v != "" {
		update["name"] = v
	}
	if v := strings.ToLower(strings.TrimSpace(email)); v != "" {
		update["email"] = v
	}
	if v := strings.TrimSpace(phone); v != "" {
		update["phone"] = v
	}

	lat, latErr := strconv.ParseFloat(strings.TrimSpace(latitude), 64)
	lon, lonErr := strconv.ParseFloat(strings.TrimSpace(longitude), 64)
	if latErr == nil && lonErr == nil {
		update["location"] = models.NewGeoPoint(lon, lat)
	}
}

func applyAddressFields(update bson.M, addr *addressRequest) {
	if addr == nil {
		return
	}
	fields := map[string]string{
		"address.street":  addr.Street,
		"address.city":    addr.City,
		"address.state":   addr.State,
		"address.zipCode": addr.ZipCode,
		"address.country": addr.Country,
	}
	for key, value := range fields {
		if v := strings.TrimSpace(value); v != "" {
			update[key] = v
		}
	}
}

func ChangePassword(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /auth/change-password"
		defer handlePanic(c, route)

		userID, ok := actorID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req changePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			respondWithError(c, http.StatusNotFound, route, "user not found")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "current password is incorrect")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "password hash failed")
			return
		}

		if _, err := db.Collection("users").UpdateByID(ctx, userID, bson.M{"$set": bson.M{
			"passwordHash": string(hash),
			"updatedAt":    time.Now(),
		}}); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password changed successfully"})
	}
}

// GetPublicProfile returns the restricted provider projection with services
// and a short portfolio strip. Responses are cached briefly; lookups of
// non-providers 404 without confirming whether the account exists.
func GetPublicProfile(db *mongo.Database, profiles *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /auth/users/:id"
		defer handlePanic(c, route)

		providerID, err := objectIDParam(c, "id")
		if err != nil {
			respondWithError(c, http.StatusNotFound, route, "provider not found")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		cacheKey := "profile:" + providerID.Hex()
		if cached, err := profiles.Get(ctx, cacheKey); err == nil {
			c.Data(http.StatusOK, "application/json; charset=utf-8", cached)
			return
		}

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": providerID}).Decode(&user); err != nil || user.Role != models.RoleProvider {
			respondWithError(c, http.StatusNotFound, route, "provider not found")
			return
		}

		services := make([]models.Service, 0)
		cursor, err := db.Collection("services").Find(ctx, bson.M{"provider": providerID})
		if err == nil {
			if err := cursor.All(ctx, &services); err != nil {
				log.Println("[AUTH] [ERROR] public profile services decode failed:", err)
			}
		}

		portfolio := make([]models.PortfolioItem, 0)
		portfolioOpts := options.Find().
			SetSort(bson.D{{Key: "featured", Value: -1}, {Key: "createdAt", Value: -1}}).
			SetLimit(6)
		cursor, err = db.Collection("portfolio").Find(ctx, bson.M{"provider": providerID, "isActive": true}, portfolioOpts)
		if err == nil {
			if err := cursor.All(ctx, &portfolio); err != nil {
				log.Println("[AUTH] [ERROR] public profile portfolio decode failed:", err)
			}
		}

		payload := gin.H{
			"success": true,
			"data": gin.H{
				"id":            user.ID.Hex(),
				"name":          user.Name,
				"avatar":        user.Avatar,
				"services":      services,
				"portfolio":     portfolio,
				"averageRating": user.AverageRating,
				"totalReviews":  user.TotalReviews,
				"createdAt":     user.CreatedAt,
			},
		}

		if body, err := json.Marshal(payload); err == nil {
			if err := profiles.Set(ctx, cacheKey, body, publicProfileCacheTTL); err != nil {
				log.Println("[AUTH] [WARN] profile cache set failed:", err)
			}
		}

		c.JSON(http.StatusOK, payload)
	}
}
