package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Hemant-G/ServiceSphere/internal/cache"
	"github.com/Hemant-G/ServiceSphere/internal/config"
	"github.com/Hemant-G/ServiceSphere/internal/database"
	"github.com/Hemant-G/ServiceSphere/internal/handlers"
	"github.com/Hemant-G/ServiceSphere/internal/middleware"
	"github.com/Hemant-G/ServiceSphere/internal/models"
	"github.com/Hemant-G/ServiceSphere/internal/storage"
)

func main() {
	config.Load()

	if config.AppEnv.MongoURI == "" {
		log.Fatal("[BOOT] [FATAL] MONGO_URI is required")
	}
	if config.AppEnv.JWTSecret == "" {
		log.Fatal("[BOOT] [FATAL] JWT_SECRET is required")
	}

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal("[BOOT] [FATAL] mongo connect failed: ", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			log.Println("[BOOT] [ERROR] mongo disconnect failed:", err)
		}
	}()

	db := client.Database(config.AppEnv.DBName)
	ensureIndexes(db)

	st := buildStorage()
	readCache := cache.New(config.AppEnv.RedisAddr)
	if readCache == nil {
		log.Println("[BOOT] [INFO] redis not configured, read caches disabled")
	}

	router := gin.Default()
	registerRoutes(router, db, st, readCache)

	log.Println("[BOOT] [INFO] listening on port", config.AppEnv.Port)
	if err := router.Run(":" + config.AppEnv.Port); err != nil {
		log.Fatal("[BOOT] [FATAL] server stopped: ", err)
	}
}

func ensureIndexes(db *mongo.Database) {
	for _, ensure := range []func(*mongo.Database) error{
		database.EnsureUserIndexes,
		database.EnsureServiceIndexes,
		database.EnsureBookingIndexes,
		database.EnsureReviewIndexes,
		database.EnsurePortfolioIndexes,
	} {
		if err := ensure(db); err != nil {
			log.Fatal("[BOOT] [FATAL] index creation failed: ", err)
		}
	}
}

func buildStorage() storage.Storage {
	if config.AppEnv.StorageDriver == "s3" {
		if config.AppEnv.S3Bucket == "" {
			log.Fatal("[BOOT] [FATAL] S3_BUCKET is required when STORAGE_DRIVER=s3")
		}
		log.Println("[BOOT] [INFO] using s3 storage, bucket:", config.AppEnv.S3Bucket)
		return storage.NewS3Storage(storage.S3Config{
			Bucket:    config.AppEnv.S3Bucket,
			Region:    config.AppEnv.S3Region,
			Endpoint:  config.AppEnv.S3Endpoint,
			AccessKey: config.AppEnv.S3AccessKey,
			SecretKey: config.AppEnv.S3SecretKey,
			PublicURL: config.AppEnv.S3PublicURL,
		})
	}

	log.Println("[BOOT] [INFO] using local storage at", config.AppEnv.UploadDir)
	return storage.NewLocalStorage(config.AppEnv.UploadDir)
}

func registerRoutes(router *gin.Engine, db *mongo.Database, st storage.Storage, readCache *cache.Cache) {
	secret := config.AppEnv.JWTSecret
	ttl := config.AppEnv.TokenTTL

	if config.AppEnv.StorageDriver != "s3" {
		router.Static("/public", config.AppEnv.UploadDir)
	}

	auth := router.Group("/auth")
	{
		auth.POST("/signup", handlers.Signup(db, secret, ttl))
		auth.POST("/login", handlers.Login(db, secret, ttl))
		auth.GET("/users/:id", handlers.GetPublicProfile(db, readCache))

		authed := auth.Group("", middleware.UserAuth(secret))
		authed.GET("/me", handlers.GetMe(db))
		authed.PUT("/profile", handlers.UpdateProfile(db, st, readCache))
		authed.PUT("/change-password", handlers.ChangePassword(db))
	}

	services := router.Group("/services")
	{
		services.GET("", handlers.ListServices(db))
		services.GET("/predefined", handlers.GetPredefinedServices())

		provider := services.Group("", middleware.UserAuth(secret), middleware.RequireRoles(models.RoleProvider, models.RoleAdmin))
		provider.GET("/my-services", handlers.GetMyServices(db))
		provider.POST("", handlers.CreateService(db))
		provider.PUT("/:id", handlers.UpdateService(db))
		provider.DELETE("/:id", handlers.DeleteService(db))

		services.GET("/:id", handlers.GetServiceByID(db))
	}

	bookings := router.Group("/bookings", middleware.UserAuth(secret))
	{
		bookings.POST("", middleware.RequireRoles(models.RoleCustomer, models.RoleAdmin), handlers.CreateBooking(db, st))
		bookings.GET("/my-bookings", handlers.GetMyBookings(db))
		bookings.GET("/stats", handlers.GetBookingStats(db))
		bookings.GET("/:id", handlers.GetBookingByID(db))
		bookings.PUT("/:id/status", handlers.UpdateBookingStatus(db))
	}

	reviews := router.Group("/reviews")
	{
		reviews.GET("/provider/:providerId", handlers.GetProviderReviews(db))
		reviews.GET("/service/:serviceId", handlers.GetServiceReviews(db))
		reviews.GET("/stats/:providerId", handlers.GetReviewStats(db))

		authed := reviews.Group("", middleware.UserAuth(secret))
		authed.POST("", middleware.RequireRoles(models.RoleCustomer, models.RoleAdmin), handlers.CreateReview(db))
		authed.GET("/my-reviews", handlers.GetMyReviews(db))
		authed.PUT("/:id", handlers.UpdateReview(db))
		authed.DELETE("/:id", handlers.DeleteReview(db))
	}

	portfolio := router.Group("/portfolio")
	{
		portfolio.GET("/provider/:providerId", handlers.GetProviderPortfolio(db))
		portfolio.GET("/categories", handlers.GetPortfolioCategories(db, readCache))

		provider := portfolio.Group("", middleware.UserAuth(secret), middleware.RequireRoles(models.RoleProvider, models.RoleAdmin))
		provider.POST("", handlers.CreatePortfolioItem(db, st, readCache))
		provider.POST("/sign-upload", handlers.SignUpload(st))
		provider.GET("/my-portfolio", handlers.GetMyPortfolio(db))
		provider.PUT("/:id", handlers.UpdatePortfolioItem(db, st, readCache))
		provider.DELETE("/:id", handlers.DeletePortfolioItem(db, st, readCache))

		portfolio.GET("/:id", handlers.GetPortfolioItemByID(db))
	}

	providers := router.Group("/providers", middleware.UserAuth(secret), middleware.RequireRoles(models.RoleProvider, models.RoleAdmin))
	{
		providers.GET("/stats", handlers.GetProviderStats(db))
		providers.GET("/bookings", handlers.GetProviderBookings(db))
	}
}
