package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	MongoURI  string
	DBName    string
	JWTSecret string
	TokenTTL  time.Duration
	Port      string

	// StorageDriver selects where uploaded media lives: "local" keeps files
	// under UploadDir and serves them from /public, "s3" uses the bucket below.
	StorageDriver string
	UploadDir     string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string

	// RedisAddr is optional; when empty the read caches are disabled.
	RedisAddr string
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = Config{
		MongoURI:  getEnvOrDefault("MONGO_URI", ""),
		DBName:    getEnvOrDefault("DB_NAME", "servicesphere"),
		JWTSecret: getEnvOrDefault("JWT_SECRET", ""),
		TokenTTL:  getDurationEnv("TOKEN_TTL_DAYS", 30, 24*time.Hour),
		Port:      getEnvOrDefault("PORT", "8080"),

		StorageDriver: strings.ToLower(getEnvOrDefault("STORAGE_DRIVER", "local")),
		UploadDir:     getEnvOrDefault("UPLOAD_DIR", "/app/public"),

		S3Bucket:    getEnvOrDefault("S3_BUCKET", ""),
		S3Region:    getEnvOrDefault("S3_REGION", "us-east-1"),
		S3Endpoint:  getEnvOrDefault("S3_ENDPOINT", ""),
		S3AccessKey: getEnvOrDefault("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnvOrDefault("S3_SECRET_KEY", ""),
		S3PublicURL: getEnvOrDefault("S3_PUBLIC_URL", ""),

		RedisAddr: getEnvOrDefault("REDIS_ADDR", ""),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}
