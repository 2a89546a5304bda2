package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// RatePolicy is the request budget for one route class.
type RatePolicy struct {
	MaxRequests int
	Window      time.Duration
}

type Config struct {
	AppPort string
	AppMode string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	JWTSecret    string
	JWTExpiryMin int

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	BotToken    string
	BotUsername string

	S3Region     string
	S3Bucket     string
	S3AccessKey  string
	S3SecretKey  string
	S3Endpoint   string
	S3PublicBase string

	CORSOrigins      []string
	AdminTelegramIDs []int64

	// AllowEmptyMessages lets a message that is empty after trimming through
	// the send path. Off by default.
	AllowEmptyMessages bool

	// TrustProxyForwardedFor enables using the first X-Forwarded-For hop as
	// the client identity for rate limiting. Spoofable by clients that reach
	// the service directly; restrict to deployments behind a trusted proxy.
	TrustProxyForwardedFor bool

	RateLimitAuth     RatePolicy
	RateLimitListings RatePolicy
	RateLimitMessages RatePolicy
	RateLimitDefault  RatePolicy

	StoreTimeout time.Duration
}

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppPort: getEnv("APP_PORT", "8080"),
		AppMode: getEnv("APP_MODE", "debug"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "gebeya_market"),
		DBPort:     getEnv("DB_PORT", "5432"),

		JWTSecret:    getEnv("JWT_SECRET", "change-me"),
		JWTExpiryMin: getEnvAsInt("JWT_EXPIRY_MIN", 60*24*7),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		BotToken:    getEnv("BOT_TOKEN", ""),
		BotUsername: getEnv("BOT_USERNAME", "ContactNayaBot"),

		S3Region:     getEnv("S3_REGION", "us-east-1"),
		S3Bucket:     getEnv("S3_BUCKET", "gebeya-uploads"),
		S3AccessKey:  getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:  getEnv("S3_SECRET_KEY", ""),
		S3Endpoint:   getEnv("S3_ENDPOINT", ""),
		S3PublicBase: getEnv("S3_PUBLIC_BASE", ""),

		CORSOrigins:      getEnvAsList("CORS_ORIGINS", "*"),
		AdminTelegramIDs: getEnvAsInt64List("ADMIN_TELEGRAM_IDS", ""),

		AllowEmptyMessages:     getEnvAsBool("CHAT_ALLOW_EMPTY_MESSAGES", false),
		TrustProxyForwardedFor: getEnvAsBool("RATE_LIMIT_TRUST_PROXY", true),

		RateLimitAuth:     loadRatePolicy("AUTH", 10, 60),
		RateLimitListings: loadRatePolicy("LISTINGS", 30, 60),
		RateLimitMessages: loadRatePolicy("MESSAGES", 60, 60),
		RateLimitDefault:  loadRatePolicy("DEFAULT", 100, 60),

		StoreTimeout: time.Duration(getEnvAsInt("STORE_TIMEOUT_MS", 5000)) * time.Millisecond,
	}
}

func loadRatePolicy(class string, maxRequests, windowSeconds int) RatePolicy {
	return RatePolicy{
		MaxRequests: getEnvAsInt("RATE_LIMIT_"+class+"_MAX", maxRequests),
		Window:      time.Duration(getEnvAsInt("RATE_LIMIT_"+class+"_WINDOW_SEC", windowSeconds)) * time.Second,
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvAsInt64List(key, fallback string) []int64 {
	var out []int64
	for _, p := range getEnvAsList(key, fallback) {
		if v, err := strconv.ParseInt(p, 10, 64); err == nil {
			out = append(out, v)
		}
	}
	return out
}
