package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI        string
	MongoDatabase   string
	APIPort         string
	JWTSecret       string
	JWTTTL          time.Duration
	CORSOrigins     []string
	CloudinaryURL   string
	MediaFolder     string
	UserMediaFolder string
	RedisURL        string
	CacheTTL        time.Duration
	NATSURL         string
	RateLimitRPS    float64
	RateLimitBurst  int
}

// Load reads .env (if present) and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}

	cfg := &Config{
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:   getEnv("MONGO_DATABASE", "medlink"),
		APIPort:         getEnv("API_PORT", "8080"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		JWTTTL:          getEnvDuration("JWT_TTL", 24*time.Hour),
		CORSOrigins:     splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		CloudinaryURL:   os.Getenv("CLOUDINARY_URL"),
		MediaFolder:     getEnv("MEDIA_FOLDER", "partners"),
		UserMediaFolder: getEnv("USER_MEDIA_FOLDER", "users"),
		RedisURL:        os.Getenv("REDIS_URL"),
		CacheTTL:        getEnvDuration("CACHE_TTL", 5*time.Minute),
		NATSURL:         os.Getenv("NATS_URL"),
		RateLimitRPS:    getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:  getEnvInt("RATE_LIMIT_BURST", 20),
	}

	if cfg.JWTSecret == "" {
		log.Println("[WARN] JWT_SECRET is NOT SET, protected routes will reject every token.")
	}
	if cfg.CloudinaryURL == "" {
		log.Println("[WARN] CLOUDINARY_URL is NOT SET, image uploads will fail.")
	}
	return cfg
}

// RedactedMongoURI is MongoURI with its credentials masked, fit for logs.
func (c *Config) RedactedMongoURI() string {
	scheme, rest, ok := strings.Cut(c.MongoURI, "://")
	if !ok {
		return c.MongoURI
	}
	hosts := rest
	if i := strings.IndexAny(rest, "/?"); i >= 0 {
		hosts = rest[:i]
	}
	at := strings.LastIndex(hosts, "@")
	if at < 0 {
		return c.MongoURI
	}
	return scheme + "://***@" + rest[at+1:]
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
