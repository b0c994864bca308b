package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/medlink-api/internal/config"
	"github.com/harentsoaR/medlink-api/internal/handlers"
	"github.com/harentsoaR/medlink-api/internal/middleware"
	"github.com/harentsoaR/medlink-api/internal/services"
	"github.com/harentsoaR/medlink-api/internal/store"
)

func main() {
	cfg := config.Load()
	log.Printf("MONGO_URI: %s", cfg.RedactedMongoURI())
	log.Printf("MONGO_DATABASE: %s", cfg.MongoDatabase)
	log.Printf("API_PORT: %s", cfg.APIPort)

	// --- Database Connection ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := store.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := client.Disconnect(shutdownCtx); err != nil {
			log.Printf("MongoDB disconnect: %v", err)
		}
	}()
	db := client.Database(cfg.MongoDatabase)
	log.Println("Successfully connected to MongoDB!")

	if err := store.EnsureIndexes(ctx, db); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	// --- Initialize Services ---
	var media handlers.MediaStore
	if cld, err := services.NewCloudinaryMedia(cfg.CloudinaryURL); err != nil {
		log.Printf("Media store unavailable, image uploads are disabled: %v", err)
	} else {
		media = cld
	}
	cache := services.NewResponseCache(cfg.RedisURL, cfg.CacheTTL)
	defer cache.Close()
	events := services.NewEventPublisher(cfg.NATSURL)
	defer events.Close()

	h := handlers.NewHandler(db, cfg, media, cache, events)

	// --- Gin Router ---
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	r := gin.Default()
	r.Use(middleware.RequestID())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(limiter.Middleware())
	h.RegisterRoutes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case now := <-ticker.C:
				limiter.Sweep(now)
			}
		}
	}()

	go func() {
		log.Printf("Starting server on port %s", cfg.APIPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-runCtx.Done()
	log.Println("Shutting down server...")
	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
}
