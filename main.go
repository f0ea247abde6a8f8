package main

import (
	"context"
	"log"
	"net/http"

	"civicplus-be/config"
	"civicplus-be/controllers"
	"civicplus-be/middlewares"
	"civicplus-be/routes"
	"civicplus-be/scheduler"
	"civicplus-be/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx := context.Background()
	db, err := store.Open(ctx, store.Options{
		Backend: cfg.Backend,
		DataDir: cfg.DataDir,
		Seed:    cfg.Seed,
	})
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.Backend, err)
	}
	defer db.Close()
	log.Printf("Store opened (backend=%s)", cfg.Backend)

	redisClient, err := config.ConnectRedis(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	if redisClient != nil {
		log.Println("Connected to Redis, issue rate limiting enabled")
	}

	sweeper, err := scheduler.Start(db, cfg.EscalateThresholdDays)
	if err != nil {
		log.Fatalf("Failed to start escalation scheduler: %v", err)
	}
	defer sweeper.Stop()

	r := gin.Default()
	r.Use(cors.Default())

	issueController := controllers.NewIssueController(db)
	authController := controllers.NewAuthController(db)
	rateLimiter := middlewares.IssueRateLimiter(redisClient, cfg.RedisQueuePrefix, cfg.IssueRateLimit)

	routes.AuthRoutes(r, authController)
	routes.IssueRoutes(r, issueController, rateLimiter)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
