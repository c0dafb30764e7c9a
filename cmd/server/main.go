package main

import (
	"fmt"
	"log"
	"net/http"

	"socialgraph/backend/internal/config"
	"socialgraph/backend/internal/database"
	"socialgraph/backend/internal/handler"
	"socialgraph/backend/internal/hub"
	"socialgraph/backend/internal/middleware"
	"socialgraph/backend/internal/social"
	"socialgraph/backend/internal/store"
	"socialgraph/backend/internal/store/gormstore"
	"socialgraph/backend/internal/store/memstore"

	"github.com/gin-gonic/gin"

	// Swagger imports
	_ "socialgraph/backend/docs" // This is important for swag to find the generated docs

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func init() {
	config.LoadConfig()
}

func openStore() store.Store {
	if config.AppConfig.Store == "memory" {
		log.Println("Using in-memory store, data will not survive a restart.")
		return memstore.New()
	}
	database.Connect(config.AppConfig.DatabaseURL)
	return gormstore.New(database.DB)
}

// friendRequestLimit builds the rate limiter for sending friend requests, or
// returns nil when no redis is configured.
func friendRequestLimit() gin.HandlerFunc {
	cfg := config.AppConfig
	if cfg.RedisAddr == "" {
		log.Println("Warning: REDIS_ADDR not set, friend request rate limiting is disabled")
		return nil
	}
	client, err := database.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	log.Println("Redis connection established.")
	return middleware.RateLimit(middleware.NewRedisLimiter(client), "friend_request",
		cfg.FriendRequestRateLimit, cfg.FriendRequestRateWindow)
}

// @title           Social Graph API
// @version         1.0
// @description     Profiles, friendships, friend requests, and friend-only posts, comments and reactions.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	s := openStore()

	h := handler.New(s, hub.NewHub(),
		social.WithAutoAcceptReverse(config.AppConfig.AutoAcceptReverseRequests))

	router := gin.Default()
	router.Use(middleware.RequestID())

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	h.RegisterRoutes(router.Group("/api/v1"), friendRequestLimit())

	addr := ":" + config.AppConfig.Port
	fmt.Printf("Server is running on %s\n", addr)
	fmt.Printf("Swagger UI is available at http://localhost%s/swagger/index.html\n", addr)
	log.Fatal(router.Run(addr))
}
