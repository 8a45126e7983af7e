package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"recitation-service/internal/config"
	"recitation-service/internal/content"
	"recitation-service/internal/db"
	"recitation-service/internal/event"
	"recitation-service/internal/handlers"
	"recitation-service/internal/progression"
	"recitation-service/internal/repository"
	"recitation-service/internal/rules"
	"recitation-service/internal/service"
	"recitation-service/pkg/discovery"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}
	cfg := config.Load()

	if cfg.MongoDB.URI == "" {
		log.Fatal("MONGO_URI is required")
	}
	if cfg.Remote.ConfigURL == "" {
		log.Fatal("CONFIG_SOURCE_URL is required")
	}
	if cfg.Remote.ContentURL == "" {
		log.Fatal("CONTENT_PROVIDER_URL is required")
	}

	db.InitMongo(cfg.MongoDB.URI)
	database := db.Client.Database(cfg.MongoDB.Database)

	// Rule table and store catalog, fetched concurrently; nothing
	// rule-dependent runs until both are in.
	bootCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	ruleTable, catalog, err := rules.NewLoader(cfg.Remote.ConfigURL).Load(bootCtx)
	cancel()
	if err != nil {
		log.Fatalf("Failed to load remote configuration: %v", err)
	}
	log.Printf("Rules loaded: %d allowed pages, %d store items", len(ruleTable.AllowedPages), len(catalog))

	// RabbitMQ event publisher
	var publisher *event.Publisher
	if cfg.RabbitMQ.URI != "" && cfg.RabbitMQ.Exchange != "" {
		publisher, err = event.NewPublisher(cfg.RabbitMQ.URI, cfg.RabbitMQ.Exchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
	} else {
		log.Println("RabbitMQ not configured, gameplay events will not be published")
	}

	// Redis page cache
	var pageCache *redis.Client
	if cfg.Redis.Address != "" {
		pageCache = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	} else {
		log.Println("Redis not configured, page fetches will not be cached")
	}

	engine := progression.NewEngine(ruleTable)
	contentClient := content.NewClient(cfg.Remote.ContentURL, pageCache, cfg.Redis.PageTTL)

	playerRepo := repository.NewPlayerRepository(database)
	recordRepo := repository.NewRecordRepository(database)

	playerService := service.NewPlayerService(playerRepo, engine, publisher)
	sessionService := service.NewSessionService(ruleTable, engine, playerRepo, recordRepo, contentClient, publisher)
	storeService := service.NewStoreService(catalog, playerRepo, publisher)

	playerHandler := handlers.NewPlayerHandler(playerService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	storeHandler := handlers.NewStoreHandler(storeService)
	rulesHandler := handlers.NewRulesHandler(ruleTable)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	public := r.Group("/public/recitation")
	{
		public.POST("/player/login", playerHandler.Login)
		public.GET("/player/:name", playerHandler.GetProfile)

		public.POST("/session", sessionHandler.Start)
		public.GET("/session/:id/question", sessionHandler.Question)
		public.POST("/session/:id/answer", sessionHandler.Answer)

		public.GET("/store", storeHandler.Catalog)
		public.POST("/store/purchase", storeHandler.Purchase)

		public.GET("/rules", rulesHandler.GetRules)
	}

	// Optional Consul registration
	if cfg.Consul.Address != "" {
		registry, err := discovery.NewServiceRegistry(cfg)
		if err != nil {
			log.Fatalf("Service discovery init failed: %v", err)
		}
		if err := registry.Register(); err != nil {
			log.Fatalf("Service registration failed: %v", err)
		}
		defer registry.Deregister()
	}

	log.Printf("recitation-service listening on :%s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Server exited: %v", err)
	}
}
