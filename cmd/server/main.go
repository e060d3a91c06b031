package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"proppanda/internal/checkpoint"
	"proppanda/internal/config"
	"proppanda/internal/handler"
	"proppanda/internal/repository"
	"proppanda/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Print version info
	log.Printf("Proppanda Conversation Engine")
	log.Printf("Version: %s", Version)
	log.Printf("Build Time: %s", BuildTime)
	log.Printf("Git Commit: %s", GitCommit)
	log.Println("")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Initialize database connection
	repo, err := repository.NewPostgresRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	log.Println("✅ Connected to PostgreSQL database")

	// Initialize session store
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	sessionStore := checkpoint.NewRedisStore(redisClient, cfg.Redis.SessionTTL)
	log.Printf("✅ Session store on Redis at %s (TTL %s)", cfg.Redis.Addr, cfg.Redis.SessionTTL)

	// Initialize OpenAI client
	llm := service.NewOpenAIClient(&cfg.OpenAI)
	if cfg.OpenAI.Enabled {
		log.Printf("✅ OpenAI client initialized")
		log.Printf("   - API Base: %s", cfg.OpenAI.APIBase)
		log.Printf("   - Chat model: %s", cfg.OpenAI.ChatModel)
		log.Printf("   - Embedding model: %s", cfg.OpenAI.EmbeddingModel)
	} else {
		log.Println("⚠️  OpenAI is disabled - routing will rely on keyword rules only")
		log.Println("   Set OPENAI_API_KEY environment variable to enable AI features")
	}

	// Initialize services
	geocoder := service.NewLocationIQClient(&cfg.Geocoding)
	scheduler := service.NewWebhookScheduler(&cfg.Scheduler)

	router := service.NewRouter(llm)
	extractor := service.NewExtractor(llm)
	leadCollector := service.NewLeadCollector(repo, extractor)
	capability := service.NewCapabilityGate(repo)
	searchService := service.NewSearchService(repo, geocoder, cfg.Search.ResultLimit, cfg.Search.RadiusMeters)
	presenter := service.NewPresenter(cfg.Search.BatchSize)
	appointment := service.NewAppointmentFlow(llm, repo, scheduler)
	generator := service.NewGenerator(llm, repo, repo, cfg.Search.HistoryWindow)

	engine := service.NewEngine(
		sessionStore, repo, llm,
		router, extractor, leadCollector, capability,
		searchService, presenter, appointment, generator,
	)

	log.Println("✅ Services initialized")

	// Initialize handlers
	chatHandler := handler.NewChatHandler(engine, repo)

	// Setup Gin router
	ginRouter := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.AllowedOrigins}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	ginRouter.Use(cors.New(corsConfig))

	// Health check endpoint
	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":     "healthy",
			"service":    "proppanda-conversation-engine",
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// API routes
	apiV1 := ginRouter.Group("/api/v1")
	{
		apiV1.POST("/chat", chatHandler.Chat)
		apiV1.DELETE("/chat/:session_id", chatHandler.Reset)
	}

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("🚀 Starting server on %s", addr)

	go func() {
		if err := ginRouter.Run(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	log.Println("✅ Server stopped")
}
