package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/legalclear/legalclear/config"
	"github.com/legalclear/legalclear/internal/api/handlers"
	"github.com/legalclear/legalclear/internal/api/middleware"
	"github.com/legalclear/legalclear/internal/api/routes"
	"github.com/legalclear/legalclear/internal/cache"
	"github.com/legalclear/legalclear/internal/logger"
	"github.com/legalclear/legalclear/internal/models"
	"github.com/legalclear/legalclear/internal/providers/llm"
	"github.com/legalclear/legalclear/internal/providers/tts"
	mongorepo "github.com/legalclear/legalclear/internal/repositories/mongo"
	pgrepo "github.com/legalclear/legalclear/internal/repositories/postgres"
	"github.com/legalclear/legalclear/internal/services"
	"github.com/legalclear/legalclear/internal/storage"
	"github.com/legalclear/legalclear/internal/workers"
)

func main() {
	_ = godotenv.Load()

	l := logger.New()
	ctx := context.Background()

	if err := config.InitMongo(); err != nil {
		log.Fatalf("MongoDB init error: %v", err)
	}
	l.Info("MongoDB connected")

	if err := config.EnsureMongoIndexes(); err != nil {
		log.Fatalf("MongoDB index error: %v", err)
	}

	if err := config.InitPostgres(); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	if err := config.PostgresDB.AutoMigrate(&models.SavedRecord{}); err != nil {
		log.Fatalf("PostgreSQL migrate error: %v", err)
	}
	l.Info("PostgreSQL connected")

	if err := config.InitRedis(); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	l.Info("Redis connected")

	// Storage
	redisCache := cache.NewRedisCache(config.RedisClient)
	store := storage.NewRedisSessionStore(redisCache, storage.DefaultSessionTTL)
	mongoDB := config.MongoClient.Database(config.MongoDBName())
	audioRepo := mongorepo.NewAudioCacheRepo(mongoDB, mongorepo.DefaultRetention)
	recordRepo := pgrepo.NewSavedRecordRepo(config.PostgresDB)

	// Providers
	projectID := os.Getenv("GCP_PROJECT_ID")
	location := os.Getenv("GCP_LOCATION")
	if location == "" {
		location = "us-central1"
	}
	modelName := os.Getenv("GEMINI_MODEL")
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	llmProvider, err := llm.NewVertexGemini(ctx, projectID, location, modelName)
	if err != nil {
		log.Fatalf("Vertex AI init error: %v", err)
	}
	defer llmProvider.Close()

	ttsProvider, err := tts.NewGoogleTTS(ctx)
	if err != nil {
		log.Fatalf("Text-to-Speech init error: %v", err)
	}
	defer ttsProvider.Close()

	// Services
	analysisSvc := services.NewAnalysisService(store, recordRepo, audioRepo, l)
	chatSvc := services.NewChatService(store, llmProvider, l)
	suggestedSvc := services.NewSuggestedQAService()

	events := services.NewRedisSpeechEvents(config.RedisClient)
	speechManager := services.NewSpeechManager(audioRepo, ttsProvider,
		func(string) services.Player { return services.NewPassthroughPlayer() }, l)
	speechManager.SetEvents(events)

	if bucket := os.Getenv("GCS_BUCKET"); bucket != "" {
		uploader, err := storage.NewGCSUploader(ctx, bucket)
		if err != nil {
			log.Fatalf("GCS init error: %v", err)
		}
		defer uploader.Close()
		speechManager.SetUploader(uploader)
	}

	// Narration prefetch workers
	pool := &workers.NarrationWorkerPool{
		Redis:  config.RedisClient,
		Store:  store,
		Cache:  audioRepo,
		TTS:    ttsProvider,
		Events: events,
		Logger: l,

		Voice:       os.Getenv("TTS_VOICE"),
		StylePrompt: os.Getenv("TTS_STYLE_PROMPT"),
	}
	if err := pool.Start(ctx); err != nil {
		log.Fatalf("narration worker init error: %v", err)
	}
	go func() {
		ticker := time.NewTicker(6 * time.Hour)
		defer ticker.Stop()
		pool.SweepAudioCache(ctx, mongorepo.DefaultRetention)
		for range ticker.C {
			pool.SweepAudioCache(ctx, mongorepo.DefaultRetention)
		}
	}()

	// HTTP
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(l))

	routes.RegisterRoutes(r, routes.Deps{
		Analysis: handlers.NewAnalysisHandler(analysisSvc, suggestedSvc, pool),
		Chat:     handlers.NewChatHandler(chatSvc),
		Speech:   handlers.NewSpeechHandler(speechManager, ttsProvider, analysisSvc, suggestedSvc),
		WS:       handlers.NewSpeechWSHandler(speechManager, config.RedisClient),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
