package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/newsflowhq/newsflow-api/configs"
	"github.com/newsflowhq/newsflow-api/internal/api/handlers"
	"github.com/newsflowhq/newsflow-api/internal/api/middleware"
	job "github.com/newsflowhq/newsflow-api/internal/jobs"
	"github.com/newsflowhq/newsflow-api/internal/publisher"
	"github.com/newsflowhq/newsflow-api/internal/publishing"
	"github.com/newsflowhq/newsflow-api/internal/queue"
	"github.com/newsflowhq/newsflow-api/internal/repository"
	"github.com/newsflowhq/newsflow-api/internal/service"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	userRepo := repository.NewUserRepository(db)
	articleRepo := repository.NewArticleRepository(db)
	postRepo := repository.NewPostRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)
	mediaRepo := repository.NewMediaRepository(db)
	attemptRepo := repository.NewPublishAttemptRepository(db)
	rateLimitRepo := repository.NewRateLimitRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	apiKeyRepo := repository.NewApiKeyRepository(db)

	userService := service.NewUserService(userRepo)
	r2Service := service.NewR2Service(*cfg)
	articleService := service.NewArticleService(articleRepo)
	postService := service.NewPostService(db, postRepo, articleRepo, mediaRepo, r2Service)
	generationService := service.NewGenerationService(*cfg, postRepo, articleRepo)
	connectionService := service.NewConnectionService(*cfg, socialAccountRepo)
	settingsService := service.NewSettingsService(settingsRepo)
	apiKeyService := service.NewApiKeyService(apiKeyRepo)

	registry := publisher.NewRegistry(
		publisher.NewTwitterPublisher(),
		publisher.NewLinkedinPublisher(),
		publisher.NewThreadsPublisher(),
		publisher.NewInstagramPublisher(),
	)

	gate := publishing.NewConnectionGate(socialAccountRepo)
	orchestrator := publishing.NewOrchestrator(*cfg, postRepo, attemptRepo, rateLimitRepo, mediaRepo, gate, registry)

	authMiddleware := middleware.NewAuthMiddleware(*cfg, apiKeyService)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	user := handlers.NewUserHandler(userService)
	api.Get("/user/info", user.GetUserInfo)

	settings := handlers.NewSettingsHandler(settingsService)
	api.Get("/settings/info", settings.GetSettings)
	api.Post("/settings/update", settings.UpdateSettings)

	apiKeys := handlers.NewApiKeyHandler(apiKeyService)
	api.Post("/api_key/new", apiKeys.CreateApiKey)
	api.Get("/api_key/list", apiKeys.ListKeys)
	api.Post("/api_key/remove", apiKeys.RemoveAPIKey)

	article := handlers.NewArticleHandler(articleService)
	api.Post("/articles/create", article.CreateArticle)
	api.Get("/articles", article.ListArticles)
	api.Post("/articles/remove", article.RemoveArticle)

	post := handlers.NewPostHandler(postService, generationService, client)
	api.Post("/posts/create", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Post("/posts/generate", post.GenerateVariants)
	api.Post("/posts/remove", post.RemovePost)

	publish := handlers.NewPublishHandler(orchestrator)
	api.Post("/posts/publish", publish.Publish)
	api.Get("/posts/publish/status", publish.Status)
	api.Post("/posts/publish/retry", publish.Retry)
	api.Post("/posts/publish/cancel", publish.Cancel)

	history := handlers.NewHistoryHandler(attemptRepo)
	api.Get("/history", history.History)

	platform := handlers.NewPlatformHandler(connectionService)
	api.Get("/accounts", platform.ListAccounts)
	api.Get("/accounts/status", platform.ConnectionStatus)
	api.Post("/accounts/remove", platform.RemoveAccount)

	// cron jobs
	refreshTokenJob := job.NewTokenRefreshJob(socialAccountRepo, connectionService)
	retrySweepJob := job.NewRetrySweepJob(attemptRepo, client, cfg.Publishing.SweepBatchSize)

	//queue
	queueW := queue.NewQueue(orchestrator)

	c := cron.New()
	c.AddFunc("@every 00h10m00s", refreshTokenJob.RefreshTokens)
	c.AddFunc(cfg.Publishing.SweepInterval, retrySweepJob.Sweep)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishPost, queueW.HandlePublishPostTask)
		mux.HandleFunc(queue.TaskTypeRetryAttempt, queueW.HandleRetryAttemptTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
