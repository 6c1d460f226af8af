package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ArmandoArias/ia-videodog/config"
	"github.com/ArmandoArias/ia-videodog/events"
	"github.com/ArmandoArias/ia-videodog/handlers"
	"github.com/ArmandoArias/ia-videodog/logger"
	"github.com/ArmandoArias/ia-videodog/repository/sqlite"
	"github.com/ArmandoArias/ia-videodog/services/pipeline"
	"github.com/ArmandoArias/ia-videodog/storage"
	"github.com/ArmandoArias/ia-videodog/suggestions"
	"github.com/ArmandoArias/ia-videodog/transcription"
	"github.com/ArmandoArias/ia-videodog/validation"
	"github.com/ArmandoArias/ia-videodog/youtube"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.LogDir, os.Getenv("LOG_LEVEL"), cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	accessLogConfig, err := logger.FiberConfig(cfg.LogDir)
	if err != nil {
		log.Fatalf("Failed to initialize access log: %v", err)
	}

	db, err := sqlite.InitDB(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()
	sqlite.ConfigureDB(db, sqlite.DBConfig{
		MaxConnections:     cfg.Database.MaxConnections,
		MaxIdleConnections: cfg.Database.MaxIdleConnections,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
	})

	repo, err := sqlite.NewRepository(db)
	if err != nil {
		log.Fatalf("Failed to initialize repository: %v", err)
	}

	awsCfg, err := storage.LoadAWSConfig(context.Background(), storage.Config{
		Region:    cfg.AWS.Region,
		AccessKey: cfg.AWS.AccessKey,
		SecretKey: cfg.AWS.SecretKey,
		Endpoint:  cfg.AWS.Endpoint,
	})
	if err != nil {
		log.Fatalf("Failed to load AWS configuration: %v", err)
	}

	uploader := storage.NewUploader(s3.NewFromConfig(awsCfg), cfg.AWS.Bucket, appLogger)

	transcriber := transcription.NewClient(
		transcribe.NewFromConfig(awsCfg),
		transcription.Config{
			PollInterval: cfg.Pipeline.PollInterval,
			MaxWait:      cfg.Pipeline.MaxWait,
		},
		appLogger,
	)

	generator := suggestions.NewGenerator(
		bedrockruntime.NewFromConfig(awsCfg),
		suggestions.Config{
			ModelID:     cfg.Generation.ModelID,
			MaxTokens:   cfg.Generation.MaxTokens,
			Temperature: cfg.Generation.Temperature,
		},
		appLogger,
	)

	downloader, err := youtube.NewDownloader(youtube.Config{
		WorkDir:            cfg.WorkDir,
		DownloadsPerMinute: cfg.Pipeline.DownloadsPerMinute,
	}, appLogger)
	if err != nil {
		log.Fatalf("Failed to initialize downloader: %v", err)
	}

	hub := events.NewHub()

	pipelineService := pipeline.NewService(
		repo,
		downloader,
		uploader,
		transcriber,
		generator,
		hub,
		pipeline.Config{
			KeyPrefix:  cfg.AWS.KeyPrefix,
			JobPrefix:  cfg.Pipeline.JobPrefix,
			RunTimeout: cfg.Pipeline.RunTimeout,
		},
		appLogger,
	)

	validator := validation.NewValidator()

	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		IdleTimeout:           cfg.IdleTimeout,
		ErrorHandler:          handlers.NewErrorHandler(appLogger),
		DisableStartupMessage: !cfg.Debug,
		StrictRouting:         true,
		CaseSensitive:         true,
		AppName:               "ia-videodog " + cfg.Version,
	})

	setupMiddleware(app, cfg, accessLogConfig)

	videoHandler := handlers.NewVideoHandler(pipelineService, repo, validator, appLogger)
	eventHandler := handlers.NewEventHandler(hub, appLogger)

	app.Post("/api/videos", videoHandler.Submit)
	app.Get("/api/videos", videoHandler.Get)
	app.Get("/api/events/:session_id", eventHandler.Stream)
	app.Get("/health", handlers.HealthCheck)

	app.Static("/", "./static")

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-shutdownChan
		appLogger.Info("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := app.ShutdownWithContext(ctx); err != nil {
			appLogger.WithError(err).Error("Server shutdown error")
		}
	}()

	serverAddr := ":" + cfg.ServerPort
	if cfg.Debug {
		appLogger.Infof("Server starting on http://localhost%s", serverAddr)
	}

	if err := app.Listen(serverAddr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}

func setupMiddleware(app *fiber.App, cfg *config.Config, logConfig *fiberLogger.Config) {
	if cfg.Middleware.EnableRecover {
		app.Use(recover.New(recover.Config{
			EnableStackTrace: cfg.Debug,
		}))
	}

	if cfg.Middleware.EnableRequestID {
		app.Use(requestid.New(requestid.Config{
			Header: "X-Request-ID",
			Generator: func() string {
				return uuid.New().String()
			},
		}))
	}

	if cfg.Middleware.EnableLogger {
		app.Use(fiberLogger.New(*logConfig))
	}

	if cfg.Middleware.EnableCORS {
		app.Use(cors.New(cors.Config{
			AllowOrigins: strings.Join(cfg.CORS.AllowedOrigins, ","),
			AllowMethods: strings.Join(cfg.CORS.AllowedMethods, ","),
			AllowHeaders: strings.Join(cfg.CORS.AllowedHeaders, ","),
			MaxAge:       cfg.CORS.MaxAge,
		}))
	}

	if cfg.Middleware.EnableRateLimit {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimit.RequestsPerMinute,
			Expiration: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error": "Rate limit exceeded",
				})
			},
			Next: func(c *fiber.Ctx) bool {
				// The SSE stream is long lived; do not count it.
				return strings.HasPrefix(c.Path(), "/api/events/")
			},
		}))
	}

	if cfg.Middleware.EnableCompress {
		app.Use(compress.New(compress.Config{
			Level: compress.LevelDefault,
			Next: func(c *fiber.Ctx) bool {
				return strings.HasPrefix(c.Path(), "/api/events/")
			},
		}))
	}

	if cfg.Middleware.EnableETag {
		app.Use(etag.New())
	}
}
