// @title MedMonics API
// @version 1.0
// @description Generates illustrated medical mnemonics with quizzes, one at a time or as Gemini batch jobs.
// @host localhost:8090
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description Static key from server.api_key; Authorization: Bearer <key> is also accepted.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"medmonics/internal/app"
	"medmonics/internal/config"
	"medmonics/internal/handler"
	"medmonics/internal/logger"
	"medmonics/internal/middleware"

	_ "medmonics/cmd/api/docs"

	"github.com/gofiber/swagger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// requestLogger is a middleware that logs HTTP requests
func requestLogger(appLogger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()
		method := c.Method()

		err := c.Next()

		appLogger.Info("HTTP Request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("duration", time.Since(start)),
			zap.String("ip", c.IP()),
			zap.String("user_agent", c.Get("User-Agent")),
		)

		return err
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	services, err := app.New(context.Background(), cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	mnemonicHandler := handler.NewMnemonicHandler(services.Mnemonics, appLogger)
	batchHandler := handler.NewBatchHandler(services.Batch, appLogger)

	fiberApp := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
		BodyLimit:    10 * 1024 * 1024,
		ErrorHandler: middleware.ErrorHandler(appLogger),
	})

	fiberApp.Use(requestLogger(appLogger))
	fiberApp.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-API-Key", MaxAge: 300}))
	fiberApp.Use(recover.New())

	fiberApp.Get("/swagger/*", swagger.HandlerDefault)
	handler.RegisterRoutes(fiberApp, mnemonicHandler, batchHandler, cfg.Server.APIKey)
	if cfg.Server.APIKey == "" {
		appLogger.Warn("server.api_key is not set; generation routes are unprotected")
	}

	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Logger.Env))
		if err := fiberApp.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := fiberApp.ShutdownWithContext(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
