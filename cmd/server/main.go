package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fadilmartias/scandid/internal/app"
	"github.com/fadilmartias/scandid/internal/domain/fiber/handler"
	applog "github.com/fadilmartias/scandid/internal/logger"
	"github.com/fadilmartias/scandid/internal/middleware"
	"github.com/fadilmartias/scandid/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Could not load .env file")
	}

	settings := app.LoadSettings()
	appConfig := settings.App

	zl, err := applog.New(appConfig.LogJSON, appConfig.LogDebug)
	if err != nil {
		log.Fatalf("could not build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := app.Build(ctx, settings, zl)
	if err != nil {
		zl.Fatal("startup failed", zap.Error(err))
	}
	defer func() {
		if err := container.Close(); err != nil {
			zl.Warn("closing resources", zap.Error(err))
		}
	}()

	server := fiber.New(fiber.Config{
		AppName:   appConfig.Name,
		BodyLimit: int(appConfig.MaxResumeBytes) + 1024*1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Status code defaults to 500
			code := fiber.StatusInternalServerError

			// Retrieve the custom status code if it's a *fiber.Error
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}

			message := err.Error()
			if message == "" {
				message = "Internal Server Error"
			}

			return util.ErrorResponse(c, util.ErrorResponseFormat{Code: code, Message: message}, err)
		},
	})
	server.Use(logger.New())
	server.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, " + handler.CandidateHeader,
		ExposeHeaders: fiber.HeaderContentDisposition,
	}))
	server.Use(recover.New(recover.Config{
		EnableStackTrace: !appConfig.IsProduction(),
	}))
	server.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed, // 1
	}))
	server.Use(pprof.New(pprof.Config{
		Next: func(c *fiber.Ctx) bool {
			return appConfig.IsProduction()
		},
	}))
	server.Use(healthcheck.New(healthcheck.Config{
		ReadinessProbe: func(*fiber.Ctx) bool { return container.Ready() },
	}))
	server.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	handler.RegisterMetrics(server, container.Metrics)

	server.Use(middleware.RateLimiter(appConfig.RateLimit, appConfig.RateWindow))
	handler.NewScreeningHandler(container.Screening, appConfig).RegisterRoutes(server)

	// Monitor goroutine count
	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				zl.Debug("runtime", zap.Int("goroutines", runtime.NumGoroutine()))
			}
		}
	}()

	go func() {
		<-ctx.Done()
		zl.Info("shutting down")
		if err := server.ShutdownWithTimeout(30 * time.Second); err != nil {
			zl.Error("shutdown failed", zap.Error(err))
		}
	}()

	zl.Info("server running", zap.String("port", appConfig.Port), zap.String("env", appConfig.Env))
	if err := server.Listen(appConfig.Port); err != nil {
		zl.Error("server stopped", zap.Error(err))
	}
}
