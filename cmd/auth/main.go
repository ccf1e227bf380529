package main

import (
	"context"
	"fmt"
	"os"

	"scene-editor/internal/auth/handlers"
	"scene-editor/internal/auth/repository"
	"scene-editor/internal/auth/service"
	"scene-editor/internal/common/config"
	"scene-editor/internal/common/database"
	"scene-editor/internal/common/logging"
	"scene-editor/internal/common/middleware"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/sirupsen/logrus"
)

// ============================================================
// Auth Service
// ============================================================

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	if os.Getenv("PORT") == "" {
		cfg.Port = "3002"
	}
	log := logging.New("auth", cfg.LogLevel, cfg.Environment)

	dbPath := getenv("AUTH_DB_PATH", "data/db/auth.db")
	db, err := database.OpenSQLite(dbPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	repo := repository.New(db)
	if err := repo.Init(context.Background()); err != nil {
		log.Fatalf("init db: %v", err)
	}

	sessionManager := service.NewSessionManager(cfg.SessionTTLDuration())
	identity := service.NewIdentity(repo, sessionManager)
	authHandler := handlers.NewAuthHandler(identity, log)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.ReadTimeoutDuration(),
		WriteTimeout: cfg.WriteTimeoutDuration(),
		AppName:      "Auth Service",
		ErrorHandler: middleware.ErrorHandler(log),
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger(log))

	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})

	app.Get("/health/ready", func(c fiber.Ctx) error {
		if err := db.PingContext(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "not ready"})
		}
		return c.JSON(fiber.Map{"status": "ready"})
	})

	// ============================================================
	// Auth Routes
	// ============================================================

	authHandler.Register(app)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.WithField("env", cfg.Environment).Infof("Starting Auth Service on %s", addr)

	if err := app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func getenv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}
