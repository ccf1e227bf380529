package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"scene-editor/internal/common/config"
	"scene-editor/internal/common/database"
	"scene-editor/internal/common/logging"
	"scene-editor/internal/common/middleware"
	"scene-editor/internal/identity"
	"scene-editor/internal/scene/bridge"
	"scene-editor/internal/scene/store"
	"scene-editor/internal/workspace"
	"scene-editor/internal/workspace/handlers"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/sirupsen/logrus"
)

// ============================================================
// Editor Service
// ============================================================

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	if os.Getenv("PORT") == "" {
		cfg.Port = "3001"
	}
	log := logging.New("editor", cfg.LogLevel, cfg.Environment)

	db, err := database.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	scenes := store.New(db)
	if err := scenes.Init(context.Background()); err != nil {
		log.Fatalf("init db: %v", err)
	}

	auth := identity.New(cfg.AuthURL, identity.WithTimeout(cfg.ReadTimeoutDuration()))
	registry := workspace.NewRegistry(scenes,
		func(token string) bridge.SessionSource { return auth.WithToken(token) },
		workspace.WithHistoryLimit(cfg.HistoryLimit),
		workspace.WithIdleTimeout(cfg.IdleTimeoutDuration()),
		workspace.WithLogger(log),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go registry.Run(ctx, time.Minute)

	editorHandler := handlers.NewEditorHandler(registry, log)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.ReadTimeoutDuration(),
		WriteTimeout: cfg.WriteTimeoutDuration(),
		AppName:      "Editor Service",
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
		return c.JSON(fiber.Map{"status": "ready", "workspaces": registry.Len()})
	})

	// ============================================================
	// Workspace Routes
	// ============================================================

	editorHandler.Register(app.Group("/workspace", middleware.RequireSession(auth)))

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.WithFields(logrus.Fields{
		"env":      cfg.Environment,
		"auth_url": cfg.AuthURL,
	}).Infof("Starting Editor Service on %s", addr)

	if err := app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
