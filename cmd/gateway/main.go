package main

import (
	"fmt"

	"scene-editor/internal/common/config"
	"scene-editor/internal/common/logging"
	"scene-editor/internal/common/middleware"
	"scene-editor/internal/gateway/handlers"
	"scene-editor/internal/gateway/proxy"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/sirupsen/logrus"
)

// ============================================================
// API Gateway
// ============================================================

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	log := logging.New("gateway", cfg.LogLevel, cfg.Environment)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.ReadTimeoutDuration(),
		WriteTimeout: cfg.WriteTimeoutDuration(),
		AppName:      "API Gateway",
		ErrorHandler: middleware.ErrorHandler(log),
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.CORS(cfg.AllowedOrigins))
	app.Use(middleware.Logger(log))

	// ============================================================
	// Health Check Routes
	// ============================================================

	readiness := handlers.NewReadiness(map[string]string{
		"auth":   cfg.AuthURL,
		"editor": cfg.EditorURL,
	})
	app.Get("/health/live", handlers.Live)
	app.Get("/health/ready", readiness.Check)
	app.Get("/health/startup", handlers.Started)

	app.Get("/docs", handlers.SwaggerUI)
	app.Get(handlers.DocsSpecPath, handlers.SwaggerSpec)

	// ============================================================
	// API Routes
	// ============================================================

	api := app.Group("/api/v1")

	api.Get("/", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Scene Editor API v1",
			"status":  "ok",
		})
	})

	// ============================================================
	// Service Routes (Proxy)
	// ============================================================

	// Auth Service
	auth := proxy.NewUpstream("auth", cfg.AuthURL, "/api/v1/auth", log)
	api.Post("/auth/signup", auth.Handler())
	api.Post("/auth/signin", auth.Handler())
	api.Post("/auth/signout", auth.Handler())
	api.Get("/auth/session", auth.Handler())

	// Editor Service
	editor := proxy.NewUpstream("editor", cfg.EditorURL, "/api/v1", log)
	events := proxy.NewUpstream("editor-events", cfg.EditorURL, "/api/v1", log, proxy.WithStreaming())
	api.Get("/workspace/events", events.Handler())
	api.All("/workspace/*", editor.Handler())

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.WithFields(logrus.Fields{
		"env":        cfg.Environment,
		"auth_url":   cfg.AuthURL,
		"editor_url": cfg.EditorURL,
	}).Infof("Starting API Gateway on %s", addr)

	if err := app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
