package main

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/greencampus/ecopoints/cmd/config"
	"github.com/greencampus/ecopoints/internal/engine"
	"github.com/greencampus/ecopoints/internal/handlers"
	"github.com/greencampus/ecopoints/internal/logger"
	"github.com/greencampus/ecopoints/internal/middleware"
	"github.com/greencampus/ecopoints/internal/storage"
	"github.com/greencampus/ecopoints/internal/workers"
)

func main() {
	config.ParseFlags()

	if err := logger.Initialize(config.LogLevel); err != nil {
		panic(err)
	}

	store, err := storage.Init()
	if err != nil {
		logger.Log.Fatal("Failed to init storage", zap.Error(err))
	}

	if config.AdminLogin != "" && config.AdminPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(config.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			logger.Log.Fatal("Failed to hash admin password", zap.Error(err))
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := store.EnsureAdmin(ctx, config.AdminLogin, string(hash)); err != nil {
			logger.Log.Fatal("Failed to ensure admin account", zap.Error(err))
		}
		cancel()
	}

	auditor, err := workers.StartAuditor(store, config.AuditSchedule)
	if err != nil {
		logger.Log.Fatal("Failed to start auditor", zap.Error(err))
	}
	defer auditor.Stop()

	eng := engine.New(store)
	h := handlers.New(eng, store)

	if err := run(h); err != nil {
		logger.Log.Fatal("Failed to run server", zap.Error(err))
	}
}

func run(h *handlers.Handler) error {
	app := fiber.New()
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
	}))

	app.Post("/api/admin/login", h.Login)
	app.Get("/api/leaderboard", h.Leaderboard)

	authRoutes := app.Group("/api", middleware.AuthRequired)
	authRoutes.Post("/submissions", h.CreateSubmission)

	adminRoutes := authRoutes.Group("/admin", middleware.AdminOnly)
	adminRoutes.Post("/decide", h.Decide)
	adminRoutes.Get("/pending/:kind", h.ListPending)
	adminRoutes.Get("/users/:id/balance", h.GetBalance)
	adminRoutes.Post("/users", h.CreateUser)
	adminRoutes.Post("/challenges", h.CreateChallenge)
	adminRoutes.Post("/events", h.CreateEvent)
	adminRoutes.Post("/coupons", h.CreateCoupon)

	logger.Log.Info("Running server", zap.String("address", config.RunAddress))
	return app.Listen(config.RunAddress)
}
