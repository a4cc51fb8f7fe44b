package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"estatelink_backend/internal/controller"
	"estatelink_backend/internal/middleware"
	"estatelink_backend/pkg/config"
	"estatelink_backend/pkg/cron"
	"estatelink_backend/pkg/database"
	"estatelink_backend/pkg/email"
	"estatelink_backend/pkg/logger"
	"estatelink_backend/pkg/payment"
	"estatelink_backend/pkg/response"
	"estatelink_backend/pkg/seed"
	"estatelink_backend/pkg/subscription"
	"estatelink_backend/pkg/utils/cloudflare"
	"estatelink_backend/pkg/utils/jwt"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Env)
	jwt.Configure(cfg.JWT.Secret, cfg.JWT.TTL)

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		logger.Fatal("could not connect to database", err)
	}
	if err := database.MigrateDatabase(db, database.Models...); err != nil {
		logger.Fatal("migration failed", err)
	}
	if err := seed.SeedSubscriptionPlans(db, seed.DefaultPlans); err != nil {
		logger.Fatal("could not seed subscription plans", err)
	}

	if err := email.InitEmailService(cfg.Mail); err != nil {
		logger.Error("email service disabled", err)
	}

	storage, err := cloudflare.NewR2(context.Background(), cfg.Storage, "")
	if err != nil {
		logger.Fatal("could not initialize object storage", err)
	}

	engine := subscription.NewEngine(subscription.NewGormStore(db))
	gateway := payment.NewStripeGateway(
		cfg.Payment.StripeSecretKey,
		cfg.Payment.StripeWebhookSecret,
		cfg.Payment.SignatureSecret,
		nil,
	)

	scheduler, err := setupScheduler(cfg.Cron, engine)
	if err != nil {
		logger.Fatal("could not schedule jobs", err)
	}

	controller.Init(controller.Deps{
		Engine:       engine,
		Payments:     gateway,
		Storage:      storage,
		Scheduler:    scheduler,
		Currency:     cfg.Payment.Currency,
		SecureCookie: cfg.IsProduction(),
	})

	app := fiber.New(fiber.Config{
		ErrorHandler: response.ErrorHandler,
		BodyLimit:    12 << 20,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestContext())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New())

	controller.SetupRoutes(app)

	scheduler.Start()

	go func() {
		logger.Info("server is running", "port", cfg.Server.Port, "env", cfg.Server.Env)
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			logger.Fatal("server stopped", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	scheduler.Stop()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("server shutdown failed", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

func setupScheduler(cfg config.CronConfig, engine *subscription.Engine) (*cron.Scheduler, error) {
	s := cron.NewScheduler()
	if err := s.Register(cron.JobSubscriptionExpiry, cfg.ExpirySchedule, cron.ExpireSubscriptions(engine)); err != nil {
		return nil, err
	}

	// the mail jobs only make sense with a working mailer
	if email.GlobalEmailService == nil {
		return s, nil
	}
	warn := cron.WarnExpiringSubscriptions(engine.Store(), email.GlobalEmailService, cfg.WarningDays, time.Now)
	if err := s.Register(cron.JobSubscriptionWarning, cfg.WarningSchedule, warn); err != nil {
		return nil, err
	}
	digest := cron.SendListingDigest(database.GetDB(), email.GlobalEmailService, time.Now)
	if err := s.Register(cron.JobListingDigest, cfg.DigestSchedule, digest); err != nil {
		return nil, err
	}
	return s, nil
}
