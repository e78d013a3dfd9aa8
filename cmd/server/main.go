package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/AntonKrinichnyi/CineFlow/internal/config"
	"github.com/AntonKrinichnyi/CineFlow/internal/database"
	"github.com/AntonKrinichnyi/CineFlow/internal/handler"
	"github.com/AntonKrinichnyi/CineFlow/internal/notification"
	"github.com/AntonKrinichnyi/CineFlow/internal/payment"
	"github.com/AntonKrinichnyi/CineFlow/internal/queue"
	"github.com/AntonKrinichnyi/CineFlow/internal/repository"
	"github.com/AntonKrinichnyi/CineFlow/internal/router"
	"github.com/AntonKrinichnyi/CineFlow/internal/scheduler"
)

func main() {
	cfg := config.Load()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.Env == "prod" {
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetLevel(logrus.DebugLevel)
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional; without it the catalog cache and rate limiter
	// are simply disabled.
	rdb := config.NewRedisClient()

	// Repositories
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	movies := repository.NewMovieRepo(db)
	catalog := repository.NewCatalogRepo(db)
	engage := repository.NewEngagementRepo(db)
	cart := repository.NewCartRepo(db)
	orders := repository.NewOrderRepo(db)
	payments := repository.NewPaymentRepo(db)

	gateway := payment.NewStripeClient(cfg.StripeSecretKey, cfg.StripeWebhookKey)

	// Handlers
	authH := handler.NewAuthHandler(cfg, users, tokens)
	publicH := handler.NewPublicMovieHandler(movies, catalog, engage)
	modH := handler.NewModeratorCatalogHandler(movies, catalog)
	engH := handler.NewEngagementHandler(engage, movies)
	cartH := handler.NewCartHandler(cart, movies, users)
	orderH := handler.NewOrderHandler(orders, cart, users)
	payH := handler.NewPaymentHandler(payments, orders, users, gateway, cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Background email consumer: renders queued events and sends them
	// over SMTP (or logs them when SMTP is not configured).
	mailer := notification.NewMailer(config.LoadSMTP())
	go func() {
		if err := queue.StartEmailConsumer(mailer.Send); err != nil {
			logrus.WithError(err).Error("email consumer exited")
		}
	}()

	// Hourly-style sweep of expired activation/reset tokens.
	interval, err := time.ParseDuration(cfg.SweepInterval)
	if err != nil {
		interval = time.Hour
	}
	go scheduler.NewTokenSweeper(tokens, interval).Run(ctx)

	e := echo.New()
	e.HideBanner = true

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublicCatalog(e, publicH, engH, rdb)
	router.RegisterStore(e, engH, cartH, orderH, payH, cfg.JWTSecret)
	router.RegisterWebhooks(e, payH)
	router.RegisterModerator(e, modH, cartH, cfg.JWTSecret)
	router.RegisterAdmin(e, orderH, payH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	logrus.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
