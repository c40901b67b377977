package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"

	"github.com/Tixario2/tixario-2/internal/cache"
	"github.com/Tixario2/tixario-2/internal/config"
	"github.com/Tixario2/tixario-2/internal/database"
	"github.com/Tixario2/tixario-2/internal/handlers"
	"github.com/Tixario2/tixario-2/internal/middleware"
	"github.com/Tixario2/tixario-2/internal/repositories"
	"github.com/Tixario2/tixario-2/internal/seatmap"
	"github.com/Tixario2/tixario-2/internal/services"
	"github.com/Tixario2/tixario-2/internal/snapshot"
	"github.com/Tixario2/tixario-2/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(cfg.Server.Env)

	db, err := database.NewConnection(database.Config{
		URL:      cfg.Database.URL,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		log.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	log.Info("database ready")

	// Redis is an optimization; the server runs without it.
	var snapshotCache snapshot.Cache
	if cfg.Redis.Addr != "" {
		redisClient, err := cache.New(cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Warn("redis unavailable, snapshots served uncached", "error", err)
		} else {
			defer redisClient.Close()
			snapshotCache = redisClient
			log.Info("redis connected", "addr", cfg.Redis.Addr)
		}
	}

	sessionStore := sessions.NewCookieStore([]byte(cfg.Session.Secret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   cfg.Server.Env == "production",
		SameSite: http.SameSiteLaxMode,
	}

	offerRepo := repositories.NewOfferRepository(db.DB)
	orderRepo := repositories.NewOrderRepository(db.DB)
	newsletterRepo := repositories.NewNewsletterRepository(db.DB)

	snapshotService := snapshot.NewService(offerRepo, snapshotCache,
		time.Duration(cfg.Map.SnapshotTTLSecs)*time.Second, log)

	paymentService := services.NewStripeService(services.StripeConfig{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
	})

	emailService := services.NewResendService(services.ResendConfig{
		APIKey:    cfg.Resend.APIKey,
		FromEmail: cfg.Resend.FromEmail,
		FromName:  cfg.Resend.FromName,
	})

	var storageService services.StorageService
	var assetFetcher seatmap.AssetFetcher
	if cfg.R2.AccessKeyID != "" && cfg.R2.SecretAccessKey != "" {
		r2Service, err := services.NewR2Service(cfg.R2)
		if err != nil {
			log.Error("failed to initialize R2 storage", "error", err)
			os.Exit(1)
		}
		storageService = r2Service
		assetFetcher = r2Service
		log.Info("R2 storage initialized", "bucket", cfg.R2.BucketName)
	} else {
		log.Warn("R2 credentials not configured, maps render without overlays")
	}

	checkoutService := services.NewCheckoutService(offerRepo, paymentService,
		cfg.Stripe.SuccessURL, cfg.Stripe.CancelURL, log)
	fulfillmentService := services.NewFulfillmentService(
		paymentService, offerRepo, orderRepo, newsletterRepo,
		emailService, snapshotService, log)

	var assetResolver handlers.AssetResolver
	if storageService != nil {
		assetResolver = storageService
	}

	eventHandler := handlers.NewEventHandler(offerRepo, snapshotService,
		assetResolver, assetFetcher, cfg.Map.CropOffsetY, log)
	cartHandler := handlers.NewCartHandler(offerRepo, sessionStore, log)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService, sessionStore, log)
	webhookHandler := handlers.NewWebhookHandler(paymentService, fulfillmentService, log)
	healthHandler := handlers.NewHealthHandler(db)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Logging(log))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))

	r.Get("/health", healthHandler.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/events", eventHandler.ListEvents)
		r.Get("/events/{slug}/{date}", eventHandler.GetEventDate)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Delete("/items/{offerID}", cartHandler.RemoveItem)
		})

		r.Post("/checkout", checkoutHandler.StartCheckout)
		r.Post("/stripe/webhook", webhookHandler.HandleStripeWebhook)
	})

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server listening", "addr", addr, "env", cfg.Server.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", "error", err)
	}
}
