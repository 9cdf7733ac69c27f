package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mayagift/giftbloom-backend/api/routes"
	"github.com/mayagift/giftbloom-backend/internal/addresses"
	authsvc "github.com/mayagift/giftbloom-backend/internal/auth"
	"github.com/mayagift/giftbloom-backend/internal/cart"
	"github.com/mayagift/giftbloom-backend/internal/checkout"
	"github.com/mayagift/giftbloom-backend/internal/gifts"
	"github.com/mayagift/giftbloom-backend/internal/media"
	"github.com/mayagift/giftbloom-backend/internal/orders"
	"github.com/mayagift/giftbloom-backend/internal/payments"
	"github.com/mayagift/giftbloom-backend/internal/reviews"
	"github.com/mayagift/giftbloom-backend/internal/users"
	"github.com/mayagift/giftbloom-backend/pkg/auth/session"
	"github.com/mayagift/giftbloom-backend/pkg/config"
	"github.com/mayagift/giftbloom-backend/pkg/db"
	"github.com/mayagift/giftbloom-backend/pkg/logger"
	"github.com/mayagift/giftbloom-backend/pkg/metrics"
	"github.com/mayagift/giftbloom-backend/pkg/migrate"
	pkgredis "github.com/mayagift/giftbloom-backend/pkg/redis"
	"github.com/mayagift/giftbloom-backend/pkg/storage/gcs"
	pkgstripe "github.com/mayagift/giftbloom-backend/pkg/stripe"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := pkgredis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	stripeClient, err := pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap object storage", err)
		os.Exit(1)
	}

	promRegistry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(promRegistry)

	mediaService, err := media.NewService(gcsClient.BucketHandle(""), cfg.Media)
	if err != nil {
		logg.Error(context.Background(), "failed to create media service", err)
		os.Exit(1)
	}

	authService, err := authsvc.NewService(authsvc.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := authsvc.NewRegisterService(authsvc.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	giftRepo := gifts.NewRepository(dbClient.DB())
	giftService, err := gifts.NewService(gifts.ServiceParams{
		DB:         dbClient,
		Repository: giftRepo,
		ImageStore: gcsClient.BucketHandle(""),
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create gift service", err)
		os.Exit(1)
	}

	cartRepo := cart.NewRepository(dbClient.DB())
	cartService := cart.NewService(cart.ServiceParams{
		DB:         dbClient,
		Repository: cartRepo,
		Gifts:      giftRepo,
	})

	addressService := addresses.NewService(addresses.ServiceParams{
		DB:         dbClient,
		Repository: addresses.NewRepository(dbClient.DB()),
	})

	orderRepo := orders.NewRepository(dbClient.DB())
	orderService := orders.NewService(orderRepo)

	checkoutService := checkout.NewService(checkout.ServiceParams{
		DB:          dbClient,
		Carts:       cartRepo,
		Orders:      orderRepo,
		Addresses:   addressService,
		Gifts:       giftRepo,
		CardGateway: payments.NewStripeGateway(payments.NewStripePaymentClient(stripeClient)),
		CODGateway:  payments.NewCashOnDeliveryGateway(),
		Pricing:     cfg.Pricing,
		Metrics:     httpMetrics,
		Logger:      logg,
	})

	reviewService := reviews.NewService(reviews.ServiceParams{
		Repository: reviews.NewRepository(dbClient.DB()),
		Deliveries: orderRepo,
		Gifts:      giftRepo,
	})

	handler := routes.NewRouter(routes.Deps{
		Config:       cfg,
		Logger:       logg,
		DB:           dbClient,
		Redis:        redisClient,
		Session:      sessionManager,
		Metrics:      httpMetrics,
		PromRegistry: promRegistry,

		AuthService:     authService,
		RegisterService: registerService,
		GiftService:     giftService,
		CartService:     cartService,
		AddressService:  addressService,
		CheckoutService: checkoutService,
		OrderService:    orderService,
		ReviewService:   reviewService,
		MediaService:    mediaService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stop.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "api server stopped")
	}
}
