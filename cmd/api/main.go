package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"course-marketplace/internal/auth"
	"course-marketplace/internal/client"
	"course-marketplace/internal/config"
	"course-marketplace/internal/logger"
	"course-marketplace/internal/metrics"
	"course-marketplace/internal/repository"
	"course-marketplace/internal/server"
	"course-marketplace/internal/service"
	"course-marketplace/internal/storage"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment.Name, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	db, err := client.InitDBClient(cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	defer sqlDB.Close()

	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		rdb, err = client.InitRedisClient(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("init redis: %w", err)
		}
		defer rdb.Close()
	} else {
		log.Warn("REDIS_URL not set, login rate limiting disabled")
	}

	processor, err := newProcessor(cfg)
	if err != nil {
		return err
	}

	images, err := storage.NewLocalImageStore(cfg.Storage)
	if err != nil {
		return fmt.Errorf("init image storage: %w", err)
	}

	learnerTokens, err := auth.NewTokenManager(auth.KindLearner, cfg.Auth.LearnerSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("learner tokens: %w", err)
	}
	adminTokens, err := auth.NewTokenManager(auth.KindAdmin, cfg.Auth.AdminSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("admin tokens: %w", err)
	}

	metrics.Register(prometheus.DefaultRegisterer)

	limiter := client.NewLoginLimiter(rdb, cfg.Auth.LoginLimit, cfg.Auth.LoginWindow)

	learnerRepo := repository.NewLearnerRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)

	paymentService := service.NewPaymentService(processor, cfg.Payment, log)

	srv := server.NewServer(cfg, log, server.Deps{
		UserService:     service.NewUserService(learnerRepo, learnerTokens, limiter, log),
		AdminService:    service.NewAdminService(adminRepo, adminTokens, limiter, log),
		CourseService:   service.NewCourseService(courseRepo, images, log),
		PurchaseService: service.NewPurchaseService(courseRepo, purchaseRepo, paymentService, log),
		LearnerTokens:   learnerTokens,
		AdminTokens:     adminTokens,
		HealthCheck:     sqlDB.PingContext,
	})

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	errCh := make(chan error, 1)
	log.Info("starting HTTP server",
		slog.String("address", serverAddr),
		slog.String("payment_provider", cfg.Payment.Provider))
	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigChan:
		log.Info("signal received, starting graceful shutdown", slog.String("signal", sig.String()))
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func newProcessor(cfg *config.Config) (client.PaymentProcessor, error) {
	switch cfg.Payment.Provider {
	case config.ProviderStripe:
		return client.NewStripeClient(&cfg.Stripe), nil
	case config.ProviderPaypal:
		return client.NewPaypalClient(&cfg.Paypal, cfg.Payment.MinorUnitMultiplier), nil
	case config.ProviderBraintree:
		return client.NewBraintreeClient(&cfg.BrainTree, cfg.Payment.MinorUnitMultiplier), nil
	default:
		return nil, fmt.Errorf("unknown payment provider %q", cfg.Payment.Provider)
	}
}
