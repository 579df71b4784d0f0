// main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-storefront/config"
	"go-storefront/controllers"
	"go-storefront/events"
	"go-storefront/middleware"
	"go-storefront/routes"
	"go-storefront/services"
	"go-storefront/store"
	"go-storefront/utils"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.App.Env)
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to MongoDB
	client, err := utils.ConnectDB(ctx, cfg.Mongo.URI)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error("mongo disconnect", zap.Error(err))
		}
	}()
	db := client.Database(cfg.Mongo.Database)
	if err := store.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	// Guest carts live in Redis when configured, in memory otherwise
	var guests store.GuestCartStore
	if cfg.Redis.Addr != "" {
		rdb, err := utils.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		guests = store.NewRedisGuestCartStore(rdb, cfg.Redis.GuestCartTTL)
	} else {
		logger.Warn("REDIS_ADDR not set, guest carts are kept in memory")
		guests = store.NewMemoryGuestCartStore(cfg.Redis.GuestCartTTL)
	}

	var publisher events.Publisher = events.Noop{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("close event publisher", zap.Error(err))
		}
	}()

	emailService := utils.NewEmailService(newMailer(cfg, logger), cfg.App.Name)
	sessions := utils.NewSessionIssuer(cfg.JWT.Secret, cfg.JWT.TTL)

	users := store.NewMongoUserStore(db)
	products := store.NewMongoProductStore(db)
	carts := store.NewMongoCartStore(db)

	cartService := services.NewCartService(carts, guests, products, publisher, logger)
	if cfg.Google.ClientID == "" {
		logger.Warn("GOOGLE_CLIENT_ID not set, Google sign-in is disabled")
	}
	authService := services.NewAuthService(users, sessions, utils.NewGoogleVerifier(cfg.Google.ClientID), publisher, logger, cfg.Security.BcryptCost)
	resetService := services.NewPasswordResetService(users, sessions, emailService, publisher, logger, cfg.Security.BcryptCost, cfg.Security.OTPTTL)
	productService := services.NewProductService(products)
	reviewService := services.NewReviewService(products, publisher, logger)
	adminService := services.NewAdminService(users, cartService, sessions, logger)

	cookies := controllers.CookieSettings{
		Secure:     cfg.App.CookieSecure || !cfg.IsDevelopment(),
		SessionTTL: sessions.TTL(),
		GuestTTL:   cfg.Redis.GuestCartTTL,
	}

	// Set up the router
	router := mux.NewRouter()
	router.Use(middleware.RequestLogger(logger))
	routes.RegisterRoutes(router, routes.Controllers{
		Health:   controllers.NewHealthController(client, logger),
		User:     controllers.NewUserController(authService, cartService, cookies, logger),
		Password: controllers.NewPasswordController(resetService, cookies, logger),
		Product:  controllers.NewProductController(productService, reviewService, logger),
		Cart:     controllers.NewCartController(cartService, cookies, logger),
		Admin:    controllers.NewAdminController(adminService, cookies, logger),
	}, sessions)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server is running", zap.Int("port", cfg.App.Port), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newMailer(cfg *config.Config, logger *zap.Logger) utils.Mailer {
	switch cfg.Email.Provider {
	case "postmark":
		return utils.NewPostmarkMailer(cfg.Email.PostmarkToken, cfg.Email.Sender)
	case "sendgrid":
		return utils.NewSendgridMailer(cfg.Email.SendgridAPIKey, cfg.Email.Sender, cfg.Email.SenderName)
	default:
		return utils.NewLogMailer(logger)
	}
}
