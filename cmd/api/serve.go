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
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handler"
	"storefront/internal/logging"
	"storefront/internal/mailer"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/notify"
	"storefront/internal/ratelimit"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/session"
	"storefront/internal/storage"
	"storefront/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server (default command)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.Init(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db)
	if err := database.Migrate(db); err != nil {
		return err
	}

	app, cleanup, err := buildApp(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer cleanup()

	go app.hub.Run(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "port", cfg.Port, "db_driver", cfg.Database.Driver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type app struct {
	router *gin.Engine
	hub    *websocket.Hub
}

// buildApp wires repositories, services and the router
// (Repository -> Service -> Handler). Optional infrastructure (Redis,
// RabbitMQ, webhook, MinIO) is only connected when configured.
func buildApp(ctx context.Context, cfg *config.Config, db *gorm.DB) (*app, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	m := metrics.New()
	hub := websocket.NewHub(cfg.CORSOrigins)

	notifiers := notify.Multi{notify.NewHubNotifier(hub)}
	if cfg.Notify.OrderWebhookURL != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(cfg.Notify.OrderWebhookURL, nil))
	}
	if cfg.Notify.AMQPURL != "" {
		amqp, err := notify.NewAMQPNotifier(cfg.Notify.AMQPURL, cfg.Notify.AMQPExchange)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { _ = amqp.Close() })
		notifiers = append(notifiers, amqp)
	}

	mail, err := mailer.New(cfg.Mail)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	var revoker session.Revoker = session.NewMemoryRevoker()
	var loginLimit, checkoutLimit, messageLimit gin.HandlerFunc
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password})
		closers = append(closers, func() { _ = rdb.Close() })
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unreachable, limiter fails open until it recovers", "addr", cfg.Redis.Addr, "error", err)
		}
		revoker = session.NewRedisRevoker(rdb, "storefront:revoked")

		limits := []struct {
			name   string
			perMin int
			dst    *gin.HandlerFunc
			key    ratelimit.KeyFunc
		}{
			{"login", cfg.RateLimit.LoginPerMinute, &loginLimit, ratelimit.ClientIP},
			{"checkout", cfg.RateLimit.CheckoutPerMinute, &checkoutLimit, middleware.UserKey},
			{"messages", cfg.RateLimit.MessagesPerMinute, &messageLimit, middleware.UserKey},
		}
		for _, l := range limits {
			if l.perMin <= 0 {
				continue
			}
			limiter, err := ratelimit.NewFixedWindowLimiter(rdb, l.name, l.perMin, time.Minute)
			if err != nil {
				cleanup()
				return nil, nil, err
			}
			*l.dst = ratelimit.Middleware(limiter, l.key)
		}
	}

	var store storage.ObjectStore
	if cfg.Storage.Endpoint != "" {
		minioStore, err := storage.NewMinioStore(ctx, cfg.Storage)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		store = minioStore
	}

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	txManager := repository.NewTransactionManager(db)

	policy := service.NewAccessPolicy(cfg.SuperAdminEmails)
	authService := service.NewAuthService(userRepo, service.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL), revoker, policy)

	services := handler.Services{
		Auth:     authService,
		Catalog:  service.NewCatalogService(categoryRepo, productRepo, cartRepo, auditRepo, txManager),
		Cart:     service.NewCartService(cartRepo, productRepo, txManager),
		Orders:   service.NewOrderService(orderRepo, cartRepo, productRepo, auditRepo, txManager, notifiers, m),
		Messages: service.NewMessageService(conversationRepo, txManager, notifiers, m),
		Users:    service.NewUserService(userRepo, auditRepo, txManager, policy),
		Emails: service.NewEmailService(
			repository.NewEmailTemplateRepository(db),
			repository.NewEmailLogRepository(db),
			repository.NewNewsletterRepository(db),
			userRepo, auditRepo, mail, m,
		),
		Testimonials: service.NewTestimonialService(repository.NewTestimonialRepository(db)),
		Inventory:    service.NewInventoryService(productRepo, auditRepo, txManager),
		Statistics:   service.NewStatisticsService(repository.NewStatisticsRepository(db), productRepo),
		Audit:        service.NewAuditService(auditRepo),
	}

	router := handler.NewRouter(handler.RouterConfig{
		Services:      services,
		Guard:         middleware.NewAuthenticator(authService, cfg.IsRelease()),
		Metrics:       m,
		Hub:           hub,
		Store:         store,
		CORSOrigins:   cfg.CORSOrigins,
		LoginLimit:    loginLimit,
		CheckoutLimit: checkoutLimit,
		MessageLimit:  messageLimit,
	})
	return &app{router: router, hub: hub}, cleanup, nil
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.NewConnection(cfg.Database.Driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	slog.Info("connected to database", "driver", cfg.Database.Driver)
	return db, nil
}

func closeDatabase(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
