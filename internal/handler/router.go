package handler

import (
	"context"
	"errors"
	"net/http"

	"storefront/internal/logging"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/service"
	"storefront/internal/storage"
	"storefront/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Services bundles the application services the HTTP layer exposes.
type Services struct {
	Auth         service.AuthService
	Catalog      service.CatalogService
	Cart         service.CartService
	Orders       service.OrderService
	Messages     service.MessageService
	Users        service.UserService
	Emails       service.EmailService
	Testimonials service.TestimonialService
	Inventory    service.InventoryService
	Statistics   service.StatisticsService
	Audit        service.AuditService
}

// RouterConfig holds everything NewRouter wires together. Limiters, Hub
// and Store are optional.
type RouterConfig struct {
	Services      Services
	Guard         *middleware.Authenticator
	Metrics       *metrics.Metrics
	Hub           *websocket.Hub
	Store         storage.ObjectStore
	CORSOrigins   []string
	LoginLimit    gin.HandlerFunc
	CheckoutLimit gin.HandlerFunc
	MessageLimit  gin.HandlerFunc
}

// NewRouter builds the gin engine with every route of the storefront API.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), logging.RequestID(), logging.RequestLog(), cfg.Metrics.Middleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Request-ID"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", "Retry-After", "X-Request-ID"}
	if len(corsConfig.AllowOrigins) > 0 {
		router.Use(cors.New(corsConfig))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	if cfg.Metrics != nil {
		router.GET("/metrics", cfg.Metrics.Handler())
	}
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if cfg.Hub != nil {
		authorize := staffSocketAuthorizer(cfg.Services.Auth)
		router.GET("/ws", func(c *gin.Context) {
			cfg.Hub.ServeWs(c, authorize)
		})
	}

	api := router.Group("/api")
	s := cfg.Services
	NewAuthHandler(s.Auth, cfg.Guard, cfg.LoginLimit).RegisterRoutes(api)
	NewCatalogHandler(s.Catalog, cfg.Guard).RegisterRoutes(api)
	NewInventoryHandler(s.Inventory, cfg.Guard).RegisterRoutes(api)
	NewCartHandler(s.Cart, cfg.Guard).RegisterRoutes(api)
	NewOrderHandler(s.Orders, cfg.Guard, cfg.CheckoutLimit).RegisterRoutes(api)
	NewMessageHandler(s.Messages, cfg.Guard, cfg.MessageLimit).RegisterRoutes(api)
	NewUserHandler(s.Users, cfg.Guard).RegisterRoutes(api)
	NewEmailHandler(s.Emails, cfg.Guard).RegisterRoutes(api)
	NewTestimonialHandler(s.Testimonials, cfg.Guard).RegisterRoutes(api)
	NewStatisticsHandler(s.Statistics, cfg.Guard).RegisterRoutes(api)
	NewAuditHandler(s.Audit, cfg.Guard).RegisterRoutes(api)
	NewUploadHandler(cfg.Store, cfg.Guard).RegisterRoutes(api)

	return router
}

// staffSocketAuthorizer admits only moderators and admins to the live feed.
func staffSocketAuthorizer(auth service.AuthService) websocket.Authorize {
	return func(ctx context.Context, token string) (int, error) {
		identity, _, err := auth.Authenticate(ctx, token)
		if err != nil {
			if errors.Is(err, service.ErrForbidden) {
				return http.StatusForbidden, err
			}
			return http.StatusUnauthorized, err
		}
		if !identity.IsStaff() {
			return http.StatusForbidden, service.ErrForbidden
		}
		return http.StatusOK, nil
	}
}

// orNext lets optional middleware be nil.
func orNext(h gin.HandlerFunc) gin.HandlerFunc {
	if h == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return h
}
