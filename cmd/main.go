package main

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/rakeshmondal461/marketplace-proto/internal/handler"
	"github.com/rakeshmondal461/marketplace-proto/internal/middleware"
	"github.com/rakeshmondal461/marketplace-proto/internal/model"
	"github.com/rakeshmondal461/marketplace-proto/internal/oauth"
	"github.com/rakeshmondal461/marketplace-proto/pkg/config"
	"github.com/rakeshmondal461/marketplace-proto/pkg/database"
	"github.com/rakeshmondal461/marketplace-proto/pkg/event"
	"github.com/rakeshmondal461/marketplace-proto/pkg/jwtutil"
	"github.com/rakeshmondal461/marketplace-proto/pkg/logger"
	"github.com/rakeshmondal461/marketplace-proto/prometheus"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting marketplace service...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	if err := database.Initialize(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utility initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	// Initialize event stream (no-op when no brokers are configured)
	event.Initialize(cfg.Kafka.Brokers)
	defer event.Close()
	if len(cfg.Kafka.Brokers) > 0 {
		log.Info("Event stream initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
	}

	// Initialize OAuth providers
	oauth.Configure(&cfg.OAuth)
	handler.FrontendURL = cfg.OAuth.FrontendURL

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Authentication routes
	auth := e.Group("/auth")
	auth.POST("/signup", handler.Signup)
	auth.POST("/login", handler.Login)
	auth.POST("/admin/login", handler.AdminLogin)
	auth.GET("/me", handler.Me, middleware.Authenticate)
	auth.GET("/oauth/:provider/start", handler.OAuthStart)
	auth.GET("/oauth/:provider/callback", handler.OAuthCallback)

	// Categories - listing requires a valid token, creation is admin only
	categories := e.Group("/categories", middleware.Authenticate)
	categories.GET("", handler.ListCategories)
	categories.POST("", handler.CreateCategory, middleware.RequireRoles(model.RoleAdmin))

	// Products - public listing, seller creation, admin deletion
	e.GET("/products", handler.ListProducts)
	e.POST("/products", handler.CreateProduct, middleware.Authenticate, middleware.RequireRoles(model.RoleSeller))
	e.DELETE("/products/:id", handler.DeleteProduct, middleware.Authenticate, middleware.RequireRoles(model.RoleAdmin))

	// Orders - any authenticated user
	orders := e.Group("/orders", middleware.Authenticate)
	orders.POST("/buyer/order", handler.CreateBuyerOrder)
	orders.GET("/buyer/orders", handler.ListBuyerOrders)
	orders.POST("/seller/order", handler.CreateSellerOrder)
	orders.GET("/seller/orders", handler.ListSellerOrders)
	orders.GET("/seller/orders/all", handler.ListAllOrders)

	// Start server
	log.Info("Starting server", zap.String("port", cfg.Server.Port))
	if err := e.Start(":" + cfg.Server.Port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
