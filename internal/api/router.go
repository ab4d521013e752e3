package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	echoSwagger "github.com/swaggo/echo-swagger"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	_ "github.com/trendkart/commerce-api/docs"
	"github.com/trendkart/commerce-api/internal/api/handler"
	"github.com/trendkart/commerce-api/internal/api/middleware"
	"github.com/trendkart/commerce-api/internal/core/domain"
	"github.com/trendkart/commerce-api/internal/core/ports"
	"github.com/trendkart/commerce-api/internal/core/service"
	mongostore "github.com/trendkart/commerce-api/internal/infrastructure/db/mongo"
	redisstore "github.com/trendkart/commerce-api/internal/infrastructure/db/redis"
	"github.com/trendkart/commerce-api/internal/infrastructure/queue"
	"github.com/trendkart/commerce-api/internal/pkg/config"
	"github.com/trendkart/commerce-api/pkg/logger"
)

// NewRouter builds the Echo instance with all routes registered. The audit
// dispatcher is returned so main can start its workers.
func NewRouter(cfg *config.Config, client *mongodriver.Client, db *mongodriver.Database, rdb *redis.Client, gateway ports.PaymentGateway) (*echo.Echo, *queue.Dispatcher) {
	log := logger.Get()

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("commerce"))

	// --- Repositories ---
	txRunner := mongostore.NewTxRunner(client)
	orderRepo := mongostore.NewOrderRepository(db)
	productRepo := mongostore.NewProductRepository(db)
	addressRepo := mongostore.NewAddressRepository(db)
	authRepo := mongostore.NewAuthRepository(db)
	eventRepo := mongostore.NewOrderEventRepository(db)

	cartStore := redisstore.NewCartStore(rdb)
	wishlistStore := redisstore.NewWishlistStore(rdb)
	dedup := redisstore.NewDedupChecker(rdb)

	// --- Services ---
	auditService := service.NewAuditService(eventRepo, log)
	dispatcher := queue.NewDispatcher(0, auditService, log)

	orderService := service.NewOrderService(service.OrderServiceConfig{
		Tx:              txRunner,
		Orders:          orderRepo,
		Products:        productRepo,
		Addresses:       addressRepo,
		Cart:            cartStore,
		Gateway:         gateway,
		Dedup:           dedup,
		Events:          dispatcher,
		SuccessURL:      cfg.FrontendURL + "/payment-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:       cfg.FrontendURL + "/payment-failed",
		CheckoutTimeout: cfg.Stripe.CheckoutTimeout,
		Logger:          log,
	})
	productService := service.NewProductService(productRepo)
	cartService := service.NewCartService(cartStore, wishlistStore, productRepo, log)
	addressService := service.NewAddressService(addressRepo, log)
	authService := service.NewAuthService(authRepo, cfg.JWTSecret, 24*time.Hour)

	// --- Handlers ---
	orderHandler := handler.NewOrderHandler(orderService, gateway, auditService)
	productHandler := handler.NewProductHandler(productService)
	cartHandler := handler.NewCartHandler(cartService)
	addressHandler := handler.NewAddressHandler(addressService)
	authHandler := handler.NewAuthHandler(authService)
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	auth := middleware.Auth(cfg.JWTSecret)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	// --- Public routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	e.GET("/products", productHandler.List)
	e.GET("/products/:id", productHandler.Get)

	// The provider authenticates with its signature, not a bearer token.
	e.POST("/orders/webhook", orderHandler.Webhook)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Authenticated routes ---
	orders := e.Group("/orders", auth)
	orders.POST("/create", orderHandler.Create)
	orders.GET("/verify-payment", orderHandler.VerifyPayment)
	orders.GET("/my", orderHandler.List)
	orders.PATCH("/:id/status", orderHandler.UpdateStatus, adminOnly)
	orders.GET("/:id/events", orderHandler.ListEvents, adminOnly)

	cart := e.Group("/cart", auth)
	cart.GET("", cartHandler.GetCart)
	cart.POST("", cartHandler.AddToCart)
	cart.DELETE("", cartHandler.Clear)
	cart.PATCH("/:product_id", cartHandler.UpdateItem)
	cart.DELETE("/:product_id", cartHandler.RemoveItem)

	wishlist := e.Group("/wishlist", auth)
	wishlist.GET("", cartHandler.GetWishlist)
	wishlist.POST("", cartHandler.AddToWishlist)
	wishlist.DELETE("/:product_id", cartHandler.RemoveFromWishlist)

	addresses := e.Group("/addresses", auth)
	addresses.GET("", addressHandler.List)
	addresses.POST("", addressHandler.Create)
	addresses.PATCH("/:id", addressHandler.Update)
	addresses.DELETE("/:id", addressHandler.Delete)

	return e, dispatcher
}
