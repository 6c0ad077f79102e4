package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/candlecraft/storefront/internal/api/handlers"
	"github.com/candlecraft/storefront/internal/api/middleware"
	"github.com/candlecraft/storefront/internal/auth"
	"github.com/candlecraft/storefront/internal/cart"
	"github.com/candlecraft/storefront/internal/config"
	"github.com/candlecraft/storefront/internal/repository"
	"github.com/candlecraft/storefront/internal/signup"
)

// Services bundles everything the routes call into
type Services struct {
	Auth     *auth.Service
	Signups  *signup.Registry
	Carts    *cart.Manager
	Orders   handlers.OrderService
	Products handlers.ProductService
	Stats    handlers.StatsService
	Streams  handlers.Streamer

	// Uploads is nil when no bucket is configured
	Uploads handlers.UploadPresigner
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, repos *repository.Repositories, svc Services, logger *zap.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.AuthMiddleware(svc.Auth, logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1")
	{
		v1.POST("/auth/login", handlers.HandleLogin(svc.Auth, logger))
		v1.POST("/auth/logout", middleware.RequireUser(), handlers.HandleLogout(svc.Auth, logger))

		signupRoutes := v1.Group("/signup")
		{
			signupRoutes.POST("", handlers.HandleStartSignup(svc.Signups))
			signupRoutes.GET("/:id", handlers.HandleGetSignup(svc.Signups, logger))
			signupRoutes.POST("/:id/phone", handlers.HandleSubmitPhone(svc.Signups, logger))
			signupRoutes.POST("/:id/verify", handlers.HandleVerifyCode(svc.Signups, logger))
			signupRoutes.POST("/:id/resend", handlers.HandleResendCode(svc.Signups, logger))
			signupRoutes.POST("/:id/change-number", handlers.HandleChangeNumber(svc.Signups, logger))
			signupRoutes.POST("/:id/details", handlers.HandleSubmitDetails(svc.Signups, svc.Auth, logger))
		}

		productRoutes := v1.Group("/products")
		{
			productRoutes.GET("", handlers.HandleListProducts(svc.Products, logger))
			productRoutes.GET("/stream", handlers.HandleProductStream(svc.Products, svc.Streams))
			productRoutes.GET("/:id", handlers.HandleGetProduct(svc.Products, logger))
		}

		// Anonymous callers may read the cart; mutations answer AUTHENTICATION_REQUIRED
		cartRoutes := v1.Group("/cart")
		{
			cartRoutes.GET("", handlers.HandleGetCart(svc.Carts, logger))
			cartRoutes.DELETE("", handlers.HandleClearCart(svc.Carts, logger))
			cartRoutes.GET("/products/:id", handlers.HandleIsInCart(svc.Carts, logger))
			cartRoutes.POST("/items", handlers.HandleAddCartItem(svc.Carts, svc.Products, logger))
			cartRoutes.PATCH("/items/:id", handlers.HandleUpdateCartItem(svc.Carts, logger))
			cartRoutes.DELETE("/items/:id", handlers.HandleRemoveCartItem(svc.Carts, logger))
			cartRoutes.POST("/checkout",
				middleware.RequireUser(),
				middleware.IdempotencyMiddleware(repos, logger),
				handlers.HandleCheckout(svc.Carts, repos, logger),
			)
		}

		meRoutes := v1.Group("/me")
		meRoutes.Use(middleware.RequireUser())
		{
			meRoutes.GET("", handlers.HandleGetMe())
			meRoutes.PATCH("", handlers.HandleUpdateMe(svc.Auth, logger))
			meRoutes.POST("/addresses", handlers.HandleAddAddress(svc.Auth, logger))
			meRoutes.DELETE("/addresses/:id", handlers.HandleRemoveAddress(svc.Auth, logger))
			meRoutes.GET("/orders", handlers.HandleListMyOrders(svc.Orders, logger))
			meRoutes.GET("/orders/stream", handlers.HandleMyOrderStream(svc.Orders, svc.Streams))
			meRoutes.GET("/orders/:id", handlers.HandleGetMyOrder(svc.Orders, logger))
		}

		adminRoutes := v1.Group("/admin")
		adminRoutes.Use(middleware.RequireAdmin())
		{
			adminRoutes.GET("/orders", handlers.HandleListOrders(svc.Orders, logger))
			adminRoutes.GET("/orders/stream", handlers.HandleAdminOrderStream(svc.Orders, svc.Streams))
			adminRoutes.PATCH("/orders/:id/status", handlers.HandleUpdateOrderStatus(svc.Orders, logger))
			adminRoutes.GET("/orders/:id/events", handlers.HandleOrderEvents(svc.Orders, logger))

			adminRoutes.POST("/products", handlers.HandleCreateProduct(svc.Products, logger))
			adminRoutes.PATCH("/products/:id", handlers.HandleUpdateProduct(svc.Products, logger))
			adminRoutes.DELETE("/products/:id", handlers.HandleDeleteProduct(svc.Products, logger))
			adminRoutes.POST("/products/:id/upload-url", handlers.HandleProductUploadURL(svc.Products, svc.Uploads, logger))

			adminRoutes.GET("/stats", handlers.HandleStats(svc.Stats, logger))
		}
	}

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
