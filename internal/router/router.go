package router

import (
	"time"

	"gestock/internal/config"
	"gestock/internal/handler"
	"gestock/internal/middleware"
	"gestock/internal/model"
	"gestock/internal/repository"
	"gestock/internal/service"
	"gestock/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)
	clientRepo := repository.NewClientRepository(db)
	recipientRepo := repository.NewRecipientRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	productSvc := service.NewProductService(productRepo)
	stockSvc := service.NewStockService(movementRepo, productRepo, recipientRepo, dispatcher)
	invoiceSvc := service.NewInvoiceService(invoiceRepo, movementRepo, productRepo, clientRepo, stockSvc, cfg.TaxRate())
	quoteSvc := service.NewQuoteService(quoteRepo, invoiceRepo, productRepo, clientRepo, stockSvc, cfg.TaxRate())
	clientSvc := service.NewClientService(clientRepo)
	recipientSvc := service.NewRecipientService(recipientRepo)
	dashboardSvc := service.NewDashboardService(productRepo, movementRepo, invoiceRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	productsH := handler.NewProductHandler(productSvc)
	stockH := handler.NewStockHandler(stockSvc)
	invoicesH := handler.NewInvoiceHandler(invoiceSvc, invoiceRepo, cfg)
	quotesH := handler.NewQuoteHandler(quoteSvc, quoteRepo, cfg)
	clientsH := handler.NewClientHandler(clientSvc)
	recipientsH := handler.NewRecipientHandler(recipientSvc)
	dashboardH := handler.NewDashboardHandler(dashboardSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	admin := middleware.RequireRole(model.RoleAdmin)
	v1 := r.Group("/v1", jwtMW)
	{
		// User management — admin only
		users := v1.Group("/auth/users", admin)
		{
			users.POST("", authH.CreateUser)
			users.GET("", authH.ListUsers)
			users.PUT("/:id", authH.UpdateUser)
			users.DELETE("/:id", authH.DeactivateUser)
			users.POST("/:id/reactivate", authH.ReactivateUser)
		}

		prods := v1.Group("/products")
		{
			prods.GET("", productsH.List)
			prods.GET("/low-stock", productsH.LowStock)
			prods.GET("/:id", productsH.Get)
			prods.POST("", productsH.Create)
			prods.PUT("/:id", productsH.Update)
			prods.DELETE("/:id", productsH.SoftDelete)
			prods.POST("/:id/restore", productsH.Restore)
			// Hard delete is destructive — admin only
			prods.DELETE("/:id/hard", admin, productsH.HardDelete)
		}

		stock := v1.Group("/stock/movements")
		{
			stock.POST("", stockH.CreateMovement)
			stock.GET("", stockH.ListMovements)
			stock.GET("/:id", stockH.GetMovement)
			stock.DELETE("/:id", stockH.SoftDeleteMovement)
			stock.POST("/:id/restore", stockH.RestoreMovement)
		}

		invoices := v1.Group("/invoices")
		{
			invoices.POST("", invoicesH.Create)
			invoices.GET("", invoicesH.List)
			invoices.GET("/:id", invoicesH.Get)
			invoices.DELETE("/:id", invoicesH.SoftDelete)
			invoices.POST("/:id/items", invoicesH.AddItem)
			invoices.DELETE("/:id/items/:item_id", invoicesH.RemoveItem)
			invoices.POST("/:id/cancel", invoicesH.Cancel)
			invoices.POST("/:id/restore", invoicesH.Restore)
			invoices.POST("/:id/payments", invoicesH.RecordPayment)
			invoices.POST("/:id/convert", invoicesH.ConvertProforma)
			invoices.GET("/:id/pdf", invoicesH.DownloadPDF)
		}

		quotes := v1.Group("/quotes")
		{
			quotes.POST("", quotesH.Create)
			quotes.GET("", quotesH.List)
			quotes.GET("/:id", quotesH.Get)
			quotes.DELETE("/:id", quotesH.SoftDelete)
			quotes.POST("/:id/items", quotesH.AddItem)
			quotes.DELETE("/:id/items/:item_id", quotesH.RemoveItem)
			quotes.POST("/:id/convert", quotesH.Convert)
			quotes.GET("/:id/pdf", quotesH.DownloadPDF)
		}

		clients := v1.Group("/clients")
		{
			clients.POST("", clientsH.Create)
			clients.GET("", clientsH.List)
			clients.GET("/:id", clientsH.Get)
			clients.PUT("/:id", clientsH.Update)
			clients.DELETE("/:id", clientsH.SoftDelete)
		}

		recipients := v1.Group("/recipients", admin)
		{
			recipients.POST("", recipientsH.Create)
			recipients.GET("", recipientsH.List)
			recipients.PUT("/:id/active", recipientsH.SetActive)
			recipients.DELETE("/:id", recipientsH.Delete)
		}

		v1.GET("/dashboard", dashboardH.Summary)
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
