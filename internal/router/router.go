package router

import (
	"time"

	"github.com/janesh-web3/RMS-demo-sub001/internal/config"
	"github.com/janesh-web3/RMS-demo-sub001/internal/handler"
	"github.com/janesh-web3/RMS-demo-sub001/internal/infra"
	"github.com/janesh-web3/RMS-demo-sub001/internal/middleware"
	"github.com/janesh-web3/RMS-demo-sub001/internal/repository"
	"github.com/janesh-web3/RMS-demo-sub001/internal/service"
	"github.com/janesh-web3/RMS-demo-sub001/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps carries the long-lived pieces main builds outside the router so the
// background workers can share them.
type Deps struct {
	Mailer     *infra.Mailer
	MailCB     *infra.CircuitBreaker
	Dispatcher *worker.Dispatcher
	Analytics  service.AnalyticsService
}

// New wires all dependencies and returns a configured Gin engine plus the
// shared pieces. Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*gin.Engine, *Deps) {
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

	// ── Infrastructure ───────────────────────────────────────────────────────
	mailer := infra.NewMailer(cfg)
	mailCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	dispatcher := worker.NewDispatcher(rdb)

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	itemRepo := repository.NewStockItemRepository(db)
	txRepo := repository.NewStockTransactionRepository(db)
	costRepo := repository.NewCostHistoryRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	recipeRepo := repository.NewRecipeRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	inventorySvc := service.NewInventoryService(itemRepo, txRepo, costRepo, dispatcher)
	deductionSvc := service.NewDeductionService(itemRepo, txRepo, recipeRepo, dispatcher, cfg.DeductionTimeout())
	reversalSvc := service.NewReversalService(itemRepo, txRepo, dispatcher, cfg.DeductionTimeout())
	analyticsSvc := service.NewAnalyticsService(itemRepo, txRepo, supplierRepo, cfg.ExpiryHorizonDays, cfg.ReorderWindowDays)
	supplierSvc := service.NewSupplierService(supplierRepo)
	recipeSvc := service.NewRecipeService(recipeRepo, itemRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	stockH := handler.NewStockItemsHandler(inventorySvc)
	deductionsH := handler.NewDeductionsHandler(deductionSvc, reversalSvc)
	analyticsH := handler.NewAnalyticsHandler(analyticsSvc)
	suppliersH := handler.NewSuppliersHandler(supplierSvc)
	costHistoryH := handler.NewCostHistoryHandler(costRepo)
	recipesH := handler.NewRecipesHandler(recipeSvc)
	lookupH := handler.NewStockLookupHandler(itemRepo, rdb)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Kitchen display quick lookup — no auth required, read only
	r.GET("/v1/stock/lookup/:name", lookupH.GetByName)

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: staff, manager, admin — declared per-endpoint
		v1.GET("/stock", middleware.RequireRole("staff", "manager", "admin"), stockH.List)
		v1.GET("/stock/:id", middleware.RequireRole("staff", "manager", "admin"), stockH.GetByID)
		v1.GET("/stock/:id/costs", middleware.RequireRole("manager", "admin"), costHistoryH.ListByItem)
		v1.GET("/stock/:id/reconcile", middleware.RequireRole("manager", "admin"), stockH.Reconcile)
		v1.GET("/transactions", middleware.RequireRole("staff", "manager", "admin"), stockH.Transactions)

		// Inflow postings — staff can receive deliveries
		v1.POST("/stock/:id/add", middleware.RequireRole("staff", "manager", "admin"), stockH.AddStock)
		// Corrections — manager or admin
		v1.POST("/stock/:id/adjust", middleware.RequireRole("manager", "admin"), stockH.AdjustStock)

		// Registry writes — admin only
		stock := v1.Group("/stock", middleware.RequireRole("admin"))
		{
			stock.POST("", stockH.Create)
			stock.PUT("/:id", stockH.Update)
			stock.DELETE("/:id", stockH.Deactivate)
			stock.PATCH("/:id/reactivate", stockH.Reactivate)
		}

		// Deduction engine — order and billing flows run as staff
		ded := v1.Group("/deductions", middleware.RequireRole("staff", "manager", "admin"))
		{
			ded.POST("/check", deductionsH.CheckAvailability)
			ded.POST("/order", deductionsH.DeductForOrder)
			ded.POST("/manual", deductionsH.DeductManual)
			ded.POST("/direct", deductionsH.DeductDirect)
		}
		// Reversals undo committed stock — manager or admin
		v1.POST("/deductions/reverse", middleware.RequireRole("manager", "admin"), deductionsH.Reverse)

		analytics := v1.Group("/analytics", middleware.RequireRole("manager", "admin"))
		{
			analytics.GET("/valuation", analyticsH.Valuation)
			analytics.GET("/low-stock", analyticsH.LowStock)
			analytics.GET("/expiring", analyticsH.ExpiringSoon)
			analytics.GET("/usage", analyticsH.UsageStats)
			analytics.GET("/reorder", analyticsH.ReorderSuggestions)
		}

		// Menu items and recipes — all authenticated can read
		v1.GET("/menu", middleware.RequireRole("staff", "manager", "admin"), recipesH.ListMenuItems)
		v1.GET("/menu/:id", middleware.RequireRole("staff", "manager", "admin"), recipesH.GetMenuItem)
		menu := v1.Group("/menu", middleware.RequireRole("manager", "admin"))
		{
			menu.POST("", recipesH.CreateMenuItem)
			menu.PUT("/:id/recipe", recipesH.SetRecipe)
		}

		suppliers := v1.Group("/suppliers", middleware.RequireRole("admin"))
		{
			suppliers.POST("", suppliersH.Create)
			suppliers.GET("", suppliersH.List)
			suppliers.GET("/:id", suppliersH.GetByID)
			suppliers.PUT("/:id", suppliersH.Update)
			suppliers.DELETE("/:id", suppliersH.Deactivate)
			suppliers.POST("/:id/contacts", suppliersH.AddContact)
		}

		users := v1.Group("/users", middleware.RequireRole("admin"))
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.PUT("/:id", usersH.Update)
			users.DELETE("/:id", usersH.Deactivate)
			users.PATCH("/:id/reactivate", usersH.Reactivate)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r, &Deps{
		Mailer:     mailer,
		MailCB:     mailCB,
		Dispatcher: dispatcher,
		Analytics:  analyticsSvc,
	}
}
