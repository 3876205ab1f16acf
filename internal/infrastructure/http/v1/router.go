// Package v1 provides HTTP API version 1.
package v1

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"helmetledger/internal/domain/exchange"
	"helmetledger/internal/domain/inventory"
	"helmetledger/internal/domain/ledger"
	"helmetledger/internal/domain/reinvestment"
	"helmetledger/internal/domain/reports"
	"helmetledger/internal/domain/sales"
	"helmetledger/internal/domain/wallet"
	"helmetledger/internal/infrastructure/http/v1/dto"
	"helmetledger/internal/infrastructure/http/v1/handlers"
	"helmetledger/internal/infrastructure/http/v1/middleware"
	"helmetledger/pkg/logger"
)

// Services bundles the engine the API exposes.
type Services struct {
	Ledger        *ledger.Service
	Wallets       *wallet.Service
	Inventory     *inventory.Service
	Sales         *sales.Service
	Exchanges     *exchange.Service
	Reinvestments *reinvestment.Service
	Reports       *reports.Service
}

// RouterConfig holds router configuration.
type RouterConfig struct {
	Services Services

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator resolves the owner of each request
	JWTValidator middleware.JWTValidator

	// Idempotency enables X-Idempotency-Key handling when set
	Idempotency middleware.IdempotencyStore

	// ReadinessChecks are run by /health/ready
	ReadinessChecks map[string]handlers.CheckFunc

	// AllowedOrigins for CORS; empty or "*" allows any origin
	AllowedOrigins []string

	Development bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		dto.RegisterValidators(v)
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(corsMiddleware(cfg.AllowedOrigins))
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(log))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.ReadinessChecks)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	api := router.Group("/api/v1")
	api.Use(middleware.Auth(cfg.JWTValidator))
	if cfg.Idempotency != nil {
		api.Use(middleware.Idempotency(cfg.Idempotency))
	}
	registerRoutes(api, cfg.Services)

	return router
}

// routeRegistrar is implemented by every resource handler.
type routeRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

func registerRoutes(api *gin.RouterGroup, svc Services) {
	base := handlers.NewBaseHandler()

	groups := map[string]routeRegistrar{
		"/sales":         handlers.NewSalesHandler(base, svc.Sales, svc.Exchanges),
		"/exchanges":     handlers.NewExchangesHandler(base, svc.Exchanges),
		"/transactions":  handlers.NewTransactionsHandler(base, svc.Ledger),
		"/wallets":       handlers.NewWalletsHandler(base, svc.Wallets),
		"/reinvestments": handlers.NewReinvestmentsHandler(base, svc.Reinvestments),
		"/reports":       handlers.NewReportsHandler(base, svc.Reports),
		"/inventory":     handlers.NewInventoryHandler(base, svc.Inventory),
	}
	for prefix, h := range groups {
		h.RegisterRoutes(api.Group(prefix))
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AddAllowHeaders("Authorization", middleware.HeaderIdempotencyKey, middleware.HeaderRequestID)
	cfg.AddExposeHeaders(middleware.HeaderRequestID, middleware.HeaderTraceID)
	cfg.MaxAge = 12 * time.Hour
	return cors.New(cfg)
}
