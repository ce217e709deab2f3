package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/admitflow/crm-backend/internal/api/handler"
	"github.com/admitflow/crm-backend/internal/api/middleware"
	"github.com/admitflow/crm-backend/internal/core/domain"
	"github.com/admitflow/crm-backend/internal/core/service"
	mongodb "github.com/admitflow/crm-backend/internal/infrastructure/db/mongo"
	redisdb "github.com/admitflow/crm-backend/internal/infrastructure/db/redis"
	httphandlers "github.com/admitflow/crm-backend/internal/infrastructure/http/handlers"
)

// NewRouter builds and returns the Echo instance with all routes registered.
// Every dependency is constructed here from the injected clients - nothing is
// reached through package globals.
func NewRouter(client *mongo.Client, db *mongo.Database, rdb *redis.Client, jwtSecret string, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("crm"))

	// --- Dependencies ---
	leadRepo := mongodb.NewLeadRepository(db)
	logRepo := mongodb.NewStatusLogRepository(client, db)
	userRepo := mongodb.NewUserRepository(db)
	userDir := redisdb.NewCachedUserDirectory(userRepo, rdb, log)

	leadService := service.NewLeadStatusService(leadRepo, logRepo, userDir, service.NewAccessGuard(), log)
	leadHandler := handler.NewLeadHandler(leadService)

	authMiddleware := middleware.Auth(jwtSecret)
	elevatedOnly := middleware.RBAC(domain.RoleAdmin, domain.RoleSuperAdmin)

	// --- Lead routes ---
	v1 := e.Group("/v1", authMiddleware)
	v1.GET("/leads", leadHandler.List)
	v1.PATCH("/leads/:id/status", leadHandler.UpdateStatus)
	v1.GET("/leads/:id/status-logs", leadHandler.History)
	v1.GET("/activity", leadHandler.Activity, elevatedOnly)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := httphandlers.NewHealthHandler()
	healthDepsHandler := httphandlers.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
