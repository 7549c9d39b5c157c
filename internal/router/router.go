package router

import (
	"time"

	"sitehub/internal/bootstrap"
	"sitehub/internal/handlers"
	"sitehub/internal/middleware"
	"sitehub/pkg/jwt"
	"sitehub/pkg/response"

	"github.com/gin-gonic/gin"
)

// SetupRouter 设置路由
func SetupRouter(app *bootstrap.App, jwtManager *jwt.JWTManager) *gin.Engine {
	router := gin.New()

	// 中间件
	router.Use(middleware.RequestLogger())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.SetupCORS(app.Config.CORS))

	registerRoutes(router, app, jwtManager)
	return router
}

// 注册所有路由
func registerRoutes(router *gin.Engine, app *bootstrap.App, jwtManager *jwt.JWTManager) {
	auth := middleware.NewAuthMiddleware(app.Operators, jwtManager)

	api := router.Group("/api/v1")
	{
		// 健康检查接口
		api.GET("/health", healthCheck)
		api.GET("/ping", ping)

		authHandler := handlers.NewAuthHandler(app.Operators, jwtManager)
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.GET("/me", auth.RequireLogin(), authHandler.Me)
		}

		// 租户开通与单租户维护
		tenantHandler := handlers.NewTenantHandler(app.Tenants)
		tenants := api.Group("/tenants", auth.RequireLogin())
		{
			tenants.POST("", tenantHandler.Create)
			tenants.GET("", tenantHandler.GetAll)
			tenants.GET("/:name", tenantHandler.Get)
			tenants.GET("/:name/records", tenantHandler.Records)
			tenants.POST("/:name/discover", tenantHandler.Discover)
			tenants.GET("/:name/templates", tenantHandler.Templates)
			tenants.POST("/:name/cache/invalidate", tenantHandler.InvalidateCache)
		}

		// 全量同步
		fleetHandler := handlers.NewFleetHandler(app.Scheduler)
		fleetGroup := api.Group("/fleet", auth.RequireLogin())
		{
			fleetGroup.POST("/sync", fleetHandler.Sync)
			fleetGroup.GET("/sync/last", fleetHandler.LastRun)
			fleetGroup.GET("/status", fleetHandler.Status)
		}
	}
}

func healthCheck(c *gin.Context) {
	data := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now(),
		"service":   "SiteHub",
		"version":   "1.0.0",
	}
	response.Success(c, data)
}

func ping(c *gin.Context) {
	response.SuccessWithMessage(c, "pong", nil)
}
