package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"voucher-backend/internal/shared/middleware"
	"voucher-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		middleware.CORS(c.Config.App.CORSOrigins),
	)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		setupVoucherRoutes(v1, c)
		setupAdminVoucherRoutes(v1, c)
	}

	return router
}

// ========================================
// VOUCHER ROUTES
// ========================================
func setupVoucherRoutes(v1 *gin.RouterGroup, c *container.Container) {
	h := c.VoucherPublicHandler

	vouchers := v1.Group("/vouchers")
	{
		vouchers.GET("", h.ListVouchers)
		vouchers.GET("/:code", h.GetVoucher)

		authed := vouchers.Group("", middleware.AuthMiddleware(c.JWTManager))
		authed.POST("/redeem", h.RedeemVoucher)
		authed.POST("/check", h.CheckVoucher)
	}
}

// ========================================
// ADMIN VOUCHER ROUTES
// ========================================
func setupAdminVoucherRoutes(v1 *gin.RouterGroup, c *container.Container) {
	h := c.VoucherAdminHandler

	admin := v1.Group("/admin/vouchers")
	admin.Use(middleware.AuthMiddleware(c.JWTManager), middleware.AdminMiddleware())
	{
		admin.POST("", h.CreateVoucher)
		admin.POST("/sweep", h.TriggerSweep)
		admin.PUT("/:code", h.UpdateVoucher)
		admin.DELETE("/:code", h.DeleteVoucher)
	}
}

// ========================================
// HEALTH CHECK
// ========================================
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
		}

		services := gin.H{}

		dbStatus := gin.H{"status": "ok"}
		if appCtx.DB == nil || appCtx.DB.Pool == nil {
			dbStatus["status"] = "disconnected"
			health["status"] = "degraded"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.DB.HealthCheck(ctx); err != nil {
				dbStatus["status"] = "error"
				dbStatus["error"] = err.Error()
				health["status"] = "degraded"
			}
			if stats, err := appCtx.DB.Stats(); err == nil {
				dbStatus["pool"] = stats
				if warnings := stats.Warnings(); len(warnings) > 0 {
					dbStatus["warnings"] = warnings
				}
			}
		}
		services["database"] = dbStatus

		// Redis only backs the cache, so a failure doesn't degrade the service
		redisStatus := "ok"
		if appCtx.Cache == nil {
			redisStatus = "disconnected"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.Cache.Ping(ctx); err != nil {
				redisStatus = "error: " + err.Error()
			}
		}
		services["redis"] = redisStatus
		health["services"] = services

		statusCode := http.StatusOK
		if health["status"] != "ok" {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, health)
	}
}
