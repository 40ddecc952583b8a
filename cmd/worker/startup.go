// cmd/worker/startup.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"voucher-backend/pkg/container"
)

// HealthChecker performs startup health checks
type HealthChecker struct {
	c *container.Container
}

// startServices runs the startup checks and exposes /health and /ready.
func startServices(c *container.Container) error {
	log.Info().Msg("Voucher worker starting...")

	checker := &HealthChecker{c: c}
	if err := checker.checkAll(); err != nil {
		return err
	}

	go startHealthCheckServer(c.Config.Worker.HealthAddr, checker)

	return nil
}

func (h *HealthChecker) checkAll() error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"Redis Connection", h.checkRedis},
		{"Database Connection", h.checkDatabase},
	}

	for _, check := range checks {
		if err := check.fn(); err != nil {
			log.Error().Err(err).Str("check", check.name).Msg("health check failed")
			return fmt.Errorf("%s failed: %w", check.name, err)
		}
		log.Info().Str("check", check.name).Msg("health check OK")
	}

	return nil
}

// Asynq runs on the same Redis, so one ping covers both.
func (h *HealthChecker) checkRedis() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return h.c.Cache.Ping(ctx)
}

func (h *HealthChecker) checkDatabase() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return h.c.DB.HealthCheck(ctx)
}

func startHealthCheckServer(addr string, checker *HealthChecker) {
	r := gin.New()
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "service": "voucher-worker"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := checker.checkAll(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "NOT_READY", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "READY"})
	})

	log.Info().Str("addr", addr).Msg("[Health] Starting health check server")
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Error().Err(err).Msg("[Health] Failed to start")
	}
}
