package main

import (
	"github.com/hibiken/asynq"

	voucherJob "voucher-backend/internal/domains/voucher/job"
	"voucher-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	sweepExpired *voucherJob.SweepExpiredHandler
}

func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		sweepExpired: c.SweepExpiredHandler,
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(voucherJob.TypeSweepExpiredVouchers, h.sweepExpired.ProcessTask)
}
