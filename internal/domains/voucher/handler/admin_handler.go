package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"voucher-backend/internal/domains/voucher/job"
	"voucher-backend/internal/domains/voucher/model"
	"voucher-backend/internal/domains/voucher/service"
	"voucher-backend/internal/shared/middleware"
	"voucher-backend/internal/shared/response"
)

// TaskEnqueuer is satisfied by *asynq.Client.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AdminHandler serves voucher administration. Routes sit behind auth and admin middleware.
type AdminHandler struct {
	service service.ServiceInterface
	tasks   TaskEnqueuer
	now     service.Clock
}

func NewAdminHandler(svc service.ServiceInterface, tasks TaskEnqueuer, now service.Clock) *AdminHandler {
	if now == nil {
		now = time.Now
	}
	return &AdminHandler{service: svc, tasks: tasks, now: now}
}

// -------------------------------------------------------------------
// CREATE & UPDATE
// -------------------------------------------------------------------

// CreateVoucher
// @Router /v1/admin/vouchers [post]
func (h *AdminHandler) CreateVoucher(c *gin.Context) {
	req, ok := bindVoucherRequest(c)
	if !ok {
		return
	}

	v, err := h.service.CreateVoucher(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, model.NewVoucherResponse(v, h.now()))
}

// UpdateVoucher replaces the voucher stored under :code.
// @Router /v1/admin/vouchers/:code [put]
func (h *AdminHandler) UpdateVoucher(c *gin.Context) {
	req, ok := bindVoucherRequest(c)
	if !ok {
		return
	}

	v, err := h.service.UpdateVoucher(c.Request.Context(), c.Param("code"), req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, model.NewVoucherResponse(v, h.now()))
}

// -------------------------------------------------------------------
// DELETE
// -------------------------------------------------------------------

// @Router /v1/admin/vouchers/:code [delete]
func (h *AdminHandler) DeleteVoucher(c *gin.Context) {
	code := c.Param("code")

	if err := h.service.DeleteVoucher(c.Request.Context(), code); err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"code":    code,
		"message": "Voucher deleted successfully",
	})
}

// -------------------------------------------------------------------
// MAINTENANCE
// -------------------------------------------------------------------

// TriggerSweep queues an immediate expired-voucher cache sweep.
// ?flush_cache=true also drops every cached definition.
// @Router /v1/admin/vouchers/sweep [post]
func (h *AdminHandler) TriggerSweep(c *gin.Context) {
	if h.tasks == nil {
		response.ErrorResponse(c, http.StatusServiceUnavailable, "QUEUE_UNAVAILABLE", "Background jobs are not configured")
		return
	}

	flush, err := strconv.ParseBool(c.DefaultQuery("flush_cache", "false"))
	if err != nil {
		response.BadRequest(c, "flush_cache must be a boolean")
		return
	}

	payload := job.SweepExpiredPayload{
		RequestedBy: c.GetString(middleware.ContextKeyEmail),
		FlushCache:  flush,
	}
	task, err := job.NewSweepExpiredTask(payload)
	if err != nil {
		handleError(c, err)
		return
	}

	info, err := h.tasks.EnqueueContext(c.Request.Context(), task,
		asynq.Queue(job.QueueVoucher),
		asynq.MaxRetry(2),
		asynq.Timeout(5*time.Minute),
	)
	if err != nil {
		log.Error().Err(err).Str("task", job.TypeSweepExpiredVouchers).Msg("enqueue failed")
		response.ErrorResponse(c, http.StatusServiceUnavailable, "QUEUE_UNAVAILABLE", genericErrorMessage)
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{
		"task_id": info.ID,
		"queue":   info.Queue,
	})
}

func bindVoucherRequest(c *gin.Context) (*model.VoucherRequest, bool) {
	var req model.VoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, model.NewValidationError(err))
		return nil, false
	}
	if err := req.Validate(); err != nil {
		handleError(c, model.NewValidationError(err))
		return nil, false
	}
	return &req, true
}
