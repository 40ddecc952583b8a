package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"voucher-backend/internal/domains/voucher/model"
	"voucher-backend/internal/domains/voucher/service"
	"voucher-backend/internal/shared/middleware"
	"voucher-backend/internal/shared/response"
)

// PublicHandler serves voucher lookup and redemption.
type PublicHandler struct {
	vouchers service.ServiceInterface
	engine   service.RedemptionInterface
	now      service.Clock
}

func NewPublicHandler(vouchers service.ServiceInterface, engine service.RedemptionInterface, now service.Clock) *PublicHandler {
	if now == nil {
		now = time.Now
	}
	return &PublicHandler{
		vouchers: vouchers,
		engine:   engine,
		now:      now,
	}
}

// -------------------------------------------------------------------
// REDEMPTION
// -------------------------------------------------------------------

// RedeemVoucher redeems a code for the caller. Admins may redeem on behalf of
// another user by setting user_id.
//
// A denied attempt answers with the status of its reason and the reason as
// the error code.
// @Router /v1/vouchers/redeem [post]
func (h *PublicHandler) RedeemVoucher(c *gin.Context) {
	req, ok := bindRedeemRequest(c)
	if !ok {
		return
	}

	result, err := h.engine.Redeem(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}

	if result.Denied() {
		writeDenial(c, result.Denial)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// CheckVoucher reports whether the caller could redeem the code now. The
// answer is always 200; a negative answer carries the denial in the result.
// @Router /v1/vouchers/check [post]
func (h *PublicHandler) CheckVoucher(c *gin.Context) {
	req, ok := bindRedeemRequest(c)
	if !ok {
		return
	}

	result, err := h.engine.Check(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// -------------------------------------------------------------------
// READ
// -------------------------------------------------------------------

// @Router /v1/vouchers [get]
func (h *PublicHandler) ListVouchers(c *gin.Context) {
	vouchers, err := h.vouchers.ListVouchers(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, model.NewVoucherResponses(vouchers, h.now()), &response.Meta{
		Total: len(vouchers),
	})
}

// @Router /v1/vouchers/:code [get]
func (h *PublicHandler) GetVoucher(c *gin.Context) {
	v, err := h.vouchers.GetVoucher(c.Request.Context(), c.Param("code"))
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, model.NewVoucherResponse(v, h.now()))
}

// -------------------------------------------------------------------
// HELPERS
// -------------------------------------------------------------------

// bindRedeemRequest parses the body and resolves whose redemption it is.
// user_id defaults to the caller; only admins may name someone else.
func bindRedeemRequest(c *gin.Context) (*model.RedeemRequest, bool) {
	var req model.RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, model.NewValidationError(err))
		return nil, false
	}

	callerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return nil, false
	}

	switch {
	case req.UserID == uuid.Nil:
		req.UserID = callerID
	case req.UserID != callerID && !middleware.IsAdmin(c):
		handleError(c, model.NewForbidden("You can only redeem vouchers for your own account"))
		return nil, false
	}

	if err := req.Validate(); err != nil {
		handleError(c, model.NewValidationError(err))
		return nil, false
	}
	return &req, true
}

func writeDenial(c *gin.Context, d *model.Denial) {
	var details interface{}
	if len(d.Details) > 0 {
		details = d.Details
	}
	response.ErrorWithDetails(c, d.Reason.HTTPStatus(), string(d.Reason), d.Message, details)
}
