package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"voucher-backend/internal/domains/voucher/model"
	"voucher-backend/internal/shared/middleware"
	"voucher-backend/internal/shared/response"
)

const genericErrorMessage = "Something went wrong, please try again later"

// handleError writes err in the response envelope. Causes of 5xx errors are
// logged, never returned.
func handleError(c *gin.Context, err error) {
	appErr, ok := model.AsAppError(err)
	if !ok {
		log.Error().
			Err(err).
			Str("request_id", c.GetString(middleware.ContextKeyRequestID)).
			Str("path", c.Request.URL.Path).
			Msg("unhandled error")
		response.ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", genericErrorMessage)
		return
	}

	if appErr.HTTPStatus >= http.StatusInternalServerError {
		log.Error().
			Err(appErr.Err).
			Str("request_id", c.GetString(middleware.ContextKeyRequestID)).
			Str("code", string(appErr.Code)).
			Msg("request failed")
	}

	var details interface{}
	if len(appErr.Details) > 0 {
		details = appErr.Details
	}
	response.ErrorWithDetails(c, appErr.HTTPStatus, string(appErr.Code), appErr.Message, details)
}
