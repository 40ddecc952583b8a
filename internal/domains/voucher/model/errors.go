package model

import (
	"errors"
	"fmt"
	"net/http"
)

// Storage-level errors. Repositories return these; services translate them.
var (
	ErrVoucherNotFound   = errors.New("voucher not found")
	ErrDuplicateCode     = errors.New("voucher code already exists")
	ErrCodeLocked        = errors.New("voucher code cannot change once redeemed")
	ErrUserNotFound      = errors.New("user not found")
	ErrUsageNotFound     = errors.New("usage record not found")
	ErrUsageLimitReached = errors.New("per-user redemption limit reached")
	ErrVoucherExhausted  = errors.New("voucher redemption cap reached")
)

type ErrorCode string

const (
	ErrCodeDefinitionConflict ErrorCode = "VOUCHER_DEFINITION_CONFLICT" // 409
	ErrCodeVoucherNotFound    ErrorCode = "VOUCHER_NOT_FOUND"           // 404
	ErrCodeValidationFailed   ErrorCode = "VAL_INVALID_INPUT"           // 400
	ErrCodeForbidden          ErrorCode = "AUTH_FORBIDDEN"              // 403
	ErrCodeUserUnresolved     ErrorCode = "VOUCHER_USER_UNRESOLVED"     // 500
	ErrCodeStorageFailure     ErrorCode = "SYS_STORAGE_FAILURE"         // 500
)

const storageFailureMessage = "Something went wrong, please try again later"

type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`

	// Err keeps the underlying cause for logs. It is never sent to clients.
	Err error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// AsAppError unwraps err into an *AppError when there is one in the chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func NewDefinitionConflict(message string, details map[string]interface{}) *AppError {
	return &AppError{
		Code:       ErrCodeDefinitionConflict,
		Message:    message,
		Details:    details,
		HTTPStatus: http.StatusConflict,
	}
}

func NewVoucherNotFound(code string) *AppError {
	return &AppError{
		Code:       ErrCodeVoucherNotFound,
		Message:    fmt.Sprintf("Voucher with code %s not found.", code),
		Details:    map[string]interface{}{"code": code},
		HTTPStatus: http.StatusNotFound,
		Err:        ErrVoucherNotFound,
	}
}

func NewValidationError(err error) *AppError {
	return &AppError{
		Code:       ErrCodeValidationFailed,
		Message:    "Invalid request data",
		Details:    map[string]interface{}{"info": err.Error()},
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
	}
}

func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       ErrCodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

func NewUserUnresolved(userID string, err error) *AppError {
	return &AppError{
		Code:       ErrCodeUserUnresolved,
		Message:    "Redeeming user could not be resolved",
		Details:    map[string]interface{}{"user_id": userID},
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewStorageFailure hides the cause behind a generic message.
func NewStorageFailure(op string, err error) *AppError {
	return &AppError{
		Code:       ErrCodeStorageFailure,
		Message:    storageFailureMessage,
		HTTPStatus: http.StatusInternalServerError,
		Err:        fmt.Errorf("%s: %w", op, err),
	}
}
