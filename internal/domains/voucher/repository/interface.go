package repository

import (
	"context"

	"github.com/google/uuid"

	"voucher-backend/internal/domains/voucher/model"
)

// VoucherRepository is the transactional store behind the voucher service.
//
// Errors use the sentinels in model: ErrVoucherNotFound, ErrDuplicateCode,
// ErrCodeLocked, ErrUserNotFound, ErrUsageNotFound, ErrUsageLimitReached and
// ErrVoucherExhausted. Anything else is a storage failure.
type VoucherRepository interface {
	FindVoucherByCode(ctx context.Context, code string) (*model.Voucher, error)
	InsertVoucher(ctx context.Context, v *model.Voucher) error
	// UpdateVoucher replaces the voucher stored under code. The code itself
	// may only change while the voucher has no usage records.
	UpdateVoucher(ctx context.Context, code string, v *model.Voucher) error
	DeleteVoucher(ctx context.Context, code string) error
	// ListVouchers returns every voucher ordered by start date ascending.
	ListVouchers(ctx context.Context) ([]*model.Voucher, error)

	FindUser(ctx context.Context, id uuid.UUID) (*model.User, error)

	FindUsageRecord(ctx context.Context, userID, voucherID uuid.UUID) (*model.UsageRecord, error)
	// IncrementUsage creates or bumps the usage record and the voucher's
	// redemption count as one atomic step. It fails with ErrUsageLimitReached
	// when the per-user cap would be exceeded and ErrVoucherExhausted when the
	// global cap is already met; in both cases nothing is written.
	IncrementUsage(ctx context.Context, inc model.UsageIncrement) (*model.UsageRecord, model.IncrementOutcome, error)
}
