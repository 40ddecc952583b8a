package service

import (
	"context"
	"time"

	"voucher-backend/internal/domains/voucher/model"
)

// ServiceInterface covers voucher administration.
type ServiceInterface interface {
	CreateVoucher(ctx context.Context, req *model.VoucherRequest) (*model.Voucher, error)
	// UpdateVoucher replaces every field of the voucher currently stored under code.
	UpdateVoucher(ctx context.Context, code string, req *model.VoucherRequest) (*model.Voucher, error)
	DeleteVoucher(ctx context.Context, code string) error
	ListVouchers(ctx context.Context) ([]*model.Voucher, error)
	GetVoucher(ctx context.Context, code string) (*model.Voucher, error)
}

// RedemptionInterface is the eligibility and redemption engine.
//
// Denials come back inside the result. The error return is reserved for
// storage failures and inconsistent data such as an unknown user.
type RedemptionInterface interface {
	Redeem(ctx context.Context, req *model.RedeemRequest) (*model.RedemptionResult, error)
	// Check runs the same rules as Redeem without recording anything.
	Check(ctx context.Context, req *model.RedeemRequest) (*model.RedemptionResult, error)
}

// Clock returns the current instant. Tests pin it.
type Clock func() time.Time
