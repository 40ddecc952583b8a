package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"voucher-backend/internal/domains/voucher/model"
)

type ValidationMode int

const (
	ModeCreate ValidationMode = iota
	ModeUpdate
)

func (m ValidationMode) failurePrefix() string {
	if m == ModeUpdate {
		return "Voucher update failed."
	}
	return "Voucher creation failed."
}

type voucherFinder interface {
	FindVoucherByCode(ctx context.Context, code string) (*model.Voucher, error)
}

var (
	percentMin = decimal.NewFromInt(1)
	percentMax = decimal.NewFromInt(100)
)

// DefinitionValidator decides whether a voucher definition may be persisted.
// Rules run in a fixed order and the first failure wins.
type DefinitionValidator struct {
	vouchers voucherFinder
	now      Clock
}

func NewDefinitionValidator(vouchers voucherFinder, now Clock) *DefinitionValidator {
	if now == nil {
		now = time.Now
	}
	return &DefinitionValidator{vouchers: vouchers, now: now}
}

// Validate returns a DefinitionConflict AppError for the first rule the
// definition breaks, or a StorageFailure when the uniqueness lookup fails.
func (d *DefinitionValidator) Validate(ctx context.Context, v *model.Voucher, mode ValidationMode) error {
	prefix := mode.failurePrefix()

	// Rule 1: unique code. Update relies on the store's unique constraint.
	if mode == ModeCreate {
		_, err := d.vouchers.FindVoucherByCode(ctx, v.Code)
		switch {
		case err == nil:
			return model.NewDefinitionConflict(
				fmt.Sprintf("%s Code: %s already exists.", prefix, v.Code),
				map[string]interface{}{"code": v.Code},
			)
		case !errors.Is(err, model.ErrVoucherNotFound):
			return model.NewStorageFailure("check voucher code", err)
		}
	}

	// Rule 2: the whole window lies in the future.
	now := d.now()
	if !v.StartDate.After(now) || !v.EndDate.After(now) || !v.EndDate.After(v.StartDate) {
		return model.NewDefinitionConflict(
			fmt.Sprintf("%s Invalid date range for voucher code: %s", prefix, v.Code),
			map[string]interface{}{
				"start_date": v.StartDate,
				"end_date":   v.EndDate,
			},
		)
	}

	// Rule 3: product vouchers name their products.
	if v.Target == model.TargetProduct && len(v.ApplicableProducts) == 0 {
		return model.NewDefinitionConflict(
			fmt.Sprintf("%s Applicable products are required when the target is 'product'.", prefix),
			nil,
		)
	}

	// Rule 4: discount matches the type.
	switch v.Type {
	case model.TypePercentage:
		if v.DiscountValue == nil {
			return model.NewDefinitionConflict(
				fmt.Sprintf("%s Percentage discount is required for percentage vouchers.", prefix), nil,
			)
		}
		if v.DiscountValue.LessThan(percentMin) || v.DiscountValue.GreaterThan(percentMax) {
			return model.NewDefinitionConflict(
				fmt.Sprintf("%s Percentage discount must be between 1 and 100.", prefix),
				map[string]interface{}{"percentage_discount": v.DiscountValue},
			)
		}
	case model.TypeFixed:
		if v.DiscountValue == nil {
			return model.NewDefinitionConflict(
				fmt.Sprintf("%s Fixed discount is required for fixed vouchers.", prefix), nil,
			)
		}
	case model.TypeFreeShipping:
		// no discount to check
	default:
		return model.NewDefinitionConflict(
			fmt.Sprintf("%s Unknown voucher type %q.", prefix, v.Type), nil,
		)
	}

	return nil
}
