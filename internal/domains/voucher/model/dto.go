package model

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// -------------------------------------------------------------------
// ADMIN REQUESTS
// -------------------------------------------------------------------

// VoucherRequest is the body of create and update. Update replaces every field.
type VoucherRequest struct {
	Code               string           `json:"code"`
	Type               VoucherType      `json:"type"`
	Target             Target           `json:"target"`
	PercentageDiscount *decimal.Decimal `json:"percentage_discount"`
	FixedDiscount      *decimal.Decimal `json:"fixed_discount"`
	ApplicableProducts []string         `json:"applicable_products"`
	StartDate          time.Time        `json:"start_date"`
	EndDate            time.Time        `json:"end_date"`
	MaxUses            *int             `json:"max_uses"`
	MaxUsesPerUser     *int             `json:"max_uses_per_user"`
	AllowedUsers       []string         `json:"allowed_users"`
	RedeemableDays     []string         `json:"redeemable_days"`
	MinCartValue       *decimal.Decimal `json:"min_cart_value"`
	MaxDiscountAmount  *decimal.Decimal `json:"max_discount_amount"`
}

// Validate checks request shape only. Business rules (date window, discount
// ranges, product targeting) belong to the definition validator.
func (r VoucherRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code,
			validation.Required.Error("code is required"),
			validation.Length(1, 64).Error("code must be at most 64 characters"),
		),
		validation.Field(&r.Type,
			validation.Required.Error("type is required"),
			validation.In(TypePercentage, TypeFixed, TypeFreeShipping).Error("type must be percentage, fixed or free_shipping"),
		),
		validation.Field(&r.Target,
			validation.Required.Error("target is required"),
			validation.In(TargetProduct, TargetShipping, TargetCart).Error("target must be product, shipping or cart"),
		),
		validation.Field(&r.StartDate, validation.Required.Error("start_date is required")),
		validation.Field(&r.EndDate, validation.Required.Error("end_date is required")),
		validation.Field(&r.PercentageDiscount, validation.By(storedAmount)),
		validation.Field(&r.FixedDiscount, validation.By(storedAmount)),
		validation.Field(&r.MinCartValue, validation.By(storedAmount)),
		validation.Field(&r.MaxDiscountAmount, validation.By(storedAmount)),
		validation.Field(&r.MaxUses, validation.By(positiveInt)),
		validation.Field(&r.MaxUsesPerUser, validation.By(positiveInt)),
		validation.Field(&r.AllowedUsers, validation.Each(is.EmailFormat)),
		validation.Field(&r.RedeemableDays, validation.Each(validation.In(weekdayValues()...).Error("must be an English weekday name such as Monday"))),
		validation.Field(&r.ApplicableProducts, validation.Each(validation.Required.Error("product id must not be empty"))),
	)
}

// ToVoucher maps the request onto a Voucher, applying defaults:
// max_uses_per_user=1, empty lists for unrestricted fields, and the discount
// that matches Type (free_shipping carries none).
func (r VoucherRequest) ToVoucher() *Voucher {
	v := &Voucher{
		Code:               r.Code,
		Type:               r.Type,
		Target:             r.Target,
		ApplicableProducts: nonNil(r.ApplicableProducts),
		StartDate:          r.StartDate,
		EndDate:            r.EndDate,
		MaxUses:            r.MaxUses,
		MaxUsesPerUser:     1,
		AllowedUsers:       nonNil(r.AllowedUsers),
		RedeemableDays:     nonNil(r.RedeemableDays),
		MinCartValue:       r.MinCartValue,
		MaxDiscountAmount:  r.MaxDiscountAmount,
	}
	if r.MaxUsesPerUser != nil {
		v.MaxUsesPerUser = *r.MaxUsesPerUser
	}

	switch r.Type {
	case TypePercentage:
		v.DiscountValue = r.PercentageDiscount
	case TypeFixed:
		v.DiscountValue = r.FixedDiscount
	}

	return v
}

// -------------------------------------------------------------------
// REDEMPTION REQUESTS
// -------------------------------------------------------------------

type RedeemRequest struct {
	UserID         uuid.UUID       `json:"user_id"`
	Code           string          `json:"code"`
	CartValue      decimal.Decimal `json:"cart_value"`
	ProductsInCart []string        `json:"products_in_cart"`
}

func (r RedeemRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.By(func(value interface{}) error {
			if id, _ := value.(uuid.UUID); id == uuid.Nil {
				return errors.New("user_id is required")
			}
			return nil
		})),
		validation.Field(&r.Code, validation.Required.Error("code is required")),
		validation.Field(&r.CartValue, validation.By(nonNegativeDecimal)),
	)
}

// -------------------------------------------------------------------
// RESPONSES
// -------------------------------------------------------------------

// VoucherResponse is a voucher as the API returns it, with its status at the
// time of the request.
type VoucherResponse struct {
	*Voucher
	Status Status `json:"status"`
}

func NewVoucherResponse(v *Voucher, now time.Time) VoucherResponse {
	return VoucherResponse{Voucher: v, Status: v.Status(now)}
}

func NewVoucherResponses(vouchers []*Voucher, now time.Time) []VoucherResponse {
	out := make([]VoucherResponse, 0, len(vouchers))
	for _, v := range vouchers {
		out = append(out, NewVoucherResponse(v, now))
	}
	return out
}

// -------------------------------------------------------------------
// HELPERS
// -------------------------------------------------------------------

func nonNegativeDecimal(value interface{}) error {
	var d decimal.Decimal
	switch v := value.(type) {
	case *decimal.Decimal:
		if v == nil {
			return nil
		}
		d = *v
	case decimal.Decimal:
		d = v
	default:
		return nil
	}
	if d.IsNegative() {
		return errors.New("must not be negative")
	}
	return nil
}

// Amounts are stored as NUMERIC(12, 2).
var maxStoredAmount = decimal.New(1, 10)

func storedAmount(value interface{}) error {
	if err := nonNegativeDecimal(value); err != nil {
		return err
	}
	d, ok := value.(*decimal.Decimal)
	if !ok || d == nil {
		return nil
	}
	if !d.Equal(d.Round(2)) {
		return errors.New("must have at most 2 decimal places")
	}
	if d.GreaterThanOrEqual(maxStoredAmount) {
		return errors.New("must be less than 10000000000")
	}
	return nil
}

func positiveInt(value interface{}) error {
	n, ok := value.(*int)
	if !ok || n == nil {
		return nil
	}
	if *n < 1 {
		return errors.New("must be at least 1")
	}
	return nil
}

func weekdayValues() []interface{} {
	names := WeekdayNames()
	out := make([]interface{}, len(names))
	for i, n := range names {
		out[i] = n
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
