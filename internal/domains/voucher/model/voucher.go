package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type VoucherType string

const (
	TypePercentage   VoucherType = "percentage"
	TypeFixed        VoucherType = "fixed"
	TypeFreeShipping VoucherType = "free_shipping"
)

func (t VoucherType) IsValid() bool {
	switch t {
	case TypePercentage, TypeFixed, TypeFreeShipping:
		return true
	}
	return false
}

type Target string

const (
	TargetProduct  Target = "product"
	TargetShipping Target = "shipping"
	TargetCart     Target = "cart"
)

func (t Target) IsValid() bool {
	switch t {
	case TargetProduct, TargetShipping, TargetCart:
		return true
	}
	return false
}

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
)

// Voucher is a redeemable discount definition.
// Code is case-sensitive and never normalized.
type Voucher struct {
	ID                 uuid.UUID        `json:"id"`
	Code               string           `json:"code"`
	Type               VoucherType      `json:"type"`
	Target             Target           `json:"target"`
	DiscountValue      *decimal.Decimal `json:"discount_value,omitempty"`
	ApplicableProducts []string         `json:"applicable_products"`
	StartDate          time.Time        `json:"start_date"`
	EndDate            time.Time        `json:"end_date"`
	MaxUses            *int             `json:"max_uses,omitempty"`
	MaxUsesPerUser     int              `json:"max_uses_per_user"`
	AllowedUsers       []string         `json:"allowed_users"`
	RedeemableDays     []string         `json:"redeemable_days"`
	MinCartValue       *decimal.Decimal `json:"min_cart_value,omitempty"`
	MaxDiscountAmount  *decimal.Decimal `json:"max_discount_amount,omitempty"`
	RedemptionCount    int              `json:"redemption_count"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// IsActiveAt reports start <= now <= end. Both bounds are inclusive.
func (v *Voucher) IsActiveAt(now time.Time) bool {
	return !now.Before(v.StartDate) && !now.After(v.EndDate)
}

func (v *Voucher) Status(now time.Time) Status {
	switch {
	case now.Before(v.StartDate):
		return StatusScheduled
	case now.After(v.EndDate):
		return StatusExpired
	default:
		return StatusActive
	}
}

// HasGlobalCap is false when MaxUses is unset.
func (v *Voucher) HasGlobalCap() bool {
	return v.MaxUses != nil
}

// Clone returns a deep copy so callers can't mutate stored state.
func (v *Voucher) Clone() *Voucher {
	if v == nil {
		return nil
	}
	c := *v
	c.DiscountValue = cloneDecimal(v.DiscountValue)
	c.MinCartValue = cloneDecimal(v.MinCartValue)
	c.MaxDiscountAmount = cloneDecimal(v.MaxDiscountAmount)
	if v.MaxUses != nil {
		n := *v.MaxUses
		c.MaxUses = &n
	}
	c.ApplicableProducts = cloneStrings(v.ApplicableProducts)
	c.AllowedUsers = cloneStrings(v.AllowedUsers)
	c.RedeemableDays = cloneStrings(v.RedeemableDays)
	return &c
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	c := d.Copy()
	return &c
}

func cloneStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// WeekdayNames lists the accepted values of RedeemableDays, Sunday first.
func WeekdayNames() []string {
	names := make([]string, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		names[d] = d.String()
	}
	return names
}
