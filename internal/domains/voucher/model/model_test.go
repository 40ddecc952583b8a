package model

import (
	"net/http"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	start = time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)
	end   = time.Date(2030, 6, 30, 23, 59, 59, 0, time.UTC)
)

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func intPtr(n int) *int { return &n }

func validRequest() VoucherRequest {
	return VoucherRequest{
		Code:               "SAVE10",
		Type:               TypePercentage,
		Target:             TargetCart,
		PercentageDiscount: decPtr("10"),
		StartDate:          start,
		EndDate:            end,
	}
}

func fieldErrors(t *testing.T, err error) validation.Errors {
	t.Helper()

	var errs validation.Errors
	require.ErrorAs(t, err, &errs)
	return errs
}

func TestVoucherRequest_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *VoucherRequest)
		field  string
	}{
		{"missing code", func(r *VoucherRequest) { r.Code = "" }, "code"},
		{"unknown type", func(r *VoucherRequest) { r.Type = "bogo" }, "type"},
		{"unknown target", func(r *VoucherRequest) { r.Target = "order" }, "target"},
		{"missing start", func(r *VoucherRequest) { r.StartDate = time.Time{} }, "start_date"},
		{"missing end", func(r *VoucherRequest) { r.EndDate = time.Time{} }, "end_date"},
		{"negative cart minimum", func(r *VoucherRequest) { r.MinCartValue = decPtr("-1") }, "min_cart_value"},
		{"cart minimum with three decimals", func(r *VoucherRequest) { r.MinCartValue = decPtr("49.999") }, "min_cart_value"},
		{"fixed discount too large", func(r *VoucherRequest) { r.FixedDiscount = decPtr("10000000000") }, "fixed_discount"},
		{"discount cap with three decimals", func(r *VoucherRequest) { r.MaxDiscountAmount = decPtr("5.125") }, "max_discount_amount"},
		{"zero per-user limit", func(r *VoucherRequest) { r.MaxUsesPerUser = intPtr(0) }, "max_uses_per_user"},
		{"zero global cap", func(r *VoucherRequest) { r.MaxUses = intPtr(0) }, "max_uses"},
		{"bad email", func(r *VoucherRequest) { r.AllowedUsers = []string{"not-an-email"} }, "allowed_users"},
		{"lowercase weekday", func(r *VoucherRequest) { r.RedeemableDays = []string{"monday"} }, "redeemable_days"},
		{"empty product id", func(r *VoucherRequest) { r.ApplicableProducts = []string{""} }, "applicable_products"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRequest()
			tt.mutate(&r)

			errs := fieldErrors(t, r.Validate())
			assert.Contains(t, errs, tt.field)
		})
	}

	r := validRequest()
	r.FixedDiscount = decPtr("9999999999.99")
	r.MinCartValue = decPtr("49.50")
	r.PercentageDiscount = decPtr("12.5")
	r.AllowedUsers = []string{"alice@example.com"}
	r.RedeemableDays = []string{"Monday", "Sunday"}
	assert.NoError(t, r.Validate())
}

func TestVoucherRequest_ToVoucher(t *testing.T) {
	r := validRequest()
	r.FixedDiscount = decPtr("99")

	v := r.ToVoucher()
	assert.Equal(t, 1, v.MaxUsesPerUser)
	assert.True(t, v.DiscountValue.Equal(decimal.NewFromInt(10)))
	assert.NotNil(t, v.ApplicableProducts)
	assert.NotNil(t, v.AllowedUsers)
	assert.NotNil(t, v.RedeemableDays)
	assert.False(t, v.HasGlobalCap())

	r.Type = TypeFixed
	r.MaxUsesPerUser = intPtr(3)
	r.MaxUses = intPtr(100)
	v = r.ToVoucher()
	assert.True(t, v.DiscountValue.Equal(decimal.NewFromInt(99)))
	assert.Equal(t, 3, v.MaxUsesPerUser)
	assert.True(t, v.HasGlobalCap())

	r.Type = TypeFreeShipping
	assert.Nil(t, r.ToVoucher().DiscountValue)
}

func TestRedeemRequest_Validate(t *testing.T) {
	ok := RedeemRequest{UserID: uuid.New(), Code: "SAVE10", CartValue: decimal.NewFromInt(50)}
	assert.NoError(t, ok.Validate())

	missingUser := ok
	missingUser.UserID = uuid.Nil
	assert.Contains(t, fieldErrors(t, missingUser.Validate()), "user_id")

	negative := ok
	negative.CartValue = decimal.NewFromInt(-5)
	assert.Contains(t, fieldErrors(t, negative.Validate()), "cart_value")
}

func TestVoucher_Status(t *testing.T) {
	v := &Voucher{StartDate: start, EndDate: end}

	assert.Equal(t, StatusScheduled, v.Status(start.Add(-time.Nanosecond)))
	assert.Equal(t, StatusActive, v.Status(start))
	assert.Equal(t, StatusActive, v.Status(end))
	assert.Equal(t, StatusExpired, v.Status(end.Add(time.Nanosecond)))

	assert.True(t, v.IsActiveAt(start))
	assert.True(t, v.IsActiveAt(end))
	assert.False(t, v.IsActiveAt(end.Add(time.Second)))

	resp := NewVoucherResponses([]*Voucher{v}, end.Add(time.Hour))
	require.Len(t, resp, 1)
	assert.Equal(t, StatusExpired, resp[0].Status)
}

func TestVoucher_CloneIsDeep(t *testing.T) {
	v := &Voucher{
		Code:               "SAVE10",
		DiscountValue:      decPtr("10"),
		MaxUses:            intPtr(5),
		ApplicableProducts: []string{"p1"},
		AllowedUsers:       []string{"alice@example.com"},
		RedeemableDays:     []string{"Monday"},
	}

	c := v.Clone()
	c.ApplicableProducts[0] = "changed"
	c.AllowedUsers[0] = "changed"
	*c.MaxUses = 1

	assert.Equal(t, "p1", v.ApplicableProducts[0])
	assert.Equal(t, "alice@example.com", v.AllowedUsers[0])
	assert.Equal(t, 5, *v.MaxUses)
	assert.Nil(t, (*Voucher)(nil).Clone())
}

func TestDenialReason_HTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, DenialNotFound.HTTPStatus())
	assert.Equal(t, http.StatusBadRequest, DenialInactive.HTTPStatus())
	assert.Equal(t, http.StatusForbidden, DenialNotAllowed.HTTPStatus())
	assert.Equal(t, http.StatusForbidden, DenialWrongDay.HTTPStatus())
	assert.Equal(t, http.StatusBadRequest, DenialCartTooLow.HTTPStatus())
	assert.Equal(t, http.StatusBadRequest, DenialProductsMissing.HTTPStatus())
	assert.Equal(t, http.StatusConflict, DenialLimitReached.HTTPStatus())
	assert.Equal(t, http.StatusConflict, DenialExhausted.HTTPStatus())

	assert.Equal(t, []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}, WeekdayNames())
}
