package model

import "net/http"

// DenialReason names the first eligibility rule a redemption attempt failed.
type DenialReason string

const (
	DenialNotFound        DenialReason = "VOUCHER_NOT_FOUND"
	DenialInactive        DenialReason = "VOUCHER_INACTIVE"
	DenialNotAllowed      DenialReason = "VOUCHER_USER_NOT_ALLOWED"
	DenialWrongDay        DenialReason = "VOUCHER_WRONG_DAY"
	DenialCartTooLow      DenialReason = "VOUCHER_CART_TOO_LOW"
	DenialProductsMissing DenialReason = "VOUCHER_PRODUCTS_MISSING"
	DenialLimitReached    DenialReason = "VOUCHER_LIMIT_REACHED"
	DenialExhausted       DenialReason = "VOUCHER_EXHAUSTED"
)

func (r DenialReason) HTTPStatus() int {
	switch r {
	case DenialNotFound:
		return http.StatusNotFound
	case DenialNotAllowed, DenialWrongDay:
		return http.StatusForbidden
	case DenialLimitReached, DenialExhausted:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

type Denial struct {
	Reason  DenialReason           `json:"reason"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// RedemptionResult is what the engine returns for every attempt that did not
// hit a system fault. Denials are values here, not errors.
type RedemptionResult struct {
	Redeemed bool             `json:"redeemed"`
	Code     string           `json:"code"`
	Message  string           `json:"message"`
	Denial   *Denial          `json:"denial,omitempty"`
	Usage    *UsageRecord     `json:"usage,omitempty"`
	Outcome  IncrementOutcome `json:"outcome,omitempty"`
}

func (r *RedemptionResult) Denied() bool {
	return r.Denial != nil
}

// Reason returns "" when the attempt was not denied.
func (r *RedemptionResult) Reason() DenialReason {
	if r.Denial == nil {
		return ""
	}
	return r.Denial.Reason
}
