package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"voucher-backend/internal/domains/voucher/model"
	"voucher-backend/internal/domains/voucher/repository"
)

const (
	msgRedeemed   = "Voucher redeemed successfully"
	msgRedeemable = "Voucher can be redeemed"
)

// RedemptionEngine evaluates eligibility and records redemptions.
// It keeps no state of its own; concurrency safety comes from the store's
// IncrementUsage.
type RedemptionEngine struct {
	repo repository.VoucherRepository
	now  Clock
	loc  *time.Location
	log  zerolog.Logger
}

// NewRedemptionEngine builds an engine. loc decides which calendar day the
// redeemable-days rule sees; nil means UTC.
func NewRedemptionEngine(repo repository.VoucherRepository, now Clock, loc *time.Location, log zerolog.Logger) *RedemptionEngine {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &RedemptionEngine{repo: repo, now: now, loc: loc, log: log}
}

// -------------------------------------------------------------------
// REDEEM
// -------------------------------------------------------------------

func (e *RedemptionEngine) Redeem(ctx context.Context, req *model.RedeemRequest) (*model.RedemptionResult, error) {
	now := e.now()

	voucher, denial, err := e.evaluate(ctx, req, now)
	if err != nil {
		return nil, err
	}
	if denial != nil {
		return e.deny(req, denial), nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec, outcome, err := e.repo.IncrementUsage(ctx, model.UsageIncrement{
		UserID:    req.UserID,
		VoucherID: voucher.ID,
		At:        now,
	})
	if err != nil {
		switch {
		case errors.Is(err, model.ErrUsageLimitReached):
			return e.deny(req, limitReached(voucher)), nil
		case errors.Is(err, model.ErrVoucherExhausted):
			return e.deny(req, &model.Denial{
				Reason:  model.DenialExhausted,
				Message: fmt.Sprintf("Voucher %s has no redemptions left.", voucher.Code),
				Details: map[string]interface{}{"max_uses": voucher.MaxUses},
			}), nil
		case errors.Is(err, model.ErrVoucherNotFound):
			return e.deny(req, notFound(req.Code)), nil
		case errors.Is(err, model.ErrUserNotFound):
			return nil, model.NewUserUnresolved(req.UserID.String(), err)
		}
		return nil, e.storageFailure("commit redemption", req, err)
	}

	e.log.Info().
		Str("code", voucher.Code).
		Str("user_id", req.UserID.String()).
		Int("use_count", rec.UseCount).
		Str("outcome", string(outcome)).
		Msg("voucher redeemed")

	return &model.RedemptionResult{
		Redeemed: true,
		Code:     voucher.Code,
		Message:  msgRedeemed,
		Usage:    rec,
		Outcome:  outcome,
	}, nil
}

// Check answers "would Redeem succeed right now" without writing.
// A concurrent redemption can still win the race afterwards.
func (e *RedemptionEngine) Check(ctx context.Context, req *model.RedeemRequest) (*model.RedemptionResult, error) {
	_, denial, err := e.evaluate(ctx, req, e.now())
	if err != nil {
		return nil, err
	}
	if denial != nil {
		return &model.RedemptionResult{Code: req.Code, Message: denial.Message, Denial: denial}, nil
	}
	return &model.RedemptionResult{Code: req.Code, Message: msgRedeemable}, nil
}

// -------------------------------------------------------------------
// RULE CHAIN
// -------------------------------------------------------------------

// evaluate runs the eligibility rules in order and stops at the first one
// that fails. The order is part of the contract: callers see the reason of
// the earliest violated rule.
func (e *RedemptionEngine) evaluate(ctx context.Context, req *model.RedeemRequest, now time.Time) (*model.Voucher, *model.Denial, error) {
	// Step 1: voucher exists
	voucher, err := e.repo.FindVoucherByCode(ctx, req.Code)
	if err != nil {
		if errors.Is(err, model.ErrVoucherNotFound) {
			return nil, notFound(req.Code), nil
		}
		return nil, nil, e.storageFailure("load voucher", req, err)
	}

	// Step 2: inside the active window, both ends inclusive
	if !voucher.IsActiveAt(now) {
		return nil, &model.Denial{
			Reason:  model.DenialInactive,
			Message: fmt.Sprintf("Voucher with code %s is not active.", voucher.Code),
			Details: map[string]interface{}{
				"status":     voucher.Status(now),
				"start_date": voucher.StartDate,
				"end_date":   voucher.EndDate,
			},
		}, nil
	}

	// Step 3: user lookup. A missing user is a data problem, not a denial.
	user, err := e.repo.FindUser(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			e.log.Error().Str("user_id", req.UserID.String()).Msg("redeeming user does not exist")
			return nil, nil, model.NewUserUnresolved(req.UserID.String(), err)
		}
		return nil, nil, e.storageFailure("load user", req, err)
	}

	// Step 4: allow-list
	if len(voucher.AllowedUsers) > 0 && !contains(voucher.AllowedUsers, user.Email) {
		return nil, &model.Denial{
			Reason:  model.DenialNotAllowed,
			Message: "User not allowed to redeem this voucher.",
		}, nil
	}

	// Step 5: weekday in the engine's location
	today := now.In(e.loc).Weekday().String()
	if len(voucher.RedeemableDays) > 0 && !contains(voucher.RedeemableDays, today) {
		return nil, &model.Denial{
			Reason:  model.DenialWrongDay,
			Message: "Voucher cannot be redeemed today",
			Details: map[string]interface{}{
				"today":           today,
				"redeemable_days": voucher.RedeemableDays,
			},
		}, nil
	}

	// Step 6: minimum cart value
	if voucher.MinCartValue != nil && req.CartValue.LessThan(*voucher.MinCartValue) {
		return nil, &model.Denial{
			Reason:  model.DenialCartTooLow,
			Message: "Cart value is less than the minimum cart value required to redeem this voucher",
			Details: map[string]interface{}{
				"min_cart_value": voucher.MinCartValue,
				"cart_value":     req.CartValue,
				"needed_amount":  voucher.MinCartValue.Sub(req.CartValue),
			},
		}, nil
	}

	// Step 7: every applicable product is in the cart
	if voucher.Target == model.TargetProduct && len(voucher.ApplicableProducts) > 0 {
		if missing := missingProducts(voucher.ApplicableProducts, req.ProductsInCart); len(missing) > 0 {
			return nil, &model.Denial{
				Reason:  model.DenialProductsMissing,
				Message: "Cart does not contain all the products on which the voucher is redeemable",
				Details: map[string]interface{}{"missing_products": missing},
			}, nil
		}
	}

	// Step 8: per-user limit as currently stored
	rec, err := e.repo.FindUsageRecord(ctx, req.UserID, voucher.ID)
	switch {
	case errors.Is(err, model.ErrUsageNotFound):
		// first redemption for this user
	case err != nil:
		return nil, nil, e.storageFailure("load usage record", req, err)
	case rec.UseCount >= voucher.MaxUsesPerUser:
		return nil, limitReached(voucher), nil
	}

	return voucher, nil, nil
}

// -------------------------------------------------------------------
// HELPERS
// -------------------------------------------------------------------

func (e *RedemptionEngine) deny(req *model.RedeemRequest, d *model.Denial) *model.RedemptionResult {
	e.log.Info().
		Str("code", req.Code).
		Str("user_id", req.UserID.String()).
		Str("reason", string(d.Reason)).
		Msg("voucher redemption denied")

	return &model.RedemptionResult{
		Code:    req.Code,
		Message: d.Message,
		Denial:  d,
	}
}

func (e *RedemptionEngine) storageFailure(op string, req *model.RedeemRequest, err error) error {
	e.log.Error().
		Err(err).
		Str("op", op).
		Str("code", req.Code).
		Str("user_id", req.UserID.String()).
		Msg("voucher storage failure")
	return model.NewStorageFailure(op, err)
}

func notFound(code string) *model.Denial {
	return &model.Denial{
		Reason:  model.DenialNotFound,
		Message: fmt.Sprintf("Voucher with code %s not found.", code),
	}
}

func limitReached(v *model.Voucher) *model.Denial {
	return &model.Denial{
		Reason:  model.DenialLimitReached,
		Message: fmt.Sprintf("Maximum redemption limit for %s reached.", v.Code),
		Details: map[string]interface{}{"max_uses_per_user": v.MaxUsesPerUser},
	}
}

func contains(list []string, item string) bool {
	for _, s := range list {
		if s == item {
			return true
		}
	}
	return false
}

func missingProducts(required, cart []string) []string {
	inCart := make(map[string]struct{}, len(cart))
	for _, p := range cart {
		inCart[p] = struct{}{}
	}

	var missing []string
	for _, p := range required {
		if _, ok := inCart[p]; !ok {
			missing = append(missing, p)
		}
	}
	return missing
}
