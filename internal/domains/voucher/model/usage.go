package model

import (
	"time"

	"github.com/google/uuid"
)

// UsageRecord tracks how often one user redeemed one voucher.
// UseCount always equals len(RedeemedAt).
type UsageRecord struct {
	ID         uuid.UUID   `json:"id"`
	UserID     uuid.UUID   `json:"user_id"`
	VoucherID  uuid.UUID   `json:"voucher_id"`
	UseCount   int         `json:"use_count"`
	RedeemedAt []time.Time `json:"redeemed_at"`
}

func (u *UsageRecord) Clone() *UsageRecord {
	if u == nil {
		return nil
	}
	c := *u
	c.RedeemedAt = make([]time.Time, len(u.RedeemedAt))
	copy(c.RedeemedAt, u.RedeemedAt)
	return &c
}

// UsageIncrement is the input of the atomic commit step. The per-user and
// global caps are read from storage at commit time, never from the caller.
type UsageIncrement struct {
	UserID    uuid.UUID
	VoucherID uuid.UUID
	At        time.Time
}

type IncrementOutcome string

const (
	OutcomeCreated     IncrementOutcome = "created"
	OutcomeIncremented IncrementOutcome = "incremented"
)
