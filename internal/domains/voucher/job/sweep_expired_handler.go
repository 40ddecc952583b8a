package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"voucher-backend/internal/domains/voucher/model"
)

const (
	TypeSweepExpiredVouchers = "voucher:sweep_expired"
	QueueVoucher             = "default"
)

// SweepExpiredPayload is empty for scheduled runs. FlushCache additionally
// drops every cached definition, expired or not.
type SweepExpiredPayload struct {
	RequestedBy string `json:"requested_by,omitempty"`
	FlushCache  bool   `json:"flush_cache,omitempty"`
}

func NewSweepExpiredTask(payload SweepExpiredPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal sweep payload: %w", err)
	}
	return asynq.NewTask(TypeSweepExpiredVouchers, data), nil
}

type voucherLister interface {
	ListVouchers(ctx context.Context) ([]*model.Voucher, error)
}

type cacheEvicter interface {
	Evict(ctx context.Context, codes ...string)
	Flush(ctx context.Context) error
}

// SweepStats summarizes one sweep.
type SweepStats struct {
	Scheduled int
	Active    int
	Expired   int
	Evicted   []string
}

// SweepExpiredHandler drops expired vouchers from the read cache so stale
// definitions don't linger until their TTL.
type SweepExpiredHandler struct {
	vouchers voucherLister
	cache    cacheEvicter
	now      func() time.Time
	log      zerolog.Logger
}

func NewSweepExpiredHandler(vouchers voucherLister, cache cacheEvicter, now func() time.Time, log zerolog.Logger) *SweepExpiredHandler {
	if now == nil {
		now = time.Now
	}
	return &SweepExpiredHandler{
		vouchers: vouchers,
		cache:    cache,
		now:      now,
		log:      log,
	}
}

func (h *SweepExpiredHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload SweepExpiredPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	stats, err := h.Sweep(ctx)
	if err != nil {
		return err
	}

	if payload.FlushCache {
		if err := h.cache.Flush(ctx); err != nil {
			return err
		}
	}

	h.log.Info().
		Str("requested_by", payload.RequestedBy).
		Bool("flushed", payload.FlushCache).
		Int("scheduled", stats.Scheduled).
		Int("active", stats.Active).
		Int("expired", stats.Expired).
		Int("evicted", len(stats.Evicted)).
		Msg("voucher sweep finished")
	return nil
}

// Sweep classifies every voucher by status and evicts the expired ones.
func (h *SweepExpiredHandler) Sweep(ctx context.Context) (SweepStats, error) {
	var stats SweepStats

	vouchers, err := h.vouchers.ListVouchers(ctx)
	if err != nil {
		return stats, fmt.Errorf("list vouchers: %w", err)
	}

	now := h.now()
	for _, v := range vouchers {
		switch v.Status(now) {
		case model.StatusScheduled:
			stats.Scheduled++
		case model.StatusActive:
			stats.Active++
		case model.StatusExpired:
			stats.Expired++
			stats.Evicted = append(stats.Evicted, v.Code)
		}
	}

	if len(stats.Evicted) > 0 {
		h.cache.Evict(ctx, stats.Evicted...)
	}
	return stats, nil
}
