package repository

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"voucher-backend/internal/domains/voucher/model"
	"voucher-backend/pkg/cache"
)

const (
	voucherKeyPrefix = "voucher:code:"

	// loadTimeout bounds a shared store lookup, which no longer follows the
	// cancellation of the request that started it.
	loadTimeout = 5 * time.Second
)

// VoucherCacheKey is the cache key of a voucher definition.
func VoucherCacheKey(code string) string {
	return voucherKeyPrefix + code
}

// CachedRepository puts a read-through cache in front of voucher lookups.
// Counters are never decided from cached data: IncrementUsage always goes to
// the wrapped store, which checks both caps against the stored row.
type CachedRepository struct {
	next  VoucherRepository
	cache cache.Cache
	ttl   time.Duration
	group singleflight.Group
	log   zerolog.Logger

	// epoch is bumped before every eviction. A load that saw the epoch move
	// while it was running drops what it cached, so a definition read before
	// a write cannot outlive the write's eviction.
	epoch atomic.Uint64
}

func NewCachedRepository(next VoucherRepository, c cache.Cache, ttl time.Duration, log zerolog.Logger) *CachedRepository {
	return &CachedRepository{
		next:  next,
		cache: c,
		ttl:   ttl,
		log:   log,
	}
}

func (r *CachedRepository) FindVoucherByCode(ctx context.Context, code string) (*model.Voucher, error) {
	key := VoucherCacheKey(code)

	var cached model.Voucher
	found, err := r.cache.Get(ctx, key, &cached)
	if err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("voucher cache read failed")
	} else if found {
		return &cached, nil
	}

	// Concurrent misses for the same code share one store round trip. The
	// caller waits on its own context; the shared load runs on its own.
	ch := r.group.DoChan(key, func() (interface{}, error) {
		return r.load(ctx, key, code)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.Voucher).Clone(), nil
	}
}

func (r *CachedRepository) load(ctx context.Context, key, code string) (*model.Voucher, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
	defer cancel()

	epoch := r.epoch.Load()

	v, err := r.next.FindVoucherByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, key, v, r.ttl); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("voucher cache write failed")
		return v, nil
	}
	if r.epoch.Load() != epoch {
		if err := r.cache.Delete(ctx, key); err != nil {
			r.log.Warn().Err(err).Str("key", key).Msg("voucher cache rollback failed")
		}
	}
	return v, nil
}

func (r *CachedRepository) InsertVoucher(ctx context.Context, v *model.Voucher) error {
	if err := r.next.InsertVoucher(ctx, v); err != nil {
		return err
	}
	r.Evict(ctx, v.Code)
	return nil
}

func (r *CachedRepository) UpdateVoucher(ctx context.Context, code string, v *model.Voucher) error {
	if err := r.next.UpdateVoucher(ctx, code, v); err != nil {
		return err
	}
	r.Evict(ctx, code, v.Code)
	return nil
}

func (r *CachedRepository) DeleteVoucher(ctx context.Context, code string) error {
	if err := r.next.DeleteVoucher(ctx, code); err != nil {
		return err
	}
	r.Evict(ctx, code)
	return nil
}

func (r *CachedRepository) ListVouchers(ctx context.Context) ([]*model.Voucher, error) {
	return r.next.ListVouchers(ctx)
}

func (r *CachedRepository) FindUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.next.FindUser(ctx, id)
}

func (r *CachedRepository) FindUsageRecord(ctx context.Context, userID, voucherID uuid.UUID) (*model.UsageRecord, error) {
	return r.next.FindUsageRecord(ctx, userID, voucherID)
}

// IncrementUsage leaves the cache alone. A cached redemption_count may lag
// until the entry expires.
func (r *CachedRepository) IncrementUsage(ctx context.Context, inc model.UsageIncrement) (*model.UsageRecord, model.IncrementOutcome, error) {
	return r.next.IncrementUsage(ctx, inc)
}

// Evict removes cached definitions. Failures are logged, not returned: the
// entry still expires with its TTL.
func (r *CachedRepository) Evict(ctx context.Context, codes ...string) {
	r.epoch.Add(1)

	keys := make([]string, 0, len(codes))
	for _, c := range codes {
		keys = append(keys, VoucherCacheKey(c))
	}
	if err := r.cache.Delete(ctx, keys...); err != nil {
		r.log.Warn().Err(err).Strs("keys", keys).Msg("voucher cache eviction failed")
	}
}

// Flush drops every cached voucher definition.
func (r *CachedRepository) Flush(ctx context.Context) error {
	r.epoch.Add(1)

	if err := r.cache.DeletePattern(ctx, voucherKeyPrefix+"*"); err != nil {
		return fmt.Errorf("flush voucher cache: %w", err)
	}
	return nil
}
