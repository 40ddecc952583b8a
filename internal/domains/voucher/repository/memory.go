package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"voucher-backend/internal/domains/voucher/model"
)

type usageKey struct {
	userID    uuid.UUID
	voucherID uuid.UUID
}

// MemoryRepository keeps everything in process memory behind one mutex.
// Every method is atomic, so IncrementUsage gives the same guarantees as the
// Postgres upsert.
type MemoryRepository struct {
	mu       sync.Mutex
	vouchers map[string]*model.Voucher
	codeByID map[uuid.UUID]string
	users    map[uuid.UUID]*model.User
	usages   map[usageKey]*model.UsageRecord
	now      func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		vouchers: make(map[string]*model.Voucher),
		codeByID: make(map[uuid.UUID]string),
		users:    make(map[uuid.UUID]*model.User),
		usages:   make(map[usageKey]*model.UsageRecord),
		now:      time.Now,
	}
}

// AddUser seeds a user. Users are read-only through VoucherRepository.
func (r *MemoryRepository) AddUser(u *model.User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *u
	r.users[u.ID] = &cp
}

// -------------------------------------------------------------------
// VOUCHERS
// -------------------------------------------------------------------

func (r *MemoryRepository) FindVoucherByCode(ctx context.Context, code string) (*model.Voucher, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.vouchers[code]
	if !ok {
		return nil, model.ErrVoucherNotFound
	}
	return v.Clone(), nil
}

func (r *MemoryRepository) InsertVoucher(ctx context.Context, v *model.Voucher) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.vouchers[v.Code]; exists {
		return model.ErrDuplicateCode
	}

	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	now := r.now()
	v.CreatedAt, v.UpdatedAt = now, now
	v.RedemptionCount = 0

	r.vouchers[v.Code] = v.Clone()
	r.codeByID[v.ID] = v.Code
	return nil
}

func (r *MemoryRepository) UpdateVoucher(ctx context.Context, code string, v *model.Voucher) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.vouchers[code]
	if !ok {
		return model.ErrVoucherNotFound
	}

	if v.Code != code {
		if _, taken := r.vouchers[v.Code]; taken {
			return model.ErrDuplicateCode
		}
		if r.hasUsagesLocked(current.ID) {
			return model.ErrCodeLocked
		}
	}

	v.ID = current.ID
	v.CreatedAt = current.CreatedAt
	v.RedemptionCount = current.RedemptionCount
	v.UpdatedAt = r.now()

	delete(r.vouchers, code)
	r.vouchers[v.Code] = v.Clone()
	r.codeByID[v.ID] = v.Code
	return nil
}

func (r *MemoryRepository) DeleteVoucher(ctx context.Context, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.vouchers[code]
	if !ok {
		return model.ErrVoucherNotFound
	}

	delete(r.vouchers, code)
	delete(r.codeByID, v.ID)
	for k := range r.usages {
		if k.voucherID == v.ID {
			delete(r.usages, k)
		}
	}
	return nil
}

func (r *MemoryRepository) ListVouchers(ctx context.Context) ([]*model.Voucher, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	out := make([]*model.Voucher, 0, len(r.vouchers))
	for _, v := range r.vouchers {
		out = append(out, v.Clone())
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].Code < out[j].Code
		}
		return out[i].StartDate.Before(out[j].StartDate)
	})
	return out, nil
}

// -------------------------------------------------------------------
// USERS & USAGE
// -------------------------------------------------------------------

func (r *MemoryRepository) FindUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryRepository) FindUsageRecord(ctx context.Context, userID, voucherID uuid.UUID) (*model.UsageRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.usages[usageKey{userID, voucherID}]
	if !ok {
		return nil, model.ErrUsageNotFound
	}
	return rec.Clone(), nil
}

func (r *MemoryRepository) IncrementUsage(ctx context.Context, inc model.UsageIncrement) (*model.UsageRecord, model.IncrementOutcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	code, ok := r.codeByID[inc.VoucherID]
	if !ok {
		return nil, "", model.ErrVoucherNotFound
	}
	v := r.vouchers[code]

	key := usageKey{inc.UserID, inc.VoucherID}
	rec := r.usages[key]
	if rec != nil && rec.UseCount >= v.MaxUsesPerUser {
		return nil, "", model.ErrUsageLimitReached
	}
	if v.HasGlobalCap() && v.RedemptionCount >= *v.MaxUses {
		return nil, "", model.ErrVoucherExhausted
	}

	outcome := model.OutcomeIncremented
	if rec == nil {
		rec = &model.UsageRecord{
			ID:        uuid.New(),
			UserID:    inc.UserID,
			VoucherID: inc.VoucherID,
		}
		r.usages[key] = rec
		outcome = model.OutcomeCreated
	}
	rec.UseCount++
	rec.RedeemedAt = append(rec.RedeemedAt, inc.At)
	v.RedemptionCount++

	return rec.Clone(), outcome, nil
}

func (r *MemoryRepository) hasUsagesLocked(voucherID uuid.UUID) bool {
	for k := range r.usages {
		if k.voucherID == voucherID {
			return true
		}
	}
	return false
}
