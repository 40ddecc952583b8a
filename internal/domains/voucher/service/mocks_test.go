package service_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"voucher-backend/internal/domains/voucher/model"
)

// mockRepository is a testify mock of repository.VoucherRepository.
type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) FindVoucherByCode(ctx context.Context, code string) (*model.Voucher, error) {
	args := m.Called(ctx, code)
	v, _ := args.Get(0).(*model.Voucher)
	return v, args.Error(1)
}

func (m *mockRepository) InsertVoucher(ctx context.Context, v *model.Voucher) error {
	return m.Called(ctx, v).Error(0)
}

func (m *mockRepository) UpdateVoucher(ctx context.Context, code string, v *model.Voucher) error {
	return m.Called(ctx, code, v).Error(0)
}

func (m *mockRepository) DeleteVoucher(ctx context.Context, code string) error {
	return m.Called(ctx, code).Error(0)
}

func (m *mockRepository) ListVouchers(ctx context.Context) ([]*model.Voucher, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]*model.Voucher)
	return list, args.Error(1)
}

func (m *mockRepository) FindUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *mockRepository) FindUsageRecord(ctx context.Context, userID, voucherID uuid.UUID) (*model.UsageRecord, error) {
	args := m.Called(ctx, userID, voucherID)
	rec, _ := args.Get(0).(*model.UsageRecord)
	return rec, args.Error(1)
}

func (m *mockRepository) IncrementUsage(ctx context.Context, inc model.UsageIncrement) (*model.UsageRecord, model.IncrementOutcome, error) {
	args := m.Called(ctx, inc)
	rec, _ := args.Get(0).(*model.UsageRecord)
	outcome, _ := args.Get(1).(model.IncrementOutcome)
	return rec, outcome, args.Error(2)
}
