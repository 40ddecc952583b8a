package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"voucher-backend/internal/domains/voucher/model"
	"voucher-backend/internal/domains/voucher/repository"
	"voucher-backend/internal/domains/voucher/service"
)

func newVoucherService(repo *repository.MemoryRepository) service.ServiceInterface {
	return service.NewVoucherService(repo, newValidator(repo), zerolog.Nop())
}

func voucherRequest(code string) *model.VoucherRequest {
	return &model.VoucherRequest{
		Code:               code,
		Type:               model.TypePercentage,
		Target:             model.TargetCart,
		PercentageDiscount: dec(10),
		FixedDiscount:      dec(99),
		StartDate:          fixedNow.Add(24 * time.Hour),
		EndDate:            fixedNow.Add(7 * 24 * time.Hour),
	}
}

func requireAppError(t *testing.T, err error, code model.ErrorCode, status int) *model.AppError {
	t.Helper()

	appErr, ok := model.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
	assert.Equal(t, status, appErr.HTTPStatus)
	return appErr
}

func TestVoucherService_Create(t *testing.T) {
	repo := repository.NewMemoryRepository()
	svc := newVoucherService(repo)
	ctx := context.Background()

	v, err := svc.CreateVoucher(ctx, voucherRequest("SAVE10"))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, v.ID)
	assert.Equal(t, 1, v.MaxUsesPerUser)
	assert.True(t, v.DiscountValue.Equal(*dec(10)), "percentage discount is taken for percentage vouchers")
	assert.Empty(t, v.AllowedUsers)
	assert.NotNil(t, v.AllowedUsers)

	stored, err := svc.GetVoucher(ctx, "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, v.ID, stored.ID)

	_, err = svc.CreateVoucher(ctx, voucherRequest("SAVE10"))
	appErr := requireAppError(t, err, model.ErrCodeDefinitionConflict, http.StatusConflict)
	assert.Equal(t, "Voucher creation failed. Code: SAVE10 already exists.", appErr.Message)
}

func TestVoucherService_CreateRejectsPastWindow(t *testing.T) {
	svc := newVoucherService(repository.NewMemoryRepository())

	req := voucherRequest("OLD")
	req.StartDate = fixedNow.Add(-time.Hour)

	_, err := svc.CreateVoucher(context.Background(), req)
	requireAppError(t, err, model.ErrCodeDefinitionConflict, http.StatusConflict)

	list, err := svc.ListVouchers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestVoucherService_Update(t *testing.T) {
	repo := repository.NewMemoryRepository()
	svc := newVoucherService(repo)
	ctx := context.Background()

	created, err := svc.CreateVoucher(ctx, voucherRequest("SAVE10"))
	require.NoError(t, err)

	req := voucherRequest("SAVE15")
	req.PercentageDiscount = dec(15)
	updated, err := svc.UpdateVoucher(ctx, "SAVE10", req)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "SAVE15", updated.Code)

	_, err = svc.GetVoucher(ctx, "SAVE10")
	requireAppError(t, err, model.ErrCodeVoucherNotFound, http.StatusNotFound)

	_, err = svc.UpdateVoucher(ctx, "MISSING", voucherRequest("MISSING"))
	appErr := requireAppError(t, err, model.ErrCodeVoucherNotFound, http.StatusNotFound)
	assert.Equal(t, "Voucher with code MISSING not found.", appErr.Message)
}

func TestVoucherService_UpdateCodeLockedAfterRedemption(t *testing.T) {
	repo := repository.NewMemoryRepository()
	svc := newVoucherService(repo)
	ctx := context.Background()

	user := &model.User{ID: uuid.New(), Email: "alice@example.com"}
	repo.AddUser(user)

	created, err := svc.CreateVoucher(ctx, voucherRequest("SAVE10"))
	require.NoError(t, err)
	_, _, err = repo.IncrementUsage(ctx, model.UsageIncrement{
		UserID:    user.ID,
		VoucherID: created.ID,
		At:        fixedNow,
	})
	require.NoError(t, err)

	_, err = svc.UpdateVoucher(ctx, "SAVE10", voucherRequest("RENAMED"))
	requireAppError(t, err, model.ErrCodeDefinitionConflict, http.StatusConflict)

	// same code is still editable
	req := voucherRequest("SAVE10")
	req.PercentageDiscount = dec(20)
	updated, err := svc.UpdateVoucher(ctx, "SAVE10", req)
	require.NoError(t, err)
	assert.True(t, updated.DiscountValue.Equal(*dec(20)))
}

func TestVoucherService_UpdateToTakenCode(t *testing.T) {
	repo := repository.NewMemoryRepository()
	svc := newVoucherService(repo)
	ctx := context.Background()

	_, err := svc.CreateVoucher(ctx, voucherRequest("A"))
	require.NoError(t, err)
	_, err = svc.CreateVoucher(ctx, voucherRequest("B"))
	require.NoError(t, err)

	_, err = svc.UpdateVoucher(ctx, "A", voucherRequest("B"))
	appErr := requireAppError(t, err, model.ErrCodeDefinitionConflict, http.StatusConflict)
	assert.Equal(t, "Voucher update failed. Code: B already exists.", appErr.Message)
}

func TestVoucherService_Delete(t *testing.T) {
	repo := repository.NewMemoryRepository()
	svc := newVoucherService(repo)
	ctx := context.Background()

	_, err := svc.CreateVoucher(ctx, voucherRequest("SAVE10"))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteVoucher(ctx, "SAVE10"))
	_, err = svc.GetVoucher(ctx, "SAVE10")
	requireAppError(t, err, model.ErrCodeVoucherNotFound, http.StatusNotFound)

	err = svc.DeleteVoucher(ctx, "SAVE10")
	requireAppError(t, err, model.ErrCodeVoucherNotFound, http.StatusNotFound)
}

func TestVoucherService_StorageFailures(t *testing.T) {
	boom := errors.New("db down")

	repo := new(mockRepository)
	repo.On("ListVouchers", mock.Anything).Return(nil, boom)
	repo.On("DeleteVoucher", mock.Anything, "SAVE10").Return(boom)
	repo.On("FindVoucherByCode", mock.Anything, "SAVE10").Return(nil, boom)

	svc := service.NewVoucherService(repo, service.NewDefinitionValidator(repo, nil), zerolog.Nop())
	ctx := context.Background()

	_, err := svc.ListVouchers(ctx)
	appErr := requireAppError(t, err, model.ErrCodeStorageFailure, http.StatusInternalServerError)
	assert.NotContains(t, appErr.Message, "db down")

	err = svc.DeleteVoucher(ctx, "SAVE10")
	requireAppError(t, err, model.ErrCodeStorageFailure, http.StatusInternalServerError)

	_, err = svc.GetVoucher(ctx, "SAVE10")
	requireAppError(t, err, model.ErrCodeStorageFailure, http.StatusInternalServerError)

	repo.AssertExpectations(t)
}
