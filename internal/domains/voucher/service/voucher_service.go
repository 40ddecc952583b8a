package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"voucher-backend/internal/domains/voucher/model"
	"voucher-backend/internal/domains/voucher/repository"
)

type voucherService struct {
	repo      repository.VoucherRepository
	validator *DefinitionValidator
	log       zerolog.Logger
}

func NewVoucherService(repo repository.VoucherRepository, validator *DefinitionValidator, log zerolog.Logger) ServiceInterface {
	return &voucherService{
		repo:      repo,
		validator: validator,
		log:       log,
	}
}

// -------------------------------------------------------------------
// CREATE & UPDATE
// -------------------------------------------------------------------

func (s *voucherService) CreateVoucher(ctx context.Context, req *model.VoucherRequest) (*model.Voucher, error) {
	v := req.ToVoucher()

	if err := s.validator.Validate(ctx, v, ModeCreate); err != nil {
		s.logRejected("create", v.Code, err)
		return nil, err
	}

	if err := s.repo.InsertVoucher(ctx, v); err != nil {
		if errors.Is(err, model.ErrDuplicateCode) {
			// lost a race with another create of the same code
			return nil, model.NewDefinitionConflict(
				fmt.Sprintf("Voucher creation failed. Code: %s already exists.", v.Code),
				map[string]interface{}{"code": v.Code},
			)
		}
		return nil, s.storageFailure("insert voucher", v.Code, err)
	}

	s.log.Info().Str("code", v.Code).Str("id", v.ID.String()).Msg("voucher created")
	return v, nil
}

func (s *voucherService) UpdateVoucher(ctx context.Context, code string, req *model.VoucherRequest) (*model.Voucher, error) {
	if _, err := s.repo.FindVoucherByCode(ctx, code); err != nil {
		if errors.Is(err, model.ErrVoucherNotFound) {
			return nil, model.NewVoucherNotFound(code)
		}
		return nil, s.storageFailure("load voucher", code, err)
	}

	v := req.ToVoucher()
	if err := s.validator.Validate(ctx, v, ModeUpdate); err != nil {
		s.logRejected("update", code, err)
		return nil, err
	}

	if err := s.repo.UpdateVoucher(ctx, code, v); err != nil {
		switch {
		case errors.Is(err, model.ErrVoucherNotFound):
			return nil, model.NewVoucherNotFound(code)
		case errors.Is(err, model.ErrDuplicateCode):
			return nil, model.NewDefinitionConflict(
				fmt.Sprintf("Voucher update failed. Code: %s already exists.", v.Code),
				map[string]interface{}{"code": v.Code},
			)
		case errors.Is(err, model.ErrCodeLocked):
			return nil, model.NewDefinitionConflict(
				fmt.Sprintf("Voucher update failed. Code %s has already been redeemed and cannot be renamed.", code),
				map[string]interface{}{"code": code, "new_code": v.Code},
			)
		}
		return nil, s.storageFailure("update voucher", code, err)
	}

	s.log.Info().Str("code", code).Str("new_code", v.Code).Msg("voucher updated")
	return v, nil
}

// -------------------------------------------------------------------
// DELETE & READ
// -------------------------------------------------------------------

func (s *voucherService) DeleteVoucher(ctx context.Context, code string) error {
	if err := s.repo.DeleteVoucher(ctx, code); err != nil {
		if errors.Is(err, model.ErrVoucherNotFound) {
			return model.NewVoucherNotFound(code)
		}
		return s.storageFailure("delete voucher", code, err)
	}

	s.log.Info().Str("code", code).Msg("voucher deleted")
	return nil
}

func (s *voucherService) ListVouchers(ctx context.Context) ([]*model.Voucher, error) {
	vouchers, err := s.repo.ListVouchers(ctx)
	if err != nil {
		return nil, s.storageFailure("list vouchers", "", err)
	}
	return vouchers, nil
}

func (s *voucherService) GetVoucher(ctx context.Context, code string) (*model.Voucher, error) {
	v, err := s.repo.FindVoucherByCode(ctx, code)
	if err != nil {
		if errors.Is(err, model.ErrVoucherNotFound) {
			return nil, model.NewVoucherNotFound(code)
		}
		return nil, s.storageFailure("load voucher", code, err)
	}
	return v, nil
}

func (s *voucherService) logRejected(op, code string, err error) {
	s.log.Warn().Err(err).Str("op", op).Str("code", code).Msg("voucher definition rejected")
}

func (s *voucherService) storageFailure(op, code string, err error) error {
	s.log.Error().Err(err).Str("op", op).Str("code", code).Msg("voucher storage failure")
	return model.NewStorageFailure(op, err)
}
