package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"voucher-backend/internal/domains/voucher/model"
	"voucher-backend/pkg/database"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	constraintVoucherCode = "vouchers_code_key"
	constraintUsageUser   = "voucher_usages_user_id_fkey"
)

const voucherColumns = `
	id, code, type, target,
	discount_value, applicable_products,
	start_date, end_date,
	max_uses, max_uses_per_user,
	allowed_users, redeemable_days,
	min_cart_value, max_discount_amount,
	redemption_count, created_at, updated_at`

// PostgresRepository implements VoucherRepository on PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// -------------------------------------------------------------------
// READ OPERATIONS
// -------------------------------------------------------------------

// FindVoucherByCode matches the code exactly; codes are case-sensitive.
func (r *PostgresRepository) FindVoucherByCode(ctx context.Context, code string) (*model.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE code = $1`

	v, err := scanVoucher(r.db.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrVoucherNotFound
		}
		return nil, fmt.Errorf("find voucher by code: %w", err)
	}
	return v, nil
}

func (r *PostgresRepository) ListVouchers(ctx context.Context) ([]*model.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers ORDER BY start_date ASC, code ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list vouchers: %w", err)
	}
	defer rows.Close()

	vouchers := make([]*model.Voucher, 0)
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, fmt.Errorf("scan voucher: %w", err)
		}
		vouchers = append(vouchers, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vouchers: %w", err)
	}

	return vouchers, nil
}

func (r *PostgresRepository) FindUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `SELECT id, email, role FROM users WHERE id = $1`

	var u model.User
	err := r.db.QueryRow(ctx, query, id).Scan(&u.ID, &u.Email, &u.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (r *PostgresRepository) FindUsageRecord(ctx context.Context, userID, voucherID uuid.UUID) (*model.UsageRecord, error) {
	query := `
		SELECT id, user_id, voucher_id, use_count, redeemed_at
		FROM voucher_usages
		WHERE user_id = $1 AND voucher_id = $2
	`

	var rec model.UsageRecord
	err := r.db.QueryRow(ctx, query, userID, voucherID).Scan(
		&rec.ID, &rec.UserID, &rec.VoucherID, &rec.UseCount, &rec.RedeemedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrUsageNotFound
		}
		return nil, fmt.Errorf("find usage record: %w", err)
	}
	return &rec, nil
}

// -------------------------------------------------------------------
// WRITE OPERATIONS
// -------------------------------------------------------------------

func (r *PostgresRepository) InsertVoucher(ctx context.Context, v *model.Voucher) error {
	query := `
		INSERT INTO vouchers (
			code, type, target,
			discount_value, applicable_products,
			start_date, end_date,
			max_uses, max_uses_per_user,
			allowed_users, redeemable_days,
			min_cart_value, max_discount_amount
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, redemption_count, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		v.Code, string(v.Type), string(v.Target),
		v.DiscountValue, pq.Array(v.ApplicableProducts),
		v.StartDate, v.EndDate,
		v.MaxUses, v.MaxUsesPerUser,
		pq.Array(v.AllowedUsers), pq.Array(v.RedeemableDays),
		v.MinCartValue, v.MaxDiscountAmount,
	).Scan(&v.ID, &v.RedemptionCount, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if isViolation(err, pgUniqueViolation, constraintVoucherCode) {
			return model.ErrDuplicateCode
		}
		return fmt.Errorf("insert voucher: %w", err)
	}

	return nil
}

// UpdateVoucher locks the row first so no redemption can add a usage record
// between the code-lock check and the write.
func (r *PostgresRepository) UpdateVoucher(ctx context.Context, code string, v *model.Voucher) error {
	return database.WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		var id uuid.UUID
		err := tx.QueryRow(ctx, `SELECT id FROM vouchers WHERE code = $1 FOR UPDATE`, code).Scan(&id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrVoucherNotFound
			}
			return fmt.Errorf("lock voucher: %w", err)
		}

		if v.Code != code {
			var used bool
			err := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM voucher_usages WHERE voucher_id = $1)`, id,
			).Scan(&used)
			if err != nil {
				return fmt.Errorf("check voucher usage: %w", err)
			}
			if used {
				return model.ErrCodeLocked
			}
		}

		query := `
			UPDATE vouchers SET
				code = $2, type = $3, target = $4,
				discount_value = $5, applicable_products = $6,
				start_date = $7, end_date = $8,
				max_uses = $9, max_uses_per_user = $10,
				allowed_users = $11, redeemable_days = $12,
				min_cart_value = $13, max_discount_amount = $14,
				updated_at = NOW()
			WHERE id = $1
			RETURNING ` + voucherColumns

		updated, err := scanVoucher(tx.QueryRow(ctx, query,
			id,
			v.Code, string(v.Type), string(v.Target),
			v.DiscountValue, pq.Array(v.ApplicableProducts),
			v.StartDate, v.EndDate,
			v.MaxUses, v.MaxUsesPerUser,
			pq.Array(v.AllowedUsers), pq.Array(v.RedeemableDays),
			v.MinCartValue, v.MaxDiscountAmount,
		))
		if err != nil {
			if isViolation(err, pgUniqueViolation, constraintVoucherCode) {
				return model.ErrDuplicateCode
			}
			return fmt.Errorf("update voucher: %w", err)
		}

		*v = *updated
		return nil
	})
}

// DeleteVoucher removes the voucher; usage records go with it (ON DELETE CASCADE).
func (r *PostgresRepository) DeleteVoucher(ctx context.Context, code string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM vouchers WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("delete voucher: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrVoucherNotFound
	}
	return nil
}

// IncrementUsage is the commit step of a redemption.
//
// The upsert only touches an existing row while use_count is below the cap
// stored on the voucher row, and ON CONFLICT serializes concurrent first-time
// inserts through the unique key, so a lost race surfaces as "no row
// returned". The global counter is bumped in the same transaction under the
// same kind of guard.
func (r *PostgresRepository) IncrementUsage(ctx context.Context, inc model.UsageIncrement) (*model.UsageRecord, model.IncrementOutcome, error) {
	type committed struct {
		rec     *model.UsageRecord
		outcome model.IncrementOutcome
	}

	res, err := database.WithTransactionResult(ctx, r.db, func(tx pgx.Tx) (committed, error) {
		upsert := `
			INSERT INTO voucher_usages (user_id, voucher_id, use_count, redeemed_at)
			VALUES ($1, $2, 1, ARRAY[$3::timestamptz])
			ON CONFLICT (user_id, voucher_id) DO UPDATE
				SET use_count   = voucher_usages.use_count + 1,
				    redeemed_at = array_append(voucher_usages.redeemed_at, $3::timestamptz)
				WHERE voucher_usages.use_count < (
					SELECT max_uses_per_user FROM vouchers WHERE id = EXCLUDED.voucher_id
				)
			RETURNING id, user_id, voucher_id, use_count, redeemed_at, (xmax = 0) AS inserted
		`

		var rec model.UsageRecord
		var inserted bool
		err := tx.QueryRow(ctx, upsert, inc.UserID, inc.VoucherID, inc.At.UTC()).Scan(
			&rec.ID, &rec.UserID, &rec.VoucherID, &rec.UseCount, &rec.RedeemedAt, &inserted,
		)
		if err != nil {
			switch {
			case errors.Is(err, pgx.ErrNoRows):
				return committed{}, model.ErrUsageLimitReached
			case isViolation(err, pgForeignKeyViolation, constraintUsageUser):
				return committed{}, model.ErrUserNotFound
			case isViolation(err, pgForeignKeyViolation, ""):
				return committed{}, model.ErrVoucherNotFound
			}
			return committed{}, fmt.Errorf("upsert usage: %w", err)
		}

		tag, err := tx.Exec(ctx, `
			UPDATE vouchers
			SET redemption_count = redemption_count + 1
			WHERE id = $1 AND (max_uses IS NULL OR redemption_count < max_uses)
		`, inc.VoucherID)
		if err != nil {
			return committed{}, fmt.Errorf("bump redemption count: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return committed{}, model.ErrVoucherExhausted
		}

		outcome := model.OutcomeIncremented
		if inserted {
			outcome = model.OutcomeCreated
		}
		return committed{rec: &rec, outcome: outcome}, nil
	})
	if err != nil {
		return nil, "", err
	}

	return res.rec, res.outcome, nil
}

// -------------------------------------------------------------------
// HELPERS
// -------------------------------------------------------------------

func scanVoucher(row pgx.Row) (*model.Voucher, error) {
	var (
		v                                model.Voucher
		voucherType, target              string
		discount, minCart, maxDiscount   decimal.NullDecimal
		products, allowedUsers, weekdays []string
	)

	err := row.Scan(
		&v.ID, &v.Code, &voucherType, &target,
		&discount, &products,
		&v.StartDate, &v.EndDate,
		&v.MaxUses, &v.MaxUsesPerUser,
		&allowedUsers, &weekdays,
		&minCart, &maxDiscount,
		&v.RedemptionCount, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	v.Type = model.VoucherType(voucherType)
	v.Target = model.Target(target)
	v.DiscountValue = decimalPtr(discount)
	v.MinCartValue = decimalPtr(minCart)
	v.MaxDiscountAmount = decimalPtr(maxDiscount)
	v.ApplicableProducts = nonNil(products)
	v.AllowedUsers = nonNil(allowedUsers)
	v.RedeemableDays = nonNil(weekdays)
	v.StartDate = v.StartDate.UTC()
	v.EndDate = v.EndDate.UTC()

	return &v, nil
}

// isViolation matches a Postgres error by SQLSTATE and, when given, constraint.
func isViolation(err error, code, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != code {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

func decimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
