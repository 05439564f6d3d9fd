package payment

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log"
	"time"

	postgresqlshared "cryptosub/internal/adapters/outbound/persistence/postgresql/shared"
	portsout "cryptosub/internal/application/ports/out"
	"cryptosub/internal/domain/entities"
	valueobjects "cryptosub/internal/domain/value_objects"
	apperrors "cryptosub/internal/shared_kernel/errors"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const selectColumns = `
  id,
  user_id,
  tier,
  amount_usd,
  crypto_type,
  pay_to_address,
  expected_amount_crypto,
  payment_url,
  attribution_method,
  status,
  required_confirmations,
  created_at,
  expires_at,
  last_checked,
  manual_verification,
  verified_by_admin,
  transaction_hash`

type paymentRow struct {
	ID                    string          `db:"id"`
	UserID                int64           `db:"user_id"`
	Tier                  string          `db:"tier"`
	AmountUSD             decimal.Decimal `db:"amount_usd"`
	CryptoType            string          `db:"crypto_type"`
	PayToAddress          string          `db:"pay_to_address"`
	ExpectedAmountCrypto  decimal.Decimal `db:"expected_amount_crypto"`
	PaymentURL            string          `db:"payment_url"`
	AttributionMethod     string          `db:"attribution_method"`
	Status                string          `db:"status"`
	RequiredConfirmations int             `db:"required_confirmations"`
	CreatedAt             time.Time       `db:"created_at"`
	ExpiresAt             time.Time       `db:"expires_at"`
	LastChecked           sql.NullTime    `db:"last_checked"`
	ManualVerification    bool            `db:"manual_verification"`
	VerifiedByAdmin       sql.NullString  `db:"verified_by_admin"`
	TransactionHash       sql.NullString  `db:"transaction_hash"`
}

type Repository struct {
	db     *sqlx.DB
	now    func() time.Time
	logger *log.Logger
}

var _ portsout.PaymentRepository = (*Repository)(nil)

func NewRepository(db *sqlx.DB, now func() time.Time, logger *log.Logger) *Repository {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Repository{db: db, now: now, logger: logger}
}

func (r *Repository) CreatePayment(ctx context.Context, payment entities.Payment) *apperrors.AppError {
	const query = `
INSERT INTO app.payments (
  id, user_id, tier, amount_usd, crypto_type, pay_to_address, expected_amount_crypto,
  payment_url, attribution_method, status, required_confirmations, created_at, expires_at,
  manual_verification
) VALUES (
  :id, :user_id, :tier, :amount_usd, :crypto_type, :pay_to_address, :expected_amount_crypto,
  :payment_url, :attribution_method, :status, :required_confirmations, :created_at, :expires_at,
  :manual_verification
)`

	row := toRow(payment)
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		if postgresqlshared.IsUniqueViolation(err) {
			return apperrors.NewConflict(
				"payment_id_conflict",
				"payment id already exists",
				map[string]any{"payment_id": payment.ID},
			)
		}
		return postgresqlshared.QueryFailed("payment_insert_failed", "failed to insert payment", err)
	}
	r.logf("payment_persisted payment_id=%s crypto_type=%s user_id=%d", payment.ID, payment.CryptoType, payment.UserID)
	return nil
}

func (r *Repository) GetPayment(ctx context.Context, paymentID string) (entities.Payment, bool, *apperrors.AppError) {
	return r.getOne(ctx, `SELECT`+selectColumns+` FROM app.payments WHERE id = $1`, paymentID)
}

func (r *Repository) FindPaymentByTransactionHash(ctx context.Context, transactionHash string) (entities.Payment, bool, *apperrors.AppError) {
	return r.getOne(ctx, `SELECT`+selectColumns+` FROM app.payments WHERE transaction_hash = $1 LIMIT 1`, transactionHash)
}

func (r *Repository) getOne(ctx context.Context, query string, arg any) (entities.Payment, bool, *apperrors.AppError) {
	row := paymentRow{}
	if err := r.db.GetContext(ctx, &row, query, arg); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return entities.Payment{}, false, nil
		}
		return entities.Payment{}, false, postgresqlshared.QueryFailed("payment_query_failed", "failed to load payment", err)
	}

	payment, appErr := row.toEntity()
	if appErr != nil {
		return entities.Payment{}, false, appErr
	}
	return payment, true, nil
}

func (r *Repository) UpdatePaymentStatus(ctx context.Context, paymentID string, status valueobjects.PaymentStatus) *apperrors.AppError {
	if status != valueobjects.PaymentStatusExpired {
		return r.updateColumn(ctx, paymentID, "status", status.String())
	}

	const query = `UPDATE app.payments SET status = $2, updated_at = $3 WHERE id = $1 AND status = 'pending'`
	result, err := r.db.ExecContext(ctx, query, paymentID, status.String(), r.now())
	if err != nil {
		return postgresqlshared.QueryFailed("payment_update_failed", "failed to update payment", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return postgresqlshared.QueryFailed("payment_update_failed", "failed to read update result", err)
	}
	if affected > 0 {
		return nil
	}

	current, found, appErr := r.GetPayment(ctx, paymentID)
	if appErr != nil {
		return appErr
	}
	if !found {
		return apperrors.NewNotFound(
			"payment_not_found",
			"payment not found",
			map[string]any{"payment_id": paymentID},
		)
	}
	return apperrors.NewConflict(
		portsout.PaymentStatusConflictCode,
		"payment status changed concurrently",
		map[string]any{"payment_id": paymentID, "status": current.Status.String(), "requested": status.String()},
	)
}

func (r *Repository) UpdatePaymentField(ctx context.Context, paymentID string, field portsout.PaymentField, value any) *apperrors.AppError {
	switch field {
	case portsout.PaymentFieldManualVerification:
		flag, ok := value.(bool)
		if !ok {
			return fieldTypeInvalid(field, value)
		}
		return r.updateColumn(ctx, paymentID, "manual_verification", flag)
	case portsout.PaymentFieldVerifiedByAdmin:
		adminID, ok := value.(string)
		if !ok {
			return fieldTypeInvalid(field, value)
		}
		return r.updateColumn(ctx, paymentID, "verified_by_admin", adminID)
	case portsout.PaymentFieldTransactionHash:
		hash, ok := value.(string)
		if !ok {
			return fieldTypeInvalid(field, value)
		}
		return r.updateColumn(ctx, paymentID, "transaction_hash", hash)
	case portsout.PaymentFieldAmountUSD:
		amount, ok := value.(decimal.Decimal)
		if !ok {
			return fieldTypeInvalid(field, value)
		}
		return r.updateColumn(ctx, paymentID, "amount_usd", amount)
	default:
		return apperrors.NewInternal(
			"payment_field_unsupported",
			"payment field cannot be updated",
			map[string]any{"field": string(field)},
		)
	}
}

func (r *Repository) UpdatePaymentLastChecked(ctx context.Context, paymentID string, checkedAt time.Time) *apperrors.AppError {
	return r.updateColumn(ctx, paymentID, "last_checked", checkedAt.UTC())
}

func (r *Repository) GetPendingPayments(ctx context.Context, maxAge time.Duration) ([]entities.Payment, *apperrors.AppError) {
	const query = `SELECT` + selectColumns + `
FROM app.payments
WHERE status = 'pending' AND created_at >= $1
ORDER BY created_at ASC`

	rows := make([]paymentRow, 0)
	if err := r.db.SelectContext(ctx, &rows, query, r.now().Add(-maxAge)); err != nil {
		return nil, postgresqlshared.QueryFailed("pending_payments_query_failed", "failed to list pending payments", err)
	}

	payments := make([]entities.Payment, 0, len(rows))
	for _, row := range rows {
		payment, appErr := row.toEntity()
		if appErr != nil {
			r.logf("payment_row_skipped payment_id=%s code=%s", row.ID, appErr.Code)
			continue
		}
		payments = append(payments, payment)
	}
	return payments, nil
}

// updateColumn writes one whitelisted column. Column names never come from callers.
func (r *Repository) updateColumn(ctx context.Context, paymentID string, column string, value any) *apperrors.AppError {
	query := fmt.Sprintf(`UPDATE app.payments SET %s = $2, updated_at = $3 WHERE id = $1`, column)
	result, err := r.db.ExecContext(ctx, query, paymentID, value, r.now())
	if err != nil {
		if postgresqlshared.UniqueConstraint(err) == "payments_transaction_hash_uq" {
			return apperrors.NewConflict(
				"transaction_hash_already_claimed",
				"transaction hash is already recorded on another payment",
				map[string]any{"transaction_hash": value, "payment_id": paymentID},
			)
		}
		return postgresqlshared.QueryFailed("payment_update_failed", "failed to update payment", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return postgresqlshared.QueryFailed("payment_update_failed", "failed to read update result", err)
	}
	if affected == 0 {
		return apperrors.NewNotFound(
			"payment_not_found",
			"payment not found",
			map[string]any{"payment_id": paymentID},
		)
	}
	return nil
}

func (r *Repository) logf(format string, args ...any) {
	if r.logger != nil {
		r.logger.Printf(format, args...)
	}
}

func toRow(payment entities.Payment) paymentRow {
	row := paymentRow{
		ID:                    payment.ID,
		UserID:                payment.UserID,
		Tier:                  payment.Tier.String(),
		AmountUSD:             payment.AmountUSD,
		CryptoType:            payment.CryptoType.String(),
		PayToAddress:          payment.PayToAddress,
		ExpectedAmountCrypto:  payment.ExpectedAmountCrypto,
		PaymentURL:            payment.PaymentURL,
		AttributionMethod:     payment.AttributionMethod.String(),
		Status:                payment.Status.String(),
		RequiredConfirmations: payment.RequiredConfirmations,
		CreatedAt:             payment.CreatedAt.UTC(),
		ExpiresAt:             payment.ExpiresAt.UTC(),
		ManualVerification:    payment.ManualVerification,
	}
	if payment.LastChecked != nil {
		row.LastChecked = sql.NullTime{Time: payment.LastChecked.UTC(), Valid: true}
	}
	if payment.VerifiedByAdmin != nil {
		row.VerifiedByAdmin = sql.NullString{String: *payment.VerifiedByAdmin, Valid: true}
	}
	if payment.TransactionHash != nil {
		row.TransactionHash = sql.NullString{String: *payment.TransactionHash, Valid: true}
	}
	return row
}

func (row paymentRow) toEntity() (entities.Payment, *apperrors.AppError) {
	tier, appErr := valueobjects.ParseTier(row.Tier)
	if appErr != nil {
		return entities.Payment{}, appErr
	}
	crypto, appErr := valueobjects.ParseCryptoType(row.CryptoType)
	if appErr != nil {
		return entities.Payment{}, appErr
	}
	method, appErr := valueobjects.ParseAttributionMethod(row.AttributionMethod)
	if appErr != nil {
		return entities.Payment{}, appErr
	}
	status, appErr := valueobjects.ParsePaymentStatus(row.Status)
	if appErr != nil {
		return entities.Payment{}, appErr
	}

	payment := entities.Payment{
		ID:                    row.ID,
		UserID:                row.UserID,
		Tier:                  tier,
		AmountUSD:             row.AmountUSD,
		CryptoType:            crypto,
		PayToAddress:          row.PayToAddress,
		ExpectedAmountCrypto:  row.ExpectedAmountCrypto,
		PaymentURL:            row.PaymentURL,
		AttributionMethod:     method,
		Status:                status,
		RequiredConfirmations: row.RequiredConfirmations,
		CreatedAt:             row.CreatedAt.UTC(),
		ExpiresAt:             row.ExpiresAt.UTC(),
		ManualVerification:    row.ManualVerification,
	}
	if row.LastChecked.Valid {
		checked := row.LastChecked.Time.UTC()
		payment.LastChecked = &checked
	}
	if row.VerifiedByAdmin.Valid {
		adminID := row.VerifiedByAdmin.String
		payment.VerifiedByAdmin = &adminID
	}
	if row.TransactionHash.Valid {
		hash := row.TransactionHash.String
		payment.TransactionHash = &hash
	}
	return payment, nil
}

func fieldTypeInvalid(field portsout.PaymentField, value any) *apperrors.AppError {
	return apperrors.NewInternal(
		"payment_field_value_invalid",
		"payment field value has the wrong type",
		map[string]any{"field": string(field), "value": value},
	)
}
