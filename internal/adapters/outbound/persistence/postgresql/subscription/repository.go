package subscription

import (
	"context"
	"database/sql"
	stderrors "errors"
	"log"
	"time"

	postgresqlshared "cryptosub/internal/adapters/outbound/persistence/postgresql/shared"
	portsout "cryptosub/internal/application/ports/out"
	"cryptosub/internal/domain/entities"
	valueobjects "cryptosub/internal/domain/value_objects"
	apperrors "cryptosub/internal/shared_kernel/errors"

	"github.com/jmoiron/sqlx"
)

type subscriptionRow struct {
	UserID    int64     `db:"user_id"`
	Tier      string    `db:"tier"`
	ExpiresAt time.Time `db:"expires_at"`
}

type Repository struct {
	db     *sqlx.DB
	now    func() time.Time
	logger *log.Logger
}

var _ portsout.SubscriptionRepository = (*Repository)(nil)

func NewRepository(db *sqlx.DB, now func() time.Time, logger *log.Logger) *Repository {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Repository{db: db, now: now, logger: logger}
}

// ActivateSubscription overwrites the user's tier and sets expiry to now + durationDays.
func (r *Repository) ActivateSubscription(
	ctx context.Context,
	userID int64,
	tier valueobjects.Tier,
	durationDays int,
) (entities.Subscription, *apperrors.AppError) {
	const query = `
INSERT INTO app.subscriptions (user_id, tier, expires_at, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO UPDATE
SET tier = EXCLUDED.tier,
    expires_at = EXCLUDED.expires_at,
    updated_at = EXCLUDED.updated_at
RETURNING user_id, tier, expires_at`

	now := r.now().UTC()
	expiresAt := now.Add(time.Duration(durationDays) * 24 * time.Hour)

	row := subscriptionRow{}
	if err := r.db.GetContext(ctx, &row, query, userID, tier.String(), expiresAt, now); err != nil {
		return entities.Subscription{}, postgresqlshared.QueryFailed("subscription_upsert_failed", "failed to activate subscription", err)
	}
	if r.logger != nil {
		r.logger.Printf("subscription_row_upserted user_id=%d tier=%s expires_at=%s", userID, tier, row.ExpiresAt.UTC().Format(time.RFC3339))
	}
	return row.toEntity()
}

func (r *Repository) GetUserSubscription(ctx context.Context, userID int64) (entities.Subscription, bool, *apperrors.AppError) {
	const query = `SELECT user_id, tier, expires_at FROM app.subscriptions WHERE user_id = $1`

	row := subscriptionRow{}
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return entities.Subscription{}, false, nil
		}
		return entities.Subscription{}, false, postgresqlshared.QueryFailed("subscription_query_failed", "failed to load subscription", err)
	}

	subscription, appErr := row.toEntity()
	if appErr != nil {
		return entities.Subscription{}, false, appErr
	}
	return subscription, true, nil
}

func (row subscriptionRow) toEntity() (entities.Subscription, *apperrors.AppError) {
	tier, appErr := valueobjects.ParseTier(row.Tier)
	if appErr != nil {
		return entities.Subscription{}, appErr
	}
	return entities.Subscription{
		UserID:    row.UserID,
		Tier:      tier,
		ExpiresAt: row.ExpiresAt.UTC(),
	}, nil
}
