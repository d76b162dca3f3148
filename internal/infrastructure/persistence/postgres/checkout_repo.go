package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/barkshad/fuliza/internal/domain/model"
	"github.com/barkshad/fuliza/internal/domain/valueobject"
	pkgpostgres "github.com/barkshad/fuliza/pkg/postgres"
)

const checkoutColumns = `id, user_id, tier, tier_limit, fee, phone, state, transaction_id,
	checkout_request_id, failure_reason, attempts, deadline, created_at, updated_at`

// CheckoutRepo stores checkouts in PostgreSQL.
type CheckoutRepo struct {
	db pkgpostgres.DB
}

// NewCheckoutRepo creates a CheckoutRepo.
func NewCheckoutRepo(db pkgpostgres.DB) *CheckoutRepo {
	return &CheckoutRepo{db: db}
}

func nullableDeadline(s model.CheckoutSnapshot) *time.Time {
	if s.Deadline.IsZero() {
		return nil
	}
	return &s.Deadline
}

// Save upserts c.
func (r *CheckoutRepo) Save(ctx context.Context, c model.Checkout) error {
	s := c.Snapshot()
	deadline := nullableDeadline(s)
	query := `
		INSERT INTO checkouts (` + checkoutColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (id) DO UPDATE SET
			phone               = EXCLUDED.phone,
			state               = EXCLUDED.state,
			transaction_id      = EXCLUDED.transaction_id,
			checkout_request_id = EXCLUDED.checkout_request_id,
			failure_reason      = EXCLUDED.failure_reason,
			attempts            = EXCLUDED.attempts,
			deadline            = EXCLUDED.deadline,
			updated_at          = EXCLUDED.updated_at
	`
	_, err := r.db.Exec(ctx, query,
		s.ID, s.UserID, s.Tier, s.Limit, s.Fee, s.Phone, s.State, s.TransactionID,
		s.CheckoutRequestID, s.FailureReason, s.Attempts, deadline, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save checkout: %w", err)
	}
	return nil
}

// Transition stores c if the stored row is still in state from.
func (r *CheckoutRepo) Transition(ctx context.Context, c model.Checkout, from valueobject.CheckoutState) (bool, error) {
	moved, err := transition(ctx, r.db, c, from)
	if err != nil {
		return false, fmt.Errorf("transition checkout: %w", err)
	}
	return moved, nil
}

// Settle stores a paid checkout and inserts its application in one
// transaction. Nothing is written when the row already left state from.
func (r *CheckoutRepo) Settle(ctx context.Context, c model.Checkout, from valueobject.CheckoutState, app model.Application) (bool, error) {
	var settled bool
	err := pkgpostgres.WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		moved, err := transition(ctx, tx, c, from)
		if err != nil || !moved {
			return err
		}
		if err := NewApplicationRepo(tx).Append(ctx, app); err != nil {
			return err
		}
		settled = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("settle checkout: %w", err)
	}
	return settled, nil
}

func transition(ctx context.Context, db pkgpostgres.Querier, c model.Checkout, from valueobject.CheckoutState) (bool, error) {
	s := c.Snapshot()
	query := `
		UPDATE checkouts SET
			phone               = $2,
			state               = $3,
			transaction_id      = $4,
			checkout_request_id = $5,
			failure_reason      = $6,
			attempts            = $7,
			deadline            = $8,
			updated_at          = $9
		WHERE id = $1 AND state = $10
	`
	tag, err := db.Exec(ctx, query,
		s.ID, s.Phone, s.State, s.TransactionID, s.CheckoutRequestID,
		s.FailureReason, s.Attempts, nullableDeadline(s), s.UpdatedAt, from.String(),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// FindByID loads a checkout.
func (r *CheckoutRepo) FindByID(ctx context.Context, id string) (model.Checkout, error) {
	return r.findOne(ctx, `SELECT `+checkoutColumns+` FROM checkouts WHERE id = $1`, id)
}

// FindByCheckoutRequestID loads the checkout the gateway knows as checkoutRequestID.
func (r *CheckoutRepo) FindByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (model.Checkout, error) {
	if checkoutRequestID == "" {
		return model.Checkout{}, model.ErrCheckoutNotFound
	}
	return r.findOne(ctx, `SELECT `+checkoutColumns+` FROM checkouts WHERE checkout_request_id = $1 ORDER BY updated_at DESC LIMIT 1`, checkoutRequestID)
}

func (r *CheckoutRepo) findOne(ctx context.Context, query string, args ...any) (model.Checkout, error) {
	var (
		s        model.CheckoutSnapshot
		deadline *time.Time
	)
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&s.ID, &s.UserID, &s.Tier, &s.Limit, &s.Fee, &s.Phone, &s.State, &s.TransactionID,
		&s.CheckoutRequestID, &s.FailureReason, &s.Attempts, &deadline, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Checkout{}, model.ErrCheckoutNotFound
	}
	if err != nil {
		return model.Checkout{}, fmt.Errorf("scan checkout: %w", err)
	}
	if deadline != nil {
		s.Deadline = deadline.UTC()
	}
	s.CreatedAt, s.UpdatedAt = s.CreatedAt.UTC(), s.UpdatedAt.UTC()
	return model.ReconstructCheckout(s)
}
