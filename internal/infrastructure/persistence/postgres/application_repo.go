package postgres

import (
	"context"
	"fmt"

	"github.com/barkshad/fuliza/internal/domain/model"
	pkgpostgres "github.com/barkshad/fuliza/pkg/postgres"
)

// ApplicationRepo stores applications in PostgreSQL.
type ApplicationRepo struct {
	db pkgpostgres.Querier
}

// NewApplicationRepo creates an ApplicationRepo.
func NewApplicationRepo(db pkgpostgres.Querier) *ApplicationRepo {
	return &ApplicationRepo{db: db}
}

// Append inserts app once. A row with the same id or checkout request id
// makes it a no-op.
func (r *ApplicationRepo) Append(ctx context.Context, app model.Application) error {
	s := app.Snapshot()
	query := `
		INSERT INTO applications (
			id, user_id, tier, requested_limit, service_fee, transaction_id,
			checkout_request_id, payment_status, status, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT DO NOTHING
	`
	_, err := r.db.Exec(ctx, query,
		s.ID, s.UserID, s.Tier, s.RequestedLimit, s.ServiceFee, s.TransactionID,
		s.CheckoutRequestID, s.PaymentStatus, s.Status, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append application: %w", err)
	}
	return nil
}

// ListByUser returns the applications of uid, newest first.
func (r *ApplicationRepo) ListByUser(ctx context.Context, uid string) ([]model.Application, error) {
	query := `
		SELECT id, user_id, tier, requested_limit, service_fee, transaction_id,
		       checkout_request_id, payment_status, status, created_at
		FROM applications
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, uid)
	if err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}
	defer rows.Close()

	var out []model.Application
	for rows.Next() {
		var s model.ApplicationSnapshot
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.Tier, &s.RequestedLimit, &s.ServiceFee, &s.TransactionID,
			&s.CheckoutRequestID, &s.PaymentStatus, &s.Status, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		s.CreatedAt = s.CreatedAt.UTC()
		app, err := model.ReconstructApplication(s)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, rows.Err()
}
