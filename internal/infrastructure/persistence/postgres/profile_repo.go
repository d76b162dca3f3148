package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/barkshad/fuliza/internal/domain/model"
	pkgpostgres "github.com/barkshad/fuliza/pkg/postgres"
)

const profileColumns = `uid, full_name, email, phone, id_front_url, id_back_url, selfie_url,
	status, declared_limit, eligible_limit, monthly_income, business_type,
	years_in_business, credit_score, report, version, created_at, updated_at`

// ProfileRepo stores profiles in PostgreSQL.
type ProfileRepo struct {
	db pkgpostgres.Querier
}

// NewProfileRepo creates a ProfileRepo.
func NewProfileRepo(db pkgpostgres.Querier) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// Save upserts p. The last write wins.
func (r *ProfileRepo) Save(ctx context.Context, p model.Profile) error {
	s := p.Snapshot()
	query := `
		INSERT INTO profiles (` + profileColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		ON CONFLICT (uid) DO UPDATE SET
			full_name         = EXCLUDED.full_name,
			email             = EXCLUDED.email,
			phone             = EXCLUDED.phone,
			id_front_url      = EXCLUDED.id_front_url,
			id_back_url       = EXCLUDED.id_back_url,
			selfie_url        = EXCLUDED.selfie_url,
			status            = EXCLUDED.status,
			declared_limit    = EXCLUDED.declared_limit,
			eligible_limit    = EXCLUDED.eligible_limit,
			monthly_income    = EXCLUDED.monthly_income,
			business_type     = EXCLUDED.business_type,
			years_in_business = EXCLUDED.years_in_business,
			credit_score      = EXCLUDED.credit_score,
			report            = EXCLUDED.report,
			version           = EXCLUDED.version,
			updated_at        = EXCLUDED.updated_at
	`
	_, err := r.db.Exec(ctx, query,
		s.UID, s.FullName, s.Email, s.Phone,
		s.Documents.IDFrontURL, s.Documents.IDBackURL, s.Documents.SelfieURL,
		s.Status, s.DeclaredLimit, s.EligibleLimit, s.MonthlyIncome, s.BusinessType,
		s.YearsInBusiness, s.CreditScore, s.Report, s.Version, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// Get loads the profile of uid.
func (r *ProfileRepo) Get(ctx context.Context, uid string) (model.Profile, error) {
	row := r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE uid = $1`, uid)
	p, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Profile{}, model.ErrProfileNotFound
	}
	return p, err
}

// List returns every profile, oldest first.
func (r *ProfileRepo) List(ctx context.Context) ([]model.Profile, error) {
	rows, err := r.db.Query(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var out []model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanProfile(s scannable) (model.Profile, error) {
	var snap model.ProfileSnapshot
	err := s.Scan(
		&snap.UID, &snap.FullName, &snap.Email, &snap.Phone,
		&snap.Documents.IDFrontURL, &snap.Documents.IDBackURL, &snap.Documents.SelfieURL,
		&snap.Status, &snap.DeclaredLimit, &snap.EligibleLimit, &snap.MonthlyIncome, &snap.BusinessType,
		&snap.YearsInBusiness, &snap.CreditScore, &snap.Report, &snap.Version, &snap.CreatedAt, &snap.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, err
		}
		return model.Profile{}, fmt.Errorf("scan profile: %w", err)
	}
	snap.CreatedAt, snap.UpdatedAt = snap.CreatedAt.UTC(), snap.UpdatedAt.UTC()
	return model.ReconstructProfile(snap)
}
