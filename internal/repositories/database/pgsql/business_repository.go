package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tradekeeper/trade_keeper_app/internal/apperrors"
	"github.com/tradekeeper/trade_keeper_app/internal/core/domain"
	portsrepo "github.com/tradekeeper/trade_keeper_app/internal/core/ports/repositories"
	"github.com/tradekeeper/trade_keeper_app/internal/models"
)

type PgxBusinessRepository struct {
	BaseRepository
}

func newPgxBusinessRepository(db *pgxpool.Pool) portsrepo.BusinessRepositoryFacade {
	return &PgxBusinessRepository{BaseRepository{Pool: db}}
}

// Ensure PgxBusinessRepository implements portsrepo.BusinessRepositoryFacade
var _ portsrepo.BusinessRepositoryFacade = (*PgxBusinessRepository)(nil)

func toModelBusiness(d domain.Business) models.Business {
	collabs := make([]models.Collaborator, len(d.Collaborators))
	for i, c := range d.Collaborators {
		collabs[i] = models.Collaborator{
			UserID: c.UserID,
			Role:   string(c.Role),
			Status: string(c.Status),
			Permissions: models.Permissions{
				CanRecordSales: c.Permissions.CanRecordSales,
				CanAddProducts: c.Permissions.CanAddProducts,
				CanAddExpenses: c.Permissions.CanAddExpenses,
				CanViewReports: c.Permissions.CanViewReports,
			},
			JoinedAt: c.JoinedAt,
		}
	}
	return models.Business{
		BusinessID:      d.BusinessID,
		Name:            d.Name,
		CurrencyCode:    d.CurrencyCode,
		Plan:            string(d.Plan),
		OwnerID:         d.OwnerID,
		Collaborators:   collabs,
		InviteCode:      d.InviteCode,
		InviteExpiresAt: d.InviteExpiresAt,
		TaxSettings: models.TaxSettings{
			Registered: d.TaxSettings.Registered,
			TaxID:      d.TaxSettings.TaxID,
			Rate:       d.TaxSettings.Rate,
		},
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			CreatedBy:     d.CreatedBy,
			LastUpdatedAt: d.LastUpdatedAt,
			LastUpdatedBy: d.LastUpdatedBy,
		},
	}
}

func toDomainBusiness(m models.Business) domain.Business {
	collabs := make([]domain.Collaborator, len(m.Collaborators))
	for i, c := range m.Collaborators {
		collabs[i] = domain.Collaborator{
			UserID: c.UserID,
			Role:   domain.CollaboratorRole(c.Role),
			Status: domain.CollaboratorStatus(c.Status),
			Permissions: domain.Permissions{
				CanRecordSales: c.Permissions.CanRecordSales,
				CanAddProducts: c.Permissions.CanAddProducts,
				CanAddExpenses: c.Permissions.CanAddExpenses,
				CanViewReports: c.Permissions.CanViewReports,
			},
			JoinedAt: c.JoinedAt,
		}
	}
	return domain.Business{
		BusinessID:      m.BusinessID,
		Name:            m.Name,
		CurrencyCode:    m.CurrencyCode,
		Plan:            domain.PlanTier(m.Plan),
		OwnerID:         m.OwnerID,
		Collaborators:   collabs,
		InviteCode:      m.InviteCode,
		InviteExpiresAt: m.InviteExpiresAt,
		TaxSettings: domain.TaxSettings{
			Registered: m.TaxSettings.Registered,
			TaxID:      m.TaxSettings.TaxID,
			Rate:       m.TaxSettings.Rate,
		},
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

const businessColumns = `business_id, name, currency_code, plan, owner_id, collaborators, invite_code, invite_expires_at, tax_settings, created_at, created_by, last_updated_at, last_updated_by`

func scanBusiness(row pgx.Row) (models.Business, error) {
	var m models.Business
	var collabsJSON, taxJSON []byte
	err := row.Scan(
		&m.BusinessID,
		&m.Name,
		&m.CurrencyCode,
		&m.Plan,
		&m.OwnerID,
		&collabsJSON,
		&m.InviteCode,
		&m.InviteExpiresAt,
		&taxJSON,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(collabsJSON, &m.Collaborators); err != nil {
		return m, fmt.Errorf("failed to decode collaborators for business %s: %w", m.BusinessID, err)
	}
	if err := json.Unmarshal(taxJSON, &m.TaxSettings); err != nil {
		return m, fmt.Errorf("failed to decode tax settings for business %s: %w", m.BusinessID, err)
	}
	return m, nil
}

func (r *PgxBusinessRepository) SaveBusiness(ctx context.Context, business domain.Business) error {
	m := toModelBusiness(business)
	collabsJSON, err := json.Marshal(m.Collaborators)
	if err != nil {
		return fmt.Errorf("failed to encode collaborators: %w", err)
	}
	taxJSON, err := json.Marshal(m.TaxSettings)
	if err != nil {
		return fmt.Errorf("failed to encode tax settings: %w", err)
	}
	query := `
		INSERT INTO businesses (business_id, name, currency_code, plan, owner_id, collaborators, invite_code, invite_expires_at, tax_settings, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (business_id) DO UPDATE SET
			name = EXCLUDED.name,
			currency_code = EXCLUDED.currency_code,
			plan = EXCLUDED.plan,
			owner_id = EXCLUDED.owner_id,
			collaborators = EXCLUDED.collaborators,
			invite_code = EXCLUDED.invite_code,
			invite_expires_at = EXCLUDED.invite_expires_at,
			tax_settings = EXCLUDED.tax_settings,
			last_updated_at = EXCLUDED.last_updated_at,
			last_updated_by = EXCLUDED.last_updated_by;
	`
	_, err = r.Pool.Exec(ctx, query,
		m.BusinessID,
		m.Name,
		m.CurrencyCode,
		m.Plan,
		m.OwnerID,
		collabsJSON,
		m.InviteCode,
		m.InviteExpiresAt,
		taxJSON,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.NewConflictError(fmt.Sprintf("business %s conflicts with an existing row", business.BusinessID))
		}
		return fmt.Errorf("failed to save business: %w", err)
	}
	return nil
}

func (r *PgxBusinessRepository) UpdateBusiness(ctx context.Context, business domain.Business) error {
	// Same upsert path; the id already exists so this is a plain overwrite.
	return r.SaveBusiness(ctx, business)
}

func (r *PgxBusinessRepository) FindBusinessByID(ctx context.Context, businessID string) (*domain.Business, error) {
	query := `SELECT ` + businessColumns + ` FROM businesses WHERE business_id = $1;`
	m, err := scanBusiness(r.Pool.QueryRow(ctx, query, businessID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find business by ID %s: %w", businessID, err)
	}
	d := toDomainBusiness(m)
	return &d, nil
}

func (r *PgxBusinessRepository) FindBusinessByInviteCode(ctx context.Context, inviteCode string) (*domain.Business, error) {
	query := `SELECT ` + businessColumns + ` FROM businesses WHERE invite_code = $1;`
	m, err := scanBusiness(r.Pool.QueryRow(ctx, query, inviteCode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find business by invite code: %w", err)
	}
	d := toDomainBusiness(m)
	return &d, nil
}

func (r *PgxBusinessRepository) ListBusinessesByOwner(ctx context.Context, ownerID string) ([]domain.Business, error) {
	query := `SELECT ` + businessColumns + ` FROM businesses WHERE owner_id = $1 ORDER BY created_at;`
	return r.listBusinesses(ctx, query, ownerID)
}

// ListBusinessesByMembership returns every business where the user is the
// owner or appears in the collaborators array.
func (r *PgxBusinessRepository) ListBusinessesByMembership(ctx context.Context, userID string) ([]domain.Business, error) {
	query := `
		SELECT ` + businessColumns + `
		FROM businesses
		WHERE owner_id = $1
		   OR collaborators @> jsonb_build_array(jsonb_build_object('userId', $1::text))
		ORDER BY created_at;
	`
	return r.listBusinesses(ctx, query, userID)
}

func (r *PgxBusinessRepository) listBusinesses(ctx context.Context, query string, arg any) ([]domain.Business, error) {
	rows, err := r.Pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list businesses: %w", err)
	}
	defer rows.Close()

	var businesses []domain.Business
	for rows.Next() {
		m, err := scanBusiness(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan business row: %w", err)
		}
		businesses = append(businesses, toDomainBusiness(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating business rows: %w", err)
	}
	return businesses, nil
}

// DeleteBusiness removes the business row; child records go with it through
// the ON DELETE CASCADE foreign keys.
func (r *PgxBusinessRepository) DeleteBusiness(ctx context.Context, businessID string) error {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM businesses WHERE business_id = $1;`, businessID)
	if err != nil {
		return fmt.Errorf("failed to delete business %s: %w", businessID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteBusinessesNotIn removes every business owned by ownerID whose id is
// absent from keep, and returns how many rows were removed. An empty keep
// list removes all of the owner's businesses.
func (r *PgxBusinessRepository) DeleteBusinessesNotIn(ctx context.Context, ownerID string, keep []string) (int, error) {
	if keep == nil {
		keep = []string{}
	}
	query := `DELETE FROM businesses WHERE owner_id = $1 AND NOT (business_id = ANY($2));`
	tag, err := r.Pool.Exec(ctx, query, ownerID, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune businesses for owner %s: %w", ownerID, err)
	}
	return int(tag.RowsAffected()), nil
}
