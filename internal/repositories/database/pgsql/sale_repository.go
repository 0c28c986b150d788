package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tradekeeper/trade_keeper_app/internal/apperrors"
	"github.com/tradekeeper/trade_keeper_app/internal/core/domain"
	portsrepo "github.com/tradekeeper/trade_keeper_app/internal/core/ports/repositories"
	"github.com/tradekeeper/trade_keeper_app/internal/models"
)

type PgxSaleRepository struct {
	BaseRepository
}

func newPgxSaleRepository(db *pgxpool.Pool) portsrepo.SaleRepositoryFacade {
	return &PgxSaleRepository{BaseRepository{Pool: db}}
}

// Ensure PgxSaleRepository implements portsrepo.SaleRepositoryFacade
var _ portsrepo.SaleRepositoryFacade = (*PgxSaleRepository)(nil)

func toModelSale(d domain.Sale) models.Sale {
	return models.Sale{
		SaleID:      d.SaleID,
		BusinessID:  d.BusinessID,
		ProductID:   d.ProductID,
		ProductName: d.ProductName,
		UnitPrice:   d.UnitPrice,
		Quantity:    d.Quantity,
		Revenue:     d.Revenue,
		Cost:        d.Cost,
		Profit:      d.Profit,
		Date:        d.Date,
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			CreatedBy:     d.CreatedBy,
			LastUpdatedAt: d.LastUpdatedAt,
			LastUpdatedBy: d.LastUpdatedBy,
		},
	}
}

func toDomainSale(m models.Sale) domain.Sale {
	return domain.Sale{
		SaleID:      m.SaleID,
		BusinessID:  m.BusinessID,
		ProductID:   m.ProductID,
		ProductName: m.ProductName,
		UnitPrice:   m.UnitPrice,
		Quantity:    m.Quantity,
		Revenue:     m.Revenue,
		Cost:        m.Cost,
		Profit:      m.Profit,
		Date:        m.Date,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

const saleColumns = `sale_id, business_id, product_id, product_name, unit_price, quantity, revenue, cost, profit, sale_date, created_at, created_by, last_updated_at, last_updated_by`

const saleUpsert = `
	INSERT INTO sales (sale_id, business_id, product_id, product_name, unit_price, quantity, revenue, cost, profit, sale_date, created_at, created_by, last_updated_at, last_updated_by)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	ON CONFLICT (sale_id) DO UPDATE SET
		business_id = EXCLUDED.business_id,
		product_id = EXCLUDED.product_id,
		product_name = EXCLUDED.product_name,
		unit_price = EXCLUDED.unit_price,
		quantity = EXCLUDED.quantity,
		revenue = EXCLUDED.revenue,
		cost = EXCLUDED.cost,
		profit = EXCLUDED.profit,
		sale_date = EXCLUDED.sale_date,
		last_updated_at = EXCLUDED.last_updated_at,
		last_updated_by = EXCLUDED.last_updated_by;
`

func scanSale(row pgx.Row) (models.Sale, error) {
	var m models.Sale
	err := row.Scan(
		&m.SaleID,
		&m.BusinessID,
		&m.ProductID,
		&m.ProductName,
		&m.UnitPrice,
		&m.Quantity,
		&m.Revenue,
		&m.Cost,
		&m.Profit,
		&m.Date,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

func saleUpsertArgs(m models.Sale) []any {
	return []any{
		m.SaleID,
		m.BusinessID,
		m.ProductID,
		m.ProductName,
		m.UnitPrice,
		m.Quantity,
		m.Revenue,
		m.Cost,
		m.Profit,
		m.Date,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	}
}

func (r *PgxSaleRepository) SaveSale(ctx context.Context, sale domain.Sale) error {
	_, err := r.Pool.Exec(ctx, saleUpsert, saleUpsertArgs(toModelSale(sale))...)
	if err != nil {
		return fmt.Errorf("failed to save sale %s: %w", sale.SaleID, err)
	}
	return nil
}

func (r *PgxSaleRepository) FindSaleByID(ctx context.Context, saleID string) (*domain.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE sale_id = $1;`
	m, err := scanSale(r.Pool.QueryRow(ctx, query, saleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find sale by ID %s: %w", saleID, err)
	}
	d := toDomainSale(m)
	return &d, nil
}

// ListSalesByBusiness pages newest first. A zero fromCreatedAt means the
// first page. The sale id is part of the sort key so rows sharing a
// created_at are not skipped at page boundaries.
func (r *PgxSaleRepository) ListSalesByBusiness(ctx context.Context, businessID string, limit int, fromCreatedAt time.Time, fromSaleID string) ([]domain.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE business_id = $1`
	args := []any{businessID}
	if !fromCreatedAt.IsZero() {
		query += ` AND (created_at, sale_id) < ($2, $3)`
		args = append(args, fromCreatedAt, fromSaleID)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, sale_id DESC LIMIT %d;`, limit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales for business %s: %w", businessID, err)
	}
	defer rows.Close()

	var sales []domain.Sale
	for rows.Next() {
		m, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale row: %w", err)
		}
		sales = append(sales, toDomainSale(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating sale rows: %w", err)
	}
	return sales, nil
}

func (r *PgxSaleRepository) DeleteSalesByBusiness(ctx context.Context, businessID string) error {
	_, err := r.Pool.Exec(ctx, `DELETE FROM sales WHERE business_id = $1;`, businessID)
	if err != nil {
		return fmt.Errorf("failed to delete sales for business %s: %w", businessID, err)
	}
	return nil
}

// UpsertSales writes the batch in one transaction, reattaching every row to
// businessID.
func (r *PgxSaleRepository) UpsertSales(ctx context.Context, businessID string, sales []domain.Sale) error {
	if len(sales) == 0 {
		return nil
	}
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx) //nolint:errcheck

	batch := &pgx.Batch{}
	for _, s := range sales {
		m := toModelSale(s)
		m.BusinessID = businessID
		batch.Queue(saleUpsert, saleUpsertArgs(m)...)
	}
	br := tx.SendBatch(ctx, batch)
	for range sales {
		if _, err := br.Exec(); err != nil {
			br.Close() //nolint:errcheck
			return fmt.Errorf("failed to upsert sale batch: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close sale batch: %w", err)
	}
	return r.Commit(ctx, tx)
}
