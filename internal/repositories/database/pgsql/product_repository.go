package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tradekeeper/trade_keeper_app/internal/apperrors"
	"github.com/tradekeeper/trade_keeper_app/internal/core/domain"
	portsrepo "github.com/tradekeeper/trade_keeper_app/internal/core/ports/repositories"
	"github.com/tradekeeper/trade_keeper_app/internal/models"
)

type PgxProductRepository struct {
	BaseRepository
}

func newPgxProductRepository(db *pgxpool.Pool) portsrepo.ProductRepositoryFacade {
	return &PgxProductRepository{BaseRepository{Pool: db}}
}

// Ensure PgxProductRepository implements portsrepo.ProductRepositoryFacade
var _ portsrepo.ProductRepositoryFacade = (*PgxProductRepository)(nil)

func toModelProduct(d domain.Product) models.Product {
	return models.Product{
		ProductID:    d.ProductID,
		BusinessID:   d.BusinessID,
		Name:         d.Name,
		CostPrice:    d.CostPrice,
		SellingPrice: d.SellingPrice,
		Quantity:     d.Quantity,
		TotalSold:    d.TotalSold,
		IsActive:     d.IsActive,
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			CreatedBy:     d.CreatedBy,
			LastUpdatedAt: d.LastUpdatedAt,
			LastUpdatedBy: d.LastUpdatedBy,
		},
	}
}

func toDomainProduct(m models.Product) domain.Product {
	return domain.Product{
		ProductID:    m.ProductID,
		BusinessID:   m.BusinessID,
		Name:         m.Name,
		CostPrice:    m.CostPrice,
		SellingPrice: m.SellingPrice,
		Quantity:     m.Quantity,
		TotalSold:    m.TotalSold,
		IsActive:     m.IsActive,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

const productColumns = `product_id, business_id, name, cost_price, selling_price, quantity, total_sold, is_active, created_at, created_by, last_updated_at, last_updated_by`

const productUpsert = `
	INSERT INTO products (product_id, business_id, name, cost_price, selling_price, quantity, total_sold, is_active, created_at, created_by, last_updated_at, last_updated_by)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (product_id) DO UPDATE SET
		business_id = EXCLUDED.business_id,
		name = EXCLUDED.name,
		cost_price = EXCLUDED.cost_price,
		selling_price = EXCLUDED.selling_price,
		quantity = EXCLUDED.quantity,
		total_sold = EXCLUDED.total_sold,
		is_active = EXCLUDED.is_active,
		last_updated_at = EXCLUDED.last_updated_at,
		last_updated_by = EXCLUDED.last_updated_by;
`

func scanProduct(row pgx.Row) (models.Product, error) {
	var m models.Product
	err := row.Scan(
		&m.ProductID,
		&m.BusinessID,
		&m.Name,
		&m.CostPrice,
		&m.SellingPrice,
		&m.Quantity,
		&m.TotalSold,
		&m.IsActive,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

func productUpsertArgs(m models.Product) []any {
	return []any{
		m.ProductID,
		m.BusinessID,
		m.Name,
		m.CostPrice,
		m.SellingPrice,
		m.Quantity,
		m.TotalSold,
		m.IsActive,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	}
}

func (r *PgxProductRepository) SaveProduct(ctx context.Context, product domain.Product) error {
	_, err := r.Pool.Exec(ctx, productUpsert, productUpsertArgs(toModelProduct(product))...)
	if err != nil {
		return fmt.Errorf("failed to save product %s: %w", product.ProductID, err)
	}
	return nil
}

func (r *PgxProductRepository) UpdateProduct(ctx context.Context, product domain.Product) error {
	return r.SaveProduct(ctx, product)
}

func (r *PgxProductRepository) FindProductByID(ctx context.Context, productID string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE product_id = $1;`
	m, err := scanProduct(r.Pool.QueryRow(ctx, query, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID %s: %w", productID, err)
	}
	d := toDomainProduct(m)
	return &d, nil
}

func (r *PgxProductRepository) ListProductsByBusiness(ctx context.Context, businessID string) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE business_id = $1 ORDER BY created_at;`
	rows, err := r.Pool.Query(ctx, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products for business %s: %w", businessID, err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		m, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, toDomainProduct(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating product rows: %w", err)
	}
	return products, nil
}

func (r *PgxProductRepository) DeleteProduct(ctx context.Context, productID string) error {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM products WHERE product_id = $1;`, productID)
	if err != nil {
		return fmt.Errorf("failed to delete product %s: %w", productID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxProductRepository) DeleteProductsByBusiness(ctx context.Context, businessID string) error {
	_, err := r.Pool.Exec(ctx, `DELETE FROM products WHERE business_id = $1;`, businessID)
	if err != nil {
		return fmt.Errorf("failed to delete products for business %s: %w", businessID, err)
	}
	return nil
}

// UpsertProducts writes the batch in one transaction, reattaching every row
// to businessID regardless of the id it carried locally.
func (r *PgxProductRepository) UpsertProducts(ctx context.Context, businessID string, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx) //nolint:errcheck

	batch := &pgx.Batch{}
	for _, p := range products {
		m := toModelProduct(p)
		m.BusinessID = businessID
		batch.Queue(productUpsert, productUpsertArgs(m)...)
	}
	br := tx.SendBatch(ctx, batch)
	for range products {
		if _, err := br.Exec(); err != nil {
			br.Close() //nolint:errcheck
			return fmt.Errorf("failed to upsert product batch: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close product batch: %w", err)
	}
	return r.Commit(ctx, tx)
}
