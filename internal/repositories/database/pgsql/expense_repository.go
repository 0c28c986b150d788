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

type PgxExpenseRepository struct {
	BaseRepository
}

func newPgxExpenseRepository(db *pgxpool.Pool) portsrepo.ExpenseRepositoryFacade {
	return &PgxExpenseRepository{BaseRepository{Pool: db}}
}

// Ensure PgxExpenseRepository implements portsrepo.ExpenseRepositoryFacade
var _ portsrepo.ExpenseRepositoryFacade = (*PgxExpenseRepository)(nil)

func toModelExpense(d domain.Expense) models.Expense {
	return models.Expense{
		ExpenseID:  d.ExpenseID,
		BusinessID: d.BusinessID,
		Amount:     d.Amount,
		Category:   d.Category,
		Date:       d.Date,
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			CreatedBy:     d.CreatedBy,
			LastUpdatedAt: d.LastUpdatedAt,
			LastUpdatedBy: d.LastUpdatedBy,
		},
	}
}

func toDomainExpense(m models.Expense) domain.Expense {
	return domain.Expense{
		ExpenseID:  m.ExpenseID,
		BusinessID: m.BusinessID,
		Amount:     m.Amount,
		Category:   m.Category,
		Date:       m.Date,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

const expenseColumns = `expense_id, business_id, amount, category, expense_date, created_at, created_by, last_updated_at, last_updated_by`

const expenseUpsert = `
	INSERT INTO expenses (expense_id, business_id, amount, category, expense_date, created_at, created_by, last_updated_at, last_updated_by)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (expense_id) DO UPDATE SET
		business_id = EXCLUDED.business_id,
		amount = EXCLUDED.amount,
		category = EXCLUDED.category,
		expense_date = EXCLUDED.expense_date,
		last_updated_at = EXCLUDED.last_updated_at,
		last_updated_by = EXCLUDED.last_updated_by;
`

func scanExpense(row pgx.Row) (models.Expense, error) {
	var m models.Expense
	err := row.Scan(
		&m.ExpenseID,
		&m.BusinessID,
		&m.Amount,
		&m.Category,
		&m.Date,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

func expenseUpsertArgs(m models.Expense) []any {
	return []any{
		m.ExpenseID,
		m.BusinessID,
		m.Amount,
		m.Category,
		m.Date,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	}
}

func (r *PgxExpenseRepository) SaveExpense(ctx context.Context, expense domain.Expense) error {
	_, err := r.Pool.Exec(ctx, expenseUpsert, expenseUpsertArgs(toModelExpense(expense))...)
	if err != nil {
		return fmt.Errorf("failed to save expense %s: %w", expense.ExpenseID, err)
	}
	return nil
}

func (r *PgxExpenseRepository) FindExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE expense_id = $1;`
	m, err := scanExpense(r.Pool.QueryRow(ctx, query, expenseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find expense by ID %s: %w", expenseID, err)
	}
	d := toDomainExpense(m)
	return &d, nil
}

func (r *PgxExpenseRepository) ListExpensesByBusiness(ctx context.Context, businessID string) ([]domain.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE business_id = $1 ORDER BY created_at DESC;`
	rows, err := r.Pool.Query(ctx, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses for business %s: %w", businessID, err)
	}
	defer rows.Close()

	var expenses []domain.Expense
	for rows.Next() {
		m, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense row: %w", err)
		}
		expenses = append(expenses, toDomainExpense(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating expense rows: %w", err)
	}
	return expenses, nil
}

func (r *PgxExpenseRepository) DeleteExpensesByBusiness(ctx context.Context, businessID string) error {
	_, err := r.Pool.Exec(ctx, `DELETE FROM expenses WHERE business_id = $1;`, businessID)
	if err != nil {
		return fmt.Errorf("failed to delete expenses for business %s: %w", businessID, err)
	}
	return nil
}

// UpsertExpenses writes the batch in one transaction, reattaching every row
// to businessID.
func (r *PgxExpenseRepository) UpsertExpenses(ctx context.Context, businessID string, expenses []domain.Expense) error {
	if len(expenses) == 0 {
		return nil
	}
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx) //nolint:errcheck

	batch := &pgx.Batch{}
	for _, e := range expenses {
		m := toModelExpense(e)
		m.BusinessID = businessID
		batch.Queue(expenseUpsert, expenseUpsertArgs(m)...)
	}
	br := tx.SendBatch(ctx, batch)
	for range expenses {
		if _, err := br.Exec(); err != nil {
			br.Close() //nolint:errcheck
			return fmt.Errorf("failed to upsert expense batch: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close expense batch: %w", err)
	}
	return r.Commit(ctx, tx)
}
