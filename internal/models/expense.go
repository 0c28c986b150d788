package models

import "github.com/shopspring/decimal"

// Expense is the database model for an expense row
type Expense struct {
	ExpenseID  string          `db:"expense_id"`
	BusinessID string          `db:"business_id"`
	Amount     decimal.Decimal `db:"amount"`
	Category   string          `db:"category"`
	Date       string          `db:"expense_date"`
	AuditFields
}
