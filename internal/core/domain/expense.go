package domain

import "github.com/shopspring/decimal"

// Expense belongs to exactly one Business.
type Expense struct {
	ExpenseID  string          `json:"expenseID"`
	BusinessID string          `json:"businessID"`
	Amount     decimal.Decimal `json:"amount"`
	Category   string          `json:"category"`
	Date       string          `json:"date"` // ISO date, yyyy-mm-dd
	AuditFields
}
