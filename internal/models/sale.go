package models

import "github.com/shopspring/decimal"

// Sale is the database model for a sale row. Price fields are denormalized
// snapshots taken at record time.
type Sale struct {
	SaleID      string          `db:"sale_id"`
	BusinessID  string          `db:"business_id"`
	ProductID   string          `db:"product_id"`
	ProductName string          `db:"product_name"`
	UnitPrice   decimal.Decimal `db:"unit_price"`
	Quantity    int64           `db:"quantity"`
	Revenue     decimal.Decimal `db:"revenue"`
	Cost        decimal.Decimal `db:"cost"`
	Profit      decimal.Decimal `db:"profit"`
	Date        string          `db:"sale_date"`
	AuditFields
}
