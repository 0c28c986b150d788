package models

import "github.com/shopspring/decimal"

// Product is the database model for a product row
type Product struct {
	ProductID    string          `db:"product_id"`
	BusinessID   string          `db:"business_id"`
	Name         string          `db:"name"`
	CostPrice    decimal.Decimal `db:"cost_price"`
	SellingPrice decimal.Decimal `db:"selling_price"`
	Quantity     int64           `db:"quantity"`
	TotalSold    int64           `db:"total_sold"`
	IsActive     bool            `db:"is_active"`
	AuditFields
}
