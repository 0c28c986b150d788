package domain

import "github.com/shopspring/decimal"

// Sale references a Product by id and keeps a denormalized snapshot of the
// product name and unit price as they were at the time of sale. Profit is
// computed once at creation (revenue minus cost) and never recomputed from
// current product pricing.
type Sale struct {
	SaleID      string          `json:"saleID"`
	BusinessID  string          `json:"businessID"`
	ProductID   string          `json:"productID"`
	ProductName string          `json:"productName"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int64           `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
	Cost        decimal.Decimal `json:"cost"`
	Profit      decimal.Decimal `json:"profit"`
	Date        string          `json:"date"` // ISO date, yyyy-mm-dd
	AuditFields
}
