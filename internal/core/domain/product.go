package domain

import "github.com/shopspring/decimal"

// Product belongs to exactly one Business. Quantity is decremented by sales
// and TotalSold incremented; both are device-visible counters, not derived.
type Product struct {
	ProductID    string          `json:"productID"`
	BusinessID   string          `json:"businessID"`
	Name         string          `json:"name"`
	CostPrice    decimal.Decimal `json:"costPrice"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
	Quantity     int64           `json:"quantity"`
	TotalSold    int64           `json:"totalSold"`
	IsActive     bool            `json:"isActive"`
	AuditFields
}
