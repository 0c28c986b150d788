package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Collaborator is the JSONB shape stored inside the businesses row.
type Collaborator struct {
	UserID      string      `json:"userId"`
	Role        string      `json:"role"`
	Status      string      `json:"status"`
	Permissions Permissions `json:"permissions"`
	JoinedAt    time.Time   `json:"joinedAt"`
}

type Permissions struct {
	CanRecordSales bool `json:"canRecordSales"`
	CanAddProducts bool `json:"canAddProducts"`
	CanAddExpenses bool `json:"canAddExpenses"`
	CanViewReports bool `json:"canViewReports"`
}

// TaxSettings is the JSONB shape stored inside the businesses row.
type TaxSettings struct {
	Registered bool            `json:"registered"`
	TaxID      string          `json:"taxId,omitempty"`
	Rate       decimal.Decimal `json:"rate"`
}

// Business is the database model for a business row. Collaborators and tax
// settings live in JSONB columns; everything else is a plain column.
type Business struct {
	BusinessID      string         `db:"business_id"`
	Name            string         `db:"name"`
	CurrencyCode    string         `db:"currency_code"`
	Plan            string         `db:"plan"`
	OwnerID         string         `db:"owner_id"`
	Collaborators   []Collaborator `db:"collaborators"`
	InviteCode      *string        `db:"invite_code"`
	InviteExpiresAt *time.Time     `db:"invite_expires_at"`
	TaxSettings     TaxSettings    `db:"tax_settings"`
	AuditFields
}
