package dto

import "github.com/tradekeeper/trade_keeper_app/internal/core/domain"

// SyncRequest is a device's full offline dataset plus the caller's conflict
// decisions. Resolutions are keyed by local business id. AllowedBusinessIds,
// when present, prunes caller-owned cloud businesses absent from the list
// before reconciliation (plan-downgrade enforcement).
type SyncRequest struct {
	Businesses         []domain.Business            `json:"businesses" binding:"required"`
	Products           []domain.Product             `json:"products"`
	Sales              []domain.Sale                `json:"sales"`
	Expenses           []domain.Expense             `json:"expenses"`
	Resolutions        map[string]domain.Resolution `json:"resolutions" binding:"omitempty,dive,resolution"`
	AllowedBusinessIds []string                     `json:"allowedBusinessIds,omitempty"`
}

// SyncResponse is the success payload of a reconciliation pass.
type SyncResponse struct {
	Businesses []BusinessResponse `json:"businesses"`
	Counts     domain.SyncCounts  `json:"counts"`
}

// NameCollisionResponse is the 409 payload for unresolved name collisions.
type NameCollisionResponse struct {
	Error     string                `json:"error"`
	Conflicts []domain.NameConflict `json:"conflicts"`
}

// PlanLimitResponse is the 409 payload for plan-limit breaches.
type PlanLimitResponse struct {
	Error              string             `json:"error"`
	Limit              int                `json:"limit"`
	CurrentCount       int                `json:"currentCount"`
	NewCount           int                `json:"newCount"`
	ExistingBusinesses []BusinessResponse `json:"existingBusinesses"`
}

// ToSnapshot converts the wire request into the domain snapshot the
// orchestrator consumes.
func (r *SyncRequest) ToSnapshot() domain.LocalSnapshot {
	return domain.LocalSnapshot{
		Businesses:         r.Businesses,
		Products:           r.Products,
		Sales:              r.Sales,
		Expenses:           r.Expenses,
		Resolutions:        r.Resolutions,
		AllowedBusinessIDs: r.AllowedBusinessIds,
	}
}
