package apperrors

import (
	"fmt"

	"github.com/tradekeeper/trade_keeper_app/internal/core/domain"
)

// NameCollisionError aborts a reconciliation pass: one or more local
// businesses match an existing cloud business by name and carry no explicit
// resolution. No writes have happened when this is returned.
type NameCollisionError struct {
	Conflicts []domain.NameConflict
}

func (e *NameCollisionError) Error() string {
	return fmt.Sprintf("name collision on %d business(es)", len(e.Conflicts))
}

// PlanLimitError aborts a reconciliation pass: applying the requested
// resolutions would push the caller past their plan's business limit. No
// writes have happened when this is returned.
type PlanLimitError struct {
	Limit              int
	CurrentCount       int
	NewCount           int
	ExistingBusinesses []domain.Business
}

func (e *PlanLimitError) Error() string {
	return fmt.Sprintf("plan limit exceeded: %d businesses after sync, limit %d", e.NewCount, e.Limit)
}
