package replica

import (
	"github.com/tradekeeper/trade_keeper_app/internal/core/domain"
)

// Local mutations write to the device store synchronously under the replica
// mutex, then queue a cloud mirror op. The caller reads its own write back
// immediately; the outbox delivers the mirror in the background. Writes to
// unclaimed businesses stay local, the cloud learns about those through the
// bulk sync or consolidation.

// SaveProduct upserts a product locally and mirrors it.
func (r *Replica) SaveProduct(p domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.PutProduct(p); err != nil {
		return err
	}
	return r.mirror(p.BusinessID, func() {
		r.outbox.EnqueueProducts(p.BusinessID, []domain.Product{p})
	})
}

// DeleteProduct removes a product locally and mirrors the removal.
func (r *Replica) DeleteProduct(businessID, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.DeleteProduct(productID); err != nil {
		return err
	}
	return r.mirror(businessID, func() {
		r.outbox.EnqueueProductDelete(businessID, productID)
	})
}

// SaveSale records a sale locally and mirrors it.
func (r *Replica) SaveSale(sale domain.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.PutSale(sale); err != nil {
		return err
	}
	return r.mirror(sale.BusinessID, func() {
		r.outbox.EnqueueSales(sale.BusinessID, []domain.Sale{sale})
	})
}

// SaveExpense records an expense locally and mirrors it.
func (r *Replica) SaveExpense(e domain.Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.PutExpense(e); err != nil {
		return err
	}
	return r.mirror(e.BusinessID, func() {
		r.outbox.EnqueueExpenses(e.BusinessID, []domain.Expense{e})
	})
}

// mirror runs enqueue when the business is claimed and an outbox is attached.
func (r *Replica) mirror(businessID string, enqueue func()) error {
	if r.outbox == nil {
		return nil
	}
	_, claimed, err := r.store.GetBusiness(businessID)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}
	enqueue()
	return nil
}
