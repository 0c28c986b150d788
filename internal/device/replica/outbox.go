package replica

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/tradekeeper/trade_keeper_app/internal/apperrors"
	"github.com/tradekeeper/trade_keeper_app/internal/core/domain"
)

const defaultMaxAttempts = 8

// mirrorOp is one queued outbound write.
type mirrorOp struct {
	businessID      string
	products        []domain.Product
	sales           []domain.Sale
	expenses        []domain.Expense
	deleteProductID string
	attempts        int
}

// Outbox mirrors local writes to the cloud in order. A failed head operation
// is retried with exponential backoff; operations behind it wait, which keeps
// the cloud from seeing writes out of order. After maxAttempts the operation
// is dropped with a warning, and the next full sync repairs the gap.
type Outbox struct {
	gateway Gateway
	logger  *slog.Logger

	baseBackoff time.Duration
	maxBackoff  time.Duration
	maxAttempts int

	mu     sync.Mutex
	queue  []mirrorOp
	signal chan struct{}
}

func NewOutbox(gateway Gateway, logger *slog.Logger, baseBackoff, maxBackoff time.Duration) *Outbox {
	return &Outbox{
		gateway:     gateway,
		logger:      logger,
		baseBackoff: baseBackoff,
		maxBackoff:  maxBackoff,
		maxAttempts: defaultMaxAttempts,
		signal:      make(chan struct{}, 1),
	}
}

// EnqueueProducts queues a product batch for mirroring.
func (o *Outbox) EnqueueProducts(businessID string, products []domain.Product) {
	o.enqueue(mirrorOp{businessID: businessID, products: products})
}

// EnqueueSales queues a sale batch for mirroring.
func (o *Outbox) EnqueueSales(businessID string, sales []domain.Sale) {
	o.enqueue(mirrorOp{businessID: businessID, sales: sales})
}

// EnqueueExpenses queues an expense batch for mirroring.
func (o *Outbox) EnqueueExpenses(businessID string, expenses []domain.Expense) {
	o.enqueue(mirrorOp{businessID: businessID, expenses: expenses})
}

// EnqueueProductDelete queues a product removal for mirroring.
func (o *Outbox) EnqueueProductDelete(businessID, productID string) {
	o.enqueue(mirrorOp{businessID: businessID, deleteProductID: productID})
}

func (o *Outbox) enqueue(op mirrorOp) {
	o.mu.Lock()
	o.queue = append(o.queue, op)
	o.mu.Unlock()
	select {
	case o.signal <- struct{}{}:
	default:
	}
}

// Len reports the number of pending operations.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.queue)
}

// Run drains the queue until ctx is cancelled.
func (o *Outbox) Run(ctx context.Context) {
	for {
		op, ok := o.peek()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-o.signal:
				continue
			}
		}

		if err := o.apply(ctx, op); err != nil {
			op.attempts++
			if op.attempts >= o.maxAttempts {
				o.logger.Warn("Dropping mirror operation after repeated failures",
					slog.String("business_id", op.businessID),
					slog.Int("attempts", op.attempts),
					slog.Any("error", err))
				o.pop()
				continue
			}
			o.updateHead(op)
			if !sleepCtx(ctx, o.backoffFor(op.attempts)) {
				return
			}
			continue
		}
		o.pop()
	}
}

func (o *Outbox) apply(ctx context.Context, op mirrorOp) error {
	switch {
	case len(op.products) > 0:
		_, err := o.gateway.UpsertProducts(ctx, op.businessID, op.products)
		return err
	case len(op.sales) > 0:
		_, err := o.gateway.UpsertSales(ctx, op.businessID, op.sales)
		return err
	case len(op.expenses) > 0:
		_, err := o.gateway.UpsertExpenses(ctx, op.businessID, op.expenses)
		return err
	case op.deleteProductID != "":
		err := o.gateway.DeleteProduct(ctx, op.businessID, op.deleteProductID)
		if errors.Is(err, apperrors.ErrNotFound) {
			// A delete for an id the cloud never saw is already complete.
			return nil
		}
		return err
	default:
		return nil
	}
}

func (o *Outbox) peek() (mirrorOp, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.queue) == 0 {
		return mirrorOp{}, false
	}
	return o.queue[0], true
}

func (o *Outbox) updateHead(op mirrorOp) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.queue) > 0 {
		o.queue[0] = op
	}
}

func (o *Outbox) pop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.queue) > 0 {
		o.queue = o.queue[1:]
	}
}

func (o *Outbox) backoffFor(attempts int) time.Duration {
	d := o.baseBackoff
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= o.maxBackoff {
			return o.maxBackoff
		}
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
