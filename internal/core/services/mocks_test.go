package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/tradekeeper/trade_keeper_app/internal/core/domain"
)

// --- Mock BusinessRepository ---

type MockBusinessRepository struct {
	mock.Mock
}

func (m *MockBusinessRepository) FindBusinessByID(ctx context.Context, businessID string) (*domain.Business, error) {
	args := m.Called(ctx, businessID)
	var b *domain.Business
	if args.Get(0) != nil {
		b = args.Get(0).(*domain.Business)
	}
	return b, args.Error(1)
}

func (m *MockBusinessRepository) FindBusinessByInviteCode(ctx context.Context, inviteCode string) (*domain.Business, error) {
	args := m.Called(ctx, inviteCode)
	var b *domain.Business
	if args.Get(0) != nil {
		b = args.Get(0).(*domain.Business)
	}
	return b, args.Error(1)
}

func (m *MockBusinessRepository) ListBusinessesByOwner(ctx context.Context, ownerID string) ([]domain.Business, error) {
	args := m.Called(ctx, ownerID)
	var bs []domain.Business
	if args.Get(0) != nil {
		bs = args.Get(0).([]domain.Business)
	}
	return bs, args.Error(1)
}

func (m *MockBusinessRepository) ListBusinessesByMembership(ctx context.Context, userID string) ([]domain.Business, error) {
	args := m.Called(ctx, userID)
	var bs []domain.Business
	if args.Get(0) != nil {
		bs = args.Get(0).([]domain.Business)
	}
	return bs, args.Error(1)
}

func (m *MockBusinessRepository) SaveBusiness(ctx context.Context, business domain.Business) error {
	args := m.Called(ctx, business)
	return args.Error(0)
}

func (m *MockBusinessRepository) UpdateBusiness(ctx context.Context, business domain.Business) error {
	args := m.Called(ctx, business)
	return args.Error(0)
}

func (m *MockBusinessRepository) DeleteBusiness(ctx context.Context, businessID string) error {
	args := m.Called(ctx, businessID)
	return args.Error(0)
}

func (m *MockBusinessRepository) DeleteBusinessesNotIn(ctx context.Context, ownerID string, keep []string) (int, error) {
	args := m.Called(ctx, ownerID, keep)
	return args.Int(0), args.Error(1)
}

// --- Mock ProductRepository ---

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindProductByID(ctx context.Context, productID string) (*domain.Product, error) {
	args := m.Called(ctx, productID)
	var p *domain.Product
	if args.Get(0) != nil {
		p = args.Get(0).(*domain.Product)
	}
	return p, args.Error(1)
}

func (m *MockProductRepository) ListProductsByBusiness(ctx context.Context, businessID string) ([]domain.Product, error) {
	args := m.Called(ctx, businessID)
	var ps []domain.Product
	if args.Get(0) != nil {
		ps = args.Get(0).([]domain.Product)
	}
	return ps, args.Error(1)
}

func (m *MockProductRepository) SaveProduct(ctx context.Context, product domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) UpdateProduct(ctx context.Context, product domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) DeleteProduct(ctx context.Context, productID string) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

func (m *MockProductRepository) DeleteProductsByBusiness(ctx context.Context, businessID string) error {
	args := m.Called(ctx, businessID)
	return args.Error(0)
}

func (m *MockProductRepository) UpsertProducts(ctx context.Context, businessID string, products []domain.Product) error {
	args := m.Called(ctx, businessID, products)
	return args.Error(0)
}

// --- Mock SaleRepository ---

type MockSaleRepository struct {
	mock.Mock
}

func (m *MockSaleRepository) FindSaleByID(ctx context.Context, saleID string) (*domain.Sale, error) {
	args := m.Called(ctx, saleID)
	var s *domain.Sale
	if args.Get(0) != nil {
		s = args.Get(0).(*domain.Sale)
	}
	return s, args.Error(1)
}

func (m *MockSaleRepository) ListSalesByBusiness(ctx context.Context, businessID string, limit int, fromCreatedAt time.Time, fromSaleID string) ([]domain.Sale, error) {
	args := m.Called(ctx, businessID, limit, fromCreatedAt, fromSaleID)
	var ss []domain.Sale
	if args.Get(0) != nil {
		ss = args.Get(0).([]domain.Sale)
	}
	return ss, args.Error(1)
}

func (m *MockSaleRepository) SaveSale(ctx context.Context, sale domain.Sale) error {
	args := m.Called(ctx, sale)
	return args.Error(0)
}

func (m *MockSaleRepository) DeleteSalesByBusiness(ctx context.Context, businessID string) error {
	args := m.Called(ctx, businessID)
	return args.Error(0)
}

func (m *MockSaleRepository) UpsertSales(ctx context.Context, businessID string, sales []domain.Sale) error {
	args := m.Called(ctx, businessID, sales)
	return args.Error(0)
}

// --- Mock ExpenseRepository ---

type MockExpenseRepository struct {
	mock.Mock
}

func (m *MockExpenseRepository) FindExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error) {
	args := m.Called(ctx, expenseID)
	var e *domain.Expense
	if args.Get(0) != nil {
		e = args.Get(0).(*domain.Expense)
	}
	return e, args.Error(1)
}

func (m *MockExpenseRepository) ListExpensesByBusiness(ctx context.Context, businessID string) ([]domain.Expense, error) {
	args := m.Called(ctx, businessID)
	var es []domain.Expense
	if args.Get(0) != nil {
		es = args.Get(0).([]domain.Expense)
	}
	return es, args.Error(1)
}

func (m *MockExpenseRepository) SaveExpense(ctx context.Context, expense domain.Expense) error {
	args := m.Called(ctx, expense)
	return args.Error(0)
}

func (m *MockExpenseRepository) DeleteExpensesByBusiness(ctx context.Context, businessID string) error {
	args := m.Called(ctx, businessID)
	return args.Error(0)
}

func (m *MockExpenseRepository) UpsertExpenses(ctx context.Context, businessID string, expenses []domain.Expense) error {
	args := m.Called(ctx, businessID, expenses)
	return args.Error(0)
}

// --- Capturing EventPublisher ---

// capturingPublisher records published events for assertions.
type capturingPublisher struct {
	mu     sync.Mutex
	events []domain.ChangeEvent
}

func (p *capturingPublisher) Publish(event domain.ChangeEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *capturingPublisher) Events() []domain.ChangeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.ChangeEvent, len(p.events))
	copy(out, p.events)
	return out
}

func (p *capturingPublisher) EventsOfType(t domain.EventType) []domain.ChangeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.ChangeEvent
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
