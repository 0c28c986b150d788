// Package localstore is the device-side persistent store. Every record a
// device works with offline lives here as a JSON document in sqlite; the
// replica reducer and the sync engine read and write through it.
package localstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/tradekeeper/trade_keeper_app/internal/core/domain"
)

// Record kinds stored in the records table.
const (
	kindProduct = "product"
	kindSale    = "sale"
	kindExpense = "expense"
)

const metaActiveBusiness = "active_business_id"

// ErrNoActiveBusiness is returned when no business is selected on the device.
var ErrNoActiveBusiness = errors.New("no active business selected")

const schema = `
CREATE TABLE IF NOT EXISTS businesses (
	business_id TEXT PRIMARY KEY,
	claimed INTEGER NOT NULL DEFAULT 0,
	data TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS records (
	id TEXT NOT NULL,
	kind TEXT NOT NULL,
	business_id TEXT NOT NULL,
	data TEXT NOT NULL,
	PRIMARY KEY (id, kind)
);
CREATE INDEX IF NOT EXISTS idx_records_business_kind ON records (business_id, kind);
CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Store is a single-device local database. Methods are safe for concurrent
// use; database/sql serializes access to the underlying sqlite connection.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the device store at path. Use ":memory:" in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize local store schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// --- businesses ---

// PutBusiness stores or replaces a business. claimed marks whether the cloud
// account owns it; unclaimed businesses are candidates for consolidation on
// the next sign-in.
func (s *Store) PutBusiness(b domain.Business, claimed bool) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to encode business %s: %w", b.BusinessID, err)
	}
	c := 0
	if claimed {
		c = 1
	}
	_, err = s.db.Exec(
		`INSERT INTO businesses (business_id, claimed, data) VALUES (?, ?, ?)
		 ON CONFLICT(business_id) DO UPDATE SET claimed = excluded.claimed, data = excluded.data;`,
		b.BusinessID, c, string(data))
	if err != nil {
		return fmt.Errorf("failed to store business %s: %w", b.BusinessID, err)
	}
	return nil
}

// GetBusiness returns the stored business and its claimed flag.
func (s *Store) GetBusiness(businessID string) (*domain.Business, bool, error) {
	var data string
	var claimed int
	err := s.db.QueryRow(`SELECT data, claimed FROM businesses WHERE business_id = ?;`, businessID).
		Scan(&data, &claimed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load business %s: %w", businessID, err)
	}
	var b domain.Business
	if err := json.Unmarshal([]byte(data), &b); err != nil {
		return nil, false, fmt.Errorf("failed to decode business %s: %w", businessID, err)
	}
	return &b, claimed == 1, nil
}

// ListBusinesses returns all stored businesses. When unclaimedOnly is set,
// only businesses never synced to the cloud account are returned.
func (s *Store) ListBusinesses(unclaimedOnly bool) ([]domain.Business, error) {
	query := `SELECT data FROM businesses`
	if unclaimedOnly {
		query += ` WHERE claimed = 0`
	}
	rows, err := s.db.Query(query + `;`)
	if err != nil {
		return nil, fmt.Errorf("failed to list businesses: %w", err)
	}
	defer rows.Close()

	var businesses []domain.Business
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan business row: %w", err)
		}
		var b domain.Business
		if err := json.Unmarshal([]byte(data), &b); err != nil {
			return nil, fmt.Errorf("failed to decode business row: %w", err)
		}
		businesses = append(businesses, b)
	}
	return businesses, rows.Err()
}

// MarkClaimed flips the claimed flag after a successful sync or consolidation.
func (s *Store) MarkClaimed(businessID string) error {
	_, err := s.db.Exec(`UPDATE businesses SET claimed = 1 WHERE business_id = ?;`, businessID)
	if err != nil {
		return fmt.Errorf("failed to mark business %s claimed: %w", businessID, err)
	}
	return nil
}

// PurgeBusiness removes the business and every record under it. Clears the
// active pointer when it pointed at the purged business.
func (s *Store) PurgeBusiness(businessID string) error {
	if _, err := s.db.Exec(`DELETE FROM records WHERE business_id = ?;`, businessID); err != nil {
		return fmt.Errorf("failed to purge records for business %s: %w", businessID, err)
	}
	if _, err := s.db.Exec(`DELETE FROM businesses WHERE business_id = ?;`, businessID); err != nil {
		return fmt.Errorf("failed to purge business %s: %w", businessID, err)
	}
	active, err := s.ActiveBusinessID()
	if err != nil && !errors.Is(err, ErrNoActiveBusiness) {
		return err
	}
	if active == businessID {
		return s.ClearActiveBusiness()
	}
	return nil
}

// --- active business pointer ---

func (s *Store) ActiveBusinessID() (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = ?;`, metaActiveBusiness).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoActiveBusiness
	}
	if err != nil {
		return "", fmt.Errorf("failed to load active business: %w", err)
	}
	return value, nil
}

func (s *Store) SetActiveBusiness(businessID string) error {
	_, err := s.db.Exec(
		`INSERT INTO meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value;`,
		metaActiveBusiness, businessID)
	if err != nil {
		return fmt.Errorf("failed to set active business: %w", err)
	}
	return nil
}

func (s *Store) ClearActiveBusiness() error {
	_, err := s.db.Exec(`DELETE FROM meta WHERE key = ?;`, metaActiveBusiness)
	if err != nil {
		return fmt.Errorf("failed to clear active business: %w", err)
	}
	return nil
}

// --- records ---

func (s *Store) putRecord(id, kind, businessID string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s %s: %w", kind, id, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO records (id, kind, business_id, data) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id, kind) DO UPDATE SET business_id = excluded.business_id, data = excluded.data;`,
		id, kind, businessID, string(data))
	if err != nil {
		return fmt.Errorf("failed to store %s %s: %w", kind, id, err)
	}
	return nil
}

func (s *Store) hasRecord(id, kind string) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM records WHERE id = ? AND kind = ?;`, id, kind).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check %s %s: %w", kind, id, err)
	}
	return true, nil
}

func (s *Store) deleteRecord(id, kind string) error {
	_, err := s.db.Exec(`DELETE FROM records WHERE id = ? AND kind = ?;`, id, kind)
	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", kind, id, err)
	}
	return nil
}

func (s *Store) listRecords(businessID, kind string, decode func(data []byte) error) error {
	rows, err := s.db.Query(`SELECT data FROM records WHERE business_id = ? AND kind = ?;`, businessID, kind)
	if err != nil {
		return fmt.Errorf("failed to list %ss for business %s: %w", kind, businessID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return fmt.Errorf("failed to scan %s row: %w", kind, err)
		}
		if err := decode([]byte(data)); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *Store) PutProduct(p domain.Product) error {
	return s.putRecord(p.ProductID, kindProduct, p.BusinessID, p)
}

func (s *Store) HasProduct(productID string) (bool, error) {
	return s.hasRecord(productID, kindProduct)
}

func (s *Store) DeleteProduct(productID string) error {
	return s.deleteRecord(productID, kindProduct)
}

func (s *Store) ListProducts(businessID string) ([]domain.Product, error) {
	var products []domain.Product
	err := s.listRecords(businessID, kindProduct, func(data []byte) error {
		var p domain.Product
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("failed to decode product: %w", err)
		}
		products = append(products, p)
		return nil
	})
	return products, err
}

func (s *Store) PutSale(sale domain.Sale) error {
	return s.putRecord(sale.SaleID, kindSale, sale.BusinessID, sale)
}

func (s *Store) HasSale(saleID string) (bool, error) {
	return s.hasRecord(saleID, kindSale)
}

func (s *Store) ListSales(businessID string) ([]domain.Sale, error) {
	var sales []domain.Sale
	err := s.listRecords(businessID, kindSale, func(data []byte) error {
		var sale domain.Sale
		if err := json.Unmarshal(data, &sale); err != nil {
			return fmt.Errorf("failed to decode sale: %w", err)
		}
		sales = append(sales, sale)
		return nil
	})
	return sales, err
}

func (s *Store) PutExpense(e domain.Expense) error {
	return s.putRecord(e.ExpenseID, kindExpense, e.BusinessID, e)
}

func (s *Store) HasExpense(expenseID string) (bool, error) {
	return s.hasRecord(expenseID, kindExpense)
}

func (s *Store) ListExpenses(businessID string) ([]domain.Expense, error) {
	var expenses []domain.Expense
	err := s.listRecords(businessID, kindExpense, func(data []byte) error {
		var e domain.Expense
		if err := json.Unmarshal(data, &e); err != nil {
			return fmt.Errorf("failed to decode expense: %w", err)
		}
		expenses = append(expenses, e)
		return nil
	})
	return expenses, err
}

// ReplaceProducts swaps the whole product set of a business in one
// transaction. Used when the cloud copy wins wholesale.
func (s *Store) ReplaceProducts(businessID string, products []domain.Product) error {
	return s.replaceKind(businessID, kindProduct, len(products), func(i int) (string, any) {
		return products[i].ProductID, products[i]
	})
}

// ReplaceSales swaps the whole sale set of a business in one transaction.
func (s *Store) ReplaceSales(businessID string, sales []domain.Sale) error {
	return s.replaceKind(businessID, kindSale, len(sales), func(i int) (string, any) {
		return sales[i].SaleID, sales[i]
	})
}

// ReplaceExpenses swaps the whole expense set of a business in one
// transaction.
func (s *Store) ReplaceExpenses(businessID string, expenses []domain.Expense) error {
	return s.replaceKind(businessID, kindExpense, len(expenses), func(i int) (string, any) {
		return expenses[i].ExpenseID, expenses[i]
	})
}

func (s *Store) replaceKind(businessID, kind string, n int, at func(i int) (string, any)) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin replace of %ss: %w", kind, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM records WHERE business_id = ? AND kind = ?;`, businessID, kind); err != nil {
		return fmt.Errorf("failed to clear %ss for business %s: %w", kind, businessID, err)
	}
	for i := 0; i < n; i++ {
		id, v := at(i)
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode %s %s: %w", kind, id, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO records (id, kind, business_id, data) VALUES (?, ?, ?, ?);`,
			id, kind, businessID, string(data)); err != nil {
			return fmt.Errorf("failed to insert %s %s: %w", kind, id, err)
		}
	}
	return tx.Commit()
}
