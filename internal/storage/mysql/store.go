package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"roomledger/internal/domain"
)

// Store implements domain.TableStore on MySQL with the full-replace
// contract: every save clears the table and rewrites all rows. No
// surrounding transaction is used deliberately; the external-store
// contract accepts that a failure mid-write leaves partial contents.
type Store struct{ db *sql.DB }

func New(db *sql.DB) *Store { return &Store{db: db} }

// ledgerTable returns the quoted per-hotel table identifier. Hotel
// names are operator input and may contain anything, so the only
// escaping that matters inside backticks is the backtick itself.
func ledgerTable(hotel string) string {
	return "`ledger_" + strings.ReplaceAll(hotel, "`", "``") + "`"
}

func (s *Store) LoadLedger(ctx context.Context, hotel string) ([]domain.Row, error) {
	tbl := ledgerTable(hotel)
	// Missing tables are created empty rather than reported; only
	// connection-level errors surface.
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(createLedgerSQLFmt, tbl)); err != nil {
		return nil, fmt.Errorf("ensure ledger table: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(selectLedgerSQLFmt, tbl))
	if err != nil {
		return nil, fmt.Errorf("select ledger: %w", err)
	}
	defer rows.Close()

	var out []domain.Row
	for rows.Next() {
		var r domain.Row
		var date, status string
		if err := rows.Scan(&date, &r.Hotel, &r.Product, &r.Price, &r.Stock, &status); err != nil {
			return nil, err
		}
		d, err := time.ParseInLocation("2006-01-02", date, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("ledger row for %q: %w", hotel, err)
		}
		st, err := domain.ParseSaleStatus(status)
		if err != nil {
			return nil, fmt.Errorf("ledger row for %q: %w", hotel, err)
		}
		r.Date = d
		r.Status = st
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) SaveLedger(ctx context.Context, hotel string, rows []domain.Row) error {
	tbl := ledgerTable(hotel)
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(createLedgerSQLFmt, tbl)); err != nil {
		return fmt.Errorf("ensure ledger table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM "+tbl); err != nil {
		return fmt.Errorf("clear ledger table: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}
	values := make([]string, 0, len(rows))
	args := make([]any, 0, len(rows)*7)
	for i, r := range rows {
		values = append(values, "(?,?,?,?,?,?,?)")
		args = append(args,
			i,
			r.Date.Format("2006-01-02"),
			hotel,
			r.Product,
			r.Price,
			r.Stock,
			r.Status.Mark(),
		)
	}
	stmt := fmt.Sprintf(insertLedgerPrefixFmt, tbl) + strings.Join(values, ",")
	if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("write ledger rows: %w", err)
	}
	return nil
}

func (s *Store) LoadHotels(ctx context.Context) ([]string, error) {
	if _, err := s.db.ExecContext(ctx, createHotelsSQL); err != nil {
		return nil, fmt.Errorf("ensure hotels table: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, selectHotelsSQL)
	if err != nil {
		return nil, fmt.Errorf("select hotels: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) SaveHotels(ctx context.Context, hotels []string) error {
	if _, err := s.db.ExecContext(ctx, createHotelsSQL); err != nil {
		return fmt.Errorf("ensure hotels table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM hotels"); err != nil {
		return fmt.Errorf("clear hotels table: %w", err)
	}
	if len(hotels) == 0 {
		return nil
	}
	values := make([]string, 0, len(hotels))
	args := make([]any, 0, len(hotels)*2)
	for i, h := range hotels {
		values = append(values, "(?,?)")
		args = append(args, i, h)
	}
	if _, err := s.db.ExecContext(ctx, insertHotelsPrefix+strings.Join(values, ","), args...); err != nil {
		return fmt.Errorf("write hotels: %w", err)
	}
	return nil
}

func (s *Store) LoadProducts(ctx context.Context) ([]domain.Product, error) {
	if _, err := s.db.ExecContext(ctx, createProductsSQL); err != nil {
		return nil, fmt.Errorf("ensure products table: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, selectProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.Hotel, &p.Name, &p.Code); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) SaveProducts(ctx context.Context, products []domain.Product) error {
	if _, err := s.db.ExecContext(ctx, createProductsSQL); err != nil {
		return fmt.Errorf("ensure products table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM products"); err != nil {
		return fmt.Errorf("clear products table: %w", err)
	}
	if len(products) == 0 {
		return nil
	}
	values := make([]string, 0, len(products))
	args := make([]any, 0, len(products)*4)
	for i, p := range products {
		values = append(values, "(?,?,?,?)")
		args = append(args, i, p.Hotel, p.Name, p.Code)
	}
	if _, err := s.db.ExecContext(ctx, insertProductsPrefix+strings.Join(values, ","), args...); err != nil {
		return fmt.Errorf("write products: %w", err)
	}
	return nil
}
