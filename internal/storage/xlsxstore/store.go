// Package xlsxstore implements the table-store port on a single
// workbook file: one sheet per logical table. The workbook behaves
// exactly like the external contract demands — no transactions, no
// schema, full clear-and-rewrite saves.
package xlsxstore

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io/fs"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"roomledger/internal/domain"
)

var (
	hotelsHeader   = []string{"hotel"}
	productsHeader = []string{"hotel", "name", "code"}
	ledgerHeader   = []string{"date", "hotel", "product", "price", "stock", "status"}
)

type Store struct {
	mu   sync.Mutex
	path string
}

func New(path string) *Store { return &Store{path: path} }

// ledgerSheet maps a hotel name onto a legal sheet name. Sheet names
// cap at 31 chars and reject :\/?*[]; long names keep a prefix plus a
// short hash so distinct hotels stay distinct.
func ledgerSheet(hotel string) string {
	name := "ledger_" + hotel
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, name)
	if len(clean) <= 31 {
		return clean
	}
	h := fnv.New32a()
	h.Write([]byte(hotel))
	return fmt.Sprintf("%.24s~%06x", clean, h.Sum32()&0xffffff)
}

func (s *Store) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(s.path)
	if err == nil {
		return f, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return excelize.NewFile(), nil
	}
	return nil, fmt.Errorf("open workbook %s: %w", s.path, err)
}

// ensureSheet creates the sheet with its header when missing. Returns
// true when the workbook changed and needs saving.
func ensureSheet(f *excelize.File, sheet string, header []string) (bool, error) {
	if idx, _ := f.GetSheetIndex(sheet); idx >= 0 {
		return false, nil
	}
	if _, err := f.NewSheet(sheet); err != nil {
		return false, err
	}
	if err := writeRow(f, sheet, 1, header); err != nil {
		return false, err
	}
	return true, nil
}

func writeRow(f *excelize.File, sheet string, rownum int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rownum)
	if err != nil {
		return err
	}
	row := make([]any, len(cells))
	for i, v := range cells {
		row[i] = v
	}
	return f.SetSheetRow(sheet, cell, &row)
}

// replaceSheet drops and recreates the sheet, then writes header plus
// records and saves the workbook. The save rewrites the whole file;
// a crash mid-write can truncate it, which is the accepted limitation
// of the full-replace contract.
func (s *Store) replaceSheet(sheet string, header []string, records [][]string) error {
	f, err := s.open()
	if err != nil {
		return err
	}
	defer f.Close()
	if idx, _ := f.GetSheetIndex(sheet); idx >= 0 {
		if err := f.DeleteSheet(sheet); err != nil {
			return fmt.Errorf("clear sheet %s: %w", sheet, err)
		}
	}
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	if err := writeRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, rec := range records {
		if err := writeRow(f, sheet, i+2, rec); err != nil {
			return err
		}
	}
	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("save workbook %s: %w", s.path, err)
	}
	return nil
}

// loadSheet reads all data rows (header excluded) from the sheet,
// creating it empty first when missing.
func (s *Store) loadSheet(sheet string, header []string) ([][]string, error) {
	f, err := s.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	created, err := ensureSheet(f, sheet, header)
	if err != nil {
		return nil, fmt.Errorf("ensure sheet %s: %w", sheet, err)
	}
	if created {
		if err := f.SaveAs(s.path); err != nil {
			return nil, fmt.Errorf("save workbook %s: %w", s.path, err)
		}
		return nil, nil
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	return rows[1:], nil
}

func (s *Store) LoadLedger(ctx context.Context, hotel string) ([]domain.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.loadSheet(ledgerSheet(hotel), ledgerHeader)
	if err != nil {
		return nil, err
	}
	var out []domain.Row
	for _, rec := range records {
		if len(rec) == 0 || rec[0] == "" {
			continue
		}
		r, err := parseLedgerRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("ledger row for %q: %w", hotel, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func parseLedgerRecord(rec []string) (domain.Row, error) {
	get := func(i int) string {
		if i < len(rec) {
			return rec[i]
		}
		return ""
	}
	d, err := time.ParseInLocation("2006-01-02", get(0), time.UTC)
	if err != nil {
		return domain.Row{}, err
	}
	price, err := strconv.ParseInt(get(3), 10, 64)
	if err != nil {
		return domain.Row{}, fmt.Errorf("price: %w", err)
	}
	stock, err := strconv.Atoi(get(4))
	if err != nil {
		return domain.Row{}, fmt.Errorf("stock: %w", err)
	}
	status, err := domain.ParseSaleStatus(get(5))
	if err != nil {
		return domain.Row{}, err
	}
	return domain.Row{
		Date:    d,
		Hotel:   get(1),
		Product: get(2),
		Price:   price,
		Stock:   stock,
		Status:  status,
	}, nil
}

func (s *Store) SaveLedger(ctx context.Context, hotel string, rows []domain.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.Date.Format("2006-01-02"),
			hotel,
			r.Product,
			strconv.FormatInt(r.Price, 10),
			strconv.Itoa(r.Stock),
			r.Status.Mark(),
		})
	}
	return s.replaceSheet(ledgerSheet(hotel), ledgerHeader, records)
}

func (s *Store) LoadHotels(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.loadSheet("hotels", hotelsHeader)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, rec := range records {
		if len(rec) > 0 && rec[0] != "" {
			out = append(out, rec[0])
		}
	}
	return out, nil
}

func (s *Store) SaveHotels(ctx context.Context, hotels []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([][]string, 0, len(hotels))
	for _, h := range hotels {
		records = append(records, []string{h})
	}
	return s.replaceSheet("hotels", hotelsHeader, records)
}

func (s *Store) LoadProducts(ctx context.Context) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.loadSheet("products", productsHeader)
	if err != nil {
		return nil, err
	}
	var out []domain.Product
	for _, rec := range records {
		if len(rec) < 2 || rec[0] == "" {
			continue
		}
		p := domain.Product{Hotel: rec[0], Name: rec[1]}
		if len(rec) > 2 {
			p.Code = rec[2]
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) SaveProducts(ctx context.Context, products []domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([][]string, 0, len(products))
	for _, p := range products {
		records = append(records, []string{p.Hotel, p.Name, p.Code})
	}
	return s.replaceSheet("products", productsHeader, records)
}
