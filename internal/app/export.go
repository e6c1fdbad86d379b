package app

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"roomledger/internal/domain"
)

// Channel upload layout: 13 positional columns, of which only five
// carry data. The mapping is a hard contract with the downstream
// channel and must not shift.
const (
	exportWidth   = 13
	colDate       = 0  // "YYYY-MM-DD (Ddd)"
	colProduct    = 1  // product display name
	colPrice      = 6  // integer price
	colStock      = 8  // remaining stock
	colCode       = 9  // product channel code
	colSaleStatus = 12 // "Y" open / "N" suspended
)

var exportHeader = func() []string {
	h := make([]string, exportWidth)
	h[colDate] = "date"
	h[colProduct] = "product"
	h[colPrice] = "price"
	h[colStock] = "stock"
	h[colCode] = "code"
	h[colSaleStatus] = "status"
	return h
}()

// ExportGrid maps ledger rows to the channel layout, header first.
// rows are expected in presentation order; codeOf resolves a
// product's channel code ("" when none is registered).
func ExportGrid(rows []domain.Row, codeOf func(product string) string) [][]string {
	out := make([][]string, 0, len(rows)+1)
	out = append(out, exportHeader)
	for _, r := range rows {
		rec := make([]string, exportWidth)
		rec[colDate] = domain.FormatStagedDate(r.Date)
		rec[colProduct] = r.Product
		rec[colPrice] = strconv.FormatInt(r.Price, 10)
		rec[colStock] = strconv.Itoa(r.Stock)
		rec[colCode] = codeOf(r.Product)
		rec[colSaleStatus] = r.Status.Mark()
		out = append(out, rec)
	}
	return out
}

// WriteWorkbook renders the grid into a single-sheet workbook.
func WriteWorkbook(grid [][]string) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, rec := range grid {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		row := make([]any, len(rec))
		for j, v := range rec {
			row[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Export builds the channel upload workbook for one hotel.
func (s *Session) Export(hotel string) (*excelize.File, error) {
	s.mu.Lock()
	if !s.catalog.HasHotel(hotel) {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: hotel %q", domain.ErrNotFound, hotel)
	}
	rows := s.ledger.RowsFor(hotel, s.catalog.ProductOrder(hotel))
	codes := make(map[string]string)
	for _, p := range s.catalog.Products(hotel) {
		codes[p.Name] = p.Code
	}
	s.mu.Unlock()

	grid := ExportGrid(rows, func(product string) string { return codes[product] })
	return WriteWorkbook(grid)
}
