package domain

import (
	"fmt"
	"sort"
	"time"
)

// SaleStatus is the explicit sale-state enum. The external store and
// the channel export speak "Y"/"N"; conversion happens only at those
// boundaries.
type SaleStatus int

const (
	StatusOpen SaleStatus = iota
	StatusSuspended
)

// DefaultStock is the stock applied when the operator leaves the
// field untouched.
const DefaultStock = 5

func (s SaleStatus) Valid() bool { return s == StatusOpen || s == StatusSuspended }

// Mark returns the single-letter wire form required by the channel.
func (s SaleStatus) Mark() string {
	if s == StatusSuspended {
		return "N"
	}
	return "Y"
}

func (s SaleStatus) String() string {
	if s == StatusSuspended {
		return "suspended"
	}
	return "open"
}

// ParseSaleStatus accepts both the wire form and the readable form.
func ParseSaleStatus(v string) (SaleStatus, error) {
	switch v {
	case "Y", "y", "open", "OPEN":
		return StatusOpen, nil
	case "N", "n", "suspended", "SUSPENDED":
		return StatusSuspended, nil
	}
	return StatusOpen, fmt.Errorf("%w: sale status %q", ErrBadValue, v)
}

// Row is one dated rate/stock fact. (Date, Hotel, Product) is the
// unique key; a commit fully replaces the row behind a key.
type Row struct {
	Date    time.Time // civil date, UTC midnight
	Hotel   string
	Product string
	Price   int64
	Stock   int
	Status  SaleStatus
}

// Key returns the row's identity as a comparable value.
func (r Row) Key() RowKey {
	return RowKey{Date: civil(r.Date), Hotel: r.Hotel, Product: r.Product}
}

type RowKey struct {
	Date    time.Time
	Hotel   string
	Product string
}

// ProductSetting is the operator's per-product input for a bulk
// commit. Price is a pointer so "not entered" is distinguishable from
// zero; commit rejects missing prices before touching the ledger.
type ProductSetting struct {
	Product string
	Price   *int64
	Stock   int
	Status  SaleStatus
}

// Ledger is the canonical in-memory table of rate/stock facts across
// all hotels. Not safe for concurrent use; the session serializes.
type Ledger struct {
	rows []Row
}

func NewLedger() *Ledger { return &Ledger{} }

func (l *Ledger) Len() int { return len(l.rows) }

// Commit upserts one row per (date, product) pair with the given
// settings. Validation runs in full before any mutation: staged dates
// present, product settings present, every price entered. Returns the
// number of rows written.
func (l *Ledger) Commit(hotel string, dates []time.Time, settings []ProductSetting) (int, error) {
	if len(dates) == 0 {
		return 0, ErrNoDates
	}
	if len(settings) == 0 {
		return 0, ErrNoProducts
	}
	for _, s := range settings {
		if s.Price == nil {
			return 0, fmt.Errorf("%w: %q", ErrMissingPrice, s.Product)
		}
		if *s.Price <= 0 || s.Stock < 0 || !s.Status.Valid() {
			return 0, fmt.Errorf("%w: product %q", ErrBadValue, s.Product)
		}
	}
	n := 0
	for _, d := range dates {
		for _, s := range settings {
			l.upsert(Row{
				Date:    civil(d),
				Hotel:   hotel,
				Product: s.Product,
				Price:   *s.Price,
				Stock:   s.Stock,
				Status:  s.Status,
			})
			n++
		}
	}
	return n, nil
}

// Upsert writes a single row, used by direct table edits. Only
// field-level constraints apply here; the price-entered business rule
// belongs to Commit.
func (l *Ledger) Upsert(row Row) error {
	if row.Price < 0 {
		return fmt.Errorf("%w: price %d", ErrBadValue, row.Price)
	}
	if row.Stock < 0 {
		return fmt.Errorf("%w: stock %d", ErrBadValue, row.Stock)
	}
	if !row.Status.Valid() {
		return fmt.Errorf("%w: sale status %d", ErrBadValue, row.Status)
	}
	row.Date = civil(row.Date)
	l.upsert(row)
	return nil
}

func (l *Ledger) upsert(row Row) {
	k := row.Key()
	for i := range l.rows {
		if l.rows[i].Key() == k {
			l.rows[i] = row
			return
		}
	}
	l.rows = append(l.rows, row)
}

// Get returns the row behind a key.
func (l *Ledger) Get(key RowKey) (Row, bool) {
	key.Date = civil(key.Date)
	for _, r := range l.rows {
		if r.Key() == key {
			return r, true
		}
	}
	return Row{}, false
}

// RowsFor returns the hotel's rows sorted by date ascending, then by
// catalog product position. Rows whose product no longer exists in
// the catalog sort after known products, stable by date.
func (l *Ledger) RowsFor(hotel string, order map[string]int) []Row {
	var out []Row
	for _, r := range l.rows {
		if r.Hotel == hotel {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		pi, oki := order[out[i].Product]
		pj, okj := order[out[j].Product]
		switch {
		case oki && okj:
			return pi < pj
		case oki != okj:
			return oki // known products first
		default:
			return false // both unknown: keep stable order
		}
	})
	return out
}

// RowsForMonth filters RowsFor to a single year-month.
func (l *Ledger) RowsForMonth(hotel string, ym YearMonth, order map[string]int) []Row {
	all := l.RowsFor(hotel, order)
	out := all[:0:0]
	for _, r := range all {
		if ym.Contains(r.Date) {
			out = append(out, r)
		}
	}
	return out
}

// PurgeHotel drops every row for the hotel. Invoked by the remove-
// hotel flow; removing a single product intentionally does NOT purge
// its rows (they remain until overwritten).
func (l *Ledger) PurgeHotel(hotel string) int {
	kept := l.rows[:0]
	n := 0
	for _, r := range l.rows {
		if r.Hotel == hotel {
			n++
			continue
		}
		kept = append(kept, r)
	}
	l.rows = kept
	return n
}

// ReplaceHotel swaps in rows loaded from the external store for one
// hotel and collapses any residual duplicate keys, keeping the last
// occurrence (external tables are written in commit order).
func (l *Ledger) ReplaceHotel(hotel string, rows []Row) {
	l.PurgeHotel(hotel)
	for i := range rows {
		rows[i].Date = civil(rows[i].Date)
		rows[i].Hotel = hotel
	}
	l.rows = append(l.rows, rows...)
	l.Collapse()
}

// Collapse enforces key uniqueness over the whole table, keeping the
// most recently written row per key. Upserts cannot create duplicates
// by construction; this guards against external data.
func (l *Ledger) Collapse() {
	last := make(map[RowKey]int, len(l.rows))
	for i, r := range l.rows {
		last[r.Key()] = i
	}
	if len(last) == len(l.rows) {
		return
	}
	kept := l.rows[:0]
	for i, r := range l.rows {
		if last[r.Key()] == i {
			kept = append(kept, r)
		}
	}
	l.rows = kept
}
