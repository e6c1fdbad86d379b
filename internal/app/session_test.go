package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"roomledger/internal/app"
	"roomledger/internal/domain"
)

// ---- fakes ----

type fakeStore struct {
	hotels   []string
	products []domain.Product
	ledgers  map[string][]domain.Row

	saveErr   error
	saveCalls []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{ledgers: map[string][]domain.Row{}}
}

func (f *fakeStore) LoadLedger(ctx context.Context, hotel string) ([]domain.Row, error) {
	return f.ledgers[hotel], nil
}
func (f *fakeStore) SaveLedger(ctx context.Context, hotel string, rows []domain.Row) error {
	f.saveCalls = append(f.saveCalls, "ledger:"+hotel)
	if f.saveErr != nil {
		return f.saveErr
	}
	f.ledgers[hotel] = append([]domain.Row(nil), rows...)
	return nil
}
func (f *fakeStore) LoadHotels(ctx context.Context) ([]string, error) { return f.hotels, nil }
func (f *fakeStore) SaveHotels(ctx context.Context, hotels []string) error {
	f.saveCalls = append(f.saveCalls, "hotels")
	if f.saveErr != nil {
		return f.saveErr
	}
	f.hotels = append([]string(nil), hotels...)
	return nil
}
func (f *fakeStore) LoadProducts(ctx context.Context) ([]domain.Product, error) {
	return f.products, nil
}
func (f *fakeStore) SaveProducts(ctx context.Context, products []domain.Product) error {
	f.saveCalls = append(f.saveCalls, "products")
	if f.saveErr != nil {
		return f.saveErr
	}
	f.products = append([]domain.Product(nil), products...)
	return nil
}

type fakeCache struct {
	store map[string][]byte
	sets  int
	hits  int
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	return false, nil // pass-through; Set still recorded
}
func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.sets++
	return nil
}
func (c *fakeCache) Del(ctx context.Context, key string) error { return nil }

// ---- helpers ----

func price(v int64) *int64 { return &v }

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func newTestSession(t *testing.T, store domain.TableStore) *app.Session {
	t.Helper()
	s := app.NewSession(store, &fakeCache{}, app.Options{
		WeekStart: time.Sunday,
		CacheTTL:  time.Minute,
		Now:       d(2025, 3, 1),
	})
	ctx := context.Background()
	if err := s.AddHotel(ctx, "Solbeach"); err != nil {
		t.Fatalf("add hotel: %v", err)
	}
	if err := s.AddProduct(ctx, "Solbeach", "Deluxe", "DLX-1"); err != nil {
		t.Fatalf("add product: %v", err)
	}
	return s
}

// ---- tests ----

func TestCommit_MarchSaturdaysScenario(t *testing.T) {
	store := newFakeStore()
	s := newTestSession(t, store)
	ctx := context.Background()

	added, err := s.StageDates(d(2025, 3, 1), d(2025, 3, 31), []time.Weekday{time.Saturday})
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	if added != 5 {
		t.Fatalf("staged = %d, want 5", added)
	}

	written, err := s.Commit(ctx, "Solbeach", []domain.ProductSetting{
		{Product: "Deluxe", Price: price(100000), Stock: 3, Status: domain.StatusOpen},
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if written != 5 {
		t.Fatalf("written = %d, want 5", written)
	}
	if got := s.StagedLabels(); len(got) != 0 {
		t.Fatalf("buffer not cleared: %v", got)
	}

	rows, err := s.RowsForMonth(ctx, "Solbeach", domain.YearMonth{Year: 2025, Month: time.March})
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("rows = %d, want 5", len(rows))
	}
	for _, r := range rows {
		if r.Price != 100000 || r.Stock != 3 || r.Status != domain.StatusOpen {
			t.Fatalf("row = %+v", r)
		}
	}
	// flush reached the store
	if got := store.ledgers["Solbeach"]; len(got) != 5 {
		t.Fatalf("store rows = %d, want 5", len(got))
	}
}

func TestCommit_EmptyBufferRejected(t *testing.T) {
	s := newTestSession(t, newFakeStore())
	_, err := s.Commit(context.Background(), "Solbeach", []domain.ProductSetting{
		{Product: "Deluxe", Price: price(100000)},
	})
	if !errors.Is(err, domain.ErrNoDates) {
		t.Fatalf("err = %v, want ErrNoDates", err)
	}
}

func TestCommit_UnknownHotel(t *testing.T) {
	s := newTestSession(t, newFakeStore())
	if _, err := s.StageDates(d(2025, 3, 1), d(2025, 3, 1), []time.Weekday{time.Saturday}); err != nil {
		t.Fatalf("stage: %v", err)
	}
	_, err := s.Commit(context.Background(), "Nowhere", []domain.ProductSetting{
		{Product: "Deluxe", Price: price(100000)},
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	// validation failure must not clear the buffer
	if got := s.StagedLabels(); len(got) != 1 {
		t.Fatalf("buffer = %v", got)
	}
}

func TestCommit_SaveFailureKeepsMemory(t *testing.T) {
	store := newFakeStore()
	s := newTestSession(t, store)
	ctx := context.Background()

	if _, err := s.StageDates(d(2025, 3, 1), d(2025, 3, 1), []time.Weekday{time.Saturday}); err != nil {
		t.Fatalf("stage: %v", err)
	}
	store.saveErr = errors.New("store unreachable")

	_, err := s.Commit(ctx, "Solbeach", []domain.ProductSetting{
		{Product: "Deluxe", Price: price(100000)},
	})
	if err == nil {
		t.Fatal("expected persistence error")
	}
	// memory ahead of store: rows visible, buffer cleared
	rows, rerr := s.Rows(ctx, "Solbeach")
	if rerr != nil || len(rows) != 1 {
		t.Fatalf("rows = %v, %v", rows, rerr)
	}
	if got := s.StagedLabels(); len(got) != 0 {
		t.Fatalf("buffer = %v", got)
	}
	if len(store.ledgers["Solbeach"]) != 0 {
		t.Fatal("store should not have the rows")
	}
}

func TestEditRow_UpsertsAndFlushes(t *testing.T) {
	store := newFakeStore()
	s := newTestSession(t, store)
	ctx := context.Background()

	row := domain.Row{Date: d(2025, 3, 1), Hotel: "Solbeach", Product: "Deluxe", Price: 90000, Stock: 0}
	if err := s.EditRow(ctx, row); err != nil {
		t.Fatalf("edit: %v", err)
	}
	row.Status = domain.StatusSuspended
	if err := s.EditRow(ctx, row); err != nil {
		t.Fatalf("edit: %v", err)
	}

	rows, err := s.Rows(ctx, "Solbeach")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 1 || rows[0].Status != domain.StatusSuspended || rows[0].Stock != 0 {
		t.Fatalf("rows = %+v", rows)
	}
	if len(store.ledgers["Solbeach"]) != 1 {
		t.Fatalf("store rows = %d", len(store.ledgers["Solbeach"]))
	}
}

func TestRemoveHotel_PurgesLedgerAndTables(t *testing.T) {
	store := newFakeStore()
	s := newTestSession(t, store)
	ctx := context.Background()

	if err := s.EditRow(ctx, domain.Row{Date: d(2025, 3, 1), Hotel: "Solbeach", Product: "Deluxe", Price: 90000, Stock: 1}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if err := s.RemoveHotel(ctx, "Solbeach"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := s.Hotels(); len(got) != 0 {
		t.Fatalf("hotels = %v", got)
	}
	if len(store.hotels) != 0 || len(store.products) != 0 {
		t.Fatalf("catalog tables = %v / %v", store.hotels, store.products)
	}
	if len(store.ledgers["Solbeach"]) != 0 {
		t.Fatal("ledger table not rewritten empty")
	}
}

func TestRemoveProduct_LeavesLedgerRows(t *testing.T) {
	store := newFakeStore()
	s := newTestSession(t, store)
	ctx := context.Background()

	if err := s.EditRow(ctx, domain.Row{Date: d(2025, 3, 1), Hotel: "Solbeach", Product: "Deluxe", Price: 90000, Stock: 1}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if err := s.RemoveProduct(ctx, "Solbeach", 0); err != nil {
		t.Fatalf("remove product: %v", err)
	}
	// rows for the deleted product remain until overwritten
	rows, err := s.Rows(ctx, "Solbeach")
	if err != nil || len(rows) != 1 {
		t.Fatalf("rows = %v, %v", rows, err)
	}
}

func TestLoad_HydratesFromStore(t *testing.T) {
	store := newFakeStore()
	store.hotels = []string{"Solbeach"}
	store.products = []domain.Product{{Hotel: "Solbeach", Name: "Deluxe"}}
	store.ledgers["Solbeach"] = []domain.Row{
		{Date: d(2025, 3, 1), Hotel: "Solbeach", Product: "Deluxe", Price: 100000, Stock: 3},
		// residual duplicate from external data; later row must win
		{Date: d(2025, 3, 1), Hotel: "Solbeach", Product: "Deluxe", Price: 110000, Stock: 2},
	}

	s := app.NewSession(store, nil, app.Options{Now: d(2025, 3, 1)})
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	rows, err := s.Rows(context.Background(), "Solbeach")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 1 || rows[0].Price != 110000 {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestAdvanceMonth_Wraps(t *testing.T) {
	s := app.NewSession(newFakeStore(), nil, app.Options{Now: d(2025, 12, 10)})
	if got := s.AdvanceMonth(1); got.Year != 2026 || got.Month != time.January {
		t.Fatalf("advance = %v", got)
	}
	if got := s.AdvanceMonth(-1); got.Year != 2025 || got.Month != time.December {
		t.Fatalf("advance back = %v", got)
	}
}

func TestCalendar_SoldOutAndSuspended(t *testing.T) {
	store := newFakeStore()
	s := newTestSession(t, store)
	ctx := context.Background()

	if err := s.EditRow(ctx, domain.Row{Date: d(2025, 3, 1), Hotel: "Solbeach", Product: "Deluxe", Price: 100000, Stock: 0}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	ym := domain.YearMonth{Year: 2025, Month: time.March}
	grid, err := s.Calendar(ctx, "Solbeach", &ym, domain.ViewStock)
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}
	entry := findEntry(t, grid, 1, "Deluxe")
	if !entry.SoldOut || entry.Suspended {
		t.Fatalf("entry = %+v, want sold-out only", entry)
	}
	if entry.Class != "stock-zero" {
		t.Fatalf("class = %q", entry.Class)
	}

	// suspend the same row: both flags now apply, sold-out class wins
	if err := s.EditRow(ctx, domain.Row{Date: d(2025, 3, 1), Hotel: "Solbeach", Product: "Deluxe", Price: 100000, Stock: 0, Status: domain.StatusSuspended}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	grid, err = s.Calendar(ctx, "Solbeach", &ym, domain.ViewStock)
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}
	entry = findEntry(t, grid, 1, "Deluxe")
	if !entry.SoldOut || !entry.Suspended {
		t.Fatalf("entry = %+v, want both flags", entry)
	}
	if entry.Class != "stock-zero" {
		t.Fatalf("class = %q, sold-out styling must win", entry.Class)
	}
}

func findEntry(t *testing.T, grid domain.MonthGrid, day int, product string) domain.CellEntry {
	t.Helper()
	for _, week := range grid.Weeks {
		for _, cell := range week {
			if !cell.InMonth || cell.Day != day {
				continue
			}
			for _, e := range cell.Entries {
				if e.Product == product {
					return e
				}
			}
		}
	}
	t.Fatalf("no entry for day %d product %s", day, product)
	return domain.CellEntry{}
}
