package domain_test

import (
	"errors"
	"testing"
	"time"

	"roomledger/internal/domain"
)

func price(v int64) *int64 { return &v }

func TestCommit_ValidationOrder(t *testing.T) {
	l := domain.NewLedger()
	settings := []domain.ProductSetting{{Product: "Deluxe", Price: price(100000)}}

	if _, err := l.Commit("Solbeach", nil, settings); !errors.Is(err, domain.ErrNoDates) {
		t.Fatalf("err = %v, want ErrNoDates", err)
	}
	dates := []time.Time{d(2025, 3, 1)}
	if _, err := l.Commit("Solbeach", dates, nil); !errors.Is(err, domain.ErrNoProducts) {
		t.Fatalf("err = %v, want ErrNoProducts", err)
	}
	missing := []domain.ProductSetting{
		{Product: "Deluxe", Price: price(100000)},
		{Product: "Suite", Price: nil},
	}
	if _, err := l.Commit("Solbeach", dates, missing); !errors.Is(err, domain.ErrMissingPrice) {
		t.Fatalf("err = %v, want ErrMissingPrice", err)
	}
	if l.Len() != 0 {
		t.Fatalf("failed commit mutated the ledger: %d rows", l.Len())
	}
}

func TestCommit_LastWriteWins(t *testing.T) {
	l := domain.NewLedger()
	dates := []time.Time{d(2025, 3, 1)}

	if _, err := l.Commit("Solbeach", dates, []domain.ProductSetting{
		{Product: "Deluxe", Price: price(100000), Stock: 3},
	}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, err := l.Commit("Solbeach", dates, []domain.ProductSetting{
		{Product: "Deluxe", Price: price(120000), Stock: 1, Status: domain.StatusSuspended},
	}); err != nil {
		t.Fatalf("commit: %v", err)
	}

	rows := l.RowsFor("Solbeach", map[string]int{"Deluxe": 0})
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want exactly 1 (no duplicate keys)", len(rows))
	}
	r := rows[0]
	if r.Price != 120000 || r.Stock != 1 || r.Status != domain.StatusSuspended {
		t.Fatalf("row = %+v, want second commit's values", r)
	}
}

func TestCommit_CrossProduct(t *testing.T) {
	l := domain.NewLedger()
	dates := []time.Time{d(2025, 3, 1), d(2025, 3, 8), d(2025, 3, 15)}
	n, err := l.Commit("Solbeach", dates, []domain.ProductSetting{
		{Product: "Deluxe", Price: price(100000), Stock: 3},
		{Product: "Suite", Price: price(250000), Stock: 2},
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if n != 6 {
		t.Fatalf("written = %d, want 6", n)
	}
	if l.Len() != 6 {
		t.Fatalf("ledger rows = %d, want 6", l.Len())
	}
}

func TestUpsert_FieldConstraints(t *testing.T) {
	l := domain.NewLedger()
	base := domain.Row{Date: d(2025, 3, 1), Hotel: "Solbeach", Product: "Deluxe", Price: 100000, Stock: 3}

	bad := base
	bad.Price = -1
	if err := l.Upsert(bad); !errors.Is(err, domain.ErrBadValue) {
		t.Fatalf("err = %v, want ErrBadValue", err)
	}
	bad = base
	bad.Stock = -1
	if err := l.Upsert(bad); !errors.Is(err, domain.ErrBadValue) {
		t.Fatalf("err = %v, want ErrBadValue", err)
	}
	bad = base
	bad.Status = domain.SaleStatus(7)
	if err := l.Upsert(bad); !errors.Is(err, domain.ErrBadValue) {
		t.Fatalf("err = %v, want ErrBadValue", err)
	}
	if err := l.Upsert(base); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, ok := l.Get(base.Key())
	if !ok || got.Price != 100000 {
		t.Fatalf("get = %+v ok=%v", got, ok)
	}
}

func TestRowsFor_OrderAndOrphans(t *testing.T) {
	l := domain.NewLedger()
	order := map[string]int{"Family": 0, "Suite": 1}
	dates := []time.Time{d(2025, 3, 2), d(2025, 3, 1)}
	if _, err := l.Commit("Solbeach", dates, []domain.ProductSetting{
		{Product: "Suite", Price: price(250000)},
		{Product: "Ghost", Price: price(90000)}, // not in catalog order
		{Product: "Family", Price: price(100000)},
	}); err != nil {
		t.Fatalf("commit: %v", err)
	}

	rows := l.RowsFor("Solbeach", order)
	if len(rows) != 6 {
		t.Fatalf("rows = %d", len(rows))
	}
	// date ascending first, then catalog position, orphans last
	want := []struct {
		day     int
		product string
	}{
		{1, "Family"}, {1, "Suite"}, {1, "Ghost"},
		{2, "Family"}, {2, "Suite"}, {2, "Ghost"},
	}
	for i, w := range want {
		if rows[i].Date.Day() != w.day || rows[i].Product != w.product {
			t.Fatalf("rows[%d] = %s %s, want day %d %s", i, rows[i].Date.Format("01-02"), rows[i].Product, w.day, w.product)
		}
	}
}

func TestRowsForMonth_Filters(t *testing.T) {
	l := domain.NewLedger()
	dates := []time.Time{d(2025, 2, 28), d(2025, 3, 1), d(2025, 4, 1)}
	if _, err := l.Commit("Solbeach", dates, []domain.ProductSetting{
		{Product: "Deluxe", Price: price(100000)},
	}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	rows := l.RowsForMonth("Solbeach", domain.YearMonth{Year: 2025, Month: time.March}, nil)
	if len(rows) != 1 || rows[0].Date.Day() != 1 {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestPurgeHotel_LeavesOthers(t *testing.T) {
	l := domain.NewLedger()
	dates := []time.Time{d(2025, 3, 1)}
	s := []domain.ProductSetting{{Product: "Deluxe", Price: price(100000)}}
	if _, err := l.Commit("A", dates, s); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, err := l.Commit("B", dates, s); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if n := l.PurgeHotel("A"); n != 1 {
		t.Fatalf("purged = %d", n)
	}
	if len(l.RowsFor("A", nil)) != 0 || len(l.RowsFor("B", nil)) != 1 {
		t.Fatal("purge touched the wrong hotel")
	}
}

func TestReplaceHotel_CollapsesExternalDuplicates(t *testing.T) {
	l := domain.NewLedger()
	day := d(2025, 3, 1)
	// external table with a residual duplicate key; the later row wins
	l.ReplaceHotel("Solbeach", []domain.Row{
		{Date: day, Product: "Deluxe", Price: 100000, Stock: 3},
		{Date: day, Product: "Deluxe", Price: 110000, Stock: 2},
	})
	rows := l.RowsFor("Solbeach", nil)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].Price != 110000 {
		t.Fatalf("price = %d, want the later row kept", rows[0].Price)
	}
}

func TestSaleStatus_Roundtrip(t *testing.T) {
	cases := []struct {
		in   string
		want domain.SaleStatus
	}{
		{"Y", domain.StatusOpen},
		{"N", domain.StatusSuspended},
		{"open", domain.StatusOpen},
		{"SUSPENDED", domain.StatusSuspended},
	}
	for _, tc := range cases {
		got, err := domain.ParseSaleStatus(tc.in)
		if err != nil || got != tc.want {
			t.Fatalf("ParseSaleStatus(%q) = %v, %v", tc.in, got, err)
		}
	}
	if _, err := domain.ParseSaleStatus("maybe"); !errors.Is(err, domain.ErrBadValue) {
		t.Fatalf("err = %v, want ErrBadValue", err)
	}
	if domain.StatusOpen.Mark() != "Y" || domain.StatusSuspended.Mark() != "N" {
		t.Fatal("status marks changed")
	}
}
