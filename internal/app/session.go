package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"roomledger/internal/adapters/observability"
	"roomledger/internal/domain"
)

// Session is the explicit application state for one operator session:
// catalog, ledger, staging buffer and calendar cursor, plus the store
// and cache ports. Operator actions run one at a time; the mutex
// enforces that single-mutator model at the adapter boundary.
//
// Mutations update memory first and then flush the affected external
// tables. A failed flush is surfaced but never rolled back, so memory
// may run ahead of the store until the next successful save.
type Session struct {
	mu sync.Mutex

	catalog *domain.Catalog
	ledger  *domain.Ledger
	staging *domain.StagingBuffer
	cursor  domain.YearMonth

	store    domain.TableStore
	cache    domain.Cache
	cacheTTL time.Duration
	saveRL   *rate.Limiter

	weekStart time.Weekday

	// gen stamps cache keys per hotel; bumping it on any mutation
	// retires stale row/grid entries without enumerating keys.
	gen map[string]uint64
}

type Options struct {
	WeekStart time.Weekday  // first calendar column, default Sunday
	CacheTTL  time.Duration // read-model cache TTL
	SaveRPS   int           // throttle for full-replace saves, <=0 disables
	Now       time.Time     // initial calendar cursor
}

func NewSession(store domain.TableStore, cache domain.Cache, opts Options) *Session {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	rl := rate.NewLimiter(rate.Inf, 1)
	if opts.SaveRPS > 0 {
		rl = rate.NewLimiter(rate.Limit(opts.SaveRPS), opts.SaveRPS)
	}
	return &Session{
		catalog:   domain.NewCatalog(),
		ledger:    domain.NewLedger(),
		staging:   domain.NewStagingBuffer(),
		cursor:    domain.CurrentYearMonth(opts.Now),
		store:     store,
		cache:     cache,
		cacheTTL:  opts.CacheTTL,
		saveRL:    rl,
		weekStart: opts.WeekStart,
		gen:       map[string]uint64{},
	}
}

// Load hydrates catalog and ledger from the store. Catalog tables
// that fail to load are treated as empty (logged, not fatal); ledger
// table errors propagate because silently dropping rate rows would be
// worse than failing startup.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hotels, err := s.store.LoadHotels(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("load hotels failed, starting empty")
		hotels = nil
	}
	products, err := s.store.LoadProducts(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("load products failed, starting empty")
		products = nil
	}
	s.catalog.Replace(hotels, products)

	for _, h := range hotels {
		rows, err := s.store.LoadLedger(ctx, h)
		if err != nil {
			return fmt.Errorf("load ledger for %q: %w", h, err)
		}
		s.ledger.ReplaceHotel(h, rows)
	}
	return nil
}

// ---- catalog commands ----

func (s *Session) AddHotel(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.catalog.AddHotel(name); err != nil {
		return err
	}
	return s.saveHotels(ctx)
}

// RemoveHotel drops the hotel, its products and its ledger rows, then
// rewrites all three affected tables. The catalog itself never
// touches the ledger; the purge happens here, at the session level.
func (s *Session) RemoveHotel(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.catalog.RemoveHotel(name); err != nil {
		return err
	}
	purged := s.ledger.PurgeHotel(name)
	log.Info().Str("hotel", name).Int("rows_purged", purged).Msg("hotel removed")
	s.bump(name)
	if err := s.saveHotels(ctx); err != nil {
		return err
	}
	if err := s.saveProducts(ctx); err != nil {
		return err
	}
	return s.saveLedger(ctx, name)
}

func (s *Session) Hotels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Hotels()
}

func (s *Session) AddProduct(ctx context.Context, hotel, name, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.catalog.AddProduct(hotel, name, code); err != nil {
		return err
	}
	s.bump(hotel)
	return s.saveProducts(ctx)
}

func (s *Session) MoveProduct(ctx context.Context, hotel string, index, direction int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog.MoveProduct(hotel, index, direction)
	s.bump(hotel)
	return s.saveProducts(ctx)
}

func (s *Session) RemoveProduct(ctx context.Context, hotel string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Ledger rows referencing the product stay until overwritten.
	if err := s.catalog.RemoveProduct(hotel, index); err != nil {
		return err
	}
	s.bump(hotel)
	return s.saveProducts(ctx)
}

func (s *Session) Products(hotel string) []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Products(hotel)
}

// ---- staging commands ----

func (s *Session) StageDates(start, end time.Time, weekdays []time.Weekday) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := make(map[time.Weekday]bool, len(weekdays))
	for _, wd := range weekdays {
		set[wd] = true
	}
	added, err := s.staging.Stage(start, end, set)
	if err != nil {
		return 0, err
	}
	if added == 0 {
		log.Warn().
			Str("start", start.Format("2006-01-02")).
			Str("end", end.Format("2006-01-02")).
			Msg("no matching weekday in range")
	}
	observability.StagedDates.Add(float64(added))
	return added, nil
}

func (s *Session) UnstageDates(keep []time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staging.Unstage(keep)
}

func (s *Session) ClearStaging() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staging.Clear()
}

func (s *Session) StagedLabels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.staging.Labels()
}

// ---- ledger commands ----

// Commit merges the staged dates with the per-product settings into
// the ledger. Validation is atomic: nothing mutates unless all checks
// pass. On success the staging buffer is cleared and the hotel's
// ledger table rewritten; a flush failure leaves the in-memory commit
// in place and is returned to the operator for retry.
func (s *Session) Commit(ctx context.Context, hotel string, settings []domain.ProductSetting) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.catalog.HasHotel(hotel) {
		return 0, fmt.Errorf("%w: hotel %q", domain.ErrNotFound, hotel)
	}
	dates := s.staging.Dates()
	written, err := s.ledger.Commit(hotel, dates, settings)
	if err != nil {
		return 0, err
	}
	s.staging.Clear()
	s.bump(hotel)
	observability.CommitsTotal.Inc()
	observability.RowsCommitted.Add(float64(written))
	return written, s.saveLedger(ctx, hotel)
}

// EditRow applies a direct single-row edit with the same upsert rule
// as Commit, minus the price-entered business check.
func (s *Session) EditRow(ctx context.Context, row domain.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ledger.Upsert(row); err != nil {
		return err
	}
	s.bump(row.Hotel)
	return s.saveLedger(ctx, row.Hotel)
}

// ---- calendar cursor ----

func (s *Session) CurrentMonth() domain.YearMonth {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// AdvanceMonth moves the cursor by delta months (usually ±1) and
// returns the new position. December and January wrap across years.
func (s *Session) AdvanceMonth(delta int) domain.YearMonth {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ; delta > 0; delta-- {
		s.cursor = s.cursor.Next()
	}
	for ; delta < 0; delta++ {
		s.cursor = s.cursor.Prev()
	}
	return s.cursor
}

// ---- flush helpers ----

func (s *Session) saveHotels(ctx context.Context) error {
	return s.flush(ctx, "hotels", func() error {
		return s.store.SaveHotels(ctx, s.catalog.Hotels())
	})
}

func (s *Session) saveProducts(ctx context.Context) error {
	return s.flush(ctx, "products", func() error {
		return s.store.SaveProducts(ctx, s.catalog.AllProducts())
	})
}

func (s *Session) saveLedger(ctx context.Context, hotel string) error {
	return s.flush(ctx, "ledger", func() error {
		rows := s.ledger.RowsFor(hotel, s.catalog.ProductOrder(hotel))
		return s.store.SaveLedger(ctx, hotel, rows)
	})
}

// flush runs one full-replace save through the rate limiter. External
// stores meter writes, so bursts of small edits are smoothed here
// rather than dropped.
func (s *Session) flush(ctx context.Context, table string, save func() error) error {
	if err := s.saveRL.Wait(ctx); err != nil {
		return fmt.Errorf("save %s: %w", table, err)
	}
	start := time.Now()
	err := save()
	observability.ObserveStore("save_"+table, err, time.Since(start))
	if err != nil {
		log.Error().Err(err).Str("table", table).Msg("save failed, memory ahead of store")
		return fmt.Errorf("save %s: %w", table, err)
	}
	return nil
}

// bump retires cached read models for the hotel.
func (s *Session) bump(hotel string) { s.gen[hotel]++ }
