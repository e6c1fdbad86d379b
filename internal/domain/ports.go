package domain

import "context"

// TableStore is the external row-oriented persistence service: one
// logical table per hotel for ledger rows plus two catalog tables.
// The store has no transactions and no schema enforcement; Save* is
// full-replace (clear + rewrite), so a mid-write failure can leave a
// table partial or empty. Load* must create a missing table with its
// canonical header and return an empty result rather than fail;
// connection-level errors still propagate.
type TableStore interface {
	LoadLedger(ctx context.Context, hotel string) ([]Row, error)
	SaveLedger(ctx context.Context, hotel string, rows []Row) error

	LoadHotels(ctx context.Context) ([]string, error)
	SaveHotels(ctx context.Context, hotels []string) error

	// Product position is encoded by row order in the products table.
	LoadProducts(ctx context.Context) ([]Product, error)
	SaveProducts(ctx context.Context, products []Product) error
}

// Cache is the read-side cache for row listings and month grids.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
