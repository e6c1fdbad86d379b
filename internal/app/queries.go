package app

import (
	"context"
	"fmt"

	"roomledger/internal/domain"
)

// Read side. Row listings and month grids are cached per hotel; keys
// carry a per-hotel generation stamp that every mutation bumps, so
// stale entries are never served and simply age out by TTL.

// Rows returns the hotel's ledger rows in presentation order: date
// ascending, then catalog product position (orphaned products last).
func (s *Session) Rows(ctx context.Context, hotel string) ([]domain.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.catalog.HasHotel(hotel) {
		return nil, fmt.Errorf("%w: hotel %q", domain.ErrNotFound, hotel)
	}
	key := fmt.Sprintf("rows:%s:g%d", hotel, s.gen[hotel])
	var cached []domain.Row
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &cached); ok {
			return cached, nil
		}
	}
	rows := s.ledger.RowsFor(hotel, s.catalog.ProductOrder(hotel))
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, rows, int(s.cacheTTL.Seconds()))
	}
	return rows, nil
}

// RowsForMonth filters Rows to one year-month.
func (s *Session) RowsForMonth(ctx context.Context, hotel string, ym domain.YearMonth) ([]domain.Row, error) {
	all, err := s.Rows(ctx, hotel)
	if err != nil {
		return nil, err
	}
	var out []domain.Row
	for _, r := range all {
		if ym.Contains(r.Date) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Calendar projects one month of the hotel's ledger onto the grid.
// A nil ym uses the session's month cursor.
func (s *Session) Calendar(ctx context.Context, hotel string, ym *domain.YearMonth, mode domain.ViewMode) (domain.MonthGrid, error) {
	s.mu.Lock()
	month := s.cursor
	if ym != nil {
		month = *ym
	}
	weekStart := s.weekStart
	key := fmt.Sprintf("cal:%s:g%d:%s:%d", hotel, s.gen[hotel], month, mode)
	known := s.catalog.HasHotel(hotel)
	order := s.catalog.ProductOrder(hotel)
	rows := s.ledger.RowsForMonth(hotel, month, order)
	s.mu.Unlock()

	if !known {
		return domain.MonthGrid{}, fmt.Errorf("%w: hotel %q", domain.ErrNotFound, hotel)
	}
	var cached domain.MonthGrid
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &cached); ok {
			return cached, nil
		}
	}
	grid := BuildMonthGrid(month, weekStart, mode, rows)
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, grid, int(s.cacheTTL.Seconds()))
	}
	return grid, nil
}
