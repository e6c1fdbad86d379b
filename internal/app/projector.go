package app

import (
	"strconv"
	"time"

	"roomledger/internal/domain"
)

// BuildMonthGrid renders one month of ledger rows as a week-by-week
// grid. rows must already be filtered to the month and sorted in
// presentation order (see Ledger.RowsForMonth). The first column is
// weekStart; leading and trailing cells outside the month stay empty
// placeholders.
func BuildMonthGrid(ym domain.YearMonth, weekStart time.Weekday, mode domain.ViewMode, rows []domain.Row) domain.MonthGrid {
	byDay := make(map[int][]domain.Row)
	for _, r := range rows {
		byDay[r.Date.Day()] = append(byDay[r.Date.Day()], r)
	}

	grid := domain.MonthGrid{
		YearMonth: ym,
		Mode:      modeName(mode),
		WeekStart: weekStart,
	}
	for i := 0; i < 7; i++ {
		wd := time.Weekday((int(weekStart) + i) % 7)
		grid.Weekdays[i] = wd.String()[:3]
	}

	offset := (int(ym.First().Weekday()) - int(weekStart) + 7) % 7
	days := ym.Days()
	weeks := (offset + days + 6) / 7

	day := 1
	for w := 0; w < weeks; w++ {
		var week [7]domain.DayCell
		for c := 0; c < 7; c++ {
			slot := w*7 + c
			if slot < offset || day > days {
				continue // placeholder cell, never populated
			}
			cell := domain.DayCell{Day: day, InMonth: true}
			for _, r := range byDay[day] {
				cell.Entries = append(cell.Entries, renderEntry(r, mode))
			}
			week[c] = cell
			day++
		}
		grid.Weeks = append(grid.Weeks, week)
	}
	return grid
}

func renderEntry(r domain.Row, mode domain.ViewMode) domain.CellEntry {
	e := domain.CellEntry{Product: r.Product}
	if mode == domain.ViewPrice {
		e.Text = FormatPrice(r.Price)
		e.Class = "price-tag"
		return e
	}
	e.Text = strconv.Itoa(r.Stock)
	e.SoldOut = r.Stock == 0
	e.Suspended = r.Status == domain.StatusSuspended
	// Sold-out and suspended are independent; sold-out styling wins
	// when both apply, suspended stays visible as its own badge flag.
	if e.SoldOut {
		e.Class = "stock-zero"
	} else {
		e.Class = "stock-tag"
	}
	return e
}

// FormatPrice renders an integer price with thousands separators,
// e.g. 1234567 -> "1,234,567".
func FormatPrice(v int64) string {
	s := strconv.FormatInt(v, 10)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if neg {
		s = "-" + s
	}
	return s
}

func modeName(m domain.ViewMode) string {
	if m == domain.ViewStock {
		return "stock"
	}
	return "price"
}
