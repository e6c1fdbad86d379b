package domain

import (
	"fmt"
	"time"
)

// YearMonth is the calendar cursor. Navigation wraps December to
// January and the reverse, adjusting the year.
type YearMonth struct {
	Year  int
	Month time.Month
}

func CurrentYearMonth(now time.Time) YearMonth {
	return YearMonth{Year: now.Year(), Month: now.Month()}
}

func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return YearMonth{}, fmt.Errorf("%w: year-month %q", ErrBadValue, s)
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

func (ym YearMonth) Next() YearMonth {
	if ym.Month == time.December {
		return YearMonth{Year: ym.Year + 1, Month: time.January}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month + 1}
}

func (ym YearMonth) Prev() YearMonth {
	if ym.Month == time.January {
		return YearMonth{Year: ym.Year - 1, Month: time.December}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month - 1}
}

func (ym YearMonth) Contains(d time.Time) bool {
	return d.Year() == ym.Year && d.Month() == ym.Month
}

// First returns the first civil day of the month.
func (ym YearMonth) First() time.Time {
	return time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Days returns the number of days in the month.
func (ym YearMonth) Days() int {
	return ym.First().AddDate(0, 1, -1).Day()
}

// ViewMode selects what a calendar cell displays.
type ViewMode int

const (
	ViewPrice ViewMode = iota
	ViewStock
)

func ParseViewMode(s string) (ViewMode, error) {
	switch s {
	case "", "price":
		return ViewPrice, nil
	case "stock":
		return ViewStock, nil
	}
	return ViewPrice, fmt.Errorf("%w: view %q", ErrBadValue, s)
}

// CellEntry is one product's rendering inside a day cell. SoldOut and
// Suspended are independent flags that can both be set; presentation
// gives sold-out styling precedence via Class.
type CellEntry struct {
	Product   string `json:"product"`
	Text      string `json:"text"`
	SoldOut   bool   `json:"soldOut,omitempty"`
	Suspended bool   `json:"suspended,omitempty"`
	Class     string `json:"class"`
}

// DayCell is one grid slot. Out-of-month slots have InMonth=false and
// are never populated.
type DayCell struct {
	Day     int         `json:"day,omitempty"`
	InMonth bool        `json:"inMonth"`
	Entries []CellEntry `json:"entries,omitempty"`
}

// MonthGrid is the read model for the calendar view: one row per week
// overlapping the month, seven cells per row, first column fixed to
// the configured start-of-week.
type MonthGrid struct {
	YearMonth YearMonth    `json:"yearMonth"`
	Mode      string       `json:"mode"`
	WeekStart time.Weekday `json:"-"`
	Weekdays  [7]string    `json:"weekdays"`
	Weeks     [][7]DayCell `json:"weeks"`
}
