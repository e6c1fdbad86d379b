package domain

import "errors"

// Sentinel errors. Callers match with errors.Is; messages carry the
// offending value via fmt.Errorf("%w: ...") wrapping.
var (
	ErrDuplicate = errors.New("duplicate name")
	ErrNotFound  = errors.New("not found")

	// staging validation
	ErrBadDateRange  = errors.New("start date must not be after end date")
	ErrEmptyWeekdays = errors.New("at least one weekday required")

	// commit validation, checked in this order before any mutation
	ErrNoDates      = errors.New("no dates staged")
	ErrNoProducts   = errors.New("no products selected")
	ErrMissingPrice = errors.New("price missing for product")

	// field-level constraint on a direct row edit
	ErrBadValue = errors.New("invalid field value")
)
