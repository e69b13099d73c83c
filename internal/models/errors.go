package models

import "errors"

// Custom errors
var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicateKey     = errors.New("duplicate key violation")
	ErrMissingDateRange = errors.New("from and to dates are required")
	ErrUnknownStrategy  = errors.New("unknown strategy name")
	ErrDatasetNotFound  = errors.New("dataset not found")
)
