package models

import "errors"

// Failure kinds surfaced by the analytics core. Configuration errors
// (ErrInvalidThreshold, ErrUnsupportedRegion) are raised immediately; data-quality
// and model failures are returned for the caller to handle by disabling the
// affected view instead of failing the whole report.
var (
	// ErrEmptySeries is returned when no valid rows remain after cleaning.
	ErrEmptySeries = errors.New("series is empty after cleaning")

	// ErrInvalidThreshold is returned when an event threshold falls outside [1.0, 5.0].
	ErrInvalidThreshold = errors.New("event threshold must be between 1.0 and 5.0")

	// ErrInsufficientData is returned when a forecast is requested over fewer than
	// two distinct historical dates.
	ErrInsufficientData = errors.New("insufficient data to fit forecast model")

	// ErrModelNotFitted is returned when Predict is called before Fit.
	ErrModelNotFitted = errors.New("forecast model has not been fitted")

	// ErrUnsupportedRegion is returned for a country code with no holiday table.
	ErrUnsupportedRegion = errors.New("unsupported holiday region")
)
