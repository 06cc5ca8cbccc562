package analyzer

import "errors"

// Every error returned by Analyze wraps exactly one of these. They mean "no
// result for this (ticker, holding hours) pair"; callers skip and continue.
var (
	ErrNoData                    = errors.New("no data provided")
	ErrInvalidInterval           = errors.New("invalid bar interval")
	ErrIncompatibleHoldingPeriod = errors.New("holding period is not a multiple of the bar interval")
	ErrInsufficientData          = errors.New("not enough data for the holding period")
)

// IsSkip reports whether err is one of the sentinel errors above.
func IsSkip(err error) bool {
	return errors.Is(err, ErrNoData) ||
		errors.Is(err, ErrInvalidInterval) ||
		errors.Is(err, ErrIncompatibleHoldingPeriod) ||
		errors.Is(err, ErrInsufficientData)
}
