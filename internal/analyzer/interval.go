package analyzer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

var intervalDigits = regexp.MustCompile(`\d+`)

// IntervalMinutes extracts the bar length in minutes from descriptors such
// as "1m", "5m" or "60m". Only the first integer in the string is used.
func IntervalMinutes(interval string) (int, error) {
	digits := intervalDigits.FindString(interval)
	if digits == "" {
		return 0, fmt.Errorf("%w: could not parse minutes from %q, use formats like '1m', '5m', '15m'", ErrInvalidInterval, interval)
	}
	minutes, err := strconv.Atoi(digits)
	if err != nil || minutes <= 0 {
		return 0, fmt.Errorf("%w: %q does not describe a positive number of minutes", ErrInvalidInterval, interval)
	}
	return minutes, nil
}

// LagPeriods returns how many bars of minutesPerBar make up holdingHours.
// A zero holding period is rejected along with negative ones, so a lag of
// zero bars is never produced.
func LagPeriods(minutesPerBar int, holdingHours float64) (int, error) {
	totalMinutes := holdingHours * 60
	if holdingHours <= 0 || math.IsNaN(totalMinutes) || math.IsInf(totalMinutes, 0) {
		return 0, fmt.Errorf("%w: holding period must be positive, got %v hours", ErrIncompatibleHoldingPeriod, holdingHours)
	}
	if math.Mod(totalMinutes, float64(minutesPerBar)) != 0 {
		return 0, fmt.Errorf("%w: %v hours (%v mins) is not an integer multiple of the %d-minute interval",
			ErrIncompatibleHoldingPeriod, holdingHours, totalMinutes, minutesPerBar)
	}
	return int(totalMinutes / float64(minutesPerBar)), nil
}
