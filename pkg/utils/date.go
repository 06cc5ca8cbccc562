package utils

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"
)

const DateLayout = "2006-01-02"

var (
	nyOnce     sync.Once
	nyLocation *time.Location
)

// GetNewYorkTimeLocation returns the exchange timezone every bar series is
// normalised to.
func GetNewYorkTimeLocation() *time.Location {
	nyOnce.Do(func() {
		loc, err := time.LoadLocation("America/New_York")
		if err != nil {
			log.Fatal("Failed to load location", err)
		}
		nyLocation = loc
	})
	return nyLocation
}

func TimeNowNewYork() time.Time {
	return time.Now().In(GetNewYorkTimeLocation())
}

// ParseDate parses YYYY-MM-DD as midnight New York time.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, GetNewYorkTimeLocation())
}

// ParsePeriod parses "<int><unit>" lookback strings such as "30m", "4h",
// "5d", "2w" or "1mo". A month counts as 30 days.
func ParsePeriod(period string) (time.Duration, error) {
	p := strings.TrimSpace(strings.ToLower(period))
	i := 0
	for i < len(p) && p[i] >= '0' && p[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, fmt.Errorf("invalid period %q", period)
	}
	n, err := strconv.Atoi(p[:i])
	if err != nil {
		return 0, fmt.Errorf("invalid period %q: %w", period, err)
	}

	var unit time.Duration
	switch p[i:] {
	case "m", "min":
		unit = time.Minute
	case "h":
		unit = time.Hour
	case "d", "":
		unit = 24 * time.Hour
	case "w":
		unit = 7 * 24 * time.Hour
	case "mo":
		unit = 30 * 24 * time.Hour
	default:
		return 0, fmt.Errorf("invalid period unit in %q", period)
	}
	return time.Duration(n) * unit, nil
}

// HoursDuration converts fractional hours to a duration.
func HoursDuration(hours float64) time.Duration {
	return time.Duration(hours * float64(time.Hour))
}
