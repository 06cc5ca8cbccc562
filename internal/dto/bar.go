package dto

import (
	"math"
	"time"
)

// Bar is one sampled interval of trading activity.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// BarSeries is the ordered bar sequence of one instrument, oldest first.
type BarSeries struct {
	Ticker   string `json:"ticker"`
	Interval string `json:"interval"`
	Bars     []Bar  `json:"bars"`
}

func (s BarSeries) Len() int {
	return len(s.Bars)
}

func (s BarSeries) IsEmpty() bool {
	return len(s.Bars) == 0
}

// Tail returns a series holding the last n bars. The bar slice is shared with s.
func (s BarSeries) Tail(n int) BarSeries {
	if n >= len(s.Bars) {
		return s
	}
	if n < 0 {
		n = 0
	}
	return BarSeries{
		Ticker:   s.Ticker,
		Interval: s.Interval,
		Bars:     s.Bars[len(s.Bars)-n:],
	}
}

// LatestFraction keeps the latest max(1, ceil(n/divisor)) bars.
func (s BarSeries) LatestFraction(divisor float64) BarSeries {
	if s.IsEmpty() {
		return s
	}
	take := int(math.Ceil(float64(len(s.Bars)) / divisor))
	if take < 1 {
		take = 1
	}
	return s.Tail(take)
}

type GetBarsParam struct {
	Ticker   string    `json:"ticker"`
	Interval string    `json:"interval"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	PrePost  bool      `json:"prepost"`
}
