package dto

import (
	"math"
	"time"
)

// LagReturnRecord is the outcome of buying at one bar's close and selling
// at the close LagPeriods bars later.
type LagReturnRecord struct {
	Bar
	SellTime  time.Time `json:"sell_time"`
	BuyPrice  float64   `json:"buy_price"`
	SellPrice float64   `json:"sell_price"`
	PriceDiff float64   `json:"price_diff"`
	Return    float64   `json:"return"`
}

// AnchorTime is the timestamp the record is keyed by for the given anchor.
func (r LagReturnRecord) AnchorTime(anchor TimeAnchor) time.Time {
	if anchor == TimeAnchorEnd {
		return r.SellTime
	}
	return r.Timestamp
}

// AnalysisSummary aggregates the lag-return records of one
// (ticker, holding hours) pair. AvgGainDiff and AvgLossDiff are NaN when
// there is no gaining or losing record.
type AnalysisSummary struct {
	Ticker          string  `json:"ticker"`
	Interval        string  `json:"interval"`
	HoldingHours    float64 `json:"holding_hours"`
	LagPeriods      int     `json:"lag_periods"`
	TotalTrades     int     `json:"total_trades"`
	LossProbability float64 `json:"loss_probability"`
	AvgPriceDiff    float64 `json:"avg_price_diff"`
	AvgGainDiff     float64 `json:"avg_gain_diff"`
	AvgLossDiff     float64 `json:"avg_loss_diff"`
	ExpectedReturn  float64 `json:"expected_return"`
	WinRate         float64 `json:"win_rate"`
}

// AnalysisResult pairs a summary with its per-bar records.
type AnalysisResult struct {
	Summary   AnalysisSummary   `json:"summary"`
	Records   []LagReturnRecord `json:"records"`
	Iteration int               `json:"iteration"`
}

// Normalize divides the expected return and every record return by the
// iteration number, returning a new result.
func (r AnalysisResult) Normalize(iteration int) AnalysisResult {
	if iteration <= 1 {
		r.Iteration = iteration
		return r
	}
	div := float64(iteration)
	out := AnalysisResult{
		Summary:   r.Summary,
		Records:   make([]LagReturnRecord, len(r.Records)),
		Iteration: iteration,
	}
	out.Summary.ExpectedReturn = r.Summary.ExpectedReturn / div
	for i, rec := range r.Records {
		rec.Return = rec.Return / div
		out.Records[i] = rec
	}
	return out
}

// TickerAnalysis collects every successful holding-period result of one ticker.
type TickerAnalysis struct {
	Ticker  string           `json:"ticker"`
	Bars    int              `json:"bars"`
	Results []AnalysisResult `json:"results"`
	Err     error            `json:"-"`
}

// GroupAnalysis is the outcome of analysing one ticker group.
type GroupAnalysis struct {
	Tickers  []string         `json:"tickers"`
	Analyses []TickerAnalysis `json:"analyses"`
}

// SummariesByHoldingHours groups the summaries of every ticker by holding period.
func (g GroupAnalysis) SummariesByHoldingHours() map[float64][]AnalysisSummary {
	grouped := make(map[float64][]AnalysisSummary)
	for _, a := range g.Analyses {
		for _, r := range a.Results {
			grouped[r.Summary.HoldingHours] = append(grouped[r.Summary.HoldingHours], r.Summary)
		}
	}
	return grouped
}

// NullableFloat maps NaN and infinities to nil so the value survives JSON encoding.
func NullableFloat(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
