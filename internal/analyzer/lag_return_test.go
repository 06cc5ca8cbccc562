package analyzer

import (
	"context"
	"math"
	"testing"
	"time"

	"stock-dynamic/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

func seriesFromCloses(closes ...float64) dto.BarSeries {
	bars := make([]dto.Bar, len(closes))
	for i, c := range closes {
		bars[i] = dto.Bar{
			Timestamp: testStart.Add(time.Duration(i) * 5 * time.Minute),
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
		}
	}
	return dto.BarSeries{Ticker: "TEST", Interval: "5m", Bars: bars}
}

func TestIntervalMinutes(t *testing.T) {
	tests := []struct {
		name     string
		interval string
		want     int
		wantErr  error
	}{
		{name: "one minute", interval: "1m", want: 1},
		{name: "five minutes", interval: "5m", want: 5},
		{name: "sixty minutes", interval: "60m", want: 60},
		{name: "no unit", interval: "15", want: 15},
		{name: "no digits", interval: "m", wantErr: ErrInvalidInterval},
		{name: "empty", interval: "", wantErr: ErrInvalidInterval},
		{name: "zero", interval: "0m", wantErr: ErrInvalidInterval},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IntervalMinutes(tt.interval)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLagPeriods(t *testing.T) {
	tests := []struct {
		name         string
		minutes      int
		holdingHours float64
		want         int
		wantErr      error
	}{
		{name: "one hour of 5m bars", minutes: 5, holdingHours: 1, want: 12},
		{name: "half hour of 5m bars", minutes: 5, holdingHours: 0.5, want: 6},
		{name: "two hours of 60m bars", minutes: 60, holdingHours: 2, want: 2},
		{name: "1.8 minutes is not a multiple of 5", minutes: 5, holdingHours: 0.03, wantErr: ErrIncompatibleHoldingPeriod},
		{name: "90 minutes of 60m bars", minutes: 60, holdingHours: 1.5, wantErr: ErrIncompatibleHoldingPeriod},
		{name: "zero hours", minutes: 5, holdingHours: 0, wantErr: ErrIncompatibleHoldingPeriod},
		{name: "negative hours", minutes: 5, holdingHours: -1, wantErr: ErrIncompatibleHoldingPeriod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LagPeriods(tt.minutes, tt.holdingHours)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnalyze_MonotonicIncrease(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = float64(100 + i)
	}
	series := seriesFromCloses(closes...)

	summary, records, err := NewLagReturnAnalyzer(nil).Analyze(context.Background(), series, "5m", 1)
	require.NoError(t, err)
	require.NotNil(t, summary)
	require.Len(t, records, 8)

	for i, r := range records {
		assert.Equal(t, float64(100+i), r.BuyPrice)
		assert.Equal(t, float64(112+i), r.SellPrice)
		assert.Equal(t, 12.0, r.PriceDiff)
		assert.Equal(t, 12.0/float64(100+i), r.Return)
		assert.Equal(t, series.Bars[i].Timestamp, r.Timestamp)
		assert.Equal(t, series.Bars[i+12].Timestamp, r.SellTime)
	}

	assert.Equal(t, "TEST", summary.Ticker)
	assert.Equal(t, 12, summary.LagPeriods)
	assert.Equal(t, 8, summary.TotalTrades)
	assert.Equal(t, 0.0, summary.LossProbability)
	assert.Equal(t, 1.0, summary.WinRate)
	assert.Equal(t, 12.0, summary.AvgPriceDiff)
	assert.Equal(t, 12.0, summary.AvgGainDiff)
	assert.True(t, math.IsNaN(summary.AvgLossDiff), "no losing record, avg loss must be NaN")
	assert.Greater(t, summary.ExpectedReturn, 0.0)
}

func TestAnalyze_RecordCount(t *testing.T) {
	series := seriesFromCloses(10, 11, 9, 12, 8, 13, 7)
	for _, hours := range []float64{0.25, 0.5, 1, 1.5} {
		lag := int(hours * 60 / 15)
		_, records, err := NewLagReturnAnalyzer(nil).Analyze(context.Background(), series, "15m", hours)
		require.NoError(t, err)
		assert.Len(t, records, series.Len()-lag)
	}
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name         string
		series       dto.BarSeries
		interval     string
		holdingHours float64
		wantErr      error
	}{
		{name: "empty series", series: dto.BarSeries{Ticker: "EMPTY"}, interval: "5m", holdingHours: 1, wantErr: ErrNoData},
		{name: "unparseable interval", series: seriesFromCloses(1, 2, 3), interval: "daily", holdingHours: 1, wantErr: ErrInvalidInterval},
		{name: "incompatible holding period", series: seriesFromCloses(1, 2, 3), interval: "5m", holdingHours: 0.03, wantErr: ErrIncompatibleHoldingPeriod},
		{name: "lag equals series length", series: seriesFromCloses(1, 2, 3), interval: "15m", holdingHours: 0.75, wantErr: ErrInsufficientData},
		{name: "lag longer than series", series: seriesFromCloses(1, 2, 3), interval: "5m", holdingHours: 1, wantErr: ErrInsufficientData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary, records, err := NewLagReturnAnalyzer(nil).Analyze(context.Background(), tt.series, tt.interval, tt.holdingHours)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, summary)
			assert.Nil(t, records)
		})
	}
}

func TestAnalyze_MixedOutcomes(t *testing.T) {
	// lag 1: diffs +2, -4, +1, 0
	series := seriesFromCloses(10, 12, 8, 9, 9)

	summary, records, err := NewLagReturnAnalyzer(nil).Analyze(context.Background(), series, "15m", 0.25)
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, 4, summary.TotalTrades)
	assert.Equal(t, 0.25, summary.LossProbability)
	assert.Equal(t, 0.5, summary.WinRate)
	assert.Equal(t, -0.25, summary.AvgPriceDiff)
	assert.Equal(t, 1.5, summary.AvgGainDiff)
	assert.Equal(t, -4.0, summary.AvgLossDiff)
	assert.InDelta(t, (0.2-1.0/3+0.125+0)/4, summary.ExpectedReturn, 1e-12)
}

func TestAnalyze_Idempotent(t *testing.T) {
	series := seriesFromCloses(10, 12, 8, 9, 9, 11, 7, 13)
	before := append([]dto.Bar(nil), series.Bars...)
	a := NewLagReturnAnalyzer(nil)

	s1, r1, err := a.Analyze(context.Background(), series, "15m", 0.5)
	require.NoError(t, err)
	s2, r2, err := a.Analyze(context.Background(), series, "15m", 0.5)
	require.NoError(t, err)

	assert.Equal(t, *s1, *s2)
	assert.Equal(t, r1, r2)
	assert.Equal(t, before, series.Bars, "input series must not be mutated")
}

func TestIsSkip(t *testing.T) {
	_, _, err := NewLagReturnAnalyzer(nil).Analyze(context.Background(), seriesFromCloses(1, 2), "5m", 1)
	assert.True(t, IsSkip(err))
	assert.False(t, IsSkip(context.Canceled))
	assert.False(t, IsSkip(nil))
}
