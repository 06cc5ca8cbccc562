// Package analyzer measures fixed-time-lag returns over a bar series: for
// every bar, the return of buying at its close and selling at the close a
// fixed number of hours later.
package analyzer

import (
	"context"
	"fmt"
	"math"

	"stock-dynamic/internal/dto"
	"stock-dynamic/pkg/logger"
)

type LagReturnAnalyzer interface {
	Analyze(ctx context.Context, series dto.BarSeries, interval string, holdingHours float64) (*dto.AnalysisSummary, []dto.LagReturnRecord, error)
}

type lagReturnAnalyzer struct {
	log *logger.Logger
}

func NewLagReturnAnalyzer(log *logger.Logger) LagReturnAnalyzer {
	if log == nil {
		log = logger.NewNop()
	}
	return &lagReturnAnalyzer{log: log}
}

// Analyze never mutates series. A nil summary is always paired with a
// non-nil error wrapping one of the package sentinel errors.
func (a *lagReturnAnalyzer) Analyze(ctx context.Context, series dto.BarSeries, interval string, holdingHours float64) (*dto.AnalysisSummary, []dto.LagReturnRecord, error) {
	if series.IsEmpty() {
		return nil, nil, fmt.Errorf("%w for %s", ErrNoData, series.Ticker)
	}

	a.log.DebugContext(ctx, "Processing bars",
		logger.StringField("ticker", series.Ticker),
		logger.IntField("total_bars", series.Len()),
	)

	minutesPerBar, err := IntervalMinutes(interval)
	if err != nil {
		return nil, nil, err
	}

	lagPeriods, err := LagPeriods(minutesPerBar, holdingHours)
	if err != nil {
		return nil, nil, err
	}

	records := LagReturns(series.Bars, lagPeriods)
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%w: %d bars cannot cover a %v-hour (%d bar) holding period",
			ErrInsufficientData, series.Len(), holdingHours, lagPeriods)
	}

	summary := Summarize(records)
	summary.Ticker = series.Ticker
	summary.Interval = interval
	summary.HoldingHours = holdingHours
	summary.LagPeriods = lagPeriods

	a.log.DebugContext(ctx, "Lag return analysis done",
		logger.StringField("ticker", series.Ticker),
		logger.FloatField("holding_hours", holdingHours),
		logger.IntField("lag_periods", lagPeriods),
		logger.IntField("total_trades", summary.TotalTrades),
		logger.FloatField("expected_return", summary.ExpectedReturn),
	)

	return &summary, records, nil
}

// LagReturns pairs bars[i] with bars[i+lagPeriods]. The last lagPeriods bars
// have no forward counterpart and produce no record.
func LagReturns(bars []dto.Bar, lagPeriods int) []dto.LagReturnRecord {
	if lagPeriods < 0 || len(bars) <= lagPeriods {
		return nil
	}

	records := make([]dto.LagReturnRecord, 0, len(bars)-lagPeriods)
	for i := 0; i+lagPeriods < len(bars); i++ {
		buy := bars[i].Close
		sell := bars[i+lagPeriods].Close
		diff := sell - buy
		records = append(records, dto.LagReturnRecord{
			Bar:       bars[i],
			SellTime:  bars[i+lagPeriods].Timestamp,
			BuyPrice:  buy,
			SellPrice: sell,
			PriceDiff: diff,
			Return:    diff / buy,
		})
	}
	return records
}

// Summarize computes the descriptive aggregates of records. Means over an
// empty subset are NaN.
func Summarize(records []dto.LagReturnRecord) dto.AnalysisSummary {
	total := len(records)
	var losses, wins, gains int
	var sumDiff, sumGain, sumLoss, sumReturn float64

	for _, r := range records {
		sumDiff += r.PriceDiff
		sumReturn += r.Return
		switch {
		case r.PriceDiff > 0:
			gains++
			sumGain += r.PriceDiff
		case r.PriceDiff < 0:
			losses++
			sumLoss += r.PriceDiff
		}
		if r.Return > 0 {
			wins++
		}
	}

	summary := dto.AnalysisSummary{
		TotalTrades:    total,
		AvgPriceDiff:   mean(sumDiff, total),
		AvgGainDiff:    mean(sumGain, gains),
		AvgLossDiff:    mean(sumLoss, losses),
		ExpectedReturn: mean(sumReturn, total),
	}
	if total > 0 {
		summary.LossProbability = float64(losses) / float64(total)
		summary.WinRate = float64(wins) / float64(total)
	}
	return summary
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
