package service

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"stock-dynamic/internal/dto"
	"stock-dynamic/pkg/utils"
)

const (
	summaryFileHeader   = "Stock Dynamic Analysis Report\n=============================\n"
	summaryReportHeader = "\n======= Summary: Return Ranking by Holding Period ======="
	reportTimeLayout    = "2006-01-02 15:04"
)

// StartSummaryFile truncates path and writes the report header.
func StartSummaryFile(path string) error {
	if err := os.WriteFile(path, []byte(summaryFileHeader), 0o644); err != nil {
		return fmt.Errorf("unable to write to file %s: %w", path, err)
	}
	return nil
}

func AppendSummaryFile(path, text string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("unable to open %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(text); err != nil {
		return fmt.Errorf("unable to write to file %s: %w", path, err)
	}
	return nil
}

func percent(v float64, decimals int) string {
	return fmt.Sprintf("%.*f%%", decimals, v*100)
}

// RankSummaries orders summaries by expected return, best first. NaN and
// ties keep their input order after every defined value.
func RankSummaries(summaries []dto.AnalysisSummary) []dto.AnalysisSummary {
	ranked := append([]dto.AnalysisSummary(nil), summaries...)
	key := func(s dto.AnalysisSummary) float64 {
		if math.IsNaN(s.ExpectedReturn) {
			return math.Inf(-1)
		}
		return s.ExpectedReturn
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return key(ranked[i]) > key(ranked[j])
	})
	return ranked
}

// FormatSummaryReport renders the per-group ranking: holding periods
// ascending, tickers by expected return descending.
func FormatSummaryReport(group dto.GroupAnalysis) string {
	grouped := group.SummariesByHoldingHours()
	hours := make([]float64, 0, len(grouped))
	for h := range grouped {
		hours = append(hours, h)
	}
	sort.Float64s(hours)

	var b strings.Builder
	b.WriteString(summaryReportHeader + "\n")
	for _, h := range hours {
		list := grouped[h]
		if len(list) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n--- Holding %s Hours ---\n", utils.FormatHours(h))
		for _, s := range RankSummaries(list) {
			fmt.Fprintf(&b, "  - %s: %s\n", s.Ticker, percent(s.ExpectedReturn, 4))
		}
	}
	return b.String()
}

func formatMoney(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("$%.4f", v)
}

// FormatAnalysisSummary is the console block printed for one result.
func FormatAnalysisSummary(s dto.AnalysisSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "======= %s %s-Hour Holding Period Analysis (%s bars) =======\n", s.Ticker, utils.FormatHours(s.HoldingHours), s.Interval)
	fmt.Fprintf(&b, "Total Trades: %d\n", s.TotalTrades)
	b.WriteString(strings.Repeat("-", 40) + "\n")
	fmt.Fprintf(&b, "Probability of Loss: %s\n", percent(s.LossProbability, 2))
	b.WriteString(strings.Repeat("-", 40) + "\n")
	fmt.Fprintf(&b, "Expected Price Difference: %s\n", formatMoney(s.AvgPriceDiff))
	fmt.Fprintf(&b, "    - Avg. Gain Amount: %s\n", formatMoney(s.AvgGainDiff))
	fmt.Fprintf(&b, "    - Avg. Loss Amount: %s\n", formatMoney(s.AvgLossDiff))
	b.WriteString(strings.Repeat("-", 40) + "\n")
	fmt.Fprintf(&b, "Expected Return: %s\n", percent(s.ExpectedReturn, 4))
	fmt.Fprintf(&b, "    (Win Rate: %s)\n", percent(s.WinRate, 2))
	b.WriteString(strings.Repeat("=", 70) + "\n")
	return b.String()
}

// FormatBacktestReport renders every trade of one ticker, or the reason
// there are none.
func FormatBacktestReport(res dto.BacktestResult) string {
	var b strings.Builder
	switch {
	case res.Err != nil:
		fmt.Fprintf(&b, "\n--- %s: failed to fetch data, skipping backtest (%v) ---\n", res.Ticker, res.Err)
		return b.String()
	case res.Skipped:
		fmt.Fprintf(&b, "\n--- %s: No data, skipping backtest ---\n", res.Ticker)
		return b.String()
	case res.TotalTrades == 0:
		fmt.Fprintf(&b, "\n--- %s: no trades triggered over %d bars ---\n", res.Ticker, res.Bars)
		return b.String()
	}

	fmt.Fprintf(&b, "\n======= Backtest Report: %s (%d trades) =======\n", res.Ticker, res.TotalTrades)
	for i, t := range res.Trades {
		fmt.Fprintf(&b, "\n--- Trade #%d ---\n", i+1)
		fmt.Fprintf(&b, "Strategy: %s%% entry trail, %s%% exit trail\n", utils.FormatFloat(t.EntryTrailPct), utils.FormatFloat(t.ExitTrailPct))
		if t.Budget != nil {
			fmt.Fprintf(&b, "Budget: $%.2f\n", *t.Budget)
			fmt.Fprintf(&b, "Shares: %d (sized from budget)\n", t.Shares)
		} else {
			fmt.Fprintf(&b, "Shares: %d (fixed)\n", t.Shares)
		}
		fmt.Fprintf(&b, "Buy trigger: $%.2f (at %s)\n", t.BuyPrice, t.BuyTime.Format(reportTimeLayout))
		fmt.Fprintf(&b, "Sell trigger: $%.2f (at %s)\n", t.SellPrice, t.SellTime.Format(reportTimeLayout))
		b.WriteString("----------------------------------------\n")
		fmt.Fprintf(&b, "Profit per share: $%.2f\n", t.SellPrice-t.BuyPrice)
		fmt.Fprintf(&b, "Profit %%: %s\n", percent(t.ProfitPct, 2))
		fmt.Fprintf(&b, "Total P&L: $%.2f\n", t.ProfitAndLoss)
	}
	fmt.Fprintf(&b, "\nSummary: %d won, %d lost, win rate %s, total P&L $%.2f",
		res.WinningTrades, res.LosingTrades, percent(res.WinRate, 2), res.TotalProfitLoss)
	if res.ProfitFactor > 0 {
		fmt.Fprintf(&b, ", profit factor %.2f", res.ProfitFactor)
	}
	b.WriteString("\n======================================\n")
	return b.String()
}
