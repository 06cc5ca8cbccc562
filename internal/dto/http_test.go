package dto

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAnalysisResponse_UndefinedValuesAreNull(t *testing.T) {
	buy := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	result := AnalysisResult{
		Summary: AnalysisSummary{
			Ticker: "ZERO", Interval: "5m", HoldingHours: 1, LagPeriods: 12, TotalTrades: 1,
			AvgPriceDiff: 1, AvgGainDiff: 1, AvgLossDiff: math.NaN(), ExpectedReturn: math.NaN(), WinRate: 1,
		},
		Records: []LagReturnRecord{{
			Bar:      Bar{Timestamp: buy},
			SellTime: buy.Add(time.Hour), BuyPrice: 0, SellPrice: 1, PriceDiff: 1, Return: math.Inf(1),
		}},
	}

	raw, err := json.Marshal(NewAnalysisResponse(result, TimeAnchorStart))
	require.NoError(t, err)

	var body struct {
		Summary map[string]interface{}   `json:"summary"`
		Records []map[string]interface{} `json:"records"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Nil(t, body.Summary["expected_return"])
	assert.Nil(t, body.Summary["avg_loss_diff"])
	assert.Equal(t, 1.0, body.Summary["avg_gain_diff"])
	require.Len(t, body.Records, 1)
	assert.Contains(t, body.Records[0], "return")
	assert.Nil(t, body.Records[0]["return"])
	assert.Equal(t, 1.0, body.Records[0]["price_diff"])
}

func TestNewBacktestResponse(t *testing.T) {
	results := []BacktestResult{
		NewBacktestResult("ZERO", 2, []TradeRecord{
			{BuyPrice: 0, SellPrice: 0.97, ProfitPct: math.Inf(1)},
			{BuyPrice: 100, SellPrice: 110, Shares: 1, ProfitAndLoss: 10, ProfitPct: 0.1},
		}),
		{Ticker: "EMPTY", Skipped: true, Trades: []TradeRecord{}},
	}

	raw, err := json.Marshal(NewBacktestResponse(results))
	require.NoError(t, err)

	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Len(t, body, 2)
	assert.Equal(t, "ZERO", body[0]["ticker"])
	assert.Equal(t, 2.0, body[0]["total_trades"])

	trades := body[0]["trades"].([]interface{})
	require.Len(t, trades, 2)
	assert.Nil(t, trades[0].(map[string]interface{})["profit_pct"])
	assert.Equal(t, 0.1, trades[1].(map[string]interface{})["profit_pct"])
	assert.Equal(t, 110.0, trades[1].(map[string]interface{})["sell_price"])

	assert.Equal(t, true, body[1]["skipped"])
	assert.Empty(t, body[1]["trades"])
}
