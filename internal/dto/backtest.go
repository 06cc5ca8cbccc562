package dto

import "time"

// BacktestParams configures the trailing-stop strategy. Budget, when set,
// sizes each trade as floor(budget / buy price) instead of Shares.
type BacktestParams struct {
	EntryTrailPct float64  `json:"entry_trail_pct"`
	ExitTrailPct  float64  `json:"exit_trail_pct"`
	Shares        int      `json:"shares" validate:"gte=0"`
	Budget        *float64 `json:"budget,omitempty" validate:"omitempty,gte=0"`
	DailyTrades   bool     `json:"daily_trades"`
}

// TradeRecord is one completed round trip.
type TradeRecord struct {
	BuyPrice      float64   `json:"buy_price"`
	BuyTime       time.Time `json:"buy_time"`
	SellPrice     float64   `json:"sell_price"`
	SellTime      time.Time `json:"sell_time"`
	Shares        int       `json:"shares"`
	ProfitAndLoss float64   `json:"profit_and_loss"`
	ProfitPct     float64   `json:"profit_pct"`
	EntryTrailPct float64   `json:"entry_trail_pct"`
	ExitTrailPct  float64   `json:"exit_trail_pct"`
	Budget        *float64  `json:"budget,omitempty"`
}

// BacktestResult summarises the trades of one ticker.
type BacktestResult struct {
	Ticker          string        `json:"ticker"`
	Bars            int           `json:"bars"`
	TotalTrades     int           `json:"total_trades"`
	WinningTrades   int           `json:"winning_trades"`
	LosingTrades    int           `json:"losing_trades"`
	WinRate         float64       `json:"win_rate"`
	TotalProfitLoss float64       `json:"total_profit_loss"`
	TotalProfit     float64       `json:"total_profit"`
	TotalLoss       float64       `json:"total_loss"`
	ProfitFactor    float64       `json:"profit_factor"` // Total Profit / Total Loss
	Trades          []TradeRecord `json:"trades"`
	Skipped         bool          `json:"skipped"`
	Err             error         `json:"-"`
}

// NewBacktestResult computes the aggregate metrics of a trade list.
func NewBacktestResult(ticker string, bars int, trades []TradeRecord) BacktestResult {
	result := BacktestResult{
		Ticker: ticker,
		Bars:   bars,
		Trades: trades,
	}
	if result.Trades == nil {
		result.Trades = []TradeRecord{}
	}

	for _, trade := range trades {
		result.TotalTrades++
		result.TotalProfitLoss += trade.ProfitAndLoss

		if trade.ProfitAndLoss > 0 {
			result.WinningTrades++
			result.TotalProfit += trade.ProfitAndLoss
		} else {
			result.LosingTrades++
			result.TotalLoss += trade.ProfitAndLoss
		}
	}

	if result.TotalTrades > 0 {
		result.WinRate = float64(result.WinningTrades) / float64(result.TotalTrades)
	}
	if result.TotalLoss != 0 {
		result.ProfitFactor = result.TotalProfit / -result.TotalLoss
	}

	return result
}
