package dto

import (
	"net/http"
	"time"
)

type BaseResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func NewBaseResponse(code int, message string, data interface{}) *BaseResponse {
	return &BaseResponse{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

func NewBadRequestResponse(message string) *BaseResponse {
	return NewBaseResponse(http.StatusBadRequest, message, nil)
}

func NewSuccessResponse(message string, data interface{}) *BaseResponse {
	return NewBaseResponse(http.StatusOK, message, data)
}

// DataWindow selects the bars to fetch. StartDate/EndDate (YYYY-MM-DD) win
// over Period when both are set.
type DataWindow struct {
	Period    string `json:"period"`
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	PrePost   bool   `json:"prepost"`
}

type AnalysisRequest struct {
	Ticker       string     `json:"ticker" validate:"required"`
	Interval     string     `json:"interval" validate:"required"`
	HoldingHours float64    `json:"holding_hours" validate:"gt=0"`
	TimeAnchor   TimeAnchor `json:"time_anchor" validate:"omitempty,oneof=start end"`
	DataWindow
}

type BacktestRequest struct {
	Tickers  []string `json:"tickers" validate:"required,min=1,dive,required"`
	Interval string   `json:"interval" validate:"required"`
	BacktestParams
	DataWindow
}

// AnalysisSummaryResponse is AnalysisSummary with undefined averages as null.
type AnalysisSummaryResponse struct {
	Ticker          string   `json:"ticker"`
	Interval        string   `json:"interval"`
	HoldingHours    float64  `json:"holding_hours"`
	LagPeriods      int      `json:"lag_periods"`
	TotalTrades     int      `json:"total_trades"`
	LossProbability float64  `json:"loss_probability"`
	AvgPriceDiff    float64  `json:"avg_price_diff"`
	AvgGainDiff     *float64 `json:"avg_gain_diff"`
	AvgLossDiff     *float64 `json:"avg_loss_diff"`
	ExpectedReturn  *float64 `json:"expected_return"`
	WinRate         float64  `json:"win_rate"`
}

type LagReturnRecordResponse struct {
	Time      time.Time `json:"time"`
	BuyPrice  float64   `json:"buy_price"`
	SellPrice float64   `json:"sell_price"`
	PriceDiff float64   `json:"price_diff"`
	Return    *float64  `json:"return"`
}

type AnalysisResponse struct {
	Summary AnalysisSummaryResponse   `json:"summary"`
	Records []LagReturnRecordResponse `json:"records"`
}

func NewAnalysisResponse(result AnalysisResult, anchor TimeAnchor) AnalysisResponse {
	s := result.Summary
	resp := AnalysisResponse{
		Summary: AnalysisSummaryResponse{
			Ticker:          s.Ticker,
			Interval:        s.Interval,
			HoldingHours:    s.HoldingHours,
			LagPeriods:      s.LagPeriods,
			TotalTrades:     s.TotalTrades,
			LossProbability: s.LossProbability,
			AvgPriceDiff:    s.AvgPriceDiff,
			AvgGainDiff:     NullableFloat(s.AvgGainDiff),
			AvgLossDiff:     NullableFloat(s.AvgLossDiff),
			ExpectedReturn:  NullableFloat(s.ExpectedReturn),
			WinRate:         s.WinRate,
		},
		Records: make([]LagReturnRecordResponse, 0, len(result.Records)),
	}
	for _, r := range result.Records {
		resp.Records = append(resp.Records, LagReturnRecordResponse{
			Time:      r.AnchorTime(anchor),
			BuyPrice:  r.BuyPrice,
			SellPrice: r.SellPrice,
			PriceDiff: r.PriceDiff,
			Return:    NullableFloat(r.Return),
		})
	}
	return resp
}

// TradeRecordResponse reports a zero buy price's undefined return as null.
type TradeRecordResponse struct {
	TradeRecord
	ProfitPct *float64 `json:"profit_pct"`
}

type BacktestResultResponse struct {
	BacktestResult
	Trades []TradeRecordResponse `json:"trades"`
}

func NewBacktestResponse(results []BacktestResult) []BacktestResultResponse {
	resp := make([]BacktestResultResponse, 0, len(results))
	for _, result := range results {
		trades := make([]TradeRecordResponse, 0, len(result.Trades))
		for _, trade := range result.Trades {
			trades = append(trades, TradeRecordResponse{TradeRecord: trade, ProfitPct: NullableFloat(trade.ProfitPct)})
		}
		resp = append(resp, BacktestResultResponse{BacktestResult: result, Trades: trades})
	}
	return resp
}
