package dto

// YahooFinanceResponse is the chart API payload. Quote values are pointers
// because Yahoo returns null for intervals without trades.
type YahooFinanceResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				ExchangeTimezone   string  `json:"exchangeTimezoneName"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *YahooFinanceError `json:"error"`
	} `json:"chart"`
}

type YahooFinanceError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}
