package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"stock-dynamic/config"
	"stock-dynamic/internal/dto"
	"stock-dynamic/pkg/common"
	"stock-dynamic/pkg/httpclient"
	"stock-dynamic/pkg/logger"
	"stock-dynamic/pkg/metrics"
	"stock-dynamic/pkg/utils"

	"golang.org/x/time/rate"
)

type YahooFinanceRepository interface {
	Get(ctx context.Context, param dto.GetBarsParam) (dto.BarSeries, error)
}

// yahooFinanceRepository reads bars from the Yahoo Finance v8 chart API.
type yahooFinanceRepository struct {
	httpClient     httpclient.HTTPClient
	cfg            config.YahooFinance
	logger         *logger.Logger
	requestLimiter *rate.Limiter
	mu             sync.Mutex
}

func NewYahooFinanceRepository(cfg config.YahooFinance, log *logger.Logger) YahooFinanceRepository {
	perMinute := cfg.MaxRequestPerMinute
	if perMinute <= 0 {
		perMinute = 60
	}
	requestLimiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)

	return &yahooFinanceRepository{
		httpClient: httpclient.New(cfg.BaseURL, cfg.Timeout,
			httpclient.WithHeader("User-Agent", common.HEADER_USER_AGENT),
			httpclient.WithRetry(2, time.Second),
		),
		cfg:            cfg,
		logger:         log,
		requestLimiter: requestLimiter,
	}
}

func (r *yahooFinanceRepository) wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.requestLimiter.Allow() {
		r.logger.DebugContext(ctx, "Yahoo Finance request throttled",
			logger.IntField("max_request_per_minute", r.cfg.MaxRequestPerMinute),
		)
		return r.requestLimiter.Wait(ctx)
	}
	return nil
}

func (r *yahooFinanceRepository) Get(ctx context.Context, param dto.GetBarsParam) (dto.BarSeries, error) {
	series := dto.BarSeries{Ticker: param.Ticker, Interval: param.Interval}

	if err := r.wait(ctx); err != nil {
		return series, err
	}

	start := time.Now()
	defer func() {
		metrics.FetchDuration.WithLabelValues(dto.SourceYahoo).Observe(time.Since(start).Seconds())
	}()

	queryParams := map[string]string{
		"period1":        strconv.FormatInt(param.Start.Unix(), 10),
		"period2":        strconv.FormatInt(param.End.Unix(), 10),
		"interval":       param.Interval,
		"includePrePost": strconv.FormatBool(param.PrePost),
		"events":         "div,split",
	}

	headers := map[string]string{
		"Accept":          "application/json, text/plain, */*",
		"Accept-Language": "en-US,en;q=0.9",
		"Referer":         "https://finance.yahoo.com/",
	}

	var yahooResp dto.YahooFinanceResponse
	resp, err := r.httpClient.Get(ctx, "/"+param.Ticker, queryParams, headers, &yahooResp)
	if err != nil {
		metrics.FetchRequestsTotal.WithLabelValues(dto.SourceYahoo, "error").Inc()
		return series, fmt.Errorf("failed to fetch data from yahoo finance: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		metrics.FetchRequestsTotal.WithLabelValues(dto.SourceYahoo, strconv.Itoa(resp.StatusCode)).Inc()
		// error payloads carry chart.error too, but resty only decodes successes
		var errResp dto.YahooFinanceResponse
		if json.Unmarshal(resp.Body, &errResp) == nil && errResp.Chart.Error != nil {
			return series, fmt.Errorf("yahoo finance api error for %s: %s: %s",
				param.Ticker, errResp.Chart.Error.Code, errResp.Chart.Error.Description)
		}
		r.logger.ErrorContext(ctx, "Yahoo Finance API returned Non-OK status",
			logger.IntField("status_code", resp.StatusCode),
			logger.StringField("body", string(resp.Body)))
		return series, fmt.Errorf("yahoo finance api returned status: %d", resp.StatusCode)
	}
	metrics.FetchRequestsTotal.WithLabelValues(dto.SourceYahoo, "ok").Inc()

	if yahooResp.Chart.Error != nil {
		return series, fmt.Errorf("yahoo finance api error for %s: %s: %s",
			param.Ticker, yahooResp.Chart.Error.Code, yahooResp.Chart.Error.Description)
	}

	if len(yahooResp.Chart.Result) == 0 {
		return series, fmt.Errorf("no data returned for symbol: %s", param.Ticker)
	}

	result := yahooResp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		// a window without trading has timestamps but no quote block
		return series, nil
	}

	series.Bars = toBars(result.Timestamp, result.Indicators.Quote[0].Open, result.Indicators.Quote[0].High,
		result.Indicators.Quote[0].Low, result.Indicators.Quote[0].Close, result.Indicators.Quote[0].Volume)

	r.logger.DebugContext(ctx, "Fetched bars from Yahoo Finance",
		logger.StringField("ticker", param.Ticker),
		logger.StringField("interval", param.Interval),
		logger.IntField("bars", series.Len()),
		logger.IntField("raw_rows", len(result.Timestamp)),
	)
	return series, nil
}

// toBars drops rows with any missing OHLC value and converts timestamps to
// New York time. A missing volume is read as zero.
func toBars(timestamps []int64, open, high, low, closes []*float64, volume []*int64) []dto.Bar {
	loc := utils.GetNewYorkTimeLocation()
	bars := make([]dto.Bar, 0, len(timestamps))
	for i, ts := range timestamps {
		if i >= len(open) || i >= len(high) || i >= len(low) || i >= len(closes) {
			break
		}
		if open[i] == nil || high[i] == nil || low[i] == nil || closes[i] == nil {
			continue
		}
		var vol int64
		if i < len(volume) && volume[i] != nil {
			vol = *volume[i]
		}
		bars = append(bars, dto.Bar{
			Timestamp: time.Unix(ts, 0).In(loc),
			Open:      *open[i],
			High:      *high[i],
			Low:       *low[i],
			Close:     *closes[i],
			Volume:    vol,
		})
	}
	return bars
}
