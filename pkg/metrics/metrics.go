package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "stock_dynamic"

var (
	// result: ok, skipped, error
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Lag-return analyses run per ticker and holding period",
		},
		[]string{"result"},
	)

	ExpectedReturn = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "expected_return",
			Help:      "Latest normalised expected return per ticker and holding period",
		},
		[]string{"ticker", "holding_hours"},
	)

	BacktestTradesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backtest_trades_total",
			Help:      "Completed trailing-stop trades per ticker",
		},
		[]string{"ticker"},
	)

	BacktestProfitLoss = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backtest_profit_loss",
			Help:      "Total profit and loss of the latest backtest per ticker",
		},
		[]string{"ticker"},
	)

	FetchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "Bar series fetches per source and outcome",
		},
		[]string{"source", "status"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Bar series fetch latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bar_cache_hits_total",
			Help:      "Bar series served from the in-memory cache",
		},
	)

	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a full analysis or backtest run",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"kind"},
	)
)
