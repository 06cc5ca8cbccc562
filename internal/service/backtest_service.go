package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"stock-dynamic/config"
	"stock-dynamic/internal/backtest"
	"stock-dynamic/internal/dto"
	"stock-dynamic/internal/repository"
	"stock-dynamic/pkg/logger"
	"stock-dynamic/pkg/metrics"
	"stock-dynamic/pkg/telegram"
	"stock-dynamic/pkg/utils"

	"golang.org/x/sync/errgroup"
)

// BacktestRun is one trailing-stop pass. Lookback extends the download window
// backwards past the requested range.
type BacktestRun struct {
	Request  dto.BacktestRequest
	Lookback time.Duration
	Trigger  string
}

type BacktestService interface {
	Run(ctx context.Context, run BacktestRun) ([]dto.BacktestResult, error)
}

type backtestService struct {
	cfg         *config.Config
	log         *logger.Logger
	candleRepo  repository.CandleRepository
	resultStore repository.ResultStore
	notifier    telegram.Notifier
	out         io.Writer
	now         func() time.Time
}

func NewBacktestService(
	cfg *config.Config,
	log *logger.Logger,
	candleRepo repository.CandleRepository,
	resultStore repository.ResultStore,
	notifier telegram.Notifier,
	out io.Writer,
) BacktestService {
	return &backtestService{
		cfg:         cfg,
		log:         log,
		candleRepo:  candleRepo,
		resultStore: resultStore,
		notifier:    notifier,
		out:         out,
		now:         utils.TimeNowNewYork,
	}
}

// BacktestRequestFromConfig builds the request the CLI and scheduler run.
func BacktestRequestFromConfig(cfg *config.Config) dto.BacktestRequest {
	return dto.BacktestRequest{
		Tickers:  cfg.Analysis.AllTickers(),
		Interval: cfg.Analysis.IntervalShort,
		BacktestParams: dto.BacktestParams{
			EntryTrailPct: cfg.Backtest.EntryTrailPct,
			ExitTrailPct:  cfg.Backtest.ExitTrailPct,
			Shares:        cfg.Backtest.Shares,
			Budget:        cfg.Backtest.Budget,
			DailyTrades:   cfg.Backtest.DailyTrades,
		},
		DataWindow: AnalysisDataWindow(cfg.Analysis, cfg.Analysis.PrePostShort),
	}
}

func (s *backtestService) Run(ctx context.Context, run BacktestRun) ([]dto.BacktestResult, error) {
	started := time.Now()
	defer func() {
		metrics.RunDuration.WithLabelValues(string(dto.RunKindBacktest)).Observe(time.Since(started).Seconds())
	}()

	req := run.Request
	if req.Period == "" {
		req.Period = s.cfg.Analysis.Period
	}
	window, err := ResolveWindow(s.now(), req.DataWindow, run.Lookback)
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "Starting backtest run",
		logger.StringField("trigger", run.Trigger),
		logger.IntField("tickers", len(req.Tickers)),
		logger.FloatField("entry_trail_pct", req.EntryTrailPct),
		logger.FloatField("exit_trail_pct", req.ExitTrailPct),
		logger.StringField("window", window.Label),
	)

	results := make([]dto.BacktestResult, len(req.Tickers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerLimit(s.cfg.Worker))
	for i, ticker := range req.Tickers {
		i, ticker := i, ticker
		g.Go(func() error {
			results[i] = s.backtestTicker(gctx, req, ticker, window)
			return nil
		})
	}
	_ = g.Wait()

	var report strings.Builder
	report.WriteString("\n======= Strategy Backtest Mode =======\n")
	for _, res := range results {
		report.WriteString(FormatBacktestReport(res))
	}
	if s.out != nil {
		fmt.Fprint(s.out, report.String())
	}

	if _, err := s.resultStore.SaveBacktest(ctx, repository.RunInfo{
		Kind:      dto.RunKindBacktest,
		Trigger:   run.Trigger,
		Params:    req,
		StartedAt: started,
		Err:       ctx.Err(),
	}, results); err != nil {
		s.log.ErrorContext(ctx, "Failed to store backtest results", logger.ErrorField(err))
		return nil, err
	}

	if err := s.notifier.Notify(ctx, report.String()); err != nil {
		s.log.WarnContext(ctx, "Failed to deliver backtest report", logger.ErrorField(err))
	}
	return results, nil
}

func (s *backtestService) backtestTicker(ctx context.Context, req dto.BacktestRequest, ticker string, window Window) dto.BacktestResult {
	log := s.log.With(logger.StringField("ticker", ticker))

	series, err := s.candleRepo.Get(ctx, dto.GetBarsParam{
		Ticker:   ticker,
		Interval: req.Interval,
		Start:    window.Start,
		End:      window.End,
		PrePost:  req.PrePost,
	})
	if err != nil {
		log.WarnContext(ctx, "Failed to fetch bars, skipping backtest", logger.ErrorField(err))
		return dto.BacktestResult{Ticker: ticker, Skipped: true, Err: err, Trades: []dto.TradeRecord{}}
	}

	trades, err := backtest.Run(series, req.BacktestParams)
	if errors.Is(err, backtest.ErrNoData) {
		log.InfoContext(ctx, "No data, skipping backtest")
		return dto.BacktestResult{Ticker: ticker, Skipped: true, Trades: []dto.TradeRecord{}}
	}
	if err != nil {
		log.WarnContext(ctx, "Backtest failed", logger.ErrorField(err))
		return dto.BacktestResult{Ticker: ticker, Skipped: true, Err: err, Trades: []dto.TradeRecord{}}
	}

	result := dto.NewBacktestResult(ticker, series.Len(), trades)
	metrics.BacktestTradesTotal.WithLabelValues(ticker).Add(float64(result.TotalTrades))
	metrics.BacktestProfitLoss.WithLabelValues(ticker).Set(result.TotalProfitLoss)
	log.DebugContext(ctx, "Backtest done",
		logger.IntField("bars", result.Bars),
		logger.IntField("trades", result.TotalTrades),
		logger.FloatField("total_profit_loss", result.TotalProfitLoss),
	)
	return result
}
