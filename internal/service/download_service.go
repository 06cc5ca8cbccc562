package service

import (
	"context"
	"fmt"
	"io"

	"stock-dynamic/config"
	"stock-dynamic/internal/dto"
	"stock-dynamic/internal/repository"
	"stock-dynamic/pkg/logger"
	"stock-dynamic/pkg/utils"

	"golang.org/x/sync/errgroup"
)

type DownloadResult struct {
	Ticker    string   `json:"ticker"`
	ShortBars int      `json:"short_bars"`
	LongBars  int      `json:"long_bars"`
	Files     []string `json:"files"`
	Errors    []string `json:"errors,omitempty"`
}

// DownloadService fetches both configured intervals without analysing them.
type DownloadService interface {
	Download(ctx context.Context, cfg config.Analysis) ([]DownloadResult, error)
}

type downloadService struct {
	cfg        *config.Config
	log        *logger.Logger
	candleRepo repository.CandleRepository
	csvRepo    repository.CSVRepository
	out        io.Writer
}

func NewDownloadService(cfg *config.Config, log *logger.Logger, candleRepo repository.CandleRepository, csvRepo repository.CSVRepository, out io.Writer) DownloadService {
	return &downloadService{cfg: cfg, log: log, candleRepo: candleRepo, csvRepo: csvRepo, out: out}
}

func (s *downloadService) Download(ctx context.Context, cfg config.Analysis) ([]DownloadResult, error) {
	if cfg.SaveData {
		if err := PrepareOutputDirs(s.cfg.Output); err != nil {
			return nil, err
		}
	}
	window, err := ResolveWindow(utils.TimeNowNewYork(), AnalysisDataWindow(cfg, false), MaxLookback(cfg))
	if err != nil {
		return nil, err
	}

	tickers := cfg.AllTickers()
	results := make([]DownloadResult, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerLimit(s.cfg.Worker))
	for i, ticker := range tickers {
		i, ticker := i, ticker
		g.Go(func() error {
			res := DownloadResult{Ticker: ticker}
			res.ShortBars = s.fetch(gctx, &res, cfg.IntervalShort, cfg.PrePostShort, window, cfg.SaveData)
			res.LongBars = s.fetch(gctx, &res, cfg.IntervalLong, cfg.PrePostLong, window, cfg.SaveData)
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	if s.out != nil {
		for _, res := range results {
			for _, f := range res.Files {
				fmt.Fprintf(s.out, "  - Saved %s data to %s\n", res.Ticker, f)
			}
			for _, e := range res.Errors {
				fmt.Fprintf(s.out, "  - %s: %s\n", res.Ticker, e)
			}
		}
		fmt.Fprintln(s.out, "Data download complete. Skipping analysis.")
	}
	return results, nil
}

func (s *downloadService) fetch(ctx context.Context, res *DownloadResult, interval string, prePost bool, window Window, save bool) int {
	series, err := s.candleRepo.Get(ctx, dto.GetBarsParam{
		Ticker:   res.Ticker,
		Interval: interval,
		Start:    window.Start,
		End:      window.End,
		PrePost:  prePost,
	})
	if err != nil {
		s.log.WarnContext(ctx, "Failed to download bars",
			logger.StringField("ticker", res.Ticker),
			logger.StringField("interval", interval),
			logger.ErrorField(err),
		)
		res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", interval, err))
		return 0
	}
	if save && !series.IsEmpty() {
		path, err := s.csvRepo.SaveRaw(series)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", interval, err))
		} else {
			res.Files = append(res.Files, path)
		}
	}
	return series.Len()
}
