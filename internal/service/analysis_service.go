package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"stock-dynamic/config"
	"stock-dynamic/internal/analyzer"
	"stock-dynamic/internal/dto"
	"stock-dynamic/internal/repository"
	"stock-dynamic/pkg/logger"
	"stock-dynamic/pkg/metrics"
	"stock-dynamic/pkg/telegram"
	"stock-dynamic/pkg/utils"

	"golang.org/x/sync/errgroup"
)

// AnalysisRun is one pass over the configured ticker groups.
type AnalysisRun struct {
	Config  config.Analysis
	Trigger string
}

type AnalysisReport struct {
	Groups      []dto.GroupAnalysis `json:"groups"`
	SummaryFile string              `json:"summary_file"`
	Window      Window              `json:"window"`
	RunID       uint                `json:"run_id"`
}

type AnalysisService interface {
	Run(ctx context.Context, run AnalysisRun) (*AnalysisReport, error)
	AnalyzeOne(ctx context.Context, req dto.AnalysisRequest) (*dto.AnalysisResult, error)
}

type analysisService struct {
	cfg         *config.Config
	log         *logger.Logger
	analyzer    analyzer.LagReturnAnalyzer
	candleRepo  repository.CandleRepository
	csvRepo     repository.CSVRepository
	resultStore repository.ResultStore
	notifier    telegram.Notifier
	out         io.Writer
	now         func() time.Time
	mu          sync.Mutex
}

func NewAnalysisService(
	cfg *config.Config,
	log *logger.Logger,
	lagAnalyzer analyzer.LagReturnAnalyzer,
	candleRepo repository.CandleRepository,
	csvRepo repository.CSVRepository,
	resultStore repository.ResultStore,
	notifier telegram.Notifier,
	out io.Writer,
) AnalysisService {
	return &analysisService{
		cfg:         cfg,
		log:         log,
		analyzer:    lagAnalyzer,
		candleRepo:  candleRepo,
		csvRepo:     csvRepo,
		resultStore: resultStore,
		notifier:    notifier,
		out:         out,
		now:         utils.TimeNowNewYork,
	}
}

func (s *analysisService) printf(format string, args ...any) {
	if s.out == nil {
		return
	}
	fmt.Fprintf(s.out, format, args...)
}

func (s *analysisService) Run(ctx context.Context, run AnalysisRun) (*AnalysisReport, error) {
	// runs share the summary file name, keep them serial
	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	defer func() {
		metrics.RunDuration.WithLabelValues(string(dto.RunKindAnalysis)).Observe(time.Since(started).Seconds())
	}()

	cfg := run.Config
	if cfg.Iterations < 1 || cfg.BaseHours <= 0 {
		return nil, fmt.Errorf("invalid analysis config: base hours %v, iterations %d", cfg.BaseHours, cfg.Iterations)
	}
	anchor := dto.ParseTimeAnchor(cfg.TimeAnchor)

	if cfg.Clean {
		cleaned, errs := CleanOutputs(s.cfg.Output)
		for _, err := range errs {
			s.log.WarnContext(ctx, "Failed to clean output file", logger.ErrorField(err))
		}
		s.printf("Removed %d .txt file(s) from %s/.\nRemoved %d .csv file(s) from %s/.\n",
			cleaned.ReportsRemoved, s.cfg.Output.ReportDir, cleaned.DataRemoved, s.cfg.Output.DataDir)
	}
	if err := PrepareOutputDirs(s.cfg.Output); err != nil {
		return nil, err
	}

	window, err := ResolveWindow(s.now(), AnalysisDataWindow(cfg, cfg.PrePostShort), MaxLookback(cfg))
	if err != nil {
		return nil, err
	}

	report := &AnalysisReport{
		SummaryFile: filepath.Join(s.cfg.Output.ReportDir, SummaryFileName(cfg, window)),
		Window:      window,
	}
	if err := StartSummaryFile(report.SummaryFile); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "Starting analysis run",
		logger.StringField("trigger", run.Trigger),
		logger.IntField("groups", len(cfg.TickerGroups)),
		logger.StringField("interval", cfg.IntervalShort),
		logger.StringField("window", window.Label),
		logger.TimeField("start", window.Start),
		logger.TimeField("end", window.End),
		logger.StringField("summary_file", report.SummaryFile),
	)

	var fullText strings.Builder
	for _, tickers := range cfg.TickerGroups {
		if len(tickers) == 0 {
			continue
		}
		if !utils.ShouldContinue(ctx, s.log) {
			break
		}

		group := s.analyzeGroup(ctx, cfg, tickers, window)
		for _, a := range group.Analyses {
			for _, r := range a.Results {
				if cfg.OnlyProfitable && !(r.Summary.ExpectedReturn > 0) {
					continue
				}
				s.printf("%s", FormatAnalysisSummary(r.Summary))
			}
		}

		text := FormatSummaryReport(group)
		s.printf("%s", text)
		if err := AppendSummaryFile(report.SummaryFile, text+"\n"); err != nil {
			return nil, err
		}
		fullText.WriteString(text)
		report.Groups = append(report.Groups, group)
	}

	s.saveCSVs(ctx, cfg, report.Groups, anchor)

	runID, err := s.resultStore.SaveAnalysis(ctx, repository.RunInfo{
		Kind:      dto.RunKindAnalysis,
		Trigger:   run.Trigger,
		Params:    cfg,
		StartedAt: started,
		Err:       ctx.Err(),
	}, report.Groups)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to store analysis results", logger.ErrorField(err))
		return nil, err
	}
	report.RunID = runID

	if fullText.Len() > 0 {
		if err := s.notifier.Notify(ctx, "Stock Dynamic Analysis Report"+fullText.String()); err != nil {
			s.log.WarnContext(ctx, "Failed to deliver analysis report", logger.ErrorField(err))
		}
	}

	s.log.InfoContext(ctx, "Analysis run complete",
		logger.IntField("groups", len(report.Groups)),
		logger.DurationField("took", time.Since(started)),
	)
	return report, nil
}

// analyzeGroup fetches and analyses every ticker of a group concurrently.
// Results keep the configured ticker order.
func (s *analysisService) analyzeGroup(ctx context.Context, cfg config.Analysis, tickers []string, window Window) dto.GroupAnalysis {
	group := dto.GroupAnalysis{
		Tickers:  tickers,
		Analyses: make([]dto.TickerAnalysis, len(tickers)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerLimit(s.cfg.Worker))
	for i, ticker := range tickers {
		i, ticker := i, ticker
		g.Go(func() error {
			group.Analyses[i] = s.analyzeTicker(gctx, cfg, ticker, window)
			return nil
		})
	}
	_ = g.Wait()
	return group
}

func (s *analysisService) analyzeTicker(ctx context.Context, cfg config.Analysis, ticker string, window Window) dto.TickerAnalysis {
	log := s.log.With(logger.StringField("ticker", ticker))
	ctx = logger.NewContext(ctx, log)
	analysis := dto.TickerAnalysis{Ticker: ticker}

	series, err := s.candleRepo.Get(ctx, dto.GetBarsParam{
		Ticker:   ticker,
		Interval: cfg.IntervalShort,
		Start:    window.Start,
		End:      window.End,
		PrePost:  cfg.PrePostShort,
	})
	if err != nil {
		log.WarnContext(ctx, "Failed to fetch bars, skipping ticker", logger.ErrorField(err))
		metrics.AnalysesTotal.WithLabelValues("error").Inc()
		analysis.Err = err
		return analysis
	}
	analysis.Bars = series.Len()

	if cfg.SaveData && !series.IsEmpty() {
		path, err := s.csvRepo.SaveRaw(series)
		if err != nil {
			log.WarnContext(ctx, "Failed to save raw data", logger.ErrorField(err))
		} else {
			log.InfoContext(ctx, "Raw data saved", logger.StringField("path", path))
		}
	}
	if series.IsEmpty() {
		log.WarnContext(ctx, "No bars to analyse", logger.StringField("interval", cfg.IntervalShort))
	}

	for x := 0; x < cfg.Iterations; x++ {
		iteration := x + 1
		holdingHours := cfg.BaseHours * float64(iteration)
		subset := series.LatestFraction(float64(cfg.Iterations) / float64(iteration))

		summary, records, err := s.analyzer.Analyze(ctx, subset, cfg.IntervalShort, holdingHours)
		if err != nil {
			log.WarnContext(ctx, "Skipping holding period",
				logger.FloatField("holding_hours", holdingHours),
				logger.ErrorField(err),
			)
			metrics.AnalysesTotal.WithLabelValues("skipped").Inc()
			continue
		}

		normalized := dto.AnalysisResult{Summary: *summary, Records: records}.Normalize(iteration)
		analysis.Results = append(analysis.Results, normalized)
		metrics.AnalysesTotal.WithLabelValues("ok").Inc()
		metrics.ExpectedReturn.WithLabelValues(ticker, utils.FormatHours(holdingHours)).Set(normalized.Summary.ExpectedReturn)
	}
	return analysis
}

func (s *analysisService) saveCSVs(ctx context.Context, cfg config.Analysis, groups []dto.GroupAnalysis, anchor dto.TimeAnchor) {
	if !cfg.SaveData {
		return
	}
	for _, g := range groups {
		for _, a := range g.Analyses {
			for _, r := range a.Results {
				path, err := s.csvRepo.SaveAnalysis(a.Ticker, r.Summary.HoldingHours, r.Records, anchor)
				if err != nil {
					s.log.WarnContext(ctx, "Failed to save analysis data", logger.StringField("ticker", a.Ticker), logger.ErrorField(err))
					continue
				}
				s.log.InfoContext(ctx, "Analysis data saved", logger.StringField("path", path))
			}
		}
	}
}

// AnalyzeOne runs a single (ticker, holding period) analysis over the full
// fetched window, without iteration normalisation.
func (s *analysisService) AnalyzeOne(ctx context.Context, req dto.AnalysisRequest) (*dto.AnalysisResult, error) {
	if req.Period == "" {
		req.Period = s.cfg.Analysis.Period
	}
	window, err := ResolveWindow(s.now(), req.DataWindow, utils.HoursDuration(req.HoldingHours))
	if err != nil {
		return nil, err
	}

	series, err := s.candleRepo.Get(ctx, dto.GetBarsParam{
		Ticker:   req.Ticker,
		Interval: req.Interval,
		Start:    window.Start,
		End:      window.End,
		PrePost:  req.PrePost,
	})
	if err != nil {
		s.log.WarnContext(ctx, "Failed to fetch bars", logger.StringField("ticker", req.Ticker), logger.ErrorField(err))
		return nil, err
	}

	summary, records, err := s.analyzer.Analyze(ctx, series, req.Interval, req.HoldingHours)
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues("skipped").Inc()
		return nil, err
	}
	metrics.AnalysesTotal.WithLabelValues("ok").Inc()
	return &dto.AnalysisResult{Summary: *summary, Records: records, Iteration: 1}, nil
}

func workerLimit(cfg config.Worker) int {
	if cfg.MaxConcurrency < 1 {
		return 1
	}
	return cfg.MaxConcurrency
}
