package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"stock-dynamic/config"
	"stock-dynamic/internal/analyzer"
	"stock-dynamic/internal/dto"
	"stock-dynamic/internal/repository"
	"stock-dynamic/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type analysisFixture struct {
	cfg      *config.Config
	repo     *fakeCandleRepo
	store    *recordingStore
	notifier *recordingNotifier
	out      *bytes.Buffer
	svc      *analysisService
}

func newAnalysisFixture(t *testing.T, series map[string][]dto.Bar) *analysisFixture {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{
		Analysis: config.Analysis{
			TickerGroups:  [][]string{{"AAPL", "BAD", "MSFT"}},
			Period:        "5d",
			BaseHours:     0.25,
			Iterations:    2,
			IntervalShort: "15m",
			IntervalLong:  "60m",
			TimeAnchor:    "start",
		},
		Output: config.Output{ReportDir: filepath.Join(root, "txt"), DataDir: filepath.Join(root, "data")},
		Worker: config.Worker{MaxConcurrency: 2},
	}
	f := &analysisFixture{
		cfg:      cfg,
		repo:     &fakeCandleRepo{series: series},
		store:    &recordingStore{},
		notifier: &recordingNotifier{},
		out:      &bytes.Buffer{},
	}
	log := logger.NewNop()
	svc := NewAnalysisService(cfg, log, analyzer.NewLagReturnAnalyzer(log), f.repo,
		repository.NewCSVRepository(cfg.Output.DataDir, cfg.Output.DataDir), f.store, f.notifier, f.out)
	f.svc = svc.(*analysisService)
	f.svc.now = func() time.Time { return time.Date(2025, 3, 14, 16, 0, 0, 0, time.UTC) }
	return f
}

func TestAnalysisService_Run(t *testing.T) {
	aapl := barsFromCloses(rising(20)...)
	f := newAnalysisFixture(t, map[string][]dto.Bar{
		"AAPL": aapl,
		"MSFT": barsFromCloses(falling(20)...),
	})

	report, err := f.svc.Run(context.Background(), AnalysisRun{Config: f.cfg.Analysis, Trigger: "test"})
	require.NoError(t, err)
	require.Len(t, report.Groups, 1)

	group := report.Groups[0]
	require.Len(t, group.Analyses, 3)
	assert.Equal(t, "AAPL", group.Analyses[0].Ticker)
	assert.Equal(t, "BAD", group.Analyses[1].Ticker)
	assert.ErrorIs(t, group.Analyses[1].Err, errFetch)
	assert.Equal(t, "MSFT", group.Analyses[2].Ticker)

	results := group.Analyses[0].Results
	require.Len(t, results, 2)

	// iteration 1: latest ceil(20/2) bars, lag 1
	assert.Equal(t, 0.25, results[0].Summary.HoldingHours)
	assert.Len(t, results[0].Records, 9)
	assert.Equal(t, 1, results[0].Iteration)

	// iteration 2: all 20 bars, lag 2, returns halved
	raw, rawRecords, err := analyzer.NewLagReturnAnalyzer(nil).Analyze(context.Background(),
		dto.BarSeries{Ticker: "AAPL", Bars: aapl}, "15m", 0.5)
	require.NoError(t, err)
	assert.Equal(t, 0.5, results[1].Summary.HoldingHours)
	assert.Equal(t, 2, results[1].Iteration)
	require.Len(t, results[1].Records, 18)
	assert.InDelta(t, raw.ExpectedReturn/2, results[1].Summary.ExpectedReturn, 1e-15)
	assert.InDelta(t, rawRecords[0].Return/2, results[1].Records[0].Return, 1e-15)

	// window: relative period plus base*iterations lookback
	require.NotEmpty(t, f.repo.params)
	assert.Equal(t, f.svc.now().Add(-(30*time.Minute + 5*24*time.Hour)), f.repo.params[0].Start)

	data, err := os.ReadFile(report.SummaryFile)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, "Stock Dynamic Analysis Report\n"))
	assert.Contains(t, text, "--- Holding 0.25 Hours ---\n  - AAPL:")
	assert.Less(t, strings.Index(text, "  - AAPL:"), strings.Index(text, "  - MSFT:"), "rising ticker ranks first")
	assert.Equal(t, "summary_base-0.25_iter-2_15m_anchor-start_period-5d.txt", filepath.Base(report.SummaryFile))

	require.Len(t, f.store.analyses, 1)
	assert.Equal(t, dto.RunKindAnalysis, f.store.runs[0].Kind)
	assert.Equal(t, uint(1), report.RunID)
	require.Len(t, f.notifier.messages, 1)
	assert.Contains(t, f.notifier.messages[0], "Return Ranking")
}

func TestAnalysisService_OnlyProfitable(t *testing.T) {
	f := newAnalysisFixture(t, map[string][]dto.Bar{
		"AAPL": barsFromCloses(rising(20)...),
		"MSFT": barsFromCloses(falling(20)...),
	})
	cfg := f.cfg.Analysis
	cfg.OnlyProfitable = true

	_, err := f.svc.Run(context.Background(), AnalysisRun{Config: cfg})
	require.NoError(t, err)

	out := f.out.String()
	assert.Contains(t, out, "======= AAPL 0.25-Hour Holding Period Analysis")
	assert.NotContains(t, out, "MSFT 0.25-Hour Holding Period Analysis")
	assert.Contains(t, out, "  - MSFT:", "unprofitable tickers stay in the summary")
}

func TestAnalysisService_SaveData(t *testing.T) {
	f := newAnalysisFixture(t, map[string][]dto.Bar{"AAPL": barsFromCloses(rising(20)...)})
	cfg := f.cfg.Analysis
	cfg.TickerGroups = [][]string{{"AAPL"}}
	cfg.SaveData = true

	_, err := f.svc.Run(context.Background(), AnalysisRun{Config: cfg})
	require.NoError(t, err)

	for _, name := range []string{"AAPL_15m_raw.csv", "AAPL_0.25hr_analysis.csv", "AAPL_0.5hr_analysis.csv"} {
		assert.FileExists(t, filepath.Join(f.cfg.Output.DataDir, name))
	}
}

func TestAnalysisService_Clean(t *testing.T) {
	f := newAnalysisFixture(t, map[string][]dto.Bar{"AAPL": barsFromCloses(rising(20)...)})
	require.NoError(t, PrepareOutputDirs(f.cfg.Output))
	stale := filepath.Join(f.cfg.Output.ReportDir, "old_report.txt")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	cfg := f.cfg.Analysis
	cfg.Clean = true
	_, err := f.svc.Run(context.Background(), AnalysisRun{Config: cfg})
	require.NoError(t, err)
	assert.NoFileExists(t, stale)
}

func TestAnalysisService_StoreFailureAborts(t *testing.T) {
	f := newAnalysisFixture(t, map[string][]dto.Bar{"AAPL": barsFromCloses(rising(20)...)})
	f.store.failOnWrite = errors.New("db down")

	_, err := f.svc.Run(context.Background(), AnalysisRun{Config: f.cfg.Analysis})
	assert.ErrorContains(t, err, "db down")
}

func TestAnalysisService_NotifyFailureIsNotFatal(t *testing.T) {
	f := newAnalysisFixture(t, map[string][]dto.Bar{"AAPL": barsFromCloses(rising(20)...)})
	f.notifier.err = errors.New("telegram down")

	_, err := f.svc.Run(context.Background(), AnalysisRun{Config: f.cfg.Analysis})
	assert.NoError(t, err)
}

func TestAnalysisService_AnalyzeOne(t *testing.T) {
	f := newAnalysisFixture(t, map[string][]dto.Bar{"AAPL": barsFromCloses(rising(20)...)})

	res, err := f.svc.AnalyzeOne(context.Background(), dto.AnalysisRequest{Ticker: "AAPL", Interval: "15m", HoldingHours: 1})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Summary.LagPeriods)
	assert.Len(t, res.Records, 16)

	_, err = f.svc.AnalyzeOne(context.Background(), dto.AnalysisRequest{Ticker: "AAPL", Interval: "15m", HoldingHours: 0.1})
	assert.ErrorIs(t, err, analyzer.ErrIncompatibleHoldingPeriod)

	_, err = f.svc.AnalyzeOne(context.Background(), dto.AnalysisRequest{Ticker: "BAD", Interval: "15m", HoldingHours: 1})
	assert.ErrorIs(t, err, errFetch)
}
