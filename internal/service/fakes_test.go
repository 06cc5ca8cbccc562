package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"stock-dynamic/internal/dto"
	"stock-dynamic/internal/model"
	"stock-dynamic/internal/repository"
	"stock-dynamic/pkg/utils"
)

var errFetch = errors.New("upstream unavailable")

type fakeCandleRepo struct {
	mu     sync.Mutex
	series map[string][]dto.Bar
	params []dto.GetBarsParam
}

func (f *fakeCandleRepo) Get(ctx context.Context, param dto.GetBarsParam) (dto.BarSeries, error) {
	f.mu.Lock()
	f.params = append(f.params, param)
	f.mu.Unlock()

	bars, ok := f.series[param.Ticker]
	if !ok {
		return dto.BarSeries{}, errFetch
	}
	return dto.BarSeries{Ticker: param.Ticker, Interval: param.Interval, Bars: bars}, nil
}

type recordingStore struct {
	mu          sync.Mutex
	analyses    [][]dto.GroupAnalysis
	backtests   [][]dto.BacktestResult
	runs        []repository.RunInfo
	failOnWrite error
}

func (s *recordingStore) SaveAnalysis(ctx context.Context, run repository.RunInfo, groups []dto.GroupAnalysis) (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOnWrite != nil {
		return 0, s.failOnWrite
	}
	s.runs = append(s.runs, run)
	s.analyses = append(s.analyses, groups)
	return uint(len(s.runs)), nil
}

func (s *recordingStore) SaveBacktest(ctx context.Context, run repository.RunInfo, results []dto.BacktestResult) (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOnWrite != nil {
		return 0, s.failOnWrite
	}
	s.runs = append(s.runs, run)
	s.backtests = append(s.backtests, results)
	return uint(len(s.runs)), nil
}

func (s *recordingStore) ListRuns(ctx context.Context, param model.GetAnalysisRunParam) ([]model.AnalysisRun, error) {
	return nil, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (n *recordingNotifier) Notify(ctx context.Context, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
	return n.err
}

// barsFromCloses builds 15-minute bars starting on Monday 2025-03-10 09:30 New York.
func barsFromCloses(closes ...float64) []dto.Bar {
	start := time.Date(2025, 3, 10, 9, 30, 0, 0, utils.GetNewYorkTimeLocation())
	bars := make([]dto.Bar, len(closes))
	for i, c := range closes {
		bars[i] = dto.Bar{
			Timestamp: start.Add(time.Duration(i) * 15 * time.Minute),
			Open:      c, High: c, Low: c, Close: c, Volume: 100,
		}
	}
	return bars
}

func rising(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	return closes
}

func falling(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 200 - float64(i)
	}
	return closes
}
