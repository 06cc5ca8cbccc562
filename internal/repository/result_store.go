package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"stock-dynamic/internal/dto"
	"stock-dynamic/internal/model"
	"stock-dynamic/pkg/utils"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RunInfo describes the invocation a batch of results belongs to.
type RunInfo struct {
	Kind      dto.RunKind
	Trigger   string
	Params    any
	StartedAt time.Time
	Err       error
}

type ResultStore interface {
	SaveAnalysis(ctx context.Context, run RunInfo, groups []dto.GroupAnalysis) (uint, error)
	SaveBacktest(ctx context.Context, run RunInfo, results []dto.BacktestResult) (uint, error)
	ListRuns(ctx context.Context, param model.GetAnalysisRunParam) ([]model.AnalysisRun, error)
}

type resultStore struct {
	db  *gorm.DB
	uow UnitOfWork
}

func NewResultStore(db *gorm.DB, uow UnitOfWork) ResultStore {
	return &resultStore{db: db, uow: uow}
}

func (s *resultStore) SaveAnalysis(ctx context.Context, run RunInfo, groups []dto.GroupAnalysis) (uint, error) {
	row, err := newRunRow(run)
	if err != nil {
		return 0, err
	}
	err = s.uow.Run(ctx, func(opts ...utils.DBOption) error {
		db := utils.ApplyOptions(s.db, opts...).WithContext(ctx)
		if err := db.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to create analysis run: %w", err)
		}
		summaries := ToSummaryRows(row.ID, groups)
		if len(summaries) == 0 {
			return nil
		}
		if err := db.CreateInBatches(&summaries, 200).Error; err != nil {
			return fmt.Errorf("failed to store analysis summaries: %w", err)
		}
		return nil
	})
	return row.ID, err
}

func (s *resultStore) SaveBacktest(ctx context.Context, run RunInfo, results []dto.BacktestResult) (uint, error) {
	row, err := newRunRow(run)
	if err != nil {
		return 0, err
	}
	err = s.uow.Run(ctx, func(opts ...utils.DBOption) error {
		db := utils.ApplyOptions(s.db, opts...).WithContext(ctx)
		if err := db.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to create backtest run: %w", err)
		}
		trades := ToTradeRows(row.ID, results)
		if len(trades) == 0 {
			return nil
		}
		if err := db.CreateInBatches(&trades, 200).Error; err != nil {
			return fmt.Errorf("failed to store backtest trades: %w", err)
		}
		return nil
	})
	return row.ID, err
}

func (s *resultStore) ListRuns(ctx context.Context, param model.GetAnalysisRunParam) ([]model.AnalysisRun, error) {
	db := s.db.WithContext(ctx).Order("started_at DESC")
	if param.Kind != nil {
		db = db.Where("kind = ?", *param.Kind)
	}
	if param.Limit != nil {
		db = db.Limit(*param.Limit)
	}
	var runs []model.AnalysisRun
	if err := db.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func newRunRow(run RunInfo) (model.AnalysisRun, error) {
	params, err := json.Marshal(run.Params)
	if err != nil {
		return model.AnalysisRun{}, fmt.Errorf("failed to encode run params: %w", err)
	}
	row := model.AnalysisRun{
		Kind:       string(run.Kind),
		Trigger:    run.Trigger,
		Params:     datatypes.JSON(params),
		Status:     model.RunStatusCompleted,
		StartedAt:  run.StartedAt,
		FinishedAt: sql.NullTime{Time: time.Now(), Valid: true},
	}
	if run.Err != nil {
		row.Status = model.RunStatusFailed
		row.ErrorMessage = sql.NullString{String: run.Err.Error(), Valid: true}
	}
	return row, nil
}

func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func ToSummaryRows(runID uint, groups []dto.GroupAnalysis) []model.AnalysisSummary {
	var rows []model.AnalysisSummary
	for _, g := range groups {
		for _, a := range g.Analyses {
			for _, r := range a.Results {
				s := r.Summary
				rows = append(rows, model.AnalysisSummary{
					RunID:           runID,
					Ticker:          s.Ticker,
					Interval:        s.Interval,
					HoldingHours:    s.HoldingHours,
					Iteration:       r.Iteration,
					LagPeriods:      s.LagPeriods,
					TotalTrades:     s.TotalTrades,
					LossProbability: s.LossProbability,
					WinRate:         s.WinRate,
					AvgPriceDiff:    nullFloat(s.AvgPriceDiff),
					AvgGainDiff:     nullFloat(s.AvgGainDiff),
					AvgLossDiff:     nullFloat(s.AvgLossDiff),
					ExpectedReturn:  nullFloat(s.ExpectedReturn),
				})
			}
		}
	}
	return rows
}

func ToTradeRows(runID uint, results []dto.BacktestResult) []model.BacktestTrade {
	var rows []model.BacktestTrade
	for _, res := range results {
		for _, t := range res.Trades {
			row := model.BacktestTrade{
				RunID:         runID,
				Ticker:        res.Ticker,
				BuyPrice:      t.BuyPrice,
				BuyTime:       t.BuyTime,
				SellPrice:     t.SellPrice,
				SellTime:      t.SellTime,
				Shares:        t.Shares,
				ProfitAndLoss: t.ProfitAndLoss,
				ProfitPct:     t.ProfitPct,
				EntryTrailPct: t.EntryTrailPct,
				ExitTrailPct:  t.ExitTrailPct,
			}
			if t.Budget != nil {
				row.Budget = sql.NullFloat64{Float64: *t.Budget, Valid: true}
			}
			rows = append(rows, row)
		}
	}
	return rows
}

type nopResultStore struct{}

// NewNopResultStore is used when the database is disabled.
func NewNopResultStore() ResultStore { return nopResultStore{} }

func (nopResultStore) SaveAnalysis(context.Context, RunInfo, []dto.GroupAnalysis) (uint, error) {
	return 0, nil
}

func (nopResultStore) SaveBacktest(context.Context, RunInfo, []dto.BacktestResult) (uint, error) {
	return 0, nil
}

func (nopResultStore) ListRuns(context.Context, model.GetAnalysisRunParam) ([]model.AnalysisRun, error) {
	return nil, nil
}
