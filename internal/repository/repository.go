package repository

import (
	"stock-dynamic/config"
	"stock-dynamic/pkg/cache"
	"stock-dynamic/pkg/logger"

	"gorm.io/gorm"
)

type Repository struct {
	YahooFinanceRepo YahooFinanceRepository
	CSVRepo          CSVRepository
	CandleRepo       CandleRepository
	ResultStore      ResultStore
}

// NewRepository wires the bar sources. A nil db selects the no-op result store.
func NewRepository(cfg *config.Config, db *gorm.DB, c cache.Cache, log *logger.Logger) *Repository {
	yahooRepo := NewYahooFinanceRepository(cfg.YahooFinance, log)
	csvRepo := NewCSVRepository(cfg.Data.CSVDir, cfg.Output.DataDir)

	store := NewNopResultStore()
	if db != nil {
		store = NewResultStore(db, NewUnitOfWork(db))
	}

	return &Repository{
		YahooFinanceRepo: yahooRepo,
		CSVRepo:          csvRepo,
		CandleRepo:       NewCandleRepository(cfg.Data.Source, yahooRepo, csvRepo, c, cfg.Cache.DefaultExpiration, log),
		ResultStore:      store,
	}
}
