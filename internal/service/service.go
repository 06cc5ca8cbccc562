package service

import (
	"io"

	"stock-dynamic/config"
	"stock-dynamic/internal/analyzer"
	"stock-dynamic/internal/repository"
	"stock-dynamic/pkg/logger"
	"stock-dynamic/pkg/telegram"
)

type Service struct {
	AnalysisService AnalysisService
	BacktestService BacktestService
	DownloadService DownloadService
}

// NewService wires the run services. Console reports go to out.
func NewService(
	cfg *config.Config,
	log *logger.Logger,
	repo *repository.Repository,
	notifier telegram.Notifier,
	out io.Writer,
) *Service {
	lagAnalyzer := analyzer.NewLagReturnAnalyzer(log)
	return &Service{
		AnalysisService: NewAnalysisService(cfg, log, lagAnalyzer, repo.CandleRepo, repo.CSVRepo, repo.ResultStore, notifier, out),
		BacktestService: NewBacktestService(cfg, log, repo.CandleRepo, repo.ResultStore, notifier, out),
		DownloadService: NewDownloadService(cfg, log, repo.CandleRepo, repo.CSVRepo, out),
	}
}
