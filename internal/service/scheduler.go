package service

import (
	"context"
	"fmt"
	"time"

	"stock-dynamic/config"
	"stock-dynamic/pkg/logger"
	"stock-dynamic/pkg/utils"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is one scheduled unit of work. The context is cancelled on shutdown.
type Job func(ctx context.Context) error

type SchedulerService interface {
	// Start registers the configured jobs and blocks until ctx is done.
	Start(ctx context.Context) error
}

type schedulerService struct {
	cfg         config.Scheduler
	log         *logger.Logger
	cronParser  cron.Parser
	analysisJob Job
	backtestJob Job
}

func NewSchedulerService(cfg config.Scheduler, log *logger.Logger, analysisJob, backtestJob Job) SchedulerService {
	return &schedulerService{
		cfg:         cfg,
		log:         log,
		cronParser:  cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		analysisJob: analysisJob,
		backtestJob: backtestJob,
	}
}

// cronLogger adapts the app logger to cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, zap.Any("details", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, logger.ErrorField(err), zap.Any("details", keysAndValues))
}

func (s *schedulerService) newCron() *cron.Cron {
	cl := cronLogger{log: s.log}
	return cron.New(
		cron.WithParser(s.cronParser),
		cron.WithLocation(utils.GetNewYorkTimeLocation()),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
}

func (s *schedulerService) register(ctx context.Context, c *cron.Cron) (int, error) {
	jobs := []struct {
		name string
		spec string
		job  Job
	}{
		{name: "analysis", spec: s.cfg.AnalysisCron, job: s.analysisJob},
		{name: "backtest", spec: s.cfg.BacktestCron, job: s.backtestJob},
	}

	registered := 0
	for _, j := range jobs {
		if j.spec == "" || j.job == nil {
			continue
		}
		name, job := j.name, j.job
		_, err := c.AddFunc(j.spec, func() {
			started := time.Now()
			s.log.InfoContext(ctx, "Running scheduled job", logger.StringField("job", name))
			if err := job(ctx); err != nil {
				s.log.ErrorContext(ctx, "Scheduled job failed", logger.StringField("job", name), logger.ErrorField(err))
				return
			}
			s.log.InfoContext(ctx, "Scheduled job completed",
				logger.StringField("job", name),
				logger.DurationField("took", time.Since(started)),
			)
		})
		if err != nil {
			return registered, fmt.Errorf("invalid %s cron expression %q: %w", name, j.spec, err)
		}
		registered++
	}
	return registered, nil
}

func (s *schedulerService) Start(ctx context.Context) error {
	c := s.newCron()
	registered, err := s.register(ctx, c)
	if err != nil {
		return err
	}
	if registered == 0 {
		return fmt.Errorf("no scheduled job configured")
	}

	c.Start()
	for _, e := range c.Entries() {
		s.log.Info("Job scheduled", logger.TimeField("next_run", e.Next))
	}

	<-ctx.Done()
	s.log.Info("Stopping scheduler, waiting for running jobs")
	<-c.Stop().Done()
	return nil
}
