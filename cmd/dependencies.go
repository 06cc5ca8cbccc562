package cmd

import (
	"io"

	"stock-dynamic/config"
	"stock-dynamic/internal/repository"
	"stock-dynamic/internal/service"
	"stock-dynamic/pkg/cache"
	"stock-dynamic/pkg/logger"
	"stock-dynamic/pkg/postgres"
	"stock-dynamic/pkg/telegram"

	goValidator "github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

type AppDependency struct {
	db        *postgres.DB
	cfg       *config.Config
	log       *logger.Logger
	validator *goValidator.Validate
	cache     cache.Cache
	notifier  telegram.Notifier
	repo      *repository.Repository
}

func NewAppDependency(cfg *config.Config) (*AppDependency, error) {
	log, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return nil, err
	}

	var db *postgres.DB
	if cfg.DB.Enabled {
		db, err = postgres.NewDB(cfg.DB, log)
		if err != nil {
			log.Error("Failed to connect to database", logger.ErrorField(err))
			return nil, err
		}
	}

	notifier, err := telegram.NewNotifierFromConfig(cfg.Telegram, log)
	if err != nil {
		log.Error("Failed to create telegram notifier", logger.ErrorField(err))
		_ = db.Close()
		return nil, err
	}

	c := cache.NewCache(cfg.Cache.DefaultExpiration, cfg.Cache.CleanupInterval)

	var gormDB *gorm.DB
	if db != nil {
		gormDB = db.DB
	}

	return &AppDependency{
		db:        db,
		cfg:       cfg,
		log:       log,
		validator: goValidator.New(),
		cache:     c,
		notifier:  notifier,
		repo:      repository.NewRepository(cfg, gormDB, c, log),
	}, nil
}

// Services builds the run services; console reports are written to out.
func (d *AppDependency) Services(out io.Writer) *service.Service {
	return service.NewService(d.cfg, d.log, d.repo, d.notifier, out)
}

func (d *AppDependency) Close() error {
	d.log.Debug("Closing app dependency")
	defer d.log.Sync()
	return d.db.Close()
}
