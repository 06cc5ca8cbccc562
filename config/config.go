package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Log          Logger         `mapstructure:"logger"`
	Analysis     Analysis       `mapstructure:"analysis"`
	Backtest     Backtest       `mapstructure:"backtest"`
	Data         Data           `mapstructure:"data"`
	YahooFinance YahooFinance   `mapstructure:"yahoo_finance"`
	Output       Output         `mapstructure:"output"`
	Cache        Cache          `mapstructure:"cache"`
	Worker       Worker         `mapstructure:"worker"`
	DB           Database       `mapstructure:"database"`
	API          API            `mapstructure:"api"`
	Scheduler    Scheduler      `mapstructure:"scheduler"`
	Telegram     TelegramConfig `mapstructure:"telegram"`
}

type Logger struct {
	Level    string `mapstructure:"level" validate:"required"`
	Encoding string `mapstructure:"encoding"`
}

// Analysis holds the lag-return run parameters. TickerGroups replaces the
// global ticker lists: every group is analysed and reported on its own.
type Analysis struct {
	TickerGroups   [][]string `mapstructure:"ticker_groups"`
	Period         string     `mapstructure:"period"`
	StartDate      string     `mapstructure:"start_date"`
	EndDate        string     `mapstructure:"end_date"`
	BaseHours      float64    `mapstructure:"base_hours" validate:"gt=0"`
	Iterations     int        `mapstructure:"iterations" validate:"gte=1"`
	IntervalShort  string     `mapstructure:"interval_short" validate:"required"`
	IntervalLong   string     `mapstructure:"interval_long" validate:"required"`
	TimeAnchor     string     `mapstructure:"time_anchor" validate:"oneof=start end"`
	OnlyProfitable bool       `mapstructure:"only_profitable"`
	PrePostShort   bool       `mapstructure:"prepost_short"`
	PrePostLong    bool       `mapstructure:"prepost_long"`
	SaveData       bool       `mapstructure:"save_data"`
	Clean          bool       `mapstructure:"clean"`
}

type Backtest struct {
	EntryTrailPct float64  `mapstructure:"entry_trail_pct"`
	ExitTrailPct  float64  `mapstructure:"exit_trail_pct"`
	Shares        int      `mapstructure:"shares" validate:"gte=0"`
	Budget        *float64 `mapstructure:"budget"`
	DailyTrades   bool     `mapstructure:"daily_trades"`
}

type Data struct {
	Source string `mapstructure:"source" validate:"oneof=yahoo csv"`
	CSVDir string `mapstructure:"csv_dir"`
}

type YahooFinance struct {
	BaseURL             string        `mapstructure:"base_url" validate:"required"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute" validate:"gt=0"`
}

type Output struct {
	ReportDir string `mapstructure:"report_dir" validate:"required"`
	DataDir   string `mapstructure:"data_dir" validate:"required"`
}

type Cache struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

type Worker struct {
	MaxConcurrency int `mapstructure:"max_concurrency" validate:"gte=1"`
}

type Database struct {
	Enabled         bool   `mapstructure:"enabled"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	TimeZone        string `mapstructure:"time_zone"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

type API struct {
	Port              int     `mapstructure:"port"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type Scheduler struct {
	AnalysisCron string `mapstructure:"analysis_cron"`
	BacktestCron string `mapstructure:"backtest_cron"`
}

type TelegramConfig struct {
	Enabled              bool   `mapstructure:"enabled"`
	BotToken             string `mapstructure:"bot_token"`
	ChatID               int64  `mapstructure:"chat_id"`
	MaxRequestPerSecond  int    `mapstructure:"max_request_per_second"`
	MaxMessageCharacters int    `mapstructure:"max_message_characters"`
}

// AllTickers flattens the ticker groups, keeping the first occurrence order.
func (a Analysis) AllTickers() []string {
	seen := make(map[string]struct{})
	var tickers []string
	for _, group := range a.TickerGroups {
		for _, t := range group {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			tickers = append(tickers, t)
		}
	}
	return tickers
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "console")

	v.SetDefault("analysis.ticker_groups", [][]string{{"AAPL", "MSFT", "NVDA", "TSLA", "AMZN"}})
	v.SetDefault("analysis.period", "5d")
	v.SetDefault("analysis.base_hours", 2.0)
	v.SetDefault("analysis.iterations", 6)
	v.SetDefault("analysis.interval_short", "5m")
	v.SetDefault("analysis.interval_long", "60m")
	v.SetDefault("analysis.time_anchor", "start")
	v.SetDefault("analysis.prepost_short", false)
	v.SetDefault("analysis.prepost_long", true)

	v.SetDefault("backtest.entry_trail_pct", 5.0)
	v.SetDefault("backtest.exit_trail_pct", 3.0)
	v.SetDefault("backtest.shares", 100)

	v.SetDefault("data.source", "yahoo")
	v.SetDefault("data.csv_dir", "output_data")

	v.SetDefault("yahoo_finance.base_url", "https://query1.finance.yahoo.com/v8/finance/chart")
	v.SetDefault("yahoo_finance.timeout", 30*time.Second)
	v.SetDefault("yahoo_finance.max_request_per_minute", 60)

	v.SetDefault("output.report_dir", "output_txt")
	v.SetDefault("output.data_dir", "output_data")

	v.SetDefault("cache.default_expiration", 10*time.Minute)
	v.SetDefault("cache.cleanup_interval", 20*time.Minute)

	v.SetDefault("worker.max_concurrency", 4)

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")

	v.SetDefault("api.port", 8080)
	v.SetDefault("api.requests_per_second", 10.0)
	v.SetDefault("api.burst", 30)

	v.SetDefault("scheduler.analysis_cron", "*/30 9-16 * * 1-5")

	v.SetDefault("telegram.max_request_per_second", 1)
	v.SetDefault("telegram.max_message_characters", 4000)
}

// Load reads an optional .env file, the YAML config at path (or ./config.yaml),
// environment variables, and any flags already bound to the global viper.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.GetViper()
	setDefaults(v)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := goValidator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
