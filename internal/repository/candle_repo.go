package repository

import (
	"context"
	"fmt"
	"time"

	"stock-dynamic/internal/dto"
	"stock-dynamic/pkg/cache"
	"stock-dynamic/pkg/common"
	"stock-dynamic/pkg/logger"
	"stock-dynamic/pkg/metrics"
)

// BarSource is anything that can produce a bar series for a window.
type BarSource interface {
	Get(ctx context.Context, param dto.GetBarsParam) (dto.BarSeries, error)
}

type CandleRepository interface {
	Get(ctx context.Context, param dto.GetBarsParam) (dto.BarSeries, error)
}

type candleRepository struct {
	source     string
	yahooRepo  BarSource
	csvRepo    BarSource
	cache      cache.Cache
	expiration time.Duration
	log        *logger.Logger
}

// NewCandleRepository routes reads to the configured source. A nil cache
// disables memoisation.
func NewCandleRepository(source string, yahooRepo, csvRepo BarSource, c cache.Cache, expiration time.Duration, log *logger.Logger) CandleRepository {
	return &candleRepository{
		source:     source,
		yahooRepo:  yahooRepo,
		csvRepo:    csvRepo,
		cache:      c,
		expiration: expiration,
		log:        log,
	}
}

func barCacheKey(source string, param dto.GetBarsParam) string {
	return source + ":" + fmt.Sprintf(common.KEY_BAR_SERIES,
		param.Ticker, param.Interval, param.Start.Unix(), param.End.Unix(), param.PrePost)
}

func (r *candleRepository) Get(ctx context.Context, param dto.GetBarsParam) (dto.BarSeries, error) {
	key := barCacheKey(r.source, param)
	if series, ok := cache.GetFromCache[dto.BarSeries](r.cache, key); ok {
		metrics.CacheHitsTotal.Inc()
		r.log.DebugContext(ctx, "Bar series served from cache", logger.StringField("key", key))
		return series, nil
	}

	var src BarSource
	switch r.source {
	case dto.SourceCSV:
		src = r.csvRepo
	case dto.SourceYahoo, "":
		src = r.yahooRepo
	default:
		return dto.BarSeries{}, fmt.Errorf("unknown data source %q", r.source)
	}

	series, err := src.Get(ctx, param)
	if err != nil {
		return series, err
	}

	if r.cache != nil && !series.IsEmpty() {
		r.cache.Set(key, series, r.expiration)
	}
	return series, nil
}
