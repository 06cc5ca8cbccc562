package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"stock-dynamic/internal/dto"
	"stock-dynamic/pkg/cache"
	"stock-dynamic/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	calls  int
	series dto.BarSeries
	err    error
}

func (s *stubSource) Get(ctx context.Context, param dto.GetBarsParam) (dto.BarSeries, error) {
	s.calls++
	if s.err != nil {
		return dto.BarSeries{}, s.err
	}
	out := s.series
	out.Ticker = param.Ticker
	return out, nil
}

func TestCandleRepository_RoutesAndCaches(t *testing.T) {
	series := dto.BarSeries{Interval: "5m", Bars: []dto.Bar{{Timestamp: time.Unix(0, 0), Close: 1}}}
	yahoo := &stubSource{series: series}
	csvSrc := &stubSource{series: series}
	c := cache.NewCache(time.Minute, time.Minute)

	param := dto.GetBarsParam{Ticker: "AAPL", Interval: "5m", Start: time.Unix(100, 0), End: time.Unix(200, 0)}

	repo := NewCandleRepository(dto.SourceYahoo, yahoo, csvSrc, c, time.Minute, logger.NewNop())
	for i := 0; i < 3; i++ {
		got, err := repo.Get(context.Background(), param)
		require.NoError(t, err)
		assert.Equal(t, "AAPL", got.Ticker)
	}
	assert.Equal(t, 1, yahoo.calls)
	assert.Equal(t, 0, csvSrc.calls)

	// a different window is a different key
	param.PrePost = true
	_, err := repo.Get(context.Background(), param)
	require.NoError(t, err)
	assert.Equal(t, 2, yahoo.calls)

	csvRepo := NewCandleRepository(dto.SourceCSV, yahoo, csvSrc, c, time.Minute, logger.NewNop())
	_, err = csvRepo.Get(context.Background(), param)
	require.NoError(t, err)
	assert.Equal(t, 1, csvSrc.calls, "sources do not share cache entries")
}

func TestCandleRepository_ErrorsAreNotCached(t *testing.T) {
	failing := &stubSource{err: errors.New("boom")}
	repo := NewCandleRepository(dto.SourceYahoo, failing, nil, cache.NewCache(time.Minute, time.Minute), time.Minute, logger.NewNop())

	for i := 0; i < 2; i++ {
		_, err := repo.Get(context.Background(), dto.GetBarsParam{Ticker: "X"})
		assert.Error(t, err)
	}
	assert.Equal(t, 2, failing.calls)
}

func TestCandleRepository_UnknownSource(t *testing.T) {
	repo := NewCandleRepository("ftp", nil, nil, nil, 0, logger.NewNop())
	_, err := repo.Get(context.Background(), dto.GetBarsParam{Ticker: "X"})
	assert.ErrorContains(t, err, "unknown data source")
}
