package backtest

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"stock-dynamic/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var newYork, _ = time.LoadLocation("America/New_York")

func at(day, hour, minute int) time.Time {
	return time.Date(2025, time.March, day, hour, minute, 0, 0, newYork)
}

func bar(ts time.Time, low, high float64) dto.Bar {
	return dto.Bar{Timestamp: ts, Open: low, High: high, Low: low, Close: high}
}

func defaultParams() dto.BacktestParams {
	return dto.BacktestParams{EntryTrailPct: 5, ExitTrailPct: 3, Shares: 100}
}

func TestRun_BuyFiresAtTrigger(t *testing.T) {
	series := dto.BarSeries{Ticker: "TEST", Bars: []dto.Bar{
		bar(at(10, 9, 30), 100, 101),
		bar(at(10, 9, 35), 100, 102),
		bar(at(10, 9, 40), 100, 106),
		bar(at(10, 9, 45), 100, 104),
	}}

	sim := NewSimulator(defaultParams())
	for _, b := range series.Bars[:2] {
		assert.Nil(t, sim.Step(b))
		assert.Equal(t, PhaseLookingToBuy, sim.State().Phase)
	}

	assert.Nil(t, sim.Step(series.Bars[2]))
	state := sim.State()
	assert.Equal(t, PhaseInPosition, state.Phase)
	assert.Equal(t, 105.0, state.BuyPrice)
	assert.Equal(t, series.Bars[2].Timestamp, state.BuyTime)
	assert.Equal(t, 105.0, state.HighestPriceSinceBuy)

	// 100 <= 105 * 0.97, sells on the next bar
	trade := sim.Step(series.Bars[3])
	require.NotNil(t, trade)
	assert.Equal(t, 105.0, trade.BuyPrice)
	assert.Equal(t, series.Bars[2].Timestamp, trade.BuyTime)
	assert.InDelta(t, 105*0.97, trade.SellPrice, 1e-9)
	assert.Equal(t, series.Bars[3].Timestamp, trade.SellTime)
}

func TestRun_NoTrigger(t *testing.T) {
	series := dto.BarSeries{Ticker: "FLAT", Bars: []dto.Bar{
		bar(at(10, 9, 30), 100, 101),
		bar(at(10, 9, 35), 100, 104.9),
		bar(at(11, 9, 30), 100, 103),
	}}

	trades, err := Run(series, defaultParams())
	require.NoError(t, err)
	assert.NotNil(t, trades)
	assert.Empty(t, trades)
}

func TestRun_EmptySeries(t *testing.T) {
	trades, err := Run(dto.BarSeries{Ticker: "EMPTY"}, defaultParams())
	assert.ErrorIs(t, err, ErrNoData)
	assert.Nil(t, trades)
}

func TestRun_OpenPositionIsDropped(t *testing.T) {
	series := dto.BarSeries{Ticker: "OPEN", Bars: []dto.Bar{
		bar(at(10, 9, 30), 100, 100),
		bar(at(10, 9, 35), 104, 106),
		bar(at(10, 9, 40), 108, 110),
		bar(at(10, 9, 45), 110, 112),
	}}

	trades, err := Run(series, defaultParams())
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func sameDaySeries(dayTwoLow, dayTwoHigh float64) dto.BarSeries {
	return dto.BarSeries{Ticker: "SAMEDAY", Bars: []dto.Bar{
		bar(at(10, 10, 0), 100, 100),
		bar(at(10, 10, 5), 101, 106),  // buy at 105
		bar(at(10, 10, 10), 104, 110), // sell at 110 * 0.97
		bar(at(10, 10, 15), 90, 200),  // same day as the sell: skipped
		bar(at(11, 9, 30), dayTwoLow, dayTwoHigh),
	}}
}

func TestRun_SameDayReentryIsSkipped(t *testing.T) {
	series := sameDaySeries(104, 110)

	sim := NewSimulator(defaultParams())
	var trades []dto.TradeRecord
	for i, b := range series.Bars {
		if trade := sim.Step(b); trade != nil {
			trades = append(trades, *trade)
		}
		if i == 3 {
			state := sim.State()
			assert.Equal(t, PhaseLookingToBuy, state.Phase, "a bar on the sell day must not open a position")
			assert.Equal(t, 104.0, state.LowestPriceSeen, "a skipped bar must not move the running low")
			assert.Equal(t, DayOf(at(10, 0, 0)), state.DayOfLastTrade)
		}
	}

	require.Len(t, trades, 1)
	assert.Equal(t, 105.0, trades[0].BuyPrice)
	assert.InDelta(t, 106.7, trades[0].SellPrice, 1e-9)
	assert.Equal(t, series.Bars[2].Timestamp, trades[0].SellTime)

	state := sim.State()
	assert.Equal(t, PhaseInPosition, state.Phase)
	assert.InDelta(t, 104*1.05, state.BuyPrice, 1e-9)
	assert.Equal(t, series.Bars[4].Timestamp, state.BuyTime)
}

func TestRun_DailyTradesResetsLowOnNewDay(t *testing.T) {
	series := sameDaySeries(120, 125)

	tests := []struct {
		name        string
		dailyTrades bool
		wantPhase   Phase
		wantLowest  float64
	}{
		{name: "running low across days", dailyTrades: false, wantPhase: PhaseInPosition, wantLowest: 104},
		{name: "low reset on each new day", dailyTrades: true, wantPhase: PhaseLookingToBuy, wantLowest: 120},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := defaultParams()
			params.DailyTrades = tt.dailyTrades
			sim := NewSimulator(params)
			for _, b := range series.Bars {
				sim.Step(b)
			}
			state := sim.State()
			assert.Equal(t, tt.wantPhase, state.Phase)
			assert.Equal(t, tt.wantLowest, state.LowestPriceSeen)
		})
	}
}

func TestRun_PositionSizing(t *testing.T) {
	series := dto.BarSeries{Ticker: "SIZE", Bars: []dto.Bar{
		bar(at(10, 9, 30), 100, 100),
		bar(at(10, 9, 35), 101, 106),
		bar(at(10, 9, 40), 90, 105),
	}}
	budget := 1000.0

	tests := []struct {
		name       string
		budget     *float64
		wantShares int
	}{
		{name: "fixed shares", budget: nil, wantShares: 100},
		{name: "budget sized", budget: &budget, wantShares: 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := defaultParams()
			params.Budget = tt.budget
			trades, err := Run(series, params)
			require.NoError(t, err)
			require.Len(t, trades, 1)

			trade := trades[0]
			sell := 105 * 0.97
			assert.Equal(t, tt.wantShares, trade.Shares)
			assert.InDelta(t, (sell-105)*float64(tt.wantShares), trade.ProfitAndLoss, 1e-9)
			assert.InDelta(t, (sell-105)/105, trade.ProfitPct, 1e-12)
			assert.Equal(t, 5.0, trade.EntryTrailPct)
			assert.Equal(t, 3.0, trade.ExitTrailPct)
			assert.Equal(t, tt.budget, trade.Budget)
		})
	}
}

func TestRun_BudgetWithZeroBuyPrice(t *testing.T) {
	series := dto.BarSeries{Ticker: "ZERO", Bars: []dto.Bar{
		bar(at(10, 9, 30), 0, 0),
		bar(at(10, 9, 35), 0, 1),
	}}
	budget := 1000.0
	params := defaultParams()
	params.Budget = &budget

	trades, err := Run(series, params)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, 0.0, trades[0].BuyPrice)
	assert.Equal(t, 0, trades[0].Shares)
	assert.Equal(t, 0.0, trades[0].ProfitAndLoss)
}

func TestRun_PathologicalExitTrail(t *testing.T) {
	series := dto.BarSeries{Ticker: "PATH", Bars: []dto.Bar{
		bar(at(10, 9, 30), 100, 100),
		bar(at(10, 9, 35), 101, 106),
		bar(at(10, 9, 40), 1, 105),
	}}
	for _, exit := range []float64{100, 150} {
		params := defaultParams()
		params.ExitTrailPct = exit
		trades, err := Run(series, params)
		require.NoError(t, err)
		assert.Empty(t, trades)
	}
}

func TestSimulator_Monotonicity(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	price := 100.0
	ts := at(3, 9, 30)

	sim := NewSimulator(dto.BacktestParams{EntryTrailPct: 1, ExitTrailPct: 1, Shares: 1})
	prev := sim.State()
	for i := 0; i < 5000; i++ {
		price = math.Max(1, price*(1+(rng.Float64()-0.5)*0.02))
		low := price * (1 - rng.Float64()*0.01)
		high := price * (1 + rng.Float64()*0.01)
		ts = ts.Add(5 * time.Minute)

		trade := sim.Step(dto.Bar{Timestamp: ts, Open: price, High: high, Low: low, Close: price})
		cur := sim.State()

		if prev.Phase == PhaseInPosition && cur.Phase == PhaseInPosition {
			assert.GreaterOrEqual(t, cur.HighestPriceSinceBuy, prev.HighestPriceSinceBuy)
		}
		if prev.Phase == PhaseLookingToBuy && trade == nil {
			assert.LessOrEqual(t, cur.LowestPriceSeen, prev.LowestPriceSeen)
		}
		if cur.Phase == PhaseLookingToBuy {
			assert.True(t, math.IsInf(cur.HighestPriceSinceBuy, -1))
		}
		prev = cur
	}
}
