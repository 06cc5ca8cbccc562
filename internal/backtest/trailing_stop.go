// Package backtest simulates a trailing-stop strategy bar by bar: buy when
// the price rises entry_trail_pct above the lowest low seen, sell when it
// falls exit_trail_pct below the highest high since the buy.
package backtest

import (
	"errors"
	"fmt"
	"math"
	"time"

	"stock-dynamic/internal/dto"
)

// ErrNoData is returned for an empty series. It is a skip signal, not a
// strategy failure.
var ErrNoData = errors.New("no data to backtest")

type Phase int

const (
	PhaseLookingToBuy Phase = iota
	PhaseInPosition
)

func (p Phase) String() string {
	switch p {
	case PhaseLookingToBuy:
		return "LOOKING_TO_BUY"
	case PhaseInPosition:
		return "IN_POSITION"
	default:
		return "UNKNOWN"
	}
}

// Day is a calendar day in the timezone of the bar timestamps.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day{Year: y, Month: m, Day: d}
}

func (d Day) IsZero() bool {
	return d == Day{}
}

func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// State is the per-run simulation state. HighestPriceSinceBuy is -Inf
// outside a position; a zero Day means "not set yet".
type State struct {
	Phase                Phase
	LowestPriceSeen      float64
	HighestPriceSinceBuy float64
	BuyPrice             float64
	BuyTime              time.Time
	CurrentDay           Day
	DayOfLastTrade       Day
}

// Simulator advances the trailing-stop state one bar at a time. A Simulator
// belongs to a single instrument run and must not be shared.
type Simulator struct {
	params dto.BacktestParams
	state  State
}

func NewSimulator(params dto.BacktestParams) *Simulator {
	return &Simulator{
		params: params,
		state: State{
			Phase:                PhaseLookingToBuy,
			LowestPriceSeen:      math.Inf(1),
			HighestPriceSinceBuy: math.Inf(-1),
		},
	}
}

func (s *Simulator) State() State {
	return s.state
}

// Step processes one bar and returns the trade it completes, if any. A bar
// is handled by exactly one phase, so a buy and a sell never share a bar.
func (s *Simulator) Step(bar dto.Bar) *dto.TradeRecord {
	switch s.state.Phase {
	case PhaseLookingToBuy:
		s.lookToBuy(bar)
		return nil
	case PhaseInPosition:
		return s.holdPosition(bar)
	default:
		panic(fmt.Sprintf("backtest: unknown phase %d", s.state.Phase))
	}
}

func (s *Simulator) lookToBuy(bar dto.Bar) {
	day := DayOf(bar.Timestamp)

	// no re-entry on the day of the last sell, whatever DailyTrades says
	if !s.state.DayOfLastTrade.IsZero() && day == s.state.DayOfLastTrade {
		return
	}

	if s.params.DailyTrades && day != s.state.CurrentDay {
		s.state.LowestPriceSeen = bar.Low
		s.state.CurrentDay = day
	} else if bar.Low < s.state.LowestPriceSeen {
		s.state.LowestPriceSeen = bar.Low
	}

	buyTrigger := s.state.LowestPriceSeen * (1 + s.params.EntryTrailPct/100)
	if bar.High >= buyTrigger {
		s.state.Phase = PhaseInPosition
		s.state.BuyPrice = buyTrigger
		s.state.BuyTime = bar.Timestamp
		s.state.HighestPriceSinceBuy = buyTrigger
	}
}

func (s *Simulator) holdPosition(bar dto.Bar) *dto.TradeRecord {
	if bar.High > s.state.HighestPriceSinceBuy {
		s.state.HighestPriceSinceBuy = bar.High
	}

	sellTrigger := s.state.HighestPriceSinceBuy * (1 - s.params.ExitTrailPct/100)
	if bar.Low > sellTrigger {
		return nil
	}

	trade := s.closeTrade(sellTrigger, bar.Timestamp)

	s.state.DayOfLastTrade = DayOf(bar.Timestamp)
	s.state.Phase = PhaseLookingToBuy
	s.state.LowestPriceSeen = bar.Low
	s.state.HighestPriceSinceBuy = math.Inf(-1)
	s.state.BuyPrice = 0
	s.state.BuyTime = time.Time{}

	return &trade
}

func (s *Simulator) closeTrade(sellPrice float64, sellTime time.Time) dto.TradeRecord {
	buyPrice := s.state.BuyPrice
	shares := s.params.Shares
	if s.params.Budget != nil {
		shares = 0
		if buyPrice > 0 {
			shares = int(math.Floor(*s.params.Budget / buyPrice))
		}
	}

	return dto.TradeRecord{
		BuyPrice:      buyPrice,
		BuyTime:       s.state.BuyTime,
		SellPrice:     sellPrice,
		SellTime:      sellTime,
		Shares:        shares,
		ProfitAndLoss: (sellPrice - buyPrice) * float64(shares),
		ProfitPct:     (sellPrice - buyPrice) / buyPrice,
		EntryTrailPct: s.params.EntryTrailPct,
		ExitTrailPct:  s.params.ExitTrailPct,
		Budget:        s.params.Budget,
	}
}

// Run simulates the whole series in order. A position still open after the
// last bar is dropped, not force-closed.
func Run(series dto.BarSeries, params dto.BacktestParams) ([]dto.TradeRecord, error) {
	if series.IsEmpty() {
		return nil, fmt.Errorf("%w for %s", ErrNoData, series.Ticker)
	}

	sim := NewSimulator(params)
	trades := []dto.TradeRecord{}
	for _, bar := range series.Bars {
		if trade := sim.Step(bar); trade != nil {
			trades = append(trades, *trade)
		}
	}
	return trades, nil
}
