package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"stock-dynamic/internal/dto"
	"stock-dynamic/pkg/common"
	"stock-dynamic/pkg/utils"
)

var (
	rawHeader      = []string{"Datetime", "Open", "High", "Low", "Close", "Volume"}
	analysisHeader = []string{"Datetime", "Open", "High", "Low", "Close", "Volume", "P_buy", "P_sell", "price_diff", "return"}
)

// layouts accepted when reading; pandas writes "2006-01-02 15:04:05-07:00".
var csvTimeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05-07:00"}

// naive timestamps are read as New York time
const csvNaiveLayout = "2006-01-02 15:04:05"

type CSVRepository interface {
	// Get reads {read_dir}/{ticker}_{interval}_raw.csv and keeps bars inside [Start, End].
	Get(ctx context.Context, param dto.GetBarsParam) (dto.BarSeries, error)
	SaveRaw(series dto.BarSeries) (string, error)
	SaveAnalysis(ticker string, holdingHours float64, records []dto.LagReturnRecord, anchor dto.TimeAnchor) (string, error)
}

type csvRepository struct {
	readDir  string
	writeDir string
}

func NewCSVRepository(readDir, writeDir string) CSVRepository {
	return &csvRepository{readDir: readDir, writeDir: writeDir}
}

func RawFileName(ticker, interval string) string {
	return fmt.Sprintf("%s_%s%s", ticker, interval, common.RAW_CSV_SUFFIX)
}

func AnalysisFileName(ticker string, holdingHours float64) string {
	return fmt.Sprintf("%s_%s%s", ticker, utils.FormatHours(holdingHours), common.ANALYSIS_CSV_SUFFIX)
}

func (r *csvRepository) Get(ctx context.Context, param dto.GetBarsParam) (dto.BarSeries, error) {
	series := dto.BarSeries{Ticker: param.Ticker, Interval: param.Interval}

	path := filepath.Join(r.readDir, RawFileName(param.Ticker, param.Interval))
	f, err := os.Open(path)
	if err != nil {
		return series, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	bars, err := readBars(f)
	if err != nil {
		return series, fmt.Errorf("failed to read %s: %w", path, err)
	}

	for _, b := range bars {
		if !param.Start.IsZero() && b.Timestamp.Before(param.Start) {
			continue
		}
		if !param.End.IsZero() && b.Timestamp.After(param.End) {
			continue
		}
		series.Bars = append(series.Bars, b)
	}
	return series, nil
}

func readBars(rd io.Reader) ([]dto.Bar, error) {
	reader := csv.NewReader(rd)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range []string{"datetime", "open", "high", "low", "close"} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	loc := utils.GetNewYorkTimeLocation()
	var bars []dto.Bar
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		if cols["datetime"] >= len(row) {
			return nil, fmt.Errorf("line %d: missing datetime value", line)
		}
		ts, err := parseCSVTime(row[cols["datetime"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bar := dto.Bar{Timestamp: ts.In(loc)}

		// empty or NaN cells are missing values: skip the row like the live source does
		var ok bool
		if bar.Open, ok = parseCell(row, cols["open"]); !ok {
			continue
		}
		if bar.High, ok = parseCell(row, cols["high"]); !ok {
			continue
		}
		if bar.Low, ok = parseCell(row, cols["low"]); !ok {
			continue
		}
		if bar.Close, ok = parseCell(row, cols["close"]); !ok {
			continue
		}
		if i, exists := cols["volume"]; exists && i < len(row) {
			if v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64); err == nil {
				bar.Volume = int64(v)
			}
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func parseCell(row []string, i int) (float64, bool) {
	if i >= len(row) {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func parseCSVTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range csvTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if t, err := time.ParseInLocation(csvNaiveLayout, s, utils.GetNewYorkTimeLocation()); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognised datetime %q", s)
}

func (r *csvRepository) SaveRaw(series dto.BarSeries) (string, error) {
	rows := make([][]string, 0, series.Len())
	for _, b := range series.Bars {
		rows = append(rows, barCells(b.Timestamp, b))
	}
	return r.write(RawFileName(series.Ticker, series.Interval), rawHeader, rows)
}

// SaveAnalysis keys every row by the anchor time: the buy bar for "start",
// the sell bar for "end".
func (r *csvRepository) SaveAnalysis(ticker string, holdingHours float64, records []dto.LagReturnRecord, anchor dto.TimeAnchor) (string, error) {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		row := barCells(rec.AnchorTime(anchor), rec.Bar)
		row = append(row,
			utils.FormatFloat(rec.BuyPrice),
			utils.FormatFloat(rec.SellPrice),
			utils.FormatFloat(rec.PriceDiff),
			utils.FormatFloat(rec.Return),
		)
		rows = append(rows, row)
	}
	return r.write(AnalysisFileName(ticker, holdingHours), analysisHeader, rows)
}

func barCells(ts time.Time, b dto.Bar) []string {
	return []string{
		ts.Format(time.RFC3339),
		utils.FormatFloat(b.Open),
		utils.FormatFloat(b.High),
		utils.FormatFloat(b.Low),
		utils.FormatFloat(b.Close),
		strconv.FormatInt(b.Volume, 10),
	}
}

func (r *csvRepository) write(name string, header []string, rows [][]string) (string, error) {
	if err := os.MkdirAll(r.writeDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", r.writeDir, err)
	}
	path := filepath.Join(r.writeDir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return "", err
	}
	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
