// Package report turns the NDJSON action log into daily CSV summaries:
// per-symbol fill aggregates with realized P/L, plus decision counts for
// dry runs where no fills ever arrive.
package report

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lacymorrow/alpaca-mcp-server/internal/interfaces"
	"github.com/lacymorrow/alpaca-mcp-server/internal/store"
	"github.com/lacymorrow/alpaca-mcp-server/internal/types"
)

type summarizer struct {
	logDir string
	loc    *time.Location
}

var _ interfaces.Summarizer = (*summarizer)(nil)

// NewSummarizer builds a Summarizer over the configured log directory.
func NewSummarizer(cfg *store.Config) interfaces.Summarizer {
	return &summarizer{
		logDir: filepath.Join(cfg.StateDir, "logs"),
		loc:    cfg.Location(),
	}
}

// actionRecord is the superset of the line shapes in actions.ndjson:
// tick reports carry decisions, stream fills carry kind/side/qty/price.
type actionRecord struct {
	TS        string           `json:"ts"`
	Kind      string           `json:"kind"`
	Event     string           `json:"event"`
	Symbol    string           `json:"symbol"`
	Side      string           `json:"side"`
	Qty       decimal.Decimal  `json:"qty"`
	Price     decimal.Decimal  `json:"price"`
	Decisions []types.Decision `json:"decisions"`
}

type aggRow struct {
	Symbol    string
	BuyQty    decimal.Decimal
	BuyValue  decimal.Decimal
	SellQty   decimal.Decimal
	SellValue decimal.Decimal
	Decisions int
}

func (s *summarizer) actionsFile() string {
	return filepath.Join(s.logDir, "actions.ndjson")
}

func (s *summarizer) csvPath(t time.Time) string {
	return filepath.Join(s.logDir, "reports", t.In(s.loc).Format("2006-01-02")+".csv")
}

func (s *summarizer) SummarizeDay(t time.Time) (string, error) {
	inPath := s.actionsFile()
	if _, err := os.Stat(inPath); err != nil {
		return "", nil
	}
	f, err := os.Open(inPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	day := t.In(s.loc).Format("2006-01-02")
	aggs := map[string]*aggRow{}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		var rec actionRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			continue
		}
		ts, err := time.Parse(time.RFC3339, rec.TS)
		if err != nil || ts.In(s.loc).Format("2006-01-02") != day {
			continue
		}

		if rec.Kind == "trade_update" {
			if rec.Event != "fill" && rec.Event != "partial_fill" {
				continue
			}
			row := s.row(aggs, rec.Symbol)
			value := rec.Qty.Mul(rec.Price)
			switch rec.Side {
			case "buy":
				row.BuyQty = row.BuyQty.Add(rec.Qty)
				row.BuyValue = row.BuyValue.Add(value)
			case "sell":
				row.SellQty = row.SellQty.Add(rec.Qty)
				row.SellValue = row.SellValue.Add(value)
			}
			continue
		}

		for _, d := range rec.Decisions {
			if d.Action == "none" || d.Symbol == "" {
				continue
			}
			s.row(aggs, d.Symbol).Decisions++
		}
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	if len(aggs) == 0 {
		return "", nil
	}

	outPath := s.csvPath(t)
	if err := s.writeCSV(outPath, aggs); err != nil {
		return "", err
	}
	return outPath, nil
}

func (s *summarizer) row(aggs map[string]*aggRow, symbol string) *aggRow {
	row := aggs[symbol]
	if row == nil {
		row = &aggRow{Symbol: symbol}
		aggs[symbol] = row
	}
	return row
}

func (s *summarizer) writeCSV(outPath string, aggs map[string]*aggRow) error {
	keys := make([]string, 0, len(aggs))
	for k := range aggs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	defer w.Flush()

	headers := []string{"symbol", "buy_qty", "buy_avg", "sell_qty", "sell_avg", "realized_pnl", "gross_buy_value", "gross_sell_value", "decisions"}
	if err := w.Write(headers); err != nil {
		return err
	}

	totalBuy, totalSell, totalPnL := decimal.Zero, decimal.Zero, decimal.Zero
	totalDecisions := 0
	for _, k := range keys {
		r := aggs[k]
		buyAvg := avg(r.BuyValue, r.BuyQty)
		sellAvg := avg(r.SellValue, r.SellQty)

		matched := decimal.Min(r.BuyQty, r.SellQty)
		pnl := matched.Mul(sellAvg.Sub(buyAvg))

		rec := []string{
			r.Symbol,
			r.BuyQty.String(),
			buyAvg.StringFixed(4),
			r.SellQty.String(),
			sellAvg.StringFixed(4),
			pnl.StringFixed(2),
			r.BuyValue.StringFixed(2),
			r.SellValue.StringFixed(2),
			fmt.Sprintf("%d", r.Decisions),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
		totalBuy = totalBuy.Add(r.BuyValue)
		totalSell = totalSell.Add(r.SellValue)
		totalPnL = totalPnL.Add(pnl)
		totalDecisions += r.Decisions
	}

	return w.Write([]string{"TOTAL", "", "", "", "", totalPnL.StringFixed(2), totalBuy.StringFixed(2), totalSell.StringFixed(2), fmt.Sprintf("%d", totalDecisions)})
}

func avg(value, qty decimal.Decimal) decimal.Decimal {
	if qty.IsZero() {
		return decimal.Zero
	}
	return value.Div(qty)
}

func (s *summarizer) SummarizeToday() (string, error) {
	return s.SummarizeDay(time.Now().In(s.loc))
}

// US equity close is 16:00; a small buffer lets final fills land.
func (s *summarizer) ShouldRunNow() (bool, string) {
	now := time.Now().In(s.loc)
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 16, 5, 0, 0, s.loc)
	outPath := s.csvPath(now)
	if now.After(cutoff) {
		if _, err := os.Stat(outPath); errors.Is(err, os.ErrNotExist) {
			return true, outPath
		}
	}
	return false, outPath
}
