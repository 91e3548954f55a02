package tradelog

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lacymorrow/alpaca-mcp-server/internal/types"
)

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	var lines []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("bad NDJSON line %q: %v", sc.Text(), err)
		}
		lines = append(lines, m)
	}
	return lines
}

func TestAppendAction(t *testing.T) {
	dir := t.TempDir()
	l := New(dir)

	report := &types.TickReport{
		Decisions: []types.Decision{{Action: "buy", Symbol: "AAPL", Qty: decimal.NewFromInt(10)}},
		Notes:     "first tick",
	}
	if err := l.AppendAction("2026-08-31T09:30:00Z", "tick-1", report); err != nil {
		t.Fatalf("AppendAction: %v", err)
	}
	if err := l.AppendAction("2026-08-31T09:45:00Z", "tick-2", &types.TickReport{Decisions: []types.Decision{}}); err != nil {
		t.Fatalf("AppendAction: %v", err)
	}

	lines := readLines(t, filepath.Join(dir, "actions.ndjson"))
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0]["ts"] != "2026-08-31T09:30:00Z" || lines[0]["tick_id"] != "tick-1" {
		t.Errorf("unexpected first line: %v", lines[0])
	}
	if lines[0]["notes"] != "first tick" {
		t.Errorf("report fields not inlined: %v", lines[0])
	}
}

func TestAppendError(t *testing.T) {
	dir := t.TempDir()
	l := New(dir)

	if err := l.AppendError("2026-08-31T09:30:00Z", errors.New("claude CLI timed out")); err != nil {
		t.Fatalf("AppendError: %v", err)
	}

	lines := readLines(t, filepath.Join(dir, "errors.ndjson"))
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0]["error"] != "claude CLI timed out" {
		t.Errorf("unexpected error line: %v", lines[0])
	}
}

func TestAppendFill(t *testing.T) {
	dir := t.TempDir()
	l := New(dir)

	u := types.TradeUpdate{
		Event:   "fill",
		Symbol:  "TSLA",
		Side:    "sell",
		Qty:     decimal.NewFromInt(3),
		Price:   decimal.RequireFromString("250.10"),
		OrderID: "ord-7",
		At:      time.Date(2026, 8, 31, 15, 0, 0, 0, time.UTC),
	}
	if err := l.AppendFill(u); err != nil {
		t.Fatalf("AppendFill: %v", err)
	}

	lines := readLines(t, filepath.Join(dir, "actions.ndjson"))
	if lines[0]["kind"] != "trade_update" || lines[0]["symbol"] != "TSLA" {
		t.Errorf("unexpected fill line: %v", lines[0])
	}
}

func TestCompressOlder(t *testing.T) {
	dir := t.TempDir()
	l := New(dir)

	old := filepath.Join(dir, "archived.ndjson")
	if err := os.WriteFile(old, []byte(`{"ts":"old"}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	stale := time.Now().AddDate(0, 0, -10)
	if err := os.Chtimes(old, stale, stale); err != nil {
		t.Fatal(err)
	}

	fresh := filepath.Join(dir, "actions.ndjson")
	if err := os.WriteFile(fresh, []byte(`{"ts":"new"}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := l.CompressOlder(7); err != nil {
		t.Fatalf("CompressOlder: %v", err)
	}

	if _, err := os.Stat(old + ".gz"); err != nil {
		t.Error("expected gzip of stale file")
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("stale original should be removed")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("fresh file must be left alone")
	}
}
