package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lacymorrow/alpaca-mcp-server/internal/store"
)

func newTestSummarizer(t *testing.T) (*summarizer, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := &store.Config{StateDir: dir, Timezone: "UTC"}
	s := NewSummarizer(cfg).(*summarizer)
	return s, filepath.Join(dir, "logs")
}

func writeActions(t *testing.T, logDir string, lines ...string) {
	t.Helper()
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(logDir, "actions.ndjson"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return records
}

func TestSummarizeDayAggregatesFills(t *testing.T) {
	s, logDir := newTestSummarizer(t)
	day := time.Date(2025, 8, 29, 12, 0, 0, 0, time.UTC)

	writeActions(t, logDir,
		`{"ts":"2025-08-29T14:30:00Z","kind":"trade_update","event":"fill","symbol":"AAPL","side":"buy","qty":"10","price":"200"}`,
		`{"ts":"2025-08-29T15:00:00Z","kind":"trade_update","event":"fill","symbol":"AAPL","side":"sell","qty":"10","price":"205"}`,
		`{"ts":"2025-08-29T15:30:00Z","kind":"trade_update","event":"partial_fill","symbol":"MSFT","side":"buy","qty":"3","price":"400"}`,
		`{"ts":"2025-08-29T15:31:00Z","kind":"trade_update","event":"new","symbol":"MSFT","side":"buy","qty":"2","price":"400"}`,
	)

	path, err := s.SummarizeDay(day)
	if err != nil {
		t.Fatalf("SummarizeDay: %v", err)
	}
	if path == "" {
		t.Fatal("expected a CSV path")
	}

	records := readCSV(t, path)
	if len(records) != 4 { // header + AAPL + MSFT + TOTAL
		t.Fatalf("expected 4 rows, got %d", len(records))
	}

	aapl := records[1]
	if aapl[0] != "AAPL" {
		t.Fatalf("expected AAPL row first, got %s", aapl[0])
	}
	if aapl[1] != "10" || aapl[3] != "10" {
		t.Errorf("unexpected AAPL quantities: buy=%s sell=%s", aapl[1], aapl[3])
	}
	if aapl[5] != "50.00" {
		t.Errorf("expected AAPL realized pnl 50.00, got %s", aapl[5])
	}

	msft := records[2]
	if msft[1] != "3" {
		t.Errorf("expected MSFT buy qty 3 (new events excluded), got %s", msft[1])
	}

	total := records[3]
	if total[0] != "TOTAL" || total[5] != "50.00" {
		t.Errorf("unexpected TOTAL row: %v", total)
	}
}

func TestSummarizeDayCountsDecisions(t *testing.T) {
	s, logDir := newTestSummarizer(t)
	day := time.Date(2025, 8, 29, 12, 0, 0, 0, time.UTC)

	writeActions(t, logDir,
		`{"ts":"2025-08-29T14:30:00Z","decisions":[{"action":"buy","symbol":"NVDA","qty":"2"},{"action":"none"}]}`,
		`{"ts":"2025-08-29T15:30:00Z","decisions":[{"action":"close","symbol":"NVDA"}]}`,
	)

	path, err := s.SummarizeDay(day)
	if err != nil {
		t.Fatalf("SummarizeDay: %v", err)
	}
	records := readCSV(t, path)
	nvda := records[1]
	if nvda[0] != "NVDA" || nvda[8] != "2" {
		t.Errorf("expected 2 NVDA decisions, got row %v", nvda)
	}
}

func TestSummarizeDaySkipsOtherDays(t *testing.T) {
	s, logDir := newTestSummarizer(t)

	writeActions(t, logDir,
		`{"ts":"2025-08-28T14:30:00Z","kind":"trade_update","event":"fill","symbol":"AAPL","side":"buy","qty":"10","price":"200"}`,
	)

	path, err := s.SummarizeDay(time.Date(2025, 8, 29, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("SummarizeDay: %v", err)
	}
	if path != "" {
		t.Errorf("expected no report for day without activity, got %s", path)
	}
}

func TestSummarizeDayNoLogFile(t *testing.T) {
	s, _ := newTestSummarizer(t)

	path, err := s.SummarizeDay(time.Now())
	if err != nil {
		t.Fatalf("SummarizeDay: %v", err)
	}
	if path != "" {
		t.Errorf("expected empty path with no log file, got %s", path)
	}
}

func TestSummarizeDayIgnoresMalformedLines(t *testing.T) {
	s, logDir := newTestSummarizer(t)
	day := time.Date(2025, 8, 29, 12, 0, 0, 0, time.UTC)

	writeActions(t, logDir,
		`not json at all`,
		`{"ts":"bogus","kind":"trade_update","event":"fill","symbol":"X","side":"buy","qty":"1","price":"1"}`,
		`{"ts":"2025-08-29T14:30:00Z","kind":"trade_update","event":"fill","symbol":"AAPL","side":"buy","qty":"1","price":"100"}`,
	)

	path, err := s.SummarizeDay(day)
	if err != nil {
		t.Fatalf("SummarizeDay: %v", err)
	}
	records := readCSV(t, path)
	if len(records) != 3 { // header + AAPL + TOTAL
		t.Fatalf("expected only AAPL to survive, got %d rows", len(records))
	}
}
