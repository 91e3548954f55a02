package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lacymorrow/alpaca-mcp-server/internal/types"
)

func captureServer(t *testing.T) (*httptest.Server, *[]payload) {
	t.Helper()
	var received []payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p payload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		received = append(received, p)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, &received
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func summaryResult() *types.TickResult {
	open := true
	bp := dec("9000.00")
	return &types.TickResult{
		TickID:   "tick-1",
		TickTime: time.Date(2026, 8, 31, 13, 30, 0, 0, time.UTC),
		Report: &types.TickReport{
			Decisions: []types.Decision{
				{Action: "buy", Symbol: "AAPL", Qty: decimal.NewFromInt(10)},
				{Action: "none"},
			},
			PositionsSnapshot: []types.Position{
				{Symbol: "AAPL", Qty: decimal.NewFromInt(10), MarketValue: dec("1000.00"), UnrealizedPL: dec("50.00")},
				{Symbol: "TSLA", Qty: decimal.NewFromInt(2), MarketValue: dec("500.00"), UnrealizedPL: dec("-80.00")},
			},
			BuyingPower: &bp,
			MarketOpen:  &open,
			Notes:       "bought apple on catalyst",
		},
	}
}

func findField(t *testing.T, p payload, title string) string {
	t.Helper()
	require.NotEmpty(t, p.Attachments)
	for _, f := range p.Attachments[0].Fields {
		if f.Title == title {
			return f.Value
		}
	}
	t.Fatalf("field %q not found", title)
	return ""
}

func TestSendSummary(t *testing.T) {
	srv, received := captureServer(t)
	n := NewSlack(srv.URL)

	require.NoError(t, n.SendSummary(context.Background(), summaryResult()))
	require.Len(t, *received, 1)
	p := (*received)[0]

	assert.Equal(t, ":robot_face: Trading Bot Tick Complete", p.Text)
	// Net P/L is -30 so the attachment must be red.
	assert.Equal(t, "danger", p.Attachments[0].Color)

	assert.Equal(t, "$1500.00 ($-30.00 / -2.0%)", findField(t, p, "Portfolio"))
	assert.Equal(t, "$9000.00", findField(t, p, "Buying Power"))
	assert.Equal(t, "BUY 10x AAPL", findField(t, p, "Trades"))
	assert.Contains(t, findField(t, p, "Status"), "Market Open")
	// TSLA has the larger absolute P/L and sorts first.
	assert.Equal(t, "TSLA: $-80.00 | AAPL: +$50.00", findField(t, p, "Top Positions"))
	assert.Equal(t, "bought apple on catalyst", findField(t, p, "Notes"))
}

func TestSendSummaryAnalysisOnly(t *testing.T) {
	srv, received := captureServer(t)
	n := NewSlack(srv.URL)

	r := summaryResult()
	r.AnalysisOnly = true
	r.Report.PositionsSnapshot = nil
	r.Report.Decisions = nil

	require.NoError(t, n.SendSummary(context.Background(), r))
	p := (*received)[0]
	assert.Contains(t, p.Text, "(Analysis Only)")
	assert.Equal(t, "No trades executed", findField(t, p, "Trades"))
	assert.Equal(t, "No positions", findField(t, p, "Top Positions"))
}

func TestSendAlert(t *testing.T) {
	srv, received := captureServer(t)
	n := NewSlack(srv.URL)

	last := &types.ActionEntry{TS: "2026-08-31T13:15:00Z", Notes: "previous tick"}
	require.NoError(t, n.SendAlert(context.Background(), "claude CLI timed out", "2026-08-31T13:30:00Z", last))

	p := (*received)[0]
	assert.Equal(t, ":x: Alpaca Trading Bot Error", p.Text)
	assert.Equal(t, "danger", p.Attachments[0].Color)
	assert.Equal(t, "claude CLI timed out", findField(t, p, "Error"))
	assert.Contains(t, findField(t, p, "Last Action"), "previous tick")
}

func TestSendAlertNoLastAction(t *testing.T) {
	srv, received := captureServer(t)
	n := NewSlack(srv.URL)

	require.NoError(t, n.SendAlert(context.Background(), "boom", "2026-08-31T13:30:00Z", nil))
	assert.Equal(t, "None", findField(t, (*received)[0], "Last Action"))
}

func TestMissingWebhookIsNoop(t *testing.T) {
	n := NewSlack("")
	require.NoError(t, n.SendSummary(context.Background(), summaryResult()))
}

func TestWebhookErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewSlack(srv.URL)
	err := n.SendSummary(context.Background(), summaryResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestSendSummaryNotesTruncationKeepsRuneBoundary(t *testing.T) {
	srv, received := captureServer(t)
	n := NewSlack(srv.URL)

	result := summaryResult()
	result.Report.Notes = strings.Repeat("a", 299) + "🚀"

	require.NoError(t, n.SendSummary(context.Background(), result))
	require.Len(t, *received, 1)

	notes := findField(t, (*received)[0], "Notes")
	assert.Equal(t, strings.Repeat("a", 299), notes)
	assert.True(t, utf8.ValidString(notes))
}
