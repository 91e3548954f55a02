// Package notify delivers tick summaries and error alerts to Slack via an
// incoming webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/lacymorrow/alpaca-mcp-server/internal/interfaces"
	"github.com/lacymorrow/alpaca-mcp-server/internal/logger"
	"github.com/lacymorrow/alpaca-mcp-server/internal/types"
)

type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
}

var _ interfaces.Notifier = (*SlackNotifier)(nil)

func NewSlack(webhookURL string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type attachment struct {
	Color  string  `json:"color"`
	Fields []field `json:"fields"`
	Footer string  `json:"footer,omitempty"`
	TS     int64   `json:"ts,omitempty"`
}

type payload struct {
	Text        string       `json:"text"`
	Attachments []attachment `json:"attachments"`
}

// SendSummary posts the end-of-tick portfolio summary.
func (n *SlackNotifier) SendSummary(ctx context.Context, result *types.TickResult) error {
	report := result.Report

	totalValue := decimal.Zero
	totalPL := decimal.Zero
	for _, p := range report.PositionsSnapshot {
		totalValue = totalValue.Add(p.MarketValue)
		totalPL = totalPL.Add(p.UnrealizedPL)
	}
	buyingPower := decimal.Zero
	if report.BuyingPower != nil {
		buyingPower = *report.BuyingPower
	}

	plSign := "+"
	if totalPL.IsNegative() {
		plSign = ""
	}
	cost := totalValue.Sub(totalPL)
	plPct := decimal.Zero
	if cost.IsPositive() {
		plPct = totalPL.Div(cost).Mul(decimal.NewFromInt(100))
	}

	color := "warning"
	switch {
	case totalPL.IsPositive():
		color = "good"
	case totalPL.IsNegative():
		color = "danger"
	}

	marketStatus := ":moon: Market Closed"
	if report.MarketOpen != nil && *report.MarketOpen {
		marketStatus = ":chart_with_upwards_trend: Market Open"
	}

	mode := ""
	if result.AnalysisOnly {
		mode = " (Analysis Only)"
	}

	notes := report.Notes
	if notes == "" {
		notes = "No notes"
	}

	msg := payload{
		Text: ":robot_face: Trading Bot Tick Complete" + mode,
		Attachments: []attachment{{
			Color: color,
			Fields: []field{
				{Title: "Portfolio", Value: fmt.Sprintf("$%s (%s$%s / %s%s%%)",
					totalValue.StringFixed(2), plSign, totalPL.StringFixed(2), plSign, plPct.StringFixed(1)), Short: true},
				{Title: "Buying Power", Value: "$" + buyingPower.StringFixed(2), Short: true},
				{Title: "Trades", Value: tradesText(report.Decisions), Short: true},
				{Title: "Status", Value: marketStatus, Short: true},
				{Title: "Top Positions", Value: topPositionsText(report.PositionsSnapshot), Short: false},
				{Title: "Notes", Value: truncate(notes, 300), Short: false},
			},
			Footer: "Tick: " + result.TickTime.Format(time.RFC3339),
			TS:     result.TickTime.Unix(),
		}},
	}
	return n.post(ctx, msg)
}

// SendAlert posts an error alert with the last recorded action for context.
func (n *SlackNotifier) SendAlert(ctx context.Context, errMsg, tickTime string, lastAction *types.ActionEntry) error {
	last := "None"
	if lastAction != nil {
		if b, err := json.Marshal(lastAction); err == nil {
			last = truncate(string(b), 200)
		}
	}

	msg := payload{
		Text: ":x: Alpaca Trading Bot Error",
		Attachments: []attachment{{
			Color: "danger",
			Fields: []field{
				{Title: "Error", Value: truncate(errMsg, 500), Short: false},
				{Title: "Tick Time", Value: tickTime, Short: true},
				{Title: "Last Action", Value: last, Short: true},
			},
		}},
	}
	return n.post(ctx, msg)
}

func (n *SlackNotifier) post(ctx context.Context, msg payload) error {
	if n.webhookURL == "" {
		logger.Warn(ctx, "No Slack webhook configured, skipping notification")
		return nil
	}

	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode slack payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post slack webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("slack webhook http %d", resp.StatusCode)
	}
	return nil
}

func tradesText(decisions []types.Decision) string {
	var lines []string
	for _, d := range decisions {
		if d.Action == "" || d.Action == "none" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s %sx %s",
			strings.ToUpper(d.Action), d.Qty.String(), d.Symbol))
		if len(lines) == 5 {
			break
		}
	}
	if len(lines) == 0 {
		return "No trades executed"
	}
	return strings.Join(lines, "\n")
}

func topPositionsText(positions []types.Position) string {
	if len(positions) == 0 {
		return "No positions"
	}
	sorted := make([]types.Position, len(positions))
	copy(sorted, positions)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].UnrealizedPL.Abs().GreaterThan(sorted[j].UnrealizedPL.Abs())
	})
	if len(sorted) > 3 {
		sorted = sorted[:3]
	}

	parts := make([]string, 0, len(sorted))
	for _, p := range sorted {
		sign := "+"
		if p.UnrealizedPL.IsNegative() {
			sign = ""
		}
		parts = append(parts, fmt.Sprintf("%s: %s$%s", p.Symbol, sign, p.UnrealizedPL.StringFixed(2)))
	}
	return strings.Join(parts, " | ")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// NoOpNotifier is used when alerting is disabled.
type NoOpNotifier struct{}

var _ interfaces.Notifier = (*NoOpNotifier)(nil)

func NewNoOp() *NoOpNotifier { return &NoOpNotifier{} }

func (n *NoOpNotifier) SendSummary(ctx context.Context, result *types.TickResult) error {
	return nil
}

func (n *NoOpNotifier) SendAlert(ctx context.Context, errMsg, tickTime string, lastAction *types.ActionEntry) error {
	return nil
}
