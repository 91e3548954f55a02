// Package llm turns raw model output into structured tick reports.
package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/lacymorrow/alpaca-mcp-server/internal/types"
)

// fencedJSON matches the first fenced code block, json-tagged or not.
var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// ParseReport extracts the structured TickReport from the model's free-text
// output. It tries a fenced JSON block first, then the widest raw brace
// span. Failures never return an error: the report comes back with
// ParseError set and a truncated copy of the raw output so the tick can
// still be logged and recorded.
func ParseReport(output string, maxRaw int) *types.TickReport {
	var jsonStr string

	if m := fencedJSON.FindStringSubmatch(output); m != nil {
		jsonStr = strings.TrimSpace(m[1])
	} else if start, end := strings.Index(output, "{"), strings.LastIndex(output, "}"); start >= 0 && end > start {
		jsonStr = output[start : end+1]
	} else {
		return &types.TickReport{
			Decisions:  []types.Decision{},
			Notes:      "Could not parse JSON from response",
			RawOutput:  truncate(output, maxRaw),
			ParseError: true,
		}
	}

	var report types.TickReport
	if err := json.Unmarshal([]byte(jsonStr), &report); err != nil {
		return &types.TickReport{
			Decisions:  []types.Decision{},
			Notes:      fmt.Sprintf("JSON parse error: %v", err),
			RawOutput:  truncate(output, maxRaw),
			ParseError: true,
		}
	}

	if report.Decisions == nil {
		report.Decisions = []types.Decision{}
	}
	for i := range report.Decisions {
		normalizeDecision(&report.Decisions[i])
	}
	return &report
}

// normalizeDecision canonicalizes model-reported decisions. Unknown actions
// collapse to "none" so they can never reach the broker.
func normalizeDecision(d *types.Decision) {
	d.Action = strings.ToLower(strings.TrimSpace(d.Action))
	switch d.Action {
	case "buy", "sell", "close", "none":
	default:
		d.Action = "none"
	}
	d.Symbol = strings.ToUpper(strings.TrimSpace(d.Symbol))
	d.OrderType = strings.ToLower(strings.TrimSpace(d.OrderType))
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
