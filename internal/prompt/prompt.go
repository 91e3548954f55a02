// Package prompt assembles the instruction text handed to the LLM each tick.
package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/lacymorrow/alpaca-mcp-server/internal/store"
	"github.com/lacymorrow/alpaca-mcp-server/internal/types"
)

// Input carries everything a tick contributes to the prompt.
type Input struct {
	StateJSON     string // pretty-printed state.json
	Plan          string
	Strategy      string
	RecentActions string // pretty-printed trailing history
	Now           time.Time
	Timezone      string
	AnalysisOnly  bool
	Assets        store.AssetConfig
	Watchlist     []string
	SectorETFs    []string
	Headlines     []types.NewsArticle
}

// Build assembles the full prompt.
func Build(in Input) string {
	var b strings.Builder

	fmt.Fprintf(&b, "CURRENT STATE:\n%s\n\n", in.StateJSON)
	fmt.Fprintf(&b, "TRADING PLAN:\n%s\n\n", in.Plan)
	fmt.Fprintf(&b, "STRATEGY:\n%s\n\n", in.Strategy)
	fmt.Fprintf(&b, "RECENT ACTIONS (last 10):\n%s\n\n", in.RecentActions)
	fmt.Fprintf(&b, "CURRENT TIME: %s (%s)\n", in.Now.Format(time.RFC3339), in.Timezone)

	if in.AnalysisOnly {
		b.WriteString(analysisOnlyNotice)
	}

	if s := headlinesSection(in.Headlines); s != "" {
		b.WriteString("\n")
		b.WriteString(s)
	}

	b.WriteString("\n")
	b.WriteString(AssetSection(in.Assets))
	b.WriteString("\n\nINSTRUCTIONS:\n")
	b.WriteString(preamble)
	b.WriteString(phaseSections(in.Watchlist, in.SectorETFs))
	b.WriteString(executionSection(in.Assets))
	b.WriteString(closedMarketNote)
	b.WriteString(responseContract)

	return b.String()
}

// AssetSection renders the asset-class permission block.
func AssetSection(a store.AssetConfig) string {
	enabled := strings.Join(a.EnabledNames(), ", ")
	if enabled == "" {
		enabled = "None"
	}
	disabled := strings.Join(a.DisabledNames(), ", ")
	if disabled == "" {
		disabled = "None"
	}

	lines := []string{
		"ASSET TYPE CONFIGURATION:",
		"- ENABLED: " + enabled,
		"- DISABLED: " + disabled,
		"",
		"CRITICAL: You may ONLY trade the enabled asset types listed above.",
		"",
	}

	if a.Stocks {
		lines = append(lines, "- STOCKS: You may use place_stock_order and stock data tools.")
	} else {
		lines = append(lines, "- STOCKS: DO NOT use place_stock_order or any stock trading tools.")
	}
	if a.Crypto {
		lines = append(lines, "- CRYPTO: You may use place_crypto_order. Crypto trades 24/7.")
	} else {
		lines = append(lines, "- CRYPTO: DO NOT use place_crypto_order or any crypto trading tools.")
	}
	if a.Options {
		lines = append(lines, "- OPTIONS: You may use place_option_market_order and options tools.")
	} else {
		lines = append(lines, "- OPTIONS: DO NOT use place_option_market_order or any options tools.")
	}

	return strings.Join(lines, "\n")
}

func phaseSections(watchlist, sectorETFs []string) string {
	return fmt.Sprintf(phasesTemplate,
		strings.Join(watchlist, ", "),
		strings.Join(sectorETFs, ", "),
	)
}

// executionSection numbers the execution steps, shifting with the enabled
// asset classes the way the original cron script did.
func executionSection(a store.AssetConfig) string {
	var lines []string
	step := 13
	if a.Stocks {
		lines = append(lines, fmt.Sprintf("%d. STOCKS: Execute trades using place_stock_order when you have conviction", step))
		step++
	}
	if a.Crypto {
		lines = append(lines, fmt.Sprintf("%d. CRYPTO: Execute trades using place_crypto_order - crypto trades 24/7", step))
		step++
	}
	if a.Options {
		lines = append(lines, fmt.Sprintf("%d. OPTIONS: Execute trades using place_option_market_order with proper sizing", step))
		step++
	}
	lines = append(lines, fmt.Sprintf("%d. Use market orders for Tier 1 urgency, limit orders otherwise", step))
	step++
	lines = append(lines, fmt.Sprintf("%d. Update plan.md with your observations and next actions", step))
	step++
	lines = append(lines, fmt.Sprintf("%d. If your approach evolves, update strategy.md (append to Evolution Log)", step))

	return "\n**PHASE 5: Execution**\n" + strings.Join(lines, "\n") + "\n"
}

func headlinesSection(articles []types.NewsArticle) string {
	if len(articles) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("RECENT HEADLINES (scraped, verify before acting):\n")
	for _, a := range articles {
		fmt.Fprintf(&b, "- [%s] %s (%s)\n", a.Symbol, a.Title, a.Source)
	}
	return b.String()
}
