package prompt

// Fixed prompt fragments. The numbered phases mirror what the model is
// expected to do with its MCP tools; the Go side never performs these steps
// itself.
const (
	analysisOnlyNotice = `
NOTE: This is an ANALYSIS-ONLY tick (market is likely closed).
- Do NOT place any orders
- Review positions and P/L
- Update plan.md with observations
- Prepare for next trading session
`

	preamble = `You are an autonomous trading bot with full control of this Alpaca account.
`

	phasesTemplate = `
**PHASE 1: Market & Account Status**
1. Call get_market_clock to check if market is open
2. Call get_account_info and get_positions to understand current state

**PHASE 2: News Gathering (POLYGON MCP)**
3. For EACH position you hold, call list_ticker_news to check for news
4. Check news for watchlist tickers: %s
5. Check sector ETF news: %s for macro moves
6. Pay attention to news timestamps - prioritize news < 4 hours old

**PHASE 3: Twitter/Social Monitoring (WebSearch Primary, Twitter API Sparingly)**
7. PRIMARY - Use WebSearch (no rate limits):
   - Search "Trump tweet today site:twitter.com" for recent Trump posts
   - Search "Elon Musk tweet today site:twitter.com" for Musk posts
   - Search "TICKER twitter" for sentiment on stocks you're considering
8. SPARINGLY - Use Twitter MCP search_tweets only for breaking news:
   - Free tier = ~100 reads/month, save for urgent situations
   - Only use if WebSearch finds something market-moving that needs verification
9. Tweets from Trump/Musk within last 2 hours = potential Tier 1 catalyst
10. Look for: tariffs, regulations, Fed comments, company mentions, crypto

**PHASE 4: Analysis & Decision**
10. Score each news/tweet per the strategy (-3 to +3 sentiment)
11. Identify Tier 1/2/3 catalysts per the strategy
12. Apply the decision framework: Catalyst, Magnitude, Timeframe, Invalidation, R/R
`

	closedMarketNote = `
If market is closed, perform analysis only - do not place orders. Still gather news and update plan.
`

	responseContract = `
After completing your analysis and any trades, respond with a JSON block in this format:
` + "```json" + `
{
  "decisions": [
    {"action": "buy|sell|close|none", "symbol": "TICKER", "qty": 10, "type": "market|limit", "limit_price": null, "reasoning": "why"}
  ],
  "positions_snapshot": [
    {"symbol": "TICKER", "qty": 10, "market_value": 1000.00, "unrealized_pl": 50.00}
  ],
  "buying_power": 10000.00,
  "market_open": true,
  "notes": "brief summary of this tick",
  "plan_updated": false,
  "strategy_updated": false
}
` + "```" + `
`
)
