// Package engine runs the tick cycle: load state, assemble the prompt,
// invoke the model, parse its report, reconcile with the broker, apply
// decisions, and persist the results.
package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/lacymorrow/alpaca-mcp-server/internal/interfaces"
	"github.com/lacymorrow/alpaca-mcp-server/internal/llm"
	"github.com/lacymorrow/alpaca-mcp-server/internal/logger"
	"github.com/lacymorrow/alpaca-mcp-server/internal/news"
	"github.com/lacymorrow/alpaca-mcp-server/internal/prompt"
	"github.com/lacymorrow/alpaca-mcp-server/internal/state"
	"github.com/lacymorrow/alpaca-mcp-server/internal/store"
	"github.com/lacymorrow/alpaca-mcp-server/internal/tradelog"
	"github.com/lacymorrow/alpaca-mcp-server/internal/types"
)

type Engine struct {
	cfg      *store.Config
	states   *state.Store
	runner   interfaces.Runner
	broker   interfaces.Broker
	notifier interfaces.Notifier
	log      *tradelog.Log
	news     *news.Service
	exec     *orderExecutor
}

func newEngine(cfg *store.Config, states *state.Store, runner interfaces.Runner, broker interfaces.Broker, notifier interfaces.Notifier, log *tradelog.Log, headlines *news.Service) *Engine {
	return &Engine{
		cfg:      cfg,
		states:   states,
		runner:   runner,
		broker:   broker,
		notifier: notifier,
		log:      log,
		news:     headlines,
		exec:     newOrderExecutor(broker),
	}
}

// Tick executes one full cycle. On failure it records an error entry and
// sends an alert before returning; the caller decides whether to exit or
// keep looping.
func (e *Engine) Tick(ctx context.Context, opts interfaces.TickOptions) (*types.TickResult, error) {
	tickTime := time.Now().In(e.cfg.Location())
	tickTS := tickTime.Format(time.RFC3339)
	tickID := uuid.NewString()

	result, err := e.tick(ctx, tickID, tickTime, opts)
	if err != nil {
		e.recordFailure(ctx, tickTS, err)
		return nil, err
	}
	return result, nil
}

func (e *Engine) tick(ctx context.Context, tickID string, tickTime time.Time, opts interfaces.TickOptions) (*types.TickResult, error) {
	tickTS := tickTime.Format(time.RFC3339)
	assets := store.AssetConfigFromEnv()
	logger.Info(ctx, "Asset types enabled", "enabled", assets.EnabledNames(), "disabled", assets.DisabledNames())

	if err := e.states.EnsureDirs(); err != nil {
		return nil, err
	}
	st, err := e.states.Load()
	if err != nil {
		return nil, err
	}
	plan, err := e.states.Plan()
	if err != nil {
		return nil, err
	}
	strategy, err := e.states.Strategy()
	if err != nil {
		return nil, err
	}

	var headlines []types.NewsArticle
	if e.news != nil && e.news.Enabled() {
		headlines = e.news.Headlines(ctx, e.cfg.Watchlist)
	}

	p := prompt.Build(prompt.Input{
		StateJSON:     mustIndent(st),
		Plan:          plan,
		Strategy:      strategy,
		RecentActions: mustIndent(st.RecentActions(e.cfg.RecentActions)),
		Now:           tickTime,
		Timezone:      e.cfg.Timezone,
		AnalysisOnly:  opts.AnalysisOnly,
		Assets:        assets,
		Watchlist:     e.cfg.Watchlist,
		SectorETFs:    e.cfg.SectorETFs,
		Headlines:     headlines,
	})

	output, err := e.runner.Run(ctx, p)
	if err != nil {
		return nil, err
	}

	report := llm.ParseReport(output, e.cfg.LLM.MaxOutputBytes)
	if report.ParseError {
		logger.Warn(ctx, "Could not parse model response as JSON", "tick_id", tickID)
	}

	marketOpen := e.reconcile(ctx, report)

	var orders []types.OrderResp
	switch {
	case opts.AnalysisOnly:
		logger.Info(ctx, "Analysis-only tick, skipping order placement", "decisions", len(report.Decisions))
	case !marketOpen:
		logger.Info(ctx, "Market closed, skipping order placement", "decisions", len(report.Decisions))
	default:
		orders = e.exec.Apply(ctx, report.Decisions)
	}

	if err := e.log.AppendAction(tickTS, tickID, report); err != nil {
		logger.ErrorWithErr(ctx, "Failed to append action log", err, "tick_id", tickID)
	}

	st.Apply(report, tickTS, e.cfg.HistoryLimit)
	if err := e.states.Save(st); err != nil {
		return nil, err
	}

	result := &types.TickResult{
		TickID:       tickID,
		TickTime:     tickTime,
		AnalysisOnly: opts.AnalysisOnly,
		Report:       report,
		Orders:       orders,
	}

	if err := e.notifier.SendSummary(ctx, result); err != nil {
		logger.ErrorWithErr(ctx, "Failed to send summary notification", err, "tick_id", tickID)
	}

	logger.Tick(ctx, tickID, len(report.Decisions), report.Notes,
		"orders", len(orders),
		"parse_error", report.ParseError,
	)
	return result, nil
}

// reconcile overwrites model-reported account numbers with broker truth.
// Broker outages degrade to whatever the report already carries.
func (e *Engine) reconcile(ctx context.Context, report *types.TickReport) bool {
	if acct, err := e.broker.GetAccount(ctx); err != nil {
		logger.Warn(ctx, "Account reconcile failed, keeping model-reported numbers", "error", err.Error())
	} else {
		bp := acct.BuyingPower
		report.BuyingPower = &bp
	}

	if positions, err := e.broker.GetPositions(ctx); err != nil {
		logger.Warn(ctx, "Positions reconcile failed, keeping model-reported snapshot", "error", err.Error())
	} else {
		report.PositionsSnapshot = positions
	}

	if clock, err := e.broker.GetClock(ctx); err != nil {
		logger.Warn(ctx, "Clock fetch failed", "error", err.Error())
	} else {
		open := clock.IsOpen
		report.MarketOpen = &open
	}

	return report.MarketOpen != nil && *report.MarketOpen
}

// recordFailure logs the failed tick and alerts with the last successful
// action, both best-effort.
func (e *Engine) recordFailure(ctx context.Context, tickTS string, tickErr error) {
	logger.ErrorWithErr(ctx, "Tick failed", tickErr, "tick_time", tickTS)

	if err := e.log.AppendError(tickTS, tickErr); err != nil {
		logger.ErrorWithErr(ctx, "Failed to append error log", err)
	}

	var lastAction *types.ActionEntry
	if st, err := e.states.Load(); err == nil {
		if recent := st.RecentActions(1); len(recent) > 0 {
			lastAction = &recent[0]
		}
	}
	if err := e.notifier.SendAlert(ctx, tickErr.Error(), tickTS, lastAction); err != nil {
		logger.ErrorWithErr(ctx, "Failed to send alert notification", err)
	}
}

func mustIndent(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
