package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/lacymorrow/alpaca-mcp-server/internal/broker/alpaca"
	"github.com/lacymorrow/alpaca-mcp-server/internal/broker/brokerobs"
	"github.com/lacymorrow/alpaca-mcp-server/internal/engine"
	"github.com/lacymorrow/alpaca-mcp-server/internal/engine/engineobs"
	"github.com/lacymorrow/alpaca-mcp-server/internal/interfaces"
	"github.com/lacymorrow/alpaca-mcp-server/internal/llm/claudecli"
	"github.com/lacymorrow/alpaca-mcp-server/internal/llm/llmobs"
	"github.com/lacymorrow/alpaca-mcp-server/internal/llm/noop"
	"github.com/lacymorrow/alpaca-mcp-server/internal/logger"
	"github.com/lacymorrow/alpaca-mcp-server/internal/news"
	"github.com/lacymorrow/alpaca-mcp-server/internal/notify"
	"github.com/lacymorrow/alpaca-mcp-server/internal/report"
	"github.com/lacymorrow/alpaca-mcp-server/internal/report/reportobs"
	"github.com/lacymorrow/alpaca-mcp-server/internal/state"
	"github.com/lacymorrow/alpaca-mcp-server/internal/store"
	"github.com/lacymorrow/alpaca-mcp-server/internal/trace"
	"github.com/lacymorrow/alpaca-mcp-server/internal/tradelog"
	"github.com/lacymorrow/alpaca-mcp-server/internal/types"
)

// initializeSystem loads .env and initializes logger and tracer.
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	return nil
}

// initializeBroker builds the Alpaca client with observability.
func initializeBroker(ctx context.Context, cfg *store.Config) interfaces.Broker {
	brk := alpaca.New(brokerParams(cfg))

	if cfg.Mode == "DRY_RUN" {
		logger.Warn(ctx, "Running in DRY_RUN mode - orders will be simulated")
	}

	return brokerobs.Wrap(brk)
}

func brokerParams(cfg *store.Config) alpaca.Params {
	return alpaca.Params{
		Mode:              cfg.Mode,
		BaseURL:           cfg.Broker.BaseURL,
		KeyID:             os.Getenv("APCA_API_KEY_ID"),
		SecretKey:         os.Getenv("APCA_API_SECRET_KEY"),
		Timeout:           time.Duration(cfg.Broker.TimeoutSeconds) * time.Second,
		RetryMaxElapsed:   time.Duration(cfg.Broker.RetryMaxSeconds) * time.Second,
		RequestsPerSecond: cfg.Broker.RequestsPerSecond,
	}
}

// initializeRunner builds the LLM runner with observability. Setting
// llm.binary to "none" selects the noop runner so the loop keeps ticking
// without invoking a CLI.
func initializeRunner(ctx context.Context, cfg *store.Config) interfaces.Runner {
	var runner interfaces.Runner
	if cfg.LLM.Binary == "none" {
		runner = noop.NewNoopRunner()
		logger.Warn(ctx, "LLM binary set to none - using Noop runner (no decisions)")
	} else {
		runner = claudecli.New(cfg)
	}

	return llmobs.Wrap(runner)
}

// initializeNotifier picks Slack when a webhook is configured, NoOp otherwise.
func initializeNotifier(ctx context.Context) interfaces.Notifier {
	webhook := os.Getenv("SLACK_WEBHOOK_URL")
	if webhook == "" {
		logger.Info(ctx, "SLACK_WEBHOOK_URL not set - notifications disabled")
		return notify.NewNoOp()
	}
	return notify.NewSlack(webhook)
}

func initializeEngine(cfg *store.Config, states *state.Store, runner interfaces.Runner, brk interfaces.Broker, notifier interfaces.Notifier, log *tradelog.Log) interfaces.Engine {
	var headlines *news.Service
	if cfg.News.Enabled {
		headlines = news.NewService(news.ConfigFromStore(cfg))
	}

	eng := engine.New(cfg, states, runner, brk, notifier, log, headlines)
	return engineobs.Wrap(eng)
}

func initializeSummarizer(cfg *store.Config) interfaces.Summarizer {
	return reportobs.Wrap(report.NewSummarizer(cfg))
}

// compressOldLogs gzips log files past the retention window.
func compressOldLogs(ctx context.Context, cfg *store.Config, log *tradelog.Log) {
	if cfg.Log.RetentionDays <= 0 {
		return
	}
	if err := log.CompressOlder(cfg.Log.RetentionDays); err != nil {
		logger.Warn(ctx, "Failed to compress old logs", "error", err)
	}
}

// runStream listens for trade updates and appends fills to the action log.
// Reconnects internally; returns when ctx is cancelled.
func runStream(ctx context.Context, cfg *store.Config, log *tradelog.Log) {
	stream := alpaca.NewStream(brokerParams(cfg), cfg.Broker.StreamURL, func(u types.TradeUpdate) {
		if err := log.AppendFill(u); err != nil {
			logger.ErrorWithErr(ctx, "Failed to append fill", err, "symbol", u.Symbol)
		}
	})
	if err := stream.Run(ctx); err != nil && ctx.Err() == nil {
		logger.ErrorWithErr(ctx, "Trade update stream stopped", err)
	}
}

func logsDir(cfg *store.Config) string {
	return filepath.Join(cfg.StateDir, "logs")
}
