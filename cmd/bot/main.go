package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lacymorrow/alpaca-mcp-server/internal/interfaces"
	"github.com/lacymorrow/alpaca-mcp-server/internal/logger"
	"github.com/lacymorrow/alpaca-mcp-server/internal/state"
	"github.com/lacymorrow/alpaca-mcp-server/internal/store"
	"github.com/lacymorrow/alpaca-mcp-server/internal/trace"
	"github.com/lacymorrow/alpaca-mcp-server/internal/tradelog"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	loop := flag.Bool("loop", false, "keep ticking on a timer instead of running once")
	analysisOnly := flag.Bool("analysis-only", false, "run without placing orders")
	flag.Parse()

	if err := initializeSystem(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer func() { _ = trace.Shutdown(context.Background()) }()

	cfg, err := store.LoadConfig(*configPath)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		os.Exit(1)
	}

	states := state.NewStore(cfg.StateDir, cfg.HistoryLimit)
	log := tradelog.New(logsDir(cfg))
	compressOldLogs(ctx, cfg, log)

	brk := initializeBroker(ctx, cfg)
	runner := initializeRunner(ctx, cfg)
	notifier := initializeNotifier(ctx)
	eng := initializeEngine(cfg, states, runner, brk, notifier, log)

	opts := interfaces.TickOptions{AnalysisOnly: *analysisOnly}

	if !*loop {
		// One tick per invocation: the cron deployment. A failed tick
		// exits non-zero and the scheduler retries next cycle.
		if _, err := eng.Tick(ctx, opts); err != nil {
			os.Exit(1)
		}
		return
	}

	runLoop(ctx, cancel, cfg, eng, log, opts)
}

func runLoop(ctx context.Context, cancel context.CancelFunc, cfg *store.Config, eng interfaces.Engine, log *tradelog.Log, opts interfaces.TickOptions) {
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	go runStream(ctx, cfg, log)

	summarizer := initializeSummarizer(cfg)

	tick := time.NewTicker(time.Duration(cfg.PollMinutes) * time.Minute)
	defer tick.Stop()
	reportTick := time.NewTicker(60 * time.Second)
	defer reportTick.Stop()

	logger.Info(ctx, "Bot started", "poll_minutes", cfg.PollMinutes, "mode", cfg.Mode)

	// First tick immediately rather than waiting a full interval.
	if _, err := eng.Tick(ctx, opts); err != nil {
		logger.ErrorWithErr(ctx, "Tick error", err)
	}

	for {
		select {
		case <-tick.C:
			if _, err := eng.Tick(ctx, opts); err != nil {
				logger.ErrorWithErr(ctx, "Tick error", err)
			}
		case <-reportTick.C:
			if ok, _ := summarizer.ShouldRunNow(); ok {
				if p, err := summarizer.SummarizeToday(); err == nil && p != "" {
					logger.Info(ctx, "Daily report written", "path", p)
				}
			}
		case <-sigc:
			logger.Info(ctx, "Shutting down...")
			if p, err := summarizer.SummarizeToday(); err == nil && p != "" {
				logger.Info(ctx, "Daily report written", "path", p)
			}
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}
