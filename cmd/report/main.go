// Standalone daily report generator. Summarizes a day's action log into a
// per-symbol CSV without running a tick.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/lacymorrow/alpaca-mcp-server/internal/logger"
	"github.com/lacymorrow/alpaca-mcp-server/internal/report"
	"github.com/lacymorrow/alpaca-mcp-server/internal/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	day := flag.String("day", "", "day to summarize as YYYY-MM-DD (default today)")
	flag.Parse()

	_ = godotenv.Load()
	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := store.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	summarizer := report.NewSummarizer(cfg)

	var csvPath string
	if *day != "" {
		t, err := time.ParseInLocation("2006-01-02", *day, cfg.Location())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid -day value %q: %v\n", *day, err)
			os.Exit(1)
		}
		csvPath, err = summarizer.SummarizeDay(t)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Summary failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		csvPath, err = summarizer.SummarizeToday()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Summary failed: %v\n", err)
			os.Exit(1)
		}
	}

	if csvPath == "" {
		fmt.Println("No activity to summarize.")
		return
	}
	fmt.Println("Report written:", csvPath)
}
