package reportobs

import (
	"context"
	"time"

	"github.com/lacymorrow/alpaca-mcp-server/internal/interfaces"
	"github.com/lacymorrow/alpaca-mcp-server/internal/logger"
	"github.com/lacymorrow/alpaca-mcp-server/internal/trace"
)

type observableSummarizer struct {
	summarizer interfaces.Summarizer
}

var _ interfaces.Summarizer = (*observableSummarizer)(nil)

func Wrap(summarizer interfaces.Summarizer) interfaces.Summarizer {
	return &observableSummarizer{
		summarizer: summarizer,
	}
}

func (s *observableSummarizer) SummarizeDay(t time.Time) (string, error) {
	ctx := context.Background()
	ctx, span := trace.StartSpan(ctx, "report.SummarizeDay")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Starting daily summary generation",
		"date", t.Format("2006-01-02"),
	)

	csvPath, err := s.summarizer.SummarizeDay(t)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Daily summary generation failed", err,
			"date", t.Format("2006-01-02"),
		)
		return "", err
	}

	if csvPath == "" {
		logger.InfoSkip(ctx, 1, "No activity found for daily summary",
			"date", t.Format("2006-01-02"),
		)
		return "", nil
	}

	logger.InfoSkip(ctx, 1, "Daily summary generated",
		"date", t.Format("2006-01-02"),
		"csv_path", csvPath,
	)

	return csvPath, nil
}

func (s *observableSummarizer) SummarizeToday() (string, error) {
	ctx := context.Background()
	ctx, span := trace.StartSpan(ctx, "report.SummarizeToday")
	defer span.End()

	csvPath, err := s.summarizer.SummarizeToday()
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Today's summary generation failed", err)
		return "", err
	}

	if csvPath == "" {
		logger.InfoSkip(ctx, 1, "No activity found for today's summary")
		return "", nil
	}

	logger.InfoSkip(ctx, 1, "Today's summary generated",
		"csv_path", csvPath,
	)

	return csvPath, nil
}

func (s *observableSummarizer) ShouldRunNow() (bool, string) {
	ctx := context.Background()
	ctx, span := trace.StartSpan(ctx, "report.ShouldRunNow")
	defer span.End()

	shouldRun, csvPath := s.summarizer.ShouldRunNow()

	logger.DebugSkip(ctx, 1, "Daily summary check completed",
		"should_run", shouldRun,
		"csv_path", csvPath,
	)

	return shouldRun, csvPath
}
