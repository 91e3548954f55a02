package interfaces

import "time"

// Summarizer generates daily CSV summaries from the action log.
type Summarizer interface {
	// SummarizeDay aggregates the given day's fills and decisions into a
	// CSV report. Returns the CSV path, or "" when the day had no activity.
	SummarizeDay(t time.Time) (csvPath string, err error)

	// SummarizeToday summarizes the current day in the bot's timezone.
	SummarizeToday() (csvPath string, err error)

	// ShouldRunNow reports whether the daily summary is due (market close
	// has passed and today's report does not exist yet).
	ShouldRunNow() (shouldRun bool, csvPath string)
}
