// Package tradelog appends the bot's NDJSON audit trail: one line per tick
// in actions.ndjson, one line per failure in errors.ndjson, plus fill events
// from the trade stream.
package tradelog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lacymorrow/alpaca-mcp-server/internal/types"
)

var mu sync.Mutex

// Log writes under a fixed directory (the state logs dir).
type Log struct {
	dir string
}

func New(dir string) *Log {
	return &Log{dir: dir}
}

func (l *Log) actionsPath() string { return filepath.Join(l.dir, "actions.ndjson") }
func (l *Log) errorsPath() string  { return filepath.Join(l.dir, "errors.ndjson") }

type actionLine struct {
	TS     string `json:"ts"`
	TickID string `json:"tick_id,omitempty"`
	*types.TickReport
}

type fillLine struct {
	TS      string `json:"ts"`
	Kind    string `json:"kind"` // always "trade_update"
	Event   string `json:"event"`
	Symbol  string `json:"symbol"`
	Side    string `json:"side"`
	Qty     string `json:"qty"`
	Price   string `json:"price"`
	OrderID string `json:"order_id"`
}

type errorLine struct {
	TS    string `json:"ts"`
	Error string `json:"error"`
	Type  string `json:"type"`
}

// AppendAction records a completed tick's report.
func (l *Log) AppendAction(ts, tickID string, report *types.TickReport) error {
	return l.appendJSON(l.actionsPath(), actionLine{TS: ts, TickID: tickID, TickReport: report})
}

// AppendFill records a trade update delivered by the broker stream.
func (l *Log) AppendFill(u types.TradeUpdate) error {
	at := u.At
	if at.IsZero() {
		at = time.Now()
	}
	return l.appendJSON(l.actionsPath(), fillLine{
		TS:      at.Format(time.RFC3339),
		Kind:    "trade_update",
		Event:   u.Event,
		Symbol:  u.Symbol,
		Side:    u.Side,
		Qty:     u.Qty.String(),
		Price:   u.Price.String(),
		OrderID: u.OrderID,
	})
}

// AppendError records a tick failure.
func (l *Log) AppendError(ts string, err error) error {
	return l.appendJSON(l.errorsPath(), errorLine{
		TS:    ts,
		Error: err.Error(),
		Type:  fmt.Sprintf("%T", err),
	})
}

func (l *Log) appendJSON(path string, v any) error {
	mu.Lock()
	defer mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// CompressOlder gzips log files that have not been touched for
// retentionDays. Actively appended files keep a fresh mtime and are left
// alone.
func (l *Log) CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	return filepath.WalkDir(l.dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		switch filepath.Ext(p) {
		case ".ndjson", ".csv":
		default:
			return nil
		}
		info, err := os.Stat(p)
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}

		gz := p + ".gz"
		if _, err := os.Stat(gz); err == nil {
			// Compressed copy already there; drop the original.
			return os.Remove(p)
		}

		in, err := os.Open(p)
		if err != nil {
			return nil
		}
		defer in.Close()

		out, err := os.OpenFile(gz, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return nil
		}
		gw := gzip.NewWriter(out)
		if _, err := io.Copy(gw, in); err != nil {
			gw.Close()
			out.Close()
			return nil
		}
		gw.Close()
		out.Close()
		return os.Remove(p)
	})
}
