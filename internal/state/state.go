// Package state owns the bot's durable files: state.json plus the plan and
// strategy markdown documents the model reads and rewrites between ticks.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/lacymorrow/alpaca-mcp-server/internal/types"
)

// File mirrors state.json on disk.
type File struct {
	LastTickISO       *string             `json:"last_tick_iso"`
	PositionsSnapshot []types.Position    `json:"positions_snapshot"`
	BuyingPower       *decimal.Decimal    `json:"buying_power"`
	ActionsHistory    []types.ActionEntry `json:"actions_history"`
	Notes             string              `json:"notes"`
}

// Store reads and writes the state directory.
type Store struct {
	dir          string
	historyLimit int
}

func NewStore(dir string, historyLimit int) *Store {
	return &Store{dir: dir, historyLimit: historyLimit}
}

func (s *Store) Dir() string     { return s.dir }
func (s *Store) LogsDir() string { return filepath.Join(s.dir, "logs") }

func (s *Store) statePath() string    { return filepath.Join(s.dir, "state.json") }
func (s *Store) planPath() string     { return filepath.Join(s.dir, "plan.md") }
func (s *Store) strategyPath() string { return filepath.Join(s.dir, "strategy.md") }

// EnsureDirs creates the state directory layout if it does not exist.
func (s *Store) EnsureDirs() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.MkdirAll(s.LogsDir(), 0o755); err != nil {
		return fmt.Errorf("create logs dir: %w", err)
	}
	return nil
}

// Load reads state.json, initializing it with defaults on first run.
func (s *Store) Load() (*File, error) {
	b, err := os.ReadFile(s.statePath())
	if errors.Is(err, os.ErrNotExist) {
		st := &File{
			PositionsSnapshot: []types.Position{},
			ActionsHistory:    []types.ActionEntry{},
			Notes:             "Initial state. Human can add notes here.",
		}
		if err := s.Save(st); err != nil {
			return nil, err
		}
		return st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state.json: %w", err)
	}
	var st File
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("decode state.json: %w", err)
	}
	return &st, nil
}

// Save writes state.json atomically: temp file in the same directory, then
// rename over the old copy.
func (s *Store) Save(st *File) error {
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, "state-*.json")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.statePath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace state.json: %w", err)
	}
	return nil
}

// Plan returns plan.md, seeding it from the built-in template when absent.
func (s *Store) Plan() (string, error) {
	return s.readOrSeed(s.planPath(), planTemplate)
}

// Strategy returns strategy.md, seeding it when absent.
func (s *Store) Strategy() (string, error) {
	return s.readOrSeed(s.strategyPath(), strategyTemplate)
}

func (s *Store) readOrSeed(path, template string) (string, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if werr := os.WriteFile(path, []byte(template), 0o644); werr != nil {
			return "", fmt.Errorf("seed %s: %w", filepath.Base(path), werr)
		}
		return template, nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return string(b), nil
}

// RecentActions returns the trailing n history entries.
func (f *File) RecentActions(n int) []types.ActionEntry {
	if n <= 0 || len(f.ActionsHistory) == 0 {
		return nil
	}
	if len(f.ActionsHistory) <= n {
		return f.ActionsHistory
	}
	return f.ActionsHistory[len(f.ActionsHistory)-n:]
}

// Apply folds a tick report into the state: last tick time, broker-truth
// snapshot when present, and a new history entry trimmed to the limit.
func (f *File) Apply(report *types.TickReport, tickTime string, historyLimit int) {
	f.LastTickISO = &tickTime

	if report.PositionsSnapshot != nil {
		f.PositionsSnapshot = report.PositionsSnapshot
	}
	if report.BuyingPower != nil {
		f.BuyingPower = report.BuyingPower
	}

	entry := types.ActionEntry{
		TS:         tickTime,
		Decisions:  report.Decisions,
		MarketOpen: report.MarketOpen,
		Notes:      report.Notes,
	}
	f.ActionsHistory = append(f.ActionsHistory, entry)
	if len(f.ActionsHistory) > historyLimit {
		f.ActionsHistory = f.ActionsHistory[len(f.ActionsHistory)-historyLimit:]
	}
}
