package engine

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lacymorrow/alpaca-mcp-server/internal/interfaces"
	"github.com/lacymorrow/alpaca-mcp-server/internal/state"
	"github.com/lacymorrow/alpaca-mcp-server/internal/store"
	"github.com/lacymorrow/alpaca-mcp-server/internal/tradelog"
	"github.com/lacymorrow/alpaca-mcp-server/internal/types"
)

type fakeRunner struct {
	output string
	err    error
	prompt string
}

func (f *fakeRunner) Run(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.output, f.err
}

type fakeBroker struct {
	acct      types.AccountSnapshot
	positions []types.Position
	clockOpen bool
	clockErr  error
	placeErr  error

	placed []types.OrderReq
	closed []string
}

func (f *fakeBroker) GetAccount(context.Context) (types.AccountSnapshot, error) {
	return f.acct, nil
}

func (f *fakeBroker) GetPositions(context.Context) ([]types.Position, error) {
	return f.positions, nil
}

func (f *fakeBroker) GetClock(context.Context) (types.MarketClock, error) {
	if f.clockErr != nil {
		return types.MarketClock{}, f.clockErr
	}
	return types.MarketClock{IsOpen: f.clockOpen}, nil
}

func (f *fakeBroker) PlaceOrder(_ context.Context, req types.OrderReq) (types.OrderResp, error) {
	if f.placeErr != nil {
		return types.OrderResp{}, f.placeErr
	}
	f.placed = append(f.placed, req)
	return types.OrderResp{OrderID: "ord-1", Status: "accepted", Symbol: req.Symbol, Side: req.Side}, nil
}

func (f *fakeBroker) ClosePosition(_ context.Context, symbol string) (types.OrderResp, error) {
	f.closed = append(f.closed, symbol)
	return types.OrderResp{OrderID: "ord-close", Status: "accepted", Symbol: symbol, Side: "sell"}, nil
}

type fakeNotifier struct {
	summaries []*types.TickResult
	alerts    []string
}

func (f *fakeNotifier) SendSummary(_ context.Context, result *types.TickResult) error {
	f.summaries = append(f.summaries, result)
	return nil
}

func (f *fakeNotifier) SendAlert(_ context.Context, errMsg, _ string, _ *types.ActionEntry) error {
	f.alerts = append(f.alerts, errMsg)
	return nil
}

func newTestEngine(t *testing.T, runner *fakeRunner, broker *fakeBroker, notifier *fakeNotifier) (*Engine, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := &store.Config{
		Mode:          "DRY_RUN",
		StateDir:      dir,
		Timezone:      "UTC",
		Watchlist:     []string{"AAPL", "MSFT"},
		SectorETFs:    []string{"SPY"},
		HistoryLimit:  50,
		RecentActions: 10,
	}
	cfg.LLM.MaxOutputBytes = 2000

	states := state.NewStore(dir, cfg.HistoryLimit)
	log := tradelog.New(states.LogsDir())
	return newEngine(cfg, states, runner, broker, notifier, log, nil), dir
}

const buyOutput = "```json\n" +
	`{"decisions":[{"action":"buy","symbol":"AAPL","qty":5,"reasoning":"momentum"}],"notes":"entered AAPL","market_open":true}` +
	"\n```"

func TestTickPlacesOrders(t *testing.T) {
	runner := &fakeRunner{output: buyOutput}
	broker := &fakeBroker{
		acct:      types.AccountSnapshot{BuyingPower: decimal.NewFromInt(95000)},
		clockOpen: true,
	}
	notifier := &fakeNotifier{}
	eng, dir := newTestEngine(t, runner, broker, notifier)

	result, err := eng.Tick(context.Background(), interfaces.TickOptions{})
	require.NoError(t, err)

	require.Len(t, broker.placed, 1)
	assert.Equal(t, "AAPL", broker.placed[0].Symbol)
	assert.Equal(t, "buy", broker.placed[0].Side)
	assert.True(t, broker.placed[0].Qty.Equal(decimal.NewFromInt(5)))

	require.Len(t, result.Orders, 1)
	assert.Equal(t, "ord-1", result.Orders[0].OrderID)

	// Prompt carried the state documents.
	assert.Contains(t, runner.prompt, "CURRENT STATE:")
	assert.Contains(t, runner.prompt, "TRADING PLAN:")

	// State updated with broker-truth buying power.
	var st state.File
	raw, err := os.ReadFile(filepath.Join(dir, "state.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &st))
	require.NotNil(t, st.LastTickISO)
	require.NotNil(t, st.BuyingPower)
	assert.True(t, st.BuyingPower.Equal(decimal.NewFromInt(95000)))
	require.Len(t, st.ActionsHistory, 1)
	assert.Equal(t, "entered AAPL", st.ActionsHistory[0].Notes)

	// Action log has one line.
	actions, err := os.ReadFile(filepath.Join(dir, "logs", "actions.ndjson"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(actions), "\n"))

	require.Len(t, notifier.summaries, 1)
	assert.Empty(t, notifier.alerts)
}

func TestTickAnalysisOnlySkipsOrders(t *testing.T) {
	runner := &fakeRunner{output: buyOutput}
	broker := &fakeBroker{clockOpen: true}
	notifier := &fakeNotifier{}
	eng, _ := newTestEngine(t, runner, broker, notifier)

	result, err := eng.Tick(context.Background(), interfaces.TickOptions{AnalysisOnly: true})
	require.NoError(t, err)

	assert.Empty(t, broker.placed)
	assert.Empty(t, result.Orders)
	assert.True(t, result.AnalysisOnly)
	assert.Contains(t, runner.prompt, "ANALYSIS-ONLY tick")
}

func TestTickMarketClosedSkipsOrders(t *testing.T) {
	runner := &fakeRunner{output: buyOutput}
	broker := &fakeBroker{clockOpen: false}
	notifier := &fakeNotifier{}
	eng, _ := newTestEngine(t, runner, broker, notifier)

	result, err := eng.Tick(context.Background(), interfaces.TickOptions{})
	require.NoError(t, err)

	assert.Empty(t, broker.placed)
	require.NotNil(t, result.Report.MarketOpen)
	assert.False(t, *result.Report.MarketOpen)
}

func TestTickCloseDecision(t *testing.T) {
	runner := &fakeRunner{output: "```json\n" +
		`{"decisions":[{"action":"close","symbol":"TSLA","reasoning":"stop"}],"market_open":true}` +
		"\n```"}
	broker := &fakeBroker{clockOpen: true}
	notifier := &fakeNotifier{}
	eng, _ := newTestEngine(t, runner, broker, notifier)

	result, err := eng.Tick(context.Background(), interfaces.TickOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"TSLA"}, broker.closed)
	require.Len(t, result.Orders, 1)
	assert.Equal(t, "ord-close", result.Orders[0].OrderID)
}

func TestTickUnparsableOutputStillRecorded(t *testing.T) {
	runner := &fakeRunner{output: "I could not decide anything today."}
	broker := &fakeBroker{clockOpen: true}
	notifier := &fakeNotifier{}
	eng, dir := newTestEngine(t, runner, broker, notifier)

	result, err := eng.Tick(context.Background(), interfaces.TickOptions{})
	require.NoError(t, err)

	assert.True(t, result.Report.ParseError)
	assert.Empty(t, broker.placed)

	// The failed parse still lands in the action log and state history.
	actions, err := os.ReadFile(filepath.Join(dir, "logs", "actions.ndjson"))
	require.NoError(t, err)
	assert.Contains(t, string(actions), `"parse_error":true`)

	var st state.File
	raw, err := os.ReadFile(filepath.Join(dir, "state.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &st))
	assert.Len(t, st.ActionsHistory, 1)
}

func TestTickRunnerFailureAlerts(t *testing.T) {
	runner := &fakeRunner{err: errors.New("claude binary exploded")}
	broker := &fakeBroker{clockOpen: true}
	notifier := &fakeNotifier{}
	eng, dir := newTestEngine(t, runner, broker, notifier)

	_, err := eng.Tick(context.Background(), interfaces.TickOptions{})
	require.Error(t, err)

	require.Len(t, notifier.alerts, 1)
	assert.Contains(t, notifier.alerts[0], "claude binary exploded")

	errLog, err := os.ReadFile(filepath.Join(dir, "logs", "errors.ndjson"))
	require.NoError(t, err)
	assert.Contains(t, string(errLog), "claude binary exploded")

	assert.Empty(t, notifier.summaries)
}

func TestTickSkipsUnexecutableDecisions(t *testing.T) {
	runner := &fakeRunner{output: "```json\n" +
		`{"decisions":[{"action":"buy","symbol":"AAPL"},{"action":"buy","qty":3},{"action":"none"}],"market_open":true}` +
		"\n```"}
	broker := &fakeBroker{clockOpen: true}
	notifier := &fakeNotifier{}
	eng, _ := newTestEngine(t, runner, broker, notifier)

	result, err := eng.Tick(context.Background(), interfaces.TickOptions{})
	require.NoError(t, err)

	assert.Empty(t, broker.placed)
	assert.Empty(t, result.Orders)
}

func TestTickClockFailureDefaultsClosed(t *testing.T) {
	runner := &fakeRunner{output: "```json\n" +
		`{"decisions":[{"action":"buy","symbol":"AAPL","qty":1}]}` +
		"\n```"}
	broker := &fakeBroker{clockErr: errors.New("api down")}
	notifier := &fakeNotifier{}
	eng, _ := newTestEngine(t, runner, broker, notifier)

	result, err := eng.Tick(context.Background(), interfaces.TickOptions{})
	require.NoError(t, err)

	// Unknown market state means no orders go out.
	assert.Empty(t, broker.placed)
	assert.Nil(t, result.Report.MarketOpen)
}
