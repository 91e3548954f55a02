package engine

import (
	"github.com/lacymorrow/alpaca-mcp-server/internal/interfaces"
	"github.com/lacymorrow/alpaca-mcp-server/internal/news"
	"github.com/lacymorrow/alpaca-mcp-server/internal/state"
	"github.com/lacymorrow/alpaca-mcp-server/internal/store"
	"github.com/lacymorrow/alpaca-mcp-server/internal/tradelog"
)

func New(cfg *store.Config, states *state.Store, runner interfaces.Runner, broker interfaces.Broker, notifier interfaces.Notifier, log *tradelog.Log, headlines *news.Service) interfaces.Engine {
	return newEngine(cfg, states, runner, broker, notifier, log, headlines)
}
