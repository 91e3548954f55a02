package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lacymorrow/alpaca-mcp-server/internal/store"
)

func TestInitializeRunnerNoneSelectsNoop(t *testing.T) {
	var cfg store.Config
	cfg.LLM.Binary = "none"

	runner := initializeRunner(context.Background(), &cfg)

	out, err := runner.Run(context.Background(), "ignored prompt")
	require.NoError(t, err)
	assert.Contains(t, out, "noop_runner_fallback")
}
