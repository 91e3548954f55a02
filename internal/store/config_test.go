package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadConfigDefaults(t *testing.T) {
	p := writeConfig(t, "mode: DRY_RUN\n")

	cfg, err := LoadConfig(p)
	require.NoError(t, err)

	assert.Equal(t, "/data/alpaca-bot", cfg.StateDir)
	assert.Equal(t, "America/New_York", cfg.Timezone)
	assert.Equal(t, 15, cfg.PollMinutes)
	assert.Equal(t, 50, cfg.HistoryLimit)
	assert.Equal(t, 10, cfg.RecentActions)
	assert.Equal(t, "claude", cfg.LLM.Binary)
	assert.Equal(t, 300, cfg.LLM.TimeoutSeconds)
	assert.Equal(t, "https://paper-api.alpaca.markets", cfg.Broker.BaseURL)
	assert.Contains(t, cfg.Watchlist, "AAPL")
	assert.Contains(t, cfg.SectorETFs, "SPY")
}

func TestLoadConfigNoneBinarySurvivesDefaults(t *testing.T) {
	p := writeConfig(t, "mode: DRY_RUN\nllm:\n  binary: none\n")

	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	assert.Equal(t, "none", cfg.LLM.Binary)
}

func TestLoadConfigInvalidMode(t *testing.T) {
	p := writeConfig(t, "mode: YOLO\n")

	_, err := LoadConfig(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid mode")
}

func TestLoadConfigStateDirEnvOverride(t *testing.T) {
	t.Setenv("STATE_DIR", "/tmp/override")
	p := writeConfig(t, "mode: LIVE\nstate_dir: /data/somewhere\n")

	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override", cfg.StateDir)
}

func TestLoadConfigRejectsBadCadence(t *testing.T) {
	p := writeConfig(t, "mode: DRY_RUN\npoll_minutes: -5\n")

	_, err := LoadConfig(p)
	require.Error(t, err)
}

func TestConfigLocationFallsBackToUTC(t *testing.T) {
	c := &Config{Timezone: "Not/AZone"}
	assert.Equal(t, "UTC", c.Location().String())
}

func TestAssetConfigFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		os.Unsetenv("ENABLE_STOCK_TRADING")
		os.Unsetenv("ENABLE_CRYPTO_TRADING")
		os.Unsetenv("ENABLE_OPTIONS_TRADING")

		a := AssetConfigFromEnv()
		assert.True(t, a.Stocks)
		assert.False(t, a.Crypto)
		assert.False(t, a.Options)
	})

	t.Run("only explicit false disables", func(t *testing.T) {
		t.Setenv("ENABLE_STOCK_TRADING", "off")
		t.Setenv("ENABLE_CRYPTO_TRADING", "anything")
		t.Setenv("ENABLE_OPTIONS_TRADING", "1")

		a := AssetConfigFromEnv()
		assert.False(t, a.Stocks)
		assert.True(t, a.Crypto)
		assert.True(t, a.Options)

		assert.Equal(t, []string{"crypto", "options"}, a.EnabledNames())
		assert.Equal(t, []string{"stocks"}, a.DisabledNames())
	})
}
