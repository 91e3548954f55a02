package store

import (
	"os"
	"strings"
)

// AssetConfig controls which asset classes the model is allowed to trade.
// It is read from the environment so deployments can flip classes on and
// off without touching config.yaml.
type AssetConfig struct {
	Stocks  bool
	Crypto  bool
	Options bool
}

// AssetConfigFromEnv loads the per-class toggles. Only an explicit
// false/0/no/off disables a class; unset variables keep the defaults
// (stocks on, crypto and options off).
func AssetConfigFromEnv() AssetConfig {
	return AssetConfig{
		Stocks:  envEnabled("ENABLE_STOCK_TRADING", true),
		Crypto:  envEnabled("ENABLE_CRYPTO_TRADING", false),
		Options: envEnabled("ENABLE_OPTIONS_TRADING", false),
	}
}

func envEnabled(name string, def bool) bool {
	v, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	switch strings.ToLower(v) {
	case "false", "0", "no", "off":
		return false
	}
	return true
}

// EnabledNames lists the enabled asset classes in a stable order.
func (a AssetConfig) EnabledNames() []string {
	var names []string
	if a.Stocks {
		names = append(names, "stocks")
	}
	if a.Crypto {
		names = append(names, "crypto")
	}
	if a.Options {
		names = append(names, "options")
	}
	return names
}

// DisabledNames lists the disabled asset classes in a stable order.
func (a AssetConfig) DisabledNames() []string {
	var names []string
	if !a.Stocks {
		names = append(names, "stocks")
	}
	if !a.Crypto {
		names = append(names, "crypto")
	}
	if !a.Options {
		names = append(names, "options")
	}
	return names
}
