package news

import (
	"context"
	"sync"
	"time"

	"github.com/lacymorrow/alpaca-mcp-server/internal/logger"
	"github.com/lacymorrow/alpaca-mcp-server/internal/store"
	"github.com/lacymorrow/alpaca-mcp-server/internal/types"
)

// Service provides watchlist headlines for prompt context, with caching.
// Headline fetching is best-effort: scraping failures degrade to an empty
// slice rather than failing the caller.
type Service struct {
	scraper *Scraper
	cache   *headlineCache
	cfg     *ServiceConfig
}

// ServiceConfig configures the headline service.
type ServiceConfig struct {
	MaxArticles    int           // Maximum headlines per symbol
	CacheDuration  time.Duration // How long to cache headlines
	ScraperTimeout time.Duration // Timeout for scraping operations
	Enabled        bool          // Whether headline scraping is enabled
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		MaxArticles:    5,
		CacheDuration:  30 * time.Minute,
		ScraperTimeout: 30 * time.Second,
		Enabled:        false,
	}
}

// ConfigFromStore builds a service config from the bot config's news block.
func ConfigFromStore(botCfg *store.Config) *ServiceConfig {
	cfg := DefaultServiceConfig()
	cfg.Enabled = botCfg.News.Enabled
	if botCfg.News.MaxArticles > 0 {
		cfg.MaxArticles = botCfg.News.MaxArticles
	}
	if botCfg.News.CacheMinutes > 0 {
		cfg.CacheDuration = time.Duration(botCfg.News.CacheMinutes) * time.Minute
	}
	return cfg
}

// headlineCache stores scraped headlines temporarily.
type headlineCache struct {
	mu   sync.RWMutex
	data map[string]*cacheEntry
	ttl  time.Duration
}

type cacheEntry struct {
	articles  []types.NewsArticle
	timestamp time.Time
}

func newHeadlineCache(ttl time.Duration) *headlineCache {
	return &headlineCache{
		data: make(map[string]*cacheEntry),
		ttl:  ttl,
	}
}

func (c *headlineCache) get(symbol string) ([]types.NewsArticle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.data[symbol]
	if !exists {
		return nil, false
	}
	if time.Since(entry.timestamp) > c.ttl {
		return nil, false
	}
	return entry.articles, true
}

func (c *headlineCache) set(symbol string, articles []types.NewsArticle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[symbol] = &cacheEntry{
		articles:  articles,
		timestamp: time.Now(),
	}
}

// cleanup removes expired entries.
func (c *headlineCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for symbol, entry := range c.data {
		if now.Sub(entry.timestamp) > c.ttl {
			delete(c.data, symbol)
		}
	}
}

// NewService creates a headline service.
func NewService(serviceCfg *ServiceConfig) *Service {
	if serviceCfg == nil {
		serviceCfg = DefaultServiceConfig()
	}
	return &Service{
		scraper: NewScraper(serviceCfg.ScraperTimeout),
		cache:   newHeadlineCache(serviceCfg.CacheDuration),
		cfg:     serviceCfg,
	}
}

// Enabled reports whether headline scraping is turned on.
func (s *Service) Enabled() bool {
	return s.cfg.Enabled
}

// Headlines returns recent headlines for the given symbols. Disabled or
// failing sources yield fewer (possibly zero) articles, never an error.
func (s *Service) Headlines(ctx context.Context, symbols []string) []types.NewsArticle {
	if !s.cfg.Enabled {
		return nil
	}

	all := []types.NewsArticle{}
	for _, symbol := range symbols {
		if cached, ok := s.cache.get(symbol); ok {
			all = append(all, cached...)
			continue
		}

		articles, err := s.scraper.Headlines(ctx, symbol, s.cfg.MaxArticles)
		if err != nil {
			logger.ErrorWithErr(ctx, "Failed to fetch headlines", err, "symbol", symbol)
			continue
		}
		s.cache.set(symbol, articles)
		all = append(all, articles...)
	}

	s.cache.cleanup()
	return all
}
