package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/lacymorrow/alpaca-mcp-server/internal/logger"
	"github.com/lacymorrow/alpaca-mcp-server/internal/types"
)

// Scraper pulls recent headlines for a symbol from public finance sites.
type Scraper struct {
	sources []Source
	timeout time.Duration
}

// Source defines a headline source configuration.
type Source struct {
	Name      string
	BaseURL   string
	QuotePath string // e.g., "/quote.ashx?t={symbol}"
	Selectors HeadlineSelectors
	RateLimit time.Duration
}

// HeadlineSelectors defines CSS selectors for extracting headline data.
type HeadlineSelectors struct {
	Row         string
	Title       string
	URL         string
	PublishedAt string
}

// NewScraper creates a headline scraper with the default US sources.
func NewScraper(timeout time.Duration) *Scraper {
	return &Scraper{
		sources: defaultSources(),
		timeout: timeout,
	}
}

func defaultSources() []Source {
	return []Source{
		{
			Name:      "Finviz",
			BaseURL:   "https://finviz.com",
			QuotePath: "/quote.ashx?t={symbol}",
			Selectors: HeadlineSelectors{
				Row:         "table#news-table tr",
				Title:       "a.tab-link-news",
				URL:         "a.tab-link-news",
				PublishedAt: "td:first-child",
			},
			RateLimit: 2 * time.Second,
		},
		{
			Name:      "StockAnalysis",
			BaseURL:   "https://stockanalysis.com",
			QuotePath: "/stocks/{symbol}/",
			Selectors: HeadlineSelectors{
				Row:         "div.news-item",
				Title:       "h3 a",
				URL:         "h3 a",
				PublishedAt: "div.news-meta",
			},
			RateLimit: 2 * time.Second,
		},
	}
}

// Headlines fetches recent headlines for a symbol from all sources.
func (s *Scraper) Headlines(ctx context.Context, symbol string, maxArticles int) ([]types.NewsArticle, error) {
	all := []types.NewsArticle{}
	perSource := maxArticles / len(s.sources)
	if perSource < 1 {
		perSource = 1
	}

	for i, source := range s.sources {
		articles, err := s.scrapeSource(ctx, source, symbol, perSource)
		if err != nil {
			logger.ErrorWithErr(ctx, "Failed to scrape source", err, "source", source.Name, "symbol", symbol)
		} else {
			all = append(all, articles...)
		}

		// No pause after the last source.
		if i < len(s.sources)-1 && !waitBetween(ctx, source.RateLimit) {
			return all, ctx.Err()
		}
	}

	if len(all) == 0 {
		fallback, err := s.scrapeGoogleNews(ctx, symbol, maxArticles)
		if err != nil {
			logger.ErrorWithErr(ctx, "Google News fallback failed", err, "symbol", symbol)
		}
		all = fallback
	}

	logger.Debug(ctx, "Headline scraping completed", "symbol", symbol, "articles", len(all))
	return all, nil
}

func (s *Scraper) scrapeSource(ctx context.Context, source Source, symbol string, maxArticles int) ([]types.NewsArticle, error) {
	articles := []types.NewsArticle{}

	c := colly.NewCollector(
		colly.AllowedDomains(hostOf(source.BaseURL)),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(s.timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	})

	c.OnHTML(source.Selectors.Row, func(e *colly.HTMLElement) {
		if len(articles) >= maxArticles {
			return
		}
		if a, ok := extractHeadline(e.DOM, source, symbol); ok {
			articles = append(articles, a)
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.Warn(ctx, "Scraping error", "source", source.Name, "url", r.Request.URL.String(), "error", err.Error())
	})

	quoteURL := source.BaseURL + strings.ReplaceAll(source.QuotePath, "{symbol}", strings.ToLower(symbol))
	if err := c.Visit(quoteURL); err != nil {
		return nil, fmt.Errorf("failed to visit %s: %w", quoteURL, err)
	}
	c.Wait()

	return articles, nil
}

// extractHeadline pulls one article out of a headline row. Finviz rows
// carry the timestamp in a sibling cell, so selection happens on the row
// rather than the anchor alone.
func extractHeadline(row *goquery.Selection, source Source, symbol string) (types.NewsArticle, bool) {
	link := row.Find(source.Selectors.Title).First()
	title := strings.TrimSpace(link.Text())
	if title == "" {
		return types.NewsArticle{}, false
	}

	href, _ := link.Attr("href")
	if href == "" {
		return types.NewsArticle{}, false
	}
	if !strings.HasPrefix(href, "http") {
		href = source.BaseURL + href
	}

	publishedAt := strings.TrimSpace(row.Find(source.Selectors.PublishedAt).First().Text())

	return types.NewsArticle{
		Symbol:      symbol,
		Title:       title,
		URL:         href,
		Source:      source.Name,
		PublishedAt: publishedAt,
	}, true
}

// scrapeGoogleNews searches Google News for ticker headlines (fallback).
func (s *Scraper) scrapeGoogleNews(ctx context.Context, symbol string, maxArticles int) ([]types.NewsArticle, error) {
	articles := []types.NewsArticle{}

	c := colly.NewCollector(
		colly.AllowedDomains("news.google.com", "www.google.com"),
	)
	c.SetRequestTimeout(s.timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	})

	c.OnHTML("article", func(e *colly.HTMLElement) {
		if len(articles) >= maxArticles {
			return
		}

		title := e.ChildText("h3, h4")
		link := e.ChildAttr("a", "href")
		if title == "" || link == "" {
			return
		}
		if strings.HasPrefix(link, "./articles/") {
			link = "https://news.google.com" + link[1:]
		}

		articles = append(articles, types.NewsArticle{
			Symbol: symbol,
			Title:  title,
			URL:    link,
			Source: "GoogleNews",
		})
	})

	query := url.QueryEscape(symbol + " stock")
	searchURL := fmt.Sprintf("https://news.google.com/search?q=%s&hl=en-US&gl=US&ceid=US:en", query)

	if err := c.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("failed to scrape Google News: %w", err)
	}
	c.Wait()

	return articles, nil
}

// waitBetween pauses for the source rate limit, returning false if the
// context is cancelled first.
func waitBetween(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func hostOf(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
