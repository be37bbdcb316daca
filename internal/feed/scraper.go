// Package feed pulls headline items from public finance news pages and
// hands them to the intake pipeline as radar items.
package feed

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"news-radar/internal/interfaces"
	"news-radar/internal/logger"
	"news-radar/internal/types"
)

// Scraper collects headlines from multiple feed sources.
type Scraper struct {
	feeds   []FeedSource
	timeout time.Duration
}

var _ interfaces.ItemSource = (*Scraper)(nil)

// FeedSource defines one scrapable news feed.
type FeedSource struct {
	Name       string
	BaseURL    string
	SearchPath string // e.g. "/quote/{ticker}/news"
	Selectors  ItemSelectors
	RateLimit  time.Duration
}

// ItemSelectors defines CSS selectors for extracting headline data.
type ItemSelectors struct {
	ItemContainer string
	Title         string
	URL           string
	Summary       string
	PublishedAt   string
}

// NewScraper creates a scraper over the default feed sources.
func NewScraper(timeout time.Duration) *Scraper {
	return &Scraper{
		feeds:   getDefaultFeeds(),
		timeout: timeout,
	}
}

// NewScraperWithFeeds creates a scraper over a custom feed list.
func NewScraperWithFeeds(feeds []FeedSource, timeout time.Duration) *Scraper {
	return &Scraper{
		feeds:   feeds,
		timeout: timeout,
	}
}

func getDefaultFeeds() []FeedSource {
	return []FeedSource{
		{
			Name:       "YahooFinance",
			BaseURL:    "https://finance.yahoo.com",
			SearchPath: "/quote/{ticker}/news",
			Selectors: ItemSelectors{
				ItemContainer: "li.stream-item",
				Title:         "h3",
				URL:           "a",
				Summary:       "p",
				PublishedAt:   "div.publishing",
			},
			RateLimit: 2 * time.Second,
		},
		{
			Name:       "Finviz",
			BaseURL:    "https://finviz.com",
			SearchPath: "/quote.ashx?t={ticker}",
			Selectors: ItemSelectors{
				ItemContainer: "tr.news-table-row",
				Title:         "a.tab-link-news",
				URL:           "a.tab-link-news",
				Summary:       "",
				PublishedAt:   "td",
			},
			RateLimit: 2 * time.Second,
		},
	}
}

// Fetch collects up to max items for a ticker across all feeds. A feed
// that fails is skipped; Fetch only errors when every feed failed.
func (s *Scraper) Fetch(ctx context.Context, ticker string, max int) ([]types.Item, error) {
	logger.Debug(ctx, "Fetching feed items", "ticker", ticker, "feeds", len(s.feeds))

	perFeed := max / len(s.feeds)
	if perFeed < 1 {
		perFeed = 1
	}

	var items []types.Item
	var failures int
	for _, feed := range s.feeds {
		got, err := s.scrapeFeed(ctx, feed, ticker, perFeed)
		if err != nil {
			logger.ErrorWithErr(ctx, "Failed to scrape feed", err, "feed", feed.Name, "ticker", ticker)
			failures++
			continue
		}
		items = append(items, got...)

		time.Sleep(feed.RateLimit)
	}

	if failures == len(s.feeds) {
		return nil, fmt.Errorf("all %d feeds failed for %s", failures, ticker)
	}

	logger.Info(ctx, "Feed fetch completed", "ticker", ticker, "items", len(items))
	return items, nil
}

func (s *Scraper) scrapeFeed(ctx context.Context, feed FeedSource, ticker string, max int) ([]types.Item, error) {
	items := []types.Item{}

	c := colly.NewCollector(
		colly.AllowedDomains(getDomain(feed.BaseURL)),
		colly.MaxDepth(1),
		colly.Async(false),
	)

	c.SetRequestTimeout(s.timeout)

	// Set user agent to avoid being blocked
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	})

	c.OnHTML(feed.Selectors.ItemContainer, func(e *colly.HTMLElement) {
		if len(items) >= max {
			return
		}

		title := strings.TrimSpace(e.ChildText(feed.Selectors.Title))
		if title == "" {
			return
		}

		itemURL := e.ChildAttr(feed.Selectors.URL, "href")
		if itemURL == "" {
			return
		}
		if !strings.HasPrefix(itemURL, "http") {
			itemURL = feed.BaseURL + itemURL
		}

		var summary string
		if feed.Selectors.Summary != "" {
			summary = strings.TrimSpace(e.ChildText(feed.Selectors.Summary))
		}

		items = append(items, types.Item{
			Ticker:    strings.ToUpper(ticker),
			Title:     title,
			Timestamp: time.Now().UTC(),
			SourceID:  itemURL,
			Source:    feed.Name,
			URL:       itemURL,
			Content:   summary,
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.ErrorWithErr(ctx, "Scraping error", err, "feed", feed.Name, "url", r.Request.URL.String())
	})

	searchURL := feed.BaseURL + strings.ReplaceAll(feed.SearchPath, "{ticker}", strings.ToUpper(ticker))

	if err := c.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("failed to visit %s: %w", searchURL, err)
	}

	c.Wait()

	items = s.enrichItems(ctx, items)

	return items, nil
}

// enrichItems fetches full article bodies for items whose summary is too
// thin to score on.
func (s *Scraper) enrichItems(ctx context.Context, items []types.Item) []types.Item {
	enriched := make([]types.Item, len(items))
	copy(enriched, items)

	for i := range enriched {
		if len(enriched[i].Content) < 100 {
			body := s.fetchItemContent(ctx, enriched[i].URL)
			if body != "" {
				enriched[i].Content = body
			}
		}

		// Rate limiting between article fetches
		time.Sleep(500 * time.Millisecond)
	}

	return enriched
}

func (s *Scraper) fetchItemContent(ctx context.Context, itemURL string) string {
	c := colly.NewCollector()
	c.SetRequestTimeout(s.timeout)

	var content string

	c.OnHTML("article, div.article-body, div.content-body, div.caas-body", func(e *colly.HTMLElement) {
		paragraphs := []string{}
		e.DOM.Find("p").Each(func(_ int, sel *goquery.Selection) {
			text := strings.TrimSpace(sel.Text())
			if text != "" && len(text) > 20 {
				paragraphs = append(paragraphs, text)
			}
		})
		content = strings.Join(paragraphs, "\n\n")
	})

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	})

	if err := c.Visit(itemURL); err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch item content", err, "url", itemURL)
		return ""
	}

	return content
}

func getDomain(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
