// Package collect performs backfill ingestion: fetch configured RSS feeds,
// optionally enrich thin items with readable full text, and append the
// results to the pending buffer for the next reconciliation cycle.
package collect

import (
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"signalbot/types"
)

// FeedConfig represents the configuration for a single RSS feed
type FeedConfig struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// FeedPresets maps friendly keys to financial news feeds.
var FeedPresets = map[string]FeedConfig{
	"coindesk": {
		Name: "CoinDesk",
		URL:  "https://www.coindesk.com/arc/outboundfeeds/rss/",
	},
	"cointelegraph": {
		Name: "Cointelegraph",
		URL:  "https://cointelegraph.com/rss",
	},
	"decrypt": {
		Name: "Decrypt",
		URL:  "https://decrypt.co/feed",
	},
	"cnbc-finance": {
		Name: "CNBC Finance",
		URL:  "https://search.cnbc.com/rs/search/combinedcms/view.xml?partnerId=wrss01&id=10000664",
	},
}

// FeedItem pairs a normalized news item with the article link needed for
// full-text enrichment.
type FeedItem struct {
	News types.NewsItem
	Link string
}

// FetchFeed retrieves and parses one RSS/Atom feed into news items.
func FetchFeed(feed FeedConfig, maxCount int) ([]*FeedItem, error) {
	parser := gofeed.NewParser()
	parsed, err := parser.ParseURL(feed.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed %s: %w", feed.Name, err)
	}

	count := len(parsed.Items)
	if maxCount > 0 && count > maxCount {
		count = maxCount
	}

	items := make([]*FeedItem, 0, count)
	for i := 0; i < count; i++ {
		entry := parsed.Items[i]

		// Use GUID if available, otherwise generate from URL or title
		id := entry.GUID
		if id == "" && entry.Link != "" {
			id = types.GenerateID(entry.Link)
		}
		if id == "" {
			id = types.GenerateID(entry.Title)
		}

		var publishedAt time.Time
		if entry.PublishedParsed != nil {
			publishedAt = *entry.PublishedParsed
		} else if entry.UpdatedParsed != nil {
			publishedAt = *entry.UpdatedParsed
		} else {
			publishedAt = time.Now().UTC()
		}

		summary := entry.Description
		if summary == "" {
			summary = entry.Content
		}

		items = append(items, &FeedItem{
			News: types.NewsItem{
				ID:        id,
				Timestamp: publishedAt,
				Headline:  strings.TrimSpace(entry.Title),
				Summary:   summary,
				Source:    feed.Name,
				Symbols:   append([]string(nil), entry.Categories...),
			},
			Link: entry.Link,
		})
	}

	return items, nil
}

// FetchAll collects every configured feed, skipping feeds that fail.
func FetchAll(feeds []FeedConfig, maxPerFeed int) []*FeedItem {
	var all []*FeedItem
	for _, feed := range feeds {
		items, err := FetchFeed(feed, maxPerFeed)
		if err != nil {
			fmt.Printf("Warning: %v\n", err)
			continue
		}
		all = append(all, items...)
	}
	return all
}
