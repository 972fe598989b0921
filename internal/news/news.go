// Package news implements the news provider on top of per-category RSS
// feeds. Matching the collaborator contract, it never returns an error:
// fetch or parse failures yield a Result with OK set to false.
package news

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/croplink/agrobot/internal/config"
)

// Known news categories. CategoryGeneral doubles as the fallback when a
// category has no configured feed.
const (
	CategoryCrop           = "crop"
	CategoryTech           = "tech"
	CategoryMarket         = "market"
	CategoryWeather        = "weather"
	CategorySustainability = "sustainability"
	CategoryGeneral        = "general"
)

// Article is one news item.
type Article struct {
	Title     string
	Link      string
	Source    string
	Published time.Time
}

// Result carries the outcome of a category fetch. OK is false when the
// feed was unreachable or unparsable.
type Result struct {
	OK       bool
	Articles []Article
}

// Provider defines the news collaborator contract.
type Provider interface {
	ByCategory(ctx context.Context, category string) Result
}

type feedProvider struct {
	parser      *gofeed.Parser
	feeds       map[string]string
	maxArticles int
	timeout     time.Duration
	log         *slog.Logger
}

// NewProvider creates an RSS-backed news provider from the configured
// category-to-feed mapping.
func NewProvider(cfg config.NewsConfig, log *slog.Logger) Provider {
	return &feedProvider{
		parser:      gofeed.NewParser(),
		feeds:       cfg.Feeds,
		maxArticles: cfg.MaxArticles,
		timeout:     cfg.Timeout,
		log:         log.With("component", "news_provider"),
	}
}

func (p *feedProvider) ByCategory(ctx context.Context, category string) Result {
	feedURL, ok := p.feeds[category]
	if !ok {
		feedURL, ok = p.feeds[CategoryGeneral]
		if !ok {
			p.log.WarnContext(ctx, "No feed configured for category", "category", category)
			return Result{}
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	feed, err := p.parser.ParseURLWithContext(feedURL, fetchCtx)
	if err != nil {
		p.log.WarnContext(ctx, "Failed to fetch news feed",
			"category", category, "url", feedURL, "error", err)
		return Result{}
	}

	articles := make([]Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		article := Article{
			Title:  item.Title,
			Link:   item.Link,
			Source: feed.Title,
		}
		if item.PublishedParsed != nil {
			article.Published = *item.PublishedParsed
		}
		articles = append(articles, article)
	}

	sort.Slice(articles, func(i, j int) bool {
		return articles[i].Published.After(articles[j].Published)
	})
	if len(articles) > p.maxArticles {
		articles = articles[:p.maxArticles]
	}

	p.log.DebugContext(ctx, "Fetched news", "category", category, "count", len(articles))
	return Result{OK: true, Articles: articles}
}

// InferCategory guesses a news sub-category from keywords in the raw
// message text.
func InferCategory(text string) string {
	lowered := strings.ToLower(text)

	switch {
	case containsAny(lowered, "crop", "harvest", "plant", "seed"):
		return CategoryCrop
	case containsAny(lowered, "tech", "drone", "digital", "app", "ai "):
		return CategoryTech
	case containsAny(lowered, "price", "market", "export", "trade"):
		return CategoryMarket
	case containsAny(lowered, "weather", "monsoon", "drought", "flood"):
		return CategoryWeather
	case containsAny(lowered, "organic", "sustainab", "climate", "soil health"):
		return CategorySustainability
	default:
		return CategoryGeneral
	}
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
