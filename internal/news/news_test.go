package news_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/h2non/gock"

	"github.com/croplink/agrobot/internal/config"
	"github.com/croplink/agrobot/internal/news"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Agri Daily</title>
    <item>
      <title>Older story</title>
      <link>https://example.com/older</link>
      <pubDate>Mon, 03 Aug 2026 08:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Newest story</title>
      <link>https://example.com/newest</link>
      <pubDate>Tue, 04 Aug 2026 08:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Oldest story</title>
      <link>https://example.com/oldest</link>
      <pubDate>Sun, 02 Aug 2026 08:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

func newTestProvider(feeds map[string]string, maxArticles int) news.Provider {
	return news.NewProvider(config.NewsConfig{
		Feeds:       feeds,
		Timeout:     5 * time.Second,
		MaxArticles: maxArticles,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestByCategory(t *testing.T) {
	defer gock.Off()

	gock.New("https://feeds.example.com").
		Get("/crop.xml").
		Reply(200).
		BodyString(sampleFeed)

	p := newTestProvider(map[string]string{
		news.CategoryCrop: "https://feeds.example.com/crop.xml",
	}, 2)

	result := p.ByCategory(context.Background(), news.CategoryCrop)
	if !result.OK {
		t.Fatal("ByCategory() OK = false, want true")
	}
	if len(result.Articles) != 2 {
		t.Fatalf("got %d articles, want max 2", len(result.Articles))
	}
	// Newest first, capped at maxArticles.
	if result.Articles[0].Title != "Newest story" {
		t.Errorf("first article = %q, want newest", result.Articles[0].Title)
	}
	if result.Articles[1].Title != "Older story" {
		t.Errorf("second article = %q, want older", result.Articles[1].Title)
	}
	if result.Articles[0].Source != "Agri Daily" {
		t.Errorf("article source = %q, want feed title", result.Articles[0].Source)
	}
}

func TestByCategoryFallsBackToGeneralFeed(t *testing.T) {
	defer gock.Off()

	gock.New("https://feeds.example.com").
		Get("/general.xml").
		Reply(200).
		BodyString(sampleFeed)

	p := newTestProvider(map[string]string{
		news.CategoryGeneral: "https://feeds.example.com/general.xml",
	}, 5)

	result := p.ByCategory(context.Background(), news.CategoryTech)
	if !result.OK {
		t.Fatal("ByCategory() with general fallback OK = false, want true")
	}
}

func TestByCategoryFetchFailureReturnsNotOK(t *testing.T) {
	defer gock.Off()

	gock.New("https://feeds.example.com").
		Get("/crop.xml").
		Reply(500)

	p := newTestProvider(map[string]string{
		news.CategoryCrop: "https://feeds.example.com/crop.xml",
	}, 5)

	result := p.ByCategory(context.Background(), news.CategoryCrop)
	if result.OK {
		t.Error("ByCategory() OK = true on fetch failure, want false")
	}
	if len(result.Articles) != 0 {
		t.Errorf("got %d articles on failure, want 0", len(result.Articles))
	}
}

func TestByCategoryNoFeedsConfigured(t *testing.T) {
	p := newTestProvider(map[string]string{}, 5)

	result := p.ByCategory(context.Background(), news.CategoryMarket)
	if result.OK {
		t.Error("ByCategory() OK = true with no feeds, want false")
	}
}

func TestInferCategory(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "crop keywords", input: "harvest season news", expected: news.CategoryCrop},
		{name: "tech keywords", input: "drone spraying update", expected: news.CategoryTech},
		{name: "market keywords", input: "export prices this week", expected: news.CategoryMarket},
		{name: "weather keywords", input: "monsoon outlook", expected: news.CategoryWeather},
		{name: "sustainability keywords", input: "organic farming headlines", expected: news.CategorySustainability},
		{name: "default", input: "anything else", expected: news.CategoryGeneral},
		{name: "case insensitive", input: "MONSOON news", expected: news.CategoryWeather},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := news.InferCategory(tc.input); got != tc.expected {
				t.Errorf("InferCategory(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}
