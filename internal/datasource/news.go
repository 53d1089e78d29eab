package datasource

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/arthastra/arthastra/pkg/models"
)

// NewsSource represents an Indian personal-finance news feed.
type NewsSource struct {
	Name    string
	RSSURL  string
	BaseURL string
}

// DefaultNewsSources lists the configured Indian personal-finance RSS feeds.
var DefaultNewsSources = []NewsSource{
	{
		Name:    "Moneycontrol Personal Finance",
		RSSURL:  "https://www.moneycontrol.com/rss/personalfinance.xml",
		BaseURL: "https://www.moneycontrol.com",
	},
	{
		Name:    "Economic Times Wealth",
		RSSURL:  "https://economictimes.indiatimes.com/wealth/rssfeeds/837555174.cms",
		BaseURL: "https://economictimes.indiatimes.com",
	},
	{
		Name:    "LiveMint Money",
		RSSURL:  "https://www.livemint.com/rss/money",
		BaseURL: "https://www.livemint.com",
	},
	{
		Name:    "Business Standard Finance",
		RSSURL:  "https://www.business-standard.com/rss/finance-103.rss",
		BaseURL: "https://www.business-standard.com",
	},
}

// lendingKeywords filters general wealth feeds down to loan-relevant items.
var lendingKeywords = []string{
	"loan", "emi", "credit score", "cibil", "interest rate", "repo rate",
	"home loan", "personal loan", "lending", "borrower", "rbi", "credit card",
	"nbfc", "mortgage",
}

// News fetches lending and personal-finance news from Indian sources.
type News struct {
	sources []NewsSource
	cache   *Cache
	limiter *RateLimiter
	parser  *gofeed.Parser
}

// NewsOption configures the news source.
type NewsOption func(*News)

// WithCacheTTL overrides the default 10-minute cache TTL.
func WithCacheTTL(ttl time.Duration) NewsOption {
	return func(n *News) { n.cache = NewCache(ttl) }
}

// WithRateLimit overrides the default feed polling rate.
func WithRateLimit(requests int, per time.Duration) NewsOption {
	return func(n *News) { n.limiter = NewRateLimiter(requests, per) }
}

// WithSources replaces the default feed list.
func WithSources(sources []NewsSource) NewsOption {
	return func(n *News) { n.sources = sources }
}

// NewNews creates a news data source with default Indian feeds.
func NewNews(opts ...NewsOption) *News {
	n := &News{
		sources: DefaultNewsSources,
		cache:   NewCache(10 * time.Minute),
		limiter: NewRateLimiter(2, time.Second), // conservative: 2 req/s
		parser:  gofeed.NewParser(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Name returns the data source name.
func (n *News) Name() string { return "Indian Lending News" }

// Sources returns the configured feed list.
func (n *News) Sources() []NewsSource { return n.sources }

// --- Public methods ---

// GetLendingNews returns recent loan-relevant news from all configured
// sources, newest first.
func (n *News) GetLendingNews(ctx context.Context, limit int) ([]models.NewsArticle, error) {
	cacheKey := fmt.Sprintf("news:lending:%d", limit)
	if cached, ok := n.cache.Get(cacheKey); ok {
		return cached.([]models.NewsArticle), nil
	}

	var all []models.NewsArticle
	for _, src := range n.sources {
		articles, err := n.fetchRSS(ctx, src)
		if err != nil {
			// Non-critical: skip failed sources.
			continue
		}
		all = append(all, articles...)
	}

	filtered := make([]models.NewsArticle, 0, len(all))
	for _, a := range all {
		if matchesAny(a.Title+" "+a.Summary, lendingKeywords) {
			filtered = append(filtered, a)
		}
	}

	sortArticlesByDate(filtered)

	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}

	n.cache.Set(cacheKey, filtered)
	return filtered, nil
}

// GetTopicNews returns news matching a specific topic ("repo rate",
// "personal loan", a bank name, ...).
func (n *News) GetTopicNews(ctx context.Context, topic string, limit int) ([]models.NewsArticle, error) {
	cacheKey := fmt.Sprintf("news:topic:%s:%d", strings.ToLower(topic), limit)
	if cached, ok := n.cache.Get(cacheKey); ok {
		return cached.([]models.NewsArticle), nil
	}

	all, err := n.GetLendingNews(ctx, 0)
	if err != nil {
		return nil, err
	}

	topicLower := strings.ToLower(topic)
	var filtered []models.NewsArticle
	for _, a := range all {
		content := strings.ToLower(a.Title + " " + a.Summary)
		if strings.Contains(content, topicLower) {
			filtered = append(filtered, a)
		}
	}

	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}

	n.cache.Set(cacheKey, filtered)
	return filtered, nil
}

// Headlines returns just the titles of recent lending news, formatted for
// injection into an advisor prompt. Errors degrade to an empty slice; the
// advisor works fine without news context.
func (n *News) Headlines(ctx context.Context, limit int) []string {
	articles, err := n.GetLendingNews(ctx, limit)
	if err != nil {
		return nil
	}
	headlines := make([]string, 0, len(articles))
	for _, a := range articles {
		headlines = append(headlines, fmt.Sprintf("%s (%s)", a.Title, a.Source))
	}
	return headlines
}

// ArticleText fetches an article page and extracts its paragraph text.
func (n *News) ArticleText(ctx context.Context, url string) (string, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return "", err
	}

	body, _, err := doGet(ctx, url, nil)
	if err != nil {
		return "", err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return "", fmt.Errorf("parse article %s: %w", url, err)
	}

	var sb strings.Builder
	doc.Find("article p, .article-body p, p").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if len(text) > 40 { // skip captions and bylines
			sb.WriteString(text)
			sb.WriteString("\n")
		}
	})

	return strings.TrimSpace(sb.String()), nil
}

// --- Internal helpers ---

// fetchRSS parses an RSS feed and returns articles.
func (n *News) fetchRSS(ctx context.Context, src NewsSource) ([]models.NewsArticle, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	feed, err := n.parser.ParseURLWithContext(src.RSSURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse RSS %s: %w", src.Name, err)
	}

	articles := make([]models.NewsArticle, 0, len(feed.Items))
	for _, item := range feed.Items {
		a := models.NewsArticle{
			Title:   item.Title,
			URL:     item.Link,
			Source:  src.Name,
			Summary: cleanHTML(item.Description),
		}
		if item.PublishedParsed != nil {
			a.PublishedAt = *item.PublishedParsed
		}
		articles = append(articles, a)
	}

	return articles, nil
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}

// matchesAny checks if text contains any of the keywords (case-insensitive).
func matchesAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// sortArticlesByDate sorts articles by published date (newest first).
// Simple insertion sort — fine for small slices.
func sortArticlesByDate(articles []models.NewsArticle) {
	for i := 1; i < len(articles); i++ {
		key := articles[i]
		j := i - 1
		for j >= 0 && articles[j].PublishedAt.Before(key.PublishedAt) {
			articles[j+1] = articles[j]
			j--
		}
		articles[j+1] = key
	}
}
