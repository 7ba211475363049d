package research

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Page is the distilled content of one fetched source.
type Page struct {
	URL      string
	Title    string
	Text     string
	Insights []string
}

// SourceReader fetches and distills a single research source.
type SourceReader interface {
	Read(ctx context.Context, sourceURL, focusArea string) (*Page, error)
}

const (
	maxPageText  = 5000
	maxInsights  = 10
	userAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	readTimeout  = 30 * time.Second
	perDomainGap = 2 * time.Second
)

// domainLimiter spaces requests to the same host.
type domainLimiter struct {
	mu   sync.Mutex
	last map[string]time.Time
	gap  time.Duration
}

func newDomainLimiter(gap time.Duration) *domainLimiter {
	return &domainLimiter{last: make(map[string]time.Time), gap: gap}
}

func (l *domainLimiter) wait(ctx context.Context, domain string) error {
	l.mu.Lock()
	var sleep time.Duration
	if prev, ok := l.last[domain]; ok {
		if since := time.Since(prev); since < l.gap {
			sleep = l.gap - since
		}
	}
	l.last[domain] = time.Now().Add(sleep)
	l.mu.Unlock()

	if sleep <= 0 {
		return nil
	}
	timer := time.NewTimer(sleep)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// HTTPReader reads sources over plain HTTP and extracts insight
// sentences relevant to the focus area.
type HTTPReader struct {
	client  *http.Client
	limiter *domainLimiter
}

func NewHTTPReader() *HTTPReader {
	return &HTTPReader{
		client:  &http.Client{Timeout: readTimeout},
		limiter: newDomainLimiter(perDomainGap),
	}
}

func (r *HTTPReader) Read(ctx context.Context, sourceURL, focusArea string) (*Page, error) {
	parsed, err := url.Parse(sourceURL)
	if err != nil {
		return nil, fmt.Errorf("parse source url %q: %w", sourceURL, err)
	}
	if err := r.limiter.wait(ctx, parsed.Host); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", sourceURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", sourceURL, resp.StatusCode)
	}

	root, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", sourceURL, err)
	}
	doc := goquery.NewDocumentFromNode(root)

	doc.Find("script, style, noscript").Remove()
	title := strings.TrimSpace(doc.Find("title").First().Text())
	text := truncateText(collapseWhitespace(doc.Find("body").Text()), maxPageText)

	return &Page{
		URL:      sourceURL,
		Title:    title,
		Text:     text,
		Insights: extractInsights(text, focusArea),
	}, nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateText cuts s to at most max bytes without splitting a rune.
func truncateText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// Relevance keywords per focus area. A sentence counts as an insight
// when it contains any keyword for the query's focus area.
var insightKeywords = map[string][]string{
	"conversion": {
		"conversion rate", "cta", "call to action", "button design",
		"trust signal", "social proof", "urgency", "scarcity",
		"color psychology", "psychology", "persuasion",
	},
	"ui_ux": {
		"user experience", "usability", "accessibility", "mobile first",
		"responsive design", "user interface", "design pattern",
		"navigation", "layout",
	},
	"seo": {
		"search engine optimization", "meta tags", "structured data",
		"page speed", "core web vitals", "lighthouse", "performance",
	},
	"tailwind": {
		"tailwind", "utility classes", "component", "responsive",
		"dark mode", "customize",
	},
}

func extractInsights(text, focusArea string) []string {
	keywords := insightKeywords[focusArea]
	if len(keywords) == 0 {
		return nil
	}

	var insights []string
	sentences := strings.Split(text, ".")
	if len(sentences) > 50 {
		sentences = sentences[:50]
	}
	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if len(sentence) < 20 {
			continue
		}
		lower := strings.ToLower(sentence)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				insights = append(insights, sentence)
				break
			}
		}
		if len(insights) >= maxInsights {
			break
		}
	}
	return insights
}
