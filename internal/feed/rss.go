package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"github.com/hyeonkim/devfeed_bot/internal/config"
)

// maxItemsPerFeed caps how many items one feed contributes per fetch.
// Some feeds expose their whole archive; the newest entries come first.
const maxItemsPerFeed = 100

// RSS fetches candidates from one or more RSS/Atom feeds of a source.
type RSS struct {
	src    config.Source
	client *http.Client
	parser *gofeed.Parser
	log    zerolog.Logger
}

var _ Source = (*RSS)(nil)

// NewRSS builds an RSS source from its config record.
func NewRSS(src config.Source, client *http.Client, log zerolog.Logger) *RSS {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &RSS{
		src:    src,
		client: client,
		parser: gofeed.NewParser(),
		log:    log,
	}
}

// Name implements Source.
func (r *RSS) Name() string { return r.src.ID }

// FetchCandidates implements Source. A failing feed URL does not abort the
// others; the source as a whole fails only when every feed failed and
// nothing was collected.
func (r *RSS) FetchCandidates(ctx context.Context) ([]Article, error) {
	var (
		articles []Article
		errs     []error
	)

	for _, feedURL := range r.src.Feeds {
		items, err := r.fetchFeed(ctx, feedURL)
		if err != nil {
			r.log.Warn().Err(err).Str("feed", feedURL).Msg("feed fetch failed")
			errs = append(errs, fmt.Errorf("%s: %w", feedURL, err))
			continue
		}
		articles = append(articles, items...)
	}

	if len(articles) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return articles, nil
}

func (r *RSS) fetchFeed(ctx context.Context, feedURL string) ([]Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	// Browser-like headers: several blog platforms answer 403 to anything
	// that does not look like a real browser.
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	parsed, err := r.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	items := parsed.Items
	if len(items) > maxItemsPerFeed {
		items = items[:maxItemsPerFeed]
	}

	articles := make([]Article, 0, len(items))
	for _, item := range items {
		article, ok := convertItem(r.src.ID, item)
		if !ok {
			continue
		}
		articles = append(articles, article)
	}
	return articles, nil
}

// convertItem maps a parsed feed item onto the Article value. Items
// without a link or title are dropped; missing dates become zero times
// and are left to the date-window filter's best-effort rule.
func convertItem(sourceID string, item *gofeed.Item) (Article, bool) {
	title := strings.TrimSpace(item.Title)
	link := strings.TrimSpace(item.Link)
	if title == "" || link == "" {
		return Article{}, false
	}

	var published time.Time
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		published = *item.UpdatedParsed
	}

	body := item.Content
	if body == "" {
		body = item.Description
	}

	return Article{
		Title:       title,
		URL:         link,
		PublishedAt: published,
		RawText:     strings.TrimSpace(title + " " + body),
		Source:      sourceID,
	}, true
}

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
