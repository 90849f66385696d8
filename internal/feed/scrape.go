package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/hyeonkim/devfeed_bot/internal/config"
)

// Scrape fetches candidates from a plain HTML listing page using CSS
// selectors from the source config. It exists for the one source that
// publishes no feed.
type Scrape struct {
	src    config.Source
	client *http.Client
	log    zerolog.Logger
}

var _ Source = (*Scrape)(nil)

// NewScrape builds a scraping source from its config record.
func NewScrape(src config.Source, client *http.Client, log zerolog.Logger) *Scrape {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Scrape{src: src, client: client, log: log}
}

// Name implements Source.
func (s *Scrape) Name() string { return s.src.ID }

// FetchCandidates implements Source. Scraped items have no reliable
// publication date, so PublishedAt stays zero and the date-window filter
// keeps them by its best-effort rule.
func (s *Scrape) FetchCandidates(ctx context.Context) ([]Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.src.PageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	base, err := url.Parse(s.src.PageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}

	var articles []Article
	doc.Find(s.src.ItemSelector).Each(func(_ int, sel *goquery.Selection) {
		title := strings.TrimSpace(sel.Find(s.src.TitleSelector).First().Text())
		href, _ := sel.Find(s.src.LinkSelector).First().Attr("href")
		href = strings.TrimSpace(href)
		if title == "" || href == "" {
			return
		}

		link, err := base.Parse(href)
		if err != nil {
			s.log.Warn().Err(err).Str("href", href).Msg("skipping item with bad link")
			return
		}

		summary := ""
		if s.src.SummarySelector != "" {
			summary = strings.TrimSpace(sel.Find(s.src.SummarySelector).First().Text())
		}

		articles = append(articles, Article{
			Title:   title,
			URL:     link.String(),
			RawText: strings.TrimSpace(title + " " + summary),
			Source:  s.src.ID,
		})
	})

	return articles, nil
}
