package feed

import (
	"context"
	"strings"
	"time"
)

// Article describes one candidate item as it arrives from a source.
type Article struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	RawText     string    `json:"raw_content"`
	Source      string    `json:"source"`
}

// Key returns the deduplication identifier for the article. Two articles
// with the same key are the same article regardless of title drift.
func (a Article) Key() string {
	key := strings.ToLower(strings.TrimSpace(a.URL))
	if key == "" {
		key = strings.ToLower(strings.TrimSpace(a.Title))
	}
	return key
}

// Source pulls fresh candidate articles from one upstream provider.
type Source interface {
	Name() string
	FetchCandidates(ctx context.Context) ([]Article, error)
}
