package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/hyeonkim/devfeed_bot/internal/config"
)

const samplePage = `<!DOCTYPE html>
<html><body>
<ul class="posts">
  <li class="post">
    <a class="title" href="/posts/1">타입 안전한 API 클라이언트</a>
    <p class="summary">사내 API 클라이언트 개선기</p>
  </li>
  <li class="post">
    <a class="title" href="https://other.example.com/guest">외부 기고</a>
  </li>
  <li class="post">
    <a class="title" href=""></a>
  </li>
</ul>
</body></html>`

func TestScrape_FetchCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(samplePage))
	}))
	defer server.Close()

	src := config.Source{
		ID:              "scraped",
		Kind:            config.KindScrape,
		PageURL:         server.URL + "/posts",
		ItemSelector:    "li.post",
		TitleSelector:   "a.title",
		LinkSelector:    "a.title",
		SummarySelector: "p.summary",
	}
	scrape := NewScrape(src, server.Client(), zerolog.Nop())

	articles, err := scrape.FetchCandidates(context.Background())
	if err != nil {
		t.Fatalf("FetchCandidates() error = %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("FetchCandidates() returned %d articles, want 2 (empty item dropped)", len(articles))
	}

	first := articles[0]
	if first.Title != "타입 안전한 API 클라이언트" {
		t.Errorf("Title = %q", first.Title)
	}
	if want := server.URL + "/posts/1"; first.URL != want {
		t.Errorf("URL = %q, want relative link resolved to %q", first.URL, want)
	}
	if first.RawText == first.Title {
		t.Errorf("RawText should include the summary, got %q", first.RawText)
	}
	if !first.PublishedAt.IsZero() {
		t.Errorf("scraped PublishedAt = %v, want zero (no date on listing pages)", first.PublishedAt)
	}

	if articles[1].URL != "https://other.example.com/guest" {
		t.Errorf("absolute link rewritten: %q", articles[1].URL)
	}
}

func TestScrape_FetchCandidates_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	src := config.Source{
		ID:            "down",
		Kind:          config.KindScrape,
		PageURL:       server.URL,
		ItemSelector:  "li",
		TitleSelector: "a",
		LinkSelector:  "a",
	}
	scrape := NewScrape(src, server.Client(), zerolog.Nop())

	if _, err := scrape.FetchCandidates(context.Background()); err == nil {
		t.Fatal("FetchCandidates() error = nil, want failure on 503")
	}
}
