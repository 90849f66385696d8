package render

import (
	"strings"
	"testing"
	"time"

	"github.com/hyeonkim/devfeed_bot/internal/feed"
)

func TestMessage(t *testing.T) {
	published := time.Date(2025, 6, 10, 9, 0, 0, 0, feed.Seoul)

	tests := []struct {
		name    string
		article feed.Article
		want    string
	}{
		{
			name: "full article",
			article: feed.Article{
				Title:       "렌더링 최적화 회고",
				URL:         "https://blog.example.com/rendering",
				PublishedAt: published,
				Source:      "kakao-tech",
			},
			want: "*렌더링 최적화 회고*\n_kakao-tech_ · 2025-06-10\nhttps://blog.example.com/rendering",
		},
		{
			name: "no published date omits the date, keeps the source",
			article: feed.Article{
				Title:  "날짜 없는 글",
				URL:    "https://blog.example.com/undated",
				Source: "jobs",
			},
			want: "*날짜 없는 글*\n_jobs_\nhttps://blog.example.com/undated",
		},
		{
			name: "no source collapses the header line",
			article: feed.Article{
				Title:       "제목만",
				URL:         "https://blog.example.com/x",
				PublishedAt: published,
			},
			want: "*제목만*\nhttps://blog.example.com/x",
		},
		{
			name: "empty title falls back to the url",
			article: feed.Article{
				URL:    "https://blog.example.com/untitled",
				Source: "s",
			},
			want: "*https://blog.example.com/untitled*\n_s_\nhttps://blog.example.com/untitled",
		},
		{
			name: "utc timestamp renders as its local calendar day",
			article: feed.Article{
				Title: "경계",
				URL:   "https://blog.example.com/b",
				// 16:00 UTC on the 9th is 01:00 on the 10th locally.
				PublishedAt: time.Date(2025, 6, 9, 16, 0, 0, 0, time.UTC),
				Source:      "s",
			},
			want: "*경계*\n_s_ · 2025-06-10\nhttps://blog.example.com/b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Message(tt.article); got != tt.want {
				t.Errorf("Message() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMessage_EscapesMarkdown(t *testing.T) {
	got := Message(feed.Article{
		Title:  "useState_훅과 *렌더링* [정리]",
		URL:    "https://blog.example.com/hooks",
		Source: "s",
	})
	if !strings.Contains(got, `useState\_훅과 \*렌더링\* \[정리]`) {
		t.Errorf("markdown markers not escaped: %q", got)
	}
}
