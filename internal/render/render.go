// Package render formats admitted articles into outgoing message text.
package render

import (
	"fmt"
	"strings"

	"github.com/hyeonkim/devfeed_bot/internal/feed"
)

// Message renders one article as a short markdown message. Pure
// formatting; the source name in the header lets readers tell feeds apart
// in a shared channel.
func Message(article feed.Article) string {
	var b strings.Builder

	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = article.URL
	}

	fmt.Fprintf(&b, "*%s*\n", escapeMarkdown(title))
	if article.Source != "" {
		fmt.Fprintf(&b, "_%s_", article.Source)
		if !article.PublishedAt.IsZero() {
			fmt.Fprintf(&b, " · %s", article.PublishedAt.In(feed.Seoul).Format("2006-01-02"))
		}
		b.WriteString("\n")
	}
	b.WriteString(article.URL)

	return b.String()
}

// escapeMarkdown neutralizes the markers that would break the message
// formatting when a title contains them.
func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"*", "\\*",
		"_", "\\_",
		"[", "\\[",
		"`", "\\`",
	)
	return replacer.Replace(s)
}
