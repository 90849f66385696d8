package feed

import "time"

// Seoul is the fixed timezone every calendar-day computation uses. "Today"
// must mean the same thing no matter where the process runs.
var Seoul = mustLoadSeoul()

func mustLoadSeoul() *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

// DayKey formats t as a calendar-day string ("YYYY-MM-DD") in KST.
func DayKey(t time.Time) string {
	return t.In(Seoul).Format("2006-01-02")
}

// WithinWindow reports whether the published timestamp falls inside the
// lookback window ending at now. The convention is calendar-day based:
// days=1 keeps today only, days=2 keeps yesterday and today.
//
// A zero timestamp is kept: sources return publication dates best-effort,
// and an unparseable date must not silently drop the article. Future-dated
// items (broken feed clocks) are dropped.
func WithinWindow(published time.Time, days int, now time.Time) bool {
	if published.IsZero() {
		return true
	}

	today := startOfDay(now)
	day := startOfDay(published)

	if day.After(today) {
		return false
	}

	start := today.AddDate(0, 0, -(days - 1))
	return !day.Before(start)
}

// FilterWindow returns the subset of articles inside the lookback window.
func FilterWindow(articles []Article, days int, now time.Time) []Article {
	kept := make([]Article, 0, len(articles))
	for _, article := range articles {
		if WithinWindow(article.PublishedAt, days, now) {
			kept = append(kept, article)
		}
	}
	return kept
}

func startOfDay(t time.Time) time.Time {
	local := t.In(Seoul)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, Seoul)
}
