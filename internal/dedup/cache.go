// Package dedup tracks which article identifiers were already forwarded
// today, so a feed that republishes or a rerun of the process never sends
// the same article twice within one calendar day (KST).
package dedup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hyeonkim/devfeed_bot/internal/feed"
)

// Mode selects how the cache behaves. It is fixed at construction; the
// cache never guesses its mode from ambient process state.
type Mode string

const (
	// ModeBypass makes every membership check report "unseen" and every
	// write a no-op. Nothing is ever read from or written to disk. Meant
	// for reprocessing runs.
	ModeBypass Mode = "bypass"
	// ModeMemory keeps all state in the process; lost on restart.
	ModeMemory Mode = "memory"
	// ModeFile persists state to a JSON document after every mutation, so
	// batch-style invocations that restart fresh still remember what was
	// sent earlier today.
	ModeFile Mode = "file"
)

// ParseMode validates a mode string from configuration.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeBypass, ModeMemory, ModeFile:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown cache mode %q", s)
}

// Cache is a per-calendar-day set of seen identifiers. Each source owns
// its own Cache; it is safe for the dispatcher goroutine plus callers of
// Stats-style reads, but never shared across sources.
type Cache struct {
	mode  Mode
	path  string
	clock func() time.Time
	log   zerolog.Logger

	mu   sync.Mutex
	days map[string]map[string]struct{}
}

// New builds a cache in the given mode. path is used only in file mode;
// a nil clock defaults to time.Now. In file mode today's bucket is loaded
// eagerly; older buckets on disk are stale and ignored.
func New(mode Mode, path string, clock func() time.Time, log zerolog.Logger) *Cache {
	if clock == nil {
		clock = time.Now
	}
	c := &Cache{
		mode:  mode,
		path:  path,
		clock: clock,
		log:   log,
		days:  make(map[string]map[string]struct{}),
	}
	if mode == ModeFile {
		c.loadToday()
	}
	return c
}

// Mode returns the mode the cache was constructed with.
func (c *Cache) Mode() Mode { return c.mode }

// FilterUnseen returns the candidates whose identifier is not yet
// recorded for today. Unless markSeen is false, every returned identifier
// is recorded as seen. In bypass mode the full input comes back unchanged
// and nothing is recorded.
func (c *Cache) FilterUnseen(candidates []feed.Article, identify func(feed.Article) string, markSeen bool) []feed.Article {
	if c.mode == ModeBypass {
		return candidates
	}
	if identify == nil {
		identify = feed.Article.Key
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	bucket := c.todayLocked()
	unseen := make([]feed.Article, 0, len(candidates))
	mutated := false
	for _, candidate := range candidates {
		id := identify(candidate)
		if _, seen := bucket[id]; seen {
			continue
		}
		unseen = append(unseen, candidate)
		if markSeen {
			bucket[id] = struct{}{}
			mutated = true
		}
	}

	if mutated {
		c.persistLocked()
	}
	return unseen
}

// HasSeen reports whether the identifier was recorded today. Always false
// in bypass mode.
func (c *Cache) HasSeen(id string) bool {
	if c.mode == ModeBypass {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, seen := c.todayLocked()[id]
	return seen
}

// MarkSeen records the identifier for today. No-op in bypass mode.
func (c *Cache) MarkSeen(id string) {
	if c.mode == ModeBypass {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	bucket := c.todayLocked()
	if _, seen := bucket[id]; seen {
		return
	}
	bucket[id] = struct{}{}
	c.persistLocked()
}

// PurgeStaleDays drops every bucket except today's and returns how many
// were removed.
func (c *Cache) PurgeStaleDays() int {
	if c.mode == ModeBypass {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	today := feed.DayKey(c.clock())
	removed := 0
	for day := range c.days {
		if day != today {
			delete(c.days, day)
			removed++
		}
	}
	if removed > 0 {
		c.persistLocked()
	}
	return removed
}

// todayLocked returns today's bucket, creating it lazily. Callers hold mu.
func (c *Cache) todayLocked() map[string]struct{} {
	today := feed.DayKey(c.clock())
	bucket, ok := c.days[today]
	if !ok {
		bucket = make(map[string]struct{})
		c.days[today] = bucket
	}
	return bucket
}

// The on-disk layout is a single JSON object mapping calendar-day strings
// to sorted arrays of identifiers.
type fileDoc map[string][]string

// loadToday reads the state file, keeping only today's bucket. A missing
// or corrupt file degrades to an empty cache with a warning; the process
// must keep working.
func (c *Cache) loadToday() {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.log.Warn().Err(err).Str("path", c.path).Msg("cannot read dedup state, starting empty")
		}
		return
	}

	var doc fileDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		c.log.Warn().Err(err).Str("path", c.path).Msg("corrupt dedup state, starting empty")
		return
	}

	today := feed.DayKey(c.clock())
	ids, ok := doc[today]
	if !ok {
		return
	}
	bucket := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		bucket[id] = struct{}{}
	}
	c.days[today] = bucket
}

// persistLocked rewrites the state file after a mutation. Failures are
// warnings: the in-memory state stays authoritative for the rest of the
// process lifetime. Callers hold mu; no-op outside file mode.
func (c *Cache) persistLocked() {
	if c.mode != ModeFile {
		return
	}

	doc := make(fileDoc, len(c.days))
	for day, bucket := range c.days {
		ids := make([]string, 0, len(bucket))
		for id := range bucket {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		doc[day] = ids
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		c.log.Warn().Err(err).Msg("cannot marshal dedup state")
		return
	}

	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			c.log.Warn().Err(err).Str("path", c.path).Msg("cannot create dedup state directory")
			return
		}
	}

	// Atomic write via rename, so a crash mid-write never corrupts the
	// document another process may load.
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		c.log.Warn().Err(err).Str("path", tmp).Msg("cannot write dedup state")
		return
	}
	if err := os.Rename(tmp, c.path); err != nil {
		_ = os.Remove(tmp)
		c.log.Warn().Err(err).Str("path", c.path).Msg("cannot replace dedup state")
	}
}
