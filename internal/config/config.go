package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Lookback window bounds. Values outside this range are configuration
// errors, not something to clamp silently.
const (
	MinLookbackDays = 1
	MaxLookbackDays = 30
)

// Source kinds.
const (
	KindRSS    = "rss"
	KindScrape = "scrape"
)

type (
	// SourcesFile is the top-level shape of the sources YAML document.
	SourcesFile struct {
		Sources []Source `yaml:"sources"`
	}

	// Source describes one logical feed source. Adding a source is a data
	// change: every per-source behavior difference is a field here, not a
	// new type.
	Source struct {
		ID      string   `yaml:"id"`
		Name    string   `yaml:"name"`
		Kind    string   `yaml:"kind"` // rss (default) or scrape
		Feeds   []string `yaml:"feeds,omitempty"`
		PageURL string   `yaml:"page_url,omitempty"`

		// Scrape selectors, used only when kind is "scrape".
		ItemSelector    string `yaml:"item_selector,omitempty"`
		TitleSelector   string `yaml:"title_selector,omitempty"`
		LinkSelector    string `yaml:"link_selector,omitempty"`
		SummarySelector string `yaml:"summary_selector,omitempty"`

		Lenient      bool  `yaml:"lenient,omitempty"`
		Scoring      *bool `yaml:"scoring,omitempty"`       // nil means true
		LookbackDays int   `yaml:"lookback_days,omitempty"` // 0 means use the global window
		Enabled      *bool `yaml:"enabled,omitempty"`       // nil means true
	}

	// SourceError names a source that failed validation.
	SourceError struct {
		ID  string
		Err error
	}
)

// ScoringEnabled reports whether the relevance scorer applies to this
// source. Low-signal sources may disable it and keep everything that
// survives the date window.
func (s Source) ScoringEnabled() bool {
	return s.Scoring == nil || *s.Scoring
}

// IsEnabled reports whether the source participates in runs at all.
func (s Source) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

func (s Source) validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("source id is required")
	}

	kind := s.Kind
	if kind == "" {
		kind = KindRSS
	}

	switch kind {
	case KindRSS:
		if len(s.Feeds) == 0 {
			return fmt.Errorf("rss source %q has no feed URLs", s.ID)
		}
		for _, feed := range s.Feeds {
			if strings.TrimSpace(feed) == "" {
				return fmt.Errorf("rss source %q has an empty feed URL", s.ID)
			}
		}
	case KindScrape:
		if strings.TrimSpace(s.PageURL) == "" {
			return fmt.Errorf("scrape source %q has no page URL", s.ID)
		}
		if s.ItemSelector == "" || s.TitleSelector == "" || s.LinkSelector == "" {
			return fmt.Errorf("scrape source %q needs item, title and link selectors", s.ID)
		}
	default:
		return fmt.Errorf("source %q has unknown kind %q", s.ID, s.Kind)
	}

	if s.LookbackDays != 0 {
		if err := ValidateLookback(s.LookbackDays); err != nil {
			return fmt.Errorf("source %q: %w", s.ID, err)
		}
	}

	return nil
}

// LoadSources reads the sources YAML document.
func LoadSources(path string) (SourcesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SourcesFile{}, fmt.Errorf("read sources config: %w", err)
	}

	var cfg SourcesFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return SourcesFile{}, fmt.Errorf("unmarshal sources config: %w", err)
	}
	return cfg, nil
}

// Validate splits the configured sources into an active set and a list of
// rejected ones. A broken source record excludes only that source; the
// rest proceed. Disabled sources are dropped without an error.
func (f SourcesFile) Validate() (active []Source, rejected []SourceError) {
	seen := make(map[string]struct{}, len(f.Sources))
	for _, src := range f.Sources {
		if err := src.validate(); err != nil {
			rejected = append(rejected, SourceError{ID: src.ID, Err: err})
			continue
		}
		if _, dup := seen[src.ID]; dup {
			rejected = append(rejected, SourceError{ID: src.ID, Err: fmt.Errorf("duplicate source id %q", src.ID)})
			continue
		}
		seen[src.ID] = struct{}{}
		if !src.IsEnabled() {
			continue
		}
		active = append(active, src)
	}
	return active, rejected
}

// ValidateLookback checks the lookback-window bounds shared by the CLI
// flag, the environment default and per-source overrides.
func ValidateLookback(days int) error {
	if days < MinLookbackDays || days > MaxLookbackDays {
		return fmt.Errorf("lookback window must be between %d and %d days, got %d",
			MinLookbackDays, MaxLookbackDays, days)
	}
	return nil
}

// Env carries process-level configuration, read once at startup.
type Env struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	WebhookURL string `envconfig:"WEBHOOK_URL" default:""`
	DryRun     bool   `envconfig:"DRY_RUN" default:"false"`

	CacheMode string `envconfig:"CACHE_MODE" default:"file"` // bypass, memory or file
	StateDir  string `envconfig:"STATE_DIR" default:"state"`

	Schedule      string        `envconfig:"SCHEDULE" default:"0 * * * *"`
	LookbackDays  int           `envconfig:"LOOKBACK_DAYS" default:"2"`
	BatchSize     int           `envconfig:"BATCH_SIZE" default:"3"`
	SourceTimeout time.Duration `envconfig:"SOURCE_TIMEOUT" default:"90s"`
}

// Validate checks the cross-field constraints envconfig tags can't express.
// The webhook-URL requirement is deliberately not checked here: dry-run can
// still be enabled by a CLI flag after the environment is loaded, so that
// check belongs to whoever assembles the process.
func (e Env) Validate() error {
	switch e.CacheMode {
	case "bypass", "memory", "file":
	default:
		return fmt.Errorf("CACHE_MODE must be bypass, memory or file, got %q", e.CacheMode)
	}
	if err := ValidateLookback(e.LookbackDays); err != nil {
		return err
	}
	if e.BatchSize < 1 {
		return fmt.Errorf("BATCH_SIZE must be >= 1, got %d", e.BatchSize)
	}
	if e.SourceTimeout <= 0 {
		return fmt.Errorf("SOURCE_TIMEOUT must be positive, got %s", e.SourceTimeout)
	}
	return nil
}
