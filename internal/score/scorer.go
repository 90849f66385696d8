// Package score decides whether an article is relevant enough to forward.
//
// The scorer is a pure function of the article text and the per-source
// lenient flag: no I/O, no hidden state, no errors. Gate order matters and
// is pinned by tests: broad exclusions run first, then (for lenient
// sources) the backend-only exclusion, then the event auto-admit, and only
// then weighted category scoring with the lenient floor applied last
// before the threshold.
package score

import (
	"strings"

	"github.com/hyeonkim/devfeed_bot/internal/feed"
)

// Decision is the scorer's verdict for one article.
type Decision string

const (
	// DecisionExcluded means a hard exclusion pattern fired; the score is 0
	// no matter what else the text contains.
	DecisionExcluded Decision = "excluded"
	// DecisionPass admits the article.
	DecisionPass Decision = "pass"
	// DecisionReject drops the article for scoring below the threshold.
	DecisionReject Decision = "reject"
)

// Thresholds. Lenient sources bias toward over-inclusion: their threshold
// sits roughly 5x below the strict one, and the generic-dev floor alone
// clears it.
const (
	StrictThreshold  = 0.25
	LenientThreshold = 0.05

	lenientFloor = 0.06
	eventScore   = 0.8
)

const (
	// A keyword hit in the title weighs 2.5x a hit in the body: titles are
	// short and deliberate, bodies are noisy.
	titleBoost = 1.5

	// Hits at which a category sub-score saturates at 1.0.
	categorySaturation = 4.0

	// Penalty per weighted hit on the discouraged table. The penalty term
	// itself is unbounded; only the final score is floored at zero.
	discouragedPenalty = 0.08

	toolingWeight = 0.10
)

// Category weights for the four main tables. They sum to 1.0; tooling is
// a smaller additive bonus on top.
var categoryWeights = map[string]float64{
	"primary":    0.35,
	"general":    0.30,
	"adjacent":   0.20,
	"contextual": 0.15,
}

// Result is the ephemeral outcome of scoring one article.
type Result struct {
	Score     float64
	Decision  Decision
	Breakdown map[string]float64 // per-category sub-scores, for logging only
}

// Admitted reports whether the article should be forwarded.
func (r Result) Admitted() bool { return r.Decision == DecisionPass }

// Scorer evaluates article relevance against a fixed keyword table set.
type Scorer struct {
	tables Tables
}

// New builds a scorer with the given tables.
func New(tables Tables) *Scorer {
	return &Scorer{tables: tables}
}

// Default builds a scorer with the built-in tables.
func Default() *Scorer {
	return New(DefaultTables())
}

// Admitted is a convenience wrapper over Score.
func (s *Scorer) Admitted(article feed.Article, lenient bool) bool {
	return s.Score(article, lenient).Admitted()
}

// Score evaluates one article. Missing text fields are treated as empty
// strings; an article with no text scores 0 and is rejected unless a
// lenient gate fires first.
func (s *Scorer) Score(article feed.Article, lenient bool) Result {
	title := strings.ToLower(article.Title)
	text := strings.ToLower(article.RawText)
	if text == "" {
		text = title
	}

	// Gate 1: broad exclusions short-circuit everything.
	if matchesAny(text, s.tables.Exclusions) || matchesAny(title, s.tables.Exclusions) {
		return Result{Score: 0, Decision: DecisionExcluded, Breakdown: map[string]float64{"exclusion": 1}}
	}

	if lenient {
		// Gate 2a: the backend-only exclusion is narrower than gate 1 but
		// must run before the event gate and the floor, or backend-only
		// content with a stray generic keyword would slip through.
		if matchesAny(text, s.tables.BackendOnly) || matchesAny(title, s.tables.BackendOnly) {
			return Result{Score: 0, Decision: DecisionExcluded, Breakdown: map[string]float64{"backend_only": 1}}
		}
		// Gate 2b: community and event content on trusted sources is
		// admitted outright; keyword scarcity must not lose it.
		if matchesAny(text, s.tables.Events) || matchesAny(title, s.tables.Events) {
			return Result{Score: eventScore, Decision: DecisionPass, Breakdown: map[string]float64{"event": 1}}
		}
	}

	breakdown := map[string]float64{
		"primary":    s.categoryScore(title, text, s.tables.Primary),
		"general":    s.categoryScore(title, text, s.tables.General),
		"adjacent":   s.categoryScore(title, text, s.tables.Adjacent),
		"contextual": s.categoryScore(title, text, s.tables.Contextual),
		"tooling":    s.categoryScore(title, text, s.tables.Tooling),
	}

	total := 0.0
	for name, weight := range categoryWeights {
		total += breakdown[name] * weight
	}
	total += breakdown["tooling"] * toolingWeight

	penalty := weightedHits(title, text, s.tables.Discouraged) * discouragedPenalty
	if penalty > 0 {
		breakdown["discouraged"] = -penalty
		total -= penalty
	}

	if total < 0 {
		total = 0
	}

	threshold := StrictThreshold
	if lenient {
		threshold = LenientThreshold
		// The floor keeps keyword-sparse but clearly technical content
		// alive on lenient sources. It applies after every exclusion gate.
		if total < lenientFloor && matchesAny(text, s.tables.GenericDev) {
			total = lenientFloor
			breakdown["floor"] = lenientFloor
		}
	}

	decision := DecisionReject
	if total >= threshold {
		decision = DecisionPass
	}
	return Result{Score: total, Decision: decision, Breakdown: breakdown}
}

// categoryScore normalizes a table's weighted hit count into [0,1].
func (s *Scorer) categoryScore(title, text string, terms []string) float64 {
	hits := weightedHits(title, text, terms)
	if hits <= 0 {
		return 0
	}
	score := hits / categorySaturation
	if score > 1 {
		score = 1
	}
	return score
}

// weightedHits counts term occurrences across the full text, boosting
// title occurrences. The body text includes the title, so a title hit
// contributes 1 + titleBoost = 2.5 total.
func weightedHits(title, text string, terms []string) float64 {
	var hits float64
	for _, term := range terms {
		hits += float64(strings.Count(text, term))
		hits += float64(strings.Count(title, term)) * titleBoost
	}
	return hits
}

func matchesAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
