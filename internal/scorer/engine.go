// Package scorer implements weighted keyword scoring of vendor signals
// against the category taxonomy.
package scorer

import (
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/sells-group/saas-classifier/internal/model"
	"github.com/sells-group/saas-classifier/internal/taxonomy"
)

// compiledCategory holds the normalized lookup sets for one category.
type compiledCategory struct {
	id        string
	keywords  map[string]struct{}
	triggers  map[string]struct{}
	negatives map[string]struct{}
	// triggerList is triggers in sorted order for substring matching.
	triggerList []string
	// phrases are multi-word keywords in taxonomy order. Duplicates count.
	phrases []string
	payments bool
}

// Engine scores ExtractedSignals against every category of a taxonomy.
// An Engine is immutable after construction and safe for concurrent use.
type Engine struct {
	tax        *taxonomy.Taxonomy
	weights    taxonomy.Weights
	categories []compiledCategory
	trace      TraceFunc
}

// Option configures an Engine.
type Option func(*Engine)

// WithTrace installs a callback invoked once per category on every Classify.
func WithTrace(fn TraceFunc) Option {
	return func(e *Engine) {
		e.trace = fn
	}
}

// NewEngine compiles the taxonomy into an Engine. A nil taxonomy selects
// taxonomy.Default.
func NewEngine(tax *taxonomy.Taxonomy, opts ...Option) *Engine {
	if tax == nil {
		tax = taxonomy.Default()
	}
	e := &Engine{
		tax:     tax,
		weights: tax.Weights(),
	}
	for _, c := range tax.Categories() {
		e.categories = append(e.categories, compile(c))
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEngine = sync.OnceValue(func() *Engine {
	return NewEngine(taxonomy.Default())
})

// Default returns the shared engine over the built-in taxonomy.
func Default() *Engine {
	return defaultEngine()
}

// Classify scores signals with the default engine.
func Classify(sig model.ExtractedSignals) model.ClassificationResult {
	return Default().Classify(sig)
}

// Taxonomy returns the taxonomy the engine was built from.
func (e *Engine) Taxonomy() *taxonomy.Taxonomy {
	return e.tax
}

func normalizeKeyword(k string) string {
	return strings.TrimSpace(strings.ToLower(k))
}

func keywordSet(list []string) map[string]struct{} {
	set := make(map[string]struct{}, len(list))
	for _, k := range list {
		if n := normalizeKeyword(k); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

func compile(c taxonomy.Category) compiledCategory {
	cc := compiledCategory{
		id:        c.ID,
		keywords:  keywordSet(c.Keywords),
		triggers:  keywordSet(c.MetadataTriggers),
		negatives: keywordSet(c.NegativeSignals),
		payments:  c.ID == taxonomy.Payments,
	}
	for t := range cc.triggers {
		cc.triggerList = append(cc.triggerList, t)
	}
	sort.Strings(cc.triggerList)
	for _, k := range c.Keywords {
		if p := normalizeKeyword(k); strings.Contains(p, " ") {
			cc.phrases = append(cc.phrases, p)
		}
	}
	return cc
}

// sortedSignals is ExtractedSignals with each set flattened once per call.
type sortedSignals struct {
	tokens []string
	meta   []string
	tags   []string
	text   string
}

// Classify scores every category and returns the winner, the confidence,
// and the per-category breakdown. Ties keep the earlier category in
// taxonomy order; when nothing scores above zero the category is Unknown.
func (e *Engine) Classify(sig model.ExtractedSignals) model.ClassificationResult {
	ss := sortedSignals{
		tokens: sig.WebsiteTokens.Sorted(),
		meta:   sig.MetadataValues.Sorted(),
		tags:   sig.ProductTags.Sorted(),
		text:   sig.WebsiteTextNormalized,
	}

	bestCategory := taxonomy.Unknown
	var best, second float64
	breakdown := make(map[string]model.ScoreBreakdown, len(e.categories))

	for i := range e.categories {
		c := &e.categories[i]
		tr := e.score(c, &ss)
		breakdown[c.id] = model.ScoreBreakdown{
			WebsiteKeywordScore: round2(tr.TokenScore + tr.PhraseScore),
			MetadataMatchScore:  round2(tr.MetadataScore),
			ProductTagScore:     round2(tr.ProductTagScore),
			NegativePenalty:     negate(round2(tr.Penalty)),
			TotalRaw:            round2(tr.Total),
		}
		if e.trace != nil {
			e.trace(tr)
		}

		switch {
		case tr.Total > best:
			second = best
			best = tr.Total
			bestCategory = c.id
		case tr.Total > second:
			second = tr.Total
		}
	}

	return model.ClassificationResult{
		Category:       bestCategory,
		Confidence:     Confidence(best, second),
		ScoreBreakdown: breakdown,
	}
}

func (e *Engine) score(c *compiledCategory, ss *sortedSignals) CategoryTrace {
	w := e.weights
	tr := CategoryTrace{Category: c.id}

	for _, tok := range ss.tokens {
		if _, ok := c.keywords[tok]; !ok {
			continue
		}
		inc := w.WebsiteKeyword
		if c.payments && taxonomy.IsGenericPaymentsToken(tok) {
			inc *= w.GenericPaymentsMultiplier
		}
		tr.TokenScore += inc
	}

	for _, p := range c.phrases {
		if strings.Contains(ss.text, p) {
			tr.PhraseScore += w.WebsitePhrase
		}
	}

	for _, v := range ss.meta {
		if matchesTrigger(c, v) {
			tr.MetadataScore += w.MetadataMatch
		}
	}

	for _, tag := range ss.tags {
		_, kw := c.keywords[tag]
		_, trig := c.triggers[tag]
		if kw || trig {
			tr.ProductTagScore += w.ExactProductTag
		}
	}

	for _, set := range [][]string{ss.tokens, ss.meta, ss.tags} {
		for _, v := range set {
			if _, ok := c.negatives[v]; ok {
				tr.Penalty += w.NegativeSignalPenalty
			}
		}
	}

	tr.Total = math.Max(0, tr.TokenScore+tr.PhraseScore+tr.MetadataScore+tr.ProductTagScore-tr.Penalty)
	return tr
}

// matchesTrigger reports whether v equals a trigger or contains one.
func matchesTrigger(c *compiledCategory, v string) bool {
	if _, ok := c.triggers[v]; ok {
		return true
	}
	for _, t := range c.triggerList {
		if strings.Contains(v, t) {
			return true
		}
	}
	return false
}

// Confidence returns best/(best+second) clamped to [0,1], or 0 when best
// is not positive.
func Confidence(best, second float64) float64 {
	if best <= 0 {
		return 0
	}
	return math.Max(0, math.Min(1, best/(best+second)))
}

// round2 rounds to 2 decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func negate(v float64) float64 {
	if v == 0 {
		return 0
	}
	return -v
}
