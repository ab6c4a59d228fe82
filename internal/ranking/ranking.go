// Package ranking scores a category's example products against vendor
// signals with deterministic string, token, and phrase matching.
package ranking

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/sells-group/saas-classifier/internal/model"
	"github.com/sells-group/saas-classifier/internal/signal"
	"github.com/sells-group/saas-classifier/internal/taxonomy"
)

// Score components.
const (
	BaselineScore       = 1.0
	PhraseMatchBonus    = 3.0
	TokenHitBonus       = 0.5
	MaxTokenBonus       = 1.5
	VendorEqualBonus    = 2.0
	VendorSimilarBonus  = 1.0
	DefaultTopN         = 3
	reasonBaseline      = "category alignment"
	reasonNamePhrase    = "name phrase match in website text"
	reasonVendorEqual   = "vendor name equals product"
	reasonVendorSimilar = "vendor name similar to product"
)

// DefaultCatalog returns a fresh copy of the built-in example products.
func DefaultCatalog() map[string][]model.Product {
	names := func(ns ...string) []model.Product {
		out := make([]model.Product, len(ns))
		for i, n := range ns {
			out[i] = model.Product{Name: n}
		}
		return out
	}
	return map[string][]model.Product{
		"Infrastructure": {
			{Name: "AWS", Aliases: []string{"amazon web services", "aws"}},
			{Name: "GCP", Aliases: []string{"google cloud", "google cloud platform", "gcp"}},
			{Name: "Azure", Aliases: []string{"microsoft azure", "azure"}},
		},
		"Payments":             names("Stripe", "Square", "PayPal"),
		"DevTools":             names("GitHub", "GitLab", "Vercel"),
		"CRM":                  names("Salesforce", "HubSpot", "Pipedrive"),
		"Analytics":            names("Mixpanel", "Amplitude", "Looker"),
		"Marketing Automation": names("Marketo", "Mailchimp", "HubSpot Marketing Hub"),
		"HRTech":               names("Workday", "BambooHR", "Greenhouse"),
		"Cybersecurity":        names("Okta", "CrowdStrike", "Palo Alto Networks"),
		"Collaboration":        names("Slack", "Notion", "Asana"),
	}
}

// Ranker ranks example products. It is immutable and safe for concurrent
// use.
type Ranker struct {
	catalog map[string][]model.Product
}

// NewRanker deep-copies catalog.
func NewRanker(catalog map[string][]model.Product) *Ranker {
	r := &Ranker{catalog: make(map[string][]model.Product, len(catalog))}
	for cat, products := range catalog {
		r.catalog[cat] = cloneProducts(products)
	}
	return r
}

// FromFile builds a Ranker from the default catalog with the file's
// products section replacing whole categories.
func FromFile(f *taxonomy.File) *Ranker {
	catalog := DefaultCatalog()
	if f != nil {
		maps.Copy(catalog, f.Products)
	}
	return NewRanker(catalog)
}

var defaultRanker = sync.OnceValue(func() *Ranker {
	return NewRanker(DefaultCatalog())
})

// Default returns the shared ranker over DefaultCatalog.
func Default() *Ranker {
	return defaultRanker()
}

// Rank ranks products with the default catalog.
func Rank(category, vendorName string, sig model.ExtractedSignals, topN int) []model.RankedProduct {
	return Default().Rank(category, vendorName, sig, topN)
}

// Products returns a copy of the products listed for category.
func (r *Ranker) Products(category string) []model.Product {
	return cloneProducts(r.catalog[category])
}

// Rank scores every product listed for category and returns at most topN,
// ordered by score descending then case-insensitive name. The result is
// empty, never nil, when the category has no products or topN <= 0.
func (r *Ranker) Rank(category, vendorName string, sig model.ExtractedSignals, topN int) []model.RankedProduct {
	products := r.catalog[category]
	if len(products) == 0 || topN <= 0 {
		return []model.RankedProduct{}
	}

	vendor := signal.Normalize(vendorName)
	ranked := make([]model.RankedProduct, 0, len(products))
	for _, p := range products {
		ranked = append(ranked, scoreProduct(p, vendor, sig))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return strings.ToLower(ranked[i].Name) < strings.ToLower(ranked[j].Name)
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

func scoreProduct(p model.Product, vendor string, sig model.ExtractedSignals) model.RankedProduct {
	name := signal.Normalize(p.Name)
	score := BaselineScore
	reasons := []string{reasonBaseline}

	candidates := phraseCandidates(name, p.Aliases)

	if matched, ok := firstPhraseMatch(candidates, sig.WebsiteTextNormalized); ok {
		score += PhraseMatchBonus
		if matched == name {
			reasons = append(reasons, reasonNamePhrase)
		} else {
			reasons = append(reasons, fmt.Sprintf("alias phrase match (%s)", matched))
		}
	} else if hits := tokenHits(candidates, sig.WebsiteTokens); hits > 0 {
		score += math.Min(MaxTokenBonus, TokenHitBonus*float64(hits))
		reasons = append(reasons, fmt.Sprintf("token match (%d)", hits))
	}

	if vendor != "" && name != "" {
		switch {
		case vendor == name:
			score += VendorEqualBonus
			reasons = append(reasons, reasonVendorEqual)
		case strings.Contains(name, vendor) || strings.Contains(vendor, name):
			score += VendorSimilarBonus
			reasons = append(reasons, reasonVendorSimilar)
		}
	}

	return model.RankedProduct{
		Name:   p.Name,
		Score:  math.Round(score*1000) / 1000,
		Reason: strings.Join(reasons, "; "),
	}
}

// phraseCandidates is the normalized name followed by normalized aliases
// that are non-empty and differ from the name.
func phraseCandidates(name string, aliases []string) []string {
	out := []string{name}
	for _, a := range aliases {
		if n := signal.Normalize(a); n != "" && n != name {
			out = append(out, n)
		}
	}
	return out
}

func firstPhraseMatch(candidates []string, text string) (string, bool) {
	for _, c := range candidates {
		if c != "" && strings.Contains(text, c) {
			return c, true
		}
	}
	return "", false
}

// tokenHits counts candidate words found in tokens. Repeated words count
// each time they appear.
func tokenHits(candidates []string, tokens model.StringSet) int {
	hits := 0
	for _, c := range candidates {
		for _, w := range strings.Split(c, " ") {
			if w != "" && tokens.Has(w) {
				hits++
			}
		}
	}
	return hits
}

func cloneProducts(in []model.Product) []model.Product {
	if in == nil {
		return nil
	}
	out := make([]model.Product, len(in))
	for i, p := range in {
		out[i] = model.Product{Name: p.Name, Aliases: slices.Clone(p.Aliases)}
	}
	return out
}
