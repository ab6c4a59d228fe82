// Package taxonomy holds the ordered set of SaaS categories with their
// keywords, metadata triggers, negative signals, and scoring weights.
package taxonomy

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
)

// Unknown is the sentinel category reported when no category scores above zero.
const Unknown = "Unknown"

// Category is one entry in the taxonomy.
type Category struct {
	ID               string   `json:"id" yaml:"id"`
	Keywords         []string `json:"keywords" yaml:"keywords"`
	MetadataTriggers []string `json:"metadata_triggers" yaml:"metadata_triggers"`
	NegativeSignals  []string `json:"negative_signals" yaml:"negative_signals"`
}

func (c Category) clone() Category {
	return Category{
		ID:               c.ID,
		Keywords:         slices.Clone(c.Keywords),
		MetadataTriggers: slices.Clone(c.MetadataTriggers),
		NegativeSignals:  slices.Clone(c.NegativeSignals),
	}
}

// Taxonomy is an immutable, ordered list of categories plus weights. The
// category order decides ties during classification. All accessors return
// copies so callers cannot mutate a shared Taxonomy.
type Taxonomy struct {
	categories []Category
	weights    Weights
	index      map[string]int
}

// New validates the categories and weights and returns a Taxonomy. Category
// IDs must be non-empty, unique, and distinct from Unknown.
func New(categories []Category, weights Weights) (*Taxonomy, error) {
	var errs []string
	if len(categories) == 0 {
		errs = append(errs, "at least one category is required")
	}

	index := make(map[string]int, len(categories))
	cats := make([]Category, 0, len(categories))
	for i, c := range categories {
		id := strings.TrimSpace(c.ID)
		switch {
		case id == "":
			errs = append(errs, fmt.Sprintf("category %d has an empty id", i))
			continue
		case id == Unknown:
			errs = append(errs, fmt.Sprintf("category id %q is reserved", Unknown))
			continue
		}
		if _, dup := index[id]; dup {
			errs = append(errs, fmt.Sprintf("duplicate category id %q", id))
			continue
		}
		cc := c.clone()
		cc.ID = id
		index[id] = len(cats)
		cats = append(cats, cc)
	}

	if err := weights.Validate(); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return nil, eris.Errorf("taxonomy: validation failed: %s", strings.Join(errs, "; "))
	}
	return &Taxonomy{categories: cats, weights: weights, index: index}, nil
}

// Categories returns a deep copy of the categories in taxonomy order.
func (t *Taxonomy) Categories() []Category {
	out := make([]Category, len(t.categories))
	for i, c := range t.categories {
		out[i] = c.clone()
	}
	return out
}

// Category returns a copy of the category with the given ID.
func (t *Taxonomy) Category(id string) (Category, bool) {
	i, ok := t.index[id]
	if !ok {
		return Category{}, false
	}
	return t.categories[i].clone(), true
}

// Has reports whether the taxonomy defines a category with the given ID.
func (t *Taxonomy) Has(id string) bool {
	_, ok := t.index[id]
	return ok
}

// IDs returns the category IDs in taxonomy order.
func (t *Taxonomy) IDs() []string {
	out := make([]string, len(t.categories))
	for i, c := range t.categories {
		out[i] = c.ID
	}
	return out
}

// Len returns the number of categories.
func (t *Taxonomy) Len() int {
	return len(t.categories)
}

// Weights returns the scoring weights.
func (t *Taxonomy) Weights() Weights {
	return t.weights
}
