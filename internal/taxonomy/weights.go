package taxonomy

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Weights are the scoring constants applied by the classification engine.
type Weights struct {
	WebsiteKeyword            float64 `json:"website_keyword" yaml:"website_keyword"`
	WebsitePhrase             float64 `json:"website_phrase" yaml:"website_phrase"`
	MetadataMatch             float64 `json:"metadata_match" yaml:"metadata_match"`
	ExactProductTag           float64 `json:"exact_product_tag" yaml:"exact_product_tag"`
	NegativeSignalPenalty     float64 `json:"negative_signal_penalty" yaml:"negative_signal_penalty"`
	GenericPaymentsMultiplier float64 `json:"generic_payments_multiplier" yaml:"generic_payments_multiplier"`
}

// DefaultWeights returns the built-in scoring weights. Phrase matches weigh
// twice a single token.
func DefaultWeights() Weights {
	return Weights{
		WebsiteKeyword:            1.0,
		WebsitePhrase:             2.0,
		MetadataMatch:             1.5,
		ExactProductTag:           2.0,
		NegativeSignalPenalty:     2.0,
		GenericPaymentsMultiplier: 0.25,
	}
}

// Validate checks that every weight is non-negative.
func (w Weights) Validate() error {
	var errs []string

	fields := []struct {
		name  string
		value float64
	}{
		{"website_keyword", w.WebsiteKeyword},
		{"website_phrase", w.WebsitePhrase},
		{"metadata_match", w.MetadataMatch},
		{"exact_product_tag", w.ExactProductTag},
		{"negative_signal_penalty", w.NegativeSignalPenalty},
		{"generic_payments_multiplier", w.GenericPaymentsMultiplier},
	}
	for _, f := range fields {
		if f.value < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", f.name))
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("weights: %s", strings.Join(errs, "; "))
	}
	return nil
}
