package scorer

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/saas-classifier/internal/taxonomy"
)

// ValidateWeights checks that scoring weights are usable: all non-negative,
// the generic payments multiplier within [0,1], and at least one positive
// evidence weight.
func ValidateWeights(w taxonomy.Weights) error {
	var errs []string

	if err := w.Validate(); err != nil {
		errs = append(errs, err.Error())
	}

	if w.GenericPaymentsMultiplier > 1 {
		errs = append(errs, fmt.Sprintf("generic_payments_multiplier must be <= 1, got %.2f", w.GenericPaymentsMultiplier))
	}

	sum := w.WebsiteKeyword + w.WebsitePhrase + w.MetadataMatch + w.ExactProductTag
	if sum <= 0 {
		errs = append(errs, "at least one evidence weight must be > 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: weight validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
