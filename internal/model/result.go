package model

// ScoreBreakdown holds the per-category score components, rounded to two
// decimals. NegativePenalty is zero or negative.
type ScoreBreakdown struct {
	WebsiteKeywordScore float64 `json:"website_keyword_score"`
	MetadataMatchScore  float64 `json:"metadata_match_score"`
	ProductTagScore     float64 `json:"product_tag_score"`
	NegativePenalty     float64 `json:"negative_penalty"`
	TotalRaw            float64 `json:"total_raw"`
}

// ClassificationResult is the scoring engine output.
type ClassificationResult struct {
	Category       string                    `json:"category"`
	Confidence     float64                   `json:"confidence"`
	ScoreBreakdown map[string]ScoreBreakdown `json:"score_breakdown"`
}

// RankedProduct is an example product scored against the vendor signals.
type RankedProduct struct {
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// CategoryProfile is the extended output attached to a classification.
type CategoryProfile struct {
	CategoryName string          `json:"category_name"`
	Confidence   float64         `json:"confidence"`
	TopProducts  []RankedProduct `json:"top_products"`
}

// ClassifySaaSResult is the public classification result.
type ClassifySaaSResult struct {
	Category        string           `json:"category"`
	Confidence      float64          `json:"confidence"`
	BenchmarkKey    string           `json:"benchmark_key"`
	CategoryProfile *CategoryProfile `json:"category_profile,omitempty"`
}

// Explanation pairs a public result with the signals and per-category
// breakdown it was derived from.
type Explanation struct {
	Result         ClassifySaaSResult        `json:"result"`
	Signals        ExtractedSignals          `json:"signals"`
	ScoreBreakdown map[string]ScoreBreakdown `json:"score_breakdown"`
}

// BatchResult is the classification of one vendor from a batch, tagged
// with its position in the input.
type BatchResult struct {
	Index  int                `json:"index"`
	Name   string             `json:"name"`
	Result ClassifySaaSResult `json:"result"`
}

// TopProductNames returns the names of the ranked products, best first.
func (r ClassifySaaSResult) TopProductNames() []string {
	if r.CategoryProfile == nil {
		return nil
	}
	out := make([]string, 0, len(r.CategoryProfile.TopProducts))
	for _, p := range r.CategoryProfile.TopProducts {
		out = append(out, p.Name)
	}
	return out
}
