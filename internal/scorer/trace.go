package scorer

import "go.uber.org/zap"

// CategoryTrace is the unrounded score detail for one category.
type CategoryTrace struct {
	Category        string  `json:"category"`
	TokenScore      float64 `json:"token_score"`
	PhraseScore     float64 `json:"phrase_score"`
	MetadataScore   float64 `json:"metadata_score"`
	ProductTagScore float64 `json:"product_tag_score"`
	Penalty         float64 `json:"penalty"`
	Total           float64 `json:"total"`
}

// TraceFunc receives per-category score detail during Classify. It is
// called synchronously from the classifying goroutine.
type TraceFunc func(CategoryTrace)

// ZapTrace returns a TraceFunc that writes each category trace to logger at
// debug level.
func ZapTrace(logger *zap.Logger) TraceFunc {
	if logger == nil {
		logger = zap.L()
	}
	return func(tr CategoryTrace) {
		logger.Debug("scorer: category score",
			zap.String("category", tr.Category),
			zap.Float64("token_score", tr.TokenScore),
			zap.Float64("phrase_score", tr.PhraseScore),
			zap.Float64("metadata_score", tr.MetadataScore),
			zap.Float64("product_tag_score", tr.ProductTagScore),
			zap.Float64("penalty", tr.Penalty),
			zap.Float64("total", tr.Total),
		)
	}
}
