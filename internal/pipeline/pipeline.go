// Package pipeline composes signal extraction, scoring, benchmark
// selection, and product ranking into the public classification entry
// point, plus concurrent batch classification over tabular vendor files.
package pipeline

import (
	"math"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/saas-classifier/internal/benchmark"
	"github.com/sells-group/saas-classifier/internal/model"
	"github.com/sells-group/saas-classifier/internal/ranking"
	"github.com/sells-group/saas-classifier/internal/scorer"
	"github.com/sells-group/saas-classifier/internal/signal"
	"github.com/sells-group/saas-classifier/internal/taxonomy"
)

// Pipeline classifies vendors. It holds only immutable components and is
// safe for concurrent use.
type Pipeline struct {
	engine   *scorer.Engine
	selector *benchmark.Selector
	ranker   *ranking.Ranker
	topN     int
}

// New assembles a Pipeline. Nil components select the package defaults and
// a non-positive topN selects ranking.DefaultTopN.
func New(engine *scorer.Engine, selector *benchmark.Selector, ranker *ranking.Ranker, topN int) *Pipeline {
	if engine == nil {
		engine = scorer.Default()
	}
	if selector == nil {
		selector = benchmark.Default()
	}
	if ranker == nil {
		ranker = ranking.Default()
	}
	if topN <= 0 {
		topN = ranking.DefaultTopN
	}
	return &Pipeline{engine: engine, selector: selector, ranker: ranker, topN: topN}
}

// Load builds a Pipeline from an optional YAML taxonomy file. An empty
// path uses the built-in taxonomy, benchmark table, and catalog.
func Load(path string, topN int, opts ...scorer.Option) (*Pipeline, error) {
	if path == "" {
		return New(scorer.NewEngine(taxonomy.Default(), opts...), nil, nil, topN), nil
	}

	f, err := taxonomy.LoadFile(path)
	if err != nil {
		return nil, err
	}
	tax, err := f.Taxonomy()
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: build taxonomy from %s", path)
	}
	if err := scorer.ValidateWeights(tax.Weights()); err != nil {
		return nil, eris.Wrapf(err, "pipeline: taxonomy %s", path)
	}
	return New(scorer.NewEngine(tax, opts...), benchmark.FromFile(f), ranking.FromFile(f), topN), nil
}

var defaultPipeline = sync.OnceValue(func() *Pipeline {
	return New(nil, nil, nil, ranking.DefaultTopN)
})

// Default returns the shared pipeline over the built-in components.
func Default() *Pipeline {
	return defaultPipeline()
}

// ClassifySaaS classifies a vendor with the default pipeline.
func ClassifySaaS(in model.VendorInput) model.ClassifySaaSResult {
	return Default().ClassifySaaS(in)
}

// Taxonomy returns the taxonomy used for scoring.
func (p *Pipeline) Taxonomy() *taxonomy.Taxonomy {
	return p.engine.Taxonomy()
}

// Selector returns the benchmark selector.
func (p *Pipeline) Selector() *benchmark.Selector {
	return p.selector
}

// Ranker returns the product ranker.
func (p *Pipeline) Ranker() *ranking.Ranker {
	return p.ranker
}

// TopN returns the number of products ranked per classification.
func (p *Pipeline) TopN() int {
	return p.topN
}

// ClassifySaaS classifies a vendor and returns the category, confidence,
// benchmark key, and a category profile with the top ranked products. It
// never fails; an empty input yields taxonomy.Unknown with zero confidence.
func (p *Pipeline) ClassifySaaS(in model.VendorInput) model.ClassifySaaSResult {
	return p.Explain(in).Result
}

// Explain classifies a vendor and also returns the extracted signals and
// the per-category score breakdown.
func (p *Pipeline) Explain(in model.VendorInput) model.Explanation {
	sig := signal.Extract(in)
	res := p.engine.Classify(sig)
	conf := round4(res.Confidence)

	return model.Explanation{
		Result: model.ClassifySaaSResult{
			Category:     res.Category,
			Confidence:   conf,
			BenchmarkKey: p.selector.Key(res.Category),
			CategoryProfile: &model.CategoryProfile{
				CategoryName: res.Category,
				Confidence:   conf,
				TopProducts:  p.ranker.Rank(res.Category, in.Name, sig, p.topN),
			},
		},
		Signals:        sig,
		ScoreBreakdown: res.ScoreBreakdown,
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
