package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/saas-classifier/internal/fetcher"
	"github.com/sells-group/saas-classifier/internal/pipeline"
	"github.com/sells-group/saas-classifier/internal/scorer"
	"github.com/sells-group/saas-classifier/internal/store"
	"github.com/sells-group/saas-classifier/internal/textextract"
)

// classifierEnv holds the pipeline and the optional fetch stack shared by
// the classify, batch, extract, validate, and serve commands.
type classifierEnv struct {
	Pipeline  *pipeline.Pipeline
	Extractor *textextract.Extractor
	Store     store.Store // nil when the text cache is disabled or unavailable
}

// Close releases the text cache.
func (e *classifierEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initPipeline builds the classification pipeline from config. A non-empty
// taxonomyFile overrides classify.taxonomy_file.
func initPipeline(taxonomyFile string) (*pipeline.Pipeline, error) {
	if taxonomyFile == "" {
		taxonomyFile = cfg.Classify.TaxonomyFile
	}
	var opts []scorer.Option
	if cfg.Classify.Trace {
		opts = append(opts, scorer.WithTrace(scorer.ZapTrace(zap.L())))
	}
	return pipeline.Load(taxonomyFile, cfg.Classify.TopN, opts...)
}

// initEnv builds the pipeline and, when withFetch is set, the HTTP fetcher
// and text extractor backed by the text cache. Callers should defer
// env.Close().
func initEnv(ctx context.Context, taxonomyFile string, withFetch bool) (*classifierEnv, error) {
	p, err := initPipeline(taxonomyFile)
	if err != nil {
		return nil, err
	}
	env := &classifierEnv{Pipeline: p}
	if !withFetch {
		return env, nil
	}

	opts := []textextract.Option{
		textextract.WithPDFExtractor(textextract.NewPdfToText(cfg.Extract.PdfToTextPath)),
	}
	if cfg.Store.Enabled {
		st, err := store.Open(ctx, cfg.StoreOptions())
		if err != nil {
			// Page text can always be refetched, so run uncached.
			zap.L().Warn("text cache unavailable, continuing without it",
				zap.String("driver", cfg.Store.Driver),
				zap.Error(err),
			)
		} else {
			env.Store = st
			opts = append(opts, textextract.WithCache(st, cfg.CacheTTL()))
		}
	}

	env.Extractor = textextract.NewExtractor(fetcher.NewHTTPFetcher(cfg.HTTPOptions()), opts...)
	return env, nil
}
