package main

import (
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/saas-classifier/internal/model"
	"github.com/sells-group/saas-classifier/internal/monitoring"
	"github.com/sells-group/saas-classifier/internal/pipeline"
	"github.com/sells-group/saas-classifier/internal/report"
)

// Output formats accepted by --format.
const (
	formatJSON     = "json"
	formatCSV      = "csv"
	formatXLSX     = "xlsx"
	formatMarkdown = "markdown"
	formatTable    = "table"
)

var (
	batchInput       string
	batchOutput      string
	batchFormat      string
	batchConcurrency int
	batchTaxonomy    string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Classify vendors from a CSV, JSONL, or XLSX file",
	Long: "Reads vendors from --input, classifies them concurrently, and writes the results " +
		"in input order as JSON, CSV, XLSX, Markdown, or a table.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if batchConcurrency > 0 {
			cfg.Batch.Concurrency = batchConcurrency
		}
		if err := cfg.Validate("batch"); err != nil {
			return err
		}

		format, err := resolveFormat(batchFormat, batchOutput)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, batchTaxonomy, false)
		if err != nil {
			return err
		}
		defer env.Close()

		vendors, err := pipeline.LoadVendors(ctx, batchInput)
		if err != nil {
			return err
		}

		runID := uuid.New().String()
		log := zap.L().With(zap.String("run_id", runID))
		log.Info("batch: starting",
			zap.String("input", batchInput),
			zap.Int("vendors", len(vendors)),
			zap.Int("concurrency", cfg.Batch.Concurrency),
		)

		metrics := monitoring.NewMetrics()
		metrics.BatchSize.Observe(float64(len(vendors)))

		start := time.Now()
		results, err := env.Pipeline.ClassifyBatch(ctx, vendors, pipeline.BatchOptions{
			Concurrency: cfg.Batch.Concurrency,
			OnResult: func(r model.BatchResult, elapsed time.Duration) {
				metrics.ObserveClassification(monitoring.SourceBatch, r.Result.Category, elapsed)
			},
		})
		if err != nil {
			return err
		}

		if err := writeBatchOutput(cmd.OutOrStdout(), batchOutput, format, results); err != nil {
			return err
		}

		log.Info("batch: complete",
			zap.Int("vendors", len(results)),
			zap.Duration("elapsed", time.Since(start)),
		)
		return nil
	},
}

func init() {
	f := batchCmd.Flags()
	f.StringVarP(&batchInput, "input", "i", "", "vendor file (.csv, .jsonl, .ndjson, or .xlsx)")
	f.StringVarP(&batchOutput, "output", "o", "", "output file (default stdout)")
	f.StringVarP(&batchFormat, "format", "f", "", "output format: json, csv, xlsx, markdown, or table (default from --output extension, else json)")
	f.IntVar(&batchConcurrency, "concurrency", 0, "vendors classified at once (default from config)")
	f.StringVar(&batchTaxonomy, "taxonomy", "", "taxonomy YAML file (default from config)")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}

// resolveFormat picks the output format from the flag or the output file
// extension.
func resolveFormat(format, output string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		switch strings.ToLower(filepath.Ext(output)) {
		case ".csv":
			format = formatCSV
		case ".xlsx":
			format = formatXLSX
		case ".md", ".markdown":
			format = formatMarkdown
		case ".txt":
			format = formatTable
		default:
			format = formatJSON
		}
	}

	switch format {
	case formatJSON, formatCSV, formatMarkdown, formatTable:
		return format, nil
	case formatXLSX:
		if output == "" || output == "-" {
			return "", eris.New("batch: xlsx output requires --output")
		}
		return format, nil
	default:
		return "", eris.Errorf("batch: unknown format %q", format)
	}
}

// writeBatchOutput writes results to output, or to stdout when output is
// empty or "-".
func writeBatchOutput(stdout io.Writer, output, format string, results []model.BatchResult) error {
	if format == formatXLSX {
		return pipeline.WriteXLSX(output, results)
	}

	w := stdout
	if output != "" && output != "-" {
		f, err := os.Create(output)
		if err != nil {
			return eris.Wrapf(err, "batch: create %s", output)
		}
		defer f.Close() //nolint:errcheck
		w = f
	}

	switch format {
	case formatCSV:
		return pipeline.WriteCSV(w, results)
	case formatMarkdown:
		return report.WriteMarkdown(w, results)
	case formatTable:
		return report.WriteTable(w, results)
	case formatJSON:
		return pipeline.WriteJSON(w, results)
	default:
		return eris.Errorf("batch: unknown format %q", format)
	}
}
