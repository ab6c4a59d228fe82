package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/saas-classifier/internal/model"
	"github.com/sells-group/saas-classifier/internal/pipeline"
)

// defaultValidationURLs are well-known vendors with unambiguous categories.
var defaultValidationURLs = []string{
	"https://aws.amazon.com/",
	"https://cloud.google.com/",
	"https://stripe.com/",
}

type urlExtractor interface {
	ExtractURL(ctx context.Context, url string, ct model.ContentType) (*model.Document, error)
}

var validateCmd = &cobra.Command{
	Use:   "validate [url...]",
	Short: "Classify live vendor websites as a sanity check",
	Long: "Fetches each URL, classifies its website text, and prints the category, confidence, " +
		"and ranked products. Defaults to aws.amazon.com, cloud.google.com, and stripe.com. " +
		"A failing URL is reported and the rest still run.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("validate"); err != nil {
			return err
		}

		ctx := cmd.Context()
		env, err := initEnv(ctx, "", true)
		if err != nil {
			return err
		}
		defer env.Close()

		urls := args
		if len(urls) == 0 {
			urls = defaultValidationURLs
		}
		failed := validateURLs(ctx, cmd.OutOrStdout(), env.Extractor, env.Pipeline, urls)
		if failed > 0 {
			zap.L().Warn("validate: some URLs failed", zap.Int("failed", failed), zap.Int("total", len(urls)))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// validateURLs classifies each URL from its website text alone and prints
// one block per URL. It returns the number of URLs that failed.
func validateURLs(ctx context.Context, out io.Writer, ext urlExtractor, p *pipeline.Pipeline, urls []string) int {
	failed := 0
	for _, u := range urls {
		fmt.Fprintln(out, "\n---")
		fmt.Fprintln(out, "url:", u)

		doc, err := ext.ExtractURL(ctx, u, "")
		if err != nil {
			failed++
			fmt.Fprintln(out, "error:", err.Error())
			continue
		}

		res := p.ClassifySaaS(model.VendorInput{WebsiteText: doc.Text})
		fmt.Fprintln(out, "category:", res.Category)
		fmt.Fprintln(out, "confidence:", res.Confidence)
		fmt.Fprintln(out, "ranked_products:", strings.Join(res.TopProductNames(), ", "))
	}
	return failed
}
