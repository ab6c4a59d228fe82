package main

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/saas-classifier/internal/model"
	"github.com/sells-group/saas-classifier/internal/textextract"
)

var (
	classifyName        string
	classifyDescription string
	classifyText        string
	classifyTextFile    string
	classifyTags        []string
	classifyMetadata    string
	classifyURL         string
	classifyContentType string
	classifyExplain     bool
	classifyTaxonomy    string
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify a single vendor",
	Long: "Classifies one vendor from flags. With --url the page is fetched and its text " +
		"is appended to the website text before scoring.",
	Example: `  saas-classifier classify --name Stripe --description "Payments API" --tags payments,api
  saas-classifier classify --url https://stripe.com --explain`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("classify"); err != nil {
			return err
		}

		in, err := buildVendorInput()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		env, err := initEnv(ctx, classifyTaxonomy, classifyURL != "")
		if err != nil {
			return err
		}
		defer env.Close()

		if classifyURL != "" {
			ct, err := textextract.ParseContentType(classifyContentType)
			if err != nil {
				return err
			}
			doc, err := env.Extractor.ExtractURL(ctx, classifyURL, ct)
			if err != nil {
				return eris.Wrapf(err, "classify: fetch %s", classifyURL)
			}
			in.WebsiteText = strings.TrimSpace(in.WebsiteText + " " + doc.Text)
		}
		if in.IsEmpty() {
			zap.L().Warn("classify: no vendor text, tags, or metadata given")
		}

		start := time.Now()
		var out any
		if classifyExplain {
			out = env.Pipeline.Explain(in)
		} else {
			out = env.Pipeline.ClassifySaaS(in)
		}
		zap.L().Debug("classified vendor",
			zap.String("name", in.Name),
			zap.Duration("elapsed", time.Since(start)),
		)
		return writeIndentedJSON(cmd.OutOrStdout(), out)
	},
}

func init() {
	f := classifyCmd.Flags()
	f.StringVar(&classifyName, "name", "", "vendor name")
	f.StringVar(&classifyDescription, "description", "", "vendor description")
	f.StringVar(&classifyText, "text", "", "website text")
	f.StringVar(&classifyTextFile, "text-file", "", "read website text from a file (- for stdin)")
	f.StringSliceVar(&classifyTags, "tags", nil, "product tags (comma-separated)")
	f.StringVar(&classifyMetadata, "metadata", "", `metadata as a JSON object, e.g. '{"industry":"fintech"}'`)
	f.StringVar(&classifyURL, "url", "", "fetch website text from this URL")
	f.StringVar(&classifyContentType, "content-type", "", "content type of --url: html, pdf, or text (default: detect)")
	f.BoolVar(&classifyExplain, "explain", false, "include extracted signals and the per-category score breakdown")
	f.StringVar(&classifyTaxonomy, "taxonomy", "", "taxonomy YAML file (default from config)")
	rootCmd.AddCommand(classifyCmd)
}

// buildVendorInput assembles a VendorInput from the classify flags.
func buildVendorInput() (model.VendorInput, error) {
	in := model.VendorInput{
		Name:        classifyName,
		Description: classifyDescription,
		WebsiteText: classifyText,
		ProductTags: classifyTags,
	}

	if classifyTextFile != "" {
		text, err := readTextFile(classifyTextFile)
		if err != nil {
			return in, err
		}
		in.WebsiteText = strings.TrimSpace(in.WebsiteText + " " + text)
	}

	md, err := parseMetadata(classifyMetadata)
	if err != nil {
		return in, err
	}
	in.Metadata = md
	return in, nil
}

func readTextFile(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", eris.Wrapf(err, "read text file %s", path)
	}
	return string(data), nil
}

// parseMetadata decodes a JSON object of metadata values. Empty input
// yields nil.
func parseMetadata(raw string) (map[string]model.MetadataValue, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var md map[string]model.MetadataValue
	if err := json.Unmarshal([]byte(raw), &md); err != nil {
		return nil, eris.Wrap(err, "parse --metadata: expected a JSON object")
	}
	return md, nil
}

func writeIndentedJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
