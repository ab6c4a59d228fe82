package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/saas-classifier/internal/pipeline"
)

var (
	taxonomyPath string
	taxonomyJSON bool
)

var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy",
	Short: "Print the categories, weights, and benchmark keys",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := initPipeline(taxonomyPath)
		if err != nil {
			return err
		}
		if taxonomyJSON {
			tax := p.Taxonomy()
			return writeIndentedJSON(cmd.OutOrStdout(), map[string]any{
				"categories": tax.Categories(),
				"weights":    tax.Weights(),
				"benchmarks": p.Selector().Table(),
			})
		}
		return writeTaxonomyTable(cmd.OutOrStdout(), p)
	},
}

func init() {
	taxonomyCmd.Flags().StringVar(&taxonomyPath, "taxonomy", "", "taxonomy YAML file (default from config)")
	taxonomyCmd.Flags().BoolVar(&taxonomyJSON, "json", false, "print as JSON")
	rootCmd.AddCommand(taxonomyCmd)
}

func writeTaxonomyTable(out io.Writer, p *pipeline.Pipeline) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tKEYWORDS\tTRIGGERS\tNEGATIVES\tBENCHMARK")
	fmt.Fprintln(w, "--------\t--------\t--------\t---------\t---------")
	for _, c := range p.Taxonomy().Categories() {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n",
			c.ID,
			len(c.Keywords),
			len(c.MetadataTriggers),
			len(c.NegativeSignals),
			p.Selector().Key(c.ID),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	wt := p.Taxonomy().Weights()
	_, err := fmt.Fprintf(out, "\nweights: keyword=%g phrase=%g metadata=%g tag=%g negative=%g generic_payments=%g\n",
		wt.WebsiteKeyword, wt.WebsitePhrase, wt.MetadataMatch,
		wt.ExactProductTag, wt.NegativeSignalPenalty, wt.GenericPaymentsMultiplier)
	return err
}
