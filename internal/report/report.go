// Package report renders batch classification results for people: a
// Markdown report for sharing and an aligned table for the terminal.
package report

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/rotisserie/eris"

	"github.com/sells-group/saas-classifier/internal/model"
	"github.com/sells-group/saas-classifier/internal/taxonomy"
)

// CategoryCount is the number of vendors assigned to one category.
type CategoryCount struct {
	Category string
	Count    int
}

// Summarize counts results per category, largest first with ties broken
// by name.
func Summarize(results []model.BatchResult) []CategoryCount {
	counts := make(map[string]int)
	for _, r := range results {
		counts[r.Result.Category]++
	}
	out := make([]CategoryCount, 0, len(counts))
	for c, n := range counts {
		out = append(out, CategoryCount{Category: c, Count: n})
	}
	slices.SortFunc(out, func(a, b CategoryCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
	return out
}

// WriteMarkdown writes a Markdown report with a category summary, a
// mermaid pie chart, and one row per vendor.
func WriteMarkdown(w io.Writer, results []model.BatchResult) error {
	md := markdown.NewMarkdown(w)
	summary := Summarize(results)

	md.H1("SaaS Classification Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Vendors", strconv.Itoa(len(results))},
			{"Categories", strconv.Itoa(len(summary))},
			{"Unclassified", strconv.Itoa(unknownCount(summary))},
		},
	})
	md.PlainText("")

	if len(results) == 0 {
		md.Note("No vendors were classified.")
		return eris.Wrap(md.Build(), "report: write markdown")
	}

	md.H2("Category Distribution")
	md.PlainText("")
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Vendors by Category"),
		piechart.WithShowData(true),
	)
	for _, c := range summary {
		chart.LabelAndIntValue(c.Category, uint64(c.Count))
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")

	if n := unknownCount(summary); n > 0 {
		md.Warningf("%d vendor(s) matched no category and were assigned %q.", n, taxonomy.Unknown)
		md.PlainText("")
	}

	md.H2("Vendors")
	md.PlainText("")
	rows := make([][]string, len(results))
	for i, r := range results {
		rows[i] = []string{
			strconv.Itoa(r.Index + 1),
			displayName(r),
			r.Result.Category,
			formatConfidence(r.Result.Confidence),
			"`" + r.Result.BenchmarkKey + "`",
			strings.Join(r.Result.TopProductNames(), ", "),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "Vendor", "Category", "Confidence", "Benchmark", "Top Products"},
		Rows:   rows,
	})
	md.PlainText("")

	return eris.Wrap(md.Build(), "report: write markdown")
}

// WriteTable writes results as tab-aligned columns.
func WriteTable(out io.Writer, results []model.BatchResult) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tVENDOR\tCATEGORY\tCONFIDENCE\tBENCHMARK\tTOP PRODUCTS")
	_, _ = fmt.Fprintln(w, "-\t------\t--------\t----------\t---------\t------------")

	for _, r := range results {
		name := displayName(r)
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			r.Index+1,
			name,
			r.Result.Category,
			formatConfidence(r.Result.Confidence),
			r.Result.BenchmarkKey,
			strings.Join(r.Result.TopProductNames(), ", "),
		)
	}
	return eris.Wrap(w.Flush(), "report: flush table")
}

func displayName(r model.BatchResult) string {
	if r.Name == "" {
		return "-"
	}
	return r.Name
}

func formatConfidence(c float64) string {
	return strconv.FormatFloat(c*100, 'f', 1, 64) + "%"
}

func unknownCount(summary []CategoryCount) int {
	for _, c := range summary {
		if c.Category == taxonomy.Unknown {
			return c.Count
		}
	}
	return 0
}
