package pipeline

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/saas-classifier/internal/fetcher"
	"github.com/sells-group/saas-classifier/internal/model"
)

// InputFormat is the encoding of a vendor batch file.
type InputFormat string

// Supported batch input formats.
const (
	InputCSV   InputFormat = "csv"
	InputJSONL InputFormat = "jsonl"
	InputXLSX  InputFormat = "xlsx"
)

// DefaultConcurrency is the batch worker limit when none is configured.
const DefaultConcurrency = 4

// maxJSONLLine bounds a single JSONL record, which may carry a full page of
// website text.
const maxJSONLLine = 16 << 20

// Column names recognized in CSV and XLSX headers.
const (
	colName        = "name"
	colDescription = "description"
	colWebsiteText = "website_text"
	colProductTags = "product_tags"
	colMetadata    = "metadata"
)

// headerAliases maps alternate header spellings to canonical column names.
var headerAliases = map[string]string{
	"vendor":       colName,
	"vendor_name":  colName,
	"website":      colWebsiteText,
	"website text": colWebsiteText,
	"tags":         colProductTags,
	"product tags": colProductTags,
}

// DetectInputFormat picks a format from the file extension.
func DetectInputFormat(path string) (InputFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return InputCSV, nil
	case ".jsonl", ".ndjson":
		return InputJSONL, nil
	case ".xlsx":
		return InputXLSX, nil
	default:
		return "", eris.Errorf("pipeline: unsupported input file %q (want .csv, .jsonl, or .xlsx)", path)
	}
}

// LoadVendors reads every vendor record from a CSV, JSONL, or XLSX file.
func LoadVendors(ctx context.Context, path string) ([]model.VendorInput, error) {
	format, err := DetectInputFormat(path)
	if err != nil {
		return nil, err
	}

	if format == InputXLSX {
		return ReadVendorsXLSX(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: open %s", path)
	}
	defer f.Close()

	if format == InputJSONL {
		return ReadVendorsJSONL(f)
	}
	return ReadVendorsCSV(ctx, f)
}

// ReadVendorsCSV parses vendor rows from CSV with a header row. Product
// tags are separated by ";" and metadata is a JSON object.
func ReadVendorsCSV(ctx context.Context, r io.Reader) ([]model.VendorInput, error) {
	headerCh := make(chan []string, 1)
	rowCh, errCh := fetcher.StreamCSV(ctx, r, fetcher.CSVOptions{
		HasHeader:  true,
		HeaderCh:   headerCh,
		LazyQuotes: true,
		TrimSpace:  true,
	})

	var (
		cols    columns
		vendors []model.VendorInput
		line    = 1
	)
	for row := range rowCh {
		line++
		if cols == nil {
			var err error
			if cols, err = parseHeader(<-headerCh); err != nil {
				drain(rowCh)
				return nil, err
			}
		}
		v, err := cols.vendor(row)
		if err != nil {
			drain(rowCh)
			return nil, eris.Wrapf(err, "pipeline: csv line %d", line)
		}
		vendors = append(vendors, v)
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrap(err, "pipeline: read vendor csv")
	}
	// A header with no data rows is still validated.
	if cols == nil {
		select {
		case header := <-headerCh:
			if _, err := parseHeader(header); err != nil {
				return nil, err
			}
		default:
		}
	}
	return vendors, nil
}

// ReadVendorsXLSX parses vendor rows from the first sheet of an XLSX file.
// The first row is the header.
func ReadVendorsXLSX(path string) ([]model.VendorInput, error) {
	rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: read vendor xlsx")
	}
	if len(rows) == 0 {
		return nil, nil
	}

	cols, err := parseHeader(rows[0])
	if err != nil {
		return nil, err
	}
	vendors := make([]model.VendorInput, 0, len(rows)-1)
	for i, row := range rows[1:] {
		v, err := cols.vendor(row)
		if err != nil {
			return nil, eris.Wrapf(err, "pipeline: xlsx row %d", i+2)
		}
		vendors = append(vendors, v)
	}
	return vendors, nil
}

// ReadVendorsJSONL parses one VendorInput JSON object per line. Blank lines
// are skipped.
func ReadVendorsJSONL(r io.Reader) ([]model.VendorInput, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxJSONLLine)

	var vendors []model.VendorInput
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var v model.VendorInput
		if err := json.Unmarshal([]byte(text), &v); err != nil {
			return nil, eris.Wrapf(err, "pipeline: jsonl line %d", line)
		}
		vendors = append(vendors, v)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "pipeline: read vendor jsonl")
	}
	return vendors, nil
}

// columns maps canonical column names to their index in a row.
type columns map[string]int

func parseHeader(header []string) (columns, error) {
	cols := columns{}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if alias, ok := headerAliases[key]; ok {
			key = alias
		}
		switch key {
		case colName, colDescription, colWebsiteText, colProductTags, colMetadata:
			if _, seen := cols[key]; !seen {
				cols[key] = i
			}
		}
	}
	if len(cols) == 0 {
		return nil, eris.Errorf("pipeline: header %v has no vendor columns", header)
	}
	return cols, nil
}

func (c columns) get(row []string, key string) string {
	i, ok := c[key]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (c columns) vendor(row []string) (model.VendorInput, error) {
	v := model.VendorInput{
		Name:        c.get(row, colName),
		Description: c.get(row, colDescription),
		WebsiteText: c.get(row, colWebsiteText),
		ProductTags: SplitTags(c.get(row, colProductTags)),
	}
	if raw := c.get(row, colMetadata); raw != "" {
		if err := json.Unmarshal([]byte(raw), &v.Metadata); err != nil {
			return model.VendorInput{}, eris.Wrap(err, "decode metadata json")
		}
	}
	return v, nil
}

// SplitTags splits a ";"-separated tag list, dropping blanks.
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(s, ";") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func drain(ch <-chan []string) {
	go func() {
		for range ch {
		}
	}()
}

// BatchOptions configures ClassifyBatch.
type BatchOptions struct {
	// Concurrency bounds the number of vendors classified at once. Values
	// below 1 select DefaultConcurrency.
	Concurrency int
	// OnResult, when set, is called after each vendor is classified. It may
	// be called from several goroutines at once.
	OnResult func(model.BatchResult, time.Duration)
}

// ClassifyBatch classifies vendors concurrently and returns results in
// input order. It fails only when ctx is cancelled.
func (p *Pipeline) ClassifyBatch(ctx context.Context, inputs []model.VendorInput, opts BatchOptions) ([]model.BatchResult, error) {
	limit := opts.Concurrency
	if limit < 1 {
		limit = DefaultConcurrency
	}

	results := make([]model.BatchResult, len(inputs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var done atomic.Int64
	total := len(inputs)
	for i, in := range inputs {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			start := time.Now()
			r := model.BatchResult{Index: i, Name: in.Name, Result: p.ClassifySaaS(in)}
			results[i] = r
			if opts.OnResult != nil {
				opts.OnResult(r, time.Since(start))
			}
			if n := done.Add(1); n%progressEvery == 0 {
				zap.L().Info("pipeline: batch progress",
					zap.Int64("done", n),
					zap.Int("total", total),
				)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "pipeline: classify batch")
	}

	zap.L().Info("pipeline: batch complete", zap.Int("total", total))
	return results, nil
}

const progressEvery = 100
