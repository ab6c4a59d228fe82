package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/saas-classifier/internal/model"
)

// exportColumns is the header of CSV and XLSX batch exports.
var exportColumns = []string{
	"index", "name", "category", "confidence", "benchmark_key", "top_products",
}

func exportRow(r model.BatchResult) []string {
	return []string{
		strconv.Itoa(r.Index),
		r.Name,
		r.Result.Category,
		strconv.FormatFloat(r.Result.Confidence, 'f', -1, 64),
		r.Result.BenchmarkKey,
		strings.Join(r.Result.TopProductNames(), ";"),
	}
}

// WriteJSON writes results as an indented JSON array.
func WriteJSON(w io.Writer, results []model.BatchResult) error {
	if results == nil {
		results = []model.BatchResult{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return eris.Wrap(err, "pipeline: encode json results")
	}
	return nil
}

// WriteCSV writes one row per result with a header row.
func WriteCSV(w io.Writer, results []model.BatchResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportColumns); err != nil {
		return eris.Wrap(err, "pipeline: write csv header")
	}
	for _, r := range results {
		if err := cw.Write(exportRow(r)); err != nil {
			return eris.Wrap(err, "pipeline: write csv row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "pipeline: flush csv")
	}
	return nil
}

// WriteXLSX saves results to a single-sheet workbook at path.
func WriteXLSX(path string, results []model.BatchResult) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("classifications")
	if err != nil {
		return eris.Wrap(err, "pipeline: add xlsx sheet")
	}

	addRow := func(cells []string) {
		row := sheet.AddRow()
		for _, c := range cells {
			row.AddCell().SetString(c)
		}
	}
	addRow(exportColumns)
	for _, r := range results {
		addRow(exportRow(r))
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "pipeline: save xlsx %s", path)
	}
	return nil
}
