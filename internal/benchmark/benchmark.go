// Package benchmark maps a category to the key of the benchmark group used
// downstream.
package benchmark

import (
	"maps"
	"sync"

	"github.com/sells-group/saas-classifier/internal/taxonomy"
)

// DefaultKey is returned for categories without a mapping, including
// taxonomy.Unknown.
const DefaultKey = "general_saas_benchmark_v1"

// DefaultTable returns a fresh copy of the built-in category mapping.
func DefaultTable() map[string]string {
	return map[string]string{
		"Payments":             "fintech_benchmark_v1",
		"Analytics":            "analytics_benchmark_v1",
		"CRM":                  "crm_sales_benchmark_v1",
		"DevTools":             "devtools_growth_benchmark",
		"Marketing Automation": "marketing_automation_benchmark_v1",
		"HRTech":               "hrtech_benchmark_v1",
		"Cybersecurity":        "cybersecurity_benchmark_v1",
		"Infrastructure":       "infrastructure_benchmark_v1",
		"Collaboration":        "collaboration_benchmark_v1",
	}
}

// Selector looks up benchmark keys. It is immutable and safe for
// concurrent use.
type Selector struct {
	table      map[string]string
	defaultKey string
}

// NewSelector copies table. An empty defaultKey selects DefaultKey.
func NewSelector(table map[string]string, defaultKey string) *Selector {
	if defaultKey == "" {
		defaultKey = DefaultKey
	}
	return &Selector{table: maps.Clone(table), defaultKey: defaultKey}
}

// FromFile builds a Selector from the default table overlaid with the
// file's benchmarks section.
func FromFile(f *taxonomy.File) *Selector {
	table := DefaultTable()
	if f == nil {
		return NewSelector(table, "")
	}
	maps.Copy(table, f.Benchmarks)
	return NewSelector(table, f.DefaultBenchmark)
}

var defaultSelector = sync.OnceValue(func() *Selector {
	return NewSelector(DefaultTable(), DefaultKey)
})

// Default returns the shared selector over DefaultTable.
func Default() *Selector {
	return defaultSelector()
}

// Key returns the benchmark key for category using the default table.
func Key(category string) string {
	return Default().Key(category)
}

// Key returns the benchmark key for category, or the default key when the
// category has no mapping.
func (s *Selector) Key(category string) string {
	if k, ok := s.table[category]; ok {
		return k
	}
	return s.defaultKey
}

// DefaultKey returns the fallback key.
func (s *Selector) DefaultKey() string {
	return s.defaultKey
}

// Table returns a copy of the mapping.
func (s *Selector) Table() map[string]string {
	return maps.Clone(s.table)
}
