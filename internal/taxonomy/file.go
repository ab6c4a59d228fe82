package taxonomy

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/saas-classifier/internal/model"
)

// File is the YAML form of a taxonomy override. Every section is optional:
// weights not listed keep their DefaultWeights value and omitted categories
// fall back to DefaultCategories. Benchmarks and Products are consumed by the
// benchmark selector and product ranker.
type File struct {
	Weights          Weights                    `yaml:"weights"`
	Categories       []Category                 `yaml:"categories"`
	Benchmarks       map[string]string          `yaml:"benchmarks"`
	DefaultBenchmark string                     `yaml:"default_benchmark"`
	Products         map[string][]model.Product `yaml:"products"`
}

// LoadFile reads and parses a YAML taxonomy file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "taxonomy: read %s", path)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, eris.Wrapf(err, "taxonomy: load %s", path)
	}
	return f, nil
}

// Parse decodes a YAML taxonomy document. Weights are decoded over
// DefaultWeights so a partial weights section overrides only the keys given.
func Parse(data []byte) (*File, error) {
	f := File{Weights: DefaultWeights()}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "taxonomy: parse yaml")
	}
	return &f, nil
}

// Taxonomy builds a validated Taxonomy from the file.
func (f *File) Taxonomy() (*Taxonomy, error) {
	cats := f.Categories
	if len(cats) == 0 {
		cats = DefaultCategories()
	}
	w := f.Weights
	if w == (Weights{}) {
		w = DefaultWeights()
	}
	return New(cats, w)
}
