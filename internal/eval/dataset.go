package eval

import (
	"bytes"
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Case is one model output to score.
type Case struct {
	ID string `yaml:"id"`

	// Question is the natural-language prompt, kept for reports.
	Question string `yaml:"question,omitempty"`

	// Query is the IQL text the model produced.
	Query string `yaml:"query"`

	// Expected is a reference query. When set, the parsed Query is compared
	// structurally against it.
	Expected string `yaml:"expected,omitempty"`
}

// Dataset is a named list of cases:
//
//	name: people-v1
//	cases:
//	  - id: age-and-name
//	    question: Who is called Cody and is ten?
//	    query: filter_by_name('Cody') and filter_by_age(10)
type Dataset struct {
	Name  string `yaml:"name"`
	Cases []Case `yaml:"cases"`
}

// ParseDataset decodes a YAML dataset. Unknown fields are rejected and
// every case needs a unique id.
func ParseDataset(data []byte) (*Dataset, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var ds Dataset
	if err := dec.Decode(&ds); err != nil {
		return nil, errors.Wrap(err, "decode dataset")
	}

	seen := make(map[string]bool, len(ds.Cases))
	for i, c := range ds.Cases {
		if c.ID == "" {
			return nil, errors.Newf("case %d: missing id", i)
		}
		if seen[c.ID] {
			return nil, errors.Newf("case %d: duplicate id %q", i, c.ID)
		}
		seen[c.ID] = true
	}
	return &ds, nil
}

// LoadDataset reads and decodes a dataset file. A dataset without a name
// takes the file path.
func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithHint(
			errors.Wrapf(err, "read dataset %s", path),
			"pass --dataset with a YAML file of cases")
	}
	ds, err := ParseDataset(data)
	if err != nil {
		return nil, errors.Wrapf(err, "load dataset %s", path)
	}
	if ds.Name == "" {
		ds.Name = path
	}
	return ds, nil
}
