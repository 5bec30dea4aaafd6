package lucent

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Options configures the ranked scorer.
type Options struct {
	// QueryExpansion adds thesaurus synonyms to the query vector. Only
	// effective when the engine has a Thesaurus installed.
	QueryExpansion bool `yaml:"query_expansion"`

	// RelevanceFeedback enables Rocchio when a query comes with relevant
	// document IDs.
	RelevanceFeedback bool `yaml:"relevance_feedback"`

	// Alpha weighs the original query in Rocchio, Beta the relevant-set
	// centroid.
	Alpha float64 `yaml:"alpha"`
	Beta  float64 `yaml:"beta"`

	// Threshold drops documents scoring at or below it from the ranking.
	Threshold float64 `yaml:"threshold"`
}

// DefaultOptions returns the standard scorer configuration: no rewrites,
// classic Rocchio constants, keep every positive score.
func DefaultOptions() Options {
	return Options{
		QueryExpansion:    false,
		RelevanceFeedback: false,
		Alpha:             1.0,
		Beta:              0.75,
		Threshold:         0,
	}
}

// LoadOptions reads scorer options from a YAML file. Missing keys keep
// their defaults.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, err
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, err
	}
	return opts, nil
}
