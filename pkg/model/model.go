package model

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	FeatureAge                    = "age"
	FeatureLoanTenureMonths       = "loan_tenure_months"
	FeatureNumOpenAccounts        = "num_open_accounts"
	FeatureCreditUtilizationRatio = "credit_utilization_ratio"
	FeatureLoanToIncome           = "loan_to_income"
	FeatureDelinquencyRatio       = "delinquency_ratio"
	FeatureAvgDPDPerDelinquency   = "avg_dpd_per_delinquency"

	IndicatorResidenceType = "residence_type"
	IndicatorLoanPurpose   = "loan_purpose"
	IndicatorLoanType      = "loan_type"
)

var (
	//go:embed default.yaml
	defaultDocument []byte

	// Features fixes the summation order so scores are bit-for-bit stable.
	Features = []string{
		FeatureAge,
		FeatureLoanTenureMonths,
		FeatureNumOpenAccounts,
		FeatureCreditUtilizationRatio,
		FeatureLoanToIncome,
		FeatureDelinquencyRatio,
		FeatureAvgDPDPerDelinquency,
	}

	Indicators = []string{
		IndicatorResidenceType,
		IndicatorLoanPurpose,
		IndicatorLoanType,
	}
)

// Range is a numeric feature with its min-max scaling bounds and weight.
type Range struct {
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// Band maps credit scores at or above Min to Label.
type Band struct {
	Min   int    `json:"min" yaml:"min"`
	Label string `json:"label" yaml:"label"`
}

// Scale converts a default probability into a credit score:
// Base + (1-p) * Span.
type Scale struct {
	Base int `json:"base" yaml:"base"`
	Span int `json:"span" yaml:"span"`
}

// Document is the serialized form of a logistic credit model.
type Document struct {
	Name       string                        `json:"name" yaml:"name"`
	Version    string                        `json:"version" yaml:"version"`
	Intercept  float64                       `json:"intercept" yaml:"intercept"`
	Score      Scale                         `json:"score" yaml:"score"`
	Features   map[string]Range              `json:"features" yaml:"features"`
	Indicators map[string]map[string]float64 `json:"indicators" yaml:"indicators"`
	Ratings    []Band                        `json:"ratings" yaml:"ratings"`
}

// Parse decodes and validates a YAML model document.
func Parse(b []byte) (*Document, error) {
	var d Document
	if err := yaml.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("decoding model document: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks the document is usable for scoring.
func (d *Document) Validate() error {
	if d.Score.Span <= 0 {
		return fmt.Errorf("model %q: score span must be positive", d.Name)
	}

	known := make(map[string]bool, len(Features))
	for _, f := range Features {
		known[f] = true
	}
	for name, r := range d.Features {
		if !known[name] {
			return fmt.Errorf("model %q: unknown feature %q", d.Name, name)
		}
		if r.Max <= r.Min {
			return fmt.Errorf("model %q: feature %q max must be greater than min", d.Name, name)
		}
	}

	for name := range d.Indicators {
		switch name {
		case IndicatorResidenceType, IndicatorLoanPurpose, IndicatorLoanType:
		default:
			return fmt.Errorf("model %q: unknown indicator %q", d.Name, name)
		}
	}

	if len(d.Ratings) == 0 {
		return fmt.Errorf("model %q: at least one rating band required", d.Name)
	}
	for i, b := range d.Ratings {
		if b.Label == "" {
			return fmt.Errorf("model %q: rating band %d has no label", d.Name, i)
		}
		if i > 0 && b.Min <= d.Ratings[i-1].Min {
			return fmt.Errorf("model %q: rating bands must be in ascending order", d.Name)
		}
	}
	return nil
}

// Rating returns the label of the highest band whose minimum does not exceed
// score. Scores below the first band get the first label.
func (d *Document) Rating(score int) string {
	label := d.Ratings[0].Label
	for _, b := range d.Ratings {
		if score < b.Min {
			break
		}
		label = b.Label
	}
	return label
}

// Default returns the bundled model.
func Default() (*Logistic, error) {
	d, err := Parse(defaultDocument)
	if err != nil {
		return nil, fmt.Errorf("loading bundled model: %w", err)
	}
	return NewLogistic(d), nil
}

// Load reads a model document from path.
func Load(path string) (*Logistic, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model file %s: %w", path, err)
	}
	d, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("loading model file %s: %w", path, err)
	}
	return NewLogistic(d), nil
}

// LoadOrDefault loads the model at path, or the bundled one when path is empty.
func LoadOrDefault(path string) (*Logistic, error) {
	if path == "" {
		return Default()
	}
	return Load(path)
}
