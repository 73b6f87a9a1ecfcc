package model

import (
	"math"

	"github.com/mchmarny/riskctl/pkg/risk"
)

// Logistic scores applications with a logistic regression over min-max
// scaled numeric features and one-hot categorical indicators.
type Logistic struct {
	doc *Document
}

// NewLogistic wraps a validated document.
func NewLogistic(d *Document) *Logistic {
	return &Logistic{doc: d}
}

// Document returns the model definition.
func (m *Logistic) Document() *Document {
	return m.doc
}

// Score implements risk.Scorer.
func (m *Logistic) Score(app risk.LoanApplication) (risk.RiskAssessment, error) {
	p := m.Probability(app)
	score := m.doc.Score.Base + int(math.Round((1-p)*float64(m.doc.Score.Span)))
	return risk.RiskAssessment{
		Probability: p,
		CreditScore: score,
		Rating:      m.doc.Rating(score),
	}, nil
}

// Probability returns the modelled probability of default.
func (m *Logistic) Probability(app risk.LoanApplication) float64 {
	values := featureValues(app)

	z := m.doc.Intercept
	for _, name := range Features {
		r, ok := m.doc.Features[name]
		if !ok {
			continue
		}
		z += r.Weight * scale(values[name], r.Min, r.Max)
	}

	cats := map[string]string{
		IndicatorResidenceType: string(app.ResidenceType),
		IndicatorLoanPurpose:   string(app.LoanPurpose),
		IndicatorLoanType:      string(app.LoanType),
	}
	for _, name := range Indicators {
		z += m.doc.Indicators[name][cats[name]]
	}

	return sigmoid(z)
}

func featureValues(app risk.LoanApplication) map[string]float64 {
	return map[string]float64{
		FeatureAge:                    float64(app.Age),
		FeatureLoanTenureMonths:       float64(app.LoanTenureMonths),
		FeatureNumOpenAccounts:        float64(app.NumOpenAccounts),
		FeatureCreditUtilizationRatio: float64(app.CreditUtilizationRatio),
		FeatureLoanToIncome:           app.LoanToIncome().InexactFloat64(),
		FeatureDelinquencyRatio:       float64(app.DelinquencyRatio),
		FeatureAvgDPDPerDelinquency:   float64(app.AvgDPDPerDelinquency),
	}
}

// scale maps v into [0,1] relative to [lo,hi], clamping outliers.
func scale(v, lo, hi float64) float64 {
	s := (v - lo) / (hi - lo)
	return math.Max(0, math.Min(1, s))
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
