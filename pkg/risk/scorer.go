package risk

import (
	"errors"
	"fmt"
	"math"
)

// RiskAssessment is the outcome of scoring a validated application.
type RiskAssessment struct {
	Probability float64 `json:"probability" yaml:"probability"`
	CreditScore int     `json:"credit_score" yaml:"credit_score"`
	Rating      string  `json:"rating" yaml:"rating"`
}

// Scorer turns a validated application into an assessment. Implementations
// must be deterministic for identical input.
type Scorer interface {
	Score(app LoanApplication) (RiskAssessment, error)
}

// ScorerFunc adapts an ordinary function to the Scorer interface.
type ScorerFunc func(app LoanApplication) (RiskAssessment, error)

// Score calls f(app).
func (f ScorerFunc) Score(app LoanApplication) (RiskAssessment, error) {
	return f(app)
}

// ScoringError wraps any failure of the scorer.
type ScoringError struct {
	Err error
}

func (e *ScoringError) Error() string {
	return "scoring failed: " + e.Err.Error()
}

func (e *ScoringError) Unwrap() error {
	return e.Err
}

var (
	// ErrNoScorer is returned by Assess when no scorer is configured.
	ErrNoScorer = errors.New("no scorer configured")

	errBadProbability = errors.New("probability outside [0, 1]")
	errEmptyRating    = errors.New("empty rating")
)

// Assess validates app and, only when it is valid, invokes scorer exactly
// once. Validation failures return *ValidationError without calling the
// scorer. Scorer errors, panics and out-of-domain results return
// *ScoringError. Nothing is retried.
func Assess(scorer Scorer, app *LoanApplication) (*RiskAssessment, error) {
	if err := Validate(app); err != nil {
		return nil, err
	}
	if scorer == nil {
		return nil, &ScoringError{Err: ErrNoScorer}
	}

	a, err := invoke(scorer, *app)
	if err != nil {
		return nil, &ScoringError{Err: err}
	}

	if math.IsNaN(a.Probability) || a.Probability < 0 || a.Probability > 1 {
		return nil, &ScoringError{Err: fmt.Errorf("%w: %v", errBadProbability, a.Probability)}
	}
	if a.Rating == "" {
		return nil, &ScoringError{Err: errEmptyRating}
	}

	return &a, nil
}

func invoke(scorer Scorer, app LoanApplication) (a RiskAssessment, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scorer panic: %v", r)
		}
	}()
	return scorer.Score(app)
}
