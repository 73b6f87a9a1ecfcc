package risk

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	// MsgIncomplete is shown when the application fails validation.
	MsgIncomplete = "Please fill in all the fields before calculating risk."
	// MsgScoringFailed is shown when the scorer could not produce a result.
	MsgScoringFailed = "Risk could not be calculated right now. Please try again later."
	// MsgComplete is shown above a successful assessment.
	MsgComplete = "Risk Assessment Complete"
)

// Display is the human-readable rendition of a RiskAssessment.
type Display struct {
	Probability string `json:"probability" yaml:"probability"`
	CreditScore string `json:"credit_score" yaml:"credit_score"`
	Rating      string `json:"rating" yaml:"rating"`
}

// Format renders the probability as a two-decimal percentage and the
// credit score as an integer.
func Format(a RiskAssessment) Display {
	return Display{
		Probability: FormatPercent(a.Probability),
		CreditScore: strconv.Itoa(a.CreditScore),
		Rating:      a.Rating,
	}
}

// FormatPercent renders a [0,1] fraction as a percentage, e.g. 0.1234 -> "12.34%".
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.2f%%", p*100)
}

// UserMessage maps an Assess error to the message shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return MsgComplete
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return MsgIncomplete
	}
	return MsgScoringFailed
}
