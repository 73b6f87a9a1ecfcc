package risk

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validApplication() *LoanApplication {
	return &LoanApplication{
		Age:                    28,
		Income:                 decimal.NewFromInt(1_200_000),
		LoanAmount:             decimal.NewFromInt(2_560_000),
		LoanTenureMonths:       36,
		AvgDPDPerDelinquency:   20,
		DelinquencyRatio:       30,
		CreditUtilizationRatio: 30,
		NumOpenAccounts:        2,
		ResidenceType:          ResidenceOwned,
		LoanPurpose:            PurposeEducation,
		LoanType:               LoanUnsecured,
	}
}

type countingScorer struct {
	calls  int
	result RiskAssessment
	err    error
}

func (s *countingScorer) Score(_ LoanApplication) (RiskAssessment, error) {
	s.calls++
	return s.result, s.err
}

func TestValidate_Valid(t *testing.T) {
	app := validApplication()
	assert.NoError(t, Validate(app))
	assert.True(t, Valid(app))
}

func TestValidate_Nil(t *testing.T) {
	var ve *ValidationError
	require.ErrorAs(t, Validate(nil), &ve)
	assert.True(t, ve.Has("application"))
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*LoanApplication)
		field  string
	}{
		{"age unset", func(a *LoanApplication) { a.Age = 0 }, "age"},
		{"age too young", func(a *LoanApplication) { a.Age = 17 }, "age"},
		{"age too old", func(a *LoanApplication) { a.Age = 101 }, "age"},
		{"income unset", func(a *LoanApplication) { a.Income = decimal.Zero }, "income"},
		{"income negative", func(a *LoanApplication) { a.Income = decimal.NewFromInt(-1) }, "income"},
		{"loan amount unset", func(a *LoanApplication) { a.LoanAmount = decimal.Zero }, "loan_amount"},
		{"tenure unset", func(a *LoanApplication) { a.LoanTenureMonths = 0 }, "loan_tenure_months"},
		{"tenure negative", func(a *LoanApplication) { a.LoanTenureMonths = -3 }, "loan_tenure_months"},
		{"dpd unset", func(a *LoanApplication) { a.AvgDPDPerDelinquency = 0 }, "avg_dpd_per_delinquency"},
		{"delinquency unset", func(a *LoanApplication) { a.DelinquencyRatio = 0 }, "delinquency_ratio"},
		{"delinquency over", func(a *LoanApplication) { a.DelinquencyRatio = 101 }, "delinquency_ratio"},
		{"utilization unset", func(a *LoanApplication) { a.CreditUtilizationRatio = 0 }, "credit_utilization_ratio"},
		{"utilization over", func(a *LoanApplication) { a.CreditUtilizationRatio = 150 }, "credit_utilization_ratio"},
		{"accounts unset", func(a *LoanApplication) { a.NumOpenAccounts = 0 }, "num_open_accounts"},
		{"accounts over", func(a *LoanApplication) { a.NumOpenAccounts = 5 }, "num_open_accounts"},
		{"residence placeholder", func(a *LoanApplication) { a.ResidenceType = Placeholder }, "residence_type"},
		{"residence empty", func(a *LoanApplication) { a.ResidenceType = "" }, "residence_type"},
		{"residence unknown", func(a *LoanApplication) { a.ResidenceType = "Castle" }, "residence_type"},
		{"purpose placeholder", func(a *LoanApplication) { a.LoanPurpose = Placeholder }, "loan_purpose"},
		{"type placeholder", func(a *LoanApplication) { a.LoanType = Placeholder }, "loan_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := validApplication()
			tt.mutate(app)

			err := Validate(app)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.True(t, ve.Has(tt.field), "expected %s in %v", tt.field, ve.Fields)
			assert.Len(t, ve.Fields, 1)
			assert.False(t, Valid(app))
		})
	}
}

func TestValidate_Reasons(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*LoanApplication)
		want   FieldError
	}{
		{"age unset", func(a *LoanApplication) { a.Age = 0 }, FieldError{"age", reasonMissing}},
		{"age under", func(a *LoanApplication) { a.Age = 17 }, FieldError{"age", fmt.Sprintf("must be between %d and %d", MinAge, MaxAge)}},
		{"accounts over", func(a *LoanApplication) { a.NumOpenAccounts = 5 }, FieldError{"num_open_accounts", fmt.Sprintf("must be between %d and %d", MinOpenAccounts, MaxOpenAccounts)}},
		{"utilization over", func(a *LoanApplication) { a.CreditUtilizationRatio = 101 }, FieldError{"credit_utilization_ratio", fmt.Sprintf("must be between 0 and %d", MaxPercent)}},
		{"tenure negative", func(a *LoanApplication) { a.LoanTenureMonths = -1 }, FieldError{"loan_tenure_months", reasonNegative}},
		{"income negative", func(a *LoanApplication) { a.Income = decimal.NewFromInt(-1) }, FieldError{"income", reasonNegative}},
		{"loan unset", func(a *LoanApplication) { a.LoanAmount = decimal.Zero }, FieldError{"loan_amount", reasonMissing}},
		{"residence empty", func(a *LoanApplication) { a.ResidenceType = "" }, FieldError{"residence_type", reasonUnselected}},
		{"purpose placeholder", func(a *LoanApplication) { a.LoanPurpose = Placeholder }, FieldError{"loan_purpose", reasonUnselected}},
		{"type unknown", func(a *LoanApplication) { a.LoanType = "Leased" }, FieldError{"loan_type", `has unknown value "Leased"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := validApplication()
			tt.mutate(app)

			var ve *ValidationError
			require.ErrorAs(t, Validate(app), &ve)
			assert.Equal(t, []FieldError{tt.want}, ve.Fields)
		})
	}
}

func TestValidate_AcceptsEveryOption(t *testing.T) {
	for _, r := range ResidenceTypes {
		for _, p := range LoanPurposes {
			for _, lt := range LoanTypes {
				app := validApplication()
				app.ResidenceType, app.LoanPurpose, app.LoanType = r, p, lt
				assert.NoError(t, Validate(app), "%s/%s/%s", r, p, lt)
			}
		}
	}
}

func TestValidate_FieldOrder(t *testing.T) {
	app := validApplication()
	app.LoanType = Placeholder
	app.LoanAmount = decimal.Zero
	app.Age = 0

	var ve *ValidationError
	require.ErrorAs(t, Validate(app), &ve)
	fields := make([]string, 0, len(ve.Fields))
	for _, f := range ve.Fields {
		fields = append(fields, f.Field)
	}
	assert.Equal(t, []string{"age", "loan_amount", "loan_type"}, fields)
}

func TestValidate_ReportsAllFields(t *testing.T) {
	err := Validate(&LoanApplication{
		ResidenceType: Placeholder,
		LoanPurpose:   Placeholder,
		LoanType:      Placeholder,
	})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Fields, 11)
	assert.Contains(t, ve.Error(), "loan_type must be selected")
}

func TestAssess_InvalidNeverScores(t *testing.T) {
	mutations := []func(*LoanApplication){
		func(a *LoanApplication) { a.Age = 0 },
		func(a *LoanApplication) { a.Income = decimal.Zero },
		func(a *LoanApplication) { a.LoanAmount = decimal.Zero },
		func(a *LoanApplication) { a.LoanTenureMonths = 0 },
		func(a *LoanApplication) { a.AvgDPDPerDelinquency = 0 },
		func(a *LoanApplication) { a.DelinquencyRatio = 0 },
		func(a *LoanApplication) { a.CreditUtilizationRatio = 0 },
		func(a *LoanApplication) { a.NumOpenAccounts = 0 },
		func(a *LoanApplication) { a.ResidenceType = Placeholder },
		func(a *LoanApplication) { a.LoanPurpose = Placeholder },
		func(a *LoanApplication) { a.LoanType = Placeholder },
	}

	for _, m := range mutations {
		app := validApplication()
		m(app)

		s := &countingScorer{result: RiskAssessment{Probability: 0.1, CreditScore: 800, Rating: "Excellent"}}
		a, err := Assess(s, app)
		assert.Nil(t, a)
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
		assert.Equal(t, 0, s.calls)
		assert.Equal(t, MsgIncomplete, UserMessage(err))
	}
}

func TestAssess_ValidScoresOnce(t *testing.T) {
	s := &countingScorer{result: RiskAssessment{Probability: 0.1234, CreditScore: 720, Rating: "Good"}}

	a, err := Assess(s, validApplication())
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, 1, s.calls)
	assert.Equal(t, 720, a.CreditScore)
}

func TestAssess_Idempotent(t *testing.T) {
	s := ScorerFunc(func(app LoanApplication) (RiskAssessment, error) {
		return RiskAssessment{
			Probability: float64(app.DelinquencyRatio) / 100,
			CreditScore: 900 - app.DelinquencyRatio,
			Rating:      "Average",
		}, nil
	})

	a1, err := Assess(s, validApplication())
	require.NoError(t, err)
	a2, err := Assess(s, validApplication())
	require.NoError(t, err)
	assert.Equal(t, *a1, *a2)
	assert.Equal(t, Format(*a1), Format(*a2))
}

func TestAssess_ScoringErrors(t *testing.T) {
	boom := errors.New("model unavailable")

	tests := []struct {
		name   string
		scorer Scorer
		target error
	}{
		{"nil scorer", nil, ErrNoScorer},
		{"scorer error", &countingScorer{err: boom}, boom},
		{"bad probability", &countingScorer{result: RiskAssessment{Probability: 1.5, Rating: "Poor"}}, errBadProbability},
		{"empty rating", &countingScorer{result: RiskAssessment{Probability: 0.5}}, errEmptyRating},
		{"panic", ScorerFunc(func(LoanApplication) (RiskAssessment, error) { panic("kaboom") }), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Assess(tt.scorer, validApplication())
			assert.Nil(t, a)

			var se *ScoringError
			require.ErrorAs(t, err, &se)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			assert.Equal(t, MsgScoringFailed, UserMessage(err))
		})
	}
}

func TestFormat(t *testing.T) {
	d := Format(RiskAssessment{Probability: 0.1234, CreditScore: 720, Rating: "Good"})
	assert.Equal(t, "12.34%", d.Probability)
	assert.Equal(t, "720", d.CreditScore)
	assert.Equal(t, "Good", d.Rating)
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "0.00%", FormatPercent(0))
	assert.Equal(t, "100.00%", FormatPercent(1))
	assert.Equal(t, "5.50%", FormatPercent(0.055))
}

func TestLoanToIncome(t *testing.T) {
	tests := []struct {
		name   string
		income int64
		loan   int64
		want   string
	}{
		{"zero income", 0, 50000, "0.00"},
		{"negative income", -10, 50000, "0.00"},
		{"even", 100000, 50000, "0.50"},
		{"rounded", 1_200_000, 2_560_000, "2.13"},
		{"zero loan", 100000, 0, "0.00"},
		{"rounded once", 100000, 12496, "0.12"},
		{"half up", 100000, 12500, "0.13"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := LoanToIncome(decimal.NewFromInt(tt.income), decimal.NewFromInt(tt.loan))
			assert.Equal(t, tt.want, FormatRatio(r))
		})
	}
}

func TestLoanToIncome_OutOfRange(t *testing.T) {
	tests := []struct {
		name   string
		income string
		loan   string
	}{
		{"tiny income", "1e-200000000", "1"},
		{"huge income", "1e200000000", "1"},
		{"tiny loan", "100000", "1e-200000000"},
		{"zero loan with huge scale", "100000", "0e-200000000"},
		{"too many digits", "1000000000000000", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			income, err := decimal.NewFromString(tt.income)
			require.NoError(t, err)
			loan, err := decimal.NewFromString(tt.loan)
			require.NoError(t, err)

			done := make(chan string, 1)
			go func() { done <- FormatRatio(LoanToIncome(income, loan)) }()

			select {
			case got := <-done:
				assert.Equal(t, "0.00", got)
			case <-time.After(5 * time.Second):
				t.Fatal("ratio not computed in time")
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	d, err := ParseAmount("1200000.50")
	require.NoError(t, err)
	assert.Equal(t, "1200000.5", d.String())

	_, err = ParseAmount("lots")
	assert.Error(t, err)

	for _, v := range []string{"1e-200000000", "1e20", "0.000000001", "1000000000000000", strings.Repeat("9", 40)} {
		_, err = ParseAmount(v)
		assert.ErrorIs(t, err, ErrAmountOutOfRange, v)
	}
}

func TestValidate_AmountOutOfRange(t *testing.T) {
	app := validApplication()
	app.Income = decimal.RequireFromString("1e-200000000")
	app.LoanAmount = decimal.RequireFromString("1e200000000")

	err := Validate(app)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []FieldError{
		{Field: "income", Reason: reasonOutOfRange},
		{Field: "loan_amount", Reason: reasonOutOfRange},
	}, ve.Fields)
}

func TestParseEnums(t *testing.T) {
	assert.Equal(t, ResidenceRented, ParseResidenceType(" rented "))
	assert.Equal(t, ResidenceType(Placeholder), ParseResidenceType(Placeholder))
	assert.Equal(t, PurposeAuto, ParseLoanPurpose("AUTO"))
	assert.Equal(t, LoanSecured, ParseLoanType("secured"))
	assert.Equal(t, LoanType("leased"), ParseLoanType("leased"))
}

func TestUserMessage_Success(t *testing.T) {
	assert.Equal(t, MsgComplete, UserMessage(nil))
}
