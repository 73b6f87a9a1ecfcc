package cli

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/mchmarny/riskctl/pkg/risk"
	"github.com/shopspring/decimal"
)

// formValues holds the raw form input so it can be echoed back to the page.
type formValues struct {
	Age                    string
	Income                 string
	LoanAmount             string
	LoanTenureMonths       string
	AvgDPDPerDelinquency   string
	DelinquencyRatio       string
	CreditUtilizationRatio string
	NumOpenAccounts        string
	ResidenceType          string
	LoanPurpose            string
	LoanType               string
}

func defaultFormValues() formValues {
	return formValues{
		Age:             strconv.Itoa(risk.MinAge),
		NumOpenAccounts: strconv.Itoa(risk.MinOpenAccounts),
		ResidenceType:   risk.Placeholder,
		LoanPurpose:     risk.Placeholder,
		LoanType:        risk.Placeholder,
	}
}

func readFormValues(r *http.Request) formValues {
	get := func(k string) string {
		return strings.TrimSpace(r.PostFormValue(k))
	}
	return formValues{
		Age:                    get("age"),
		Income:                 get("income"),
		LoanAmount:             get("loan_amount"),
		LoanTenureMonths:       get("loan_tenure_months"),
		AvgDPDPerDelinquency:   get("avg_dpd_per_delinquency"),
		DelinquencyRatio:       get("delinquency_ratio"),
		CreditUtilizationRatio: get("credit_utilization_ratio"),
		NumOpenAccounts:        get("num_open_accounts"),
		ResidenceType:          get("residence_type"),
		LoanPurpose:            get("loan_purpose"),
		LoanType:               get("loan_type"),
	}
}

// application converts the raw input. Unparsable numbers are reported as
// field errors; empty values stay zero and are left to risk.Validate.
func (f formValues) application() (*risk.LoanApplication, []risk.FieldError) {
	var errs []risk.FieldError

	num := func(field, v string) int {
		if v == "" {
			return 0
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, risk.FieldError{Field: field, Reason: "must be a whole number"})
		}
		return n
	}
	money := func(field, v string) decimal.Decimal {
		if v == "" {
			return decimal.Zero
		}
		d, err := risk.ParseAmount(v)
		switch {
		case errors.Is(err, risk.ErrAmountOutOfRange):
			errs = append(errs, risk.FieldError{Field: field, Reason: "is out of range"})
		case err != nil:
			errs = append(errs, risk.FieldError{Field: field, Reason: "must be a number"})
		}
		return d
	}

	app := &risk.LoanApplication{
		Age:                    num("age", f.Age),
		Income:                 money("income", f.Income),
		LoanAmount:             money("loan_amount", f.LoanAmount),
		LoanTenureMonths:       num("loan_tenure_months", f.LoanTenureMonths),
		AvgDPDPerDelinquency:   num("avg_dpd_per_delinquency", f.AvgDPDPerDelinquency),
		DelinquencyRatio:       num("delinquency_ratio", f.DelinquencyRatio),
		CreditUtilizationRatio: num("credit_utilization_ratio", f.CreditUtilizationRatio),
		NumOpenAccounts:        num("num_open_accounts", f.NumOpenAccounts),
		ResidenceType:          risk.ParseResidenceType(f.ResidenceType),
		LoanPurpose:            risk.ParseLoanPurpose(f.LoanPurpose),
		LoanType:               risk.ParseLoanType(f.LoanType),
	}
	return app, errs
}

// assess runs the form input through risk.Assess. Parse errors are merged
// with validation errors and the scorer is not called.
func (f formValues) assess(scorer risk.Scorer) (*risk.RiskAssessment, error) {
	app, perrs := f.application()
	if len(perrs) == 0 {
		return risk.Assess(scorer, app)
	}

	ve := &risk.ValidationError{Fields: perrs}
	var rest *risk.ValidationError
	if errors.As(risk.Validate(app), &rest) {
		for _, fe := range rest.Fields {
			if !ve.Has(fe.Field) {
				ve.Fields = append(ve.Fields, fe)
			}
		}
	}
	return nil, ve
}

// ratio renders the loan-to-income metric for the raw input, "0.00" when
// either amount is missing, unparsable or out of range.
func (f formValues) ratio() string {
	income, err := risk.ParseAmount(f.Income)
	if err != nil {
		income = decimal.Zero
	}
	loan, err := risk.ParseAmount(f.LoanAmount)
	if err != nil {
		loan = decimal.Zero
	}
	return risk.FormatRatio(risk.LoanToIncome(income, loan))
}

// normalize canonicalizes enum values decoded from JSON.
func normalize(app *risk.LoanApplication) {
	app.ResidenceType = risk.ParseResidenceType(string(app.ResidenceType))
	app.LoanPurpose = risk.ParseLoanPurpose(string(app.LoanPurpose))
	app.LoanType = risk.ParseLoanType(string(app.LoanType))
}

func enumOptions[T ~string](values []T) []string {
	out := make([]string, 0, len(values)+1)
	out = append(out, risk.Placeholder)
	for _, v := range values {
		out = append(out, string(v))
	}
	return out
}
