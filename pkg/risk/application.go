package risk

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Placeholder is the value of an enum field the user has not picked yet.
const Placeholder = "Select"

// ResidenceType is the applicant's housing situation.
type ResidenceType string

const (
	ResidenceOwned    ResidenceType = "Owned"
	ResidenceRented   ResidenceType = "Rented"
	ResidenceMortgage ResidenceType = "Mortgage"
)

// ResidenceTypes lists the selectable residence types in display order.
var ResidenceTypes = []ResidenceType{ResidenceOwned, ResidenceRented, ResidenceMortgage}

// LoanPurpose is what the loan is for.
type LoanPurpose string

const (
	PurposeEducation LoanPurpose = "Education"
	PurposeHome      LoanPurpose = "Home"
	PurposeAuto      LoanPurpose = "Auto"
	PurposePersonal  LoanPurpose = "Personal"
)

// LoanPurposes lists the selectable loan purposes in display order.
var LoanPurposes = []LoanPurpose{PurposeEducation, PurposeHome, PurposeAuto, PurposePersonal}

// LoanType is whether the loan is backed by collateral.
type LoanType string

const (
	LoanUnsecured LoanType = "Unsecured"
	LoanSecured   LoanType = "Secured"
)

// LoanTypes lists the selectable loan types in display order.
var LoanTypes = []LoanType{LoanUnsecured, LoanSecured}

// LoanApplication holds the applicant attributes collected by the form.
// Zero numeric values and placeholder enum values mean the field is unset.
type LoanApplication struct {
	Age                    int             `json:"age" yaml:"age" validate:"required,min=18,max=100"`
	Income                 decimal.Decimal `json:"income" yaml:"income" validate:"-"`
	LoanAmount             decimal.Decimal `json:"loan_amount" yaml:"loan_amount" validate:"-"`
	LoanTenureMonths       int             `json:"loan_tenure_months" yaml:"loan_tenure_months" validate:"required,min=0"`
	AvgDPDPerDelinquency   int             `json:"avg_dpd_per_delinquency" yaml:"avg_dpd_per_delinquency" validate:"required,min=0"`
	DelinquencyRatio       int             `json:"delinquency_ratio" yaml:"delinquency_ratio" validate:"required,min=0,max=100"`
	CreditUtilizationRatio int             `json:"credit_utilization_ratio" yaml:"credit_utilization_ratio" validate:"required,min=0,max=100"`
	NumOpenAccounts        int             `json:"num_open_accounts" yaml:"num_open_accounts" validate:"required,min=1,max=4"`
	ResidenceType          ResidenceType   `json:"residence_type" yaml:"residence_type" validate:"required,oneof=Owned Rented Mortgage"`
	LoanPurpose            LoanPurpose     `json:"loan_purpose" yaml:"loan_purpose" validate:"required,oneof=Education Home Auto Personal"`
	LoanType               LoanType        `json:"loan_type" yaml:"loan_type" validate:"required,oneof=Unsecured Secured"`
}

// LoanToIncome returns the loan-to-income ratio of the application.
func (a *LoanApplication) LoanToIncome() decimal.Decimal {
	return LoanToIncome(a.Income, a.LoanAmount)
}

func (a *LoanApplication) String() string {
	return fmt.Sprintf("age=%d income=%s loan=%s tenure=%d dpd=%d delinquency=%d%% utilization=%d%% accounts=%d residence=%s purpose=%s type=%s",
		a.Age, a.Income, a.LoanAmount, a.LoanTenureMonths, a.AvgDPDPerDelinquency,
		a.DelinquencyRatio, a.CreditUtilizationRatio, a.NumOpenAccounts,
		a.ResidenceType, a.LoanPurpose, a.LoanType)
}

// ParseResidenceType matches v case-insensitively against the known
// residence types. Unknown values, including the placeholder, are returned
// verbatim so validation can report them.
func ParseResidenceType(v string) ResidenceType {
	for _, t := range ResidenceTypes {
		if strings.EqualFold(strings.TrimSpace(v), string(t)) {
			return t
		}
	}
	return ResidenceType(v)
}

// ParseLoanPurpose matches v case-insensitively against the known purposes.
func ParseLoanPurpose(v string) LoanPurpose {
	for _, p := range LoanPurposes {
		if strings.EqualFold(strings.TrimSpace(v), string(p)) {
			return p
		}
	}
	return LoanPurpose(v)
}

// ParseLoanType matches v case-insensitively against the known loan types.
func ParseLoanType(v string) LoanType {
	for _, t := range LoanTypes {
		if strings.EqualFold(strings.TrimSpace(v), string(t)) {
			return t
		}
	}
	return LoanType(v)
}
