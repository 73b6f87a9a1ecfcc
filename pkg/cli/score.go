package cli

import (
	"fmt"
	"strings"

	"github.com/mchmarny/riskctl/pkg/risk"
	"github.com/urfave/cli/v2"
)

var (
	ageFlag = &cli.IntFlag{
		Name:  "age",
		Usage: fmt.Sprintf("Applicant age (%d-%d)", risk.MinAge, risk.MaxAge),
	}

	incomeFlag = &cli.StringFlag{
		Name:  "income",
		Usage: "Annual income",
	}

	loanAmountFlag = &cli.StringFlag{
		Name:  "loan-amount",
		Usage: "Loan amount",
	}

	tenureFlag = &cli.IntFlag{
		Name:  "tenure",
		Usage: "Loan tenure in months",
	}

	dpdFlag = &cli.IntFlag{
		Name:  "dpd",
		Usage: "Average days past due per delinquency",
	}

	delinquencyFlag = &cli.IntFlag{
		Name:  "delinquency",
		Usage: "Delinquency ratio in percent (0-100)",
	}

	utilizationFlag = &cli.IntFlag{
		Name:  "utilization",
		Usage: "Credit utilization ratio in percent (0-100)",
	}

	accountsFlag = &cli.IntFlag{
		Name:  "accounts",
		Usage: fmt.Sprintf("Number of open loan accounts (%d-%d)", risk.MinOpenAccounts, risk.MaxOpenAccounts),
	}

	residenceFlag = &cli.StringFlag{
		Name:  "residence",
		Usage: fmt.Sprintf("Residence type (%s)", joinEnum(risk.ResidenceTypes)),
	}

	purposeFlag = &cli.StringFlag{
		Name:  "purpose",
		Usage: fmt.Sprintf("Loan purpose (%s)", joinEnum(risk.LoanPurposes)),
	}

	loanTypeFlag = &cli.StringFlag{
		Name:  "loan-type",
		Usage: fmt.Sprintf("Loan type (%s)", joinEnum(risk.LoanTypes)),
	}

	scoreCmd = &cli.Command{
		Name:    "score",
		Aliases: []string{"s"},
		Usage:   "Assess the credit risk of a single application",
		Action:  cmdScore,
		Flags: []cli.Flag{
			ageFlag,
			incomeFlag,
			loanAmountFlag,
			tenureFlag,
			dpdFlag,
			delinquencyFlag,
			utilizationFlag,
			accountsFlag,
			residenceFlag,
			purposeFlag,
			loanTypeFlag,
		},
	}
)

func joinEnum[T ~string](values []T) string {
	s := make([]string, len(values))
	for i, v := range values {
		s[i] = string(v)
	}
	return strings.Join(s, ", ")
}

func cmdScore(c *cli.Context) error {
	cfg := getConfig(c)

	form := formValues{
		Age:                    intArg(c, ageFlag),
		Income:                 c.String(incomeFlag.Name),
		LoanAmount:             c.String(loanAmountFlag.Name),
		LoanTenureMonths:       intArg(c, tenureFlag),
		AvgDPDPerDelinquency:   intArg(c, dpdFlag),
		DelinquencyRatio:       intArg(c, delinquencyFlag),
		CreditUtilizationRatio: intArg(c, utilizationFlag),
		NumOpenAccounts:        intArg(c, accountsFlag),
		ResidenceType:          c.String(residenceFlag.Name),
		LoanPurpose:            c.String(purposeFlag.Name),
		LoanType:               c.String(loanTypeFlag.Name),
	}

	scorer, err := cfg.Scorer(c.Context)
	if err != nil {
		return fmt.Errorf("initializing scorer: %w", err)
	}

	a, err := form.assess(scorer)
	if err != nil {
		return fmt.Errorf("%s: %w", risk.UserMessage(err), err)
	}

	app, _ := form.application()
	if err := encode(c.App.Writer, cfg.OutputFormat, newAssessResponse("", app, a)); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	return nil
}

func intArg(c *cli.Context, f *cli.IntFlag) string {
	if !c.IsSet(f.Name) {
		return ""
	}
	return fmt.Sprintf("%d", c.Int(f.Name))
}
