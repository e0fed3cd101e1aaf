package cmd

import (
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	ledger "freelance-tax/internal/ledger/domain"
	"freelance-tax/internal/logger"
	simapp "freelance-tax/internal/simulation/application"
	simmemory "freelance-tax/internal/simulation/infrastructure/memory"
)

// eurosToCents converts a euro amount flag such as "78000" or "450.50".
func eurosToCents(value string) (int64, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, ledger.NewValidationError("amount", "montant invalide: "+value)
	}
	return d.Shift(2).Round(0).IntPart(), nil
}

// percentToPPM converts a percentage flag such as "22" or "5.5".
func percentToPPM(value float64) int64 {
	return decimal.NewFromFloat(value).Mul(decimal.NewFromInt(ledger.PPMScale / 100)).Round(0).IntPart()
}

// calculatorService backs the stateless calculators; nothing is stored.
func calculatorService() (*simapp.Service, error) {
	return simapp.NewService(simmemory.NewRepository(), nil, logger.GetLogger())
}

var rateCmd = &cobra.Command{
	Use:   "rate",
	Short: "Compute the daily rate reaching a net annual income",
	Example: `  freelance-tax rate --target 60000 --days 200 --urssaf 22 --income-tax 10`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		target, _ := cmd.Flags().GetString("target")
		expenses, _ := cmd.Flags().GetString("expenses")
		days, _ := cmd.Flags().GetFloat64("days")
		vat, _ := cmd.Flags().GetFloat64("vat")
		urssaf, _ := cmd.Flags().GetFloat64("urssaf")
		incomeTax, _ := cmd.Flags().GetFloat64("income-tax")

		targetCents, err := eurosToCents(target)
		if err != nil {
			return err
		}
		expenseCents, err := eurosToCents(expenses)
		if err != nil {
			return err
		}
		svc, err := calculatorService()
		if err != nil {
			return err
		}
		calc, err := svc.OptimalDailyRate(simapp.DailyRateRequest{
			TargetAnnualIncomeCents: targetCents,
			WorkingDaysPerYear:      days,
			AnnualExpensesCents:     expenseCents,
			VATRatePPM:              percentToPPM(vat),
			URSSAFRatePPM:           percentToPPM(urssaf),
			IncomeTaxRatePPM:        percentToPPM(incomeTax),
		})
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), calc)
	},
}

var incomeCmd = &cobra.Command{
	Use:   "income",
	Short: "Project annual revenue, taxes and net income",
	Example: `  freelance-tax income --monthly 5000 --months 11 --urssaf 22`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		monthly, _ := cmd.Flags().GetString("monthly")
		expenses, _ := cmd.Flags().GetString("expenses")
		months, _ := cmd.Flags().GetInt("months")
		vat, _ := cmd.Flags().GetFloat64("vat")
		urssaf, _ := cmd.Flags().GetFloat64("urssaf")

		monthlyCents, err := eurosToCents(monthly)
		if err != nil {
			return err
		}
		expenseCents, err := eurosToCents(expenses)
		if err != nil {
			return err
		}
		svc, err := calculatorService()
		if err != nil {
			return err
		}
		projection, err := svc.ProjectAnnualIncome(simapp.IncomeRequest{
			MonthlyAverageRevenueCents: monthlyCents,
			WorkingMonths:              months,
			AnnualExpensesCents:        expenseCents,
			VATRatePPM:                 percentToPPM(vat),
			URSSAFRatePPM:              percentToPPM(urssaf),
		})
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), projection)
	},
}

func init() {
	rootCmd.AddCommand(rateCmd, incomeCmd)

	rateCmd.Flags().String("target", "0", "Target net annual income in euros")
	rateCmd.Flags().String("expenses", "0", "Annual expenses in euros")
	rateCmd.Flags().Float64("days", 218, "Working days per year")
	rateCmd.Flags().Float64("vat", 0, "VAT rate in percent")
	rateCmd.Flags().Float64("urssaf", 22, "URSSAF rate in percent")
	rateCmd.Flags().Float64("income-tax", 0, "Income tax rate in percent")

	incomeCmd.Flags().String("monthly", "0", "Average monthly revenue HT in euros")
	incomeCmd.Flags().String("expenses", "0", "Annual expenses in euros")
	incomeCmd.Flags().Int("months", 12, "Working months")
	incomeCmd.Flags().Float64("vat", 0, "VAT rate in percent")
	incomeCmd.Flags().Float64("urssaf", 22, "URSSAF rate in percent")
}
