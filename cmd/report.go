package cmd

import (
	"context"

	"github.com/spf13/cobra"

	ledger "freelance-tax/internal/ledger/domain"
	"freelance-tax/internal/logger"
)

// withApp wires the services for one command and closes them afterwards.
func withApp(cmd *cobra.Command, run func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, cfg, logger.GetLogger())
	if err != nil {
		return err
	}
	defer a.Close()
	return run(ctx, a)
}

// monthReportCmd builds a command printing a month report as JSON. The v2
// flag selects the payment-date rules of the operation ledger.
func monthReportCmd(use, short string, legacy, v2 func(ctx context.Context, a *app, m ledger.MonthID) (any, error)) *cobra.Command {
	c := &cobra.Command{
		Use:   use + " [YYYY-MM]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := monthArg(args)
			if err != nil {
				return err
			}
			useV2, _ := cmd.Flags().GetBool("v2")
			return withApp(cmd, func(ctx context.Context, a *app) error {
				compute := legacy
				if useV2 {
					compute = v2
				}
				out, err := compute(ctx, a, month)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	c.Flags().Bool("v2", false, "Use the operation ledger (payment-date rules)")
	return c
}

var forecastCmd = &cobra.Command{
	Use:   "forecast [YYYY-MM]",
	Short: "Project monthly cash flow from the settings assumptions",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		month, err := monthArg(args)
		if err != nil {
			return err
		}
		horizon, _ := cmd.Flags().GetInt("horizon")
		return withApp(cmd, func(ctx context.Context, a *app) error {
			out, err := a.tax.Forecast(ctx, month, horizon)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out)
		})
	},
}

func init() {
	rootCmd.AddCommand(
		monthReportCmd("vat", "Print the VAT report of a month",
			func(ctx context.Context, a *app, m ledger.MonthID) (any, error) { return a.tax.PrepareVAT(ctx, m) },
			func(ctx context.Context, a *app, m ledger.MonthID) (any, error) { return a.tax.PrepareVATV2(ctx, m) }),
		monthReportCmd("urssaf", "Print the URSSAF report of a month",
			func(ctx context.Context, a *app, m ledger.MonthID) (any, error) { return a.tax.PrepareURSSAF(ctx, m) },
			func(ctx context.Context, a *app, m ledger.MonthID) (any, error) { return a.tax.PrepareURSSAFV2(ctx, m) }),
		monthReportCmd("dashboard", "Print the dashboard summary of a month",
			func(ctx context.Context, a *app, m ledger.MonthID) (any, error) { return a.tax.Dashboard(ctx, m) },
			func(ctx context.Context, a *app, m ledger.MonthID) (any, error) { return a.tax.DashboardV2(ctx, m) }),
		monthReportCmd("recap", "Print the month recap",
			func(ctx context.Context, a *app, m ledger.MonthID) (any, error) { return a.tax.MonthRecap(ctx, m) },
			func(ctx context.Context, a *app, m ledger.MonthID) (any, error) { return a.tax.MonthRecapV2(ctx, m) }),
		forecastCmd,
	)
	forecastCmd.Flags().Int("horizon", 12, "Number of months to project (0..60)")
}
