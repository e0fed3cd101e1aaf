package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	ledger "freelance-tax/internal/ledger/domain"
	"freelance-tax/internal/logger"
	"freelance-tax/internal/observability/metrics"
	taxinterfaces "freelance-tax/internal/tax/interfaces"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write recap and annual documents to files",
}

var exportRecapCmd = &cobra.Command{
	Use:   "recap [YYYY-MM]",
	Short: "Export the month recap as PDF or XLSX",
	Example: `  freelance-tax export recap 2024-03 --format pdf -o recap-2024-03.pdf`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		month, err := monthArg(args)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		if format != "pdf" && format != "xlsx" {
			return fmt.Errorf("unknown format %q (pdf, xlsx)", format)
		}
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = "recap-" + month.String() + "." + format
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			start := time.Now()
			data, err := buildRecap(ctx, a, month, format)
			result := metrics.ResultSuccess
			if err != nil {
				result = metrics.ResultError
			}
			metrics.ObserveExport("recap", format, result, time.Since(start))
			if err != nil {
				return err
			}
			return writeExport(output, data)
		})
	},
}

var exportAnnualCmd = &cobra.Command{
	Use:   "annual",
	Short: "Export the annual VAT and URSSAF summary as XLSX",
	RunE: func(cmd *cobra.Command, _ []string) error {
		year, _ := cmd.Flags().GetInt("year")
		if year == 0 {
			year = time.Now().Year()
		}
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = fmt.Sprintf("annual-%d.xlsx", year)
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			annual, err := a.tax.AnnualTaxData(ctx, year)
			if err != nil {
				return err
			}
			data, err := taxinterfaces.BuildAnnualXLSX(annual)
			if err != nil {
				return err
			}
			return writeExport(output, data)
		})
	},
}

func buildRecap(ctx context.Context, a *app, month ledger.MonthID, format string) ([]byte, error) {
	doc, err := taxinterfaces.LoadRecapDocument(ctx, a.tax, month)
	if err != nil {
		return nil, err
	}
	if format == "pdf" {
		return taxinterfaces.BuildRecapPDF(doc)
	}
	return taxinterfaces.BuildRecapXLSX(doc)
}

func writeExport(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log := logger.WithComponent("export")
	log.Info().Str("file", path).Int("bytes", len(data)).Msg("export written")
	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.AddCommand(exportRecapCmd, exportAnnualCmd)

	exportRecapCmd.Flags().String("format", "pdf", "Output format: pdf or xlsx")
	exportRecapCmd.Flags().StringP("output", "o", "", "Output file (default: recap-YYYY-MM.<format>)")
	exportAnnualCmd.Flags().Int("year", 0, "Calendar year (default: current year)")
	exportAnnualCmd.Flags().StringP("output", "o", "", "Output file (default: annual-YYYY.xlsx)")
}
