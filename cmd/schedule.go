package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	ledger "freelance-tax/internal/ledger/domain"
	tax "freelance-tax/internal/tax/domain"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage the VAT and URSSAF payment schedule",
}

var scheduleGenerateCmd = &cobra.Command{
	Use:   "generate [YYYY-MM]",
	Short: "Compute and store schedule entries from a month onwards",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		month, err := monthArg(args)
		if err != nil {
			return err
		}
		horizon, _ := cmd.Flags().GetInt("horizon")
		return withApp(cmd, func(ctx context.Context, a *app) error {
			entries, err := a.tax.GenerateSchedule(ctx, month, horizon)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), entries)
		})
	},
}

var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored schedule entries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		statusName, _ := cmd.Flags().GetString("status")
		overdue, _ := cmd.Flags().GetBool("overdue")
		var status tax.ScheduleStatus
		if statusName != "" {
			parsed, err := tax.ParseScheduleStatus(statusName)
			if err != nil {
				return err
			}
			status = parsed
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			var (
				entries []tax.TaxSchedule
				err     error
			)
			if overdue {
				entries, err = a.tax.OverdueSchedules(ctx, time.Now())
			} else {
				entries, err = a.tax.ListSchedules(ctx, status)
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), entries)
		})
	},
}

var schedulePayCmd = &cobra.Command{
	Use:   "pay <id>",
	Short: "Mark a schedule entry as paid",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paidOn := time.Now()
		if value, _ := cmd.Flags().GetString("on"); value != "" {
			parsed, err := ledger.ParseDate(value)
			if err != nil {
				return err
			}
			paidOn = parsed
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			entry, err := a.tax.MarkSchedulePaid(ctx, args[0], paidOn)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), entry)
		})
	},
}

var scheduleRemindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Send the overdue and upcoming reminder now",
	RunE: func(cmd *cobra.Command, _ []string) error {
		horizon, _ := cmd.Flags().GetInt("horizon-days")
		return withApp(cmd, func(ctx context.Context, a *app) error {
			msg, err := a.tax.SendReminders(ctx, horizon)
			if err != nil {
				return err
			}
			if msg.Empty() {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to remind")
				return nil
			}
			return writeJSON(cmd.OutOrStdout(), msg)
		})
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.AddCommand(scheduleGenerateCmd, scheduleListCmd, schedulePayCmd, scheduleRemindCmd)

	scheduleGenerateCmd.Flags().Int("horizon", 3, "Number of months to cover (1..36)")
	scheduleListCmd.Flags().String("status", "", "Filter by status: pending or paid")
	scheduleListCmd.Flags().Bool("overdue", false, "Only unpaid entries past their due date")
	schedulePayCmd.Flags().String("on", "", "Payment date YYYY-MM-DD (default: today)")
	scheduleRemindCmd.Flags().Int("horizon-days", 7, "Include entries due within this many days")
}
