// Package cmd implements the freelance-tax command line.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"freelance-tax/internal/config"
	ledger "freelance-tax/internal/ledger/domain"
	"freelance-tax/internal/logger"
)

var version = "1.0.0"

// cfg is loaded once per invocation by the root command.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "freelance-tax",
	Short: "VAT and URSSAF bookkeeping for French freelancers",
	Long: `freelance-tax records sales and purchases, derives monthly VAT and URSSAF
obligations, builds the payment schedule and serves everything over HTTP.

Configuration comes from the environment (optionally a .env file) and the
YAML file named by FREELANCE_CONFIG.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		if store, _ := cmd.Flags().GetString("store"); store != "" {
			loaded.Store = strings.ToLower(store)
			if err := loaded.Validate(); err != nil {
				return err
			}
		}
		if err := logger.Setup(loaded.LoggerConfig()); err != nil {
			return fmt.Errorf("logger setup: %w", err)
		}
		cfg = loaded
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("store", "", "Override STORE (postgres or memory)")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func monthArg(args []string) (ledger.MonthID, error) {
	if len(args) == 0 {
		return ledger.MonthOf(ledger.SystemClock{}.Now()), nil
	}
	return ledger.ParseMonthID(args[0])
}
