package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/family-finance-tracker/cmd/api"
	"github.com/FACorreiaa/family-finance-tracker/internal/domain/exchangerates"
	"github.com/FACorreiaa/family-finance-tracker/pkg/config"
)

var (
	verbose   bool
	ratesFile string
)

var rootCmd = &cobra.Command{
	Use:           "family-finance",
	Short:         "Import household spreadsheets and report on them",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	rootCmd.PersistentFlags().StringVar(&ratesFile, "rates-file", "", "JSON file with exchange rate quotes")

	rootCmd.AddCommand(previewCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(categoriesCmd())
	rootCmd.AddCommand(personsCmd())
	rootCmd.AddCommand(transactionsCmd())
	rootCmd.AddCommand(investmentsCmd())
	rootCmd.AddCommand(ratesCmd())
	rootCmd.AddCommand(jobsCmd())
	rootCmd.AddCommand(uploadsCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func rateSource() exchangerates.RateSource {
	if ratesFile == "" {
		return nil
	}
	return exchangerates.FileSource{Path: ratesFile}
}

// connect loads the configuration and opens the database.
func connect() (*api.Dependencies, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return api.InitDependencies(cfg, newLogger(), rateSource())
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
