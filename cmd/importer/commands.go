package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/FACorreiaa/family-finance-tracker/cmd/api"
	"github.com/FACorreiaa/family-finance-tracker/internal/domain/categories"
	"github.com/FACorreiaa/family-finance-tracker/internal/domain/exchangerates"
	importservice "github.com/FACorreiaa/family-finance-tracker/internal/domain/import/service"
	"github.com/FACorreiaa/family-finance-tracker/internal/domain/persons"
	"github.com/FACorreiaa/family-finance-tracker/pkg/config"
	"github.com/FACorreiaa/family-finance-tracker/pkg/storage"
)

type uploadFlags struct {
	person string
	year   int
}

func (f *uploadFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.person, "person", "", "Attach every record to this person")
	cmd.Flags().IntVar(&f.year, "year", 0, "Year for ledger sheets (default: from sheet name)")
}

func (f *uploadFlags) options() []importservice.Option {
	var opts []importservice.Option
	if f.person != "" {
		opts = append(opts, importservice.WithPerson(f.person))
	}
	if f.year != 0 {
		opts = append(opts, importservice.WithYear(f.year))
	}
	return opts
}

func readUpload(path string) (string, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return filepath.Base(path), data, nil
}

func previewCmd() *cobra.Command {
	var flags uploadFlags
	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Parse a spreadsheet and print the records without saving them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			name, data, err := readUpload(args[0])
			if err != nil {
				return err
			}

			svc := importservice.NewUploadService(nil, api.UploadConfig(cfg), newLogger(), nil)
			result, err := svc.Preview(cmd.Context(), name, data, flags.options()...)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	flags.register(cmd)
	return cmd
}

func importCmd() *cobra.Command {
	var flags uploadFlags
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Parse a spreadsheet and save its records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, data, err := readUpload(args[0])
			if err != nil {
				return err
			}

			deps, err := connect()
			if err != nil {
				return err
			}
			defer deps.Cleanup()

			result, err := deps.UploadService.Import(cmd.Context(), name, data, flags.options()...)
			if err != nil {
				return err
			}
			deps.Logger.Info(result.Message)
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	flags.register(cmd)
	return cmd
}

func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print totals, expenses by category and month by month figures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := connect()
			if err != nil {
				return err
			}
			defer deps.Cleanup()

			summary, err := deps.AnalyticsService.Summary(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), summary)
		},
	}
}

func categoriesCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := connect()
			if err != nil {
				return err
			}
			defer deps.Cleanup()

			list, err := deps.CategoriesService.List(cmd.Context(), categories.Kind(kind))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), list)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "Only list expense or income categories")
	return cmd
}

func personsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "persons",
		Short: "List household members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := connect()
			if err != nil {
				return err
			}
			defer deps.Cleanup()

			list, err := deps.PersonsService.List(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), list)
		},
	}

	var in persons.Input
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a household member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := connect()
			if err != nil {
				return err
			}
			defer deps.Cleanup()

			in.Name = args[0]
			p, err := deps.PersonsService.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), p)
		},
	}
	add.Flags().StringVar(&in.Icon, "icon", "", "Icon shown next to the name")
	add.Flags().StringVar(&in.Color, "color", "", "Hex color, e.g. #ff8800")

	cmd.AddCommand(add)
	return cmd
}

func ratesCmd() *cobra.Command {
	var amount, from, to string
	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Print dollar quotes, or convert an amount with --amount",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			svc := exchangerates.NewService(rateSource(), cfg.ExchangeRates.TTL, newLogger())

			if amount == "" {
				return writeJSON(cmd.OutOrStdout(), svc.Rates(cmd.Context()))
			}

			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amount, err)
			}
			converted, err := svc.Convert(cmd.Context(), value, from, to)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), converted.Display())
			return err
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "Amount to convert")
	cmd.Flags().StringVar(&from, "from", "USD", "Source currency (ARS or USD)")
	cmd.Flags().StringVar(&to, "to", "ARS", "Target currency (ARS or USD)")
	return cmd
}

func jobsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "Run the scheduled jobs until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			deps, err := connect()
			if err != nil {
				return err
			}
			defer deps.Cleanup()

			if err := deps.Scheduler.Start(); err != nil {
				return err
			}
			deps.Scheduler.RunNow()

			<-ctx.Done()
			return nil
		},
	}
}

func uploadsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uploads",
		Short: "List archived uploads (requires UPLOAD_ARCHIVE_DIR)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Upload.ArchiveDir == "" {
				return fmt.Errorf("UPLOAD_ARCHIVE_DIR is not set")
			}

			archive, err := storage.NewLocalStorage(cfg.Upload.ArchiveDir)
			if err != nil {
				return err
			}
			files, err := archive.List(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), files)
		},
	}
}
