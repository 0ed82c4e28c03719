package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/FACorreiaa/family-finance-tracker/internal/domain/categories"
	"github.com/FACorreiaa/family-finance-tracker/internal/domain/investments"
	"github.com/FACorreiaa/family-finance-tracker/internal/domain/transactions"
)

const dateLayout = "2006-01-02"

func optionalDecimal(flag, s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid --%s %q: %w", flag, s, err)
	}
	return &d, nil
}

func optionalUUID(flag, s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid --%s %q: %w", flag, s, err)
	}
	return &id, nil
}

// optionalDate parses a YYYY-MM-DD flag. With endOfDay the last microsecond
// of that day is returned so the bound includes the whole day.
func optionalDate(flag, s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid --%s %q, want YYYY-MM-DD: %w", flag, s, err)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Microsecond)
	}
	return &t, nil
}

type transactionFlags struct {
	kind, category, person string
	from, to               string
	min, max               string
	search                 string
	limit, offset          int
}

// filter builds the listing filter. The category name needs a lookup, so it
// is resolved by the caller.
func (f *transactionFlags) filter() (transactions.Filter, error) {
	filter := transactions.Filter{
		Kind:   categories.Kind(strings.ToLower(f.kind)),
		Search: f.search,
		Limit:  f.limit,
		Offset: f.offset,
	}

	var err error
	if filter.PersonID, err = optionalUUID("person", f.person); err != nil {
		return filter, err
	}
	if filter.From, err = optionalDate("from", f.from, false); err != nil {
		return filter, err
	}
	if filter.To, err = optionalDate("to", f.to, true); err != nil {
		return filter, err
	}
	if filter.MinAmount, err = optionalDecimal("min", f.min); err != nil {
		return filter, err
	}
	if filter.MaxAmount, err = optionalDecimal("max", f.max); err != nil {
		return filter, err
	}
	return filter, nil
}

func transactionsCmd() *cobra.Command {
	var flags transactionFlags
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List imported expenses or incomes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := flags.filter()
			if err != nil {
				return err
			}

			deps, err := connect()
			if err != nil {
				return err
			}
			defer deps.Cleanup()

			if flags.category != "" {
				kind := filter.Kind
				if kind == "" {
					kind = categories.KindExpense
				}
				c, err := deps.CategoriesService.Get(cmd.Context(), flags.category, kind)
				if err != nil {
					return err
				}
				filter.CategoryID = &c.ID
			}

			page, err := deps.TransactionsService.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), page)
		},
	}
	cmd.Flags().StringVar(&flags.kind, "kind", "expense", "expense or income")
	cmd.Flags().StringVar(&flags.category, "category", "", "Category name")
	cmd.Flags().StringVar(&flags.person, "person", "", "Person ID")
	cmd.Flags().StringVar(&flags.from, "from", "", "First day, YYYY-MM-DD")
	cmd.Flags().StringVar(&flags.to, "to", "", "Last day, YYYY-MM-DD")
	cmd.Flags().StringVar(&flags.min, "min", "", "Minimum amount")
	cmd.Flags().StringVar(&flags.max, "max", "", "Maximum amount")
	cmd.Flags().StringVar(&flags.search, "search", "", "Text in the concept (expenses) or source (incomes)")
	cmd.Flags().IntVar(&flags.limit, "limit", transactions.DefaultLimit, "Rows per page")
	cmd.Flags().IntVar(&flags.offset, "offset", 0, "Rows to skip")
	return cmd
}

func investmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "investments",
		Short: "List investments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := connect()
			if err != nil {
				return err
			}
			defer deps.Cleanup()

			list, err := deps.InvestmentsService.List(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), list)
		},
	}

	cmd.AddCommand(investmentAddCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "portfolio",
		Short: "Print value, invested amount and profit per currency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := connect()
			if err != nil {
				return err
			}
			defer deps.Cleanup()

			positions, err := deps.InvestmentsService.Portfolio(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), positions)
		},
	})
	cmd.AddCommand(operationsCmd())
	return cmd
}

func investmentAddCmd() *cobra.Command {
	var typ, invested, value, holding, currency, date, person, notes string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Record an investment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := investments.Input{Type: typ, Name: args[0], Currency: currency, Notes: notes}

			amounts := []struct {
				flag, raw string
				dst       *decimal.Decimal
			}{
				{"invested", invested, &in.Invested},
				{"value", value, &in.Value},
				{"holding", holding, &in.Holding},
			}
			for _, a := range amounts {
				d, err := optionalDecimal(a.flag, a.raw)
				if err != nil {
					return err
				}
				if d != nil {
					*a.dst = *d
				}
			}

			day, err := optionalDate("date", date, false)
			if err != nil {
				return err
			}
			if day != nil {
				in.Date = *day
			}
			if in.PersonID, err = optionalUUID("person", person); err != nil {
				return err
			}

			deps, err := connect()
			if err != nil {
				return err
			}
			defer deps.Cleanup()

			inv, err := deps.InvestmentsService.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), inv)
		},
	}
	cmd.Flags().StringVar(&typ, "type", "", "Kind of investment, e.g. bitcoin or fci")
	cmd.Flags().StringVar(&invested, "invested", "", "Amount put in")
	cmd.Flags().StringVar(&value, "value", "0", "Current value")
	cmd.Flags().StringVar(&holding, "holding", "0", "Units held")
	cmd.Flags().StringVar(&currency, "currency", "", "Currency (default ARS)")
	cmd.Flags().StringVar(&date, "date", "", "Date, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&person, "person", "", "Person ID")
	cmd.Flags().StringVar(&notes, "notes", "", "Free text")
	return cmd
}

func operationsCmd() *cobra.Command {
	var investment string
	cmd := &cobra.Command{
		Use:   "ops",
		Short: "List buy, sell and adjustment operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := optionalUUID("investment", investment)
			if err != nil {
				return err
			}

			deps, err := connect()
			if err != nil {
				return err
			}
			defer deps.Cleanup()

			ops, err := deps.InvestmentsService.ListOperations(cmd.Context(), id)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), ops)
		},
	}
	cmd.Flags().StringVar(&investment, "investment", "", "Only operations of this investment ID")

	var price, note string
	add := &cobra.Command{
		Use:   "add <investment-id> <COMPRA|VENTA|AJUSTE> <amount>",
		Short: "Record an operation and update the units held",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid investment id %q: %w", args[0], err)
			}
			typ, err := investments.ParseOperationType(args[1])
			if err != nil {
				return err
			}
			amount, err := decimal.NewFromString(args[2])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[2], err)
			}
			p, err := optionalDecimal("price", price)
			if err != nil {
				return err
			}

			deps, err := connect()
			if err != nil {
				return err
			}
			defer deps.Cleanup()

			op, err := deps.InvestmentsService.AddOperation(cmd.Context(), investments.OperationInput{
				InvestmentID: id, Type: typ, Amount: amount, Price: p, Note: note,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), op)
		},
	}
	add.Flags().StringVar(&price, "price", "", "Unit price")
	add.Flags().StringVar(&note, "note", "", "Free text")

	var newType, newAmount, newPrice, newNote string
	update := &cobra.Command{
		Use:   "update <operation-id>",
		Short: "Edit an operation; changing type or amount recomputes the units held",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid operation id %q: %w", args[0], err)
			}

			var changes investments.OperationChanges
			if newType != "" {
				typ, err := investments.ParseOperationType(newType)
				if err != nil {
					return err
				}
				changes.Type = &typ
			}
			if changes.Amount, err = optionalDecimal("amount", newAmount); err != nil {
				return err
			}
			if changes.Price, err = optionalDecimal("price", newPrice); err != nil {
				return err
			}
			if cmd.Flags().Changed("note") {
				changes.Note = &newNote
			}

			deps, err := connect()
			if err != nil {
				return err
			}
			defer deps.Cleanup()

			op, err := deps.InvestmentsService.UpdateOperation(cmd.Context(), id, changes)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), op)
		},
	}
	update.Flags().StringVar(&newType, "type", "", "COMPRA, VENTA or AJUSTE")
	update.Flags().StringVar(&newAmount, "amount", "", "Units")
	update.Flags().StringVar(&newPrice, "price", "", "Unit price")
	update.Flags().StringVar(&newNote, "note", "", "Free text")

	remove := &cobra.Command{
		Use:   "delete <operation-id>",
		Short: "Delete an operation and recompute the units held",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid operation id %q: %w", args[0], err)
			}

			deps, err := connect()
			if err != nil {
				return err
			}
			defer deps.Cleanup()

			if err := deps.InvestmentsService.DeleteOperation(cmd.Context(), id); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted operation %s\n", id)
			return err
		},
	}

	cmd.AddCommand(add, update, remove)
	return cmd
}
