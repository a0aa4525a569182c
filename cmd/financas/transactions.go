package main

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/vitorcapdeville/financas/pkg/csv"
	"github.com/vitorcapdeville/financas/pkg/models"
	"github.com/vitorcapdeville/financas/pkg/transactions"
)

var (
	listFilters     filters
	exportFilters   filters
	summaryFilters  filters
	categoryFilters filters
)

var transactionsCmd = &cobra.Command{
	Use:     "transactions",
	Aliases: []string{"tx"},
	Short:   "Inspect and edit stored transactions",
}

var transactionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored transactions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd, func(a *app) error {
			filter, err := listFilters.toRepository(a.cfg.UserID)
			if err != nil {
				return err
			}
			txs, err := a.transactions().List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			printTransactions(listFilters.apply(txs))
			return nil
		})
	},
}

var transactionsCreateCmd = &cobra.Command{
	Use:   "create <description> <amount>",
	Short: "Record a transaction by hand",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		in := transactions.NewTransaction{Description: args[0]}
		amount, err := decimal.NewFromString(args[1])
		if err != nil {
			return fmt.Errorf("invalid amount %q", args[1])
		}
		in.Amount = amount

		date, _ := f.GetString("date")
		d, err := parseDay(date)
		if err != nil {
			return err
		}
		if d == nil {
			now := time.Now().UTC()
			today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
			d = &today
		}
		in.Date = *d

		invoice, _ := f.GetString("invoice-date")
		if in.InvoiceDate, err = parseDay(invoice); err != nil {
			return err
		}
		direction, _ := f.GetString("direction")
		in.Direction = models.Direction(direction)
		in.Category, _ = f.GetString("category")
		in.Notes, _ = f.GetString("notes")

		return run(cmd, func(a *app) error {
			in.UserID = a.cfg.UserID
			tx, err := a.transactions().Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Printf("transaction %d created: %s %s\n", tx.ID, tx.Description, tx.SignedAmount().StringFixed(2))
			return nil
		})
	},
}

var transactionsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show inflow and outflow totals per category",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd, func(a *app) error {
			filter, err := summaryFilters.toRepository(a.cfg.UserID)
			if err != nil {
				return err
			}
			sum, err := a.transactions().Summary(cmd.Context(), filter)
			if err != nil {
				return err
			}
			printSummary(sum)
			return nil
		})
	},
}

var transactionsCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the categories in use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd, func(a *app) error {
			filter, err := categoryFilters.toRepository(a.cfg.UserID)
			if err != nil {
				return err
			}
			cats, err := a.transactions().Categories(cmd.Context(), filter)
			if err != nil {
				return err
			}
			for _, c := range cats {
				fmt.Println(c)
			}
			return nil
		})
	},
}

var transactionsRestoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Restore the amount a transaction was imported with",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return run(cmd, func(a *app) error {
			tx, err := a.transactions().RestoreOriginalAmount(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Printf("transaction %d restored to %s\n", tx.ID, tx.Amount.StringFixed(2))
			return nil
		})
	},
}

var transactionsTagCmd = &cobra.Command{
	Use:   "tag <id> <tag_id>",
	Short: "Attach a tag to a transaction",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return tagCommand(cmd, args, true)
	},
}

var transactionsUntagCmd = &cobra.Command{
	Use:   "untag <id> <tag_id>",
	Short: "Detach a tag from a transaction",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return tagCommand(cmd, args, false)
	},
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Manage tags",
}

var tagsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tags",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd, func(a *app) error {
			tags, err := a.tags().List(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCOLOR\tDESCRIPTION")
			for _, t := range tags {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", t.ID, t.Name, t.Color, t.Description)
			}
			return w.Flush()
		})
	},
}

var tagsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		color, _ := cmd.Flags().GetString("color")
		description, _ := cmd.Flags().GetString("description")
		return run(cmd, func(a *app) error {
			tag, err := a.tags().Create(cmd.Context(), args[0], color, description)
			if err != nil {
				return err
			}
			fmt.Printf("tag %d (%s) created\n", tag.ID, tag.Name)
			return nil
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored transactions as CSV to stdout",
	Long: "Export stored transactions as CSV. The output uses the generic " +
		"spreadsheet columns, so it can be imported again.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd, func(a *app) error {
			filter, err := exportFilters.toRepository(a.cfg.UserID)
			if err != nil {
				return err
			}
			txs, err := a.transactions().List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return csv.Write(os.Stdout, txs, exportFilters.toFilterFunc())
		})
	},
}

func init() {
	listFilters.register(transactionsListCmd.Flags())
	exportFilters.register(exportCmd.Flags())
	summaryFilters.registerStore(transactionsSummaryCmd.Flags())
	categoryFilters.registerStore(transactionsCategoriesCmd.Flags())

	cf := transactionsCreateCmd.Flags()
	cf.String("date", "", "Date (YYYY-MM-DD), defaults to today")
	cf.String("direction", string(models.Outflow), "inflow or outflow")
	cf.String("category", "", "Category")
	cf.String("notes", "", "Notes")
	cf.String("invoice-date", "", "Card invoice date (YYYY-MM-DD)")

	tagsCreateCmd.Flags().String("color", "", "Display color, e.g. #ff8800")
	tagsCreateCmd.Flags().String("description", "", "Description")

	transactionsCmd.AddCommand(transactionsListCmd, transactionsCreateCmd, transactionsSummaryCmd, transactionsCategoriesCmd)
	transactionsCmd.AddCommand(transactionsRestoreCmd, transactionsTagCmd, transactionsUntagCmd)
	tagsCmd.AddCommand(tagsListCmd, tagsCreateCmd)
}

func tagCommand(cmd *cobra.Command, args []string, add bool) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	tagID, err := parseID(args[1])
	if err != nil {
		return err
	}
	return run(cmd, func(a *app) error {
		svc := a.transactions()
		var tx *models.Transaction
		if add {
			tx, err = svc.AddTag(cmd.Context(), id, tagID)
		} else {
			tx, err = svc.RemoveTag(cmd.Context(), id, tagID)
		}
		if err != nil {
			return err
		}
		fmt.Printf("transaction %d tags: %s\n", tx.ID, models.FormatTagIDs(tx.TagIDs))
		return nil
	})
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func printTransactions(txs []*models.Transaction) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tDESCRIPTION\tAMOUNT\tCATEGORY\tTAGS")
	for _, tx := range txs {
		tags := make([]string, len(tx.TagIDs))
		for i, id := range tx.TagIDs {
			tags[i] = strconv.FormatInt(id, 10)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			tx.ID, tx.Date.Format("2006-01-02"), tx.Description, tx.SignedAmount().StringFixed(2), tx.Category, strings.Join(tags, ","))
	}
	_ = w.Flush()
	fmt.Printf("%d transaction(s)\n", len(txs))
}

func printSummary(sum *transactions.Summary) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DIRECTION\tCATEGORY\tAMOUNT")
	for _, side := range []struct {
		name  string
		total map[string]decimal.Decimal
	}{{"inflow", sum.InflowByCategory}, {"outflow", sum.OutflowByCategory}} {
		cats := make([]string, 0, len(side.total))
		for c := range side.total {
			cats = append(cats, c)
		}
		slices.Sort(cats)
		for _, c := range cats {
			fmt.Fprintf(w, "%s\t%s\t%s\n", side.name, c, side.total[c].StringFixed(2))
		}
	}
	_ = w.Flush()
	fmt.Printf("inflow %s, outflow %s, balance %s (%d transaction(s))\n",
		sum.Inflow.StringFixed(2), sum.Outflow.StringFixed(2), sum.Balance.StringFixed(2), sum.Count)
}
