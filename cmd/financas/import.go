package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/vitorcapdeville/financas/pkg/models"
	"github.com/vitorcapdeville/financas/pkg/parser"
	"github.com/vitorcapdeville/financas/pkg/service"
)

var importCmd = &cobra.Command{
	Use:   "import [flags] <path>...",
	Short: "Import bank exports (files, directories or glob patterns)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, _ := cmd.Flags().GetString("password")
		return run(cmd, func(a *app) error {
			processor := service.NewProcessor(a.importer(), a.registry, a.logger)
			batch, err := processor.Process(cmd.Context(), a.cfg.UserID, password, args...)
			if err != nil {
				return err
			}
			printBatch(batch)
			if batch.Succeeded == 0 {
				return fmt.Errorf("no file could be imported")
			}
			return nil
		})
	},
}

var parsersCmd = &cobra.Command{
	Use:   "parsers",
	Short: "List the supported bank formats",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd, func(a *app) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tBANK\tEXTENSIONS")
			for _, info := range a.registry.Describe() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", info.ID, info.BankName, strings.Join(info.Extensions, " "))
			}
			return w.Flush()
		})
	},
}

var parseCmd = &cobra.Command{
	Use:   "parse [flags] <file>",
	Short: "Parse a bank export and print its rows without importing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, _ := cmd.Flags().GetString("password")
		parserID, _ := cmd.Flags().GetString("parser")
		dump, _ := cmd.Flags().GetBool("dump")

		return run(cmd, func(a *app) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}
			if parserID == "" {
				parserID = parser.Detect(filepath.Base(args[0]))
			}
			p, err := a.registry.Resolve(parserID)
			if err != nil {
				return err
			}
			password, err = a.importer().ResolvePassword(cmd.Context(), a.cfg.UserID, password)
			if err != nil {
				return err
			}
			rows, err := p.Parse(data, filepath.Base(args[0]), password)
			if err != nil {
				return err
			}
			a.logger.Info("parsed file", "file", args[0], "parser", parserID, "rows", len(rows))

			if dump {
				_, err := pp.Println(rows)
				return err
			}
			printRows(rows)
			return nil
		})
	},
}

func init() {
	importCmd.Flags().StringP("password", "p", "", "Password of protected files (defaults to the user's CPF)")
	parseCmd.Flags().StringP("password", "p", "", "Password of protected files (defaults to the user's CPF)")
	parseCmd.Flags().String("parser", "", "Parser id, detected from the file name when empty")
	parseCmd.Flags().Bool("dump", false, "Dump the parsed rows as Go values")
}

func printBatch(batch *models.BatchResult) {
	for _, r := range batch.Results {
		if r.Success {
			fmt.Printf("  ok   %s: %s\n", r.Filename, r.Message)
		} else {
			fmt.Printf("  fail %s: %s\n", r.Filename, r.Error)
		}
	}
	fmt.Printf("%d file(s), %d imported, %d failed, %d transaction(s)\n", batch.TotalFiles, batch.Succeeded, batch.Failed, batch.TotalImported)
}

func printRows(rows []models.NormalizedRow) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tDESCRIPTION\tAMOUNT\tORIGIN\tCATEGORY")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Date.Format("2006-01-02"), r.Description, r.Amount.StringFixed(2), r.Origin, r.Category)
	}
	_ = w.Flush()
}
