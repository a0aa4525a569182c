package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vitorcapdeville/financas/pkg/executors"
	"github.com/vitorcapdeville/financas/pkg/plan"
	"github.com/vitorcapdeville/financas/pkg/ynab"
)

var planCmd = &cobra.Command{
	Use:   "plan <plan_file>",
	Short: "Preview a YAML import plan (dry-run)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := plan.Load(args[0])
		if err != nil {
			return err
		}
		return run(cmd, func(a *app) error {
			fmt.Printf("Plan preview for %s\n", args[0])
			p.Print()

			sum, err := a.executor(p).Plan(cmd.Context(), p)
			if err != nil {
				return err
			}
			fmt.Println("Summary of changes:")
			fmt.Printf("  - %d file(s), %d unreadable\n", sum.Files, sum.FailedFiles)
			fmt.Printf("  - %d rule(s) to create\n", sum.NewRules)
			fmt.Printf("  - %d transaction(s) to import, %d to add to YNAB, %d already in sync\n", sum.Transactions, sum.ToAdd, sum.InSync)
			return nil
		})
	},
}

var applyCmd = &cobra.Command{
	Use:   "apply <plan_file>",
	Short: "Import the files of a YAML plan and sync them to YNAB",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := plan.Load(args[0])
		if err != nil {
			return err
		}
		return run(cmd, func(a *app) error {
			res, err := a.executor(p).Apply(cmd.Context(), p)
			if err != nil {
				return err
			}
			printBatch(res.Batch)
			fmt.Printf("%d rule(s) created, %d transaction(s) sent to YNAB\n", res.RulesCreated, res.Synced)
			return nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{planCmd, applyCmd} {
		c.Flags().String("token", "", "YNAB personal access token")
		c.Flags().String("budget", "", "YNAB budget id")
		c.Flags().String("account", "", "YNAB account id")
	}
}

// executor returns an executor for p. The plan's ynab section wins over the
// configured budget and account; the token falls back to the configuration.
func (a *app) executor(p *plan.Plan) *executors.Executor {
	exec := executors.New(a.logger, a.importer(), a.rules(), a.store.Transactions(), nil)
	if p.UserID == 0 {
		p.UserID = a.cfg.UserID
	}

	target := executors.Target{
		BudgetID:    a.cfg.YNAB.BudgetID,
		AccountID:   a.cfg.YNAB.AccountID,
		UseCustomID: a.cfg.YNAB.UseCustomID,
	}
	token := a.cfg.YNAB.Token
	if p.YNAB != nil {
		target.BudgetID = p.YNAB.BudgetID
		target.AccountID = p.YNAB.AccountID
		if t := p.YNAB.Token(); t != "" {
			token = t
		}
	}
	if token == "" || target.BudgetID == "" || target.AccountID == "" {
		a.logger.Debug("ynab sync disabled")
		return exec
	}
	return exec.WithYNAB(ynab.New(token).Transaction(), target)
}
