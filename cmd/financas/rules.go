package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vitorcapdeville/financas/pkg/models"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage categorization rules",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules by priority",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		activeOnly, _ := cmd.Flags().GetBool("active")
		return run(cmd, func(a *app) error {
			list, err := a.rules().List(cmd.Context(), activeOnly)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPRIORITY\tACTIVE\tCRITERION\tACTION")
			for _, r := range list {
				fmt.Fprintf(w, "%d\t%s\t%d\t%t\t%s %q\t%s %q\n",
					r.ID, r.Name, r.Priority, r.Active, r.Criterion, r.CriterionValue, r.Action, actionArgument(r))
			}
			return w.Flush()
		})
	},
}

var rulesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a rule",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		f := cmd.Flags()
		params := models.RuleParams{}
		params.Name, _ = f.GetString("name")
		action, _ := f.GetString("action")
		criterion, _ := f.GetString("criterion")
		params.Action = models.ActionType(action)
		params.Criterion = models.CriterionType(criterion)
		params.CriterionValue, _ = f.GetString("match")
		params.ActionValue, _ = f.GetString("value")
		params.Priority, _ = f.GetInt("priority")
		params.TagIDs, _ = f.GetInt64Slice("tags")
		if inactive, _ := f.GetBool("inactive"); inactive {
			params.Active = new(bool)
		}

		return run(cmd, func(a *app) error {
			r, err := a.rules().Create(cmd.Context(), params)
			if err != nil {
				return err
			}
			fmt.Printf("rule %d (%s) created\n", r.ID, r.Name)
			return nil
		})
	},
}

var rulesUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change the given fields of a rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid rule id %q", args[0])
		}
		patch := rulePatch(cmd.Flags())

		return run(cmd, func(a *app) error {
			r, err := a.rules().Update(cmd.Context(), id, patch)
			if err != nil {
				return err
			}
			fmt.Printf("rule %d (%s) updated\n", r.ID, r.Name)
			return nil
		})
	},
}

var rulesApplyCmd = &cobra.Command{
	Use:   "apply [id]",
	Short: "Apply one rule, or every active rule, to stored transactions",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(a *app) error {
			var (
				stats models.ApplyStats
				err   error
			)
			if len(args) == 1 {
				id, perr := strconv.ParseInt(args[0], 10, 64)
				if perr != nil {
					return fmt.Errorf("invalid rule id %q", args[0])
				}
				stats, err = a.rules().ApplyRule(cmd.Context(), id)
			} else {
				stats, err = a.rules().ApplyAllActive(cmd.Context())
			}
			if err != nil {
				return err
			}
			fmt.Printf("%d transaction(s) processed, %d modified\n", stats.Processed, stats.Modified)
			return nil
		})
	},
}

func init() {
	rulesListCmd.Flags().Bool("active", false, "Only list active rules")

	for _, c := range []*cobra.Command{rulesCreateCmd, rulesUpdateCmd} {
		f := c.Flags()
		f.String("name", "", "Unique rule name")
		f.String("action", "", "Action: set_category, add_tags or set_amount")
		f.String("criterion", "", "Criterion: description_exact, description_contains or category_equals")
		f.String("match", "", "Value the criterion compares against")
		f.String("value", "", "Action value: category, amount or tag id list (e.g. [1, 2])")
		f.Int("priority", 0, "Higher runs first")
		f.Int64Slice("tags", nil, "Tag ids for add_tags")
	}
	rulesCreateCmd.Flags().Bool("inactive", false, "Create the rule disabled")
	rulesUpdateCmd.Flags().Bool("active", true, "Enable or disable the rule")

	rulesCmd.AddCommand(rulesListCmd, rulesCreateCmd, rulesUpdateCmd, rulesApplyCmd)
}

// rulePatch builds a patch from the flags set on the command line.
func rulePatch(f *pflag.FlagSet) models.RulePatch {
	var p models.RulePatch
	f.Visit(func(fl *pflag.Flag) {
		switch fl.Name {
		case "name":
			v := fl.Value.String()
			p.Name = &v
		case "action":
			v := models.ActionType(fl.Value.String())
			p.Action = &v
		case "criterion":
			v := models.CriterionType(fl.Value.String())
			p.Criterion = &v
		case "match":
			v := fl.Value.String()
			p.CriterionValue = &v
		case "value":
			v := fl.Value.String()
			p.ActionValue = &v
		case "priority":
			v, _ := f.GetInt("priority")
			p.Priority = &v
		case "active":
			v, _ := f.GetBool("active")
			p.Active = &v
		case "tags":
			v, _ := f.GetInt64Slice("tags")
			p.TagIDs = &v
		}
	})
	return p
}

func actionArgument(r *models.Rule) string {
	if r.Action == models.ActionAddTags && len(r.TagIDs) > 0 {
		return models.FormatTagIDs(r.TagIDs)
	}
	return r.ActionValue
}
