package executors

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/vitorcapdeville/financas/pkg/models"
	"github.com/vitorcapdeville/financas/pkg/plan"
	"github.com/vitorcapdeville/financas/pkg/rules"
)

var (
	syncedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
	addedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	failedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
)

// Summary is what Plan found without changing anything.
type Summary struct {
	Files        int
	FailedFiles  int
	Transactions int
	ToAdd        int
	InSync       int
	NewRules     int
}

// Plan parses every file of p, runs the stored and planned rules over the
// parsed transactions in memory and prints what Apply would do. When YNAB is
// configured each transaction is also reconciled against the remote account.
func (e *Executor) Plan(ctx context.Context, p *plan.Plan) (*Summary, error) {
	e.logger.Debug("planning", "files", len(p.Files))

	active, missing, err := e.planRules(ctx, p)
	if err != nil {
		return nil, err
	}
	for _, params := range missing {
		r, err := models.NewRule(params)
		if err != nil {
			return nil, err
		}
		if r.Active {
			active = append(active, r)
		}
	}
	rules.SortByPriority(active)

	sum := &Summary{Files: len(p.Files), NewRules: len(missing)}
	var local []*models.Transaction
	for _, f := range p.Files {
		txs, err := e.previewFile(ctx, f, p.UserID, active)
		if err != nil {
			sum.FailedFiles++
			fmt.Fprintln(e.out, failedStyle.Render(fmt.Sprintf("! %s: %v", f.Path, err)))
			continue
		}
		local = append(local, txs...)
	}
	sum.Transactions = len(local)

	if !e.syncEnabled() {
		for _, tx := range local {
			fmt.Fprintln(e.out, addedStyle.Render("+ "+line(tx, "")))
		}
		sum.ToAdd = len(local)
		fmt.Fprintf(e.out, "\nPlan: %d transaction(s) will be imported, %d new rule(s)\n", sum.ToAdd, sum.NewRules)
		return sum, nil
	}

	remote, err := e.remote()
	if err != nil {
		return nil, err
	}
	report := BuildReport(local, remote, e.target.UseCustomID)
	e.logger.Debug("processing plan report", "total", len(report.Items), "in_sync", report.InSyncCount(), "to_add", report.MissingCount())

	for _, m := range report.Items {
		if m.Status == Synced {
			fmt.Fprintln(e.out, syncedStyle.Render("= "+line(m.Local, m.RemoteCustomID())))
			continue
		}
		fmt.Fprintln(e.out, addedStyle.Render("+ "+line(m.Local, "xxxxxxxx")))
	}
	sum.ToAdd = report.MissingCount()
	sum.InSync = report.InSyncCount()

	if sum.ToAdd == 0 {
		fmt.Fprintf(e.out, "\nPlan: All %d transaction(s) are in sync\n", sum.InSync)
	} else {
		fmt.Fprintf(e.out, "\nPlan: %d transaction(s) will be added, %d already in sync\n", sum.ToAdd, sum.InSync)
	}
	return sum, nil
}

func (e *Executor) previewFile(ctx context.Context, f plan.File, userID int64, active []*models.Rule) ([]*models.Transaction, error) {
	file, err := readFile(f)
	if err != nil {
		return nil, err
	}
	password, err := e.importer.ResolvePassword(ctx, userID, file.Password)
	if err != nil {
		return nil, err
	}
	rows, parserID, err := e.importer.Preview(file.Data, file.Name, password)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("parsed file", "file", file.Name, "parser", parserID, "rows", len(rows))

	txs := make([]*models.Transaction, 0, len(rows))
	for i, row := range rows {
		tx, err := models.FromRow(row).SetUser(userID).Build()
		if err != nil {
			e.logger.Warn("skipping row", "file", file.Name, "row", i, "err", err)
			continue
		}
		rules.ApplyAll(active, tx)
		txs = append(txs, tx)
	}
	return txs, nil
}

func line(tx *models.Transaction, id string) string {
	return fmt.Sprintf("%s | %-30s | %-12s | %s | R$ %s",
		tx.Date.Format("2006/01/02"), payee(tx), tx.Category, id, tx.SignedAmount().StringFixed(2))
}
