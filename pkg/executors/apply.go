package executors

import (
	"context"
	"fmt"

	"github.com/vitorcapdeville/financas/pkg/importer"
	"github.com/vitorcapdeville/financas/pkg/models"
	"github.com/vitorcapdeville/financas/pkg/plan"
)

// Result is what Apply changed.
type Result struct {
	RulesCreated int
	Batch        *models.BatchResult
	Synced       int
}

// Apply creates the plan's missing rules, imports every file and, when YNAB
// is configured, pushes the imported transactions that are not in the remote
// account yet.
func (e *Executor) Apply(ctx context.Context, p *plan.Plan) (*Result, error) {
	e.logger.Debug("applying plan", "files", len(p.Files))

	_, missing, err := e.planRules(ctx, p)
	if err != nil {
		return nil, err
	}
	res := &Result{}
	for _, params := range missing {
		r, err := e.rules.Create(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("failed to create rule %q: %w", params.Name, err)
		}
		e.logger.Info("created rule", "name", r.Name, "id", r.ID)
		res.RulesCreated++
	}

	files := make([]importer.File, 0, len(p.Files))
	for _, f := range p.Files {
		file, err := readFile(f)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	res.Batch, err = e.importer.ImportFiles(ctx, files, p.UserID)
	if err != nil {
		return nil, err
	}
	e.logger.Info("import finished", "files", res.Batch.TotalFiles, "failed", res.Batch.Failed, "imported", res.Batch.TotalImported)

	if !e.syncEnabled() || res.Batch.TotalImported == 0 {
		return res, nil
	}

	var local []*models.Transaction
	for _, fr := range res.Batch.Results {
		for _, id := range fr.IDs {
			tx, err := e.transactions.FindByID(ctx, id)
			if err != nil {
				return nil, err
			}
			local = append(local, tx)
		}
	}
	res.Synced, err = e.Sync(local)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Sync creates in YNAB the transactions of local that are missing remotely
// and returns how many were sent.
func (e *Executor) Sync(local []*models.Transaction) (int, error) {
	if !e.syncEnabled() {
		return 0, fmt.Errorf("ynab sync is not configured")
	}
	remote, err := e.remote()
	if err != nil {
		return 0, err
	}

	report := BuildReport(local, remote, e.target.UseCustomID)
	e.logger.Info("transactions to create", "count", report.MissingCount(), "account_id", e.target.AccountID)
	if report.MissingCount() == 0 {
		return 0, nil
	}

	batch, err := report.Payloads(e.target.AccountID)
	if err != nil {
		return 0, err
	}
	if err := e.ynab.CreateTransactions(e.target.BudgetID, batch); err != nil {
		return 0, fmt.Errorf("failed to create transactions: %w", err)
	}
	e.logger.Info("created transactions", "count", len(batch), "account_id", e.target.AccountID)
	return len(batch), nil
}
