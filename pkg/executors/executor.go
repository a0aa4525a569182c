package executors

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/brunomvsouza/ynab.go/api/transaction"
	"github.com/charmbracelet/log"

	"github.com/vitorcapdeville/financas/pkg/importer"
	"github.com/vitorcapdeville/financas/pkg/models"
	"github.com/vitorcapdeville/financas/pkg/plan"
	"github.com/vitorcapdeville/financas/pkg/repository"
	"github.com/vitorcapdeville/financas/pkg/rules"
	"github.com/vitorcapdeville/financas/pkg/ynab"
)

// Transactions is the part of the YNAB transaction API used for syncing.
// *ynab.TransactionService implements it.
type Transactions interface {
	GetTransactionsByAccount(budgetID, accountID string, filter *transaction.Filter) ([]*ynab.Transaction, error)
	CreateTransactions(budgetID string, payloads []transaction.PayloadTransaction) error
}

// Target is the YNAB account imported transactions are pushed to.
type Target struct {
	BudgetID    string
	AccountID   string
	UseCustomID bool
}

// Executor runs import plans: Plan previews, Apply imports and syncs.
type Executor struct {
	logger       *log.Logger
	importer     *importer.Importer
	rules        *rules.Service
	transactions repository.TransactionRepository
	out          io.Writer

	ynab   Transactions
	target Target
}

func New(logger *log.Logger, imp *importer.Importer, rulesSvc *rules.Service, transactions repository.TransactionRepository, out io.Writer) *Executor {
	if out == nil {
		out = os.Stdout
	}
	return &Executor{
		logger:       logger,
		importer:     imp,
		rules:        rulesSvc,
		transactions: transactions,
		out:          out,
	}
}

// WithYNAB enables syncing to target.
func (e *Executor) WithYNAB(client Transactions, target Target) *Executor {
	e.ynab = client
	e.target = target
	return e
}

func (e *Executor) syncEnabled() bool {
	return e.ynab != nil && e.target.BudgetID != "" && e.target.AccountID != ""
}

func (e *Executor) remote() ([]*ynab.Transaction, error) {
	remote, err := e.ynab.GetTransactionsByAccount(e.target.BudgetID, e.target.AccountID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch remote transactions: %w", err)
	}
	return remote, nil
}

func readFile(f plan.File) (importer.File, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return importer.File{}, fmt.Errorf("failed to read %s: %w", f.Path, err)
	}
	return importer.File{Name: filepath.Base(f.Path), Data: data, Password: f.Password()}, nil
}

// planRules returns the stored rules that are active plus the rules of p
// that do not exist yet, by name.
func (e *Executor) planRules(ctx context.Context, p *plan.Plan) ([]*models.Rule, []models.RuleParams, error) {
	existing, err := e.rules.List(ctx, false)
	if err != nil {
		return nil, nil, err
	}
	names := make(map[string]bool, len(existing))
	active := make([]*models.Rule, 0, len(existing))
	for _, r := range existing {
		names[r.Name] = true
		if r.Active {
			active = append(active, r)
		}
	}
	var missing []models.RuleParams
	for _, r := range p.Rules {
		if !names[r.Name] {
			missing = append(missing, r)
		}
	}
	return active, missing, nil
}
