package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vitorcapdeville/financas/pkg/models"
	"github.com/vitorcapdeville/financas/pkg/parser"
	"github.com/vitorcapdeville/financas/pkg/repository"
	"github.com/vitorcapdeville/financas/pkg/rules"
)

// File is one uploaded export. An empty Password falls back to the user's
// CPF.
type File struct {
	Name     string
	Data     []byte
	Password string
}

// Importer turns bank exports into stored transactions. It is decoupled from
// CLI and HTTP details so both layers can reuse it.
type Importer struct {
	registry     *parser.Registry
	transactions repository.TransactionRepository
	tags         repository.TagRepository
	rules        repository.RuleRepository
	users        repository.UserRepository
	logger       *log.Logger
}

// New returns a new Importer backed by store.
func New(registry *parser.Registry, store repository.Store, logger *log.Logger) *Importer {
	return &Importer{
		registry:     registry,
		transactions: store.Transactions(),
		tags:         store.Tags(),
		rules:        store.Rules(),
		users:        store.Users(),
		logger:       logger,
	}
}

// Preview detects and parses a file without persisting anything.
func (i *Importer) Preview(data []byte, filename, password string) ([]models.NormalizedRow, string, error) {
	id := parser.Detect(filename)
	p, err := i.registry.Resolve(id)
	if err != nil {
		return nil, id, err
	}
	rows, err := p.Parse(data, filename, password)
	if err != nil {
		return nil, id, err
	}
	return rows, id, nil
}

// ImportFile parses one file, stores every row as a transaction tagged with
// the routine tag and runs the active rules over the new transactions.
// Rows that fail to persist are logged and reported in the result; the
// remaining rows are still imported. A rule failure leaves the stored rows in
// place and is reported in RulesError.
func (i *Importer) ImportFile(ctx context.Context, data []byte, filename string, userID int64, password string) (*models.ImportResult, error) {
	password, err := i.ResolvePassword(ctx, userID, password)
	if err != nil {
		return nil, err
	}

	rows, parserID, err := i.Preview(data, filename, password)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, models.NewValidationError("%s: no valid rows found", filename)
	}
	i.logger.Debug("parsed file", "file", filename, "parser", parserID, "rows", len(rows))

	routine, err := i.routineTag(ctx)
	if err != nil {
		return nil, err
	}

	result := &models.ImportResult{
		BatchID:  uuid.NewString(),
		ParserID: parserID,
		IDs:      make([]int64, 0, len(rows)),
	}
	created := make([]*models.Transaction, 0, len(rows))

	for n, row := range rows {
		tx, err := i.storeRow(ctx, row, userID, routine.ID)
		if err != nil {
			i.logger.Warn("failed to import row", "file", filename, "row", n, "description", row.Description, "err", err)
			result.Errors = append(result.Errors, models.RowError{Row: n, Description: row.Description, Err: err.Error()})
			continue
		}
		created = append(created, tx)
		result.IDs = append(result.IDs, tx.ID)
	}

	if err := i.applyRules(ctx, created); err != nil {
		i.logger.Warn("failed to apply rules to imported transactions", "file", filename, "err", err)
		result.RulesError = err.Error()
	}

	result.Count = len(result.IDs)
	result.Message = fmt.Sprintf("%d transactions imported (parser: %s)", result.Count, parserID)
	i.logger.Info("import finished", "file", filename, "parser", parserID, "imported", result.Count, "failed", len(result.Errors), "batch", result.BatchID)
	return result, nil
}

// ImportFiles imports files one after another. A failing file is recorded in
// its own result and does not stop the batch.
func (i *Importer) ImportFiles(ctx context.Context, files []File, userID int64) (*models.BatchResult, error) {
	batch := &models.BatchResult{TotalFiles: len(files), Results: make([]models.FileResult, 0, len(files))}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return batch, err
		}

		res, err := i.ImportFile(ctx, f.Data, f.Name, userID, f.Password)
		if err != nil {
			i.logger.Warn("failed to import file", "file", f.Name, "err", err)
			batch.Failed++
			batch.Results = append(batch.Results, models.FileResult{
				Filename: f.Name,
				IDs:      []int64{},
				Error:    err.Error(),
			})
			continue
		}

		batch.Succeeded++
		batch.TotalImported += res.Count
		batch.Results = append(batch.Results, models.FileResult{
			Filename:   f.Name,
			Success:    true,
			Count:      res.Count,
			IDs:        res.IDs,
			Message:    res.Message,
			RulesError: res.RulesError,
		})
	}
	return batch, nil
}

func (i *Importer) storeRow(ctx context.Context, row models.NormalizedRow, userID, tagID int64) (*models.Transaction, error) {
	tx, err := models.FromRow(row).SetUser(userID).Build()
	if err != nil {
		return nil, err
	}
	saved, err := i.transactions.Create(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	saved.AddTag(tagID)
	saved, err = i.transactions.Update(ctx, saved)
	if err != nil {
		return nil, fmt.Errorf("failed to tag transaction: %w", err)
	}
	return saved, nil
}

// applyRules runs every active rule over txs, highest priority first, and
// saves the transactions that changed.
func (i *Importer) applyRules(ctx context.Context, txs []*models.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	active, err := i.rules.List(ctx, true)
	if err != nil {
		return fmt.Errorf("failed to list rules: %w", err)
	}
	if len(active) == 0 {
		return nil
	}
	rules.SortByPriority(active)

	for _, tx := range txs {
		if !rules.ApplyAll(active, tx) {
			continue
		}
		if _, err := i.transactions.Update(ctx, tx); err != nil {
			return fmt.Errorf("failed to save rule changes for transaction %d: %w", tx.ID, err)
		}
	}
	return nil
}

// routineTag returns the routine tag, creating it on first use.
func (i *Importer) routineTag(ctx context.Context) (*models.Tag, error) {
	tag, err := i.tags.FindByName(ctx, models.RoutineTagName)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up routine tag: %w", err)
	}
	tag, err = i.tags.Create(ctx, models.RoutineTag())
	if err != nil {
		return nil, fmt.Errorf("failed to create routine tag: %w", err)
	}
	i.logger.Debug("created routine tag", "id", tag.ID)
	return tag, nil
}

// ResolvePassword returns password, or the CPF of userID when password is
// empty. An unknown user yields no password.
func (i *Importer) ResolvePassword(ctx context.Context, userID int64, password string) (string, error) {
	if password != "" || userID == 0 {
		return password, nil
	}
	user, err := i.users.FindByID(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up user %d: %w", userID, err)
	}
	return user.CPF, nil
}
