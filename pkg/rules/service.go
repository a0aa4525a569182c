package rules

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/vitorcapdeville/financas/pkg/models"
	"github.com/vitorcapdeville/financas/pkg/repository"
)

// Service manages rules and applies them retroactively to stored
// transactions.
type Service struct {
	rules        repository.RuleRepository
	transactions repository.TransactionRepository
	tags         repository.TagRepository
	logger       *log.Logger
}

func NewService(rules repository.RuleRepository, transactions repository.TransactionRepository, tags repository.TagRepository, logger *log.Logger) *Service {
	return &Service{
		rules:        rules,
		transactions: transactions,
		tags:         tags,
		logger:       logger,
	}
}

// Create validates params and stores a new rule. Names are unique.
func (s *Service) Create(ctx context.Context, params models.RuleParams) (*models.Rule, error) {
	rule, err := models.NewRule(params)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, rule.Name, 0); err != nil {
		return nil, err
	}
	if err := s.ensureTagsExist(ctx, rule); err != nil {
		return nil, err
	}

	created, err := s.rules.Create(ctx, rule)
	if err != nil {
		return nil, fmt.Errorf("failed to create rule: %w", err)
	}
	s.logger.Info("rule created", "id", created.ID, "name", created.Name, "priority", created.Priority)
	return created, nil
}

// Update applies a partial patch to rule id.
func (s *Service) Update(ctx context.Context, id int64, patch models.RulePatch) (*models.Rule, error) {
	rule, err := s.rules.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previousName := rule.Name
	if err := rule.ApplyPatch(patch); err != nil {
		return nil, err
	}
	if rule.Name != previousName {
		if err := s.ensureUniqueName(ctx, rule.Name, id); err != nil {
			return nil, err
		}
	}
	if err := s.ensureTagsExist(ctx, rule); err != nil {
		return nil, err
	}

	updated, err := s.rules.Update(ctx, rule)
	if err != nil {
		return nil, fmt.Errorf("failed to update rule %d: %w", id, err)
	}
	return updated, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*models.Rule, error) {
	return s.rules.FindByID(ctx, id)
}

// List returns rules ordered by descending priority.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]*models.Rule, error) {
	rules, err := s.rules.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	SortByPriority(rules)
	return rules, nil
}

// ApplyRule runs one rule over every stored transaction and persists the
// ones it modified.
func (s *Service) ApplyRule(ctx context.Context, id int64) (models.ApplyStats, error) {
	rule, err := s.rules.FindByID(ctx, id)
	if err != nil {
		return models.ApplyStats{}, err
	}
	return s.apply(ctx, []*models.Rule{rule})
}

// ApplyAllActive runs every active rule, highest priority first, over every
// stored transaction. Each transaction is saved at most once.
func (s *Service) ApplyAllActive(ctx context.Context) (models.ApplyStats, error) {
	rules, err := s.List(ctx, true)
	if err != nil {
		return models.ApplyStats{}, err
	}
	return s.apply(ctx, rules)
}

func (s *Service) apply(ctx context.Context, rules []*models.Rule) (models.ApplyStats, error) {
	var stats models.ApplyStats
	txs, err := s.transactions.List(ctx, repository.TransactionFilter{})
	if err != nil {
		return stats, fmt.Errorf("failed to list transactions: %w", err)
	}

	for _, tx := range txs {
		stats.Processed++
		if !ApplyAll(rules, tx) {
			continue
		}
		if _, err := s.transactions.Update(ctx, tx); err != nil {
			return stats, fmt.Errorf("failed to update transaction %d: %w", tx.ID, err)
		}
		stats.Modified++
	}

	s.logger.Info("rules applied", "rules", len(rules), "processed", stats.Processed, "modified", stats.Modified)
	return stats, nil
}

func (s *Service) ensureUniqueName(ctx context.Context, name string, selfID int64) error {
	existing, err := s.rules.FindByName(ctx, name)
	if errors.Is(err, models.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != selfID {
		return models.NewValidationError("a rule named '%s' already exists", name)
	}
	return nil
}

// ensureTagsExist rejects add_tags rules that reference unknown tags.
func (s *Service) ensureTagsExist(ctx context.Context, rule *models.Rule) error {
	if rule.Action != models.ActionAddTags || s.tags == nil {
		return nil
	}
	ids, err := rule.Tags()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := s.tags.FindByID(ctx, id); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return models.NewValidationError("tag %d does not exist", id)
			}
			return err
		}
	}
	return nil
}
