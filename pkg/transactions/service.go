// Package transactions holds the manual transaction, tag and setting use
// cases that sit next to the importer.
package transactions

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/vitorcapdeville/financas/pkg/models"
	"github.com/vitorcapdeville/financas/pkg/repository"
)

// NewTransaction holds the fields of a manually entered transaction.
type NewTransaction struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Direction   models.Direction
	Category    string
	Notes       string
	InvoiceDate *time.Time
	UserID      int64
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	Description *string          `json:"description,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
	InvoiceDate *time.Time       `json:"invoice_date,omitempty"`
}

type Service struct {
	transactions repository.TransactionRepository
	tags         repository.TagRepository
	settings     repository.SettingRepository
	logger       *log.Logger
}

func NewService(transactions repository.TransactionRepository, tags repository.TagRepository, settings repository.SettingRepository, logger *log.Logger) *Service {
	return &Service{transactions: transactions, tags: tags, settings: settings, logger: logger}
}

func (s *Service) Create(ctx context.Context, in NewTransaction) (*models.Transaction, error) {
	direction := in.Direction
	if direction == "" {
		direction = models.Outflow
	}
	tx, err := models.NewTransaction(in.Description).
		SetDate(in.Date).
		SetDirection(direction, in.Amount).
		SetCategory(in.Category).
		SetNotes(in.Notes).
		SetInvoiceDate(in.InvoiceDate).
		SetUser(in.UserID).
		SetOrigin(models.OriginStatement).
		Build()
	if err != nil {
		return nil, err
	}
	return s.transactions.Create(ctx, tx)
}

func (s *Service) Get(ctx context.Context, id int64) (*models.Transaction, error) {
	return s.transactions.FindByID(ctx, id)
}

// List returns the transactions matching filter. Without an explicit date
// field the period applies to the date picked by SettingDateCriterion.
func (s *Service) List(ctx context.Context, filter repository.TransactionFilter) ([]*models.Transaction, error) {
	filter, err := s.withDateField(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.transactions.List(ctx, filter)
}

func (s *Service) withDateField(ctx context.Context, filter repository.TransactionFilter) (repository.TransactionFilter, error) {
	if filter.DateField != "" {
		return filter, nil
	}
	filter.DateField = repository.ByDate
	setting, err := s.settings.Get(ctx, models.SettingDateCriterion)
	if errors.Is(err, models.ErrNotFound) {
		return filter, nil
	}
	if err != nil {
		return filter, fmt.Errorf("failed to read %s: %w", models.SettingDateCriterion, err)
	}
	if setting.Value == models.DateCriterionInvoice {
		filter.DateField = repository.ByInvoiceDate
	}
	return filter, nil
}

// Categories returns the distinct non-empty categories of the transactions
// matching filter, sorted.
func (s *Service) Categories(ctx context.Context, filter repository.TransactionFilter) ([]string, error) {
	txs, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := []string{}
	for _, tx := range txs {
		if c := strings.TrimSpace(tx.Category); c != "" && !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	slices.Sort(out)
	return out, nil
}

func (s *Service) Update(ctx context.Context, id int64, p Patch) (*models.Transaction, error) {
	tx, err := s.transactions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Description != nil {
		d := strings.TrimSpace(*p.Description)
		if d == "" {
			return nil, models.NewValidationError("description is required")
		}
		tx.Description = d
	}
	if p.Amount != nil {
		if p.Amount.IsNegative() {
			return nil, models.NewValidationError("amount must be non-negative, got %s", p.Amount)
		}
		tx.Amount = *p.Amount
	}
	if p.Category != nil {
		tx.Category = strings.TrimSpace(*p.Category)
	}
	if p.Notes != nil {
		tx.Notes = *p.Notes
	}
	if p.InvoiceDate != nil {
		d := *p.InvoiceDate
		tx.InvoiceDate = &d
	}
	return s.transactions.Update(ctx, tx)
}

// RestoreOriginalAmount undoes any amount change made by rules or edits.
func (s *Service) RestoreOriginalAmount(ctx context.Context, id int64) (*models.Transaction, error) {
	tx, err := s.transactions.RestoreOriginalAmount(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("original amount restored", "id", id, "amount", tx.Amount.StringFixed(2))
	return tx, nil
}

// Tags returns the tags attached to transaction id.
func (s *Service) Tags(ctx context.Context, id int64) ([]*models.Tag, error) {
	tx, err := s.transactions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.tags.FindByIDs(ctx, tx.TagIDs)
}

func (s *Service) AddTag(ctx context.Context, id, tagID int64) (*models.Transaction, error) {
	tx, err := s.transactions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.tags.FindByID(ctx, tagID); err != nil {
		return nil, err
	}
	if !tx.AddTag(tagID) {
		return tx, nil
	}
	return s.transactions.Update(ctx, tx)
}

func (s *Service) RemoveTag(ctx context.Context, id, tagID int64) (*models.Transaction, error) {
	tx, err := s.transactions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !tx.RemoveTag(tagID) {
		return tx, nil
	}
	return s.transactions.Update(ctx, tx)
}

// TagService creates and lists tags.
type TagService struct {
	tags repository.TagRepository
}

func NewTagService(tags repository.TagRepository) *TagService {
	return &TagService{tags: tags}
}

// Create stores a new tag. Names are unique.
func (s *TagService) Create(ctx context.Context, name, color, description string) (*models.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.NewValidationError("tag name is required")
	}
	_, err := s.tags.FindByName(ctx, name)
	if err == nil {
		return nil, models.NewValidationError("a tag named '%s' already exists", name)
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up tag %q: %w", name, err)
	}
	return s.tags.Create(ctx, &models.Tag{Name: name, Color: color, Description: description})
}

func (s *TagService) List(ctx context.Context) ([]*models.Tag, error) {
	return s.tags.List(ctx)
}

// SettingService reads and writes application settings.
type SettingService struct {
	settings repository.SettingRepository
}

func NewSettingService(settings repository.SettingRepository) *SettingService {
	return &SettingService{settings: settings}
}

func (s *SettingService) Get(ctx context.Context, key string) (*models.Setting, error) {
	return s.settings.Get(ctx, strings.TrimSpace(key))
}

// Set validates and stores value under key, replacing any previous value.
func (s *SettingService) Set(ctx context.Context, key, value string) (*models.Setting, error) {
	setting, err := models.NewSetting(key, value)
	if err != nil {
		return nil, err
	}
	return s.settings.Set(ctx, setting)
}

func (s *SettingService) List(ctx context.Context) ([]*models.Setting, error) {
	return s.settings.List(ctx)
}
