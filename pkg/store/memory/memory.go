// Package memory is an in-memory implementation of the repository contracts.
// It is safe for concurrent use; data is lost when the process exits.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vitorcapdeville/financas/pkg/models"
	"github.com/vitorcapdeville/financas/pkg/repository"
)

// Store keeps every entity in maps guarded by a single lock. Entities are
// copied on the way in and out so callers never share state with the store.
type Store struct {
	mu           sync.RWMutex
	transactions map[int64]*models.Transaction
	tags         map[int64]*models.Tag
	rules        map[int64]*models.Rule
	users        map[int64]*models.User
	settings     map[string]*models.Setting
	nextID       int64
	now          func() time.Time
}

var _ repository.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		transactions: make(map[int64]*models.Transaction),
		tags:         make(map[int64]*models.Tag),
		rules:        make(map[int64]*models.Rule),
		users:        make(map[int64]*models.User),
		settings:     make(map[string]*models.Setting),
		now:          time.Now,
	}
}

func (s *Store) Transactions() repository.TransactionRepository { return transactionRepo{s} }
func (s *Store) Tags() repository.TagRepository                 { return tagRepo{s} }
func (s *Store) Rules() repository.RuleRepository               { return ruleRepo{s} }
func (s *Store) Users() repository.UserRepository               { return userRepo{s} }
func (s *Store) Settings() repository.SettingRepository         { return settingRepo{s} }

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

type transactionRepo struct{ s *Store }

func (r transactionRepo) Create(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := tx.Clone()
	c.ID = r.s.id()
	now := r.s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	r.s.transactions[c.ID] = c
	return c.Clone(), nil
}

func (r transactionRepo) Update(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.transactions[tx.ID]
	if !ok {
		return nil, models.NewNotFoundError("Transaction", tx.ID)
	}
	c := tx.Clone()
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = r.s.now()
	r.s.transactions[c.ID] = c
	return c.Clone(), nil
}

func (r transactionRepo) FindByID(ctx context.Context, id int64) (*models.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	tx, ok := r.s.transactions[id]
	if !ok {
		return nil, models.NewNotFoundError("Transaction", id)
	}
	return tx.Clone(), nil
}

func (r transactionRepo) List(ctx context.Context, filter repository.TransactionFilter) ([]*models.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*models.Transaction
	for _, tx := range r.s.transactions {
		if filter.Match(tx) {
			out = append(out, tx.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r transactionRepo) RestoreOriginalAmount(ctx context.Context, id int64) (*models.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	tx, ok := r.s.transactions[id]
	if !ok {
		return nil, models.NewNotFoundError("Transaction", id)
	}
	c := tx.Clone()
	if err := c.RestoreOriginalAmount(); err != nil {
		return nil, err
	}
	c.UpdatedAt = r.s.now()
	r.s.transactions[id] = c
	return c.Clone(), nil
}

type tagRepo struct{ s *Store }

func (r tagRepo) Create(ctx context.Context, tag *models.Tag) (*models.Tag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := *tag
	c.ID = r.s.id()
	now := r.s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	r.s.tags[c.ID] = &c
	out := c
	return &out, nil
}

func (r tagRepo) FindByID(ctx context.Context, id int64) (*models.Tag, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	tag, ok := r.s.tags[id]
	if !ok {
		return nil, models.NewNotFoundError("Tag", id)
	}
	c := *tag
	return &c, nil
}

func (r tagRepo) FindByName(ctx context.Context, name string) (*models.Tag, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, tag := range r.s.tags {
		if tag.Name == name {
			c := *tag
			return &c, nil
		}
	}
	return nil, models.NewNotFoundError("Tag", name)
}

// FindByIDs returns the tags that exist among ids, in ids order. Unknown ids
// are skipped.
func (r tagRepo) FindByIDs(ctx context.Context, ids []int64) ([]*models.Tag, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.Tag, 0, len(ids))
	for _, id := range ids {
		if tag, ok := r.s.tags[id]; ok {
			c := *tag
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r tagRepo) List(ctx context.Context) ([]*models.Tag, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.Tag, 0, len(r.s.tags))
	for _, tag := range r.s.tags {
		c := *tag
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type ruleRepo struct{ s *Store }

func (r ruleRepo) Create(ctx context.Context, rule *models.Rule) (*models.Rule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := rule.Clone()
	c.ID = r.s.id()
	now := r.s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	r.s.rules[c.ID] = c
	return c.Clone(), nil
}

func (r ruleRepo) Update(ctx context.Context, rule *models.Rule) (*models.Rule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.rules[rule.ID]
	if !ok {
		return nil, models.NewNotFoundError("Rule", rule.ID)
	}
	c := rule.Clone()
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = r.s.now()
	r.s.rules[c.ID] = c
	return c.Clone(), nil
}

func (r ruleRepo) FindByID(ctx context.Context, id int64) (*models.Rule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rule, ok := r.s.rules[id]
	if !ok {
		return nil, models.NewNotFoundError("Rule", id)
	}
	return rule.Clone(), nil
}

func (r ruleRepo) FindByName(ctx context.Context, name string) (*models.Rule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, rule := range r.s.rules {
		if rule.Name == name {
			return rule.Clone(), nil
		}
	}
	return nil, models.NewNotFoundError("Rule", name)
}

// List returns rules in creation order.
func (r ruleRepo) List(ctx context.Context, activeOnly bool) ([]*models.Rule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*models.Rule
	for _, rule := range r.s.rules {
		if activeOnly && !rule.Active {
			continue
		}
		out = append(out, rule.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type userRepo struct{ s *Store }

func (r userRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := *user
	c.ID = r.s.id()
	now := r.s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	r.s.users[c.ID] = &c
	out := c
	return &out, nil
}

func (r userRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, models.NewNotFoundError("User", id)
	}
	c := *user
	return &c, nil
}

type settingRepo struct{ s *Store }

func (r settingRepo) Get(ctx context.Context, key string) (*models.Setting, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	setting, ok := r.s.settings[key]
	if !ok {
		return nil, models.NewNotFoundError("Setting", key)
	}
	c := *setting
	return &c, nil
}

func (r settingRepo) Set(ctx context.Context, setting *models.Setting) (*models.Setting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := *setting
	c.UpdatedAt = r.s.now()
	r.s.settings[c.Key] = &c
	out := c
	return &out, nil
}

// List returns settings ordered by key.
func (r settingRepo) List(ctx context.Context) ([]*models.Setting, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.Setting, 0, len(r.s.settings))
	for _, setting := range r.s.settings {
		c := *setting
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
