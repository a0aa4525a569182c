// Package repository declares the persistence contracts consumed by the
// import and rule use cases. Implementations report absent entities with
// errors matching models.ErrNotFound.
package repository

import (
	"context"
	"time"

	"github.com/vitorcapdeville/financas/pkg/models"
)

// DateField selects which date a TransactionFilter period applies to.
type DateField string

const (
	ByDate        DateField = "date"
	ByInvoiceDate DateField = "invoice_date"
)

// TransactionFilter narrows List results. Zero values mean "no filter".
type TransactionFilter struct {
	UserID    int64
	Month     int
	Year      int
	Start     *time.Time
	End       *time.Time
	Category  string
	Direction models.Direction
	TagIDs    []int64
	Untagged  bool
	DateField DateField
}

type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) (*models.Transaction, error)
	Update(ctx context.Context, tx *models.Transaction) (*models.Transaction, error)
	FindByID(ctx context.Context, id int64) (*models.Transaction, error)
	List(ctx context.Context, filter TransactionFilter) ([]*models.Transaction, error)
	RestoreOriginalAmount(ctx context.Context, id int64) (*models.Transaction, error)
}

type TagRepository interface {
	Create(ctx context.Context, tag *models.Tag) (*models.Tag, error)
	FindByID(ctx context.Context, id int64) (*models.Tag, error)
	FindByName(ctx context.Context, name string) (*models.Tag, error)
	FindByIDs(ctx context.Context, ids []int64) ([]*models.Tag, error)
	List(ctx context.Context) ([]*models.Tag, error)
}

type RuleRepository interface {
	Create(ctx context.Context, rule *models.Rule) (*models.Rule, error)
	Update(ctx context.Context, rule *models.Rule) (*models.Rule, error)
	FindByID(ctx context.Context, id int64) (*models.Rule, error)
	FindByName(ctx context.Context, name string) (*models.Rule, error)
	List(ctx context.Context, activeOnly bool) ([]*models.Rule, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

// SettingRepository stores key/value preferences. Set inserts or replaces.
type SettingRepository interface {
	Get(ctx context.Context, key string) (*models.Setting, error)
	Set(ctx context.Context, setting *models.Setting) (*models.Setting, error)
	List(ctx context.Context) ([]*models.Setting, error)
}

// Store bundles every repository a running application needs.
type Store interface {
	Transactions() TransactionRepository
	Tags() TagRepository
	Rules() RuleRepository
	Users() UserRepository
	Settings() SettingRepository
}
