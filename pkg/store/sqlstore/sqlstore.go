// Package sqlstore implements the repository contracts on top of GORM with
// the MySQL driver.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vitorcapdeville/financas/pkg/models"
	"github.com/vitorcapdeville/financas/pkg/repository"
)

type Store struct {
	db *gorm.DB
}

var _ repository.Store = (*Store)(nil)

// Open connects to the MySQL database at dsn and migrates the schema. The DSN
// must enable parseTime, e.g. "user:pass@tcp(host:3306)/financas?parseTime=true".
func Open(dsn string, logger *log.Logger) (*Store, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.New(logger, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := New(db)
	if err := s.Migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// New wraps an already opened connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(
		&userRecord{},
		&tagRecord{},
		&ruleRecord{},
		&transactionRecord{},
		&transactionTagRecord{},
		&settingRecord{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Transactions() repository.TransactionRepository { return transactionRepo{s.db} }
func (s *Store) Tags() repository.TagRepository                 { return tagRepo{s.db} }
func (s *Store) Rules() repository.RuleRepository               { return ruleRepo{s.db} }
func (s *Store) Users() repository.UserRepository               { return userRepo{s.db} }
func (s *Store) Settings() repository.SettingRepository         { return settingRepo{s.db} }

func notFound(err error, entity string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(entity, id)
	}
	return err
}

type transactionRepo struct{ db *gorm.DB }

func (r transactionRepo) Create(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	rec := fromTransaction(tx)
	rec.ID = 0
	err := r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		if err := db.Create(rec).Error; err != nil {
			return err
		}
		return replaceTags(db, rec.ID, tx.TagIDs)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return rec.toModel(append([]int64(nil), tx.TagIDs...)), nil
}

func (r transactionRepo) Update(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	rec := fromTransaction(tx)
	err := r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		var existing transactionRecord
		if err := db.Select("id", "created_at").First(&existing, tx.ID).Error; err != nil {
			return notFound(err, "Transaction", tx.ID)
		}
		rec.CreatedAt = existing.CreatedAt
		if err := db.Save(rec).Error; err != nil {
			return err
		}
		return replaceTags(db, rec.ID, tx.TagIDs)
	})
	if err != nil {
		return nil, err
	}
	return rec.toModel(append([]int64(nil), tx.TagIDs...)), nil
}

func (r transactionRepo) FindByID(ctx context.Context, id int64) (*models.Transaction, error) {
	db := r.db.WithContext(ctx)
	var rec transactionRecord
	if err := db.First(&rec, id).Error; err != nil {
		return nil, notFound(err, "Transaction", id)
	}
	tags, err := loadTags(db, []int64{id})
	if err != nil {
		return nil, err
	}
	return rec.toModel(tags[id]), nil
}

func (r transactionRepo) List(ctx context.Context, filter repository.TransactionFilter) ([]*models.Transaction, error) {
	db := r.db.WithContext(ctx)
	var recs []transactionRecord
	if err := applyFilter(db.Model(&transactionRecord{}), filter).Order("`date`, id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	ids := make([]int64, len(recs))
	for i, rec := range recs {
		ids[i] = rec.ID
	}
	tags, err := loadTags(db, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*models.Transaction, len(recs))
	for i := range recs {
		out[i] = recs[i].toModel(tags[recs[i].ID])
	}
	return out, nil
}

func (r transactionRepo) RestoreOriginalAmount(ctx context.Context, id int64) (*models.Transaction, error) {
	tx, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.RestoreOriginalAmount(); err != nil {
		return nil, err
	}
	err = r.db.WithContext(ctx).Model(&transactionRecord{ID: id}).Update("amount", tx.Amount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to restore amount of transaction %d: %w", id, err)
	}
	return tx, nil
}

const (
	untaggedSQL = "NOT EXISTS (SELECT 1 FROM transaction_tags tt WHERE tt.transaction_id = transactions.id)"
	taggedSQL   = "EXISTS (SELECT 1 FROM transaction_tags tt WHERE tt.transaction_id = transactions.id AND tt.tag_id IN ?)"
)

// applyFilter pushes every filter condition down to SQL.
func applyFilter(q *gorm.DB, f repository.TransactionFilter) *gorm.DB {
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Direction != "" {
		q = q.Where("direction = ?", string(f.Direction))
	}
	switch {
	case f.Untagged && len(f.TagIDs) > 0:
		q = q.Where("("+untaggedSQL+" OR "+taggedSQL+")", f.TagIDs)
	case f.Untagged:
		q = q.Where(untaggedSQL)
	case len(f.TagIDs) > 0:
		q = q.Where(taggedSQL, f.TagIDs)
	}

	column := "`date`"
	if f.DateField == repository.ByInvoiceDate {
		column = "invoice_date"
	}
	start, end := f.Period()
	if start != nil {
		q = q.Where(column+" >= ?", *start)
	}
	if end != nil {
		q = q.Where(column+" < ?", *end)
	}
	return q
}

func replaceTags(db *gorm.DB, txID int64, tagIDs []int64) error {
	if err := db.Where("transaction_id = ?", txID).Delete(&transactionTagRecord{}).Error; err != nil {
		return err
	}
	if len(tagIDs) == 0 {
		return nil
	}
	links := tagLinks(txID, tagIDs)
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
}

// loadTags returns tag ids per transaction, in attach order.
func loadTags(db *gorm.DB, txIDs []int64) (map[int64][]int64, error) {
	out := make(map[int64][]int64, len(txIDs))
	if len(txIDs) == 0 {
		return out, nil
	}
	var links []transactionTagRecord
	err := db.Where("transaction_id IN ?", txIDs).Order("transaction_id, position").Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction tags: %w", err)
	}
	for _, l := range links {
		out[l.TransactionID] = append(out[l.TransactionID], l.TagID)
	}
	return out, nil
}

type tagRepo struct{ db *gorm.DB }

func (r tagRepo) Create(ctx context.Context, tag *models.Tag) (*models.Tag, error) {
	rec := fromTag(tag)
	rec.ID = 0
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}
	return rec.toModel(), nil
}

func (r tagRepo) FindByID(ctx context.Context, id int64) (*models.Tag, error) {
	var rec tagRecord
	if err := r.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, notFound(err, "Tag", id)
	}
	return rec.toModel(), nil
}

func (r tagRepo) FindByName(ctx context.Context, name string) (*models.Tag, error) {
	var rec tagRecord
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&rec).Error; err != nil {
		return nil, notFound(err, "Tag", name)
	}
	if rec.Name != name {
		// tables created before the binary collation still fold case
		return nil, models.NewNotFoundError("Tag", name)
	}
	return rec.toModel(), nil
}

// FindByIDs returns the tags that exist among ids, in ids order.
func (r tagRepo) FindByIDs(ctx context.Context, ids []int64) ([]*models.Tag, error) {
	if len(ids) == 0 {
		return []*models.Tag{}, nil
	}
	var recs []tagRecord
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to find tags: %w", err)
	}
	byID := make(map[int64]*tagRecord, len(recs))
	for i := range recs {
		byID[recs[i].ID] = &recs[i]
	}
	out := make([]*models.Tag, 0, len(ids))
	for _, id := range ids {
		if rec, ok := byID[id]; ok {
			out = append(out, rec.toModel())
		}
	}
	return out, nil
}

func (r tagRepo) List(ctx context.Context) ([]*models.Tag, error) {
	var recs []tagRecord
	if err := r.db.WithContext(ctx).Order("name").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	out := make([]*models.Tag, len(recs))
	for i := range recs {
		out[i] = recs[i].toModel()
	}
	return out, nil
}

type ruleRepo struct{ db *gorm.DB }

func (r ruleRepo) Create(ctx context.Context, rule *models.Rule) (*models.Rule, error) {
	rec := fromRule(rule)
	rec.ID = 0
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, fmt.Errorf("failed to create rule: %w", err)
	}
	return rec.toModel()
}

func (r ruleRepo) Update(ctx context.Context, rule *models.Rule) (*models.Rule, error) {
	rec := fromRule(rule)
	err := r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		var existing ruleRecord
		if err := db.Select("id", "created_at").First(&existing, rule.ID).Error; err != nil {
			return notFound(err, "Rule", rule.ID)
		}
		rec.CreatedAt = existing.CreatedAt
		return db.Save(rec).Error
	})
	if err != nil {
		return nil, err
	}
	return rec.toModel()
}

func (r ruleRepo) FindByID(ctx context.Context, id int64) (*models.Rule, error) {
	var rec ruleRecord
	if err := r.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, notFound(err, "Rule", id)
	}
	return rec.toModel()
}

func (r ruleRepo) FindByName(ctx context.Context, name string) (*models.Rule, error) {
	var rec ruleRecord
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&rec).Error; err != nil {
		return nil, notFound(err, "Rule", name)
	}
	if rec.Name != name {
		return nil, models.NewNotFoundError("Rule", name)
	}
	return rec.toModel()
}

func (r ruleRepo) List(ctx context.Context, activeOnly bool) ([]*models.Rule, error) {
	q := r.db.WithContext(ctx).Order("id")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var recs []ruleRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	out := make([]*models.Rule, 0, len(recs))
	for i := range recs {
		rule, err := recs[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, nil
}

type userRepo struct{ db *gorm.DB }

func (r userRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	rec := fromUser(user)
	rec.ID = 0
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return rec.toModel(), nil
}

func (r userRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	var rec userRecord
	if err := r.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, notFound(err, "User", id)
	}
	return rec.toModel(), nil
}

type settingRepo struct{ db *gorm.DB }

func (r settingRepo) Get(ctx context.Context, key string) (*models.Setting, error) {
	var rec settingRecord
	if err := r.db.WithContext(ctx).Where(&settingRecord{Key: key}).First(&rec).Error; err != nil {
		return nil, notFound(err, "Setting", key)
	}
	return rec.toModel(), nil
}

func (r settingRepo) Set(ctx context.Context, setting *models.Setting) (*models.Setting, error) {
	rec := &settingRecord{Key: setting.Key, Value: setting.Value}
	if err := upsertSetting(r.db.WithContext(ctx), rec).Error; err != nil {
		return nil, fmt.Errorf("failed to save setting %q: %w", setting.Key, err)
	}
	return rec.toModel(), nil
}

func upsertSetting(db *gorm.DB, rec *settingRecord) *gorm.DB {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(rec)
}

func (r settingRepo) List(ctx context.Context) ([]*models.Setting, error) {
	var recs []settingRecord
	if err := r.db.WithContext(ctx).Order("`key`").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	out := make([]*models.Setting, len(recs))
	for i := range recs {
		out[i] = recs[i].toModel()
	}
	return out, nil
}
