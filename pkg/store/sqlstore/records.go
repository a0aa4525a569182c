package sqlstore

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vitorcapdeville/financas/pkg/models"
)

type transactionRecord struct {
	ID             int64               `gorm:"primaryKey;autoIncrement"`
	Date           time.Time           `gorm:"type:date;not null;index"`
	Description    string              `gorm:"type:varchar(255);not null"`
	Amount         decimal.Decimal     `gorm:"type:decimal(14,2);not null"`
	OriginalAmount decimal.NullDecimal `gorm:"type:decimal(14,2)"`
	Direction      string              `gorm:"type:varchar(16);not null"`
	Category       string              `gorm:"type:varchar(100);index"`
	Origin         string              `gorm:"type:varchar(16);not null"`
	BankID         string              `gorm:"type:varchar(32)"`
	Notes          string              `gorm:"type:text"`
	InvoiceDate    *time.Time          `gorm:"type:date;index"`
	UserID         int64               `gorm:"index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (transactionRecord) TableName() string { return "transactions" }

// transactionTagRecord links a transaction to a tag. Position keeps the order
// in which tags were attached.
type transactionTagRecord struct {
	TransactionID int64 `gorm:"primaryKey;autoIncrement:false"`
	TagID         int64 `gorm:"primaryKey;autoIncrement:false;index"`
	Position      int   `gorm:"not null"`
}

func (transactionTagRecord) TableName() string { return "transaction_tags" }

// Tag and rule names are compared case- and accent-sensitively, so their
// columns use a binary collation.
type tagRecord struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"type:varchar(100) COLLATE utf8mb4_bin;not null;uniqueIndex"`
	Color       string `gorm:"type:varchar(16)"`
	Description string `gorm:"type:varchar(255)"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (tagRecord) TableName() string { return "tags" }

type ruleRecord struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	Name           string `gorm:"type:varchar(100) COLLATE utf8mb4_bin;not null;uniqueIndex"`
	Action         string `gorm:"type:varchar(32);not null"`
	Criterion      string `gorm:"type:varchar(32);not null"`
	CriterionValue string `gorm:"type:varchar(255);not null"`
	ActionValue    string `gorm:"type:varchar(255);not null"`
	Priority       int    `gorm:"not null"`
	Active         bool   `gorm:"not null;index"`
	TagIDs         string `gorm:"type:varchar(255)"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (ruleRecord) TableName() string { return "rules" }

type userRecord struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"type:varchar(100);not null"`
	CPF       string `gorm:"type:varchar(14)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (userRecord) TableName() string { return "users" }

type settingRecord struct {
	Key       string `gorm:"type:varchar(100) COLLATE utf8mb4_bin;primaryKey"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (settingRecord) TableName() string { return "settings" }

func fromTransaction(tx *models.Transaction) *transactionRecord {
	rec := &transactionRecord{
		ID:          tx.ID,
		Date:        tx.Date,
		Description: tx.Description,
		Amount:      tx.Amount,
		Direction:   string(tx.Direction),
		Category:    tx.Category,
		Origin:      string(tx.Origin),
		BankID:      tx.BankID,
		Notes:       tx.Notes,
		InvoiceDate: tx.InvoiceDate,
		UserID:      tx.UserID,
		CreatedAt:   tx.CreatedAt,
		UpdatedAt:   tx.UpdatedAt,
	}
	if tx.OriginalAmount != nil {
		rec.OriginalAmount = decimal.NewNullDecimal(*tx.OriginalAmount)
	}
	return rec
}

func tagLinks(txID int64, tagIDs []int64) []transactionTagRecord {
	links := make([]transactionTagRecord, len(tagIDs))
	for i, id := range tagIDs {
		links[i] = transactionTagRecord{TransactionID: txID, TagID: id, Position: i}
	}
	return links
}

func (r *transactionRecord) toModel(tagIDs []int64) *models.Transaction {
	tx := &models.Transaction{
		ID:          r.ID,
		Date:        r.Date,
		Description: r.Description,
		Amount:      r.Amount,
		Direction:   models.Direction(r.Direction),
		Category:    r.Category,
		Origin:      models.Origin(r.Origin),
		BankID:      r.BankID,
		Notes:       r.Notes,
		InvoiceDate: r.InvoiceDate,
		UserID:      r.UserID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		TagIDs:      tagIDs,
	}
	if r.OriginalAmount.Valid {
		v := r.OriginalAmount.Decimal
		tx.OriginalAmount = &v
	}
	return tx
}

func fromTag(t *models.Tag) *tagRecord {
	return &tagRecord{
		ID:          t.ID,
		Name:        t.Name,
		Color:       t.Color,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (r *tagRecord) toModel() *models.Tag {
	return &models.Tag{
		ID:          r.ID,
		Name:        r.Name,
		Color:       r.Color,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func fromRule(r *models.Rule) *ruleRecord {
	rec := &ruleRecord{
		ID:             r.ID,
		Name:           r.Name,
		Action:         string(r.Action),
		Criterion:      string(r.Criterion),
		CriterionValue: r.CriterionValue,
		ActionValue:    r.ActionValue,
		Priority:       r.Priority,
		Active:         r.Active,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if len(r.TagIDs) > 0 {
		rec.TagIDs = models.FormatTagIDs(r.TagIDs)
	}
	return rec
}

func (r *ruleRecord) toModel() (*models.Rule, error) {
	ids, err := models.ParseTagIDs(r.TagIDs)
	if err != nil {
		return nil, err
	}
	return &models.Rule{
		ID:             r.ID,
		Name:           r.Name,
		Action:         models.ActionType(r.Action),
		Criterion:      models.CriterionType(r.Criterion),
		CriterionValue: r.CriterionValue,
		ActionValue:    r.ActionValue,
		Priority:       r.Priority,
		Active:         r.Active,
		TagIDs:         ids,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}, nil
}

func fromUser(u *models.User) *userRecord {
	return &userRecord{ID: u.ID, Name: u.Name, CPF: u.CPF, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt}
}

func (r *userRecord) toModel() *models.User {
	return &models.User{ID: r.ID, Name: r.Name, CPF: r.CPF, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

func (r *settingRecord) toModel() *models.Setting {
	return &models.Setting{Key: r.Key, Value: r.Value, UpdatedAt: r.UpdatedAt}
}
