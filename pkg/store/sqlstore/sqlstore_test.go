package sqlstore

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/vitorcapdeville/financas/pkg/models"
	"github.com/vitorcapdeville/financas/pkg/repository"
)

// dryRunDB builds statements without ever talking to a server.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "user:pass@tcp(127.0.0.1:3306)/financas?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               gormlogger.Discard,
	})
	require.NoError(t, err)
	return db
}

func TestTransactionRecord_RoundTrip(t *testing.T) {
	invoice := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	original := decimal.RequireFromString("100.00")
	tx := &models.Transaction{
		ID:             7,
		Date:           time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Description:    "Compra (3/6)",
		Amount:         decimal.RequireFromString("33.33"),
		OriginalAmount: &original,
		Direction:      models.Outflow,
		Category:       "Casa",
		Origin:         models.OriginInvoice,
		BankID:         "btg",
		InvoiceDate:    &invoice,
		UserID:         2,
		TagIDs:         []int64{5, 1},
	}

	rec := fromTransaction(tx)
	assert.True(t, rec.OriginalAmount.Valid)
	assert.Equal(t, "invoice", rec.Origin)

	links := tagLinks(rec.ID, tx.TagIDs)
	require.Len(t, links, 2)
	assert.Equal(t, transactionTagRecord{TransactionID: 7, TagID: 1, Position: 1}, links[1])

	got := rec.toModel(tx.TagIDs)
	assert.Equal(t, tx, got)
}

func TestTransactionRecord_NoOriginalAmount(t *testing.T) {
	rec := fromTransaction(&models.Transaction{Amount: decimal.NewFromInt(1)})
	assert.False(t, rec.OriginalAmount.Valid)
	assert.Nil(t, rec.toModel(nil).OriginalAmount)
}

func TestRuleRecord_TagIDs(t *testing.T) {
	rule := &models.Rule{ID: 3, Name: "viagem", Action: models.ActionAddTags, Criterion: models.CriterionDescriptionContains, CriterionValue: "Hotel", TagIDs: []int64{2, 4}, Active: true}
	rec := fromRule(rule)
	assert.Equal(t, "[2, 4]", rec.TagIDs)

	got, err := rec.toModel()
	require.NoError(t, err)
	assert.Equal(t, rule, got)

	rec.TagIDs = "not json"
	_, err = rec.toModel()
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestApplyFilter_SQL(t *testing.T) {
	db := dryRunDB(t)

	var recs []transactionRecord
	stmt := applyFilter(db.Model(&transactionRecord{}), repository.TransactionFilter{
		UserID:    1,
		Category:  "Mercado",
		Direction: models.Outflow,
		Month:     2,
		Year:      2024,
		TagIDs:    []int64{3},
		DateField: repository.ByInvoiceDate,
	}).Find(&recs).Statement

	sql := stmt.SQL.String()
	assert.Contains(t, sql, "FROM `transactions`")
	assert.Contains(t, sql, "user_id = ?")
	assert.Contains(t, sql, "category = ?")
	assert.Contains(t, sql, "direction = ?")
	assert.Contains(t, sql, "tt.tag_id IN (?)")
	assert.Contains(t, sql, "invoice_date >= ?")
	assert.Contains(t, sql, "invoice_date < ?")
	assert.NotContains(t, sql, "NOT EXISTS")

	require.Len(t, stmt.Vars, 6)
	assert.Equal(t, int64(1), stmt.Vars[0])
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), stmt.Vars[4])
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), stmt.Vars[5])
}

func TestApplyFilter_Untagged(t *testing.T) {
	db := dryRunDB(t)

	var recs []transactionRecord
	sql := applyFilter(db.Model(&transactionRecord{}), repository.TransactionFilter{Untagged: true}).
		Find(&recs).Statement.SQL.String()
	assert.Contains(t, sql, "NOT EXISTS (SELECT 1 FROM transaction_tags")
	assert.NotContains(t, sql, "`date`")
}

func TestApplyFilter_TagsOrUntagged(t *testing.T) {
	db := dryRunDB(t)

	var recs []transactionRecord
	stmt := applyFilter(db.Model(&transactionRecord{}), repository.TransactionFilter{
		TagIDs:   []int64{1},
		Untagged: true,
	}).Find(&recs).Statement

	sql := stmt.SQL.String()
	assert.Contains(t, sql, "(NOT EXISTS (SELECT 1 FROM transaction_tags tt WHERE tt.transaction_id = transactions.id) OR EXISTS")
	assert.Contains(t, sql, "tt.tag_id IN (?)")
	assert.Len(t, stmt.Vars, 1)
}

func TestNameColumns_BinaryCollation(t *testing.T) {
	for _, model := range []any{&tagRecord{}, &ruleRecord{}} {
		s, err := schema.Parse(model, &sync.Map{}, schema.NamingStrategy{})
		require.NoError(t, err)
		field := s.LookUpField("name")
		require.NotNil(t, field, s.Table)
		assert.Equal(t, "varchar(100) COLLATE utf8mb4_bin", field.TagSettings["TYPE"], s.Table)
		assert.True(t, field.NotNull)
	}
}

func TestUpsertSetting_SQL(t *testing.T) {
	db := dryRunDB(t)

	rec := &settingRecord{Key: models.SettingDateCriterion, Value: models.DateCriterionInvoice}
	stmt := upsertSetting(db, rec).Statement

	sql := stmt.SQL.String()
	assert.Contains(t, sql, "INSERT INTO `settings`")
	assert.Contains(t, sql, "ON DUPLICATE KEY UPDATE `value`=VALUES(`value`),`updated_at`=VALUES(`updated_at`)")
	assert.Equal(t, models.SettingDateCriterion, stmt.Vars[0])
	assert.False(t, rec.UpdatedAt.IsZero())

	got := rec.toModel()
	assert.Equal(t, models.DateCriterionInvoice, got.Value)
}
