package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitorcapdeville/financas/pkg/models"
	"github.com/vitorcapdeville/financas/pkg/repository"
)

func newTx(t *testing.T, desc string, date time.Time, amount string) *models.Transaction {
	t.Helper()
	tx, err := models.NewTransaction(desc).
		SetDate(date).
		AsStatement(decimal.RequireFromString(amount)).
		Build()
	require.NoError(t, err)
	return tx
}

func TestTransactions_CreateReturnsDetachedCopy(t *testing.T) {
	ctx := context.Background()
	repo := New().Transactions()

	in := newTx(t, "Padaria", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), "-10")
	created, err := repo.Create(ctx, in)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Zero(t, in.ID)

	created.Description = "changed"
	created.AddTag(99)

	stored, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Padaria", stored.Description)
	assert.Empty(t, stored.TagIDs)
}

func TestTransactions_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := New().Transactions()

	_, err := repo.FindByID(ctx, 42)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = repo.Update(ctx, &models.Transaction{ID: 42})
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = repo.RestoreOriginalAmount(ctx, 42)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestTransactions_RestoreOriginalAmount(t *testing.T) {
	ctx := context.Background()
	repo := New().Transactions()

	created, err := repo.Create(ctx, newTx(t, "Aluguel", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), "-1500"))
	require.NoError(t, err)

	created.Amount = decimal.NewFromInt(750)
	_, err = repo.Update(ctx, created)
	require.NoError(t, err)

	restored, err := repo.RestoreOriginalAmount(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "1500.00", restored.Amount.StringFixed(2))
}

func TestTransactions_ListFilters(t *testing.T) {
	ctx := context.Background()
	store := New()
	repo := store.Transactions()

	jan := newTx(t, "Janeiro", time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC), "100")
	jan.Category = "Salário"
	feb := newTx(t, "Fevereiro", time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC), "-30")
	feb.AddTag(7)
	inv := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	feb.InvoiceDate = &inv

	for _, tx := range []*models.Transaction{feb, jan} {
		_, err := repo.Create(ctx, tx)
		require.NoError(t, err)
	}

	all, err := repo.List(ctx, repository.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Janeiro", all[0].Description, "ordered by date")

	got, err := repo.List(ctx, repository.TransactionFilter{Year: 2024, Month: 2})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Fevereiro", got[0].Description)

	got, err = repo.List(ctx, repository.TransactionFilter{Year: 2024, Month: 3, DateField: repository.ByInvoiceDate})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Fevereiro", got[0].Description)

	got, err = repo.List(ctx, repository.TransactionFilter{Category: "Salário"})
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = repo.List(ctx, repository.TransactionFilter{Untagged: true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Janeiro", got[0].Description)

	got, err = repo.List(ctx, repository.TransactionFilter{TagIDs: []int64{7}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Fevereiro", got[0].Description)

	got, err = repo.List(ctx, repository.TransactionFilter{Direction: models.Inflow})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Janeiro", got[0].Description)
}

func TestTags(t *testing.T) {
	ctx := context.Background()
	repo := New().Tags()

	_, err := repo.FindByName(ctx, models.RoutineTagName)
	assert.ErrorIs(t, err, models.ErrNotFound)

	created, err := repo.Create(ctx, models.RoutineTag())
	require.NoError(t, err)

	found, err := repo.FindByName(ctx, models.RoutineTagName)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, models.RoutineTagColor, found.Color)

	other, err := repo.Create(ctx, &models.Tag{Name: "Viagem"})
	require.NoError(t, err)

	tags, err := repo.FindByIDs(ctx, []int64{other.ID, 999, created.ID})
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "Viagem", tags[0].Name)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRules(t *testing.T) {
	ctx := context.Background()
	repo := New().Rules()

	a, err := models.NewRule(models.RuleParams{Name: "A", Action: models.ActionSetCategory, Criterion: models.CriterionDescriptionContains, CriterionValue: "x", ActionValue: "Cat"})
	require.NoError(t, err)
	inactive := false
	b, err := models.NewRule(models.RuleParams{Name: "B", Action: models.ActionSetCategory, Criterion: models.CriterionDescriptionContains, CriterionValue: "y", ActionValue: "Cat", Active: &inactive})
	require.NoError(t, err)

	ca, err := repo.Create(ctx, a)
	require.NoError(t, err)
	_, err = repo.Create(ctx, b)
	require.NoError(t, err)

	active, err := repo.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "A", active[0].Name)

	all, err := repo.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := repo.FindByName(ctx, "B")
	require.NoError(t, err)
	assert.False(t, found.Active)

	ca.Priority = 10
	updated, err := repo.Update(ctx, ca)
	require.NoError(t, err)
	assert.Equal(t, 10, updated.Priority)

	_, err = repo.FindByID(ctx, 1000)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	repo := New().Users()

	u, err := repo.Create(ctx, &models.User{Name: "Vitor", CPF: "12345678900"})
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "12345678900", found.CPF)

	_, err = repo.FindByID(ctx, u.ID+1)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSettings_Upsert(t *testing.T) {
	ctx := context.Background()
	repo := New().Settings()

	_, err := repo.Get(ctx, models.SettingDateCriterion)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = repo.Set(ctx, &models.Setting{Key: models.SettingDateCriterion, Value: models.DateCriterionTransaction})
	require.NoError(t, err)
	saved, err := repo.Set(ctx, &models.Setting{Key: models.SettingDateCriterion, Value: models.DateCriterionInvoice})
	require.NoError(t, err)
	assert.False(t, saved.UpdatedAt.IsZero())

	got, err := repo.Get(ctx, models.SettingDateCriterion)
	require.NoError(t, err)
	assert.Equal(t, models.DateCriterionInvoice, got.Value)

	_, err = repo.Set(ctx, &models.Setting{Key: "tema", Value: "escuro"})
	require.NoError(t, err)
	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, models.SettingDateCriterion, all[0].Key)
	assert.Equal(t, "tema", all[1].Key)
}
