package rules

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitorcapdeville/financas/pkg/models"
	"github.com/vitorcapdeville/financas/pkg/store/memory"
)

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	return NewService(store.Rules(), store.Transactions(), store.Tags(), log.New(io.Discard)), store
}

func seed(t *testing.T, store *memory.Store, descs ...string) []*models.Transaction {
	t.Helper()
	var out []*models.Transaction
	for i, d := range descs {
		tx, err := models.NewTransaction(d).
			SetDate(time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC)).
			AsInvoice(decimal.NewFromInt(int64(10 * (i + 1)))).
			Build()
		require.NoError(t, err)
		created, err := store.Transactions().Create(context.Background(), tx)
		require.NoError(t, err)
		out = append(out, created)
	}
	return out
}

func categoryRule(name, contains, category string, priority int) models.RuleParams {
	return models.RuleParams{
		Name:           name,
		Action:         models.ActionSetCategory,
		Criterion:      models.CriterionDescriptionContains,
		CriterionValue: contains,
		ActionValue:    category,
		Priority:       priority,
	}
}

func TestService_CreateRejectsDuplicateName(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Create(ctx, categoryRule("X", "a", "A", 0))
	require.NoError(t, err)

	_, err = svc.Create(ctx, categoryRule("X", "b", "B", 0))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Contains(t, err.Error(), "X")

	// names are case-sensitive
	_, err = svc.Create(ctx, categoryRule("x", "b", "B", 0))
	assert.NoError(t, err)
}

func TestService_CreateValidates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Create(ctx, models.RuleParams{Name: "bad", Action: "delete", Criterion: models.CriterionDescriptionExact, CriterionValue: "a"})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.Create(ctx, models.RuleParams{Name: "amount", Action: models.ActionSetAmount, ActionValue: "abc", Criterion: models.CriterionDescriptionExact, CriterionValue: "a"})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.Create(ctx, models.RuleParams{Name: "tags", Action: models.ActionAddTags, ActionValue: "[42]", Criterion: models.CriterionDescriptionExact, CriterionValue: "a"})
	assert.ErrorIs(t, err, models.ErrValidation, "unknown tag")
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	a, err := svc.Create(ctx, categoryRule("A", "a", "A", 0))
	require.NoError(t, err)
	_, err = svc.Create(ctx, categoryRule("B", "b", "B", 0))
	require.NoError(t, err)

	taken := "B"
	_, err = svc.Update(ctx, a.ID, models.RulePatch{Name: &taken})
	assert.ErrorIs(t, err, models.ErrValidation)

	// keeping its own name is fine
	same := "A"
	prio := 7
	updated, err := svc.Update(ctx, a.ID, models.RulePatch{Name: &same, Priority: &prio})
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Priority)
	assert.Equal(t, "a", updated.CriterionValue)

	_, err = svc.Update(ctx, 999, models.RulePatch{Priority: &prio})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestService_ListSortedByPriority(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	for _, p := range []models.RuleParams{
		categoryRule("low", "a", "A", 1),
		categoryRule("high", "a", "A", 9),
		categoryRule("mid", "a", "A", 5),
	} {
		_, err := svc.Create(ctx, p)
		require.NoError(t, err)
	}

	rs, err := svc.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, rs, 3)
	assert.Equal(t, "high", rs[0].Name)
	assert.Equal(t, "mid", rs[1].Name)
	assert.Equal(t, "low", rs[2].Name)
}

func TestService_ApplyRule(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	txs := seed(t, store, "Uber Trip", "Padaria", "Uber Eats")

	r, err := svc.Create(ctx, categoryRule("uber", "Uber", "Transporte", 0))
	require.NoError(t, err)

	stats, err := svc.ApplyRule(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplyStats{Processed: 3, Modified: 2}, stats)

	got, err := store.Transactions().FindByID(ctx, txs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Transporte", got.Category)

	got, err = store.Transactions().FindByID(ctx, txs[1].ID)
	require.NoError(t, err)
	assert.Empty(t, got.Category)

	_, err = svc.ApplyRule(ctx, 999)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestService_ApplyAllActive(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	txs := seed(t, store, "Uber Trip", "Padaria", "Aluguel")

	_, err := svc.Create(ctx, categoryRule("uber", "Uber", "Transporte", 5))
	require.NoError(t, err)
	_, err = svc.Create(ctx, models.RuleParams{
		Name: "aluguel", Action: models.ActionSetAmount, ActionValue: "1.00",
		Criterion: models.CriterionDescriptionExact, CriterionValue: "Aluguel", Priority: 1,
	})
	require.NoError(t, err)
	inactive := false
	_, err = svc.Create(ctx, models.RuleParams{
		Name: "padaria", Action: models.ActionSetCategory, ActionValue: "Comida",
		Criterion: models.CriterionDescriptionExact, CriterionValue: "Padaria", Active: &inactive,
	})
	require.NoError(t, err)

	stats, err := svc.ApplyAllActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 2, stats.Modified)

	rent, err := store.Transactions().FindByID(ctx, txs[2].ID)
	require.NoError(t, err)
	assert.Equal(t, "1.00", rent.Amount.StringFixed(2))
	assert.Equal(t, "30.00", rent.OriginalAmount.StringFixed(2))

	bakery, err := store.Transactions().FindByID(ctx, txs[1].ID)
	require.NoError(t, err)
	assert.Empty(t, bakery.Category, "inactive rules are skipped")
}
