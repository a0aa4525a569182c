package csv

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitorcapdeville/financas/pkg/models"
	"github.com/vitorcapdeville/financas/pkg/parser"
)

func sample(t *testing.T) []*models.Transaction {
	t.Helper()
	invoice := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	card, err := models.NewTransaction("Loja, Centro").
		SetDate(time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)).
		SetCategory("Compras").
		SetBank("btg").
		SetInvoiceDate(&invoice).
		AsInvoice(decimal.RequireFromString("80.00")).
		Build()
	require.NoError(t, err)
	salary, err := models.NewTransaction("Salário").
		SetDate(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)).
		SetBank("nubank").
		AsStatement(decimal.RequireFromString("5000")).
		Build()
	require.NoError(t, err)
	return []*models.Transaction{card, salary}
}

func TestCreate(t *testing.T) {
	out, err := Create(sample(t), nil)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "data,descricao,valor,origem,categoria,banco,data_fatura", lines[0])
	assert.Equal(t, `20/01/2024,"Loja, Centro",-80.00,fatura_cartao,Compras,btg,10/02/2024`, lines[1])
	assert.Equal(t, "05/01/2024,Salário,5000.00,extrato_bancario,,nubank,", lines[2])
}

func TestCreate_Filter(t *testing.T) {
	onlyInflows := func(tx *models.Transaction) bool { return tx.Direction == models.Inflow }
	out, err := Create(sample(t), onlyInflows)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(out), "\n"))
	assert.NotContains(t, string(out), "Loja")
}

func TestCreate_ReimportsWithGenericParser(t *testing.T) {
	txs := sample(t)
	out, err := Create(txs, nil)
	require.NoError(t, err)

	rows, err := parser.NewGeneric(log.New(io.Discard)).Parse(out, "export.csv", "")
	require.NoError(t, err)
	require.Len(t, rows, len(txs))

	for i, row := range rows {
		back, err := models.FromRow(row).Build()
		require.NoError(t, err)
		assert.Equal(t, txs[i].Description, back.Description)
		assert.Equal(t, txs[i].Direction, back.Direction)
		assert.True(t, txs[i].Amount.Equal(back.Amount))
		assert.Equal(t, txs[i].Origin, back.Origin)
		assert.Equal(t, txs[i].BankID, back.BankID)
		assert.Equal(t, txs[i].Category, back.Category)
		assert.True(t, txs[i].Date.Equal(back.Date))
	}
	require.NotNil(t, rows[0].InvoiceDate)
	assert.Equal(t, "2024-02-10", rows[0].InvoiceDate.Format("2006-01-02"))
}
