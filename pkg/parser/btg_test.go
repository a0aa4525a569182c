package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitorcapdeville/financas/pkg/models"
)

// statementRow lays out a BTG statement row from column B to K.
func statementRow(date, category, kind, description string, value any) []any {
	return []any{date, category, kind, "", "", description, "", "", "", value}
}

func TestBTGStatement_Parse(t *testing.T) {
	data := workbook(t, "",
		[]any{"Extrato de conta corrente"},
		statementRow("Data e hora", "Categoria", "Transação", "Descrição", "Valor"),
		statementRow("15/01/2024 10:30", "Alimentação", "Pix enviado", "Padaria Central", -25.5),
		statementRow("15/01/2024 23:59", "", "", btgDailyBalance, 1000),
		statementRow("16/01/2024 08:00", "Salário", "TED recebida", "ACME LTDA", 5000),
		statementRow("", "", "", "Linha sem data", 10),
		statementRow("17/01/2024 09:00", "Outros", "Pix", "", 10),
		statementRow("18/01/2024 09:00", "Outros", "Pix", "Valor inválido", "abc"),
	)

	p := NewBTGStatement(testLogger())
	rows, err := p.Parse(data, "Extrato_2024-01-01_a_2024-01-31_123.xlsx", "")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), rows[0].Date)
	assert.Equal(t, "Padaria Central", rows[0].Description)
	assert.Equal(t, "-25.50", rows[0].Amount.StringFixed(2))
	assert.Equal(t, "Alimentação", rows[0].Category)
	assert.Equal(t, models.OriginStatement, rows[0].Origin)
	assert.Equal(t, "btg", rows[0].BankID)
	assert.Nil(t, rows[0].InvoiceDate)

	assert.Equal(t, "ACME LTDA", rows[1].Description)
	assert.True(t, rows[1].Amount.IsPositive())
}

func TestBTGStatement_ParseLegacyXLS(t *testing.T) {
	rows, err := NewBTGStatement(testLogger()).Parse(readFixture(t, legacyStatement), legacyStatement, "")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), rows[0].Date)
	assert.Equal(t, "Padaria Central", rows[0].Description)
	assert.Equal(t, "-25.50", rows[0].Amount.StringFixed(2))
	assert.Equal(t, "Alimentação", rows[0].Category)

	assert.Equal(t, "ACME LTDA", rows[1].Description)
	assert.Equal(t, "Salário", rows[1].Category)
	assert.Equal(t, "5000.00", rows[1].Amount.StringFixed(2))
}

func TestBTGStatement_NoValidRows(t *testing.T) {
	data := workbook(t, "",
		statementRow("Data e hora", "Categoria", "Transação", "Descrição", "Valor"),
		statementRow("15/01/2024 23:59", "", "", btgDailyBalance, 1000),
	)

	_, err := NewBTGStatement(testLogger()).Parse(data, "Extrato_2024-01-01_a_2024-01-31_123.xlsx", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Contains(t, err.Error(), "no valid rows")
}

func TestBTGStatement_CorruptFile(t *testing.T) {
	_, err := NewBTGStatement(testLogger()).Parse([]byte("PK\x03\x04broken"), "Extrato_2024-01-01_a_2024-01-31_123.xlsx", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
}

// invoiceRow lays out a BTG invoice row from column B to F.
func invoiceRow(date, description string, value any, purchaseType string) []any {
	return []any{date, description, "", value, purchaseType}
}

func TestBTGInvoice_Parse(t *testing.T) {
	const password = "12345678900"
	data := workbook(t, password,
		invoiceRow("Data", "Descrição", "Valor", "Tipo"),
		invoiceRow("15/01/2024", "Compra (3/6)", 100, "Parcelada"),
		invoiceRow("31/01/2024", "Loja (2/3)", 50.25, "Parcelada"),
		invoiceRow("20/01/2024", "Mercado", 80, "À vista"),
		invoiceRow("20/01/2024", btgCardBenefit, -10, "Benefício"),
		invoiceRow("21/01/2024", "Sem tipo", 10, ""),
	)

	p := NewBTGInvoice(testLogger())
	rows, err := p.Parse(data, "2024-01-15_Fatura_NOME_1234_BTG.xlsx", password)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	invoiceDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	for _, r := range rows {
		assert.Equal(t, models.OriginInvoice, r.Origin)
		assert.Equal(t, "btg", r.BankID)
		require.NotNil(t, r.InvoiceDate)
		assert.Equal(t, invoiceDate, *r.InvoiceDate)
	}

	assert.Equal(t, "2024-03-15", rows[0].Date.Format("2006-01-02"))
	assert.Equal(t, "Compra (3/6)", rows[0].Description)
	assert.Equal(t, "100.00", rows[0].Amount.StringFixed(2))

	// 31 Jan + 1 month clamps to the end of February
	assert.Equal(t, "2024-02-29", rows[1].Date.Format("2006-01-02"))

	// no installment suffix keeps the purchase date
	assert.Equal(t, "2024-01-20", rows[2].Date.Format("2006-01-02"))
}

func TestBTGInvoice_PasswordRequired(t *testing.T) {
	_, err := NewBTGInvoice(testLogger()).Parse([]byte("irrelevant"), "2024-01-15_Fatura_NOME_1234_BTG.xlsx", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Contains(t, err.Error(), "password")
}

func TestBTGInvoice_WrongPassword(t *testing.T) {
	data := workbook(t, "right", invoiceRow("15/01/2024", "Mercado", 80, "À vista"))

	_, err := NewBTGInvoice(testLogger()).Parse(data, "2024-01-15_Fatura_NOME_1234_BTG.xlsx", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Contains(t, err.Error(), "check the password")
}

func TestBTGInvoice_BadFilename(t *testing.T) {
	_, err := NewBTGInvoice(testLogger()).Parse([]byte("irrelevant"), "Fatura_NOME_1234_BTG.xlsx", "secret")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Contains(t, err.Error(), btgInvoiceName)
}

func TestBTGInvoice_OnlyXLSX(t *testing.T) {
	p := NewBTGInvoice(testLogger())
	assert.Equal(t, []string{".xlsx"}, p.Extensions())

	_, err := p.Parse([]byte("irrelevant"), "2024-01-15_Fatura_NOME_1234_BTG.xls", "secret")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Contains(t, err.Error(), "must be .xlsx")
}

func TestShiftInstallment(t *testing.T) {
	d := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, d, shiftInstallment(d, "Compra (1/6)"))
	assert.Equal(t, d, shiftInstallment(d, "Compra sem parcela"))
	assert.Equal(t, time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC), shiftInstallment(d, "Compra (12/12)"))
}
