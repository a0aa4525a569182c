package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vitorcapdeville/financas/pkg/models"
)

func TestGeneric_ParseCSV(t *testing.T) {
	data := []byte(` Data ,DESCRICAO,valor,Origem,categoria,banco,data_fatura
10/01/2024,Cartão Loja,-80.00,fatura_cartao,Compras,itau,15/01/2024
2024-01-11,Salário,5000,EXTRATO_BANCARIO,,,
12/01/2024,Origem errada,10,poupanca,,,
13/01/2024,Sem valor,,extrato_bancario,,,
`)

	rows, err := NewGeneric(testLogger()).Parse(data, "planilha.csv", "")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), rows[0].Date)
	assert.Equal(t, "-80.00", rows[0].Amount.StringFixed(2))
	assert.Equal(t, models.OriginInvoice, rows[0].Origin)
	assert.Equal(t, "Compras", rows[0].Category)
	assert.Equal(t, "itau", rows[0].BankID)
	require.NotNil(t, rows[0].InvoiceDate)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), *rows[0].InvoiceDate)

	assert.Equal(t, models.OriginStatement, rows[1].Origin)
	assert.Equal(t, "generic", rows[1].BankID)
	assert.Nil(t, rows[1].InvoiceDate)
}

func TestGeneric_MissingColumns(t *testing.T) {
	_, err := NewGeneric(testLogger()).Parse([]byte("data,descricao,valor\n10/01/2024,x,1\n"), "planilha.csv", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Contains(t, err.Error(), "origem")
}

func TestGeneric_NoValidOrigin(t *testing.T) {
	_, err := NewGeneric(testLogger()).Parse([]byte("data,descricao,valor,origem\n10/01/2024,x,1,conta\n"), "planilha.csv", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Contains(t, err.Error(), "no valid rows")
	assert.Contains(t, err.Error(), "fatura_cartao")
}

func TestGeneric_UnsupportedExtension(t *testing.T) {
	_, err := NewGeneric(testLogger()).Parse([]byte("{}"), "dados.json", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestGeneric_ParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"data", "descricao", "valor", "origem"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"05/02/2024", "Mercado", -120.4, "fatura_cartao"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rows, err := NewGeneric(testLogger()).Parse(buf.Bytes(), "tratado.xlsx", "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Mercado", rows[0].Description)
	assert.Equal(t, "-120.40", rows[0].Amount.StringFixed(2))
	assert.Equal(t, time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), rows[0].Date)
}
