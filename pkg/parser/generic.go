package parser

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vitorcapdeville/financas/pkg/models"
)

// Columns of a pre-normalized file. Names are matched after lower-casing and
// trimming the header.
const (
	genericColDate        = "data"
	genericColDescription = "descricao"
	genericColValue       = "valor"
	genericColOrigin      = "origem"
	genericColCategory    = "categoria"
	genericColBank        = "banco"
	genericColInvoiceDate = "data_fatura"
)

// GenericColumns is the header written by the CSV exporter and accepted by
// the generic parser, in order.
var GenericColumns = []string{
	genericColDate,
	genericColDescription,
	genericColValue,
	genericColOrigin,
	genericColCategory,
	genericColBank,
	genericColInvoiceDate,
}

var genericDateLayouts = []string{
	"02/01/2006",
	"02/01/2006 15:04",
	"02/01/2006 15:04:05",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// Generic parses files that are already in the normalized layout, either as
// CSV or as a spreadsheet. It is the fallback for unrecognized filenames.
type Generic struct {
	logger *log.Logger
}

func NewGeneric(logger *log.Logger) *Generic {
	return &Generic{logger: logger}
}

func (p *Generic) ID() string           { return GenericID }
func (p *Generic) BankID() string       { return "generic" }
func (p *Generic) BankName() string     { return "Arquivo Tratado" }
func (p *Generic) Extensions() []string { return []string{".csv", ".xlsx", ".xls"} }

func (p *Generic) Parse(data []byte, filename, _ string) ([]models.NormalizedRow, error) {
	var (
		rows [][]string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".csv":
		rows, err = readCSV(data)
	case ".xlsx", ".xls":
		rows, err = readSheet(data, "")
	default:
		return nil, models.NewValidationError("unsupported format %q, use %s", ext, strings.Join(p.Extensions(), ", "))
	}
	if err != nil {
		return nil, models.WrapValidation(err, "error processing normalized file")
	}

	idx := columnIndex(rows[0])
	if missing := missingColumns(idx, genericColDate, genericColDescription, genericColValue, genericColOrigin); len(missing) > 0 {
		return nil, models.NewValidationError("missing required columns: %s (required: data, descricao, valor, origem)", strings.Join(missing, ", "))
	}

	column := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok {
			return ""
		}
		return cell(row, i)
	}

	var out []models.NormalizedRow
	for i, row := range rows[1:] {
		description := column(row, genericColDescription)
		if description == "" {
			continue
		}
		d, err := parseDate(column(row, genericColDate), genericDateLayouts...)
		if err != nil {
			p.logger.Debug("skipping row with invalid date", "row", i+1, "err", err)
			continue
		}
		amount, err := parseAmount(column(row, genericColValue))
		if err != nil {
			p.logger.Debug("skipping row with invalid value", "row", i+1, "err", err)
			continue
		}
		origin, err := models.ParseOrigin(column(row, genericColOrigin))
		if err != nil {
			p.logger.Debug("skipping row with invalid origin", "row", i+1, "err", err)
			continue
		}

		bank := column(row, genericColBank)
		if bank == "" {
			bank = p.BankID()
		}
		nr := models.NormalizedRow{
			Date:        d,
			Description: description,
			Amount:      amount,
			Origin:      origin,
			Category:    column(row, genericColCategory),
			BankID:      bank,
		}
		if raw := column(row, genericColInvoiceDate); raw != "" {
			if inv, err := parseDate(raw, genericDateLayouts...); err == nil {
				nr.InvoiceDate = &inv
			}
		}
		out = append(out, nr)
	}

	if len(out) == 0 {
		return nil, models.NewValidationError("no valid rows found, check that origem is fatura_cartao or extrato_bancario")
	}
	return out, nil
}
