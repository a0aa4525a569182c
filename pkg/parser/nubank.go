package parser

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vitorcapdeville/financas/pkg/models"
)

var nubankStatementName = regexp.MustCompile(`(?i)^NU_\d+_\d{2}[A-Z]{3}\d{4}_\d{2}[A-Z]{3}\d{4}\.csv$`)

const nubankDescriptionPrefix = "[Nubank] "

// NubankStatement parses Nubank checking account CSV exports named
// NU_<account>_<DDMMMYYYY>_<DDMMMYYYY>.csv.
type NubankStatement struct {
	logger *log.Logger
}

func NewNubankStatement(logger *log.Logger) *NubankStatement {
	return &NubankStatement{logger: logger}
}

func (p *NubankStatement) ID() string           { return NubankStatementID }
func (p *NubankStatement) BankID() string       { return "nubank" }
func (p *NubankStatement) BankName() string     { return "Nubank - Extrato Bancário" }
func (p *NubankStatement) Extensions() []string { return []string{".csv"} }

func (p *NubankStatement) Parse(data []byte, filename, _ string) ([]models.NormalizedRow, error) {
	base := filepath.Base(filename)
	if !nubankStatementName.MatchString(base) {
		return nil, models.NewValidationError("%q is not a valid Nubank statement, expected NU_NNNNNN_DDMMMYYYY_DDMMMYYYY.csv", base)
	}

	rows, err := readCSV(data)
	if err != nil {
		return nil, models.WrapValidation(err, "error processing Nubank statement")
	}

	idx := columnIndex(rows[0])
	if missing := missingColumns(idx, "data", "valor", "descrição"); len(missing) > 0 {
		return nil, models.NewValidationError("Nubank statement is missing columns: %s (expected Data, Valor, Descrição)", strings.Join(missing, ", "))
	}
	colDate, colValue, colDescription := idx["data"], idx["valor"], idx["descrição"]

	var out []models.NormalizedRow
	for i, row := range rows[1:] {
		description := cell(row, colDescription)
		if description == "" {
			continue
		}
		d, err := parseDate(cell(row, colDate), "02/01/2006")
		if err != nil {
			p.logger.Debug("skipping row with invalid date", "row", i+1, "err", err)
			continue
		}
		amount, err := parseAmount(cell(row, colValue))
		if err != nil {
			p.logger.Debug("skipping row with invalid value", "row", i+1, "err", err)
			continue
		}
		out = append(out, models.NormalizedRow{
			Date:        d,
			Description: description,
			Amount:      amount,
			Origin:      models.OriginStatement,
			BankID:      p.BankID(),
		})
	}

	if len(out) == 0 {
		return nil, errNoRows("Nubank statement")
	}
	return out, nil
}

// NubankInvoice parses Nubank credit card CSV exports named
// Nubank_YYYY-MM-DD.csv, where the date is the invoice closing date.
type NubankInvoice struct {
	logger *log.Logger
}

func NewNubankInvoice(logger *log.Logger) *NubankInvoice {
	return &NubankInvoice{logger: logger}
}

func (p *NubankInvoice) ID() string           { return NubankInvoiceID }
func (p *NubankInvoice) BankID() string       { return "nubank" }
func (p *NubankInvoice) BankName() string     { return "Nubank - Fatura Cartão" }
func (p *NubankInvoice) Extensions() []string { return []string{".csv"} }

func (p *NubankInvoice) Parse(data []byte, filename, _ string) ([]models.NormalizedRow, error) {
	invoiceDate, err := nubankInvoiceDate(filename)
	if err != nil {
		return nil, err
	}

	rows, err := readCSV(data)
	if err != nil {
		return nil, models.WrapValidation(err, "error processing Nubank invoice")
	}

	idx := columnIndex(rows[0])
	if missing := missingColumns(idx, "date", "title", "amount"); len(missing) > 0 {
		return nil, models.NewValidationError("Nubank invoice is missing columns: %s (expected date, title, amount)", strings.Join(missing, ", "))
	}
	colDate, colTitle, colAmount := idx["date"], idx["title"], idx["amount"]

	var out []models.NormalizedRow
	for i, row := range rows[1:] {
		title := cell(row, colTitle)
		if title == "" {
			continue
		}
		d, err := parseDate(cell(row, colDate))
		if err != nil {
			p.logger.Debug("skipping row with invalid date", "row", i+1, "err", err)
			continue
		}
		amount, err := parseAmount(cell(row, colAmount))
		if err != nil {
			p.logger.Debug("skipping row with invalid value", "row", i+1, "err", err)
			continue
		}
		inv := invoiceDate
		out = append(out, models.NormalizedRow{
			Date:        d,
			Description: nubankDescriptionPrefix + title,
			Amount:      amount,
			Origin:      models.OriginInvoice,
			BankID:      p.BankID(),
			InvoiceDate: &inv,
		})
	}

	if len(out) == 0 {
		return nil, errNoRows("Nubank invoice")
	}
	return out, nil
}

func nubankInvoiceDate(filename string) (time.Time, error) {
	base := filepath.Base(filename)
	if strings.HasSuffix(strings.ToLower(base), ".csv") {
		base = base[:len(base)-len(".csv")]
	}
	parts := strings.Split(base, "_")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "nubank" {
		return time.Time{}, models.NewValidationError("filename must follow Nubank_YYYY-MM-DD.csv, e.g. Nubank_2026-01-06.csv")
	}
	d, err := time.Parse("2006-01-02", parts[1])
	if err != nil {
		return time.Time{}, models.WrapValidation(err, "filename must follow Nubank_YYYY-MM-DD.csv, e.g. Nubank_2026-01-06.csv")
	}
	return d, nil
}
