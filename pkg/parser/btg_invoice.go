package parser

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vitorcapdeville/financas/pkg/models"
)

// BTG card invoice columns (zero-based): B, C, E, F.
const (
	btgInvoiceColDate         = 1
	btgInvoiceColDescription  = 2
	btgInvoiceColValue        = 4
	btgInvoiceColPurchaseType = 5
)

const (
	btgCardBenefit   = "Benefício do cartão BTG Pactual"
	btgInvoiceHeader = "Data"
	btgInvoiceName   = "YYYY-MM-DD_Fatura_NOME_NNNN_BTG.xlsx"
)

var installmentRegex = regexp.MustCompile(`\((\d+)/(\d+)\)`)

// BTGInvoice parses password-protected BTG Pactual credit card invoices.
// The invoice date comes from the filename.
type BTGInvoice struct {
	logger *log.Logger
}

func NewBTGInvoice(logger *log.Logger) *BTGInvoice {
	return &BTGInvoice{logger: logger}
}

func (p *BTGInvoice) ID() string           { return BTGInvoiceID }
func (p *BTGInvoice) BankID() string       { return "btg" }
func (p *BTGInvoice) BankName() string     { return "BTG Pactual - Fatura Cartão" }
func (p *BTGInvoice) Extensions() []string { return []string{".xlsx"} }

// Parse decrypts the invoice with excelize, which only reads Office Open XML.
func (p *BTGInvoice) Parse(data []byte, filename, password string) ([]models.NormalizedRow, error) {
	if !Supports(p, filename) {
		return nil, models.NewValidationError("%s: BTG Pactual invoices must be .xlsx", filepath.Base(filename))
	}
	if password == "" {
		return nil, models.NewValidationError("a password is required to read BTG Pactual invoices")
	}

	invoiceDate, err := btgInvoiceDate(filename)
	if err != nil {
		return nil, err
	}

	rows, err := readSheet(data, password)
	if err != nil {
		return nil, models.WrapValidation(err, "error decrypting or reading BTG invoice, check the password")
	}

	var out []models.NormalizedRow
	for i, row := range rows {
		date := cell(row, btgInvoiceColDate)
		description := cell(row, btgInvoiceColDescription)
		value := cell(row, btgInvoiceColValue)

		if date == "" || description == "" || cell(row, btgInvoiceColPurchaseType) == "" {
			continue
		}
		if description == btgCardBenefit || date == btgInvoiceHeader {
			continue
		}

		d, err := parseDate(date, "02/01/2006")
		if err != nil {
			p.logger.Debug("skipping row with invalid date", "row", i, "date", date, "err", err)
			continue
		}
		amount, err := parseAmount(value)
		if err != nil {
			p.logger.Debug("skipping row with invalid value", "row", i, "value", value, "err", err)
			continue
		}

		inv := invoiceDate
		out = append(out, models.NormalizedRow{
			Date:        shiftInstallment(d, description),
			Description: description,
			Amount:      amount,
			Origin:      models.OriginInvoice,
			BankID:      p.BankID(),
			InvoiceDate: &inv,
		})
	}

	if len(out) == 0 {
		return nil, errNoRows("BTG invoice")
	}
	return out, nil
}

// btgInvoiceDate reads the leading YYYY-MM-DD segment of the filename.
func btgInvoiceDate(filename string) (time.Time, error) {
	base := filepath.Base(filename)
	prefix, _, _ := strings.Cut(base, "_")
	d, err := time.Parse("2006-01-02", prefix)
	if err != nil {
		return time.Time{}, models.WrapValidation(err, "filename must follow %s, e.g. 2024-01-15_Fatura_NOME_1234_BTG.xlsx", btgInvoiceName)
	}
	return d, nil
}

// shiftInstallment moves the purchase date of the n-th installment of a
// "(n/m)" description forward by n-1 months, so each installment lands in its
// own billing month.
func shiftInstallment(d time.Time, description string) time.Time {
	m := installmentRegex.FindStringSubmatch(description)
	if m == nil {
		return d
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return d
	}
	return addMonths(d, n-1)
}
