package parser

import (
	"github.com/charmbracelet/log"
	"github.com/vitorcapdeville/financas/pkg/models"
)

// BTG account statement columns (zero-based): B, C, D, G, K.
const (
	btgStatementColDate        = 1
	btgStatementColCategory    = 2
	btgStatementColType        = 3
	btgStatementColDescription = 6
	btgStatementColValue       = 10
)

const (
	btgDailyBalance    = "Saldo Diário"
	btgStatementHeader = "Data e hora"
)

// BTGStatement parses BTG Pactual account statements (.xls/.xlsx).
type BTGStatement struct {
	logger *log.Logger
}

func NewBTGStatement(logger *log.Logger) *BTGStatement {
	return &BTGStatement{logger: logger}
}

func (p *BTGStatement) ID() string           { return BTGStatementID }
func (p *BTGStatement) BankID() string       { return "btg" }
func (p *BTGStatement) BankName() string     { return "BTG Pactual" }
func (p *BTGStatement) Extensions() []string { return []string{".xls", ".xlsx"} }

func (p *BTGStatement) Parse(data []byte, filename, _ string) ([]models.NormalizedRow, error) {
	rows, err := readSheet(data, "")
	if err != nil {
		return nil, models.WrapValidation(err, "error processing BTG statement %s", filename)
	}

	var out []models.NormalizedRow
	for i, row := range rows {
		date := cell(row, btgStatementColDate)
		description := cell(row, btgStatementColDescription)
		value := cell(row, btgStatementColValue)

		if date == "" || value == "" || description == "" {
			continue
		}
		if description == btgDailyBalance || date == btgStatementHeader {
			continue
		}

		d, err := parseDate(date)
		if err != nil {
			p.logger.Debug("skipping row with invalid date", "row", i, "date", date, "err", err)
			continue
		}
		amount, err := parseAmount(value)
		if err != nil {
			p.logger.Debug("skipping row with invalid value", "row", i, "value", value, "err", err)
			continue
		}

		out = append(out, models.NormalizedRow{
			Date:        d,
			Description: description,
			Amount:      amount,
			Origin:      models.OriginStatement,
			Category:    cell(row, btgStatementColCategory),
			BankID:      p.BankID(),
		})
		p.logger.Debug("parsed row", "row", i, "type", cell(row, btgStatementColType), "description", description)
	}

	if len(out) == 0 {
		return nil, errNoRows("BTG statement")
	}
	return out, nil
}
