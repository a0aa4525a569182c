package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Origin tells whether a row came from a bank account statement or a credit
// card invoice.
type Origin string

const (
	OriginStatement Origin = "statement"
	OriginInvoice   Origin = "invoice"
)

// ParseOrigin accepts both the canonical names and the spellings used by
// pre-normalized spreadsheets (extrato_bancario, fatura_cartao).
func ParseOrigin(s string) (Origin, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "statement", "extrato_bancario":
		return OriginStatement, nil
	case "invoice", "fatura_cartao":
		return OriginInvoice, nil
	}
	return "", fmt.Errorf("unknown origin %q", s)
}

// External returns the pre-normalized file spelling of o.
func (o Origin) External() string {
	if o == OriginInvoice {
		return "fatura_cartao"
	}
	return "extrato_bancario"
}

// NormalizedRow is the common shape every bank parser produces. Amount keeps
// the sign found in the source file.
type NormalizedRow struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Origin      Origin
	Category    string
	BankID      string
	InvoiceDate *time.Time
}
