package parser

import (
	"path/filepath"
	"regexp"
	"strings"
)

const (
	BTGStatementID    = "generic_btg_statement"
	BTGInvoiceID      = "generic_btg_invoice"
	NubankInvoiceID   = "generic_nu_invoice"
	NubankStatementID = "generic_nu_statement"
	GenericID         = "generic_normalized"
)

var knownExtensions = []string{".csv", ".xlsx", ".xls", ".txt"}

// patterns is evaluated in order; the first match wins.
var patterns = []struct {
	id string
	re *regexp.Regexp
}{
	{BTGStatementID, regexp.MustCompile(`(?i)^Extrato_\d{4}-\d{2}-\d{2}_a_\d{4}-\d{2}-\d{2}_\d+`)},
	{BTGInvoiceID, regexp.MustCompile(`(?i)^\d{4}-\d{2}-\d{2}_Fatura_.+_\d+_BTG`)},
	{NubankInvoiceID, regexp.MustCompile(`(?i)^Nubank_\d{4}-\d{2}-\d{2}`)},
	{NubankStatementID, regexp.MustCompile(`(?i)^NU_\d+_\d{2}[A-Z]{3}\d{4}_\d{2}[A-Z]{3}\d{4}`)},
}

// Detect maps a filename to a parser id using naming conventions only. Files
// that match no known bank convention are treated as pre-normalized.
func Detect(filename string) string {
	name := stripExtension(filepath.Base(filename))
	for _, p := range patterns {
		if p.re.MatchString(name) {
			return p.id
		}
	}
	return GenericID
}

func stripExtension(name string) string {
	lower := strings.ToLower(name)
	for _, ext := range knownExtensions {
		if strings.HasSuffix(lower, ext) {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}
