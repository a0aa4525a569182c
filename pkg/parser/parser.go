package parser

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/vitorcapdeville/financas/pkg/models"
)

// Parser turns the raw bytes of one bank export into normalized rows.
// Rows that cannot be coerced are dropped; a file with no surviving rows is a
// validation error.
type Parser interface {
	ID() string
	BankID() string
	BankName() string
	Extensions() []string
	Parse(data []byte, filename, password string) ([]models.NormalizedRow, error)
}

// Info describes a registered parser.
type Info struct {
	ID         string   `json:"id"`
	BankID     string   `json:"bank_id"`
	BankName   string   `json:"bank_name"`
	Extensions []string `json:"extensions"`
}

func describe(p Parser) Info {
	return Info{
		ID:         p.ID(),
		BankID:     p.BankID(),
		BankName:   p.BankName(),
		Extensions: p.Extensions(),
	}
}

// Supports reports whether filename has one of the extensions p accepts.
func Supports(p Parser, filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return slices.Contains(p.Extensions(), ext)
}

func errNoRows(format string) error {
	return models.NewValidationError("%s: no valid rows found", format)
}
