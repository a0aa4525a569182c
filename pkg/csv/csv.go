// Package csv writes transactions back out in the pre-normalized layout read
// by the generic parser, so an export can be edited and re-imported.
package csv

import (
	"bytes"
	stdcsv "encoding/csv"
	"fmt"
	"io"

	"github.com/vitorcapdeville/financas/pkg/models"
	"github.com/vitorcapdeville/financas/pkg/parser"
)

const dateLayout = "02/01/2006"

type FilterFunc[T any] func(T) bool

// Write encodes the transactions accepted by filter (all when nil) as CSV.
// Amounts are signed: outflows are negative.
func Write(w io.Writer, txs []*models.Transaction, filter FilterFunc[*models.Transaction]) error {
	cw := stdcsv.NewWriter(w)
	if err := cw.Write(parser.GenericColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, tx := range txs {
		if filter != nil && !filter(tx) {
			continue
		}
		if err := cw.Write(record(tx)); err != nil {
			return fmt.Errorf("failed to write transaction %d: %w", tx.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Create is Write into a buffer.
func Create(txs []*models.Transaction, filter FilterFunc[*models.Transaction]) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, txs, filter); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func record(tx *models.Transaction) []string {
	invoice := ""
	if tx.InvoiceDate != nil {
		invoice = tx.InvoiceDate.Format(dateLayout)
	}
	return []string{
		tx.Date.Format(dateLayout),
		tx.Description,
		tx.SignedAmount().StringFixed(2),
		tx.Origin.External(),
		tx.Category,
		tx.BankID,
		invoice,
	}
}
