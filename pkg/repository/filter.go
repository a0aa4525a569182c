package repository

import (
	"slices"
	"time"

	"github.com/vitorcapdeville/financas/pkg/models"
)

// Period returns the [start, end) interval implied by Month/Year, Start and
// End. Month without Year is ignored. A nil bound is open.
func (f TransactionFilter) Period() (start, end *time.Time) {
	if f.Year > 0 {
		from := time.Date(f.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		to := from.AddDate(1, 0, 0)
		if f.Month >= 1 && f.Month <= 12 {
			from = time.Date(f.Year, time.Month(f.Month), 1, 0, 0, 0, 0, time.UTC)
			to = from.AddDate(0, 1, 0)
		}
		start, end = &from, &to
	}
	if f.Start != nil {
		s := *f.Start
		start = &s
	}
	if f.End != nil {
		// End is inclusive of the whole day
		e := time.Date(f.End.Year(), f.End.Month(), f.End.Day(), 0, 0, 0, 0, f.End.Location()).AddDate(0, 0, 1)
		end = &e
	}
	return start, end
}

// Match reports whether tx passes every condition of the filter. Stores that
// cannot push filters down to a query engine use it directly.
func (f TransactionFilter) Match(tx *models.Transaction) bool {
	if f.UserID != 0 && tx.UserID != f.UserID {
		return false
	}
	if f.Category != "" && tx.Category != f.Category {
		return false
	}
	if f.Direction != "" && tx.Direction != f.Direction {
		return false
	}
	if !f.matchTags(tx) {
		return false
	}

	start, end := f.Period()
	if start == nil && end == nil {
		return true
	}
	d := tx.Date
	if f.DateField == ByInvoiceDate {
		if tx.InvoiceDate == nil {
			return false
		}
		d = *tx.InvoiceDate
	}
	if start != nil && d.Before(*start) {
		return false
	}
	if end != nil && !d.Before(*end) {
		return false
	}
	return true
}

// matchTags applies TagIDs and Untagged. When both are set a transaction
// passes if it has no tags or has any of TagIDs.
func (f TransactionFilter) matchTags(tx *models.Transaction) bool {
	untagged := len(tx.TagIDs) == 0
	switch {
	case f.Untagged && len(f.TagIDs) > 0:
		return untagged || slices.ContainsFunc(f.TagIDs, tx.HasTag)
	case f.Untagged:
		return untagged
	case len(f.TagIDs) > 0:
		return slices.ContainsFunc(f.TagIDs, tx.HasTag)
	}
	return true
}
