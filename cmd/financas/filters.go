package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"

	"github.com/vitorcapdeville/financas/pkg/csv"
	"github.com/vitorcapdeville/financas/pkg/models"
	"github.com/vitorcapdeville/financas/pkg/repository"
)

// filters holds the listing flags. Period, category, direction and tags are
// pushed to the store; amount and description are applied afterwards.
type filters struct {
	month       int
	year        int
	startDate   string
	endDate     string
	byInvoice   bool
	category    string
	direction   string
	tagIDs      []int64
	untagged    bool
	minAmount   float64
	maxAmount   float64
	description string
}

func (f *filters) register(fs *pflag.FlagSet) {
	f.registerStore(fs)
	fs.Float64Var(&f.minAmount, "min", 0, "Minimum amount")
	fs.Float64Var(&f.maxAmount, "max", 0, "Maximum amount")
	fs.StringVar(&f.description, "description", "", "Filter by description (case insensitive)")
}

// registerStore registers only the flags pushed down to the store.
func (f *filters) registerStore(fs *pflag.FlagSet) {
	fs.IntVar(&f.month, "month", 0, "Month (1-12), requires --year")
	fs.IntVar(&f.year, "year", 0, "Year")
	fs.StringVar(&f.startDate, "start", "", "Start date (YYYY-MM-DD)")
	fs.StringVar(&f.endDate, "end", "", "End date, inclusive (YYYY-MM-DD)")
	fs.BoolVar(&f.byInvoice, "by-invoice", false, "Apply the period to the invoice date (default: the criterio_data_transacao setting)")
	fs.StringVar(&f.category, "category", "", "Category")
	fs.StringVar(&f.direction, "direction", "", "inflow or outflow")
	fs.Int64SliceVar(&f.tagIDs, "tags", nil, "Transactions having any of these tag ids")
	fs.BoolVar(&f.untagged, "untagged", false, "Transactions without tags")
}

func (f *filters) toRepository(userID int64) (repository.TransactionFilter, error) {
	out := repository.TransactionFilter{
		UserID:    userID,
		Month:     f.month,
		Year:      f.year,
		Category:  f.category,
		Direction: models.Direction(f.direction),
		TagIDs:    f.tagIDs,
		Untagged:  f.untagged,
	}
	switch out.Direction {
	case "", models.Inflow, models.Outflow:
	default:
		return out, fmt.Errorf("invalid direction %q", f.direction)
	}
	if f.byInvoice {
		out.DateField = repository.ByInvoiceDate
	}
	var err error
	if out.Start, err = parseDay(f.startDate); err != nil {
		return out, err
	}
	if out.End, err = parseDay(f.endDate); err != nil {
		return out, err
	}
	return out, nil
}

func parseDay(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return &d, nil
}

func (f *filters) toFilterFunc() csv.FilterFunc[*models.Transaction] {
	lo := decimal.NewFromFloat(f.minAmount)
	hi := decimal.NewFromFloat(f.maxAmount)
	return func(t *models.Transaction) bool {
		if f.minAmount != 0 && t.Amount.LessThan(lo) {
			return false
		}
		if f.maxAmount != 0 && t.Amount.GreaterThan(hi) {
			return false
		}
		if f.description != "" && !strings.Contains(strings.ToLower(t.Description), strings.ToLower(f.description)) {
			return false
		}
		return true
	}
}

// apply narrows txs with the post-store filters.
func (f *filters) apply(txs []*models.Transaction) []*models.Transaction {
	keep := f.toFilterFunc()
	out := txs[:0:0]
	for _, tx := range txs {
		if keep(tx) {
			out = append(out, tx)
		}
	}
	return out
}
