package transactions

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vitorcapdeville/financas/pkg/models"
	"github.com/vitorcapdeville/financas/pkg/repository"
)

// Uncategorized groups transactions without a category in a Summary.
const Uncategorized = "Sem categoria"

// Summary totals the inflows and outflows of a period. Amounts are the
// current (possibly rule-adjusted) values, always non-negative.
type Summary struct {
	Month             int
	Year              int
	Inflow            decimal.Decimal
	Outflow           decimal.Decimal
	Balance           decimal.Decimal
	InflowByCategory  map[string]decimal.Decimal
	OutflowByCategory map[string]decimal.Decimal
	Count             int
}

// Summary aggregates the transactions matching filter. Category and
// direction filters are ignored so both sides of the balance are counted.
func (s *Service) Summary(ctx context.Context, filter repository.TransactionFilter) (*Summary, error) {
	filter.Category = ""
	filter.Direction = ""
	txs, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		Month:             filter.Month,
		Year:              filter.Year,
		InflowByCategory:  map[string]decimal.Decimal{},
		OutflowByCategory: map[string]decimal.Decimal{},
		Count:             len(txs),
	}
	for _, tx := range txs {
		category := strings.TrimSpace(tx.Category)
		if category == "" {
			category = Uncategorized
		}
		if tx.Direction == models.Inflow {
			sum.Inflow = sum.Inflow.Add(tx.Amount)
			sum.InflowByCategory[category] = sum.InflowByCategory[category].Add(tx.Amount)
			continue
		}
		sum.Outflow = sum.Outflow.Add(tx.Amount)
		sum.OutflowByCategory[category] = sum.OutflowByCategory[category].Add(tx.Amount)
	}
	sum.Balance = sum.Inflow.Sub(sum.Outflow)
	return sum, nil
}
